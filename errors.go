package main

import "errors"

var (
	ErrMissingBotToken   = errors.New("TELEGRAM_BOT_TOKEN environment variable is required")
	ErrNothingToUndo     = errors.New("nothing to undo")
	ErrMessageBodyAbsent = errors.New("message body not found in forwarded record")
)

package main

import (
	"time"
)

// CandidateMessage is an inbound message that passed keyword, minus-word and
// heuristic spam filtering and is waiting in the queue for delivery.
// It is created once by the monitor and never mutated afterwards.
type CandidateMessage struct {
	Keyword string
	Chat    string
	Sender  string
	Text    string
	Link    string
}

// ForwardedItem is a record of a message that was published to the
// destination channel. Recent items are kept in memory for the status feed.
type ForwardedItem struct {
	MessageID int
	Keyword   string
	Chat      string
	Sender    string
	Text      string
	Link      string
	SentAt    time.Time
}

// UndoRecord remembers exactly which terms a reviewer confirmation added,
// keyed by the forwarded message ID, so the action can be reversed.
type UndoRecord struct {
	Kind  ListKind
	Terms []string
}

// FilterConfig is the runtime filtering configuration. Readers always get a
// cloned snapshot from the store; mutations go through ConfigStore.Update.
type FilterConfig struct {
	Admins         []string `json:"admins"`
	ForwardChannel string   `json:"forward_channel"`

	Keywords   []string `json:"keywords"`
	MinusWords []string `json:"minus_words"`
	SkipWords  []string `json:"skip_words"`

	SpamTriggers       []string `json:"spam_commercial_triggers"`
	SpamServices       []string `json:"spam_services"`
	SpamEmojis         string   `json:"spam_emojis"`
	SpamScoreThreshold int      `json:"spam_score_threshold"`

	AIFilterEnabled bool   `json:"ai_filter_enabled"`
	AIModel         string `json:"openai_model"`
	AIFilterRole    string `json:"ai_main_filter_role"`
	// The "tagret" misspelling is historical; existing config files carry it.
	AITargetCriteria string `json:"ai_tagret_filter_criteria"`
	AISpamCriteria   string `json:"ai_spam_filter_criteria"`

	// Version increases on every successful save. The spam scorer uses it to
	// know when to recompile trigger patterns.
	Version int64 `json:"version"`
}

// Clone returns a deep copy so a snapshot can be handed out without the
// caller being able to mutate the stored lists.
func (c FilterConfig) Clone() FilterConfig {
	out := c
	out.Admins = append([]string(nil), c.Admins...)
	out.Keywords = append([]string(nil), c.Keywords...)
	out.MinusWords = append([]string(nil), c.MinusWords...)
	out.SkipWords = append([]string(nil), c.SkipWords...)
	out.SpamTriggers = append([]string(nil), c.SpamTriggers...)
	out.SpamServices = append([]string(nil), c.SpamServices...)
	return out
}

func (c FilterConfig) Threshold() int {
	if c.SpamScoreThreshold <= 0 {
		return defaultSpamThreshold
	}
	return c.SpamScoreThreshold
}

func (c FilterConfig) Model() string {
	if c.AIModel == "" {
		return defaultAIModel
	}
	return c.AIModel
}

const (
	defaultSpamThreshold = 4
	defaultAIModel       = "gpt-4o-mini"

	// Inbound text is truncated before it enters the queue; classifier
	// prompts embed an even shorter prefix.
	maxQueuedTextLen = 1000
	maxPromptTextLen = 500

	// Word lists are compacted back under this cap after a merge.
	maxListEntries = 100
)

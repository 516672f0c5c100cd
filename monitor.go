package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot/models"
)

// MessageMonitor is the ingestion boundary: it is invoked once per inbound
// group message and either enqueues a candidate or drops the message. It
// never blocks on delivery — the queue is unbounded.
type MessageMonitor struct {
	store  *ConfigStore
	scorer *SpamScorer
	queue  *PendingQueue
}

func NewMessageMonitor(store *ConfigStore, scorer *SpamScorer, queue *PendingQueue) *MessageMonitor {
	return &MessageMonitor{store: store, scorer: scorer, queue: queue}
}

func (m *MessageMonitor) Process(msg *models.Message) {
	if msg == nil {
		return
	}

	text := msg.Text
	if text == "" {
		text = msg.Caption
	}
	if text == "" {
		return
	}

	cfg, err := m.store.Snapshot()
	if err != nil {
		slog.Error("Failed to read filter config, skipping message", "error", err)
		return
	}

	// Never monitor the destination channel itself.
	chatUsername := msg.Chat.Username
	if cfg.ForwardChannel != "" && chatUsername != "" {
		fwd := strings.ToLower(strings.TrimPrefix(cfg.ForwardChannel, "@"))
		if strings.ToLower(chatUsername) == fwd {
			return
		}
	}

	// Chats run by an admin are exempt from monitoring.
	if chatUsername != "" && isAdmin(chatUsername, cfg.Admins) {
		return
	}

	if HasMinusWord(text, cfg.MinusWords) {
		return
	}

	keyword := FindKeyword(text, cfg.Keywords)
	if keyword == "" {
		return
	}

	chatName := formatChat(&msg.Chat)

	if m.scorer.IsSpam(text, cfg) {
		slog.Info("Heuristic filter blocked message", "text", truncateRunes(text, 60), "chat", chatName)
		return
	}

	link := ""
	if chatUsername != "" {
		link = fmt.Sprintf("https://t.me/%s/%d", chatUsername, msg.ID)
	}

	m.queue.Put(&CandidateMessage{
		Keyword: keyword,
		Chat:    chatName,
		Sender:  formatSender(msg.From),
		Text:    truncateRunes(text, maxQueuedTextLen),
		Link:    link,
	})
	slog.Info("Queued message for forwarding", "chat", chatName, "queue_size", m.queue.Size())
}

func isAdmin(username string, admins []string) bool {
	tag := "@" + strings.ToLower(username)
	for _, a := range admins {
		if strings.ToLower(a) == tag {
			return true
		}
	}
	return false
}

func formatSender(user *models.User) string {
	if user == nil {
		return "Unknown"
	}
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	tag := ""
	if user.Username != "" {
		tag = fmt.Sprintf("[ @%s ]", user.Username)
	} else if user.ID != 0 {
		tag = fmt.Sprintf("[ %d ]", user.ID)
	}
	return strings.TrimSpace(name + " " + tag)
}

func formatChat(chat *models.Chat) string {
	if chat == nil {
		return ""
	}
	if chat.Username != "" {
		return fmt.Sprintf("%s [ @%s ]", chat.Title, chat.Username)
	}
	return chat.Title
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// statusRe strips a previously appended status/result block (analyzing,
// added terms, undone) from a forwarded record so it can be re-edited.
var statusRe = regexp.MustCompile(`\n\n[✅🚫↩️⏳]`)

// BotHandler owns the chat-facing surface: admin commands that edit the
// filter configuration and the reviewer callback buttons on forwarded
// messages.
type BotHandler struct {
	cfg        *Config
	store      *ConfigStore
	queue      *PendingQueue
	classifier *Classifier
	feedback   *FeedbackProcessor
}

func NewBotHandler(cfg *Config, store *ConfigStore, queue *PendingQueue, classifier *Classifier, feedback *FeedbackProcessor) *BotHandler {
	return &BotHandler{
		cfg:        cfg,
		store:      store,
		queue:      queue,
		classifier: classifier,
		feedback:   feedback,
	}
}

type commandFunc func(ctx context.Context, b *bot.Bot, update *models.Update, arg string)

func (h *BotHandler) RegisterCommands(b *bot.Bot) {
	commands := map[string]commandFunc{
		"/start":          h.handleHelp,
		"/help":           h.handleHelp,
		"/list":           h.handleList,
		"/ai_enable":      h.handleAIEnable,
		"/ai_disable":     h.handleAIDisable,
		"/ai_set_model":   h.handleAISetModel,
		"/ai_set_role":    h.setTextBlock("AI role", func(cfg *FilterConfig, v string) { cfg.AIFilterRole = v }),
		"/ai_set_target":  h.setTextBlock("TARGET criteria", func(cfg *FilterConfig, v string) { cfg.AITargetCriteria = v }),
		"/ai_set_spam":    h.setTextBlock("SPAM criteria", func(cfg *FilterConfig, v string) { cfg.AISpamCriteria = v }),
		"/ai_status":      h.handleAIStatus,
		"/ai_test":        h.handleAITest,
		"/add_admin":      h.handleAddAdmin,
		"/del_admin":      h.handleDelAdmin,
		"/set_channel":    h.handleSetChannel,
		"/get_channel":    h.handleGetChannel,
		"/queue_status":   h.handleQueueStatus,
		"/stats":          h.handleStats,
		"/add_word":       h.addTerm("keyword", func(cfg *FilterConfig) *[]string { return &cfg.Keywords }),
		"/del_word":       h.delTerm("keyword", func(cfg *FilterConfig) *[]string { return &cfg.Keywords }),
		"/add_minus":      h.addTerm("minus word", func(cfg *FilterConfig) *[]string { return &cfg.MinusWords }),
		"/del_minus":      h.delTerm("minus word", func(cfg *FilterConfig) *[]string { return &cfg.MinusWords }),
		"/add_skip":       h.addTerm("skip word", func(cfg *FilterConfig) *[]string { return &cfg.SkipWords }),
		"/del_skip":       h.delTerm("skip word", func(cfg *FilterConfig) *[]string { return &cfg.SkipWords }),
		"/clean_minus":    h.handleCleanMinus,
		"/add_trigger":    h.handleAddTrigger,
		"/del_trigger":    h.delTerm("trigger", func(cfg *FilterConfig) *[]string { return &cfg.SpamTriggers }),
		"/add_service":    h.addTerm("service", func(cfg *FilterConfig) *[]string { return &cfg.SpamServices }),
		"/del_service":    h.delTerm("service", func(cfg *FilterConfig) *[]string { return &cfg.SpamServices }),
		"/spam_emojis":    h.handleSpamEmojis,
		"/spam_threshold": h.handleSpamThreshold,
	}

	for cmd, fn := range commands {
		b.RegisterHandler(bot.HandlerTypeMessageText, cmd, bot.MatchTypePrefix, h.adminOnly(fn))
	}

	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, callbackTarget, bot.MatchTypeExact, h.confirmHandler(ListKindKeywords))
	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, callbackSpam, bot.MatchTypeExact, h.confirmHandler(ListKindMinusWords))
	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, callbackUndoTarget, bot.MatchTypeExact, h.handleUndo)
	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, callbackUndoSpam, bot.MatchTypeExact, h.handleUndo)
}

// adminOnly wraps a command handler with the admin check and argument
// parsing ("/cmd@bot arg" -> arg).
func (h *BotHandler) adminOnly(fn commandFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		if update.Message == nil || update.Message.From == nil {
			return
		}
		cfg, err := h.store.Snapshot()
		if err != nil {
			slog.Error("Failed to read filter config", "error", err)
			return
		}
		// An empty admin list means the bot is not locked down yet.
		if len(cfg.Admins) > 0 && !isAdmin(update.Message.From.Username, cfg.Admins) {
			return
		}

		text := strings.TrimSpace(update.Message.Text)
		arg := ""
		if parts := strings.SplitN(text, " ", 2); len(parts) == 2 {
			arg = strings.TrimSpace(parts[1])
		}
		fn(ctx, b, update, arg)
	}
}

func (h *BotHandler) reply(ctx context.Context, b *bot.Bot, update *models.Update, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   text,
	})
	if err != nil {
		slog.Error("Failed to send reply", "error", err)
	}
}

// HandleUpdate is the default handler: anything that is not a registered
// command or callback flows through here, which is where monitored group
// traffic arrives.
func (h *BotHandler) HandleUpdate(monitor *MessageMonitor) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		switch {
		case update.Message != nil:
			t := update.Message.Chat.Type
			if t == "group" || t == "supergroup" {
				monitor.Process(update.Message)
			}
		case update.ChannelPost != nil:
			monitor.Process(update.ChannelPost)
		}
	}
}

// ── Reviewer callbacks ───────────────────────────────────────────────

func (h *BotHandler) confirmHandler(kind ListKind) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		cb := update.CallbackQuery
		msg := callbackMessage(cb)
		if msg == nil {
			return
		}

		answerCallback(ctx, b, cb, "⏳ Analyzing…", false)

		// Drop the buttons immediately so the reviewer sees progress.
		editForward(ctx, b, msg, msg.Text+"\n\n⏳ Analyzing…", nil)

		added, err := h.feedback.Confirm(ctx, msg.ID, msg.Text, kind)

		var result string
		switch {
		case err != nil:
			slog.Error("Feedback confirmation failed", "kind", kind, "error", err)
			result = resultPrefix(kind) + " No new terms found"
		case len(added) > 0:
			quoted := make([]string, len(added))
			for i, w := range added {
				quoted[i] = `"` + w + `"`
			}
			result = fmt.Sprintf("%s Added terms: %s", resultPrefix(kind), strings.Join(quoted, ", "))
		default:
			result = resultPrefix(kind) + " No new terms found"
		}

		base := statusRe.Split(msg.Text, 2)[0]
		kb := undoKeyboard(kind)
		editForward(ctx, b, msg, base+"\n\n"+result, &kb)
	}
}

func (h *BotHandler) handleUndo(ctx context.Context, b *bot.Bot, update *models.Update) {
	cb := update.CallbackQuery
	msg := callbackMessage(cb)
	if msg == nil {
		return
	}

	_, err := h.feedback.Undo(ctx, msg.ID)
	if err != nil {
		if err == ErrNothingToUndo {
			answerCallback(ctx, b, cb, "⚠️ Nothing to undo", true)
		} else {
			slog.Error("Undo failed", "error", err)
			answerCallback(ctx, b, cb, "⚠️ Undo failed", true)
		}
		return
	}

	answerCallback(ctx, b, cb, "↩️ Undone", false)

	// Restore the pre-confirmation record with both confirm buttons.
	base := statusRe.Split(msg.Text, 2)[0]
	kb := reviewKeyboard()
	editForward(ctx, b, msg, base, &kb)
}

func resultPrefix(kind ListKind) string {
	if kind == ListKindKeywords {
		return "✅"
	}
	return "🚫"
}

func callbackMessage(cb *models.CallbackQuery) *models.Message {
	if cb == nil {
		return nil
	}
	return cb.Message.Message
}

func answerCallback(ctx context.Context, b *bot.Bot, cb *models.CallbackQuery, text string, alert bool) {
	_, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: cb.ID,
		Text:            text,
		ShowAlert:       alert,
	})
	if err != nil {
		slog.Error("Failed to answer callback", "error", err)
	}
}

func editForward(ctx context.Context, b *bot.Bot, msg *models.Message, text string, kb *models.InlineKeyboardMarkup) {
	params := &bot.EditMessageTextParams{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
		Text:      text,
	}
	if kb != nil {
		params.ReplyMarkup = *kb
	}
	if _, err := b.EditMessageText(ctx, params); err != nil {
		slog.Error("Failed to edit forwarded record", "message_id", msg.ID, "error", err)
	}
}

// ── Admin commands ───────────────────────────────────────────────────

func (h *BotHandler) handleHelp(ctx context.Context, b *bot.Bot, update *models.Update, _ string) {
	h.reply(ctx, b, update, `📖 Commands:

🤖 AI filtering:
/ai_enable — turn on
/ai_disable — turn off
/ai_set_model <model> — OpenAI model
/ai_set_role <text> — classifier role
/ai_set_target <text> — TARGET criteria
/ai_set_spam <text> — SPAM criteria
/ai_status — status and counters
/ai_test <text> — classify a sample

👤 Admins:
/add_admin @username, /del_admin @username

📢 Destination:
/set_channel @channel — set
/get_channel — show
/queue_status — forwarding queue

🔍 Keywords: /add_word, /del_word
🚫 Minus words: /add_minus, /del_minus, /clean_minus
⏭ Skip words: /add_skip, /del_skip

🛡 Heuristic filter:
/add_trigger <regex>, /del_trigger <regex>
/add_service <name>, /del_service <name>
/spam_emojis <chars> — show/set
/spam_threshold <n> — show/set

📊 /stats — filtering counters
📋 /list — all settings`)
}

func (h *BotHandler) handleList(ctx context.Context, b *bot.Bot, update *models.Update, _ string) {
	cfg, err := h.store.Snapshot()
	if err != nil {
		h.reply(ctx, b, update, "❌ Failed to read config: "+err.Error())
		return
	}

	bullets := func(items []string) string {
		if len(items) == 0 {
			return "  (empty)"
		}
		var sb strings.Builder
		for _, it := range items {
			sb.WriteString("  • " + it + "\n")
		}
		return strings.TrimRight(sb.String(), "\n")
	}

	aiState := "🔴 OFF"
	if cfg.AIFilterEnabled {
		aiState = "🟢 ON"
	}
	channel := cfg.ForwardChannel
	if channel == "" {
		channel = "not set"
	}
	emojis := cfg.SpamEmojis
	if emojis == "" {
		emojis = "(empty)"
	}

	h.reply(ctx, b, update, fmt.Sprintf(
		"📋 Current settings:\n\n"+
			"👤 Admins:\n%s\n\n"+
			"📢 Forward channel: %s\n\n"+
			"🤖 AI filtering: %s\n\n"+
			"🔍 Keywords:\n%s\n\n"+
			"🚫 Minus words:\n%s\n\n"+
			"⏭ Skip words:\n%s\n\n"+
			"🛡 Heuristic filter (threshold: %d):\n\n"+
			"📍 Triggers:\n%s\n\n"+
			"💼 Services:\n%s\n\n"+
			"🎭 Emojis: %s",
		bullets(cfg.Admins), channel, aiState,
		bullets(cfg.Keywords), bullets(cfg.MinusWords), bullets(cfg.SkipWords),
		cfg.Threshold(), bullets(cfg.SpamTriggers), bullets(cfg.SpamServices), emojis,
	))
}

func (h *BotHandler) handleAIEnable(ctx context.Context, b *bot.Bot, update *models.Update, _ string) {
	if h.cfg.OpenAIAPIKey == "" {
		h.reply(ctx, b, update, "❌ Set OPENAI_API_KEY first")
		return
	}
	if _, err := h.store.Update(func(cfg *FilterConfig) error {
		cfg.AIFilterEnabled = true
		return nil
	}); err != nil {
		h.reply(ctx, b, update, "❌ Failed to save: "+err.Error())
		return
	}
	h.reply(ctx, b, update, "✅ AI filtering ON")
}

func (h *BotHandler) handleAIDisable(ctx context.Context, b *bot.Bot, update *models.Update, _ string) {
	if _, err := h.store.Update(func(cfg *FilterConfig) error {
		cfg.AIFilterEnabled = false
		return nil
	}); err != nil {
		h.reply(ctx, b, update, "❌ Failed to save: "+err.Error())
		return
	}
	h.reply(ctx, b, update, "🔴 AI filtering OFF")
}

func (h *BotHandler) handleAISetModel(ctx context.Context, b *bot.Bot, update *models.Update, arg string) {
	if arg == "" {
		h.reply(ctx, b, update, "❌ /ai_set_model gpt-4o-mini")
		return
	}
	if _, err := h.store.Update(func(cfg *FilterConfig) error {
		cfg.AIModel = arg
		return nil
	}); err != nil {
		h.reply(ctx, b, update, "❌ Failed to save: "+err.Error())
		return
	}
	h.reply(ctx, b, update, "✅ Model: "+arg)
}

func (h *BotHandler) setTextBlock(name string, set func(cfg *FilterConfig, v string)) commandFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update, arg string) {
		if arg == "" {
			h.reply(ctx, b, update, "❌ Provide the "+name+" text")
			return
		}
		if _, err := h.store.Update(func(cfg *FilterConfig) error {
			set(cfg, arg)
			return nil
		}); err != nil {
			h.reply(ctx, b, update, "❌ Failed to save: "+err.Error())
			return
		}
		h.reply(ctx, b, update, "✅ "+name+" set:\n"+truncateRunes(arg, 200))
	}
}

func (h *BotHandler) handleAIStatus(ctx context.Context, b *bot.Bot, update *models.Update, _ string) {
	cfg, err := h.store.Snapshot()
	if err != nil {
		h.reply(ctx, b, update, "❌ Failed to read config: "+err.Error())
		return
	}
	state := "🔴 OFF"
	if cfg.AIFilterEnabled {
		state = "🟢 ON"
	}
	check := func(ok bool) string {
		if ok {
			return "✅"
		}
		return "❌ not set"
	}
	stats := h.classifier.Stats()
	h.reply(ctx, b, update, fmt.Sprintf(
		"🤖 AI filtering: %s\n"+
			"🔑 Key: %s\n"+
			"🧠 Model: %s\n"+
			"🎭 Role: %s\n"+
			"🎯 Target criteria: %s\n"+
			"🛡 Spam criteria: %s\n\n"+
			"📊 Checked: %d | Passed: %d | Filtered: %d",
		state, check(h.cfg.OpenAIAPIKey != ""), cfg.Model(),
		check(cfg.AIFilterRole != ""), check(cfg.AITargetCriteria != ""), check(cfg.AISpamCriteria != ""),
		stats.Checked, stats.Passed, stats.Filtered,
	))
}

func (h *BotHandler) handleAITest(ctx context.Context, b *bot.Bot, update *models.Update, arg string) {
	if arg == "" {
		h.reply(ctx, b, update, "❌ /ai_test <text>")
		return
	}
	cfg, err := h.store.Snapshot()
	if err != nil {
		h.reply(ctx, b, update, "❌ Failed to read config: "+err.Error())
		return
	}
	h.reply(ctx, b, update, "🤖 Testing…")
	if h.classifier.Classify(ctx, arg, "test", "test_chat", cfg) {
		h.reply(ctx, b, update, "✅ Classifier passed it (target)")
	} else {
		h.reply(ctx, b, update, "🚫 Classifier blocked it (spam)")
	}
}

// normalizeAdminTag turns "Boss", " @Boss " or "@BOSS" into "@boss".
func normalizeAdminTag(arg string) string {
	return "@" + strings.ToLower(strings.TrimPrefix(strings.TrimSpace(arg), "@"))
}

func (h *BotHandler) handleAddAdmin(ctx context.Context, b *bot.Bot, update *models.Update, arg string) {
	if arg == "" {
		h.reply(ctx, b, update, "❌ /add_admin @username")
		return
	}
	tag := normalizeAdminTag(arg)
	added := false
	if _, err := h.store.Update(func(cfg *FilterConfig) error {
		cfg.Admins, added = appendUnique(cfg.Admins, tag)
		return nil
	}); err != nil {
		h.reply(ctx, b, update, "❌ Failed to save: "+err.Error())
		return
	}
	if !added {
		h.reply(ctx, b, update, "⚠️ Already an admin")
		return
	}
	h.reply(ctx, b, update, "✅ Added admin: "+tag)
}

func (h *BotHandler) handleDelAdmin(ctx context.Context, b *bot.Bot, update *models.Update, arg string) {
	if arg == "" {
		h.reply(ctx, b, update, "❌ /del_admin @username")
		return
	}
	tag := normalizeAdminTag(arg)
	if update.Message.From != nil && tag == normalizeAdminTag(update.Message.From.Username) {
		h.reply(ctx, b, update, "❌ You cannot remove yourself")
		return
	}
	removed := false
	if _, err := h.store.Update(func(cfg *FilterConfig) error {
		before := len(cfg.Admins)
		cfg.Admins = removeTerms(cfg.Admins, []string{tag})
		removed = len(cfg.Admins) < before
		return nil
	}); err != nil {
		h.reply(ctx, b, update, "❌ Failed to save: "+err.Error())
		return
	}
	if !removed {
		h.reply(ctx, b, update, "❌ Not found")
		return
	}
	h.reply(ctx, b, update, "🗑 Removed admin: "+tag)
}

func (h *BotHandler) handleSetChannel(ctx context.Context, b *bot.Bot, update *models.Update, arg string) {
	if arg == "" {
		h.reply(ctx, b, update, "❌ /set_channel @channel")
		return
	}
	chat, err := b.GetChat(ctx, &bot.GetChatParams{ChatID: arg})
	if err != nil {
		h.reply(ctx, b, update, fmt.Sprintf("❌ Cannot access channel: %v\nMake sure the bot is an administrator there.", err))
		return
	}
	if _, err := h.store.Update(func(cfg *FilterConfig) error {
		cfg.ForwardChannel = arg
		return nil
	}); err != nil {
		h.reply(ctx, b, update, "❌ Failed to save: "+err.Error())
		return
	}
	h.reply(ctx, b, update, fmt.Sprintf("✅ Channel: %s\nTitle: %s", arg, chat.Title))
}

func (h *BotHandler) handleGetChannel(ctx context.Context, b *bot.Bot, update *models.Update, _ string) {
	cfg, err := h.store.Snapshot()
	if err != nil {
		h.reply(ctx, b, update, "❌ Failed to read config: "+err.Error())
		return
	}
	if cfg.ForwardChannel == "" {
		h.reply(ctx, b, update, "❌ Channel not configured")
		return
	}
	h.reply(ctx, b, update, "📢 Channel: "+cfg.ForwardChannel)
}

func (h *BotHandler) handleQueueStatus(ctx context.Context, b *bot.Bot, update *models.Update, _ string) {
	cfg, _ := h.store.Snapshot()
	channel := cfg.ForwardChannel
	if channel == "" {
		channel = "not set"
	}
	h.reply(ctx, b, update, fmt.Sprintf(
		"📊 Forwarding queue:\n📥 Pending: %d\n✅ Processed: %d\n📢 Channel: %s",
		h.queue.Size(), h.queue.Acked(), channel,
	))
}

func (h *BotHandler) handleStats(ctx context.Context, b *bot.Bot, update *models.Update, _ string) {
	stats := h.classifier.Stats()
	h.reply(ctx, b, update, fmt.Sprintf(
		"📊 Filtering statistics:\n\n"+
			"🤖 AI checked: %d\n"+
			"✅ AI passed: %d\n"+
			"🚫 AI filtered: %d\n\n"+
			"📥 Queue backlog: %d\n"+
			"📤 Items processed: %d",
		stats.Checked, stats.Passed, stats.Filtered, h.queue.Size(), h.queue.Acked(),
	))
}

// addTerm returns a handler that appends arg to one of the word lists,
// skipping case-insensitive duplicates.
func (h *BotHandler) addTerm(name string, list func(cfg *FilterConfig) *[]string) commandFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update, arg string) {
		if arg == "" {
			h.reply(ctx, b, update, "❌ Provide a "+name)
			return
		}
		added := false
		if _, err := h.store.Update(func(cfg *FilterConfig) error {
			l := list(cfg)
			*l, added = appendUnique(*l, arg)
			return nil
		}); err != nil {
			h.reply(ctx, b, update, "❌ Failed to save: "+err.Error())
			return
		}
		if !added {
			h.reply(ctx, b, update, "⚠️ Already present")
			return
		}
		h.reply(ctx, b, update, fmt.Sprintf("✅ Added %s: %s", name, arg))
	}
}

func (h *BotHandler) delTerm(name string, list func(cfg *FilterConfig) *[]string) commandFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update, arg string) {
		if arg == "" {
			h.reply(ctx, b, update, "❌ Provide a "+name)
			return
		}
		removed := false
		if _, err := h.store.Update(func(cfg *FilterConfig) error {
			l := list(cfg)
			before := len(*l)
			*l = removeTerms(*l, []string{arg})
			removed = len(*l) < before
			return nil
		}); err != nil {
			h.reply(ctx, b, update, "❌ Failed to save: "+err.Error())
			return
		}
		if !removed {
			h.reply(ctx, b, update, "❌ Not found")
			return
		}
		h.reply(ctx, b, update, fmt.Sprintf("🗑 Removed %s: %s", name, arg))
	}
}

func (h *BotHandler) handleCleanMinus(ctx context.Context, b *bot.Bot, update *models.Update, _ string) {
	before, after := 0, 0
	if _, err := h.store.Update(func(cfg *FilterConfig) error {
		before = len(cfg.MinusWords)
		cfg.MinusWords = CleanMinusWords(cfg.MinusWords, cfg.SkipWords, cfg.Keywords)
		after = len(cfg.MinusWords)
		return nil
	}); err != nil {
		h.reply(ctx, b, update, "❌ Failed to save: "+err.Error())
		return
	}
	h.reply(ctx, b, update, fmt.Sprintf("🧹 Cleaned minus words\nBefore: %d | After: %d | Removed: %d", before, after, before-after))
}

func (h *BotHandler) handleAddTrigger(ctx context.Context, b *bot.Bot, update *models.Update, arg string) {
	if arg == "" {
		h.reply(ctx, b, update, "❌ /add_trigger <regex pattern>")
		return
	}
	if _, err := regexp.Compile(arg); err != nil {
		h.reply(ctx, b, update, "❌ Invalid pattern: "+err.Error())
		return
	}
	added := false
	if _, err := h.store.Update(func(cfg *FilterConfig) error {
		cfg.SpamTriggers, added = appendUnique(cfg.SpamTriggers, arg)
		return nil
	}); err != nil {
		h.reply(ctx, b, update, "❌ Failed to save: "+err.Error())
		return
	}
	if !added {
		h.reply(ctx, b, update, "⚠️ Already present")
		return
	}
	h.reply(ctx, b, update, "✅ Added trigger: "+arg)
}

func (h *BotHandler) handleSpamEmojis(ctx context.Context, b *bot.Bot, update *models.Update, arg string) {
	if arg == "" {
		cfg, err := h.store.Snapshot()
		if err != nil {
			h.reply(ctx, b, update, "❌ Failed to read config: "+err.Error())
			return
		}
		if cfg.SpamEmojis == "" {
			h.reply(ctx, b, update, "🎭 Spam emojis: (empty)")
			return
		}
		h.reply(ctx, b, update, "🎭 Spam emojis: "+cfg.SpamEmojis)
		return
	}
	if _, err := h.store.Update(func(cfg *FilterConfig) error {
		cfg.SpamEmojis = arg
		return nil
	}); err != nil {
		h.reply(ctx, b, update, "❌ Failed to save: "+err.Error())
		return
	}
	h.reply(ctx, b, update, "✅ Spam emojis set: "+arg)
}

func (h *BotHandler) handleSpamThreshold(ctx context.Context, b *bot.Bot, update *models.Update, arg string) {
	if arg == "" {
		cfg, err := h.store.Snapshot()
		if err != nil {
			h.reply(ctx, b, update, "❌ Failed to read config: "+err.Error())
			return
		}
		h.reply(ctx, b, update, fmt.Sprintf("🎯 Spam threshold: %d", cfg.Threshold()))
		return
	}
	val, err := strconv.Atoi(arg)
	if err != nil || val < 1 {
		h.reply(ctx, b, update, "❌ Provide a positive number: /spam_threshold 4")
		return
	}
	if _, err := h.store.Update(func(cfg *FilterConfig) error {
		cfg.SpamScoreThreshold = val
		return nil
	}); err != nil {
		h.reply(ctx, b, update, "❌ Failed to save: "+err.Error())
		return
	}
	h.reply(ctx, b, update, fmt.Sprintf("✅ Spam threshold: %d", val))
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/samber/lo"
	openai "github.com/sashabaranov/go-openai"
)

// completionClient is the slice of the OpenAI client the classifier needs.
// *openai.Client satisfies it; tests substitute a stub.
type completionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ClassifierStats are the process-wide classification counters, exposed
// read-only to the status server.
type ClassifierStats struct {
	Checked  int64 `json:"checked"`
	Passed   int64 `json:"passed"`
	Filtered int64 `json:"filtered"`
}

// Classifier wraps the remote text-classification service. Every method
// fails open or soft: a broken or absent remote never blocks delivery, it
// only degrades filtering quality.
type Classifier struct {
	client completionClient

	checked  atomic.Int64
	passed   atomic.Int64
	filtered atomic.Int64
}

// NewClassifier builds a classifier talking to an OpenAI-compatible API.
// With an empty API key the classifier has no client and every call takes
// its permissive fallback.
func NewClassifier(apiKey, baseURL string) *Classifier {
	if apiKey == "" {
		return &Classifier{}
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Classifier{client: openai.NewClientWithConfig(cfg)}
}

func (c *Classifier) Stats() ClassifierStats {
	return ClassifierStats{
		Checked:  c.checked.Load(),
		Passed:   c.passed.Load(),
		Filtered: c.filtered.Load(),
	}
}

// Classify asks the remote service whether the message is on-topic.
// It returns true (target) when AI filtering is disabled, the client is not
// configured, or the call fails for any reason.
func (c *Classifier) Classify(ctx context.Context, text, keyword, chat string, cfg FilterConfig) bool {
	if !cfg.AIFilterEnabled || c.client == nil {
		return true
	}

	prompt := fmt.Sprintf(
		"Message from the chat «%s», matched by the keyword «%s».\n\n"+
			"Message text:\n«%s»\n\n"+
			"Monitored keywords: %s\n"+
			"Stop words (spam indicators): %s\n\n"+
			"TARGET criteria (let through):\n%s\n\n"+
			"SPAM criteria (block):\n%s\n\n"+
			"Decide: is this a TARGET message or SPAM?\n"+
			"Answer with a single word: TARGET or SPAM.",
		chat, keyword,
		truncateRunes(text, maxPromptTextLen),
		strings.Join(lo.Subset(cfg.Keywords, 0, maxListEntries), ", "),
		strings.Join(lo.Subset(cfg.MinusWords, 0, maxListEntries), ", "),
		cfg.AITargetCriteria,
		cfg.AISpamCriteria,
	)

	answer, err := c.complete(ctx, cfg, cfg.AIFilterRole, prompt)
	if err != nil {
		slog.Error("Classifier call failed, failing open", "error", err)
		return true
	}

	c.checked.Add(1)
	if strings.Contains(strings.ToUpper(answer), "TARGET") {
		c.passed.Add(1)
		slog.Info("Classifier passed message", "text", truncateRunes(text, 60))
		return true
	}
	c.filtered.Add(1)
	slog.Info("Classifier blocked message", "text", truncateRunes(text, 60))
	return false
}

// ExtractTerms asks the remote service for up to three short phrases that
// characterize the message: topic keywords for a confirmed target, spam
// indicators for confirmed spam. Terms already in forbidden (existing list
// entries plus skip-words, lower-cased) are rejected. Any failure yields an
// empty list with no side effects.
func (c *Classifier) ExtractTerms(ctx context.Context, text string, kind ListKind, forbidden map[string]struct{}, cfg FilterConfig) []string {
	if c.client == nil {
		return nil
	}

	var task, role string
	if kind == ListKindKeywords {
		task = "From the target message below extract 1-3 keywords/phrases that would help find similar messages in the future."
		role = "You are a target-content analyst."
	} else {
		task = "From the spam message below extract 1-3 stop words/phrases that are characteristic indicators of spam or advertising."
		role = "You are a spam-content analyst."
	}

	prompt := fmt.Sprintf(
		"%s\n\n"+
			"Rules:\n"+
			"- Only words/phrases indicating the nature of the message\n"+
			"- Do NOT include common words (articles, prepositions, frequent verbs)\n"+
			"- Do NOT include words shorter than 3 characters\n"+
			"- Lower case, no quotes\n"+
			"- One word/phrase per line\n"+
			"- If nothing can be extracted, answer NONE\n"+
			"- Answer ONLY with the words, no numbering or explanations\n\n"+
			"Message:\n%s",
		task, truncateRunes(text, maxPromptTextLen),
	)

	raw, err := c.complete(ctx, cfg, role, prompt)
	if err != nil {
		slog.Error("Term extraction failed", "kind", kind, "error", err)
		return nil
	}

	raw = strings.TrimSpace(raw)
	if raw == "" || strings.Contains(strings.ToUpper(raw), "NONE") {
		return nil
	}

	var terms []string
	seen := make(map[string]struct{})
	for _, line := range strings.Split(raw, "\n") {
		term := cleanTermLine(line)
		if len([]rune(term)) < 3 || len([]rune(term)) > 60 {
			continue
		}
		if _, bad := forbidden[term]; bad {
			continue
		}
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
		if len(terms) == 3 {
			break
		}
	}
	return terms
}

// Consolidate compresses an overgrown word list back under the entry cap,
// asking the remote service to merge near-duplicates while keeping coverage.
// On any failure the original list is truncated to the cap instead.
func (c *Classifier) Consolidate(ctx context.Context, words []string, kind ListKind, cfg FilterConfig) []string {
	if c.client == nil {
		return lo.Subset(words, 0, maxListEntries)
	}

	var task string
	if kind == ListKindKeywords {
		task = "This is a list of KEYWORDS used to monitor messages.\nConsolidate it down to at most 100 of the most important entries."
	} else {
		task = "This is a list of STOP WORDS (spam indicators) used to filter spam.\nConsolidate it down to at most 100 of the most important entries."
	}

	prompt := fmt.Sprintf(
		"%s\n\n"+
			"Rules:\n"+
			"- Remove contextual duplicates (e.g. the same word in different languages)\n"+
			"- Merge similar phrases\n"+
			"- Remove words already covered by others\n"+
			"- Keep the most important and unique entries\n"+
			"- Lower case, one word/phrase per line\n"+
			"- At most 100 entries\n"+
			"- Answer ONLY with the list, no numbering or explanations\n\n"+
			"Current list (%d entries):\n%s",
		task, len(words), strings.Join(words, "\n"),
	)

	raw, err := c.complete(ctx, cfg, "You are an assistant that optimizes word lists.", prompt)
	if err != nil {
		slog.Error("List consolidation failed, truncating instead", "kind", kind, "error", err)
		return lo.Subset(words, 0, maxListEntries)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return lo.Subset(words, 0, maxListEntries)
	}

	var result []string
	seen := make(map[string]struct{})
	for _, line := range strings.Split(raw, "\n") {
		term := cleanTermLine(line)
		if len([]rune(term)) < 3 {
			continue
		}
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		result = append(result, term)
		if len(result) == maxListEntries {
			break
		}
	}

	slog.Info("Consolidated word list", "kind", kind, "before", len(words), "after", len(result))
	return result
}

func (c *Classifier) complete(ctx context.Context, cfg FilterConfig, role, prompt string) (string, error) {
	messages := []openai.ChatCompletionMessage{}
	if role != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: role,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       cfg.Model(),
		Messages:    messages,
		Temperature: 0.1,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// cleanTermLine normalizes one line of a term list: lower case, quote and
// bullet characters stripped.
func cleanTermLine(line string) string {
	term := strings.ToLower(strings.TrimSpace(line))
	term = strings.TrimLeft(term, "-•– ")
	term = strings.Trim(term, `"'`)
	return strings.TrimSpace(term)
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}

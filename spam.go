package main

import (
	"log/slog"
	"regexp"
	"strings"
	"sync"
)

var (
	priceRe   = regexp.MustCompile(`\d+\s*(?:[€$]|eur|usd)\b`)
	phoneRe   = regexp.MustCompile(`\+?\d[\d\s\-]{8,}`)
	contactRe = regexp.MustCompile(`contact.{0,10}privado|privado.{0,5}📱|в лс|в личк|telegram.{0,5}@`)
	bulletRe  = regexp.MustCompile(`(?m)^[✓✔•►▸→]\s*\S`)
)

// SpamScorer computes the heuristic spam score. Trigger patterns come from
// the filter config; the compiled set is cached keyed by config version, so
// patterns are recompiled only when the trigger list actually changed.
type SpamScorer struct {
	mu       sync.Mutex
	version  int64
	compiled []*regexp.Regexp
}

func NewSpamScorer() *SpamScorer {
	return &SpamScorer{version: -1}
}

func (s *SpamScorer) triggers(cfg FilterConfig) []*regexp.Regexp {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.version == cfg.Version && s.compiled != nil {
		return s.compiled
	}

	compiled := make([]*regexp.Regexp, 0, len(cfg.SpamTriggers))
	for _, p := range cfg.SpamTriggers {
		re, err := regexp.Compile(`(?i)` + p)
		if err != nil {
			slog.Warn("Skipping invalid spam trigger pattern", "pattern", p, "error", err)
			continue
		}
		compiled = append(compiled, re)
	}
	s.version = cfg.Version
	s.compiled = compiled
	return compiled
}

// Score sums the weighted spam signals for the text. Within each signal only
// the highest applicable tier counts; no signal ever subtracts points. The
// result is deterministic for a given text and config.
func (s *SpamScorer) Score(text string, cfg FilterConfig) int {
	t := strings.ToLower(text)
	score := 0

	// 1. Commercial trigger patterns
	triggersFound := 0
	for _, re := range s.triggers(cfg) {
		if re.MatchString(t) {
			triggersFound++
		}
	}
	switch {
	case triggersFound >= 3:
		score += 4
	case triggersFound == 2:
		score += 3
	case triggersFound == 1:
		score += 1
	}

	// 2. Price-list emojis
	if cfg.SpamEmojis != "" {
		emojiCount := 0
		for _, r := range text {
			if strings.ContainsRune(cfg.SpamEmojis, r) {
				emojiCount++
			}
		}
		switch {
		case emojiCount >= 6:
			score += 3
		case emojiCount >= 3:
			score += 1
		}
	}

	// 3. Service-name mentions
	servicesFound := 0
	for _, svc := range cfg.SpamServices {
		if svc != "" && strings.Contains(t, strings.ToLower(svc)) {
			servicesFound++
		}
	}
	switch {
	case servicesFound >= 5:
		score += 4
	case servicesFound >= 3:
		score += 2
	case servicesFound >= 2:
		score += 1
	}

	// 4. Prices in the text
	prices := len(priceRe.FindAllString(t, -1))
	switch {
	case prices >= 3:
		score += 4
	case prices == 2:
		score += 3
	case prices == 1:
		score += 1
	}

	// 5. Contact patterns
	if phoneRe.MatchString(text) {
		score += 1
	}
	if contactRe.MatchString(t) {
		score += 2
	}

	// 6. Price-list bullet lines
	bulletLines := len(bulletRe.FindAllString(text, -1))
	switch {
	case bulletLines >= 4:
		score += 3
	case bulletLines >= 2:
		score += 1
	}

	return score
}

// IsSpam reports whether the score reaches the configured threshold.
func (s *SpamScorer) IsSpam(text string, cfg FilterConfig) bool {
	return s.Score(text, cfg) >= cfg.Threshold()
}

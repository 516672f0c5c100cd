package main

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"sync"
)

// linkSectionRe and bodyRe together pull the original message body back out
// of a forwarded record: everything from the 🔗 marker on is cut first, then
// the body after the 💬 marker is taken. Cutting first keeps appended status
// blocks out of the body and makes a whitespace-only body come back empty.
var (
	linkSectionRe = regexp.MustCompile(`(?s)\n\n🔗.*$`)
	bodyRe        = regexp.MustCompile(`(?s)💬\s*(.+)$`)
)

// FeedbackProcessor applies reviewer confirm/undo actions to the word lists.
// Confirmations extract new terms from the forwarded message through the
// classifier and merge them; each confirmation leaves an UndoRecord so the
// exact terms can be removed again. Undo state lives only in memory.
type FeedbackProcessor struct {
	store      *ConfigStore
	classifier *Classifier
	undo       *undoStore
}

func NewFeedbackProcessor(store *ConfigStore, classifier *Classifier) *FeedbackProcessor {
	return &FeedbackProcessor{
		store:      store,
		classifier: classifier,
		undo:       newUndoStore(512),
	}
}

// Confirm handles confirm-target (kind keywords) or confirm-spam (kind
// minus_words) for the forwarded message msgID whose published text is
// recordText. It returns the terms that were actually added, which may be
// none.
func (p *FeedbackProcessor) Confirm(ctx context.Context, msgID int, recordText string, kind ListKind) ([]string, error) {
	original := extractOriginalText(recordText)
	if original == "" {
		return nil, ErrMessageBodyAbsent
	}

	cfg, err := p.store.Snapshot()
	if err != nil {
		return nil, err
	}

	terms := p.classifier.ExtractTerms(ctx, original, kind, forbiddenSet(cfg, kind), cfg)

	var added []string
	if len(terms) > 0 {
		// Merge against a fresh read, not the snapshot above: another
		// reviewer or an admin command may have changed the lists since.
		updated, err := p.store.Update(func(cfg *FilterConfig) error {
			list := listFor(cfg, kind)
			for _, term := range terms {
				var ok bool
				if *list, ok = appendUnique(*list, term); ok {
					added = append(added, term)
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}

		if len(added) > 0 {
			slog.Info("Added terms from reviewer confirmation", "kind", kind, "terms", added)
		}
		p.maybeConsolidate(ctx, updated, kind)
	}

	p.undo.put(msgID, UndoRecord{Kind: kind, Terms: added})
	return added, nil
}

// Undo reverses a prior confirmation on msgID: the recorded terms are
// removed from their list and the record is consumed. Returns
// ErrNothingToUndo when no record exists for the message.
func (p *FeedbackProcessor) Undo(ctx context.Context, msgID int) (UndoRecord, error) {
	rec, ok := p.undo.take(msgID)
	if !ok {
		return UndoRecord{}, ErrNothingToUndo
	}

	if len(rec.Terms) > 0 {
		if _, err := p.store.Update(func(cfg *FilterConfig) error {
			list := listFor(cfg, rec.Kind)
			*list = removeTerms(*list, rec.Terms)
			return nil
		}); err != nil {
			// Put the record back so the reviewer can retry the undo.
			p.undo.put(msgID, rec)
			return UndoRecord{}, err
		}
		slog.Info("Reverted reviewer confirmation", "kind", rec.Kind, "terms", rec.Terms)
	}

	return rec, nil
}

// maybeConsolidate compresses the list when a merge pushed it over the cap.
// The remote call happens outside the store lock; the result is written in a
// second serialized update.
func (p *FeedbackProcessor) maybeConsolidate(ctx context.Context, cfg FilterConfig, kind ListKind) {
	current := *listFor(&cfg, kind)
	if len(current) <= maxListEntries {
		return
	}

	before := make(map[string]struct{}, len(current))
	for _, w := range current {
		before[strings.ToLower(w)] = struct{}{}
	}

	consolidated := p.classifier.Consolidate(ctx, current, kind, cfg)
	if _, err := p.store.Update(func(cfg *FilterConfig) error {
		list := listFor(cfg, kind)
		// Another reviewer or an admin command may have merged terms while
		// the remote call was in flight; carry those over instead of
		// overwriting them with the consolidated snapshot.
		merged := consolidated
		for _, w := range *list {
			if _, known := before[strings.ToLower(w)]; !known {
				merged, _ = appendUnique(merged, w)
			}
		}
		*list = merged
		return nil
	}); err != nil {
		slog.Error("Failed to persist consolidated list", "kind", kind, "error", err)
	}
}

func listFor(cfg *FilterConfig, kind ListKind) *[]string {
	if kind == ListKindKeywords {
		return &cfg.Keywords
	}
	return &cfg.MinusWords
}

// forbiddenSet is what term extraction must not return: the target list's
// existing entries plus the skip-words, lower-cased.
func forbiddenSet(cfg FilterConfig, kind ListKind) map[string]struct{} {
	existing := *listFor(&cfg, kind)
	out := make(map[string]struct{}, len(existing)+len(cfg.SkipWords))
	for _, w := range existing {
		out[strings.ToLower(w)] = struct{}{}
	}
	for _, w := range cfg.SkipWords {
		out[strings.ToLower(w)] = struct{}{}
	}
	return out
}

func extractOriginalText(recordText string) string {
	trimmed := linkSectionRe.ReplaceAllString(recordText, "")
	m := bodyRe.FindStringSubmatch(trimmed)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// undoStore is a capacity-bounded map of message ID to UndoRecord with
// oldest-first eviction; reviewer sessions run for weeks and the map must
// not grow without bound.
type undoStore struct {
	mu      sync.Mutex
	records map[int]UndoRecord
	order   []int
	cap     int
}

func newUndoStore(capacity int) *undoStore {
	return &undoStore{
		records: make(map[int]UndoRecord),
		cap:     capacity,
	}
}

func (s *undoStore) put(id int, rec UndoRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[id]; !exists {
		s.order = append(s.order, id)
	}
	s.records[id] = rec

	for len(s.order) > s.cap {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.records, oldest)
	}
}

func (s *undoStore) take(id int) (UndoRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return UndoRecord{}, false
	}
	delete(s.records, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return rec, true
}

func (s *undoStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

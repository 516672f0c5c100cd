package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecordText() string {
	return formatForward(&CandidateMessage{
		Keyword: "delivery",
		Chat:    "Kyiv chat [ @kyiv ]",
		Sender:  "Anna [ @anna ]",
		Text:    "need help moving furniture to Podil",
		Link:    "https://t.me/kyiv/42",
	})
}

func TestConfirmAddsExtractedTerms(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Update(func(cfg *FilterConfig) error {
		cfg.Keywords = []string{"delivery"}
		return nil
	})
	require.NoError(t, err)

	c, _ := scriptedClassifier("moving furniture\npodil transport")
	p := &FeedbackProcessor{store: store, classifier: c, undo: newUndoStore(512)}

	added, err := p.Confirm(context.Background(), 7, sampleRecordText(), ListKindKeywords)
	require.NoError(t, err)
	assert.Equal(t, []string{"moving furniture", "podil transport"}, added)

	cfg, err := store.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, []string{"delivery", "moving furniture", "podil transport"}, cfg.Keywords)
}

func TestConfirmThenUndoRestoresList(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Update(func(cfg *FilterConfig) error {
		cfg.MinusWords = []string{"casino"}
		return nil
	})
	require.NoError(t, err)

	c, _ := scriptedClassifier("furniture ads\ncheap promo")
	p := &FeedbackProcessor{store: store, classifier: c, undo: newUndoStore(512)}

	added, err := p.Confirm(context.Background(), 7, sampleRecordText(), ListKindMinusWords)
	require.NoError(t, err)
	require.Len(t, added, 2)

	rec, err := p.Undo(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, ListKindMinusWords, rec.Kind)
	assert.Equal(t, added, rec.Terms)

	cfg, err := store.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, []string{"casino"}, cfg.MinusWords)

	_, err = p.Undo(context.Background(), 7)
	assert.ErrorIs(t, err, ErrNothingToUndo, "undo record is consumed")
}

func TestConfirmAlreadyPresentTermsAddNothing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Update(func(cfg *FilterConfig) error {
		cfg.Keywords = []string{"moving furniture"}
		return nil
	})
	require.NoError(t, err)

	c, _ := scriptedClassifier("moving furniture")
	p := &FeedbackProcessor{store: store, classifier: c, undo: newUndoStore(512)}

	added, err := p.Confirm(context.Background(), 7, sampleRecordText(), ListKindKeywords)
	require.NoError(t, err)
	assert.Empty(t, added, "forbidden set blocks existing entries")

	// an empty confirmation still leaves an undo record
	rec, err := p.Undo(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, rec.Terms)
}

func TestConfirmExtractionFailureAddsNothing(t *testing.T) {
	store := newTestStore(t)
	c, stub := scriptedClassifier()
	stub.err = errors.New("timeout")
	p := &FeedbackProcessor{store: store, classifier: c, undo: newUndoStore(512)}

	added, err := p.Confirm(context.Background(), 7, sampleRecordText(), ListKindKeywords)
	require.NoError(t, err)
	assert.Empty(t, added)

	cfg, err := store.Snapshot()
	require.NoError(t, err)
	assert.Empty(t, cfg.Keywords)
}

func TestConfirmRecordWithoutBody(t *testing.T) {
	store := newTestStore(t)
	c, _ := scriptedClassifier("anything")
	p := &FeedbackProcessor{store: store, classifier: c, undo: newUndoStore(512)}

	_, err := p.Confirm(context.Background(), 7, "🔔 Found: delivery", ListKindKeywords)
	assert.ErrorIs(t, err, ErrMessageBodyAbsent)
}

func TestConfirmConsolidatesOversizedList(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Update(func(cfg *FilterConfig) error {
		for i := 0; i < maxListEntries; i++ {
			cfg.MinusWords = append(cfg.MinusWords, fmt.Sprintf("stop-%03d", i))
		}
		return nil
	})
	require.NoError(t, err)

	consolidated := make([]string, 0, 50)
	for i := 0; i < 50; i++ {
		consolidated = append(consolidated, fmt.Sprintf("merged-%03d", i))
	}
	// first response feeds extraction, second feeds consolidation
	c, stub := scriptedClassifier("brand new spam marker", strings.Join(consolidated, "\n"))
	p := &FeedbackProcessor{store: store, classifier: c, undo: newUndoStore(512)}

	added, err := p.Confirm(context.Background(), 7, sampleRecordText(), ListKindMinusWords)
	require.NoError(t, err)
	assert.Equal(t, []string{"brand new spam marker"}, added)
	assert.Equal(t, 2, stub.callCount())

	cfg, err := store.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, consolidated, cfg.MinusWords)
}

// gatedCompleter blocks one scripted call until released, so a test can
// interleave other work while that call is in flight.
type gatedCompleter struct {
	*scriptedCompleter
	gateOn  int
	entered chan struct{}
	release chan struct{}
}

func (g *gatedCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if g.scriptedCompleter.callCount()+1 == g.gateOn {
		close(g.entered)
		<-g.release
	}
	return g.scriptedCompleter.CreateChatCompletion(ctx, req)
}

func TestConsolidationKeepsConcurrentAdditions(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Update(func(cfg *FilterConfig) error {
		for i := 0; i < maxListEntries; i++ {
			cfg.MinusWords = append(cfg.MinusWords, fmt.Sprintf("stop-%03d", i))
		}
		return nil
	})
	require.NoError(t, err)

	consolidated := make([]string, 0, 50)
	for i := 0; i < 50; i++ {
		consolidated = append(consolidated, fmt.Sprintf("merged-%03d", i))
	}
	stub := &gatedCompleter{
		scriptedCompleter: &scriptedCompleter{responses: []string{"brand new spam marker", strings.Join(consolidated, "\n")}},
		gateOn:            2,
		entered:           make(chan struct{}),
		release:           make(chan struct{}),
	}
	p := &FeedbackProcessor{store: store, classifier: &Classifier{client: stub}, undo: newUndoStore(512)}

	done := make(chan error, 1)
	go func() {
		_, err := p.Confirm(context.Background(), 7, sampleRecordText(), ListKindMinusWords)
		done <- err
	}()

	// While consolidation is in flight, an admin appends a term.
	<-stub.entered
	_, err = store.Update(func(cfg *FilterConfig) error {
		cfg.MinusWords = append(cfg.MinusWords, "admin added term")
		return nil
	})
	require.NoError(t, err)
	close(stub.release)
	require.NoError(t, <-done)

	cfg, err := store.Snapshot()
	require.NoError(t, err)
	assert.Contains(t, cfg.MinusWords, "admin added term")
	assert.Contains(t, cfg.MinusWords, "merged-000")
	assert.NotContains(t, cfg.MinusWords, "stop-000")
}

func TestExtractOriginalText(t *testing.T) {
	tests := []struct {
		name   string
		record string
		want   string
	}{
		{"full record", "🔔 Found: x\n\n💬 hello there\n\n🔗 https://t.me/c/1", "hello there"},
		{"multiline body", "💬 line one\nline two\n\n🔗 link", "line one\nline two"},
		{"no link section", "💬 tail body", "tail body"},
		{"no body marker", "🔔 Found: x", ""},
		{"empty body", "💬 \n\n🔗 link", ""},
		{"whitespace-only body", "💬 \n \n\n🔗 link", ""},
		{"status block after link stays out", "💬 hello there\n\n🔗 link\n\n✅ Added terms: \"x\"", "hello there"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractOriginalText(tt.record))
		})
	}
}

func TestUndoStoreEviction(t *testing.T) {
	s := newUndoStore(2)
	s.put(1, UndoRecord{Terms: []string{"a"}})
	s.put(2, UndoRecord{Terms: []string{"b"}})
	s.put(3, UndoRecord{Terms: []string{"c"}})

	assert.Equal(t, 2, s.size())
	_, ok := s.take(1)
	assert.False(t, ok, "oldest record evicted")
	_, ok = s.take(2)
	assert.True(t, ok)
	_, ok = s.take(3)
	assert.True(t, ok)
}

func TestUndoStoreOverwriteKeepsSlot(t *testing.T) {
	s := newUndoStore(2)
	s.put(1, UndoRecord{Terms: []string{"a"}})
	s.put(1, UndoRecord{Terms: []string{"b"}})
	s.put(2, UndoRecord{Terms: []string{"c"}})

	assert.Equal(t, 2, s.size())
	rec, ok := s.take(1)
	require.True(t, ok)
	assert.Equal(t, []string{"b"}, rec.Terms)
}

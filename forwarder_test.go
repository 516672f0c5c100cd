package main

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePublisher records every Publish call and returns scripted errors, one
// per attempt, then succeeds.
type fakePublisher struct {
	mu       sync.Mutex
	errs     []error
	texts    []string
	actions  []bool
	panicMsg string
	nextID   int
}

func (p *fakePublisher) Publish(_ context.Context, _ string, text string, withActions bool) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.panicMsg != "" {
		msg := p.panicMsg
		p.panicMsg = ""
		panic(msg)
	}

	p.texts = append(p.texts, text)
	p.actions = append(p.actions, withActions)
	if len(p.errs) > 0 {
		err := p.errs[0]
		p.errs = p.errs[1:]
		if err != nil {
			return 0, err
		}
	}
	p.nextID++
	return p.nextID, nil
}

func (p *fakePublisher) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.texts)
}

type forwarderFixture struct {
	forwarder *Forwarder
	queue     *PendingQueue
	store     *ConfigStore
	publisher *fakePublisher
	log       *ForwardLog
}

func newForwarderFixture(t *testing.T, mutate func(cfg *FilterConfig)) *forwarderFixture {
	t.Helper()

	store := newTestStore(t)
	_, err := store.Update(func(cfg *FilterConfig) error {
		cfg.ForwardChannel = "@leads"
		if mutate != nil {
			mutate(cfg)
		}
		return nil
	})
	require.NoError(t, err)

	queue := NewPendingQueue()
	publisher := &fakePublisher{}
	log := NewForwardLog(10)
	f := NewForwarder(queue, store, NewClassifier("", ""), publisher, log)
	f.Pacing = 0
	f.RetryPadding = 0
	f.Penalty = 0

	return &forwarderFixture{forwarder: f, queue: queue, store: store, publisher: publisher, log: log}
}

func sampleCandidate() *CandidateMessage {
	return &CandidateMessage{
		Keyword: "delivery",
		Chat:    "Kyiv chat [ @kyiv ]",
		Sender:  "Anna [ @anna ]",
		Text:    "need delivery to Podil",
		Link:    "https://t.me/kyiv/42",
	}
}

func TestProcessOnePublishes(t *testing.T) {
	fx := newForwarderFixture(t, nil)
	fx.queue.Put(sampleCandidate())

	require.NoError(t, fx.forwarder.ProcessOne(context.Background()))

	require.Equal(t, 1, fx.publisher.calls())
	assert.Contains(t, fx.publisher.texts[0], "🔔 Found: delivery")
	assert.Contains(t, fx.publisher.texts[0], "💬 need delivery to Podil")
	assert.Contains(t, fx.publisher.texts[0], "🔗 https://t.me/kyiv/42")
	assert.False(t, fx.publisher.actions[0], "no review buttons while AI filter is off")
	assert.Equal(t, int64(1), fx.queue.Acked())

	recent := fx.log.Recent(10)
	require.Len(t, recent, 1)
	assert.Equal(t, "delivery", recent[0].Keyword)
	assert.Equal(t, 1, recent[0].MessageID)
}

func TestProcessOneNoDestinationDrops(t *testing.T) {
	fx := newForwarderFixture(t, func(cfg *FilterConfig) {
		cfg.ForwardChannel = ""
	})
	fx.queue.Put(sampleCandidate())

	require.NoError(t, fx.forwarder.ProcessOne(context.Background()))
	assert.Equal(t, 0, fx.publisher.calls())
	assert.Equal(t, int64(1), fx.queue.Acked(), "dropped item is still acknowledged")
}

func TestProcessOneRetriesOnRateLimit(t *testing.T) {
	fx := newForwarderFixture(t, nil)
	fx.publisher.errs = []error{
		&RateLimitedError{Wait: time.Millisecond},
		&RateLimitedError{Wait: time.Millisecond},
	}
	fx.queue.Put(sampleCandidate())

	require.NoError(t, fx.forwarder.ProcessOne(context.Background()))
	assert.Equal(t, 3, fx.publisher.calls())
	assert.Len(t, fx.log.Recent(10), 1)
	assert.Equal(t, int64(1), fx.queue.Acked())
}

func TestProcessOneGivesUpAfterMaxAttempts(t *testing.T) {
	fx := newForwarderFixture(t, nil)
	for i := 0; i < 10; i++ {
		fx.publisher.errs = append(fx.publisher.errs, &RateLimitedError{Wait: time.Millisecond})
	}
	fx.queue.Put(sampleCandidate())

	require.NoError(t, fx.forwarder.ProcessOne(context.Background()))
	assert.Equal(t, fx.forwarder.MaxAttempts, fx.publisher.calls())
	assert.Empty(t, fx.log.Recent(10))
	assert.Equal(t, int64(1), fx.queue.Acked())
}

func TestProcessOneDoesNotRetryOtherErrors(t *testing.T) {
	fx := newForwarderFixture(t, nil)
	fx.publisher.errs = []error{errors.New("chat not found")}
	fx.queue.Put(sampleCandidate())

	require.NoError(t, fx.forwarder.ProcessOne(context.Background()))
	assert.Equal(t, 1, fx.publisher.calls())
	assert.Empty(t, fx.log.Recent(10))
	assert.Equal(t, int64(1), fx.queue.Acked())
}

func TestProcessOneClassifierSpamDrops(t *testing.T) {
	fx := newForwarderFixture(t, func(cfg *FilterConfig) {
		cfg.AIFilterEnabled = true
	})
	c, _ := scriptedClassifier("SPAM")
	fx.forwarder.classifier = c
	fx.queue.Put(sampleCandidate())

	require.NoError(t, fx.forwarder.ProcessOne(context.Background()))
	assert.Equal(t, 0, fx.publisher.calls())
	assert.Equal(t, int64(1), fx.queue.Acked())
}

func TestProcessOneClassifierTargetGetsButtons(t *testing.T) {
	fx := newForwarderFixture(t, func(cfg *FilterConfig) {
		cfg.AIFilterEnabled = true
	})
	c, _ := scriptedClassifier("TARGET")
	fx.forwarder.classifier = c
	fx.queue.Put(sampleCandidate())

	require.NoError(t, fx.forwarder.ProcessOne(context.Background()))
	require.Equal(t, 1, fx.publisher.calls())
	assert.True(t, fx.publisher.actions[0])
}

func TestProcessOneClassifierErrorFailsOpen(t *testing.T) {
	fx := newForwarderFixture(t, func(cfg *FilterConfig) {
		cfg.AIFilterEnabled = true
	})
	c, stub := scriptedClassifier()
	stub.err = errors.New("connection refused")
	fx.forwarder.classifier = c
	fx.queue.Put(sampleCandidate())

	require.NoError(t, fx.forwarder.ProcessOne(context.Background()))
	assert.Equal(t, 1, fx.publisher.calls())
}

func TestProcessOnePanicStillAcks(t *testing.T) {
	fx := newForwarderFixture(t, nil)
	fx.publisher.panicMsg = "boom"
	fx.queue.Put(sampleCandidate())
	fx.queue.Put(sampleCandidate())

	require.NoError(t, fx.forwarder.ProcessOne(context.Background()))
	assert.Equal(t, int64(1), fx.queue.Acked(), "panicked item is acknowledged")

	// the next item still goes through
	require.NoError(t, fx.forwarder.ProcessOne(context.Background()))
	assert.Equal(t, 1, fx.publisher.calls())
	assert.Equal(t, int64(2), fx.queue.Acked())
}

func TestProcessOneCancelledContext(t *testing.T) {
	fx := newForwarderFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := fx.forwarder.ProcessOne(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestForwarderStartStop(t *testing.T) {
	fx := newForwarderFixture(t, nil)
	fx.queue.Put(sampleCandidate())

	fx.forwarder.Start(context.Background())
	require.Eventually(t, func() bool {
		return fx.queue.Acked() == 1
	}, 2*time.Second, 10*time.Millisecond)
	fx.forwarder.Stop()

	assert.Equal(t, 1, fx.publisher.calls())
}

func TestFormatForwardRoundTrips(t *testing.T) {
	msg := sampleCandidate()
	text := formatForward(msg)

	assert.Equal(t, msg.Text, extractOriginalText(text))
}

func TestForwardLogRing(t *testing.T) {
	log := NewForwardLog(3)
	for i := 1; i <= 5; i++ {
		log.Add(ForwardedItem{MessageID: i})
	}

	recent := log.Recent(10)
	require.Len(t, recent, 3)
	assert.Equal(t, 5, recent[0].MessageID, "newest first")
	assert.Equal(t, 3, recent[2].MessageID, "oldest surviving entry")

	assert.Len(t, log.Recent(2), 2)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Forwarder is the single consumer of the pending queue. It classifies,
// formats and publishes candidates one at a time, which caps the outbound
// rate at one message per pacing interval. The loop survives any single
// item's failure: each dequeued item is acknowledged exactly once no matter
// what happens while processing it.
type Forwarder struct {
	queue      *PendingQueue
	store      *ConfigStore
	classifier *Classifier
	publisher  Publisher
	forwarded  *ForwardLog

	// Tuning knobs, shrunk by tests.
	Pacing       time.Duration
	RetryPadding time.Duration
	Penalty      time.Duration
	MaxAttempts  int

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewForwarder(queue *PendingQueue, store *ConfigStore, classifier *Classifier, publisher Publisher, forwarded *ForwardLog) *Forwarder {
	return &Forwarder{
		queue:        queue,
		store:        store,
		classifier:   classifier,
		publisher:    publisher,
		forwarded:    forwarded,
		Pacing:       3 * time.Second,
		RetryPadding: 5 * time.Second,
		Penalty:      5 * time.Second,
		MaxAttempts:  5,
	}
}

// Start launches the consumer loop. The loop is supervised: if it ever
// returns for a reason other than shutdown it is restarted after a penalty
// pause.
func (f *Forwarder) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	f.mu.Lock()
	f.cancel = cancel
	f.mu.Unlock()

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		slog.Info("Background forwarder started")
		for {
			err := f.loop(ctx)
			if ctx.Err() != nil {
				slog.Info("Background forwarder stopped")
				return
			}
			slog.Error("Forwarder loop exited unexpectedly, restarting", "error", err)
			sleepCtx(ctx, f.Penalty)
		}
	}()
}

// Stop cancels the loop and waits for the in-flight item to be acknowledged.
func (f *Forwarder) Stop() {
	f.mu.Lock()
	if f.cancel != nil {
		f.cancel()
	}
	f.mu.Unlock()
	f.wg.Wait()
}

func (f *Forwarder) loop(ctx context.Context) error {
	for {
		if err := f.ProcessOne(ctx); err != nil {
			return err
		}
	}
}

// ProcessOne handles a single queue item end to end. It returns an error
// only when ctx is cancelled; every per-item failure is logged, the item is
// acknowledged and the caller keeps looping.
func (f *Forwarder) ProcessOne(ctx context.Context) error {
	msg, err := f.queue.Get(ctx)
	if err != nil {
		return err
	}
	// Acknowledge unconditionally, even when the body below panics. The
	// recover handler runs first (LIFO), then Done.
	defer f.queue.Done()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Panic while forwarding item", "panic", r, "chat", msg.Chat)
			sleepCtx(ctx, f.Penalty)
		}
	}()

	cfg, err := f.store.Snapshot()
	if err != nil {
		slog.Error("Failed to read filter config, dropping item", "error", err)
		sleepCtx(ctx, f.Penalty)
		return nil
	}

	if cfg.ForwardChannel == "" {
		slog.Warn("Forward channel not configured, dropping item", "chat", msg.Chat)
		return nil
	}

	if cfg.AIFilterEnabled && !f.classifier.Classify(ctx, msg.Text, msg.Keyword, msg.Chat, cfg) {
		slog.Info("Classifier filtered out message", "chat", msg.Chat)
		return nil
	}

	text := formatForward(msg)

	for attempt := 1; attempt <= f.MaxAttempts; attempt++ {
		msgID, err := f.publisher.Publish(ctx, cfg.ForwardChannel, text, cfg.AIFilterEnabled)
		if err == nil {
			f.forwarded.Add(ForwardedItem{
				MessageID: msgID,
				Keyword:   msg.Keyword,
				Chat:      msg.Chat,
				Sender:    msg.Sender,
				Text:      msg.Text,
				Link:      msg.Link,
				SentAt:    time.Now(),
			})
			slog.Info("Forwarded message", "destination", cfg.ForwardChannel, "chat", msg.Chat)
			sleepCtx(ctx, f.Pacing)
			return nil
		}

		var rateLimited *RateLimitedError
		if errors.As(err, &rateLimited) {
			wait := rateLimited.Wait + f.RetryPadding
			slog.Warn("Destination rate limited, waiting", "wait", wait, "attempt", attempt, "max_attempts", f.MaxAttempts)
			sleepCtx(ctx, wait)
			continue
		}

		slog.Error("Failed to publish, dropping item", "destination", cfg.ForwardChannel, "error", err)
		return nil
	}

	slog.Error("Dropping item after exhausting publish attempts", "attempts", f.MaxAttempts, "chat", msg.Chat)
	return nil
}

// formatForward builds the record published to the destination. The 💬 and
// 🔗 markers delimit the original body; the feedback processor parses it
// back out of the forwarded message.
func formatForward(msg *CandidateMessage) string {
	return fmt.Sprintf(
		"🔔 Found: %s\n📢 Chat: %s\n👤 From: %s\n\n💬 %s\n\n🔗 %s",
		msg.Keyword, msg.Chat, msg.Sender, msg.Text, msg.Link,
	)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

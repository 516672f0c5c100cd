package main

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStatusServer() *StatusServer {
	queue := NewPendingQueue()
	forwarded := NewForwardLog(10)
	forwarded.Add(ForwardedItem{
		MessageID: 1,
		Keyword:   "delivery",
		Chat:      "Kyiv chat [ @kyiv ]",
		Sender:    "Anna [ @anna ]",
		Text:      "need delivery to Podil",
		Link:      "https://t.me/kyiv/42",
		SentAt:    time.Now(),
	})
	return NewStatusServer(&Config{HTTPPort: "8080"}, queue, NewClassifier("", ""), forwarded)
}

func TestHandleHealth(t *testing.T) {
	s := newTestStatusServer()

	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, 200, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHandleStats(t *testing.T) {
	s := newTestStatusServer()
	s.queue.Put(&CandidateMessage{Text: "x"})

	rec := httptest.NewRecorder()
	s.handleStats(rec, httptest.NewRequest("GET", "/stats", nil))

	assert.Equal(t, 200, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 1, body["queue_backlog"])
	assert.EqualValues(t, 0, body["items_processed"])
	assert.Contains(t, body, "ai")
}

func TestHandleFeed(t *testing.T) {
	s := newTestStatusServer()

	rec := httptest.NewRecorder()
	s.handleFeed(rec, httptest.NewRequest("GET", "/feed", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "rss+xml")
	assert.Contains(t, rec.Body.String(), "delivery / Kyiv chat [ @kyiv ]")
	assert.Contains(t, rec.Body.String(), "https://t.me/kyiv/42")
}

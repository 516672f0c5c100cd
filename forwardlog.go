package main

import (
	"sync"
)

// ForwardLog keeps the most recent forwarded items in a fixed-size ring for
// the status server's feed and for feedback lookups by message ID. Oldest
// entries fall off; nothing here is persisted.
type ForwardLog struct {
	mu    sync.RWMutex
	items []ForwardedItem
	cap   int
}

func NewForwardLog(capacity int) *ForwardLog {
	if capacity <= 0 {
		capacity = 100
	}
	return &ForwardLog{cap: capacity}
}

func (l *ForwardLog) Add(item ForwardedItem) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, item)
	if len(l.items) > l.cap {
		l.items = l.items[len(l.items)-l.cap:]
	}
}

// Recent returns up to n items, newest first.
func (l *ForwardLog) Recent(n int) []ForwardedItem {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n > len(l.items) {
		n = len(l.items)
	}
	out := make([]ForwardedItem, 0, n)
	for i := len(l.items) - 1; i >= len(l.items)-n; i-- {
		out = append(out, l.items[i])
	}
	return out
}

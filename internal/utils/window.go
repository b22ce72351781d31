package utils

import (
	"sync"
	"time"
)

// RequestWindow counts events inside a sliding time window. The Hypixel
// client uses it as a request budget against the per-key rate limit.
type RequestWindow struct {
	mu     sync.Mutex
	window time.Duration
	hits   []time.Time
}

func NewRequestWindow(window time.Duration) *RequestWindow {
	return &RequestWindow{window: window}
}

func (w *RequestWindow) Add(now time.Time) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.trim(now)
	w.hits = append(w.hits, now)
	return len(w.hits)
}

func (w *RequestWindow) Count(now time.Time) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.trim(now)
	return len(w.hits)
}

func (w *RequestWindow) trim(now time.Time) {
	cutoff := now.Add(-w.window)
	idx := 0
	for _, hit := range w.hits {
		if hit.After(cutoff) {
			break
		}
		idx++
	}
	w.hits = w.hits[idx:]
}

package app

import (
	"context"
	"sync"
	"time"

	"hotel_sync/internal/domain"
)

type stream struct {
	tenantID int64
	ch       chan domain.ProgressEvent
}

// ProgressHub holds one buffered event channel per live run, keyed by token.
// Readers compete for events; there is no replay.
type ProgressHub struct {
	mu      sync.Mutex
	streams map[string]*stream
	opened  chan struct{} // closed and replaced on every Open
}

func NewProgressHub() *ProgressHub {
	return &ProgressHub{streams: map[string]*stream{}, opened: make(chan struct{})}
}

// Open creates the run's channel. size must cover every event the run
// publishes so the worker never blocks.
func (h *ProgressHub) Open(token string, tenantID int64, size int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.streams[token] = &stream{tenantID: tenantID, ch: make(chan domain.ProgressEvent, size)}
	close(h.opened)
	h.opened = make(chan struct{})
}

// Publish never blocks; it reports false when the event was dropped.
func (h *ProgressHub) Publish(token string, ev domain.ProgressEvent) bool {
	h.mu.Lock()
	st, ok := h.streams[token]
	h.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case st.ch <- ev:
		return true
	default:
		return false
	}
}

// Close ends the run's stream; buffered events stay readable.
func (h *ProgressHub) Close(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if st, ok := h.streams[token]; ok {
		close(st.ch)
		delete(h.streams, token)
	}
}

func (h *ProgressHub) Subscribe(token string, tenantID int64) (<-chan domain.ProgressEvent, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	st, ok := h.streams[token]
	if !ok || st.tenantID != tenantID {
		return nil, false
	}
	return st.ch, true
}

// Wait subscribes as soon as the run's channel is opened, giving up after d.
func (h *ProgressHub) Wait(ctx context.Context, token string, tenantID int64, d time.Duration) (<-chan domain.ProgressEvent, bool) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	for {
		h.mu.Lock()
		st, ok := h.streams[token]
		notify := h.opened
		h.mu.Unlock()
		if ok {
			if st.tenantID != tenantID {
				return nil, false
			}
			return st.ch, true
		}
		select {
		case <-notify:
		case <-timer.C:
			return nil, false
		case <-ctx.Done():
			return nil, false
		}
	}
}

func (h *ProgressHub) Live() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.streams)
}

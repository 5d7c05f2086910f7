package app

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

var ErrShuttingDown = errors.New("sync service is shutting down")

// Supervisor owns background run goroutines. Runs get a context detached from
// the request that started them; it is cancelled only when a shutdown drain
// deadline passes.
type Supervisor struct {
	base   context.Context
	cancel context.CancelFunc
	sem    *semaphore.Weighted // nil: unbounded

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup

	log zerolog.Logger
}

// NewSupervisor caps concurrently executing runs at maxConcurrent; 0 means
// no cap. Queued runs wait for a slot.
func NewSupervisor(maxConcurrent int, log zerolog.Logger) *Supervisor {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Supervisor{base: ctx, cancel: cancel, log: log.With().Str("component", "supervisor").Logger()}
	if maxConcurrent > 0 {
		s.sem = semaphore.NewWeighted(int64(maxConcurrent))
	}
	return s
}

func (s *Supervisor) Accepting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

// Go runs fn in the background under the supervisor's context.
func (s *Supervisor) Go(name string, fn func(ctx context.Context)) error {
	return s.GoOrDrop(name, fn, nil)
}

// GoOrDrop is Go with a callback for a task that is still queued when
// shutdown cancels the supervisor; fn never runs in that case.
func (s *Supervisor) GoOrDrop(name string, fn func(ctx context.Context), dropped func()) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrShuttingDown
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		if s.sem != nil {
			if err := s.sem.Acquire(s.base, 1); err != nil {
				s.drop(name, dropped)
				return
			}
			defer s.sem.Release(1)
			if s.base.Err() != nil {
				s.drop(name, dropped)
				return
			}
		}
		defer func() {
			if p := recover(); p != nil {
				s.log.Error().Str("task", name).Interface("panic", p).Str("stack", string(debug.Stack())).Msg("task panicked")
			}
		}()
		fn(s.base)
	}()
	return nil
}

func (s *Supervisor) drop(name string, dropped func()) {
	s.log.Warn().Str("task", name).Msg("task dropped before start: shutting down")
	if dropped != nil {
		dropped()
	}
}

// Shutdown stops accepting work and waits for running tasks. When ctx
// expires first, task contexts are cancelled and ctx.Err() is returned.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.log.Warn().Msg("drain deadline passed; cancelling running tasks")
		s.cancel()
		return ctx.Err()
	}
}

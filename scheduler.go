// scheduler.go: cancellable one-shot delayed task primitive, used by
// Invalidate's delayed double-delete (spec §4.5).
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package cerberus

import (
	"sync"
	"time"
)

// scheduler runs fire-and-forget delayed tasks and tracks outstanding
// timers so Close can cancel them instead of leaking goroutines past
// the facade's own lifetime.
type scheduler struct {
	mu     sync.Mutex
	timers map[*time.Timer]struct{}
	closed bool
}

func newScheduler() *scheduler {
	return &scheduler{timers: make(map[*time.Timer]struct{})}
}

// After runs fn once after d, unless the scheduler is closed first. A
// task scheduled after Close is a no-op.
func (s *scheduler) After(d time.Duration, fn func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	var t *time.Timer
	t = time.AfterFunc(d, func() {
		s.mu.Lock()
		delete(s.timers, t)
		s.mu.Unlock()
		fn()
	})
	s.timers[t] = struct{}{}
	s.mu.Unlock()
}

// Close cancels every outstanding timer. Tasks already running are
// not interrupted.
func (s *scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for t := range s.timers {
		t.Stop()
	}
	s.timers = make(map[*time.Timer]struct{})
}

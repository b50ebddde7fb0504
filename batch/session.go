package batch

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/lepinkainen/tinyimg/photo"
)

// Session ties admission, the ledger and the scheduler together. Each Add
// schedules exactly the newly admitted items; runs from successive Adds are
// queued so that no more than one chunk is in flight at a time.
type Session struct {
	ledger *Ledger
	sched  *Scheduler
	logger *slog.Logger

	mu      sync.Mutex
	queue   []run
	running bool
	wg      sync.WaitGroup
}

// run is one Add's worth of items, scheduled under the caller's context
type run struct {
	ctx context.Context
	ids []ItemID
}

// NewSession creates a Session over an existing ledger
func NewSession(l *Ledger, s *Scheduler, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{ledger: l, sched: s, logger: logger}
}

// Ledger returns the underlying ledger
func (s *Session) Ledger() *Ledger { return s.ledger }

// Add admits candidates, appends them to the ledger and schedules them.
// It returns the indices of the admitted files without waiting for them.
func (s *Session) Add(ctx context.Context, candidates []photo.RawFile) []int {
	admitted := photo.Admit(candidates)
	if dropped := len(candidates) - len(admitted); dropped > 0 {
		s.logger.Debug("dropped unsupported files", "count", dropped)
	}
	if len(admitted) == 0 {
		return nil
	}

	indices, ids := s.ledger.AppendWithIDs(admitted)

	s.mu.Lock()
	s.queue = append(s.queue, run{ctx: ctx, ids: ids})
	if !s.running {
		s.running = true
		s.wg.Add(1)
		go s.drain()
	}
	s.mu.Unlock()

	return indices
}

func (s *Session) drain() {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.running = false
			s.mu.Unlock()
			return
		}
		next := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		if err := s.sched.RunIDs(next.ctx, s.ledger, next.ids); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("batch run stopped", "error", err)
		}
	}
}

// Wait blocks until every queued run has finished
func (s *Session) Wait() {
	s.wg.Wait()
}

// Stats computes the aggregate statistics of the current ledger state
func (s *Session) Stats() Stats {
	return Compute(s.ledger.Snapshot())
}

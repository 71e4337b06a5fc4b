// Package store keeps batch state in memory for the lifetime of the process.
// Nothing is persisted across restarts; a batch and its results belong to one
// session by design.
package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/prylatief/latiefads/internal/domain"
)

// State is the lifecycle of one batch. RUNNING is the only state in which
// generation calls occur; COMPLETED and FAILED are terminal, with FAILED
// retaining every result produced before the failing task.
type State string

const (
	StateRunning   State = "RUNNING"
	StateCompleted State = "COMPLETED"
	StateFailed    State = "FAILED"
)

// Batch is a snapshot of one batch run.
type Batch struct {
	ID        string
	State     State
	Progress  domain.BatchProgress
	Results   []domain.GenerationResult
	Error     string
	CreatedAt time.Time
}

// Event is pushed to subscribers whenever a batch changes.
type Event struct {
	State    State                `json:"state"`
	Progress domain.BatchProgress `json:"progress"`
	Results  int                  `json:"results"`
	Error    string               `json:"error,omitempty"`
}

// Store is a mutex-guarded batch registry with per-batch subscribers.
type Store struct {
	mu      sync.RWMutex
	batches map[string]*Batch
	subs    map[string]map[chan Event]struct{}
}

func New() *Store {
	return &Store{
		batches: make(map[string]*Batch),
		subs:    make(map[string]map[chan Event]struct{}),
	}
}

// Create registers a new running batch and returns its snapshot.
func (s *Store) Create() Batch {
	b := &Batch{
		ID:        uuid.NewString(),
		State:     StateRunning,
		CreatedAt: time.Now(),
	}
	s.mu.Lock()
	s.batches[b.ID] = b
	s.mu.Unlock()
	return snapshot(b)
}

// Get returns a snapshot of the batch.
func (s *Store) Get(id string) (Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.batches[id]
	if !ok {
		return Batch{}, fmt.Errorf("batch %s: %w", id, domain.ErrNotFound)
	}
	return snapshot(b), nil
}

// SetProgress records the latest (dispatched, total) pair.
func (s *Store) SetProgress(id string, p domain.BatchProgress) {
	s.update(id, func(b *Batch) {
		b.Progress = p
	})
}

// AppendResult appends one produced image in dispatch order.
func (s *Store) AppendResult(id string, r domain.GenerationResult) {
	s.update(id, func(b *Batch) {
		b.Results = append(b.Results, r)
	})
}

// Complete marks the batch finished, clearing any error and resetting
// progress to signal that no batch work is in flight.
func (s *Store) Complete(id string) {
	s.finish(id, func(b *Batch) {
		b.State = StateCompleted
		b.Error = ""
		b.Progress = domain.BatchProgress{}
	})
}

// Fail marks the batch failed with a user-visible description. Results
// produced before the failure stay available for preview and download.
func (s *Store) Fail(id, message string) {
	s.finish(id, func(b *Batch) {
		b.State = StateFailed
		b.Error = message
		b.Progress = domain.BatchProgress{}
	})
}

// Result looks up a single generated image within a batch.
func (s *Store) Result(batchID, resultID string) (domain.GenerationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.batches[batchID]
	if !ok {
		return domain.GenerationResult{}, fmt.Errorf("batch %s: %w", batchID, domain.ErrNotFound)
	}
	for _, r := range b.Results {
		if r.ID == resultID {
			return r, nil
		}
	}
	return domain.GenerationResult{}, fmt.Errorf("result %s: %w", resultID, domain.ErrNotFound)
}

// Subscribe returns a channel of events for the batch plus a cancel func.
// The channel is closed when the batch reaches a terminal state.
func (s *Store) Subscribe(id string) (<-chan Event, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.batches[id]
	if !ok {
		return nil, nil, fmt.Errorf("batch %s: %w", id, domain.ErrNotFound)
	}

	ch := make(chan Event, 16)
	ch <- eventOf(b)
	if b.State != StateRunning {
		close(ch)
		return ch, func() {}, nil
	}

	if s.subs[id] == nil {
		s.subs[id] = make(map[chan Event]struct{})
	}
	s.subs[id][ch] = struct{}{}

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if set, ok := s.subs[id]; ok {
			if _, live := set[ch]; live {
				delete(set, ch)
				close(ch)
			}
		}
	}
	return ch, cancel, nil
}

func (s *Store) update(id string, fn func(*Batch)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.batches[id]
	if !ok {
		return
	}
	fn(b)
	s.notifyLocked(id, eventOf(b))
}

func (s *Store) finish(id string, fn func(*Batch)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.batches[id]
	if !ok {
		return
	}
	fn(b)
	ev := eventOf(b)
	s.notifyLocked(id, ev)
	for ch := range s.subs[id] {
		close(ch)
	}
	delete(s.subs, id)
}

func (s *Store) notifyLocked(id string, ev Event) {
	for ch := range s.subs[id] {
		select {
		case ch <- ev:
		default:
			// slow subscriber, drop the intermediate event
		}
	}
}

func eventOf(b *Batch) Event {
	return Event{
		State:    b.State,
		Progress: b.Progress,
		Results:  len(b.Results),
		Error:    b.Error,
	}
}

func snapshot(b *Batch) Batch {
	out := *b
	out.Results = append([]domain.GenerationResult(nil), b.Results...)
	return out
}

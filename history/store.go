package history

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/jonwraymond/promptdiscovery/recommend"
)

// Error values for consistent error handling by callers.
var (
	ErrInvalidEvent = errors.New("invalid event")
	ErrClosed       = errors.New("store closed")
)

// Event is one recorded interaction of a user with a prompt.
type Event struct {
	ID       string               `json:"id"`
	UserID   string               `json:"user_id"`
	PromptID string               `json:"prompt_id"`
	Kind     recommend.SignalKind `json:"kind"`
	At       time.Time            `json:"at"`
}

// Store defines signal persistence operations.
type Store interface {
	// Record stores an event, filling in ID and At when empty, and returns
	// the stored event.
	Record(ctx context.Context, event Event) (Event, error)
	// List returns a user's events, oldest first.
	List(ctx context.Context, userID string) ([]Event, error)
	// Clear removes every event of a user.
	Clear(ctx context.Context, userID string) error
	// Close releases the store's resources.
	Close() error
}

// checkUserID rejects user ids that are empty or carry control characters.
// Store keys are built from the raw id, so a NUL inside one id could make it
// a key prefix of another user's events.
func checkUserID(userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidEvent)
	}
	if strings.ContainsFunc(userID, unicode.IsControl) {
		return fmt.Errorf("%w: user id %q contains control characters", ErrInvalidEvent, userID)
	}
	return nil
}

// prepare validates e and fills defaults.
func prepare(e Event, now func() time.Time) (Event, error) {
	e.UserID = strings.TrimSpace(e.UserID)
	e.PromptID = strings.TrimSpace(e.PromptID)
	if err := checkUserID(e.UserID); err != nil {
		return Event{}, err
	}
	if e.PromptID == "" {
		return Event{}, fmt.Errorf("%w: prompt id is required", ErrInvalidEvent)
	}
	kind, err := recommend.ParseKind(string(e.Kind))
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	e.Kind = kind
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = now()
	}
	e.At = e.At.UTC()
	return e, nil
}

// InMemoryStore stores events in memory.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[string][]Event
	closed bool
	now    func() time.Time
}

// NewInMemoryStore creates a new in-memory event store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		events: make(map[string][]Event),
		now:    time.Now,
	}
}

// Record stores an event.
func (s *InMemoryStore) Record(ctx context.Context, event Event) (Event, error) {
	if err := ctx.Err(); err != nil {
		return Event{}, err
	}
	event, err := prepare(event, s.now)
	if err != nil {
		return Event{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Event{}, ErrClosed
	}
	s.events[event.UserID] = append(s.events[event.UserID], event)
	return event, nil
}

// List returns a user's events, oldest first.
func (s *InMemoryStore) List(ctx context.Context, userID string) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkUserID(userID); err != nil {
		return nil, err
	}

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, ErrClosed
	}
	events := make([]Event, len(s.events[userID]))
	copy(events, s.events[userID])
	s.mu.RUnlock()

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].At.Before(events[j].At)
	})
	return events, nil
}

// Clear removes every event of a user.
func (s *InMemoryStore) Clear(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkUserID(userID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	delete(s.events, userID)
	return nil
}

// Close marks the store closed.
func (s *InMemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.events = nil
	s.mu.Unlock()
	return nil
}

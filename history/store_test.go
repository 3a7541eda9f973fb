package history

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/promptdiscovery/recommend"
)

func storeFactories(t *testing.T) map[string]func(t *testing.T) Store {
	t.Helper()
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store {
			return NewInMemoryStore()
		},
		"bolt": func(t *testing.T) Store {
			s, err := OpenBoltStore(filepath.Join(t.TempDir(), "history.db"))
			require.NoError(t, err)
			return s
		},
	}
}

func TestStore_RecordAndList(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			defer s.Close()

			base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
			_, err := s.Record(ctx, Event{UserID: "u1", PromptID: "later", Kind: recommend.KindSave, At: base.Add(time.Minute)})
			require.NoError(t, err)
			_, err = s.Record(ctx, Event{UserID: "u1", PromptID: "earlier", At: base})
			require.NoError(t, err)
			_, err = s.Record(ctx, Event{UserID: "u2", PromptID: "other", Kind: recommend.KindRun})
			require.NoError(t, err)

			events, err := s.List(ctx, "u1")
			require.NoError(t, err)
			require.Len(t, events, 2)
			require.Equal(t, "earlier", events[0].PromptID)
			require.Equal(t, recommend.KindView, events[0].Kind)
			require.Equal(t, "later", events[1].PromptID)
			require.Equal(t, recommend.KindSave, events[1].Kind)
			require.NotEmpty(t, events[0].ID)
			require.True(t, events[0].At.Equal(base))

			events, err = s.List(ctx, "nobody")
			require.NoError(t, err)
			require.Empty(t, events)
		})
	}
}

func TestStore_RecordFillsDefaults(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			defer s.Close()

			e, err := s.Record(context.Background(), Event{UserID: " u1 ", PromptID: "p"})
			require.NoError(t, err)
			require.Equal(t, "u1", e.UserID)
			require.NotEmpty(t, e.ID)
			require.False(t, e.At.IsZero())
			require.Equal(t, recommend.KindView, e.Kind)
		})
	}
}

func TestStore_RecordValidation(t *testing.T) {
	tests := []struct {
		name  string
		event Event
	}{
		{name: "missing user", event: Event{PromptID: "p"}},
		{name: "missing prompt", event: Event{UserID: "u"}},
		{name: "unknown kind", event: Event{UserID: "u", PromptID: "p", Kind: "share"}},
	}

	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			defer s.Close()

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					_, err := s.Record(context.Background(), tt.event)
					require.ErrorIs(t, err, ErrInvalidEvent)
				})
			}
		})
	}
}

func TestStore_Clear(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			defer s.Close()

			for _, user := range []string{"u1", "u1", "u10"} {
				_, err := s.Record(ctx, Event{UserID: user, PromptID: "p"})
				require.NoError(t, err)
			}

			require.NoError(t, s.Clear(ctx, "u1"))

			events, err := s.List(ctx, "u1")
			require.NoError(t, err)
			require.Empty(t, events)

			events, err = s.List(ctx, "u10")
			require.NoError(t, err)
			require.Len(t, events, 1, "clearing u1 must not touch u10")
		})
	}
}

func TestStore_UserIDsDoNotShareKeys(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			defer s.Close()

			_, err := s.Record(ctx, Event{UserID: "a\x00b", PromptID: "secret", Kind: recommend.KindSave})
			require.ErrorIs(t, err, ErrInvalidEvent)
			_, err = s.Record(ctx, Event{UserID: "a\tb", PromptID: "secret"})
			require.ErrorIs(t, err, ErrInvalidEvent)

			_, err = s.Record(ctx, Event{UserID: "a", PromptID: "mine"})
			require.NoError(t, err)
			_, err = s.Record(ctx, Event{UserID: "ab", PromptID: "theirs"})
			require.NoError(t, err)

			events, err := s.List(ctx, "a")
			require.NoError(t, err)
			require.Len(t, events, 1)
			require.Equal(t, "mine", events[0].PromptID)

			_, err = s.List(ctx, "a\x00b")
			require.ErrorIs(t, err, ErrInvalidEvent)
			require.ErrorIs(t, s.Clear(ctx, "a\x00"), ErrInvalidEvent)
			_, err = s.List(ctx, "")
			require.ErrorIs(t, err, ErrInvalidEvent)

			require.NoError(t, s.Clear(ctx, "a"))
			events, err = s.List(ctx, "ab")
			require.NoError(t, err)
			require.Len(t, events, 1, "clearing a must not touch ab")
		})
	}
}

func TestStore_CancelledContext(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			defer s.Close()

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, err := s.Record(ctx, Event{UserID: "u", PromptID: "p"})
			require.ErrorIs(t, err, context.Canceled)
			_, err = s.List(ctx, "u")
			require.ErrorIs(t, err, context.Canceled)
			require.ErrorIs(t, s.Clear(ctx, "u"), context.Canceled)
		})
	}
}

func TestStore_Closed(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			require.NoError(t, s.Close())

			_, err := s.Record(context.Background(), Event{UserID: "u", PromptID: "p"})
			require.ErrorIs(t, err, ErrClosed)
			_, err = s.List(context.Background(), "u")
			require.ErrorIs(t, err, ErrClosed)
		})
	}
}

func TestBoltStore_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	s, err := OpenBoltStore(path)
	require.NoError(t, err)
	_, err = s.Record(ctx, Event{UserID: "u", PromptID: "p", Kind: recommend.KindRun})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := OpenBoltStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	events, err := reopened.List(ctx, "u")
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, recommend.KindRun, events[0].Kind)
}

func TestInMemoryStore_ConcurrentRecord(t *testing.T) {
	s := NewInMemoryStore()
	defer s.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Record(context.Background(), Event{UserID: "u", PromptID: "p"})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	events, err := s.List(context.Background(), "u")
	require.NoError(t, err)
	require.Len(t, events, 50)
}

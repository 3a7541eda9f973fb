package history

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var eventsBucket = []byte("events")

// BoltStore persists events in a bbolt database file.
//
// Keys are userID, a zero byte, the big-endian event time in nanoseconds and
// the event id, so a prefix scan over one user yields events oldest first.
type BoltStore struct {
	db  *bolt.DB
	now func() time.Time
}

// OpenBoltStore opens (creating if needed) a bbolt-backed store at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open history db %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(eventsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init history db: %w", err)
	}

	return &BoltStore{db: db, now: time.Now}, nil
}

func userPrefix(userID string) []byte {
	prefix := make([]byte, 0, len(userID)+1)
	prefix = append(prefix, userID...)
	return append(prefix, 0)
}

func eventKey(e Event) []byte {
	key := userPrefix(e.UserID)
	key = binary.BigEndian.AppendUint64(key, uint64(e.At.UnixNano()))
	return append(key, e.ID...)
}

// Record stores an event.
func (s *BoltStore) Record(ctx context.Context, event Event) (Event, error) {
	if err := ctx.Err(); err != nil {
		return Event{}, err
	}
	event, err := prepare(event, s.now)
	if err != nil {
		return Event{}, err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return Event{}, fmt.Errorf("encode event: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(eventsBucket).Put(eventKey(event), data)
	})
	if err != nil {
		return Event{}, fmt.Errorf("record event: %w", mapClosed(err))
	}
	return event, nil
}

// List returns a user's events, oldest first.
func (s *BoltStore) List(ctx context.Context, userID string) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkUserID(userID); err != nil {
		return nil, err
	}

	events := []Event{}
	prefix := userPrefix(userID)
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(eventsBucket).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var e Event
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("decode event %q: %w", k, err)
			}
			events = append(events, e)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", mapClosed(err))
	}
	return events, nil
}

// Clear removes every event of a user.
func (s *BoltStore) Clear(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkUserID(userID); err != nil {
		return err
	}

	prefix := userPrefix(userID)
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(eventsBucket)
		var keys [][]byte
		c := b.Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			keys = append(keys, bytes.Clone(k))
		}
		for _, k := range keys {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("clear events: %w", mapClosed(err))
	}
	return nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func mapClosed(err error) error {
	if errors.Is(err, bolt.ErrDatabaseNotOpen) {
		return ErrClosed
	}
	return err
}

package dedup

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tidwall/buntdb"
)

const notifiedIndex = "notified_index"

// State of a ledger entry. A reservation is written when the pipeline decides
// to notify a token and is promoted to sent once the dispatcher succeeds.
type State string

const (
	StateReserved State = "reserved"
	StateSent     State = "sent"
)

type Entry struct {
	NotifiedAt int64 `json:"notified_at"` // unix milliseconds
	State      State `json:"state"`
}

func (e Entry) Time() time.Time { return time.UnixMilli(e.NotifiedAt) }

// Ledger remembers which identity keys were notified recently.
// It lives in memory only and starts empty on every process start.
type Ledger struct {
	db     *buntdb.DB
	window time.Duration
}

// NewLedger opens an in-memory ledger that suppresses keys for window.
func NewLedger(window time.Duration) (*Ledger, error) {
	if window <= 0 {
		return nil, fmt.Errorf("suppression window must be positive, got %s", window)
	}

	db, err := buntdb.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open buntdb: %w", err)
	}

	err = db.CreateIndex(notifiedIndex, "*", buntdb.IndexJSON("notified_at"))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &Ledger{db: db, window: window}, nil
}

func (l *Ledger) Window() time.Duration { return l.window }

// Retention is how long an entry is kept before Purge drops it.
func (l *Ledger) Retention() time.Duration { return 2 * l.window }

// Suppressed reports whether key was notified (or reserved) less than one window before now.
func (l *Ledger) Suppressed(key string, now time.Time) (bool, error) {
	entry, ok, err := l.Get(key)
	if err != nil || !ok {
		return false, err
	}
	return now.Sub(entry.Time()) < l.window, nil
}

// Reserve records key as about to be notified at now.
func (l *Ledger) Reserve(key string, now time.Time) error {
	return l.put(key, Entry{NotifiedAt: now.UnixMilli(), State: StateReserved})
}

// Commit marks key as sent at now.
func (l *Ledger) Commit(key string, now time.Time) error {
	return l.put(key, Entry{NotifiedAt: now.UnixMilli(), State: StateSent})
}

func (l *Ledger) put(key string, entry Entry) error {
	content, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger entry: %w", err)
	}
	return l.db.Update(func(tx *buntdb.Tx) error {
		if _, _, err := tx.Set(key, string(content), nil); err != nil {
			return fmt.Errorf("failed to store ledger entry %s: %w", key, err)
		}
		return nil
	})
}

// Get returns the entry for key. ok is false when the key is unknown.
func (l *Ledger) Get(key string) (entry Entry, ok bool, err error) {
	err = l.db.View(func(tx *buntdb.Tx) error {
		value, err := tx.Get(key)
		if errors.Is(err, buntdb.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(value), &entry); err != nil {
			return fmt.Errorf("failed to unmarshal ledger entry %s: %w", key, err)
		}
		ok = true
		return nil
	})
	return entry, ok, err
}

// Purge drops entries older than the retention (2 × window) and returns how many went.
func (l *Ledger) Purge(now time.Time) (int, error) {
	cutoff := now.Add(-l.Retention()).UnixMilli()
	pivot := fmt.Sprintf(`{"notified_at":%d}`, cutoff)

	var removed int
	err := l.db.Update(func(tx *buntdb.Tx) error {
		var stale []string
		err := tx.AscendLessThan(notifiedIndex, pivot, func(key, _ string) bool {
			stale = append(stale, key)
			return true
		})
		if err != nil {
			return fmt.Errorf("failed to scan ledger: %w", err)
		}
		for _, key := range stale {
			if _, err := tx.Delete(key); err != nil && !errors.Is(err, buntdb.ErrNotFound) {
				return fmt.Errorf("failed to delete ledger entry %s: %w", key, err)
			}
			removed++
		}
		return nil
	})
	return removed, err
}

func (l *Ledger) Len() (int, error) {
	var n int
	err := l.db.View(func(tx *buntdb.Tx) error {
		var err error
		n, err = tx.Len()
		return err
	})
	return n, err
}

func (l *Ledger) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

package gateway

import (
	stderrors "errors"
	"os"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

const keyPrefix = "sync:"

// LedgerOptions configures the dedup ledger.
type LedgerOptions struct {
	// Path is the Badger directory. Empty uses in-memory mode.
	Path string
	// InMemory forces in-memory mode regardless of Path.
	InMemory bool
	// TTL expires entries. Zero keeps them forever.
	TTL time.Duration
}

// Ledger remembers which idempotency keys were already delivered.
type Ledger struct {
	db  *badger.DB
	ttl time.Duration
}

// OpenLedger opens or creates a ledger.
func OpenLedger(opts LedgerOptions) (*Ledger, error) {
	var bopts badger.Options
	if opts.InMemory || opts.Path == "" {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(opts.Path, 0700); err != nil {
			return nil, err
		}
		bopts = badger.DefaultOptions(opts.Path)
	}
	bopts = bopts.WithLoggingLevel(badger.ERROR)

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, err
	}
	return &Ledger{db: db, ttl: opts.TTL}, nil
}

// Close closes the ledger.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Seen reports which of keys are already recorded.
func (l *Ledger) Seen(keys []string) (map[string]bool, error) {
	seen := make(map[string]bool)
	err := l.db.View(func(txn *badger.Txn) error {
		for _, k := range keys {
			_, err := txn.Get([]byte(keyPrefix + k))
			switch {
			case err == nil:
				seen[k] = true
			case stderrors.Is(err, badger.ErrKeyNotFound):
			default:
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return seen, nil
}

// Record stores keys with the delivery time as value.
func (l *Ledger) Record(keys []string, at time.Time) error {
	if len(keys) == 0 {
		return nil
	}

	wb := l.db.NewWriteBatch()
	defer wb.Cancel()

	val := []byte(at.UTC().Format(time.RFC3339))
	for _, k := range keys {
		e := badger.NewEntry([]byte(keyPrefix+k), val)
		if l.ttl > 0 {
			e = e.WithTTL(l.ttl)
		}
		if err := wb.SetEntry(e); err != nil {
			return err
		}
	}
	return wb.Flush()
}

// Count returns the number of live entries.
func (l *Ledger) Count() (int, error) {
	n := 0
	err := l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

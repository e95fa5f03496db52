package db

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"mongochat/models"

	"github.com/dgraph-io/badger/v4"
)

const sessionPrefix = "session:"

var ErrSessionNotFound = errors.New("session not found")

// DB persists per-browser sessions in badger. Every write refreshes the
// session TTL.
type DB struct {
	badgerDB *badger.DB
	ttl      time.Duration
}

func New(dbPath string, ttl time.Duration) (*DB, error) {
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	return open(badger.DefaultOptions(dbPath), ttl)
}

// NewInMemory opens a store that lives only as long as the process.
func NewInMemory(ttl time.Duration) (*DB, error) {
	return open(badger.DefaultOptions("").WithInMemory(true), ttl)
}

func open(opts badger.Options, ttl time.Duration) (*DB, error) {
	opts.Logger = nil

	badgerDB, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &DB{badgerDB: badgerDB, ttl: ttl}, nil
}

func (d *DB) Close() error {
	return d.badgerDB.Close()
}

func sessionKey(id string) []byte {
	return []byte(sessionPrefix + id)
}

func (d *DB) GetSession(id string) (*models.Session, error) {
	var session models.Session

	err := d.badgerDB.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &session)
		})
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// StoreSession writes the session and stamps UpdatedAt.
func (d *DB) StoreSession(session *models.Session) error {
	if session.ID == "" {
		return errors.New("session id is required")
	}
	now := time.Now().UTC().Format(time.RFC3339)
	if session.CreatedAt == "" {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	return d.badgerDB.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(sessionKey(session.ID), data)
		if d.ttl > 0 {
			entry = entry.WithTTL(d.ttl)
		}
		return txn.SetEntry(entry)
	})
}

func (d *DB) DeleteSession(id string) error {
	return d.badgerDB.Update(func(txn *badger.Txn) error {
		return txn.Delete(sessionKey(id))
	})
}

// CountSessions returns the number of live sessions.
func (d *DB) CountSessions() (int, error) {
	count := 0
	err := d.badgerDB.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(sessionPrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

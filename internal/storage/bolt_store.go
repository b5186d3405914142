package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"
)

const jobBucket = "processed_jobs"

// boltStore implements a Store backed by BoltDB.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	entryTTL        time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(jobBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	store := &boltStore{
		db:              db,
		entryTTL:        opts.EntryTTL,
		cleanupInterval: opts.CleanupInterval,
		now:             time.Now,
	}
	store.lastCleanup.Store(store.now().Unix())
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Lookup returns the live record for fingerprint. Expired records are deleted.
func (b *boltStore) Lookup(fingerprint string) (Record, bool, error) {
	if b == nil || b.db == nil {
		return Record{}, false, nil
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return Record{}, false, err
	}

	var (
		rec   Record
		found bool
	)
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := jobsBucket(tx)
		if err != nil {
			return err
		}

		key := []byte(fingerprint)
		value := bucket.Get(key)
		if value == nil {
			return nil
		}

		decoded, ok := decodeRecord(value)
		if !ok || !decoded.ExpiresAt.After(now) {
			return bucket.Delete(key)
		}

		rec, found = decoded, true
		return nil
	})
	return rec, found, err
}

// Mark stores rec under fingerprint, expiring after the configured TTL.
func (b *boltStore) Mark(fingerprint string, rec Record) error {
	if b == nil || b.db == nil {
		return nil
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}

	if rec.ProcessedAt.IsZero() {
		rec.ProcessedAt = now.UTC()
	}
	rec.ExpiresAt = now.Add(b.entryTTL).UTC()
	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := jobsBucket(tx)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(fingerprint), value)
	})
}

// Forget removes fingerprint so the job runs again on the next pass.
func (b *boltStore) Forget(fingerprint string) error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := jobsBucket(tx)
		if err != nil {
			return err
		}
		return bucket.Delete([]byte(fingerprint))
	})
}

// maybeCleanupExpired drops expired records once per cleanup interval.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := jobsBucket(tx)
		if err != nil {
			return err
		}

		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			rec, ok := decodeRecord(v)
			if !ok || !rec.ExpiresAt.After(now) {
				if err := cursor.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

func jobsBucket(tx *bolt.Tx) (*bolt.Bucket, error) {
	bucket := tx.Bucket([]byte(jobBucket))
	if bucket == nil {
		return nil, fmt.Errorf("processed jobs bucket missing")
	}
	return bucket, nil
}

func decodeRecord(value []byte) (Record, bool) {
	var rec Record
	if err := json.Unmarshal(value, &rec); err != nil {
		return Record{}, false
	}
	if rec.ExpiresAt.IsZero() {
		return Record{}, false
	}
	return rec, true
}

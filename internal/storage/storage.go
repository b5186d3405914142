package storage

import (
	"fmt"
	"strings"
	"time"
)

// Store remembers which job fingerprints were already processed.
type Store interface {
	Close() error
	Lookup(fingerprint string) (Record, bool, error)
	Mark(fingerprint string, rec Record) error
	Forget(fingerprint string) error
}

// Record is what the ledger keeps about a processed job.
type Record struct {
	JobID       string    `json:"job_id"`
	Operation   string    `json:"operation"`
	StatusCode  int       `json:"status_code"`
	ProcessedAt time.Time `json:"processed_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	EntryTTL        time.Duration
	CleanupInterval time.Duration
}

const (
	defaultEntryTTL        = 30 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.EntryTTL <= 0 {
		opts.EntryTTL = defaultEntryTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                        { return nil }
func (noopStore) Lookup(string) (Record, bool, error) { return Record{}, false, nil }
func (noopStore) Mark(string, Record) error           { return nil }
func (noopStore) Forget(string) error                 { return nil }

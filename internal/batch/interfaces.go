package batch

import (
	"context"

	"github.com/samvad-hq/doctools/internal/storage"
	"github.com/samvad-hq/doctools/pkg/doctools"
	"github.com/samvad-hq/doctools/pkg/publishers"
)

// PDFOperations is the subset of doctools.PDFTools a job needs.
type PDFOperations interface {
	ImagesFromPath(ctx context.Context, path string, opts doctools.ImageOptions) (*doctools.Response, error)
	ThumbnailFromPath(ctx context.Context, path string, opts doctools.ImageOptions) (*doctools.Response, error)
	OCRFromPath(ctx context.Context, path string) (*doctools.Response, error)
}

// EventPublisher delivers job results and reports how many sinks accepted them.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Ledger remembers processed job fingerprints.
type Ledger interface {
	Lookup(fingerprint string) (storage.Record, bool, error)
	Mark(fingerprint string, rec storage.Record) error
	Forget(fingerprint string) error
}

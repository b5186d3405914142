package batch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/samvad-hq/doctools/internal/jobs"
	"github.com/samvad-hq/doctools/internal/logger"
	"github.com/samvad-hq/doctools/internal/storage"
	"github.com/samvad-hq/doctools/pkg/doctools"
	"github.com/samvad-hq/doctools/pkg/publishers"
)

// ErrNotDelivered is returned when no publisher accepted a job result.
var ErrNotDelivered = errors.New("result not delivered to any publisher")

// JobProcessor runs a single job end to end: dedupe, call the API, publish, record.
type JobProcessor struct {
	tools     PDFOperations
	publisher EventPublisher
	ledger    Ledger
	log       logger.Logger
}

// NewJobProcessor wires a processor. A nil ledger disables deduplication.
func NewJobProcessor(tools PDFOperations, publisher EventPublisher, ledger Ledger, log logger.Logger) *JobProcessor {
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ledger == nil {
		ledger = noopLedger{}
	}
	return &JobProcessor{tools: tools, publisher: publisher, ledger: ledger, log: log}
}

// Process handles one job. Skipped jobs return nil.
func (p *JobProcessor) Process(ctx context.Context, job jobs.Job) error {
	fp, err := Fingerprint(job)
	if err != nil {
		return fmt.Errorf("job %s: %w: %v", job.ID, doctools.ErrFileNotFound, err)
	}

	if job.Force {
		if err := p.ledger.Forget(fp); err != nil {
			return fmt.Errorf("job %s: forget ledger entry: %w", job.ID, err)
		}
	} else if rec, seen, err := p.ledger.Lookup(fp); err != nil {
		p.log.WarnObj("ledger lookup failed; processing anyway", "ledger_error", map[string]any{
			"job_id": job.ID,
			"error":  err.Error(),
		})
	} else if seen {
		p.log.DebugObj("job already processed", "job_skipped", map[string]any{
			"job_id":       job.ID,
			"processed_at": rec.ProcessedAt,
			"status_code":  rec.StatusCode,
		})
		return nil
	}

	start := time.Now()
	resp, err := p.call(ctx, job)
	if err != nil {
		return fmt.Errorf("job %s: %w", job.ID, err)
	}

	p.log.InfoObj("job processed", "job_result", map[string]any{
		"job_id":      job.ID,
		"operation":   job.Operation,
		"status_code": resp.StatusCode(),
		"is_json":     resp.IsJSON(),
		"elapsed_ms":  time.Since(start).Milliseconds(),
	})

	if p.publisher != nil {
		evt := publishers.NewEvent(job.ID, job.Operation, job.Path, fp, resp.StatusCode(), resp.Body())
		delivered, err := p.publisher.Publish(ctx, evt)
		if delivered == 0 {
			if err == nil {
				err = ErrNotDelivered
			}
			return fmt.Errorf("job %s: publish: %w", job.ID, err)
		}
		if err != nil {
			p.log.WarnObj("job result partially delivered", "publish_error", map[string]any{
				"job_id":    job.ID,
				"delivered": delivered,
				"error":     err.Error(),
			})
		}
	}

	// Server-side failures are left out of the ledger so the next pass retries them.
	if resp.StatusCode() >= http.StatusInternalServerError {
		return nil
	}
	if err := p.ledger.Mark(fp, storage.Record{
		JobID:      job.ID,
		Operation:  job.Operation,
		StatusCode: resp.StatusCode(),
	}); err != nil {
		return fmt.Errorf("job %s: mark ledger: %w", job.ID, err)
	}
	return nil
}

func (p *JobProcessor) call(ctx context.Context, job jobs.Job) (*doctools.Response, error) {
	opts := doctools.ImageOptions{Resolution: job.Resolution, Output: job.Output}
	switch job.Operation {
	case jobs.OperationImages:
		return p.tools.ImagesFromPath(ctx, job.Path, opts)
	case jobs.OperationThumbnail:
		return p.tools.ThumbnailFromPath(ctx, job.Path, opts)
	case jobs.OperationOCR:
		return p.tools.OCRFromPath(ctx, job.Path)
	default:
		return nil, fmt.Errorf("unsupported operation %q", job.Operation)
	}
}

type noopLedger struct{}

func (noopLedger) Lookup(string) (storage.Record, bool, error) { return storage.Record{}, false, nil }
func (noopLedger) Mark(string, storage.Record) error           { return nil }
func (noopLedger) Forget(string) error                         { return nil }

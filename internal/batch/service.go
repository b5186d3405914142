package batch

import (
	"context"
	"errors"
	"fmt"

	"github.com/samvad-hq/doctools/internal/jobs"
	"github.com/samvad-hq/doctools/internal/logger"
)

// Service runs every configured job once per pass.
type Service struct {
	processor *JobProcessor
	log       logger.Logger
}

// NewService wires the batch service.
func NewService(tools PDFOperations, publisher EventPublisher, log logger.Logger, ledger Ledger) *Service {
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &Service{
		processor: NewJobProcessor(tools, publisher, ledger, log),
		log:       log,
	}
}

// Run processes all jobs sequentially and joins the per-job errors.
func (s *Service) Run(ctx context.Context, list []jobs.Job) error {
	if s == nil || s.processor == nil {
		return fmt.Errorf("batch service is not initialized")
	}
	if len(list) == 0 {
		return fmt.Errorf("no jobs configured")
	}

	errs := s.runAll(ctx, list)
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func (s *Service) runAll(ctx context.Context, list []jobs.Job) []error {
	errs := make([]error, 0, len(list))

	for _, job := range list {
		select {
		case <-ctx.Done():
			s.log.WarnObj("batch pass interrupted", "batch_state", map[string]any{
				"next_job_id": job.ID,
				"reason":      ctx.Err().Error(),
			})
			return errs
		default:
		}

		if err := s.processor.Process(ctx, job); err != nil {
			errs = append(errs, err)
			s.log.ErrorObj("job failed", "job_error", map[string]any{
				"job_id": job.ID,
				"error":  err.Error(),
			})
		}
	}

	return errs
}

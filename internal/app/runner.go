package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samvad-hq/doctools/internal/batch"
	"github.com/samvad-hq/doctools/internal/config"
	"github.com/samvad-hq/doctools/internal/jobs"
	"github.com/samvad-hq/doctools/internal/logger"
	"github.com/samvad-hq/doctools/internal/storage"
	"github.com/samvad-hq/doctools/pkg/doctools"
	"github.com/samvad-hq/doctools/pkg/publishers"
)

// Runner represents the batch runtime. It loads jobs and publishers from
// config files, owns the processed-jobs store and drives batch passes either
// once or on a fixed interval.
type Runner struct {
	cfg         *config.Config
	jobReg      *jobs.Registry
	fanout      *publishers.Fanout
	service     *batch.Service
	runInterval time.Duration
	log         logger.Logger
	store       storage.Store
}

// NewRunner builds a runner from config files.
func NewRunner(ctx context.Context, cfg *config.Config, log logger.Logger) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	jobReg, err := jobs.LoadRegistry(cfg.JobsFile)
	if err != nil {
		return nil, fmt.Errorf("load jobs registry: %w", err)
	}
	jobList := jobReg.All()
	jobIDs := make([]string, 0, len(jobList))
	for _, j := range jobList {
		jobIDs = append(jobIDs, j.ID)
	}
	log.InfoObj("jobs registry loaded", "jobs_meta", map[string]any{
		"count": len(jobIDs),
		"ids":   jobIDs,
	})

	fanout, err := buildFanout(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	storeOpts := storage.Options{
		EntryTTL:        cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	}
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storeOpts)
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"entry_ttl_seconds":        int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	client := doctools.New(cfg.APIURL, cfg.APIKey, doctools.WithLogger(log))
	tools := doctools.NewPDFTools(client)

	// A nil interface here lets the processor skip publishing entirely.
	var sink batch.EventPublisher
	if fanout.Size() > 0 {
		sink = fanout
	}

	return &Runner{
		cfg:         cfg,
		jobReg:      jobReg,
		fanout:      fanout,
		service:     batch.NewService(tools, sink, log, store),
		runInterval: cfg.RunInterval,
		log:         log,
		store:       store,
	}, nil
}

func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*publishers.Fanout, error) {
	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}

	enabledPublishers := publisherReg.Enabled()
	if len(enabledPublishers) == 0 {
		log.WarnObj("no publishers enabled; results are only logged", "publishers_file", cfg.PublishersFile)
		return publishers.NewFanout(nil), nil
	}

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	publisherSummaries := make([]map[string]string, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})
	return publishers.NewFanout(pubClients), nil
}

// Run executes batch passes. With a zero interval it runs a single pass and
// returns its error; otherwise it loops until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	if r == nil || r.service == nil {
		return fmt.Errorf("runner is not initialized")
	}
	defer r.close()

	list := r.jobReg.All()
	if len(list) == 0 {
		r.log.WarnObj("no jobs configured; nothing to do", "jobs_file", r.cfg.JobsFile)
		return nil
	}

	r.log.InfoObj("batch runner starting", "runner_state", map[string]any{
		"jobs_count":       len(list),
		"publishers_count": r.fanout.Size(),
		"run_interval":     r.runInterval.String(),
	})

	if r.runInterval <= 0 {
		return r.runOnce(ctx, list)
	}

	if err := r.runOnce(ctx, list); err != nil {
		r.log.ErrorObj("initial pass failed", "error", err.Error())
	}

	ticker := time.NewTicker(r.runInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.InfoObj("batch runner exiting", "reason", ctx.Err().Error())
			return nil
		case <-ticker.C:
			if err := r.runOnce(ctx, list); err != nil {
				r.log.ErrorObj("scheduled pass failed", "error", err.Error())
			}
		}
	}
}

// runOnce performs a single pass over all jobs.
func (r *Runner) runOnce(ctx context.Context, list []jobs.Job) error {
	start := time.Now()
	r.log.InfoObj("batch pass started", "pass_meta", map[string]any{
		"jobs_count": len(list),
		"started_at": start.UTC(),
	})
	if err := r.service.Run(ctx, list); err != nil {
		return err
	}
	r.log.InfoObj("batch pass completed", "pass_meta", map[string]any{
		"jobs_count": len(list),
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

// close releases the store and any publishers holding connections.
func (r *Runner) close() {
	if r == nil {
		return
	}
	var errs []error
	if r.store != nil {
		errs = append(errs, r.store.Close())
	}
	errs = append(errs, r.fanout.Close())
	if err := errors.Join(errs...); err != nil {
		r.log.ErrorObj("runner shutdown failed", "error", err.Error())
	}
}

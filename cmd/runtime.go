package cmd

import (
	"context"
	"fmt"
	"time"

	"ledger-reconciler/core/config"
	"ledger-reconciler/core/database"
	"ledger-reconciler/core/docstore"
	"ledger-reconciler/core/docstore/memstore"
	"ledger-reconciler/core/journal"
	"ledger-reconciler/core/logger"
	"ledger-reconciler/core/metrics"
	"ledger-reconciler/core/reconcile"
	"ledger-reconciler/core/schema"
	"ledger-reconciler/core/storage"
	"ledger-reconciler/feature/reports"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// runtime holds the collaborators shared by the commands.
type runtime struct {
	cfg      *config.Config
	log      *zap.Logger
	store    docstore.Gateway
	registry *schema.Registry
	journal  *journal.Journal
	archive  *reports.Archive
	metrics  metrics.Recorder
	promReg  *prometheus.Registry
	closers  []func()
}

type bootOptions struct {
	// memory swaps MongoDB for the in-process store and skips the journal and archive.
	memory bool
	// archive requires the rejection archive to be configured.
	archive bool
}

func (o bootOptions) useJournal(cfg *config.Config) bool {
	return cfg.Journal.Enabled && !o.memory
}

func (o bootOptions) useArchive(cfg *config.Config) bool {
	return cfg.Archive.Enabled && !o.memory
}

// bootstrap loads the configuration and connects every enabled collaborator.
// Optional collaborators that fail to connect are disabled with a warning.
func bootstrap(ctx context.Context, opts bootOptions) (*runtime, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	zap.ReplaceGlobals(logg)

	rt := &runtime{cfg: cfg, log: logg, promReg: prometheus.NewRegistry()}
	rt.closers = append(rt.closers, func() { _ = logg.Sync() })

	rt.registry, err = reports.NewRegistry()
	if err != nil {
		rt.Close()
		return nil, err
	}

	if opts.memory {
		rt.store = memstore.New()
		logg.Info("Using in-memory store")
	} else {
		mongo, err := docstore.NewMongo(ctx, cfg.Mongo)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.store = mongo
		rt.closers = append(rt.closers, func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mongo.Disconnect(dctx)
		})
		logg.Info("Connected to document store", zap.String("database", cfg.Mongo.Database))
	}

	rt.metrics = metrics.New(cfg.Metrics, rt.promReg)

	if opts.useJournal(cfg) {
		db, err := database.Connect(cfg.Journal)
		if err != nil {
			logg.Warn("Journal database connection failed, journaling disabled", zap.Error(err))
		} else {
			j := journal.New(db)
			if err := j.Migrate(); err != nil {
				logg.Warn("Journal migration failed, journaling disabled", zap.Error(err))
			} else {
				rt.journal = j
				logg.Info("Delivery journal enabled", zap.String("driver", cfg.Journal.Driver))
			}
		}
	}

	if opts.useArchive(cfg) {
		client, err := storage.NewClient(cfg.Archive)
		if err == nil {
			archive := reports.NewArchive(client, cfg.Archive.Bucket, cfg.Archive.Prefix)
			if err = archive.Ensure(ctx); err == nil {
				rt.archive = archive
				logg.Info("Rejection archive enabled", zap.String("bucket", cfg.Archive.Bucket))
			}
		}
		if err != nil {
			if opts.archive {
				rt.Close()
				return nil, fmt.Errorf("archive unavailable: %w", err)
			}
			logg.Warn("Rejection archive unavailable, archiving disabled", zap.Error(err))
		}
	}
	if opts.archive && rt.archive == nil {
		rt.Close()
		return nil, fmt.Errorf("archive is not enabled (set ARCHIVE_ENABLED=true)")
	}

	return rt, nil
}

// service builds the delivery service for the configured queues.
func (rt *runtime) service() (*reports.Service, error) {
	router, err := reconcile.NewRouter(reports.NewReconciler(rt.store, rt.registry).Table(), rt.cfg.Queue.Names...)
	if err != nil {
		return nil, err
	}

	opts := []reports.Option{reports.WithMetrics(rt.metrics)}
	if rt.journal != nil {
		opts = append(opts, reports.WithJournal(rt.journal))
	}
	if rt.archive != nil {
		opts = append(opts, reports.WithArchive(rt.archive))
	}
	return reports.NewService(router, rt.log, opts...), nil
}

// Close releases the collaborators in reverse order.
func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
}

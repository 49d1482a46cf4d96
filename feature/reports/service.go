package reports

import (
	"context"
	"time"

	"ledger-reconciler/core/journal"
	"ledger-reconciler/core/metrics"
	"ledger-reconciler/core/reconcile"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Delivery is one message taken off a report queue.
type Delivery struct {
	// ID identifies the delivery. One is generated when empty.
	ID         string
	Queue      string
	Message    reconcile.Payload
	ReceivedAt time.Time
}

// Receipt describes what happened to a delivery.
type Receipt struct {
	ID        string            `json:"id"`
	Queue     string            `json:"queue"`
	Outcome   reconcile.Outcome `json:"outcome"`
	Archived  string            `json:"archived,omitempty"`
	Duplicate bool              `json:"duplicate,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// Journal is the audit trail the service writes to.
type Journal interface {
	Record(ctx context.Context, e *journal.Entry) error
	Seen(ctx context.Context, queue, digest string) (bool, error)
	Recent(ctx context.Context, queue string, limit int) ([]journal.Entry, error)
	Summary(ctx context.Context) ([]journal.Count, error)
}

// Service runs deliveries through the router and records their outcome.
type Service struct {
	router  *reconcile.Router
	logger  *zap.Logger
	metrics metrics.Recorder
	journal Journal
	archive *Archive
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records delivery counts and latencies.
func WithMetrics(m metrics.Recorder) Option {
	return func(s *Service) { s.metrics = m }
}

// WithJournal writes an audit row per delivery.
func WithJournal(j Journal) Option {
	return func(s *Service) { s.journal = j }
}

// WithArchive keeps rejected deliveries for replay.
func WithArchive(a *Archive) Option {
	return func(s *Service) { s.archive = a }
}

// WithClock replaces the clock used for timing and missing receive times.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a delivery service.
func NewService(router *reconcile.Router, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		router:  router,
		logger:  logger,
		metrics: metrics.Noop{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes reports whether queue is consumed by this service.
func (s *Service) Routes(queue string) bool {
	return s.router.Handles(queue)
}

// Queues returns the consumed queues.
func (s *Service) Queues() []string {
	return s.router.Queues()
}

// Journal returns the audit trail, or nil when journaling is off.
func (s *Service) Journal() Journal {
	return s.journal
}

// Handle dispatches d and returns the dispatch error unchanged. Journal and
// archive failures are logged and never replace it.
func (s *Service) Handle(ctx context.Context, d Delivery) (Receipt, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.ReceivedAt.IsZero() {
		d.ReceivedAt = s.now()
	}
	if d.Message == nil {
		d.Message = reconcile.Payload{}
	}
	log := s.logger.With(zap.String("delivery_id", d.ID), zap.String("queue", d.Queue))
	receipt := Receipt{ID: d.ID, Queue: d.Queue}

	digest := s.digest(log, d)
	if d.Queue == VotingReport && digest != "" && s.journal != nil {
		if seen, err := s.journal.Seen(ctx, d.Queue, digest); err != nil {
			log.Warn("Duplicate check failed", zap.Error(err))
		} else if seen {
			receipt.Duplicate = true
			s.metrics.IncDuplicate(d.Queue)
			log.Warn("Voting report already applied, counting again", zap.String("digest", digest))
		}
	}

	start := s.now()
	err := s.router.Dispatch(ctx, d.Queue, d.Message)
	elapsed := s.now().Sub(start)

	receipt.Outcome = reconcile.Classify(err)
	s.metrics.ObserveDelivery(d.Queue, string(receipt.Outcome), elapsed)

	switch {
	case err == nil:
		log.Debug("Delivery applied", zap.Duration("elapsed", elapsed))
	case reconcile.IsRejection(err):
		receipt.Error = err.Error()
		log.Warn("Delivery rejected", zap.String("outcome", string(receipt.Outcome)), zap.Error(err))
		receipt.Archived = s.archiveRejection(ctx, log, d, receipt)
	default:
		receipt.Error = err.Error()
		log.Error("Delivery failed", zap.String("outcome", string(receipt.Outcome)), zap.Error(err))
	}

	if s.journal != nil {
		entry := &journal.Entry{
			DeliveryID: d.ID,
			Queue:      d.Queue,
			Digest:     digest,
			Outcome:    string(receipt.Outcome),
			Error:      receipt.Error,
			ReceivedAt: d.ReceivedAt,
			DurationMs: elapsed.Milliseconds(),
		}
		if jerr := s.journal.Record(ctx, entry); jerr != nil {
			log.Error("Journal write failed", zap.Error(jerr))
		}
	}

	return receipt, err
}

func (s *Service) digest(log *zap.Logger, d Delivery) string {
	if s.journal == nil {
		return ""
	}
	digest, err := journal.Digest(d.Message)
	if err != nil {
		log.Warn("Payload digest failed", zap.Error(err))
		return ""
	}
	return digest
}

func (s *Service) archiveRejection(ctx context.Context, log *zap.Logger, d Delivery, r Receipt) string {
	if s.archive == nil {
		return ""
	}
	key, err := s.archive.Put(ctx, Envelope{
		ID:         d.ID,
		Queue:      d.Queue,
		Message:    d.Message,
		Outcome:    string(r.Outcome),
		Error:      r.Error,
		ReceivedAt: d.ReceivedAt,
	})
	if err != nil {
		log.Error("Archive write failed", zap.Error(err))
		return ""
	}
	s.metrics.IncArchived(d.Queue)
	log.Info("Delivery archived", zap.String("key", key))
	return key
}

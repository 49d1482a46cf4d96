package metrics

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder receives delivery measurements.
type Recorder interface {
	// ObserveDelivery counts one delivery on queue and how long it took.
	ObserveDelivery(queue, outcome string, elapsed time.Duration)
	// IncArchived counts rejected deliveries written to the archive.
	IncArchived(queue string)
	// IncDuplicate counts voting reports whose payload was already applied.
	IncDuplicate(queue string)
}

// Prometheus records into prometheus collectors.
type Prometheus struct {
	deliveries *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	archived   *prometheus.CounterVec
	duplicates *prometheus.CounterVec
	gatherer   prometheus.Gatherer
}

// New returns a Noop recorder when metrics are disabled. Otherwise collectors
// are registered on reg, which is also what Handler serves.
func New(cfg Config, reg *prometheus.Registry) Recorder {
	if !cfg.Enabled {
		return Noop{}
	}

	factory := promauto.With(reg)
	return &Prometheus{
		deliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "deliveries_total",
			Help:      "Deliveries handled, by queue and outcome",
		}, []string{"queue", "outcome"}),

		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "delivery_duration_seconds",
			Help:      "Time spent dispatching a delivery",
			Buckets:   prometheus.DefBuckets,
		}, []string{"queue"}),

		archived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "archived_total",
			Help:      "Rejected deliveries written to the archive",
		}, []string{"queue"}),

		duplicates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "duplicate_votes_total",
			Help:      "Voting reports whose payload had already been applied",
		}, []string{"queue"}),

		gatherer: reg,
	}
}

func (p *Prometheus) ObserveDelivery(queue, outcome string, elapsed time.Duration) {
	p.deliveries.WithLabelValues(queue, outcome).Inc()
	p.duration.WithLabelValues(queue).Observe(elapsed.Seconds())
}

func (p *Prometheus) IncArchived(queue string) {
	p.archived.WithLabelValues(queue).Inc()
}

func (p *Prometheus) IncDuplicate(queue string) {
	p.duplicates.WithLabelValues(queue).Inc()
}

// Handler serves the registry in the prometheus text format.
func (p *Prometheus) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{}))
}

// Noop discards every measurement.
type Noop struct{}

func (Noop) ObserveDelivery(_, _ string, _ time.Duration) {}
func (Noop) IncArchived(_ string)                         {}
func (Noop) IncDuplicate(_ string)                        {}

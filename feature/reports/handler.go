package reports

import (
	"bytes"
	"encoding/json"
	"errors"

	"ledger-reconciler/core/logger"
	"ledger-reconciler/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Request is the body of POST /reports.
type Request struct {
	// ID is an optional producer-assigned delivery id.
	ID      string            `json:"id"`
	Queue   string            `json:"queue"`
	Message reconcile.Payload `json:"message"`
}

// Handler handles HTTP requests for report ingestion.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the report routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/reports")
	group.Post("/", h.HandleIngest)
	group.Get("/queues", h.HandleQueues)
	group.Get("/deliveries", h.HandleDeliveries)
	group.Get("/summary", h.HandleSummary)
}

// HandleIngest applies one report.
// @Summary Ingest Report
// @Description Dispatch one report to the handler of its queue.
// @Tags reports
// @Accept json
// @Produce json
// @Param request body Request true "Queue and message"
// @Success 200 {object} Receipt "Applied"
// @Failure 400 {object} map[string]string "Malformed body"
// @Failure 404 {object} map[string]string "Queue not consumed"
// @Failure 422 {object} Receipt "Report rejected"
// @Failure 503 {object} Receipt "Store unavailable"
// @Router /reports [post]
func (h *Handler) HandleIngest(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req Request
	dec := json.NewDecoder(bytes.NewReader(c.Body()))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "body must be a JSON object with queue and message: " + err.Error(),
		})
	}
	if req.Queue == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "queue is required",
		})
	}
	if !h.service.Routes(req.Queue) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "queue " + req.Queue + " is not consumed",
		})
	}

	receipt, err := h.service.Handle(c.UserContext(), Delivery{
		ID:      req.ID,
		Queue:   req.Queue,
		Message: req.Message,
	})
	if err != nil {
		status := StatusFor(err)
		if status >= fiber.StatusInternalServerError {
			l.Error("Report not applied", zap.String("queue", req.Queue), zap.Error(err))
		}
		return c.Status(status).JSON(receipt)
	}

	return c.JSON(receipt)
}

// HandleQueues lists the consumed queues.
// @Summary List Queues
// @Tags reports
// @Produce json
// @Success 200 {array} string "Queue names"
// @Router /reports/queues [get]
func (h *Handler) HandleQueues(c *fiber.Ctx) error {
	return c.JSON(h.service.Queues())
}

// HandleDeliveries lists the most recent journaled deliveries.
// @Summary Recent Deliveries
// @Tags reports
// @Produce json
// @Param queue query string false "Queue filter"
// @Param limit query int false "Maximum rows (default 50)"
// @Success 200 {array} journal.Entry "Deliveries"
// @Failure 503 {object} map[string]string "Journal disabled"
// @Router /reports/deliveries [get]
func (h *Handler) HandleDeliveries(c *fiber.Ctx) error {
	j := h.service.Journal()
	if j == nil {
		return journalDisabled(c)
	}

	entries, err := j.Recent(c.UserContext(), c.Query("queue"), c.QueryInt("limit", 50))
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Journal read failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(entries)
}

// HandleSummary counts journaled deliveries per queue and outcome.
// @Summary Delivery Summary
// @Tags reports
// @Produce json
// @Success 200 {array} journal.Count "Counts"
// @Failure 503 {object} map[string]string "Journal disabled"
// @Router /reports/summary [get]
func (h *Handler) HandleSummary(c *fiber.Ctx) error {
	j := h.service.Journal()
	if j == nil {
		return journalDisabled(c)
	}

	counts, err := j.Summary(c.UserContext())
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Journal read failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(counts)
}

// StatusFor maps a dispatch error onto an HTTP status.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return fiber.StatusOK
	case reconcile.IsRejection(err):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, reconcile.ErrUnregisteredQueue):
		return fiber.StatusNotFound
	}

	switch reconcile.Classify(err) {
	case reconcile.OutcomeStoreUnavailable, reconcile.OutcomeStoreWriteFailed:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func journalDisabled(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": "journal is disabled",
	})
}

package records

import (
	"errors"

	"ledger-reconciler/core/docstore"
	"ledger-reconciler/core/logger"
	"ledger-reconciler/core/schema"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for record lookups.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the record routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/records")
	group.Get("/", h.HandleEntities)
	group.Get("/:entity", h.HandleLookup)
}

// HandleEntities lists the registered entities.
// @Summary List Entities
// @Tags records
// @Produce json
// @Success 200 {array} Description "Entities"
// @Router /records [get]
func (h *Handler) HandleEntities(c *fiber.Ctx) error {
	return c.JSON(h.service.Entities())
}

// HandleLookup returns one record by its natural key.
// @Summary Get Record
// @Description Find a record by every field of its natural key, passed as query parameters.
// @Tags records
// @Produce json
// @Param entity path string true "Entity (wallets, surveyors, contributions, voting, grants)"
// @Success 200 {object} Record "Record"
// @Failure 400 {object} map[string]string "Incomplete key"
// @Failure 404 {object} map[string]string "Unknown entity or record"
// @Failure 503 {object} map[string]string "Store unavailable"
// @Router /records/{entity} [get]
func (h *Handler) HandleLookup(c *fiber.Ctx) error {
	entity := c.Params("entity")
	l := logger.WithRayID(h.service.logger, c)

	rec, err := h.service.Lookup(c.UserContext(), entity, c.Queries())
	if err != nil {
		status := statusFor(err)
		if status >= fiber.StatusInternalServerError {
			l.Error("Record lookup failed", zap.String("entity", entity), zap.Error(err))
		}
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(rec)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, schema.ErrUnknownEntity), errors.Is(err, docstore.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, schema.ErrInvalidEntity):
		return fiber.StatusBadRequest
	case errors.Is(err, docstore.ErrUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

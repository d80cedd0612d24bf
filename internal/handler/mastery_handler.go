package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/quranakh/quranakh-api/internal/dto"
	"github.com/quranakh/quranakh-api/internal/middleware"
	"github.com/quranakh/quranakh-api/internal/service"
	"github.com/quranakh/quranakh-api/internal/utils"
)

// MasteryHandler wires memorisation progress HTTP routes.
type MasteryHandler struct {
	mastery   service.MasteryService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewMasteryHandler constructs the handler.
func NewMasteryHandler(mastery service.MasteryService, validator *validator.Validate, logger zerolog.Logger) *MasteryHandler {
	return &MasteryHandler{
		mastery:   mastery,
		validator: validator,
		logger:    logger.With().Str("component", "mastery_handler").Logger(),
	}
}

// RegisterStudentRoutes attaches mastery endpoints to the students group.
func (h *MasteryHandler) RegisterStudentRoutes(router fiber.Router) {
	router.Put("/:id/mastery", middleware.RequireStaff(), h.update)
	router.Get("/:id/heatmap", h.heatmap)
}

func (h *MasteryHandler) update(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.MasteryUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	record, err := h.mastery.Update(c.Context(), schoolIDFromContext(c), studentID, actorFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "mastery updated", record)
}

func (h *MasteryHandler) heatmap(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	heatmap, err := h.mastery.Heatmap(c.Context(), schoolIDFromContext(c), studentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "heatmap retrieved", heatmap)
}

func (h *MasteryHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrUnknownMasteryLevel):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrInvalidAyahRange):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "not authorised for this action")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, utils.ValidationMessage(err))
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

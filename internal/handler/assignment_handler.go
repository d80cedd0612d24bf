package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/quranakh/quranakh-api/internal/dto"
	"github.com/quranakh/quranakh-api/internal/middleware"
	"github.com/quranakh/quranakh-api/internal/models"
	"github.com/quranakh/quranakh-api/internal/service"
	"github.com/quranakh/quranakh-api/internal/utils"
)

// AssignmentHandler wires assignment lifecycle HTTP routes.
type AssignmentHandler struct {
	lifecycle service.LifecycleService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAssignmentHandler constructs the handler.
func NewAssignmentHandler(lifecycle service.LifecycleService, validator *validator.Validate, logger zerolog.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		lifecycle: lifecycle,
		validator: validator,
		logger:    logger.With().Str("component", "assignment_handler").Logger(),
	}
}

// Register attaches assignment endpoints to the router group.
func (h *AssignmentHandler) Register(router fiber.Router) {
	router.Post("", middleware.RequireStaff(), h.create)
	router.Get("/:id", h.get)
	router.Post("/:id/transitions", middleware.RequireRole(models.RoleOwner, models.RoleAdmin, models.RoleTeacher, models.RoleStudent), h.transition)
}

func (h *AssignmentHandler) create(c *fiber.Ctx) error {
	var payload dto.AssignmentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	assignment, err := h.lifecycle.Create(c.Context(), schoolIDFromContext(c), actorFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "assignment created", assignment)
}

func (h *AssignmentHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	aggregate, err := h.lifecycle.GetAggregate(c.Context(), schoolIDFromContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignment retrieved", aggregate)
}

func (h *AssignmentHandler) transition(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.TransitionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	assignment, err := h.lifecycle.Transition(c.Context(), schoolIDFromContext(c), id, actorFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignment transitioned", assignment)
}

func (h *AssignmentHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	case errors.Is(err, service.ErrIllegalTransition), errors.Is(err, service.ErrSubmissionRequired):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "not authorised for this action")
	case errors.Is(err, service.ErrConcurrencyConflict):
		return utils.SendError(c, fiber.StatusConflict, "assignment was modified concurrently, retry")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, utils.ValidationMessage(err))
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

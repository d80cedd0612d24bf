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

// RubricHandler wires rubric HTTP routes.
type RubricHandler struct {
	rubrics   service.RubricService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewRubricHandler constructs the handler.
func NewRubricHandler(rubrics service.RubricService, validator *validator.Validate, logger zerolog.Logger) *RubricHandler {
	return &RubricHandler{
		rubrics:   rubrics,
		validator: validator,
		logger:    logger.With().Str("component", "rubric_handler").Logger(),
	}
}

// Register attaches rubric endpoints to the rubrics router group.
func (h *RubricHandler) Register(router fiber.Router) {
	router.Post("", middleware.RequireStaff(), h.create)
	router.Get("/:id", h.get)
}

// RegisterAssignmentRoutes attaches the rubric attach endpoint to the
// assignments group.
func (h *RubricHandler) RegisterAssignmentRoutes(router fiber.Router) {
	router.Post("/:id/rubric", middleware.RequireStaff(), h.attach)
}

func (h *RubricHandler) create(c *fiber.Ctx) error {
	var payload dto.RubricCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	rubric, err := h.rubrics.CreateRubric(c.Context(), schoolIDFromContext(c), actorFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "rubric created", rubric)
}

func (h *RubricHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	rubric, err := h.rubrics.GetRubric(c.Context(), schoolIDFromContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "rubric retrieved", rubric)
}

func (h *RubricHandler) attach(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.RubricAttachRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.rubrics.AttachRubric(c.Context(), schoolIDFromContext(c), id, actorFromContext(c), payload); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "rubric attached", nil)
}

func (h *RubricHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	case errors.Is(err, service.ErrRubricNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "rubric not found")
	case errors.Is(err, service.ErrInvalidRubric):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrRubricConflict):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "not authorised for this action")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, utils.ValidationMessage(err))
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

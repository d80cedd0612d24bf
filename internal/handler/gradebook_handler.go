package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/quranakh/quranakh-api/internal/middleware"
	"github.com/quranakh/quranakh-api/internal/models"
	"github.com/quranakh/quranakh-api/internal/service"
	"github.com/quranakh/quranakh-api/internal/utils"
)

// GradebookHandler wires gradebook HTTP routes for students and parents.
type GradebookHandler struct {
	gradebook service.GradebookService
	logger    zerolog.Logger
}

// NewGradebookHandler constructs the handler.
func NewGradebookHandler(gradebook service.GradebookService, logger zerolog.Logger) *GradebookHandler {
	return &GradebookHandler{
		gradebook: gradebook,
		logger:    logger.With().Str("component", "gradebook_handler").Logger(),
	}
}

// RegisterStudentRoutes attaches the student gradebook endpoint.
func (h *GradebookHandler) RegisterStudentRoutes(router fiber.Router) {
	router.Get("/:id/gradebook", h.studentGradebook)
}

// RegisterParentRoutes attaches the parent gradebook endpoint.
func (h *GradebookHandler) RegisterParentRoutes(router fiber.Router) {
	router.Get("/gradebook", middleware.RequireRole(models.RoleParent), h.parentGradebook)
}

func (h *GradebookHandler) studentGradebook(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	actor := actorFromContext(c)
	if actor.Role == models.RoleStudent && actor.ID != studentID {
		return utils.SendError(c, fiber.StatusForbidden, "students may only view their own gradebook")
	}
	if actor.Role == models.RoleParent {
		return utils.SendError(c, fiber.StatusForbidden, "parents must use the parent gradebook endpoint")
	}

	gradebook, err := h.gradebook.StudentGradebook(c.Context(), schoolIDFromContext(c), studentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "gradebook retrieved", gradebook)
}

func (h *GradebookHandler) parentGradebook(c *fiber.Ctx) error {
	var childID *uint
	if raw := c.QueryInt("child_id", 0); raw > 0 {
		id := uint(raw)
		childID = &id
	}

	actor := actorFromContext(c)
	gradebooks, err := h.gradebook.ParentGradebook(c.Context(), schoolIDFromContext(c), actor.ID, childID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "gradebooks retrieved", gradebooks)
}

func (h *GradebookHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrChildNotLinked):
		return utils.SendError(c, fiber.StatusForbidden, "student is not linked to this guardian")
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

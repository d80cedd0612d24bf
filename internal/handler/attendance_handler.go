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

// AttendanceHandler wires attendance HTTP routes.
type AttendanceHandler struct {
	attendance service.AttendanceService
	validator  *validator.Validate
	logger     zerolog.Logger
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(attendance service.AttendanceService, validator *validator.Validate, logger zerolog.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		attendance: attendance,
		validator:  validator,
		logger:     logger.With().Str("component", "attendance_handler").Logger(),
	}
}

// Register attaches attendance endpoints to the attendance router group.
func (h *AttendanceHandler) Register(router fiber.Router) {
	router.Post("", middleware.RequireStaff(), h.record)
}

// RegisterStudentRoutes attaches the attendance summary endpoint to the
// students group.
func (h *AttendanceHandler) RegisterStudentRoutes(router fiber.Router) {
	router.Get("/:id/attendance/summary", h.summary)
}

func (h *AttendanceHandler) record(c *fiber.Ctx) error {
	var payload dto.AttendanceRecordRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	record, err := h.attendance.Record(c.Context(), schoolIDFromContext(c), actorFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "attendance recorded", record)
}

func (h *AttendanceHandler) summary(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	summary, err := h.attendance.Summary(c.Context(), schoolIDFromContext(c), studentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "attendance summary retrieved", summary)
}

func (h *AttendanceHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrUnknownAttendanceStatus):
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

package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-engine/internal/dto"
	"github.com/noah-isme/timetable-engine/internal/service"
	appErrors "github.com/noah-isme/timetable-engine/pkg/errors"
	"github.com/noah-isme/timetable-engine/pkg/response"
)

type registrationService interface {
	Validate(ctx context.Context, req dto.ValidateScheduleRequest) (*dto.ValidationResult, error)
	Enroll(ctx context.Context, req dto.EnrollRequest) (*dto.EnrollmentResult, error)
}

// RegistrationHandler exposes schedule validation and enrollment.
type RegistrationHandler struct {
	service registrationService
}

// NewRegistrationHandler constructs the handler.
func NewRegistrationHandler(svc *service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{service: svc}
}

// Validate godoc
// @Summary Validate a proposed course selection
// @Description Reports timing overlaps against the student's enrolled courses, full sections and alternative sections.
// @Tags Registration
// @Accept json
// @Produce json
// @Param payload body dto.ValidateScheduleRequest true "Selection"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /registration/validate [post]
func (h *RegistrationHandler) Validate(c *gin.Context) {
	var req dto.ValidateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid validation payload"))
		return
	}
	if err := authorizeStudent(c, req.StudentID); err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.Validate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Enroll godoc
// @Summary Enroll a student into one course section
// @Description Validates the single course against the student's timetable first, then commits while a seat is free.
// @Tags Registration
// @Accept json
// @Produce json
// @Param payload body dto.EnrollRequest true "Enrollment"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /registration/enroll [post]
func (h *RegistrationHandler) Enroll(c *gin.Context) {
	var req dto.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid enrollment payload"))
		return
	}
	if err := authorizeStudent(c, req.StudentID); err != nil {
		response.Error(c, err)
		return
	}

	validation, err := h.service.Validate(c.Request.Context(), dto.ValidateScheduleRequest{
		StudentID: req.StudentID,
		CourseIDs: []string{req.CourseID},
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	if !validation.Valid {
		response.Failure(c, appErrors.Clone(appErrors.ErrValidation, "schedule validation failed"), validation)
		return
	}

	result, err := h.service.Enroll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	switch {
	case result.Success:
		response.Created(c, result)
	case result.Reason == dto.EnrollCourseNotFound:
		response.Failure(c, appErrors.Clone(appErrors.ErrNotFound, result.Message), result)
	default:
		response.Failure(c, appErrors.ErrCourseFull, result)
	}
}

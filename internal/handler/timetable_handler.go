package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-engine/internal/dto"
	"github.com/noah-isme/timetable-engine/internal/service"
	appErrors "github.com/noah-isme/timetable-engine/pkg/errors"
	"github.com/noah-isme/timetable-engine/pkg/export"
	"github.com/noah-isme/timetable-engine/pkg/response"
)

type timetableService interface {
	StudentTimetable(ctx context.Context, studentID string) (dto.WeeklyTimetable, error)
	FacultyTimetable(ctx context.Context, facultyID string) (dto.WeeklyTimetable, error)
	ExportStudentTimetable(ctx context.Context, studentID string, format export.Format) (*service.TimetableExport, error)
}

// TimetableHandler serves weekly timetables.
type TimetableHandler struct {
	service timetableService
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc *service.TimetableService) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

// Student godoc
// @Summary Weekly timetable of a student
// @Tags Timetable
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetable/students/{id} [get]
func (h *TimetableHandler) Student(c *gin.Context) {
	week, err := h.service.StudentTimetable(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, week)
}

// Faculty godoc
// @Summary Weekly timetable of a faculty member
// @Tags Timetable
// @Produce json
// @Param id path string true "Faculty ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetable/faculty/{id} [get]
func (h *TimetableHandler) Faculty(c *gin.Context) {
	week, err := h.service.FacultyTimetable(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, week)
}

// ExportStudent godoc
// @Summary Download a student's weekly timetable
// @Tags Timetable
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Student ID"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /timetable/students/{id}/export [get]
func (h *TimetableHandler) ExportStudent(c *gin.Context) {
	var query dto.TimetableExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export format"))
		return
	}
	file, err := h.service.ExportStudentTimetable(c.Request.Context(), c.Param("id"), export.Format(query.Format))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

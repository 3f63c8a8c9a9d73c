package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-engine/internal/dto"
	"github.com/noah-isme/timetable-engine/internal/models"
	"github.com/noah-isme/timetable-engine/internal/service"
	appErrors "github.com/noah-isme/timetable-engine/pkg/errors"
	"github.com/noah-isme/timetable-engine/pkg/response"
)

type disruptionService interface {
	ComputeCandidates(ctx context.Context, query dto.CandidateQuery) ([]dto.RankedCandidate, error)
	RecordDisruption(ctx context.Context, req dto.RecordDisruptionRequest) (*dto.RecordDisruptionResponse, error)
	ApplyReassignment(ctx context.Context, req dto.ApproveReassignmentRequest) (*dto.ReassignmentResult, error)
	GetDisruption(ctx context.Context, id string) (*models.DisruptionDetail, error)
	ListDisruptions(ctx context.Context, courseID string, query dto.DisruptionListQuery) ([]models.Disruption, error)
}

// OptimizerHandler exposes faculty disruption recovery.
type OptimizerHandler struct {
	service disruptionService
}

// NewOptimizerHandler constructs the handler.
func NewOptimizerHandler(svc *service.DisruptionService) *OptimizerHandler {
	return &OptimizerHandler{service: svc}
}

// Candidates godoc
// @Summary Rank replacement faculty for a course
// @Tags Optimizer
// @Accept json
// @Produce json
// @Param payload body dto.CandidateQuery true "Course and unavailable faculty"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /optimizer/candidates [post]
func (h *OptimizerHandler) Candidates(c *gin.Context) {
	var query dto.CandidateQuery
	if err := c.ShouldBindJSON(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid candidate query"))
		return
	}
	candidates, err := h.service.ComputeCandidates(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, candidates, map[string]interface{}{"total": len(candidates)})
}

// Reassign godoc
// @Summary Report a faculty disruption and rank replacements
// @Description Records a pending disruption together with an audit of the top ranked candidates.
// @Tags Optimizer
// @Accept json
// @Produce json
// @Param payload body dto.RecordDisruptionRequest true "Disruption"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /optimizer/reassign [post]
func (h *OptimizerHandler) Reassign(c *gin.Context) {
	var req dto.RecordDisruptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid disruption payload"))
		return
	}
	result, err := h.service.RecordDisruption(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Approve godoc
// @Summary Approve a faculty reassignment
// @Description Moves the course to the new faculty member and resolves its pending disruptions. Missing course or faculty yield success=false.
// @Tags Optimizer
// @Accept json
// @Produce json
// @Param payload body dto.ApproveReassignmentRequest true "Reassignment"
// @Success 200 {object} response.Envelope
// @Router /optimizer/approve [post]
func (h *OptimizerHandler) Approve(c *gin.Context) {
	var req dto.ApproveReassignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reassignment payload"))
		return
	}
	if strings.TrimSpace(req.ApprovedBy) == "" {
		if claims := claimsFromContext(c); claims != nil {
			req.ApprovedBy = claims.UserID
		}
	}
	result, err := h.service.ApplyReassignment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// GetDisruption godoc
// @Summary Get a disruption with its candidate audit
// @Tags Optimizer
// @Produce json
// @Param id path string true "Disruption ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /disruptions/{id} [get]
func (h *OptimizerHandler) GetDisruption(c *gin.Context) {
	detail, err := h.service.GetDisruption(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail)
}

// ListCourseDisruptions godoc
// @Summary List disruptions of a course
// @Tags Optimizer
// @Produce json
// @Param id path string true "Course ID"
// @Param status query string false "pending or resolved"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/disruptions [get]
func (h *OptimizerHandler) ListCourseDisruptions(c *gin.Context) {
	var query dto.DisruptionListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid disruption filter"))
		return
	}
	disruptions, err := h.service.ListDisruptions(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, disruptions, map[string]interface{}{"total": len(disruptions)})
}

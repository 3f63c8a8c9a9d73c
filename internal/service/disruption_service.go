package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-engine/internal/dto"
	"github.com/noah-isme/timetable-engine/internal/models"
	appErrors "github.com/noah-isme/timetable-engine/pkg/errors"
	"github.com/noah-isme/timetable-engine/pkg/middleware/requestid"
)

const (
	defaultAuditLimit  = 10
	DefaultWorkloadCap = 3

	unspecifiedReason = "unspecified"
	systemApprover    = "system"
)

type disruptionCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Course, error)
	UpdateFaculty(ctx context.Context, exec sqlx.ExtContext, update models.CourseFacultyUpdate) error
}

type facultyRepository interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Faculty, error)
	ListWithWorkload(ctx context.Context, exec sqlx.ExtContext) ([]models.FacultyWorkload, error)
}

type disruptionRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, disruption *models.Disruption) error
	FindByID(ctx context.Context, id string) (*models.Disruption, error)
	List(ctx context.Context, filter models.DisruptionFilter) ([]models.Disruption, error)
	LockPendingByCourse(ctx context.Context, exec sqlx.ExtContext, courseID string) ([]models.Disruption, error)
	Resolve(ctx context.Context, exec sqlx.ExtContext, id, resolvedBy string, resolvedAt time.Time) error
}

type candidateAuditRepository interface {
	InsertBatch(ctx context.Context, exec sqlx.ExtContext, audits []models.CandidateAudit) error
	ListByDisruption(ctx context.Context, disruptionID string) ([]models.CandidateAudit, error)
	MarkApproved(ctx context.Context, exec sqlx.ExtContext, disruptionID, facultyID string) (int64, error)
}

type reassignmentInvalidator interface {
	InvalidateFaculty(ctx context.Context, facultyID string)
	InvalidateAllStudents(ctx context.Context)
}

// DisruptionConfig tunes candidate ranking and auditing.
type DisruptionConfig struct {
	AuditLimit         int
	DefaultWorkloadCap int
}

// DisruptionService reports faculty disruptions, ranks replacements and applies approved reassignments.
type DisruptionService struct {
	courses     disruptionCourseRepository
	faculty     facultyRepository
	disruptions disruptionRepository
	audits      candidateAuditRepository
	tx          txProvider
	timetables  reassignmentInvalidator
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         DisruptionConfig
	now         func() time.Time
}

// NewDisruptionService constructs the service.
func NewDisruptionService(
	courses disruptionCourseRepository,
	faculty facultyRepository,
	disruptions disruptionRepository,
	audits candidateAuditRepository,
	tx txProvider,
	timetables reassignmentInvalidator,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg DisruptionConfig,
) *DisruptionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.AuditLimit <= 0 {
		cfg.AuditLimit = defaultAuditLimit
	}
	if cfg.DefaultWorkloadCap <= 0 {
		cfg.DefaultWorkloadCap = DefaultWorkloadCap
	}
	return &DisruptionService{
		courses:     courses,
		faculty:     faculty,
		disruptions: disruptions,
		audits:      audits,
		tx:          tx,
		timetables:  timetables,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ComputeCandidates ranks every eligible replacement for a course without writing anything.
func (s *DisruptionService) ComputeCandidates(ctx context.Context, query dto.CandidateQuery) ([]dto.RankedCandidate, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid candidate query")
	}
	course, err := s.courses.FindByID(ctx, query.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return s.rankCandidates(ctx, nil, course, query.UnavailableFacultyID)
}

// RecordDisruption stores a pending disruption together with the audit of its top candidates.
func (s *DisruptionService) RecordDisruption(ctx context.Context, req dto.RecordDisruptionRequest) (resp *dto.RecordDisruptionResponse, err error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid disruption payload")
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	course, err := s.courses.LockByID(ctx, tx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = appErrors.Clone(appErrors.ErrNotFound, "course not found")
			return nil, err
		}
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
		return nil, err
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = unspecifiedReason
	}
	disruption := &models.Disruption{
		CourseID:           course.ID,
		FacultyUnavailable: req.UnavailableFacultyID,
		Reason:             reason,
		CreatedAt:          s.now(),
	}
	if err = s.disruptions.Create(ctx, tx, disruption); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record disruption")
		return nil, err
	}

	candidates, err := s.rankCandidates(ctx, tx, course, req.UnavailableFacultyID)
	if err != nil {
		return nil, err
	}

	limit := s.cfg.AuditLimit
	if limit > len(candidates) {
		limit = len(candidates)
	}
	audits := make([]models.CandidateAudit, limit)
	for i := 0; i < limit; i++ {
		audits[i] = models.CandidateAudit{
			DisruptionID:       disruption.ID,
			CandidateFacultyID: candidates[i].FacultyID,
			Position:           i + 1,
			Score:              candidates[i].Score,
			Rank:               candidates[i].Rank,
			CreatedAt:          disruption.CreatedAt,
		}
	}
	if err = s.audits.InsertBatch(ctx, tx, audits); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store candidate audit")
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit disruption")
		return nil, err
	}

	scores := make([]int, len(candidates))
	for i, c := range candidates {
		scores[i] = c.Score
	}
	s.metrics.RecordDisruption(scores)
	s.logger.Info("disruption recorded",
		zap.String("disruption_id", disruption.ID),
		zap.String("course_id", course.ID),
		zap.String("faculty_unavailable", req.UnavailableFacultyID),
		zap.Int("candidates", len(candidates)),
		zap.Int("audited", limit),
		zap.String("request_id", requestid.FromContext(ctx)),
	)
	return &dto.RecordDisruptionResponse{
		DisruptionID:   disruption.ID,
		SolutionsCount: len(candidates),
		Candidates:     candidates,
	}, nil
}

// ApplyReassignment moves a course to a new faculty member and resolves the affected
// disruptions. Missing course, faculty or disruption yield an unsuccessful result with no
// state change.
func (s *DisruptionService) ApplyReassignment(ctx context.Context, req dto.ApproveReassignmentRequest) (result *dto.ReassignmentResult, err error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reassignment payload")
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	approver := strings.TrimSpace(req.ApprovedBy)
	if approver == "" {
		approver = systemApprover
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil || result == nil || !result.Success {
			_ = tx.Rollback()
		}
	}()

	failure := func(outcome, message string) *dto.ReassignmentResult {
		s.metrics.RecordReassignment(outcome)
		return &dto.ReassignmentResult{
			CourseID:            req.CourseID,
			NewFacultyID:        req.NewFacultyID,
			ResolvedDisruptions: []string{},
			Message:             message,
		}
	}

	course, err := s.courses.LockByID(ctx, tx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return failure("course_not_found", "course not found"), nil
		}
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
		return nil, err
	}

	if _, err = s.faculty.FindByID(ctx, tx, req.NewFacultyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return failure("faculty_not_found", "faculty not found"), nil
		}
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty")
		return nil, err
	}

	pending, err := s.disruptions.LockPendingByCourse(ctx, tx, course.ID)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pending disruptions")
		return nil, err
	}
	if req.DisruptionID != "" {
		var target []models.Disruption
		for _, d := range pending {
			if d.ID == req.DisruptionID {
				target = append(target, d)
			}
		}
		if len(target) == 0 {
			return failure("disruption_not_pending", "disruption not pending for course"), nil
		}
		pending = target
	}

	if err = s.courses.UpdateFaculty(ctx, tx, models.CourseFacultyUpdate{CourseID: course.ID, FacultyID: req.NewFacultyID}); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reassign course")
		return nil, err
	}

	resolvedAt := s.now()
	resolved := make([]string, 0, len(pending))
	for _, d := range pending {
		if err = s.disruptions.Resolve(ctx, tx, d.ID, approver, resolvedAt); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve disruption")
			return nil, err
		}
		if _, err = s.audits.MarkApproved(ctx, tx, d.ID, req.NewFacultyID); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve candidate audit")
			return nil, err
		}
		resolved = append(resolved, d.ID)
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit reassignment")
		return nil, err
	}

	if s.timetables != nil {
		if course.FacultyID != "" {
			s.timetables.InvalidateFaculty(ctx, course.FacultyID)
		}
		s.timetables.InvalidateFaculty(ctx, req.NewFacultyID)
		s.timetables.InvalidateAllStudents(ctx)
	}
	s.metrics.RecordReassignment("applied")
	s.logger.Info("reassignment applied",
		zap.String("course_id", course.ID),
		zap.String("old_faculty_id", course.FacultyID),
		zap.String("new_faculty_id", req.NewFacultyID),
		zap.String("approved_by", approver),
		zap.Strings("resolved_disruptions", resolved),
		zap.String("request_id", requestid.FromContext(ctx)),
	)
	return &dto.ReassignmentResult{
		Success:             true,
		CourseID:            course.ID,
		OldFacultyID:        course.FacultyID,
		NewFacultyID:        req.NewFacultyID,
		ResolvedDisruptions: resolved,
		Message:             "reassignment applied",
	}, nil
}

// GetDisruption returns a disruption with its audited candidates.
func (s *DisruptionService) GetDisruption(ctx context.Context, id string) (*models.DisruptionDetail, error) {
	disruption, err := s.disruptions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "disruption not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load disruption")
	}
	audits, err := s.audits.ListByDisruption(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load candidate audit")
	}
	if audits == nil {
		audits = []models.CandidateAudit{}
	}
	return &models.DisruptionDetail{Disruption: *disruption, Candidates: audits}, nil
}

// ListDisruptions returns the disruptions of a course, optionally filtered by status.
func (s *DisruptionService) ListDisruptions(ctx context.Context, courseID string, query dto.DisruptionListQuery) ([]models.Disruption, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid disruption filter")
	}
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	disruptions, err := s.disruptions.List(ctx, models.DisruptionFilter{CourseID: courseID, Status: models.DisruptionStatus(query.Status)})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list disruptions")
	}
	if disruptions == nil {
		disruptions = []models.Disruption{}
	}
	return disruptions, nil
}

// rankCandidates scores the eligible faculty pool for a course, best first. Ties keep
// the repository order.
func (s *DisruptionService) rankCandidates(ctx context.Context, exec sqlx.ExtContext, course *models.Course, unavailableFacultyID string) ([]dto.RankedCandidate, error) {
	pool, err := s.faculty.ListWithWorkload(ctx, exec)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty pool")
	}

	ranked := make([]dto.RankedCandidate, 0, len(pool))
	for _, candidate := range pool {
		if candidate.ID == unavailableFacultyID || candidate.ID == course.FacultyID {
			continue
		}
		if candidate.WorkloadCap <= 0 {
			candidate.WorkloadCap = s.cfg.DefaultWorkloadCap
		}
		score := ScoreCandidate(candidate, course.Name)
		rank := RankForScore(score)
		if !candidate.Available {
			rank = models.RankCompromise
		}
		ranked = append(ranked, dto.RankedCandidate{
			FacultyID:       candidate.ID,
			Name:            candidate.Name,
			Score:           score,
			Rank:            rank,
			CurrentWorkload: candidate.CurrentWorkload,
			WorkloadCap:     candidate.WorkloadCap,
			Available:       candidate.Available,
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked, nil
}

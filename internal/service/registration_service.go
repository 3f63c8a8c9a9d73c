package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-engine/internal/dto"
	"github.com/noah-isme/timetable-engine/internal/models"
	"github.com/noah-isme/timetable-engine/pkg/database"
	appErrors "github.com/noah-isme/timetable-engine/pkg/errors"
	"github.com/noah-isme/timetable-engine/pkg/middleware/requestid"
)

type registrationCourseRepository interface {
	ListSeatsByIDs(ctx context.Context, ids []string) ([]models.CourseSeats, error)
	ListSiblings(ctx context.Context, code, excludeID string) ([]models.CourseSeats, error)
	ListEnrolledByStudent(ctx context.Context, studentID string) ([]models.Course, error)
	LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Course, error)
}

type timeSlotReader interface {
	ListByIDs(ctx context.Context, ids []string) ([]models.TimeSlot, error)
}

type enrollmentWriter interface {
	CreateIfSeatAvailable(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment, maxSeats int) (bool, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// timetableInvalidator drops cached timetables after writes. Failures are logged by the implementation.
type timetableInvalidator interface {
	InvalidateStudent(ctx context.Context, studentID string)
	InvalidateFaculty(ctx context.Context, facultyID string)
}

// RegistrationService validates course selections and commits enrollments.
type RegistrationService struct {
	courses     registrationCourseRepository
	slots       timeSlotReader
	enrollments enrollmentWriter
	tx          txProvider
	timetables  timetableInvalidator
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewRegistrationService constructs the service.
func NewRegistrationService(
	courses registrationCourseRepository,
	slots timeSlotReader,
	enrollments enrollmentWriter,
	tx txProvider,
	timetables timetableInvalidator,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{
		courses:     courses,
		slots:       slots,
		enrollments: enrollments,
		tx:          tx,
		timetables:  timetables,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
	}
}

// scheduledCourse is a course with its resolved interval, if any.
type scheduledCourse struct {
	course   models.Course
	interval models.Interval
	resolved bool
}

// Validate checks a student's selection against their enrollments and seat capacity.
// It never writes and returns the same result for the same store contents.
func (s *RegistrationService) Validate(ctx context.Context, req dto.ValidateScheduleRequest) (*dto.ValidationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule validation payload")
	}
	selectedIDs := uniqueStrings(req.CourseIDs)

	selected, err := s.courses.ListSeatsByIDs(ctx, selectedIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load selected courses")
	}
	existing, err := s.courses.ListEnrolledByStudent(ctx, req.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrolled courses")
	}

	byID := make(map[string]models.CourseSeats, len(selected))
	for _, course := range selected {
		byID[course.ID] = course
	}

	result := &dto.ValidationResult{
		Conflicts:     []dto.ScheduleConflict{},
		SeatConflicts: []dto.SeatConflict{},
		Suggestions:   map[string][]string{},
	}
	isSelected := make(map[string]bool, len(selectedIDs))
	orderedSelected := make([]models.CourseSeats, 0, len(selected))
	for _, id := range selectedIDs {
		course, ok := byID[id]
		if !ok {
			result.UnknownCourseIDs = append(result.UnknownCourseIDs, id)
			continue
		}
		isSelected[id] = true
		orderedSelected = append(orderedSelected, course)
	}

	union := make([]models.Course, 0, len(orderedSelected)+len(existing))
	for _, course := range orderedSelected {
		union = append(union, course.Course)
	}
	var existingOnly []models.Course
	for _, course := range existing {
		if isSelected[course.ID] {
			continue
		}
		union = append(union, course)
		existingOnly = append(existingOnly, course)
	}

	scheduled, err := s.resolveSlots(ctx, union)
	if err != nil {
		return nil, err
	}
	existingScheduled := scheduled[len(orderedSelected):]

	for _, sc := range scheduled {
		if !sc.resolved && isSelected[sc.course.ID] {
			s.logger.Warn("selected course has no usable timeslot",
				zap.String("course_id", sc.course.ID),
				zap.String("timeslot_id", sc.course.TimeSlotID),
				zap.String("request_id", requestid.FromContext(ctx)),
			)
			result.Conflicts = append(result.Conflicts, dto.ScheduleConflict{
				Kind:      dto.ConflictUnresolvedTimeslot,
				CourseIDs: []string{sc.course.ID},
			})
		}
	}

	var overlaps [][2]string
	for i := 0; i < len(scheduled); i++ {
		for j := i + 1; j < len(scheduled); j++ {
			a, b := scheduled[i], scheduled[j]
			if !a.resolved || !b.resolved {
				continue
			}
			if !isSelected[a.course.ID] && !isSelected[b.course.ID] {
				continue
			}
			if !a.interval.Overlaps(b.interval) {
				continue
			}
			pair := canonicalPair(a.course.ID, b.course.ID)
			overlaps = append(overlaps, pair)
			result.Conflicts = append(result.Conflicts, dto.ScheduleConflict{
				Kind:      dto.ConflictOverlap,
				CourseIDs: []string{pair[0], pair[1]},
			})
		}
	}

	siblings := newSiblingLookup(s.courses, s.slots)
	for _, course := range orderedSelected {
		if course.HasSpareSeat() {
			continue
		}
		result.SeatConflicts = append(result.SeatConflicts, dto.SeatConflict{
			CourseID: course.ID,
			Enrolled: course.Enrolled,
			MaxSeats: course.MaxSeats,
		})
		alternatives, err := siblings.withSpareSeats(ctx, course.Course)
		if err != nil {
			return nil, err
		}
		for _, alt := range alternatives {
			addSuggestion(result.Suggestions, course.ID, alt.course.ID)
		}
	}

	for _, pair := range overlaps {
		for _, id := range pair {
			if !isSelected[id] {
				continue
			}
			alternatives, err := siblings.withSpareSeats(ctx, byID[id].Course)
			if err != nil {
				return nil, err
			}
			for _, alt := range alternatives {
				if !alt.resolved || clashesWithAny(alt.interval, existingScheduled) {
					continue
				}
				addSuggestion(result.Suggestions, id, alt.course.ID)
			}
		}
	}

	result.Valid = len(result.Conflicts) == 0 && len(result.SeatConflicts) == 0
	s.metrics.RecordValidation(result.Valid)
	s.logger.Debug("schedule validated",
		zap.String("student_id", req.StudentID),
		zap.Int("selected", len(orderedSelected)),
		zap.Int("existing", len(existingOnly)),
		zap.Bool("valid", result.Valid),
	)
	return result, nil
}

// Enroll commits one enrollment while a seat is free. Timing conflicts are not re-checked.
func (s *RegistrationService) Enroll(ctx context.Context, req dto.EnrollRequest) (result *dto.EnrollmentResult, err error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
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

	course, err := s.courses.LockByID(ctx, tx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.RecordEnrollment(string(dto.EnrollCourseNotFound))
			return &dto.EnrollmentResult{Reason: dto.EnrollCourseNotFound, Message: "course not found"}, nil
		}
		return nil, s.enrollFailure(err, "failed to lock course")
	}

	enrollment := &models.Enrollment{StudentID: req.StudentID, CourseID: course.ID}
	created, err := s.enrollments.CreateIfSeatAvailable(ctx, tx, enrollment, course.MaxSeats)
	if err != nil {
		return nil, s.enrollFailure(err, "failed to create enrollment")
	}
	if !created {
		s.metrics.RecordEnrollment(string(dto.EnrollCourseFull))
		return &dto.EnrollmentResult{Reason: dto.EnrollCourseFull, Message: "course full"}, nil
	}

	if err = tx.Commit(); err != nil {
		return nil, s.enrollFailure(err, "failed to commit enrollment")
	}

	s.metrics.RecordEnrollment("enrolled")
	if s.timetables != nil {
		s.timetables.InvalidateStudent(ctx, req.StudentID)
		if course.FacultyID != "" {
			s.timetables.InvalidateFaculty(ctx, course.FacultyID)
		}
	}
	s.logger.Info("student enrolled",
		zap.String("student_id", req.StudentID),
		zap.String("course_id", course.ID),
		zap.String("enrollment_id", enrollment.ID),
		zap.String("request_id", requestid.FromContext(ctx)),
	)
	return &dto.EnrollmentResult{Success: true, EnrollmentID: enrollment.ID, Message: "enrolled"}, nil
}

func (s *RegistrationService) enrollFailure(err error, message string) error {
	switch {
	case database.IsConcurrencyFailure(err):
		s.metrics.RecordEnrollment("concurrency_conflict")
		return appErrors.Wrap(err, appErrors.ErrConcurrencyConflict.Code, appErrors.ErrConcurrencyConflict.Status, appErrors.ErrConcurrencyConflict.Message)
	case database.IsUniqueViolation(err):
		s.metrics.RecordEnrollment("duplicate")
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "student already enrolled in course")
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
	}
}

// resolveSlots pairs each course with its interval, preserving order.
func (s *RegistrationService) resolveSlots(ctx context.Context, courses []models.Course) ([]scheduledCourse, error) {
	intervals, err := loadIntervals(ctx, s.slots, courses)
	if err != nil {
		return nil, err
	}
	scheduled := make([]scheduledCourse, len(courses))
	for i, course := range courses {
		interval, ok := intervals[course.TimeSlotID]
		scheduled[i] = scheduledCourse{course: course, interval: interval, resolved: ok}
	}
	return scheduled, nil
}

// loadIntervals fetches the slots referenced by courses and returns the ones that resolve.
func loadIntervals(ctx context.Context, slots timeSlotReader, courses []models.Course) (map[string]models.Interval, error) {
	ids := make([]string, 0, len(courses))
	for _, course := range courses {
		if course.TimeSlotID != "" {
			ids = append(ids, course.TimeSlotID)
		}
	}
	ids = uniqueStrings(ids)
	if len(ids) == 0 {
		return map[string]models.Interval{}, nil
	}

	rows, err := slots.ListByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timeslots")
	}
	intervals := make(map[string]models.Interval, len(rows))
	for i := range rows {
		if interval, err := rows[i].Resolve(); err == nil {
			intervals[rows[i].ID] = interval
		}
	}
	return intervals, nil
}

// siblingLookup memoises sibling sections with spare seats per course.
type siblingLookup struct {
	courses registrationCourseRepository
	slots   timeSlotReader
	cache   map[string][]scheduledCourse
}

func newSiblingLookup(courses registrationCourseRepository, slots timeSlotReader) *siblingLookup {
	return &siblingLookup{courses: courses, slots: slots, cache: make(map[string][]scheduledCourse)}
}

func (l *siblingLookup) withSpareSeats(ctx context.Context, course models.Course) ([]scheduledCourse, error) {
	if cached, ok := l.cache[course.ID]; ok {
		return cached, nil
	}
	siblings, err := l.courses.ListSiblings(ctx, course.Code, course.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sibling sections")
	}
	open := make([]models.Course, 0, len(siblings))
	for _, sibling := range siblings {
		if sibling.HasSpareSeat() {
			open = append(open, sibling.Course)
		}
	}
	intervals, err := loadIntervals(ctx, l.slots, open)
	if err != nil {
		return nil, err
	}
	result := make([]scheduledCourse, len(open))
	for i, sibling := range open {
		interval, ok := intervals[sibling.TimeSlotID]
		result[i] = scheduledCourse{course: sibling, interval: interval, resolved: ok}
	}
	l.cache[course.ID] = result
	return result, nil
}

func clashesWithAny(interval models.Interval, courses []scheduledCourse) bool {
	for _, c := range courses {
		if c.resolved && interval.Overlaps(c.interval) {
			return true
		}
	}
	return false
}

func addSuggestion(suggestions map[string][]string, courseID, alternativeID string) {
	for _, existing := range suggestions[courseID] {
		if existing == alternativeID {
			return
		}
	}
	suggestions[courseID] = append(suggestions[courseID], alternativeID)
}

func canonicalPair(a, b string) [2]string {
	pair := []string{a, b}
	sort.Strings(pair)
	return [2]string{pair[0], pair[1]}
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

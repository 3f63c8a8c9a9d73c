package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-engine/internal/models"
	appErrors "github.com/noah-isme/timetable-engine/pkg/errors"
)

type txProviderMock struct {
	db   *sqlx.DB
	mock sqlmock.Sqlmock
}

func newTxProviderMock(t *testing.T) (*txProviderMock, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlx.NewDb(db, "sqlmock"), mock: mock}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

// courseStoreStub is an in-memory course, slot and enrollment store.
type courseStoreStub struct {
	courses  map[string]models.Course
	slots    map[string]models.TimeSlot
	enrolled map[string][]string // course id -> student ids in enrollment order
	updates  []models.CourseFacultyUpdate
	lockErr  error

	slotCalls int
}

func newCourseStore() *courseStoreStub {
	return &courseStoreStub{
		courses:  map[string]models.Course{},
		slots:    map[string]models.TimeSlot{},
		enrolled: map[string][]string{},
	}
}

func (s *courseStoreStub) addSlot(id string, day models.Weekday, start, end string) {
	s.slots[id] = models.TimeSlot{ID: id, Day: day, StartTime: start, EndTime: end}
}

func (s *courseStoreStub) addCourse(c models.Course) {
	s.courses[c.ID] = c
}

func (s *courseStoreStub) enroll(studentID string, courseIDs ...string) {
	for _, id := range courseIDs {
		s.enrolled[id] = append(s.enrolled[id], studentID)
	}
}

func (s *courseStoreStub) seats(c models.Course) models.CourseSeats {
	return models.CourseSeats{Course: c, Enrolled: len(s.enrolled[c.ID])}
}

func (s *courseStoreStub) FindByID(ctx context.Context, id string) (*models.Course, error) {
	c, ok := s.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func (s *courseStoreStub) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Course, error) {
	if s.lockErr != nil {
		return nil, s.lockErr
	}
	return s.FindByID(ctx, id)
}

func (s *courseStoreStub) ListSeatsByIDs(ctx context.Context, ids []string) ([]models.CourseSeats, error) {
	var out []models.CourseSeats
	for _, id := range ids {
		if c, ok := s.courses[id]; ok {
			out = append(out, s.seats(c))
		}
	}
	// the store returns rows in its own order
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *courseStoreStub) ListSiblings(ctx context.Context, code, excludeID string) ([]models.CourseSeats, error) {
	var out []models.CourseSeats
	for _, c := range s.courses {
		if c.Code == code && c.ID != excludeID {
			out = append(out, s.seats(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *courseStoreStub) ListEnrolledByStudent(ctx context.Context, studentID string) ([]models.Course, error) {
	var out []models.Course
	for courseID, students := range s.enrolled {
		for _, st := range students {
			if st == studentID {
				out = append(out, s.courses[courseID])
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *courseStoreStub) UpdateFaculty(ctx context.Context, exec sqlx.ExtContext, update models.CourseFacultyUpdate) error {
	c, ok := s.courses[update.CourseID]
	if !ok {
		return sql.ErrNoRows
	}
	c.FacultyID = update.FacultyID
	s.courses[update.CourseID] = c
	s.updates = append(s.updates, update)
	return nil
}

func (s *courseStoreStub) ListByIDs(ctx context.Context, ids []string) ([]models.TimeSlot, error) {
	s.slotCalls++
	var out []models.TimeSlot
	for _, id := range ids {
		if slot, ok := s.slots[id]; ok {
			out = append(out, slot)
		}
	}
	return out, nil
}

type enrollmentWriterStub struct {
	store   *courseStoreStub
	err     error
	created []models.Enrollment
}

func (w *enrollmentWriterStub) CreateIfSeatAvailable(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment, maxSeats int) (bool, error) {
	if w.err != nil {
		return false, w.err
	}
	if len(w.store.enrolled[enrollment.CourseID]) >= maxSeats {
		return false, nil
	}
	enrollment.ID = "enr-" + enrollment.StudentID + "-" + enrollment.CourseID
	w.store.enroll(enrollment.StudentID, enrollment.CourseID)
	w.created = append(w.created, *enrollment)
	return true, nil
}

type invalidationRecorder struct {
	students    []string
	faculty     []string
	allStudents int
}

func (r *invalidationRecorder) InvalidateStudent(ctx context.Context, studentID string) {
	r.students = append(r.students, studentID)
}

func (r *invalidationRecorder) InvalidateFaculty(ctx context.Context, facultyID string) {
	r.faculty = append(r.faculty, facultyID)
}

func (r *invalidationRecorder) InvalidateAllStudents(ctx context.Context) {
	r.allStudents++
}

type facultyStoreStub struct {
	faculty []models.Faculty
	courses *courseStoreStub
}

func (s *facultyStoreStub) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Faculty, error) {
	for _, f := range s.faculty {
		if f.ID == id {
			f := f
			return &f, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *facultyStoreStub) ListWithWorkload(ctx context.Context, exec sqlx.ExtContext) ([]models.FacultyWorkload, error) {
	out := make([]models.FacultyWorkload, 0, len(s.faculty))
	for _, f := range s.faculty {
		load := 0
		for _, c := range s.courses.courses {
			if c.FacultyID == f.ID {
				load++
			}
		}
		out = append(out, models.FacultyWorkload{Faculty: f, CurrentWorkload: load})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

type disruptionStoreStub struct {
	items     []models.Disruption
	createErr error
	seq       int
}

func (s *disruptionStoreStub) Create(ctx context.Context, exec sqlx.ExtContext, d *models.Disruption) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.seq++
	if d.ID == "" {
		d.ID = fmt.Sprintf("dis-%d", s.seq)
	}
	d.Status = models.DisruptionStatusPending
	s.items = append(s.items, *d)
	return nil
}

func (s *disruptionStoreStub) FindByID(ctx context.Context, id string) (*models.Disruption, error) {
	for _, d := range s.items {
		if d.ID == id {
			d := d
			return &d, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *disruptionStoreStub) List(ctx context.Context, filter models.DisruptionFilter) ([]models.Disruption, error) {
	var out []models.Disruption
	for _, d := range s.items {
		if filter.CourseID != "" && d.CourseID != filter.CourseID {
			continue
		}
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *disruptionStoreStub) LockPendingByCourse(ctx context.Context, exec sqlx.ExtContext, courseID string) ([]models.Disruption, error) {
	return s.List(ctx, models.DisruptionFilter{CourseID: courseID, Status: models.DisruptionStatusPending})
}

func (s *disruptionStoreStub) Resolve(ctx context.Context, exec sqlx.ExtContext, id, resolvedBy string, resolvedAt time.Time) error {
	for i := range s.items {
		if s.items[i].ID == id && s.items[i].Status == models.DisruptionStatusPending {
			by := resolvedBy
			at := resolvedAt
			s.items[i].Status = models.DisruptionStatusResolved
			s.items[i].ResolvedBy = &by
			s.items[i].ResolvedAt = &at
			return nil
		}
	}
	return sql.ErrNoRows
}

type auditStoreStub struct {
	rows []models.CandidateAudit
}

func (s *auditStoreStub) InsertBatch(ctx context.Context, exec sqlx.ExtContext, audits []models.CandidateAudit) error {
	s.rows = append(s.rows, audits...)
	return nil
}

func (s *auditStoreStub) ListByDisruption(ctx context.Context, disruptionID string) ([]models.CandidateAudit, error) {
	var out []models.CandidateAudit
	for _, a := range s.rows {
		if a.DisruptionID == disruptionID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *auditStoreStub) MarkApproved(ctx context.Context, exec sqlx.ExtContext, disruptionID, facultyID string) (int64, error) {
	var n int64
	for i := range s.rows {
		if s.rows[i].DisruptionID == disruptionID && s.rows[i].CandidateFacultyID == facultyID {
			s.rows[i].Approved = true
			n++
		}
	}
	return n, nil
}

type memoryCacheRepo struct {
	values map[string][]byte
	sets   int
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{values: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.values[key] = raw
	m.sets++
	return nil
}

func (m *memoryCacheRepo) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range m.values {
		if strings.HasPrefix(k, prefix) {
			delete(m.values, k)
		}
	}
	return nil
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-engine/internal/dto"
	"github.com/noah-isme/timetable-engine/internal/models"
	"github.com/noah-isme/timetable-engine/pkg/cache"
	appErrors "github.com/noah-isme/timetable-engine/pkg/errors"
	"github.com/noah-isme/timetable-engine/pkg/export"
)

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type facultyReader interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Faculty, error)
}

type timetableRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.TimetableRow, error)
	ListByFaculty(ctx context.Context, facultyID string) ([]models.TimetableRow, error)
}

// TimetableExport is a rendered timetable file.
type TimetableExport struct {
	Filename    string
	ContentType string
	Body        []byte
}

// TimetableService builds weekly timetables for students and faculty.
type TimetableService struct {
	students   studentReader
	faculty    facultyReader
	timetables timetableRepository
	cache      *CacheService
	logger     *zap.Logger
}

// NewTimetableService constructs the service. cache may be nil.
func NewTimetableService(students studentReader, faculty facultyReader, timetables timetableRepository, cacheSvc *CacheService, logger *zap.Logger) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{students: students, faculty: faculty, timetables: timetables, cache: cacheSvc, logger: logger}
}

// StudentTimetable returns the weekly timetable of a student's enrolled courses.
func (s *TimetableService) StudentTimetable(ctx context.Context, studentID string) (dto.WeeklyTimetable, error) {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return s.cachedWeek(ctx, studentCacheKey(studentID), func() ([]models.TimetableRow, error) {
		return s.timetables.ListByStudent(ctx, studentID)
	})
}

// FacultyTimetable returns the weekly timetable of the courses assigned to a faculty member.
func (s *TimetableService) FacultyTimetable(ctx context.Context, facultyID string) (dto.WeeklyTimetable, error) {
	if _, err := s.faculty.FindByID(ctx, nil, facultyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty")
	}
	return s.cachedWeek(ctx, facultyCacheKey(facultyID), func() ([]models.TimetableRow, error) {
		return s.timetables.ListByFaculty(ctx, facultyID)
	})
}

// ExportStudentTimetable renders a student's timetable as CSV or PDF.
func (s *TimetableService) ExportStudentTimetable(ctx context.Context, studentID string, format export.Format) (*TimetableExport, error) {
	renderer, err := export.ForFormat(format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unsupported export format")
	}
	week, err := s.StudentTimetable(ctx, studentID)
	if err != nil {
		return nil, err
	}

	body, err := renderer.Render(timetableDataset(fmt.Sprintf("Weekly timetable %s", studentID), week))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable")
	}
	return &TimetableExport{
		Filename:    fmt.Sprintf("timetable-%s.%s", studentID, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

// InvalidateStudent drops a student's cached timetable.
func (s *TimetableService) InvalidateStudent(ctx context.Context, studentID string) {
	_ = s.cache.Invalidate(ctx, studentCacheKey(studentID))
}

// InvalidateFaculty drops a faculty member's cached timetable.
func (s *TimetableService) InvalidateFaculty(ctx context.Context, facultyID string) {
	_ = s.cache.Invalidate(ctx, facultyCacheKey(facultyID))
}

// InvalidateAllStudents drops every cached student timetable.
func (s *TimetableService) InvalidateAllStudents(ctx context.Context) {
	_ = s.cache.InvalidatePattern(ctx, cache.Key("student", "*"))
}

func (s *TimetableService) cachedWeek(ctx context.Context, key string, load func() ([]models.TimetableRow, error)) (dto.WeeklyTimetable, error) {
	var cached dto.WeeklyTimetable
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	rows, err := load()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	week := s.buildWeek(rows)
	_ = s.cache.Set(ctx, key, week, 0)
	return week, nil
}

// buildWeek groups rows by weekday and sorts each day by start then end time.
// Rows with an unusable slot are dropped.
func (s *TimetableService) buildWeek(rows []models.TimetableRow) dto.WeeklyTimetable {
	week := make(dto.WeeklyTimetable, len(models.Weekdays))
	for _, day := range models.Weekdays {
		week[day] = []dto.TimetableEntry{}
	}

	type placed struct {
		entry    dto.TimetableEntry
		interval models.Interval
	}
	byDay := make(map[models.Weekday][]placed)
	for _, row := range rows {
		slot := models.TimeSlot{Day: row.Day, StartTime: row.StartTime, EndTime: row.EndTime}
		interval, err := slot.Resolve()
		if err != nil {
			s.logger.Warn("skipping course with unusable timeslot", zap.String("course_id", row.CourseID), zap.Error(err))
			continue
		}
		entry := dto.TimetableEntry{
			CourseID:   row.CourseID,
			CourseCode: row.CourseCode,
			CourseName: row.CourseName,
			StartTime:  row.StartTime,
			EndTime:    row.EndTime,
		}
		if row.RoomNumber != nil || row.Building != nil {
			entry.Classroom = &dto.TimetableClassroom{RoomNumber: deref(row.RoomNumber), Building: deref(row.Building)}
		}
		if row.FacultyID != nil {
			entry.Faculty = &dto.TimetableFaculty{ID: *row.FacultyID, Name: deref(row.FacultyName)}
		}
		byDay[row.Day] = append(byDay[row.Day], placed{entry: entry, interval: interval})
	}

	for day, items := range byDay {
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].interval.Start != items[j].interval.Start {
				return items[i].interval.Start < items[j].interval.Start
			}
			return items[i].interval.End < items[j].interval.End
		})
		entries := make([]dto.TimetableEntry, len(items))
		for i, item := range items {
			entries[i] = item.entry
		}
		week[day] = entries
	}
	return week
}

func timetableDataset(title string, week dto.WeeklyTimetable) export.Dataset {
	headers := []string{"Day", "Start", "End", "Code", "Course", "Room", "Faculty"}
	var rows []map[string]string
	for _, day := range models.Weekdays {
		for _, entry := range week[day] {
			room := ""
			if entry.Classroom != nil {
				room = strings.TrimSpace(entry.Classroom.RoomNumber + " " + entry.Classroom.Building)
			}
			faculty := ""
			if entry.Faculty != nil {
				faculty = entry.Faculty.Name
			}
			rows = append(rows, map[string]string{
				"Day":     string(day),
				"Start":   entry.StartTime,
				"End":     entry.EndTime,
				"Code":    entry.CourseCode,
				"Course":  entry.CourseName,
				"Room":    room,
				"Faculty": faculty,
			})
		}
	}
	return export.Dataset{Title: title, Headers: headers, Rows: rows}
}

func studentCacheKey(studentID string) string {
	return cache.Key("student", studentID)
}

func facultyCacheKey(facultyID string) string {
	return cache.Key("faculty", facultyID)
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-engine/internal/dto"
	internalmiddleware "github.com/noah-isme/timetable-engine/internal/middleware"
	"github.com/noah-isme/timetable-engine/internal/models"
	"github.com/noah-isme/timetable-engine/internal/service"
	appErrors "github.com/noah-isme/timetable-engine/pkg/errors"
	"github.com/noah-isme/timetable-engine/pkg/export"
)

type registrationMock struct {
	validation *dto.ValidationResult
	enroll     *dto.EnrollmentResult
	err        error

	validated []dto.ValidateScheduleRequest
	enrolled  []dto.EnrollRequest
}

func (m *registrationMock) Validate(ctx context.Context, req dto.ValidateScheduleRequest) (*dto.ValidationResult, error) {
	m.validated = append(m.validated, req)
	if m.err != nil {
		return nil, m.err
	}
	return m.validation, nil
}

func (m *registrationMock) Enroll(ctx context.Context, req dto.EnrollRequest) (*dto.EnrollmentResult, error) {
	m.enrolled = append(m.enrolled, req)
	return m.enroll, nil
}

type optimizerMock struct {
	approved   dto.ApproveReassignmentRequest
	candidates []dto.RankedCandidate
	err        error
}

func (m *optimizerMock) ComputeCandidates(ctx context.Context, query dto.CandidateQuery) ([]dto.RankedCandidate, error) {
	return m.candidates, m.err
}

func (m *optimizerMock) RecordDisruption(ctx context.Context, req dto.RecordDisruptionRequest) (*dto.RecordDisruptionResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &dto.RecordDisruptionResponse{DisruptionID: "dis-1", SolutionsCount: len(m.candidates), Candidates: m.candidates}, nil
}

func (m *optimizerMock) ApplyReassignment(ctx context.Context, req dto.ApproveReassignmentRequest) (*dto.ReassignmentResult, error) {
	m.approved = req
	return &dto.ReassignmentResult{Success: true, CourseID: req.CourseID, NewFacultyID: req.NewFacultyID, ResolvedDisruptions: []string{"dis-1"}}, nil
}

func (m *optimizerMock) GetDisruption(ctx context.Context, id string) (*models.DisruptionDetail, error) {
	if id != "dis-1" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "disruption not found")
	}
	return &models.DisruptionDetail{Disruption: models.Disruption{ID: id, Status: models.DisruptionStatusPending}, Candidates: []models.CandidateAudit{}}, nil
}

func (m *optimizerMock) ListDisruptions(ctx context.Context, courseID string, query dto.DisruptionListQuery) ([]models.Disruption, error) {
	return []models.Disruption{{ID: "dis-1", CourseID: courseID}}, nil
}

type timetableMock struct {
	format export.Format
}

func (m *timetableMock) StudentTimetable(ctx context.Context, studentID string) (dto.WeeklyTimetable, error) {
	return dto.WeeklyTimetable{models.Monday: {{CourseID: "ma201-a", StartTime: "09:00", EndTime: "10:00"}}}, nil
}

func (m *timetableMock) FacultyTimetable(ctx context.Context, facultyID string) (dto.WeeklyTimetable, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty not found")
}

func (m *timetableMock) ExportStudentTimetable(ctx context.Context, studentID string, format export.Format) (*service.TimetableExport, error) {
	m.format = format
	return &service.TimetableExport{Filename: "timetable-" + studentID + ".csv", ContentType: "text/csv", Body: []byte("Day\n")}, nil
}

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

// testAuth stands in for JWT: X-Test-Role and X-Test-User become the caller's claims.
func testAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetHeader("X-Test-Role")
		if role == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{UserID: c.GetHeader("X-Test-User"), Role: models.UserRole(role)})
		c.Next()
	}
}

type testAPI struct {
	router       *gin.Engine
	registration *registrationMock
	optimizer    *optimizerMock
	timetable    *timetableMock
}

func newTestAPI() testAPI {
	gin.SetMode(gin.TestMode)
	api := testAPI{
		router:       gin.New(),
		registration: &registrationMock{validation: &dto.ValidationResult{Valid: true}, enroll: &dto.EnrollmentResult{Success: true, EnrollmentID: "enr-1"}},
		optimizer:    &optimizerMock{candidates: []dto.RankedCandidate{{FacultyID: "fac-best", Score: 90, Rank: models.RankBest}}},
		timetable:    &timetableMock{},
	}
	Routes{
		Registration: &RegistrationHandler{service: api.registration},
		Timetable:    &TimetableHandler{service: api.timetable},
		Optimizer:    &OptimizerHandler{service: api.optimizer},
	}.Register(api.router.Group("/api/v1"), testAuth())
	return api
}

func (a testAPI) do(method, path, role, user, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("X-Test-Role", role)
	}
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

const (
	admin   = string(models.RoleAdmin)
	student = string(models.RoleStudent)
	faculty = string(models.RoleFaculty)
)

func TestValidateEndpoint(t *testing.T) {
	api := newTestAPI()
	api.registration.validation = &dto.ValidationResult{
		Valid:     false,
		Conflicts: []dto.ScheduleConflict{{Kind: dto.ConflictOverlap, CourseIDs: []string{"a", "b"}}},
	}

	w := api.do(http.MethodPost, "/api/v1/registration/validate", student, "stu-1", `{"studentId":"stu-1","courseIds":["a","b"]}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"valid":false`)
	require.Len(t, api.registration.validated, 1)
	assert.Equal(t, []string{"a", "b"}, api.registration.validated[0].CourseIDs)
}

func TestValidateEndpointRejectsMalformedBody(t *testing.T) {
	api := newTestAPI()

	w := api.do(http.MethodPost, "/api/v1/registration/validate", admin, "", `{"studentId":`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, decodeEnvelope(t, w).Error.Code)
	assert.Empty(t, api.registration.validated)
}

func TestStudentCannotRegisterSomeoneElse(t *testing.T) {
	api := newTestAPI()

	w := api.do(http.MethodPost, "/api/v1/registration/enroll", student, "stu-1", `{"studentId":"stu-2","courseId":"a"}`)

	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, api.registration.enrolled)
}

func TestEnrollValidatesBeforeCommitting(t *testing.T) {
	api := newTestAPI()
	api.registration.validation = &dto.ValidationResult{
		SeatConflicts: []dto.SeatConflict{{CourseID: "a", Enrolled: 30, MaxSeats: 30}},
		Suggestions:   map[string][]string{"a": {"a2"}},
	}

	w := api.do(http.MethodPost, "/api/v1/registration/enroll", student, "stu-1", `{"studentId":"stu-1","courseId":"a"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, appErrors.ErrValidation.Code, env.Error.Code)
	assert.Contains(t, string(env.Data), `"a2"`)
	require.Len(t, api.registration.validated, 1)
	assert.Equal(t, []string{"a"}, api.registration.validated[0].CourseIDs)
	assert.Empty(t, api.registration.enrolled)
}

func TestEnrollOutcomes(t *testing.T) {
	cases := []struct {
		name   string
		result *dto.EnrollmentResult
		status int
		code   string
	}{
		{"created", &dto.EnrollmentResult{Success: true, EnrollmentID: "enr-1"}, http.StatusCreated, ""},
		{"unknown course", &dto.EnrollmentResult{Reason: dto.EnrollCourseNotFound, Message: "course not found"}, http.StatusNotFound, appErrors.ErrNotFound.Code},
		{"lost the last seat", &dto.EnrollmentResult{Reason: dto.EnrollCourseFull, Message: "course full"}, http.StatusConflict, appErrors.ErrCourseFull.Code},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := newTestAPI()
			api.registration.enroll = tc.result

			w := api.do(http.MethodPost, "/api/v1/registration/enroll", admin, "usr-1", `{"studentId":"stu-1","courseId":"a"}`)

			require.Equal(t, tc.status, w.Code)
			env := decodeEnvelope(t, w)
			if tc.code == "" {
				assert.Nil(t, env.Error)
				assert.Contains(t, string(env.Data), `"enrollmentId":"enr-1"`)
				return
			}
			assert.Equal(t, tc.code, env.Error.Code)
		})
	}
}

func TestValidateServiceErrorPropagates(t *testing.T) {
	api := newTestAPI()
	api.registration.err = appErrors.Wrap(errors.New("db down"), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")

	w := api.do(http.MethodPost, "/api/v1/registration/validate", admin, "", `{"studentId":"stu-1","courseIds":["a"]}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestOptimizerRequiresAdmin(t *testing.T) {
	api := newTestAPI()
	body := `{"courseId":"ma201-a","unavailableFacultyId":"fac-cur"}`

	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodPost, "/api/v1/optimizer/candidates", "", "", body).Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, "/api/v1/optimizer/candidates", faculty, "fac-cur", body).Code)

	w := api.do(http.MethodPost, "/api/v1/optimizer/candidates", admin, "usr-1", body)
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, float64(1), env.Meta["total"])
	assert.Contains(t, string(env.Data), `"fac-best"`)
}

func TestReassignCreatesDisruption(t *testing.T) {
	api := newTestAPI()

	w := api.do(http.MethodPost, "/api/v1/optimizer/reassign", admin, "usr-1", `{"courseId":"ma201-a","unavailableFacultyId":"fac-cur","reason":"medical leave"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"disruptionId":"dis-1"`)
}

func TestReassignServiceNotFound(t *testing.T) {
	api := newTestAPI()
	api.optimizer.err = appErrors.Clone(appErrors.ErrNotFound, "course not found")

	w := api.do(http.MethodPost, "/api/v1/optimizer/reassign", admin, "usr-1", `{"courseId":"ghost","unavailableFacultyId":"fac-cur"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestApproveDefaultsApproverToCaller(t *testing.T) {
	api := newTestAPI()

	w := api.do(http.MethodPost, "/api/v1/optimizer/approve", admin, "usr-registrar", `{"courseId":"ma201-a","newFacultyId":"fac-best"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "usr-registrar", api.optimizer.approved.ApprovedBy)

	w = api.do(http.MethodPost, "/api/v1/optimizer/approve", admin, "usr-registrar", `{"courseId":"ma201-a","newFacultyId":"fac-best","approvedBy":"dean"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "dean", api.optimizer.approved.ApprovedBy)
}

func TestDisruptionReadEndpoints(t *testing.T) {
	api := newTestAPI()

	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/v1/disruptions/dis-1", admin, "", "").Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/v1/disruptions/dis-9", admin, "", "").Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/api/v1/disruptions/dis-1", student, "stu-1", "").Code)

	w := api.do(http.MethodGet, "/api/v1/courses/ma201-a/disruptions?status=pending", admin, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"course_id":"ma201-a"`)
}

func TestTimetableAccess(t *testing.T) {
	api := newTestAPI()

	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/v1/timetable/students/stu-1", student, "stu-1", "").Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/api/v1/timetable/students/stu-2", student, "stu-1", "").Code)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/v1/timetable/students/stu-2", admin, "", "").Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/v1/timetable/faculty/fac-1", faculty, "fac-1", "").Code)
}

func TestTimetableExportAttachment(t *testing.T) {
	api := newTestAPI()

	w := api.do(http.MethodGet, "/api/v1/timetable/students/stu-1/export?format=csv", student, "stu-1", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.FormatCSV, api.timetable.format)
	assert.Equal(t, `attachment; filename="timetable-stu-1.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, "Day\n", w.Body.String())
}

func TestReadyReportsFailingDependency(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewMetricsHandler(nil, map[string]Pinger{
		"postgres": PingFunc(func(ctx context.Context) error { return nil }),
		"redis":    PingFunc(func(ctx context.Context) error { return errors.New("connection refused") }),
	})
	router := gin.New()
	router.GET("/ready", h.Ready)
	router.GET("/metrics", h.Prometheus)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"connection refused"`)
	assert.Contains(t, w.Body.String(), `"postgres":"ok"`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

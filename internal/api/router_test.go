package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/eduacademy/academy-api/internal/api/handler"
	"github.com/eduacademy/academy-api/internal/core/domain"
	"github.com/eduacademy/academy-api/internal/core/service"
	"github.com/eduacademy/academy-api/internal/infrastructure/db/memory"
	"github.com/eduacademy/academy-api/internal/infrastructure/queue"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testServer struct {
	e        *echo.Echo
	tokens   *service.TokenService
	store    *memory.Store
	audit    *queue.Dispatcher
	shutdown func()
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zerolog.Nop()
	store := memory.New()

	tokens, err := service.NewTokenService(service.TokenConfig{
		Secret: []byte(testSecret),
		TTL:    time.Hour,
		Issuer: "academy-test",
	})
	require.NoError(t, err)

	audit := queue.NewDispatcher(1, store.Audit(), log)
	audit.Start(context.Background())

	courseStores := service.CourseStores{
		Courses:     store.Courses(),
		Lessons:     store.Lessons(),
		Enrollments: store.Enrollments(),
		Assessments: store.Assessments(),
		Submissions: store.Submissions(),
		Reviews:     store.Reviews(),
		Users:       store.Users(),
	}

	e := NewRouter(Deps{
		Log:        log,
		Tokens:     tokens,
		Identities: service.NewIdentityService(store.Users(), nil, log),
		Auth:       service.NewAuthService(store.Users(), tokens, bcrypt.MinCost, log),
		Instructor: service.NewInstructorService(courseStores, log),
		Student:    service.NewStudentService(courseStores, log),
		Admin:      service.NewAdminService(courseStores, nil, log),
		Audit:      audit,
		Health:     map[string]handler.Pinger{"store": store},
		Registry:   prometheus.NewRegistry(),
	})

	s := &testServer{e: e, tokens: tokens, store: store, audit: audit}
	s.shutdown = func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, audit.Shutdown(ctx))
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = audit.Shutdown(ctx)
	})
	return s
}

func (s *testServer) do(t *testing.T, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) register(t *testing.T, username, role string) string {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"email":"%s@x.com","password":"pw12345","role":%q}`, username, username, role)
	rec := s.do(t, http.MethodPost, "/auth/register", "", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["jwt"])
	return resp["jwt"]
}

type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Errors  json.RawMessage `json:"errors"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func TestRouter_RegisterDuplicateAndAccess(t *testing.T) {
	s := newTestServer(t)

	body := `{"username":"alice","email":"alice@x.com","password":"pw12345","role":"student"}`
	rec := s.do(t, http.MethodPost, "/auth/register", "", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var tok map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
	subject, err := s.tokens.ExtractSubject(tok["jwt"])
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", subject)

	rec = s.do(t, http.MethodPost, "/auth/register", "", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, http.StatusConflict, env.Status)
	assert.False(t, env.Success)

	rec = s.do(t, http.MethodGet, "/v1/instructor/courses", tok["jwt"], "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, http.StatusForbidden, decode(t, rec).Status)

	rec = s.do(t, http.MethodGet, "/v1/instructor/courses", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, http.StatusUnauthorized, decode(t, rec).Status)
}

func TestRouter_RegisterValidation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/auth/register", "", `{"username":"bob","email":"not-an-email","password":"pw12345"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var fields map[string]string
	require.NoError(t, json.Unmarshal(decode(t, rec).Errors, &fields))
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "role")

	rec = s.do(t, http.MethodPost, "/auth/register", "", `{"username":"bob","email":"bob@x.com","password":"pw12345","role":"teacher"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/auth/register", "", `{"username":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_LoginFailuresAreIndistinguishable(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice", "student")

	ok := s.do(t, http.MethodPost, "/auth/login", "", `{"email":"alice@x.com","password":"pw12345"}`)
	require.Equal(t, http.StatusOK, ok.Code)

	wrongPassword := s.do(t, http.MethodPost, "/auth/login", "", `{"email":"alice@x.com","password":"nope123"}`)
	unknownEmail := s.do(t, http.MethodPost, "/auth/login", "", `{"email":"ghost@x.com","password":"nope123"}`)

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, wrongPassword.Code, unknownEmail.Code)
	assert.JSONEq(t, wrongPassword.Body.String(), unknownEmail.Body.String())

	s.shutdown()
	kinds := make([]domain.AuthEventKind, 0, 4)
	for _, ev := range s.store.Audit().Events() {
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []domain.AuthEventKind{
		domain.AuthEventRegister,
		domain.AuthEventLoginSuccess,
		domain.AuthEventLoginFailure,
		domain.AuthEventLoginFailure,
	}, kinds)
}

func TestRouter_Me(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "ivan", "instructor")

	rec := s.do(t, http.MethodGet, "/v1/me", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var me struct {
		User        map[string]any `json:"user"`
		Authorities []string       `json:"authorities"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &me))
	assert.Equal(t, "ivan@x.com", me.User["email"])
	assert.NotContains(t, me.User, "password_hash")
	require.NotEmpty(t, me.Authorities)
	assert.Equal(t, "ROLE_INSTRUCTOR", me.Authorities[0])
	assert.Contains(t, me.Authorities, string(domain.CapInstructorAddCourse))

	rec = s.do(t, http.MethodGet, "/v1/me", "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_EnrollmentFlow(t *testing.T) {
	s := newTestServer(t)
	instructor := s.register(t, "ivan", "instructor")
	student := s.register(t, "sara", "student")
	admin := s.register(t, "root", "admin")

	rec := s.do(t, http.MethodPost, "/v1/instructor/courses", instructor, `{"name":"Go 101","description":"intro"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var course domain.Course
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &course))
	coursePath := fmt.Sprintf("/v1/student/courses/%d", course.ID)

	rec = s.do(t, http.MethodPost, fmt.Sprintf("/v1/instructor/courses/%d/lessons", course.ID), instructor, `{"title":"Types","content":"int"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, coursePath+"/requests", student, "")
	assert.Equal(t, http.StatusNotFound, rec.Code, "hidden course must be invisible")

	rec = s.do(t, http.MethodPost, fmt.Sprintf("/v1/admin/courses/%d/publish", course.ID), admin, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, fmt.Sprintf("/v1/admin/courses/%d/publish", course.ID), admin, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, coursePath+"/requests", student, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var req domain.EnrollmentRequest
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &req))

	rec = s.do(t, http.MethodPost, coursePath+"/requests", student, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/v1/student/enrollments/%d/lessons", course.ID), student, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, fmt.Sprintf("/v1/instructor/requests/%d/approve", req.ID), instructor, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/v1/student/enrollments/%d/lessons", course.ID), student, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var lessons []domain.Lesson
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &lessons))
	require.Len(t, lessons, 1)
	assert.Equal(t, "Types", lessons[0].Title)

	rec = s.do(t, http.MethodGet, "/v1/admin/courses?published=maybe", admin, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/v1/admin/instructors", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var instructors []map[string]any
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &instructors))
	require.Len(t, instructors, 1)
	assert.Equal(t, "ivan", instructors[0]["username"])
}

func TestRouter_AdminCapabilitiesAreNotInherited(t *testing.T) {
	s := newTestServer(t)
	admin := s.register(t, "root", "admin")

	rec := s.do(t, http.MethodPost, "/v1/instructor/courses", admin, `{"name":"x"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/v1/student/courses", admin, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/v1/admin/courses/abc", admin, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_EncodedPathsCannotReachPublicRules(t *testing.T) {
	s := newTestServer(t)
	student := s.register(t, "sara", "student")

	// Decoded and cleaned, these collapse onto /auth and /health.
	for _, target := range []string{
		"/v1/admin/users/1%2F..%2F..%2F..%2F..%2Fauth",
		"/v1/admin/users/%2E%2E%2F%2E%2E%2F%2E%2E%2Fhealth",
		"/v1/instructor/courses/1%2F..%2F..%2F..%2Fauth%2Flogin",
	} {
		rec := s.do(t, http.MethodGet, target, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
	}

	// Decoded, this lands on the student area.
	rec := s.do(t, http.MethodGet, "/v1/admin/users/1%2F..%2F..%2F..%2Fstudent%2Fcourses", student, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodDelete, "/v1/admin/users/1%2F..%2F..%2F..%2Fstudent%2Fcourses", student, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_CourseWork(t *testing.T) {
	s := newTestServer(t)
	instructor := s.register(t, "ivan", "instructor")
	student := s.register(t, "sara", "student")
	admin := s.register(t, "root", "admin")

	rec := s.do(t, http.MethodPost, "/v1/instructor/courses", instructor, `{"name":"Go 101"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var course domain.Course
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &course))
	rec = s.do(t, http.MethodPost, fmt.Sprintf("/v1/admin/courses/%d/publish", course.ID), admin, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, fmt.Sprintf("/v1/student/courses/%d/requests", course.ID), student, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var req domain.EnrollmentRequest
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &req))

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/v1/student/requests/%d", req.ID), student, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodGet, fmt.Sprintf("/v1/instructor/courses/%d/requests/%d", course.ID, req.ID), instructor, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, fmt.Sprintf("/v1/instructor/requests/%d/approve", req.ID), instructor, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/v1/instructor/courses/%d/students", course.ID), instructor, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var roster []map[string]any
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &roster))
	require.Len(t, roster, 1)
	assert.Equal(t, "sara", roster[0]["username"])

	// Students cannot author assessments.
	assignments := fmt.Sprintf("/v1/instructor/courses/%d/assignments", course.ID)
	rec = s.do(t, http.MethodPost, assignments, student, `{"title":"HW1"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, assignments, instructor, `{"title":"HW1","content":"write a loop"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var hw domain.Assessment
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &hw))
	assert.Equal(t, domain.AssessmentAssignment, hw.Kind)

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/v1/instructor/courses/%d/exams/%d", course.ID, hw.ID), instructor, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	answer := fmt.Sprintf("/v1/student/enrollments/%d/assignments/%d/answer", course.ID, hw.ID)
	rec = s.do(t, http.MethodPut, answer, instructor, `{"answer":"for {}"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPut, answer, student, `{"answer":"for {}"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var sub domain.Submission
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &sub))

	grade := fmt.Sprintf("%s/%d/submissions/%d/grade", assignments, hw.ID, sub.ID)
	rec = s.do(t, http.MethodPut, grade, instructor, `{"score":101}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, grade, instructor, `{"score":88}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPut, answer, student, `{"answer":"for range 10 {}"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodGet, answer, student, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &sub))
	require.NotNil(t, sub.Score)
	assert.Equal(t, 88, *sub.Score)

	review := fmt.Sprintf("/v1/student/enrollments/%d/review", course.ID)
	rec = s.do(t, http.MethodPost, review, student, `{"rating":5,"comment":"great"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = s.do(t, http.MethodPost, review, student, `{"rating":4}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = s.do(t, http.MethodPut, review, student, `{"rating":4,"comment":"good"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/v1/student/courses/%d/reviews", course.ID), student, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var reviews []domain.Review
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &reviews))
	require.Len(t, reviews, 1)
	assert.Equal(t, 4, reviews[0].Rating)

	rec = s.do(t, http.MethodDelete, review, student, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodDelete, fmt.Sprintf("/v1/student/enrollments/%d", course.ID), student, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodGet, fmt.Sprintf("/v1/student/enrollments/%d", course.ID), student, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_OperationalEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"store"`)

	rec = s.do(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

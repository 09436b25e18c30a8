package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"github.com/unrolled/secure"
	"golang.org/x/time/rate"

	_ "github.com/eduacademy/academy-api/docs"
	"github.com/eduacademy/academy-api/internal/api/handler"
	"github.com/eduacademy/academy-api/internal/api/middleware"
	"github.com/eduacademy/academy-api/internal/core/access"
	"github.com/eduacademy/academy-api/internal/core/domain"
	"github.com/eduacademy/academy-api/internal/core/ports"
)

const bodyLimit = "1M"

// Deps carries everything the router needs. Audit, Policy, Health and
// Registry are optional.
type Deps struct {
	Log zerolog.Logger

	Tokens     ports.TokenService
	Identities ports.IdentityLookup
	Auth       ports.AuthService
	Instructor ports.InstructorService
	Student    ports.StudentService
	Admin      ports.AdminService
	Audit      ports.AuditSink

	// Policy defaults to access.DefaultPolicy().
	Policy *access.Policy
	Health map[string]handler.Pinger

	// AuthRateLimit is the sustained per-IP request rate on /auth; zero
	// disables the limiter.
	AuthRateLimit float64
	AuthRateBurst int

	// Registry receives the HTTP metrics and backs /metrics. Nil uses the
	// default prometheus registry.
	Registry   *prometheus.Registry
	Production bool
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	policy := d.Policy
	if policy == nil {
		policy = access.DefaultPolicy()
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echo.WrapMiddleware(secureHeaders(d.Production).Handler))
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(httpMetrics(d.Registry))
	e.Use(echomiddleware.BodyLimit(bodyLimit))
	e.Use(middleware.Authenticate(d.Tokens, d.Identities, d.Log))
	e.Use(middleware.Policy(policy))

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(d.Auth, d.Audit)
	authGroup := e.Group("/auth")
	if d.AuthRateLimit > 0 {
		authGroup.Use(authRateLimiter(d.AuthRateLimit, d.AuthRateBurst))
	}
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)

	// --- Health checks and operational endpoints (no auth required) ---
	healthHandler := handler.NewHealthHandler(d.Health)
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", metricsHandler(d.Registry))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	v1 := e.Group("/v1")
	v1.GET("/me", handler.NewMeHandler().Get)

	registerAdminRoutes(v1.Group("/admin"), handler.NewAdminHandler(d.Admin))
	registerInstructorRoutes(v1.Group("/instructor"), handler.NewInstructorHandler(d.Instructor))
	registerStudentRoutes(v1.Group("/student"), handler.NewStudentHandler(d.Student))

	return e
}

// Routes without a capability guard are covered by the role rule of their
// group alone.
func registerAdminRoutes(g *echo.Group, h *handler.AdminHandler) {
	g.GET("/courses", h.ListCourses, middleware.RequireCapability(domain.CapAdminGetAllCourses))
	g.GET("/courses/:id", h.GetCourse, middleware.RequireCapability(domain.CapAdminGetCourse))
	g.POST("/courses/:id/publish", h.PublishCourse, middleware.RequireCapability(domain.CapAdminPublishCourse))
	g.POST("/courses/:id/hide", h.HideCourse, middleware.RequireCapability(domain.CapAdminHideCourse))
	g.DELETE("/courses/:id", h.DeleteCourse)

	g.GET("/instructors", h.ListInstructors, middleware.RequireCapability(domain.CapAdminGetAllInstructors))
	g.GET("/instructors/:id", h.GetInstructor, middleware.RequireCapability(domain.CapAdminGetInstructor))
	g.GET("/students/:id", h.GetStudent, middleware.RequireCapability(domain.CapAdminGetStudent))
	g.GET("/users", h.ListUsers)
	g.GET("/users/:id", h.GetUser)
	g.DELETE("/users/:id", h.DeleteUser)
}

func registerInstructorRoutes(g *echo.Group, h *handler.InstructorHandler) {
	g.POST("/courses", h.CreateCourse, middleware.RequireCapability(domain.CapInstructorAddCourse))
	g.GET("/courses", h.ListCourses, middleware.RequireCapability(domain.CapInstructorGetAllMyCourses))
	g.GET("/courses/:id", h.GetCourse, middleware.RequireCapability(domain.CapInstructorGetMyCourse))
	g.PUT("/courses/:id", h.UpdateCourse, middleware.RequireCapability(domain.CapInstructorEditCourse))
	g.DELETE("/courses/:id", h.DeleteCourse, middleware.RequireCapability(domain.CapInstructorDeleteCourse))

	g.GET("/courses/:id/lessons", h.ListLessons, middleware.RequireCapability(domain.CapInstructorGetMyCourse))
	g.POST("/courses/:id/lessons", h.AddLesson, middleware.RequireCapability(domain.CapInstructorAddCourseLesson))
	g.PUT("/courses/:id/lessons/:lesson_id", h.UpdateLesson, middleware.RequireCapability(domain.CapInstructorEditCourseLesson))
	g.DELETE("/courses/:id/lessons/:lesson_id", h.DeleteLesson, middleware.RequireCapability(domain.CapInstructorDeleteCourseLesson))

	g.GET("/courses/:id/lessons/:lesson_id", h.GetLesson, middleware.RequireCapability(domain.CapInstructorGetMyCourse))

	g.GET("/courses/:id/students", h.ListStudents, middleware.RequireCapability(domain.CapInstructorGetMyCourse))
	g.GET("/courses/:id/students/:student_id", h.GetStudent, middleware.RequireCapability(domain.CapInstructorGetMyCourse))
	g.GET("/courses/:id/reviews", h.ListReviews, middleware.RequireCapability(domain.CapInstructorGetMyCourse))

	g.GET("/courses/:id/requests", h.ListRequests, middleware.RequireCapability(domain.CapInstructorGetMyCourse))
	g.GET("/courses/:id/requests/:request_id", h.GetRequest, middleware.RequireCapability(domain.CapInstructorGetMyCourse))
	g.POST("/requests/:id/approve", h.ApproveRequest, middleware.RequireCapability(domain.CapInstructorAcceptEnrollmentRequest))
	g.POST("/requests/:id/reject", h.RejectRequest, middleware.RequireCapability(domain.CapInstructorAcceptEnrollmentRequest))

	// Exams reuse the assignment capabilities.
	for segment, kind := range assessmentSegments {
		base := "/courses/:id/" + segment
		item := base + "/:assessment_id"
		g.GET(base, h.ListAssessments(kind), middleware.RequireCapability(domain.CapInstructorGetMyCourse))
		g.POST(base, h.AddAssessment(kind), middleware.RequireCapability(domain.CapInstructorAddCourseAssignment))
		g.GET(item, h.GetAssessment(kind), middleware.RequireCapability(domain.CapInstructorGetMyCourse))
		g.PUT(item, h.UpdateAssessment(kind), middleware.RequireCapability(domain.CapInstructorEditCourseAssignment))
		g.DELETE(item, h.DeleteAssessment(kind), middleware.RequireCapability(domain.CapInstructorDeleteCourseAssignment))
		g.GET(item+"/submissions", h.ListSubmissions(kind), middleware.RequireCapability(domain.CapInstructorGetMyCourse))
		g.PUT(item+"/submissions/:submission_id/grade", h.GradeSubmission(kind), middleware.RequireCapability(domain.CapInstructorEditCourseAssignment))
		g.DELETE(item+"/submissions/:submission_id/grade", h.ClearGrade(kind), middleware.RequireCapability(domain.CapInstructorEditCourseAssignment))
	}
}

// assessmentSegments maps route segments to the assessment kind they serve.
var assessmentSegments = map[string]domain.AssessmentKind{
	"assignments": domain.AssessmentAssignment,
	"exams":       domain.AssessmentExam,
}

func registerStudentRoutes(g *echo.Group, h *handler.StudentHandler) {
	g.GET("/courses", h.ListCourses)
	g.GET("/courses/:id", h.GetCourse)
	g.GET("/courses/:id/reviews", h.ListCourseReviews)
	g.POST("/courses/:id/requests", h.SendRequest, middleware.RequireCapability(domain.CapStudentSendEnrollmentRequest))
	g.DELETE("/courses/:id/requests", h.CancelRequest, middleware.RequireCapability(domain.CapStudentCancelEnrollmentRequest))
	g.GET("/requests", h.ListRequests)
	g.GET("/requests/:id", h.GetRequest)

	enrolled := middleware.RequireCapability(domain.CapStudentGetAllEnrollmentCourses)
	g.GET("/enrollments", h.ListEnrolledCourses, enrolled)
	g.GET("/enrollments/:id", h.GetEnrolledCourse, enrolled)
	g.DELETE("/enrollments/:id", h.Unenroll)
	g.GET("/enrollments/:id/lessons", h.ListEnrolledLessons, enrolled)
	g.GET("/enrollments/:id/lessons/:lesson_id", h.GetEnrolledLesson, enrolled)

	for segment, kind := range assessmentSegments {
		base := "/enrollments/:id/" + segment
		item := base + "/:assessment_id"
		g.GET(base, h.ListAssessments(kind), enrolled)
		g.GET(item, h.GetAssessment(kind), enrolled)
		g.GET(item+"/answer", h.GetSubmission(kind), enrolled)
		g.PUT(item+"/answer", h.SubmitAnswer(kind), middleware.RequireCapability(domain.CapStudentSubmitAssignmentAnswer))
	}

	g.POST("/enrollments/:id/review", h.AddReview, middleware.RequireCapability(domain.CapStudentAddCourseReview))
	g.PUT("/enrollments/:id/review", h.EditReview, middleware.RequireCapability(domain.CapStudentEditCourseReview))
	g.DELETE("/enrollments/:id/review", h.DeleteReview, middleware.RequireCapability(domain.CapStudentDeleteCourseReview))
}

func secureHeaders(production bool) *secure.Secure {
	opts := secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		IsDevelopment:      !production,
	}
	if production {
		opts.STSSeconds = 31536000
		opts.STSIncludeSubdomains = true
		opts.SSLProxyHeaders = map[string]string{"X-Forwarded-Proto": "https"}
	}
	return secure.New(opts)
}

func httpMetrics(reg *prometheus.Registry) echo.MiddlewareFunc {
	cfg := echoprometheus.MiddlewareConfig{
		Namespace: "academy",
		Subsystem: "http",
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}
	if reg != nil {
		cfg.Registerer = reg
	}
	return echoprometheus.NewMiddlewareWithConfig(cfg)
}

func metricsHandler(reg *prometheus.Registry) echo.HandlerFunc {
	if reg == nil {
		return echoprometheus.NewHandler()
	}
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg})
}

// authRateLimiter limits /auth requests per client IP.
func authRateLimiter(limit float64, burst int) echo.MiddlewareFunc {
	store := echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(limit),
		Burst:     burst,
		ExpiresIn: 3 * time.Minute,
	})
	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "unable to identify client").SetInternal(err)
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests").SetInternal(err)
		},
	})
}

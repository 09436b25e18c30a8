package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eduacademy/academy-api/internal/core/domain"
	"github.com/eduacademy/academy-api/internal/core/ports"
)

// Assignments and exams share handlers. The route fixes the kind.

// assessmentRef reads the course id and, when withID is set, the assessment
// id from the path.
func assessmentRef(c echo.Context, kind domain.AssessmentKind, withID bool) (ports.AssessmentRef, error) {
	ref := ports.AssessmentRef{Kind: kind}
	courseID, err := pathID(c, "id")
	if err != nil {
		return ref, err
	}
	ref.CourseID = courseID
	if withID {
		id, err := pathID(c, "assessment_id")
		if err != nil {
			return ref, err
		}
		ref.ID = id
	}
	return ref, nil
}

// --- Instructor ---

// ListStudents handles GET /v1/instructor/courses/:id/students.
func (h *InstructorHandler) ListStudents(c echo.Context) error {
	p, err := principalFrom(c)
	if err != nil {
		return err
	}
	courseID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	students, err := h.service.ListStudents(c.Request().Context(), p.User.ID, courseID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, students)
}

// GetStudent handles GET /v1/instructor/courses/:id/students/:student_id.
func (h *InstructorHandler) GetStudent(c echo.Context) error {
	p, err := principalFrom(c)
	if err != nil {
		return err
	}
	courseID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	studentID, err := pathID(c, "student_id")
	if err != nil {
		return err
	}
	student, err := h.service.GetStudent(c.Request().Context(), p.User.ID, courseID, studentID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, student)
}

// ListReviews handles GET /v1/instructor/courses/:id/reviews.
func (h *InstructorHandler) ListReviews(c echo.Context) error {
	p, err := principalFrom(c)
	if err != nil {
		return err
	}
	courseID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	reviews, err := h.service.ListReviews(c.Request().Context(), p.User.ID, courseID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, reviews)
}

// GetLesson handles GET /v1/instructor/courses/:id/lessons/:lesson_id.
func (h *InstructorHandler) GetLesson(c echo.Context) error {
	p, err := principalFrom(c)
	if err != nil {
		return err
	}
	courseID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	lessonID, err := pathID(c, "lesson_id")
	if err != nil {
		return err
	}
	lesson, err := h.service.GetLesson(c.Request().Context(), p.User.ID, courseID, lessonID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, lesson)
}

// GetRequest handles GET /v1/instructor/courses/:id/requests/:request_id.
func (h *InstructorHandler) GetRequest(c echo.Context) error {
	p, err := principalFrom(c)
	if err != nil {
		return err
	}
	courseID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	requestID, err := pathID(c, "request_id")
	if err != nil {
		return err
	}
	req, err := h.service.GetRequest(c.Request().Context(), p.User.ID, courseID, requestID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, req)
}

// ListAssessments handles GET /v1/instructor/courses/:id/{assignments,exams}.
func (h *InstructorHandler) ListAssessments(kind domain.AssessmentKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := principalFrom(c)
		if err != nil {
			return err
		}
		ref, err := assessmentRef(c, kind, false)
		if err != nil {
			return err
		}
		items, err := h.service.ListAssessments(c.Request().Context(), p.User.ID, ref)
		if err != nil {
			return err
		}
		return respond(c, http.StatusOK, items)
	}
}

// GetAssessment handles GET /v1/instructor/courses/:id/{assignments,exams}/:assessment_id.
func (h *InstructorHandler) GetAssessment(kind domain.AssessmentKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := principalFrom(c)
		if err != nil {
			return err
		}
		ref, err := assessmentRef(c, kind, true)
		if err != nil {
			return err
		}
		a, err := h.service.GetAssessment(c.Request().Context(), p.User.ID, ref)
		if err != nil {
			return err
		}
		return respond(c, http.StatusOK, a)
	}
}

// AddAssessment handles POST /v1/instructor/courses/:id/{assignments,exams}.
//
// @Summary      Add an assignment or exam
// @Tags         instructor
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                true  "Course id"
// @Param        body  body      assessmentRequest  true  "Assessment"
// @Success      201   {object}  dataResponse
// @Failure      400   {object}  map[string]any
// @Failure      403   {object}  map[string]any
// @Router       /v1/instructor/courses/{id}/assignments [post]
// @Router       /v1/instructor/courses/{id}/exams [post]
func (h *InstructorHandler) AddAssessment(kind domain.AssessmentKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := principalFrom(c)
		if err != nil {
			return err
		}
		ref, err := assessmentRef(c, kind, false)
		if err != nil {
			return err
		}
		var req assessmentRequest
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}
		a, err := h.service.AddAssessment(c.Request().Context(), p.User.ID, ref, ports.AssessmentInput(req))
		if err != nil {
			return err
		}
		return respond(c, http.StatusCreated, a)
	}
}

// UpdateAssessment handles PUT /v1/instructor/courses/:id/{assignments,exams}/:assessment_id.
func (h *InstructorHandler) UpdateAssessment(kind domain.AssessmentKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := principalFrom(c)
		if err != nil {
			return err
		}
		ref, err := assessmentRef(c, kind, true)
		if err != nil {
			return err
		}
		var req assessmentRequest
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}
		a, err := h.service.UpdateAssessment(c.Request().Context(), p.User.ID, ref, ports.AssessmentInput(req))
		if err != nil {
			return err
		}
		return respond(c, http.StatusOK, a)
	}
}

// DeleteAssessment handles DELETE /v1/instructor/courses/:id/{assignments,exams}/:assessment_id.
func (h *InstructorHandler) DeleteAssessment(kind domain.AssessmentKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := principalFrom(c)
		if err != nil {
			return err
		}
		ref, err := assessmentRef(c, kind, true)
		if err != nil {
			return err
		}
		if err := h.service.DeleteAssessment(c.Request().Context(), p.User.ID, ref); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// ListSubmissions handles GET .../:assessment_id/submissions.
func (h *InstructorHandler) ListSubmissions(kind domain.AssessmentKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := principalFrom(c)
		if err != nil {
			return err
		}
		ref, err := assessmentRef(c, kind, true)
		if err != nil {
			return err
		}
		subs, err := h.service.ListSubmissions(c.Request().Context(), p.User.ID, ref)
		if err != nil {
			return err
		}
		return respond(c, http.StatusOK, subs)
	}
}

// GradeSubmission handles PUT .../:assessment_id/submissions/:submission_id/grade.
//
// @Summary      Grade a submission
// @Tags         instructor
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id             path      int           true  "Course id"
// @Param        assessment_id  path      int           true  "Assignment id"
// @Param        submission_id  path      int           true  "Submission id"
// @Param        body           body      gradeRequest  true  "Score from 0 to 100"
// @Success      200            {object}  dataResponse
// @Failure      400            {object}  map[string]any
// @Failure      404            {object}  map[string]any
// @Router       /v1/instructor/courses/{id}/assignments/{assessment_id}/submissions/{submission_id}/grade [put]
func (h *InstructorHandler) GradeSubmission(kind domain.AssessmentKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := principalFrom(c)
		if err != nil {
			return err
		}
		ref, err := assessmentRef(c, kind, true)
		if err != nil {
			return err
		}
		submissionID, err := pathID(c, "submission_id")
		if err != nil {
			return err
		}
		var req gradeRequest
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}
		sub, err := h.service.GradeSubmission(c.Request().Context(), p.User.ID, ref, submissionID, *req.Score)
		if err != nil {
			return err
		}
		return respond(c, http.StatusOK, sub)
	}
}

// ClearGrade handles DELETE .../:assessment_id/submissions/:submission_id/grade.
func (h *InstructorHandler) ClearGrade(kind domain.AssessmentKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := principalFrom(c)
		if err != nil {
			return err
		}
		ref, err := assessmentRef(c, kind, true)
		if err != nil {
			return err
		}
		submissionID, err := pathID(c, "submission_id")
		if err != nil {
			return err
		}
		sub, err := h.service.ClearGrade(c.Request().Context(), p.User.ID, ref, submissionID)
		if err != nil {
			return err
		}
		return respond(c, http.StatusOK, sub)
	}
}

// --- Student ---

// ListCourseReviews handles GET /v1/student/courses/:id/reviews.
func (h *StudentHandler) ListCourseReviews(c echo.Context) error {
	courseID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	reviews, err := h.service.ListCourseReviews(c.Request().Context(), courseID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, reviews)
}

// GetRequest handles GET /v1/student/requests/:id.
func (h *StudentHandler) GetRequest(c echo.Context) error {
	p, err := principalFrom(c)
	if err != nil {
		return err
	}
	requestID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	req, err := h.service.GetRequest(c.Request().Context(), p.User.ID, requestID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, req)
}

// GetEnrolledCourse handles GET /v1/student/enrollments/:id.
func (h *StudentHandler) GetEnrolledCourse(c echo.Context) error {
	p, err := principalFrom(c)
	if err != nil {
		return err
	}
	courseID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	course, err := h.service.GetEnrolledCourse(c.Request().Context(), p.User.ID, courseID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, course)
}

// GetEnrolledLesson handles GET /v1/student/enrollments/:id/lessons/:lesson_id.
func (h *StudentHandler) GetEnrolledLesson(c echo.Context) error {
	p, err := principalFrom(c)
	if err != nil {
		return err
	}
	courseID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	lessonID, err := pathID(c, "lesson_id")
	if err != nil {
		return err
	}
	lesson, err := h.service.GetEnrolledLesson(c.Request().Context(), p.User.ID, courseID, lessonID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, lesson)
}

// Unenroll handles DELETE /v1/student/enrollments/:id.
func (h *StudentHandler) Unenroll(c echo.Context) error {
	p, err := principalFrom(c)
	if err != nil {
		return err
	}
	courseID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.Unenroll(c.Request().Context(), p.User.ID, courseID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListAssessments handles GET /v1/student/enrollments/:id/{assignments,exams}.
func (h *StudentHandler) ListAssessments(kind domain.AssessmentKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := principalFrom(c)
		if err != nil {
			return err
		}
		ref, err := assessmentRef(c, kind, false)
		if err != nil {
			return err
		}
		items, err := h.service.ListAssessments(c.Request().Context(), p.User.ID, ref)
		if err != nil {
			return err
		}
		return respond(c, http.StatusOK, items)
	}
}

// GetAssessment handles GET /v1/student/enrollments/:id/{assignments,exams}/:assessment_id.
func (h *StudentHandler) GetAssessment(kind domain.AssessmentKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := principalFrom(c)
		if err != nil {
			return err
		}
		ref, err := assessmentRef(c, kind, true)
		if err != nil {
			return err
		}
		a, err := h.service.GetAssessment(c.Request().Context(), p.User.ID, ref)
		if err != nil {
			return err
		}
		return respond(c, http.StatusOK, a)
	}
}

// SubmitAnswer handles PUT /v1/student/enrollments/:id/{assignments,exams}/:assessment_id/answer.
//
// @Summary      Submit an answer
// @Tags         student
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id             path      int            true  "Course id"
// @Param        assessment_id  path      int            true  "Assignment id"
// @Param        body           body      answerRequest  true  "Answer"
// @Success      200            {object}  dataResponse
// @Failure      403            {object}  map[string]any
// @Failure      409            {object}  map[string]any
// @Router       /v1/student/enrollments/{id}/assignments/{assessment_id}/answer [put]
func (h *StudentHandler) SubmitAnswer(kind domain.AssessmentKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := principalFrom(c)
		if err != nil {
			return err
		}
		ref, err := assessmentRef(c, kind, true)
		if err != nil {
			return err
		}
		var req answerRequest
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}
		sub, err := h.service.SubmitAnswer(c.Request().Context(), p.User.ID, ref, req.Answer)
		if err != nil {
			return err
		}
		return respond(c, http.StatusOK, sub)
	}
}

// GetSubmission handles GET /v1/student/enrollments/:id/{assignments,exams}/:assessment_id/answer.
func (h *StudentHandler) GetSubmission(kind domain.AssessmentKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := principalFrom(c)
		if err != nil {
			return err
		}
		ref, err := assessmentRef(c, kind, true)
		if err != nil {
			return err
		}
		sub, err := h.service.GetSubmission(c.Request().Context(), p.User.ID, ref)
		if err != nil {
			return err
		}
		return respond(c, http.StatusOK, sub)
	}
}

// AddReview handles POST /v1/student/enrollments/:id/review.
func (h *StudentHandler) AddReview(c echo.Context) error {
	return h.writeReview(c, http.StatusCreated, h.service.AddReview)
}

// EditReview handles PUT /v1/student/enrollments/:id/review.
func (h *StudentHandler) EditReview(c echo.Context) error {
	return h.writeReview(c, http.StatusOK, h.service.EditReview)
}

type reviewWriter func(ctx context.Context, studentID, courseID int64, in ports.ReviewInput) (*domain.Review, error)

func (h *StudentHandler) writeReview(c echo.Context, code int, write reviewWriter) error {
	p, err := principalFrom(c)
	if err != nil {
		return err
	}
	courseID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req reviewRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	rev, err := write(c.Request().Context(), p.User.ID, courseID, ports.ReviewInput(req))
	if err != nil {
		return err
	}
	return respond(c, code, rev)
}

// DeleteReview handles DELETE /v1/student/enrollments/:id/review.
func (h *StudentHandler) DeleteReview(c echo.Context) error {
	p, err := principalFrom(c)
	if err != nil {
		return err
	}
	courseID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.DeleteReview(c.Request().Context(), p.User.ID, courseID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

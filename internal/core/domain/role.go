package domain

import (
	"slices"
	"strings"
)

// Role is one of the fixed set of roles an identity can hold.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleInstructor Role = "instructor"
	RoleStudent    Role = "student"
)

// roleMarkerPrefix is prepended to the upper-cased role name to build the
// coarse authority used by route prefix rules.
const roleMarkerPrefix = "ROLE_"

// Capability names one fine-grained permission.
type Capability string

const (
	CapAdminGetCourse         Capability = "admin:get_course"
	CapAdminGetAllCourses     Capability = "admin:get_all_courses"
	CapAdminHideCourse        Capability = "admin:hide_course"
	CapAdminPublishCourse     Capability = "admin:publish_course"
	CapAdminGetStudent        Capability = "admin:get_student"
	CapAdminGetInstructor     Capability = "admin:get_instructor"
	CapAdminGetAllInstructors Capability = "admin:get_all_instructors"

	CapStudentCancelEnrollmentRequest Capability = "student:cancel_enrollment_request"
	CapStudentAddCourseReview         Capability = "student:add_course_review"
	CapStudentDeleteCourseReview      Capability = "student:delete_course_review"
	CapStudentEditCourseReview        Capability = "student:edit_course_review"
	CapStudentGetAllEnrollmentCourses Capability = "student:get_all_enrollment_courses"
	CapStudentSendEnrollmentRequest   Capability = "student:send_enrollment_request"
	CapStudentSubmitAssignmentAnswer  Capability = "student:submit_assignment_answer"

	CapInstructorAddCourse               Capability = "instructor:add_course"
	CapInstructorEditCourse              Capability = "instructor:edit_course"
	CapInstructorGetMyCourse             Capability = "instructor:get_my_course"
	CapInstructorDeleteCourse            Capability = "instructor:delete_course"
	CapInstructorAddCourseLesson         Capability = "instructor:add_course_lesson"
	CapInstructorAcceptEnrollmentRequest Capability = "instructor:accept_enrollment_request"
	CapInstructorAddCourseAssignment     Capability = "instructor:add_course_assignment"
	CapInstructorDeleteCourseAssignment  Capability = "instructor:delete_course_assignment"
	CapInstructorDeleteCourseLesson      Capability = "instructor:delete_course_lesson"
	CapInstructorEditCourseAssignment    Capability = "instructor:edit_course_assignment"
	CapInstructorEditCourseLesson        Capability = "instructor:edit_course_lesson"
	CapInstructorGetAllMyCourses         Capability = "instructor:get_all_my_courses"
)

// grants is the role to capability table. It is built once at package
// initialisation and never written afterwards; readers only get copies.
var grants = map[Role][]Capability{
	RoleAdmin: sorted(
		CapAdminGetCourse,
		CapAdminGetAllCourses,
		CapAdminHideCourse,
		CapAdminPublishCourse,
		CapAdminGetStudent,
		CapAdminGetInstructor,
		CapAdminGetAllInstructors,
	),
	RoleStudent: sorted(
		CapStudentCancelEnrollmentRequest,
		CapStudentAddCourseReview,
		CapStudentDeleteCourseReview,
		CapStudentEditCourseReview,
		CapStudentGetAllEnrollmentCourses,
		CapStudentSendEnrollmentRequest,
		CapStudentSubmitAssignmentAnswer,
	),
	RoleInstructor: sorted(
		CapInstructorAddCourse,
		CapInstructorEditCourse,
		CapInstructorGetMyCourse,
		CapInstructorDeleteCourse,
		CapInstructorAddCourseLesson,
		CapInstructorAcceptEnrollmentRequest,
		CapInstructorAddCourseAssignment,
		CapInstructorDeleteCourseAssignment,
		CapInstructorDeleteCourseLesson,
		CapInstructorEditCourseAssignment,
		CapInstructorEditCourseLesson,
		CapInstructorGetAllMyCourses,
	),
}

func sorted(caps ...Capability) []Capability {
	slices.Sort(caps)
	return caps
}

// Roles lists every role in a stable order.
func Roles() []Role {
	return []Role{RoleAdmin, RoleInstructor, RoleStudent}
}

// ParseRole maps the case-sensitive wire name of a role to a Role.
func ParseRole(name string) (Role, error) {
	switch Role(name) {
	case RoleAdmin, RoleInstructor, RoleStudent:
		return Role(name), nil
	default:
		return "", ErrUnknownRole
	}
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	_, ok := grants[r]
	return ok
}

// Marker returns the coarse authority for r, e.g. "ROLE_INSTRUCTOR".
// Invalid roles have no marker.
func (r Role) Marker() string {
	if !r.Valid() {
		return ""
	}
	return roleMarkerPrefix + strings.ToUpper(string(r))
}

// Capabilities returns the capabilities granted to r, sorted. The result is a
// fresh slice on every call.
func Capabilities(r Role) []Capability {
	return slices.Clone(grants[r])
}

// Authorities returns the role marker followed by every capability of r.
func Authorities(r Role) []string {
	caps := grants[r]
	if len(caps) == 0 {
		return nil
	}
	out := make([]string, 0, len(caps)+1)
	out = append(out, r.Marker())
	for _, c := range caps {
		out = append(out, string(c))
	}
	return out
}

package school

import "github.com/trezcool/academia/core"

var (
	// errors
	ErrSemesterNotFound   = core.NewNotFoundError("semester", "")
	ErrCourseNotFound     = core.NewNotFoundError("course", "")
	ErrEnrollmentNotFound = core.NewNotFoundError("enrollment", "")
	ErrAssignmentNotFound = core.NewNotFoundError("assignment", "")
	ErrSubmissionNotFound = core.NewNotFoundError("submission", "")
	ErrStudentNotFound    = core.NewNotFoundError("student", "")
)

func FindCourse(courses []Course, id string) (Course, bool) {
	for _, c := range courses {
		if c.ID == id {
			return c, true
		}
	}
	return Course{}, false
}

func FindAssignment(assignments []Assignment, id string) (Assignment, bool) {
	for _, a := range assignments {
		if a.ID == id {
			return a, true
		}
	}
	return Assignment{}, false
}

func FindSemester(semesters []Semester, id string) (Semester, bool) {
	for _, s := range semesters {
		if s.ID == id {
			return s, true
		}
	}
	return Semester{}, false
}

// CourseCodes maps course IDs to their codes.
func CourseCodes(courses []Course) map[string]string {
	codes := make(map[string]string, len(courses))
	for _, c := range courses {
		codes[c.ID] = c.Code
	}
	return codes
}

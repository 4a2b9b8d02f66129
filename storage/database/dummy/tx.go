package dummydb

import (
	"context"

	"github.com/trezcool/academia/core/school"
	"github.com/trezcool/academia/core/user"
)

// tx owns its state exclusively, so reads return copies and writes mutate in place.
type tx struct {
	state *state
}

var _ school.Tx = (*tx)(nil)

func (t *tx) ListSemesters(context.Context) ([]school.Semester, error) {
	return append([]school.Semester{}, t.state.semesters...), nil
}

func (t *tx) ListCourses(context.Context) ([]school.Course, error) {
	return append([]school.Course{}, t.state.courses...), nil
}

func (t *tx) ListEnrollments(context.Context) ([]school.Enrollment, error) {
	return append([]school.Enrollment{}, t.state.enrollments...), nil
}

func (t *tx) ListUsers(context.Context) ([]user.User, error) {
	users := make([]user.User, 0, len(t.state.users))
	for _, u := range t.state.users {
		users = append(users, u.Clone())
	}
	return users, nil
}

func (t *tx) ListAssignments(context.Context) ([]school.Assignment, error) {
	assignments := make([]school.Assignment, 0, len(t.state.assignments))
	for _, a := range t.state.assignments {
		assignments = append(assignments, a.Clone())
	}
	return assignments, nil
}

func (t *tx) ListSubmissions(context.Context) ([]school.Submission, error) {
	submissions := make([]school.Submission, 0, len(t.state.submissions))
	for _, s := range t.state.submissions {
		submissions = append(submissions, s.Clone())
	}
	return submissions, nil
}

func (t *tx) GetSettings(context.Context) (school.Settings, error) {
	return t.state.settings, nil
}

func (t *tx) AppendEnrollment(_ context.Context, e school.Enrollment) error {
	t.state.enrollments = append(t.state.enrollments, e)
	return nil
}

func (t *tx) RemoveEnrollment(_ context.Context, id string) ([]school.Enrollment, error) {
	for i, e := range t.state.enrollments {
		if e.ID == id {
			t.state.enrollments = append(t.state.enrollments[:i:i], t.state.enrollments[i+1:]...)
			return append([]school.Enrollment{}, t.state.enrollments...), nil
		}
	}
	return nil, school.ErrEnrollmentNotFound
}

func (t *tx) ReplaceEnrollments(_ context.Context, list []school.Enrollment) error {
	t.state.enrollments = append([]school.Enrollment(nil), list...)
	return nil
}

func (t *tx) AppendCourses(_ context.Context, list []school.Course) error {
	t.state.courses = append(t.state.courses, list...)
	return nil
}

func (t *tx) ReplaceCourses(_ context.Context, list []school.Course) error {
	t.state.courses = append([]school.Course(nil), list...)
	return nil
}

func (t *tx) UpsertAssignment(_ context.Context, a school.Assignment) error {
	a = a.Clone()
	for i, orig := range t.state.assignments {
		if orig.ID == a.ID {
			t.state.assignments[i] = a
			return nil
		}
	}
	t.state.assignments = append(t.state.assignments, a)
	return nil
}

func (t *tx) RemoveAssignment(_ context.Context, id string) error {
	for i, a := range t.state.assignments {
		if a.ID == id {
			t.state.assignments = append(t.state.assignments[:i:i], t.state.assignments[i+1:]...)
			return nil
		}
	}
	return school.ErrAssignmentNotFound
}

func (t *tx) ReplaceSubmissions(_ context.Context, list []school.Submission) error {
	submissions := make([]school.Submission, len(list))
	for i, s := range list {
		submissions[i] = s.Clone()
	}
	t.state.submissions = submissions
	return nil
}

func (t *tx) AppendSemester(_ context.Context, s school.Semester) error {
	t.state.semesters = append(t.state.semesters, s)
	return nil
}

func (t *tx) AppendUser(_ context.Context, u user.User) error {
	t.state.users = append(t.state.users, u.Clone())
	return nil
}

func (t *tx) SaveSettings(_ context.Context, s school.Settings) error {
	t.state.settings = s
	return nil
}

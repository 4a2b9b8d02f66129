package badgerdb

import (
	"context"
	"encoding/json"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/school"
	"github.com/trezcool/academia/core/user"
)

// keys
const (
	semestersKey   = "semesters"
	coursesKey     = "courses"
	enrollmentsKey = "enrollments"
	usersKey       = "users"
	assignmentsKey = "assignments"
	submissionsKey = "submissions"
	settingsKey    = "settings"
)

// tx decodes on every read, so reads are always fresh copies.
type tx struct {
	txn *badger.Txn
}

var _ school.Tx = (*tx)(nil)

// load decodes the value at key into v; a missing key leaves v untouched.
func (t *tx) load(key string, v interface{}) error {
	item, err := t.txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return core.StoreError(err, "reading "+key)
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
	return core.StoreError(err, "decoding "+key)
}

func (t *tx) save(key string, v interface{}) error {
	val, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "encoding "+key)
	}
	return core.StoreError(t.txn.Set([]byte(key), val), "writing "+key)
}

func (t *tx) ListSemesters(context.Context) ([]school.Semester, error) {
	semesters := []school.Semester{}
	return semesters, t.load(semestersKey, &semesters)
}

func (t *tx) ListCourses(context.Context) ([]school.Course, error) {
	courses := []school.Course{}
	return courses, t.load(coursesKey, &courses)
}

func (t *tx) ListEnrollments(context.Context) ([]school.Enrollment, error) {
	enrollments := []school.Enrollment{}
	return enrollments, t.load(enrollmentsKey, &enrollments)
}

func (t *tx) ListUsers(context.Context) ([]user.User, error) {
	users := []user.User{}
	return users, t.load(usersKey, &users)
}

func (t *tx) ListAssignments(context.Context) ([]school.Assignment, error) {
	assignments := []school.Assignment{}
	return assignments, t.load(assignmentsKey, &assignments)
}

func (t *tx) ListSubmissions(context.Context) ([]school.Submission, error) {
	submissions := []school.Submission{}
	return submissions, t.load(submissionsKey, &submissions)
}

func (t *tx) GetSettings(context.Context) (school.Settings, error) {
	var settings school.Settings
	return settings, t.load(settingsKey, &settings)
}

func (t *tx) AppendEnrollment(ctx context.Context, e school.Enrollment) error {
	enrollments, err := t.ListEnrollments(ctx)
	if err != nil {
		return err
	}
	return t.save(enrollmentsKey, append(enrollments, e))
}

func (t *tx) RemoveEnrollment(ctx context.Context, id string) ([]school.Enrollment, error) {
	enrollments, err := t.ListEnrollments(ctx)
	if err != nil {
		return nil, err
	}
	for i, e := range enrollments {
		if e.ID == id {
			remaining := append(enrollments[:i:i], enrollments[i+1:]...)
			return remaining, t.save(enrollmentsKey, remaining)
		}
	}
	return nil, school.ErrEnrollmentNotFound
}

func (t *tx) ReplaceEnrollments(_ context.Context, list []school.Enrollment) error {
	if list == nil {
		list = []school.Enrollment{}
	}
	return t.save(enrollmentsKey, list)
}

func (t *tx) AppendCourses(ctx context.Context, list []school.Course) error {
	if len(list) == 0 {
		return nil
	}
	courses, err := t.ListCourses(ctx)
	if err != nil {
		return err
	}
	return t.save(coursesKey, append(courses, list...))
}

func (t *tx) ReplaceCourses(_ context.Context, list []school.Course) error {
	if list == nil {
		list = []school.Course{}
	}
	return t.save(coursesKey, list)
}

func (t *tx) UpsertAssignment(ctx context.Context, a school.Assignment) error {
	assignments, err := t.ListAssignments(ctx)
	if err != nil {
		return err
	}
	for i, orig := range assignments {
		if orig.ID == a.ID {
			assignments[i] = a
			return t.save(assignmentsKey, assignments)
		}
	}
	return t.save(assignmentsKey, append(assignments, a))
}

func (t *tx) RemoveAssignment(ctx context.Context, id string) error {
	assignments, err := t.ListAssignments(ctx)
	if err != nil {
		return err
	}
	for i, a := range assignments {
		if a.ID == id {
			return t.save(assignmentsKey, append(assignments[:i:i], assignments[i+1:]...))
		}
	}
	return school.ErrAssignmentNotFound
}

func (t *tx) ReplaceSubmissions(_ context.Context, list []school.Submission) error {
	if list == nil {
		list = []school.Submission{}
	}
	return t.save(submissionsKey, list)
}

func (t *tx) AppendSemester(ctx context.Context, s school.Semester) error {
	semesters, err := t.ListSemesters(ctx)
	if err != nil {
		return err
	}
	return t.save(semestersKey, append(semesters, s))
}

func (t *tx) AppendUser(ctx context.Context, u user.User) error {
	users, err := t.ListUsers(ctx)
	if err != nil {
		return err
	}
	return t.save(usersKey, append(users, u))
}

func (t *tx) SaveSettings(_ context.Context, s school.Settings) error {
	return t.save(settingsKey, s)
}

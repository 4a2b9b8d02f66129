// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/school"
	"github.com/trezcool/academia/core/user"
	dummydb "github.com/trezcool/academia/storage/database/dummy"
)

func NewStore(t *testing.T) *dummydb.DB {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// NewValidator returns a validator with the global validators registered.
// Packages register their own on top of it.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	return validate, translator
}

func update(t *testing.T, store school.Store, fn func(tx school.Tx) error) {
	t.Helper()
	if err := store.Update(context.Background(), fn); err != nil {
		t.Fatalf("store.Update() failed: %v", err)
	}
}

func CreateUser(t *testing.T, store school.Store, name string, roles ...string) user.User {
	t.Helper()
	usr := user.User{
		ID:        uuid.New().String(),
		Name:      name,
		Username:  name,
		IsActive:  true,
		Roles:     roles,
		CreatedAt: time.Now().UTC(),
	}
	update(t, store, func(tx school.Tx) error { return tx.AppendUser(context.Background(), usr) })
	return usr
}

func CreateStudent(t *testing.T, store school.Store, name string) user.User {
	t.Helper()
	return CreateUser(t, store, name, user.RoleStudent)
}

func CreateSemester(t *testing.T, store school.Store, id string) school.Semester {
	t.Helper()
	sem := school.Semester{ID: id, Name: id, CreatedAt: time.Now().UTC()}
	update(t, store, func(tx school.Tx) error { return tx.AppendSemester(context.Background(), sem) })
	return sem
}

func CreateCourse(t *testing.T, store school.Store, code, semesterID string) school.Course {
	t.Helper()
	course := school.Course{
		ID:                  uuid.New().String(),
		Code:                code,
		SemesterID:          semesterID,
		Title:               "Course " + code,
		RegistrationEnabled: true,
		CreatedAt:           time.Now().UTC(),
	}
	update(t, store, func(tx school.Tx) error {
		return tx.AppendCourses(context.Background(), []school.Course{course})
	})
	return course
}

// CreateCourses creates n courses with distinct codes, named after prefix.
func CreateCourses(t *testing.T, store school.Store, prefix, semesterID string, n int) []school.Course {
	t.Helper()
	courses := make([]school.Course, n)
	for i := range courses {
		courses[i] = CreateCourse(t, store, fmt.Sprintf("%s%d", prefix, i+1), semesterID)
	}
	return courses
}

// Enroll appends an enrollment directly, bypassing the enrollment rules.
func Enroll(t *testing.T, store school.Store, studentID, courseID, semesterID string) school.Enrollment {
	t.Helper()
	enr := school.Enrollment{
		ID:         uuid.New().String(),
		StudentID:  studentID,
		CourseID:   courseID,
		SemesterID: semesterID,
		EnrolledAt: time.Now().UTC(),
	}
	update(t, store, func(tx school.Tx) error { return tx.AppendEnrollment(context.Background(), enr) })
	return enr
}

func CreateAssignment(t *testing.T, store school.Store, a school.Assignment) school.Assignment {
	t.Helper()
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.Type == "" {
		a.Type = school.TypeMCQ
	}
	if a.MaxScore == 0 {
		a.MaxScore = core.DefaultMaxScore
	}
	if a.Deadline.IsZero() {
		a.Deadline = time.Now().Add(24 * time.Hour).UTC()
	}
	a.CreatedAt = time.Now().UTC()
	a.UpdatedAt = a.CreatedAt
	update(t, store, func(tx school.Tx) error { return tx.UpsertAssignment(context.Background(), a) })
	return a
}

// MCQ builds questions q1..qn with the given correct answers.
func MCQ(correct ...string) []school.Question {
	qs := make([]school.Question, len(correct))
	for i, c := range correct {
		qs[i] = school.Question{
			ID:            fmt.Sprintf("q%d", i+1),
			Text:          fmt.Sprintf("Question %d", i+1),
			Options:       []string{"a", "b", "c", "d"},
			CorrectAnswer: c,
		}
	}
	return qs
}

// CreateSubmissions appends submissions in one write, filling missing IDs.
func CreateSubmissions(t *testing.T, store school.Store, subs ...school.Submission) []school.Submission {
	t.Helper()
	for i := range subs {
		if subs[i].ID == "" {
			subs[i].ID = uuid.New().String()
		}
		if subs[i].SubmittedAt.IsZero() {
			subs[i].SubmittedAt = time.Now().UTC()
		}
	}
	update(t, store, func(tx school.Tx) error {
		existing, err := tx.ListSubmissions(context.Background())
		if err != nil {
			return err
		}
		return tx.ReplaceSubmissions(context.Background(), append(existing, subs...))
	})
	return subs
}

func ListSubmissions(t *testing.T, store school.Store) []school.Submission {
	t.Helper()
	var subs []school.Submission
	err := store.View(context.Background(), func(r school.Reader) (err error) {
		subs, err = r.ListSubmissions(context.Background())
		return err
	})
	if err != nil {
		t.Fatalf("ListSubmissions() failed: %v", err)
	}
	return subs
}

func ListEnrollments(t *testing.T, store school.Store) []school.Enrollment {
	t.Helper()
	var enrollments []school.Enrollment
	err := store.View(context.Background(), func(r school.Reader) (err error) {
		enrollments, err = r.ListEnrollments(context.Background())
		return err
	})
	if err != nil {
		t.Fatalf("ListEnrollments() failed: %v", err)
	}
	return enrollments
}

func ListCourses(t *testing.T, store school.Store) []school.Course {
	t.Helper()
	var courses []school.Course
	err := store.View(context.Background(), func(r school.Reader) (err error) {
		courses, err = r.ListCourses(context.Background())
		return err
	})
	if err != nil {
		t.Fatalf("ListCourses() failed: %v", err)
	}
	return courses
}

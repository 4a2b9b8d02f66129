// Package storetest checks that a school.Store honours the store contract.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/school"
	"github.com/trezcool/academia/core/user"
)

// Run runs the contract tests, each against a new empty store.
func Run(t *testing.T, newStore func(t *testing.T) school.Store) {
	tests := []struct {
		name string
		fn   func(t *testing.T, store school.Store)
	}{
		{name: "semesters & settings", fn: testSemesters},
		{name: "users", fn: testUsers},
		{name: "courses", fn: testCourses},
		{name: "enrollments", fn: testEnrollments},
		{name: "assignments & submissions", fn: testAssignments},
		{name: "rollback", fn: testRollback},
		{name: "snapshots", fn: testSnapshots},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

var (
	ctx  = context.Background()
	when = time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)
)

func update(t *testing.T, store school.Store, fn func(tx school.Tx) error) {
	t.Helper()
	require.NoError(t, store.Update(ctx, fn))
}

func view(t *testing.T, store school.Store, fn func(r school.Reader) error) {
	t.Helper()
	require.NoError(t, store.View(ctx, fn))
}

func testSemesters(t *testing.T, store school.Store) {
	sem := school.Semester{ID: "fall24", Name: "Fall 2024", CreatedAt: when}
	settings := school.Settings{ActiveSemesterID: "fall24", DefaultSemesterID: school.DefaultSemesterID}

	view(t, store, func(r school.Reader) error {
		got, err := r.GetSettings(ctx)
		require.NoError(t, err)
		assert.Equal(t, school.Settings{}, got)
		return nil
	})

	update(t, store, func(tx school.Tx) error {
		if err := tx.AppendSemester(ctx, sem); err != nil {
			return err
		}
		return tx.SaveSettings(ctx, settings)
	})

	view(t, store, func(r school.Reader) error {
		semesters, err := r.ListSemesters(ctx)
		require.NoError(t, err)
		assert.Equal(t, []school.Semester{sem}, semesters)

		got, err := r.GetSettings(ctx)
		require.NoError(t, err)
		assert.Equal(t, settings, got)
		return nil
	})
}

func testUsers(t *testing.T, store school.Store) {
	usr := user.User{ID: "u1", Name: "Ann", Username: "ann", Email: "ann@test.test", IsActive: true, Roles: []string{user.RoleStudent}, CreatedAt: when}
	update(t, store, func(tx school.Tx) error { return tx.AppendUser(ctx, usr) })

	view(t, store, func(r school.Reader) error {
		users, err := r.ListUsers(ctx)
		require.NoError(t, err)
		assert.Equal(t, []user.User{usr}, users)
		return nil
	})
}

func testCourses(t *testing.T, store school.Store) {
	c1 := school.Course{ID: "c1", Code: "CS1", SemesterID: "fall24", Title: "Algorithms", TitleAr: "خوارزميات", Day: "Mon", Time: "10:00", RegistrationEnabled: true, Links: school.CourseLinks{Chat: "https://chat.test"}, CreatedAt: when}
	c2 := school.Course{ID: "c2", Code: "CS2", Title: "Legacy", CreatedAt: when}
	c3 := school.Course{ID: "c3", Code: "CS3", SemesterID: "spring25", Title: "Networks", CreatedAt: when}

	update(t, store, func(tx school.Tx) error { return tx.AppendCourses(ctx, []school.Course{c1, c2}) })
	update(t, store, func(tx school.Tx) error { return tx.AppendCourses(ctx, nil) })
	view(t, store, func(r school.Reader) error {
		courses, err := r.ListCourses(ctx)
		require.NoError(t, err)
		assert.Equal(t, []school.Course{c1, c2}, courses)
		return nil
	})

	update(t, store, func(tx school.Tx) error { return tx.ReplaceCourses(ctx, []school.Course{c3}) })
	view(t, store, func(r school.Reader) error {
		courses, err := r.ListCourses(ctx)
		require.NoError(t, err)
		assert.Equal(t, []school.Course{c3}, courses)
		return nil
	})
}

func testEnrollments(t *testing.T, store school.Store) {
	e1 := school.Enrollment{ID: "e1", StudentID: "u1", CourseID: "c1", SemesterID: "fall24", EnrolledAt: when}
	e2 := school.Enrollment{ID: "e2", StudentID: "u1", CourseID: "c2", EnrolledAt: when.Add(time.Minute)}
	e3 := school.Enrollment{ID: "e3", StudentID: "u2", CourseID: "c1", SemesterID: "fall24", Outcome: school.OutcomeFailed, EnrolledAt: when.Add(2 * time.Minute)}

	update(t, store, func(tx school.Tx) error {
		for _, e := range []school.Enrollment{e1, e2, e3} {
			if err := tx.AppendEnrollment(ctx, e); err != nil {
				return err
			}
		}
		return nil
	})

	update(t, store, func(tx school.Tx) error {
		remaining, err := tx.RemoveEnrollment(ctx, "e2")
		require.NoError(t, err)
		assert.Equal(t, []school.Enrollment{e1, e3}, remaining)

		_, err = tx.RemoveEnrollment(ctx, "nope")
		assert.True(t, errors.Is(err, school.ErrEnrollmentNotFound), "got %v", err)
		return nil
	})

	e1.Outcome = school.OutcomePassed
	update(t, store, func(tx school.Tx) error { return tx.ReplaceEnrollments(ctx, []school.Enrollment{e1}) })
	view(t, store, func(r school.Reader) error {
		enrollments, err := r.ListEnrollments(ctx)
		require.NoError(t, err)
		assert.Equal(t, []school.Enrollment{e1}, enrollments)
		return nil
	})
}

func testAssignments(t *testing.T, store school.Store) {
	a := school.Assignment{
		ID:         "a1",
		CourseID:   "c1",
		SemesterID: "fall24",
		Title:      "Quiz",
		Type:       school.TypeMCQ,
		Deadline:   when.Add(7 * 24 * time.Hour),
		Questions: []school.Question{
			{ID: "q1", Text: "1+1", Options: []string{"1", "2", "3", "4"}, CorrectAnswer: "2"},
			{ID: "q2", Text: "2+2", Options: []string{"4", "", "", ""}},
		},
		MaxScore:  20,
		CreatedAt: when,
		UpdatedAt: when,
	}
	update(t, store, func(tx school.Tx) error { return tx.UpsertAssignment(ctx, a) })

	a.Title = "Quiz (edited)"
	a.ShowResults = true
	update(t, store, func(tx school.Tx) error { return tx.UpsertAssignment(ctx, a) })

	subs := []school.Submission{
		{ID: "s1", AssignmentID: "a1", StudentID: "u1", CourseID: "c1", SubmittedAt: when, Answers: map[string]string{"q1": "2"}, Grade: "1/2"},
		{ID: "s2", AssignmentID: "a1", StudentID: "u2", CourseID: "c1", SubmittedAt: when, FileURL: "https://files.test/s2"},
	}
	update(t, store, func(tx school.Tx) error { return tx.ReplaceSubmissions(ctx, subs) })

	view(t, store, func(r school.Reader) error {
		assignments, err := r.ListAssignments(ctx)
		require.NoError(t, err)
		assert.Equal(t, []school.Assignment{a}, assignments)

		got, err := r.ListSubmissions(ctx)
		require.NoError(t, err)
		assert.Equal(t, subs, got)
		return nil
	})

	update(t, store, func(tx school.Tx) error {
		assert.True(t, errors.Is(tx.RemoveAssignment(ctx, "nope"), school.ErrAssignmentNotFound))
		if err := tx.RemoveAssignment(ctx, "a1"); err != nil {
			return err
		}
		return tx.ReplaceSubmissions(ctx, nil)
	})
	view(t, store, func(r school.Reader) error {
		assignments, err := r.ListAssignments(ctx)
		require.NoError(t, err)
		assert.Empty(t, assignments)

		got, err := r.ListSubmissions(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)
		return nil
	})
}

func testRollback(t *testing.T, store school.Store) {
	errBoom := errors.New("boom")
	err := store.Update(ctx, func(tx school.Tx) error {
		if err := tx.AppendCourses(ctx, []school.Course{{ID: "c1", Code: "CS1", CreatedAt: when}}); err != nil {
			return err
		}
		if err := tx.UpsertAssignment(ctx, school.Assignment{ID: "a1", CourseID: "c1", Type: school.TypeFile, CreatedAt: when}); err != nil {
			return err
		}
		return errBoom
	})
	assert.True(t, errors.Is(err, errBoom), "got %v", err)

	view(t, store, func(r school.Reader) error {
		courses, err := r.ListCourses(ctx)
		require.NoError(t, err)
		assert.Empty(t, courses)

		assignments, err := r.ListAssignments(ctx)
		require.NoError(t, err)
		assert.Empty(t, assignments)
		return nil
	})

	// writes are visible within their own transaction
	update(t, store, func(tx school.Tx) error {
		require.NoError(t, tx.AppendEnrollment(ctx, school.Enrollment{ID: "e1", StudentID: "u1", CourseID: "c1", EnrolledAt: when}))
		enrollments, err := tx.ListEnrollments(ctx)
		require.NoError(t, err)
		assert.Len(t, enrollments, 1)
		return nil
	})
}

func testSnapshots(t *testing.T, store school.Store) {
	a := school.Assignment{
		ID: "a1", CourseID: "c1", Type: school.TypeMCQ, CreatedAt: when,
		Questions: []school.Question{{ID: "q1", Options: []string{"x", "y"}, CorrectAnswer: "x"}},
	}
	sub := school.Submission{ID: "s1", AssignmentID: "a1", StudentID: "u1", SubmittedAt: when, Answers: map[string]string{"q1": "x"}}
	update(t, store, func(tx school.Tx) error {
		if err := tx.UpsertAssignment(ctx, a); err != nil {
			return err
		}
		return tx.ReplaceSubmissions(ctx, []school.Submission{sub})
	})

	// mutate what was written and what was read
	a.Questions[0].Options[0] = "changed"
	sub.Answers["q1"] = "changed"
	view(t, store, func(r school.Reader) error {
		assignments, err := r.ListAssignments(ctx)
		require.NoError(t, err)
		assignments[0].Questions[0].CorrectAnswer = "changed"
		assignments[0].Questions[0].Options[1] = "changed"

		subs, err := r.ListSubmissions(ctx)
		require.NoError(t, err)
		subs[0].Answers["q1"] = "changed"
		return nil
	})

	view(t, store, func(r school.Reader) error {
		assignments, err := r.ListAssignments(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"x", "y"}, assignments[0].Questions[0].Options)
		assert.Equal(t, "x", assignments[0].Questions[0].CorrectAnswer)

		subs, err := r.ListSubmissions(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"q1": "x"}, subs[0].Answers)
		return nil
	})
}

// IsConflict reports whether err is a concurrent modification reported by the store.
func IsConflict(err error) bool {
	return errors.Is(err, core.ErrConflict)
}

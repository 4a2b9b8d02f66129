package school

import (
	"context"

	"github.com/trezcool/academia/core/user"
)

type (
	// Reader exposes snapshots of the entities. Every call returns fresh slices;
	// mutating them never affects the store.
	Reader interface {
		ListSemesters(ctx context.Context) ([]Semester, error)
		ListCourses(ctx context.Context) ([]Course, error)
		ListEnrollments(ctx context.Context) ([]Enrollment, error)
		ListUsers(ctx context.Context) ([]user.User, error)
		ListAssignments(ctx context.Context) ([]Assignment, error)
		ListSubmissions(ctx context.Context) ([]Submission, error)
		GetSettings(ctx context.Context) (Settings, error)
	}

	// Tx is a unit of work. Its writes are only visible to others once the
	// surrounding Store.Update returns successfully.
	Tx interface {
		Reader

		AppendEnrollment(ctx context.Context, e Enrollment) error
		// RemoveEnrollment returns the remaining enrollments or an ErrEnrollmentNotFound error.
		RemoveEnrollment(ctx context.Context, id string) ([]Enrollment, error)
		ReplaceEnrollments(ctx context.Context, list []Enrollment) error

		AppendCourses(ctx context.Context, list []Course) error
		ReplaceCourses(ctx context.Context, list []Course) error

		UpsertAssignment(ctx context.Context, a Assignment) error
		// RemoveAssignment returns an ErrAssignmentNotFound error when id is unknown.
		RemoveAssignment(ctx context.Context, id string) error
		ReplaceSubmissions(ctx context.Context, list []Submission) error

		AppendSemester(ctx context.Context, s Semester) error
		AppendUser(ctx context.Context, u user.User) error
		SaveSettings(ctx context.Context, s Settings) error
	}

	// Store is the EntityStore collaborator of the rules engines.
	//
	// Update runs fn against a consistent snapshot and commits all of its writes atomically:
	// if fn returns an error, or the commit fails, none of the writes are visible.
	// Stores must reject a commit whose snapshot was invalidated by a concurrent Update
	// with core.ErrConflict (or serialize Updates), so that read-check-write sequences
	// such as the enrollment quota check cannot interleave.
	Store interface {
		View(ctx context.Context, fn func(r Reader) error) error
		Update(ctx context.Context, fn func(tx Tx) error) error
		Close() error
	}
)

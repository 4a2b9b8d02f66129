package dummydb

import (
	"context"
	"sync"

	"github.com/trezcool/academia/core/school"
	"github.com/trezcool/academia/core/user"
)

type (
	// DB is an in-memory school.Store. Updates are serialized: each one works on a private
	// copy of the state which replaces the shared state only when the update succeeds.
	DB struct {
		sync.RWMutex
		state *state
	}

	state struct {
		semesters   []school.Semester
		courses     []school.Course
		enrollments []school.Enrollment
		users       []user.User
		assignments []school.Assignment
		submissions []school.Submission
		settings    school.Settings
	}
)

var _ school.Store = (*DB)(nil) // interface compliance check

func Open() (*DB, error) {
	return &DB{state: new(state)}, nil
}

func (db *DB) Close() error { return nil }

func (db *DB) View(ctx context.Context, fn func(r school.Reader) error) error {
	db.RLock()
	defer db.RUnlock()
	return fn(&tx{state: db.state}) // readers only get copies
}

func (db *DB) Update(ctx context.Context, fn func(tx school.Tx) error) error {
	db.Lock()
	defer db.Unlock()

	t := &tx{state: db.state.clone()}
	if err := fn(t); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	db.state = t.state
	return nil
}

func (s *state) clone() *state {
	c := &state{
		semesters:   append([]school.Semester(nil), s.semesters...),
		courses:     append([]school.Course(nil), s.courses...),
		enrollments: append([]school.Enrollment(nil), s.enrollments...),
		users:       make([]user.User, len(s.users)),
		assignments: make([]school.Assignment, len(s.assignments)),
		submissions: make([]school.Submission, len(s.submissions)),
		settings:    s.settings,
	}
	for i, u := range s.users {
		c.users[i] = u.Clone()
	}
	for i, a := range s.assignments {
		c.assignments[i] = a.Clone()
	}
	for i, sub := range s.submissions {
		c.submissions[i] = sub.Clone()
	}
	return c
}

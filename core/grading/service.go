// Package grading sets the grades of submissions, by hand or by scoring multiple-choice answers.
//
// An operation targeting unknown submissions or assignments is a no-op, not an error: callers tell
// the two apart by the submissions returned, which are exactly the ones that changed.
package grading

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/school"
)

var ErrNotAutoGradable = errors.New("only multiple-choice assignments can be graded automatically")

type Service struct {
	store           school.Store
	logger          core.Logger
	defaultMaxScore int
}

func NewService(store school.Store, logger core.Logger, conf *core.Config) *Service {
	return &Service{store: store, logger: logger, defaultMaxScore: conf.Grading.MaxScore()}
}

// Calculate scores a submission against the assignment's questions: one point per question
// answered with exactly its correct answer. Questions without a correct answer never score
// but still count towards the total.
func Calculate(sub school.Submission, a school.Assignment) string {
	var score int
	for _, q := range a.Questions {
		if q.CorrectAnswer == "" {
			continue
		}
		if ans, ok := sub.Answers[q.ID]; ok && ans == q.CorrectAnswer {
			score++
		}
	}
	return school.FormatScore(score, len(a.Questions))
}

// grader returns the new grade of a submission, and false to leave it alone.
type grader func(sub school.Submission, assignments []school.Assignment) (string, bool)

// regrade applies g to every submission in one write and returns the ones it changed.
// A non-nil check may abort the write after looking at the assignments.
func (svc *Service) regrade(ctx context.Context, check func([]school.Assignment) error, g grader) ([]school.Submission, error) {
	var changed []school.Submission
	err := svc.store.Update(ctx, func(tx school.Tx) error {
		changed = nil

		assignments, err := tx.ListAssignments(ctx)
		if err != nil {
			return core.StoreError(err, "listing assignments")
		}
		if check != nil {
			if err = check(assignments); err != nil {
				return err
			}
		}
		subs, err := tx.ListSubmissions(ctx)
		if err != nil {
			return core.StoreError(err, "listing submissions")
		}

		for i, s := range subs {
			grade, ok := g(s, assignments)
			if !ok {
				continue
			}
			s.Grade = grade
			subs[i] = s
			changed = append(changed, s)
		}
		if len(changed) == 0 {
			return nil
		}
		return core.StoreError(tx.ReplaceSubmissions(ctx, subs), "saving grades")
	})
	if err != nil {
		return nil, err
	}
	if changed == nil {
		changed = []school.Submission{}
	}
	return changed, nil
}

// SetGrade overwrites the grade of one submission. Grades are free-form, eg. "18/20" or "A".
func (svc *Service) SetGrade(ctx context.Context, submissionID, grade string) ([]school.Submission, error) {
	changed, err := svc.regrade(ctx, nil, func(s school.Submission, _ []school.Assignment) (string, bool) {
		return grade, s.ID == submissionID
	})
	if err != nil {
		return nil, err
	}
	svc.logChanges("grade set", changed, map[string]interface{}{"submission": submissionID})
	return changed, nil
}

// AutoGradeMCQ scores every submission of a multiple-choice assignment, replacing any grade
// they had.
func (svc *Service) AutoGradeMCQ(ctx context.Context, assignmentID string) ([]school.Submission, error) {
	check := func(assignments []school.Assignment) error {
		if a, ok := school.FindAssignment(assignments, assignmentID); ok && a.Type != school.TypeMCQ {
			return core.NewValidationError(ErrNotAutoGradable, core.FieldError{Field: "type", Error: ErrNotAutoGradable.Error()})
		}
		return nil
	}
	changed, err := svc.regrade(ctx, check, func(s school.Submission, assignments []school.Assignment) (string, bool) {
		if s.AssignmentID != assignmentID {
			return "", false
		}
		a, ok := school.FindAssignment(assignments, assignmentID)
		if !ok {
			return "", false
		}
		return Calculate(s, a), true
	})
	if err != nil {
		return nil, err
	}
	svc.logChanges("assignment auto-graded", changed, map[string]interface{}{"assignment": assignmentID})
	return changed, nil
}

// BulkApplyGrade gives the same grade to every listed submission. An empty grade or list is a no-op.
func (svc *Service) BulkApplyGrade(ctx context.Context, submissionIDs []string, grade string) ([]school.Submission, error) {
	ids := idSet(submissionIDs)
	if len(ids) == 0 || core.CleanString(grade) == "" {
		return []school.Submission{}, nil
	}

	changed, err := svc.regrade(ctx, nil, func(s school.Submission, _ []school.Assignment) (string, bool) {
		_, ok := ids[s.ID]
		return grade, ok
	})
	if err != nil {
		return nil, err
	}
	svc.logChanges("grades applied", changed, map[string]interface{}{"grade": grade})
	return changed, nil
}

// FullMarks gives every listed submission the maximum score of its assignment, eg. "20/20".
func (svc *Service) FullMarks(ctx context.Context, submissionIDs []string) ([]school.Submission, error) {
	ids := idSet(submissionIDs)
	if len(ids) == 0 {
		return []school.Submission{}, nil
	}

	changed, err := svc.regrade(ctx, nil, func(s school.Submission, assignments []school.Assignment) (string, bool) {
		if _, ok := ids[s.ID]; !ok {
			return "", false
		}
		if a, ok := school.FindAssignment(assignments, s.AssignmentID); ok && a.MaxScore > 0 {
			return a.FullMarks(), true
		}
		return school.FormatScore(svc.defaultMaxScore, svc.defaultMaxScore), true
	})
	if err != nil {
		return nil, err
	}
	svc.logChanges("full marks given", changed, nil)
	return changed, nil
}

// Score computes the automatic grade of one submission without saving it.
func (svc *Service) Score(ctx context.Context, submissionID string) (string, error) {
	var grade string
	err := svc.store.View(ctx, func(r school.Reader) error {
		subs, err := r.ListSubmissions(ctx)
		if err != nil {
			return core.StoreError(err, "listing submissions")
		}
		for _, s := range subs {
			if s.ID != submissionID {
				continue
			}
			assignments, err := r.ListAssignments(ctx)
			if err != nil {
				return core.StoreError(err, "listing assignments")
			}
			a, ok := school.FindAssignment(assignments, s.AssignmentID)
			if !ok {
				return core.NewNotFoundError("assignment", s.AssignmentID)
			}
			grade = Calculate(s, a)
			return nil
		}
		return core.NewNotFoundError("submission", submissionID)
	})
	return grade, err
}

func (svc *Service) logChanges(msg string, changed []school.Submission, extra map[string]interface{}) {
	fields := map[string]interface{}{"changed": len(changed)}
	for k, v := range extra {
		fields[k] = v
	}
	svc.logger.Info(msg, fields)
}

func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range core.UniqueStrings(ids) {
		set[id] = struct{}{}
	}
	return set
}

package assignment

import (
	"context"
	"sort"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/school"
)

var (
	// errors
	ErrDeadlinePassed   = errors.New("the deadline for this assignment has passed")
	ErrAlreadySubmitted = errors.New("this assignment was already submitted")
	ErrNotEnrolled      = errors.New("the student is not enrolled in this course")
	ErrFileRequired     = errors.New("a file is required for this assignment")

	NowFunc = time.Now // mockable
)

type Service struct {
	store           school.Store
	logger          core.Logger
	validate        *validator.Validate
	translator      ut.Translator
	defaultMaxScore int
}

func NewService(
	store school.Store,
	logger core.Logger,
	validate *validator.Validate,
	translator ut.Translator,
	conf *core.Config,
) *Service {
	return &Service{
		store:           store,
		logger:          logger,
		validate:        validate,
		translator:      translator,
		defaultMaxScore: conf.Grading.MaxScore(),
	}
}

// questions gives every question a unique ID and drops them for types without questions.
// A question without an ID keeps the ID of the previous question at the same position,
// so answers already keyed by it still match. Repeated IDs are replaced after their first use.
func questions(typ school.AssignmentType, qs, previous []school.Question) []school.Question {
	if !typ.HasQuestions() {
		return []school.Question{}
	}
	qs = school.CloneQuestions(qs)
	if qs == nil {
		return []school.Question{}
	}
	seen := make(map[string]bool, len(qs))
	for i := range qs {
		id := qs[i].ID
		if id == "" && i < len(previous) {
			id = previous[i].ID
		}
		if id == "" || seen[id] {
			id = uuid.New().String()
		}
		seen[id] = true
		qs[i].ID = id
	}
	return qs
}

func (svc *Service) apply(a *school.Assignment, f Fields) {
	deadline, _ := ParseDeadline(f.Deadline) // validated
	a.Title = f.Title
	a.Description = f.Description
	a.Type = school.AssignmentType(f.Type)
	a.Deadline = deadline
	a.Questions = questions(a.Type, f.Questions, a.Questions)
	a.ShowResults = f.ShowResults
	a.MaxScore = f.MaxScore
	if a.MaxScore == 0 {
		a.MaxScore = svc.defaultMaxScore
	}
}

// Create saves a new assignment for an existing course.
// An empty question list is valid for every type.
func (svc *Service) Create(ctx context.Context, na NewAssignment) (school.Assignment, error) {
	if err := na.Validate(svc.validate); err != nil {
		return school.Assignment{}, core.TranslateValidationErrors(err, svc.translator)
	}

	now := NowFunc().UTC()
	a := school.Assignment{
		ID:        uuid.New().String(),
		CourseID:  na.CourseID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	svc.apply(&a, na.Fields)

	err := svc.store.Update(ctx, func(tx school.Tx) error {
		courses, err := tx.ListCourses(ctx)
		if err != nil {
			return core.StoreError(err, "listing courses")
		}
		course, ok := school.FindCourse(courses, na.CourseID)
		if !ok {
			return core.NewNotFoundError("course", na.CourseID)
		}
		a.SemesterID = na.SemesterID
		if a.SemesterID == "" {
			a.SemesterID = school.EffectiveSemester(course.SemesterID)
		}
		return core.StoreError(tx.UpsertAssignment(ctx, a), "saving assignment")
	})
	if err != nil {
		return school.Assignment{}, err
	}

	svc.logger.Info("assignment created", map[string]interface{}{"assignment": a.ID, "course": a.CourseID, "type": a.Type})
	return a, nil
}

// Update overwrites the editable fields of an assignment. Its identity, course, semester and
// creation time never change.
func (svc *Service) Update(ctx context.Context, id string, ua UpdateAssignment) (school.Assignment, error) {
	if err := ua.Validate(svc.validate); err != nil {
		return school.Assignment{}, core.TranslateValidationErrors(err, svc.translator)
	}

	var a school.Assignment
	err := svc.store.Update(ctx, func(tx school.Tx) error {
		assignments, err := tx.ListAssignments(ctx)
		if err != nil {
			return core.StoreError(err, "listing assignments")
		}
		existing, ok := school.FindAssignment(assignments, id)
		if !ok {
			return core.NewNotFoundError("assignment", id)
		}

		a = existing.Clone()
		svc.apply(&a, ua.Fields)
		a.UpdatedAt = NowFunc().UTC()
		return core.StoreError(tx.UpsertAssignment(ctx, a), "saving assignment")
	})
	if err != nil {
		return school.Assignment{}, err
	}

	svc.logger.Info("assignment updated", map[string]interface{}{"assignment": a.ID})
	return a, nil
}

// Delete removes an assignment together with all of its submissions, returning how many
// submissions went with it.
func (svc *Service) Delete(ctx context.Context, id string) (int, error) {
	var removed int
	err := svc.store.Update(ctx, func(tx school.Tx) error {
		if err := tx.RemoveAssignment(ctx, id); err != nil {
			if core.IsNotFound(err) {
				return core.NewNotFoundError("assignment", id)
			}
			return core.StoreError(err, "removing assignment")
		}

		subs, err := tx.ListSubmissions(ctx)
		if err != nil {
			return core.StoreError(err, "listing submissions")
		}
		kept := make([]school.Submission, 0, len(subs))
		for _, s := range subs {
			if s.AssignmentID != id {
				kept = append(kept, s)
			}
		}
		if removed = len(subs) - len(kept); removed == 0 {
			return nil
		}
		return core.StoreError(tx.ReplaceSubmissions(ctx, kept), "removing submissions")
	})
	if err != nil {
		return 0, err
	}

	svc.logger.Info("assignment deleted", map[string]interface{}{"assignment": id, "submissions": removed})
	return removed, nil
}

func (svc *Service) Get(ctx context.Context, id string) (school.Assignment, error) {
	var (
		a     school.Assignment
		found bool
	)
	err := svc.store.View(ctx, func(r school.Reader) error {
		assignments, err := r.ListAssignments(ctx)
		if err != nil {
			return core.StoreError(err, "listing assignments")
		}
		a, found = school.FindAssignment(assignments, id)
		return nil
	})
	if err != nil {
		return school.Assignment{}, err
	}
	if !found {
		return school.Assignment{}, core.NewNotFoundError("assignment", id)
	}
	return a, nil
}

// Query lists the assignments matching the filter, soonest deadline first.
func (svc *Service) Query(ctx context.Context, filter Filter) ([]school.Assignment, error) {
	var assignments []school.Assignment
	err := svc.store.View(ctx, func(r school.Reader) (err error) {
		assignments, err = r.ListAssignments(ctx)
		return core.StoreError(err, "listing assignments")
	})
	if err != nil {
		return nil, err
	}

	filtered := make([]school.Assignment, 0, len(assignments))
	for _, a := range assignments {
		if filter.Match(a) {
			filtered = append(filtered, a)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].Deadline.Before(filtered[j].Deadline) })
	return filtered, nil
}

// Submit records a student's only submission for an assignment, before its deadline.
// Answers to unknown questions are dropped.
func (svc *Service) Submit(ctx context.Context, ns NewSubmission) (school.Submission, error) {
	if err := ns.Validate(svc.validate); err != nil {
		return school.Submission{}, core.TranslateValidationErrors(err, svc.translator)
	}

	var sub school.Submission
	err := svc.store.Update(ctx, func(tx school.Tx) error {
		assignments, err := tx.ListAssignments(ctx)
		if err != nil {
			return core.StoreError(err, "listing assignments")
		}
		a, ok := school.FindAssignment(assignments, ns.AssignmentID)
		if !ok {
			return core.NewNotFoundError("assignment", ns.AssignmentID)
		}

		now := NowFunc().UTC()
		if now.After(a.Deadline) {
			return core.NewValidationError(ErrDeadlinePassed, core.FieldError{Field: "deadline", Error: ErrDeadlinePassed.Error()})
		}
		if a.Type == school.TypeFile && ns.FileURL == "" {
			return core.NewValidationError(ErrFileRequired, core.FieldError{Field: "file_url", Error: ErrFileRequired.Error()})
		}

		enrollments, err := tx.ListEnrollments(ctx)
		if err != nil {
			return core.StoreError(err, "listing enrollments")
		}
		var enrolled bool
		for _, e := range enrollments {
			if e.StudentID == ns.StudentID && e.CourseID == a.CourseID {
				enrolled = true
				break
			}
		}
		if !enrolled {
			return core.NewValidationError(ErrNotEnrolled, core.FieldError{Field: "student_id", Error: ErrNotEnrolled.Error()})
		}

		subs, err := tx.ListSubmissions(ctx)
		if err != nil {
			return core.StoreError(err, "listing submissions")
		}
		for _, s := range subs {
			if s.AssignmentID == a.ID && s.StudentID == ns.StudentID {
				return core.NewValidationError(ErrAlreadySubmitted, core.FieldError{Field: "assignment_id", Error: ErrAlreadySubmitted.Error()})
			}
		}

		sub = school.Submission{
			ID:           uuid.New().String(),
			AssignmentID: a.ID,
			StudentID:    ns.StudentID,
			CourseID:     a.CourseID,
			SubmittedAt:  now,
			FileURL:      ns.FileURL,
			Answers:      answers(a.Questions, ns),
		}
		return core.StoreError(tx.ReplaceSubmissions(ctx, append(subs, sub)), "saving submission")
	})
	if err != nil {
		return school.Submission{}, err
	}

	svc.logger.Info("assignment submitted", map[string]interface{}{"submission": sub.ID, "assignment": sub.AssignmentID, "student": sub.StudentID})
	return sub, nil
}

func answers(qs []school.Question, ns NewSubmission) map[string]string {
	if len(qs) == 0 {
		return nil
	}
	if ns.Answers == nil && ns.PositionalAnswers != nil {
		return school.AnswersFromPositional(qs, ns.PositionalAnswers)
	}
	out := make(map[string]string, len(ns.Answers))
	for _, q := range qs {
		if ans, ok := ns.Answers[q.ID]; ok {
			out[q.ID] = ans
		}
	}
	return out
}

// Submissions lists the submissions of an assignment, oldest first.
func (svc *Service) Submissions(ctx context.Context, assignmentID string) ([]school.Submission, error) {
	subs := make([]school.Submission, 0)
	err := svc.store.View(ctx, func(r school.Reader) error {
		assignments, err := r.ListAssignments(ctx)
		if err != nil {
			return core.StoreError(err, "listing assignments")
		}
		if _, ok := school.FindAssignment(assignments, assignmentID); !ok {
			return core.NewNotFoundError("assignment", assignmentID)
		}
		all, err := r.ListSubmissions(ctx)
		if err != nil {
			return core.StoreError(err, "listing submissions")
		}
		for _, s := range all {
			if s.AssignmentID == assignmentID {
				subs = append(subs, s)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(subs, func(i, j int) bool { return subs[i].SubmittedAt.Before(subs[j].SubmittedAt) })
	return subs, nil
}

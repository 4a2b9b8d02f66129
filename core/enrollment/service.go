package enrollment

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/school"
)

// DefaultMaxPerSemester is the number of courses a student may take in one semester.
const DefaultMaxPerSemester = 6

var (
	// rejections, in the order they are checked
	ErrQuotaExceeded                = errors.New("maximum number of courses reached for this semester")
	ErrDuplicateInSemester          = errors.New("already enrolled in this course for this semester")
	ErrAlreadyTakenPreviousSemester = errors.New("this course was already taken in another semester")

	NowFunc = time.Now // mockable
)

// Reason returns a stable identifier of the rejection carried by err, or "" if err is not one.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, ErrDuplicateInSemester):
		return "duplicate_in_semester"
	case errors.Is(err, ErrAlreadyTakenPreviousSemester):
		return "already_taken_previous_semester"
	}
	return ""
}

type (
	Options struct {
		MaxPerSemester int
		RetakePolicy   RetakePolicy
	}

	Service struct {
		store  school.Store
		logger core.Logger
		opts   Options
	}

	Filter struct {
		StudentID  string `query:"student_id"`
		CourseID   string `query:"course_id"`
		SemesterID string `query:"semester_id"`
	}
)

func NewService(store school.Store, logger core.Logger, opts Options) *Service {
	if opts.MaxPerSemester <= 0 {
		opts.MaxPerSemester = DefaultMaxPerSemester
	}
	if opts.RetakePolicy == nil {
		opts.RetakePolicy = BlockAllRetakes
	}
	return &Service{store: store, logger: logger, opts: opts}
}

// NewServiceFromConfig builds a Service from the `enrollment.*` settings.
func NewServiceFromConfig(store school.Store, logger core.Logger, conf *core.Config) (*Service, error) {
	policy, err := RetakePolicyByName(conf.Enrollment.RetakePolicy)
	if err != nil {
		return nil, err
	}
	return NewService(store, logger, Options{
		MaxPerSemester: conf.Enrollment.MaxPerSemester,
		RetakePolicy:   policy,
	}), nil
}

// Check applies the enrollment rules to a student's existing enrollments, first failing rule wins:
// semester quota, same course code twice in the semester, same course code in another semester.
// codes maps course IDs to course codes.
func (svc *Service) Check(studentID, courseCode, semesterID string, existing []school.Enrollment, codes map[string]string) error {
	effective := school.EffectiveSemester(semesterID)

	var inSemester, elsewhere []school.Enrollment
	for _, e := range existing {
		if e.StudentID != studentID {
			continue
		}
		if e.EffectiveSemester() == effective {
			inSemester = append(inSemester, e)
		} else {
			elsewhere = append(elsewhere, e)
		}
	}

	if len(inSemester) >= svc.opts.MaxPerSemester {
		return rejection(ErrQuotaExceeded, fmt.Sprintf("a student may not take more than %d courses per semester", svc.opts.MaxPerSemester))
	}
	for _, e := range inSemester {
		if codes[e.CourseID] == courseCode {
			return rejection(ErrDuplicateInSemester, ErrDuplicateInSemester.Error())
		}
	}
	for _, e := range elsewhere {
		if codes[e.CourseID] == courseCode && svc.opts.RetakePolicy(e) {
			return rejection(ErrAlreadyTakenPreviousSemester, ErrAlreadyTakenPreviousSemester.Error())
		}
	}
	return nil
}

func rejection(err error, msg string) error {
	return core.NewValidationError(err, core.FieldError{Field: "course_id", Error: msg})
}

// Enroll validates and commits a single enrollment. Rejections are *core.ValidationError
// wrapping one of ErrQuotaExceeded, ErrDuplicateInSemester or ErrAlreadyTakenPreviousSemester.
// An empty semesterID targets the legacy default semester; any other semester must exist.
// The student must be a user holding the student role.
func (svc *Service) Enroll(ctx context.Context, studentID, courseID, semesterID string) (school.Enrollment, error) {
	var enr school.Enrollment

	err := svc.store.Update(ctx, func(tx school.Tx) error {
		courses, err := tx.ListCourses(ctx)
		if err != nil {
			return core.StoreError(err, "listing courses")
		}
		course, ok := school.FindCourse(courses, courseID)
		if !ok {
			return core.NewNotFoundError("course", courseID)
		}

		users, err := tx.ListUsers(ctx)
		if err != nil {
			return core.StoreError(err, "listing users")
		}
		var found bool
		for _, u := range users {
			if u.ID == studentID {
				found = u.IsStudent()
				break
			}
		}
		if !found {
			return core.NewNotFoundError("student", studentID)
		}

		effective := school.EffectiveSemester(semesterID)
		if effective != school.DefaultSemesterID {
			semesters, err := tx.ListSemesters(ctx)
			if err != nil {
				return core.StoreError(err, "listing semesters")
			}
			if _, ok := school.FindSemester(semesters, effective); !ok {
				return core.NewNotFoundError("semester", effective)
			}
		}

		enrollments, err := tx.ListEnrollments(ctx)
		if err != nil {
			return core.StoreError(err, "listing enrollments")
		}
		if err = svc.Check(studentID, course.Code, semesterID, enrollments, school.CourseCodes(courses)); err != nil {
			return err
		}

		enr = school.Enrollment{
			ID:         uuid.New().String(),
			StudentID:  studentID,
			CourseID:   courseID,
			SemesterID: effective,
			EnrolledAt: NowFunc().UTC(),
		}
		return core.StoreError(tx.AppendEnrollment(ctx, enr), "appending enrollment")
	})
	if err != nil {
		return school.Enrollment{}, err
	}

	svc.logger.Info("student enrolled", map[string]interface{}{
		"enrollment": enr.ID, "student": studentID, "course": courseID, "semester": enr.SemesterID,
	})
	return enr, nil
}

// Unenroll removes an enrollment unconditionally; the remaining enrollments are not re-validated.
func (svc *Service) Unenroll(ctx context.Context, id string) error {
	err := svc.store.Update(ctx, func(tx school.Tx) error {
		if _, err := tx.RemoveEnrollment(ctx, id); err != nil {
			if core.IsNotFound(err) {
				return core.NewNotFoundError("enrollment", id)
			}
			return core.StoreError(err, "removing enrollment")
		}
		return nil
	})
	if err != nil {
		return err
	}
	svc.logger.Info("enrollment removed", map[string]interface{}{"enrollment": id})
	return nil
}

// SetOutcome records how an enrollment ended; retake policies may consult it.
func (svc *Service) SetOutcome(ctx context.Context, id string, outcome school.EnrollmentOutcome) (school.Enrollment, error) {
	switch outcome {
	case school.OutcomeNone, school.OutcomePassed, school.OutcomeFailed, school.OutcomeWithdrawn:
	default:
		return school.Enrollment{}, core.NewValidationError(
			errors.Errorf("invalid outcome %q", outcome),
			core.FieldError{Field: "outcome", Error: "must be one of passed, failed, withdrawn"},
		)
	}

	var updated school.Enrollment
	err := svc.store.Update(ctx, func(tx school.Tx) error {
		enrollments, err := tx.ListEnrollments(ctx)
		if err != nil {
			return core.StoreError(err, "listing enrollments")
		}
		for i, e := range enrollments {
			if e.ID == id {
				e.Outcome = outcome
				enrollments[i] = e
				updated = e
				return core.StoreError(tx.ReplaceEnrollments(ctx, enrollments), "replacing enrollments")
			}
		}
		return core.NewNotFoundError("enrollment", id)
	})
	return updated, err
}

// Query lists enrollments matching every set field of the filter, oldest first.
// The semester filter matches the effective semester.
func (svc *Service) Query(ctx context.Context, filter Filter) ([]school.Enrollment, error) {
	var enrollments []school.Enrollment
	err := svc.store.View(ctx, func(r school.Reader) (err error) {
		enrollments, err = r.ListEnrollments(ctx)
		return core.StoreError(err, "listing enrollments")
	})
	if err != nil {
		return nil, err
	}

	filtered := make([]school.Enrollment, 0, len(enrollments))
	for _, e := range enrollments {
		if filter.StudentID != "" && e.StudentID != filter.StudentID {
			continue
		}
		if filter.CourseID != "" && e.CourseID != filter.CourseID {
			continue
		}
		if filter.SemesterID != "" && e.EffectiveSemester() != filter.SemesterID {
			continue
		}
		filtered = append(filtered, e)
	}
	sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].EnrolledAt.Before(filtered[j].EnrolledAt) })
	return filtered, nil
}

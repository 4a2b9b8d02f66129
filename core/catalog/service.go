package catalog

import (
	"context"
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
	ErrSameSemester   = errors.New("source and target semesters must differ")
	ErrSemesterExists = errors.New("a semester with this id already exists")

	NowFunc = time.Now // mockable
)

type Service struct {
	store      school.Store
	logger     core.Logger
	validate   *validator.Validate
	translator ut.Translator
}

func NewService(store school.Store, logger core.Logger, validate *validator.Validate, translator ut.Translator) *Service {
	return &Service{store: store, logger: logger, validate: validate, translator: translator}
}

// semesterExists treats the legacy default semester as always existing.
func semesterExists(semesters []school.Semester, id string) bool {
	if id == school.DefaultSemesterID {
		return true
	}
	_, ok := school.FindSemester(semesters, id)
	return ok
}

// CopyCourses clones every course of the source semester whose code is not offered in the target
// semester yet. Courses are compared by code only: a course already copied is skipped even if its
// source changed since. All copies are written in one batch.
func (svc *Service) CopyCourses(ctx context.Context, sourceID, targetID string) (CopyResult, error) {
	sourceID = school.EffectiveSemester(core.CleanString(sourceID))
	targetID = school.EffectiveSemester(core.CleanString(targetID))
	if sourceID == targetID {
		return CopyResult{}, core.NewValidationError(
			ErrSameSemester,
			core.FieldError{Field: "target_semester_id", Error: ErrSameSemester.Error()},
		)
	}

	var res CopyResult
	err := svc.store.Update(ctx, func(tx school.Tx) error {
		semesters, err := tx.ListSemesters(ctx)
		if err != nil {
			return core.StoreError(err, "listing semesters")
		}
		for _, id := range []string{sourceID, targetID} {
			if !semesterExists(semesters, id) {
				return core.NewNotFoundError("semester", id)
			}
		}

		courses, err := tx.ListCourses(ctx)
		if err != nil {
			return core.StoreError(err, "listing courses")
		}

		var sourceSet []school.Course
		targetCodes := make(map[string]struct{})
		for _, c := range courses {
			switch school.EffectiveSemester(c.SemesterID) {
			case sourceID:
				sourceSet = append(sourceSet, c)
			case targetID:
				targetCodes[c.Code] = struct{}{}
			}
		}

		now := NowFunc().UTC()
		res = CopyResult{Courses: make([]school.Course, 0, len(sourceSet))}
		for _, c := range sourceSet {
			if _, ok := targetCodes[c.Code]; ok {
				res.Skipped++
				continue
			}
			c.ID = uuid.New().String()
			c.SemesterID = targetID
			c.CreatedAt = now
			res.Courses = append(res.Courses, c)
		}
		res.Copied = len(res.Courses)

		if res.Copied == 0 {
			return nil
		}
		return core.StoreError(tx.AppendCourses(ctx, res.Courses), "appending courses")
	})
	if err != nil {
		return CopyResult{}, err
	}

	svc.logger.Info("semester courses copied", map[string]interface{}{
		"source": sourceID, "target": targetID, "copied": res.Copied, "skipped": res.Skipped,
	})
	return res, nil
}

func (svc *Service) CreateSemester(ctx context.Context, ns NewSemester) (school.Semester, error) {
	if err := ns.Validate(svc.validate); err != nil {
		return school.Semester{}, core.TranslateValidationErrors(err, svc.translator)
	}

	sem := school.Semester{ID: ns.ID, Name: ns.Name, CreatedAt: NowFunc().UTC()}
	if sem.ID == "" {
		sem.ID = uuid.New().String()
	}

	err := svc.store.Update(ctx, func(tx school.Tx) error {
		semesters, err := tx.ListSemesters(ctx)
		if err != nil {
			return core.StoreError(err, "listing semesters")
		}
		if sem.ID == school.DefaultSemesterID || semesterExists(semesters, sem.ID) {
			return core.NewValidationError(ErrSemesterExists, core.FieldError{Field: "id", Error: ErrSemesterExists.Error()})
		}
		return core.StoreError(tx.AppendSemester(ctx, sem), "appending semester")
	})
	if err != nil {
		return school.Semester{}, err
	}

	svc.logger.Info("semester created", map[string]interface{}{"semester": sem.ID})
	return sem, nil
}

// QuerySemesters lists the semesters, newest first.
func (svc *Service) QuerySemesters(ctx context.Context) ([]school.Semester, error) {
	var semesters []school.Semester
	err := svc.store.View(ctx, func(r school.Reader) (err error) {
		semesters, err = r.ListSemesters(ctx)
		return core.StoreError(err, "listing semesters")
	})
	if err != nil {
		return nil, err
	}
	sortSemesters(semesters)
	return semesters, nil
}

// CreateCourse adds a course to a semester; the active semester when none is given.
func (svc *Service) CreateCourse(ctx context.Context, nc NewCourse) (school.Course, error) {
	if err := nc.Validate(svc.validate); err != nil {
		return school.Course{}, core.TranslateValidationErrors(err, svc.translator)
	}

	var course school.Course
	err := svc.store.Update(ctx, func(tx school.Tx) error {
		settings, err := tx.GetSettings(ctx)
		if err != nil {
			return core.StoreError(err, "getting settings")
		}
		semesterID := settings.Semester(nc.SemesterID)

		semesters, err := tx.ListSemesters(ctx)
		if err != nil {
			return core.StoreError(err, "listing semesters")
		}
		if !semesterExists(semesters, semesterID) {
			return core.NewNotFoundError("semester", semesterID)
		}

		course = school.Course{
			ID:                  uuid.New().String(),
			Code:                nc.Code,
			SemesterID:          semesterID,
			Title:               nc.Title,
			TitleAr:             nc.TitleAr,
			Doctor:              nc.Doctor,
			DoctorAr:            nc.DoctorAr,
			Description:         nc.Description,
			DescriptionAr:       nc.DescriptionAr,
			Day:                 nc.Day,
			Time:                nc.Time,
			RegistrationEnabled: nc.RegistrationEnabled,
			Links:               nc.Links,
			CreatedAt:           NowFunc().UTC(),
		}
		return core.StoreError(tx.AppendCourses(ctx, []school.Course{course}), "appending course")
	})
	if err != nil {
		return school.Course{}, err
	}

	svc.logger.Info("course created", map[string]interface{}{"course": course.ID, "code": course.Code, "semester": course.SemesterID})
	return course, nil
}

func (svc *Service) QueryCourses(ctx context.Context, filter CourseFilter) ([]school.Course, error) {
	var courses []school.Course
	err := svc.store.View(ctx, func(r school.Reader) (err error) {
		courses, err = r.ListCourses(ctx)
		return core.StoreError(err, "listing courses")
	})
	if err != nil {
		return nil, err
	}

	filtered := make([]school.Course, 0, len(courses))
	for _, c := range courses {
		if filter.Match(c) {
			filtered = append(filtered, c)
		}
	}
	return filtered, nil
}

func (svc *Service) GetCourse(ctx context.Context, id string) (school.Course, error) {
	var (
		course school.Course
		found  bool
	)
	err := svc.store.View(ctx, func(r school.Reader) error {
		courses, err := r.ListCourses(ctx)
		if err != nil {
			return core.StoreError(err, "listing courses")
		}
		course, found = school.FindCourse(courses, id)
		return nil
	})
	if err != nil {
		return school.Course{}, err
	}
	if !found {
		return school.Course{}, core.NewNotFoundError("course", id)
	}
	return course, nil
}

func (svc *Service) GetSettings(ctx context.Context) (school.Settings, error) {
	var settings school.Settings
	err := svc.store.View(ctx, func(r school.Reader) (err error) {
		settings, err = r.GetSettings(ctx)
		return core.StoreError(err, "getting settings")
	})
	return settings, err
}

// SetActiveSemester marks the semester operations target when the caller names none.
// An empty id clears it.
func (svc *Service) SetActiveSemester(ctx context.Context, id string) (school.Settings, error) {
	return svc.updateSettings(ctx, id, func(s *school.Settings, id string) { s.ActiveSemesterID = id })
}

// SetDefaultSemester marks the fallback semester, used when no semester is active.
// An empty id clears it.
func (svc *Service) SetDefaultSemester(ctx context.Context, id string) (school.Settings, error) {
	return svc.updateSettings(ctx, id, func(s *school.Settings, id string) { s.DefaultSemesterID = id })
}

func (svc *Service) updateSettings(ctx context.Context, id string, set func(*school.Settings, string)) (school.Settings, error) {
	id = core.CleanString(id)

	var settings school.Settings
	err := svc.store.Update(ctx, func(tx school.Tx) (err error) {
		if id != "" {
			semesters, err := tx.ListSemesters(ctx)
			if err != nil {
				return core.StoreError(err, "listing semesters")
			}
			if !semesterExists(semesters, id) {
				return core.NewNotFoundError("semester", id)
			}
		}
		if settings, err = tx.GetSettings(ctx); err != nil {
			return core.StoreError(err, "getting settings")
		}
		set(&settings, id)
		return core.StoreError(tx.SaveSettings(ctx, settings), "saving settings")
	})
	if err != nil {
		return school.Settings{}, err
	}

	svc.logger.Info("semester settings updated", map[string]interface{}{
		"active": settings.ActiveSemesterID, "default": settings.DefaultSemesterID,
	})
	return settings, nil
}

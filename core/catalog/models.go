package catalog

import (
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/school"
)

// NewSemester contains information needed to create a new Semester.
// The ID is generated when not provided.
type NewSemester struct {
	ID   string `json:"id" validate:"omitempty,max=64,slug"`
	Name string `json:"name" validate:"required,notblank"`
}

func (ns *NewSemester) Validate(validate *validator.Validate) error {
	ns.ID = core.CleanString(ns.ID)
	ns.Name = core.CleanString(ns.Name)
	return validate.Struct(ns)
}

// NewCourse contains information needed to create a new Course.
// An empty SemesterID targets the active semester.
type NewCourse struct {
	Code                string             `json:"code" validate:"required,notblank,max=32"`
	SemesterID          string             `json:"semester_id"`
	Title               string             `json:"title" validate:"required,notblank"`
	TitleAr             string             `json:"title_ar"`
	Doctor              string             `json:"doctor"`
	DoctorAr            string             `json:"doctor_ar"`
	Description         string             `json:"description"`
	DescriptionAr       string             `json:"description_ar"`
	Day                 string             `json:"day"`
	Time                string             `json:"time"`
	RegistrationEnabled bool               `json:"registration_enabled"`
	Links               school.CourseLinks `json:"links"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Code = core.CleanString(nc.Code)
	nc.SemesterID = core.CleanString(nc.SemesterID)
	nc.Title = core.CleanString(nc.Title)
	nc.TitleAr = core.CleanString(nc.TitleAr)
	nc.Doctor = core.CleanString(nc.Doctor)
	nc.DoctorAr = core.CleanString(nc.DoctorAr)
	nc.Links.Chat = core.CleanString(nc.Links.Chat)
	nc.Links.Meeting = core.CleanString(nc.Links.Meeting)
	return validate.Struct(nc)
}

type CourseFilter struct {
	SemesterID string `query:"semester_id"`
	Code       string `query:"code"`
}

// Match reports whether c satisfies every set field of the filter.
// The semester filter matches the effective semester.
func (f CourseFilter) Match(c school.Course) bool {
	if f.SemesterID != "" && school.EffectiveSemester(c.SemesterID) != f.SemesterID {
		return false
	}
	if f.Code != "" && c.Code != f.Code {
		return false
	}
	return true
}

// CopyResult reports the outcome of copying a semester's courses.
type CopyResult struct {
	Copied  int             `json:"copied"`
	Skipped int             `json:"skipped"`
	Courses []school.Course `json:"courses"` // the new courses
}

func sortSemesters(semesters []school.Semester) {
	sort.SliceStable(semesters, func(i, j int) bool { return semesters[i].CreatedAt.After(semesters[j].CreatedAt) })
}

package assignment

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/school"
)

// Fields holds the editable fields of an Assignment. Updates overwrite all of them.
type Fields struct {
	Title       string            `json:"title" validate:"required,notblank"`
	Description string            `json:"description"`
	Type        string            `json:"type" validate:"required,assignment_type"`
	Deadline    string            `json:"deadline" validate:"required,deadline"`
	Questions   []school.Question `json:"questions"`
	ShowResults bool              `json:"show_results"`
	MaxScore    int               `json:"max_score" validate:"omitempty,min=1"`
}

func (f *Fields) clean() {
	f.Title = core.CleanString(f.Title)
	f.Type = core.CleanString(f.Type, true /* lower */)
	f.Deadline = core.CleanString(f.Deadline)
	for i := range f.Questions {
		f.Questions[i].Text = core.CleanString(f.Questions[i].Text)
	}
}

// NewAssignment contains information needed to create a new Assignment.
// An empty SemesterID targets the course's semester.
type NewAssignment struct {
	CourseID   string `json:"course_id" validate:"required"`
	SemesterID string `json:"semester_id"`
	Fields
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.CourseID = core.CleanString(na.CourseID)
	na.SemesterID = core.CleanString(na.SemesterID)
	na.clean()
	return validate.Struct(na)
}

// UpdateAssignment replaces every editable field of an Assignment.
type UpdateAssignment struct {
	Fields
}

func (ua *UpdateAssignment) Validate(validate *validator.Validate) error {
	ua.clean()
	return validate.Struct(ua)
}

// NewSubmission contains a student's work for an assignment.
// Answers are keyed by question ID; PositionalAnswers, in question order, are accepted too.
type NewSubmission struct {
	AssignmentID      string            `json:"assignment_id" validate:"required"`
	StudentID         string            `json:"student_id" validate:"required"`
	Answers           map[string]string `json:"answers"`
	PositionalAnswers []string          `json:"answers_list"`
	FileURL           string            `json:"file_url" validate:"omitempty,url"`
}

func (ns *NewSubmission) Validate(validate *validator.Validate) error {
	ns.AssignmentID = core.CleanString(ns.AssignmentID)
	ns.StudentID = core.CleanString(ns.StudentID)
	ns.FileURL = core.CleanString(ns.FileURL)
	return validate.Struct(ns)
}

type Filter struct {
	CourseID   string `query:"course_id"`
	SemesterID string `query:"semester_id"`
}

// Match reports whether a satisfies every set field of the filter.
func (f Filter) Match(a school.Assignment) bool {
	if f.CourseID != "" && a.CourseID != f.CourseID {
		return false
	}
	if f.SemesterID != "" && school.EffectiveSemester(a.SemesterID) != f.SemesterID {
		return false
	}
	return true
}

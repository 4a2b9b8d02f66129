// Package school holds the academic data model shared by the rules engines
// and the EntityStore contract they consume.
package school

import (
	"fmt"
	"time"
)

// DefaultSemesterID is the effective semester of records that predate semester support.
const DefaultSemesterID = "default-semester"

// EffectiveSemester resolves an optional semester reference.
func EffectiveSemester(semesterID string) string {
	if semesterID == "" {
		return DefaultSemesterID
	}
	return semesterID
}

type Semester struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Settings are process-wide; they are never stored on the semesters themselves.
type Settings struct {
	ActiveSemesterID  string `json:"active_semester_id"`
	DefaultSemesterID string `json:"default_semester_id"`
}

// Semester returns the semester an operation should target when the caller gave none:
// the active one, else the default one, else the legacy sentinel.
func (s Settings) Semester(semesterID string) string {
	switch {
	case semesterID != "":
		return semesterID
	case s.ActiveSemesterID != "":
		return s.ActiveSemesterID
	default:
		return EffectiveSemester(s.DefaultSemesterID)
	}
}

type CourseLinks struct {
	Chat    string `json:"chat,omitempty"`
	Meeting string `json:"meeting,omitempty"`
}

type Course struct {
	ID                  string      `json:"id"`
	Code                string      `json:"code"`
	SemesterID          string      `json:"semester_id"`
	Title               string      `json:"title"`
	TitleAr             string      `json:"title_ar"`
	Doctor              string      `json:"doctor"`
	DoctorAr            string      `json:"doctor_ar"`
	Description         string      `json:"description"`
	DescriptionAr       string      `json:"description_ar"`
	Day                 string      `json:"day"`
	Time                string      `json:"time"`
	RegistrationEnabled bool        `json:"registration_enabled"`
	Links               CourseLinks `json:"links"`
	CreatedAt           time.Time   `json:"created_at"`
}

func (c Course) Clone() Course { return c }

// EnrollmentOutcome is the optional result of an enrollment, used by retake policies.
type EnrollmentOutcome string

const (
	OutcomeNone      EnrollmentOutcome = ""
	OutcomePassed    EnrollmentOutcome = "passed"
	OutcomeFailed    EnrollmentOutcome = "failed"
	OutcomeWithdrawn EnrollmentOutcome = "withdrawn"
)

type Enrollment struct {
	ID         string            `json:"id"`
	StudentID  string            `json:"student_id"`
	CourseID   string            `json:"course_id"`
	SemesterID string            `json:"semester_id"`
	Outcome    EnrollmentOutcome `json:"outcome,omitempty"`
	EnrolledAt time.Time         `json:"enrolled_at"`
}

func (e Enrollment) EffectiveSemester() string { return EffectiveSemester(e.SemesterID) }

func (e Enrollment) Clone() Enrollment { return e }

type AssignmentType string

const (
	TypeFile  AssignmentType = "file"
	TypeMCQ   AssignmentType = "mcq"
	TypeEssay AssignmentType = "essay"
)

func (t AssignmentType) Valid() bool {
	switch t {
	case TypeFile, TypeMCQ, TypeEssay:
		return true
	}
	return false
}

// HasQuestions reports whether assignments of this type carry a question list.
func (t AssignmentType) HasQuestions() bool { return t == TypeMCQ || t == TypeEssay }

type Question struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correct_answer,omitempty"`
}

func (q Question) Clone() Question {
	if q.Options != nil {
		q.Options = append([]string(nil), q.Options...)
	}
	return q
}

func CloneQuestions(qs []Question) []Question {
	if qs == nil {
		return nil
	}
	out := make([]Question, len(qs))
	for i, q := range qs {
		out[i] = q.Clone()
	}
	return out
}

type Assignment struct {
	ID          string         `json:"id"`
	CourseID    string         `json:"course_id"`
	SemesterID  string         `json:"semester_id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Type        AssignmentType `json:"type"`
	Deadline    time.Time      `json:"deadline"`
	Questions   []Question     `json:"questions"`
	ShowResults bool           `json:"show_results"`
	MaxScore    int            `json:"max_score"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (a Assignment) Clone() Assignment {
	a.Questions = CloneQuestions(a.Questions)
	return a
}

// FullMarks is the grade of a perfect submission, eg. "20/20".
func (a Assignment) FullMarks() string {
	return FormatScore(a.MaxScore, a.MaxScore)
}

type Submission struct {
	ID           string            `json:"id"`
	AssignmentID string            `json:"assignment_id"`
	StudentID    string            `json:"student_id"`
	CourseID     string            `json:"course_id"`
	SubmittedAt  time.Time         `json:"submitted_at"`
	Answers      map[string]string `json:"answers,omitempty"` // question ID -> answer
	FileURL      string            `json:"file_url,omitempty"`
	Grade        string            `json:"grade"`
}

func (s Submission) Clone() Submission {
	if s.Answers != nil {
		answers := make(map[string]string, len(s.Answers))
		for k, v := range s.Answers {
			answers[k] = v
		}
		s.Answers = answers
	}
	return s
}

// AnswersFromPositional keys answers recorded in question order by their question IDs.
// Extra answers are dropped; missing ones are left out.
func AnswersFromPositional(questions []Question, answers []string) map[string]string {
	m := make(map[string]string, len(questions))
	for i, q := range questions {
		if i >= len(answers) {
			break
		}
		m[q.ID] = answers[i]
	}
	return m
}

// FormatScore renders a score the way grades are displayed, eg. "18/20".
func FormatScore(score, total int) string {
	return fmt.Sprintf("%d/%d", score, total)
}

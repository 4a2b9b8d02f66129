package sqlxdb

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/academia/core/school"
	"github.com/trezcool/academia/core/user"
)

// optional maps "" to NULL.
func optional(s string) null.String { return null.NewString(s, s != "") }

type semesterRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

func (r semesterRow) semester() school.Semester {
	return school.Semester{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt.UTC()}
}

type settingsRow struct {
	ActiveSemesterID  null.String `db:"active_semester_id"`
	DefaultSemesterID null.String `db:"default_semester_id"`
}

type userRow struct {
	ID        string         `db:"id"`
	Name      string         `db:"name"`
	Username  null.String    `db:"username"`
	Email     null.String    `db:"email"`
	IsActive  bool           `db:"is_active"`
	Roles     pq.StringArray `db:"roles"`
	CreatedAt time.Time      `db:"created_at"`
}

func newUserRow(u user.User) userRow {
	return userRow{
		ID:        u.ID,
		Name:      u.Name,
		Username:  optional(u.Username),
		Email:     optional(u.Email),
		IsActive:  u.IsActive,
		Roles:     append(pq.StringArray{}, u.Roles...),
		CreatedAt: u.CreatedAt,
	}
}

func (r userRow) user() user.User {
	u := user.User{
		ID:        r.ID,
		Name:      r.Name,
		Username:  r.Username.String,
		Email:     r.Email.String,
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt.UTC(),
	}
	if len(r.Roles) > 0 {
		u.Roles = []string(r.Roles)
	}
	return u
}

type courseRow struct {
	ID                  string      `db:"id"`
	Code                string      `db:"code"`
	SemesterID          null.String `db:"semester_id"`
	Title               string      `db:"title"`
	TitleAr             string      `db:"title_ar"`
	Doctor              string      `db:"doctor"`
	DoctorAr            string      `db:"doctor_ar"`
	Description         string      `db:"description"`
	DescriptionAr       string      `db:"description_ar"`
	Day                 string      `db:"day"`
	Time                string      `db:"time"`
	RegistrationEnabled bool        `db:"registration_enabled"`
	ChatLink            null.String `db:"chat_link"`
	MeetingLink         null.String `db:"meeting_link"`
	CreatedAt           time.Time   `db:"created_at"`
}

func newCourseRow(c school.Course) courseRow {
	return courseRow{
		ID:                  c.ID,
		Code:                c.Code,
		SemesterID:          optional(c.SemesterID),
		Title:               c.Title,
		TitleAr:             c.TitleAr,
		Doctor:              c.Doctor,
		DoctorAr:            c.DoctorAr,
		Description:         c.Description,
		DescriptionAr:       c.DescriptionAr,
		Day:                 c.Day,
		Time:                c.Time,
		RegistrationEnabled: c.RegistrationEnabled,
		ChatLink:            optional(c.Links.Chat),
		MeetingLink:         optional(c.Links.Meeting),
		CreatedAt:           c.CreatedAt,
	}
}

func (r courseRow) course() school.Course {
	return school.Course{
		ID:                  r.ID,
		Code:                r.Code,
		SemesterID:          r.SemesterID.String,
		Title:               r.Title,
		TitleAr:             r.TitleAr,
		Doctor:              r.Doctor,
		DoctorAr:            r.DoctorAr,
		Description:         r.Description,
		DescriptionAr:       r.DescriptionAr,
		Day:                 r.Day,
		Time:                r.Time,
		RegistrationEnabled: r.RegistrationEnabled,
		Links:               school.CourseLinks{Chat: r.ChatLink.String, Meeting: r.MeetingLink.String},
		CreatedAt:           r.CreatedAt.UTC(),
	}
}

type enrollmentRow struct {
	ID         string      `db:"id"`
	StudentID  string      `db:"student_id"`
	CourseID   string      `db:"course_id"`
	SemesterID null.String `db:"semester_id"`
	Outcome    null.String `db:"outcome"`
	EnrolledAt time.Time   `db:"enrolled_at"`
}

func newEnrollmentRow(e school.Enrollment) enrollmentRow {
	return enrollmentRow{
		ID:         e.ID,
		StudentID:  e.StudentID,
		CourseID:   e.CourseID,
		SemesterID: optional(e.SemesterID),
		Outcome:    optional(string(e.Outcome)),
		EnrolledAt: e.EnrolledAt,
	}
}

func (r enrollmentRow) enrollment() school.Enrollment {
	return school.Enrollment{
		ID:         r.ID,
		StudentID:  r.StudentID,
		CourseID:   r.CourseID,
		SemesterID: r.SemesterID.String,
		Outcome:    school.EnrollmentOutcome(r.Outcome.String),
		EnrolledAt: r.EnrolledAt.UTC(),
	}
}

type assignmentRow struct {
	ID          string    `db:"id"`
	CourseID    string    `db:"course_id"`
	SemesterID  string    `db:"semester_id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Type        string    `db:"type"`
	Deadline    time.Time `db:"deadline"`
	Questions   null.JSON `db:"questions"`
	ShowResults bool      `db:"show_results"`
	MaxScore    int       `db:"max_score"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func newAssignmentRow(a school.Assignment) (assignmentRow, error) {
	row := assignmentRow{
		ID:          a.ID,
		CourseID:    a.CourseID,
		SemesterID:  a.SemesterID,
		Title:       a.Title,
		Description: a.Description,
		Type:        string(a.Type),
		Deadline:    a.Deadline,
		ShowResults: a.ShowResults,
		MaxScore:    a.MaxScore,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
	if a.Questions != nil {
		b, err := json.Marshal(a.Questions)
		if err != nil {
			return row, errors.Wrap(err, "encoding questions")
		}
		row.Questions = null.JSONFrom(b)
	}
	return row, nil
}

func (r assignmentRow) assignment() (school.Assignment, error) {
	a := school.Assignment{
		ID:          r.ID,
		CourseID:    r.CourseID,
		SemesterID:  r.SemesterID,
		Title:       r.Title,
		Description: r.Description,
		Type:        school.AssignmentType(r.Type),
		Deadline:    r.Deadline.UTC(),
		ShowResults: r.ShowResults,
		MaxScore:    r.MaxScore,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
	if r.Questions.Valid {
		if err := json.Unmarshal(r.Questions.JSON, &a.Questions); err != nil {
			return a, errors.Wrapf(err, "decoding questions of %s", r.ID)
		}
	}
	return a, nil
}

type submissionRow struct {
	ID           string      `db:"id"`
	AssignmentID string      `db:"assignment_id"`
	StudentID    string      `db:"student_id"`
	CourseID     string      `db:"course_id"`
	SubmittedAt  time.Time   `db:"submitted_at"`
	Answers      null.JSON   `db:"answers"`
	FileURL      null.String `db:"file_url"`
	Grade        string      `db:"grade"`
}

func newSubmissionRow(s school.Submission) (submissionRow, error) {
	row := submissionRow{
		ID:           s.ID,
		AssignmentID: s.AssignmentID,
		StudentID:    s.StudentID,
		CourseID:     s.CourseID,
		SubmittedAt:  s.SubmittedAt,
		FileURL:      optional(s.FileURL),
		Grade:        s.Grade,
	}
	if s.Answers != nil {
		b, err := json.Marshal(s.Answers)
		if err != nil {
			return row, errors.Wrap(err, "encoding answers")
		}
		row.Answers = null.JSONFrom(b)
	}
	return row, nil
}

func (r submissionRow) submission() (school.Submission, error) {
	s := school.Submission{
		ID:           r.ID,
		AssignmentID: r.AssignmentID,
		StudentID:    r.StudentID,
		CourseID:     r.CourseID,
		SubmittedAt:  r.SubmittedAt.UTC(),
		FileURL:      r.FileURL.String,
		Grade:        r.Grade,
	}
	if r.Answers.Valid {
		if err := json.Unmarshal(r.Answers.JSON, &s.Answers); err != nil {
			return s, errors.Wrapf(err, "decoding answers of %s", r.ID)
		}
	}
	return s, nil
}

package sqlxdb

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/school"
	"github.com/trezcool/academia/core/user"
)

const (
	semesterColumns   = "id, name, created_at"
	userColumns       = "id, name, username, email, is_active, roles, created_at"
	courseColumns     = "id, code, semester_id, title, title_ar, doctor, doctor_ar, description, description_ar, day, time, registration_enabled, chat_link, meeting_link, created_at"
	enrollmentColumns = "id, student_id, course_id, semester_id, outcome, enrolled_at"
	assignmentColumns = "id, course_id, semester_id, title, description, type, deadline, questions, show_results, max_score, created_at, updated_at"
	submissionColumns = "id, assignment_id, student_id, course_id, submitted_at, answers, file_url, grade"

	insertCourse = `INSERT INTO course (` + courseColumns + `)
		VALUES (:id, :code, :semester_id, :title, :title_ar, :doctor, :doctor_ar, :description, :description_ar,
			:day, :time, :registration_enabled, :chat_link, :meeting_link, :created_at)`
	insertEnrollment = `INSERT INTO enrollment (` + enrollmentColumns + `)
		VALUES (:id, :student_id, :course_id, :semester_id, :outcome, :enrolled_at)`
	insertSubmission = `INSERT INTO submission (` + submissionColumns + `)
		VALUES (:id, :assignment_id, :student_id, :course_id, :submitted_at, :answers, :file_url, :grade)`
	upsertAssignment = `INSERT INTO assignment (` + assignmentColumns + `)
		VALUES (:id, :course_id, :semester_id, :title, :description, :type, :deadline, :questions, :show_results,
			:max_score, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			course_id = EXCLUDED.course_id,
			semester_id = EXCLUDED.semester_id,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			type = EXCLUDED.type,
			deadline = EXCLUDED.deadline,
			questions = EXCLUDED.questions,
			show_results = EXCLUDED.show_results,
			max_score = EXCLUDED.max_score,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at`
	upsertSettings = `INSERT INTO settings (id, active_semester_id, default_semester_id)
		VALUES (1, :active_semester_id, :default_semester_id)
		ON CONFLICT (id) DO UPDATE SET
			active_semester_id = EXCLUDED.active_semester_id,
			default_semester_id = EXCLUDED.default_semester_id`
)

// txn reads & writes within one database transaction. Rows keep their insertion order (seq).
type txn struct {
	tx *sqlx.Tx
}

var _ school.Tx = (*txn)(nil)

func (t *txn) ListSemesters(ctx context.Context) ([]school.Semester, error) {
	var rows []semesterRow
	if err := t.tx.SelectContext(ctx, &rows, "SELECT "+semesterColumns+" FROM semester ORDER BY seq"); err != nil {
		return nil, core.StoreError(err, "selecting semesters")
	}
	semesters := make([]school.Semester, 0, len(rows))
	for _, r := range rows {
		semesters = append(semesters, r.semester())
	}
	return semesters, nil
}

func (t *txn) ListCourses(ctx context.Context) ([]school.Course, error) {
	var rows []courseRow
	if err := t.tx.SelectContext(ctx, &rows, "SELECT "+courseColumns+" FROM course ORDER BY seq"); err != nil {
		return nil, core.StoreError(err, "selecting courses")
	}
	courses := make([]school.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, r.course())
	}
	return courses, nil
}

func (t *txn) ListEnrollments(ctx context.Context) ([]school.Enrollment, error) {
	var rows []enrollmentRow
	if err := t.tx.SelectContext(ctx, &rows, "SELECT "+enrollmentColumns+" FROM enrollment ORDER BY seq"); err != nil {
		return nil, core.StoreError(err, "selecting enrollments")
	}
	enrollments := make([]school.Enrollment, 0, len(rows))
	for _, r := range rows {
		enrollments = append(enrollments, r.enrollment())
	}
	return enrollments, nil
}

func (t *txn) ListUsers(ctx context.Context) ([]user.User, error) {
	var rows []userRow
	if err := t.tx.SelectContext(ctx, &rows, "SELECT "+userColumns+" FROM app_user ORDER BY seq"); err != nil {
		return nil, core.StoreError(err, "selecting users")
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.user())
	}
	return users, nil
}

func (t *txn) ListAssignments(ctx context.Context) ([]school.Assignment, error) {
	var rows []assignmentRow
	if err := t.tx.SelectContext(ctx, &rows, "SELECT "+assignmentColumns+" FROM assignment ORDER BY seq"); err != nil {
		return nil, core.StoreError(err, "selecting assignments")
	}
	assignments := make([]school.Assignment, 0, len(rows))
	for _, r := range rows {
		a, err := r.assignment()
		if err != nil {
			return nil, core.StoreError(err, "reading assignments")
		}
		assignments = append(assignments, a)
	}
	return assignments, nil
}

func (t *txn) ListSubmissions(ctx context.Context) ([]school.Submission, error) {
	var rows []submissionRow
	if err := t.tx.SelectContext(ctx, &rows, "SELECT "+submissionColumns+" FROM submission ORDER BY seq"); err != nil {
		return nil, core.StoreError(err, "selecting submissions")
	}
	submissions := make([]school.Submission, 0, len(rows))
	for _, r := range rows {
		s, err := r.submission()
		if err != nil {
			return nil, core.StoreError(err, "reading submissions")
		}
		submissions = append(submissions, s)
	}
	return submissions, nil
}

func (t *txn) GetSettings(ctx context.Context) (school.Settings, error) {
	var row settingsRow
	err := t.tx.GetContext(ctx, &row, "SELECT active_semester_id, default_semester_id FROM settings WHERE id = 1")
	if errors.Is(err, sql.ErrNoRows) {
		return school.Settings{}, nil
	}
	if err != nil {
		return school.Settings{}, core.StoreError(err, "selecting settings")
	}
	return school.Settings{ActiveSemesterID: row.ActiveSemesterID.String, DefaultSemesterID: row.DefaultSemesterID.String}, nil
}

func (t *txn) exec(ctx context.Context, query string, arg interface{}) error {
	_, err := t.tx.NamedExecContext(ctx, query, arg)
	return err
}

func (t *txn) deleteAll(ctx context.Context, table string) error {
	_, err := t.tx.ExecContext(ctx, "DELETE FROM "+table)
	return core.StoreError(err, "clearing "+table)
}

func (t *txn) AppendEnrollment(ctx context.Context, e school.Enrollment) error {
	return core.StoreError(t.exec(ctx, insertEnrollment, newEnrollmentRow(e)), "inserting enrollment")
}

func (t *txn) RemoveEnrollment(ctx context.Context, id string) ([]school.Enrollment, error) {
	res, err := t.tx.ExecContext(ctx, "DELETE FROM enrollment WHERE id = $1", id)
	if err != nil {
		return nil, core.StoreError(err, "deleting enrollment")
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, core.StoreError(err, "deleting enrollment")
	} else if n == 0 {
		return nil, school.ErrEnrollmentNotFound
	}
	return t.ListEnrollments(ctx)
}

func (t *txn) ReplaceEnrollments(ctx context.Context, list []school.Enrollment) error {
	if err := t.deleteAll(ctx, "enrollment"); err != nil {
		return err
	}
	for _, e := range list {
		if err := t.AppendEnrollment(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (t *txn) AppendCourses(ctx context.Context, list []school.Course) error {
	for _, c := range list {
		if err := t.exec(ctx, insertCourse, newCourseRow(c)); err != nil {
			return core.StoreError(err, "inserting course "+c.ID)
		}
	}
	return nil
}

func (t *txn) ReplaceCourses(ctx context.Context, list []school.Course) error {
	if err := t.deleteAll(ctx, "course"); err != nil {
		return err
	}
	return t.AppendCourses(ctx, list)
}

func (t *txn) UpsertAssignment(ctx context.Context, a school.Assignment) error {
	row, err := newAssignmentRow(a)
	if err != nil {
		return err
	}
	return core.StoreError(t.exec(ctx, upsertAssignment, row), "upserting assignment")
}

func (t *txn) RemoveAssignment(ctx context.Context, id string) error {
	res, err := t.tx.ExecContext(ctx, "DELETE FROM assignment WHERE id = $1", id)
	if err != nil {
		return core.StoreError(err, "deleting assignment")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.StoreError(err, "deleting assignment")
	}
	if n == 0 {
		return school.ErrAssignmentNotFound
	}
	return nil
}

func (t *txn) ReplaceSubmissions(ctx context.Context, list []school.Submission) error {
	if err := t.deleteAll(ctx, "submission"); err != nil {
		return err
	}
	for _, s := range list {
		row, err := newSubmissionRow(s)
		if err != nil {
			return err
		}
		if err = t.exec(ctx, insertSubmission, row); err != nil {
			return core.StoreError(err, "inserting submission "+s.ID)
		}
	}
	return nil
}

func (t *txn) AppendSemester(ctx context.Context, s school.Semester) error {
	row := semesterRow{ID: s.ID, Name: s.Name, CreatedAt: s.CreatedAt}
	err := t.exec(ctx, "INSERT INTO semester ("+semesterColumns+") VALUES (:id, :name, :created_at)", row)
	return core.StoreError(err, "inserting semester")
}

func (t *txn) AppendUser(ctx context.Context, u user.User) error {
	err := t.exec(ctx, "INSERT INTO app_user ("+userColumns+") VALUES (:id, :name, :username, :email, :is_active, :roles, :created_at)", newUserRow(u))
	return core.StoreError(err, "inserting user")
}

func (t *txn) SaveSettings(ctx context.Context, s school.Settings) error {
	row := settingsRow{ActiveSemesterID: optional(s.ActiveSemesterID), DefaultSemesterID: optional(s.DefaultSemesterID)}
	return core.StoreError(t.exec(ctx, upsertSettings, row), "saving settings")
}

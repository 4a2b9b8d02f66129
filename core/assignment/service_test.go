package assignment_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/assignment"
	"github.com/trezcool/academia/core/grading"
	"github.com/trezcool/academia/core/school"
	logsvc "github.com/trezcool/academia/services/logger"
	dummydb "github.com/trezcool/academia/storage/database/dummy"
	"github.com/trezcool/academia/testutil"
)

func setup(t *testing.T) (*assignment.Service, *dummydb.DB) {
	db := testutil.NewStore(t)
	validate, translator := testutil.NewValidator()
	assignment.InitValidators(validate, translator)
	conf := core.NewTestConfig()
	return assignment.NewService(db, logsvc.NewDiscardLogger(), validate, translator, conf), db
}

func fieldOf(t *testing.T, err error) string {
	t.Helper()
	var verr *core.ValidationError
	require.True(t, errors.As(err, &verr), "expected a validation error, got %v", err)
	require.NotEmpty(t, verr.Fields)
	return verr.Fields[0].Field
}

func TestParseDeadline(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: "2024-12-31T23:59:00+02:00", want: time.Date(2024, 12, 31, 21, 59, 0, 0, time.UTC)},
		{in: "2024-12-31T10:30", want: time.Date(2024, 12, 31, 10, 30, 0, 0, time.UTC)},
		{in: " 2024-12-31 ", want: time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)},
		{in: "", wantErr: true},
		{in: "tomorrow", wantErr: true},
		{in: "2024-13-01", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := assignment.ParseDeadline(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "ParseDeadline() = %v, want %v", got, tt.want)
		})
	}
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	svc, db := setup(t)
	course := testutil.CreateCourse(t, db, "CS1", "semA")

	valid := func(mod func(na *assignment.NewAssignment)) assignment.NewAssignment {
		na := assignment.NewAssignment{
			CourseID: course.ID,
			Fields: assignment.Fields{
				Title:     "Quiz 1",
				Type:      "mcq",
				Deadline:  "2030-01-01",
				Questions: testutil.MCQ("a", "b"),
			},
		}
		if mod != nil {
			mod(&na)
		}
		return na
	}

	tests := []struct {
		name      string
		na        assignment.NewAssignment
		wantField string
		wantErr   error
	}{
		{name: "blank title", na: valid(func(na *assignment.NewAssignment) { na.Title = "   " }), wantField: "title"},
		{name: "no deadline", na: valid(func(na *assignment.NewAssignment) { na.Deadline = "" }), wantField: "deadline"},
		{name: "bad deadline", na: valid(func(na *assignment.NewAssignment) { na.Deadline = "next week" }), wantField: "deadline"},
		{name: "bad type", na: valid(func(na *assignment.NewAssignment) { na.Type = "oral" }), wantField: "type"},
		{name: "bad max score", na: valid(func(na *assignment.NewAssignment) { na.MaxScore = -1 }), wantField: "max_score"},
		{name: "no course", na: valid(func(na *assignment.NewAssignment) { na.CourseID = "" }), wantField: "course_id"},
		{name: "unknown course", na: valid(func(na *assignment.NewAssignment) { na.CourseID = "nope" }), wantErr: school.ErrCourseNotFound},
		{name: "ok"},
		{name: "empty questions", na: valid(func(na *assignment.NewAssignment) { na.Questions = nil; na.Type = "essay" })},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			na := tt.na
			if tt.name == "ok" {
				na = valid(nil)
			}
			a, err := svc.Create(ctx, na)
			switch {
			case tt.wantField != "":
				assert.Equal(t, tt.wantField, fieldOf(t, err))
			case tt.wantErr != nil:
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			default:
				require.NoError(t, err)
				assert.NotEmpty(t, a.ID)
				assert.Equal(t, course.ID, a.CourseID)
				assert.Equal(t, "semA", a.SemesterID)
				assert.Equal(t, core.DefaultMaxScore, a.MaxScore)
				assert.False(t, a.CreatedAt.IsZero())
				assert.NotNil(t, a.Questions)

				got, err := svc.Get(ctx, a.ID)
				require.NoError(t, err)
				assert.Equal(t, a, got)
			}
		})
	}
}

func TestService_Create_fileHasNoQuestions(t *testing.T) {
	svc, db := setup(t)
	course := testutil.CreateCourse(t, db, "CS1", "")

	a, err := svc.Create(context.Background(), assignment.NewAssignment{
		CourseID:   course.ID,
		SemesterID: "semB",
		Fields: assignment.Fields{
			Title:     "Report",
			Type:      "FILE",
			Deadline:  "2030-01-01T12:00",
			Questions: testutil.MCQ("a"),
			MaxScore:  100,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, school.TypeFile, a.Type)
	assert.Empty(t, a.Questions)
	assert.Equal(t, "semB", a.SemesterID)
	assert.Equal(t, 100, a.MaxScore)
	assert.Equal(t, "100/100", a.FullMarks())
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	svc, db := setup(t)
	course := testutil.CreateCourse(t, db, "CS1", "semA")

	a, err := svc.Create(ctx, assignment.NewAssignment{
		CourseID: course.ID,
		Fields:   assignment.Fields{Title: "Quiz", Type: "mcq", Deadline: "2030-01-01", Questions: testutil.MCQ("a")},
	})
	require.NoError(t, err)

	_, err = svc.Update(ctx, "nope", assignment.UpdateAssignment{
		Fields: assignment.Fields{Title: "X", Type: "mcq", Deadline: "2030-01-01"},
	})
	assert.True(t, errors.Is(err, school.ErrAssignmentNotFound), "got %v", err)

	_, err = svc.Update(ctx, a.ID, assignment.UpdateAssignment{Fields: assignment.Fields{Type: "mcq", Deadline: "2030-01-01"}})
	assert.Equal(t, "title", fieldOf(t, err))

	qs := testutil.MCQ("b", "c")
	updated, err := svc.Update(ctx, a.ID, assignment.UpdateAssignment{
		Fields: assignment.Fields{Title: "Quiz (v2)", Type: "mcq", Deadline: "2030-02-01", Questions: qs, ShowResults: true, MaxScore: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, a.ID, updated.ID)
	assert.Equal(t, a.CourseID, updated.CourseID)
	assert.Equal(t, a.SemesterID, updated.SemesterID)
	assert.Equal(t, a.CreatedAt, updated.CreatedAt)
	assert.Equal(t, "Quiz (v2)", updated.Title)
	assert.True(t, updated.ShowResults)
	assert.Equal(t, 10, updated.MaxScore)
	assert.Equal(t, qs, updated.Questions)

	// the saved questions do not alias the caller's
	qs[0].CorrectAnswer = "z"
	got, err := svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "b", got.Questions[0].CorrectAnswer)
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, db := setup(t)
	course := testutil.CreateCourse(t, db, "CS1", "semA")
	a1 := testutil.CreateAssignment(t, db, school.Assignment{CourseID: course.ID, Title: "A1"})
	a2 := testutil.CreateAssignment(t, db, school.Assignment{CourseID: course.ID, Title: "A2"})
	testutil.CreateSubmissions(t, db,
		school.Submission{AssignmentID: a1.ID, StudentID: "s1"},
		school.Submission{AssignmentID: a2.ID, StudentID: "s1"},
		school.Submission{AssignmentID: a1.ID, StudentID: "s2"},
	)

	_, err := svc.Delete(ctx, "nope")
	assert.True(t, errors.Is(err, school.ErrAssignmentNotFound), "got %v", err)
	assert.Len(t, testutil.ListSubmissions(t, db), 3)

	removed, err := svc.Delete(ctx, a1.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	for _, s := range testutil.ListSubmissions(t, db) {
		assert.NotEqual(t, a1.ID, s.AssignmentID)
	}
	assert.Len(t, testutil.ListSubmissions(t, db), 1)

	_, err = svc.Get(ctx, a1.ID)
	assert.True(t, errors.Is(err, school.ErrAssignmentNotFound))

	removed, err = svc.Delete(ctx, a2.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Empty(t, testutil.ListSubmissions(t, db))
}

func TestService_Query(t *testing.T) {
	ctx := context.Background()
	svc, db := setup(t)
	c1 := testutil.CreateCourse(t, db, "CS1", "semA")
	c2 := testutil.CreateCourse(t, db, "CS2", "semA")
	now := time.Now().UTC()
	late := testutil.CreateAssignment(t, db, school.Assignment{CourseID: c1.ID, SemesterID: "semA", Deadline: now.Add(48 * time.Hour)})
	soon := testutil.CreateAssignment(t, db, school.Assignment{CourseID: c1.ID, SemesterID: "semA", Deadline: now.Add(time.Hour)})
	other := testutil.CreateAssignment(t, db, school.Assignment{CourseID: c2.ID, SemesterID: "semB"})

	got, err := svc.Query(ctx, assignment.Filter{CourseID: c1.ID})
	require.NoError(t, err)
	assert.Equal(t, []school.Assignment{soon, late}, got)

	got, err = svc.Query(ctx, assignment.Filter{SemesterID: "semB"})
	require.NoError(t, err)
	assert.Equal(t, []school.Assignment{other}, got)

	got, err = svc.Query(ctx, assignment.Filter{})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestService_Submit(t *testing.T) {
	ctx := context.Background()
	svc, db := setup(t)
	course := testutil.CreateCourse(t, db, "CS1", "semA")
	student := testutil.CreateStudent(t, db, "ann")
	outsider := testutil.CreateStudent(t, db, "ben")
	testutil.Enroll(t, db, student.ID, course.ID, "semA")

	now := time.Now().UTC()
	quiz := testutil.CreateAssignment(t, db, school.Assignment{CourseID: course.ID, Questions: testutil.MCQ("a", "b", "c")})
	closed := testutil.CreateAssignment(t, db, school.Assignment{CourseID: course.ID, Deadline: now.Add(-time.Hour)})
	report := testutil.CreateAssignment(t, db, school.Assignment{CourseID: course.ID, Type: school.TypeFile})

	tests := []struct {
		name      string
		ns        assignment.NewSubmission
		wantField string
		wantErr   error
	}{
		{name: "missing student", ns: assignment.NewSubmission{AssignmentID: quiz.ID}, wantField: "student_id"},
		{name: "unknown assignment", ns: assignment.NewSubmission{AssignmentID: "nope", StudentID: student.ID}, wantErr: school.ErrAssignmentNotFound},
		{name: "deadline passed", ns: assignment.NewSubmission{AssignmentID: closed.ID, StudentID: student.ID}, wantErr: assignment.ErrDeadlinePassed},
		{name: "file required", ns: assignment.NewSubmission{AssignmentID: report.ID, StudentID: student.ID}, wantErr: assignment.ErrFileRequired},
		{name: "not enrolled", ns: assignment.NewSubmission{AssignmentID: quiz.ID, StudentID: outsider.ID}, wantErr: assignment.ErrNotEnrolled},
		{name: "ok", ns: assignment.NewSubmission{AssignmentID: quiz.ID, StudentID: student.ID, PositionalAnswers: []string{"a", "x"}}},
		{name: "twice", ns: assignment.NewSubmission{AssignmentID: quiz.ID, StudentID: student.ID}, wantErr: assignment.ErrAlreadySubmitted},
		{name: "file", ns: assignment.NewSubmission{AssignmentID: report.ID, StudentID: student.ID, FileURL: "https://files.test/report.pdf"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(testutil.ListSubmissions(t, db))
			sub, err := svc.Submit(ctx, tt.ns)
			switch {
			case tt.wantField != "":
				assert.Equal(t, tt.wantField, fieldOf(t, err))
			case tt.wantErr != nil:
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			default:
				require.NoError(t, err)
				assert.Equal(t, course.ID, sub.CourseID)
				assert.Empty(t, sub.Grade)
				assert.Len(t, testutil.ListSubmissions(t, db), before+1)
				return
			}
			assert.Len(t, testutil.ListSubmissions(t, db), before)
		})
	}

	subs, err := svc.Submissions(ctx, quiz.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, map[string]string{"q1": "a", "q2": "x"}, subs[0].Answers)

	_, err = svc.Submissions(ctx, "nope")
	assert.True(t, errors.Is(err, school.ErrAssignmentNotFound))
}

func TestService_Submit_keyedAnswers(t *testing.T) {
	svc, db := setup(t)
	course := testutil.CreateCourse(t, db, "CS1", "semA")
	student := testutil.CreateStudent(t, db, "cleo")
	testutil.Enroll(t, db, student.ID, course.ID, "semA")
	quiz := testutil.CreateAssignment(t, db, school.Assignment{CourseID: course.ID, Questions: testutil.MCQ("a", "b")})

	sub, err := svc.Submit(context.Background(), assignment.NewSubmission{
		AssignmentID: quiz.ID,
		StudentID:    student.ID,
		Answers:      map[string]string{"q2": "b", "q9": "stray"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"q2": "b"}, sub.Answers)
}

func TestService_questionIDs(t *testing.T) {
	noIDs := func(qs []school.Question) []school.Question {
		for i := range qs {
			qs[i].ID = ""
		}
		return qs
	}
	dupIDs := func(qs []school.Question) []school.Question {
		for i := range qs {
			qs[i].ID = "q"
		}
		return qs
	}

	tests := []struct {
		name      string
		questions []school.Question
		update    []school.Question // nil: no update
		keepIDs   bool
	}{
		{name: "repeated ids", questions: dupIDs(testutil.MCQ("a", "b"))},
		{name: "missing ids", questions: noIDs(testutil.MCQ("a", "b"))},
		{name: "missing ids kept on update", questions: noIDs(testutil.MCQ("a", "b")), update: noIDs(testutil.MCQ("a", "b")), keepIDs: true},
		{name: "repeated ids on update", questions: testutil.MCQ("a", "b"), update: dupIDs(testutil.MCQ("a", "b"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc, db := setup(t)
			course := testutil.CreateCourse(t, db, "CS1", "semA")
			student := testutil.CreateStudent(t, db, "dan")
			testutil.Enroll(t, db, student.ID, course.ID, "semA")

			fields := assignment.Fields{Title: "Quiz", Type: "mcq", Deadline: "2030-01-01", Questions: tt.questions}
			a, err := svc.Create(ctx, assignment.NewAssignment{CourseID: course.ID, Fields: fields})
			require.NoError(t, err)
			require.Len(t, a.Questions, 2)
			assert.NotEmpty(t, a.Questions[0].ID)
			assert.NotEqual(t, a.Questions[0].ID, a.Questions[1].ID)
			if tt.questions[0].ID != "" {
				assert.Equal(t, tt.questions[0].ID, a.Questions[0].ID, "the first use of an id keeps it")
			}

			sub, err := svc.Submit(ctx, assignment.NewSubmission{
				AssignmentID:      a.ID,
				StudentID:         student.ID,
				PositionalAnswers: []string{"a", "b"},
			})
			require.NoError(t, err)
			assert.Len(t, sub.Answers, 2)

			if tt.update != nil {
				fields.Title = "Quiz (v2)"
				fields.Questions = tt.update
				updated, err := svc.Update(ctx, a.ID, assignment.UpdateAssignment{Fields: fields})
				require.NoError(t, err)
				require.Len(t, updated.Questions, 2)
				assert.NotEqual(t, updated.Questions[0].ID, updated.Questions[1].ID)
				if tt.keepIDs {
					assert.Equal(t, a.Questions[0].ID, updated.Questions[0].ID)
					assert.Equal(t, a.Questions[1].ID, updated.Questions[1].ID)
				}
				a = updated
			}

			if tt.update == nil || tt.keepIDs {
				assert.Equal(t, "2/2", grading.Calculate(sub, a))
			}
		})
	}
}

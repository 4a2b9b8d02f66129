package grading_test

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/grading"
	"github.com/trezcool/academia/core/school"
	logsvc "github.com/trezcool/academia/services/logger"
	dummydb "github.com/trezcool/academia/storage/database/dummy"
	"github.com/trezcool/academia/testutil"
)

func setup(t *testing.T) (*grading.Service, *dummydb.DB) {
	db := testutil.NewStore(t)
	return grading.NewService(db, logsvc.NewDiscardLogger(), core.NewTestConfig()), db
}

func gradesByID(subs []school.Submission) map[string]string {
	grades := make(map[string]string, len(subs))
	for _, s := range subs {
		grades[s.ID] = s.Grade
	}
	return grades
}

func TestCalculate(t *testing.T) {
	a := school.Assignment{Type: school.TypeMCQ, Questions: testutil.MCQ("a", "b", "c")}

	tests := []struct {
		name    string
		answers map[string]string
		qs      []school.Question
		want    string
	}{
		{name: "two right", answers: school.AnswersFromPositional(a.Questions, []string{"a", "x", "c"}), want: "2/3"},
		{name: "all right", answers: map[string]string{"q1": "a", "q2": "b", "q3": "c"}, want: "3/3"},
		{name: "no answers", want: "0/3"},
		{name: "case sensitive", answers: map[string]string{"q1": "A", "q2": "b"}, want: "1/3"},
		{name: "unset correct answer never scores", qs: testutil.MCQ("a", "", "c"), answers: map[string]string{"q1": "a", "q2": "", "q3": "c"}, want: "2/3"},
		{name: "no questions", qs: []school.Question{}, answers: map[string]string{"q1": "a"}, want: "0/0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asg := a
			if tt.qs != nil {
				asg.Questions = tt.qs
			}
			sub := school.Submission{Answers: tt.answers}
			assert.Equal(t, tt.want, grading.Calculate(sub, asg))
			assert.Equal(t, tt.want, grading.Calculate(sub, asg), "the score only depends on questions and answers")
		})
	}
}

func TestService_AutoGradeMCQ(t *testing.T) {
	ctx := context.Background()
	svc, db := setup(t)
	quiz := testutil.CreateAssignment(t, db, school.Assignment{Questions: testutil.MCQ("a", "b", "c")})
	essay := testutil.CreateAssignment(t, db, school.Assignment{Type: school.TypeEssay, Questions: testutil.MCQ("a")})
	subs := testutil.CreateSubmissions(t, db,
		school.Submission{AssignmentID: quiz.ID, StudentID: "s1", Answers: map[string]string{"q1": "a", "q2": "x", "q3": "c"}, Grade: "19/20"},
		school.Submission{AssignmentID: quiz.ID, StudentID: "s2", Answers: map[string]string{"q1": "a", "q2": "b", "q3": "c"}},
		school.Submission{AssignmentID: essay.ID, StudentID: "s1", Answers: map[string]string{"q1": "a"}, Grade: "B+"},
	)

	changed, err := svc.AutoGradeMCQ(ctx, quiz.ID)
	require.NoError(t, err)
	assert.Len(t, changed, 2)

	grades := gradesByID(testutil.ListSubmissions(t, db))
	assert.Equal(t, "2/3", grades[subs[0].ID], "manual grades are overwritten")
	assert.Equal(t, "3/3", grades[subs[1].ID])
	assert.Equal(t, "B+", grades[subs[2].ID])

	_, err = svc.AutoGradeMCQ(ctx, essay.ID)
	assert.True(t, errors.Is(err, grading.ErrNotAutoGradable), "got %v", err)
	assert.Equal(t, "B+", gradesByID(testutil.ListSubmissions(t, db))[subs[2].ID])

	changed, err = svc.AutoGradeMCQ(ctx, "nope")
	require.NoError(t, err)
	assert.Empty(t, changed)
}

func TestService_SetGrade(t *testing.T) {
	ctx := context.Background()
	svc, db := setup(t)
	a := testutil.CreateAssignment(t, db, school.Assignment{})
	subs := testutil.CreateSubmissions(t, db,
		school.Submission{AssignmentID: a.ID, StudentID: "s1"},
		school.Submission{AssignmentID: a.ID, StudentID: "s2", Grade: "10/20"},
	)

	changed, err := svc.SetGrade(ctx, subs[0].ID, "whatever")
	require.NoError(t, err)
	require.Len(t, changed, 1)
	assert.Equal(t, "whatever", changed[0].Grade)

	changed, err = svc.SetGrade(ctx, "nope", "20/20")
	require.NoError(t, err)
	assert.Empty(t, changed)

	grades := gradesByID(testutil.ListSubmissions(t, db))
	assert.Equal(t, map[string]string{subs[0].ID: "whatever", subs[1].ID: "10/20"}, grades)
}

func TestService_BulkApplyGrade(t *testing.T) {
	ctx := context.Background()
	a := school.Assignment{}

	for seed := int64(1); seed <= 5; seed++ {
		svc, db := setup(t)
		asg := testutil.CreateAssignment(t, db, a)
		subs := testutil.CreateSubmissions(t, db,
			school.Submission{AssignmentID: asg.ID, StudentID: "s1", Grade: "1/20"},
			school.Submission{AssignmentID: asg.ID, StudentID: "s2", Grade: "2/20"},
			school.Submission{AssignmentID: asg.ID, StudentID: "s3", Grade: "3/20"},
			school.Submission{AssignmentID: asg.ID, StudentID: "s4", Grade: "4/20"},
		)

		ids := []string{subs[0].ID, subs[1].ID, subs[2].ID, subs[0].ID, "nope"}
		rand.New(rand.NewSource(seed)).Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

		_, err := svc.BulkApplyGrade(ctx, ids, "12/20")
		require.NoError(t, err)
		changed, err := svc.BulkApplyGrade(ctx, ids, "15/20")
		require.NoError(t, err)
		assert.Len(t, changed, 3, "duplicates collapse, unknown ids are ignored")

		grades := gradesByID(testutil.ListSubmissions(t, db))
		assert.Equal(t, map[string]string{
			subs[0].ID: "15/20",
			subs[1].ID: "15/20",
			subs[2].ID: "15/20",
			subs[3].ID: "4/20",
		}, grades, "seed %d", seed)
	}
}

func TestService_BulkApplyGrade_noop(t *testing.T) {
	ctx := context.Background()
	svc, db := setup(t)
	asg := testutil.CreateAssignment(t, db, school.Assignment{})
	subs := testutil.CreateSubmissions(t, db, school.Submission{AssignmentID: asg.ID, StudentID: "s1", Grade: "5/20"})

	tests := []struct {
		name  string
		ids   []string
		grade string
	}{
		{name: "empty grade", ids: []string{subs[0].ID}, grade: ""},
		{name: "blank grade", ids: []string{subs[0].ID}, grade: "  "},
		{name: "no ids", grade: "20/20"},
		{name: "blank ids", ids: []string{"", " "}, grade: "20/20"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changed, err := svc.BulkApplyGrade(ctx, tt.ids, tt.grade)
			require.NoError(t, err)
			assert.Empty(t, changed)
			assert.Equal(t, "5/20", testutil.ListSubmissions(t, db)[0].Grade)
		})
	}
}

func TestService_FullMarks(t *testing.T) {
	ctx := context.Background()
	svc, db := setup(t)
	twenty := testutil.CreateAssignment(t, db, school.Assignment{})
	ten := testutil.CreateAssignment(t, db, school.Assignment{MaxScore: 10})
	subs := testutil.CreateSubmissions(t, db,
		school.Submission{AssignmentID: twenty.ID, StudentID: "s1"},
		school.Submission{AssignmentID: ten.ID, StudentID: "s1"},
		school.Submission{AssignmentID: "gone", StudentID: "s1"},
		school.Submission{AssignmentID: ten.ID, StudentID: "s2", Grade: "3/10"},
	)

	changed, err := svc.FullMarks(ctx, []string{subs[0].ID, subs[1].ID, subs[2].ID})
	require.NoError(t, err)
	assert.Len(t, changed, 3)

	assert.Equal(t, map[string]string{
		subs[0].ID: "20/20",
		subs[1].ID: "10/10",
		subs[2].ID: "20/20",
		subs[3].ID: "3/10",
	}, gradesByID(testutil.ListSubmissions(t, db)))

	changed, err = svc.FullMarks(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, changed)
}

func TestService_Score(t *testing.T) {
	ctx := context.Background()
	svc, db := setup(t)
	quiz := testutil.CreateAssignment(t, db, school.Assignment{Questions: testutil.MCQ("a", "b", "c")})
	subs := testutil.CreateSubmissions(t, db,
		school.Submission{AssignmentID: quiz.ID, StudentID: "s1", Answers: map[string]string{"q1": "a", "q2": "x", "q3": "c"}},
	)

	grade, err := svc.Score(ctx, subs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "2/3", grade)
	assert.Empty(t, testutil.ListSubmissions(t, db)[0].Grade, "scoring does not save")

	_, err = svc.Score(ctx, "nope")
	assert.True(t, errors.Is(err, school.ErrSubmissionNotFound))
}

func TestNewService_maxScore(t *testing.T) {
	tests := []struct {
		name       string
		configured int
		want       string
	}{
		{name: "configured", configured: 50, want: "50/50"},
		{name: "unset", configured: 0, want: fmt.Sprintf("%d/%d", core.DefaultMaxScore, core.DefaultMaxScore)},
		{name: "negative", configured: -1, want: fmt.Sprintf("%d/%d", core.DefaultMaxScore, core.DefaultMaxScore)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.NewStore(t)
			conf := core.NewTestConfig()
			conf.Grading.DefaultMaxScore = tt.configured
			svc := grading.NewService(db, logsvc.NewDiscardLogger(), conf)
			subs := testutil.CreateSubmissions(t, db, school.Submission{AssignmentID: "gone", StudentID: "s1"})

			_, err := svc.FullMarks(context.Background(), []string{subs[0].ID})
			require.NoError(t, err)
			assert.Equal(t, tt.want, testutil.ListSubmissions(t, db)[0].Grade)
		})
	}
}

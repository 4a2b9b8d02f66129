package enrollment_test

import (
	"context"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/enrollment"
	"github.com/trezcool/academia/core/school"
	"github.com/trezcool/academia/core/user"
	logsvc "github.com/trezcool/academia/services/logger"
	dummydb "github.com/trezcool/academia/storage/database/dummy"
	"github.com/trezcool/academia/testutil"
)

func setup(t *testing.T, opts enrollment.Options) (*enrollment.Service, *dummydb.DB) {
	db := testutil.NewStore(t)
	return enrollment.NewService(db, logsvc.NewDiscardLogger(), opts), db
}

func countFor(enrollments []school.Enrollment, studentID, semesterID string) int {
	var n int
	for _, e := range enrollments {
		if e.StudentID == studentID && e.EffectiveSemester() == semesterID {
			n++
		}
	}
	return n
}

func TestService_Enroll_quota(t *testing.T) {
	ctx := context.Background()

	for seed := int64(1); seed <= 5; seed++ {
		svc, db := setup(t, enrollment.Options{})
		student := testutil.CreateStudent(t, db, "bob")
		testutil.CreateSemester(t, db, "fall24")
		courses := testutil.CreateCourses(t, db, "CS", "fall24", 7)

		// enroll in the first six in a random order
		first := courses[:6]
		rand.New(rand.NewSource(seed)).Shuffle(len(first), func(i, j int) { first[i], first[j] = first[j], first[i] })
		for _, c := range first {
			_, err := svc.Enroll(ctx, student.ID, c.ID, "fall24")
			require.NoError(t, err)
		}

		_, err := svc.Enroll(ctx, student.ID, courses[6].ID, "fall24")
		assert.True(t, errors.Is(err, enrollment.ErrQuotaExceeded), "seed %d: got %v", seed, err)
		assert.Equal(t, "quota_exceeded", enrollment.Reason(err))

		var verr *core.ValidationError
		assert.True(t, errors.As(err, &verr))
		assert.Equal(t, 6, countFor(testutil.ListEnrollments(t, db), student.ID, "fall24"))
	}
}

func TestService_Enroll_quotaScenario(t *testing.T) {
	ctx := context.Background()
	svc, db := setup(t, enrollment.Options{})
	student := testutil.CreateStudent(t, db, "sam")
	testutil.CreateSemester(t, db, "Fall24")
	courses := testutil.CreateCourses(t, db, "MA", "Fall24", 8)

	enrolled := make([]school.Enrollment, 0, 6)
	for _, c := range courses[:6] {
		enr, err := svc.Enroll(ctx, student.ID, c.ID, "Fall24")
		require.NoError(t, err)
		enrolled = append(enrolled, enr)
	}

	_, err := svc.Enroll(ctx, student.ID, courses[6].ID, "Fall24")
	require.True(t, errors.Is(err, enrollment.ErrQuotaExceeded))
	assert.Equal(t, 6, countFor(testutil.ListEnrollments(t, db), student.ID, "Fall24"))

	require.NoError(t, svc.Unenroll(ctx, enrolled[2].ID))
	assert.Equal(t, 5, countFor(testutil.ListEnrollments(t, db), student.ID, "Fall24"))

	enr, err := svc.Enroll(ctx, student.ID, courses[7].ID, "Fall24")
	require.NoError(t, err)
	assert.Equal(t, "Fall24", enr.SemesterID)
	assert.Equal(t, 6, countFor(testutil.ListEnrollments(t, db), student.ID, "Fall24"))
}

func TestService_Enroll(t *testing.T) {
	ctx := context.Background()
	svc, db := setup(t, enrollment.Options{})

	student := testutil.CreateStudent(t, db, "alice")
	other := testutil.CreateStudent(t, db, "carl")
	teacher := testutil.CreateUser(t, db, "tina", user.RoleTeacher)
	testutil.CreateSemester(t, db, "semA")
	testutil.CreateSemester(t, db, "semB")
	algoA := testutil.CreateCourse(t, db, "CS101", "semA")
	algoA2 := testutil.CreateCourse(t, db, "CS101", "semA") // same code, other section
	algoB := testutil.CreateCourse(t, db, "CS101", "semB")
	mathB := testutil.CreateCourse(t, db, "MA201", "semB")
	legacy := testutil.CreateCourse(t, db, "PH100", "")

	testutil.Enroll(t, db, student.ID, algoA.ID, "semA")
	testutil.Enroll(t, db, student.ID, legacy.ID, "") // predates semesters

	tests := []struct {
		name       string
		studentID  string
		courseID   string
		semesterID string
		wantErr    error
		wantSem    string
	}{
		{name: "unknown course", studentID: student.ID, courseID: "nope", semesterID: "semA", wantErr: school.ErrCourseNotFound},
		{name: "unknown student", studentID: "nope", courseID: mathB.ID, semesterID: "semB", wantErr: school.ErrStudentNotFound},
		{name: "not a student", studentID: teacher.ID, courseID: mathB.ID, semesterID: "semB", wantErr: school.ErrStudentNotFound},
		{name: "unknown semester", studentID: other.ID, courseID: mathB.ID, semesterID: "semZ", wantErr: school.ErrSemesterNotFound},
		{name: "same course twice", studentID: student.ID, courseID: algoA.ID, semesterID: "semA", wantErr: enrollment.ErrDuplicateInSemester},
		{name: "same code twice", studentID: student.ID, courseID: algoA2.ID, semesterID: "semA", wantErr: enrollment.ErrDuplicateInSemester},
		{name: "retake in other semester", studentID: student.ID, courseID: algoB.ID, semesterID: "semB", wantErr: enrollment.ErrAlreadyTakenPreviousSemester},
		{name: "legacy duplicate", studentID: student.ID, courseID: legacy.ID, wantErr: enrollment.ErrDuplicateInSemester},
		{name: "legacy retake", studentID: student.ID, courseID: legacy.ID, semesterID: "semB", wantErr: enrollment.ErrAlreadyTakenPreviousSemester},
		{name: "other student", studentID: other.ID, courseID: algoB.ID, semesterID: "semB", wantSem: "semB"},
		{name: "new code", studentID: student.ID, courseID: mathB.ID, semesterID: "semB", wantSem: "semB"},
		{name: "no semester", studentID: other.ID, courseID: legacy.ID, wantSem: school.DefaultSemesterID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(testutil.ListEnrollments(t, db))
			enr, err := svc.Enroll(ctx, tt.studentID, tt.courseID, tt.semesterID)
			after := len(testutil.ListEnrollments(t, db))

			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "Enroll() error = %v, wantErr %v", err, tt.wantErr)
				assert.Equal(t, before, after, "a rejected enrollment must not write")
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, enr.ID)
			assert.Equal(t, tt.studentID, enr.StudentID)
			assert.Equal(t, tt.courseID, enr.CourseID)
			assert.Equal(t, tt.wantSem, enr.SemesterID)
			assert.False(t, enr.EnrolledAt.IsZero())
			assert.Equal(t, before+1, after)
		})
	}
}

func TestService_Enroll_checkOrder(t *testing.T) {
	ctx := context.Background()
	svc, db := setup(t, enrollment.Options{MaxPerSemester: 1})
	student := testutil.CreateStudent(t, db, "dora")
	testutil.CreateSemester(t, db, "semA")
	course := testutil.CreateCourse(t, db, "EN100", "semA")
	testutil.Enroll(t, db, student.ID, course.ID, "semA")

	// both the quota and the duplicate rule fail: the quota wins
	_, err := svc.Enroll(ctx, student.ID, course.ID, "semA")
	assert.True(t, errors.Is(err, enrollment.ErrQuotaExceeded), "got %v", err)
}

func TestService_Enroll_retakePolicy(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		policy  string
		outcome school.EnrollmentOutcome
		wantErr error
	}{
		{name: "never/passed", policy: enrollment.PolicyNever, outcome: school.OutcomePassed, wantErr: enrollment.ErrAlreadyTakenPreviousSemester},
		{name: "never/failed", policy: enrollment.PolicyNever, outcome: school.OutcomeFailed, wantErr: enrollment.ErrAlreadyTakenPreviousSemester},
		{name: "unless_failed/unknown", policy: enrollment.PolicyUnlessFailed, outcome: school.OutcomeNone, wantErr: enrollment.ErrAlreadyTakenPreviousSemester},
		{name: "unless_failed/passed", policy: enrollment.PolicyUnlessFailed, outcome: school.OutcomePassed, wantErr: enrollment.ErrAlreadyTakenPreviousSemester},
		{name: "unless_failed/failed", policy: enrollment.PolicyUnlessFailed, outcome: school.OutcomeFailed},
		{name: "unless_failed/withdrawn", policy: enrollment.PolicyUnlessFailed, outcome: school.OutcomeWithdrawn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy, err := enrollment.RetakePolicyByName(tt.policy)
			require.NoError(t, err)
			svc, db := setup(t, enrollment.Options{RetakePolicy: policy})

			student := testutil.CreateStudent(t, db, "eve")
			testutil.CreateSemester(t, db, "semA")
			testutil.CreateSemester(t, db, "semB")
			first := testutil.CreateCourse(t, db, "BIO1", "semA")
			again := testutil.CreateCourse(t, db, "BIO1", "semB")
			prior := testutil.Enroll(t, db, student.ID, first.ID, "semA")
			_, err = svc.SetOutcome(ctx, prior.ID, tt.outcome)
			require.NoError(t, err)

			_, err = svc.Enroll(ctx, student.ID, again.ID, "semB")
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}

	_, err := enrollment.RetakePolicyByName("sometimes")
	assert.Error(t, err)
}

func TestService_SetOutcome(t *testing.T) {
	ctx := context.Background()
	svc, db := setup(t, enrollment.Options{})
	student := testutil.CreateStudent(t, db, "fred")
	course := testutil.CreateCourse(t, db, "CH1", "semA")
	enr := testutil.Enroll(t, db, student.ID, course.ID, "semA")

	_, err := svc.SetOutcome(ctx, enr.ID, "excellent")
	var verr *core.ValidationError
	assert.True(t, errors.As(err, &verr))

	_, err = svc.SetOutcome(ctx, "nope", school.OutcomePassed)
	assert.True(t, errors.Is(err, school.ErrEnrollmentNotFound))

	updated, err := svc.SetOutcome(ctx, enr.ID, school.OutcomePassed)
	require.NoError(t, err)
	assert.Equal(t, school.OutcomePassed, updated.Outcome)
}

func TestService_Unenroll(t *testing.T) {
	ctx := context.Background()
	svc, db := setup(t, enrollment.Options{})
	student := testutil.CreateStudent(t, db, "gina")
	course := testutil.CreateCourse(t, db, "GE1", "semA")
	enr := testutil.Enroll(t, db, student.ID, course.ID, "semA")

	err := svc.Unenroll(ctx, "nope")
	assert.True(t, errors.Is(err, school.ErrEnrollmentNotFound), "got %v", err)
	assert.Len(t, testutil.ListEnrollments(t, db), 1)

	require.NoError(t, svc.Unenroll(ctx, enr.ID))
	assert.Empty(t, testutil.ListEnrollments(t, db))
}

func TestService_Query(t *testing.T) {
	ctx := context.Background()
	svc, db := setup(t, enrollment.Options{})
	s1 := testutil.CreateStudent(t, db, "hugo")
	s2 := testutil.CreateStudent(t, db, "ivy")
	c1 := testutil.CreateCourse(t, db, "A1", "semA")
	c2 := testutil.CreateCourse(t, db, "A2", "")

	e1 := testutil.Enroll(t, db, s1.ID, c1.ID, "semA")
	e2 := testutil.Enroll(t, db, s1.ID, c2.ID, "")
	e3 := testutil.Enroll(t, db, s2.ID, c1.ID, "semA")

	tests := []struct {
		name   string
		filter enrollment.Filter
		want   []school.Enrollment
	}{
		{name: "all", want: []school.Enrollment{e1, e2, e3}},
		{name: "student", filter: enrollment.Filter{StudentID: s1.ID}, want: []school.Enrollment{e1, e2}},
		{name: "course", filter: enrollment.Filter{CourseID: c1.ID}, want: []school.Enrollment{e1, e3}},
		{name: "legacy semester", filter: enrollment.Filter{SemesterID: school.DefaultSemesterID}, want: []school.Enrollment{e2}},
		{name: "student & semester", filter: enrollment.Filter{StudentID: s2.ID, SemesterID: "semA"}, want: []school.Enrollment{e3}},
		{name: "none", filter: enrollment.Filter{StudentID: "nope"}, want: []school.Enrollment{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Query(ctx, tt.filter)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestNewServiceFromConfig(t *testing.T) {
	conf := core.NewTestConfig()
	db := testutil.NewStore(t)

	conf.Enrollment.RetakePolicy = "bogus"
	_, err := enrollment.NewServiceFromConfig(db, logsvc.NewDiscardLogger(), conf)
	assert.Error(t, err)

	conf.Enrollment.RetakePolicy = enrollment.PolicyUnlessFailed
	conf.Enrollment.MaxPerSemester = 2
	svc, err := enrollment.NewServiceFromConfig(db, logsvc.NewDiscardLogger(), conf)
	require.NoError(t, err)

	student := testutil.CreateStudent(t, db, "jack")
	testutil.CreateSemester(t, db, "semA")
	courses := testutil.CreateCourses(t, db, "X", "semA", 3)
	for _, c := range courses[:2] {
		_, err = svc.Enroll(context.Background(), student.ID, c.ID, "semA")
		require.NoError(t, err)
	}
	_, err = svc.Enroll(context.Background(), student.ID, courses[2].ID, "semA")
	assert.True(t, errors.Is(err, enrollment.ErrQuotaExceeded))
}

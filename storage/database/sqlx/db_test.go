package sqlxdb_test

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core/enrollment"
	"github.com/trezcool/academia/core/school"
	logsvc "github.com/trezcool/academia/services/logger"
	"github.com/trezcool/academia/storage/database"
	sqlxdb "github.com/trezcool/academia/storage/database/sqlx"
	"github.com/trezcool/academia/storage/database/storetest"
	"github.com/trezcool/academia/testutil"
)

// newStore returns a store on an emptied TEST_DATABASE_URL database.
func newStore(t *testing.T) *sqlxdb.DB {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db.DB))
	_, err = db.Exec("TRUNCATE app_user, semester, settings, course, enrollment, assignment, submission RESTART IDENTITY")
	require.NoError(t, err)

	store := sqlxdb.New(db.DB)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestDB_contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) school.Store { return newStore(t) })
}

func TestDB_concurrentEnroll(t *testing.T) {
	ctx := context.Background()
	db := newStore(t)
	svc := enrollment.NewService(db, logsvc.NewDiscardLogger(), enrollment.Options{MaxPerSemester: 6})
	student := testutil.CreateStudent(t, db, "zed")
	testutil.CreateSemester(t, db, "semA")
	courses := testutil.CreateCourses(t, db, "P", "semA", 12)

	var wg sync.WaitGroup
	for _, c := range courses {
		wg.Add(1)
		go func(courseID string) {
			defer wg.Done()
			// retry conflicts like a client would
			for {
				_, err := svc.Enroll(ctx, student.ID, courseID, "semA")
				if !storetest.IsConflict(err) {
					return
				}
			}
		}(c.ID)
	}
	wg.Wait()

	assert.Len(t, testutil.ListEnrollments(t, db), enrollment.DefaultMaxPerSemester)
}

// Package sqlxdb is the PostgreSQL school.Store.
//
// Updates run at the SERIALIZABLE isolation level: a transaction whose reads were
// invalidated by a concurrent one fails with a serialization error, reported as core.ErrConflict.
package sqlxdb

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/school"
	"github.com/trezcool/academia/storage/database"
)

type DB struct {
	db *sqlx.DB
}

var _ school.Store = (*DB)(nil) // interface compliance check

func New(db *sql.DB) *DB {
	return &DB{db: sqlx.NewDb(db, "postgres")}
}

// Open connects to the configured database and applies pending migrations.
func Open(conf *core.Config) (*DB, error) {
	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if err = database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db), nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

func (db *DB) View(ctx context.Context, fn func(r school.Reader) error) error {
	tx, err := db.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return core.StoreError(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	return fn(&txn{tx: tx})
}

func (db *DB) Update(ctx context.Context, fn func(tx school.Tx) error) error {
	tx, err := db.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return core.StoreError(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if err = fn(&txn{tx: tx}); err != nil {
		return conflict(err)
	}
	return conflict(core.StoreError(tx.Commit(), "committing"))
}

// conflict reports serialization failures as core.ErrConflict.
func conflict(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "serialization_failure", "deadlock_detected":
			return errors.Wrap(core.ErrConflict, pqErr.Message)
		}
	}
	return err
}

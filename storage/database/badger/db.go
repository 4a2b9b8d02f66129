// Package badgerdb is an embedded school.Store backed by BadgerDB.
//
// Every collection is kept as a single JSON value. Badger transactions are optimistic and
// only detect conflicts on keys that were read, so one key per collection makes two
// concurrent read-check-append sequences on the same collection conflict.
package badgerdb

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/school"
)

type Options struct {
	Path       string // ignored when InMemory
	InMemory   bool
	SyncWrites bool
	GCInterval time.Duration // value log GC; 0 disables it
	Logger     core.Logger   // nil silences badger
}

type DB struct {
	db     *badger.DB
	stopGC chan struct{}
	gcDone chan struct{}
}

var _ school.Store = (*DB)(nil) // interface compliance check

func Open(opts Options) (*DB, error) {
	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if opts.Path == "" {
			return nil, errors.New("badger: a path is required")
		}
		if err := os.MkdirAll(opts.Path, 0750); err != nil {
			return nil, errors.Wrapf(err, "creating %s", opts.Path)
		}
		bopts = badger.DefaultOptions(opts.Path)
	}
	bopts = bopts.WithSyncWrites(opts.SyncWrites).WithNumVersionsToKeep(1)
	if opts.Logger != nil {
		bopts = bopts.WithLogger(badgerLogger{opts.Logger})
	} else {
		bopts = bopts.WithLogger(nil)
	}

	bdb, err := badger.Open(bopts)
	if err != nil {
		return nil, errors.Wrap(err, "opening badger")
	}

	db := &DB{db: bdb}
	if opts.GCInterval > 0 && !opts.InMemory {
		db.stopGC = make(chan struct{})
		db.gcDone = make(chan struct{})
		go db.runGC(opts.GCInterval, opts.Logger)
	}
	return db, nil
}

// OpenFromConfig opens the database at `database.badgerPath`.
func OpenFromConfig(conf *core.Config, logger core.Logger) (*DB, error) {
	return Open(Options{
		Path:       conf.Database.BadgerPath,
		InMemory:   conf.TestMode,
		SyncWrites: !conf.Debug,
		GCInterval: 5 * time.Minute,
		Logger:     logger,
	})
}

func (db *DB) runGC(interval time.Duration, logger core.Logger) {
	defer close(db.gcDone)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-db.stopGC:
			return
		case <-ticker.C:
			// ErrNoRewrite: nothing to collect
			if err := db.db.RunValueLogGC(0.5); err != nil && !errors.Is(err, badger.ErrNoRewrite) && logger != nil {
				logger.Warn("badger value log GC failed", err)
			}
		}
	}
}

func (db *DB) Close() error {
	if db.stopGC != nil {
		close(db.stopGC)
		<-db.gcDone
	}
	return db.db.Close()
}

func (db *DB) View(ctx context.Context, fn func(r school.Reader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return db.db.View(func(txn *badger.Txn) error {
		return fn(&tx{txn: txn})
	})
}

func (db *DB) Update(ctx context.Context, fn func(tx school.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	txn := db.db.NewTransaction(true)
	defer txn.Discard()

	if err := fn(&tx{txn: txn}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := txn.Commit(); err != nil {
		if errors.Is(err, badger.ErrConflict) {
			return errors.Wrap(core.ErrConflict, "committing")
		}
		return core.StoreError(err, "committing")
	}
	return nil
}

type badgerLogger struct {
	logger core.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error("badger: " + fmt.Sprintf(format, args...))
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn("badger: " + fmt.Sprintf(format, args...))
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug("badger: " + fmt.Sprintf(format, args...))
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug("badger: " + fmt.Sprintf(format, args...))
}

package catalog

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	_ "github.com/mattn/go-sqlite3"
	"go.pgarchive.dev/core/internal/catalogmetrics"
	"go.pgarchive.dev/core/internal/pgerror"
)

// Catalog is a transactional handle over the archive/connection/
// profile/basebackup/tablespace/retention/worker relational store.
// Transactions are non-reentrant per handle, matching store-sqlite's
// Store.Transaction: a second StartTransaction before Commit or
// Rollback fails rather than silently nesting.
type Catalog struct {
	db  *sql.DB
	txn *sql.Tx
	dsn string
}

// OpenRW opens (creating if necessary) the SQLite database at path
// and runs the catalog's bootstrap DDL against it. A fresh catalog
// also gets its mandatory "default" backup profile created here, so
// that every catalog satisfies spec.md §3's "a profile named default
// must exist after catalog initialization" immediately on open.
func OpenRW(path string) (*Catalog, error) {
	var dsn = "file:" + path + "?_journal_mode=WAL&_foreign_keys=on"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.WithMessage(err, "opening catalog database")
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(bootstrapSQL); err != nil {
		db.Close()
		return nil, errors.WithMessage(err, "executing catalog bootstrap DDL")
	}
	var c = &Catalog{db: db, dsn: dsn}
	if err := c.ensureDefaultProfile(); err != nil {
		db.Close()
		return nil, err
	}
	log.WithField("path", path).Info("catalog opened")
	return c, nil
}

func (c *Catalog) ensureDefaultProfile() error {
	var name string
	var err = c.db.QueryRow(`SELECT name FROM backup_profile WHERE name = ?`, "default").Scan(&name)
	if err == sql.ErrNoRows {
		_, err = c.db.Exec(`INSERT INTO backup_profile(name, compress_type) VALUES ('default', 'none')`)
		return errors.WithMessage(err, "creating default backup profile")
	}
	return errors.WithMessage(err, "checking for default backup profile")
}

// Close releases the underlying database handle. Close with a
// transaction still open is a programmer error; the transaction is
// rolled back defensively and the error logged, not returned, since
// Close itself must not fail on a cleanup path.
func (c *Catalog) Close() error {
	if c.txn != nil {
		if err := c.txn.Rollback(); err != nil {
			log.WithError(err).Warn("rolling back abandoned transaction on close")
		}
		c.txn = nil
	}
	return c.db.Close()
}

// Available reports whether the Catalog has a live handle.
func (c *Catalog) Available() bool { return c != nil && c.db != nil }

func (c *Catalog) requireAvailable(op string) error {
	if !c.Available() {
		return &pgerror.CatalogUnavailableError{Op: op}
	}
	return nil
}

// StartTransaction opens a new transaction on the handle. It fails if
// one is already open.
func (c *Catalog) StartTransaction(ctx context.Context) error {
	if err := c.requireAvailable("start_transaction"); err != nil {
		return err
	}
	if c.txn != nil {
		return errors.New("catalog: transaction already in progress")
	}
	txn, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WithMessage(err, "starting catalog transaction")
	}
	c.txn = txn
	return nil
}

// CommitTransaction commits the open transaction.
func (c *Catalog) CommitTransaction() error {
	if c.txn == nil {
		return errors.New("catalog: no transaction in progress")
	}
	var txn = c.txn
	c.txn = nil
	return errors.WithMessage(txn.Commit(), "committing catalog transaction")
}

// RollbackTransaction rolls back the open transaction.
func (c *Catalog) RollbackTransaction() error {
	if c.txn == nil {
		return errors.New("catalog: no transaction in progress")
	}
	var txn = c.txn
	c.txn = nil
	return errors.WithMessage(txn.Rollback(), "rolling back catalog transaction")
}

// WithTransaction runs fn under a new transaction, committing on
// success and rolling back (without masking fn's error) on failure.
// This is the common protocol spec.md §4.F asks the command executor
// to apply around every command body.
func (c *Catalog) WithTransaction(ctx context.Context, fn func() error) error {
	if err := c.StartTransaction(ctx); err != nil {
		return err
	}
	if err := fn(); err != nil {
		if rbErr := c.RollbackTransaction(); rbErr != nil {
			log.WithError(rbErr).Warn("rollback failed after command error; original error preserved")
		}
		catalogmetrics.CatalogTxTotal.WithLabelValues(catalogmetrics.Fail).Inc()
		return err
	}
	if err := c.CommitTransaction(); err != nil {
		catalogmetrics.CatalogTxTotal.WithLabelValues(catalogmetrics.Fail).Inc()
		return err
	}
	catalogmetrics.CatalogTxTotal.WithLabelValues(catalogmetrics.Ok).Inc()
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx, letting entity
// CRUD methods run either inside or outside an explicit transaction.
type querier interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// q returns the open transaction if one exists, else the bare
// database handle — entity CRUD always goes through this so it works
// whether or not the caller wrapped it in StartTransaction.
func (c *Catalog) q() querier {
	if c.txn != nil {
		return c.txn
	}
	return c.db
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/rl1809/blood-bank/internal/port"
)

// SQLLedger stores every key as one row of ledger_state. Reads lock the row
// (where the dialect supports it) so that concurrent read-modify-write
// transactions on the same key serialize or fail with ErrConflict.
type SQLLedger struct {
	db          *sql.DB
	dialect     sqlDialect
	maxAttempts int
}

func newSQLLedger(ctx context.Context, db *sql.DB, dialect sqlDialect, maxAttempts int) (*SQLLedger, error) {
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect.name, err)
	}
	if _, err := db.ExecContext(ctx, dialect.createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create ledger_state: %w", err)
	}
	return &SQLLedger{db: db, dialect: dialect, maxAttempts: maxAttempts}, nil
}

func OpenMySQLLedger(ctx context.Context, dsn string, maxAttempts int) (*SQLLedger, error) {
	db, err := sql.Open(mysqlDialect.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	return newSQLLedger(ctx, db, mysqlDialect, maxAttempts)
}

func OpenPostgresLedger(ctx context.Context, dsn string, maxAttempts int) (*SQLLedger, error) {
	db, err := sql.Open(postgresDialect.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(50)
	db.SetConnMaxLifetime(5 * time.Minute)
	return newSQLLedger(ctx, db, postgresDialect, maxAttempts)
}

// OpenSQLiteLedger opens a file-backed ledger. Write transactions take the
// database lock up front and a single connection is used, so transactions
// never interleave.
func OpenSQLiteLedger(ctx context.Context, path string, maxAttempts int) (*SQLLedger, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_txlock=immediate", path)
	db, err := sql.Open(sqliteDialect.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	return newSQLLedger(ctx, db, sqliteDialect, maxAttempts)
}

func (s *SQLLedger) RunInTransaction(ctx context.Context, fn func(tx port.Ledger) error) error {
	return runWithRetry(ctx, s.maxAttempts, func() error {
		return s.runOnce(ctx, fn)
	})
}

func (s *SQLLedger) runOnce(ctx context.Context, fn func(tx port.Ledger) error) error {
	tx, err := s.db.BeginTx(ctx, s.dialect.txOptions)
	if err != nil {
		return s.wrap("begin tx", err)
	}
	defer tx.Rollback()

	if err := fn(&sqlTx{tx: tx, ledger: s}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return s.wrap("commit", err)
	}
	return nil
}

func (s *SQLLedger) wrap(op string, err error) error {
	if s.dialect.isConflict(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrConflict, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// DB exposes the underlying sql.DB for test setup and cleanup.
func (s *SQLLedger) DB() *sql.DB { return s.db }

func (s *SQLLedger) Close() error {
	return s.db.Close()
}

type sqlTx struct {
	tx     *sql.Tx
	ledger *SQLLedger
}

func (t *sqlTx) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var payload []byte
	err := t.tx.QueryRowContext(ctx, t.ledger.dialect.selectValue, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, t.ledger.wrap(fmt.Sprintf("select %q", key), err)
	}
	return payload, nil
}

func (t *sqlTx) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := t.tx.ExecContext(ctx, t.ledger.dialect.upsertValue, key, value); err != nil {
		return t.ledger.wrap(fmt.Sprintf("upsert %q", key), err)
	}
	return nil
}

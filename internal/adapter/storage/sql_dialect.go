package storage

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// sqlDialect carries the per-database statements for the ledger_state table.
type sqlDialect struct {
	name        string
	driver      string
	createTable string
	selectValue string
	upsertValue string
	txOptions   *sql.TxOptions
	isConflict  func(error) bool
}

var mysqlDialect = sqlDialect{
	name:   "mysql",
	driver: "mysql",
	createTable: `
		CREATE TABLE IF NOT EXISTS ledger_state (
			state_key  VARCHAR(255) NOT NULL PRIMARY KEY,
			payload    LONGBLOB NOT NULL,
			version    BIGINT NOT NULL DEFAULT 0,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		)`,
	selectValue: `SELECT payload FROM ledger_state WHERE state_key = ? FOR UPDATE`,
	upsertValue: `
		INSERT INTO ledger_state (state_key, payload, version)
		VALUES (?, ?, 1)
		ON DUPLICATE KEY UPDATE payload = VALUES(payload), version = version + 1`,
	isConflict: isMySQLConflict,
}

var postgresDialect = sqlDialect{
	name:   "postgres",
	driver: "pgx",
	createTable: `
		CREATE TABLE IF NOT EXISTS ledger_state (
			state_key  TEXT PRIMARY KEY,
			payload    BYTEA NOT NULL,
			version    BIGINT NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	selectValue: `SELECT payload FROM ledger_state WHERE state_key = $1 FOR UPDATE`,
	upsertValue: `
		INSERT INTO ledger_state (state_key, payload, version, updated_at)
		VALUES ($1, $2, 1, now())
		ON CONFLICT (state_key) DO UPDATE
		SET payload = EXCLUDED.payload, version = ledger_state.version + 1, updated_at = now()`,
	txOptions:  &sql.TxOptions{Isolation: sql.LevelSerializable},
	isConflict: isPostgresConflict,
}

var sqliteDialect = sqlDialect{
	name:   "sqlite",
	driver: "sqlite",
	createTable: `
		CREATE TABLE IF NOT EXISTS ledger_state (
			state_key  TEXT PRIMARY KEY,
			payload    BLOB NOT NULL,
			version    INTEGER NOT NULL DEFAULT 0,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	selectValue: `SELECT payload FROM ledger_state WHERE state_key = ?`,
	upsertValue: `
		INSERT INTO ledger_state (state_key, payload, version, updated_at)
		VALUES (?, ?, 1, CURRENT_TIMESTAMP)
		ON CONFLICT (state_key) DO UPDATE
		SET payload = excluded.payload, version = ledger_state.version + 1, updated_at = CURRENT_TIMESTAMP`,
	isConflict: isSQLiteConflict,
}

// deadlock and lock wait timeout
func isMySQLConflict(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1213 || myErr.Number == 1205
	}
	return false
}

// serialization_failure, deadlock_detected and a lost race on the primary key insert
func isPostgresConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "23505":
			return true
		}
	}
	return false
}

func isSQLiteConflict(err error) bool {
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
	}
	return false
}

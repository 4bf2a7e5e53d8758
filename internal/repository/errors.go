// Package repository holds the MySQL data access layer.  The sentinel values
// below let handlers distinguish failure scenarios and map them to HTTP
// statuses.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the addressed row does not exist.  Handlers
// translate it into a 404.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a row
// they do not own.  Handlers translate it into a 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write violates a uniqueness constraint or
// conflicts with existing state.  Handlers translate it into a 409.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is the user-facing flavour of ErrConflict for signups.
var ErrEmailExists = errors.New("email already exists")

const mysqlDuplicateEntry = 1062

// isDuplicate reports a unique key violation.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDuplicateEntry
	}
	return err != nil && strings.Contains(err.Error(), "1062")
}

// ensureExists tells an UPDATE that matched nothing apart from one that
// changed nothing.  MySQL reports 0 affected rows for both.
func ensureExists(ctx context.Context, db *sql.DB, table string, id uint64) error {
	var one int
	err := db.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

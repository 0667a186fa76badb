package sqlite

import (
	"context"
	"database/sql"
	"errors"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mesh-intelligence/appendable/pkg/types"
)

// classify maps driver and context failures onto the engine error kinds.
// Errors that already carry a kind pass through unchanged.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var kinded *types.Error
	if errors.As(err, &kinded) {
		return err
	}

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return types.WrapError(types.CodeNotFound, op+": not found", err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return types.WrapError(types.CodeStorageUnavailable, op+": operation timed out", err)
	}

	var serr *msqlite.Error
	if errors.As(err, &serr) {
		switch serr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return types.WrapError(types.CodeConflict, op+": database is busy", err)
		case sqlite3.SQLITE_CONSTRAINT:
			return types.WrapError(types.CodeValidation, op+": "+constraintMessage(serr.Code()), err)
		}
	}

	return types.WrapError(types.CodeStorageUnavailable, op, err)
}

func constraintMessage(code int) string {
	switch code {
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return "referenced record does not exist"
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return "record already exists"
	case sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		return "required field missing"
	default:
		return "constraint violated"
	}
}

func detachedError(op string) error {
	return types.WrapError(types.CodeStorageUnavailable, op, types.ErrTimelineDetached)
}

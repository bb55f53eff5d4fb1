// Package sqlite is the embedded gorm-backed store used by tests and
// single-node deployments.
package sqlite

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"condo-ballots/internal/domain/ballot"
)

var errUnknownEnum = errors.New("ballot row has unknown question type or status")

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}

func storageErr(err error) error {
	if err == nil {
		return nil
	}
	if isTransient(err) {
		return ballot.Unavailable(err)
	}
	return err
}

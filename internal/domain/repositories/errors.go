package repositories

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"accessible-env-backend/internal/error/apperr"
	"accessible-env-backend/internal/error/code"
)

// translate maps driver and GORM errors onto application errors.
// notFound is the business code used for a missing row.
func translate(err error, notFound int) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound(notFound, "")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.Conflict(code.ErrConflict, "record already exists")
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return apperr.Integrity("referenced record does not exist or is still in use", err)
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return apperr.Integrity("value violates a check constraint", err)
	}

	// drivers that do not translate constraint errors
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unique constraint"),
		strings.Contains(msg, "duplicate entry"),
		strings.Contains(msg, "duplicate key"):
		return apperr.Conflict(code.ErrConflict, "record already exists")
	case strings.Contains(msg, "check constraint"),
		strings.Contains(msg, "foreign key constraint"),
		strings.Contains(msg, "not null constraint"):
		return apperr.Integrity("value violates a database constraint", err)
	}
	return apperr.Infrastructure(code.ErrDatabase, err)
}

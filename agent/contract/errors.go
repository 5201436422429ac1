package contract

import (
	"errors"

	"github.com/tanpawarit/GoodFoods-Reservation-Agent/pkg/errs"
)

var (
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrPromptMissing   = errors.New("required prompt is missing")
	ErrValidation      = errors.New("validation failed")

	ErrNotFound         = errors.New("not found")
	ErrCapacityConflict = errors.New("capacity conflict")
	ErrPersistence      = errors.New("persistence failed")
)

type ErrorKind string

const (
	ErrorKindValidation       ErrorKind = "validation"
	ErrorKindNotFound         ErrorKind = "not_found"
	ErrorKindCapacityConflict ErrorKind = "capacity_conflict"
	ErrorKindPersistence      ErrorKind = "persistence"
	ErrorKindInternal         ErrorKind = "internal"
)

// Validation builds a user-facing validation error.
func Validation(format string, args ...any) error {
	return errs.Mark(errs.Newf(format, args...), ErrValidation)
}

func NotFound(format string, args ...any) error {
	return errs.Mark(errs.Newf(format, args...), ErrNotFound)
}

// KindOf maps err onto the closed set of tool error kinds.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errs.Is(err, ErrValidation), errs.Is(err, ErrSchemaViolation):
		return ErrorKindValidation
	case errs.Is(err, ErrNotFound):
		return ErrorKindNotFound
	case errs.Is(err, ErrCapacityConflict):
		return ErrorKindCapacityConflict
	case errs.Is(err, ErrPersistence):
		return ErrorKindPersistence
	default:
		return ErrorKindInternal
	}
}

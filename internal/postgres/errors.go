package postgres

import (
	"database/sql"

	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/lib/pq"
)

const (
	codeUniqueViolation    = "23505"
	codeExclusionViolation = "23P01"
	codeCheckViolation     = "23514"
	codeForeignKey         = "23503"
)

// IsUniqueViolation reports whether err is a unique constraint failure,
// optionally on the named constraint
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !ierr.As(err, &pqErr) || pqErr.Code != codeUniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

// IsCheckViolation reports whether err is a check constraint failure
func IsCheckViolation(err error) bool {
	var pqErr *pq.Error
	return ierr.As(err, &pqErr) && pqErr.Code == codeCheckViolation
}

// WrapError marks a driver error with the matching sentinel. Errors that are
// already marked pass through unchanged.
func WrapError(err error, op string) error {
	if err == nil {
		return nil
	}
	for _, marked := range []error{
		ierr.ErrNotFound, ierr.ErrAlreadyExists, ierr.ErrConflict,
		ierr.ErrValidation, ierr.ErrDatabase, ierr.ErrPartiallyApplied,
	} {
		if ierr.Is(err, marked) {
			return err
		}
	}

	if ierr.Is(err, sql.ErrNoRows) {
		return ierr.WithError(err).
			WithMessage(op).
			WithHint("Record not found").
			Mark(ierr.ErrNotFound)
	}

	var pqErr *pq.Error
	if ierr.As(err, &pqErr) {
		details := map[string]any{
			"operation":  op,
			"constraint": pqErr.Constraint,
			"table":      pqErr.Table,
		}
		switch pqErr.Code {
		case codeUniqueViolation:
			return ierr.WithError(err).
				WithMessage(op).
				WithHint("A record with these values already exists").
				WithReportableDetails(details).
				Mark(ierr.ErrAlreadyExists)
		case codeExclusionViolation:
			return ierr.WithError(err).
				WithMessage(op).
				WithHint("The record overlaps an existing one").
				WithReportableDetails(details).
				Mark(ierr.ErrConflict)
		case codeCheckViolation, codeForeignKey:
			return ierr.WithError(err).
				WithMessage(op).
				WithHint("The change violates a data constraint").
				WithReportableDetails(details).
				Mark(ierr.ErrValidation)
		}
	}

	return ierr.WithError(err).
		WithMessage(op).
		WithHint("A database error occurred").
		Mark(ierr.ErrDatabase)
}

package postgres

import (
	"context"
	"database/sql"

	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/postgres"
	"github.com/getsentry/sentry-go"
)

// StartRepositorySpan creates a new span for a repository operation
func StartRepositorySpan(ctx context.Context, repository, operation string, params map[string]interface{}) *sentry.Span {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		return nil
	}

	span := sentry.StartSpan(ctx, "repository."+repository+"."+operation)
	if span != nil {
		span.Description = "repository." + repository + "." + operation
		span.Op = "db.postgres"

		span.SetData("repository", repository)
		span.SetData("operation", operation)
		for k, v := range params {
			span.SetData(k, v)
		}
	}
	return span
}

// FinishSpan finishes a span if it exists
func FinishSpan(span *sentry.Span) {
	if span != nil {
		span.Finish()
	}
}

// SetSpanError marks a span as failed and adds error information
func SetSpanError(span *sentry.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.Status = sentry.SpanStatusInternalError
	span.SetData("error", err.Error())
}

// SetSpanSuccess marks a span as successful
func SetSpanSuccess(span *sentry.Span) {
	if span != nil {
		span.Status = sentry.SpanStatusOK
	}
}

func orderClause(order string) string {
	if order == "asc" {
		return "ASC"
	}
	return "DESC"
}

// notFoundOr turns sql.ErrNoRows into a hinted ErrNotFound and wraps every
// other driver error
func notFoundOr(err error, entity, id string) error {
	if ierr.Is(err, sql.ErrNoRows) {
		return ierr.WithError(err).
			WithHintf("%s %s not found", entity, id).
			WithReportableDetails(map[string]any{
				"entity": entity,
				"id":     id,
			}).
			Mark(ierr.ErrNotFound)
	}
	return postgres.WrapError(err, "get "+entity)
}

func requireRows(result sql.Result, entity, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return postgres.WrapError(err, "rows affected")
	}
	if rows == 0 {
		return ierr.NewErrorf("%s %s not found", entity, id).
			WithHintf("%s %s not found", entity, id).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

// Package saga runs multi-record writes as ordered steps with matched
// compensations.
package saga

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/logger"
)

// Step is one forward write. Undo restores what Do wrote and must be safe to
// call more than once. A NonFatal step that fails is recorded as a warning and
// the saga carries on.
type Step struct {
	Name     string
	Do       func(ctx context.Context) error
	Undo     func(ctx context.Context) error
	NonFatal bool
}

// Reporter is told about sagas that could not be rolled back.
type Reporter interface {
	ReportPartiallyApplied(ctx context.Context, err error, details map[string]any)
}

// Outcome describes a saga that finished.
type Outcome struct {
	Completed []string
	Warnings  []string
}

// CompensationFailure is one undo that kept failing
type CompensationFailure struct {
	Step  string `json:"step"`
	Error string `json:"error"`
}

type Runner struct {
	logger          *logger.Logger
	reporter        Reporter
	retries         uint64
	initialInterval time.Duration
}

type Option func(*Runner)

// WithReporter sets where partially applied sagas are reported
func WithReporter(r Reporter) Option {
	return func(runner *Runner) {
		runner.reporter = r
	}
}

// WithCompensationRetries bounds how often a failed undo is retried
func WithCompensationRetries(retries uint64) Option {
	return func(runner *Runner) {
		runner.retries = retries
	}
}

// WithInitialInterval sets the first backoff interval between undo attempts
func WithInitialInterval(d time.Duration) Option {
	return func(runner *Runner) {
		runner.initialInterval = d
	}
}

func NewRunner(log *logger.Logger, opts ...Option) *Runner {
	r := &Runner{
		logger:          log,
		retries:         3,
		initialInterval: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes steps in order. When a mandatory step fails the completed steps
// are undone in reverse order. If every undo succeeds the step error is
// returned unchanged in kind. If any undo fails the error is marked
// ErrPartiallyApplied and reported.
//
// Once the first step has succeeded the remaining steps and compensations
// ignore cancellation of ctx.
func (r *Runner) Run(ctx context.Context, name string, steps []Step) (*Outcome, error) {
	outcome := &Outcome{}
	var done []Step
	runCtx := ctx

	for _, step := range steps {
		err := step.Do(runCtx)
		if err == nil {
			done = append(done, step)
			outcome.Completed = append(outcome.Completed, step.Name)
			runCtx = context.WithoutCancel(ctx)
			continue
		}

		if step.NonFatal {
			r.logger.Warnw("non fatal saga step failed",
				"saga", name,
				"step", step.Name,
				"error", err,
			)
			outcome.Warnings = append(outcome.Warnings, fmt.Sprintf("%s: %s", step.Name, ierr.DisplayMessage(err)))
			continue
		}

		r.logger.Errorw("saga step failed",
			"saga", name,
			"step", step.Name,
			"completed_steps", outcome.Completed,
			"error", err,
		)

		if len(done) == 0 {
			return nil, err
		}
		return nil, r.compensate(runCtx, name, step.Name, done, err)
	}

	return outcome, nil
}

func (r *Runner) compensate(ctx context.Context, name, failedStep string, done []Step, cause error) error {
	var compensated []string
	var failures []CompensationFailure

	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		if step.Undo == nil {
			continue
		}
		if err := r.undo(ctx, step); err != nil {
			r.logger.Errorw("saga compensation failed",
				"saga", name,
				"step", step.Name,
				"error", err,
			)
			failures = append(failures, CompensationFailure{Step: step.Name, Error: err.Error()})
			continue
		}
		compensated = append(compensated, step.Name)
	}

	details := map[string]any{
		"saga":              name,
		"failed_step":       failedStep,
		"compensated_steps": compensated,
	}

	if len(failures) == 0 {
		r.logger.Infow("saga rolled back",
			"saga", name,
			"failed_step", failedStep,
			"compensated_steps", compensated,
		)
		return ierr.WithError(cause).
			WithReportableDetails(details).
			Error()
	}

	details["compensation_failures"] = failures
	err := ierr.WithError(cause).
		WithMessage(fmt.Sprintf("%s partially applied", name)).
		WithHintf("The %s operation was only partially applied and needs manual review", name).
		WithReportableDetails(details).
		Mark(ierr.ErrPartiallyApplied)

	if r.reporter != nil {
		r.reporter.ReportPartiallyApplied(ctx, err, details)
	}
	return err
}

func (r *Runner) undo(ctx context.Context, step Step) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialInterval

	return backoff.Retry(func() error {
		err := step.Undo(ctx)
		if err != nil && (ierr.IsValidation(err) || ierr.IsNotFound(err)) {
			// retrying cannot fix these
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(b, r.retries), ctx))
}

package saga

import (
	"context"
	"errors"
	"testing"
	"time"

	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingReporter struct {
	calls   int
	details map[string]any
}

func (r *recordingReporter) ReportPartiallyApplied(_ context.Context, _ error, details map[string]any) {
	r.calls++
	r.details = details
}

type journal struct {
	entries []string
}

func (j *journal) step(name string, doErr, undoErr error) Step {
	return Step{
		Name: name,
		Do: func(ctx context.Context) error {
			if doErr != nil {
				return doErr
			}
			j.entries = append(j.entries, "do:"+name)
			return nil
		},
		Undo: func(ctx context.Context) error {
			if undoErr != nil {
				return undoErr
			}
			j.entries = append(j.entries, "undo:"+name)
			return nil
		},
	}
}

func newTestRunner(reporter Reporter) *Runner {
	return NewRunner(logger.NewNopLogger(),
		WithReporter(reporter),
		WithCompensationRetries(2),
		WithInitialInterval(time.Millisecond),
	)
}

func TestRunAllStepsSucceed(t *testing.T) {
	j := &journal{}
	runner := newTestRunner(nil)

	outcome, err := runner.Run(context.Background(), "upgrade", []Step{
		j.step("membership", nil, nil),
		j.step("payment", nil, nil),
		j.step("change", nil, nil),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"membership", "payment", "change"}, outcome.Completed)
	assert.Empty(t, outcome.Warnings)
	assert.Equal(t, []string{"do:membership", "do:payment", "do:change"}, j.entries)
}

func TestRunCompensatesInReverseOrder(t *testing.T) {
	j := &journal{}
	reporter := &recordingReporter{}
	runner := newTestRunner(reporter)

	cause := ierr.NewError("insert failed").
		WithHint("Could not record change").
		Mark(ierr.ErrDatabase)

	_, err := runner.Run(context.Background(), "transfer", []Step{
		j.step("source", nil, nil),
		j.step("target", nil, nil),
		j.step("change", cause, nil),
	})
	require.Error(t, err)
	assert.True(t, ierr.IsDatabase(err))
	assert.False(t, ierr.IsPartiallyApplied(err))
	assert.Equal(t, []string{"do:source", "do:target", "undo:target", "undo:source"}, j.entries)
	assert.Zero(t, reporter.calls)

	details := ierr.ReportableDetails(err)
	assert.Equal(t, "transfer", details["saga"])
	assert.Equal(t, "change", details["failed_step"])
}

func TestRunFirstStepFailureSkipsCompensation(t *testing.T) {
	j := &journal{}
	runner := newTestRunner(nil)

	cause := ierr.NewError("bad").Mark(ierr.ErrValidation)
	_, err := runner.Run(context.Background(), "freeze", []Step{
		j.step("membership", cause, nil),
		j.step("change", nil, nil),
	})
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
	assert.Empty(t, j.entries)
}

func TestRunCompensationFailureIsPartiallyApplied(t *testing.T) {
	j := &journal{}
	reporter := &recordingReporter{}
	runner := newTestRunner(reporter)

	undoErr := errors.New("connection reset")
	_, err := runner.Run(context.Background(), "upgrade", []Step{
		j.step("membership", nil, undoErr),
		j.step("payment", nil, nil),
		j.step("change", ierr.NewError("boom").Mark(ierr.ErrDatabase), nil),
	})
	require.Error(t, err)
	assert.True(t, ierr.IsPartiallyApplied(err))
	assert.Equal(t, 1, reporter.calls)
	assert.Equal(t, "upgrade", reporter.details["saga"])
	assert.Equal(t, "change", reporter.details["failed_step"])
	assert.Equal(t, []string{"payment"}, reporter.details["compensated_steps"])

	failures, ok := reporter.details["compensation_failures"].([]CompensationFailure)
	require.True(t, ok)
	require.Len(t, failures, 1)
	assert.Equal(t, "membership", failures[0].Step)
}

func TestRunRetriesTransientUndo(t *testing.T) {
	runner := newTestRunner(nil)
	attempts := 0

	_, err := runner.Run(context.Background(), "cancel", []Step{
		{
			Name: "membership",
			Do:   func(ctx context.Context) error { return nil },
			Undo: func(ctx context.Context) error {
				attempts++
				if attempts < 2 {
					return errors.New("temporary")
				}
				return nil
			},
		},
		{
			Name: "change",
			Do:   func(ctx context.Context) error { return ierr.NewError("boom").Mark(ierr.ErrDatabase) },
		},
	})
	require.Error(t, err)
	assert.False(t, ierr.IsPartiallyApplied(err))
	assert.Equal(t, 2, attempts)
}

func TestRunNonFatalStepBecomesWarning(t *testing.T) {
	j := &journal{}
	runner := newTestRunner(nil)

	outcome, err := runner.Run(context.Background(), "transfer", []Step{
		j.step("source", nil, nil),
		{
			Name: "commission_rule",
			Do: func(ctx context.Context) error {
				return ierr.NewError("no rule").WithHint("Commission rule could not be copied").Mark(ierr.ErrDatabase)
			},
			NonFatal: true,
		},
		j.step("change", nil, nil),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"source", "change"}, outcome.Completed)
	require.Len(t, outcome.Warnings, 1)
	assert.Contains(t, outcome.Warnings[0], "commission_rule")
	assert.Contains(t, outcome.Warnings[0], "Commission rule could not be copied")
}

func TestRunIgnoresCancellationAfterFirstCommit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := newTestRunner(nil)
	var sawCancelled bool

	_, err := runner.Run(ctx, "upgrade", []Step{
		{
			Name: "membership",
			Do: func(ctx context.Context) error {
				cancel()
				return nil
			},
		},
		{
			Name: "change",
			Do: func(ctx context.Context) error {
				sawCancelled = ctx.Err() != nil
				return nil
			},
		},
	})
	require.NoError(t, err)
	assert.False(t, sawCancelled)
}

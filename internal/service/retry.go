package service

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	ierr "github.com/flexprice/flexgym/internal/errors"
)

const readRetryInterval = 50 * time.Millisecond

// retryRead runs a store read and retries it once when the store is
// unavailable. Writes are never retried here, only keyed writes are safe to
// repeat and the stores deduplicate those themselves.
func retryRead[T any](ctx context.Context, read func(ctx context.Context) (T, error)) (T, error) {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(readRetryInterval), 1),
		ctx,
	)
	return backoff.RetryWithData(func() (T, error) {
		v, err := read(ctx)
		if err != nil && !ierr.IsDatabase(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, policy)
}

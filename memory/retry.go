package memory

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/mattn/go-sqlite3"
)

const (
	// busyMaxRetries bounds how many times a write blocked by another
	// process's write lock is retried before surfacing a busy error.
	busyMaxRetries = 5
	// busyInitialInterval is the first retry delay.
	busyInitialInterval = 50 * time.Millisecond
	// busyMaxInterval caps the delay between retries.
	busyMaxInterval = 1 * time.Second
)

// isBusy reports whether err is SQLite lock contention (another connection
// holds the write lock).
func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}

// withBusyRetry runs op, retrying with exponential backoff while it fails
// with lock contention. Any other failure is surfaced immediately. When
// retries exhaust, the last busy error is returned wrapped as retryable.
func withBusyRetry(ctx context.Context, op func() error) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = busyInitialInterval
	eb.MaxInterval = busyMaxInterval
	eb.Reset()

	err := backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if isBusy(err) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(backoff.WithMaxRetries(eb, busyMaxRetries), ctx))

	if err != nil && isBusy(err) {
		return &Error{
			Type:      ErrorTypeBusy,
			Message:   "database is locked by another writer",
			Retryable: true,
			Err:       err,
		}
	}
	return err
}

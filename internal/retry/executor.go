package retry

import (
	"context"
	"time"

	"github.com/vvka-141/pgingest/pkg/pgingest"
)

// RetryFunc is called before each retry with the zero-based retry number,
// the error that triggered it and the delay about to be waited.
type RetryFunc func(attempt int, err error, delay time.Duration)

// Executor runs an operation, retrying transient failures according to a
// backoff strategy. An Executor is immutable once built and may be shared.
type Executor struct {
	classifier pgingest.ErrorClassifier
	strategy   pgingest.BackoffStrategy
	onRetry    RetryFunc
}

// NewExecutor creates a new retry executor.
// Panics if classifier or strategy is nil.
func NewExecutor(classifier pgingest.ErrorClassifier, strategy pgingest.BackoffStrategy) *Executor {
	if classifier == nil {
		panic("classifier cannot be nil")
	}
	if strategy == nil {
		panic("strategy cannot be nil")
	}
	return &Executor{classifier: classifier, strategy: strategy}
}

// WithOnRetry returns a copy of e that reports each retry to fn.
func (e *Executor) WithOnRetry(fn RetryFunc) *Executor {
	clone := *e
	clone.onRetry = fn
	return &clone
}

// Execute runs operation once and then retries while the classifier deems
// the error transient and the strategy allows more attempts. The last error
// is returned unchanged; ctx cancellation during a wait returns ctx.Err().
func (e *Executor) Execute(ctx context.Context, operation func(ctx context.Context) error) error {
	err := operation(ctx)
	max := e.strategy.MaxAttempts()

	for retry := 0; err != nil && e.classifier.IsTransient(err); retry++ {
		if max >= 0 && retry >= max {
			break
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		delay := e.strategy.NextDelay(retry)
		if e.onRetry != nil {
			e.onRetry(retry, err, delay)
		}
		if waitErr := sleep(ctx, delay); waitErr != nil {
			return waitErr
		}

		err = operation(ctx)
	}
	return err
}

// Do is Execute for operations that produce a value.
func Do[T any](ctx context.Context, e *Executor, operation func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := e.Execute(ctx, func(ctx context.Context) error {
		v, err := operation(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

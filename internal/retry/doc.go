// Package retry provides retry with exponential backoff for transient
// failures: connecting to PostgreSQL and fetching remote sources.
//
//	executor := retry.NewExecutor(
//	    retry.NewPostgreSQLErrorClassifier(),
//	    retry.NewExponentialBackoff(3),
//	)
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return pool.Ping(ctx)
//	})
//
// Classifiers decide which errors are worth another attempt; the backoff
// strategy decides how long to wait and how many attempts are allowed.
package retry

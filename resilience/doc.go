// Package resilience retries transient failures with exponential backoff.
//
// Archive uploads and the history database open go through it:
//
//	err := resilience.RetryFunc(ctx, resilience.Policy{Attempts: 3}, func(ctx context.Context) error {
//	    return store.Upload(ctx, key, r)
//	})
//
// Configuration errors and context cancellation are never retried.
package resilience

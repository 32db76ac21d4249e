// Package resilience holds the retry and circuit breaker primitives used to
// guard calls into remote blob stores.
//
//	cb := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("s3"))
//	err := cb.Execute(func() error {
//	    return resilience.RetryFunc(ctx, resilience.DefaultRetryConfig(), func() error {
//	        return backend.Delete(ctx, key)
//	    })
//	})
package resilience

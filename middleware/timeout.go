package middleware

import (
	"context"
	"time"
)

// Timeout fails the handler with *TimeoutError once duration elapses and
// cancels the invocation context. The handler keeps running in the background
// until it observes cancellation.
func Timeout(duration time.Duration) Middleware {
	return TimeoutWithCallback(duration, nil)
}

// TimeoutWithDefault uses the DefaultTimeout of the given options.
func TimeoutWithDefault(options ...MiddlewareOption) Middleware {
	return Timeout(newConfig(options).DefaultTimeout)
}

// TimeoutWithCallback is Timeout with onTimeout invoked before returning.
func TimeoutWithCallback(duration time.Duration, onTimeout func(command string, duration time.Duration)) Middleware {
	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) error {
			timeoutCtx, cancel := context.WithTimeout(ctx.Context(), duration)
			defer cancel()

			resultChan := make(chan error, 1)
			go func() {
				defer func() {
					if r := recover(); r != nil {
						resultChan <- &RecoveryError{Panic: r, Command: commandName(ctx)}
					}
				}()
				resultChan <- next(ctx)
			}()

			select {
			case err := <-resultChan:
				return err
			case <-timeoutCtx.Done():
				if ctx.Context().Err() != nil {
					return context.Canceled
				}
				command := commandName(ctx)
				if onTimeout != nil {
					onTimeout(command, duration)
				}
				ctx.Cancel()
				return &TimeoutError{Duration: duration, Command: command}
			}
		}
	}
}

// DynamicTimeout computes the duration per invocation. A non-positive
// duration disables the timeout.
func DynamicTimeout(timeoutFunc func(ctx Context) time.Duration) Middleware {
	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) error {
			duration := timeoutFunc(ctx)
			if duration <= 0 {
				return next(ctx)
			}
			return Timeout(duration)(next)(ctx)
		}
	}
}

// TimeoutFromFlag reads the timeout in seconds from a number flag, falling
// back to defaultTimeout when the flag is absent or not numeric.
func TimeoutFromFlag(flagName string, defaultTimeout time.Duration) Middleware {
	return DynamicTimeout(func(ctx Context) time.Duration {
		v, ok := ctx.Lookup(flagName)
		if !ok {
			return defaultTimeout
		}
		switch n := v.(type) {
		case float64:
			return time.Duration(n * float64(time.Second))
		case time.Duration:
			return n
		default:
			return defaultTimeout
		}
	})
}

package middleware

import (
	"fmt"
	"io"
	"os"
	"runtime"
)

// Recovery converts handler panics into *RecoveryError.
func Recovery(options ...MiddlewareOption) Middleware {
	return RecoveryWithWriter(os.Stderr, options...)
}

// RecoveryWithWriter is Recovery with stack traces written to w.
func RecoveryWithWriter(w io.Writer, options ...MiddlewareOption) Middleware {
	config := newConfig(options)

	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					recoveryErr := &RecoveryError{
						Panic:   r,
						Command: commandName(ctx),
						Stack:   captureStack(config.StackSize),
					}
					if config.PrintStack {
						_, _ = fmt.Fprintf(w, "PANIC in command '%s': %v\n", recoveryErr.Command, r)
						_, _ = fmt.Fprintf(w, "Stack trace:\n%s\n", recoveryErr.Stack)
					}
					ctx.Set("panic_value", r)
					err = recoveryErr
				}
			}()
			return next(ctx)
		}
	}
}

// RecoveryWithHandler lets handler turn a panic into the returned error.
func RecoveryWithHandler(handler func(panicVal any, command string, stack []byte) error) Middleware {
	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = handler(r, commandName(ctx), captureStack(4096))
				}
			}()
			return next(ctx)
		}
	}
}

func captureStack(size int) []byte {
	if size <= 0 {
		return nil
	}
	stack := make([]byte, size)
	return stack[:runtime.Stack(stack, false)]
}

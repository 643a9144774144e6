// Package middleware provides handler middleware for argtree commands:
// Logger, Recovery and Timeout.
package middleware

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Context is the view of a dispatch context that middleware relies on.
// It is implemented by *argtree.Context.
type Context interface {
	// Context returns the Go context of the invocation.
	Context() context.Context

	// Done is closed when the invocation is canceled.
	Done() <-chan struct{}

	// Cancel cancels the invocation. It is idempotent.
	Cancel()

	// Set stores metadata shared between middleware and the handler.
	Set(key string, value any)

	// Get returns metadata stored via Set, or nil.
	Get(key string) any

	// Chain returns the command chain that selected the handler.
	Chain() []string

	// Lookup returns the merged value of a flag and whether it is present.
	Lookup(name string) (any, bool)
}

// ActionFunc is the handler signature middleware wraps.
type ActionFunc func(ctx Context) error

// Middleware wraps an ActionFunc
type Middleware func(next ActionFunc) ActionFunc

// MiddlewareChain is an ordered list of middleware
type MiddlewareChain []Middleware

// Apply wraps action so that the first middleware in the chain runs first.
func (chain MiddlewareChain) Apply(action ActionFunc) ActionFunc {
	for i := len(chain) - 1; i >= 0; i-- {
		action = chain[i](action)
	}
	return action
}

// Use returns a new chain with the provided middleware appended.
func (chain MiddlewareChain) Use(middleware ...Middleware) MiddlewareChain {
	out := make(MiddlewareChain, 0, len(chain)+len(middleware))
	out = append(out, chain...)
	return append(out, middleware...)
}

// Chain creates a middleware chain preserving order.
func Chain(middleware ...Middleware) MiddlewareChain {
	return MiddlewareChain(middleware)
}

// TimeoutError is returned when a handler exceeds its deadline
type TimeoutError struct {
	Duration time.Duration
	Command  string
}

func (e *TimeoutError) Error() string {
	return "command '" + e.Command + "' timed out after " + e.Duration.String()
}

// RecoveryError wraps a recovered handler panic
type RecoveryError struct {
	Panic   any
	Command string
	Stack   []byte
}

func (e *RecoveryError) Error() string {
	return "command '" + e.Command + "' panicked: " + toString(e.Panic)
}

// Unwrap exposes a panicked error value.
func (e *RecoveryError) Unwrap() error {
	err, _ := e.Panic.(error)
	return err
}

// MiddlewareConfig contains configuration for middleware behavior
type MiddlewareConfig struct {
	LogLevel       LogLevel
	LogFormat      LogFormat
	IncludeChain   bool
	PrintStack     bool
	StackSize      int
	DefaultTimeout time.Duration
}

// LogLevel represents logging levels
type LogLevel int

const (
	LogLevelNone LogLevel = iota
	LogLevelError
	LogLevelInfo
	LogLevelDebug
)

// LogFormat represents log formats
type LogFormat int

const (
	LogFormatText LogFormat = iota
	LogFormatJSON
)

// RequestInfo describes one handler invocation
type RequestInfo struct {
	Command   string
	Chain     []string
	StartTime time.Time
	Duration  time.Duration
	Error     error
}

// MiddlewareOption mutates a MiddlewareConfig
type MiddlewareOption func(config *MiddlewareConfig)

// DefaultConfig returns the configuration used when no options are given.
func DefaultConfig() *MiddlewareConfig {
	return &MiddlewareConfig{
		LogLevel:       LogLevelInfo,
		LogFormat:      LogFormatText,
		IncludeChain:   true,
		PrintStack:     false,
		StackSize:      4096,
		DefaultTimeout: 30 * time.Second,
	}
}

func WithLogLevel(level LogLevel) MiddlewareOption {
	return func(config *MiddlewareConfig) { config.LogLevel = level }
}

func WithLogFormat(format LogFormat) MiddlewareOption {
	return func(config *MiddlewareConfig) { config.LogFormat = format }
}

func WithTimeout(timeout time.Duration) MiddlewareOption {
	return func(config *MiddlewareConfig) { config.DefaultTimeout = timeout }
}

func WithStackTrace(enabled bool) MiddlewareOption {
	return func(config *MiddlewareConfig) { config.PrintStack = enabled }
}

func newConfig(options []MiddlewareOption) *MiddlewareConfig {
	config := DefaultConfig()
	for _, option := range options {
		option(config)
	}
	return config
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return "<nil>"
	case string:
		return t
	case error:
		return t.Error()
	default:
		return fmt.Sprint(t)
	}
}

// commandName is the space-joined chain, or "root" for the top-level node.
func commandName(ctx Context) string {
	chain := ctx.Chain()
	if len(chain) == 0 {
		return "root"
	}
	return strings.Join(chain, " ")
}

package argtree

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dzonerzy/go-argtree/internal/fuzzy"
)

// ErrorType represents error categories.
// These categories drive suggestion logic and exit-code mapping (via ExitCodeManager).
type ErrorType string

const (
	ErrorTypeConfiguration   ErrorType = "configuration"
	ErrorTypeUnknownCommand  ErrorType = "unknown_command"
	ErrorTypeMissingRequired ErrorType = "missing_required"
	ErrorTypeValidation      ErrorType = "validation"
	ErrorTypeConfigFile      ErrorType = "config_file"
)

// ErrHelpShown is returned by Run when help output replaced dispatch.
var ErrHelpShown = errors.New("help shown")

// ParseError is implemented by every error raised while parsing.
type ParseError interface {
	error
	Kind() ErrorType
	CommandChain() []string
}

// ConfigurationError reports an invalid declaration. It is raised at
// registration time, never during parsing.
type ConfigurationError struct {
	Node    string
	Flag    string
	Message string
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString("configuration error")
	if e.Node != "" {
		fmt.Fprintf(&b, " in %q", e.Node)
	}
	if e.Flag != "" {
		fmt.Fprintf(&b, " for flag %q", e.Flag)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

// Kind returns ErrorTypeConfiguration.
func (e *ConfigurationError) Kind() ErrorType { return ErrorTypeConfiguration }

// UnknownCommandError reports a token that no flag or sub-command claimed.
type UnknownCommandError struct {
	Token string
	Chain []string
	// Candidates are the sub-command names available where Token appeared.
	Candidates []string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command or flag %q%s", e.Token, chainSuffix(e.Chain))
}

func (e *UnknownCommandError) Kind() ErrorType        { return ErrorTypeUnknownCommand }
func (e *UnknownCommandError) CommandChain() []string { return e.Chain }

// MissingFlag records one mandatory flag that had no value.
type MissingFlag struct {
	Flag    string
	Options []string
	// Node is the name of the node that declares the flag.
	Node string
	// Chain is the command chain up to and including Node.
	Chain []string
}

// MissingMandatoryFlagsError aggregates every missing mandatory flag of a parse.
type MissingMandatoryFlagsError struct {
	Missing []MissingFlag
	Chain   []string
}

func (e *MissingMandatoryFlagsError) Error() string {
	names := make([]string, len(e.Missing))
	for i, m := range e.Missing {
		names[i] = m.Flag
	}
	return fmt.Sprintf("missing mandatory flags: %s%s", strings.Join(names, ", "), chainSuffix(e.Chain))
}

func (e *MissingMandatoryFlagsError) Kind() ErrorType        { return ErrorTypeMissingRequired }
func (e *MissingMandatoryFlagsError) CommandChain() []string { return e.Chain }

// Names returns the missing flag names in check order.
func (e *MissingMandatoryFlagsError) Names() []string {
	out := make([]string, len(e.Missing))
	for i, m := range e.Missing {
		out[i] = m.Flag
	}
	return out
}

// ValidationError reports a value that failed conversion, enum membership or
// a validate function.
type ValidationError struct {
	Flag    string
	Value   any
	Chain   []string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid value for flag %q: %s", e.Flag, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg + chainSuffix(e.Chain)
}

func (e *ValidationError) Unwrap() error          { return e.Err }
func (e *ValidationError) Kind() ErrorType        { return ErrorTypeValidation }
func (e *ValidationError) CommandChain() []string { return e.Chain }

// ConfigFileError reports an unreadable or malformed HCL config file.
type ConfigFileError struct {
	Path  string
	Chain []string
	Err   error
}

func (e *ConfigFileError) Error() string {
	return fmt.Sprintf("config file %s: %v", e.Path, e.Err)
}

func (e *ConfigFileError) Unwrap() error          { return e.Err }
func (e *ConfigFileError) Kind() ErrorType        { return ErrorTypeConfigFile }
func (e *ConfigFileError) CommandChain() []string { return e.Chain }

func chainSuffix(chain []string) string {
	if len(chain) == 0 {
		return ""
	}
	return " (in " + strings.Join(chain, " ") + ")"
}

// ErrorHandler turns parse errors into user-facing lines with "did you mean"
// suggestions.
type ErrorHandler struct {
	suggestCommands bool
	maxDistance     int
	showHelpOnError bool
	customHandlers  map[ErrorType]func(error) []string
}

// NewErrorHandler creates an error handler with suggestions enabled
func NewErrorHandler() *ErrorHandler {
	return &ErrorHandler{
		suggestCommands: true,
		maxDistance:     2,
		customHandlers:  make(map[ErrorType]func(error) []string),
	}
}

// SuggestCommands enables/disables command suggestions
func (eh *ErrorHandler) SuggestCommands(enabled bool) *ErrorHandler {
	eh.suggestCommands = enabled
	return eh
}

// MaxDistance sets the maximum edit distance for suggestions
func (eh *ErrorHandler) MaxDistance(distance int) *ErrorHandler {
	eh.maxDistance = distance
	return eh
}

// ShowHelpOnError prints the help of the node where the error occurred after
// the error lines.
func (eh *ErrorHandler) ShowHelpOnError(enabled bool) *ErrorHandler {
	eh.showHelpOnError = enabled
	return eh
}

// Handle replaces the formatting of one error category.
func (eh *ErrorHandler) Handle(typ ErrorType, format func(error) []string) *ErrorHandler {
	eh.customHandlers[typ] = format
	return eh
}

// Format renders err as output lines.
func (eh *ErrorHandler) Format(err error) []string {
	var pe ParseError
	if errors.As(err, &pe) {
		if custom, ok := eh.customHandlers[pe.Kind()]; ok {
			return custom(err)
		}
	}

	lines := []string{"Error: " + err.Error()}

	var unknown *UnknownCommandError
	if eh.suggestCommands && errors.As(err, &unknown) {
		if best := fuzzy.NewMatcher(eh.maxDistance).FindBest(unknown.Token, unknown.Candidates); best != "" {
			lines = append(lines, fmt.Sprintf("  Did you mean '%s'?", best))
		}
	}

	var missing *MissingMandatoryFlagsError
	if errors.As(err, &missing) {
		for _, m := range missing.Missing {
			where := "root"
			if len(m.Chain) > 0 {
				where = strings.Join(m.Chain, " ")
			}
			lines = append(lines, fmt.Sprintf("  %s (%s) required by %s", m.Flag, strings.Join(m.Options, ", "), where))
		}
	}
	return lines
}

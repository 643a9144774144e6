package middleware

import (
	"encoding/json"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/dzonerzy/go-argtree/internal/pool"
)

var requestInfoPool = pool.NewPoolWithReset(
	func() *RequestInfo { return &RequestInfo{} },
	func(info *RequestInfo) {
		info.Command = ""
		info.Chain = info.Chain[:0]
		info.StartTime = time.Time{}
		info.Duration = 0
		info.Error = nil
	},
)

// Logger logs each handler invocation to stderr.
func Logger(options ...MiddlewareOption) Middleware {
	return LoggerWithWriter(os.Stderr, options...)
}

// LoggerWithWriter logs each handler invocation to writer.
func LoggerWithWriter(writer io.Writer, options ...MiddlewareOption) Middleware {
	config := newConfig(options)
	now := time.Now

	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) error {
			if config.LogLevel == LogLevelNone {
				return next(ctx)
			}

			info := requestInfoPool.Get()
			defer requestInfoPool.Put(info)

			info.Command = commandName(ctx)
			info.Chain = append(info.Chain, ctx.Chain()...)
			info.StartTime = now()

			if config.LogLevel >= LogLevelDebug {
				writeLog(writer, config, info, "START")
			}

			err := next(ctx)

			info.Duration = time.Since(info.StartTime)
			info.Error = err

			level := "SUCCESS"
			if err != nil {
				level = "ERROR"
			}
			if shouldLog(config.LogLevel, level) {
				writeLog(writer, config, info, level)
			}
			return err
		}
	}
}

func shouldLog(configLevel LogLevel, level string) bool {
	switch level {
	case "ERROR":
		return configLevel >= LogLevelError
	default:
		return configLevel >= LogLevelInfo
	}
}

func writeLog(writer io.Writer, config *MiddlewareConfig, info *RequestInfo, level string) {
	if config.LogFormat == LogFormatJSON {
		writeJSONLog(writer, info, level, config)
		return
	}
	writeTextLog(writer, info, level, config)
}

func writeTextLog(writer io.Writer, info *RequestInfo, level string, config *MiddlewareConfig) {
	buf := pool.GetBuffer(256)
	defer pool.PutBuffer(buf)

	*buf = append(*buf, '[')
	*buf = append(*buf, info.StartTime.Format("2006-01-02 15:04:05")...)
	*buf = append(*buf, "] "...)
	*buf = append(*buf, level...)
	*buf = append(*buf, " command="...)
	*buf = strconv.AppendQuote(*buf, info.Command)

	if level != "START" {
		*buf = append(*buf, " duration="...)
		*buf = append(*buf, info.Duration.String()...)
	}
	if config.IncludeChain && len(info.Chain) > 0 {
		*buf = append(*buf, " depth="...)
		*buf = strconv.AppendInt(*buf, int64(len(info.Chain)), 10)
	}
	if info.Error != nil {
		*buf = append(*buf, " error="...)
		*buf = strconv.AppendQuote(*buf, info.Error.Error())
	}
	*buf = append(*buf, '\n')

	_, _ = writer.Write(*buf)
}

func writeJSONLog(writer io.Writer, info *RequestInfo, level string, config *MiddlewareConfig) {
	buf := pool.GetBuffer(512)
	defer pool.PutBuffer(buf)

	*buf = append(*buf, `{"timestamp":"`...)
	*buf = append(*buf, info.StartTime.Format(time.RFC3339)...)
	*buf = append(*buf, `","level":"`...)
	*buf = append(*buf, level...)
	*buf = append(*buf, `","command":`...)
	enc, _ := json.Marshal(info.Command)
	*buf = append(*buf, enc...)

	if level != "START" {
		*buf = append(*buf, `,"duration_ms":`...)
		*buf = strconv.AppendInt(*buf, info.Duration.Milliseconds(), 10)
	}
	if config.IncludeChain && len(info.Chain) > 0 {
		enc, _ = json.Marshal(info.Chain)
		*buf = append(*buf, `,"chain":`...)
		*buf = append(*buf, enc...)
	}
	if info.Error != nil {
		enc, _ = json.Marshal(info.Error.Error())
		*buf = append(*buf, `,"error":`...)
		*buf = append(*buf, enc...)
	}
	*buf = append(*buf, "}\n"...)

	_, _ = writer.Write(*buf)
}

// SilentLogger discards all log output
func SilentLogger() Middleware {
	return Logger(WithLogLevel(LogLevelNone))
}

package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var zlog = zerolog.New(os.Stdout).With().Timestamp().Logger()

// InitStructured initializes the structured zerolog logger
func InitStructured(env string) {
	var w io.Writer

	if env == "development" || env == "dev" || env == "local" {
		// Pretty console output for development
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	} else {
		// JSON output for production (machine-readable)
		w = os.Stdout
	}

	zlog = zerolog.New(w).With().
		Timestamp().
		Str("service", "angple-elements").
		Logger()

	zerolog.TimeFieldFormat = time.RFC3339
}

// GetLogger returns the global zerolog logger
func GetLogger() *zerolog.Logger {
	return &zlog
}

// WithRequestID returns a logger with request_id field
func WithRequestID(requestID string) zerolog.Logger {
	return zlog.With().Str("request_id", requestID).Logger()
}

// WithMemberID returns a logger with member_id field
func WithMemberID(memberID uint64) zerolog.Logger {
	return zlog.With().Uint64("member_id", memberID).Logger()
}

// Info printf-style info log
func Info(format string, args ...interface{}) {
	zlog.Info().Msg(fmt.Sprintf(format, args...))
}

// Warn printf-style warning log
func Warn(format string, args ...interface{}) {
	zlog.Warn().Msg(fmt.Sprintf(format, args...))
}

// Component adapts the global logger to the printf-style Logger interface
// used by the hook manager and the form builder.
type Component struct {
	l zerolog.Logger
}

// NewComponent returns a printf-style logger tagged with a component name
func NewComponent(name string) *Component {
	return &Component{l: zlog.With().Str("component", name).Logger()}
}

func (c *Component) Debug(msg string, args ...interface{}) { c.l.Debug().Msg(fmt.Sprintf(msg, args...)) }
func (c *Component) Info(msg string, args ...interface{})  { c.l.Info().Msg(fmt.Sprintf(msg, args...)) }
func (c *Component) Warn(msg string, args ...interface{})  { c.l.Warn().Msg(fmt.Sprintf(msg, args...)) }
func (c *Component) Error(msg string, args ...interface{}) { c.l.Error().Msg(fmt.Sprintf(msg, args...)) }

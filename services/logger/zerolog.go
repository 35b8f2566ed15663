package logsvc

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/trezcool/studytrack/core"
)

// NewZeroLog returns a zerolog logger writing to w: human readable in debug mode, JSON otherwise.
func NewZeroLog(w io.Writer, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// ZeroLogger is a core.Logger writing through zerolog only. Tools and tests use it.
type ZeroLogger struct {
	zl zerolog.Logger
}

var _ core.Logger = (*ZeroLogger)(nil)

func NewZeroLogger(zl zerolog.Logger) *ZeroLogger {
	return &ZeroLogger{zl: zl}
}

// NewNopLogger discards everything.
func NewNopLogger() *ZeroLogger {
	return &ZeroLogger{zl: zerolog.Nop()}
}

// NewStderrLogger is the logger of command line tools.
func NewStderrLogger(debug bool) *ZeroLogger {
	return NewZeroLogger(NewZeroLog(os.Stderr, debug))
}

func (l ZeroLogger) write(ev *zerolog.Event, msg string, args []interface{}) {
	var extra int
	for _, arg := range args {
		switch a := arg.(type) {
		case nil:
		case error:
			ev = ev.Err(a)
		case core.UserID:
			ev = ev.Str("user", string(a))
		case map[string]interface{}:
			ev = ev.Fields(a)
		default:
			ev = ev.Interface(fmt.Sprintf("arg%d", extra), a)
			extra++
		}
	}
	ev.Msg(msg)
}

func (l ZeroLogger) Debug(msg string, args ...interface{}) {
	l.write(l.zl.Debug(), msg, args)
}

func (l ZeroLogger) Info(msg string, args ...interface{}) {
	l.write(l.zl.Info(), msg, args)
}

func (l ZeroLogger) Warn(msg string, args ...interface{}) {
	l.write(l.zl.Warn(), msg, args)
}

func (l ZeroLogger) Error(msg string, args ...interface{}) {
	l.write(l.zl.Error(), msg, args)
}

// Fatal logs and exits with status 1.
func (l ZeroLogger) Fatal(msg string, args ...interface{}) {
	l.write(l.zl.Fatal(), msg, args)
}

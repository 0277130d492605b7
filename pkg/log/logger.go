package log

import (
	"io"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// Only the "goroutine N [" prefix of the stack is needed.
	stackBufSize       = 32
	goroutinePrefixLen = len("goroutine ")
)

var (
	Logger    zerolog.Logger
	level     = zerolog.InfoLevel
	stackPool = sync.Pool{
		New: func() interface{} {
			return make([]byte, stackBufSize)
		},
	}
)

// goroutineID reads the current goroutine ID from a truncated stack trace.
func goroutineID() string {
	buf, ok := stackPool.Get().([]byte)
	if !ok {
		return "unknown"
	}
	defer stackPool.Put(buf) //nolint:staticcheck // buf is a slice, this is the correct usage

	n := runtime.Stack(buf, false)
	idx := goroutinePrefixLen
	start := idx
	for idx < n && buf[idx] >= '0' && buf[idx] <= '9' {
		idx++
	}
	if idx == start {
		return "unknown"
	}
	return string(buf[start:idx])
}

func init() {
	SetOutput(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	})
}

// SetOutput rebuilds the logger on top of w, keeping the current level.
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	Logger = zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger().
		Hook(zerolog.HookFunc(func(e *zerolog.Event, _ zerolog.Level, _ string) {
			e.Str("goid", goroutineID())
		}))
	log.Logger = Logger
}

// SetLevel parses a level name such as "debug" or "WARN". An empty name keeps
// the current level.
func SetLevel(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	parsed, err := zerolog.ParseLevel(strings.ToLower(name))
	if err != nil {
		return err
	}
	level = parsed
	Logger = Logger.Level(level)
	log.Logger = Logger
	return nil
}

// SetDebugMode switches the logger to debug level.
func SetDebugMode() {
	level = zerolog.DebugLevel
	Logger = Logger.Level(level)
	log.Logger = Logger
}

// ForRig returns a child logger tagged with the rig's name and address.
func ForRig(name, addr string) zerolog.Logger {
	return Logger.With().Str("rig", name).Str("addr", addr).Logger()
}

// Info starts an info level event.
func Info() *zerolog.Event {
	return Logger.Info()
}

// Error starts an error level event.
func Error() *zerolog.Event {
	return Logger.Error()
}

// Warn starts a warn level event.
func Warn() *zerolog.Event {
	return Logger.Warn()
}

// Debug starts a debug level event.
func Debug() *zerolog.Event {
	return Logger.Debug()
}

// Fatal starts a fatal level event; the process exits after it is sent.
func Fatal() *zerolog.Event {
	return Logger.Fatal()
}

package hoverrace

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Logger interface {
	DebugEnabled() bool
	SetDebug(enabled bool)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// DefaultLogger writes through zerolog. The prefix is attached as the
// "component" field.
type DefaultLogger struct {
	mu    sync.Mutex
	debug bool
	zl    zerolog.Logger
}

func NewDefaultLogger(prefix string, debug bool) *DefaultLogger {
	return NewLoggerWithWriter(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}, prefix, debug)
}

func NewLoggerWithWriter(w io.Writer, prefix string, debug bool) *DefaultLogger {
	ctx := zerolog.New(w).With().Timestamp()
	if prefix != "" {
		ctx = ctx.Str("component", prefix)
	}
	return NewZerologLogger(ctx.Logger(), debug)
}

// NewZerologLogger wraps an already configured zerolog logger.
func NewZerologLogger(zl zerolog.Logger, debug bool) *DefaultLogger {
	l := &DefaultLogger{zl: zl}
	l.SetDebug(debug)
	return l
}

func (l *DefaultLogger) DebugEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.debug
}

func (l *DefaultLogger) SetDebug(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debug = enabled
	if enabled {
		l.zl = l.zl.Level(zerolog.DebugLevel)
	} else {
		l.zl = l.zl.Level(zerolog.InfoLevel)
	}
}

func (l *DefaultLogger) logger() *zerolog.Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	zl := l.zl
	return &zl
}

func (l *DefaultLogger) Debugf(format string, args ...any) {
	l.logger().Debug().Msgf(format, args...)
}

func (l *DefaultLogger) Infof(format string, args ...any) {
	l.logger().Info().Msgf(format, args...)
}

func (l *DefaultLogger) Warnf(format string, args ...any) {
	l.logger().Warn().Msgf(format, args...)
}

func (l *DefaultLogger) Errorf(format string, args ...any) {
	l.logger().Error().Msgf(format, args...)
}

// LoggingModule installs a logger as a resource. Logger wins over the
// prefix/debug pair when set.
type LoggingModule struct {
	Prefix string
	Debug  bool
	Logger Logger
}

func (m LoggingModule) Install(app *App, cmd *Commands) {
	if m.Logger != nil {
		app.addResources(m.Logger)
	} else {
		app.addResources(NewDefaultLogger(m.Prefix, m.Debug))
	}
	app.addResources(newDiagnostics(app.Logger()))
}

type nopLogger struct{}

func NewNopLogger() Logger { return &nopLogger{} }

func (n *nopLogger) DebugEnabled() bool                { return false }
func (n *nopLogger) SetDebug(enabled bool)             {}
func (n *nopLogger) Debugf(format string, args ...any) {}
func (n *nopLogger) Infof(format string, args ...any)  {}
func (n *nopLogger) Warnf(format string, args ...any)  {}
func (n *nopLogger) Errorf(format string, args ...any) {}

// Logger returns the Logger resource if present, otherwise a no-op logger.
// Never returns nil.
func (app *App) Logger() Logger {
	if app == nil || app.logger == nil {
		return NewNopLogger()
	}
	return app.logger
}

// Diagnostics reports recoverable misconfiguration (a vehicle without race
// progress, an out-of-range checkpoint) once per key instead of every tick.
type Diagnostics struct {
	mu   sync.Mutex
	log  Logger
	seen map[string]struct{}
}

func newDiagnostics(log Logger) *Diagnostics {
	return &Diagnostics{log: log, seen: make(map[string]struct{})}
}

// WarnOnce logs the message the first time key is reported and returns
// whether it did.
func (d *Diagnostics) WarnOnce(key string, format string, args ...any) bool {
	if d == nil {
		return false
	}
	d.mu.Lock()
	_, dup := d.seen[key]
	d.seen[key] = struct{}{}
	d.mu.Unlock()
	if dup {
		return false
	}
	d.log.Warnf(format, args...)
	return true
}

func missingKey(what string, eid EntityId) string {
	return fmt.Sprintf("%s/%d", what, eid)
}

// Package log is a small leveled logger in the log15 mould: structured
// key/value pairs, a global Root logger plus New(ctx...) for derived
// loggers, and colorized terminal output when stderr is a tty.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/go-stack/stack"
	"github.com/logrusorgru/aurora"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

type Lvl int

const (
	LvlCrit Lvl = iota
	LvlError
	LvlWarn
	LvlInfo
	LvlDebug
	LvlTrace
)

func (l Lvl) String() string {
	switch l {
	case LvlCrit:
		return "crit"
	case LvlError:
		return "eror"
	case LvlWarn:
		return "warn"
	case LvlInfo:
		return "info"
	case LvlDebug:
		return "dbug"
	case LvlTrace:
		return "trce"
	default:
		return "unkn"
	}
}

// Logger emits leveled, structured log lines. It is safe for concurrent use.
type Logger interface {
	Trace(msg string, ctx ...interface{})
	Debug(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Warn(msg string, ctx ...interface{})
	Error(msg string, ctx ...interface{})
	Crit(msg string, ctx ...interface{})
	New(ctx ...interface{}) Logger
}

type logger struct {
	ctx []interface{}
	h   *handler
}

type handler struct {
	mu     sync.Mutex
	out    io.Writer
	color  bool
	level  Lvl
	nowFn  func() time.Time
}

func newHandler(w io.Writer, color bool) *handler {
	return &handler{out: w, color: color, level: LvlInfo, nowFn: time.Now}
}

func (h *handler) write(lvl Lvl, msg string, ctx []interface{}) {
	if lvl > h.level {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	ts := h.nowFn().Format("2006-01-02T15:04:05-0700")
	lvlStr := lvl.String()
	if h.color {
		lvlStr = colorForLevel(lvl, lvlStr)
	}
	line := fmt.Sprintf("%s [%s] %s", ts, lvlStr, msg)
	for i := 0; i+1 < len(ctx); i += 2 {
		line += fmt.Sprintf(" %v=%v", ctx[i], ctx[i+1])
	}
	if lvl <= LvlError {
		line += fmt.Sprintf(" stack=%v", stack.Trace().TrimRuntime())
	}
	fmt.Fprintln(h.out, line)
}

func colorForLevel(lvl Lvl, s string) string {
	switch lvl {
	case LvlCrit:
		return aurora.Red(s).Bold().String()
	case LvlError:
		return aurora.Red(s).String()
	case LvlWarn:
		return aurora.Yellow(s).String()
	case LvlInfo:
		return aurora.Green(s).String()
	case LvlDebug:
		return aurora.Cyan(s).String()
	default:
		return aurora.Gray(12, s).String()
	}
}

func (l *logger) log(lvl Lvl, msg string, ctx []interface{}) {
	all := make([]interface{}, 0, len(l.ctx)+len(ctx))
	all = append(all, l.ctx...)
	all = append(all, ctx...)
	l.h.write(lvl, msg, all)
}

func (l *logger) Trace(msg string, ctx ...interface{}) { l.log(LvlTrace, msg, ctx) }
func (l *logger) Debug(msg string, ctx ...interface{}) { l.log(LvlDebug, msg, ctx) }
func (l *logger) Info(msg string, ctx ...interface{})  { l.log(LvlInfo, msg, ctx) }
func (l *logger) Warn(msg string, ctx ...interface{})  { l.log(LvlWarn, msg, ctx) }
func (l *logger) Error(msg string, ctx ...interface{}) { l.log(LvlError, msg, ctx) }
func (l *logger) Crit(msg string, ctx ...interface{})  { l.log(LvlCrit, msg, ctx) }

func (l *logger) New(ctx ...interface{}) Logger {
	nctx := make([]interface{}, 0, len(l.ctx)+len(ctx))
	nctx = append(nctx, l.ctx...)
	nctx = append(nctx, ctx...)
	return &logger{ctx: nctx, h: l.h}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

var root = &logger{h: newHandler(colorable.NewColorableStderr(), isTerminal(os.Stderr))}

// Root returns the default Logger, writing to stderr.
func Root() Logger { return root }

// New returns a derived Logger carrying the given key/value context.
func New(ctx ...interface{}) Logger { return root.New(ctx...) }

// SetLevel adjusts the verbosity of the root logger (and anything derived
// from it before this call, since the handler is shared).
func SetLevel(lvl Lvl) { root.h.level = lvl }

func Trace(msg string, ctx ...interface{}) { root.Trace(msg, ctx...) }
func Debug(msg string, ctx ...interface{}) { root.Debug(msg, ctx...) }
func Info(msg string, ctx ...interface{})  { root.Info(msg, ctx...) }
func Warn(msg string, ctx ...interface{})  { root.Warn(msg, ctx...) }
func Error(msg string, ctx ...interface{}) { root.Error(msg, ctx...) }
func Crit(msg string, ctx ...interface{})  { root.Crit(msg, ctx...) }

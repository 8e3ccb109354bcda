// Package logging provides dropclone's logging facility: a small,
// nil-tolerant wrapper around the standard library's log package, with
// channel routing and color output layered on top.
package logging

import (
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Logger is the main logger type. A nil *Logger is valid and simply
// discards everything written to it, so callers never need to nil-check a
// logger before using it.
type Logger struct {
	prefix string
	debug  bool
}

// colorEnabled reports whether colorized output should be emitted. Color is
// disabled when stdout isn't a terminal (e.g. when output is redirected to
// a log file).
var colorEnabled = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

// RootLogger is the root logger from which all channel loggers derive.
var RootLogger = &Logger{}

// New creates a root logger. If debug is true, Debug-level methods produce
// output; otherwise they're no-ops.
func New(debug bool) *Logger {
	return &Logger{debug: debug}
}

// Sublogger creates a new logger scoped under the given channel name,
// joined to any existing prefix with a dot (e.g. "core" -> "core.sync").
func (l *Logger) Sublogger(name string) *Logger {
	if l == nil {
		return nil
	}
	prefix := name
	if l.prefix != "" {
		prefix = l.prefix + "." + name
	}
	return &Logger{prefix: prefix, debug: l.debug}
}

func (l *Logger) output(line string) {
	if l.prefix != "" {
		line = fmt.Sprintf("[%s] %s", l.prefix, line)
	}
	log.Output(3, line)
}

// Print logs information with fmt.Sprint semantics.
func (l *Logger) Print(v ...interface{}) {
	if l != nil {
		l.output(fmt.Sprint(v...))
	}
}

// Printf logs information with fmt.Sprintf semantics.
func (l *Logger) Printf(format string, v ...interface{}) {
	if l != nil {
		l.output(fmt.Sprintf(format, v...))
	}
}

// Debug logs information with fmt.Sprint semantics, but only if this
// logger's channel was constructed with debugging enabled.
func (l *Logger) Debug(v ...interface{}) {
	if l != nil && l.debug {
		l.output(fmt.Sprint(v...))
	}
}

// Debugf logs information with fmt.Sprintf semantics, but only if this
// logger's channel was constructed with debugging enabled.
func (l *Logger) Debugf(format string, v ...interface{}) {
	if l != nil && l.debug {
		l.output(fmt.Sprintf(format, v...))
	}
}

// Warn logs a warning line, colored yellow when color output is enabled.
func (l *Logger) Warn(v ...interface{}) {
	if l == nil {
		return
	}
	message := fmt.Sprint(v...)
	if colorEnabled {
		l.output(color.YellowString("warning: %s", message))
	} else {
		l.output("warning: " + message)
	}
}

// Warnf logs a formatted warning line.
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.Warn(fmt.Sprintf(format, v...))
}

// Error logs an error line, colored red when color output is enabled.
func (l *Logger) Error(v ...interface{}) {
	if l == nil {
		return
	}
	message := fmt.Sprint(v...)
	if colorEnabled {
		l.output(color.RedString("error: %s", message))
	} else {
		l.output("error: " + message)
	}
}

// Errorf logs a formatted error line.
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.Error(fmt.Sprintf(format, v...))
}

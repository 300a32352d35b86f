package logger

import (
	"io"
	"log"
)

// A LoggerOptFn is a functional option configuring a TrailheadLogger when constructing a new one.
type LoggerOptFn func(*TrailheadLogger)

// WithEnv sets the environment TrailheadLogger is operating in.
func WithEnv(env string) func(*TrailheadLogger) {
	return func(l *TrailheadLogger) {
		l.env = env
	}
}

// WithLevel sets the log level TrailheadLogger uses.
func WithLevel(level LogLevel) func(*TrailheadLogger) {
	return func(l *TrailheadLogger) {
		l.ll = level
	}
}

// WithLogger sets the log.Logger TrailheadLogger uses.
func WithLogger(log *log.Logger) func(*TrailheadLogger) {
	return func(l *TrailheadLogger) {
		l.l = log
	}
}

// WithWriter points the TrailheadLogger's log.Logger at w,
// keeping the standard date and time prefix.
func WithWriter(w io.Writer) func(*TrailheadLogger) {
	return func(l *TrailheadLogger) {
		l.l = log.New(w, "", log.LstdFlags)
	}
}

// WithSkip sets the number of frames in the call stack
// to skip in order to log the desired file and line number
// of the calling code.
func WithSkip(skip int) func(*TrailheadLogger) {
	return func(l *TrailheadLogger) {
		l.skip = skip
	}
}

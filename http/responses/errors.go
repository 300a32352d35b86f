package responses

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/getsentry/sentry-go"
)

const maxStackDepth = 32

var (
	ErrAlreadySent     = errors.New("response already sent")
	ErrCycle           = errors.New("response cycle")
	ErrInvalidHandler  = errors.New("invalid handler")
	ErrInvalidName     = errors.New("invalid response name")
	ErrMissingResponse = errors.New("missing response")
	ErrPanic           = errors.New("panic")
	ErrSealed          = errors.New("registry sealed")
	ErrTooDeep         = errors.New("too many nested responses")
	ErrUnknownResponse = errors.New("unknown response")
)

// A HandlerError reports the failure of the named response's Handler,
// whether it returned an error or panicked.
type HandlerError struct {
	Name string
	Err  error
}

func (e *HandlerError) Error() string { return fmt.Sprintf("response %s: %s", e.Name, e.Err) }
func (e *HandlerError) Unwrap() error { return e.Err }

// A StatusCoder is an error knowing the HTTP status code it ought to produce.
//
// The negotiate response uses it to pick which response to send.
type StatusCoder interface {
	StatusCode() int
}

// An ErrorFielder is an error carrying fields to merge into the error body of a response.
//
// Fields set with Merge take precedence.
type ErrorFielder interface {
	ErrorFields() map[string]any
}

// A PublicError is an error whose message clients may read in every Environment.
//
// Other errors reach clients only when a Registry exposes errors.
type PublicError interface {
	error
	Public() bool
}

type publicError struct {
	err error
}

// Public marks err as safe to show clients, even in production.
func Public(err error) error {
	if err == nil {
		return nil
	}

	return &publicError{err}
}

func (e *publicError) Error() string { return e.err.Error() }
func (e *publicError) Unwrap() error { return e.err }
func (e *publicError) Public() bool  { return true }

type statusError struct {
	code int
	err  error
}

// WithStatus annotates err with the HTTP status code it ought to produce.
func WithStatus(err error, code int) error {
	if err == nil {
		return nil
	}

	return &statusError{code: code, err: err}
}

func (e *statusError) Error() string   { return e.err.Error() }
func (e *statusError) Unwrap() error   { return e.err }
func (e *statusError) StatusCode() int { return e.code }

type stackError struct {
	err error
	pcs []uintptr
}

// WithStack annotates err with the call stack of its caller.
//
// Stacks reach clients only when a Registry exposes errors.
func WithStack(err error) error {
	if err == nil {
		return nil
	}

	pcs := make([]uintptr, maxStackDepth)
	n := runtime.Callers(2, pcs)
	return &stackError{err: err, pcs: pcs[:n]}
}

func (e *stackError) Error() string      { return e.err.Error() }
func (e *stackError) Unwrap() error      { return e.err }
func (e *stackError) Callers() []uintptr { return e.pcs }

// Stack formats the call stack carried by err, most recent call first.
//
// Errors from packages sentry-go understands, like github.com/pkg/errors, carry stacks,
// as do those annotated by WithStack, wherever they are in the chain.
// Stack returns nil when err carries none.
func Stack(err error) []string {
	if err == nil {
		return nil
	}

	if st := sentry.ExtractStacktrace(err); st != nil && len(st.Frames) > 0 {
		out := make([]string, 0, len(st.Frames))

		// NOTE(dlk): sentry orders frames oldest first
		for i := len(st.Frames) - 1; i >= 0; i-- {
			f := st.Frames[i]
			out = append(out, fmt.Sprintf("%s.%s %s:%d", f.Module, f.Function, f.AbsPath, f.Lineno))
		}

		return out
	}

	var c interface{ Callers() []uintptr }
	if !errors.As(err, &c) || len(c.Callers()) == 0 {
		return nil
	}

	var out []string
	frames := runtime.CallersFrames(c.Callers())
	for {
		f, more := frames.Next()
		out = append(out, fmt.Sprintf("%s %s:%d", f.Function, f.File, f.Line))
		if !more {
			break
		}
	}

	return out
}

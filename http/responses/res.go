package responses

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/xy-planning-network/trailhead"
	"github.com/xy-planning-network/trailhead/http/resp"
	"github.com/xy-planning-network/trailhead/logger"
)

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns a sealed Registry holding only the built-in responses.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultReg = New()
		defaultReg.Seal()
	})

	return defaultReg
}

// NewContext stashes reg in ctx.
func NewContext(ctx context.Context, reg *Registry) context.Context {
	return context.WithValue(ctx, trailhead.ResponsesKey, reg)
}

// FromContext retrieves the *Registry stashed by NewContext.
func FromContext(ctx context.Context) (*Registry, bool) {
	reg, ok := ctx.Value(trailhead.ResponsesKey).(*Registry)
	return reg, ok && reg != nil
}

// For binds the Registry serving r to w and r.
// Without one stashed in the context of r, For uses Default.
func For(w http.ResponseWriter, r *http.Request) *Res {
	reg, ok := FromContext(r.Context())
	if !ok {
		reg = Default()
	}

	return reg.Bind(w, r)
}

// A Res sends one response to a single HTTP request.
//
// A Res is not safe for concurrent use.
type Res struct {
	r    *http.Request
	reg  *Registry
	sent bool
	w    http.ResponseWriter
}

// Bind constructs a *Res answering r through w.
func (reg *Registry) Bind(w http.ResponseWriter, r *http.Request) *Res {
	return &Res{r: r, reg: reg, w: w}
}

// Send invokes the response called name with args.
//
// Should the response fail before writing anything, Send answers with serverError instead;
// should that fail too, Send falls back on resp.Responder.Err.
// Send nonetheless returns the original error.
//
// Send answers once; calling it again returns ErrAlreadySent.
func (res *Res) Send(name string, args ...any) error {
	lc := &logger.LogContext{Request: res.r, Response: name}
	if res.sent {
		res.reg.logger.Warn(fmt.Sprintf("%s: response already sent", name), lc)
		return fmt.Errorf("%w: %s", ErrAlreadySent, name)
	}
	res.sent = true

	wrote, err := res.reg.invoke(res.w, res.r, name, args)
	if err == nil {
		return nil
	}

	lc.Error = err
	if wrote || errors.Is(err, resp.ErrDone) {
		res.reg.logger.Error(fmt.Sprintf("%s: %s", name, err), lc)
		return err
	}

	if name != ServerError {
		res.reg.logger.Warn(fmt.Sprintf("%s: falling back to %s: %s", name, ServerError, err), lc)

		var nested error
		wrote, nested = res.reg.invoke(res.w, res.r, ServerError, []any{err})
		if nested == nil {
			return err
		}

		lc.Error = nested
		if wrote {
			res.reg.logger.Error(fmt.Sprintf("%s: %s", ServerError, nested), lc)
			return err
		}
	}

	res.reg.responder.Err(res.w, res.r, err)
	return err
}

// OK sends the ok response.
func (res *Res) OK(args ...any) error { return res.Send(OK, args...) }

// Created sends the created response.
func (res *Res) Created(args ...any) error { return res.Send(Created, args...) }

// BadRequest sends the badRequest response.
func (res *Res) BadRequest(args ...any) error { return res.Send(BadRequest, args...) }

// Forbidden sends the forbidden response.
func (res *Res) Forbidden(args ...any) error { return res.Send(Forbidden, args...) }

// NotFound sends the notFound response.
func (res *Res) NotFound(args ...any) error { return res.Send(NotFound, args...) }

// TooManyRequests sends the tooManyRequests response.
func (res *Res) TooManyRequests(args ...any) error { return res.Send(TooManyRequests, args...) }

// ServerError sends the serverError response.
func (res *Res) ServerError(args ...any) error { return res.Send(ServerError, args...) }

// Negotiate sends the response best suited to err.
func (res *Res) Negotiate(err error, args ...any) error {
	return res.Send(Negotiate, append([]any{err}, args...)...)
}

// Sent reports whether Send has been called.
func (res *Res) Sent() bool { return res.sent }

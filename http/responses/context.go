package responses

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/xy-planning-network/trailhead"
	"github.com/xy-planning-network/trailhead/http/resp"
	"github.com/xy-planning-network/trailhead/logger"
)

// A Context is what a Handler answers.
// Every invocation of a Handler receives its own Context.
type Context struct {
	Request  *http.Request
	Response http.ResponseWriter

	depth int
	name  string
	reg   *Registry
}

// Name returns the name the running Handler was invoked by.
func (c *Context) Name() string { return c.name }

// Env returns the environment of the Registry the running Handler belongs to.
func (c *Context) Env() trailhead.Environment { return c.reg.env }

// ExposeErrors reports whether error messages and stacks ought to reach the client.
func (c *Context) ExposeErrors() bool { return c.reg.ExposeErrors() }

// Logger returns the logger.Logger of the Registry.
func (c *Context) Logger() logger.Logger { return c.reg.logger }

// Responder returns the *resp.Responder of the Registry.
func (c *Context) Responder() *resp.Responder { return c.reg.responder }

// Send delegates to the response called name, passing args along.
//
// Handlers compose this way; a custom response commonly ends
// by sending one of the built-ins.
func (c *Context) Send(name string, args ...any) error {
	if c.depth >= maxDepth {
		return fmt.Errorf("%w: %s after %d responses", ErrTooDeep, name, c.depth)
	}

	e, ok := c.reg.Resolve(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownResponse, name)
	}

	next := &Context{
		Request:  c.Request,
		Response: c.Response,
		depth:    c.depth + 1,
		name:     name,
		reg:      c.reg,
	}

	return next.call(e.Handler, args)
}

func (c *Context) call(h Handler, args []any) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &HandlerError{Name: c.name, Err: WithStack(fmt.Errorf("%w: %v", ErrPanic, p))}
		}
	}()

	if err = h(c, args...); err == nil {
		return nil
	}

	var herr *HandlerError
	if errors.As(err, &herr) {
		return err
	}

	return &HandlerError{Name: c.name, Err: err}
}

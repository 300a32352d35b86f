package responses

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/xy-planning-network/trailhead/http/resp"
	"github.com/xy-planning-network/trailhead/logger"
)

const defaultErrView = "tmpl/error.tmpl"

func builtIns() map[string]Handler {
	return map[string]Handler{
		OK:              StatusHandler(http.StatusOK),
		Created:         StatusHandler(http.StatusCreated),
		BadRequest:      StatusHandler(http.StatusBadRequest),
		Forbidden:       StatusHandler(http.StatusForbidden),
		NotFound:        StatusHandler(http.StatusNotFound),
		TooManyRequests: StatusHandler(http.StatusTooManyRequests),
		ServerError:     StatusHandler(http.StatusInternalServerError),
		Negotiate:       negotiate,
	}
}

// StatusHandler constructs a Handler responding with code,
// in the manner of the built-in responses.
//
// Its args follow the built-in convention: an error, data and Options, in any order.
func StatusHandler(code int) Handler {
	return func(c *Context, args ...any) error {
		return c.write(parseArgs(code, args))
	}
}

// NameForStatus returns the built-in response best suited to code.
func NameForStatus(code int) string {
	switch {
	case code == http.StatusCreated:
		return Created
	case code < http.StatusBadRequest:
		return OK
	case code == http.StatusForbidden:
		return Forbidden
	case code == http.StatusNotFound:
		return NotFound
	case code == http.StatusTooManyRequests:
		return TooManyRequests
	case code >= http.StatusInternalServerError:
		return ServerError
	default:
		return BadRequest
	}
}

// negotiate sends the built-in response matching the status code the error knows.
// Errors not implementing StatusCoder become a serverError;
// without any error, negotiate sends ok.
func negotiate(c *Context, args ...any) error {
	p := parseArgs(0, args)
	if p.err == nil {
		return c.Send(OK, args...)
	}

	code := http.StatusInternalServerError
	var sc StatusCoder
	if errors.As(p.err, &sc) && sc.StatusCode() >= http.StatusContinue {
		code = sc.StatusCode()
	}

	return c.Send(NameForStatus(code), append([]any{Status(code)}, args...)...)
}

func (c *Context) write(p *payload) error {
	fns := []resp.Fn{resp.Code(p.code)}
	for key := range p.header {
		fns = append(fns, resp.Header(key, p.header.Get(key)))
	}

	if p.data != nil {
		fns = append(fns, resp.Data(p.data))
	}

	body := c.errorBody(p)
	if body != nil {
		fns = append(fns, resp.Error(body))
	}

	if view := c.view(p); view != "" {
		fns = append(fns, resp.Tmpls(view))
	}

	c.log(p, body)

	return c.Responder().Negotiate(c.Response, c.Request, fns...)
}

// errorBody builds the error member of a response, or nil when there is nothing to say.
//
// Unless errors are exposed, only a PublicError reaches the message;
// other causes give way to the Message option or the status text.
func (c *Context) errorBody(p *payload) map[string]any {
	if p.err == nil && p.message == "" && len(p.merge) == 0 {
		return nil
	}

	expose := c.ExposeErrors()
	body := make(map[string]any, len(p.merge)+2)

	var ef ErrorFielder
	if errors.As(p.err, &ef) {
		for k, v := range ef.ErrorFields() {
			body[k] = v
		}
	}

	for k, v := range p.merge {
		body[k] = v
	}

	var pe PublicError
	switch {
	case p.err != nil && expose:
		body["message"] = p.err.Error()
	case errors.As(p.err, &pe) && pe.Public():
		body["message"] = pe.Error()
	case p.message != "":
		body["message"] = p.message
	default:
		body["message"] = http.StatusText(p.code)
	}

	if expose {
		if st := Stack(p.err); len(st) > 0 {
			body["stack"] = st
		}
	}

	return body
}

func (c *Context) view(p *payload) string {
	if p.view != "" {
		return p.view
	}

	if v, ok := c.reg.views[c.name]; ok {
		return v
	}

	if p.code >= http.StatusBadRequest {
		return c.reg.errView
	}

	return ""
}

func (c *Context) log(p *payload, body map[string]any) {
	msg := fmt.Sprintf("%s: %d", c.name, p.code)
	if m, ok := body["message"]; ok {
		msg = fmt.Sprintf("%s: %v", msg, m)
	}

	lc := &logger.LogContext{Error: p.err, Request: c.Request, Response: c.name}
	if p.code >= http.StatusInternalServerError {
		c.Logger().Error(msg, lc)
		return
	}

	c.Logger().Debug(msg, lc)
}

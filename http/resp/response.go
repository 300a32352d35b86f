package resp

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"

	"github.com/xy-planning-network/trailhead/logger"
)

// A Fn is a functional option that mutates the state of the Response.
type Fn func(Responder, *Response) error

// A Response is the internal object a Responder response method builds while applying all
// functional options.
type Response struct {
	w       http.ResponseWriter
	r       *http.Request
	code    int
	data    any
	errBody any
	header  http.Header
	tmpls   []string
	url     *url.URL
}

// Code sets the response status code.
func Code(c int) Fn {
	return func(_ Responder, r *Response) error {
		r.code = c
		return nil
	}
}

// Data stores the provided value for writing to the client.
//
// Used with Responder.Html, Responder.Json and Responder.Negotiate.
// When used with Json, the value is assigned to the "data" key.
func Data(d any) Fn {
	return func(_ Responder, r *Response) error {
		r.data = d
		return nil
	}
}

// Err sets the status code http.StatusInternalServerError and logs the error.
func Err(e error) Fn {
	return func(d Responder, r *Response) error {
		if e != nil {
			d.logger.Error(e.Error(), &logger.LogContext{Error: e, Request: r.r})
		}

		return Code(http.StatusInternalServerError)(d, r)
	}
}

// Error stores the body describing an error for writing to the client.
//
// When the body is a map[string]any, values pulled out of the *http.Request.Context
// by the Responder's ContextInjector are merged into it.
//
// Used with Responder.Html, Responder.Json and Responder.Negotiate.
// When used with Json, the body is assigned to the "error" key.
func Error(body any) Fn {
	return func(d Responder, r *Response) error {
		if m, ok := body.(map[string]any); ok && d.injector != nil {
			d.injector.Inject(m, r.r.Context())
		}

		r.errBody = body
		return nil
	}
}

// Header sets the header key to val on the response.
func Header(key, val string) Fn {
	return func(_ Responder, r *Response) error {
		if r.header == nil {
			r.header = make(http.Header)
		}

		r.header.Set(key, val)
		return nil
	}
}

// Param adds the query parameter to the response's URL.
//
// Used with Responder.Redirect.
func Param(key, val string) Fn {
	return func(_ Responder, r *Response) error {
		if r.url == nil {
			return fmt.Errorf("%w: Url() has not been called", ErrMissingData)
		}

		q := r.url.Query()
		q.Add(key, val)
		r.url.RawQuery = q.Encode()
		return nil
	}
}

// Params adds all the query parameters to the response's URL.
//
// Used with Responder.Redirect.
func Params(pairs map[string]string) Fn {
	return func(d Responder, r *Response) error {
		keys := make([]string, 0, len(pairs))
		for k := range pairs {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			if err := Param(k, pairs[k])(d, r); err != nil {
				return err
			}
		}

		return nil
	}
}

// Tmpls appends to the templates to be rendered.
//
// Used with Responder.Html and Responder.Negotiate.
func Tmpls(fps ...string) Fn {
	return func(_ Responder, r *Response) error {
		r.tmpls = append(r.tmpls, fps...)
		return nil
	}
}

// ToRoot calls URL with the Responder's default, root URL.
func ToRoot() Fn {
	return func(d Responder, r *Response) error {
		if d.rootUrl == nil {
			r.url = nil
			return nil
		}

		u := *d.rootUrl
		r.url = &u
		return nil
	}
}

// Url parses raw the URL string and sets it in the *Response if successful.
//
// Used with Responder.Redirect.
func Url(u string) Fn {
	return func(_ Responder, r *Response) error {
		parsed, err := url.ParseRequestURI(u)
		if err != nil {
			return fmt.Errorf("%w: u is not a valid URL: %v", ErrInvalid, err)
		}
		r.url = parsed
		return nil
	}
}

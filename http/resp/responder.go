package resp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"path"
	"sync"

	"github.com/munnerz/goautoneg"
	"github.com/xy-planning-network/trailhead"
	"github.com/xy-planning-network/trailhead/http/template"
	"github.com/xy-planning-network/trailhead/logger"
)

const (
	responderFrames = 0

	jsonMediaType = "application/json"
	htmlMediaType = "text/html"
)

var offers = []string{jsonMediaType, htmlMediaType}

// Responder maintains reusable pieces for responding to HTTP requests.
// It exposes many common methods for writing structured data as an HTTP response.
// These are the forms of response Responder can execute:
//
//	Html
//	Json
//	Negotiate
//	Redirect
//
// Most oftentimes, setting up a single instance of a Responder suffices for an application.
// Meaning, one needs only application-wide configuration of how HTTP responses should look.
//
// When handling a specific HTTP request, calling code supplies additional data, structure,
// and so forth through Fn functions.
type Responder struct {
	logger logger.Logger

	// Environment deciding whether error details reach clients
	env trailhead.Environment

	// Pulls values out of the *http.Request.Context into error bodies
	injector ContextInjector

	// Initialized template parser
	parser template.Parser

	// Pool of *bytes.Buffer to prerender responses into
	pool *sync.Pool

	// Root URL the responder is listening on, also used when in an error state
	rootUrl *url.URL

	templates struct {
		// Root template to render when an error occurs
		// and no other response can be formed
		err string
	}
}

// NewResponder constructs a *Responder using the ResponderOptFns passed in.
func NewResponder(opts ...ResponderOptFn) *Responder {
	d := &Responder{
		injector: NoopInjector{},
		pool:     &sync.Pool{New: func() any { return new(bytes.Buffer) }},
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.logger == nil {
		d.logger = logger.New()
	}

	if l, ok := d.logger.(logger.SkipLogger); ok {
		d.logger = l.AddSkip(responderFrames)
	}

	if d.parser != nil {
		d.parser.AddFn(template.Nonce())
		d.parser.AddFn(template.Env(d.env))
		d.parser.AddFn(template.RootUrl(d.rootUrl))
	}

	return d
}

// Env returns the environment the Responder operates in.
func (doer *Responder) Env() trailhead.Environment { return doer.env }

// Logger returns the logger.Logger the Responder logs with.
func (doer *Responder) Logger() logger.Logger { return doer.logger }

// Err wraps http.Error(), logging the error causing the failure state.
//
// The error message reaches the client only when the Responder's environment exposes errors.
//
// Use in exceptional circumstances when no Redirect, Html, or Json can occur.
func (doer *Responder) Err(w http.ResponseWriter, r *http.Request, err error, opts ...Fn) {
	rr, nested := doer.do(w, r, append(opts, Err(err))...)
	if nested != nil {
		err = fmt.Errorf("%w: %s", err, nested)
	}

	code := http.StatusInternalServerError
	if rr != nil && rr.code != 0 {
		code = rr.code
	}

	msg := http.StatusText(code)
	if err != nil && doer.env.ExposesErrors() {
		msg = err.Error()
	}

	http.Error(w, msg, code)
}

// Html composes together HTML templates set by Tmpls, rendering the first one.
//
// Templates execute with this data:
//
//	{
//		Status:     the response status code,
//		StatusText: the text for Status,
//		Data:       the value set by Data,
//		Error:      the value set by Error,
//	}
func (doer *Responder) Html(w http.ResponseWriter, r *http.Request, opts ...Fn) error {
	rr, err := doer.do(w, r, opts...)
	if err != nil {
		return doer.handleHtmlError(w, r, err)
	}

	b, err := doer.render(rr)
	if err != nil {
		return doer.handleHtmlError(w, r, err)
	}
	defer doer.pool.Put(b)

	doer.writeHeader(w, rr, htmlMediaType+"; charset=UTF-8")
	if _, err := b.WriteTo(w); err != nil {
		return err
	}

	return nil
}

type jsonSchema struct {
	D any `json:"data,omitempty"`
	E any `json:"error,omitempty"`
}

// Json responds with data in JSON format, collating it from Data(), Error() and setting appropriate headers.
//
// The JSON schema looks like this:
//
//	{
//		"data": {},
//		"error": {}
//	}
//
// Data() calls populate "data"
// Error() calls populate "error"
// Unset keys are elided, so a bare Json call writes {}.
func (doer *Responder) Json(w http.ResponseWriter, r *http.Request, opts ...Fn) error {
	rr, err := doer.do(w, r, opts...)
	if err != nil {
		return err
	}

	return doer.writeJson(w, r, rr)
}

// Negotiate writes HTML when the request asks for it and templates are set by Tmpls;
// otherwise, Negotiate writes JSON.
//
// When HTML cannot be rendered, Negotiate logs why and falls back to JSON.
//
// See WantsJSON for how a request asks for JSON.
func (doer *Responder) Negotiate(w http.ResponseWriter, r *http.Request, opts ...Fn) error {
	rr, err := doer.do(w, r, opts...)
	if err != nil {
		return err
	}

	if WantsJSON(r) || len(rr.tmpls) == 0 || doer.parser == nil {
		return doer.writeJson(w, r, rr)
	}

	b, err := doer.render(rr)
	if err != nil {
		doer.logger.Debug("falling back to JSON: "+err.Error(), &logger.LogContext{Error: err, Request: r})
		return doer.writeJson(w, r, rr)
	}
	defer doer.pool.Put(b)

	doer.writeHeader(w, rr, htmlMediaType+"; charset=UTF-8")
	if _, err := b.WriteTo(w); err != nil {
		return err
	}

	return nil
}

// Redirect calls http.Redirect, given Url() set the redirect destination.
// If Url() is not passed in opts, then ToRoot() sets the redirect destination.
//
// The default response status code is 302.
//
// If Code() set the status code to something other than standard redirect 3xx statuses,
// Redirect overwrites the status code with an appropriate 3xx status code.
func (doer *Responder) Redirect(w http.ResponseWriter, r *http.Request, opts ...Fn) error {
	rr, err := doer.do(w, r, append([]Fn{ToRoot()}, opts...)...)
	if err != nil {
		return err
	}

	if rr.url == nil {
		return fmt.Errorf("%w: cannot redirect, no resp.url", ErrMissingData)
	}

	switch {
	case rr.code >= http.StatusMultipleChoices && rr.code <= http.StatusPermanentRedirect:
		// NOTE(dlk): code is already a 3xx, so do nothing
	case rr.code >= http.StatusBadRequest && rr.code < http.StatusInternalServerError:
		rr.code = http.StatusSeeOther
	case rr.code >= http.StatusInternalServerError:
		rr.code = http.StatusTemporaryRedirect
	default:
		rr.code = http.StatusFound
	}

	for k, vals := range rr.header {
		w.Header()[k] = vals
	}

	http.Redirect(w, r, rr.url.String(), rr.code)
	return nil
}

// WantsJSON asserts whether the client ought to receive JSON rather than HTML.
//
// A request wants JSON when any of these hold:
//   - it is an XMLHttpRequest
//   - it has no Accept header
//   - it sends a JSON body
//   - its Accept header prefers application/json over text/html
func WantsJSON(r *http.Request) bool {
	if r.Header.Get("X-Requested-With") == "XMLHttpRequest" {
		return true
	}

	accept := r.Header.Get("Accept")
	if accept == "" {
		return true
	}

	if ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil && ct == jsonMediaType {
		return true
	}

	return goautoneg.Negotiate(accept, offers) != htmlMediaType
}

// do applies all options to the passed in http.ResponseWriter and *http.Request.
//
// Calling code ought to pass Options in the correct order.
// An option requiring something set by another one should come after.
// do nonetheless attempts to retry calling functional options until all do not return errors or,
// a set of options unable to not return errors is reached.
//
// Should all options apply successfully, do returns a validly formed *Response.
func (doer *Responder) do(w http.ResponseWriter, r *http.Request, opts ...Fn) (*Response, error) {
	resp := &Response{
		w:     w,
		r:     r,
		tmpls: make([]string, 0),
	}

	redos := make([]Fn, 0)
	for _, opt := range opts {
		select {
		case <-r.Context().Done():
			return nil, fmt.Errorf("%w", ErrDone)
		default:
			if err := opt(*doer, resp); err != nil {
				redos = append(redos, opt)
			}
		}
	}

	i := -1
	for i != len(redos) {
		select {
		case <-r.Context().Done():
			return nil, fmt.Errorf("%w", ErrDone)
		default:
			// NOTE(dlk): because doer.redo shrinks redos,
			// confirm we are running up against a set of functions
			// that will not return anything other than errors by checking
			// the length of redos has not changed since calling doer.redo.
			i = len(redos)
			redos = doer.redo(resp, redos...)
		}
	}

	if len(redos) != 0 {
		errs := make([]error, 0, len(redos))
		for _, opt := range redos {
			errs = append(errs, opt(*doer, resp))
		}

		return resp, errors.Join(errs...)
	}

	return resp, nil
}

// handleHtmlError specially renders the error template set on the Responder
// and reports errors.
func (doer *Responder) handleHtmlError(w http.ResponseWriter, r *http.Request, err error) error {
	doer.logger.Error(err.Error(), &logger.LogContext{Error: err, Request: r})

	if doer.templates.err == "" || doer.parser == nil {
		w.WriteHeader(http.StatusInternalServerError)
		return fmt.Errorf("%w: no error template provided, encountered while handling: %s", ErrBadConfig, err)
	}

	msg := http.StatusText(http.StatusInternalServerError)
	if doer.env.ExposesErrors() {
		msg = err.Error()
	}

	rr := &Response{
		r:       r,
		code:    http.StatusInternalServerError,
		tmpls:   []string{doer.templates.err},
		errBody: map[string]any{"message": msg},
	}

	b, nested := doer.render(rr)
	if nested != nil {
		err = fmt.Errorf("%w: %s", nested, err)
		doer.logger.Error(err.Error(), nil)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return err
	}
	defer doer.pool.Put(b)

	doer.writeHeader(w, rr, htmlMediaType+"; charset=UTF-8")
	if _, nested = b.WriteTo(w); nested != nil {
		return fmt.Errorf("%w: %s", nested, err)
	}

	return err
}

// redo applies as many may Options as it can, returning those Options that continue to throw an error.
func (doer *Responder) redo(r *Response, opts ...Fn) []Fn {
	bad := make([]Fn, 0)
	for _, opt := range opts {
		if err := opt(*doer, r); err != nil {
			bad = append(bad, opt)
		}
	}

	return bad
}

// render executes the first of rr.tmpls into a pooled *bytes.Buffer.
// Calling code must return the buffer to the pool.
func (doer *Responder) render(rr *Response) (*bytes.Buffer, error) {
	if doer.parser == nil {
		return nil, fmt.Errorf("%w: no parser configured", ErrBadConfig)
	}

	if len(rr.tmpls) == 0 {
		return nil, fmt.Errorf("%w: no templates to render", ErrMissingData)
	}

	tmpl, err := doer.parser.Parse(rr.tmpls...)
	if err != nil {
		return nil, fmt.Errorf("cannot parse: %w", err)
	}

	code := rr.code
	if code == 0 {
		code = http.StatusOK
	}

	rd := struct {
		Status     int
		StatusText string
		Data       any
		Error      any
	}{code, http.StatusText(code), rr.data, rr.errBody}

	b := doer.pool.Get().(*bytes.Buffer)
	b.Reset()
	if err := tmpl.ExecuteTemplate(b, path.Base(rr.tmpls[0]), rd); err != nil {
		doer.pool.Put(b)
		return nil, err
	}

	return b, nil
}

// writeHeader copies headers set by Header onto w, sets the content type
// and writes the status code, defaulting to http.StatusOK.
func (doer *Responder) writeHeader(w http.ResponseWriter, rr *Response, contentType string) {
	for k, vals := range rr.header {
		w.Header()[k] = vals
	}

	w.Header().Set("Content-Type", contentType)

	if rr.code == 0 {
		rr.code = http.StatusOK
	}

	w.WriteHeader(rr.code)
}

func (doer *Responder) writeJson(w http.ResponseWriter, r *http.Request, rr *Response) error {
	b := doer.pool.Get().(*bytes.Buffer)
	b.Reset()
	defer doer.pool.Put(b)

	if err := json.NewEncoder(b).Encode(jsonSchema{D: rr.data, E: rr.errBody}); err != nil {
		doer.Err(w, r, err)
		return err
	}

	doer.writeHeader(w, rr, jsonMediaType+"; charset=UTF-8")
	if _, err := b.WriteTo(w); err != nil {
		return err
	}

	return nil
}

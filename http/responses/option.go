package responses

import "net/http"

// An Option tunes what a built-in response writes.
// Options apply in the order passed, so later ones win.
type Option func(*payload)

type payload struct {
	code    int
	data    any
	err     error
	header  http.Header
	merge   map[string]any
	message string
	view    string
}

// Header sets the response header key to val.
func Header(key, val string) Option {
	return func(p *payload) {
		if p.header == nil {
			p.header = make(http.Header)
		}
		p.header.Set(key, val)
	}
}

// Merge copies fields into the error body.
func Merge(fields map[string]any) Option {
	return func(p *payload) {
		if len(fields) == 0 {
			return
		}

		if p.merge == nil {
			p.merge = make(map[string]any, len(fields))
		}

		for k, v := range fields {
			p.merge[k] = v
		}
	}
}

// Message sets the message of the error body.
//
// An error passed alongside replaces msg whenever its details may reach the client.
func Message(msg string) Option {
	return func(p *payload) { p.message = msg }
}

// Status overrides the status code of the response.
func Status(code int) Option {
	return func(p *payload) { p.code = code }
}

// View sets the template rendered when the client asks for HTML.
func View(tmpl string) Option {
	return func(p *payload) { p.view = tmpl }
}

// parseArgs sorts the positional args of a built-in response.
// The first error is the cause, the first other non-Option value is the data.
// Anything else is ignored.
func parseArgs(code int, args []any) *payload {
	p := &payload{code: code}
	hasData := false
	for _, arg := range args {
		switch a := arg.(type) {
		case nil:
		case Option:
			a(p)
		case []Option:
			for _, opt := range a {
				opt(p)
			}
		case error:
			if p.err == nil {
				p.err = a
			}
		default:
			if !hasData {
				p.data = a
				hasData = true
			}
		}
	}

	return p
}

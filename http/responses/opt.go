package responses

import (
	"github.com/xy-planning-network/trailhead"
	"github.com/xy-planning-network/trailhead/http/resp"
	"github.com/xy-planning-network/trailhead/logger"
)

// A RegistryOptFn mutates the provided *Registry in some way.
// A RegistryOptFn is used when constructing a new Registry.
type RegistryOptFn func(*Registry)

// WithEnv sets the environment the Registry operates in.
// Unless WithExposeErrors says otherwise, production environments
// keep error details away from clients.
//
// The default is trailhead.Development.
func WithEnv(env trailhead.Environment) RegistryOptFn {
	return func(reg *Registry) {
		if env.Valid() == nil {
			reg.env = env
		}
	}
}

// WithErrView sets the template built-in responses with error status codes render
// when the client asks for HTML.
func WithErrView(tmpl string) RegistryOptFn {
	return func(reg *Registry) {
		reg.errView = tmpl
	}
}

// WithExposeErrors decides whether error messages and stacks reach clients,
// regardless of the environment.
func WithExposeErrors(expose bool) RegistryOptFn {
	return func(reg *Registry) {
		reg.expose = &expose
	}
}

// WithLogger sets the logger.Logger the Registry logs with.
func WithLogger(l logger.Logger) RegistryOptFn {
	return func(reg *Registry) {
		if l != nil {
			reg.logger = l
		}
	}
}

// WithObserver sets the Observer notified after each response.
func WithObserver(o Observer) RegistryOptFn {
	return func(reg *Registry) {
		reg.observer = o
	}
}

// WithResponder sets the *resp.Responder built-in responses write with.
//
// By default, the Registry constructs a JSON only *resp.Responder.
// Set one with a template.Parser to render HTML.
func WithResponder(d *resp.Responder) RegistryOptFn {
	return func(reg *Registry) {
		if d != nil {
			reg.responder = d
		}
	}
}

// WithView sets the template the response called name renders
// when the client asks for HTML.
func WithView(name, tmpl string) RegistryOptFn {
	return func(reg *Registry) {
		reg.views[name] = tmpl
	}
}

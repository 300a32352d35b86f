package ranger

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/xy-planning-network/trailhead"
	"github.com/xy-planning-network/trailhead/http/middleware"
	"github.com/xy-planning-network/trailhead/http/resp"
	"github.com/xy-planning-network/trailhead/http/responses"
	"github.com/xy-planning-network/trailhead/http/template"
	"github.com/xy-planning-network/trailhead/logger"
)

// A RangerOption configures a *Ranger either (1) directly, immediately upon being called
// or (2) in the OptFollowup it returns.
// Some RangerOptions require data in others and thus an OptFollowup can be returned
// in order to be called at a later time when that data is available.
//
// WithEnv is an example of the first.
// An unexported field on the passed in *Ranger is updated with the enclosed value.
//
// WithResponse is an example of the second.
// The *responses.Registry it registers with exists only when the closure it returns is called.
type RangerOption func(rng *Ranger) (OptFollowup, error)
type OptFollowup func() error

// WithContext exposes the provided context.Context to the trailhead app.
func WithContext(ctx context.Context) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		rng.ctx = ctx
		return nil, nil
	}
}

// WithEnv casts the provided string into a valid Environment,
// or, reads from the ENVIRONMENT environment variable a valid Environment.
//
// If both fail, the default Environment is set to Development.
func WithEnv(envVar string) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		e := trailhead.Environment(envVar)
		if err := e.Valid(); err != nil {
			e = trailhead.EnvVarOrEnv(environmentEnvVar, trailhead.Development)
		}

		rng.env = e
		return nil, nil
	}
}

// WithLogger exposes the provided logger.Logger to the trailhead app.
func WithLogger(l logger.Logger) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		if l == nil {
			return nil, fmt.Errorf("%w: nil logger", ErrNotValid)
		}

		rng.l = l
		return nil, nil
	}
}

// WithMetrics registers response and request metrics with reg,
// serving them at the METRICS_PATH environment variable, "/metrics" by default.
//
// Without WithMetrics, metrics are registered with prometheus.DefaultRegisterer.
func WithMetrics(reg prometheus.Registerer) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		rng.promReg = reg
		return nil, nil
	}
}

// WithMiddlewares appends mws to the stack applied to every request.
func WithMiddlewares(mws ...middleware.Adapter) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		rng.mws = append(rng.mws, mws...)
		return nil, nil
	}
}

// WithParser exposes the provided template.Parser to the trailhead app.
func WithParser(p template.Parser) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		rng.p = p
		return nil, nil
	}
}

// WithRegistryOptions applies opts when constructing the *responses.Registry,
// after those configured by environment variables.
func WithRegistryOptions(opts ...responses.RegistryOptFn) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		rng.regOpts = append(rng.regOpts, opts...)
		return nil, nil
	}
}

// WithRequiredResponses fails New unless every one of names resolves,
// in addition to responses.Baseline.
func WithRequiredResponses(names ...string) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		rng.required = append(rng.required, names...)
		return nil, nil
	}
}

// WithResponder exposes the *resp.Responder to the trailhead app.
func WithResponder(d *resp.Responder) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		rng.Responder = d
		return nil, nil
	}
}

// WithResponse constructs a followup option that, when called,
// registers h as the response called name.
//
// Responses registered this way override those declared by files.
func WithResponse(name string, h responses.Handler) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		return func() error {
			if err := rng.reg.Register(name, h); err != nil {
				return err
			}

			rng.l.Debug(fmt.Sprintf("registered response %s", name), &logger.LogContext{Response: name})
			return nil
		}, nil
	}
}

// WithResponsesFS reads response declarations from dir in fsys.
//
// By default, responses are read from the RESPONSES_DIR environment variable,
// "api/responses", relative to the working directory.
func WithResponsesFS(fsys fs.FS, dir string) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		if fsys == nil {
			return nil, fmt.Errorf("%w: nil responses fs", ErrNotValid)
		}

		rng.responsesFS = fsys
		rng.responsesDir = dir
		return nil, nil
	}
}

// WithServer exposes the *http.Server to the trailhead app.
func WithServer(s *http.Server) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		if s == nil {
			return nil, fmt.Errorf("%w: nil server", ErrNotValid)
		}

		rng.srv = s
		return nil, nil
	}
}

package middleware

import (
	"fmt"
	"net/http"

	"github.com/xy-planning-network/trailhead/http/responses"
)

// InjectResponses stores reg in the *http.Request.Context
// thereby making it available to handlers through responses.For.
//
// If reg is nil, then NoopAdapter returns and this middleware does nothing.
func InjectResponses(reg *responses.Registry) Adapter {
	if reg == nil {
		return NoopAdapter
	}

	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h.ServeHTTP(w, r.WithContext(responses.NewContext(r.Context(), reg)))
		})
	}
}

// Recover answers requests whose handlers panic with the serverError response of reg.
//
// http.ErrAbortHandler keeps panicking, as net/http expects.
//
// If reg is nil, the default responses.Registry answers.
func Recover(reg *responses.Registry) Adapter {
	if reg == nil {
		reg = responses.Default()
	}

	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				p := recover()
				if p == nil {
					return
				}

				if p == http.ErrAbortHandler {
					panic(p)
				}

				err := responses.WithStack(fmt.Errorf("%w: %v", responses.ErrPanic, p))
				reg.Bind(w, r).ServerError(err)
			}()

			h.ServeHTTP(w, r)
		})
	}
}

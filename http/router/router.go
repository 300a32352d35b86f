package router

import (
	"io/fs"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/xy-planning-network/trailhead"
	"github.com/xy-planning-network/trailhead/http/middleware"
	"github.com/xy-planning-network/trailhead/http/responses"
)

const assetsMaxAge = "max-age=2592000" // 30 days

// A Route maps a path and HTTP method to an [http.HandlerFunc].
// Additional [middleware.Adapter] can be called when a server handles
// a request matching the Route.
type Route struct {
	Path        string
	Method      string
	Handler     http.HandlerFunc
	Middlewares []middleware.Adapter
}

// Router routes requests for resources to their location in a standard trailhead app layout.
type Router struct {
	Env           trailhead.Environment
	everyReqStack []middleware.Adapter
	logReq        middleware.Adapter
	r             *mux.Router
	reg           *responses.Registry
}

// New constructs a [*Router] for the given environment,
// answering requests matching no Route with the notFound response of reg.
//
// If reg is nil, the default responses.Registry answers.
func New(env trailhead.Environment, reg *responses.Registry, logReq middleware.Adapter) *Router {
	if reg == nil {
		reg = responses.Default()
	}

	if logReq == nil {
		logReq = middleware.NoopAdapter
	}

	rt := &Router{Env: env, logReq: logReq, r: mux.NewRouter(), reg: reg}
	rt.HandleNotFound(NotFound(reg))
	rt.r.MethodNotAllowedHandler = rt.wrap(MethodNotAllowed(reg), logReq)

	return rt
}

// NotFound constructs an [http.HandlerFunc] sending the notFound response of reg.
func NotFound(reg *responses.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reg.Bind(w, r).NotFound()
	}
}

// MethodNotAllowed constructs an [http.HandlerFunc] sending the badRequest response of reg
// with a 405 status code.
func MethodNotAllowed(reg *responses.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reg.Bind(w, r).BadRequest(responses.Status(http.StatusMethodNotAllowed))
	}
}

// Assets serves the files of fsys under prefix, for clients to cache.
//
// e.g., r.Assets("/assets/", os.DirFS("client/public"))
func (r *Router) Assets(prefix string, fsys fs.FS) {
	r.r.PathPrefix(prefix).Handler(middleware.Chain(
		http.StripPrefix(prefix, http.FileServer(http.FS(fsys))),
		cacheControl,
		r.logReq,
	))
}

// CatchAll sets up a handler for all routes to funnel to for e.g. maintenance mode.
func (r *Router) CatchAll(handler http.HandlerFunc) {
	r.r.PathPrefix("/").Handler(r.wrap(handler, r.everyReqStack...))
}

// Handle applies the [Route] to the [*Router].
func (r *Router) Handle(route Route) {
	r.HandleRoutes([]Route{route})
}

// HandleNotFound sets the provided [http.HandlerFunc] as the default function
// for when no other registered Route is matched.
func (r *Router) HandleNotFound(handler http.HandlerFunc) {
	r.r.NotFoundHandler = r.wrap(handler, r.logReq)
}

// HandleRoutes registers the set of Routes on the Router
// and includes all the [middleware.Adapter] on each Route.
// Any [middleware.Adapter] already assigned to a Route is appended to middlewares,
// so are called after the default set.
func (r *Router) HandleRoutes(routes []Route, middlewares ...middleware.Adapter) {
	for _, route := range routes {
		mws := make([]middleware.Adapter, 0, len(r.everyReqStack)+len(middlewares)+len(route.Middlewares))
		mws = append(mws, r.everyReqStack...)
		mws = append(mws, middlewares...)
		mws = append(mws, route.Middlewares...)
		r.r.Handle(route.Path, r.wrap(route.Handler, mws...)).Methods(route.Method)
	}
}

// OnEveryRequest appends the middlewares to the existing stack
// that the [*Router] will apply to every request.
func (r *Router) OnEveryRequest(middlewares ...middleware.Adapter) {
	r.everyReqStack = append(r.everyReqStack, middlewares...)
}

// ServeHTTP responds to an HTTP request.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.r.ServeHTTP(w, req)
}

// SubrouterHost constructs a [Router] that handles requests to the host.
func (r *Router) SubrouterHost(host string) *Router {
	return &Router{
		Env:           r.Env,
		everyReqStack: r.everyReqStack,
		logReq:        r.logReq,
		r:             r.r.Host(host).Subrouter(),
		reg:           r.reg,
	}
}

// Subrouter constructs a [Router] that handles requests to endpoints matching the prefix.
//
// e.g., r.Subrouter("/api/v1") handles requests to endpoints like /api/v1/users
func (r *Router) Subrouter(prefix string) *Router {
	return &Router{
		Env:           r.Env,
		everyReqStack: r.everyReqStack,
		logReq:        r.logReq,
		r:             r.r.PathPrefix(prefix).Subrouter(),
		reg:           r.reg,
	}
}

// wrap encloses handler so panics become the serverError response,
// reported to Sentry outside of development,
// and handlers reach the registry through responses.For.
func (r *Router) wrap(handler http.Handler, mws ...middleware.Adapter) http.Handler {
	stack := make([]middleware.Adapter, 0, len(mws)+2)
	stack = append(stack, middleware.Recover(r.reg), middleware.InjectResponses(r.reg))
	stack = append(stack, mws...)

	return middleware.Chain(middleware.ReportPanic(r.Env)(handler), stack...)
}

// cacheControl helps by adding a "Cache-Control" header to the response.
func cacheControl(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", assetsMaxAge)
		handler.ServeHTTP(w, r)
	})
}

package ranger

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/xy-planning-network/trailhead"
	"github.com/xy-planning-network/trailhead/http/middleware"
	"github.com/xy-planning-network/trailhead/http/resp"
	"github.com/xy-planning-network/trailhead/http/responses"
	"github.com/xy-planning-network/trailhead/http/template"
	"github.com/xy-planning-network/trailhead/logger"
	"golang.org/x/time/rate"
)

const (
	// Base URL defaults
	BaseURLEnvVar = "BASE_URL"

	// CORS defaults
	corsOriginEnvVar = "CORS_ORIGIN"

	// Environment defaults
	environmentEnvVar = "ENVIRONMENT"

	// HTTPS defaults
	forceHTTPSEnvVar  = "FORCE_HTTPS"
	defaultForceHTTPS = false

	// Log defaults
	logLevelEnvVar = "LOG_LEVEL"
	defaultLogLvl  = logger.LogLevelInfo

	// Maintenance defaults
	maintModeEnvVar       = "MAINTENANCE_MODE"
	MaintenanceResponse   = "maintenance"
	maintRetryAfter       = "600"
	defaultMaintenanceMsg = "down for maintenance"

	// Metrics defaults
	metricsPathEnvVar  = "METRICS_PATH"
	defaultMetricsPath = "/metrics"

	// Rate limit defaults
	rateLimitEnvVar  = "RATE_LIMIT"
	rateBurstEnvVar  = "RATE_LIMIT_BURST"
	defaultRateLimit = 0

	// Responses defaults
	responsesDirEnvVar      = "RESPONSES_DIR"
	defaultResponsesDir     = "api/responses"
	responsesExposeEnvVar   = "RESPONSES_EXPOSE_ERRORS"
	responsesRequiredEnvVar = "RESPONSES_REQUIRED"
	requestIDErrorBodyField = "requestId"
	defaultErrTmpl          = "tmpl/error.tmpl"
	viewsDirEnvVar          = "VIEWS_DIR"
	defaultViewsDir         = "."

	// Web server defaults
	DefaultHost               = "localhost"
	hostEnvVar                = "HOST"
	DefaultPort               = ":3000"
	portEnvVar                = "PORT"
	serverReadTimeoutEnvVar   = "SERVER_READ_TIMEOUT"
	DefaultServerReadTimeout  = 5 * time.Second
	serverIdleTimeoutEnvVar   = "SERVER_IDLE_TIMEOUT"
	DefaultServerIdleTimeout  = 120 * time.Second
	serverWriteTimeoutEnvVar  = "SERVER_WRITE_TIMEOUT"
	DefaultServerWriteTimeout = 5 * time.Second
)

var defaultBaseURL = "http://" + DefaultHost + DefaultPort

// defaultLogger constructs a [logger.Logger] configured for use in the application.
func defaultLogger(env trailhead.Environment) logger.Logger {
	l := logger.New(
		logger.WithEnv(env.String()),
		logger.WithLevel(trailhead.EnvVarOrLogLevel(logLevelEnvVar, defaultLogLvl)),
	)
	l.Debug("setting up app logger", nil)

	return l
}

// defaultParser constructs a [template.Parser] to be used
// when responding to HTTP requests with HTML.
//
// defaultParser makes available these functions in an HTML template:
//
//   - "env"
//   - "isDevelopment"
//   - "isStaging"
//   - "isProduction"
//   - "nonce"
//   - "rootUrl"
//   - "statusText"
func defaultParser(env trailhead.Environment) template.Parser {
	return template.NewParser(
		template.WithFS(os.DirFS(trailhead.EnvVarOrString(viewsDirEnvVar, defaultViewsDir))),
		template.WithFn("isDevelopment", env.IsDevelopment),
		template.WithFn("isStaging", env.IsStaging),
		template.WithFn("isProduction", env.IsProduction),
	)
}

// defaultResponder configures the [*resp.Responder] built-in responses write with.
//
// Error bodies carry the ID of the request that failed.
func defaultResponder(env trailhead.Environment, l logger.Logger, u *url.URL, p template.Parser) *resp.Responder {
	return resp.NewResponder(
		resp.WithContextInjector(resp.DefaultInjector{
			Keys: map[string]trailhead.Key{requestIDErrorBodyField: trailhead.RequestIDKey},
		}),
		resp.WithEnv(env),
		resp.WithErrTemplate(defaultErrTmpl),
		resp.WithLogger(l),
		resp.WithParser(p),
		resp.WithRootUrl(u.String()),
	)
}

// defaultRegistryOpts configures the [*responses.Registry] from environment variables.
func defaultRegistryOpts(env trailhead.Environment) []responses.RegistryOptFn {
	opts := []responses.RegistryOptFn{responses.WithEnv(env), responses.WithErrView(defaultErrTmpl)}
	if _, ok := os.LookupEnv(responsesExposeEnvVar); ok {
		opts = append(opts, responses.WithExposeErrors(trailhead.EnvVarOrBool(responsesExposeEnvVar, env.ExposesErrors())))
	}

	return opts
}

// defaultMiddlewares constructs the [middleware.Adapter] stack applied to every request.
func defaultMiddlewares(env trailhead.Environment, l logger.Logger, reg *responses.Registry) []middleware.Adapter {
	mws := []middleware.Adapter{
		middleware.RequestID(),
		middleware.InjectIPAddress(),
		middleware.LogRequest(l),
		middleware.CORS(os.Getenv(corsOriginEnvVar)),
	}

	if trailhead.EnvVarOrBool(forceHTTPSEnvVar, defaultForceHTTPS) {
		mws = append(mws, middleware.ForceHTTPS(env))
	}

	if limit := trailhead.EnvVarOrInt(rateLimitEnvVar, defaultRateLimit); limit > 0 {
		vs := middleware.NewVisitorsLimit(rate.Limit(limit), trailhead.EnvVarOrInt(rateBurstEnvVar, limit*4))
		mws = append(mws, middleware.RateLimit(vs, reg))
	}

	return mws
}

// defaultServer constructs a default [*http.Server].
func defaultServer(ctx context.Context) *http.Server {
	port := trailhead.EnvVarOrString(portEnvVar, DefaultPort)
	if port[0] != ':' {
		port = ":" + port
	}

	srv := &http.Server{
		Addr:         port,
		IdleTimeout:  trailhead.EnvVarOrDuration(serverIdleTimeoutEnvVar, DefaultServerIdleTimeout),
		ReadTimeout:  trailhead.EnvVarOrDuration(serverReadTimeoutEnvVar, DefaultServerReadTimeout),
		WriteTimeout: trailhead.EnvVarOrDuration(serverWriteTimeoutEnvVar, DefaultServerWriteTimeout),
	}
	if ctx != nil {
		srv.BaseContext = func(_ net.Listener) context.Context { return ctx }
	}

	return srv
}

// MaintModeHandler answers every request with the maintenance response of reg,
// asking clients to retry after ten minutes.
func MaintModeHandler(reg *responses.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reg.Bind(w, r).Send(MaintenanceResponse, responses.Header("Retry-After", maintRetryAfter))
	}
}

// maintenance is the default maintenance response.
func maintenance(c *responses.Context, args ...any) error {
	opts := []any{responses.Status(http.StatusServiceUnavailable), responses.Message(defaultMaintenanceMsg)}
	return c.Send(responses.ServerError, append(opts, args...)...)
}

/*
Package ranger initializes and manages a trailhead app with sane defaults.

# Ranger

The main entrypoint to package ranger is the [Ranger] type.
A [Ranger] ought to be constructed with [New].

[New] sets up the responses an app answers requests with.
Built-in responses come first, then those declared in files under RESPONSES_DIR,
then those registered with [WithResponse].
A later registration of the same name replaces an earlier one.
[New] fails with [ErrBadConfig] when a declared response cannot be read
or a required response does not resolve.
Once [New] returns, the [*responses.Registry] is sealed.

[*Ranger.Guide] begins a trailhead app's web server.
By default, [*Ranger.Guide] listens on [DefaultHost]:[DefaultPort] (localhost:3000),
assuming either a reverse proxy proxies requests
or only a client application makes direct requests to the trailhead web server.

Upon calling [*Ranger.Guide], all routes configured up to that point are now active.
Stop that web server with [*Ranger.Shutdown]
or send a signal [*Ranger.Guide] listens for.

# Configuration

A developer configures a trailhead app through environment variables
and by passing [RangerOption] values to [New].

Environment variables ought to be set in a file called ".env"
found at the same directory the application is executed from.

Here are the available environment variables.
  - BASE_URL: the base URL the application runs on; default: http://localhost:3000
  - CORS_ORIGIN: the base URL allowed to make cross-origin requests
  - ENVIRONMENT: the environment the application is running in; cf. [trailhead.Environment]
  - FORCE_HTTPS: redirect HTTP requests to HTTPS outside of development; default: false
  - LOG_LEVEL: the level at which to begin logging; default: INFO; cf. [logger.LogLevel]
  - MAINTENANCE_MODE: answer every request with the maintenance response; default: false
  - METRICS_PATH: the path Prometheus metrics are served at; default: /metrics
  - PORT: the port the application should listen on; default: :3000
  - RATE_LIMIT: requests per second allowed from one IP address; default: 0, no limit
  - RATE_LIMIT_BURST: requests allowed at once from one IP address; default: four times RATE_LIMIT
  - RESPONSES_DIR: the directory response declarations are read from; default: api/responses
  - RESPONSES_EXPOSE_ERRORS: whether error responses carry messages and stacks; default: true outside of production
  - RESPONSES_REQUIRED: comma-separated response names that must resolve at startup
  - SENTRY_DSN: the DSN errors are reported to
  - SERVER_IDLE_TIMEOUT: the timeout - as understood by [time.ParseDuration] - for idiling between requests when using keep-alives; default: 120s
  - SERVER_READ_TIMEOUT: the timeout - as understood by [time.ParseDuration] - for reading HTTP requests; default: 5s
  - SERVER_WRITE_TIMEOUT: the timeout - as understood by [time.ParseDuration] - for writing HTTP responses; default: 5s
  - VIEWS_DIR: the directory HTML templates are read from; default: the working directory
*/
package ranger

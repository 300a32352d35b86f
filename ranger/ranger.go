package ranger

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	// TODO(dlk): configurable env files
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xy-planning-network/trailhead"
	"github.com/xy-planning-network/trailhead/http/metrics"
	"github.com/xy-planning-network/trailhead/http/middleware"
	"github.com/xy-planning-network/trailhead/http/resp"
	"github.com/xy-planning-network/trailhead/http/responses"
	"github.com/xy-planning-network/trailhead/http/responses/responsefs"
	"github.com/xy-planning-network/trailhead/http/router"
	"github.com/xy-planning-network/trailhead/http/template"
	"github.com/xy-planning-network/trailhead/logger"
)

// A Ranger manages and exposes all components of a trailhead app to one another.
type Ranger struct {
	*resp.Responder
	*router.Router

	ctx          context.Context
	env          trailhead.Environment
	l            logger.Logger
	metrics      *metrics.Collector
	mws          []middleware.Adapter
	p            template.Parser
	promReg      prometheus.Registerer
	reg          *responses.Registry
	regOpts      []responses.RegistryOptFn
	required     []string
	responsesDir string
	responsesFS  fs.FS
	srv          *http.Server
	url          *url.URL
}

// New constructs a Ranger from the provided options.
// Default options are applied first followed by the options passed into New.
// Options supplied to New overwrite default configurations.
//
// New reads declared responses, registers those set by WithResponse,
// then requires responses.Baseline and those named by WithRequiredResponses
// or the RESPONSES_REQUIRED environment variable to resolve.
// Afterwards, the *responses.Registry is sealed.
func New(opts ...RangerOption) (*Ranger, error) {
	r := new(Ranger)
	followups := make([]OptFollowup, 0)

	// NOTE(dlk): calling an option configures the *Ranger under construction.
	// Some options require components New builds after all options run.
	// They return an OptFollowup to be called once those exist.
	for _, opt := range append([]RangerOption{WithEnv("")}, opts...) {
		fn, err := opt(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrBadConfig, err)
		}

		if fn != nil {
			followups = append(followups, fn)
		}
	}

	r.setDefaults()

	if err := r.setupResponses(followups); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadConfig, err)
	}

	if err := r.setupRouter(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadConfig, err)
	}

	return r, nil
}

func (r *Ranger) setDefaults() {
	if r.ctx == nil {
		r.ctx = context.Background()
	}

	if r.l == nil {
		r.l = defaultLogger(r.env)
	}

	r.url = trailhead.EnvVarOrURL(BaseURLEnvVar, defaultBaseURL)

	if r.p == nil {
		r.p = defaultParser(r.env)
	}

	if r.Responder == nil {
		r.Responder = defaultResponder(r.env, r.l, r.url, r.p)
	}

	if r.responsesFS == nil {
		r.responsesFS = os.DirFS(".")
		r.responsesDir = trailhead.EnvVarOrString(responsesDirEnvVar, defaultResponsesDir)
	}

	if r.promReg == nil {
		r.promReg = prometheus.DefaultRegisterer
	}

	if r.srv == nil {
		r.srv = defaultServer(r.ctx)
	}
}

// setupResponses builds, fills, validates and seals the *responses.Registry.
func (r *Ranger) setupResponses(followups []OptFollowup) error {
	var err error
	r.metrics, err = metrics.New(r.promReg)
	if err != nil {
		return err
	}

	opts := append(defaultRegistryOpts(r.env),
		responses.WithLogger(r.l),
		responses.WithObserver(r.metrics),
		responses.WithResponder(r.Responder),
	)
	r.reg = responses.New(append(opts, r.regOpts...)...)

	if err := r.reg.RegisterBuiltIn(MaintenanceResponse, maintenance); err != nil {
		return err
	}

	defs, err := responsefs.LoadAndRegister(r.reg, r.responsesFS, r.responsesDir)
	if err != nil {
		return err
	}

	for _, def := range defs {
		r.l.Debug(fmt.Sprintf("declared response %s", def.Name), &logger.LogContext{Response: def.Name})
	}

	for _, fn := range followups {
		if err := fn(); err != nil {
			return err
		}
	}

	required := append(append([]string{}, responses.Baseline...), r.required...)
	required = append(required, trailhead.EnvVarOrStrings(responsesRequiredEnvVar, nil)...)
	if err := r.reg.Validate(required...); err != nil {
		return err
	}

	r.reg.Seal()
	r.l.Info(fmt.Sprintf("serving %d responses", len(r.reg.Names())), nil)

	return nil
}

func (r *Ranger) setupRouter() error {
	logReq := middleware.LogRequest(r.l)
	r.Router = router.New(r.env, r.reg, logReq)

	metricsPath := trailhead.EnvVarOrString(metricsPathEnvVar, defaultMetricsPath)
	r.OnEveryRequest(r.metrics.Collect(metricsPath))
	r.OnEveryRequest(defaultMiddlewares(r.env, r.l, r.reg)...)
	r.OnEveryRequest(r.mws...)

	if metricsPath != "" {
		r.Handle(router.Route{Path: metricsPath, Method: http.MethodGet, Handler: r.metrics.Handler().ServeHTTP})
	}

	if trailhead.EnvVarOrBool(maintModeEnvVar, false) {
		r.l.Warn("maintenance mode on", nil)
		r.CatchAll(MaintModeHandler(r.reg))
	}

	r.srv.Handler = r.Router
	return nil
}

func (r *Ranger) EmitEnv() trailhead.Environment    { return r.env }
func (r *Ranger) EmitLogger() logger.Logger         { return r.l }
func (r *Ranger) EmitMetrics() *metrics.Collector   { return r.metrics }
func (r *Ranger) EmitRegistry() *responses.Registry { return r.reg }

// Guide begins the web server.
//
// These, and (*Ranger).Shutdown, stop Guide:
//
// - os.Interrupt
// - os.Kill
// - syscall.SIGHUP
// - syscall.SIGINT
// - syscall.SIGQUIT
// - syscall.SIGTERM
func (r *Ranger) Guide() error {
	ctx, cancel := context.WithCancel(r.ctx)
	defer cancel()

	ch := make(chan os.Signal, 1)
	signal.Notify(
		ch,
		os.Interrupt,
		os.Kill,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	defer signal.Stop(ch)

	go func() {
		select {
		case s := <-ch:
			r.l.Info(fmt.Sprint("received shutdown signal: ", s), nil)
			cancel()
		case <-ctx.Done():
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		r.l.Info(fmt.Sprintf("running web server at %s", r.srv.Addr), nil)
		if err := r.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			err = fmt.Errorf("could not listen: %w", err)
			r.l.Error(err.Error(), nil)
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return r.Shutdown()
	case err := <-errCh:
		return err
	}
}

// Shutdown shutdowns the web server.
func (r *Ranger) Shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	r.l.Info("shutting down web server", nil)
	err := r.srv.Shutdown(shutdownCtx)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("could not shutdown: %w", err)
	}

	r.l.Info("web server shutdown successfully", nil)
	return nil
}

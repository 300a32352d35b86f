package responses

import (
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/xy-planning-network/trailhead"
	"github.com/xy-planning-network/trailhead/http/resp"
	"github.com/xy-planning-network/trailhead/logger"
)

// Names of the built-in responses.
const (
	OK              = "ok"
	Created         = "created"
	BadRequest      = "badRequest"
	Forbidden       = "forbidden"
	NotFound        = "notFound"
	TooManyRequests = "tooManyRequests"
	ServerError     = "serverError"
	Negotiate       = "negotiate"
)

// maxDepth bounds how many responses a single invocation passes through
// by way of Context.Send.
const maxDepth = 8

// Baseline lists the responses every application relies upon.
var Baseline = []string{OK, NotFound, ServerError}

var validName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// A Handler finalizes the HTTP response in c.
//
// Positional args come untouched from calling code.
type Handler func(c *Context, args ...any) error

// An Entry is a Handler registered under Name.
type Entry struct {
	Name    string
	Handler Handler
	BuiltIn bool

	// Response the Handler sends, when declared with RegisterDelegate
	Base string
}

// A Registry maps response names to the Handlers implementing them.
//
// Register and RegisterBuiltIn are not safe for concurrent use;
// call them while starting up, then Seal the Registry.
type Registry struct {
	entries   map[string]Entry
	env       trailhead.Environment
	errView   string
	expose    *bool
	logger    logger.Logger
	observer  Observer
	responder *resp.Responder
	sealed    bool
	views     map[string]string
}

// New constructs a *Registry holding the built-in responses.
func New(opts ...RegistryOptFn) *Registry {
	reg := &Registry{
		entries: make(map[string]Entry),
		env:     trailhead.Development,
		errView: defaultErrView,
		views:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(reg)
	}

	if reg.logger == nil {
		reg.logger = logger.New()
	}

	if reg.responder == nil {
		reg.responder = resp.NewResponder(resp.WithEnv(reg.env), resp.WithLogger(reg.logger))
	}

	for name, h := range builtIns() {
		reg.entries[name] = Entry{Name: name, Handler: h, BuiltIn: true}
	}

	return reg
}

// Register sets h as the Handler for the response called name,
// replacing whatever was registered under name before, built-ins included.
func (reg *Registry) Register(name string, h Handler) error {
	return reg.register(Entry{Name: name, Handler: h})
}

// RegisterBuiltIn acts like Register, marking the Entry as a built-in response.
func (reg *Registry) RegisterBuiltIn(name string, h Handler) error {
	return reg.register(Entry{Name: name, Handler: h, BuiltIn: true})
}

// RegisterDelegate acts like Register, declaring that h sends the response called base.
// Validate then asserts base resolves and delegation never comes back around.
func (reg *Registry) RegisterDelegate(name, base string, h Handler) error {
	if !ValidName(base) {
		return fmt.Errorf("%w: %q as base of %q", ErrInvalidName, base, name)
	}

	return reg.register(Entry{Name: name, Handler: h, Base: base})
}

func (reg *Registry) register(e Entry) error {
	if reg.sealed {
		return fmt.Errorf("%w: cannot register %q", ErrSealed, e.Name)
	}

	if !ValidName(e.Name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, e.Name)
	}

	if e.Handler == nil {
		return fmt.Errorf("%w: nil handler for %q", ErrInvalidHandler, e.Name)
	}

	if prev, ok := reg.entries[e.Name]; ok {
		reg.logger.Debug(
			fmt.Sprintf("overriding response %s", e.Name),
			&logger.LogContext{Response: e.Name, Data: map[string]any{"builtIn": prev.BuiltIn}},
		)
	}

	reg.entries[e.Name] = e
	return nil
}

// ValidName reports whether name may identify a response.
// Names start with a letter or underscore, followed by letters, digits or underscores.
func ValidName(name string) bool { return validName.MatchString(name) }

// Resolve looks up the Entry registered under name.
func (reg *Registry) Resolve(name string) (Entry, bool) {
	e, ok := reg.entries[name]
	return e, ok
}

// Names lists every registered response, sorted.
func (reg *Registry) Names() []string {
	names := make([]string, 0, len(reg.entries))
	for name := range reg.entries {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Validate asserts every one of names resolves,
// returning ErrMissingResponse listing those that do not.
//
// Validate also follows the base of every Entry registered with RegisterDelegate.
// A base resolving to nothing is missing too;
// a chain of bases leading back to a response returns ErrCycle.
func (reg *Registry) Validate(names ...string) error {
	var missing []string
	for _, name := range names {
		if _, ok := reg.entries[name]; !ok {
			missing = append(missing, name)
		}
	}

	for _, name := range reg.Names() {
		base := reg.entries[name].Base
		if _, ok := reg.entries[base]; base != "" && !ok {
			missing = append(missing, fmt.Sprintf("%s (base of %s)", base, name))
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingResponse, strings.Join(missing, ", "))
	}

	for _, name := range reg.Names() {
		if chain := reg.cycle(name); chain != nil {
			return fmt.Errorf("%w: %s", ErrCycle, strings.Join(chain, " -> "))
		}
	}

	return nil
}

// cycle follows bases from name, returning the chain once it reaches a response a second time.
func (reg *Registry) cycle(name string) []string {
	var chain []string
	seen := make(map[string]bool)
	for cur := name; cur != ""; cur = reg.entries[cur].Base {
		chain = append(chain, cur)
		if seen[cur] {
			return chain
		}
		seen[cur] = true
	}

	return nil
}

// Seal ends registration. Afterwards, Register and RegisterBuiltIn return ErrSealed.
func (reg *Registry) Seal() { reg.sealed = true }

// Sealed reports whether Seal has been called.
func (reg *Registry) Sealed() bool { return reg.sealed }

// Env returns the environment the Registry operates in.
func (reg *Registry) Env() trailhead.Environment { return reg.env }

// Logger returns the logger.Logger the Registry logs with.
func (reg *Registry) Logger() logger.Logger { return reg.logger }

// Responder returns the *resp.Responder built-in responses write with.
func (reg *Registry) Responder() *resp.Responder { return reg.responder }

// ExposeErrors reports whether error messages and stacks reach clients.
func (reg *Registry) ExposeErrors() bool {
	if reg.expose != nil {
		return *reg.expose
	}

	return reg.env.ExposesErrors()
}

// Invoke calls the Handler registered under name with args,
// answering r through w.
//
// Invoke returns an error wrapping ErrUnknownResponse when name resolves to nothing
// and a *HandlerError when the Handler fails or panics.
func (reg *Registry) Invoke(w http.ResponseWriter, r *http.Request, name string, args ...any) error {
	_, err := reg.invoke(w, r, name, args)
	return err
}

// invoke reports, alongside any error, whether anything reached w.
func (reg *Registry) invoke(w http.ResponseWriter, r *http.Request, name string, args []any) (wrote bool, err error) {
	code := http.StatusOK
	start := time.Now()
	ww := httpsnoop.Wrap(w, httpsnoop.Hooks{
		WriteHeader: func(next httpsnoop.WriteHeaderFunc) httpsnoop.WriteHeaderFunc {
			return func(c int) {
				if !wrote {
					code = c
				}
				wrote = true
				next(c)
			}
		},
		Write: func(next httpsnoop.WriteFunc) httpsnoop.WriteFunc {
			return func(b []byte) (int, error) {
				wrote = true
				return next(b)
			}
		},
		ReadFrom: func(next httpsnoop.ReadFromFunc) httpsnoop.ReadFromFunc {
			return func(src io.Reader) (int64, error) {
				wrote = true
				return next(src)
			}
		},
	})

	c := &Context{Request: r, Response: ww, reg: reg}
	err = c.Send(name, args...)

	// A failing Handler that wrote nothing leaves the response to a fallback,
	// which reports itself.
	if reg.observer != nil && (err == nil || wrote) {
		reg.observer.ObserveResponse(name, code, time.Since(start))
	}

	return wrote, err
}

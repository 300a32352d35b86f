package responses_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/trailhead/http/responses"
)

func noop(c *responses.Context, _ ...any) error { return nil }

func TestRegister(t *testing.T) {
	tcs := []struct {
		name    string
		resName string
		h       responses.Handler
		err     error
	}{
		{"Valid", "insufficientFunds", noop, nil},
		{"Underscore", "_private_1", noop, nil},
		{"Override-Built-In", responses.NotFound, noop, nil},
		{"Empty", "", noop, responses.ErrInvalidName},
		{"Leading-Digit", "1up", noop, responses.ErrInvalidName},
		{"Dash", "too-many", noop, responses.ErrInvalidName},
		{"Space", "not found", noop, responses.ErrInvalidName},
		{"Nil-Handler", "insufficientFunds", nil, responses.ErrInvalidHandler},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			reg := responses.New(responses.WithLogger(newLogger()))

			// Act
			err := reg.Register(tc.resName, tc.h)

			// Assert
			require.ErrorIs(t, err, tc.err)
			if tc.err != nil {
				return
			}

			e, ok := reg.Resolve(tc.resName)
			require.True(t, ok)
			require.Equal(t, tc.resName, e.Name)
			require.False(t, e.BuiltIn)
		})
	}
}

func TestRegisterSealed(t *testing.T) {
	// Arrange
	reg := responses.New(responses.WithLogger(newLogger()))
	reg.Seal()

	// Act
	err := reg.Register("insufficientFunds", noop)
	errBuiltIn := reg.RegisterBuiltIn("gone", noop)

	// Assert
	require.True(t, reg.Sealed())
	require.ErrorIs(t, err, responses.ErrSealed)
	require.ErrorIs(t, errBuiltIn, responses.ErrSealed)
	_, ok := reg.Resolve("insufficientFunds")
	require.False(t, ok)
}

func TestRegisterLastWins(t *testing.T) {
	// Arrange
	reg := responses.New(responses.WithLogger(newLogger()))
	for i := 0; i < 3; i++ {
		i := i
		require.Nil(t, reg.Register("greet", func(c *responses.Context, _ ...any) error {
			_, err := fmt.Fprint(c.Response, i)
			return err
		}))
	}

	r := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	w := httptest.NewRecorder()

	// Act
	err := reg.Invoke(w, r, "greet")

	// Assert
	require.Nil(t, err)
	require.Equal(t, "2", w.Body.String())
}

func TestRegisterBuiltIn(t *testing.T) {
	// Arrange
	reg := responses.New(responses.WithLogger(newLogger()))

	// Act
	err := reg.RegisterBuiltIn("gone", responses.StatusHandler(http.StatusGone))

	// Assert
	require.Nil(t, err)
	e, ok := reg.Resolve("gone")
	require.True(t, ok)
	require.True(t, e.BuiltIn)
}

func TestResolveBuiltIns(t *testing.T) {
	reg := responses.New(responses.WithLogger(newLogger()))
	for _, name := range []string{
		responses.OK,
		responses.Created,
		responses.BadRequest,
		responses.Forbidden,
		responses.NotFound,
		responses.TooManyRequests,
		responses.ServerError,
		responses.Negotiate,
	} {
		t.Run(name, func(t *testing.T) {
			e, ok := reg.Resolve(name)
			require.True(t, ok)
			require.True(t, e.BuiltIn)
			require.Equal(t, name, e.Name)
		})
	}

	_, ok := reg.Resolve("insufficientFunds")
	require.False(t, ok)
}

func TestNames(t *testing.T) {
	// Arrange
	reg := responses.New(responses.WithLogger(newLogger()))
	require.Nil(t, reg.Register("insufficientFunds", noop))

	// Act
	names := reg.Names()

	// Assert
	require.Equal(t, []string{
		"badRequest",
		"created",
		"forbidden",
		"insufficientFunds",
		"negotiate",
		"notFound",
		"ok",
		"serverError",
		"tooManyRequests",
	}, names)
}

func TestValidate(t *testing.T) {
	tcs := []struct {
		name  string
		names []string
		err   error
		msg   string
	}{
		{"Baseline", responses.Baseline, nil, ""},
		{"None", nil, nil, ""},
		{"Missing", []string{"ok", "insufficientFunds", "gone"}, responses.ErrMissingResponse, "insufficientFunds, gone"},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			reg := responses.New(responses.WithLogger(newLogger()))

			// Act
			err := reg.Validate(tc.names...)

			// Assert
			require.ErrorIs(t, err, tc.err)
			if tc.msg != "" {
				require.Contains(t, err.Error(), tc.msg)
			}
		})
	}
}

func TestRegisterDelegate(t *testing.T) {
	// Arrange
	reg := responses.New(responses.WithLogger(newLogger()))

	// Act
	err := reg.RegisterDelegate("accountClosed", responses.BadRequest, noop)
	errBase := reg.RegisterDelegate("accountFrozen", "bad-request", noop)

	// Assert
	require.Nil(t, err)
	e, ok := reg.Resolve("accountClosed")
	require.True(t, ok)
	require.Equal(t, responses.BadRequest, e.Base)
	require.False(t, e.BuiltIn)

	require.ErrorIs(t, errBase, responses.ErrInvalidName)
	_, ok = reg.Resolve("accountFrozen")
	require.False(t, ok)
}

func TestValidateBases(t *testing.T) {
	tcs := []struct {
		name  string
		setup func(*testing.T, *responses.Registry)
		err   error
		msg   string
	}{
		{
			"Built-In-Base",
			func(t *testing.T, reg *responses.Registry) {
				require.Nil(t, reg.RegisterDelegate("accountClosed", responses.BadRequest, noop))
			},
			nil,
			"",
		},
		{
			"Chained-Bases",
			func(t *testing.T, reg *responses.Registry) {
				require.Nil(t, reg.RegisterDelegate("accountClosed", responses.BadRequest, noop))
				require.Nil(t, reg.RegisterDelegate("accountFrozen", "accountClosed", noop))
			},
			nil,
			"",
		},
		{
			"Misspelled-Base",
			func(t *testing.T, reg *responses.Registry) {
				require.Nil(t, reg.RegisterDelegate("accountClosed", "badRequst", noop))
			},
			responses.ErrMissingResponse,
			"badRequst (base of accountClosed)",
		},
		{
			"Cycle",
			func(t *testing.T, reg *responses.Registry) {
				require.Nil(t, reg.RegisterDelegate("accountClosed", "accountFrozen", noop))
				require.Nil(t, reg.RegisterDelegate("accountFrozen", "accountClosed", noop))
			},
			responses.ErrCycle,
			"accountClosed -> accountFrozen -> accountClosed",
		},
		{
			"Cycle-Broken-By-Register",
			func(t *testing.T, reg *responses.Registry) {
				require.Nil(t, reg.RegisterDelegate("accountClosed", "accountFrozen", noop))
				require.Nil(t, reg.RegisterDelegate("accountFrozen", "accountClosed", noop))
				require.Nil(t, reg.Register("accountFrozen", responses.StatusHandler(http.StatusLocked)))
			},
			nil,
			"",
		},
		{
			"Base-Of-Built-In-Overridden",
			func(t *testing.T, reg *responses.Registry) {
				require.Nil(t, reg.RegisterDelegate(responses.BadRequest, "accountClosed", noop))
				require.Nil(t, reg.RegisterDelegate("accountClosed", responses.BadRequest, noop))
			},
			responses.ErrCycle,
			"accountClosed -> badRequest -> accountClosed",
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			reg := responses.New(responses.WithLogger(newLogger()))
			tc.setup(t, reg)

			// Act
			err := reg.Validate(responses.Baseline...)

			// Assert
			require.ErrorIs(t, err, tc.err)
			if tc.msg != "" {
				require.Contains(t, err.Error(), tc.msg)
			}
		})
	}
}

func TestInvoke(t *testing.T) {
	errBoom := errors.New("boom")

	tcs := []struct {
		name    string
		resName string
		h       responses.Handler
		assert  func(*testing.T, error)
	}{
		{
			"Unknown",
			"missing",
			nil,
			func(t *testing.T, err error) {
				require.ErrorIs(t, err, responses.ErrUnknownResponse)
				var herr *responses.HandlerError
				require.False(t, errors.As(err, &herr))
			},
		},
		{
			"Handler-Error",
			"fails",
			func(*responses.Context, ...any) error { return errBoom },
			func(t *testing.T, err error) {
				var herr *responses.HandlerError
				require.ErrorAs(t, err, &herr)
				require.Equal(t, "fails", herr.Name)
				require.ErrorIs(t, err, errBoom)
			},
		},
		{
			"Panic",
			"panics",
			func(*responses.Context, ...any) error { panic("oh no") },
			func(t *testing.T, err error) {
				var herr *responses.HandlerError
				require.ErrorAs(t, err, &herr)
				require.Equal(t, "panics", herr.Name)
				require.ErrorIs(t, err, responses.ErrPanic)
				require.Contains(t, err.Error(), "oh no")
			},
		},
		{
			"Delegates-To-Unknown",
			"delegates",
			func(c *responses.Context, args ...any) error { return c.Send("missing", args...) },
			func(t *testing.T, err error) {
				var herr *responses.HandlerError
				require.ErrorAs(t, err, &herr)
				require.Equal(t, "delegates", herr.Name)
				require.ErrorIs(t, err, responses.ErrUnknownResponse)
			},
		},
		{
			"Cycle",
			"loop",
			func(c *responses.Context, args ...any) error { return c.Send("loop", args...) },
			func(t *testing.T, err error) {
				require.ErrorIs(t, err, responses.ErrTooDeep)
			},
		},
		{
			"Nested-Error-Keeps-Innermost-Name",
			"outer",
			func(c *responses.Context, args ...any) error { return c.Send("fails", args...) },
			func(t *testing.T, err error) {
				var herr *responses.HandlerError
				require.ErrorAs(t, err, &herr)
				require.Equal(t, "fails", herr.Name)
			},
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			reg := responses.New(responses.WithLogger(newLogger()))
			require.Nil(t, reg.Register("fails", func(*responses.Context, ...any) error { return errBoom }))
			if tc.h != nil {
				require.Nil(t, reg.Register(tc.resName, tc.h))
			}

			r := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
			w := httptest.NewRecorder()

			// Act
			err := reg.Invoke(w, r, tc.resName)

			// Assert
			tc.assert(t, err)
		})
	}
}

func TestInvokeForwardsArgs(t *testing.T) {
	// Arrange
	var got []any
	reg := responses.New(responses.WithLogger(newLogger()))
	require.Nil(t, reg.Register("capture", func(c *responses.Context, args ...any) error {
		require.Equal(t, "capture", c.Name())
		got = args
		return nil
	}))

	r := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	w := httptest.NewRecorder()

	// Act
	err := reg.Invoke(w, r, "capture", 1, "two", nil, map[string]any{"three": 3})

	// Assert
	require.Nil(t, err)
	require.Equal(t, []any{1, "two", nil, map[string]any{"three": 3}}, got)
}

func TestInvokeConcurrent(t *testing.T) {
	// Arrange
	reg := responses.New(responses.WithLogger(newLogger()))
	require.Nil(t, reg.Register("echo", func(c *responses.Context, _ ...any) error {
		time.Sleep(time.Millisecond)
		return c.Send(responses.OK, c.Request.Header.Get("X-Request-Id"))
	}))
	reg.Seal()

	const n = 50
	recorders := make([]*httptest.ResponseRecorder, n)
	errs := make([]error, n)

	// Act
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
			r.Header.Set("X-Request-Id", fmt.Sprint(i))
			recorders[i] = httptest.NewRecorder()
			errs[i] = reg.Invoke(recorders[i], r, "echo")
		}(i)
	}
	wg.Wait()

	// Assert
	for i := 0; i < n; i++ {
		require.Nil(t, errs[i])

		var body struct{ Data string }
		require.Nil(t, json.Unmarshal(recorders[i].Body.Bytes(), &body))
		require.Equal(t, fmt.Sprint(i), body.Data)
	}
}

func TestInvokeObserver(t *testing.T) {
	type observation struct {
		name string
		code int
	}

	errBoom := errors.New("boom")

	tcs := []struct {
		name     string
		resName  string
		err      error
		expected []observation
	}{
		{"OK", responses.OK, nil, []observation{{responses.OK, http.StatusOK}}},
		{"Not-Found", responses.NotFound, nil, []observation{{responses.NotFound, http.StatusNotFound}}},
		{"Custom", "insufficientFunds", nil, []observation{{"insufficientFunds", http.StatusBadRequest}}},
		{"Nothing-Written", "silent", nil, []observation{{"silent", http.StatusOK}}},
		{"Erroring", "broken", errBoom, nil},
		{"Erroring-After-Writing", "halfway", errBoom, []observation{{"halfway", http.StatusAccepted}}},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			var got []observation
			reg := responses.New(
				responses.WithLogger(newLogger()),
				responses.WithObserver(responses.ObserverFunc(func(name string, code int, elapsed time.Duration) {
					require.GreaterOrEqual(t, elapsed, time.Duration(0))
					got = append(got, observation{name, code})
				})),
			)
			require.Nil(t, reg.Register("insufficientFunds", func(c *responses.Context, args ...any) error {
				return c.Send(responses.BadRequest, args...)
			}))
			require.Nil(t, reg.Register("silent", noop))
			require.Nil(t, reg.Register("broken", func(c *responses.Context, args ...any) error { return errBoom }))
			require.Nil(t, reg.Register("halfway", func(c *responses.Context, args ...any) error {
				c.Response.WriteHeader(http.StatusAccepted)
				return errBoom
			}))

			r := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
			w := httptest.NewRecorder()

			// Act
			err := reg.Invoke(w, r, tc.resName)

			// Assert
			require.ErrorIs(t, err, tc.err)
			require.Equal(t, tc.expected, got)
		})
	}
}

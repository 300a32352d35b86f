package responses_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/trailhead"
	"github.com/xy-planning-network/trailhead/http/responses"
)

var errInsufficientFunds = responses.Public(errors.New("insufficient funds"))

func insufficientFunds(c *responses.Context, args ...any) error {
	var extra map[string]any
	for _, arg := range args {
		if m, ok := arg.(map[string]any); ok {
			extra = m
		}
	}

	return c.Send(responses.BadRequest, errInsufficientFunds, responses.Merge(extra))
}

func TestInsufficientFunds(t *testing.T) {
	for _, env := range []trailhead.Environment{trailhead.Development, trailhead.Production} {
		t.Run(env.String(), func(t *testing.T) {
			// Arrange
			reg := responses.New(responses.WithLogger(newLogger()), responses.WithEnv(env))
			require.Nil(t, reg.Register("insufficientFunds", insufficientFunds))
			reg.Seal()

			r := httptest.NewRequest(http.MethodPost, "http://example.com/withdraw", nil)
			w := httptest.NewRecorder()

			// Act
			err := reg.Bind(w, r).Send("insufficientFunds", errors.New("balance 10 < 20"), map[string]any{"balance": 10, "requested": 20})

			// Assert
			require.Nil(t, err)
			require.Equal(t, http.StatusBadRequest, w.Code)
			require.JSONEq(t, `{"error":{"message":"insufficient funds","balance":10,"requested":20}}`, w.Body.String())
		})
	}
}

func TestOverrideBuiltIn(t *testing.T) {
	// Arrange
	reg := responses.New(responses.WithLogger(newLogger()))
	require.Nil(t, reg.Register(responses.NotFound, func(c *responses.Context, args ...any) error {
		c.Response.WriteHeader(http.StatusGone)
		return nil
	}))

	r := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	w := httptest.NewRecorder()

	// Act
	err := reg.Bind(w, r).NotFound()

	// Assert
	require.Nil(t, err)
	require.Equal(t, http.StatusGone, w.Code)
}

func TestResShortcuts(t *testing.T) {
	tcs := []struct {
		name string
		fn   func(*responses.Res) error
		code int
	}{
		{"OK", func(res *responses.Res) error { return res.OK() }, http.StatusOK},
		{"Created", func(res *responses.Res) error { return res.Created() }, http.StatusCreated},
		{"BadRequest", func(res *responses.Res) error { return res.BadRequest() }, http.StatusBadRequest},
		{"Forbidden", func(res *responses.Res) error { return res.Forbidden() }, http.StatusForbidden},
		{"NotFound", func(res *responses.Res) error { return res.NotFound() }, http.StatusNotFound},
		{"TooManyRequests", func(res *responses.Res) error { return res.TooManyRequests() }, http.StatusTooManyRequests},
		{"ServerError", func(res *responses.Res) error { return res.ServerError() }, http.StatusInternalServerError},
		{"Negotiate", func(res *responses.Res) error { return res.Negotiate(errors.New("boom")) }, http.StatusInternalServerError},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			reg := responses.New(responses.WithLogger(newLogger()))
			r := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
			w := httptest.NewRecorder()
			res := reg.Bind(w, r)

			// Act
			err := tc.fn(res)

			// Assert
			require.Nil(t, err)
			require.True(t, res.Sent())
			require.Equal(t, tc.code, w.Code)
		})
	}
}

func TestResSendTwice(t *testing.T) {
	// Arrange
	l := newLogger()
	reg := responses.New(responses.WithLogger(l))
	r := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	w := httptest.NewRecorder()
	res := reg.Bind(w, r)
	require.Nil(t, res.OK("first"))

	// Act
	err := res.NotFound()

	// Assert
	require.ErrorIs(t, err, responses.ErrAlreadySent)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"data":"first"}`, w.Body.String())
	require.Contains(t, l.String(), "WARN notFound: response already sent")
}

func TestResSendFallback(t *testing.T) {
	errBoom := errors.New("boom")

	tcs := []struct {
		name    string
		resName string
		setup   func(*testing.T, *responses.Registry)
		assert  func(*testing.T, *httptest.ResponseRecorder, error)
	}{
		{
			"Unknown",
			"missing",
			func(*testing.T, *responses.Registry) {},
			func(t *testing.T, w *httptest.ResponseRecorder, err error) {
				require.ErrorIs(t, err, responses.ErrUnknownResponse)
				require.Equal(t, http.StatusInternalServerError, w.Code)
				require.Contains(t, decode(t, w).Error["message"], "unknown response")
			},
		},
		{
			"Handler-Error",
			"fails",
			func(t *testing.T, reg *responses.Registry) {
				require.Nil(t, reg.Register("fails", func(*responses.Context, ...any) error { return errBoom }))
			},
			func(t *testing.T, w *httptest.ResponseRecorder, err error) {
				require.ErrorIs(t, err, errBoom)
				require.Equal(t, http.StatusInternalServerError, w.Code)
				require.Contains(t, decode(t, w).Error["message"], "boom")
			},
		},
		{
			"Panic",
			"panics",
			func(t *testing.T, reg *responses.Registry) {
				require.Nil(t, reg.Register("panics", func(*responses.Context, ...any) error { panic("oh no") }))
			},
			func(t *testing.T, w *httptest.ResponseRecorder, err error) {
				require.ErrorIs(t, err, responses.ErrPanic)
				require.Equal(t, http.StatusInternalServerError, w.Code)
				_, ok := decode(t, w).Error["stack"]
				require.True(t, ok)
			},
		},
		{
			"Wrote-Before-Failing",
			"partial",
			func(t *testing.T, reg *responses.Registry) {
				require.Nil(t, reg.Register("partial", func(c *responses.Context, _ ...any) error {
					c.Response.WriteHeader(http.StatusAccepted)
					return errBoom
				}))
			},
			func(t *testing.T, w *httptest.ResponseRecorder, err error) {
				require.ErrorIs(t, err, errBoom)
				require.Equal(t, http.StatusAccepted, w.Code)
				require.Empty(t, w.Body.String())
			},
		},
		{
			"Server-Error-Fails",
			"fails",
			func(t *testing.T, reg *responses.Registry) {
				require.Nil(t, reg.Register("fails", func(*responses.Context, ...any) error { return errBoom }))
				require.Nil(t, reg.Register(responses.ServerError, func(*responses.Context, ...any) error {
					return errors.New("also broken")
				}))
			},
			func(t *testing.T, w *httptest.ResponseRecorder, err error) {
				require.ErrorIs(t, err, errBoom)
				require.Equal(t, http.StatusInternalServerError, w.Code)
				require.Contains(t, w.Body.String(), "boom")
			},
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			reg := responses.New(responses.WithLogger(newLogger()))
			tc.setup(t, reg)

			r := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
			w := httptest.NewRecorder()

			// Act
			err := reg.Bind(w, r).Send(tc.resName)

			// Assert
			tc.assert(t, w, err)
		})
	}
}

func TestFor(t *testing.T) {
	t.Run("From-Context", func(t *testing.T) {
		// Arrange
		reg := responses.New(responses.WithLogger(newLogger()))
		require.Nil(t, reg.Register("teapot", responses.StatusHandler(http.StatusTeapot)))

		r := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
		r = r.WithContext(responses.NewContext(r.Context(), reg))
		w := httptest.NewRecorder()

		// Act
		err := responses.For(w, r).Send("teapot")

		// Assert
		require.Nil(t, err)
		require.Equal(t, http.StatusTeapot, w.Code)
	})

	t.Run("Default", func(t *testing.T) {
		// Arrange
		r := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
		w := httptest.NewRecorder()

		// Act
		err := responses.For(w, r).NotFound()

		// Assert
		require.Nil(t, err)
		require.Equal(t, http.StatusNotFound, w.Code)
		require.True(t, responses.Default().Sealed())
		require.Same(t, responses.Default(), responses.Default())
	})
}

func TestFromContext(t *testing.T) {
	reg := responses.New(responses.WithLogger(newLogger()))

	tcs := []struct {
		name string
		ctx  context.Context
		ok   bool
	}{
		{"Empty", context.Background(), false},
		{"Wrong-Type", context.WithValue(context.Background(), trailhead.ResponsesKey, "nope"), false},
		{"Nil", context.WithValue(context.Background(), trailhead.ResponsesKey, (*responses.Registry)(nil)), false},
		{"Set", responses.NewContext(context.Background(), reg), true},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			actual, ok := responses.FromContext(tc.ctx)
			require.Equal(t, tc.ok, ok)
			if tc.ok {
				require.Same(t, reg, actual)
			}
		})
	}
}

func TestResSendFallbackObserved(t *testing.T) {
	// Arrange
	var names []string
	var codes []int
	reg := responses.New(
		responses.WithLogger(newLogger()),
		responses.WithObserver(responses.ObserverFunc(func(name string, code int, _ time.Duration) {
			names = append(names, name)
			codes = append(codes, code)
		})),
	)
	require.Nil(t, reg.Register("broken", func(*responses.Context, ...any) error { return errors.New("boom") }))
	reg.Seal()

	r := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	w := httptest.NewRecorder()

	// Act
	err := reg.Bind(w, r).Send("broken")

	// Assert
	require.NotNil(t, err)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, []string{responses.ServerError}, names)
	require.Equal(t, []int{http.StatusInternalServerError}, codes)
}

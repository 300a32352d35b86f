package responsefs_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/trailhead"
	"github.com/xy-planning-network/trailhead/http/responses"
	"github.com/xy-planning-network/trailhead/http/responses/responsefs"
	"github.com/xy-planning-network/trailhead/logger"
)

const (
	insufficientFundsTOML = `
base    = "badRequest"
message = "insufficient funds"

[fields]
docs = "https://example.com/docs"
`

	goneYAML = `
status: 410
view: tmpl/gone.tmpl
headers:
  Cache-Control: no-store
`

	unavailableHCL = `
status  = 503
message = "come back later"
headers = { "Retry-After" = "120" }
fields  = { retry = 120 }
`
)

func TestLoad(t *testing.T) {
	// Arrange
	fsys := fstest.MapFS{
		"api/responses/insufficientFunds.toml": {Data: []byte(insufficientFundsTOML)},
		"api/responses/gone.yaml":              {Data: []byte(goneYAML)},
		"api/responses/unavailable.hcl":        {Data: []byte(unavailableHCL)},
		"api/responses/README.md":              {Data: []byte("# responses")},
		"api/responses/nested/ignored.toml":    {Data: []byte(`status = 418`)},
	}

	// Act
	defs, err := responsefs.Load(fsys, "api/responses")

	// Assert
	require.Nil(t, err)
	require.Equal(t, []responsefs.Definition{
		{
			Name:    "gone",
			Status:  http.StatusGone,
			View:    "tmpl/gone.tmpl",
			Headers: map[string]string{"Cache-Control": "no-store"},
		},
		{
			Name:    "insufficientFunds",
			Base:    responses.BadRequest,
			Message: "insufficient funds",
			Fields:  map[string]any{"docs": "https://example.com/docs"},
		},
		{
			Name:    "unavailable",
			Status:  http.StatusServiceUnavailable,
			Message: "come back later",
			Headers: map[string]string{"Retry-After": "120"},
			Fields:  map[string]any{"retry": "120"},
		},
	}, defs)
}

func TestLoadErrors(t *testing.T) {
	tcs := []struct {
		name string
		fsys fstest.MapFS
		err  error
	}{
		{
			"Duplicate",
			fstest.MapFS{
				"responses/gone.toml": {Data: []byte(`status = 410`)},
				"responses/gone.yml":  {Data: []byte(`status: 410`)},
			},
			responsefs.ErrDuplicate,
		},
		{"Bad-TOML", fstest.MapFS{"responses/gone.toml": {Data: []byte(`status = `)}}, responsefs.ErrDecode},
		{"Unknown-TOML-Key", fstest.MapFS{"responses/gone.toml": {Data: []byte(`code = 410`)}}, responsefs.ErrDecode},
		{"Unknown-YAML-Key", fstest.MapFS{"responses/gone.yaml": {Data: []byte(`code: 410`)}}, responsefs.ErrDecode},
		{"Unknown-HCL-Key", fstest.MapFS{"responses/gone.hcl": {Data: []byte(`code = 410`)}}, responsefs.ErrDecode},
		{"Empty", fstest.MapFS{"responses/gone.yaml": {Data: []byte(``)}}, responsefs.ErrInvalid},
		{"Bad-Name", fstest.MapFS{"responses/not-found.toml": {Data: []byte(`status = 404`)}}, responsefs.ErrInvalid},
		{"Bad-Status", fstest.MapFS{"responses/gone.toml": {Data: []byte(`status = 999`)}}, responsefs.ErrInvalid},
		{"Own-Base", fstest.MapFS{"responses/gone.toml": {Data: []byte(`base = "gone"`)}}, responsefs.ErrInvalid},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			defs, err := responsefs.Load(tc.fsys, "responses")

			// Assert
			require.ErrorIs(t, err, tc.err)
			require.Nil(t, defs)
		})
	}
}

func TestLoadMissingDir(t *testing.T) {
	// Act
	defs, err := responsefs.Load(fstest.MapFS{}, "api/responses")

	// Assert
	require.Nil(t, err)
	require.Empty(t, defs)
}

func TestDefinitionValidate(t *testing.T) {
	tcs := []struct {
		name string
		def  responsefs.Definition
		err  error
	}{
		{"Base", responsefs.Definition{Name: "x", Base: responses.BadRequest}, nil},
		{"Status", responsefs.Definition{Name: "x", Status: http.StatusGone}, nil},
		{"Both", responsefs.Definition{Name: "x", Base: "y", Status: http.StatusGone}, nil},
		{"Neither", responsefs.Definition{Name: "x"}, responsefs.ErrInvalid},
		{"No-Name", responsefs.Definition{Status: http.StatusGone}, responsefs.ErrInvalid},
		{"Low-Status", responsefs.Definition{Name: "x", Status: 99}, responsefs.ErrInvalid},
		{"Bad-Base", responsefs.Definition{Name: "x", Base: "bad request"}, responsefs.ErrInvalid},
		{"Redirect-Without-Location", responsefs.Definition{Name: "x", Status: http.StatusFound}, responsefs.ErrInvalid},
		{"Redirect", responsefs.Definition{Name: "x", Status: http.StatusFound, Headers: map[string]string{"Location": "/login"}}, nil},
		{"Redirect-Lowercase-Location", responsefs.Definition{Name: "x", Status: http.StatusSeeOther, Headers: map[string]string{"location": "/login"}}, nil},
		{"Not-Modified", responsefs.Definition{Name: "x", Status: http.StatusNotModified}, responsefs.ErrInvalid},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			require.ErrorIs(t, tc.def.Validate(), tc.err)
		})
	}
}

func TestLoadAndRegister(t *testing.T) {
	tcs := []struct {
		name     string
		resName  string
		env      trailhead.Environment
		args     []any
		code     int
		expected string
		header   string
	}{
		{
			"Base",
			"insufficientFunds",
			trailhead.Production,
			[]any{responses.Merge(map[string]any{"balance": 10})},
			http.StatusBadRequest,
			`{"error":{"message":"insufficient funds","docs":"https://example.com/docs","balance":10}}`,
			"",
		},
		{
			"Base-Error-Wins",
			"insufficientFunds",
			trailhead.Development,
			[]any{errors.New("balance too low")},
			http.StatusBadRequest,
			`{"error":{"message":"balance too low","docs":"https://example.com/docs"}}`,
			"",
		},
		{
			"Status",
			"gone",
			trailhead.Production,
			nil,
			http.StatusGone,
			`{}`,
			"no-store",
		},
		{
			"Caller-Status-Wins",
			"gone",
			trailhead.Production,
			[]any{responses.Status(http.StatusNotFound)},
			http.StatusNotFound,
			`{}`,
			"no-store",
		},
		{
			"Server-Error-Hidden",
			"unavailable",
			trailhead.Production,
			[]any{errors.New("db down")},
			http.StatusServiceUnavailable,
			`{"error":{"message":"come back later","retry":"120"}}`,
			"",
		},
	}

	fsys := fstest.MapFS{
		"api/responses/insufficientFunds.toml": {Data: []byte(insufficientFundsTOML)},
		"api/responses/gone.yaml":              {Data: []byte(goneYAML)},
		"api/responses/unavailable.hcl":        {Data: []byte(unavailableHCL)},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			reg := responses.New(responses.WithLogger(logger.NewTrailheadLogger(logger.WithLevel(logger.LogLevelFatal))), responses.WithEnv(tc.env))
			defs, err := responsefs.LoadAndRegister(reg, fsys, "api/responses")
			require.Nil(t, err)
			require.Len(t, defs, 3)
			require.Nil(t, reg.Validate("gone", "insufficientFunds", "unavailable"))

			r := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
			w := httptest.NewRecorder()

			// Act
			err = reg.Invoke(w, r, tc.resName, tc.args...)

			// Assert
			require.Nil(t, err)
			require.Equal(t, tc.code, w.Code)
			require.JSONEq(t, tc.expected, w.Body.String())
			if tc.header != "" {
				require.Equal(t, tc.header, w.Header().Get("Cache-Control"))
			}
		})
	}
}

func TestDefinitionTarget(t *testing.T) {
	tcs := []struct {
		name     string
		def      responsefs.Definition
		expected string
	}{
		{"Base", responsefs.Definition{Name: "x", Base: "accountClosed"}, "accountClosed"},
		{"Status", responsefs.Definition{Name: "x", Status: http.StatusConflict}, responses.BadRequest},
		{"Server-Status", responsefs.Definition{Name: "x", Status: http.StatusBadGateway}, responses.ServerError},
		{"Base-Over-Status", responsefs.Definition{Name: "x", Base: "accountClosed", Status: http.StatusConflict}, "accountClosed"},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, tc.def.Target())
		})
	}
}

func TestLoadAndRegisterBases(t *testing.T) {
	tcs := []struct {
		name   string
		fsys   fstest.MapFS
		err    error
		errMsg string
	}{
		{
			"Declared-Base",
			fstest.MapFS{
				"api/responses/accountClosed.toml": {Data: []byte(`base = "accountFrozen"`)},
				"api/responses/accountFrozen.toml": {Data: []byte(`status = 403`)},
			},
			nil,
			"",
		},
		{
			"Misspelled-Base",
			fstest.MapFS{"api/responses/accountClosed.toml": {Data: []byte(`base = "badRequst"`)}},
			responses.ErrMissingResponse,
			"badRequst (base of accountClosed)",
		},
		{
			"Cycle",
			fstest.MapFS{
				"api/responses/accountClosed.toml": {Data: []byte(`base = "accountFrozen"`)},
				"api/responses/accountFrozen.toml": {Data: []byte(`base = "accountClosed"`)},
			},
			responses.ErrCycle,
			"accountClosed -> accountFrozen -> accountClosed",
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			reg := responses.New(responses.WithLogger(logger.NewTrailheadLogger(logger.WithLevel(logger.LogLevelFatal))))
			_, err := responsefs.LoadAndRegister(reg, tc.fsys, "api/responses")
			require.Nil(t, err)

			// Act
			err = reg.Validate()

			// Assert
			require.ErrorIs(t, err, tc.err)
			if tc.errMsg != "" {
				require.ErrorContains(t, err, tc.errMsg)
			}
		})
	}
}

func TestRegisterSealed(t *testing.T) {
	// Arrange
	reg := responses.New(responses.WithLogger(logger.NewTrailheadLogger(logger.WithLevel(logger.LogLevelFatal))))
	reg.Seal()

	// Act
	err := responsefs.Register(reg, []responsefs.Definition{{Name: "gone", Status: http.StatusGone}})

	// Assert
	require.ErrorIs(t, err, responses.ErrSealed)
}

func TestDefinitionHandlerJSON(t *testing.T) {
	// Arrange
	def := responsefs.Definition{Name: "teapot", Status: http.StatusTeapot, Message: "short and stout"}
	reg := responses.New(responses.WithLogger(logger.NewTrailheadLogger(logger.WithLevel(logger.LogLevelFatal))))
	require.Nil(t, reg.Register(def.Name, def.Handler()))

	r := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	w := httptest.NewRecorder()

	// Act
	err := reg.Invoke(w, r, def.Name)

	// Assert
	require.Nil(t, err)
	require.Equal(t, http.StatusTeapot, w.Code)

	var body map[string]map[string]any
	require.Nil(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "short and stout", body["error"]["message"])
}

package responsefs

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/hashicorp/hcl/v2/hclsimple"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/xy-planning-network/trailhead/http/responses"
	"gopkg.in/yaml.v3"
)

var (
	ErrDecode    = errors.New("cannot decode")
	ErrDuplicate = errors.New("duplicate response")
	ErrInvalid   = errors.New("invalid definition")
)

// A Definition declares a response in terms of another.
type Definition struct {
	// Name of the response, from the file name
	Name string `toml:"-" yaml:"-"`

	// Response delegated to; when empty, the built-in response matching Status
	Base string `toml:"base" yaml:"base"`

	Status  int               `toml:"status" yaml:"status"`
	View    string            `toml:"view" yaml:"view"`
	Message string            `toml:"message" yaml:"message"`
	Headers map[string]string `toml:"headers" yaml:"headers"`

	// Merged into the error body
	Fields map[string]any `toml:"fields" yaml:"fields"`
}

// hclDefinition mirrors Definition for gohcl, which cannot decode into map[string]any.
type hclDefinition struct {
	Base    string            `hcl:"base,optional"`
	Status  int               `hcl:"status,optional"`
	View    string            `hcl:"view,optional"`
	Message string            `hcl:"message,optional"`
	Headers map[string]string `hcl:"headers,optional"`
	Fields  map[string]string `hcl:"fields,optional"`
}

type decoder func(filename string, src []byte) (Definition, error)

var decoders = map[string]decoder{
	".hcl":  decodeHCL,
	".toml": decodeTOML,
	".yaml": decodeYAML,
	".yml":  decodeYAML,
}

// Validate asserts d can become a response.
func (d Definition) Validate() error {
	if !responses.ValidName(d.Name) {
		return fmt.Errorf("%w: name %q", ErrInvalid, d.Name)
	}

	if d.Base == "" && d.Status == 0 {
		return fmt.Errorf("%w: %s sets neither base nor status", ErrInvalid, d.Name)
	}

	if d.Status != 0 && (d.Status < http.StatusContinue || d.Status > 599) {
		return fmt.Errorf("%w: %s has status %d", ErrInvalid, d.Name, d.Status)
	}

	if d.Base != "" && !responses.ValidName(d.Base) {
		return fmt.Errorf("%w: %s has base %q", ErrInvalid, d.Name, d.Base)
	}

	if d.Base == d.Name {
		return fmt.Errorf("%w: %s is its own base", ErrInvalid, d.Name)
	}

	if d.Status >= http.StatusMultipleChoices && d.Status < http.StatusBadRequest && !d.hasHeader("Location") {
		return fmt.Errorf("%w: %s redirects with status %d but sets no Location header", ErrInvalid, d.Name, d.Status)
	}

	return nil
}

func (d Definition) hasHeader(key string) bool {
	for k := range d.Headers {
		if http.CanonicalHeaderKey(k) == http.CanonicalHeaderKey(key) {
			return true
		}
	}

	return false
}

// Target names the response d sends: its Base,
// or else the built-in response for its Status.
func (d Definition) Target() string {
	if d.Base != "" {
		return d.Base
	}

	return responses.NameForStatus(d.Status)
}

// Handler constructs the responses.Handler d declares.
func (d Definition) Handler() responses.Handler {
	var defaults []any
	if d.Status != 0 {
		defaults = append(defaults, responses.Status(d.Status))
	}

	if d.View != "" {
		defaults = append(defaults, responses.View(d.View))
	}

	if d.Message != "" {
		defaults = append(defaults, responses.Message(d.Message))
	}

	for k, v := range d.Headers {
		defaults = append(defaults, responses.Header(k, v))
	}

	if len(d.Fields) > 0 {
		defaults = append(defaults, responses.Merge(d.Fields))
	}

	base := d.Target()
	return func(c *responses.Context, args ...any) error {
		all := make([]any, 0, len(defaults)+len(args))
		all = append(all, defaults...)
		return c.Send(base, append(all, args...)...)
	}
}

// Load reads a Definition from every file in dir with a known extension,
// sorted by file name.
//
// A missing dir holds no definitions.
func Load(fsys fs.FS, dir string) ([]Definition, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", dir, err)
	}

	var defs []Definition
	seen := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		ext := path.Ext(e.Name())
		decode, ok := decoders[ext]
		if !ok {
			continue
		}

		fp := path.Join(dir, e.Name())
		name := strings.TrimSuffix(e.Name(), ext)
		if prev, ok := seen[name]; ok {
			return nil, fmt.Errorf("%w: %s declared by %s and %s", ErrDuplicate, name, prev, fp)
		}
		seen[name] = fp

		src, err := fs.ReadFile(fsys, fp)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", fp, err)
		}

		def, err := decode(fp, src)
		if err != nil {
			return nil, fmt.Errorf("%w %s: %s", ErrDecode, fp, err)
		}

		def.Name = name
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", fp, err)
		}

		defs = append(defs, def)
	}

	return defs, nil
}

// Register registers every one of defs with reg.
//
// Bases may name responses registered later;
// call reg.Validate once registration ends to assert they resolve.
func Register(reg *responses.Registry, defs []Definition) error {
	for _, def := range defs {
		if err := def.Validate(); err != nil {
			return err
		}

		if err := reg.RegisterDelegate(def.Name, def.Target(), def.Handler()); err != nil {
			return err
		}
	}

	return nil
}

// LoadAndRegister calls Load then Register, returning what it registered.
func LoadAndRegister(reg *responses.Registry, fsys fs.FS, dir string) ([]Definition, error) {
	defs, err := Load(fsys, dir)
	if err != nil {
		return nil, err
	}

	if err := Register(reg, defs); err != nil {
		return nil, err
	}

	return defs, nil
}

func decodeHCL(filename string, src []byte) (Definition, error) {
	var hd hclDefinition
	if err := hclsimple.Decode(filename, src, nil, &hd); err != nil {
		return Definition{}, err
	}

	def := Definition{
		Base:    hd.Base,
		Status:  hd.Status,
		View:    hd.View,
		Message: hd.Message,
		Headers: hd.Headers,
	}

	if len(hd.Fields) > 0 {
		def.Fields = make(map[string]any, len(hd.Fields))
		for k, v := range hd.Fields {
			def.Fields[k] = v
		}
	}

	return def, nil
}

func decodeTOML(_ string, src []byte) (Definition, error) {
	var def Definition
	dec := toml.NewDecoder(bytes.NewReader(src))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&def); err != nil {
		return Definition{}, err
	}

	return def, nil
}

func decodeYAML(_ string, src []byte) (Definition, error) {
	var def Definition
	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil && !errors.Is(err, io.EOF) {
		return Definition{}, err
	}

	return def, nil
}

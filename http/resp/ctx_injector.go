package resp

import (
	"context"

	"github.com/xy-planning-network/trailhead"
)

// ContextInjector is the interface for describing how values from context.Context can be
// merged with existing keys in a map[string]any.
type ContextInjector interface {
	Inject(props map[string]any, ctx context.Context)
}

// A DefaultInjector maps the property names to set to the context keys holding their values.
//
// DefaultInjector implements ContextInjector
type DefaultInjector struct {
	Keys map[string]trailhead.Key
}

// Inject merges into props the key-value pairs pulled from ctx using i.Keys
// if the value for a certain key is not nil.
// Inject never overwrites a property already set.
func (i DefaultInjector) Inject(props map[string]any, ctx context.Context) {
	if props == nil || ctx == nil || i.Keys == nil {
		return
	}

	for prop, k := range i.Keys {
		if _, ok := props[prop]; ok {
			continue
		}

		if val := ctx.Value(k); val != nil {
			props[prop] = val
		}
	}
}

// A NoopInjector implements ContextInjector and performs no operation.
type NoopInjector struct{}

func (NoopInjector) Inject(_ map[string]any, _ context.Context) {}

// Package color resolves user color specifications into RGBA values.
package color

import (
	"fmt"

	"github.com/justapithecus/monochrome/message"
)

// Black is the color used when a name cannot be resolved.
var Black = message.Color{0, 0, 0, 1}

// Resolution is the outcome of resolving a color name. Warning is set when
// the color is a substitute for the requested one.
type Resolution struct {
	Color   message.Color
	Warning string
}

// Resolver turns a color name into RGBA.
type Resolver interface {
	Resolve(name string) (Resolution, error)
}

// Fallback resolves every name to Black with a warning. It is the default
// when no richer resolver is configured.
type Fallback struct{}

func (Fallback) Resolve(name string) (Resolution, error) {
	return Resolution{
		Color:   Black,
		Warning: fmt.Sprintf("no color resolver configured, using black for %q", name),
	}, nil
}

// UnknownColorError reports a name the resolver does not know.
type UnknownColorError struct {
	Name string
}

func (e *UnknownColorError) Error() string {
	return fmt.Sprintf("unknown color %q", e.Name)
}

// Value is a color given either by name or as explicit RGBA components.
// The zero Value means no color.
type Value struct {
	Name string
	RGBA *message.Color
}

// Named returns a Value resolved by name at send time.
func Named(name string) Value { return Value{Name: name} }

// RGBA returns a Value with explicit components in [0, 1].
func RGBA(r, g, b, a float32) Value {
	return Value{RGBA: &message.Color{r, g, b, a}}
}

// IsZero reports whether no color was given.
func (v Value) IsZero() bool { return v.Name == "" && v.RGBA == nil }

// Resolve returns the RGBA for v, or nil when v is zero. Explicit
// components are used as-is; names go through r, or Fallback when r is nil.
func Resolve(r Resolver, v Value) (*message.Color, string, error) {
	if v.RGBA != nil {
		c := *v.RGBA
		return &c, "", nil
	}
	if v.Name == "" {
		return nil, "", nil
	}
	if r == nil {
		r = Fallback{}
	}
	res, err := r.Resolve(v.Name)
	if err != nil {
		return nil, "", err
	}
	return &res.Color, res.Warning, nil
}

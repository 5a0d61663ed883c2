package httpbind

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrSkipSlot is returned by an Expander to signal that a nil (or
// zero-equivalent, implementer's choice) argument should drop its
// placeholder slot entirely rather than substitute an empty string.
var ErrSkipSlot = errors.New("httpbind: argument is nil, slot dropped")

// Expander converts a single bound argument value into its string form for
// placeholder substitution. The default Expander is identity-Sprint;
// Contract.Parse installs it for any Param that does not name a custom one.
type Expander interface {
	Expand(value any) (string, error)
}

// ExpanderFunc adapts a function to an Expander.
type ExpanderFunc func(value any) (string, error)

func (f ExpanderFunc) Expand(value any) (string, error) { return f(value) }

// identityExpander is the default Expander: fmt.Sprint on the underlying
// value, with nil (including nil pointers/interfaces/slices/maps) dropping
// the slot via ErrSkipSlot.
type identityExpander struct{}

func (identityExpander) Expand(value any) (string, error) {
	if value == nil {
		return "", ErrSkipSlot
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		if rv.IsNil() {
			return "", ErrSkipSlot
		}
	}
	return fmt.Sprint(value), nil
}

// DefaultExpander is the identity-Sprint Expander used when a Param does
// not specify a custom one.
var DefaultExpander Expander = identityExpander{}

// expandElements expands value into one or more strings, splitting slices
// and arrays into their elements (each expanded independently) so the
// caller can apply CollectionFormat joining. Scalars expand to a
// single-element slice. ErrSkipSlot from the element expander propagates.
func expandElements(exp Expander, value any) ([]string, error) {
	if value == nil {
		return nil, ErrSkipSlot
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, ErrSkipSlot
		}
		rv = rv.Elem()
		value = rv.Interface()
	}
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil, ErrSkipSlot
		}
		out := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			s, err := exp.Expand(rv.Index(i).Interface())
			if err != nil {
				if errors.Is(err, ErrSkipSlot) {
					continue
				}
				return nil, err
			}
			out = append(out, s)
		}
		if len(out) == 0 {
			return nil, ErrSkipSlot
		}
		return out, nil
	}
	s, err := exp.Expand(value)
	if err != nil {
		return nil, err
	}
	return []string{s}, nil
}

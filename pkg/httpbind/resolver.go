package httpbind

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	uritemplate "github.com/yosida95/uritemplate/v3"
)

// RequestTemplateFactoryResolver binds a method invocation's arguments onto
// a clone of its MethodMetadata's skeleton RequestTemplate, producing a
// frozen Request. It is the one piece of the pipeline that touches
// reflection on argument values (never on the user's interface type, which
// Contract already consumed at build time).
type RequestTemplateFactoryResolver struct {
	Encoder Encoder
}

// NewRequestTemplateFactoryResolver returns a resolver using enc to encode
// body parameters.
func NewRequestTemplateFactoryResolver(enc Encoder) *RequestTemplateFactoryResolver {
	return &RequestTemplateFactoryResolver{Encoder: enc}
}

// Resolve clones md's skeleton template, binds args onto it, and returns the
// bound-but-not-yet-frozen RequestTemplate, the uritemplate.Values and base
// URL Freeze needs, and the *CallOptions in effect for this call (the
// Target's defaults, unless an args[md.OptionsIndex] override was bound).
// The caller must run any RequestInterceptors against the returned template
// and only then call Freeze - Resolve itself never freezes, so that an
// interceptor can still add a query parameter, set a header, or rewrite the
// method before the Request snapshot is taken.
func (r *RequestTemplateFactoryResolver) Resolve(target *Target, md *MethodMetadata, args []any) (*RequestTemplate, uritemplate.Values, string, *CallOptions, error) {
	tmpl := md.Template.Clone()
	tmpl.Target = target
	tmpl.Metadata = md

	values := uritemplate.Values{}
	base := target.BaseURL()
	opts := target.Options().Clone()

	formNames := make(map[string]bool, len(md.FormParams))
	for _, n := range md.FormParams {
		formNames[n] = true
	}
	formValues := map[string][]string{}

	for idx, name := range md.IndexToName {
		if idx >= len(args) {
			return nil, nil, "", nil, &BindingError{ConfigKey: md.ConfigKey, Reason: fmt.Sprintf("argument index %d out of range", idx)}
		}
		exp := md.IndexToExpander[idx]
		format := md.IndexToFormat[idx]
		elems, err := expandElements(exp, args[idx])
		if err != nil {
			if errors.Is(err, ErrSkipSlot) {
				continue
			}
			return nil, nil, "", nil, &BindingError{ConfigKey: md.ConfigKey, Reason: fmt.Sprintf("expanding argument %d (%q)", idx, name), Cause: err}
		}
		if md.IndexToKind[idx] == ParamHeader {
			// A header binding sets a literal header on the template
			// directly; it never goes through the URI-template Values
			// that only a placeholder substitution consumes.
			if err := tmpl.SetHeader(name, strings.Join(elems, format.separator())); err != nil {
				return nil, nil, "", nil, &BindingError{ConfigKey: md.ConfigKey, Reason: fmt.Sprintf("setting header %q", name), Cause: err}
			}
			continue
		}
		if formNames[name] {
			formValues[name] = elems
			continue
		}
		if format == Multi && len(elems) > 1 {
			values.Set(name, uritemplate.List(elems...))
		} else {
			values.Set(name, uritemplate.String(strings.Join(elems, format.separator())))
		}
	}

	if md.HeaderMapIndex != -1 {
		if err := mergeMapArg(args, md.HeaderMapIndex, func(k, v string) { tmpl.Headers.Add(k, v) }); err != nil {
			return nil, nil, "", nil, &BindingError{ConfigKey: md.ConfigKey, Reason: "binding header map", Cause: err}
		}
	}
	if md.QueryMapIndex != -1 {
		if err := mergeMapArg(args, md.QueryMapIndex, tmpl.AddQuery); err != nil {
			return nil, nil, "", nil, &BindingError{ConfigKey: md.ConfigKey, Reason: "binding query map", Cause: err}
		}
	}
	if md.URLIndex != -1 {
		if override, skip := argAt(args, md.URLIndex); !skip {
			switch v := override.(type) {
			case string:
				base = strings.TrimSuffix(v, "/")
			case fmt.Stringer:
				base = strings.TrimSuffix(v.String(), "/")
			default:
				return nil, nil, "", nil, &BindingError{ConfigKey: md.ConfigKey, Reason: "URL-override argument is neither a string nor a fmt.Stringer"}
			}
		}
	}
	if md.OptionsIndex != -1 {
		if override, skip := argAt(args, md.OptionsIndex); !skip {
			co, ok := override.(*CallOptions)
			if !ok {
				return nil, nil, "", nil, &BindingError{ConfigKey: md.ConfigKey, Reason: "CallOptions-override argument is not *CallOptions"}
			}
			if co != nil {
				opts = co.Clone()
			}
		}
	}

	switch {
	case md.BodyIndex != -1 || md.AlwaysEncodeBody:
		var bodyVal any
		var bodyType reflect.Type
		if md.BodyIndex != -1 {
			var skip bool
			bodyVal, skip = argAt(args, md.BodyIndex)
			if skip {
				bodyVal = nil
			}
			if md.BodyIndex < len(args) {
				bodyType = reflect.TypeOf(args[md.BodyIndex])
			}
		} else {
			bodyVal = args
			bodyType = reflect.TypeOf(args)
		}
		if r.Encoder == nil {
			return nil, nil, "", nil, &ConfigurationError{ConfigKey: md.ConfigKey, Reason: "method requires a body encoder but none is configured"}
		}
		if err := r.Encoder.Encode(bodyVal, bodyType, tmpl); err != nil {
			return nil, nil, "", nil, &EncodeError{ConfigKey: md.ConfigKey, Cause: err}
		}
	case len(md.FormParams) > 0:
		if r.Encoder == nil {
			return nil, nil, "", nil, &ConfigurationError{ConfigKey: md.ConfigKey, Reason: "method requires a body encoder but none is configured"}
		}
		if err := r.Encoder.Encode(formValues, reflect.TypeOf(formValues), tmpl); err != nil {
			return nil, nil, "", nil, &EncodeError{ConfigKey: md.ConfigKey, Cause: err}
		}
	}

	return tmpl, values, base, opts, nil
}

// argAt returns args[idx] and whether it is a skippable nil value.
func argAt(args []any, idx int) (value any, isNil bool) {
	if idx >= len(args) {
		return nil, true
	}
	v := args[idx]
	if v == nil {
		return nil, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		if rv.IsNil() {
			return nil, true
		}
	}
	return v, false
}

// mergeMapArg iterates a map[string]string or map[string][]string argument
// at args[idx] and calls set(key, value) for every entry (every element, in
// the multi-valued case).
func mergeMapArg(args []any, idx int, set func(key, value string)) error {
	val, skip := argAt(args, idx)
	if skip {
		return nil
	}
	rv := reflect.ValueOf(val)
	if rv.Kind() != reflect.Map {
		return fmt.Errorf("expected a map argument, got %T", val)
	}
	iter := rv.MapRange()
	for iter.Next() {
		key := fmt.Sprint(iter.Key().Interface())
		ev := iter.Value()
		switch ev.Kind() {
		case reflect.Slice, reflect.Array:
			for i := 0; i < ev.Len(); i++ {
				set(key, fmt.Sprint(ev.Index(i).Interface()))
			}
		default:
			set(key, fmt.Sprint(ev.Interface()))
		}
	}
	return nil
}

package httpbind

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

// This file provides pure string-grammar parsing helpers for struct-tag or
// YAML front-ends that want to build ContractDescriptor/MethodDescriptor/
// ParamDescriptor values from a compact textual notation, rather than
// constructing them by hand. Contract.Parse itself never calls these - it
// consumes descriptors directly, by design: Go has no
// method-level annotations to reflect over, so the descriptor values
// themselves are the contract, and a textual grammar is one optional way to
// produce them.

// requestLinePattern is the default dialect's RequestLine grammar: an
// upper-case verb, optional spaces, then the URI template.
var requestLinePattern = regexp.MustCompile(`^([A-Z]+)[ ]*(.*)$`)

// ParseRequestLine parses a "METHOD /path/{id}" line into its HTTP verb and
// URI template skeleton, as used by a `httpbind:"GET /users/{id}"` struct
// tag. The line must match requestLinePattern, so a lower-case verb is
// rejected; the path is returned with surrounding spaces trimmed and its
// placeholders intact for SetURI.
func ParseRequestLine(line string) (verb, path string, err error) {
	line = strings.TrimSpace(line)
	m := requestLinePattern.FindStringSubmatch(line)
	if m == nil || strings.TrimSpace(m[2]) == "" {
		return "", "", fmt.Errorf("httpbind: invalid request line %q, want \"METHOD /path\"", line)
	}
	return m[1], strings.TrimSpace(m[2]), nil
}

// ParseHeaderLine parses a "Name: value" line into its components, as used
// by a `httpbind:"Accept: application/json"` struct tag. Leading and
// trailing whitespace around both name and value is trimmed.
func ParseHeaderLine(line string) (name, value string, err error) {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return "", "", fmt.Errorf("httpbind: invalid header line %q, want \"Name: value\"", line)
	}
	name = strings.TrimSpace(line[:idx])
	value = strings.TrimSpace(line[idx+1:])
	if name == "" {
		return "", "", fmt.Errorf("httpbind: invalid header line %q: empty name", line)
	}
	return name, value, nil
}

// ParamTag is the parsed form of a per-parameter struct tag, e.g.
// `httpbind:"param=id"`, `httpbind:"query=active,format=csv"`,
// `httpbind:"header=X-Request-Id"`, `httpbind:"body"`, `httpbind:"url"`,
// `httpbind:"headers"` (header map), `httpbind:"queries"` (query map).
type ParamTag struct {
	Kind   string // "param", "query", "header", "body", "url", "headers", "queries", "-"
	Name   string // placeholder/header/query key, when applicable
	Format string // collection format name: csv, ssv, tsv, pipes, multi
}

// ParseParamTag parses one comma-separated parameter tag body into a
// ParamTag. "-" means the parameter is explicitly excluded from binding
// (beyond the automatic context.Context/*CallOptions exclusions).
func ParseParamTag(tag string) (ParamTag, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" || tag == "-" {
		return ParamTag{Kind: "-"}, nil
	}
	var pt ParamTag
	for _, field := range strings.Split(tag, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		key, value, hasValue := strings.Cut(field, "=")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		switch key {
		case "param", "query", "header":
			pt.Kind = key
			if hasValue {
				pt.Name = value
			}
		case "body", "url", "headers", "queries":
			pt.Kind = key
		case "format":
			pt.Format = strings.ToLower(value)
		default:
			return ParamTag{}, fmt.Errorf("httpbind: unrecognized param tag field %q in %q", key, tag)
		}
	}
	if pt.Kind == "" {
		return ParamTag{}, fmt.Errorf("httpbind: param tag %q names no binding kind", tag)
	}
	return pt, nil
}

// CollectionFormatByName maps the textual collection format names accepted
// by ParamTag.Format (and the YAML dialect) to their CollectionFormat
// constant. An unrecognized or empty name returns CSV, the default.
func CollectionFormatByName(name string) CollectionFormat {
	switch strings.ToLower(name) {
	case "ssv":
		return SSV
	case "tsv":
		return TSV
	case "pipes":
		return PIPES
	case "multi":
		return Multi
	default:
		return CSV
	}
}

// RequestLineTag marks the struct field that carries a method's "METHOD
// /path" line in the struct-tag dialect (see ParseStructDescriptor). Its
// value is never read, only its type and its httpbind tag - declare it as
// a blank field: `_ httpbind.RequestLineTag `httpbind:"GET /users/{id}"``.
type RequestLineTag struct{}

// HeaderTag marks a struct field that carries one "Name: value" header
// line in the struct-tag dialect. A struct may declare any number of
// blank HeaderTag fields.
type HeaderTag struct{}

var (
	requestLineTagType = reflect.TypeOf(RequestLineTag{})
	headerTagType       = reflect.TypeOf(HeaderTag{})
)

// ParseStructDescriptor builds a MethodDescriptor from t's field tags,
// the struct-tag front-end for the default dialect (SPEC_FULL.md ~4.1.1):
// a RequestLineTag field's tag supplies the HTTP verb and URI template
// (ParseRequestLine); zero or more HeaderTag fields each supply one header
// line (ParseHeaderLine); every other tagged field supplies one
// ParamDescriptor (ParseParamTag), indexed by its position among those
// remaining fields. That positional index is the same convention
// Contract.bindParam expects of a hand-built descriptor, so a struct's
// field order must mirror the bound interface method's argument order for
// the two to line up. A field with no httpbind tag at all is ignored - it
// plays no role in the binding and can carry any other struct tag a caller
// needs (json, yaml, etc).
func ParseStructDescriptor(t reflect.Type) (MethodDescriptor, error) {
	if t.Kind() != reflect.Struct {
		return MethodDescriptor{}, fmt.Errorf("httpbind: %s is not a struct type", t)
	}
	var md MethodDescriptor
	sawRequestLine := false
	paramIndex := 0
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag, ok := f.Tag.Lookup("httpbind")
		if !ok {
			continue
		}
		switch f.Type {
		case requestLineTagType:
			verb, path, err := ParseRequestLine(tag)
			if err != nil {
				return MethodDescriptor{}, err
			}
			md.HTTPVerb, md.Path = verb, path
			sawRequestLine = true
		case headerTagType:
			name, value, err := ParseHeaderLine(tag)
			if err != nil {
				return MethodDescriptor{}, err
			}
			if md.Headers == nil {
				md.Headers = make(map[string][]string)
			}
			md.Headers[name] = append(md.Headers[name], value)
		default:
			pt, err := ParseParamTag(tag)
			if err != nil {
				return MethodDescriptor{}, err
			}
			if pt.Kind != "-" {
				md.Params = append(md.Params, paramDescriptorFromTag(paramIndex, pt))
			}
			paramIndex++
		}
	}
	if !sawRequestLine {
		return MethodDescriptor{}, fmt.Errorf("httpbind: %s declares no RequestLineTag field", t)
	}
	return md, nil
}

func paramDescriptorFromTag(index int, pt ParamTag) ParamDescriptor {
	format := CollectionFormatByName(pt.Format)
	switch pt.Kind {
	case "header":
		return ParamDescriptor{Index: index, Kind: ParamHeader, Name: pt.Name, Format: format}
	case "body":
		return ParamDescriptor{Index: index, Kind: ParamBody}
	case "url":
		return ParamDescriptor{Index: index, Kind: ParamURL}
	case "headers":
		return ParamDescriptor{Index: index, Kind: ParamHeaderMap}
	case "queries":
		return ParamDescriptor{Index: index, Kind: ParamQueryMap}
	default: // "param" or "query" - the template skeleton doesn't distinguish them
		return ParamDescriptor{Index: index, Kind: ParamPath, Name: pt.Name, Format: format}
	}
}

// Package yamlcontract is an alternative Contract front-end: it parses a
// YAML document into the same []*httpbind.MethodMetadata the struct-tag
// dialect produces, so both front-ends feed the same Contract validation
// and the same downstream binding pipeline. It exists for local
// development against a descriptor file with no recompile, with Watch
// reloading the file on change.
package yamlcontract

import (
	"fmt"
	"os"
	"reflect"

	"gopkg.in/yaml.v3"

	"github.com/tombee/declarative-http/pkg/httpbind"
)

// Document is the top-level YAML shape:
//
//	name: UserService
//	headers:
//	  - "Accept: application/json"
//	methods:
//	  - config_key: "UserService#Get(string)"
//	    request_line: "GET /users/{id}"
//	    params:
//	      - {index: 0, name: id}
//	    return_type: User
type Document struct {
	Name    string   `yaml:"name"`
	Headers []string `yaml:"headers"`
	Methods []Method `yaml:"methods"`
}

// Method is one bound operation in a Document.
type Method struct {
	ConfigKey        string  `yaml:"config_key"`
	RequestLine      string  `yaml:"request_line"`
	Params           []Param `yaml:"params"`
	ReturnType       string  `yaml:"return_type"`
	CollectionFormat string  `yaml:"collection_format"`
	Headers          []string `yaml:"headers"`
}

// Param is one parameter binding within a Method. Kind defaults to "param"
// (a path/query placeholder) when empty; the other kinds the struct-tag
// dialect supports ("body", "header", "url", "headers", "queries") are
// named explicitly the same way.
type Param struct {
	Index  int    `yaml:"index"`
	Name   string `yaml:"name"`
	Kind   string `yaml:"kind"`
	Format string `yaml:"format"`
}

// TypeRegistry resolves a YAML return_type name to the reflect.Type that
// names it. Go has no way to look up a type by a string at runtime, so a
// caller that wants return_type to produce a usable decode target must
// register its result types here under the same names used in the YAML
// document.
type TypeRegistry map[string]reflect.Type

// Parse decodes a YAML document and runs every method through c's
// validation via Contract.ParseDescriptor, returning the same
// map[configKey]*MethodMetadata shape Contract.Parse produces. types
// resolves return_type names; a return_type with no registered entry
// leaves that method's ReturnType nil, which ResponseHandler treats the
// same way it treats httpbind.VoidType.
func Parse(data []byte, c *httpbind.Contract, types TypeRegistry) (*Document, map[string]*httpbind.MethodMetadata, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("yamlcontract: parsing document: %w", err)
	}
	if doc.Name == "" {
		return nil, nil, fmt.Errorf("yamlcontract: document has no name")
	}

	contractHeaders, err := parseHeaderLines(doc.Headers)
	if err != nil {
		return nil, nil, fmt.Errorf("yamlcontract: contract headers: %w", err)
	}

	out := make(map[string]*httpbind.MethodMetadata, len(doc.Methods))
	for _, m := range doc.Methods {
		if m.ConfigKey == "" {
			return nil, nil, fmt.Errorf("yamlcontract: method has no config_key")
		}
		desc, err := toMethodDescriptor(m)
		if err != nil {
			return nil, nil, fmt.Errorf("yamlcontract: %s: %w", m.ConfigKey, err)
		}
		methodHeaders, err := parseHeaderLines(m.Headers)
		if err != nil {
			return nil, nil, fmt.Errorf("yamlcontract: %s: headers: %w", m.ConfigKey, err)
		}
		desc.Headers = methodHeaders

		md, err := c.ParseDescriptor(m.ConfigKey, contractHeaders, desc)
		if err != nil {
			return nil, nil, err
		}
		if m.ReturnType != "" {
			md.ReturnType = types[m.ReturnType]
		}
		out[m.ConfigKey] = md
	}
	return &doc, out, nil
}

// Load reads and parses the YAML document at path.
func Load(path string, c *httpbind.Contract, types TypeRegistry) (*Document, map[string]*httpbind.MethodMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("yamlcontract: reading %s: %w", path, err)
	}
	return Parse(data, c, types)
}

func toMethodDescriptor(m Method) (httpbind.MethodDescriptor, error) {
	verb, path, err := httpbind.ParseRequestLine(m.RequestLine)
	if err != nil {
		return httpbind.MethodDescriptor{}, err
	}
	desc := httpbind.MethodDescriptor{
		Name:             m.ConfigKey,
		HTTPVerb:         verb,
		Path:             path,
		CollectionFormat: httpbind.CollectionFormatByName(m.CollectionFormat),
	}
	for _, p := range m.Params {
		kind, err := paramKind(p.Kind)
		if err != nil {
			return httpbind.MethodDescriptor{}, err
		}
		desc.Params = append(desc.Params, httpbind.ParamDescriptor{
			Index:  p.Index,
			Kind:   kind,
			Name:   p.Name,
			Format: httpbind.CollectionFormatByName(p.Format),
		})
	}
	return desc, nil
}

func paramKind(name string) (httpbind.ParamKind, error) {
	switch name {
	case "", "param":
		return httpbind.ParamPath, nil
	case "query":
		return httpbind.ParamPath, nil
	case "header":
		return httpbind.ParamHeader, nil
	case "body":
		return httpbind.ParamBody, nil
	case "url":
		return httpbind.ParamURL, nil
	case "headers":
		return httpbind.ParamHeaderMap, nil
	case "queries":
		return httpbind.ParamQueryMap, nil
	default:
		return 0, fmt.Errorf("unrecognized param kind %q", name)
	}
}

func parseHeaderLines(lines []string) (map[string][]string, error) {
	if len(lines) == 0 {
		return nil, nil
	}
	out := make(map[string][]string, len(lines))
	for _, line := range lines {
		name, value, err := httpbind.ParseHeaderLine(line)
		if err != nil {
			return nil, err
		}
		out[name] = append(out[name], value)
	}
	return out, nil
}

// Package jqdecode projects a response body through a jq filter before
// handing the result to an inner Decoder, modeled on the reference
// project's internal/jq Executor (timeout- and size-bounded evaluation).
package jqdecode

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/itchyny/gojq"

	"github.com/tombee/declarative-http/pkg/httpbind"
)

// DefaultTimeout bounds how long a single filter evaluation may run.
const DefaultTimeout = 1 * time.Second

// DefaultMaxBodySize bounds the response body size a filter is allowed to
// run against.
const DefaultMaxBodySize = 10 * 1024 * 1024

// Decoder evaluates a jq expression against the JSON response body, then
// re-marshals the filtered result and hands it to Inner to decode into the
// caller's result type. Inner may be nil, in which case the filtered value
// is returned as a generic any (json.Unmarshal target).
type Decoder struct {
	Expression  string
	Inner       httpbind.Decoder
	Timeout     time.Duration
	MaxBodySize int64

	code *gojq.Code
}

// NewDecoder compiles expression once at construction time.
func NewDecoder(expression string, inner httpbind.Decoder) (*Decoder, error) {
	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("jqdecode: parsing %q: %w", expression, err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("jqdecode: compiling %q: %w", expression, err)
	}
	return &Decoder{Expression: expression, Inner: inner, code: code}, nil
}

// Decode implements httpbind.Decoder.
func (d *Decoder) Decode(resp *httpbind.Response, resultType reflect.Type) (any, error) {
	maxSize := d.MaxBodySize
	if maxSize == 0 {
		maxSize = DefaultMaxBodySize
	}
	if int64(len(resp.Body)) > maxSize {
		return nil, fmt.Errorf("jqdecode: response body of %d bytes exceeds limit %d", len(resp.Body), maxSize)
	}

	var input any
	if err := json.Unmarshal(resp.Body, &input); err != nil {
		return nil, fmt.Errorf("jqdecode: unmarshalling response body: %w", err)
	}

	timeout := d.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	iter := d.code.RunWithContext(ctx, input)
	filtered, ok := iter.Next()
	if !ok {
		return nil, fmt.Errorf("jqdecode: expression %q produced no output", d.Expression)
	}
	if err, ok := filtered.(error); ok {
		return nil, fmt.Errorf("jqdecode: evaluating %q: %w", d.Expression, err)
	}

	if d.Inner == nil {
		return filtered, nil
	}

	filteredJSON, err := json.Marshal(filtered)
	if err != nil {
		return nil, fmt.Errorf("jqdecode: re-marshalling filtered value: %w", err)
	}
	return d.Inner.Decode(&httpbind.Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       filteredJSON,
		Request:    resp.Request,
	}, resultType)
}

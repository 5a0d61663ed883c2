// Package charset decodes a response body declared in a non-UTF-8 charset
// (via its Content-Type header, or a configured fallback) into UTF-8 before
// an inner Decoder ever sees it.
package charset

import (
	"fmt"
	"mime"
	"reflect"
	"strings"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/tombee/declarative-http/pkg/httpbind"
)

// Decoder transcodes resp.Body to UTF-8 using the charset named in its
// Content-Type header (or Default, if the header carries none) before
// delegating to Inner. An unrecognized charset name is an error.
type Decoder struct {
	Inner   httpbind.Decoder
	Default string
}

// Decode implements httpbind.Decoder.
func (d *Decoder) Decode(resp *httpbind.Response, resultType reflect.Type) (any, error) {
	name := d.charsetName(resp)
	if name == "" || strings.EqualFold(name, "utf-8") {
		return d.Inner.Decode(resp, resultType)
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("charset: unrecognized charset %q: %w", name, err)
	}
	decoded, err := enc.NewDecoder().Bytes(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("charset: transcoding from %q: %w", name, err)
	}

	return d.Inner.Decode(&httpbind.Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       decoded,
		Request:    resp.Request,
	}, resultType)
}

func (d *Decoder) charsetName(resp *httpbind.Response) string {
	ct := resp.Header.Get("Content-Type")
	if ct != "" {
		if _, params, err := mime.ParseMediaType(ct); err == nil {
			if cs := params["charset"]; cs != "" {
				return cs
			}
		}
	}
	return d.Default
}

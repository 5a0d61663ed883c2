package httpbind

import (
	"reflect"
	"time"
)

// VoidType is the sentinel result type for operations whose declared return
// is "no value" (the source ecosystem's void). Decoder.Decode is skipped for
// it unless DecodeVoid is set.
var VoidType = reflect.TypeOf(struct{}{})

// responseType is the reflect.Type of *Response, used to detect the
// "caller wants the raw Response" result type.
var responseType = reflect.TypeOf((*Response)(nil))

// ResponseHandler turns a transport-level Response into either a decoded
// result value or an error, applying response interceptors, status
// classification, and the Dismiss policy along the way.
type ResponseHandler struct {
	Decoder      Decoder
	ErrorDecoder ErrorDecoder
	Interceptors []ResponseInterceptor
	// DecodeVoid forces the Decoder to run even for VoidType results,
	// instead of draining and discarding the body.
	DecodeVoid bool
	// CloseAfterDecode is carried for API symmetry with the source
	// ecosystem's streaming-body model; this core reads bodies fully
	// into memory, so it has no observable effect beyond being threaded
	// through so a future streaming Transport would not need an API break.
	CloseAfterDecode bool
}

// NewResponseHandler returns a ResponseHandler using dec/errDec to decode
// success/error bodies respectively.
func NewResponseHandler(dec Decoder, errDec ErrorDecoder) *ResponseHandler {
	return &ResponseHandler{Decoder: dec, ErrorDecoder: errDec}
}

// Handle applies ic's interceptors to resp, then dispatches to the Decoder
// (on a 2xx or dismissed status) or ErrorDecoder. A *RetryableError
// returned by the ErrorDecoder propagates as-is so the Retryer can act on
// it. A nil resultType is handled the same way as VoidType.
func (h *ResponseHandler) Handle(ic *InvocationContext, resp *Response, resultType reflect.Type) (any, error) {
	var err error
	for _, in := range h.Interceptors {
		resp, err = in.Apply(ic, resp)
		if err != nil {
			return nil, err
		}
	}

	dismissed := resp.StatusCode != 0 && !resp.IsSuccess() &&
		ic.Metadata != nil && ic.Metadata.Dismiss[resp.StatusCode] &&
		resultType != responseType && resultType != VoidType

	if resp.IsSuccess() || dismissed {
		if resultType == responseType {
			return resp, nil
		}
		if (resultType == VoidType || resultType == nil) && !h.DecodeVoid {
			return nil, nil
		}
		if dismissed {
			return dismissedZeroValue(resultType), nil
		}
		if h.Decoder == nil {
			return nil, nil
		}
		val, err := h.Decoder.Decode(resp, resultType)
		if err != nil {
			return nil, &DecodeError{ConfigKey: ic.ConfigKey, Cause: err}
		}
		return val, nil
	}

	if h.ErrorDecoder != nil {
		err := h.ErrorDecoder.Decode(ic.ConfigKey, resp)
		if err != nil {
			return nil, err
		}
		// A nil return is a deliberate suppression: the decoder judged
		// this status not to be an error, so no RemoteError is synthesized.
		return nil, nil
	}
	return nil, &RemoteError{
		ConfigKey:  ic.ConfigKey,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       resp.Body,
	}
}

// dismissedZeroValue implements the Dismiss404-style policy resolved in
// A pointer or interface result type dismisses to a true
// nil; any other (value) result type dismisses to its zero value.
func dismissedZeroValue(resultType reflect.Type) any {
	if resultType == nil {
		return nil
	}
	// reflect.Zero already yields a true nil for Ptr/Interface/Map/Slice/
	// Chan/Func kinds and the zero value for everything else, which is
	// exactly the split the dismiss policy calls for.
	return reflect.Zero(resultType).Interface()
}

// RetryAfterFromDuration is a small helper for ErrorDecoder implementations
// that compute a relative retry delay rather than an absolute deadline.
func RetryAfterFromDuration(d time.Duration) *time.Time {
	t := time.Now().Add(d)
	return &t
}

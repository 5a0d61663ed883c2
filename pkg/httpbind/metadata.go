package httpbind

import "reflect"

// ParamKind classifies one method parameter's role in the binding pipeline.
type ParamKind int

const (
	// ParamPath binds a named URI template placeholder (path or query
	// segment alike - the template skeleton doesn't distinguish them).
	ParamPath ParamKind = iota
	// ParamHeader binds a single request header value.
	ParamHeader
	// ParamBody supplies the request body via Encoder.
	ParamBody
	// ParamHeaderMap merges a map[string]string (or map[string][]string)
	// argument's entries into the request headers. At most one per method.
	ParamHeaderMap
	// ParamQueryMap merges a map[string]string (or map[string][]string)
	// argument's entries into the query string. At most one per method.
	ParamQueryMap
	// ParamURL overrides the Target base URL with an absolute URL argument.
	ParamURL
	// ParamOptions identifies the *CallOptions override slot.
	ParamOptions
	// ParamContext identifies the context.Context slot, always excluded
	// from binding.
	ParamContext
)

// ParamDescriptor is the explicit, non-reflective description of one
// method parameter's binding role - the Go replacement for annotation
// metadata the source ecosystem would otherwise read off the parameter
// itself. A front-end (struct-tag parser, YAML dialect, or hand-written
// registration) builds these and passes them to Contract.Parse.
type ParamDescriptor struct {
	Index    int
	Kind     ParamKind
	Name     string // placeholder/header/query key; unused for Body/URL/Options/Context
	Expander Expander
	Format   CollectionFormat
}

// MethodDescriptor is the explicit, non-reflective description of one
// interface method's HTTP binding, analogous to what the source
// ecosystem's annotation processor would have read off the method.
type MethodDescriptor struct {
	Name             string
	Func             reflect.Method
	HTTPVerb         string
	Path             string // URI template skeleton, relative to the contract's base URL
	Headers          map[string][]string
	Params           []ParamDescriptor
	CollectionFormat CollectionFormat
	Dismiss          []int // status codes treated as "no error, no/zero body"
	Ignored          bool
	AlwaysEncodeBody bool // force body encoding even with no ParamBody (e.g. empty POST marker)
}

// ContractDescriptor is the complete explicit description of one bound
// interface, built by a dialect front-end and handed to Contract.Parse.
// It plays the role the source ecosystem's reflective annotation scan
// would otherwise play.
type ContractDescriptor struct {
	Interface reflect.Type
	Headers   map[string][]string // contract-level defaults, overridden per-method
	Methods   []MethodDescriptor
}

// MethodMetadata is Contract's frozen, validated output for one interface
// method: everything MethodHandler needs to turn a typed invocation into a
// RequestTemplate, with no further descriptor lookups at call time.
type MethodMetadata struct {
	ConfigKey  string
	ReturnType reflect.Type

	// Template is the unbound skeleton: URI/header/body placeholders
	// compiled, no argument values substituted. RequestTemplateFactoryResolver
	// clones it per invocation.
	Template *RequestTemplate

	// IndexToName maps a bound argument index to the placeholder name (URI,
	// header, or query) it fills.
	IndexToName map[int]string
	// IndexToExpander maps a bound argument index to the Expander used to
	// stringify it.
	IndexToExpander map[int]Expander
	// IndexToKind maps a bound argument index to its ParamKind, needed to
	// route header vs. query vs. path substitution at resolve time.
	IndexToKind map[int]ParamKind
	// MultiQueryParams maps an argument index bound with CollectionFormat
	// Multi to the query key it repeats under.
	MultiQueryParams map[int]string
	// IndexToFormat maps a bound argument index to the CollectionFormat used
	// to join (or, for Multi, repeat) a slice-valued argument.
	IndexToFormat map[int]CollectionFormat

	// FormParams lists, in declaration order, the placeholder names from
	// Param bindings that were never referenced by the URI/header/body
	// template - the dialect's "became a form field" fallback.
	// Mutually exclusive with BodyIndex (Contract rejects the combination).
	FormParams []string

	BodyIndex      int // -1 if this method has no body parameter
	URLIndex       int // -1 if no *url.URL/string absolute-override parameter
	HeaderMapIndex int // -1 if no header-map parameter
	QueryMapIndex  int // -1 if no query-map parameter
	OptionsIndex   int // -1 if no *CallOptions parameter
	ContextIndex   int // -1 if no context.Context parameter

	AlwaysEncodeBody bool
	Ignored          bool
	Dismiss          map[int]bool

	NumIn int // total reflect argument count, including receiver-adjacent ones the caller supplies
}

// newMethodMetadata returns a MethodMetadata with every optional index
// defaulted to -1 (the "absent" sentinel) and its maps allocated, ready for
// Contract to fill in.
func newMethodMetadata() *MethodMetadata {
	return &MethodMetadata{
		IndexToName:      make(map[int]string),
		IndexToExpander:  make(map[int]Expander),
		IndexToKind:      make(map[int]ParamKind),
		MultiQueryParams: make(map[int]string),
		IndexToFormat:    make(map[int]CollectionFormat),
		Dismiss:          make(map[int]bool),
		BodyIndex:        -1,
		URLIndex:         -1,
		HeaderMapIndex:   -1,
		QueryMapIndex:    -1,
		OptionsIndex:     -1,
		ContextIndex:     -1,
	}
}

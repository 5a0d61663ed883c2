// Package exprgate gates outgoing requests with a boolean
// expr-lang expression, modeled on the reference project's workflow
// expression Evaluator (compiled-program caching, "inputs"/"steps"-shaped
// context).
package exprgate

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/tombee/declarative-http/pkg/httpbind"
)

// ErrGateClosed is returned (wrapped in a *httpbind.ConfigurationError) when
// a request is rejected by the gate expression.
type ErrGateClosed struct {
	ConfigKey  string
	Expression string
}

func (e *ErrGateClosed) Error() string {
	return fmt.Sprintf("exprgate: %q rejected by gate expression %q", e.ConfigKey, e.Expression)
}

// Gate evaluates a boolean expression against an invocation's environment
// before the request reaches the Transport; a false result aborts the call.
type Gate struct {
	Expression string
	Env        map[string]any

	program *vm.Program
}

// NewGate compiles expression once. env is merged with a per-request
// "config_key" and "method" binding at evaluation time.
func NewGate(expression string, env map[string]any) (*Gate, error) {
	compileEnv := make(map[string]any, len(env)+2)
	for k, v := range env {
		compileEnv[k] = v
	}
	compileEnv["method"] = ""
	compileEnv["config_key"] = ""
	program, err := expr.Compile(expression, expr.Env(compileEnv))
	if err != nil {
		return nil, fmt.Errorf("exprgate: compiling %q: %w", expression, err)
	}
	return &Gate{Expression: expression, Env: env, program: program}, nil
}

// Capability appends g as a RequestInterceptor.
func (g *Gate) Capability() httpbind.Capability {
	return httpbind.CapabilityFunc(func(comps *httpbind.Components) error {
		comps.RequestInterceptors = append(comps.RequestInterceptors, httpbind.RequestInterceptorFunc(g.apply))
		return nil
	})
}

func (g *Gate) apply(tmpl *httpbind.RequestTemplate) error {
	env := make(map[string]any, len(g.Env)+2)
	for k, v := range g.Env {
		env[k] = v
	}
	env["method"] = tmpl.Method
	configKey := ""
	if tmpl.Metadata != nil {
		configKey = tmpl.Metadata.ConfigKey
		env["config_key"] = configKey
	}

	result, err := expr.Run(g.program, env)
	if err != nil {
		return fmt.Errorf("exprgate: evaluating %q: %w", g.Expression, err)
	}
	allow, ok := result.(bool)
	if !ok {
		return fmt.Errorf("exprgate: expression %q did not evaluate to a boolean", g.Expression)
	}
	if !allow {
		return &httpbind.ConfigurationError{ConfigKey: configKey, Reason: (&ErrGateClosed{ConfigKey: configKey, Expression: g.Expression}).Error()}
	}
	return nil
}

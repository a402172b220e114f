//go:build !js_eval

package settings

import "fmt"

var errJSUnavailable = fmt.Errorf("%w: js rules need the js_eval build tag", ErrNoEvaluator)

// NewJSEvaluator returns an evaluator that rejects every rule: this binary was
// built without the js_eval tag. Registering a rule with it fails with
// ErrNoEvaluator rather than silently falling back to another engine.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	_ = applyJSEvaluatorOptions(opts)
	return unavailableJSEvaluator{}
}

type unavailableJSEvaluator struct{}

func (unavailableJSEvaluator) Evaluate(RuleContext, string) (any, error) {
	return nil, errJSUnavailable
}

func (unavailableJSEvaluator) Compile(string) (CompiledRule, error) {
	return nil, errJSUnavailable
}

func jsEvaluatorAvailable() bool {
	return false
}

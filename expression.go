package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var ErrNoEvaluator = errors.New("settings: evaluator not configured")

// RuleContext carries the inputs bound into an expression rule.
type RuleContext struct {
	Value any
	Path  string
	Now   *time.Time
	Args  map[string]any
}

func (ctx RuleContext) withDefaults() RuleContext {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	return *ctx.withDefaults().Now
}

func (ctx RuleContext) bindings() map[string]any {
	ctx = ctx.withDefaults()
	return map[string]any{
		"value": ctx.Value,
		"path":  ctx.Path,
		"now":   *ctx.Now,
		"args":  ctx.Args,
	}
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// ProgramCache stores compiled expression programs keyed by expression
// strings. cache.Memory satisfies it.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// DefaultEvaluator returns the expr-backed evaluator wired to the registry's
// validate/sanitize functions.
func (r *Registry) DefaultEvaluator() Evaluator {
	return NewExprEvaluator(ExprWithFunctionRegistry(r.functions))
}

// RegisterExpressionValidator compiles expression once and registers a
// validator that passes when the expression yields true. Evaluation errors
// reject the value. A nil evaluator selects DefaultEvaluator. When the rule
// runs from Store.Set the written dot path is bound as path; called through
// Validate it is empty.
func (r *Registry) RegisterExpressionValidator(name, expression string, evaluator Evaluator) error {
	rule, engine, err := r.compileRule(expression, evaluator)
	if err != nil {
		return err
	}
	check := func(path string, value any) bool {
		out, err := r.runRule(engine, expression, rule, path, value)
		if err != nil {
			return false
		}
		passed, ok := out.(bool)
		return ok && passed
	}
	if err := r.RegisterValidator(name, func(value any) bool { return check("", value) }); err != nil {
		return err
	}
	r.mu.Lock()
	r.pathValidators[normalizeRule(name)] = check
	r.mu.Unlock()
	return nil
}

// RegisterExpressionSanitizer compiles expression once and registers a
// sanitizer returning the expression result. Evaluation errors leave the
// value unchanged.
func (r *Registry) RegisterExpressionSanitizer(name, expression string, evaluator Evaluator) error {
	rule, engine, err := r.compileRule(expression, evaluator)
	if err != nil {
		return err
	}
	transform := func(path string, value any) any {
		out, err := r.runRule(engine, expression, rule, path, value)
		if err != nil {
			return value
		}
		return out
	}
	if err := r.RegisterSanitizer(name, func(value any) any { return transform("", value) }); err != nil {
		return err
	}
	r.mu.Lock()
	r.pathSanitizers[normalizeRule(name)] = transform
	r.mu.Unlock()
	return nil
}

func (r *Registry) compileRule(expression string, evaluator Evaluator) (CompiledRule, string, error) {
	if expression == "" {
		return nil, "", fmt.Errorf("settings: expression must not be empty")
	}
	if evaluator == nil {
		evaluator = r.DefaultEvaluator()
	}
	if evaluator == nil {
		return nil, "", ErrNoEvaluator
	}
	engine := evaluatorEngineName(evaluator)
	rule, err := evaluator.Compile(expression)
	if err != nil {
		return nil, engine, wrapEvaluationError(engine, expression, "", err)
	}
	return rule, engine, nil
}

func (r *Registry) runRule(engine, expression string, rule CompiledRule, path string, value any) (any, error) {
	start := time.Now()
	out, err := rule.Evaluate(RuleContext{Value: value, Path: path})
	err = wrapEvaluationError(engine, expression, path, err)
	fields := map[string]any{
		"engine":   engine,
		"expr":     expression,
		"duration": time.Since(start),
	}
	if path != "" {
		fields["path"] = path
	}
	level := slog.LevelDebug
	if err != nil {
		fields["error"] = err.Error()
		level = slog.LevelWarn
	}
	r.logger.Log(Diagnostic{Message: "settings: expression rule evaluated", Level: level, Fields: fields})
	return out, err
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", e) {
	case "*settings.exprEvaluator":
		return "expr"
	case "*settings.celEvaluator":
		return "cel"
	case "*settings.jsEvaluator", "settings.unavailableJSEvaluator":
		return "js"
	default:
		return "custom"
	}
}

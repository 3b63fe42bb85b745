package observe

import (
	"errors"
	"fmt"
	"reflect"
	"time"
)

var ErrNoEvaluator = errors.New("observe: evaluator not configured")

// Watch registers a conditional observer: cb is invoked on changes to the
// named property only while expression evaluates to a truthy value. The
// expression sees the instance's property snapshot plus `value`, `property`,
// `now`, `args` and `metadata` bindings. The returned function removes this
// watch only; other watches on the same property are untouched.
//
// An evaluation failure is treated like a failing callback: it aborts the
// dispatch and propagates to the caller of the triggering write.
func Watch[O any](inst *O, name, expression string, cb any, opts ...CallbackOption) (func() error, error) {
	if expression == "" {
		return nil, fmt.Errorf("observe: expression must not be empty")
	}
	m, err := ManifestFor[O]()
	if err != nil {
		return nil, err
	}
	p, err := m.Property(name)
	if err != nil {
		return nil, err
	}
	invoke, err := normalizeCallback[O](cb)
	if err != nil {
		return nil, err
	}
	evaluator, err := m.resolveEvaluator()
	if err != nil {
		return nil, err
	}
	rule, err := evaluator.Compile(expression)
	if err != nil {
		return nil, err
	}
	engine := evaluatorEngineName(evaluator)

	gate := Callback[O](func(in *O) error {
		ctx := WatchContext{
			Snapshot: m.Snapshot(in),
			Value:    p.Get(in),
			Property: name,
		}.withDefaults()
		start := time.Now()
		out, evalErr := rule.Evaluate(ctx)
		duration := time.Since(start)
		evalErr = wrapEvaluationError(engine, expression, name, evalErr)
		m.evalLogger().LogEvaluation(EvaluatorLogEvent{
			Engine:   engine,
			Expr:     expression,
			Property: name,
			Duration: duration,
			Err:      evalErr,
		})
		if evalErr != nil {
			return evalErr
		}
		if !truthy(out) {
			return nil
		}
		return invoke(in)
	})

	handle, err := p.addCallbackHandle(inst, gate, opts...)
	if err != nil {
		return nil, err
	}
	return func() error { return p.removeCallbackHandle(inst, handle) }, nil
}

// resolveEvaluator returns the configured engine, constructing and caching
// the default expr engine when none was configured.
func (m *Manifest[O]) resolveEvaluator() (Evaluator, error) {
	if evaluator := m.evaluator(); evaluator != nil {
		return evaluator, nil
	}
	var exprOpts []ExprEvaluatorOption
	if cache := m.programCache(); cache != nil {
		exprOpts = append(exprOpts, ExprWithProgramCache(cache))
	}
	if registry := m.functionRegistry(); registry != nil {
		exprOpts = append(exprOpts, ExprWithFunctionRegistry(registry))
	}
	evaluator := NewExprEvaluator(exprOpts...)
	if evaluator == nil {
		return nil, ErrNoEvaluator
	}
	m.setEvaluator(evaluator)
	return evaluator, nil
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", e) {
	case "*observe.exprEvaluator":
		return "expr"
	case "*observe.celEvaluator":
		return "cel"
	case "*observe.jsEvaluator":
		return "js"
	default:
		return "custom"
	}
}

// truthy decides whether an expression result passes the watch gate: nil and
// zero values fail, everything else passes.
func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() != 0
	default:
		return !rv.IsZero()
	}
}

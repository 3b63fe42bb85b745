package observe

import "time"

// WatchContext carries the inputs available to a watch expression: the
// instance's property snapshot plus bindings describing the property that
// triggered the evaluation.
type WatchContext struct {
	Snapshot map[string]any
	Value    any
	Property string
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
}

func (ctx WatchContext) withDefaultNow() WatchContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx WatchContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx WatchContext) withDefaultMaps() WatchContext {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	if ctx.Snapshot == nil {
		ctx.Snapshot = map[string]any{}
	}
	return ctx
}

func (ctx WatchContext) withDefaults() WatchContext {
	return ctx.withDefaultNow().withDefaultMaps()
}

// Evaluator executes watch expressions against a context.
type Evaluator interface {
	Evaluate(ctx WatchContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx WatchContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}

package observe

import "time"

// EvaluatorLogEvent describes a watch-expression evaluation for logging.
type EvaluatorLogEvent struct {
	Engine   string
	Expr     string
	Property string
	Duration time.Duration
	Err      error
}

// EvaluatorLogger records evaluator events.
type EvaluatorLogger interface {
	LogEvaluation(EvaluatorLogEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger.
type EvaluatorLoggerFunc func(EvaluatorLogEvent)

// LogEvaluation implements EvaluatorLogger.
func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluatorLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopEvaluatorLogger struct{}

func (noopEvaluatorLogger) LogEvaluation(EvaluatorLogEvent) {}

// WithEvaluatorLogger attaches an evaluator logger to the manifest.
func WithEvaluatorLogger(logger EvaluatorLogger) Option {
	return func(cfg *manifestConfig) {
		if logger == nil {
			cfg.evalLogger = noopEvaluatorLogger{}
			return
		}
		cfg.evalLogger = logger
	}
}

// DispatchLogEvent describes one callback dispatch for logging.
type DispatchLogEvent struct {
	Property  string
	Callbacks int
	Duration  time.Duration
	Err       error
}

// DispatchLogger records property dispatch events.
type DispatchLogger interface {
	LogDispatch(DispatchLogEvent)
}

// DispatchLoggerFunc adapts a function to DispatchLogger.
type DispatchLoggerFunc func(DispatchLogEvent)

// LogDispatch implements DispatchLogger.
func (f DispatchLoggerFunc) LogDispatch(event DispatchLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopDispatchLogger struct{}

func (noopDispatchLogger) LogDispatch(DispatchLogEvent) {}

// WithDispatchLogger attaches a dispatch logger to the manifest.
func WithDispatchLogger(logger DispatchLogger) Option {
	return func(cfg *manifestConfig) {
		if logger == nil {
			cfg.dispatchLogger = noopDispatchLogger{}
			return
		}
		cfg.dispatchLogger = logger
	}
}

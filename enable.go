package opts

import (
	"fmt"
	"time"
)

// Engine names accepted by WithEngine and NewEvaluator.
const (
	EngineExpr = "expr"
	EngineCEL  = "cel"
	EngineJS   = "js"
)

// NewEvaluator builds the evaluator for engine. The JS engine is only
// available in binaries built with the js_eval tag.
func NewEvaluator(engine string, cache ProgramCache, registry *FunctionRegistry) (Evaluator, error) {
	switch engine {
	case "", EngineExpr:
		return NewExprEvaluator(ExprWithProgramCache(cache), ExprWithFunctionRegistry(registry)), nil
	case EngineCEL:
		return NewCELEvaluator(CELWithProgramCache(cache), CELWithFunctionRegistry(registry)), nil
	case EngineJS:
		evaluator := NewJSEvaluator(JSWithProgramCache(cache), JSWithFunctionRegistry(registry))
		if evaluator == nil {
			return nil, fmt.Errorf("%w: js engine requires the js_eval build tag", ErrNoEvaluator)
		}
		return evaluator, nil
	default:
		return nil, fmt.Errorf("%w: unknown engine %q", ErrNoEvaluator, engine)
	}
}

// WithEngine selects the expression engine used for EnabledWhen when no
// evaluator is supplied through WithEvaluator.
func WithEngine(engine string) Option {
	return func(cfg *storeConfig) {
		cfg.engine = engine
	}
}

// Enabled reports whether the widget bound to name should be sensitive.
// Options without an EnabledWhen expression are always enabled.
func (s *Store) Enabled(name string) (bool, error) {
	d, err := s.catalog.Lookup(name)
	if err != nil {
		return false, err
	}
	if d.EnabledWhen == "" {
		return true, s.checkOpen()
	}
	snapshot, err := s.Snapshot()
	if err != nil {
		return false, err
	}
	return s.evaluateEnabled(d, snapshot)
}

// EnabledMap evaluates every descriptor against a single snapshot.
func (s *Store) EnabledMap() (map[string]bool, error) {
	snapshot, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, s.catalog.Len())
	for _, d := range s.catalog.Descriptors() {
		if d.EnabledWhen == "" {
			out[d.Name] = true
			continue
		}
		enabled, err := s.evaluateEnabled(d, snapshot)
		if err != nil {
			return nil, err
		}
		out[d.Name] = enabled
	}
	return out, nil
}

// Evaluate runs an ad hoc expression against the current snapshot.
func (s *Store) Evaluate(expression string) (any, error) {
	if expression == "" {
		return nil, fmt.Errorf("opts: expression must not be empty")
	}
	snapshot, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return s.evaluate(RuleContext{Snapshot: snapshot}, expression)
}

func (s *Store) evaluateEnabled(d Descriptor, snapshot map[string]any) (bool, error) {
	result, err := s.evaluate(RuleContext{Snapshot: snapshot, Option: d.Name}, d.EnabledWhen)
	if err != nil {
		return false, err
	}
	enabled, ok := result.(bool)
	if !ok {
		return false, wrapEvaluationError(s.cfg.engineLabel(), d.EnabledWhen, d.Name,
			fmt.Errorf("result must be boolean, got %s", describeValue(result)))
	}
	return enabled, nil
}

func (s *Store) evaluate(ctx RuleContext, expression string) (any, error) {
	evaluator, err := s.resolveEvaluator()
	if err != nil {
		return nil, err
	}
	ctx = ctx.withDefaults()
	start := time.Now()
	value, err := evaluator.Evaluate(ctx, expression)
	err = wrapEvaluationError(s.cfg.engineLabel(), expression, ctx.optionLabel(), err)
	level := LevelDebug
	if err != nil {
		level = LevelError
	}
	s.cfg.logger.Log(LogEvent{
		Level:    level,
		Op:       "evaluate",
		Name:     ctx.Option,
		Duration: time.Since(start),
		Err:      err,
		Fields:   map[string]any{"expr": expression, "engine": s.cfg.engineLabel()},
	})
	return value, err
}

// resolveEvaluator builds the configured engine once per store. The store's
// own helpers (isDefault, isSet) are added to a copy of the user registry.
func (s *Store) resolveEvaluator() (Evaluator, error) {
	s.evalOnce.Do(func() {
		if s.cfg.evaluator != nil {
			s.evaluator = s.cfg.evaluator
			return
		}
		registry := s.cfg.functions.Clone()
		if registry == nil {
			registry = NewFunctionRegistry()
		}
		if err := s.registerBuiltins(registry); err != nil {
			s.evalErr = err
			return
		}
		s.evaluator, s.evalErr = NewEvaluator(s.cfg.engine, s.cfg.programCache, registry)
	})
	if s.evalErr != nil {
		return nil, s.evalErr
	}
	if s.evaluator == nil {
		return nil, ErrNoEvaluator
	}
	return s.evaluator, nil
}

func (s *Store) registerBuiltins(registry *FunctionRegistry) error {
	traced := func(check func(Trace) bool) Function {
		return func(args ...any) (any, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("expects one option name, got %d arguments", len(args))
			}
			name, ok := args[0].(string)
			if !ok {
				return nil, fmt.Errorf("option name must be a string, got %s", describeValue(args[0]))
			}
			trace, err := s.Trace(name)
			if err != nil {
				return nil, err
			}
			return check(trace), nil
		}
	}
	if err := registry.Register("isDefault", traced(Trace.IsDefault)); err != nil {
		return err
	}
	return registry.Register("isSet", traced(func(t Trace) bool { return t.Layer != LayerDefault }))
}

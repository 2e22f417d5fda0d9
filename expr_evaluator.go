package opts

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// ExprEvaluatorOption configures an expr evaluator instance.
type ExprEvaluatorOption func(*exprEvaluator)

// ExprWithProgramCache wires a ProgramCache into the expr evaluator.
func ExprWithProgramCache(cache ProgramCache) ExprEvaluatorOption {
	return func(e *exprEvaluator) {
		e.cache = cache
	}
}

// ExprWithFunctionRegistry wires a FunctionRegistry into the expr evaluator.
func ExprWithFunctionRegistry(registry *FunctionRegistry) ExprEvaluatorOption {
	return func(e *exprEvaluator) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

// exprEvaluator executes rule expressions using github.com/expr-lang/expr.
type exprEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewExprEvaluator constructs an Evaluator backed by expr-lang/expr. Option
// names are bound as variables, so "wsSwitchWrap || dynamicWorkspaces" reads
// two booleans from the snapshot.
func NewExprEvaluator(opts ...ExprEvaluatorOption) Evaluator {
	e := &exprEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *exprEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("expr", fmt.Errorf("expression must not be empty"))
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return e.run(ctx.withDefaults(), expression, program)
}

func (e *exprEvaluator) Compile(expression string, _ ...CompileOption) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("expr", fmt.Errorf("expression must not be empty"))
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return &exprCompiledRule{
		evaluator:  e,
		program:    program,
		expression: expression,
	}, nil
}

func (e *exprEvaluator) loadOrCompile(expression string) (*exprvm.Program, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get("expr:" + expression); ok {
			if program, ok := cached.(*exprvm.Program); ok {
				return program, nil
			}
		}
	}
	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	if e.registry != nil {
		options = append(options, exprlang.Function("call", func(arguments ...any) (any, error) {
			if len(arguments) == 0 {
				return nil, fmt.Errorf("call requires a function name")
			}
			name, ok := arguments[0].(string)
			if !ok {
				return nil, fmt.Errorf("call name must be a string, got %T", arguments[0])
			}
			return e.registry.Call(name, arguments[1:]...)
		}))
		for _, name := range e.registry.Names() {
			options = append(options, exprlang.Function(name, e.registryFunction(name)))
		}
	}
	program, err := exprlang.Compile(expression, options...)
	if err != nil {
		return nil, wrapEvaluationError("expr", expression, "", err)
	}
	if e.cache != nil {
		e.cache.Set("expr:"+expression, program)
	}
	return program, nil
}

func (e *exprEvaluator) run(ctx RuleContext, expression string, program *exprvm.Program) (any, error) {
	result, err := exprlang.Run(program, e.environment(ctx))
	if err != nil {
		return nil, wrapEvaluationError("expr", expression, ctx.optionLabel(), err)
	}
	return result, nil
}

type exprCompiledRule struct {
	evaluator  *exprEvaluator
	program    *exprvm.Program
	expression string
}

func (r *exprCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	if r.evaluator == nil {
		return nil, wrapEvaluatorError("expr", fmt.Errorf("compiled rule missing evaluator"))
	}
	return r.evaluator.run(ctx.withDefaults(), r.expression, r.program)
}

func (e *exprEvaluator) environment(ctx RuleContext) map[string]any {
	env := make(map[string]any, len(ctx.Snapshot)+4)
	for key, value := range ctx.Snapshot {
		env[key] = value
	}
	env["now"] = ctx.timestamp()
	env["args"] = ctx.Args
	env["metadata"] = ctx.Metadata
	env["option"] = ctx.Option
	return env
}

func (e *exprEvaluator) registryFunction(name string) func(...any) (any, error) {
	return func(arguments ...any) (any, error) {
		return e.registry.Call(name, arguments...)
	}
}

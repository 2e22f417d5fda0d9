package opts

import (
	"fmt"
	"sort"
	"strings"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// CELEvaluatorOption configures the CEL evaluator.
type CELEvaluatorOption func(*celEvaluator)

// CELWithProgramCache wires a ProgramCache into the CEL evaluator.
func CELWithProgramCache(cache ProgramCache) CELEvaluatorOption {
	return func(e *celEvaluator) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry wires a FunctionRegistry into the CEL evaluator.
// Registered functions are exposed as single-argument CEL functions and
// through call(name, arg).
func CELWithFunctionRegistry(registry *FunctionRegistry) CELEvaluatorOption {
	return func(e *celEvaluator) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

type celProgram struct {
	env     *celgo.Env
	program celgo.Program
}

type celEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELEvaluator constructs an Evaluator backed by cel-go.
func NewCELEvaluator(opts ...CELEvaluatorOption) Evaluator {
	e := &celEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *celEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("cel", fmt.Errorf("expression must not be empty"))
	}
	ctx = ctx.withDefaults()
	program, err := e.loadOrCompile(expression, ctx.Snapshot)
	if err != nil {
		return nil, err
	}
	return e.run(ctx, expression, program)
}

func (e *celEvaluator) Compile(expression string, _ ...CompileOption) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("cel", fmt.Errorf("expression must not be empty"))
	}
	return &celCompiledRule{
		evaluator:  e,
		expression: expression,
	}, nil
}

// cacheKey includes the declared variables because a CEL program is checked
// against them.
func (e *celEvaluator) cacheKey(expression string, snapshot map[string]any) string {
	keys := make([]string, 0, len(snapshot))
	for key := range snapshot {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return "cel:" + strings.Join(keys, ",") + ":" + expression
}

func (e *celEvaluator) loadOrCompile(expression string, snapshot map[string]any) (*celProgram, error) {
	key := e.cacheKey(expression, snapshot)
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			if program, ok := cached.(*celProgram); ok {
				return program, nil
			}
		}
	}

	env, err := e.buildEnv(snapshot)
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, "", err)
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, wrapEvaluationError("cel", expression, "", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, "", err)
	}

	bundle := &celProgram{env: env, program: prg}
	if e.cache != nil {
		e.cache.Set(key, bundle)
	}
	return bundle, nil
}

func (e *celEvaluator) buildEnv(snapshot map[string]any) (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("now", celgo.TimestampType),
		celgo.Variable("args", celgo.MapType(celgo.StringType, celgo.DynType)),
		celgo.Variable("metadata", celgo.MapType(celgo.StringType, celgo.DynType)),
		celgo.Variable("option", celgo.StringType),
	}
	if e.registry != nil {
		opts = append(opts, celgo.Function("call",
			celgo.Overload("call_string", []*celgo.Type{celgo.StringType}, celgo.DynType,
				celgo.FunctionBinding(e.callBinding)),
			celgo.Overload("call_string_dyn", []*celgo.Type{celgo.StringType, celgo.DynType}, celgo.DynType,
				celgo.FunctionBinding(e.callBinding)),
		))
		for _, name := range e.registry.Names() {
			opts = append(opts, celgo.Function(name,
				celgo.Overload(name+"_dyn", []*celgo.Type{celgo.DynType}, celgo.DynType,
					celgo.UnaryBinding(e.unaryBinding(name))),
			))
		}
	}
	for key := range snapshot {
		opts = append(opts, celgo.Variable(key, celgo.DynType))
	}
	return celgo.NewEnv(opts...)
}

func (e *celEvaluator) run(ctx RuleContext, expression string, program *celProgram) (any, error) {
	activation := map[string]any{
		"now":      ctx.timestamp(),
		"args":     ctx.Args,
		"metadata": ctx.Metadata,
		"option":   ctx.Option,
	}
	for key, value := range ctx.Snapshot {
		activation[key] = value
	}
	out, _, err := program.program.Eval(activation)
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, ctx.optionLabel(), err)
	}
	return out.Value(), nil
}

type celCompiledRule struct {
	evaluator  *celEvaluator
	expression string
}

func (r *celCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	if r.evaluator == nil {
		return nil, wrapEvaluatorError("cel", fmt.Errorf("compiled rule missing evaluator"))
	}
	return r.evaluator.Evaluate(ctx, r.expression)
}

func (e *celEvaluator) callBinding(values ...ref.Val) ref.Val {
	if len(values) == 0 {
		return types.NewErr("opts: call requires function name")
	}
	name, ok := values[0].Value().(string)
	if !ok {
		return types.NewErr("opts: call name must be string")
	}
	args := make([]any, 0, len(values)-1)
	for _, val := range values[1:] {
		args = append(args, val.Value())
	}
	return e.invoke(name, args...)
}

func (e *celEvaluator) unaryBinding(name string) func(ref.Val) ref.Val {
	return func(value ref.Val) ref.Val {
		return e.invoke(name, value.Value())
	}
}

func (e *celEvaluator) invoke(name string, args ...any) ref.Val {
	result, err := e.registry.Call(name, args...)
	if err != nil {
		return types.NewErr("%s", err.Error())
	}
	if result == nil {
		return types.NullValue
	}
	return types.DefaultTypeAdapter.NativeToValue(result)
}

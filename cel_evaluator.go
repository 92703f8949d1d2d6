package contracts

import (
	"fmt"
	"sort"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// celMaxArity bounds the fixed-arity overloads generated for registry
// functions, since CEL overloads are not variadic.
const celMaxArity = 3

// CELEvaluatorOption configures the CEL evaluator.
type CELEvaluatorOption func(*celEvaluator)

// CELWithProgramCache wires a ProgramCache into the CEL evaluator.
func CELWithProgramCache(cache ProgramCache) CELEvaluatorOption {
	return func(e *celEvaluator) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry wires a FunctionRegistry into the CEL evaluator.
func CELWithFunctionRegistry(registry *FunctionRegistry) CELEvaluatorOption {
	return func(e *celEvaluator) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

// celProgram caches the checked AST. Programs are planned per evaluation
// because token and defined are bound to the evaluated document.
type celProgram struct {
	ast *celgo.Ast
}

type celEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELEvaluator constructs an Evaluator backed by cel-go. Document keys are
// declared as dynamic variables. CEL's own has() macro covers field presence;
// defined(path) is also available for dotted paths.
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
	vars := ctx.variables()
	program, err := e.loadOrCompile(expression, ctx.ruleLabel(), vars)
	if err != nil {
		return nil, err
	}
	return e.run(ctx, expression, program, vars)
}

func (e *celEvaluator) Compile(expression string, opts ...CompileOption) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("cel", fmt.Errorf("expression must not be empty"))
	}
	cfg := applyCompileOptions(opts)
	if _, issues := e.parseOnly(expression); issues != nil {
		return nil, compileError("cel", expression, cfg.rule, issues)
	}
	return &celCompiledRule{
		evaluator:  e,
		expression: expression,
	}, nil
}

// parseOnly reports syntax errors early; type checking needs the document's
// variables and happens on first evaluation.
func (e *celEvaluator) parseOnly(expression string) (*celgo.Ast, error) {
	env, err := e.buildEnv(nil, RuleContext{})
	if err != nil {
		return nil, err
	}
	ast, issues := env.Parse(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	return ast, nil
}

func (e *celEvaluator) loadOrCompile(expression, rule string, vars map[string]any) (*celProgram, error) {
	key := celCacheKey(expression, vars)
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			if program, ok := cached.(*celProgram); ok {
				return program, nil
			}
		}
	}

	env, err := e.buildEnv(vars, RuleContext{})
	if err != nil {
		return nil, wrapEvaluatorError("cel", err)
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, compileError("cel", expression, rule, issues.Err())
	}

	bundle := &celProgram{ast: ast}
	if e.cache != nil {
		e.cache.Set(key, bundle)
	}
	return bundle, nil
}

func (e *celEvaluator) run(ctx RuleContext, expression string, program *celProgram, vars map[string]any) (any, error) {
	env, err := e.buildEnv(vars, ctx)
	if err != nil {
		return nil, wrapEvaluatorError("cel", err)
	}
	prg, err := env.Program(program.ast)
	if err != nil {
		return nil, runtimeError("cel", expression, ctx.ruleLabel(), err)
	}
	out, _, err := prg.Eval(e.activation(ctx, vars))
	if err != nil {
		return nil, runtimeError("cel", expression, ctx.ruleLabel(), err)
	}
	return out.Value(), nil
}

// buildEnv declares the variables in vars and the built-in functions. The
// function bindings close over ctx; a zero ctx is enough for checking.
func (e *celEvaluator) buildEnv(vars map[string]any, ctx RuleContext) (*celgo.Env, error) {
	token := ctx.tokenFunc()
	defined := ctx.definedFunc()
	opts := []celgo.EnvOption{
		celgo.Variable("now", celgo.TimestampType),
		celgo.Variable("args", celgo.DynType),
		celgo.Variable("metadata", celgo.DynType),
		celgo.Function("token", celgo.Overload("token_string",
			[]*celgo.Type{celgo.StringType}, celgo.DynType,
			celgo.UnaryBinding(func(value ref.Val) ref.Val {
				name, ok := value.Value().(string)
				if !ok {
					return types.NewErr("contracts: token reference must be a string")
				}
				return celValue(token(name))
			}),
		)),
		celgo.Function("defined", celgo.Overload("defined_string",
			[]*celgo.Type{celgo.StringType}, celgo.BoolType,
			celgo.UnaryBinding(func(value ref.Val) ref.Val {
				path, ok := value.Value().(string)
				if !ok {
					return types.NewErr("contracts: defined path must be a string")
				}
				return types.Bool(defined(path))
			}),
		)),
	}
	opts = append(opts, e.registryFunctions()...)
	for _, key := range sortedKeys(vars) {
		if _, reserved := reservedNames[key]; (reserved && key != "doc") || !isIdentifier(key) {
			continue
		}
		opts = append(opts, celgo.Variable(key, celgo.DynType))
	}
	return celgo.NewEnv(opts...)
}

func (e *celEvaluator) registryFunctions() []celgo.EnvOption {
	if e.registry == nil {
		return nil
	}
	var opts []celgo.EnvOption
	for _, name := range e.registry.Names() {
		fn := name
		overloads := make([]celgo.FunctionOpt, 0, celMaxArity+1)
		for arity := 0; arity <= celMaxArity; arity++ {
			argTypes := make([]*celgo.Type, arity)
			for i := range argTypes {
				argTypes[i] = celgo.DynType
			}
			overloads = append(overloads, celgo.Overload(
				fmt.Sprintf("%s_dyn_%d", fn, arity),
				argTypes, celgo.DynType,
				celgo.FunctionBinding(func(values ...ref.Val) ref.Val {
					args := make([]any, 0, len(values))
					for _, val := range values {
						args = append(args, val.Value())
					}
					result, err := e.registry.Call(fn, args...)
					if err != nil {
						return types.NewErr("%s", err.Error())
					}
					return celValue(result)
				}),
			))
		}
		opts = append(opts, celgo.Function(fn, overloads...))
	}
	return opts
}

func (e *celEvaluator) activation(ctx RuleContext, vars map[string]any) map[string]any {
	activation := make(map[string]any, len(vars)+3)
	for key, value := range vars {
		activation[key] = value
	}
	activation["now"] = ctx.timestamp()
	activation["args"] = ctx.Args
	activation["metadata"] = ctx.Metadata
	return activation
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

func celValue(value any) ref.Val {
	if value == nil {
		return types.NullValue
	}
	return types.DefaultTypeAdapter.NativeToValue(value)
}

// celCacheKey includes the declared variable names because the checked AST
// depends on them.
func celCacheKey(expression string, vars map[string]any) string {
	key := "cel:" + expression
	for _, name := range sortedKeys(vars) {
		key += "|" + name
	}
	return key
}

func sortedKeys(values map[string]any) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

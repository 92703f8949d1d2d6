package contracts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// WarnLintError marks a rule that could not be evaluated.
const WarnLintError = "lint-error"

// Lint engine names accepted by NewEvaluator.
const (
	EngineExpr = "expr"
	EngineCEL  = "cel"
	EngineJS   = "js"
)

// ErrNoEvaluator is returned when an engine is unknown or not compiled in.
var ErrNoEvaluator = errors.New("contracts: evaluator not configured")

// LintRule is a predicate that should hold for a document. When Expr
// evaluates to false a warning with Code, Path and Message is reported.
type LintRule struct {
	Code    string `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
	Expr    string `json:"expr" yaml:"expr"`
}

// LinterOption configures a Linter.
type LinterOption func(*linterConfig)

type linterConfig struct {
	evaluator Evaluator
	cache     ProgramCache
	functions *FunctionRegistry
	logger    EvaluatorLogger
	now       func() time.Time
	args      map[string]any
}

// WithEvaluator selects the lint engine. The default is NewExprEvaluator.
func WithEvaluator(evaluator Evaluator) LinterOption {
	return func(cfg *linterConfig) {
		cfg.evaluator = evaluator
	}
}

// WithProgramCache registers a program cache used by the default engine.
func WithProgramCache(cache ProgramCache) LinterOption {
	return func(cfg *linterConfig) {
		cfg.cache = cache
	}
}

// WithFunctionRegistry exposes registry functions to the default engine.
func WithFunctionRegistry(registry *FunctionRegistry) LinterOption {
	return func(cfg *linterConfig) {
		if registry == nil {
			return
		}
		cfg.functions = registry.Clone()
	}
}

// WithCustomFunction registers fn under name for the default engine.
func WithCustomFunction(name string, fn Function) LinterOption {
	return func(cfg *linterConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		_ = cfg.functions.Register(name, fn)
	}
}

// WithEvaluatorLogger attaches an evaluator logger to the Linter.
func WithEvaluatorLogger(logger EvaluatorLogger) LinterOption {
	return func(cfg *linterConfig) {
		if logger == nil {
			cfg.logger = noopEvaluatorLogger{}
			return
		}
		cfg.logger = logger
	}
}

// WithLintClock overrides the value bound to now.
func WithLintClock(now func() time.Time) LinterOption {
	return func(cfg *linterConfig) {
		cfg.now = now
	}
}

// WithLintArgs binds args for every rule.
func WithLintArgs(args map[string]any) LinterOption {
	return func(cfg *linterConfig) {
		cfg.args = copyMetadata(args)
	}
}

type compiledLintRule struct {
	rule    LintRule
	program CompiledRule
	err     error
}

// Linter evaluates a fixed rule set against documents. It is safe for
// concurrent use.
type Linter struct {
	cfg    linterConfig
	engine string
	rules  []compiledLintRule
}

// NewLinter compiles rules with the configured engine. Rules without a code or
// expression are rejected; expressions that fail to compile are kept and
// reported as lint-error warnings on every run.
func NewLinter(rules []LintRule, opts ...LinterOption) (*Linter, error) {
	cfg := linterConfig{logger: noopEvaluatorLogger{}}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.evaluator == nil {
		var exprOpts []ExprEvaluatorOption
		if cfg.cache != nil {
			exprOpts = append(exprOpts, ExprWithProgramCache(cfg.cache))
		}
		if cfg.functions != nil {
			exprOpts = append(exprOpts, ExprWithFunctionRegistry(cfg.functions))
		}
		cfg.evaluator = NewExprEvaluator(exprOpts...)
	}

	linter := &Linter{
		cfg:    cfg,
		engine: evaluatorEngineName(cfg.evaluator),
		rules:  make([]compiledLintRule, 0, len(rules)),
	}
	seen := map[string]struct{}{}
	for i, rule := range rules {
		if strings.TrimSpace(rule.Code) == "" {
			return nil, fmt.Errorf("contracts: lint rule %d has no code", i)
		}
		if strings.TrimSpace(rule.Expr) == "" {
			return nil, fmt.Errorf("contracts: lint rule %q has no expression", rule.Code)
		}
		if _, dup := seen[rule.Code]; dup {
			return nil, fmt.Errorf("contracts: duplicate lint rule %q", rule.Code)
		}
		seen[rule.Code] = struct{}{}

		program, err := cfg.evaluator.Compile(rule.Expr, WithCompileRule(rule.Code))
		linter.rules = append(linter.rules, compiledLintRule{rule: rule, program: program, err: err})
	}
	return linter, nil
}

// Engine reports the name of the evaluator in use.
func (l *Linter) Engine() string {
	return l.engine
}

// Rules returns a copy of the rule set.
func (l *Linter) Rules() []LintRule {
	out := make([]LintRule, len(l.rules))
	for i, compiled := range l.rules {
		out[i] = compiled.rule
	}
	return out
}

// Broken returns the codes of rules whose expression did not compile, in
// rule order.
func (l *Linter) Broken() []string {
	var codes []string
	for _, compiled := range l.rules {
		if IsCompileError(compiled.err) {
			codes = append(codes, compiled.rule.Code)
		}
	}
	return codes
}

// Lint runs every rule against doc. Failing predicates and evaluation errors
// become warnings; the only error returned is ctx's.
func (l *Linter) Lint(ctx context.Context, doc Document) ([]Warning, error) {
	if l == nil {
		return nil, nil
	}
	var now *time.Time
	if l.cfg.now != nil {
		ts := l.cfg.now()
		now = &ts
	}

	var warnings []Warning
	for _, compiled := range l.rules {
		if err := ctx.Err(); err != nil {
			return warnings, err
		}
		rule := compiled.rule
		if compiled.err != nil {
			warnings = append(warnings, lintErrorWarning(rule, compiled.err))
			continue
		}

		ruleCtx := RuleContext{
			Document: doc,
			Now:      now,
			Args:     l.cfg.args,
			Metadata: map[string]any{"code": rule.Code},
			Rule:     rule.Code,
		}
		start := time.Now()
		value, err := compiled.program.Evaluate(ruleCtx)
		err = runtimeError(l.engine, rule.Expr, rule.Code, err)
		l.cfg.logger.LogEvaluation(EvaluatorLogEvent{
			Engine:   l.engine,
			Expr:     rule.Expr,
			Rule:     rule.Code,
			Duration: time.Since(start),
			Err:      err,
		})
		if err != nil {
			warnings = append(warnings, lintErrorWarning(rule, err))
			continue
		}

		holds, ok := value.(bool)
		if !ok {
			warnings = append(warnings, lintErrorWarning(rule,
				fmt.Errorf("rule returned %s, want bool", typeName(value))))
			continue
		}
		if !holds {
			warnings = append(warnings, Warning{Code: rule.Code, Path: rule.Path, Message: rule.Message})
		}
	}
	return warnings, nil
}

func lintErrorWarning(rule LintRule, err error) Warning {
	return Warning{
		Code:    WarnLintError,
		Path:    rule.Path,
		Message: fmt.Sprintf("rule %q: %v", rule.Code, err),
	}
}

// NewEvaluator returns the evaluator for engine ("expr", "cel" or "js"). The
// js engine requires the js_eval build tag.
func NewEvaluator(engine string, cache ProgramCache, registry *FunctionRegistry) (Evaluator, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineExpr:
		return NewExprEvaluator(ExprWithProgramCache(cache), ExprWithFunctionRegistry(registry)), nil
	case EngineCEL:
		return NewCELEvaluator(CELWithProgramCache(cache), CELWithFunctionRegistry(registry)), nil
	case EngineJS:
		if !jsEvaluatorAvailable() {
			return nil, fmt.Errorf("%w: js engine needs the js_eval build tag", ErrNoEvaluator)
		}
		return NewJSEvaluator(JSWithProgramCache(cache), JSWithFunctionRegistry(registry)), nil
	default:
		return nil, fmt.Errorf("%w: unknown engine %q", ErrNoEvaluator, engine)
	}
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", e) {
	case "*contracts.exprEvaluator":
		return EngineExpr
	case "*contracts.celEvaluator":
		return EngineCEL
	case "*contracts.jsEvaluator":
		return EngineJS
	default:
		return "custom"
	}
}

type lintRuleFile struct {
	Rules []LintRule `yaml:"rules"`
}

// ParseLintRules reads rules from YAML or JSON, either as a top-level list or
// under a "rules" key.
func ParseLintRules(data []byte) ([]LintRule, error) {
	var list []LintRule
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var file lintRuleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, malformed(fmt.Errorf("parse lint rules: %w", err))
	}
	return file.Rules, nil
}

// MapProgramCache is a concurrency-safe unbounded ProgramCache.
type MapProgramCache struct {
	programs sync.Map
}

// Get implements ProgramCache.
func (c *MapProgramCache) Get(key string) (any, bool) {
	return c.programs.Load(key)
}

// Set implements ProgramCache.
func (c *MapProgramCache) Set(key string, value any) {
	c.programs.Store(key, value)
}

package contracts

import (
	"encoding/json"
	"time"
)

// RuleContext carries inputs needed when evaluating a lint expression.
type RuleContext struct {
	Document Document
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
	Rule     string
}

func (ctx RuleContext) withDefaultNow() RuleContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx RuleContext) withDefaultMaps() RuleContext {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) withDefaults() RuleContext {
	return ctx.withDefaultNow().withDefaultMaps()
}

func (ctx RuleContext) ruleLabel() string {
	if ctx.Rule != "" {
		return ctx.Rule
	}
	return "adhoc"
}

// variables returns the document's top-level keys plus "doc", with numbers
// converted to float64 so expression engines can compare them.
func (ctx RuleContext) variables() map[string]any {
	plain, _ := toPlain(ctx.Document).(map[string]any)
	if plain == nil {
		plain = map[string]any{}
	}
	vars := make(map[string]any, len(plain)+1)
	for key, value := range plain {
		vars[key] = value
	}
	vars["doc"] = plain
	return vars
}

// tokenFunc resolves a token reference against the document's tokens. Font
// families resolve to their stack; anything unresolved yields nil.
func (ctx RuleContext) tokenFunc() func(string) any {
	table := TokensFromDocument(ctx.Document)
	return func(ref string) any {
		record, ok := table.Lookup(ref)
		if !ok {
			return nil
		}
		if record.IsFamily() {
			return FontStack(record)
		}
		value, ok := scalarValue(record)
		if !ok {
			return nil
		}
		return toPlain(value)
	}
}

// definedFunc reports whether a dotted path exists in the document.
func (ctx RuleContext) definedFunc() func(string) bool {
	doc := ctx.Document
	return func(path string) bool {
		_, ok := lookupPath(doc, path)
		return ok
	}
}

// toPlain converts json.Number leaves to float64 (or int64 for integers).
func toPlain(value any) any {
	switch typed := value.(type) {
	case json.Number:
		if i, err := typed.Int64(); err == nil {
			return i
		}
		if f, err := typed.Float64(); err == nil {
			return f
		}
		return typed.String()
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, v := range typed {
			out[key] = toPlain(v)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, v := range typed {
			out[i] = toPlain(v)
		}
		return out
	default:
		return value
	}
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct {
	rule string
}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}

// WithCompileRule labels compile errors with the rule code.
func WithCompileRule(code string) CompileOption {
	return compileOptionFunc(func(cfg *compileConfig) {
		cfg.rule = code
	})
}

func applyCompileOptions(opts []CompileOption) compileConfig {
	cfg := compileConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt.applyCompileOption(&cfg)
		}
	}
	return cfg
}

// ProgramCache stores compiled expression programs keyed by expression strings.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

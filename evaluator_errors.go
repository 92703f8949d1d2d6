package contracts

import (
	"errors"
	"fmt"
	"strings"
)

// EvalPhase tells whether a lint expression failed while compiling or while
// running against a document.
type EvalPhase string

const (
	PhaseCompile  EvalPhase = "compile"
	PhaseEvaluate EvalPhase = "evaluate"
)

// EvaluationError reports a lint expression failure together with the engine,
// rule code and phase it happened in.
type EvaluationError struct {
	Engine string
	Expr   string
	Rule   string
	Phase  EvalPhase
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString("contracts: ")
	b.WriteString(e.Engine)
	if e.Phase != "" {
		b.WriteString(" ")
		b.WriteString(string(e.Phase))
	}
	if e.Rule != "" {
		fmt.Fprintf(&b, " rule %q", e.Rule)
	}
	if e.Expr == "" {
		b.WriteString(" expr=<empty>")
	} else {
		fmt.Fprintf(&b, " expr=%q", e.Expr)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsCompileError reports whether err is a lint expression that never
// compiled. Such rules fail on every document.
func IsCompileError(err error) bool {
	var evalErr *EvaluationError
	return errors.As(err, &evalErr) && evalErr.Phase == PhaseCompile
}

// wrapEvaluatorError prefixes engine setup failures that are not tied to a
// single expression.
func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) || strings.HasPrefix(err.Error(), "contracts:") {
		return err
	}
	return fmt.Errorf("contracts: %s evaluator: %w", engine, err)
}

func compileError(engine, expr, rule string, err error) error {
	return wrapEvaluationError(engine, expr, rule, PhaseCompile, err)
}

func runtimeError(engine, expr, rule string, err error) error {
	return wrapEvaluationError(engine, expr, rule, PhaseEvaluate, err)
}

// wrapEvaluationError fills missing fields of an existing EvaluationError in
// place, or wraps err in a new one.
func wrapEvaluationError(engine, expr, rule string, phase EvalPhase, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		if evalErr.Engine == "" {
			evalErr.Engine = engine
		}
		if evalErr.Expr == "" {
			evalErr.Expr = expr
		}
		if evalErr.Rule == "" {
			evalErr.Rule = rule
		}
		if evalErr.Phase == "" {
			evalErr.Phase = phase
		}
		return evalErr
	}

	return &EvaluationError{
		Engine: engine,
		Expr:   expr,
		Rule:   rule,
		Phase:  phase,
		Err:    err,
	}
}

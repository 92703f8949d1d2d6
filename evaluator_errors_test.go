package contracts

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapEvaluationErrorCreatesMetadata(t *testing.T) {
	base := errors.New("boom")
	err := runtimeError("expr", "layout.regions != nil && missing", "regions-required", base)

	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %T", err)
	}
	if evalErr.Engine != "expr" {
		t.Fatalf("expected engine expr, got %q", evalErr.Engine)
	}
	if evalErr.Expr != "layout.regions != nil && missing" {
		t.Fatalf("expected expression metadata, got %q", evalErr.Expr)
	}
	if evalErr.Rule != "regions-required" {
		t.Fatalf("expected rule metadata, got %q", evalErr.Rule)
	}
	if evalErr.Phase != PhaseEvaluate {
		t.Fatalf("expected evaluate phase, got %q", evalErr.Phase)
	}
	if !errors.Is(evalErr.Err, base) {
		t.Fatalf("wrapped error should unwrap to base error")
	}
	want := `contracts: expr evaluate rule "regions-required" expr="layout.regions != nil && missing": boom`
	if err.Error() != want {
		t.Fatalf("unexpected message\n got: %s\nwant: %s", err.Error(), want)
	}
}

func TestWrapEvaluationErrorAugmentsExisting(t *testing.T) {
	base := errors.New("compile failure")
	existing := &EvaluationError{
		Engine: "expr",
		Err:    base,
	}

	err := compileError("cel", "rule", "page-labels", existing)
	if !errors.Is(err, base) {
		t.Fatalf("expected base error to unwrap")
	}
	if existing.Engine != "expr" {
		t.Fatalf("existing engine should not be overwritten, got %q", existing.Engine)
	}
	if existing.Expr != "rule" {
		t.Fatalf("expression should be filled, got %q", existing.Expr)
	}
	if existing.Rule != "page-labels" {
		t.Fatalf("rule should be filled, got %q", existing.Rule)
	}
	if !IsCompileError(err) {
		t.Fatalf("expected phase filled with compile")
	}
}

func TestIsCompileError(t *testing.T) {
	if IsCompileError(errors.New("plain")) {
		t.Fatalf("plain errors are not compile errors")
	}
	if IsCompileError(runtimeError("js", "x", "r", errors.New("boom"))) {
		t.Fatalf("runtime failures are not compile errors")
	}
	_, err := NewExprEvaluator().Compile("layout.regions ==", WithCompileRule("broken"))
	if !IsCompileError(err) {
		t.Fatalf("expected compile error from expr, got %v", err)
	}
}

func TestWrapEvaluatorErrorPrefixesOnce(t *testing.T) {
	err := wrapEvaluatorError("cel", errors.New("undeclared reference"))
	if !strings.HasPrefix(err.Error(), "contracts: cel evaluator:") {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if again := wrapEvaluatorError("cel", err); again != err {
		t.Fatalf("expected already prefixed error to pass through")
	}
	if wrapEvaluatorError("cel", nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}

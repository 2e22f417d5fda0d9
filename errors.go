package opts

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-wsoptions/pkg/state"
)

var (
	// ErrUnknownOption matches every UnknownOptionError.
	ErrUnknownOption = errors.New("opts: unknown option")
	// ErrTypeConversion matches every TypeConversionError.
	ErrTypeConversion = errors.New("opts: type conversion")
	// ErrBackendUnavailable is returned when a descriptor's store selector has
	// no registered backend.
	ErrBackendUnavailable = state.ErrBackendUnavailable
	// ErrStoreClosed is returned by every Store operation after Close.
	ErrStoreClosed = errors.New("opts: store closed")
	// ErrInvalidProfile is returned for profile slots outside 1..MaxProfiles.
	ErrInvalidProfile = errors.New("opts: invalid profile index")
	// ErrNoEvaluator is returned when no evaluator could be configured.
	ErrNoEvaluator = errors.New("opts: evaluator not configured")
)

// UnknownOptionError reports a logical name without a descriptor.
type UnknownOptionError struct {
	Name string
}

func (e *UnknownOptionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("opts: unknown option %q", e.Name)
}

func (e *UnknownOptionError) Is(target error) bool {
	return target == ErrUnknownOption
}

// TypeConversionError reports a value that does not match its descriptor's
// kind, or profile text that cannot be parsed back into it.
type TypeConversionError struct {
	Name  string
	Kind  Kind
	Value any
	Err   error
}

func (e *TypeConversionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("opts: option %q expects %s, got %s", e.Name, e.Kind, describeValue(e.Value))
	if text, ok := e.Value.(string); ok && e.Kind != KindString {
		msg = fmt.Sprintf("opts: option %q expects %s, cannot parse %q", e.Name, e.Kind, text)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TypeConversionError) Is(target error) bool {
	return target == ErrTypeConversion
}

func (e *TypeConversionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// UnknownProfileKeyWarning describes a profile entry whose option no longer
// exists. Loading skips it.
type UnknownProfileKeyWarning struct {
	Profile int
	Key     string
}

func (w UnknownProfileKeyWarning) Error() string {
	return fmt.Sprintf("opts: profile %d: unknown key %q skipped", w.Profile, w.Key)
}

// EvaluationError captures evaluator metadata alongside the originating error.
type EvaluationError struct {
	Engine string
	Expr   string
	Option string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("opts: %s evaluator %s option=%s: %v", e.Engine, describeExpression(e.Expr), e.Option, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		return err
	}

	if strings.HasPrefix(err.Error(), "opts:") {
		return err
	}
	return fmt.Errorf("opts: %s evaluator: %w", engine, err)
}

func wrapEvaluationError(engine, expr, option string, err error) error {
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
		if evalErr.Option == "" {
			evalErr.Option = option
		}
		return evalErr
	}

	return &EvaluationError{
		Engine: engine,
		Expr:   expr,
		Option: option,
		Err:    err,
	}
}

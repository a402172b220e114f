package settings

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyPath indicates a write or remove addressed no node.
	ErrEmptyPath = errors.New("settings: path must not be empty")
	// ErrNotFound indicates the addressed node does not exist.
	ErrNotFound = errors.New("settings: path not found")
	// ErrValidation indicates a value was rejected by a validator.
	ErrValidation = errors.New("settings: validation failed")
	// ErrPersist indicates the backend refused the write.
	ErrPersist = errors.New("settings: persist failed")
	// ErrInvalidDocument indicates an import payload could not be used.
	ErrInvalidDocument = errors.New("settings: invalid import document")
	// ErrBackupNotFound indicates the named backup does not exist.
	ErrBackupNotFound = errors.New("settings: backup not found")
	// ErrRegistered indicates a validator, sanitizer or function name is taken.
	ErrRegistered = errors.New("settings: name already registered")
	// ErrNotMapping indicates a path resolved to a value that is not a mapping.
	ErrNotMapping = errors.New("settings: value is not a mapping")
)

// ValidationError describes a rejected write.
type ValidationError struct {
	Path  string
	Rule  string
	Value any
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("settings: validation failed path=%q rule=%s", e.Path, e.Rule)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// EvaluationError captures expression metadata alongside the originating error.
type EvaluationError struct {
	Engine string
	Expr   string
	Path   string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("settings: %s evaluator %s path=%s: %v", e.Engine, describeExpression(e.Expr), describePath(e.Path), e.Err)
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

func describePath(path string) string {
	if path == "" {
		return "<none>"
	}
	return path
}

func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		return err
	}

	if strings.HasPrefix(err.Error(), "settings:") {
		return err
	}
	return fmt.Errorf("settings: %s evaluator: %w", engine, err)
}

func wrapEvaluationError(engine, expr, path string, err error) error {
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
		if evalErr.Path == "" {
			evalErr.Path = path
		}
		return evalErr
	}

	return &EvaluationError{
		Engine: engine,
		Expr:   expr,
		Path:   path,
		Err:    err,
	}
}

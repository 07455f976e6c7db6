package vsdx

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates a page, master or shape that an operation requires
// does not exist.
var ErrNotFound = errors.New("not found")

// ErrIntegrity indicates the document model would become, or already is,
// inconsistent: a dangling master reference, an id collision or page metadata
// out of step with the page list.
var ErrIntegrity = errors.New("integrity violation")

// ErrTemplate indicates a template directive or expression could not be
// evaluated.
var ErrTemplate = errors.New("template error")

// IntegrityError represents a data-integrity violation in one part.
type IntegrityError struct {
	Part   string
	Detail string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity violation in %s: %s", e.Part, e.Detail)
}

// Is reports ErrIntegrity as matching.
func (e *IntegrityError) Is(target error) bool {
	return target == ErrIntegrity
}

func newIntegrityError(part, format string, args ...any) *IntegrityError {
	return &IntegrityError{Part: part, Detail: fmt.Sprintf(format, args...)}
}

// TemplateError represents a failed directive or expression on one shape (or
// on a page name when ShapeID is 0).
type TemplateError struct {
	Page    string
	ShapeID int
	Expr    string
	Err     error
}

func (e *TemplateError) Error() string {
	if e.ShapeID == 0 {
		return fmt.Sprintf("template error on page %q: %q: %v", e.Page, e.Expr, e.Err)
	}
	return fmt.Sprintf("template error on page %q shape %d: %q: %v", e.Page, e.ShapeID, e.Expr, e.Err)
}

func (e *TemplateError) Unwrap() error {
	return e.Err
}

// Is reports ErrTemplate as matching.
func (e *TemplateError) Is(target error) bool {
	return target == ErrTemplate
}

// NewTemplateError creates a new TemplateError.
func NewTemplateError(page string, shapeID int, expr string, err error) *TemplateError {
	return &TemplateError{
		Page:    page,
		ShapeID: shapeID,
		Expr:    expr,
		Err:     err,
	}
}

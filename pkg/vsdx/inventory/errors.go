package inventory

import (
	"fmt"
)

// ModeError indicates an unknown extraction mode.
type ModeError struct {
	Mode string
}

func (e *ModeError) Error() string {
	return fmt.Sprintf("invalid mode: %s (must be light, standard, or verbose)", e.Mode)
}

// ExportError represents an error while writing one page of an export.
type ExportError struct {
	Page   string
	Format string // "json", "xlsx"
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error on page %q (%s): %v", e.Page, e.Format, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// NewExportError creates a new ExportError.
func NewExportError(page, format string, err error) *ExportError {
	return &ExportError{
		Page:   page,
		Format: format,
		Err:    err,
	}
}

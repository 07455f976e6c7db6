package container

import (
	"errors"
	"fmt"
)

// ErrPartNotFound indicates the requested part does not exist in the package.
var ErrPartNotFound = errors.New("part not found")

// Error represents a failure reading, writing or addressing a package part.
type Error struct {
	Op   string // "open", "read", "get", "parse", "remove", "serialize", "write", "save"
	Part string
	Err  error
}

func (e *Error) Error() string {
	if e.Part == "" {
		return fmt.Sprintf("container %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("container %s %q: %v", e.Op, e.Part, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

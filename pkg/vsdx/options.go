// Package vsdx provides a live, mutable object model over Visio .vsdx
// packages: pages and master pages, nested shapes with lazy master
// inheritance, page-scoped id allocation and the connector graph.
package vsdx

import (
	"io"

	"github.com/charmbracelet/log"
)

// Options configures how a document is opened.
type Options struct {
	// Logger receives debug output about loading and structural operations.
	// If nil, output is discarded.
	Logger *log.Logger
	// SkipIntegrityCheck disables load-time validation of shape ids, master
	// references and page metadata. Stale page metadata is then rewritten
	// from the page list instead of failing the load.
	SkipIntegrityCheck bool
}

// DefaultOptions returns default open options.
func DefaultOptions() Options {
	return Options{}
}

func (o Options) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.New(io.Discard)
}

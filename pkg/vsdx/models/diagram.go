// Package models defines data structures for diagram inventories.
package models

// DiagramData represents a document-level container with per-page data.
type DiagramData struct {
	// FileName is the diagram file name (no path).
	FileName string `json:"file_name"`
	// Pages lists the drawing pages in document order.
	Pages []PageData `json:"pages"`
	// Masters lists the master names available to the pages.
	Masters []string `json:"masters,omitempty"`
}

// PageData represents structured data for a single page.
type PageData struct {
	// Index is the page position (0-based).
	Index int `json:"index"`
	// Name is the page display name.
	Name string `json:"name"`
	// Shapes contains every shape on the page, nested shapes included.
	Shapes []ShapeData `json:"shapes,omitempty"`
	// Connects contains the connection rows of the page.
	Connects []ConnectData `json:"connects,omitempty"`
}

package models

// ShapeData represents shape metadata including position, size, text and
// master.
type ShapeData struct {
	// ID is the page-scoped shape id.
	ID int `json:"id"`
	// ParentID is the id of the enclosing group (nil for top-level shapes).
	ParentID *int `json:"parent_id,omitempty"`
	// Text is the resolved text content of the shape.
	Text string `json:"text"`
	// Kind is one of "shape", "group" or "connector".
	Kind string `json:"kind"`
	// Master is the master name the shape is an instance of.
	Master string `json:"master,omitempty"`
	// L is the absolute left offset of the pin in pixels.
	L int `json:"l"`
	// T is the absolute pin offset from the page bottom in pixels.
	T int `json:"t"`
	// W is the shape width in pixels (nil if not verbose).
	W *int `json:"w,omitempty"`
	// H is the shape height in pixels (nil if not verbose).
	H *int `json:"h,omitempty"`
	// Rotation is the rotation angle in radians (nil when zero or not verbose).
	Rotation *float64 `json:"rotation,omitempty"`
	// Properties holds the shape data properties (verbose only).
	Properties map[string]string `json:"properties,omitempty"`
}

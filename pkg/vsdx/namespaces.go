package vsdx

// XML namespaces of the parts modeled by this package.
const (
	NSVisio         = "http://schemas.microsoft.com/office/visio/2012/main"
	NSRelationships = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	NSExtendedProps = "http://schemas.openxmlformats.org/officeDocument/2006/extended-properties"
	NSDocPropsTypes = "http://schemas.openxmlformats.org/officeDocument/2006/docPropsVTypes"
)

// Relationship types.
const (
	RelDocument      = "http://schemas.microsoft.com/visio/2010/relationships/document"
	RelPages         = "http://schemas.microsoft.com/visio/2010/relationships/pages"
	RelPage          = "http://schemas.microsoft.com/visio/2010/relationships/page"
	RelMasters       = "http://schemas.microsoft.com/visio/2010/relationships/masters"
	RelMaster        = "http://schemas.microsoft.com/visio/2010/relationships/master"
	RelExtendedProps = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties"
)

// Content types.
const (
	ContentTypePage          = "application/vnd.ms-visio.page+xml"
	ContentTypeExtendedProps = "application/vnd.openxmlformats-officedocument.extended-properties+xml"
)

// Default part locations, used when a relationship is missing.
const (
	defaultDocumentPart = "visio/document.xml"
	defaultPagesPart    = "visio/pages/pages.xml"
	defaultMastersPart  = "visio/masters/masters.xml"
	defaultAppPart      = "docProps/app.xml"
)

// Cell names of the common shape properties.
const (
	CellPinX       = "PinX"
	CellPinY       = "PinY"
	CellLocPinX    = "LocPinX"
	CellLocPinY    = "LocPinY"
	CellWidth      = "Width"
	CellHeight     = "Height"
	CellAngle      = "Angle"
	CellLineWeight = "LineWeight"
	CellLineColor  = "LineColor"
	CellBeginX     = "BeginX"
	CellBeginY     = "BeginY"
	CellEndX       = "EndX"
	CellEndY       = "EndY"
)

// numericCells lists cells whose values must be numbers.
var numericCells = map[string]bool{
	CellPinX:       true,
	CellPinY:       true,
	CellLocPinX:    true,
	CellLocPinY:    true,
	CellWidth:      true,
	CellHeight:     true,
	CellAngle:      true,
	CellLineWeight: true,
	CellBeginX:     true,
	CellBeginY:     true,
	CellEndX:       true,
	CellEndY:       true,
	"TxtPinX":      true,
	"TxtPinY":      true,
	"TxtWidth":     true,
	"TxtHeight":    true,
	"TxtLocPinX":   true,
	"TxtLocPinY":   true,
	"Rounding":     true,
}

// IsNumericCell reports whether the named cell holds a number.
func IsNumericCell(name string) bool {
	return numericCells[name]
}

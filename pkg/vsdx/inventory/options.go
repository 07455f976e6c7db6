// Package inventory extracts a structured, serializable view of a diagram:
// pages, shapes with absolute positions and the connection graph.
package inventory

// Mode represents the extraction mode.
type Mode string

const (
	// ModeLight extracts shapes with text only (no connectors or connects).
	ModeLight Mode = "light"
	// ModeStandard extracts shapes with text, groups, connectors and connects.
	ModeStandard Mode = "standard"
	// ModeVerbose extracts all shapes including dimensions, rotation and data properties.
	ModeVerbose Mode = "verbose"
)

// Options configures extraction behavior.
type Options struct {
	// Mode specifies the extraction mode (light, standard, verbose).
	Mode Mode
	// IncludeConnects specifies whether to include connection rows.
	// If nil, defaults to false for light mode, true otherwise.
	IncludeConnects *bool
}

// DefaultOptions returns default extraction options.
func DefaultOptions() Options {
	return Options{
		Mode: ModeStandard,
	}
}

// ParseMode converts a mode name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeLight, ModeStandard, ModeVerbose:
		return Mode(s), nil
	case "":
		return ModeStandard, nil
	}
	return "", &ModeError{Mode: s}
}

// ShouldIncludeConnects returns whether to include connection rows.
func (o Options) ShouldIncludeConnects() bool {
	if o.IncludeConnects != nil {
		return *o.IncludeConnects
	}
	return o.Mode != ModeLight
}

package valueobjects

import "fmt"

// DisplayMode controls which checklist entries the summary badge names
type DisplayMode string

const (
	// DisplayModeAll lists every checklist entry
	DisplayModeAll DisplayMode = "all"

	// DisplayModeUpcoming lists every incomplete entry
	DisplayModeUpcoming DisplayMode = "upcoming"

	// DisplayModeNext lists only the first incomplete entry (default)
	DisplayModeNext DisplayMode = "next"
)

// DefaultDisplayMode is used when a board has no stored preference
const DefaultDisplayMode = DisplayModeNext

// ParseDisplayMode validates a stored or submitted mode
func ParseDisplayMode(raw string) (DisplayMode, error) {
	switch mode := DisplayMode(raw); mode {
	case DisplayModeAll, DisplayModeUpcoming, DisplayModeNext:
		return mode, nil
	default:
		return "", fmt.Errorf("unknown checklist display mode %q", raw)
	}
}

// String returns the string representation of the mode
func (m DisplayMode) String() string {
	return string(m)
}

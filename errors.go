package gridcalc

import "errors"

// Display markers written into a cell when a formula fails. Formula failures
// never surface as Go errors; they become cell content.
const (
	MarkRecursion    = "RecursErr"
	MarkSheetDeleted = "SheetDeleted"
	MarkName         = "#NAME"
	MarkNameQ        = "#NAME?"
	MarkRef          = "#REF!"
	MarkValue        = "#VALUE!"
	MarkNA           = "#N/A"
)

var errorMarkers = map[string]bool{
	MarkRecursion:    true,
	MarkSheetDeleted: true,
	MarkName:         true,
	MarkNameQ:        true,
	MarkRef:          true,
	MarkValue:        true,
	MarkNA:           true,
}

// IsErrorMarker reports whether s is one of the formula failure markers.
func IsErrorMarker(s string) bool {
	return errorMarkers[s]
}

// Workbook and IO errors.
var (
	ErrDuplicateSheet   = errors.New("gridcalc: sheet name already in use")
	ErrSheetNotFound    = errors.New("gridcalc: sheet not found")
	ErrLastSheet        = errors.New("gridcalc: cannot delete the only sheet")
	ErrInvalidSheetName = errors.New("gridcalc: invalid sheet name")
	ErrLocationOccupied = errors.New("gridcalc: pivot location is not empty")
	ErrEmptyClipboard   = errors.New("gridcalc: clipboard is empty")
)

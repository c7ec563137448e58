package importer

import (
	"strconv"
	"strings"
)

// NotSpecified is the grade range of a school without grade codes.
const NotSpecified = "Not specified"

// gradeLabels maps NCES PSS grade codes to display labels.
var gradeLabels = map[int]string{
	-1: "N/A",
	1:  "N",
	2:  "PK",
	3:  "K",
	4:  "1",
	5:  "2",
	6:  "3",
	7:  "4",
	8:  "5",
	9:  "6",
	10: "7",
	11: "8",
	12: "9",
	13: "10",
	14: "11",
	15: "12",
	16: "13",
	17: "Adult",
}

// GradeLabel returns the label of a grade code such as "3" or "15.0".
// Unknown or unparsable codes map to "N/A".
func GradeLabel(code string) string {
	f, err := strconv.ParseFloat(strings.TrimSpace(code), 64)
	if err != nil {
		return "N/A"
	}
	if label, ok := gradeLabels[int(f)]; ok {
		return label
	}
	return "N/A"
}

// GradeRange renders the lowest and highest grade codes as "K - 12".
// Equal ends collapse to a single label.
func GradeRange(lo, hi string) string {
	lo, hi = cleanValue(lo), cleanValue(hi)
	if lo == "" && hi == "" {
		return NotSpecified
	}

	loLabel, hiLabel := "N/A", "N/A"
	if lo != "" {
		loLabel = GradeLabel(lo)
	}
	if hi != "" {
		hiLabel = GradeLabel(hi)
	}

	if loLabel == hiLabel {
		return loLabel
	}
	return loLabel + " - " + hiLabel
}

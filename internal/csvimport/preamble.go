package csvimport

import (
	"regexp"
	"strings"
)

// headerScanWindow bounds how deep into the file the header search looks.
// Real-world preambles run one to five rows; ten leaves headroom.
const headerScanWindow = 10

var (
	// 17 alphanumerics excluding I, O and Q — the standard VIN alphabet.
	vinShapeRe = regexp.MustCompile(`^[A-HJ-NPR-Za-hj-npr-z0-9]{17}$`)
	// Unit-number columns are typically 3+ digit codes.
	unitNumberRe = regexp.MustCompile(`^[0-9]{3,}$`)
)

// Phrases that mark a row as human-readable instructions rather than header
// or data. Matched against the lower-cased first cell.
var instructionPhrases = []string{
	"this is the title",
	"only include columns",
	"instruction",
	"do not include",
}

// HeaderLocation is the result of scanning for the real header row under an
// enterprise preamble.
type HeaderLocation struct {
	HeaderIndex  int
	Header       []string
	DataRows     [][]string
	SkippedCount int
}

// LocateHeader finds the true header row in a tokenized file that may start
// with instruction/title rows and AS400 code legends. It walks the first few
// rows: instruction rows are skipped, and the first data-shaped row triggers a
// backward scan for the nearest earlier non-instruction row, which is taken as
// the header. Without any data-shaped row in the window, the first
// non-instruction row is assumed to be the header. Returns false when the
// file has no usable rows.
//
// The data-row heuristic (VIN shape anywhere, or a 3+ digit number in the
// first two cells) can misfire on header rows made of numeric codes; the
// backward scan usually recovers the real header, so the miss is bounded.
func LocateHeader(rows [][]string) (HeaderLocation, bool) {
	if len(rows) == 0 {
		return HeaderLocation{}, false
	}

	limit := len(rows)
	if limit > headerScanWindow {
		limit = headerScanWindow
	}

	headerIdx := -1
	firstCandidate := -1
	for i := 0; i < limit; i++ {
		if isEmptyRow(rows[i]) || isInstructionRow(rows[i]) {
			continue
		}
		if isDataRow(rows[i]) {
			for j := i - 1; j >= 0; j-- {
				if !isEmptyRow(rows[j]) && !isInstructionRow(rows[j]) {
					headerIdx = j
					break
				}
			}
			if headerIdx < 0 {
				// Data with no preceding header row. Fall back to whatever
				// sits directly above it, or the data row itself for a
				// headerless file.
				if i > 0 {
					headerIdx = i - 1
				} else {
					headerIdx = 0
				}
			}
			break
		}
		if firstCandidate < 0 {
			firstCandidate = i
		}
	}

	if headerIdx < 0 {
		headerIdx = firstCandidate
	}
	if headerIdx < 0 || headerIdx >= len(rows) {
		return HeaderLocation{}, false
	}

	return HeaderLocation{
		HeaderIndex:  headerIdx,
		Header:       rows[headerIdx],
		DataRows:     rows[headerIdx+1:],
		SkippedCount: headerIdx,
	}, true
}

// RowNumber translates a data-row index into the 1-based line number a user
// sees in the original file: +1 for the header row, +1 for 1-based counting,
// plus however many preamble rows were skipped.
func (loc HeaderLocation) RowNumber(dataIndex int) int {
	return dataIndex + loc.SkippedCount + 2
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func isInstructionRow(row []string) bool {
	if len(row) == 0 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(row[0]))
	for _, phrase := range instructionPhrases {
		if strings.Contains(first, phrase) {
			return true
		}
	}
	if strings.HasPrefix(first, "note:") || strings.HasPrefix(first, "required:") {
		return true
	}
	// AS400 code-legend dumps read like "EN - Value, TRA - Value, ...".
	joined := strings.ToLower(strings.Join(row, ","))
	return strings.Contains(joined, " - value")
}

func isDataRow(row []string) bool {
	for _, cell := range row {
		if vinShapeRe.MatchString(strings.TrimSpace(cell)) {
			return true
		}
	}
	for i := 0; i < len(row) && i < 2; i++ {
		if unitNumberRe.MatchString(strings.TrimSpace(row[i])) {
			return true
		}
	}
	return false
}

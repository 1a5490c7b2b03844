package csvimport

import "strings"

// ParseCSV tokenizes raw CSV text into rows of trimmed cells. This is a
// character walk rather than encoding/csv because enterprise exports put
// unquoted free-text banner rows above the header; the stdlib reader commits
// to strict quote state across the whole file and gives up on them, while
// this walk degrades to best-effort field boundaries.
//
// A quote toggles quoted state unless doubled (escaped quote, kept literally).
// Commas and newlines inside quotes are data, which is what allows multi-line
// quoted fields. CRLF counts as a single row terminator. Rows whose cells are
// all empty after trimming are dropped, and trailing content without a final
// newline is still flushed as the last row.
func ParseCSV(text string) [][]string {
	text = strings.TrimPrefix(text, "\uFEFF")

	var (
		rows     [][]string
		row      []string
		cell     strings.Builder
		inQuotes bool
	)

	flushCell := func() {
		row = append(row, strings.TrimSpace(cell.String()))
		cell.Reset()
	}
	flushRow := func() {
		flushCell()
		for _, c := range row {
			if c != "" {
				rows = append(rows, row)
				break
			}
		}
		row = nil
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				cell.WriteRune('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case ch == ',' && !inQuotes:
			flushCell()
		case (ch == '\n' || ch == '\r') && !inQuotes:
			if ch == '\r' && i+1 < len(runes) && runes[i+1] == '\n' {
				i++
			}
			flushRow()
		default:
			cell.WriteRune(ch)
		}
	}
	if cell.Len() > 0 || len(row) > 0 {
		flushRow()
	}
	return rows
}

package csvimport

import (
	"fmt"
	"strings"
)

// MaxImportRows bounds how many data rows a single import may carry. Enforced
// at the preview stage so the commit path never sees an unbounded file.
const MaxImportRows = 5000

// PreviewResult is the full output of the parse/map/validate stage, consumed
// by the interactive review step before commit.
type PreviewResult struct {
	Success          bool              `json:"success"`
	Error            string            `json:"error,omitempty"`
	TotalRows        int               `json:"totalRows"`
	PreviewRows      []TransformedRow  `json:"previewRows"`
	ColumnMapping    []MappedColumn    `json:"columnMapping"`
	HeaderToFieldMap map[string]string `json:"headerToFieldMap"`
	IgnoredHeaders   []string          `json:"ignoredHeaders"`
	Warnings         []string          `json:"warnings"`
	IsValid          bool              `json:"isValid"`
	MissingFields    []string          `json:"missingFields"`
	OriginalHeaders  []string          `json:"originalHeaders"`
	SkippedRows      int               `json:"skippedRows"`
	ParsingNote      string            `json:"parsingNote,omitempty"`

	// Mapping in index form, for the commit step. Not serialized.
	Mapping ColumnMapping `json:"-"`
}

// Preview runs the pipeline up to (but not including) persistence: tokenize,
// locate the header under any preamble, build and validate the column
// mapping, and transform every data row with a per-row status. Structural
// problems come back as Success=false; per-row problems never do.
func Preview(text string) PreviewResult {
	return PreviewWithLimit(text, MaxImportRows)
}

// PreviewWithLimit is Preview with the row cap supplied by the caller, for
// deployments that tune IMPORT_MAX_ROWS. A non-positive limit falls back to
// the default.
func PreviewWithLimit(text string, maxRows int) PreviewResult {
	if maxRows <= 0 {
		maxRows = MaxImportRows
	}
	rows := ParseCSV(text)
	loc, ok := LocateHeader(rows)
	if !ok || len(loc.DataRows) == 0 {
		return PreviewResult{Error: "No data rows found in file"}
	}
	if len(loc.DataRows) > maxRows {
		return PreviewResult{
			Error: fmt.Sprintf("File has %d data rows; the import limit is %d", len(loc.DataRows), maxRows),
		}
	}

	mapping, headerToField, ignored := BuildColumnMapping(loc.Header)
	validation := ValidateMapping(mapping)

	result := PreviewResult{
		Success:          true,
		TotalRows:        len(loc.DataRows),
		ColumnMapping:    mapping.Columns(loc.Header),
		HeaderToFieldMap: headerToField,
		IgnoredHeaders:   ignored,
		Warnings:         validation.Warnings,
		IsValid:          validation.IsValid,
		MissingFields:    validation.MissingFields,
		OriginalHeaders:  loc.Header,
		SkippedRows:      loc.SkippedCount,
		Mapping:          mapping,
	}
	if loc.SkippedCount > 0 {
		result.ParsingNote = fmt.Sprintf("Skipped %d non-header row(s) before the column header", loc.SkippedCount)
	}

	result.PreviewRows = make([]TransformedRow, 0, len(loc.DataRows))
	for i, raw := range loc.DataRows {
		row := TransformedRow{
			Fields:    TransformRow(raw, mapping),
			RowNumber: loc.RowNumber(i),
			Status:    StatusValid,
		}
		annotateRowStatus(&row)
		result.PreviewRows = append(result.PreviewRows, row)
	}
	return result
}

// annotateRowStatus applies the preview-only status rules: a row with no
// identity at all is an error, a malformed VIN is a warning (the commit step
// will skip it, not fail the batch).
func annotateRowStatus(row *TransformedRow) {
	vin := strings.TrimSpace(row.Fields[FieldVIN])
	truckNumber := strings.TrimSpace(row.Fields[FieldTruckNumber])

	if vin == "" && truckNumber == "" {
		row.Status = StatusError
		row.StatusMessage = "Either VIN or Truck Number is required"
		return
	}
	if vin != "" && len(vin) != vinLength {
		row.Status = StatusWarning
		row.StatusMessage = fmt.Sprintf("Invalid VIN length: %d", len(vin))
	}
}

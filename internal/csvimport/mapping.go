package csvimport

import "fmt"

// ColumnMapping maps a column index to the canonical field it feeds. Built
// once per import from the header row; each field appears at most once as a
// value (the first matching column wins) and each index at most once as a key.
type ColumnMapping map[int]string

// MappedColumn is the user-facing view of one mapping decision.
type MappedColumn struct {
	Index  int    `json:"index"`
	Header string `json:"header"`
	Field  string `json:"field"`
}

// BuildColumnMapping runs the alias matcher over a header row. It returns the
// index mapping, the header-to-field view, and the headers that matched
// nothing — ignored columns are reported, never guessed, so an unrecognized
// column can never corrupt a known field.
func BuildColumnMapping(headers []string) (ColumnMapping, map[string]string, []string) {
	mapping := make(ColumnMapping, len(headers))
	headerToField := make(map[string]string, len(headers))
	var ignored []string

	claimed := make(map[string]struct{}, len(headers))
	for idx, header := range headers {
		field := MapColumnToField(header)
		if field == "" {
			if header != "" {
				ignored = append(ignored, header)
			}
			continue
		}
		if _, taken := claimed[field]; taken {
			// Duplicate header for an already-mapped field; later columns
			// lose.
			ignored = append(ignored, header)
			continue
		}
		claimed[field] = struct{}{}
		mapping[idx] = field
		headerToField[header] = field
	}
	return mapping, headerToField, ignored
}

// Columns renders the mapping as a slice ordered by column index, for preview
// payloads.
func (m ColumnMapping) Columns(headers []string) []MappedColumn {
	out := make([]MappedColumn, 0, len(m))
	for idx := 0; idx < len(headers); idx++ {
		field, ok := m[idx]
		if !ok {
			continue
		}
		out = append(out, MappedColumn{Index: idx, Header: headers[idx], Field: field})
	}
	return out
}

// HasField reports whether any column feeds the given canonical field.
func (m ColumnMapping) HasField(field string) bool {
	for _, mapped := range m {
		if mapped == field {
			return true
		}
	}
	return false
}

// MappingValidation is the gate result checked before any row is processed.
type MappingValidation struct {
	IsValid       bool     `json:"isValid"`
	MissingFields []string `json:"missingFields"`
	Warnings      []string `json:"warnings"`
	MappedFields  []string `json:"mappedFields"`
}

// ValidateMapping requires at least one identity column (VIN or truck number)
// and warns about recommended-but-missing descriptive columns.
func ValidateMapping(mapping ColumnMapping) MappingValidation {
	v := MappingValidation{IsValid: true}
	for _, field := range mapping {
		v.MappedFields = append(v.MappedFields, field)
	}

	if !mapping.HasField(FieldVIN) && !mapping.HasField(FieldTruckNumber) {
		v.IsValid = false
		v.MissingFields = append(v.MissingFields, FieldVIN, FieldTruckNumber)
	}
	for _, field := range []string{FieldMake, FieldModel, FieldYear} {
		if !mapping.HasField(field) {
			v.Warnings = append(v.Warnings, fmt.Sprintf("Recommended column %q was not found in the file", field))
		}
	}
	return v
}

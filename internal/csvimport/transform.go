package csvimport

import "strings"

// Row statuses surfaced in preview payloads.
const (
	StatusValid   = "valid"
	StatusWarning = "warning"
	StatusError   = "error"
)

// TransformedRow is one data row keyed by canonical field names. Status and
// StatusMessage exist for the interactive preview only and are never
// persisted.
type TransformedRow struct {
	Fields        map[string]string `json:"fields"`
	RowNumber     int               `json:"rowNumber"`
	Status        string            `json:"_status"`
	StatusMessage string            `json:"_statusMessage,omitempty"`
}

// TransformRow applies a column mapping to a raw cell slice. Cells are
// trimmed and stripped of one layer of surrounding literal quotes; indices
// past the end of a short row read as empty.
func TransformRow(row []string, mapping ColumnMapping) map[string]string {
	fields := make(map[string]string, len(mapping))
	for idx, field := range mapping {
		var value string
		if idx >= 0 && idx < len(row) {
			value = row[idx]
		}
		fields[field] = stripOuterQuotes(strings.TrimSpace(value))
	}
	return fields
}

func stripOuterQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}

// BuildSubsystems groups a transformed row's sub-fields into the nested
// objects stored on the truck record. Empty values are omitted entirely — an
// absent key must not overwrite a previously-known value on update.
func BuildSubsystems(fields map[string]string) map[string]map[string]string {
	out := make(map[string]map[string]string)
	for field, value := range fields {
		if value == "" {
			continue
		}
		route, ok := subsystemFields[field]
		if !ok {
			continue
		}
		if out[route.Subsystem] == nil {
			out[route.Subsystem] = make(map[string]string)
		}
		out[route.Subsystem][route.Key] = value
	}
	return out
}

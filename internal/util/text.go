package util

import "strings"

// SanitizePostgresText drops the bytes a Postgres text column rejects:
// NUL and invalid UTF-8. Notes blobs carry unknown fields through verbatim,
// so they are sanitized before every write.
func SanitizePostgresText(value string) string {
	if value == "" {
		return value
	}

	sanitized := strings.ToValidUTF8(value, "")
	return strings.ReplaceAll(sanitized, "\x00", "")
}

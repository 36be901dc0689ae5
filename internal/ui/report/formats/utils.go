package formats

import (
	"fmt"
	"strings"
)

func formatDegrees(v float64) string {
	return fmt.Sprintf("%.2f°", v)
}

func nonEmpty(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

// escapeCell keeps user supplied names from breaking markdown tables.
func escapeCell(v string) string {
	v = strings.ReplaceAll(v, "|", "\\|")
	return strings.ReplaceAll(v, "\n", " ")
}

// tsvField strips separators that would shift TSV columns.
func tsvField(v string) string {
	return strings.NewReplacer("\t", " ", "\n", " ", "\r", " ").Replace(v)
}

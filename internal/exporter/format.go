package exporter

import "strconv"

// formatFloat renders a value with the shortest representation that parses
// back to the same float.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Package format holds small presentation helpers shared by notifications
// and the CLI.
package format

import "fmt"

// Size renders a byte count the way the dashboard shows file sizes.
func Size(bytes int64) string {
	switch {
	case bytes < 1024:
		return fmt.Sprintf("%d B", bytes)
	case bytes < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	}
}

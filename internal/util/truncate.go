package util

import "fmt"

// DefaultDetailMaxLen bounds upstream response bodies stored in the refresh
// history and echoed into logs.
const DefaultDetailMaxLen = 512

// TruncateDetail shortens long upstream bodies while keeping enough of the
// head to diagnose the failure.
func TruncateDetail(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + fmt.Sprintf("... [truncated, %d bytes total]", len(s))
}

package ui

import (
	"fmt"
	"time"
)

// formatDuration renders d as m:ss, or h:mm:ss from one hour on.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// splitProgress divides width cells between elapsed and remaining time.
func splitProgress(position, duration time.Duration, width int) (filled, empty int) {
	if width <= 0 {
		return 0, 0
	}
	if duration <= 0 || position <= 0 {
		return 0, width
	}
	if position >= duration {
		return width, 0
	}
	filled = int(int64(width) * int64(position) / int64(duration))
	return filled, width - filled
}

// truncate shortens s to max runes, ending in "..." when cut.
func truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 {
		return ""
	}
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

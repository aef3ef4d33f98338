// Package format provides shared formatting utilities.
package format

import "fmt"

// RelativeDays renders a day count as "today" or "in N days".
func RelativeDays(days int) string {
	if days == 0 {
		return "today"
	}
	return fmt.Sprintf("in %d days", days)
}

// Minutes formats a minute count as a human-readable span (e.g., "45m", "1h 30m", "2d 3h").
func Minutes(m int) string {
	switch {
	case m < 0:
		return "0m"
	case m < 60:
		return fmt.Sprintf("%dm", m)
	case m < 24*60:
		if m%60 == 0 {
			return fmt.Sprintf("%dh", m/60)
		}
		return fmt.Sprintf("%dh %dm", m/60, m%60)
	default:
		days := m / (24 * 60)
		h := (m % (24 * 60)) / 60
		return fmt.Sprintf("%dd %dh", days, h)
	}
}

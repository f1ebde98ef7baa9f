package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseClock converts a match clock string to seconds. Accepts "MM:SS"
// (minutes may exceed 59), or a bare integer treated as seconds. Malformed
// input parses as 0 so a bad manual edit can never wedge the clock.
func ParseClock(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}

	if strings.Contains(raw, ":") {
		parts := strings.Split(raw, ":")
		if len(parts) != 2 {
			return 0
		}
		mins, _ := strconv.Atoi(strings.TrimSpace(parts[0]))
		secs, _ := strconv.Atoi(strings.TrimSpace(parts[1]))
		if mins < 0 || secs < 0 {
			return 0
		}
		return mins*60 + secs
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// FormatClock renders seconds as a zero-padded "MM:SS" display string.
// Minutes are unbounded, so "95:00" is a valid rugby clock.
func FormatClock(totalSeconds int) string {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	return fmt.Sprintf("%02d:%02d", totalSeconds/60, totalSeconds%60)
}

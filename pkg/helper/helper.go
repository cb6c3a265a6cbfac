package helper

import (
	"fmt"
	"strings"
)

// SecondsToDiff formats a gap in seconds for alert text and tables.
func SecondsToDiff(seconds float64) string {
	if seconds <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.1fs", seconds)
}

// SecondsToMinutes converts seconds to mm:ss.mmm for session-time display.
func SecondsToMinutes(seconds float64) string {
	if seconds <= 0 {
		return "-"
	}
	minutes := int(seconds / 60)
	seconds = seconds - float64(minutes*60)
	milliseconds := int((seconds - float64(int(seconds))) * 1000)
	return fmt.Sprintf("%02d:%02d.%03d", minutes, int(seconds), milliseconds)
}

// DriverShortName reduces a driver name to a three-letter table code, first
// letter of the first name plus the start of the surname.
func DriverShortName(name string) string {
	if name == "" {
		return ""
	}
	words := strings.Fields(name)
	code := string(words[0][0])
	if len(words) > 1 && len(words[1]) >= 2 {
		code += words[1][:2]
	} else if len(words[0]) > 2 {
		code += words[0][1:3]
	} else {
		code += words[0]
	}
	return strings.ToUpper(code)
}

package progressbar

import (
	"fmt"
	"math"
)

var scaleSuffixes = []string{"", "K", "M", "G", "T", "P", "E", "Z"}

// FormatDuration formats whole seconds as MM:SS, or H:MM:SS once an hour
// has passed. With human set, durations under a minute print as "42s".
func FormatDuration(seconds int64, human bool) string {
	if seconds < 0 {
		seconds = 0
	}
	if human && seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	minutes, s := seconds/60, seconds%60
	hours, m := minutes/60, minutes%60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// FormatScaled divides value by divisor until it drops below 999.5 and
// prints it with three significant figures and an SI-like suffix.
func FormatScaled(value, divisor float64) string {
	for _, suffix := range scaleSuffixes {
		abs := math.Abs(value)
		if abs < 999.5 {
			switch {
			case abs < 9.995:
				return fmt.Sprintf("%1.2f%s", value, suffix)
			case abs < 99.95:
				return fmt.Sprintf("%2.1f%s", value, suffix)
			default:
				return fmt.Sprintf("%3.0f%s", value, suffix)
			}
		}
		value /= divisor
	}
	return fmt.Sprintf("%3.1fY", value)
}

var humanStages = []struct {
	div  float64
	unit string
}{
	{60, "s"},
	{60, "min"},
	{24, "hr"},
}

// FormatHumanDuration prints seconds in the largest of s, min, hr or days
// that keeps the value below the next stage.
func FormatHumanDuration(seconds float64) string {
	for _, st := range humanStages {
		if seconds < st.div {
			return fmt.Sprintf("%.2f%s", seconds, st.unit)
		}
		seconds /= st.div
	}
	return fmt.Sprintf("%.2fdays", seconds)
}

package reminder

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Elapsed formats how long a dose has been waiting: the wall-clock distance
// from today's scheduled HH:MM to now, floored to whole minutes and clamped
// at zero so a scheduled time still in the future reads 0分. Over an hour it
// switches to 時間/分 units, dropping the minute part on the whole hour.
func Elapsed(scheduledTime string, now time.Time) string {
	hours, minutes, err := parseClock(scheduledTime)
	if err != nil {
		return "0分"
	}

	scheduled := time.Date(now.Year(), now.Month(), now.Day(), hours, minutes, 0, 0, now.Location())
	diff := now.Sub(scheduled)
	if diff < 0 {
		return "0分"
	}

	total := int(diff.Minutes())
	if total < 60 {
		return fmt.Sprintf("%d分", total)
	}

	h := total / 60
	m := total % 60
	if m == 0 {
		return fmt.Sprintf("%d時間", h)
	}
	return fmt.Sprintf("%d時間%d分", h, m)
}

func parseClock(value string) (int, int, error) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed clock time %q", value)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, 0, fmt.Errorf("malformed hour in %q", value)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, 0, fmt.Errorf("malformed minute in %q", value)
	}
	return hours, minutes, nil
}

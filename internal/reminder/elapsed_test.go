package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestElapsed(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 30, 0, 0, time.Local)

	cases := []struct {
		name      string
		scheduled string
		want      string
	}{
		{"just due", "10:30", "0分"},
		{"future clamps to zero", "11:00", "0分"},
		{"minutes only", "10:05", "25分"},
		{"just under an hour", "09:31", "59分"},
		{"exactly one hour", "09:30", "1時間"},
		{"hours and minutes", "08:15", "2時間15分"},
		{"whole hours drop minutes", "07:30", "3時間"},
		{"since midnight", "00:00", "10時間30分"},
		{"malformed", "noon", "0分"},
		{"out of range hour", "25:00", "0分"},
		{"out of range minute", "10:75", "0分"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Elapsed(tc.scheduled, now))
		})
	}
}

func TestElapsedFloorsPartialMinutes(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 5, 59, 0, time.Local)
	assert.Equal(t, "5分", Elapsed("10:00", now))
}

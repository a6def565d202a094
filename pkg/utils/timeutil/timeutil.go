/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package timeutil

import (
	"fmt"
	"time"

	"github.com/sosodev/duration"
)

// ParseISO8601Duration parses an ISO-8601 duration string such as "P0DT4H"
// into a time.Duration.
func ParseISO8601Duration(value string) (time.Duration, error) {
	d, err := duration.Parse(value)
	if err != nil {
		return 0, err
	}
	return d.ToTimeDuration(), nil
}

// FormatSlurmWalltime renders a duration in sbatch's HH:MM:SS form.
func FormatSlurmWalltime(d time.Duration) string {
	total := int64(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// FormatRFC3339 renders a time in the store's timestamp form.
func FormatRFC3339(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ParseRFC3339 parses a store timestamp; the zero time is returned for an
// empty string.
func ParseRFC3339(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, value)
}

// UnixMillis returns t as milliseconds since the epoch, the resolution the
// store uses for event timestamps.
func UnixMillis(t time.Time) int64 {
	return t.UnixNano() / int64(time.Millisecond)
}

// FormatDuration renders a second count compactly, e.g. "2h5m".
func FormatDuration(seconds int64) string {
	if seconds == 0 {
		return "0s"
	}
	d := time.Duration(seconds) * time.Second
	result := ""
	if h := int64(d.Hours()); h > 0 {
		result += fmt.Sprintf("%dh", h)
		d -= time.Duration(h) * time.Hour
	}
	if m := int64(d.Minutes()); m > 0 {
		result += fmt.Sprintf("%dm", m)
		d -= time.Duration(m) * time.Minute
	}
	if s := int64(d.Seconds()); s > 0 {
		result += fmt.Sprintf("%ds", s)
	}
	return result
}

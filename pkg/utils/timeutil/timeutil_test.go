/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseISO8601Duration(t *testing.T) {
	d, err := ParseISO8601Duration("P0DT4H")
	require.NoError(t, err)
	assert.Equal(t, 4*time.Hour, d)

	d, err = ParseISO8601Duration("PT1H30M")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, d)

	_, err = ParseISO8601Duration("4 hours")
	assert.Error(t, err)
}

func TestFormatSlurmWalltime(t *testing.T) {
	assert.Equal(t, "04:00:00", FormatSlurmWalltime(4*time.Hour))
	assert.Equal(t, "01:30:15", FormatSlurmWalltime(90*time.Minute+15*time.Second))
	assert.Equal(t, "26:00:00", FormatSlurmWalltime(26*time.Hour))
}

func TestRFC3339RoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	rendered := FormatRFC3339(now)
	parsed, err := ParseRFC3339(rendered)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(now))

	zero, err := ParseRFC3339("")
	require.NoError(t, err)
	assert.True(t, zero.IsZero())
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0s", FormatDuration(0))
	assert.Equal(t, "45s", FormatDuration(45))
	assert.Equal(t, "2h5m", FormatDuration(2*3600+5*60))
	assert.Equal(t, "1h1s", FormatDuration(3601))
}

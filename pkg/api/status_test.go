/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobStatusClassification(t *testing.T) {
	for _, status := range []JobStatus{JobDone, JobTerminated, JobCanceled, JobDisabled} {
		assert.True(t, status.IsTerminal(), "%s should be terminal", status)
		assert.False(t, status.IsActive(), "%s should not be active", status)
	}
	for _, status := range []JobStatus{JobSubmittedPending, JobSubmitted, JobRunning} {
		assert.True(t, status.IsActive(), "%s should be active", status)
		assert.False(t, status.IsTerminal(), "%s should not be terminal", status)
	}
	assert.False(t, JobReady.IsTerminal())
	assert.False(t, JobReady.IsActive())
}

func TestJobStatusTransitions(t *testing.T) {
	tests := []struct {
		from    JobStatus
		to      JobStatus
		allowed bool
	}{
		{JobUninitialized, JobReady, true},
		{JobUninitialized, JobBlocked, true},
		{JobUninitialized, JobRunning, false},
		{JobBlocked, JobReady, true},
		{JobReady, JobSubmitted, true},
		{JobReady, JobDone, false},
		{JobSubmitted, JobRunning, true},
		{JobRunning, JobDone, true},
		{JobRunning, JobTerminated, true},
		{JobDone, JobUninitialized, true},
		{JobTerminated, JobUninitialized, true},
		{JobDisabled, JobReady, false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.allowed, tc.from.CanTransition(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestCancelAllowedFromNonTerminalOnly(t *testing.T) {
	assert.True(t, JobRunning.CanTransition(JobCanceled))
	assert.True(t, JobBlocked.CanTransition(JobCanceled))
	assert.False(t, JobDone.CanTransition(JobCanceled))
	assert.False(t, JobCanceled.CanTransition(JobCanceled))
}

func TestSeverityRank(t *testing.T) {
	assert.True(t, SeverityRank(SeverityError) > SeverityRank(SeverityWarn))
	assert.True(t, SeverityRank(SeverityWarn) > SeverityRank(SeverityInfo))
	assert.True(t, SeverityRank(SeverityInfo) > SeverityRank(SeverityDebug))
	// Unknown severities rank as info.
	assert.Equal(t, SeverityRank(SeverityInfo), SeverityRank("mystery"))
}

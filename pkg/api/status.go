/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package api

// JobStatus is the lifecycle state of a job.
type JobStatus string

const (
	JobUninitialized    JobStatus = "uninitialized"
	JobBlocked          JobStatus = "blocked"
	JobReady            JobStatus = "ready"
	JobSubmittedPending JobStatus = "submitted_pending"
	JobSubmitted        JobStatus = "submitted"
	JobRunning          JobStatus = "running"
	JobDone             JobStatus = "done"
	JobTerminated       JobStatus = "terminated"
	JobCanceled         JobStatus = "canceled"
	JobDisabled         JobStatus = "disabled"
)

// IsTerminal reports whether no further automatic transition applies.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobDone, JobTerminated, JobCanceled, JobDisabled:
		return true
	}
	return false
}

// IsActive reports whether the job is claimed or executing. Active jobs
// block status resets unless forced.
func (s JobStatus) IsActive() bool {
	switch s {
	case JobSubmittedPending, JobSubmitted, JobRunning:
		return true
	}
	return false
}

// CanTransition reports whether the state machine allows moving from s to
// next. Cancel is allowed from every non-terminal state.
func (s JobStatus) CanTransition(next JobStatus) bool {
	if next == JobCanceled {
		return !s.IsTerminal()
	}
	switch s {
	case JobUninitialized:
		return next == JobReady || next == JobBlocked || next == JobDisabled
	case JobBlocked:
		return next == JobReady || next == JobTerminated || next == JobUninitialized
	case JobReady:
		return next == JobSubmittedPending || next == JobSubmitted || next == JobUninitialized
	case JobSubmittedPending, JobSubmitted:
		return next == JobRunning || next == JobTerminated
	case JobRunning:
		return next == JobDone || next == JobTerminated
	case JobDone:
		return next == JobUninitialized
	case JobTerminated, JobCanceled:
		return next == JobUninitialized
	case JobDisabled:
		return false
	}
	return false
}

// ScheduledComputeNode statuses.
const (
	ScheduledNodePending = "pending"
	ScheduledNodeActive  = "active"
	ScheduledNodeDone    = "complete"
)

// Event severities, ordered weakest to strongest.
const (
	SeverityDebug = "debug"
	SeverityInfo  = "info"
	SeverityWarn  = "warning"
	SeverityError = "error"
)

// SeverityRank maps a severity to its ordering weight for stream filtering.
func SeverityRank(severity string) int {
	switch severity {
	case SeverityDebug:
		return 0
	case SeverityInfo:
		return 1
	case SeverityWarn:
		return 2
	case SeverityError:
		return 3
	}
	return 1
}

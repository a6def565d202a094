/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package api

import (
	"encoding/json"
	"time"
)

// Workflow is the top-level container owning every other entity. All child
// rows carry the workflow id and are cascade-deleted with it.
type Workflow struct {
	ID          int64  `json:"id,omitempty"`
	Name        string `json:"name"`
	User        string `json:"user"`
	Description string `json:"description,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
	IsArchived  bool   `json:"is_archived,omitempty"`
	IsCanceled  bool   `json:"is_canceled,omitempty"`
	RunID       int64  `json:"run_id,omitempty"`

	ResourceMonitor *ResourceMonitorConfig `json:"resource_monitor,omitempty"`
}

// ResourceMonitorConfig controls per-job resource telemetry collection.
type ResourceMonitorConfig struct {
	Granularity   string `json:"granularity"`
	PeriodSeconds int    `json:"period_seconds"`
}

// Job is one shell invocation governed by dependencies, status, and
// resource needs. Name is unique within the workflow.
type Job struct {
	ID                      int64  `json:"id,omitempty"`
	WorkflowID              int64  `json:"workflow_id"`
	Name                    string `json:"name"`
	Command                 string `json:"command"`
	InvocationScript        string `json:"invocation_script,omitempty"`
	CancelOnBlockingFailure bool   `json:"cancel_on_blocking_failure,omitempty"`
	SupportsTermination     bool   `json:"supports_termination,omitempty"`
	ResourceRequirementsID  int64  `json:"resource_requirements_id,omitempty"`
	SchedulerID             int64  `json:"scheduler_id,omitempty"`
	Status                  JobStatus `json:"status,omitempty"`
	RunID                   int64  `json:"run_id,omitempty"`

	FailureHandler *FailureHandler `json:"failure_handler,omitempty"`
}

// FailureHandler controls automatic retry of terminated jobs.
type FailureHandler struct {
	MaxRetries  int     `json:"max_retries"`
	RetryCount  int     `json:"retry_count,omitempty"`
	ReturnCodes []int   `json:"return_codes,omitempty"`
}

// ResourceRequirements is a named resource profile referenced by jobs.
type ResourceRequirements struct {
	ID         int64  `json:"id,omitempty"`
	WorkflowID int64  `json:"workflow_id"`
	Name       string `json:"name"`
	NumCPUs    int    `json:"num_cpus"`
	NumGPUs    int    `json:"num_gpus,omitempty"`
	NumNodes   int    `json:"num_nodes"`
	Memory     string `json:"memory"`
	Runtime    string `json:"runtime"`
}

// SlurmScheduler holds the sbatch directives for one scheduler config.
type SlurmScheduler struct {
	ID         int64  `json:"id,omitempty"`
	WorkflowID int64  `json:"workflow_id"`
	Name       string `json:"name"`
	Account    string `json:"account"`
	Nodes      int    `json:"nodes"`
	Walltime   string `json:"walltime"`
	Partition  string `json:"partition,omitempty"`
	QOS        string `json:"qos,omitempty"`
	Memory     string `json:"mem,omitempty"`
	Gres       string `json:"gres,omitempty"`
	Tmp        string `json:"tmp,omitempty"`
	Extra      string `json:"extra,omitempty"`
}

// File is a named filesystem artifact produced or consumed by jobs.
type File struct {
	ID         int64  `json:"id,omitempty"`
	WorkflowID int64  `json:"workflow_id"`
	Name       string `json:"name"`
	Path       string `json:"path"`
	MTime      int64  `json:"st_mtime,omitempty"`
}

// UserData is a named JSON blob passed between jobs. Ephemeral data is
// cleared between runs. UpdatedAt is stamped by the store on every create
// and update; reinitialise compares it against job completion times the same
// way it compares file mtimes.
type UserData struct {
	ID          int64           `json:"id,omitempty"`
	WorkflowID  int64           `json:"workflow_id"`
	Name        string          `json:"name"`
	Data        json.RawMessage `json:"data,omitempty"`
	IsEphemeral bool            `json:"is_ephemeral,omitempty"`
	UpdatedAt   int64           `json:"updated_at,omitempty"`
}

// WorkflowAction is a trigger-to-action rule bound to a workflow. The store
// increments TriggerCount once per matching event; when the count reaches
// RequiredTriggers the action becomes pending and may be claimed exactly once.
type WorkflowAction struct {
	ID               int64   `json:"id,omitempty"`
	WorkflowID       int64   `json:"workflow_id"`
	TriggerType      string  `json:"trigger_type"`
	ActionType       string  `json:"action_type"`
	TriggerCount     int     `json:"trigger_count,omitempty"`
	RequiredTriggers int     `json:"required_triggers"`
	JobIDs           []int64 `json:"job_ids,omitempty"`
	Executed         bool    `json:"executed,omitempty"`
	ExecutedAt       string  `json:"executed_at,omitempty"`

	// Action parameters.
	SchedulerName  string `json:"scheduler_name,omitempty"`
	SchedulerID    int64  `json:"scheduler_id,omitempty"`
	NumAllocations int    `json:"num_allocations,omitempty"`
}

// ScheduledComputeNode is the bookkeeping row for one HPC allocation.
type ScheduledComputeNode struct {
	ID                int64  `json:"id,omitempty"`
	WorkflowID        int64  `json:"workflow_id"`
	SchedulerConfigID int64  `json:"scheduler_config_id"`
	SchedulerJobID    string `json:"scheduler_id"`
	SchedulerType     string `json:"scheduler_type"`
	Status            string `json:"status"`
}

// ComputeNode is a live worker registration against a workflow.
type ComputeNode struct {
	ID               int64                 `json:"id,omitempty"`
	WorkflowID       int64                 `json:"workflow_id"`
	Hostname         string                `json:"hostname"`
	Pid              int                   `json:"pid"`
	StartTime        string                `json:"start_time"`
	Resources        ComputeNodeResources  `json:"resources"`
	SchedulerType    string                `json:"scheduler_type,omitempty"`
	ScheduledNodeID  int64                 `json:"scheduled_compute_node_id,omitempty"`
	IsActive         bool                  `json:"is_active"`
	DurationSeconds  float64               `json:"duration_seconds,omitempty"`
}

// ComputeNodeResources describes the resources available on a worker.
type ComputeNodeResources struct {
	NumCPUs  int    `json:"num_cpus"`
	Memory   string `json:"memory"`
	NumGPUs  int    `json:"num_gpus,omitempty"`
	NumNodes int    `json:"num_nodes"`
}

// Result is the per-run outcome of one job execution.
type Result struct {
	ID              int64     `json:"id,omitempty"`
	JobID           int64     `json:"job_id"`
	WorkflowID      int64     `json:"workflow_id"`
	RunID           int64     `json:"run_id"`
	ReturnCode      int       `json:"return_code"`
	CompletionTime  string    `json:"completion_time"`
	ExecTimeMinutes float64   `json:"exec_time_minutes"`
	PeakMemoryBytes int64     `json:"peak_memory_bytes,omitempty"`
	AvgMemoryBytes  int64     `json:"avg_memory_bytes,omitempty"`
	PeakCPUPercent  float64   `json:"peak_cpu_percent,omitempty"`
	AvgCPUPercent   float64   `json:"avg_cpu_percent,omitempty"`
	Status          JobStatus `json:"status"`
}

// Event is an immutable log record attached to a workflow.
type Event struct {
	ID         int64           `json:"id,omitempty"`
	WorkflowID int64           `json:"workflow_id"`
	Timestamp  int64           `json:"timestamp"`
	Category   string          `json:"category"`
	EventType  string          `json:"event_type,omitempty"`
	Severity   string          `json:"severity,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// JobDependency is a blocker-to-blocked edge. The blocked job stays Blocked
// until the blocking job reaches Done.
type JobDependency struct {
	ID            int64 `json:"id,omitempty"`
	WorkflowID    int64 `json:"workflow_id"`
	BlockingJobID int64 `json:"blocking_job_id"`
	BlockedJobID  int64 `json:"blocked_job_id"`
}

// JobFile relates a job to a file it produces or consumes.
type JobFile struct {
	ID         int64  `json:"id,omitempty"`
	WorkflowID int64  `json:"workflow_id"`
	JobID      int64  `json:"job_id"`
	FileID     int64  `json:"file_id"`
	Relation   string `json:"relation"`
}

// JobUserData relates a job to a user-data blob it produces or consumes.
type JobUserData struct {
	ID         int64  `json:"id,omitempty"`
	WorkflowID int64  `json:"workflow_id"`
	JobID      int64  `json:"job_id"`
	UserDataID int64  `json:"user_data_id"`
	Relation   string `json:"relation"`
}

// Relation values for JobFile and JobUserData edges.
const (
	RelationProduces = "produces"
	RelationConsumes = "consumes"
)

// NowTimestamp returns the wall-clock time formatted the way the store
// expects workflow and result timestamps.
func NowTimestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

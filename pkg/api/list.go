/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package api

// ListParams are the paging controls every list endpoint accepts.
type ListParams struct {
	Offset      int    `json:"offset,omitempty"`
	Limit       int    `json:"limit,omitempty"`
	SortBy      string `json:"sort_by,omitempty"`
	ReverseSort bool   `json:"reverse_sort,omitempty"`
}

// DefaultListLimit is applied when a caller does not set Limit.
const DefaultListLimit = 100

// ListResponse is the envelope every list endpoint returns. HasMore is false
// once all items for the current query have been returned; iterator clients
// advance Offset by the number of items actually received.
type ListResponse[T any] struct {
	Items      []T  `json:"items"`
	HasMore    bool `json:"has_more"`
	TotalCount int  `json:"total_count"`
}

// JobFilter narrows job list queries.
type JobFilter struct {
	ListParams
	Status               JobStatus `json:"status,omitempty"`
	NeedsFileID          int64     `json:"needs_file_id,omitempty"`
	UpstreamJobID        int64     `json:"upstream_job_id,omitempty"`
	ActiveComputeNodeID  int64     `json:"active_compute_node_id,omitempty"`
	IncludeRelationships bool      `json:"include_relationships,omitempty"`
	Name                 string    `json:"name,omitempty"`
}

// FileFilter narrows file list queries.
type FileFilter struct {
	ListParams
	ProducedByJobID int64  `json:"produced_by_job_id,omitempty"`
	Name            string `json:"name,omitempty"`
	Path            string `json:"path,omitempty"`
	IsOutput        bool   `json:"is_output,omitempty"`
}

// UserDataFilter narrows user-data list queries.
type UserDataFilter struct {
	ListParams
	ConsumerJobID int64  `json:"consumer_job_id,omitempty"`
	ProducerJobID int64  `json:"producer_job_id,omitempty"`
	Name          string `json:"name,omitempty"`
	IsEphemeral   bool   `json:"is_ephemeral,omitempty"`
}

// ResultFilter narrows result list queries.
type ResultFilter struct {
	ListParams
	JobID         int64     `json:"job_id,omitempty"`
	RunID         int64     `json:"run_id,omitempty"`
	ReturnCode    *int      `json:"return_code,omitempty"`
	Status        JobStatus `json:"status,omitempty"`
	ComputeNodeID int64     `json:"compute_node_id,omitempty"`
	AllRuns       bool      `json:"all_runs,omitempty"`
}

// EventFilter narrows event list queries.
type EventFilter struct {
	ListParams
	Category       string `json:"category,omitempty"`
	AfterTimestamp int64  `json:"after_timestamp,omitempty"`
}

// ScheduledNodeFilter narrows scheduled-compute-node list queries.
type ScheduledNodeFilter struct {
	ListParams
	SchedulerJobID    string `json:"scheduler_id,omitempty"`
	SchedulerConfigID int64  `json:"scheduler_config_id,omitempty"`
	Status            string `json:"status,omitempty"`
}

// WorkflowStatusSummary is the aggregate returned by the workflow status
// endpoint.
type WorkflowStatusSummary struct {
	WorkflowID    int64             `json:"workflow_id"`
	RunID         int64             `json:"run_id"`
	IsCanceled    bool              `json:"is_canceled"`
	IsComplete    bool              `json:"is_complete"`
	JobCounts     map[string]int    `json:"job_counts"`
}

// InitializationCheck is the dry-run readiness report.
type InitializationCheck struct {
	Safe                bool     `json:"safe"`
	MissingInputFiles   []string `json:"missing_input_files"`
	ExistingOutputFiles []string `json:"existing_output_files"`
}

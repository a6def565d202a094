/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package common

// Version is the client version reported during the store handshake.
const Version = "0.6.0"

// Trigger types recognised on workflow actions.
const (
	TriggerWorkflowStart       = "on_workflow_start"
	TriggerJobComplete         = "on_job_complete"
	TriggerDependencySatisfied = "on_dependency_satisfied"
	TriggerWorkflowComplete    = "on_workflow_complete"
)

// Action types recognised on workflow actions.
const (
	ActionScheduleNodes  = "schedule_nodes"
	ActionCancelWorkflow = "cancel_workflow"
	ActionSendEvent      = "send_event"
)

// Event categories used on workflow event rows.
const (
	EventCategoryWorkflow  = "workflow"
	EventCategoryJob       = "job"
	EventCategoryScheduler = "scheduler"
	EventCategoryWorker    = "worker"
)

// Scheduler types.
const (
	SchedulerTypeSlurm = "slurm"
	SchedulerTypeLocal = "local"
)

// Allocation modes for HPC scheduling. NodesPerAllocation submits one sbatch
// script per node (N x 1); AllocationPerNodes submits one script requesting
// every node at once (1 x N).
const (
	AllocationModeNx1 = "nodes_per_allocation"
	AllocationMode1xN = "allocation_per_nodes"
)

// Resource monitor granularities.
const (
	MonitorGranularitySummary  = "summary"
	MonitorGranularityDetailed = "detailed"
)

// Entity kind names used in error context and validation messages.
const (
	KindWorkflow             = "workflow"
	KindJob                  = "job"
	KindFile                 = "file"
	KindUserData             = "user_data"
	KindResourceRequirements = "resource_requirements"
	KindScheduler            = "scheduler"
	KindAction               = "workflow_action"
)

// MaxJobBatchSize caps how many jobs one create call carries.
const MaxJobBatchSize = 1000

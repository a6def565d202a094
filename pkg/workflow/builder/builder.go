/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

// Package builder materialises a resolved workflow into the persistent
// store. Creation is transactional at the workflow level: any failure after
// the workflow row exists rolls the whole workflow back.
package builder

import (
	"context"

	"k8s.io/klog/v2"

	"github.com/NREL/torc-sub003/pkg/api"
	"github.com/NREL/torc-sub003/pkg/client"
	"github.com/NREL/torc-sub003/pkg/common"
	torcerrors "github.com/NREL/torc-sub003/pkg/errors"
	"github.com/NREL/torc-sub003/pkg/workflow/spec"
)

// Options tunes workflow materialisation.
type Options struct {
	EnableResourceMonitoring bool
	MonitorGranularity       string
	MonitorPeriodSeconds     int
	SkipChecks               bool
}

// DefaultOptions returns the creation defaults: summary-level resource
// monitoring every five seconds.
func DefaultOptions() Options {
	return Options{
		EnableResourceMonitoring: true,
		MonitorGranularity:       common.MonitorGranularitySummary,
		MonitorPeriodSeconds:     5,
	}
}

// ApplyDefaults fills in spec-level defaults before validation: a
// schedule_nodes action without an allocation count requests one allocation.
func ApplyDefaults(workflow *spec.WorkflowSpec) {
	for i := range workflow.Actions {
		action := &workflow.Actions[i]
		if action.ActionType == common.ActionScheduleNodes && action.NumAllocations == 0 {
			action.NumAllocations = 1
		}
	}
}

// Materialise creates every entity and edge of a resolved workflow in the
// store, in dependency order, and returns the new workflow id. On any
// failure the workflow is deleted best-effort and a materialise error wraps
// the cause; the store never retains partial workflows.
func Materialise(ctx context.Context, c *client.Client, resolved *spec.ResolvedWorkflow, user string, opts Options) (int64, error) {
	workflow := &api.Workflow{
		Name:        resolved.Spec.Name,
		User:        user,
		Description: resolved.Spec.Description,
		Timestamp:   api.NowTimestamp(),
	}
	if resolved.Spec.User != "" {
		workflow.User = resolved.Spec.User
	}
	if opts.EnableResourceMonitoring {
		workflow.ResourceMonitor = &api.ResourceMonitorConfig{
			Granularity:   opts.MonitorGranularity,
			PeriodSeconds: opts.MonitorPeriodSeconds,
		}
	} else if resolved.Spec.ResourceMonitor != nil {
		workflow.ResourceMonitor = resolved.Spec.ResourceMonitor
	}

	created, err := c.CreateWorkflow(ctx, workflow)
	if err != nil {
		return 0, torcerrors.NewMaterialiseError("create_workflow", err)
	}
	workflowID := created.ID
	klog.V(2).Infof("created workflow %s with id %d", workflow.Name, workflowID)

	rollback := func(step string, cause error) (int64, error) {
		if err := c.DeleteWorkflow(ctx, workflowID); err != nil {
			klog.ErrorS(err, "failed to roll back workflow after materialise failure",
				"workflowID", workflowID, "step", step)
		}
		return 0, torcerrors.NewMaterialiseError(step, cause)
	}

	requirementIDs := make(map[string]int64, len(resolved.Spec.ResourceRequirements))
	for _, rr := range resolved.Spec.ResourceRequirements {
		row, err := c.CreateResourceRequirements(ctx, &api.ResourceRequirements{
			WorkflowID: workflowID,
			Name:       rr.Name,
			NumCPUs:    rr.NumCPUs,
			NumGPUs:    rr.NumGPUs,
			NumNodes:   rr.NumNodes,
			Memory:     rr.Memory,
			Runtime:    rr.Runtime,
		})
		if err != nil {
			return rollback("create_resource_requirements", err)
		}
		requirementIDs[rr.Name] = row.ID
	}

	schedulerIDs := make(map[string]int64, len(resolved.Spec.SlurmSchedulers))
	for _, s := range resolved.Spec.SlurmSchedulers {
		row, err := c.CreateScheduler(ctx, &api.SlurmScheduler{
			WorkflowID: workflowID,
			Name:       s.Name,
			Account:    s.Account,
			Nodes:      s.Nodes,
			Walltime:   s.Walltime,
			Partition:  s.Partition,
			QOS:        s.QOS,
			Memory:     s.Memory,
			Gres:       s.Gres,
			Tmp:        s.Tmp,
			Extra:      s.Extra,
		})
		if err != nil {
			return rollback("create_scheduler", err)
		}
		schedulerIDs[s.Name] = row.ID
	}

	userDataIDs := make(map[string]int64, len(resolved.Spec.UserData))
	for _, ud := range resolved.Spec.UserData {
		row, err := c.CreateUserData(ctx, &api.UserData{
			WorkflowID:  workflowID,
			Name:        ud.Name,
			Data:        ud.Data,
			IsEphemeral: ud.IsEphemeral,
		})
		if err != nil {
			return rollback("create_user_data", err)
		}
		userDataIDs[ud.Name] = row.ID
	}

	fileIDs := make(map[string]int64, len(resolved.Spec.Files))
	for _, file := range resolved.Spec.Files {
		row, err := c.CreateFile(ctx, &api.File{
			WorkflowID: workflowID,
			Name:       file.Name,
			Path:       file.Path,
		})
		if err != nil {
			return rollback("create_file", err)
		}
		fileIDs[file.Name] = row.ID
	}

	jobs := make([]api.Job, 0, len(resolved.Jobs))
	for _, job := range resolved.Jobs {
		row := api.Job{
			WorkflowID:              workflowID,
			Name:                    job.Spec.Name,
			Command:                 job.Spec.Command,
			InvocationScript:        job.Spec.InvocationScript,
			CancelOnBlockingFailure: job.Spec.CancelOnBlockingFailure,
			SupportsTermination:     job.Spec.SupportsTermination,
			Status:                  api.JobUninitialized,
			FailureHandler:          job.Spec.FailureHandler,
		}
		if job.Spec.ResourceRequirements != "" {
			row.ResourceRequirementsID = requirementIDs[job.Spec.ResourceRequirements]
		}
		if job.Spec.Scheduler != "" {
			row.SchedulerID = schedulerIDs[job.Spec.Scheduler]
		}
		jobs = append(jobs, row)
	}
	createdJobs, err := c.CreateJobs(ctx, workflowID, jobs)
	if err != nil {
		return rollback("create_jobs", err)
	}
	jobIDs := make(map[string]int64, len(createdJobs))
	for _, job := range createdJobs {
		jobIDs[job.Name] = job.ID
	}

	if err := createEdges(ctx, c, workflowID, resolved, jobIDs, fileIDs, userDataIDs); err != nil {
		return rollback("create_edges", err)
	}

	for _, action := range resolved.Spec.Actions {
		row := &api.WorkflowAction{
			WorkflowID:       workflowID,
			TriggerType:      action.TriggerType,
			ActionType:       action.ActionType,
			RequiredTriggers: requiredTriggers(action, len(resolved.Jobs)),
			NumAllocations:   action.NumAllocations,
			SchedulerName:    action.Scheduler,
		}
		if action.Scheduler != "" {
			row.SchedulerID = schedulerIDs[action.Scheduler]
		}
		for _, name := range action.Jobs {
			row.JobIDs = append(row.JobIDs, jobIDs[name])
		}
		if _, err := c.CreateWorkflowAction(ctx, row); err != nil {
			return rollback("create_workflow_action", err)
		}
	}

	klog.Infof("materialised workflow %d: %d jobs, %d files, %d user_data, %d actions",
		workflowID, len(resolved.Jobs), len(resolved.Spec.Files), len(resolved.Spec.UserData),
		len(resolved.Spec.Actions))
	return workflowID, nil
}

// createEdges writes the dependency and data-flow edges in the resolver's
// deterministic order.
func createEdges(ctx context.Context, c *client.Client, workflowID int64, resolved *spec.ResolvedWorkflow,
	jobIDs, fileIDs, userDataIDs map[string]int64) error {
	var dependencies []api.JobDependency
	var jobFiles []api.JobFile
	var jobUserData []api.JobUserData
	for _, job := range resolved.Jobs {
		jobID := jobIDs[job.Spec.Name]
		for _, blocker := range job.DependsOn {
			dependencies = append(dependencies, api.JobDependency{
				WorkflowID:    workflowID,
				BlockingJobID: jobIDs[blocker],
				BlockedJobID:  jobID,
			})
		}
		for _, name := range job.InputFiles {
			jobFiles = append(jobFiles, api.JobFile{
				WorkflowID: workflowID,
				JobID:      jobID,
				FileID:     fileIDs[name],
				Relation:   api.RelationConsumes,
			})
		}
		for _, name := range job.OutputFiles {
			jobFiles = append(jobFiles, api.JobFile{
				WorkflowID: workflowID,
				JobID:      jobID,
				FileID:     fileIDs[name],
				Relation:   api.RelationProduces,
			})
		}
		for _, name := range job.InputUserData {
			jobUserData = append(jobUserData, api.JobUserData{
				WorkflowID: workflowID,
				JobID:      jobID,
				UserDataID: userDataIDs[name],
				Relation:   api.RelationConsumes,
			})
		}
		for _, name := range job.OutputUserData {
			jobUserData = append(jobUserData, api.JobUserData{
				WorkflowID: workflowID,
				JobID:      jobID,
				UserDataID: userDataIDs[name],
				Relation:   api.RelationProduces,
			})
		}
	}
	if err := c.CreateJobDependencies(ctx, workflowID, dependencies); err != nil {
		return err
	}
	if err := c.CreateJobFiles(ctx, workflowID, jobFiles); err != nil {
		return err
	}
	return c.CreateJobUserData(ctx, workflowID, jobUserData)
}

// requiredTriggers derives an action's firing threshold when the document
// does not set one. A workflow-complete action waits for every job; a
// job-complete action waits for each job it names.
func requiredTriggers(action spec.WorkflowActionSpec, jobCount int) int {
	if action.RequiredTriggers > 0 {
		return action.RequiredTriggers
	}
	switch action.TriggerType {
	case common.TriggerWorkflowComplete:
		return jobCount
	case common.TriggerJobComplete, common.TriggerDependencySatisfied:
		if len(action.Jobs) > 0 {
			return len(action.Jobs)
		}
		return 1
	}
	return 1
}

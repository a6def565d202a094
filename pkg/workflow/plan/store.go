/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package plan

import (
	"context"
	"sort"

	"github.com/NREL/torc-sub003/pkg/api"
	"github.com/NREL/torc-sub003/pkg/client"
	"github.com/NREL/torc-sub003/pkg/workflow/spec"
)

// BuildFromWorkflow derives the execution plan of a materialised workflow by
// reading its jobs, dependency edges, schedulers, and actions back from the
// store. The result matches what Build returns for the document the workflow
// was created from.
func BuildFromWorkflow(ctx context.Context, c *client.Client, workflowID int64) (*ExecutionPlan, error) {
	workflow, err := c.GetWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	jobs, err := client.CollectAll(func(params api.ListParams) (api.ListResponse[api.Job], error) {
		return c.ListJobs(ctx, workflowID, api.JobFilter{ListParams: params})
	})
	if err != nil {
		return nil, err
	}
	edges, err := client.CollectAll(func(params api.ListParams) (api.ListResponse[api.JobDependency], error) {
		return c.ListJobDependencies(ctx, workflowID, params)
	})
	if err != nil {
		return nil, err
	}
	schedulers, err := client.CollectAll(func(params api.ListParams) (api.ListResponse[api.SlurmScheduler], error) {
		return c.ListSchedulers(ctx, workflowID, params)
	})
	if err != nil {
		return nil, err
	}
	actions, err := client.CollectAll(func(params api.ListParams) (api.ListResponse[api.WorkflowAction], error) {
		return c.ListWorkflowActions(ctx, workflowID, params)
	})
	if err != nil {
		return nil, err
	}

	jobName := make(map[int64]string, len(jobs))
	for _, job := range jobs {
		jobName[job.ID] = job.Name
	}
	blockers := make(map[int64][]string)
	for _, edge := range edges {
		blockers[edge.BlockedJobID] = append(blockers[edge.BlockedJobID], jobName[edge.BlockingJobID])
	}
	schedulerName := make(map[int64]string, len(schedulers))
	for _, scheduler := range schedulers {
		schedulerName[scheduler.ID] = scheduler.Name
	}

	doc := &spec.WorkflowSpec{Name: workflow.Name}
	resolved := &spec.ResolvedWorkflow{Spec: doc}
	for _, job := range jobs {
		dependsOn := append([]string(nil), blockers[job.ID]...)
		sort.Strings(dependsOn)
		resolved.Jobs = append(resolved.Jobs, spec.ResolvedJob{
			Spec:      spec.JobSpec{Name: job.Name, Command: job.Command},
			DependsOn: dependsOn,
		})
	}
	for _, a := range actions {
		scheduler := a.SchedulerName
		if scheduler == "" {
			scheduler = schedulerName[a.SchedulerID]
		}
		var jobNames []string
		for _, id := range a.JobIDs {
			jobNames = append(jobNames, jobName[id])
		}
		sort.Strings(jobNames)
		doc.Actions = append(doc.Actions, spec.WorkflowActionSpec{
			TriggerType:      a.TriggerType,
			ActionType:       a.ActionType,
			RequiredTriggers: a.RequiredTriggers,
			Jobs:             jobNames,
			Scheduler:        scheduler,
			NumAllocations:   a.NumAllocations,
		})
	}
	return Build(resolved), nil
}

/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

// Package orchestrator composes the workflow subsystems into the high-level
// flows the CLI exposes: create, submit, run locally, watch, cancel,
// reinitialise, reset, delete.
package orchestrator

import (
	"context"
	"time"

	"k8s.io/klog/v2"

	"github.com/NREL/torc-sub003/pkg/api"
	"github.com/NREL/torc-sub003/pkg/client"
	"github.com/NREL/torc-sub003/pkg/common"
	"github.com/NREL/torc-sub003/pkg/config"
	torcerrors "github.com/NREL/torc-sub003/pkg/errors"
	"github.com/NREL/torc-sub003/pkg/slurm"
	"github.com/NREL/torc-sub003/pkg/workflow/action"
	"github.com/NREL/torc-sub003/pkg/workflow/builder"
	"github.com/NREL/torc-sub003/pkg/workflow/spec"
	"github.com/NREL/torc-sub003/pkg/workflow/status"
)

// Orchestrator drives end-to-end workflow flows against one store.
type Orchestrator struct {
	client  *client.Client
	status  *status.Engine
	slurm   *slurm.Manager
	actions *action.Engine
}

// New wires an orchestrator from a store client, using the configured Slurm
// shell commands.
func New(c *client.Client) *Orchestrator {
	manager := slurm.NewManager(c, slurm.NewCommandRunner())
	return &Orchestrator{
		client:  c,
		status:  status.NewEngine(c),
		slurm:   manager,
		actions: action.NewEngine(c, manager),
	}
}

// NewWithSlurm wires an orchestrator with an explicit Slurm interface; tests
// substitute a recording fake.
func NewWithSlurm(c *client.Client, slurmIface slurm.Interface) *Orchestrator {
	manager := slurm.NewManager(c, slurmIface)
	return &Orchestrator{
		client:  c,
		status:  status.NewEngine(c),
		slurm:   manager,
		actions: action.NewEngine(c, manager),
	}
}

// Status returns the orchestrator's status engine.
func (o *Orchestrator) Status() *status.Engine {
	return o.status
}

// Slurm returns the orchestrator's allocation manager.
func (o *Orchestrator) Slurm() *slurm.Manager {
	return o.slurm
}

// CreateOptions tunes workflow creation.
type CreateOptions struct {
	builder.Options
	DryRun bool
}

// DefaultCreateOptions returns the standard creation defaults.
func DefaultCreateOptions() CreateOptions {
	return CreateOptions{Options: builder.DefaultOptions()}
}

// Create runs the full creation pipeline on a workflow document: parse,
// expand, resolve, validate, materialise. DryRun stops after validation and
// returns zero.
func (o *Orchestrator) Create(ctx context.Context, specPath, user string, opts CreateOptions) (int64, error) {
	parsed, err := spec.Parse(specPath)
	if err != nil {
		return 0, err
	}
	return o.createFromSpec(ctx, parsed, user, opts)
}

// CreateWithSchedulers synthesises scheduler entries from an HPC profile and
// a schedule_nodes action per resource class before running the normal
// creation pipeline.
func (o *Orchestrator) CreateWithSchedulers(ctx context.Context, specPath, user, account, profileName,
	allocationMode string, numAllocations int, opts CreateOptions) (int64, error) {
	parsed, err := spec.Parse(specPath)
	if err != nil {
		return 0, err
	}
	profile, err := slurm.LookupProfile(profileName)
	if err != nil {
		return 0, err
	}
	expanded, err := spec.Expand(parsed)
	if err != nil {
		return 0, err
	}
	schedulers, err := slurm.SynthesiseSchedulers(expanded, account, profile)
	if err != nil {
		return 0, err
	}
	if numAllocations < 1 {
		numAllocations = 1
	}
	expanded.SlurmSchedulers = append(expanded.SlurmSchedulers, schedulers...)
	for _, scheduler := range schedulers {
		expanded.Actions = append(expanded.Actions, spec.WorkflowActionSpec{
			TriggerType:    common.TriggerWorkflowStart,
			ActionType:     common.ActionScheduleNodes,
			Scheduler:      scheduler.Name,
			NumAllocations: numAllocations,
		})
	}
	if allocationMode != "" && allocationMode != common.AllocationModeNx1 &&
		allocationMode != common.AllocationMode1xN {
		return 0, torcerrors.NewValidationFailure("unknown allocation mode " + allocationMode)
	}
	return o.createFromSpec(ctx, expanded, user, opts)
}

func (o *Orchestrator) createFromSpec(ctx context.Context, parsed *spec.WorkflowSpec, user string,
	opts CreateOptions) (int64, error) {
	expanded, err := spec.Expand(parsed)
	if err != nil {
		return 0, err
	}
	builder.ApplyDefaults(expanded)
	resolved, err := spec.Resolve(expanded)
	if err != nil {
		return 0, err
	}
	if err := spec.Validate(resolved, spec.ValidateOptions{SkipChecks: opts.SkipChecks}); err != nil {
		return 0, err
	}
	if opts.DryRun {
		klog.Infof("dry run: workflow %s validates with %d jobs", expanded.Name, len(expanded.Jobs))
		return 0, nil
	}
	return builder.Materialise(ctx, o.client, resolved, user, opts.Options)
}

// Submit fires the workflow-start trigger, initialising first when needed.
// The workflow must carry at least one schedule_nodes action on workflow
// start; otherwise nothing would ever run the jobs.
func (o *Orchestrator) Submit(ctx context.Context, workflowID int64, force bool) error {
	actions, err := client.CollectAll(func(params api.ListParams) (api.ListResponse[api.WorkflowAction], error) {
		return o.client.ListWorkflowActions(ctx, workflowID, params)
	})
	if err != nil {
		return err
	}
	hasScheduleOnStart := false
	for _, a := range actions {
		if a.TriggerType == common.TriggerWorkflowStart && a.ActionType == common.ActionScheduleNodes {
			hasScheduleOnStart = true
			break
		}
	}
	if !hasScheduleOnStart {
		return torcerrors.NewValidationFailure(
			"workflow has no schedule_nodes action on workflow start; nothing would run the jobs")
	}

	uninitialized, err := o.client.IsWorkflowUninitialized(ctx, workflowID)
	if err != nil {
		return err
	}
	if uninitialized {
		if err := o.status.Initialise(ctx, workflowID, force); err != nil {
			return err
		}
	}
	return o.actions.ProcessTrigger(ctx, workflowID, client.TriggerEvent{
		TriggerType: common.TriggerWorkflowStart,
	})
}

// Cancel flips the workflow's canceled flag and cancels every outstanding
// allocation. Workers observe the flag on their next poll.
func (o *Orchestrator) Cancel(ctx context.Context, workflowID int64) error {
	if err := o.client.CancelWorkflow(ctx, workflowID); err != nil {
		return err
	}
	return o.slurm.CancelAllocations(ctx, workflowID)
}

// Reinitialise recomputes readiness, rerunning Done jobs whose inputs
// changed. With dryRun it only reports what initialise would find.
func (o *Orchestrator) Reinitialise(ctx context.Context, workflowID int64, force, dryRun bool) (*api.InitializationCheck, error) {
	if dryRun {
		return o.status.CheckInitialisation(ctx, workflowID)
	}
	if err := o.status.Reinitialise(ctx, workflowID, force); err != nil {
		return nil, err
	}
	return nil, nil
}

// ResetStatus reverts job statuses to Uninitialized.
func (o *Orchestrator) ResetStatus(ctx context.Context, workflowID int64, failedOnly, force bool) error {
	return o.status.ResetStatus(ctx, workflowID, failedOnly, force)
}

// Delete removes a workflow after an ownership check; force overrides the
// check for administrators.
func (o *Orchestrator) Delete(ctx context.Context, workflowID int64, caller string, force bool) error {
	workflow, err := o.client.GetWorkflow(ctx, workflowID)
	if err != nil {
		return err
	}
	if !force && workflow.User != caller {
		return torcerrors.NewUnauthorisedDelete(workflow.User, caller)
	}
	return o.client.DeleteWorkflow(ctx, workflowID)
}

// Watch tails the workflow's event stream until the context ends or the
// workflow completes. With autoRecover, terminated jobs whose failure
// handler still has retries left are re-readied.
func (o *Orchestrator) Watch(ctx context.Context, workflowID int64, minSeverity string, autoRecover bool) error {
	pollInterval := time.Duration(config.GetWatchPollSecond()) * time.Second
	maxBackoff := time.Duration(config.GetWatchMaxBackoffSecond()) * time.Second
	handler := func(event api.Event) {
		klog.Infof("event %s/%s severity=%s workflow=%d data=%s",
			event.Category, event.EventType, event.Severity, event.WorkflowID, string(event.Data))
		if !autoRecover || event.Category != common.EventCategoryJob {
			return
		}
		if err := o.recoverTerminatedJobs(ctx, workflowID); err != nil {
			klog.ErrorS(err, "auto-recover pass failed", "workflowID", workflowID)
		}
	}
	return o.client.StreamEvents(ctx, workflowID, minSeverity, pollInterval, maxBackoff, handler)
}

// recoverTerminatedJobs retries Terminated jobs that still have retry budget.
// Transport errors abort the pass; the watcher never retries those.
func (o *Orchestrator) recoverTerminatedJobs(ctx context.Context, workflowID int64) error {
	jobs, err := client.CollectAll(func(params api.ListParams) (api.ListResponse[api.Job], error) {
		return o.client.ListJobs(ctx, workflowID, api.JobFilter{ListParams: params, Status: api.JobTerminated})
	})
	if err != nil {
		return err
	}
	for _, job := range jobs {
		handler := job.FailureHandler
		if handler == nil || handler.RetryCount >= handler.MaxRetries {
			continue
		}
		if err := o.client.RetryJob(ctx, workflowID, job.ID); err != nil {
			return err
		}
		klog.Infof("re-readied terminated job %s (%d/%d retries used)",
			job.Name, handler.RetryCount+1, handler.MaxRetries)
	}
	return nil
}

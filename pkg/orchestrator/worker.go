/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package orchestrator

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"time"

	"k8s.io/klog/v2"

	"github.com/NREL/torc-sub003/pkg/api"
	"github.com/NREL/torc-sub003/pkg/client"
	"github.com/NREL/torc-sub003/pkg/common"
	"github.com/NREL/torc-sub003/pkg/config"
)

// RunLocalOptions tunes the local worker loop.
type RunLocalOptions struct {
	// PollInterval between claim attempts when no job is ready; zero uses
	// the configured default.
	PollInterval time.Duration
	// MaxJobs stops the loop after this many executions; zero means run
	// until the workflow completes.
	MaxJobs int
	// Force passes through to initialise.
	Force bool
}

// RunLocal initialises the workflow and runs its jobs in-process until the
// workflow completes or is canceled. Jobs are claimed through the store's
// atomic claim primitive, so several local workers may run side by side.
func (o *Orchestrator) RunLocal(ctx context.Context, workflowID int64, opts RunLocalOptions) error {
	if err := o.status.Initialise(ctx, workflowID, opts.Force); err != nil {
		return err
	}
	if err := o.actions.ProcessTrigger(ctx, workflowID, client.TriggerEvent{
		TriggerType: common.TriggerWorkflowStart,
	}); err != nil {
		return err
	}

	poll := opts.PollInterval
	if poll <= 0 {
		poll = time.Duration(config.GetWorkerPollSecond()) * time.Second
	}
	hostname, _ := os.Hostname()
	node, err := o.client.CreateComputeNode(ctx, &api.ComputeNode{
		WorkflowID: workflowID,
		Hostname:   hostname,
		Pid:        os.Getpid(),
		StartTime:  api.NowTimestamp(),
		Resources: api.ComputeNodeResources{
			NumCPUs:  runtime.NumCPU(),
			NumNodes: 1,
		},
		SchedulerType: common.SchedulerTypeLocal,
		IsActive:      true,
	})
	if err != nil {
		return err
	}
	defer o.deactivateNode(node)

	executed := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		workflow, err := o.client.GetWorkflow(ctx, workflowID)
		if err != nil {
			return err
		}
		if workflow.IsCanceled {
			klog.Infof("workflow %d is canceled; local worker exiting", workflowID)
			return nil
		}

		job, claimed, err := o.client.ClaimNextReadyJob(ctx, workflowID, node.ID)
		if err != nil {
			return err
		}
		if !claimed {
			complete, err := o.client.IsWorkflowComplete(ctx, workflowID)
			if err != nil {
				return err
			}
			if complete {
				klog.Infof("workflow %d is complete; local worker exiting after %d jobs", workflowID, executed)
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(poll):
			}
			continue
		}

		if err := o.executeJob(ctx, workflowID, job); err != nil {
			return err
		}
		executed++
		if opts.MaxJobs > 0 && executed >= opts.MaxJobs {
			klog.Infof("local worker reached max jobs (%d); exiting", opts.MaxJobs)
			return nil
		}
	}
}

// executeJob runs one claimed job to completion, records the result, and
// fires the completion trigger.
func (o *Orchestrator) executeJob(ctx context.Context, workflowID int64, job *api.Job) error {
	klog.Infof("running job %s (id %d): %s", job.Name, job.ID, job.Command)
	if err := o.client.UpdateJobStatus(ctx, workflowID, job.ID, api.JobRunning); err != nil {
		return err
	}

	command := job.Command
	if job.InvocationScript != "" {
		command = job.InvocationScript + " " + job.Command
	}
	start := time.Now()
	cmd := exec.CommandContext(ctx, "bash", "-c", command)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	returnCode := 0
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			returnCode = exitErr.ExitCode()
		} else {
			returnCode = -1
		}
	}
	elapsed := time.Since(start)

	finalStatus := api.JobDone
	if returnCode != 0 {
		finalStatus = api.JobTerminated
	}
	workflow, err := o.client.GetWorkflow(ctx, workflowID)
	if err != nil {
		return err
	}
	if _, err := o.client.CreateResult(ctx, &api.Result{
		JobID:           job.ID,
		WorkflowID:      workflowID,
		RunID:           workflow.RunID,
		ReturnCode:      returnCode,
		CompletionTime:  api.NowTimestamp(),
		ExecTimeMinutes: elapsed.Minutes(),
		Status:          finalStatus,
	}); err != nil {
		return err
	}
	if err := o.client.UpdateJobStatus(ctx, workflowID, job.ID, finalStatus); err != nil {
		return err
	}

	if finalStatus == api.JobTerminated {
		if shouldRetry(job.FailureHandler, returnCode) {
			if err := o.client.RetryJob(ctx, workflowID, job.ID); err != nil {
				return err
			}
			klog.Infof("job %s terminated with code %d; retrying", job.Name, returnCode)
			return nil
		}
		klog.Warningf("job %s terminated with return code %d", job.Name, returnCode)
		return nil
	}
	return o.actions.ProcessTrigger(ctx, workflowID, client.TriggerEvent{
		TriggerType: common.TriggerJobComplete,
		JobID:       job.ID,
	})
}

// shouldRetry applies a job's failure handler to one termination.
func shouldRetry(handler *api.FailureHandler, returnCode int) bool {
	if handler == nil || handler.RetryCount >= handler.MaxRetries {
		return false
	}
	if len(handler.ReturnCodes) == 0 {
		return true
	}
	for _, code := range handler.ReturnCodes {
		if code == returnCode {
			return true
		}
	}
	return false
}

// deactivateNode marks the worker's compute-node row inactive on exit.
func (o *Orchestrator) deactivateNode(node *api.ComputeNode) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	node.IsActive = false
	if start, err := time.Parse(time.RFC3339, node.StartTime); err == nil {
		node.DurationSeconds = time.Since(start).Seconds()
	}
	if err := o.client.UpdateComputeNode(ctx, node); err != nil {
		klog.ErrorS(err, "failed to deactivate compute node", "nodeID", node.ID)
	}
}

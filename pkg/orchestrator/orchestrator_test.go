/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"gotest.tools/assert"

	"github.com/NREL/torc-sub003/pkg/api"
	"github.com/NREL/torc-sub003/pkg/client"
	"github.com/NREL/torc-sub003/pkg/client/storetest"
	"github.com/NREL/torc-sub003/pkg/common"
	torcerrors "github.com/NREL/torc-sub003/pkg/errors"
)

// recordingSlurm satisfies slurm.Interface without shelling out.
type recordingSlurm struct {
	mu      sync.Mutex
	submits int
	cancels []string
}

func (r *recordingSlurm) Submit(ctx context.Context, scriptPath string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.submits++
	return fmt.Sprintf("%d", 5000+r.submits), nil
}

func (r *recordingSlurm) Cancel(ctx context.Context, jobID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancels = append(r.cancels, jobID)
	return nil
}

func newTestOrchestrator(t *testing.T) (*Orchestrator, *client.Client, *recordingSlurm) {
	t.Helper()
	server := storetest.New()
	t.Cleanup(server.Close)
	c := client.New(server.URL())
	fake := &recordingSlurm{}
	return NewWithSlurm(c, fake), c, fake
}

func writeSpec(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "workflow.json")
	assert.NilError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const chainSpec = `{
	"name": "chain",
	"jobs": [
		{"name": "first", "command": "true"},
		{"name": "second", "command": "true", "depends_on": ["first"]}
	]
}`

func TestCreate(t *testing.T) {
	o, c, _ := newTestOrchestrator(t)
	ctx := context.Background()

	id, err := o.Create(ctx, writeSpec(t, chainSpec), "jdoe", DefaultCreateOptions())
	assert.NilError(t, err)
	assert.Equal(t, id > 0, true)

	workflow, err := c.GetWorkflow(ctx, id)
	assert.NilError(t, err)
	assert.Equal(t, workflow.Name, "chain")
	assert.Equal(t, workflow.User, "jdoe")
}

func TestCreateDryRun(t *testing.T) {
	o, c, _ := newTestOrchestrator(t)
	ctx := context.Background()

	opts := DefaultCreateOptions()
	opts.DryRun = true
	id, err := o.Create(ctx, writeSpec(t, chainSpec), "jdoe", opts)
	assert.NilError(t, err)
	assert.Equal(t, id, int64(0))

	page, err := c.ListWorkflows(ctx, api.ListParams{})
	assert.NilError(t, err)
	assert.Equal(t, len(page.Items), 0)
}

func TestCreateRejectsInvalidSpec(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)
	path := writeSpec(t, `{
		"name": "loop",
		"jobs": [
			{"name": "a", "command": "x", "depends_on": ["b"]},
			{"name": "b", "command": "x", "depends_on": ["a"]}
		]
	}`)
	_, err := o.Create(context.Background(), path, "jdoe", DefaultCreateOptions())
	assert.Equal(t, torcerrors.IsCycle(err), true)
}

func TestRunLocal(t *testing.T) {
	o, c, _ := newTestOrchestrator(t)
	ctx := context.Background()

	id, err := o.Create(ctx, writeSpec(t, chainSpec), "jdoe", DefaultCreateOptions())
	assert.NilError(t, err)

	assert.NilError(t, o.RunLocal(ctx, id, RunLocalOptions{}))

	jobs, err := client.CollectAll(func(params api.ListParams) (api.ListResponse[api.Job], error) {
		return c.ListJobs(ctx, id, api.JobFilter{ListParams: params})
	})
	assert.NilError(t, err)
	assert.Equal(t, len(jobs), 2)
	for _, job := range jobs {
		assert.Equal(t, job.Status, api.JobDone)
	}
	complete, err := c.IsWorkflowComplete(ctx, id)
	assert.NilError(t, err)
	assert.Equal(t, complete, true)

	results, err := c.ListResults(ctx, id, api.ResultFilter{})
	assert.NilError(t, err)
	assert.Equal(t, len(results.Items), 2)
	for _, result := range results.Items {
		assert.Equal(t, result.ReturnCode, 0)
	}

	// The worker registered and deactivated a compute node.
	nodes, err := c.ListComputeNodes(ctx, id, api.ListParams{})
	assert.NilError(t, err)
	assert.Equal(t, len(nodes.Items), 1)
	assert.Equal(t, nodes.Items[0].IsActive, false)
}

func TestRunLocalFailedJob(t *testing.T) {
	o, c, _ := newTestOrchestrator(t)
	ctx := context.Background()

	path := writeSpec(t, `{
		"name": "failing",
		"jobs": [
			{"name": "boom", "command": "exit 3"},
			{"name": "after", "command": "true", "depends_on": ["boom"]}
		]
	}`)
	id, err := o.Create(ctx, path, "jdoe", DefaultCreateOptions())
	assert.NilError(t, err)

	assert.NilError(t, o.RunLocal(ctx, id, RunLocalOptions{MaxJobs: 1}))

	jobs, err := client.CollectAll(func(params api.ListParams) (api.ListResponse[api.Job], error) {
		return c.ListJobs(ctx, id, api.JobFilter{ListParams: params})
	})
	assert.NilError(t, err)
	byName := map[string]api.Job{}
	for _, job := range jobs {
		byName[job.Name] = job
	}
	assert.Equal(t, byName["boom"].Status, api.JobTerminated)
	assert.Equal(t, byName["after"].Status, api.JobBlocked)

	results, err := c.ListResults(ctx, id, api.ResultFilter{})
	assert.NilError(t, err)
	assert.Equal(t, len(results.Items), 1)
	assert.Equal(t, results.Items[0].ReturnCode, 3)
}

func TestRunLocalRetriesTerminatedJob(t *testing.T) {
	o, c, _ := newTestOrchestrator(t)
	ctx := context.Background()

	// The command fails every time; one retry is budgeted, so the job runs
	// twice and ends Terminated.
	path := writeSpec(t, `{
		"name": "retry",
		"jobs": [
			{"name": "flaky", "command": "exit 7", "failure_handler": {"max_retries": 1}}
		]
	}`)
	id, err := o.Create(ctx, path, "jdoe", DefaultCreateOptions())
	assert.NilError(t, err)

	assert.NilError(t, o.RunLocal(ctx, id, RunLocalOptions{}))

	results, err := c.ListResults(ctx, id, api.ResultFilter{})
	assert.NilError(t, err)
	assert.Equal(t, len(results.Items), 2)

	jobs, err := client.CollectAll(func(params api.ListParams) (api.ListResponse[api.Job], error) {
		return c.ListJobs(ctx, id, api.JobFilter{ListParams: params})
	})
	assert.NilError(t, err)
	assert.Equal(t, jobs[0].Status, api.JobTerminated)
}

func TestSubmitRequiresScheduleAction(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)
	ctx := context.Background()

	id, err := o.Create(ctx, writeSpec(t, chainSpec), "jdoe", DefaultCreateOptions())
	assert.NilError(t, err)

	err = o.Submit(ctx, id, false)
	assert.Equal(t, torcerrors.IsValidationFailure(err), true)
}

func TestSubmit(t *testing.T) {
	o, c, fake := newTestOrchestrator(t)
	ctx := context.Background()

	path := writeSpec(t, `{
		"name": "hpc",
		"jobs": [{"name": "a", "command": "true"}],
		"slurm_schedulers": [{"name": "std", "account": "acct", "nodes": 1}],
		"workflow_actions": [{
			"trigger_type": "on_workflow_start",
			"action_type": "schedule_nodes",
			"scheduler": "std",
			"num_allocations": 2
		}]
	}`)
	id, err := o.Create(ctx, path, "jdoe", DefaultCreateOptions())
	assert.NilError(t, err)

	assert.NilError(t, o.Submit(ctx, id, false))
	assert.Equal(t, fake.submits, 2)

	// Submit initialised the workflow on the way.
	jobs, err := client.CollectAll(func(params api.ListParams) (api.ListResponse[api.Job], error) {
		return c.ListJobs(ctx, id, api.JobFilter{ListParams: params})
	})
	assert.NilError(t, err)
	assert.Equal(t, jobs[0].Status, api.JobReady)

	nodes, err := c.ListScheduledComputeNodes(ctx, id, api.ScheduledNodeFilter{})
	assert.NilError(t, err)
	assert.Equal(t, len(nodes.Items), 2)
}

func TestCancel(t *testing.T) {
	o, c, fake := newTestOrchestrator(t)
	ctx := context.Background()

	path := writeSpec(t, `{
		"name": "hpc",
		"jobs": [{"name": "a", "command": "true"}],
		"slurm_schedulers": [{"name": "std", "account": "acct", "nodes": 1}],
		"workflow_actions": [{
			"trigger_type": "on_workflow_start",
			"action_type": "schedule_nodes",
			"scheduler": "std"
		}]
	}`)
	id, err := o.Create(ctx, path, "jdoe", DefaultCreateOptions())
	assert.NilError(t, err)
	assert.NilError(t, o.Submit(ctx, id, false))

	assert.NilError(t, o.Cancel(ctx, id))
	workflow, err := c.GetWorkflow(ctx, id)
	assert.NilError(t, err)
	assert.Equal(t, workflow.IsCanceled, true)
	assert.Equal(t, len(fake.cancels), 1)
}

func TestCreateWithSchedulers(t *testing.T) {
	o, c, _ := newTestOrchestrator(t)
	ctx := context.Background()

	path := writeSpec(t, `{
		"name": "profiled",
		"resource_requirements": [{"name": "small", "num_cpus": 2, "memory": "4g", "runtime": "P0DT1H"}],
		"jobs": [{"name": "a", "command": "true", "resource_requirements": "small"}]
	}`)
	id, err := o.CreateWithSchedulers(ctx, path, "jdoe", "acct", "generic",
		common.AllocationModeNx1, 1, DefaultCreateOptions())
	assert.NilError(t, err)

	schedulers, err := c.ListSchedulers(ctx, id, api.ListParams{})
	assert.NilError(t, err)
	assert.Equal(t, len(schedulers.Items), 1)
	assert.Equal(t, schedulers.Items[0].Name, "generic_small")
	assert.Equal(t, schedulers.Items[0].Account, "acct")

	actions, err := c.ListWorkflowActions(ctx, id, api.ListParams{})
	assert.NilError(t, err)
	assert.Equal(t, len(actions.Items), 1)
	assert.Equal(t, actions.Items[0].TriggerType, common.TriggerWorkflowStart)
	assert.Equal(t, actions.Items[0].ActionType, common.ActionScheduleNodes)
}

func TestDeleteOwnership(t *testing.T) {
	o, c, _ := newTestOrchestrator(t)
	ctx := context.Background()

	id, err := o.Create(ctx, writeSpec(t, chainSpec), "jdoe", DefaultCreateOptions())
	assert.NilError(t, err)

	err = o.Delete(ctx, id, "intruder", false)
	assert.Equal(t, torcerrors.IsUnauthorisedDelete(err), true)

	assert.NilError(t, o.Delete(ctx, id, "intruder", true))
	_, err = c.GetWorkflow(ctx, id)
	assert.Equal(t, torcerrors.IsNotFound(err), true)
}

func TestResetStatusAfterRun(t *testing.T) {
	o, c, _ := newTestOrchestrator(t)
	ctx := context.Background()

	id, err := o.Create(ctx, writeSpec(t, chainSpec), "jdoe", DefaultCreateOptions())
	assert.NilError(t, err)
	assert.NilError(t, o.RunLocal(ctx, id, RunLocalOptions{}))

	assert.NilError(t, o.ResetStatus(ctx, id, false, false))
	jobs, err := client.CollectAll(func(params api.ListParams) (api.ListResponse[api.Job], error) {
		return c.ListJobs(ctx, id, api.JobFilter{ListParams: params})
	})
	assert.NilError(t, err)
	for _, job := range jobs {
		assert.Equal(t, job.Status, api.JobUninitialized)
	}

	workflow, err := c.GetWorkflow(ctx, id)
	assert.NilError(t, err)
	// A reset starts the next run.
	assert.Equal(t, workflow.RunID, int64(2))
}

/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package slurm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"gotest.tools/assert"

	"github.com/NREL/torc-sub003/pkg/api"
	"github.com/NREL/torc-sub003/pkg/client"
	"github.com/NREL/torc-sub003/pkg/client/storetest"
	"github.com/NREL/torc-sub003/pkg/common"
	torcerrors "github.com/NREL/torc-sub003/pkg/errors"
)

// fakeSlurm records submissions and cancellations. Submit reads the script
// before returning because the manager removes it afterwards.
type fakeSlurm struct {
	mu      sync.Mutex
	scripts []string
	cancels []string
	nextID  int
	failAll bool
}

func (f *fakeSlurm) Submit(ctx context.Context, scriptPath string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return "", fmt.Errorf("sbatch: queue unavailable")
	}
	data, err := os.ReadFile(scriptPath)
	if err != nil {
		return "", err
	}
	f.scripts = append(f.scripts, string(data))
	f.nextID++
	return fmt.Sprintf("%d", 1000+f.nextID), nil
}

func (f *fakeSlurm) Cancel(ctx context.Context, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels = append(f.cancels, jobID)
	return nil
}

func setup(t *testing.T) (*client.Client, *fakeSlurm, *Manager, int64, int64) {
	t.Helper()
	server := storetest.New()
	t.Cleanup(server.Close)
	c := client.New(server.URL())
	ctx := context.Background()

	workflow, err := c.CreateWorkflow(ctx, &api.Workflow{Name: "hpc", User: "jdoe"})
	assert.NilError(t, err)
	scheduler, err := c.CreateScheduler(ctx, &api.SlurmScheduler{
		WorkflowID: workflow.ID,
		Name:       "std",
		Account:    "acct",
		Nodes:      4,
		Walltime:   "02:00:00",
		Partition:  "compute",
		Memory:     "240G",
	})
	assert.NilError(t, err)

	fake := &fakeSlurm{}
	return c, fake, NewManager(c, fake), workflow.ID, scheduler.ID
}

func TestScheduleNodesNx1(t *testing.T) {
	c, fake, manager, workflowID, schedulerID := setup(t)
	ctx := context.Background()

	scheduled, err := manager.ScheduleNodes(ctx, workflowID, schedulerID, 3, ScheduleOptions{
		Mode:      common.AllocationModeNx1,
		ScriptDir: t.TempDir(),
	})
	assert.NilError(t, err)
	assert.Equal(t, len(scheduled), 3)
	assert.Equal(t, len(fake.scripts), 3)
	for _, script := range fake.scripts {
		assert.Equal(t, strings.Contains(script, "#SBATCH --nodes=1\n"), true)
		assert.Equal(t, strings.Contains(script, "#SBATCH --account=acct\n"), true)
		assert.Equal(t, strings.Contains(script, "#SBATCH --partition=compute\n"), true)
		assert.Equal(t, strings.Contains(script, "srun torc worker run"), true)
	}
	for _, node := range scheduled {
		assert.Equal(t, node.Status, api.ScheduledNodePending)
		assert.Equal(t, node.SchedulerType, common.SchedulerTypeSlurm)
		assert.Equal(t, node.SchedulerConfigID, schedulerID)
	}

	// One scheduler event per submission.
	events, err := c.ListEvents(ctx, workflowID, api.EventFilter{Category: common.EventCategoryScheduler})
	assert.NilError(t, err)
	assert.Equal(t, len(events.Items), 3)
}

func TestScheduleNodes1xN(t *testing.T) {
	_, fake, manager, workflowID, schedulerID := setup(t)

	scheduled, err := manager.ScheduleNodes(context.Background(), workflowID, schedulerID, 3, ScheduleOptions{
		Mode:      common.AllocationMode1xN,
		ScriptDir: t.TempDir(),
	})
	assert.NilError(t, err)
	// One submission requesting the scheduler's full node count.
	assert.Equal(t, len(scheduled), 1)
	assert.Equal(t, len(fake.scripts), 1)
	assert.Equal(t, strings.Contains(fake.scripts[0], "#SBATCH --nodes=4\n"), true)
}

func TestScheduleNodesKeepScripts(t *testing.T) {
	_, _, manager, workflowID, schedulerID := setup(t)
	dir := t.TempDir()

	_, err := manager.ScheduleNodes(context.Background(), workflowID, schedulerID, 1, ScheduleOptions{
		KeepScripts: true,
		ScriptDir:   dir,
	})
	assert.NilError(t, err)
	entries, err := os.ReadDir(dir)
	assert.NilError(t, err)
	assert.Equal(t, len(entries), 1)
	assert.Equal(t, strings.HasPrefix(entries[0].Name(), "torc_submit_"), true)
}

func TestScheduleNodesValidation(t *testing.T) {
	_, _, manager, workflowID, schedulerID := setup(t)
	ctx := context.Background()

	_, err := manager.ScheduleNodes(ctx, workflowID, schedulerID, 0, ScheduleOptions{})
	assert.Equal(t, torcerrors.CodeForError(err), torcerrors.SubmissionFailure)

	_, err = manager.ScheduleNodes(ctx, workflowID, schedulerID, 1, ScheduleOptions{Mode: "sideways"})
	assert.Equal(t, torcerrors.CodeForError(err), torcerrors.SubmissionFailure)
}

func TestScheduleNodesSubmitFailure(t *testing.T) {
	_, fake, manager, workflowID, schedulerID := setup(t)
	fake.failAll = true

	_, err := manager.ScheduleNodes(context.Background(), workflowID, schedulerID, 1, ScheduleOptions{
		ScriptDir: t.TempDir(),
	})
	assert.Equal(t, torcerrors.CodeForError(err), torcerrors.SubmissionFailure)
}

func TestCancelAllocations(t *testing.T) {
	c, fake, manager, workflowID, schedulerID := setup(t)
	ctx := context.Background()

	scheduled, err := manager.ScheduleNodes(ctx, workflowID, schedulerID, 2, ScheduleOptions{
		ScriptDir: t.TempDir(),
	})
	assert.NilError(t, err)
	assert.Equal(t, len(scheduled), 2)

	assert.NilError(t, manager.CancelAllocations(ctx, workflowID))
	assert.Equal(t, len(fake.cancels), 2)

	nodes, err := c.ListScheduledComputeNodes(ctx, workflowID, api.ScheduledNodeFilter{})
	assert.NilError(t, err)
	for _, node := range nodes.Items {
		assert.Equal(t, node.Status, api.ScheduledNodeDone)
	}

	// Cancelling again is a no-op: everything is already terminal.
	assert.NilError(t, manager.CancelAllocations(ctx, workflowID))
	assert.Equal(t, len(fake.cancels), 2)
}

func TestRenderScriptStartServer(t *testing.T) {
	script := renderScript(&api.SlurmScheduler{
		Name:    "std",
		Account: "acct",
		Extra:   "--exclusive --constraint=gen2",
	}, 7, "http://store:8080", 2, true)
	assert.Equal(t, strings.Contains(script, "#SBATCH --exclusive\n"), true)
	assert.Equal(t, strings.Contains(script, "#SBATCH --constraint=gen2\n"), true)
	assert.Equal(t, strings.Contains(script, "torc server start --workflow-id 7 &\n"), true)
	assert.Equal(t, strings.Contains(script, "srun torc worker run --url http://store:8080 --workflow-id 7\n"), true)
}

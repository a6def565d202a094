/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package slurm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/klog/v2"

	"github.com/NREL/torc-sub003/pkg/api"
	"github.com/NREL/torc-sub003/pkg/client"
	"github.com/NREL/torc-sub003/pkg/common"
	"github.com/NREL/torc-sub003/pkg/config"
	torcerrors "github.com/NREL/torc-sub003/pkg/errors"
	"github.com/NREL/torc-sub003/pkg/utils/jsonutil"
)

// ScheduleOptions tunes one schedule call.
type ScheduleOptions struct {
	// Mode selects how nodes map onto allocations; empty means N x 1.
	Mode string
	// KeepScripts leaves rendered submission scripts on disk.
	KeepScripts bool
	// ScriptDir overrides where scripts are rendered; empty uses the
	// working directory.
	ScriptDir string
	// StartServer launches the head-node server inside the allocation.
	StartServer bool
}

// Manager schedules and cancels Slurm allocations for workflows.
type Manager struct {
	client *client.Client
	slurm  Interface
}

// NewManager returns an allocation manager bound to one store client and one
// Slurm interface.
func NewManager(c *client.Client, slurm Interface) *Manager {
	return &Manager{client: c, slurm: slurm}
}

// Schedule satisfies the action engine's node scheduler with the default
// allocation mode and configured script retention.
func (m *Manager) Schedule(ctx context.Context, workflowID, schedulerID int64, count int) error {
	_, err := m.ScheduleNodes(ctx, workflowID, schedulerID, count, ScheduleOptions{
		KeepScripts: config.IsKeepSubmissionScripts(),
	})
	return err
}

// ScheduleNodes submits allocations for one scheduler config and records a
// ScheduledComputeNode row plus a scheduler event per submission. In N x 1
// mode each node gets its own submission so allocations start as nodes free
// up; in 1 x N mode one submission requests every node at once.
func (m *Manager) ScheduleNodes(ctx context.Context, workflowID, schedulerID int64, count int,
	opts ScheduleOptions) ([]api.ScheduledComputeNode, error) {
	if count < 1 {
		return nil, torcerrors.NewSubmissionFailure("allocation count must be at least one", nil)
	}
	scheduler, err := m.client.GetScheduler(ctx, workflowID, schedulerID)
	if err != nil {
		return nil, err
	}

	type submission struct {
		nodes int
	}
	var submissions []submission
	switch opts.Mode {
	case common.AllocationMode1xN:
		nodes := scheduler.Nodes
		if nodes < 1 {
			nodes = count
		}
		submissions = []submission{{nodes: nodes}}
	case common.AllocationModeNx1, "":
		for i := 0; i < count; i++ {
			submissions = append(submissions, submission{nodes: 1})
		}
	default:
		return nil, torcerrors.NewSubmissionFailure(
			fmt.Sprintf("unknown allocation mode %q", opts.Mode), nil)
	}

	var scheduled []api.ScheduledComputeNode
	for i, sub := range submissions {
		node, err := m.submitOne(ctx, workflowID, scheduler, sub.nodes, i, opts)
		if err != nil {
			return scheduled, err
		}
		scheduled = append(scheduled, *node)
	}
	klog.Infof("scheduled %d allocations on %s for workflow %d", len(scheduled), scheduler.Name, workflowID)
	return scheduled, nil
}

func (m *Manager) submitOne(ctx context.Context, workflowID int64, scheduler *api.SlurmScheduler,
	nodes, index int, opts ScheduleOptions) (*api.ScheduledComputeNode, error) {
	script := renderScript(scheduler, workflowID, m.client.BaseURL(), nodes, opts.StartServer)
	dir := opts.ScriptDir
	if dir == "" {
		dir = "."
	}
	scriptPath := filepath.Join(dir,
		fmt.Sprintf("torc_submit_%d_%s_%d.sh", workflowID, scheduler.Name, index))
	if err := os.WriteFile(scriptPath, []byte(script), 0o700); err != nil {
		return nil, torcerrors.NewSubmissionFailure("failed to write submission script", err)
	}
	if !opts.KeepScripts {
		defer os.Remove(scriptPath)
	}

	jobID, err := m.slurm.Submit(ctx, scriptPath)
	if err != nil {
		return nil, torcerrors.NewSubmissionFailure(
			fmt.Sprintf("sbatch submission for scheduler %s failed", scheduler.Name), err)
	}
	node, err := m.client.CreateScheduledComputeNode(ctx, &api.ScheduledComputeNode{
		WorkflowID:        workflowID,
		SchedulerConfigID: scheduler.ID,
		SchedulerJobID:    jobID,
		SchedulerType:     common.SchedulerTypeSlurm,
		Status:            api.ScheduledNodePending,
	})
	if err != nil {
		return nil, err
	}
	_, err = m.client.CreateEvent(ctx, &api.Event{
		WorkflowID: workflowID,
		Timestamp:  time.Now().UnixMilli(),
		Category:   common.EventCategoryScheduler,
		EventType:  "allocation_submitted",
		Severity:   api.SeverityInfo,
		Data: json.RawMessage(jsonutil.MarshalSilently(map[string]any{
			"scheduler":        scheduler.Name,
			"scheduler_job_id": jobID,
			"nodes":            nodes,
		})),
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

// CancelAllocations cancels every non-terminal allocation of a workflow,
// continuing past individual failures and aggregating the errors.
func (m *Manager) CancelAllocations(ctx context.Context, workflowID int64) error {
	nodes, err := client.CollectAll(func(params api.ListParams) (api.ListResponse[api.ScheduledComputeNode], error) {
		return m.client.ListScheduledComputeNodes(ctx, workflowID, api.ScheduledNodeFilter{ListParams: params})
	})
	if err != nil {
		return err
	}
	var failures []error
	for i := range nodes {
		node := &nodes[i]
		if node.Status == api.ScheduledNodeDone {
			continue
		}
		if err := m.slurm.Cancel(ctx, node.SchedulerJobID); err != nil {
			failures = append(failures, err)
			continue
		}
		node.Status = api.ScheduledNodeDone
		if err := m.client.UpdateScheduledComputeNode(ctx, node); err != nil {
			failures = append(failures, err)
		}
	}
	return utilerrors.NewAggregate(failures)
}

// renderScript builds the sbatch submission script for one allocation: the
// scheduler row's directives, then the compute-worker bootstrap, optionally
// preceded by a head-node server launch.
func renderScript(scheduler *api.SlurmScheduler, workflowID int64, storeURL string, nodes int,
	startServer bool) string {
	var b strings.Builder
	b.WriteString("#!/bin/bash\n")
	fmt.Fprintf(&b, "#SBATCH --account=%s\n", scheduler.Account)
	fmt.Fprintf(&b, "#SBATCH --job-name=torc_%d\n", workflowID)
	fmt.Fprintf(&b, "#SBATCH --nodes=%d\n", nodes)
	if scheduler.Walltime != "" {
		fmt.Fprintf(&b, "#SBATCH --time=%s\n", scheduler.Walltime)
	}
	if scheduler.Partition != "" {
		fmt.Fprintf(&b, "#SBATCH --partition=%s\n", scheduler.Partition)
	}
	if scheduler.QOS != "" {
		fmt.Fprintf(&b, "#SBATCH --qos=%s\n", scheduler.QOS)
	}
	if scheduler.Memory != "" {
		fmt.Fprintf(&b, "#SBATCH --mem=%s\n", scheduler.Memory)
	}
	if scheduler.Gres != "" {
		fmt.Fprintf(&b, "#SBATCH --gres=%s\n", scheduler.Gres)
	}
	if scheduler.Tmp != "" {
		fmt.Fprintf(&b, "#SBATCH --tmp=%s\n", scheduler.Tmp)
	}
	for _, extra := range strings.Fields(scheduler.Extra) {
		fmt.Fprintf(&b, "#SBATCH %s\n", extra)
	}
	b.WriteString("\n")
	if startServer {
		fmt.Fprintf(&b, "torc server start --workflow-id %d &\n", workflowID)
	}
	fmt.Fprintf(&b, "srun torc worker run --url %s --workflow-id %d\n", storeURL, workflowID)
	return b.String()
}

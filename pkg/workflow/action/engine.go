/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

// Package action evaluates workflow trigger rules. Trigger counting lives in
// the store; this engine fires triggers, claims pending actions through the
// store's atomic claim primitive, and executes the claimed payloads. The
// claim guarantees at-most-once execution across concurrent processes.
package action

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"k8s.io/klog/v2"

	"github.com/NREL/torc-sub003/pkg/api"
	"github.com/NREL/torc-sub003/pkg/client"
	"github.com/NREL/torc-sub003/pkg/common"
	torcerrors "github.com/NREL/torc-sub003/pkg/errors"
	"github.com/NREL/torc-sub003/pkg/utils/jsonutil"
)

// State classifies an action for display.
type State string

const (
	StateWaiting  State = "waiting"
	StatePending  State = "pending"
	StateExecuted State = "executed"
)

// Classify returns the display state of an action.
func Classify(a *api.WorkflowAction) State {
	if a.Executed {
		return StateExecuted
	}
	if a.TriggerCount >= a.RequiredTriggers {
		return StatePending
	}
	return StateWaiting
}

// NodeScheduler schedules HPC allocations for a schedule_nodes payload.
type NodeScheduler interface {
	Schedule(ctx context.Context, workflowID, schedulerID int64, count int) error
}

// Engine fires triggers and executes claimed actions.
type Engine struct {
	client    *client.Client
	scheduler NodeScheduler
}

// NewEngine returns an action engine. scheduler may be nil when the caller
// never expects schedule_nodes payloads (local runs).
func NewEngine(c *client.Client, scheduler NodeScheduler) *Engine {
	return &Engine{client: c, scheduler: scheduler}
}

// ProcessTrigger reports one trigger event to the store and executes every
// action the event made pending. Each pending action is claimed atomically;
// losing a claim race is not an error.
func (e *Engine) ProcessTrigger(ctx context.Context, workflowID int64, event client.TriggerEvent) error {
	pending, err := e.client.FireTrigger(ctx, workflowID, event)
	if err != nil {
		return err
	}
	for i := range pending {
		if err := e.claimAndExecute(ctx, workflowID, &pending[i]); err != nil {
			return err
		}
	}
	return nil
}

// ProcessPending scans for already-pending actions and executes any it can
// claim. The watcher calls this on reconnect so actions that became pending
// during an outage are not lost.
func (e *Engine) ProcessPending(ctx context.Context, workflowID int64) error {
	actions, err := client.CollectAll(func(params api.ListParams) (api.ListResponse[api.WorkflowAction], error) {
		return e.client.ListWorkflowActions(ctx, workflowID, params)
	})
	if err != nil {
		return err
	}
	for i := range actions {
		if Classify(&actions[i]) != StatePending {
			continue
		}
		if err := e.claimAndExecute(ctx, workflowID, &actions[i]); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) claimAndExecute(ctx context.Context, workflowID int64, action *api.WorkflowAction) error {
	claimed, won, err := e.client.ClaimAction(ctx, workflowID, action.ID)
	if err != nil {
		return err
	}
	if !won {
		klog.V(4).Infof("action %d in workflow %d was claimed elsewhere", action.ID, workflowID)
		return nil
	}
	return e.execute(ctx, workflowID, claimed)
}

func (e *Engine) execute(ctx context.Context, workflowID int64, action *api.WorkflowAction) error {
	klog.Infof("executing action %d (%s/%s) for workflow %d",
		action.ID, action.TriggerType, action.ActionType, workflowID)
	switch action.ActionType {
	case common.ActionScheduleNodes:
		if e.scheduler == nil {
			return torcerrors.NewInternalError("schedule_nodes action claimed but no node scheduler is configured")
		}
		return e.scheduler.Schedule(ctx, workflowID, action.SchedulerID, action.NumAllocations)
	case common.ActionCancelWorkflow:
		return e.client.CancelWorkflow(ctx, workflowID)
	case common.ActionSendEvent:
		_, err := e.client.CreateEvent(ctx, &api.Event{
			WorkflowID: workflowID,
			Timestamp:  time.Now().UnixMilli(),
			Category:   common.EventCategoryWorkflow,
			EventType:  action.TriggerType,
			Severity:   api.SeverityInfo,
			Data: json.RawMessage(jsonutil.MarshalSilently(map[string]any{
				"action_id":    action.ID,
				"trigger_type": action.TriggerType,
			})),
		})
		return err
	}
	return torcerrors.NewInternalError(fmt.Sprintf("unknown action type %q", action.ActionType))
}

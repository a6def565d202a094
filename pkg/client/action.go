/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package client

import (
	"context"
	"fmt"

	"github.com/NREL/torc-sub003/pkg/api"
)

// CreateWorkflowAction creates one trigger-to-action rule.
func (c *Client) CreateWorkflowAction(ctx context.Context, action *api.WorkflowAction) (*api.WorkflowAction, error) {
	var created api.WorkflowAction
	if err := c.post(ctx, fmt.Sprintf("/workflows/%d/actions", action.WorkflowID), action, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListWorkflowActions pages through the actions bound to a workflow.
func (c *Client) ListWorkflowActions(ctx context.Context, workflowID int64, params api.ListParams) (api.ListResponse[api.WorkflowAction], error) {
	var page api.ListResponse[api.WorkflowAction]
	err := c.get(ctx, fmt.Sprintf("/workflows/%d/actions", workflowID), listQuery(params), &page)
	return page, err
}

// TriggerEvent notifies the store of one discrete trigger occurrence. The
// store increments the counter of every matching action atomically and
// returns the actions whose counters changed.
type TriggerEvent struct {
	TriggerType string `json:"trigger_type"`
	JobID       int64  `json:"job_id,omitempty"`
}

// FireTrigger posts one trigger event and returns the affected actions.
func (c *Client) FireTrigger(ctx context.Context, workflowID int64, event TriggerEvent) ([]api.WorkflowAction, error) {
	var rsp struct {
		Actions []api.WorkflowAction `json:"actions"`
	}
	if err := c.post(ctx, fmt.Sprintf("/workflows/%d/triggers", workflowID), event, &rsp); err != nil {
		return nil, err
	}
	return rsp.Actions, nil
}

// claimActionResponse is the wire form of an action-claim result.
type claimActionResponse struct {
	Claimed bool                `json:"claimed"`
	Action  *api.WorkflowAction `json:"action,omitempty"`
}

// ClaimAction atomically marks a pending action executed. Exactly one of N
// concurrent claimers receives claimed=true; the core never emulates this
// with a get-then-update pair.
func (c *Client) ClaimAction(ctx context.Context, workflowID, actionID int64) (*api.WorkflowAction, bool, error) {
	var rsp claimActionResponse
	err := c.post(ctx, fmt.Sprintf("/workflows/%d/actions/%d/claim", workflowID, actionID), nil, &rsp)
	if err != nil {
		return nil, false, err
	}
	return rsp.Action, rsp.Claimed, nil
}

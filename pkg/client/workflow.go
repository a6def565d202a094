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

// CreateWorkflow creates the top-level workflow row and returns it with the
// server-assigned id.
func (c *Client) CreateWorkflow(ctx context.Context, workflow *api.Workflow) (*api.Workflow, error) {
	var created api.Workflow
	if err := c.post(ctx, "/workflows", workflow, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetWorkflow fetches one workflow by id.
func (c *Client) GetWorkflow(ctx context.Context, id int64) (*api.Workflow, error) {
	var workflow api.Workflow
	if err := c.get(ctx, fmt.Sprintf("/workflows/%d", id), nil, &workflow); err != nil {
		return nil, err
	}
	return &workflow, nil
}

// UpdateWorkflow replaces the mutable fields of a workflow.
func (c *Client) UpdateWorkflow(ctx context.Context, workflow *api.Workflow) error {
	return c.put(ctx, fmt.Sprintf("/workflows/%d", workflow.ID), workflow, nil)
}

// ListWorkflows pages through workflow rows.
func (c *Client) ListWorkflows(ctx context.Context, params api.ListParams) (api.ListResponse[api.Workflow], error) {
	var page api.ListResponse[api.Workflow]
	err := c.get(ctx, "/workflows", listQuery(params), &page)
	return page, err
}

// DeleteWorkflow deletes a workflow; the store cascades to every child row.
func (c *Client) DeleteWorkflow(ctx context.Context, id int64) error {
	return c.delete(ctx, fmt.Sprintf("/workflows/%d", id))
}

// CancelWorkflow flips the workflow-level canceled flag. Workers observe it
// on their next poll.
func (c *Client) CancelWorkflow(ctx context.Context, id int64) error {
	return c.post(ctx, fmt.Sprintf("/workflows/%d/cancel", id), nil, nil)
}

type boolValue struct {
	Value bool `json:"value"`
}

// IsWorkflowComplete reports whether every job has reached a terminal state.
func (c *Client) IsWorkflowComplete(ctx context.Context, id int64) (bool, error) {
	var value boolValue
	if err := c.get(ctx, fmt.Sprintf("/workflows/%d/is_complete", id), nil, &value); err != nil {
		return false, err
	}
	return value.Value, nil
}

// IsWorkflowUninitialized reports whether no job has left Uninitialized.
func (c *Client) IsWorkflowUninitialized(ctx context.Context, id int64) (bool, error) {
	var value boolValue
	if err := c.get(ctx, fmt.Sprintf("/workflows/%d/is_uninitialized", id), nil, &value); err != nil {
		return false, err
	}
	return value.Value, nil
}

// GetWorkflowStatus fetches the per-status job counts and run bookkeeping.
func (c *Client) GetWorkflowStatus(ctx context.Context, id int64) (*api.WorkflowStatusSummary, error) {
	var summary api.WorkflowStatusSummary
	if err := c.get(ctx, fmt.Sprintf("/workflows/%d/status", id), nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// resetStatusRequest is the body for workflow-level status resets.
type resetStatusRequest struct {
	FailedOnly bool `json:"failed_only"`
	Force      bool `json:"force"`
}

// ResetWorkflowStatus reverts job statuses to Uninitialized server side,
// bumping the workflow run id.
func (c *Client) ResetWorkflowStatus(ctx context.Context, id int64, failedOnly, force bool) error {
	req := resetStatusRequest{FailedOnly: failedOnly, Force: force}
	return c.post(ctx, fmt.Sprintf("/workflows/%d/reset_status", id), req, nil)
}

// ResetJobStatus reverts a single job to Uninitialized.
func (c *Client) ResetJobStatus(ctx context.Context, workflowID, jobID int64) error {
	return c.post(ctx, fmt.Sprintf("/workflows/%d/jobs/%d/reset_status", workflowID, jobID), nil, nil)
}

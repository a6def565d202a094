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

// CreateScheduledComputeNode records one HPC allocation.
func (c *Client) CreateScheduledComputeNode(ctx context.Context, node *api.ScheduledComputeNode) (*api.ScheduledComputeNode, error) {
	var created api.ScheduledComputeNode
	if err := c.post(ctx, fmt.Sprintf("/workflows/%d/scheduled_compute_nodes", node.WorkflowID), node, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListScheduledComputeNodes pages through allocation rows matching the filter.
func (c *Client) ListScheduledComputeNodes(ctx context.Context, workflowID int64, filter api.ScheduledNodeFilter) (api.ListResponse[api.ScheduledComputeNode], error) {
	q := listQuery(filter.ListParams)
	setString(q, "scheduler_id", filter.SchedulerJobID)
	setInt64(q, "scheduler_config_id", filter.SchedulerConfigID)
	setString(q, "status", filter.Status)
	var page api.ListResponse[api.ScheduledComputeNode]
	err := c.get(ctx, fmt.Sprintf("/workflows/%d/scheduled_compute_nodes", workflowID), q, &page)
	return page, err
}

// UpdateScheduledComputeNode updates an allocation's status.
func (c *Client) UpdateScheduledComputeNode(ctx context.Context, node *api.ScheduledComputeNode) error {
	return c.put(ctx, fmt.Sprintf("/workflows/%d/scheduled_compute_nodes/%d", node.WorkflowID, node.ID), node, nil)
}

// CreateComputeNode registers one live worker against a workflow.
func (c *Client) CreateComputeNode(ctx context.Context, node *api.ComputeNode) (*api.ComputeNode, error) {
	var created api.ComputeNode
	if err := c.post(ctx, fmt.Sprintf("/workflows/%d/compute_nodes", node.WorkflowID), node, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetComputeNode fetches one worker registration.
func (c *Client) GetComputeNode(ctx context.Context, workflowID, id int64) (*api.ComputeNode, error) {
	var node api.ComputeNode
	if err := c.get(ctx, fmt.Sprintf("/workflows/%d/compute_nodes/%d", workflowID, id), nil, &node); err != nil {
		return nil, err
	}
	return &node, nil
}

// ListComputeNodes pages through worker registrations.
func (c *Client) ListComputeNodes(ctx context.Context, workflowID int64, params api.ListParams) (api.ListResponse[api.ComputeNode], error) {
	var page api.ListResponse[api.ComputeNode]
	err := c.get(ctx, fmt.Sprintf("/workflows/%d/compute_nodes", workflowID), listQuery(params), &page)
	return page, err
}

// UpdateComputeNode updates a worker registration, typically to deactivate
// it and record its duration.
func (c *Client) UpdateComputeNode(ctx context.Context, node *api.ComputeNode) error {
	return c.put(ctx, fmt.Sprintf("/workflows/%d/compute_nodes/%d", node.WorkflowID, node.ID), node, nil)
}

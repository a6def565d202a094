/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package client

import (
	"context"
	"fmt"
	"strconv"

	"github.com/NREL/torc-sub003/pkg/api"
)

// CreateResult records one per-run job outcome.
func (c *Client) CreateResult(ctx context.Context, result *api.Result) (*api.Result, error) {
	var created api.Result
	if err := c.post(ctx, fmt.Sprintf("/workflows/%d/results", result.WorkflowID), result, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetResult fetches one result by id.
func (c *Client) GetResult(ctx context.Context, workflowID, resultID int64) (*api.Result, error) {
	var result api.Result
	if err := c.get(ctx, fmt.Sprintf("/workflows/%d/results/%d", workflowID, resultID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListResults pages through results matching the filter. By default only the
// workflow's current run is returned; AllRuns widens to every run.
func (c *Client) ListResults(ctx context.Context, workflowID int64, filter api.ResultFilter) (api.ListResponse[api.Result], error) {
	q := listQuery(filter.ListParams)
	setInt64(q, "job_id", filter.JobID)
	setInt64(q, "run_id", filter.RunID)
	setString(q, "status", string(filter.Status))
	setInt64(q, "compute_node_id", filter.ComputeNodeID)
	setBool(q, "all_runs", filter.AllRuns)
	if filter.ReturnCode != nil {
		q.Set("return_code", strconv.Itoa(*filter.ReturnCode))
	}
	var page api.ListResponse[api.Result]
	err := c.get(ctx, fmt.Sprintf("/workflows/%d/results", workflowID), q, &page)
	return page, err
}

// DeleteResult deletes one result row.
func (c *Client) DeleteResult(ctx context.Context, workflowID, resultID int64) error {
	return c.delete(ctx, fmt.Sprintf("/workflows/%d/results/%d", workflowID, resultID))
}

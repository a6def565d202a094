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

// CreateJobDependencies creates blocker-to-blocked edges in the given order.
func (c *Client) CreateJobDependencies(ctx context.Context, workflowID int64, edges []api.JobDependency) error {
	if len(edges) == 0 {
		return nil
	}
	req := struct {
		Edges []api.JobDependency `json:"edges"`
	}{Edges: edges}
	return c.post(ctx, fmt.Sprintf("/workflows/%d/job_dependencies", workflowID), req, nil)
}

// ListJobDependencies pages through blocker-to-blocked edges.
func (c *Client) ListJobDependencies(ctx context.Context, workflowID int64, params api.ListParams) (api.ListResponse[api.JobDependency], error) {
	var page api.ListResponse[api.JobDependency]
	err := c.get(ctx, fmt.Sprintf("/workflows/%d/job_dependencies", workflowID), listQuery(params), &page)
	return page, err
}

// CreateJobFiles creates job-to-file produce/consume edges.
func (c *Client) CreateJobFiles(ctx context.Context, workflowID int64, edges []api.JobFile) error {
	if len(edges) == 0 {
		return nil
	}
	req := struct {
		Edges []api.JobFile `json:"edges"`
	}{Edges: edges}
	return c.post(ctx, fmt.Sprintf("/workflows/%d/job_file_relationships", workflowID), req, nil)
}

// ListJobFileRelationships pages through job-to-file edges.
func (c *Client) ListJobFileRelationships(ctx context.Context, workflowID int64, params api.ListParams) (api.ListResponse[api.JobFile], error) {
	var page api.ListResponse[api.JobFile]
	err := c.get(ctx, fmt.Sprintf("/workflows/%d/job_file_relationships", workflowID), listQuery(params), &page)
	return page, err
}

// CreateJobUserData creates job-to-user-data produce/consume edges.
func (c *Client) CreateJobUserData(ctx context.Context, workflowID int64, edges []api.JobUserData) error {
	if len(edges) == 0 {
		return nil
	}
	req := struct {
		Edges []api.JobUserData `json:"edges"`
	}{Edges: edges}
	return c.post(ctx, fmt.Sprintf("/workflows/%d/job_user_data_relationships", workflowID), req, nil)
}

// ListJobUserDataRelationships pages through job-to-user-data edges.
func (c *Client) ListJobUserDataRelationships(ctx context.Context, workflowID int64, params api.ListParams) (api.ListResponse[api.JobUserData], error) {
	var page api.ListResponse[api.JobUserData]
	err := c.get(ctx, fmt.Sprintf("/workflows/%d/job_user_data_relationships", workflowID), listQuery(params), &page)
	return page, err
}

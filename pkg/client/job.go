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
	"github.com/NREL/torc-sub003/pkg/common"
)

// CreateJobs creates jobs in batches of up to common.MaxJobBatchSize so that
// very large workflows do not exceed request size limits. The returned slice
// preserves input order.
func (c *Client) CreateJobs(ctx context.Context, workflowID int64, jobs []api.Job) ([]api.Job, error) {
	var created []api.Job
	for start := 0; start < len(jobs); start += common.MaxJobBatchSize {
		end := start + common.MaxJobBatchSize
		if end > len(jobs) {
			end = len(jobs)
		}
		req := struct {
			Jobs []api.Job `json:"jobs"`
		}{Jobs: jobs[start:end]}
		var rsp struct {
			Jobs []api.Job `json:"jobs"`
		}
		if err := c.post(ctx, fmt.Sprintf("/workflows/%d/jobs", workflowID), req, &rsp); err != nil {
			return nil, err
		}
		created = append(created, rsp.Jobs...)
	}
	return created, nil
}

// GetJob fetches one job by id.
func (c *Client) GetJob(ctx context.Context, workflowID, jobID int64) (*api.Job, error) {
	var job api.Job
	if err := c.get(ctx, fmt.Sprintf("/workflows/%d/jobs/%d", workflowID, jobID), nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// ListJobs pages through jobs matching the filter.
func (c *Client) ListJobs(ctx context.Context, workflowID int64, filter api.JobFilter) (api.ListResponse[api.Job], error) {
	q := listQuery(filter.ListParams)
	setString(q, "status", string(filter.Status))
	setString(q, "name", filter.Name)
	setInt64(q, "needs_file_id", filter.NeedsFileID)
	setInt64(q, "upstream_job_id", filter.UpstreamJobID)
	setInt64(q, "active_compute_node_id", filter.ActiveComputeNodeID)
	setBool(q, "include_relationships", filter.IncludeRelationships)
	var page api.ListResponse[api.Job]
	err := c.get(ctx, fmt.Sprintf("/workflows/%d/jobs", workflowID), q, &page)
	return page, err
}

// UpdateJob replaces the mutable fields of a job.
func (c *Client) UpdateJob(ctx context.Context, job *api.Job) error {
	return c.put(ctx, fmt.Sprintf("/workflows/%d/jobs/%d", job.WorkflowID, job.ID), job, nil)
}

// UpdateJobStatus transitions one job's status server side.
func (c *Client) UpdateJobStatus(ctx context.Context, workflowID, jobID int64, status api.JobStatus) error {
	req := struct {
		Status api.JobStatus `json:"status"`
	}{Status: status}
	return c.put(ctx, fmt.Sprintf("/workflows/%d/jobs/%d/status", workflowID, jobID), req, nil)
}

// DeleteJob deletes one job and its relationship edges.
func (c *Client) DeleteJob(ctx context.Context, workflowID, jobID int64) error {
	return c.delete(ctx, fmt.Sprintf("/workflows/%d/jobs/%d", workflowID, jobID))
}

// CancelJob cancels one job.
func (c *Client) CancelJob(ctx context.Context, workflowID, jobID int64) error {
	return c.post(ctx, fmt.Sprintf("/workflows/%d/jobs/%d/cancel", workflowID, jobID), nil, nil)
}

// TerminateJob asks a job that supports termination to stop cooperatively.
func (c *Client) TerminateJob(ctx context.Context, workflowID, jobID int64) error {
	return c.post(ctx, fmt.Sprintf("/workflows/%d/jobs/%d/terminate", workflowID, jobID), nil, nil)
}

// RetryJob re-readies a terminated job whose failure handler permits it.
func (c *Client) RetryJob(ctx context.Context, workflowID, jobID int64) error {
	return c.post(ctx, fmt.Sprintf("/workflows/%d/jobs/%d/retry", workflowID, jobID), nil, nil)
}

// claimJobResponse is the wire form of a job-claim result.
type claimJobResponse struct {
	Claimed bool     `json:"claimed"`
	Job     *api.Job `json:"job,omitempty"`
}

// ClaimNextReadyJob atomically claims the next Ready job for a worker. The
// store performs the status transition; the core never read-then-writes job
// status.
func (c *Client) ClaimNextReadyJob(ctx context.Context, workflowID, computeNodeID int64) (*api.Job, bool, error) {
	q := map[string]string{"compute_node_id": strconv.FormatInt(computeNodeID, 10)}
	var rsp claimJobResponse
	if err := c.post(ctx, fmt.Sprintf("/workflows/%d/jobs/claim", workflowID), q, &rsp); err != nil {
		return nil, false, err
	}
	return rsp.Job, rsp.Claimed, nil
}

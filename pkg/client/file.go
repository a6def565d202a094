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

// CreateFile creates one file row.
func (c *Client) CreateFile(ctx context.Context, file *api.File) (*api.File, error) {
	var created api.File
	if err := c.post(ctx, fmt.Sprintf("/workflows/%d/files", file.WorkflowID), file, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetFile fetches one file by id.
func (c *Client) GetFile(ctx context.Context, workflowID, fileID int64) (*api.File, error) {
	var file api.File
	if err := c.get(ctx, fmt.Sprintf("/workflows/%d/files/%d", workflowID, fileID), nil, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// ListFiles pages through files matching the filter.
func (c *Client) ListFiles(ctx context.Context, workflowID int64, filter api.FileFilter) (api.ListResponse[api.File], error) {
	q := listQuery(filter.ListParams)
	setInt64(q, "produced_by_job_id", filter.ProducedByJobID)
	setString(q, "name", filter.Name)
	setString(q, "path", filter.Path)
	setBool(q, "is_output", filter.IsOutput)
	var page api.ListResponse[api.File]
	err := c.get(ctx, fmt.Sprintf("/workflows/%d/files", workflowID), q, &page)
	return page, err
}

// UpdateFile replaces the mutable fields of a file, including its recorded
// mtime.
func (c *Client) UpdateFile(ctx context.Context, file *api.File) error {
	return c.put(ctx, fmt.Sprintf("/workflows/%d/files/%d", file.WorkflowID, file.ID), file, nil)
}

// DeleteFile deletes one file row.
func (c *Client) DeleteFile(ctx context.Context, workflowID, fileID int64) error {
	return c.delete(ctx, fmt.Sprintf("/workflows/%d/files/%d", workflowID, fileID))
}

// ListRequiredExistingFiles returns the files that must exist on disk before
// the workflow can start: every file consumed by a job and produced by none.
func (c *Client) ListRequiredExistingFiles(ctx context.Context, workflowID int64) ([]api.File, error) {
	var rsp struct {
		Files []api.File `json:"files"`
	}
	if err := c.get(ctx, fmt.Sprintf("/workflows/%d/files/required_existing", workflowID), nil, &rsp); err != nil {
		return nil, err
	}
	return rsp.Files, nil
}

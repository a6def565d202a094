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

// CreateUserData creates one user-data row.
func (c *Client) CreateUserData(ctx context.Context, ud *api.UserData) (*api.UserData, error) {
	var created api.UserData
	if err := c.post(ctx, fmt.Sprintf("/workflows/%d/user_data", ud.WorkflowID), ud, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetUserData fetches one user-data row by id.
func (c *Client) GetUserData(ctx context.Context, workflowID, userDataID int64) (*api.UserData, error) {
	var ud api.UserData
	if err := c.get(ctx, fmt.Sprintf("/workflows/%d/user_data/%d", workflowID, userDataID), nil, &ud); err != nil {
		return nil, err
	}
	return &ud, nil
}

// ListUserData pages through user-data rows matching the filter.
func (c *Client) ListUserData(ctx context.Context, workflowID int64, filter api.UserDataFilter) (api.ListResponse[api.UserData], error) {
	q := listQuery(filter.ListParams)
	setInt64(q, "consumer_job_id", filter.ConsumerJobID)
	setInt64(q, "producer_job_id", filter.ProducerJobID)
	setString(q, "name", filter.Name)
	setBool(q, "is_ephemeral", filter.IsEphemeral)
	var page api.ListResponse[api.UserData]
	err := c.get(ctx, fmt.Sprintf("/workflows/%d/user_data", workflowID), q, &page)
	return page, err
}

// UpdateUserData replaces the stored blob.
func (c *Client) UpdateUserData(ctx context.Context, ud *api.UserData) error {
	return c.put(ctx, fmt.Sprintf("/workflows/%d/user_data/%d", ud.WorkflowID, ud.ID), ud, nil)
}

// DeleteUserData deletes one user-data row.
func (c *Client) DeleteUserData(ctx context.Context, workflowID, userDataID int64) error {
	return c.delete(ctx, fmt.Sprintf("/workflows/%d/user_data/%d", workflowID, userDataID))
}

// ClearEphemeralUserData empties the data of every ephemeral user-data row.
// Called between runs.
func (c *Client) ClearEphemeralUserData(ctx context.Context, workflowID int64) error {
	return c.post(ctx, fmt.Sprintf("/workflows/%d/user_data/clear_ephemeral", workflowID), nil, nil)
}

// ListMissingUserData returns the names of consumed user-data rows whose
// data is still empty.
func (c *Client) ListMissingUserData(ctx context.Context, workflowID int64) ([]string, error) {
	var rsp struct {
		Names []string `json:"names"`
	}
	if err := c.get(ctx, fmt.Sprintf("/workflows/%d/user_data/missing", workflowID), nil, &rsp); err != nil {
		return nil, err
	}
	return rsp.Names, nil
}

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

// CreateResourceRequirements creates one named resource profile.
func (c *Client) CreateResourceRequirements(ctx context.Context, rr *api.ResourceRequirements) (*api.ResourceRequirements, error) {
	var created api.ResourceRequirements
	if err := c.post(ctx, fmt.Sprintf("/workflows/%d/resource_requirements", rr.WorkflowID), rr, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetResourceRequirements fetches one resource profile by id.
func (c *Client) GetResourceRequirements(ctx context.Context, workflowID, id int64) (*api.ResourceRequirements, error) {
	var rr api.ResourceRequirements
	if err := c.get(ctx, fmt.Sprintf("/workflows/%d/resource_requirements/%d", workflowID, id), nil, &rr); err != nil {
		return nil, err
	}
	return &rr, nil
}

// ListResourceRequirements pages through resource profiles.
func (c *Client) ListResourceRequirements(ctx context.Context, workflowID int64, params api.ListParams) (api.ListResponse[api.ResourceRequirements], error) {
	var page api.ListResponse[api.ResourceRequirements]
	err := c.get(ctx, fmt.Sprintf("/workflows/%d/resource_requirements", workflowID), listQuery(params), &page)
	return page, err
}

// UpdateResourceRequirements replaces one resource profile.
func (c *Client) UpdateResourceRequirements(ctx context.Context, rr *api.ResourceRequirements) error {
	return c.put(ctx, fmt.Sprintf("/workflows/%d/resource_requirements/%d", rr.WorkflowID, rr.ID), rr, nil)
}

// DeleteResourceRequirements deletes one resource profile.
func (c *Client) DeleteResourceRequirements(ctx context.Context, workflowID, id int64) error {
	return c.delete(ctx, fmt.Sprintf("/workflows/%d/resource_requirements/%d", workflowID, id))
}

// CreateScheduler creates one Slurm scheduler config.
func (c *Client) CreateScheduler(ctx context.Context, s *api.SlurmScheduler) (*api.SlurmScheduler, error) {
	var created api.SlurmScheduler
	if err := c.post(ctx, fmt.Sprintf("/workflows/%d/slurm_schedulers", s.WorkflowID), s, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetScheduler fetches one scheduler config by id.
func (c *Client) GetScheduler(ctx context.Context, workflowID, id int64) (*api.SlurmScheduler, error) {
	var s api.SlurmScheduler
	if err := c.get(ctx, fmt.Sprintf("/workflows/%d/slurm_schedulers/%d", workflowID, id), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSchedulers pages through scheduler configs.
func (c *Client) ListSchedulers(ctx context.Context, workflowID int64, params api.ListParams) (api.ListResponse[api.SlurmScheduler], error) {
	var page api.ListResponse[api.SlurmScheduler]
	err := c.get(ctx, fmt.Sprintf("/workflows/%d/slurm_schedulers", workflowID), listQuery(params), &page)
	return page, err
}

// UpdateScheduler replaces one scheduler config.
func (c *Client) UpdateScheduler(ctx context.Context, s *api.SlurmScheduler) error {
	return c.put(ctx, fmt.Sprintf("/workflows/%d/slurm_schedulers/%d", s.WorkflowID, s.ID), s, nil)
}

// DeleteScheduler deletes one scheduler config.
func (c *Client) DeleteScheduler(ctx context.Context, workflowID, id int64) error {
	return c.delete(ctx, fmt.Sprintf("/workflows/%d/slurm_schedulers/%d", workflowID, id))
}

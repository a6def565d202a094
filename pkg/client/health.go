/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package client

import (
	"context"

	"k8s.io/klog/v2"

	"github.com/NREL/torc-sub003/pkg/common"
	torcerrors "github.com/NREL/torc-sub003/pkg/errors"
)

// Ping checks that the store is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.get(ctx, "/ping", nil, nil)
}

// ServerVersion returns the store's reported version.
func (c *Client) ServerVersion(ctx context.Context) (string, error) {
	var rsp struct {
		Version string `json:"version"`
	}
	if err := c.get(ctx, "/version", nil, &rsp); err != nil {
		return "", err
	}
	return rsp.Version, nil
}

// CheckVersion compares client and server versions. A mismatch is surfaced
// as a warning and a coded error the caller may ignore; it is never fatal.
func (c *Client) CheckVersion(ctx context.Context) error {
	server, err := c.ServerVersion(ctx)
	if err != nil {
		return err
	}
	if server != "" && server != common.Version {
		klog.Warningf("client version %s does not match server version %s", common.Version, server)
		return torcerrors.NewVersionMismatch(common.Version, server)
	}
	return nil
}

/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

// Package slurm manages HPC allocations: it renders sbatch submission
// scripts from scheduler rows, submits them, and keeps the store's
// bookkeeping of scheduled compute nodes current.
package slurm

import (
	"context"
	"os/exec"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/NREL/torc-sub003/pkg/config"
)

// Interface is the shell boundary to the Slurm controller. Implementations
// submit a script and cancel a scheduler job id.
type Interface interface {
	Submit(ctx context.Context, scriptPath string) (jobID string, err error)
	Cancel(ctx context.Context, jobID string) error
}

// sbatch output looks like "Submitted batch job 123456".
var sbatchJobID = regexp.MustCompile(`(\d+)\s*$`)

type commandRunner struct {
	sbatch  string
	scancel string
}

// NewCommandRunner returns an Interface that shells out to the configured
// sbatch and scancel binaries.
func NewCommandRunner() Interface {
	return &commandRunner{
		sbatch:  config.GetSbatchCommand(),
		scancel: config.GetScancelCommand(),
	}
}

func (r *commandRunner) Submit(ctx context.Context, scriptPath string) (string, error) {
	out, err := exec.CommandContext(ctx, r.sbatch, scriptPath).CombinedOutput()
	if err != nil {
		return "", errors.Wrapf(err, "sbatch failed: %s", strings.TrimSpace(string(out)))
	}
	match := sbatchJobID.FindStringSubmatch(strings.TrimSpace(string(out)))
	if match == nil {
		return "", errors.Errorf("could not parse job id from sbatch output %q", strings.TrimSpace(string(out)))
	}
	return match[1], nil
}

func (r *commandRunner) Cancel(ctx context.Context, jobID string) error {
	out, err := exec.CommandContext(ctx, r.scancel, jobID).CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "scancel %s failed: %s", jobID, strings.TrimSpace(string(out)))
	}
	return nil
}

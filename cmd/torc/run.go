/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/NREL/torc-sub003/pkg/api"
	"github.com/NREL/torc-sub003/pkg/common"
	"github.com/NREL/torc-sub003/pkg/orchestrator"
	"github.com/NREL/torc-sub003/pkg/slurm"
	"github.com/NREL/torc-sub003/pkg/workflow/builder"
	"github.com/NREL/torc-sub003/pkg/workflow/plan"
	"github.com/NREL/torc-sub003/pkg/workflow/spec"
)

func newRunLocalCommand() *cobra.Command {
	var (
		force    bool
		maxJobs  int
		pollSecs int
	)
	cmd := &cobra.Command{
		Use:   "run-local WORKFLOW_ID",
		Short: "Initialise a workflow and run its jobs in this process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseWorkflowID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return orchestrator.New(newClient(ctx)).RunLocal(ctx, id, orchestrator.RunLocalOptions{
				Force:        force,
				MaxJobs:      maxJobs,
				PollInterval: time.Duration(pollSecs) * time.Second,
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "initialise even when input files are missing")
	cmd.Flags().IntVar(&maxJobs, "max-jobs", 0, "stop after this many jobs (0 = run to completion)")
	cmd.Flags().IntVar(&pollSecs, "poll-seconds", 0, "claim poll interval when no job is ready")
	return cmd
}

func newWatchCommand() *cobra.Command {
	var (
		autoRecover bool
		minSeverity string
	)
	cmd := &cobra.Command{
		Use:   "watch WORKFLOW_ID",
		Short: "Tail a workflow's event stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseWorkflowID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return orchestrator.New(newClient(ctx)).Watch(ctx, id, minSeverity, autoRecover)
		},
	}
	cmd.Flags().BoolVar(&autoRecover, "auto-recover", false,
		"re-ready terminated jobs whose failure handler permits retry")
	cmd.Flags().StringVar(&minSeverity, "level", api.SeverityInfo, "minimum event severity to stream")
	return cmd
}

func newScheduleNodesCommand() *cobra.Command {
	var (
		schedulerID int64
		count       int
		mode        string
		keepScripts bool
	)
	cmd := &cobra.Command{
		Use:   "schedule-nodes WORKFLOW_ID",
		Short: "Submit HPC allocations for a workflow's scheduler",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseWorkflowID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			o := orchestrator.New(newClient(ctx))
			scheduled, err := o.Slurm().ScheduleNodes(ctx, id, schedulerID, count, slurm.ScheduleOptions{
				Mode:        mode,
				KeepScripts: keepScripts,
			})
			if err != nil {
				return err
			}
			for _, node := range scheduled {
				fmt.Printf("Scheduled allocation %s (scheduled node %d)\n",
					node.SchedulerJobID, node.ID)
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&schedulerID, "scheduler-id", 0, "scheduler config id to submit against")
	cmd.Flags().IntVar(&count, "num-allocations", 1, "number of allocations to submit")
	cmd.Flags().StringVar(&mode, "mode", common.AllocationModeNx1,
		"allocation mode, nodes_per_allocation or allocation_per_nodes")
	cmd.Flags().BoolVar(&keepScripts, "keep-submission-scripts", false,
		"leave rendered sbatch scripts on disk")
	_ = cmd.MarkFlagRequired("scheduler-id")
	return cmd
}

func newPlanCommand() *cobra.Command {
	var workflowID int64
	cmd := &cobra.Command{
		Use:   "plan [SPEC_FILE]",
		Short: "Show the execution plan of a spec document or a created workflow",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var p *plan.ExecutionPlan
			switch {
			case workflowID > 0:
				var err error
				p, err = plan.BuildFromWorkflow(ctx, newClient(ctx), workflowID)
				if err != nil {
					return err
				}
			case len(args) == 1:
				parsed, err := spec.Parse(args[0])
				if err != nil {
					return err
				}
				expanded, err := spec.Expand(parsed)
				if err != nil {
					return err
				}
				builder.ApplyDefaults(expanded)
				resolved, err := spec.Resolve(expanded)
				if err != nil {
					return err
				}
				if err := spec.Validate(resolved, spec.ValidateOptions{SkipChecks: true}); err != nil {
					return err
				}
				p = plan.Build(resolved)
			default:
				return fmt.Errorf("pass a spec file or --workflow-id")
			}
			if jsonOutput() {
				printJSON(p)
			} else {
				fmt.Print(p.Pretty())
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&workflowID, "workflow-id", 0, "plan an already created workflow")
	return cmd
}

func newProfilesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "HPC profile helpers",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List registered HPC profiles",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				for _, name := range slurm.ProfileNames() {
					fmt.Println(name)
				}
				return nil
			},
		},
		newCreateWithSchedulersCommand(),
	)
	return cmd
}

func newCreateWithSchedulersCommand() *cobra.Command {
	var (
		account        string
		profileName    string
		allocationMode string
		numAllocations int
	)
	cmd := &cobra.Command{
		Use:   "create SPEC_FILE",
		Short: "Create a workflow with schedulers synthesised from an HPC profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			o := orchestrator.New(newClient(ctx))
			id, err := o.CreateWithSchedulers(ctx, args[0], currentUser(), account, profileName,
				allocationMode, numAllocations, orchestrator.DefaultCreateOptions())
			if err != nil {
				return err
			}
			fmt.Printf("Created workflow %s\n", strconv.FormatInt(id, 10))
			return nil
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "HPC account to charge")
	cmd.Flags().StringVar(&profileName, "profile", "generic", "HPC profile name")
	cmd.Flags().StringVar(&allocationMode, "mode", common.AllocationModeNx1, "allocation mode")
	cmd.Flags().IntVar(&numAllocations, "num-allocations", 1, "allocations per scheduler")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}

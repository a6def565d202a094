/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package main

import (
	"fmt"
	"os"
	"os/user"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/NREL/torc-sub003/pkg/api"
	"github.com/NREL/torc-sub003/pkg/client"
	"github.com/NREL/torc-sub003/pkg/orchestrator"
	"github.com/NREL/torc-sub003/pkg/workflow/spec"
)

func currentUser() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return os.Getenv("USER")
}

func parseWorkflowID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid workflow id %q", arg)
	}
	return id, nil
}

func newCreateCommand() *cobra.Command {
	var (
		disableMonitoring bool
		skipChecks        bool
		dryRun            bool
	)
	cmd := &cobra.Command{
		Use:   "create SPEC_FILE",
		Short: "Create a workflow from a spec document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts := orchestrator.DefaultCreateOptions()
			opts.EnableResourceMonitoring = !disableMonitoring
			opts.SkipChecks = skipChecks
			opts.DryRun = dryRun
			o := orchestrator.New(newClient(ctx))
			id, err := o.Create(ctx, args[0], currentUser(), opts)
			if err != nil {
				return err
			}
			if dryRun {
				fmt.Println("spec validates; no workflow created")
				return nil
			}
			if jsonOutput() {
				printJSON(map[string]int64{"workflow_id": id})
			} else {
				fmt.Printf("Created workflow %d\n", id)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&disableMonitoring, "disable-resource-monitoring", false,
		"do not collect per-job resource telemetry")
	cmd.Flags().BoolVar(&skipChecks, "skip-checks", false, "skip scheduler capacity checks")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate without creating anything")
	return cmd
}

func newValidateCommand() *cobra.Command {
	var skipChecks bool
	cmd := &cobra.Command{
		Use:   "validate SPEC_FILE",
		Short: "Validate a spec document without touching the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := spec.ValidateSpecFile(args[0], spec.ValidateOptions{SkipChecks: skipChecks})
			if err != nil {
				return err
			}
			if jsonOutput() {
				printJSON(report)
			} else {
				printReport(report)
			}
			if !report.Valid {
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipChecks, "skip-checks", false, "skip scheduler capacity checks")
	return cmd
}

func printReport(report *spec.ValidationReport) {
	if report.Valid {
		fmt.Println("Spec is valid.")
	} else {
		fmt.Println("Spec is INVALID.")
	}
	for _, message := range report.Errors {
		fmt.Printf("  error: %s\n", message)
	}
	for _, message := range report.Warnings {
		fmt.Printf("  warning: %s\n", message)
	}
	s := report.Summary
	fmt.Printf("  jobs: %d -> %d, files: %d -> %d, user_data: %d, actions: %d, schedulers: %d\n",
		s.JobCountBeforeExpansion, s.JobCountAfterExpansion,
		s.FileCountBeforeExpansion, s.FileCountAfterExpansion,
		s.UserDataCount, s.ActionCount, s.SchedulerCount)
}

func newSubmitCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "submit WORKFLOW_ID",
		Short: "Initialise a workflow and fire its start trigger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseWorkflowID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := orchestrator.New(newClient(ctx)).Submit(ctx, id, force); err != nil {
				return err
			}
			fmt.Printf("Submitted workflow %d\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "initialise even when input files are missing")
	return cmd
}

func newCancelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel WORKFLOW_ID",
		Short: "Cancel a workflow and its outstanding allocations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseWorkflowID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := orchestrator.New(newClient(ctx)).Cancel(ctx, id); err != nil {
				return err
			}
			fmt.Printf("Canceled workflow %d\n", id)
			return nil
		},
	}
}

func newReinitializeCommand() *cobra.Command {
	var (
		force  bool
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:     "reinitialize WORKFLOW_ID",
		Aliases: []string{"reinitialise"},
		Short:   "Recompute readiness, rerunning jobs whose inputs changed",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseWorkflowID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			check, err := orchestrator.New(newClient(ctx)).Reinitialise(ctx, id, force, dryRun)
			if err != nil {
				return err
			}
			if dryRun {
				printJSON(check)
				return nil
			}
			fmt.Printf("Reinitialized workflow %d\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "proceed even when input files are missing")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what initialise would find without mutating")
	return cmd
}

func newResetStatusCommand() *cobra.Command {
	var (
		failedOnly bool
		force      bool
	)
	cmd := &cobra.Command{
		Use:   "reset-status WORKFLOW_ID",
		Short: "Revert job statuses to uninitialized",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseWorkflowID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := orchestrator.New(newClient(ctx)).ResetStatus(ctx, id, failedOnly, force); err != nil {
				return err
			}
			fmt.Printf("Reset status of workflow %d\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVar(&failedOnly, "failed-only", false, "reset only terminated and canceled jobs")
	cmd.Flags().BoolVar(&force, "force", false, "reset even while jobs are active")
	return cmd
}

func newDeleteCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "delete WORKFLOW_ID",
		Short: "Delete a workflow you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseWorkflowID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := orchestrator.New(newClient(ctx)).Delete(ctx, id, currentUser(), force); err != nil {
				return err
			}
			fmt.Printf("Deleted workflow %d\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "delete regardless of ownership")
	return cmd
}

func newListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List workflows or jobs",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "workflows",
			Short: "List workflows",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				c := newClient(ctx)
				workflows, err := client.CollectAll(func(params api.ListParams) (api.ListResponse[api.Workflow], error) {
					return c.ListWorkflows(ctx, params)
				})
				if err != nil {
					return err
				}
				if jsonOutput() {
					printJSON(workflows)
					return nil
				}
				table := tablewriter.NewWriter(os.Stdout)
				table.SetHeader([]string{"ID", "Name", "User", "Timestamp", "Canceled"})
				for _, w := range workflows {
					table.Append([]string{
						strconv.FormatInt(w.ID, 10), w.Name, w.User, w.Timestamp,
						strconv.FormatBool(w.IsCanceled),
					})
				}
				table.Render()
				return nil
			},
		},
		&cobra.Command{
			Use:   "jobs WORKFLOW_ID",
			Short: "List the jobs of a workflow",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseWorkflowID(args[0])
				if err != nil {
					return err
				}
				ctx := cmd.Context()
				c := newClient(ctx)
				jobs, err := client.CollectAll(func(params api.ListParams) (api.ListResponse[api.Job], error) {
					return c.ListJobs(ctx, id, api.JobFilter{ListParams: params})
				})
				if err != nil {
					return err
				}
				if jsonOutput() {
					printJSON(jobs)
					return nil
				}
				table := tablewriter.NewWriter(os.Stdout)
				table.SetHeader([]string{"ID", "Name", "Status", "Command"})
				for _, job := range jobs {
					table.Append([]string{
						strconv.FormatInt(job.ID, 10), job.Name, string(job.Status), job.Command,
					})
				}
				table.Render()
				return nil
			},
		},
	)
	return cmd
}

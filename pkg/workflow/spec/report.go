/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package spec

import (
	"fmt"

	"github.com/NREL/torc-sub003/pkg/common"
)

// ValidationSummary counts what a workflow document declares, before and
// after template expansion.
type ValidationSummary struct {
	JobCountBeforeExpansion  int  `json:"job_count_before_expansion"`
	JobCountAfterExpansion   int  `json:"job_count_after_expansion"`
	FileCountBeforeExpansion int  `json:"file_count_before_expansion"`
	FileCountAfterExpansion  int  `json:"file_count_after_expansion"`
	UserDataCount            int  `json:"user_data_count"`
	ActionCount              int  `json:"action_count"`
	SchedulerCount           int  `json:"scheduler_count"`
	HasScheduleNodesAction   bool `json:"has_schedule_nodes_action"`
}

// ValidationReport is the dry-run output of spec validation.
type ValidationReport struct {
	Valid    bool              `json:"valid"`
	Errors   []string          `json:"errors"`
	Warnings []string          `json:"warnings"`
	Summary  ValidationSummary `json:"summary"`
}

// ValidateSpecFile parses, expands, resolves, and validates a workflow
// document without touching the store, collecting every error and warning
// into a report. The returned error covers only I/O level failures; semantic
// problems land in the report.
func ValidateSpecFile(path string, opts ValidateOptions) (*ValidationReport, error) {
	report := &ValidationReport{Errors: []string{}, Warnings: []string{}}

	parsed, err := Parse(path)
	if err != nil {
		report.Errors = append(report.Errors, err.Error())
		return report, nil
	}
	report.Summary.JobCountBeforeExpansion = len(parsed.Jobs)
	report.Summary.FileCountBeforeExpansion = len(parsed.Files)
	report.Summary.UserDataCount = len(parsed.UserData)
	report.Summary.ActionCount = len(parsed.Actions)
	report.Summary.SchedulerCount = len(parsed.SlurmSchedulers)
	for _, action := range parsed.Actions {
		if action.ActionType == common.ActionScheduleNodes {
			report.Summary.HasScheduleNodesAction = true
		}
	}

	expanded, err := Expand(parsed)
	if err != nil {
		report.Errors = append(report.Errors, err.Error())
		return report, nil
	}
	report.Summary.JobCountAfterExpansion = len(expanded.Jobs)
	report.Summary.FileCountAfterExpansion = len(expanded.Files)

	resolved, err := Resolve(expanded)
	if err != nil {
		report.Errors = append(report.Errors, err.Error())
		return report, nil
	}
	if err := Validate(resolved, opts); err != nil {
		report.Errors = append(report.Errors, err.Error())
		return report, nil
	}

	report.Valid = true
	appendAdvisoryWarnings(report, expanded)
	return report, nil
}

// appendAdvisoryWarnings flags configurations that validate but usually
// indicate an incomplete document.
func appendAdvisoryWarnings(report *ValidationReport, workflow *WorkflowSpec) {
	if len(workflow.SlurmSchedulers) > 0 && !report.Summary.HasScheduleNodesAction {
		report.Warnings = append(report.Warnings,
			"slurm schedulers are declared but no schedule_nodes action references them; submit will fail")
	}
	if len(workflow.SlurmSchedulers) > 0 {
		for _, job := range workflow.Jobs {
			if job.ResourceRequirements == "" {
				report.Warnings = append(report.Warnings,
					fmt.Sprintf("job %s has no resource_requirements; scheduler packing will assume one CPU", job.Name))
			}
		}
	}
}

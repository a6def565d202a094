/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package spec

import (
	"encoding/json"

	"github.com/NREL/torc-sub003/pkg/api"
)

// WorkflowSpec is the in-memory form of a declarative workflow document.
// Every surface format decodes into this one value; optional list fields
// stay nil when absent so documents round-trip without semantic loss.
type WorkflowSpec struct {
	Name        string `json:"name"`
	User        string `json:"user,omitempty"`
	Description string `json:"description,omitempty"`

	Jobs                 []JobSpec                  `json:"jobs"`
	Files                []FileSpec                 `json:"files,omitempty"`
	UserData             []UserDataSpec             `json:"user_data,omitempty"`
	ResourceRequirements []ResourceRequirementsSpec `json:"resource_requirements,omitempty"`
	SlurmSchedulers      []SlurmSchedulerSpec       `json:"slurm_schedulers,omitempty"`
	Actions              []WorkflowActionSpec       `json:"workflow_actions,omitempty"`

	ResourceMonitor *api.ResourceMonitorConfig `json:"resource_monitor,omitempty"`
}

// ParameterMode selects how a template's parameter lists combine.
const (
	ParameterModeProduct = "product"
	ParameterModeZip     = "zip"
)

// JobSpec declares one job, or a template of jobs when UseParameters is
// set. Exact-name reference lists and regex-pattern lists are parallel: the
// regex variants expand to whatever matching entities exist.
type JobSpec struct {
	Name                    string `json:"name"`
	Command                 string `json:"command"`
	InvocationScript        string `json:"invocation_script,omitempty"`
	CancelOnBlockingFailure bool   `json:"cancel_on_blocking_failure,omitempty"`
	SupportsTermination     bool   `json:"supports_termination,omitempty"`
	ResourceRequirements    string `json:"resource_requirements,omitempty"`
	Scheduler               string `json:"scheduler,omitempty"`

	DependsOn        []string `json:"depends_on,omitempty"`
	DependsOnRegexes []string `json:"depends_on_regexes,omitempty"`

	InputFiles        []string `json:"input_files,omitempty"`
	InputFileRegexes  []string `json:"input_file_regexes,omitempty"`
	OutputFiles       []string `json:"output_files,omitempty"`
	OutputFileRegexes []string `json:"output_file_regexes,omitempty"`

	InputUserData        []string `json:"input_user_data,omitempty"`
	InputUserDataRegexes []string `json:"input_user_data_regexes,omitempty"`
	OutputUserData        []string `json:"output_user_data,omitempty"`
	OutputUserDataRegexes []string `json:"output_user_data_regexes,omitempty"`

	FailureHandler *api.FailureHandler `json:"failure_handler,omitempty"`

	UseParameters bool                     `json:"use_parameters,omitempty"`
	ParameterMode string                   `json:"parameter_mode,omitempty"`
	Parameters    map[string][]interface{} `json:"parameters,omitempty"`
}

// FileSpec declares one named filesystem artifact, or a template of files
// when parameterised.
type FileSpec struct {
	Name string `json:"name"`
	Path string `json:"path"`

	UseParameters bool                     `json:"use_parameters,omitempty"`
	ParameterMode string                   `json:"parameter_mode,omitempty"`
	Parameters    map[string][]interface{} `json:"parameters,omitempty"`
}

// UserDataSpec declares one named JSON blob.
type UserDataSpec struct {
	Name        string          `json:"name"`
	Data        json.RawMessage `json:"data,omitempty"`
	IsEphemeral bool            `json:"is_ephemeral,omitempty"`
}

// ResourceRequirementsSpec declares one named resource profile. Memory is a
// size string ("20g"); Runtime is an ISO-8601 duration ("P0DT4H").
type ResourceRequirementsSpec struct {
	Name     string `json:"name"`
	NumCPUs  int    `json:"num_cpus,omitempty"`
	NumGPUs  int    `json:"num_gpus,omitempty"`
	NumNodes int    `json:"num_nodes,omitempty"`
	Memory   string `json:"memory,omitempty"`
	Runtime  string `json:"runtime,omitempty"`
}

// SlurmSchedulerSpec declares one Slurm scheduler config.
type SlurmSchedulerSpec struct {
	Name      string `json:"name"`
	Account   string `json:"account"`
	Nodes     int    `json:"nodes,omitempty"`
	Walltime  string `json:"walltime,omitempty"`
	Partition string `json:"partition,omitempty"`
	QOS       string `json:"qos,omitempty"`
	Memory    string `json:"mem,omitempty"`
	Gres      string `json:"gres,omitempty"`
	Tmp       string `json:"tmp,omitempty"`
	Extra     string `json:"extra,omitempty"`
}

// WorkflowActionSpec declares one trigger-to-action rule. RequiredTriggers
// of zero derives the threshold from the trigger type at materialise time
// (e.g. on_workflow_complete requires every job).
type WorkflowActionSpec struct {
	TriggerType      string   `json:"trigger_type"`
	ActionType       string   `json:"action_type"`
	RequiredTriggers int      `json:"required_triggers,omitempty"`
	Jobs             []string `json:"jobs,omitempty"`
	Scheduler        string   `json:"scheduler,omitempty"`
	NumAllocations   int      `json:"num_allocations,omitempty"`
}

// Clone deep-copies the spec so expansion can emit a new tree without
// mutating the input.
func (s *WorkflowSpec) Clone() *WorkflowSpec {
	data, err := json.Marshal(s)
	if err != nil {
		return nil
	}
	var out WorkflowSpec
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return &out
}

// JobNames returns the declared job names in declaration order.
func (s *WorkflowSpec) JobNames() []string {
	names := make([]string, 0, len(s.Jobs))
	for _, job := range s.Jobs {
		names = append(names, job.Name)
	}
	return names
}

/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package spec

import (
	"encoding/json"

	kdl "github.com/sblinch/kdl-go"

	"github.com/NREL/torc-sub003/pkg/api"
)

// KDL documents describe a workflow with repeated child nodes:
//
//	name "demo"
//	user "jdoe"
//	job {
//	    name "preprocess"
//	    command "python prep.py"
//	    depends_on "fetch"
//	}
//
// The KDL surface decodes into mirror structs tagged for the KDL
// unmarshaller and is then converted through the JSON tags into the shared
// in-memory model, keeping one source of truth for field names.

type kdlWorkflow struct {
	Name        string `kdl:"name"`
	User        string `kdl:"user"`
	Description string `kdl:"description"`

	Jobs                 []kdlJob                   `kdl:"job,multiple"`
	Files                []FileSpec                 `kdl:"file,multiple"`
	UserData             []UserDataSpec             `kdl:"user_data,multiple"`
	ResourceRequirements []ResourceRequirementsSpec `kdl:"resource_requirements,multiple"`
	SlurmSchedulers      []SlurmSchedulerSpec       `kdl:"slurm_scheduler,multiple"`
	Actions              []WorkflowActionSpec       `kdl:"workflow_action,multiple"`
}

type kdlJob struct {
	Name                 string   `kdl:"name"`
	Command              string   `kdl:"command"`
	InvocationScript     string   `kdl:"invocation_script"`
	ResourceRequirements string   `kdl:"resource_requirements"`
	Scheduler            string   `kdl:"scheduler"`
	DependsOn            []string `kdl:"depends_on"`
	DependsOnRegexes     []string `kdl:"depends_on_regexes"`
	InputFiles           []string `kdl:"input_files"`
	InputFileRegexes     []string `kdl:"input_file_regexes"`
	OutputFiles          []string `kdl:"output_files"`
	OutputFileRegexes    []string `kdl:"output_file_regexes"`
	InputUserData         []string `kdl:"input_user_data"`
	InputUserDataRegexes  []string `kdl:"input_user_data_regexes"`
	OutputUserData        []string `kdl:"output_user_data"`
	OutputUserDataRegexes []string `kdl:"output_user_data_regexes"`

	FailureHandler *kdlFailureHandler `kdl:"failure_handler"`

	CancelOnBlockingFailure bool `kdl:"cancel_on_blocking_failure"`
	SupportsTermination     bool `kdl:"supports_termination"`
}

type kdlFailureHandler struct {
	MaxRetries  int   `kdl:"max_retries"`
	ReturnCodes []int `kdl:"return_codes"`
}

// decodeKDL decodes a KDL workflow document into the shared model.
func decodeKDL(data []byte) (*WorkflowSpec, error) {
	var doc kdlWorkflow
	if err := kdl.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	workflow := &WorkflowSpec{
		Name:                 doc.Name,
		User:                 doc.User,
		Description:          doc.Description,
		Files:                doc.Files,
		UserData:             doc.UserData,
		ResourceRequirements: doc.ResourceRequirements,
		SlurmSchedulers:      doc.SlurmSchedulers,
		Actions:              doc.Actions,
	}
	for _, job := range doc.Jobs {
		converted, err := convertKDLJob(job)
		if err != nil {
			return nil, err
		}
		workflow.Jobs = append(workflow.Jobs, *converted)
	}
	return workflow, nil
}

// convertKDLJob maps a KDL job node through JSON into the shared JobSpec so
// any field drift between the mirrors surfaces as a decode error.
func convertKDLJob(job kdlJob) (*JobSpec, error) {
	out := JobSpec{
		Name:                    job.Name,
		Command:                 job.Command,
		InvocationScript:        job.InvocationScript,
		ResourceRequirements:    job.ResourceRequirements,
		Scheduler:               job.Scheduler,
		DependsOn:               job.DependsOn,
		DependsOnRegexes:        job.DependsOnRegexes,
		InputFiles:              job.InputFiles,
		InputFileRegexes:        job.InputFileRegexes,
		OutputFiles:             job.OutputFiles,
		OutputFileRegexes:       job.OutputFileRegexes,
		InputUserData:           job.InputUserData,
		InputUserDataRegexes:    job.InputUserDataRegexes,
		OutputUserData:          job.OutputUserData,
		OutputUserDataRegexes:   job.OutputUserDataRegexes,
		CancelOnBlockingFailure: job.CancelOnBlockingFailure,
		SupportsTermination:     job.SupportsTermination,
	}
	if job.FailureHandler != nil {
		out.FailureHandler = &api.FailureHandler{
			MaxRetries:  job.FailureHandler.MaxRetries,
			ReturnCodes: job.FailureHandler.ReturnCodes,
		}
	}
	// Round-trip to catch any value the mirrors cannot represent.
	if _, err := json.Marshal(out); err != nil {
		return nil, err
	}
	return &out, nil
}

/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package spec

import (
	"fmt"
	"regexp"

	torcerrors "github.com/NREL/torc-sub003/pkg/errors"
	"github.com/NREL/torc-sub003/pkg/utils/sets"
)

// ResolvedJob is one job with every reference list normalised: regex
// patterns replaced by their matches, duplicates removed, implicit
// producer-to-consumer dependencies added, and each list sorted.
type ResolvedJob struct {
	Spec JobSpec

	DependsOn      []string
	InputFiles     []string
	OutputFiles    []string
	InputUserData  []string
	OutputUserData []string
}

// ResolvedWorkflow is the output of reference resolution and the input to
// validation and materialisation.
type ResolvedWorkflow struct {
	Spec *WorkflowSpec
	Jobs []ResolvedJob

	// Producer job name per artifact name. Artifacts nobody produces are
	// absent; they must exist on disk before the workflow starts.
	FileProducers     map[string]string
	UserDataProducers map[string]string
}

// Resolve normalises every reference in an expanded workflow. Templates must
// already be expanded; a spec that still carries use_parameters markers is
// rejected.
func Resolve(workflow *WorkflowSpec) (*ResolvedWorkflow, error) {
	jobNames, err := collectNames("job", len(workflow.Jobs), func(i int) string { return workflow.Jobs[i].Name })
	if err != nil {
		return nil, err
	}
	fileNames, err := collectNames("file", len(workflow.Files), func(i int) string { return workflow.Files[i].Name })
	if err != nil {
		return nil, err
	}
	userDataNames, err := collectNames("user_data", len(workflow.UserData), func(i int) string { return workflow.UserData[i].Name })
	if err != nil {
		return nil, err
	}
	requirementNames, err := collectNames("resource_requirements", len(workflow.ResourceRequirements),
		func(i int) string { return workflow.ResourceRequirements[i].Name })
	if err != nil {
		return nil, err
	}
	schedulerNames, err := collectNames("slurm_scheduler", len(workflow.SlurmSchedulers),
		func(i int) string { return workflow.SlurmSchedulers[i].Name })
	if err != nil {
		return nil, err
	}

	resolved := &ResolvedWorkflow{
		Spec:              workflow,
		Jobs:              make([]ResolvedJob, 0, len(workflow.Jobs)),
		FileProducers:     make(map[string]string),
		UserDataProducers: make(map[string]string),
	}

	for _, job := range workflow.Jobs {
		if job.UseParameters {
			return nil, torcerrors.NewInternalError(
				fmt.Sprintf("job %s still carries parameter markers; expand before resolving", job.Name))
		}
		if job.ResourceRequirements != "" && !requirementNames.Has(job.ResourceRequirements) {
			return nil, torcerrors.NewUnresolvedReference("resource_requirements", job.ResourceRequirements, job.Name)
		}
		if job.Scheduler != "" && !schedulerNames.Has(job.Scheduler) {
			return nil, torcerrors.NewUnresolvedReference("slurm_scheduler", job.Scheduler, job.Name)
		}

		dependsOn, err := resolveRefs(job.Name, "job", job.DependsOn, job.DependsOnRegexes, jobNames)
		if err != nil {
			return nil, err
		}
		inputFiles, err := resolveRefs(job.Name, "file", job.InputFiles, job.InputFileRegexes, fileNames)
		if err != nil {
			return nil, err
		}
		outputFiles, err := resolveRefs(job.Name, "file", job.OutputFiles, job.OutputFileRegexes, fileNames)
		if err != nil {
			return nil, err
		}
		inputUserData, err := resolveRefs(job.Name, "user_data", job.InputUserData, job.InputUserDataRegexes, userDataNames)
		if err != nil {
			return nil, err
		}
		outputUserData, err := resolveRefs(job.Name, "user_data", job.OutputUserData, job.OutputUserDataRegexes, userDataNames)
		if err != nil {
			return nil, err
		}

		for _, name := range outputFiles.SortedList() {
			if producer, ok := resolved.FileProducers[name]; ok {
				return nil, torcerrors.NewMultipleProducers("file", name, []string{producer, job.Name})
			}
			resolved.FileProducers[name] = job.Name
		}
		for _, name := range outputUserData.SortedList() {
			if producer, ok := resolved.UserDataProducers[name]; ok {
				return nil, torcerrors.NewMultipleProducers("user_data", name, []string{producer, job.Name})
			}
			resolved.UserDataProducers[name] = job.Name
		}

		resolved.Jobs = append(resolved.Jobs, ResolvedJob{
			Spec:           job,
			DependsOn:      dependsOn.SortedList(),
			InputFiles:     inputFiles.SortedList(),
			OutputFiles:    outputFiles.SortedList(),
			InputUserData:  inputUserData.SortedList(),
			OutputUserData: outputUserData.SortedList(),
		})
	}

	for _, action := range workflow.Actions {
		if action.Scheduler != "" && !schedulerNames.Has(action.Scheduler) {
			return nil, torcerrors.NewUnresolvedReference("slurm_scheduler", action.Scheduler, "workflow_action")
		}
		for _, name := range action.Jobs {
			if !jobNames.Has(name) {
				return nil, torcerrors.NewUnresolvedReference("job", name, "workflow_action")
			}
		}
	}

	resolved.addProducerDependencies()
	return resolved, nil
}

// addProducerDependencies closes the dependency lists over data flow: a job
// consuming an artifact depends on whichever job produces it.
func (r *ResolvedWorkflow) addProducerDependencies() {
	for i := range r.Jobs {
		job := &r.Jobs[i]
		deps := sets.NewSetByKeys(job.DependsOn...)
		for _, name := range job.InputFiles {
			if producer, ok := r.FileProducers[name]; ok && producer != job.Spec.Name {
				deps.Insert(producer)
			}
		}
		for _, name := range job.InputUserData {
			if producer, ok := r.UserDataProducers[name]; ok && producer != job.Spec.Name {
				deps.Insert(producer)
			}
		}
		job.DependsOn = deps.SortedList()
	}
}

// collectNames indexes declared names for one entity kind, rejecting
// duplicates.
func collectNames(kind string, count int, name func(int) string) (sets.Set, error) {
	names := sets.NewSet()
	for i := 0; i < count; i++ {
		n := name(i)
		if names.Has(n) {
			return nil, torcerrors.NewDuplicateName(kind, n)
		}
		names.Insert(n)
	}
	return names, nil
}

// resolveRefs merges exact names with regex matches into one deduplicated
// set. Exact names must resolve; a regex may legitimately match nothing.
// Patterns are anchored so "stage" does not match "stage_two".
func resolveRefs(job, kind string, exact, regexes []string, declared sets.Set) (sets.Set, error) {
	out := sets.NewSet()
	for _, name := range exact {
		if !declared.Has(name) {
			return nil, torcerrors.NewUnresolvedReference(kind, name, job)
		}
		out.Insert(name)
	}
	for _, pattern := range regexes {
		re, err := regexp.Compile("^(?:" + pattern + ")$")
		if err != nil {
			return nil, torcerrors.NewValidationFailure(
				fmt.Sprintf("job %s has invalid %s regex %q: %v", job, kind, pattern, err))
		}
		for _, name := range declared.SortedList() {
			if re.MatchString(name) {
				out.Insert(name)
			}
		}
	}
	return out, nil
}

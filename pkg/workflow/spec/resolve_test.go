/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package spec

import (
	"testing"

	"gotest.tools/assert"

	torcerrors "github.com/NREL/torc-sub003/pkg/errors"
)

func TestResolveRegexDependencies(t *testing.T) {
	workflow := &WorkflowSpec{
		Name: "regexdemo",
		Jobs: []JobSpec{
			{Name: "work_east", Command: "x"},
			{Name: "work_west", Command: "x"},
			{Name: "work_north", Command: "x"},
			{Name: "postprocess", Command: "x", DependsOnRegexes: []string{"work_.*"}},
		},
	}
	resolved, err := Resolve(workflow)
	assert.NilError(t, err)
	post := resolved.Jobs[3]
	assert.Equal(t, post.Spec.Name, "postprocess")
	assert.Equal(t, len(post.DependsOn), 3)
	assert.DeepEqual(t, post.DependsOn, []string{"work_east", "work_north", "work_west"})
}

func TestResolveRegexIsAnchored(t *testing.T) {
	workflow := &WorkflowSpec{
		Name: "anchored",
		Jobs: []JobSpec{
			{Name: "stage", Command: "x"},
			{Name: "stage_two", Command: "x"},
			{Name: "last", Command: "x", DependsOnRegexes: []string{"stage"}},
		},
	}
	resolved, err := Resolve(workflow)
	assert.NilError(t, err)
	assert.DeepEqual(t, resolved.Jobs[2].DependsOn, []string{"stage"})
}

func TestResolveRegexMayMatchNothing(t *testing.T) {
	workflow := &WorkflowSpec{
		Name: "empty",
		Jobs: []JobSpec{
			{Name: "a", Command: "x", DependsOnRegexes: []string{"missing_.*"}},
		},
	}
	resolved, err := Resolve(workflow)
	assert.NilError(t, err)
	assert.Equal(t, len(resolved.Jobs[0].DependsOn), 0)
}

func TestResolveInvalidRegex(t *testing.T) {
	workflow := &WorkflowSpec{
		Name: "badre",
		Jobs: []JobSpec{
			{Name: "a", Command: "x", DependsOnRegexes: []string{"work_("}},
		},
	}
	_, err := Resolve(workflow)
	assert.Equal(t, torcerrors.IsValidationFailure(err), true)
}

func TestResolveUnresolvedReference(t *testing.T) {
	workflow := &WorkflowSpec{
		Name: "dangling",
		Jobs: []JobSpec{
			{Name: "a", Command: "x", DependsOn: []string{"ghost"}},
		},
	}
	_, err := Resolve(workflow)
	assert.Equal(t, torcerrors.IsUnresolvedReference(err), true)
}

func TestResolveDuplicateJobName(t *testing.T) {
	workflow := &WorkflowSpec{
		Name: "dupe",
		Jobs: []JobSpec{
			{Name: "same", Command: "x"},
			{Name: "same", Command: "y"},
		},
	}
	_, err := Resolve(workflow)
	assert.Equal(t, torcerrors.IsDuplicateName(err), true)
}

func TestResolveMultipleProducers(t *testing.T) {
	workflow := &WorkflowSpec{
		Name:  "twoproducers",
		Files: []FileSpec{{Name: "out", Path: "/tmp/out"}},
		Jobs: []JobSpec{
			{Name: "a", Command: "x", OutputFiles: []string{"out"}},
			{Name: "b", Command: "y", OutputFiles: []string{"out"}},
		},
	}
	_, err := Resolve(workflow)
	assert.Equal(t, torcerrors.IsMultipleProducers(err), true)
}

func TestResolveProducerDependency(t *testing.T) {
	workflow := &WorkflowSpec{
		Name:  "dataflow",
		Files: []FileSpec{{Name: "raw", Path: "/tmp/raw"}},
		UserData: []UserDataSpec{
			{Name: "params"},
		},
		Jobs: []JobSpec{
			{Name: "fetch", Command: "x", OutputFiles: []string{"raw"}, OutputUserData: []string{"params"}},
			{Name: "prep", Command: "y", InputFiles: []string{"raw"}},
			{Name: "tune", Command: "z", InputUserData: []string{"params"}},
		},
	}
	resolved, err := Resolve(workflow)
	assert.NilError(t, err)
	assert.Equal(t, resolved.FileProducers["raw"], "fetch")
	assert.Equal(t, resolved.UserDataProducers["params"], "fetch")
	assert.DeepEqual(t, resolved.Jobs[1].DependsOn, []string{"fetch"})
	assert.DeepEqual(t, resolved.Jobs[2].DependsOn, []string{"fetch"})
}

func TestResolveSchedulerAndRequirementRefs(t *testing.T) {
	workflow := &WorkflowSpec{
		Name: "refs",
		ResourceRequirements: []ResourceRequirementsSpec{
			{Name: "small", NumCPUs: 1},
		},
		SlurmSchedulers: []SlurmSchedulerSpec{
			{Name: "std", Account: "acct", Nodes: 1},
		},
		Jobs: []JobSpec{
			{Name: "ok", Command: "x", ResourceRequirements: "small", Scheduler: "std"},
		},
	}
	_, err := Resolve(workflow)
	assert.NilError(t, err)

	workflow.Jobs[0].ResourceRequirements = "huge"
	_, err = Resolve(workflow)
	assert.Equal(t, torcerrors.IsUnresolvedReference(err), true)
}

func TestResolveActionRefs(t *testing.T) {
	workflow := &WorkflowSpec{
		Name: "actions",
		Jobs: []JobSpec{{Name: "a", Command: "x"}},
		Actions: []WorkflowActionSpec{
			{TriggerType: "on_job_complete", ActionType: "send_event", Jobs: []string{"ghost"}},
		},
	}
	_, err := Resolve(workflow)
	assert.Equal(t, torcerrors.IsUnresolvedReference(err), true)
}

func TestResolveRejectsUnexpandedTemplates(t *testing.T) {
	workflow := &WorkflowSpec{
		Name: "raw",
		Jobs: []JobSpec{{Name: "t_${x}", Command: "y", UseParameters: true}},
	}
	_, err := Resolve(workflow)
	assert.Equal(t, torcerrors.IsInternal(err), true)
}

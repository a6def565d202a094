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

func TestExpandZip(t *testing.T) {
	in := &WorkflowSpec{
		Name: "zipdemo",
		Jobs: []JobSpec{{
			Name:          "run_${region}_${tier}",
			Command:       "sim --region ${region} --tier ${tier}",
			UseParameters: true,
			ParameterMode: ParameterModeZip,
			Parameters: map[string][]interface{}{
				"region": {"east", "west"},
				"tier":   {"gold", "silver"},
			},
		}},
	}
	out, err := Expand(in)
	assert.NilError(t, err)
	assert.Equal(t, len(out.Jobs), 2)
	assert.Equal(t, out.Jobs[0].Name, "run_east_gold")
	assert.Equal(t, out.Jobs[0].Command, "sim --region east --tier gold")
	assert.Equal(t, out.Jobs[1].Name, "run_west_silver")
	assert.Equal(t, out.Jobs[0].UseParameters, false)
	// Input must stay untouched.
	assert.Equal(t, len(in.Jobs), 1)
	assert.Equal(t, in.Jobs[0].UseParameters, true)
}

func TestExpandProduct(t *testing.T) {
	in := &WorkflowSpec{
		Name: "proddemo",
		Jobs: []JobSpec{{
			Name:          "run_${region}_${tier}",
			Command:       "sim ${region} ${tier}",
			UseParameters: true,
			ParameterMode: ParameterModeProduct,
			Parameters: map[string][]interface{}{
				"region": {"east", "west"},
				"tier":   {"gold", "silver"},
			},
		}},
	}
	out, err := Expand(in)
	assert.NilError(t, err)
	assert.Equal(t, len(out.Jobs), 4)
	names := map[string]bool{}
	for _, job := range out.Jobs {
		names[job.Name] = true
	}
	for _, want := range []string{"run_east_gold", "run_east_silver", "run_west_gold", "run_west_silver"} {
		assert.Equal(t, names[want], true)
	}
}

func TestExpandIntegralFloatFormatting(t *testing.T) {
	in := &WorkflowSpec{
		Name: "numbers",
		Jobs: []JobSpec{{
			Name:          "step_${n}",
			Command:       "work ${n}",
			UseParameters: true,
			Parameters: map[string][]interface{}{
				// JSON numbers decode as float64.
				"n": {float64(1), float64(2)},
			},
		}},
	}
	out, err := Expand(in)
	assert.NilError(t, err)
	assert.Equal(t, out.Jobs[0].Name, "step_1")
	assert.Equal(t, out.Jobs[1].Command, "work 2")
}

func TestExpandZipShapeMismatch(t *testing.T) {
	in := &WorkflowSpec{
		Name: "mismatch",
		Jobs: []JobSpec{{
			Name:          "run_${a}_${b}",
			Command:       "x",
			UseParameters: true,
			ParameterMode: ParameterModeZip,
			Parameters: map[string][]interface{}{
				"a": {"1", "2", "3"},
				"b": {"x"},
			},
		}},
	}
	_, err := Expand(in)
	assert.Equal(t, torcerrors.IsParameterShapeMismatch(err), true)
}

func TestExpandDuplicateExpandedName(t *testing.T) {
	in := &WorkflowSpec{
		Name: "dupe",
		Jobs: []JobSpec{{
			Name:          "run_${a}",
			Command:       "x",
			UseParameters: true,
			Parameters: map[string][]interface{}{
				"a": {"same", "same"},
			},
		}},
	}
	_, err := Expand(in)
	assert.Equal(t, torcerrors.IsDuplicateExpandedName(err), true)
}

func TestExpandFiles(t *testing.T) {
	in := &WorkflowSpec{
		Name: "files",
		Jobs: []JobSpec{{Name: "solo", Command: "true"}},
		Files: []FileSpec{{
			Name:          "out_${region}",
			Path:          "/data/${region}/out.dat",
			UseParameters: true,
			Parameters: map[string][]interface{}{
				"region": {"east", "west"},
			},
		}},
	}
	out, err := Expand(in)
	assert.NilError(t, err)
	assert.Equal(t, len(out.Files), 2)
	assert.Equal(t, out.Files[0].Name, "out_east")
	assert.Equal(t, out.Files[0].Path, "/data/east/out.dat")
	assert.Equal(t, out.Files[1].Name, "out_west")
}

func TestExpandNoParametersDeclared(t *testing.T) {
	in := &WorkflowSpec{
		Name: "bare",
		Jobs: []JobSpec{{Name: "t", Command: "x", UseParameters: true}},
	}
	_, err := Expand(in)
	assert.Equal(t, torcerrors.IsParseError(err), true)
}

func TestExpandPassThrough(t *testing.T) {
	in := &WorkflowSpec{
		Name: "plain",
		Jobs: []JobSpec{
			{Name: "a", Command: "echo a"},
			{Name: "b", Command: "echo b", DependsOn: []string{"a"}},
		},
	}
	out, err := Expand(in)
	assert.NilError(t, err)
	assert.Equal(t, len(out.Jobs), 2)
	assert.Equal(t, out.Jobs[1].DependsOn[0], "a")
}

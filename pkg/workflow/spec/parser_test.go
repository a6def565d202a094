/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package spec

import (
	"os"
	"path/filepath"
	"testing"

	"gotest.tools/assert"

	torcerrors "github.com/NREL/torc-sub003/pkg/errors"
)

func writeSpecFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	assert.NilError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseJSON(t *testing.T) {
	path := writeSpecFile(t, "workflow.json", `{
		"name": "demo",
		"user": "jdoe",
		"jobs": [
			{"name": "fetch", "command": "curl -o raw.dat https://example.com/raw"},
			{"name": "prep", "command": "python prep.py", "depends_on": ["fetch"]}
		]
	}`)
	workflow, err := Parse(path)
	assert.NilError(t, err)
	assert.Equal(t, workflow.Name, "demo")
	assert.Equal(t, workflow.User, "jdoe")
	assert.Equal(t, len(workflow.Jobs), 2)
	assert.Equal(t, workflow.Jobs[1].DependsOn[0], "fetch")
}

func TestParseJSON5(t *testing.T) {
	path := writeSpecFile(t, "workflow.json5", `{
		// comments and trailing commas are fine in json5
		name: "demo5",
		jobs: [
			{name: "solo", command: "echo hi",},
		],
	}`)
	workflow, err := Parse(path)
	assert.NilError(t, err)
	assert.Equal(t, workflow.Name, "demo5")
	assert.Equal(t, len(workflow.Jobs), 1)
	assert.Equal(t, workflow.Jobs[0].Command, "echo hi")
}

func TestParseYAML(t *testing.T) {
	path := writeSpecFile(t, "workflow.yaml", `
name: demoyaml
jobs:
  - name: a
    command: echo a
  - name: b
    command: echo b
    depends_on: [a]
resource_requirements:
  - name: small
    num_cpus: 2
    memory: 4g
    runtime: P0DT1H
`)
	workflow, err := Parse(path)
	assert.NilError(t, err)
	assert.Equal(t, workflow.Name, "demoyaml")
	assert.Equal(t, len(workflow.Jobs), 2)
	assert.Equal(t, workflow.ResourceRequirements[0].Memory, "4g")
	assert.Equal(t, workflow.ResourceRequirements[0].Runtime, "P0DT1H")
}

func TestParseKDL(t *testing.T) {
	path := writeSpecFile(t, "workflow.kdl", `
name "demokdl"
user "jdoe"
job {
    name "fetch"
    command "curl -o raw.dat https://example.com/raw"
}
job {
    name "prep"
    command "python prep.py"
    depends_on "fetch"
    input_user_data_regexes "batch_.*"
    output_user_data_regexes "result_.*"
    failure_handler {
        max_retries 2
        return_codes 1 137
    }
}
`)
	workflow, err := Parse(path)
	assert.NilError(t, err)
	assert.Equal(t, workflow.Name, "demokdl")
	assert.Equal(t, len(workflow.Jobs), 2)
	assert.Equal(t, workflow.Jobs[0].Name, "fetch")
	assert.Equal(t, workflow.Jobs[1].DependsOn[0], "fetch")
	prep := workflow.Jobs[1]
	assert.DeepEqual(t, prep.InputUserDataRegexes, []string{"batch_.*"})
	assert.DeepEqual(t, prep.OutputUserDataRegexes, []string{"result_.*"})
	assert.Equal(t, prep.FailureHandler.MaxRetries, 2)
	assert.DeepEqual(t, prep.FailureHandler.ReturnCodes, []int{1, 137})
}

func TestParseUnknownExtensionFallsBack(t *testing.T) {
	path := writeSpecFile(t, "workflow.spec", `{"name": "fallback", "jobs": [{"name": "x", "command": "true"}]}`)
	workflow, err := Parse(path)
	assert.NilError(t, err)
	assert.Equal(t, workflow.Name, "fallback")
}

func TestParseMissingFile(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "nope.json"))
	assert.Equal(t, torcerrors.IsParseError(err), true)
}

func TestParseMalformedDocument(t *testing.T) {
	path := writeSpecFile(t, "workflow.json", `{"name": "broken"`)
	_, err := Parse(path)
	assert.Equal(t, torcerrors.IsParseError(err), true)
}

func TestEncodeRoundTrip(t *testing.T) {
	workflow := &WorkflowSpec{
		Name: "roundtrip",
		Jobs: []JobSpec{{Name: "a", Command: "echo a"}},
	}
	for _, format := range []Format{FormatJSON, FormatYAML} {
		data, err := Encode(workflow, format)
		assert.NilError(t, err)
		decoded, err := Decode(data, format)
		assert.NilError(t, err)
		assert.Equal(t, decoded.Name, workflow.Name)
		assert.Equal(t, decoded.Jobs[0].Command, "echo a")
	}
}

func TestEncodeKDLUnsupported(t *testing.T) {
	_, err := Encode(&WorkflowSpec{Name: "x"}, FormatKDL)
	assert.Equal(t, torcerrors.IsInternal(err), true)
}

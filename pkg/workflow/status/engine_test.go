/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package status

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gotest.tools/assert"

	"github.com/NREL/torc-sub003/pkg/api"
	"github.com/NREL/torc-sub003/pkg/client"
	"github.com/NREL/torc-sub003/pkg/client/storetest"
	torcerrors "github.com/NREL/torc-sub003/pkg/errors"
	"github.com/NREL/torc-sub003/pkg/workflow/builder"
	"github.com/NREL/torc-sub003/pkg/workflow/spec"
)

type fixture struct {
	server     *storetest.Server
	client     *client.Client
	engine     *Engine
	workflowID int64
	inputPath  string
}

// newFixture materialises a two-job chain where the first job consumes an
// input file nobody produces.
func newFixture(t *testing.T, createInput bool) *fixture {
	t.Helper()
	server := storetest.New()
	t.Cleanup(server.Close)
	c := client.New(server.URL())

	inputPath := filepath.Join(t.TempDir(), "input.dat")
	if createInput {
		assert.NilError(t, os.WriteFile(inputPath, []byte("data"), 0o644))
	}
	resolved, err := spec.Resolve(&spec.WorkflowSpec{
		Name:  "chain",
		Files: []spec.FileSpec{{Name: "input", Path: inputPath}},
		Jobs: []spec.JobSpec{
			{Name: "first", Command: "true", InputFiles: []string{"input"}},
			{Name: "second", Command: "true", DependsOn: []string{"first"}},
		},
	})
	assert.NilError(t, err)
	id, err := builder.Materialise(context.Background(), c, resolved, "jdoe", builder.DefaultOptions())
	assert.NilError(t, err)
	return &fixture{
		server:     server,
		client:     c,
		engine:     NewEngine(c),
		workflowID: id,
		inputPath:  inputPath,
	}
}

func (f *fixture) jobsByName(t *testing.T) map[string]api.Job {
	t.Helper()
	jobs, err := client.CollectAll(func(params api.ListParams) (api.ListResponse[api.Job], error) {
		return f.client.ListJobs(context.Background(), f.workflowID, api.JobFilter{ListParams: params})
	})
	assert.NilError(t, err)
	out := map[string]api.Job{}
	for _, job := range jobs {
		out[job.Name] = job
	}
	return out
}

func TestInitialise(t *testing.T) {
	f := newFixture(t, true)
	assert.NilError(t, f.engine.Initialise(context.Background(), f.workflowID, false))

	jobs := f.jobsByName(t)
	assert.Equal(t, jobs["first"].Status, api.JobReady)
	assert.Equal(t, jobs["second"].Status, api.JobBlocked)
}

func TestInitialiseMissingInputs(t *testing.T) {
	f := newFixture(t, false)
	err := f.engine.Initialise(context.Background(), f.workflowID, false)
	assert.Equal(t, torcerrors.IsMissingInputs(err), true)

	// Nothing was mutated.
	jobs := f.jobsByName(t)
	assert.Equal(t, jobs["first"].Status, api.JobUninitialized)

	// Force pushes past the check.
	assert.NilError(t, f.engine.Initialise(context.Background(), f.workflowID, true))
	jobs = f.jobsByName(t)
	assert.Equal(t, jobs["first"].Status, api.JobReady)
}

func TestCheckInitialisation(t *testing.T) {
	f := newFixture(t, false)
	check, err := f.engine.CheckInitialisation(context.Background(), f.workflowID)
	assert.NilError(t, err)
	assert.Equal(t, check.Safe, false)
	assert.Equal(t, len(check.MissingInputFiles), 1)
	assert.Equal(t, check.MissingInputFiles[0], f.inputPath)

	assert.NilError(t, os.WriteFile(f.inputPath, []byte("data"), 0o644))
	check, err = f.engine.CheckInitialisation(context.Background(), f.workflowID)
	assert.NilError(t, err)
	assert.Equal(t, check.Safe, true)
	assert.Equal(t, len(check.MissingInputFiles), 0)
}

func TestResetStatusBlockedByActiveJobs(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	assert.NilError(t, f.engine.Initialise(ctx, f.workflowID, false))
	first := f.jobsByName(t)["first"]
	assert.NilError(t, f.client.UpdateJobStatus(ctx, f.workflowID, first.ID, api.JobSubmitted))
	assert.NilError(t, f.client.UpdateJobStatus(ctx, f.workflowID, first.ID, api.JobRunning))

	err := f.engine.ResetStatus(ctx, f.workflowID, false, false)
	assert.Equal(t, torcerrors.IsActiveJobs(err), true)

	assert.NilError(t, f.engine.ResetStatus(ctx, f.workflowID, false, true))
	jobs := f.jobsByName(t)
	assert.Equal(t, jobs["first"].Status, api.JobUninitialized)
	assert.Equal(t, jobs["second"].Status, api.JobUninitialized)
}

func TestReinitialiseRerunsStaleDoneJobs(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	assert.NilError(t, f.engine.Initialise(ctx, f.workflowID, false))

	// Drive "first" to Done with a completion far in the past, then touch
	// the input so its mtime postdates the completion.
	first := f.jobsByName(t)["first"]
	assert.NilError(t, f.client.UpdateJobStatus(ctx, f.workflowID, first.ID, api.JobSubmitted))
	assert.NilError(t, f.client.UpdateJobStatus(ctx, f.workflowID, first.ID, api.JobRunning))
	assert.NilError(t, f.client.UpdateJobStatus(ctx, f.workflowID, first.ID, api.JobDone))
	_, err := f.client.CreateResult(ctx, &api.Result{
		JobID:          first.ID,
		WorkflowID:     f.workflowID,
		RunID:          1,
		ReturnCode:     0,
		CompletionTime: "2020-01-01T00:00:00Z",
		Status:         api.JobDone,
	})
	assert.NilError(t, err)
	assert.NilError(t, os.WriteFile(f.inputPath, []byte("fresh"), 0o644))

	assert.NilError(t, f.engine.Reinitialise(ctx, f.workflowID, false))
	jobs := f.jobsByName(t)
	assert.Equal(t, jobs["first"].Status, api.JobReady)
}

// newUserDataFixture materialises a one-job workflow consuming a non-empty
// user-data blob.
func newUserDataFixture(t *testing.T) *fixture {
	t.Helper()
	server := storetest.New()
	t.Cleanup(server.Close)
	c := client.New(server.URL())

	resolved, err := spec.Resolve(&spec.WorkflowSpec{
		Name:     "configured",
		UserData: []spec.UserDataSpec{{Name: "cfg", Data: []byte(`{"threshold":5}`)}},
		Jobs: []spec.JobSpec{
			{Name: "first", Command: "true", InputUserData: []string{"cfg"}},
		},
	})
	assert.NilError(t, err)
	id, err := builder.Materialise(context.Background(), c, resolved, "jdoe", builder.DefaultOptions())
	assert.NilError(t, err)
	return &fixture{server: server, client: c, engine: NewEngine(c), workflowID: id}
}

func (f *fixture) userDataByName(t *testing.T, name string) api.UserData {
	t.Helper()
	page, err := f.client.ListUserData(context.Background(), f.workflowID, api.UserDataFilter{Name: name})
	assert.NilError(t, err)
	assert.Equal(t, len(page.Items), 1)
	return page.Items[0]
}

func TestReinitialiseRerunsJobWithChangedUserData(t *testing.T) {
	f := newUserDataFixture(t)
	ctx := context.Background()
	assert.NilError(t, f.engine.Initialise(ctx, f.workflowID, false))

	first := f.jobsByName(t)["first"]
	assert.NilError(t, f.client.UpdateJobStatus(ctx, f.workflowID, first.ID, api.JobSubmitted))
	assert.NilError(t, f.client.UpdateJobStatus(ctx, f.workflowID, first.ID, api.JobRunning))
	assert.NilError(t, f.client.UpdateJobStatus(ctx, f.workflowID, first.ID, api.JobDone))
	_, err := f.client.CreateResult(ctx, &api.Result{
		JobID:          first.ID,
		WorkflowID:     f.workflowID,
		RunID:          1,
		CompletionTime: api.NowTimestamp(),
		Status:         api.JobDone,
	})
	assert.NilError(t, err)

	// The store stamps the blob's update time after the recorded completion.
	time.Sleep(5 * time.Millisecond)
	cfg := f.userDataByName(t, "cfg")
	cfg.Data = []byte(`{"threshold":9}`)
	assert.NilError(t, f.client.UpdateUserData(ctx, &cfg))

	assert.NilError(t, f.engine.Reinitialise(ctx, f.workflowID, false))
	jobs := f.jobsByName(t)
	assert.Equal(t, jobs["first"].Status, api.JobReady)
}

func TestReinitialiseKeepsJobWithUnchangedUserData(t *testing.T) {
	f := newUserDataFixture(t)
	ctx := context.Background()
	assert.NilError(t, f.engine.Initialise(ctx, f.workflowID, false))

	first := f.jobsByName(t)["first"]
	assert.NilError(t, f.client.UpdateJobStatus(ctx, f.workflowID, first.ID, api.JobSubmitted))
	assert.NilError(t, f.client.UpdateJobStatus(ctx, f.workflowID, first.ID, api.JobRunning))
	assert.NilError(t, f.client.UpdateJobStatus(ctx, f.workflowID, first.ID, api.JobDone))
	// Completion far in the future: the blob cannot have changed since.
	_, err := f.client.CreateResult(ctx, &api.Result{
		JobID:          first.ID,
		WorkflowID:     f.workflowID,
		RunID:          1,
		CompletionTime: "2100-01-01T00:00:00Z",
		Status:         api.JobDone,
	})
	assert.NilError(t, err)

	assert.NilError(t, f.engine.Reinitialise(ctx, f.workflowID, false))
	jobs := f.jobsByName(t)
	assert.Equal(t, jobs["first"].Status, api.JobDone)
}

func TestReinitialiseKeepsFreshDoneJobs(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	assert.NilError(t, f.engine.Initialise(ctx, f.workflowID, false))

	first := f.jobsByName(t)["first"]
	assert.NilError(t, f.client.UpdateJobStatus(ctx, f.workflowID, first.ID, api.JobSubmitted))
	assert.NilError(t, f.client.UpdateJobStatus(ctx, f.workflowID, first.ID, api.JobRunning))
	assert.NilError(t, f.client.UpdateJobStatus(ctx, f.workflowID, first.ID, api.JobDone))
	// Completion far in the future: the input cannot be newer.
	_, err := f.client.CreateResult(ctx, &api.Result{
		JobID:          first.ID,
		WorkflowID:     f.workflowID,
		RunID:          1,
		CompletionTime: "2100-01-01T00:00:00Z",
		Status:         api.JobDone,
	})
	assert.NilError(t, err)

	assert.NilError(t, f.engine.Reinitialise(ctx, f.workflowID, false))
	jobs := f.jobsByName(t)
	assert.Equal(t, jobs["first"].Status, api.JobDone)
}

/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package client_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gotest.tools/assert"

	"github.com/NREL/torc-sub003/pkg/api"
	"github.com/NREL/torc-sub003/pkg/client"
	"github.com/NREL/torc-sub003/pkg/client/storetest"
	"github.com/NREL/torc-sub003/pkg/common"
	torcerrors "github.com/NREL/torc-sub003/pkg/errors"
)

func newClient(t *testing.T) *client.Client {
	t.Helper()
	server := storetest.New()
	t.Cleanup(server.Close)
	return client.New(server.URL())
}

func TestWorkflowLifecycle(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	created, err := c.CreateWorkflow(ctx, &api.Workflow{Name: "wf", User: "jdoe"})
	assert.NilError(t, err)
	assert.Equal(t, created.ID > 0, true)
	assert.Equal(t, created.RunID, int64(1))

	fetched, err := c.GetWorkflow(ctx, created.ID)
	assert.NilError(t, err)
	assert.Equal(t, fetched.Name, "wf")

	assert.NilError(t, c.DeleteWorkflow(ctx, created.ID))
	_, err = c.GetWorkflow(ctx, created.ID)
	assert.Equal(t, torcerrors.IsNotFound(err), true)
}

func TestNotFoundMapping(t *testing.T) {
	c := newClient(t)
	_, err := c.GetWorkflow(context.Background(), 9999)
	assert.Equal(t, torcerrors.IsNotFound(err), true)
	assert.Equal(t, torcerrors.IgnoreNotFound(err), nil)
}

func TestTransportFailure(t *testing.T) {
	c := client.New("http://127.0.0.1:1")
	_, err := c.GetWorkflow(context.Background(), 1)
	assert.Equal(t, torcerrors.IsTransportFailure(err), true)
}

func TestCollectAllPaginates(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	workflow, err := c.CreateWorkflow(ctx, &api.Workflow{Name: "big", User: "jdoe"})
	assert.NilError(t, err)

	var jobs []api.Job
	for i := 0; i < 250; i++ {
		jobs = append(jobs, api.Job{Name: fmt.Sprintf("job_%03d", i), Command: "true"})
	}
	created, err := c.CreateJobs(ctx, workflow.ID, jobs)
	assert.NilError(t, err)
	assert.Equal(t, len(created), 250)

	// The default page size is 100; CollectAll walks every page.
	all, err := client.CollectAll(func(params api.ListParams) (api.ListResponse[api.Job], error) {
		return c.ListJobs(ctx, workflow.ID, api.JobFilter{ListParams: params})
	})
	assert.NilError(t, err)
	assert.Equal(t, len(all), 250)

	page, err := c.ListJobs(ctx, workflow.ID, api.JobFilter{ListParams: api.ListParams{Limit: 40, Offset: 240}})
	assert.NilError(t, err)
	assert.Equal(t, len(page.Items), 10)
	assert.Equal(t, page.HasMore, false)
	assert.Equal(t, page.TotalCount, 250)
}

func TestClaimNextReadyJob(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	workflow, err := c.CreateWorkflow(ctx, &api.Workflow{Name: "claims", User: "jdoe"})
	assert.NilError(t, err)
	created, err := c.CreateJobs(ctx, workflow.ID, []api.Job{
		{Name: "a", Command: "true", Status: api.JobReady},
		{Name: "b", Command: "true", Status: api.JobBlocked},
	})
	assert.NilError(t, err)
	assert.Equal(t, len(created), 2)

	job, claimed, err := c.ClaimNextReadyJob(ctx, workflow.ID, 1)
	assert.NilError(t, err)
	assert.Equal(t, claimed, true)
	assert.Equal(t, job.Name, "a")
	assert.Equal(t, job.Status, api.JobSubmitted)

	// Nothing else is ready.
	_, claimed, err = c.ClaimNextReadyJob(ctx, workflow.ID, 1)
	assert.NilError(t, err)
	assert.Equal(t, claimed, false)
}

func TestClaimNextReadyJobIsExclusive(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	workflow, err := c.CreateWorkflow(ctx, &api.Workflow{Name: "race", User: "jdoe"})
	assert.NilError(t, err)
	_, err = c.CreateJobs(ctx, workflow.ID, []api.Job{
		{Name: "only", Command: "true", Status: api.JobReady},
	})
	assert.NilError(t, err)

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(worker int64) {
			defer wg.Done()
			_, claimed, err := c.ClaimNextReadyJob(ctx, workflow.ID, worker)
			assert.Check(t, err == nil)
			if claimed {
				atomic.AddInt32(&wins, 1)
			}
		}(int64(i + 1))
	}
	wg.Wait()
	assert.Equal(t, atomic.LoadInt32(&wins), int32(1))
}

func TestRequiredExistingFiles(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	workflow, err := c.CreateWorkflow(ctx, &api.Workflow{Name: "files", User: "jdoe"})
	assert.NilError(t, err)
	input, err := c.CreateFile(ctx, &api.File{WorkflowID: workflow.ID, Name: "input", Path: "/tmp/in"})
	assert.NilError(t, err)
	intermediate, err := c.CreateFile(ctx, &api.File{WorkflowID: workflow.ID, Name: "mid", Path: "/tmp/mid"})
	assert.NilError(t, err)
	jobs, err := c.CreateJobs(ctx, workflow.ID, []api.Job{
		{Name: "a", Command: "true"},
		{Name: "b", Command: "true"},
	})
	assert.NilError(t, err)
	assert.NilError(t, c.CreateJobFiles(ctx, workflow.ID, []api.JobFile{
		{WorkflowID: workflow.ID, JobID: jobs[0].ID, FileID: input.ID, Relation: api.RelationConsumes},
		{WorkflowID: workflow.ID, JobID: jobs[0].ID, FileID: intermediate.ID, Relation: api.RelationProduces},
		{WorkflowID: workflow.ID, JobID: jobs[1].ID, FileID: intermediate.ID, Relation: api.RelationConsumes},
	}))

	// Only files consumed but never produced must pre-exist.
	required, err := c.ListRequiredExistingFiles(ctx, workflow.ID)
	assert.NilError(t, err)
	assert.Equal(t, len(required), 1)
	assert.Equal(t, required[0].Name, "input")
}

func TestClearEphemeralUserData(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	workflow, err := c.CreateWorkflow(ctx, &api.Workflow{Name: "ud", User: "jdoe"})
	assert.NilError(t, err)
	ephemeral, err := c.CreateUserData(ctx, &api.UserData{
		WorkflowID: workflow.ID, Name: "scratch", Data: []byte(`{"x":1}`), IsEphemeral: true,
	})
	assert.NilError(t, err)
	durable, err := c.CreateUserData(ctx, &api.UserData{
		WorkflowID: workflow.ID, Name: "config", Data: []byte(`{"y":2}`),
	})
	assert.NilError(t, err)

	assert.NilError(t, c.ClearEphemeralUserData(ctx, workflow.ID))

	cleared, err := c.GetUserData(ctx, workflow.ID, ephemeral.ID)
	assert.NilError(t, err)
	assert.Equal(t, len(cleared.Data), 0)
	kept, err := c.GetUserData(ctx, workflow.ID, durable.ID)
	assert.NilError(t, err)
	assert.Equal(t, string(kept.Data), `{"y":2}`)
}

func TestStreamEventsFallsBackToPollAndResumes(t *testing.T) {
	server := storetest.New()
	t.Cleanup(server.Close)
	c := client.New(server.URL())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	workflow, err := c.CreateWorkflow(ctx, &api.Workflow{Name: "stream", User: "jdoe"})
	assert.NilError(t, err)
	for ts := int64(1); ts <= 2; ts++ {
		_, err = c.CreateEvent(ctx, &api.Event{
			WorkflowID: workflow.ID, Timestamp: ts,
			Category: common.EventCategoryJob, EventType: "status_change",
			Severity: api.SeverityInfo,
		})
		assert.NilError(t, err)
	}

	// The first connection attempt fails; the backlog arrives through the
	// list fallback, and the reconnect resumes past the cursor.
	server.FailNext("GET", "/events/stream", 1)

	received := make(chan api.Event, 8)
	done := make(chan error, 1)
	go func() {
		done <- c.StreamEvents(ctx, workflow.ID, api.SeverityInfo,
			20*time.Millisecond, 50*time.Millisecond,
			func(event api.Event) { received <- event })
	}()

	var timestamps []int64
	for len(timestamps) < 2 {
		select {
		case event := <-received:
			timestamps = append(timestamps, event.Timestamp)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for polled events")
		}
	}

	_, err = c.CreateEvent(ctx, &api.Event{
		WorkflowID: workflow.ID, Timestamp: 3,
		Category: common.EventCategoryJob, EventType: "status_change",
		Severity: api.SeverityInfo,
	})
	assert.NilError(t, err)
	select {
	case event := <-received:
		timestamps = append(timestamps, event.Timestamp)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for streamed event")
	}

	cancel()
	assert.NilError(t, <-done)
	assert.DeepEqual(t, timestamps, []int64{1, 2, 3})
}

func TestServerVersion(t *testing.T) {
	c := newClient(t)
	version, err := c.ServerVersion(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, version != "", true)
	assert.NilError(t, c.CheckVersion(context.Background()))
}

/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

// Package status computes job readiness. It owns the initialise and
// reinitialise flows that move jobs between Uninitialized, Ready, and
// Blocked based on dependency completion and input-file presence.
package status

import (
	"context"
	"os"

	"k8s.io/klog/v2"

	"github.com/NREL/torc-sub003/pkg/api"
	"github.com/NREL/torc-sub003/pkg/client"
	torcerrors "github.com/NREL/torc-sub003/pkg/errors"
	"github.com/NREL/torc-sub003/pkg/utils/timeutil"
)

// Engine drives job status transitions through the store.
type Engine struct {
	client *client.Client
}

// NewEngine returns a status engine bound to one store client.
func NewEngine(c *client.Client) *Engine {
	return &Engine{client: c}
}

// Initialise moves every Uninitialized job to Ready or Blocked. When any
// required input file is absent and force is false, nothing is mutated and a
// missing-inputs error lists the absent paths. Ephemeral user data is
// cleared so stale run artifacts cannot satisfy consumers.
func (e *Engine) Initialise(ctx context.Context, workflowID int64, force bool) error {
	missing, err := e.missingInputFiles(ctx, workflowID)
	if err != nil {
		return err
	}
	if len(missing) > 0 && !force {
		return torcerrors.NewMissingInputs(missing)
	}
	if err := e.client.ClearEphemeralUserData(ctx, workflowID); err != nil {
		return err
	}
	if err := e.recordFileMTimes(ctx, workflowID); err != nil {
		return err
	}

	jobs, blockers, err := e.loadGraph(ctx, workflowID)
	if err != nil {
		return err
	}
	statusByID := make(map[int64]api.JobStatus, len(jobs))
	for _, job := range jobs {
		statusByID[job.ID] = job.Status
	}
	ready, blocked := 0, 0
	for _, job := range jobs {
		if job.Status != api.JobUninitialized {
			continue
		}
		next := api.JobReady
		for _, blocker := range blockers[job.ID] {
			if statusByID[blocker] != api.JobDone {
				next = api.JobBlocked
				break
			}
		}
		if err := e.client.UpdateJobStatus(ctx, workflowID, job.ID, next); err != nil {
			return err
		}
		if next == api.JobReady {
			ready++
		} else {
			blocked++
		}
	}
	klog.V(2).Infof("initialised workflow %d: %d ready, %d blocked", workflowID, ready, blocked)
	return nil
}

// Reinitialise re-examines Done jobs before the normal initialise pass: a
// job whose consumed file is newer than its recorded completion, or whose
// consumed user data has gone missing, drops back to Uninitialized so it
// reruns. Other Done jobs keep their status.
func (e *Engine) Reinitialise(ctx context.Context, workflowID int64, force bool) error {
	stale, err := e.staleDoneJobs(ctx, workflowID)
	if err != nil {
		return err
	}
	for _, jobID := range stale {
		if err := e.client.ResetJobStatus(ctx, workflowID, jobID); err != nil {
			return err
		}
	}
	if len(stale) > 0 {
		klog.Infof("reinitialise reset %d jobs with changed inputs in workflow %d", len(stale), workflowID)
	}
	return e.Initialise(ctx, workflowID, force)
}

// CheckInitialisation is the dry-run form of Initialise: it reports whether
// initialising would succeed, which input files are missing, and which
// output files already exist, without mutating anything.
func (e *Engine) CheckInitialisation(ctx context.Context, workflowID int64) (*api.InitializationCheck, error) {
	check := &api.InitializationCheck{
		MissingInputFiles:   []string{},
		ExistingOutputFiles: []string{},
	}
	missing, err := e.missingInputFiles(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	check.MissingInputFiles = append(check.MissingInputFiles, missing...)

	outputs, err := client.CollectAll(func(params api.ListParams) (api.ListResponse[api.File], error) {
		return e.client.ListFiles(ctx, workflowID, api.FileFilter{ListParams: params, IsOutput: true})
	})
	if err != nil {
		return nil, err
	}
	for _, file := range outputs {
		if _, err := os.Stat(file.Path); err == nil {
			check.ExistingOutputFiles = append(check.ExistingOutputFiles, file.Path)
		}
	}
	check.Safe = len(check.MissingInputFiles) == 0
	return check, nil
}

// ResetStatus reverts job statuses to Uninitialized, either for every job or
// only the failed ones. Active jobs block the reset unless forced.
func (e *Engine) ResetStatus(ctx context.Context, workflowID int64, failedOnly, force bool) error {
	if !force {
		jobs, _, err := e.loadGraph(ctx, workflowID)
		if err != nil {
			return err
		}
		var active []int64
		for _, job := range jobs {
			if job.Status.IsActive() {
				active = append(active, job.ID)
			}
		}
		if len(active) > 0 {
			return torcerrors.NewActiveJobs(active)
		}
	}
	return e.client.ResetWorkflowStatus(ctx, workflowID, failedOnly, force)
}

// missingInputFiles stats every file the workflow requires to exist up
// front (consumed files nobody produces) and returns the absent paths.
func (e *Engine) missingInputFiles(ctx context.Context, workflowID int64) ([]string, error) {
	required, err := e.client.ListRequiredExistingFiles(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	var missing []string
	for _, file := range required {
		if _, err := os.Stat(file.Path); err != nil {
			missing = append(missing, file.Path)
		}
	}
	return missing, nil
}

// recordFileMTimes stamps the store rows of existing files with their
// current mtimes; reinitialise compares against these.
func (e *Engine) recordFileMTimes(ctx context.Context, workflowID int64) error {
	files, err := client.CollectAll(func(params api.ListParams) (api.ListResponse[api.File], error) {
		return e.client.ListFiles(ctx, workflowID, api.FileFilter{ListParams: params})
	})
	if err != nil {
		return err
	}
	for _, file := range files {
		info, err := os.Stat(file.Path)
		if err != nil {
			continue
		}
		mtime := info.ModTime().UnixMilli()
		if mtime == file.MTime {
			continue
		}
		file.MTime = mtime
		if err := e.client.UpdateFile(ctx, &file); err != nil {
			return err
		}
	}
	return nil
}

// staleDoneJobs returns Done jobs whose inputs changed after they completed:
// a consumed file with a newer mtime, or a consumed user-data blob the store
// stamped with a newer update time.
func (e *Engine) staleDoneJobs(ctx context.Context, workflowID int64) ([]int64, error) {
	jobs, _, err := e.loadGraph(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	edges, err := client.CollectAll(func(params api.ListParams) (api.ListResponse[api.JobFile], error) {
		return e.client.ListJobFileRelationships(ctx, workflowID, params)
	})
	if err != nil {
		return nil, err
	}
	consumed := make(map[int64][]int64)
	for _, edge := range edges {
		if edge.Relation == api.RelationConsumes {
			consumed[edge.JobID] = append(consumed[edge.JobID], edge.FileID)
		}
	}
	udEdges, err := client.CollectAll(func(params api.ListParams) (api.ListResponse[api.JobUserData], error) {
		return e.client.ListJobUserDataRelationships(ctx, workflowID, params)
	})
	if err != nil {
		return nil, err
	}
	consumedUD := make(map[int64][]int64)
	for _, edge := range udEdges {
		if edge.Relation == api.RelationConsumes {
			consumedUD[edge.JobID] = append(consumedUD[edge.JobID], edge.UserDataID)
		}
	}
	missingUserData, err := e.client.ListMissingUserData(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	udUpdated := make(map[int64]int64)
	var stale []int64
	for _, job := range jobs {
		if job.Status != api.JobDone {
			continue
		}
		completed, err := e.completionMillis(ctx, workflowID, job.ID)
		if err != nil {
			return nil, err
		}
		if completed == 0 {
			continue
		}
		changed := false
		for _, fileID := range consumed[job.ID] {
			file, err := e.client.GetFile(ctx, workflowID, fileID)
			if err != nil {
				return nil, err
			}
			mtime := file.MTime
			if info, err := os.Stat(file.Path); err == nil {
				mtime = info.ModTime().UnixMilli()
			}
			if mtime > completed {
				changed = true
				break
			}
		}
		for _, udID := range consumedUD[job.ID] {
			if changed {
				break
			}
			updated, ok := udUpdated[udID]
			if !ok {
				ud, err := e.client.GetUserData(ctx, workflowID, udID)
				if err != nil {
					return nil, err
				}
				updated = ud.UpdatedAt
				udUpdated[udID] = updated
			}
			if updated > completed {
				changed = true
			}
		}
		if changed {
			stale = append(stale, job.ID)
		}
	}
	if len(missingUserData) > 0 {
		klog.Warningf("workflow %d has missing consumed user data: %v", workflowID, missingUserData)
	}
	return stale, nil
}

// completionMillis returns the completion time of a job's latest result, or
// zero when the job has never recorded one.
func (e *Engine) completionMillis(ctx context.Context, workflowID, jobID int64) (int64, error) {
	page, err := e.client.ListResults(ctx, workflowID, api.ResultFilter{
		ListParams: api.ListParams{Limit: 1, SortBy: "completion_time", ReverseSort: true},
		JobID:      jobID,
	})
	if err != nil {
		return 0, err
	}
	if len(page.Items) == 0 {
		return 0, nil
	}
	completed, err := timeutil.ParseRFC3339(page.Items[0].CompletionTime)
	if err != nil {
		return 0, nil
	}
	return completed.UnixMilli(), nil
}

// loadGraph fetches every job and the dependency edges keyed by blocked job.
func (e *Engine) loadGraph(ctx context.Context, workflowID int64) ([]api.Job, map[int64][]int64, error) {
	jobs, err := client.CollectAll(func(params api.ListParams) (api.ListResponse[api.Job], error) {
		return e.client.ListJobs(ctx, workflowID, api.JobFilter{ListParams: params})
	})
	if err != nil {
		return nil, nil, err
	}
	edges, err := client.CollectAll(func(params api.ListParams) (api.ListResponse[api.JobDependency], error) {
		return e.client.ListJobDependencies(ctx, workflowID, params)
	})
	if err != nil {
		return nil, nil, err
	}
	blockers := make(map[int64][]int64, len(jobs))
	for _, edge := range edges {
		blockers[edge.BlockedJobID] = append(blockers[edge.BlockedJobID], edge.BlockingJobID)
	}
	return jobs, blockers, nil
}

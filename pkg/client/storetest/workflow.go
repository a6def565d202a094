/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package storetest

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/NREL/torc-sub003/pkg/api"
)

func (s *Server) createWorkflow(c *gin.Context) {
	var workflow api.Workflow
	if err := c.ShouldBindJSON(&workflow); err != nil {
		badRequest(c, err.Error())
		return
	}
	s.mu.Lock()
	workflow.ID = s.allocID()
	workflow.RunID = 1
	s.workflows[workflow.ID] = &workflow
	s.mu.Unlock()
	c.JSON(http.StatusOK, workflow)
}

func (s *Server) listWorkflows(c *gin.Context) {
	s.mu.Lock()
	items := make([]api.Workflow, 0, len(s.workflows))
	for _, w := range s.workflows {
		items = append(items, *w)
	}
	s.mu.Unlock()
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	c.JSON(http.StatusOK, paginate(c, items))
}

func (s *Server) getWorkflow(c *gin.Context) {
	s.mu.Lock()
	workflow, ok := s.workflows[pathID(c, "wid")]
	s.mu.Unlock()
	if !ok {
		notFound(c, "workflow not found")
		return
	}
	c.JSON(http.StatusOK, workflow)
}

func (s *Server) updateWorkflow(c *gin.Context) {
	var workflow api.Workflow
	if err := c.ShouldBindJSON(&workflow); err != nil {
		badRequest(c, err.Error())
		return
	}
	id := pathID(c, "wid")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.workflows[id]; !ok {
		notFound(c, "workflow not found")
		return
	}
	workflow.ID = id
	s.workflows[id] = &workflow
	c.Status(http.StatusOK)
}

// deleteWorkflow cascades to every child row, matching the real store.
func (s *Server) deleteWorkflow(c *gin.Context) {
	id := pathID(c, "wid")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.workflows[id]; !ok {
		notFound(c, "workflow not found")
		return
	}
	delete(s.workflows, id)
	for jobID, job := range s.jobs {
		if job.WorkflowID == id {
			delete(s.jobs, jobID)
		}
	}
	for fileID, file := range s.files {
		if file.WorkflowID == id {
			delete(s.files, fileID)
		}
	}
	for udID, ud := range s.userData {
		if ud.WorkflowID == id {
			delete(s.userData, udID)
		}
	}
	for rrID, rr := range s.requirements {
		if rr.WorkflowID == id {
			delete(s.requirements, rrID)
		}
	}
	for sID, scheduler := range s.schedulers {
		if scheduler.WorkflowID == id {
			delete(s.schedulers, sID)
		}
	}
	for aID, action := range s.actions {
		if action.WorkflowID == id {
			delete(s.actions, aID)
		}
	}
	s.dependencies = filterEdges(s.dependencies, func(e *api.JobDependency) bool { return e.WorkflowID != id })
	s.jobFiles = filterEdges(s.jobFiles, func(e *api.JobFile) bool { return e.WorkflowID != id })
	s.jobUserData = filterEdges(s.jobUserData, func(e *api.JobUserData) bool { return e.WorkflowID != id })
	s.events = filterEdges(s.events, func(e *api.Event) bool { return e.WorkflowID != id })
	c.Status(http.StatusOK)
}

func filterEdges[T any](edges []*T, keep func(*T) bool) []*T {
	out := edges[:0]
	for _, edge := range edges {
		if keep(edge) {
			out = append(out, edge)
		}
	}
	return out
}

func (s *Server) cancelWorkflow(c *gin.Context) {
	id := pathID(c, "wid")
	s.mu.Lock()
	defer s.mu.Unlock()
	workflow, ok := s.workflows[id]
	if !ok {
		notFound(c, "workflow not found")
		return
	}
	workflow.IsCanceled = true
	for _, job := range s.jobs {
		if job.WorkflowID == id && !job.Status.IsTerminal() {
			job.Status = api.JobCanceled
		}
	}
	c.Status(http.StatusOK)
}

func (s *Server) isComplete(c *gin.Context) {
	id := pathID(c, "wid")
	s.mu.Lock()
	defer s.mu.Unlock()
	complete := true
	for _, job := range s.jobs {
		if job.WorkflowID == id && !job.Status.IsTerminal() {
			complete = false
			break
		}
	}
	c.JSON(http.StatusOK, gin.H{"value": complete})
}

func (s *Server) isUninitialized(c *gin.Context) {
	id := pathID(c, "wid")
	s.mu.Lock()
	defer s.mu.Unlock()
	uninitialized := true
	for _, job := range s.jobs {
		if job.WorkflowID == id && job.Status != api.JobUninitialized {
			uninitialized = false
			break
		}
	}
	c.JSON(http.StatusOK, gin.H{"value": uninitialized})
}

func (s *Server) workflowStatus(c *gin.Context) {
	id := pathID(c, "wid")
	s.mu.Lock()
	defer s.mu.Unlock()
	workflow, ok := s.workflows[id]
	if !ok {
		notFound(c, "workflow not found")
		return
	}
	summary := api.WorkflowStatusSummary{
		WorkflowID: id,
		RunID:      workflow.RunID,
		IsCanceled: workflow.IsCanceled,
		JobCounts:  make(map[string]int),
	}
	complete := true
	for _, job := range s.jobs {
		if job.WorkflowID != id {
			continue
		}
		summary.JobCounts[string(job.Status)]++
		if !job.Status.IsTerminal() {
			complete = false
		}
	}
	summary.IsComplete = complete
	c.JSON(http.StatusOK, summary)
}

func (s *Server) resetStatus(c *gin.Context) {
	var req struct {
		FailedOnly bool `json:"failed_only"`
		Force      bool `json:"force"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	id := pathID(c, "wid")
	s.mu.Lock()
	defer s.mu.Unlock()
	workflow, ok := s.workflows[id]
	if !ok {
		notFound(c, "workflow not found")
		return
	}
	for _, job := range s.jobs {
		if job.WorkflowID != id {
			continue
		}
		if req.FailedOnly && job.Status != api.JobTerminated && job.Status != api.JobCanceled {
			continue
		}
		job.Status = api.JobUninitialized
	}
	workflow.RunID++
	workflow.IsCanceled = false
	c.Status(http.StatusOK)
}

func (s *Server) createJobs(c *gin.Context) {
	var req struct {
		Jobs []api.Job `json:"jobs"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	id := pathID(c, "wid")
	s.mu.Lock()
	created := make([]api.Job, 0, len(req.Jobs))
	for _, job := range req.Jobs {
		job.WorkflowID = id
		job.ID = s.allocID()
		if job.Status == "" {
			job.Status = api.JobUninitialized
		}
		stored := job
		s.jobs[job.ID] = &stored
		created = append(created, job)
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"jobs": created})
}

func (s *Server) listJobs(c *gin.Context) {
	id := pathID(c, "wid")
	status := c.Query("status")
	name := c.Query("name")
	s.mu.Lock()
	items := []api.Job{}
	for _, job := range s.jobs {
		if job.WorkflowID != id {
			continue
		}
		if status != "" && string(job.Status) != status {
			continue
		}
		if name != "" && job.Name != name {
			continue
		}
		items = append(items, *job)
	}
	s.mu.Unlock()
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	c.JSON(http.StatusOK, paginate(c, items))
}

func (s *Server) getJob(c *gin.Context) {
	s.mu.Lock()
	job, ok := s.jobs[pathID(c, "jid")]
	s.mu.Unlock()
	if !ok {
		notFound(c, "job not found")
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *Server) updateJob(c *gin.Context) {
	var job api.Job
	if err := c.ShouldBindJSON(&job); err != nil {
		badRequest(c, err.Error())
		return
	}
	id := pathID(c, "jid")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; !ok {
		notFound(c, "job not found")
		return
	}
	job.ID = id
	s.jobs[id] = &job
	c.Status(http.StatusOK)
}

func (s *Server) deleteJob(c *gin.Context) {
	id := pathID(c, "jid")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; !ok {
		notFound(c, "job not found")
		return
	}
	delete(s.jobs, id)
	s.dependencies = filterEdges(s.dependencies, func(e *api.JobDependency) bool {
		return e.BlockingJobID != id && e.BlockedJobID != id
	})
	s.jobFiles = filterEdges(s.jobFiles, func(e *api.JobFile) bool { return e.JobID != id })
	s.jobUserData = filterEdges(s.jobUserData, func(e *api.JobUserData) bool { return e.JobID != id })
	c.Status(http.StatusOK)
}

func (s *Server) updateJobStatus(c *gin.Context) {
	var req struct {
		Status api.JobStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	id := pathID(c, "jid")
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		notFound(c, "job not found")
		return
	}
	job.Status = req.Status
	if req.Status == api.JobDone {
		s.unblockDependents(job)
	}
	c.Status(http.StatusOK)
}

// unblockDependents moves Blocked jobs whose blockers are all Done to Ready.
// The real store performs the same transition when a job completes.
func (s *Server) unblockDependents(done *api.Job) {
	for _, edge := range s.dependencies {
		if edge.BlockingJobID != done.ID {
			continue
		}
		blocked, ok := s.jobs[edge.BlockedJobID]
		if !ok || blocked.Status != api.JobBlocked {
			continue
		}
		ready := true
		for _, other := range s.dependencies {
			if other.BlockedJobID != blocked.ID {
				continue
			}
			if blocker, ok := s.jobs[other.BlockingJobID]; !ok || blocker.Status != api.JobDone {
				ready = false
				break
			}
		}
		if ready {
			blocked.Status = api.JobReady
		}
	}
}

func (s *Server) jobTransition(status api.JobStatus) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := pathID(c, "jid")
		s.mu.Lock()
		defer s.mu.Unlock()
		job, ok := s.jobs[id]
		if !ok {
			notFound(c, "job not found")
			return
		}
		job.Status = status
		c.Status(http.StatusOK)
	}
}

func (s *Server) retryJob(c *gin.Context) {
	id := pathID(c, "jid")
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		notFound(c, "job not found")
		return
	}
	if job.FailureHandler != nil {
		job.FailureHandler.RetryCount++
	}
	job.Status = api.JobReady
	c.Status(http.StatusOK)
}

func (s *Server) claimJob(c *gin.Context) {
	id := pathID(c, "wid")
	s.mu.Lock()
	defer s.mu.Unlock()
	var candidates []*api.Job
	for _, job := range s.jobs {
		if job.WorkflowID == id && job.Status == api.JobReady {
			candidates = append(candidates, job)
		}
	}
	if len(candidates) == 0 {
		c.JSON(http.StatusOK, gin.H{"claimed": false})
		return
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })
	claimed := candidates[0]
	claimed.Status = api.JobSubmitted
	c.JSON(http.StatusOK, gin.H{"claimed": true, "job": claimed})
}

/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

// Package storetest provides an in-memory torc store for tests. It speaks
// the same REST surface the real store does, including the atomic claim
// primitives, so client and orchestrator code can run end to end against an
// httptest server.
package storetest

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/NREL/torc-sub003/pkg/api"
	"github.com/NREL/torc-sub003/pkg/common"
)

// Server is an in-memory store behind an httptest server.
type Server struct {
	mu     sync.Mutex
	nextID int64

	workflows      map[int64]*api.Workflow
	jobs           map[int64]*api.Job
	files          map[int64]*api.File
	userData       map[int64]*api.UserData
	requirements   map[int64]*api.ResourceRequirements
	schedulers     map[int64]*api.SlurmScheduler
	actions        map[int64]*api.WorkflowAction
	dependencies   []*api.JobDependency
	jobFiles       []*api.JobFile
	jobUserData    []*api.JobUserData
	events         []*api.Event
	results        map[int64]*api.Result
	scheduledNodes map[int64]*api.ScheduledComputeNode
	computeNodes   map[int64]*api.ComputeNode

	failures map[string]int

	http *httptest.Server
}

// New starts an in-memory store. Callers must Close it.
func New() *Server {
	gin.SetMode(gin.TestMode)
	s := &Server{
		workflows:      make(map[int64]*api.Workflow),
		jobs:           make(map[int64]*api.Job),
		files:          make(map[int64]*api.File),
		userData:       make(map[int64]*api.UserData),
		requirements:   make(map[int64]*api.ResourceRequirements),
		schedulers:     make(map[int64]*api.SlurmScheduler),
		actions:        make(map[int64]*api.WorkflowAction),
		results:        make(map[int64]*api.Result),
		scheduledNodes: make(map[int64]*api.ScheduledComputeNode),
		computeNodes:   make(map[int64]*api.ComputeNode),
		failures:       make(map[string]int),
	}
	s.http = httptest.NewServer(s.router())
	return s
}

// URL returns the base URL clients should dial.
func (s *Server) URL() string {
	return s.http.URL
}

// Close shuts the server down.
func (s *Server) Close() {
	s.http.Close()
}

// FailNext makes the next n requests matching "METHOD suffix" fail with an
// internal error. Tests use it to exercise rollback paths.
func (s *Server) FailNext(method, suffix string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+suffix] = n
}

// shouldFail consumes one injected failure when the request matches.
func (s *Server) shouldFail(c *gin.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, remaining := range s.failures {
		if remaining <= 0 {
			continue
		}
		parts := strings.SplitN(key, " ", 2)
		if c.Request.Method == parts[0] && strings.HasSuffix(c.Request.URL.Path, parts[1]) {
			s.failures[key] = remaining - 1
			return true
		}
	}
	return false
}

func (s *Server) allocID() int64 {
	s.nextID++
	return s.nextID
}

type wireError struct {
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

func notFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, wireError{ErrorCode: "Torc.00003", ErrorMessage: message})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, wireError{ErrorCode: "Torc.00001", ErrorMessage: message})
}

func pathID(c *gin.Context, name string) int64 {
	id, _ := strconv.ParseInt(c.Param(name), 10, 64)
	return id
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// paginate slices items per the request's offset/limit and wraps them in the
// standard list envelope.
func paginate[T any](c *gin.Context, items []T) api.ListResponse[T] {
	offset := queryInt(c, "offset", 0)
	limit := queryInt(c, "limit", api.DefaultListLimit)
	total := len(items)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return api.ListResponse[T]{
		Items:      items[offset:end],
		HasMore:    end < total,
		TotalCount: total,
	}
}

func (s *Server) router() *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if s.shouldFail(c) {
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				wireError{ErrorCode: "Torc.00001", ErrorMessage: "injected failure"})
			return
		}
		c.Next()
	})
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"version": common.Version})
	})

	r.POST("/workflows", s.createWorkflow)
	r.GET("/workflows", s.listWorkflows)
	w := r.Group("/workflows/:wid")
	{
		w.GET("", s.getWorkflow)
		w.PUT("", s.updateWorkflow)
		w.DELETE("", s.deleteWorkflow)
		w.POST("/cancel", s.cancelWorkflow)
		w.GET("/is_complete", s.isComplete)
		w.GET("/is_uninitialized", s.isUninitialized)
		w.GET("/status", s.workflowStatus)
		w.POST("/reset_status", s.resetStatus)

		w.POST("/jobs", s.createJobs)
		w.GET("/jobs", s.listJobs)
		w.POST("/jobs/claim", s.claimJob)
		w.GET("/jobs/:jid", s.getJob)
		w.PUT("/jobs/:jid", s.updateJob)
		w.DELETE("/jobs/:jid", s.deleteJob)
		w.PUT("/jobs/:jid/status", s.updateJobStatus)
		w.POST("/jobs/:jid/cancel", s.jobTransition(api.JobCanceled))
		w.POST("/jobs/:jid/terminate", s.jobTransition(api.JobTerminated))
		w.POST("/jobs/:jid/retry", s.retryJob)
		w.POST("/jobs/:jid/reset_status", s.jobTransition(api.JobUninitialized))

		w.POST("/files", s.createFile)
		w.GET("/files", s.listFiles)
		w.GET("/files/required_existing", s.requiredExistingFiles)
		w.GET("/files/:fid", s.getFile)
		w.PUT("/files/:fid", s.updateFile)
		w.DELETE("/files/:fid", s.deleteFile)

		w.POST("/user_data", s.createUserData)
		w.GET("/user_data", s.listUserData)
		w.POST("/user_data/clear_ephemeral", s.clearEphemeralUserData)
		w.GET("/user_data/missing", s.missingUserData)
		w.GET("/user_data/:uid", s.getUserData)
		w.PUT("/user_data/:uid", s.updateUserData)
		w.DELETE("/user_data/:uid", s.deleteUserData)

		w.POST("/resource_requirements", s.createRequirements)
		w.GET("/resource_requirements", s.listRequirements)
		w.GET("/resource_requirements/:rid", s.getRequirements)
		w.PUT("/resource_requirements/:rid", s.updateRequirements)
		w.DELETE("/resource_requirements/:rid", s.deleteRequirements)

		w.POST("/slurm_schedulers", s.createScheduler)
		w.GET("/slurm_schedulers", s.listSchedulers)
		w.GET("/slurm_schedulers/:sid", s.getScheduler)
		w.PUT("/slurm_schedulers/:sid", s.updateScheduler)
		w.DELETE("/slurm_schedulers/:sid", s.deleteScheduler)

		w.POST("/job_dependencies", s.createDependencies)
		w.GET("/job_dependencies", s.listDependencies)
		w.POST("/job_file_relationships", s.createJobFiles)
		w.GET("/job_file_relationships", s.listJobFiles)
		w.POST("/job_user_data_relationships", s.createJobUserData)
		w.GET("/job_user_data_relationships", s.listJobUserData)

		w.POST("/actions", s.createAction)
		w.GET("/actions", s.listActions)
		w.POST("/actions/:aid/claim", s.claimAction)
		w.POST("/triggers", s.fireTrigger)

		w.POST("/events", s.createEvent)
		w.GET("/events", s.listEvents)
		w.GET("/events/latest", s.latestEvent)
		w.GET("/events/stream", s.streamEvents)
		w.DELETE("/events/:eid", s.deleteEvent)

		w.POST("/results", s.createResult)
		w.GET("/results", s.listResults)
		w.GET("/results/:rid", s.getResult)
		w.DELETE("/results/:rid", s.deleteResult)

		w.POST("/scheduled_compute_nodes", s.createScheduledNode)
		w.GET("/scheduled_compute_nodes", s.listScheduledNodes)
		w.PUT("/scheduled_compute_nodes/:nid", s.updateScheduledNode)

		w.POST("/compute_nodes", s.createComputeNode)
		w.GET("/compute_nodes", s.listComputeNodes)
		w.GET("/compute_nodes/:nid", s.getComputeNode)
		w.PUT("/compute_nodes/:nid", s.updateComputeNode)
	}
	return r
}

/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package storetest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NREL/torc-sub003/pkg/api"
	"github.com/NREL/torc-sub003/pkg/common"
)

func (s *Server) createAction(c *gin.Context) {
	var action api.WorkflowAction
	if err := c.ShouldBindJSON(&action); err != nil {
		badRequest(c, err.Error())
		return
	}
	s.mu.Lock()
	action.WorkflowID = pathID(c, "wid")
	action.ID = s.allocID()
	stored := action
	s.actions[action.ID] = &stored
	s.mu.Unlock()
	c.JSON(http.StatusOK, action)
}

func (s *Server) listActions(c *gin.Context) {
	id := pathID(c, "wid")
	s.mu.Lock()
	items := []api.WorkflowAction{}
	for _, action := range s.actions {
		if action.WorkflowID == id {
			items = append(items, *action)
		}
	}
	s.mu.Unlock()
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	c.JSON(http.StatusOK, paginate(c, items))
}

// claimAction atomically marks a pending action executed. Only the first
// claimer of a pending action receives claimed=true.
func (s *Server) claimAction(c *gin.Context) {
	id := pathID(c, "aid")
	s.mu.Lock()
	defer s.mu.Unlock()
	action, ok := s.actions[id]
	if !ok {
		notFound(c, "action not found")
		return
	}
	if action.Executed || action.TriggerCount < action.RequiredTriggers {
		c.JSON(http.StatusOK, gin.H{"claimed": false})
		return
	}
	action.Executed = true
	action.ExecutedAt = api.NowTimestamp()
	c.JSON(http.StatusOK, gin.H{"claimed": true, "action": action})
}

// fireTrigger increments the counter of every action matching the event and
// returns the affected rows. A job-scoped trigger matches actions that name
// the job or name no jobs at all.
func (s *Server) fireTrigger(c *gin.Context) {
	var event struct {
		TriggerType string `json:"trigger_type"`
		JobID       int64  `json:"job_id"`
	}
	if err := c.ShouldBindJSON(&event); err != nil {
		badRequest(c, err.Error())
		return
	}
	id := pathID(c, "wid")
	s.mu.Lock()
	defer s.mu.Unlock()
	affected := []api.WorkflowAction{}
	for _, action := range s.actions {
		if action.WorkflowID != id || action.Executed {
			continue
		}
		if !triggerMatches(action, event.TriggerType, event.JobID) {
			continue
		}
		action.TriggerCount++
		affected = append(affected, *action)
	}
	// A job completion also advances workflow-complete actions.
	if event.TriggerType == common.TriggerJobComplete {
		for _, action := range s.actions {
			if action.WorkflowID != id || action.Executed {
				continue
			}
			if action.TriggerType != common.TriggerWorkflowComplete {
				continue
			}
			action.TriggerCount++
			affected = append(affected, *action)
		}
	}
	sort.Slice(affected, func(i, j int) bool { return affected[i].ID < affected[j].ID })
	c.JSON(http.StatusOK, gin.H{"actions": affected})
}

func triggerMatches(action *api.WorkflowAction, triggerType string, jobID int64) bool {
	if action.TriggerType != triggerType {
		return false
	}
	if jobID == 0 || len(action.JobIDs) == 0 {
		return true
	}
	for _, id := range action.JobIDs {
		if id == jobID {
			return true
		}
	}
	return false
}

func (s *Server) createEvent(c *gin.Context) {
	var event api.Event
	if err := c.ShouldBindJSON(&event); err != nil {
		badRequest(c, err.Error())
		return
	}
	s.mu.Lock()
	event.WorkflowID = pathID(c, "wid")
	event.ID = s.allocID()
	stored := event
	s.events = append(s.events, &stored)
	s.mu.Unlock()
	c.JSON(http.StatusOK, event)
}

func (s *Server) listEvents(c *gin.Context) {
	id := pathID(c, "wid")
	category := c.Query("category")
	after := int64(queryInt(c, "after_timestamp", 0))
	s.mu.Lock()
	items := []api.Event{}
	for _, event := range s.events {
		if event.WorkflowID != id {
			continue
		}
		if category != "" && event.Category != category {
			continue
		}
		if after > 0 && event.Timestamp <= after {
			continue
		}
		items = append(items, *event)
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, paginate(c, items))
}

func (s *Server) latestEvent(c *gin.Context) {
	id := pathID(c, "wid")
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *api.Event
	for _, event := range s.events {
		if event.WorkflowID != id {
			continue
		}
		if latest == nil || event.Timestamp >= latest.Timestamp {
			latest = event
		}
	}
	if latest == nil {
		notFound(c, "no events")
		return
	}
	c.JSON(http.StatusOK, latest)
}

// streamEvents serves the SSE endpoint: every event newer than
// after_timestamp is written as one frame, then the connection stays open and
// new events are pushed as they arrive until the client disconnects.
func (s *Server) streamEvents(c *gin.Context) {
	id := pathID(c, "wid")
	after, _ := strconv.ParseInt(c.Query("after_timestamp"), 10, 64)
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	sent := make(map[int64]bool)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
		}
		s.mu.Lock()
		pending := []api.Event{}
		for _, event := range s.events {
			if event.WorkflowID != id || event.Timestamp <= after || sent[event.ID] {
				continue
			}
			sent[event.ID] = true
			pending = append(pending, *event)
		}
		s.mu.Unlock()
		for _, event := range pending {
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(c.Writer, "id: %d\ndata: %s\n\n", event.ID, data)
		}
		if len(pending) > 0 {
			c.Writer.Flush()
		}
	}
}

func (s *Server) deleteEvent(c *gin.Context) {
	id := pathID(c, "eid")
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.events)
	s.events = filterEdges(s.events, func(e *api.Event) bool { return e.ID != id })
	if len(s.events) == before {
		notFound(c, "event not found")
		return
	}
	c.Status(http.StatusOK)
}

func (s *Server) createResult(c *gin.Context) {
	var result api.Result
	if err := c.ShouldBindJSON(&result); err != nil {
		badRequest(c, err.Error())
		return
	}
	s.mu.Lock()
	result.WorkflowID = pathID(c, "wid")
	result.ID = s.allocID()
	stored := result
	s.results[result.ID] = &stored
	s.mu.Unlock()
	c.JSON(http.StatusOK, result)
}

func (s *Server) listResults(c *gin.Context) {
	id := pathID(c, "wid")
	jobID := int64(queryInt(c, "job_id", 0))
	s.mu.Lock()
	items := []api.Result{}
	for _, result := range s.results {
		if result.WorkflowID != id {
			continue
		}
		if jobID != 0 && result.JobID != jobID {
			continue
		}
		items = append(items, *result)
	}
	s.mu.Unlock()
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	if c.Query("reverse_sort") == "true" {
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
	}
	c.JSON(http.StatusOK, paginate(c, items))
}

func (s *Server) getResult(c *gin.Context) {
	s.mu.Lock()
	result, ok := s.results[pathID(c, "rid")]
	s.mu.Unlock()
	if !ok {
		notFound(c, "result not found")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) deleteResult(c *gin.Context) {
	id := pathID(c, "rid")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.results[id]; !ok {
		notFound(c, "result not found")
		return
	}
	delete(s.results, id)
	c.Status(http.StatusOK)
}

func (s *Server) createScheduledNode(c *gin.Context) {
	var node api.ScheduledComputeNode
	if err := c.ShouldBindJSON(&node); err != nil {
		badRequest(c, err.Error())
		return
	}
	s.mu.Lock()
	node.WorkflowID = pathID(c, "wid")
	node.ID = s.allocID()
	stored := node
	s.scheduledNodes[node.ID] = &stored
	s.mu.Unlock()
	c.JSON(http.StatusOK, node)
}

func (s *Server) listScheduledNodes(c *gin.Context) {
	id := pathID(c, "wid")
	status := c.Query("status")
	s.mu.Lock()
	items := []api.ScheduledComputeNode{}
	for _, node := range s.scheduledNodes {
		if node.WorkflowID != id {
			continue
		}
		if status != "" && node.Status != status {
			continue
		}
		items = append(items, *node)
	}
	s.mu.Unlock()
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	c.JSON(http.StatusOK, paginate(c, items))
}

func (s *Server) updateScheduledNode(c *gin.Context) {
	var node api.ScheduledComputeNode
	if err := c.ShouldBindJSON(&node); err != nil {
		badRequest(c, err.Error())
		return
	}
	id := pathID(c, "nid")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.scheduledNodes[id]; !ok {
		notFound(c, "scheduled compute node not found")
		return
	}
	node.ID = id
	s.scheduledNodes[id] = &node
	c.Status(http.StatusOK)
}

func (s *Server) createComputeNode(c *gin.Context) {
	var node api.ComputeNode
	if err := c.ShouldBindJSON(&node); err != nil {
		badRequest(c, err.Error())
		return
	}
	s.mu.Lock()
	node.WorkflowID = pathID(c, "wid")
	node.ID = s.allocID()
	stored := node
	s.computeNodes[node.ID] = &stored
	s.mu.Unlock()
	c.JSON(http.StatusOK, node)
}

func (s *Server) getComputeNode(c *gin.Context) {
	s.mu.Lock()
	node, ok := s.computeNodes[pathID(c, "nid")]
	s.mu.Unlock()
	if !ok {
		notFound(c, "compute node not found")
		return
	}
	c.JSON(http.StatusOK, node)
}

func (s *Server) listComputeNodes(c *gin.Context) {
	id := pathID(c, "wid")
	s.mu.Lock()
	items := []api.ComputeNode{}
	for _, node := range s.computeNodes {
		if node.WorkflowID == id {
			items = append(items, *node)
		}
	}
	s.mu.Unlock()
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	c.JSON(http.StatusOK, paginate(c, items))
}

func (s *Server) updateComputeNode(c *gin.Context) {
	var node api.ComputeNode
	if err := c.ShouldBindJSON(&node); err != nil {
		badRequest(c, err.Error())
		return
	}
	id := pathID(c, "nid")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.computeNodes[id]; !ok {
		notFound(c, "compute node not found")
		return
	}
	node.ID = id
	s.computeNodes[id] = &node
	c.Status(http.StatusOK)
}

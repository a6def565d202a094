/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package storetest

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NREL/torc-sub003/pkg/api"
)

func (s *Server) createFile(c *gin.Context) {
	var file api.File
	if err := c.ShouldBindJSON(&file); err != nil {
		badRequest(c, err.Error())
		return
	}
	s.mu.Lock()
	file.WorkflowID = pathID(c, "wid")
	file.ID = s.allocID()
	stored := file
	s.files[file.ID] = &stored
	s.mu.Unlock()
	c.JSON(http.StatusOK, file)
}

func (s *Server) listFiles(c *gin.Context) {
	id := pathID(c, "wid")
	name := c.Query("name")
	isOutput := c.Query("is_output") == "true"
	s.mu.Lock()
	producedIDs := make(map[int64]bool)
	for _, edge := range s.jobFiles {
		if edge.WorkflowID == id && edge.Relation == api.RelationProduces {
			producedIDs[edge.FileID] = true
		}
	}
	items := []api.File{}
	for _, file := range s.files {
		if file.WorkflowID != id {
			continue
		}
		if name != "" && file.Name != name {
			continue
		}
		if isOutput && !producedIDs[file.ID] {
			continue
		}
		items = append(items, *file)
	}
	s.mu.Unlock()
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	c.JSON(http.StatusOK, paginate(c, items))
}

// requiredExistingFiles returns files some job consumes and none produces.
func (s *Server) requiredExistingFiles(c *gin.Context) {
	id := pathID(c, "wid")
	s.mu.Lock()
	defer s.mu.Unlock()
	consumed := make(map[int64]bool)
	produced := make(map[int64]bool)
	for _, edge := range s.jobFiles {
		if edge.WorkflowID != id {
			continue
		}
		switch edge.Relation {
		case api.RelationConsumes:
			consumed[edge.FileID] = true
		case api.RelationProduces:
			produced[edge.FileID] = true
		}
	}
	files := []api.File{}
	for fileID := range consumed {
		if produced[fileID] {
			continue
		}
		if file, ok := s.files[fileID]; ok {
			files = append(files, *file)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].ID < files[j].ID })
	c.JSON(http.StatusOK, gin.H{"files": files})
}

func (s *Server) getFile(c *gin.Context) {
	s.mu.Lock()
	file, ok := s.files[pathID(c, "fid")]
	s.mu.Unlock()
	if !ok {
		notFound(c, "file not found")
		return
	}
	c.JSON(http.StatusOK, file)
}

func (s *Server) updateFile(c *gin.Context) {
	var file api.File
	if err := c.ShouldBindJSON(&file); err != nil {
		badRequest(c, err.Error())
		return
	}
	id := pathID(c, "fid")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[id]; !ok {
		notFound(c, "file not found")
		return
	}
	file.ID = id
	s.files[id] = &file
	c.Status(http.StatusOK)
}

func (s *Server) deleteFile(c *gin.Context) {
	id := pathID(c, "fid")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[id]; !ok {
		notFound(c, "file not found")
		return
	}
	delete(s.files, id)
	c.Status(http.StatusOK)
}

func (s *Server) createUserData(c *gin.Context) {
	var ud api.UserData
	if err := c.ShouldBindJSON(&ud); err != nil {
		badRequest(c, err.Error())
		return
	}
	s.mu.Lock()
	ud.WorkflowID = pathID(c, "wid")
	ud.ID = s.allocID()
	ud.UpdatedAt = time.Now().UnixMilli()
	stored := ud
	s.userData[ud.ID] = &stored
	s.mu.Unlock()
	c.JSON(http.StatusOK, ud)
}

func (s *Server) listUserData(c *gin.Context) {
	id := pathID(c, "wid")
	name := c.Query("name")
	s.mu.Lock()
	items := []api.UserData{}
	for _, ud := range s.userData {
		if ud.WorkflowID != id {
			continue
		}
		if name != "" && ud.Name != name {
			continue
		}
		items = append(items, *ud)
	}
	s.mu.Unlock()
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	c.JSON(http.StatusOK, paginate(c, items))
}

func (s *Server) clearEphemeralUserData(c *gin.Context) {
	id := pathID(c, "wid")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ud := range s.userData {
		if ud.WorkflowID == id && ud.IsEphemeral {
			ud.Data = nil
		}
	}
	c.Status(http.StatusOK)
}

// missingUserData names consumed user-data rows whose data is empty.
func (s *Server) missingUserData(c *gin.Context) {
	id := pathID(c, "wid")
	s.mu.Lock()
	defer s.mu.Unlock()
	consumed := make(map[int64]bool)
	for _, edge := range s.jobUserData {
		if edge.WorkflowID == id && edge.Relation == api.RelationConsumes {
			consumed[edge.UserDataID] = true
		}
	}
	names := []string{}
	for udID := range consumed {
		if ud, ok := s.userData[udID]; ok && len(ud.Data) == 0 {
			names = append(names, ud.Name)
		}
	}
	sort.Strings(names)
	c.JSON(http.StatusOK, gin.H{"names": names})
}

func (s *Server) getUserData(c *gin.Context) {
	s.mu.Lock()
	ud, ok := s.userData[pathID(c, "uid")]
	s.mu.Unlock()
	if !ok {
		notFound(c, "user data not found")
		return
	}
	c.JSON(http.StatusOK, ud)
}

func (s *Server) updateUserData(c *gin.Context) {
	var ud api.UserData
	if err := c.ShouldBindJSON(&ud); err != nil {
		badRequest(c, err.Error())
		return
	}
	id := pathID(c, "uid")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.userData[id]; !ok {
		notFound(c, "user data not found")
		return
	}
	ud.ID = id
	// Server-stamped so consumers cannot backdate a change.
	ud.UpdatedAt = time.Now().UnixMilli()
	s.userData[id] = &ud
	c.Status(http.StatusOK)
}

func (s *Server) deleteUserData(c *gin.Context) {
	id := pathID(c, "uid")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.userData[id]; !ok {
		notFound(c, "user data not found")
		return
	}
	delete(s.userData, id)
	c.Status(http.StatusOK)
}

func (s *Server) createRequirements(c *gin.Context) {
	var rr api.ResourceRequirements
	if err := c.ShouldBindJSON(&rr); err != nil {
		badRequest(c, err.Error())
		return
	}
	s.mu.Lock()
	rr.WorkflowID = pathID(c, "wid")
	rr.ID = s.allocID()
	stored := rr
	s.requirements[rr.ID] = &stored
	s.mu.Unlock()
	c.JSON(http.StatusOK, rr)
}

func (s *Server) listRequirements(c *gin.Context) {
	id := pathID(c, "wid")
	s.mu.Lock()
	items := []api.ResourceRequirements{}
	for _, rr := range s.requirements {
		if rr.WorkflowID == id {
			items = append(items, *rr)
		}
	}
	s.mu.Unlock()
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	c.JSON(http.StatusOK, paginate(c, items))
}

func (s *Server) getRequirements(c *gin.Context) {
	s.mu.Lock()
	rr, ok := s.requirements[pathID(c, "rid")]
	s.mu.Unlock()
	if !ok {
		notFound(c, "resource requirements not found")
		return
	}
	c.JSON(http.StatusOK, rr)
}

func (s *Server) updateRequirements(c *gin.Context) {
	var rr api.ResourceRequirements
	if err := c.ShouldBindJSON(&rr); err != nil {
		badRequest(c, err.Error())
		return
	}
	id := pathID(c, "rid")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requirements[id]; !ok {
		notFound(c, "resource requirements not found")
		return
	}
	rr.ID = id
	s.requirements[id] = &rr
	c.Status(http.StatusOK)
}

func (s *Server) deleteRequirements(c *gin.Context) {
	id := pathID(c, "rid")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requirements[id]; !ok {
		notFound(c, "resource requirements not found")
		return
	}
	delete(s.requirements, id)
	c.Status(http.StatusOK)
}

func (s *Server) createScheduler(c *gin.Context) {
	var scheduler api.SlurmScheduler
	if err := c.ShouldBindJSON(&scheduler); err != nil {
		badRequest(c, err.Error())
		return
	}
	s.mu.Lock()
	scheduler.WorkflowID = pathID(c, "wid")
	scheduler.ID = s.allocID()
	stored := scheduler
	s.schedulers[scheduler.ID] = &stored
	s.mu.Unlock()
	c.JSON(http.StatusOK, scheduler)
}

func (s *Server) listSchedulers(c *gin.Context) {
	id := pathID(c, "wid")
	s.mu.Lock()
	items := []api.SlurmScheduler{}
	for _, scheduler := range s.schedulers {
		if scheduler.WorkflowID == id {
			items = append(items, *scheduler)
		}
	}
	s.mu.Unlock()
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	c.JSON(http.StatusOK, paginate(c, items))
}

func (s *Server) getScheduler(c *gin.Context) {
	s.mu.Lock()
	scheduler, ok := s.schedulers[pathID(c, "sid")]
	s.mu.Unlock()
	if !ok {
		notFound(c, "scheduler not found")
		return
	}
	c.JSON(http.StatusOK, scheduler)
}

func (s *Server) updateScheduler(c *gin.Context) {
	var scheduler api.SlurmScheduler
	if err := c.ShouldBindJSON(&scheduler); err != nil {
		badRequest(c, err.Error())
		return
	}
	id := pathID(c, "sid")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schedulers[id]; !ok {
		notFound(c, "scheduler not found")
		return
	}
	scheduler.ID = id
	s.schedulers[id] = &scheduler
	c.Status(http.StatusOK)
}

func (s *Server) deleteScheduler(c *gin.Context) {
	id := pathID(c, "sid")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schedulers[id]; !ok {
		notFound(c, "scheduler not found")
		return
	}
	delete(s.schedulers, id)
	c.Status(http.StatusOK)
}

func (s *Server) createDependencies(c *gin.Context) {
	var req struct {
		Edges []api.JobDependency `json:"edges"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	id := pathID(c, "wid")
	s.mu.Lock()
	for _, edge := range req.Edges {
		edge.WorkflowID = id
		edge.ID = s.allocID()
		stored := edge
		s.dependencies = append(s.dependencies, &stored)
	}
	s.mu.Unlock()
	c.Status(http.StatusOK)
}

func (s *Server) listDependencies(c *gin.Context) {
	id := pathID(c, "wid")
	s.mu.Lock()
	items := []api.JobDependency{}
	for _, edge := range s.dependencies {
		if edge.WorkflowID == id {
			items = append(items, *edge)
		}
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, paginate(c, items))
}

func (s *Server) createJobFiles(c *gin.Context) {
	var req struct {
		Edges []api.JobFile `json:"edges"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	id := pathID(c, "wid")
	s.mu.Lock()
	for _, edge := range req.Edges {
		edge.WorkflowID = id
		edge.ID = s.allocID()
		stored := edge
		s.jobFiles = append(s.jobFiles, &stored)
	}
	s.mu.Unlock()
	c.Status(http.StatusOK)
}

func (s *Server) listJobFiles(c *gin.Context) {
	id := pathID(c, "wid")
	s.mu.Lock()
	items := []api.JobFile{}
	for _, edge := range s.jobFiles {
		if edge.WorkflowID == id {
			items = append(items, *edge)
		}
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, paginate(c, items))
}

func (s *Server) createJobUserData(c *gin.Context) {
	var req struct {
		Edges []api.JobUserData `json:"edges"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	id := pathID(c, "wid")
	s.mu.Lock()
	for _, edge := range req.Edges {
		edge.WorkflowID = id
		edge.ID = s.allocID()
		stored := edge
		s.jobUserData = append(s.jobUserData, &stored)
	}
	s.mu.Unlock()
	c.Status(http.StatusOK)
}

func (s *Server) listJobUserData(c *gin.Context) {
	id := pathID(c, "wid")
	s.mu.Lock()
	items := []api.JobUserData{}
	for _, edge := range s.jobUserData {
		if edge.WorkflowID == id {
			items = append(items, *edge)
		}
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, paginate(c, items))
}

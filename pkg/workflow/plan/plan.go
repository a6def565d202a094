/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

// Package plan derives the event DAG a workflow will execute: which trigger
// events exist, which events unlock which, and where scheduler allocations
// attach. The plan is advisory; runtime ordering is arbitrated by the store.
package plan

import (
	"fmt"
	"sort"
	"strings"

	"github.com/NREL/torc-sub003/pkg/common"
	"github.com/NREL/torc-sub003/pkg/utils/sets"
	"github.com/NREL/torc-sub003/pkg/workflow/spec"
)

// Event types in an execution plan.
const (
	EventWorkflowStart       = "workflow_start"
	EventJobComplete         = "job_complete"
	EventDependencySatisfied = "dependency_satisfied"
)

// SchedulerAllocation records allocations a schedule_nodes action requests
// when its event fires, and the jobs that firing makes ready.
type SchedulerAllocation struct {
	Scheduler         string   `json:"scheduler"`
	SchedulerType     string   `json:"scheduler_type"`
	NumAllocations    int      `json:"num_allocations"`
	JobsBecomingReady []string `json:"jobs_becoming_ready"`
}

// Event is one node of the plan DAG. Unlocks names the events this event is
// a necessary unlocker of.
type Event struct {
	Name                 string                `json:"name"`
	Type                 string                `json:"type"`
	Job                  string                `json:"job,omitempty"`
	Unlocks              []string              `json:"unlocks,omitempty"`
	SchedulerAllocations []SchedulerAllocation `json:"scheduler_allocations,omitempty"`
}

// ExecutionPlan is the full event DAG for one workflow.
type ExecutionPlan struct {
	WorkflowName string  `json:"workflow_name"`
	Events       []Event `json:"events"`
	RootEvents   []string `json:"root_events"`
	LeafEvents   []string `json:"leaf_events"`
}

// Build derives the execution plan of a resolved workflow.
func Build(resolved *spec.ResolvedWorkflow) *ExecutionPlan {
	startName := EventWorkflowStart
	events := map[string]*Event{
		startName: {Name: startName, Type: EventWorkflowStart},
	}
	order := []string{startName}

	completeName := func(job string) string { return fmt.Sprintf("%s(%s)", EventJobComplete, job) }
	satisfiedName := func(job string) string { return fmt.Sprintf("%s(%s)", EventDependencySatisfied, job) }

	// One job_complete per job; one dependency_satisfied per blocked job.
	for _, job := range resolved.Jobs {
		name := completeName(job.Spec.Name)
		events[name] = &Event{Name: name, Type: EventJobComplete, Job: job.Spec.Name}
		order = append(order, name)
	}
	rootJobs := []string{}
	for _, job := range resolved.Jobs {
		if len(job.DependsOn) == 0 {
			rootJobs = append(rootJobs, job.Spec.Name)
			addUnlock(events[startName], completeName(job.Spec.Name))
			continue
		}
		name := satisfiedName(job.Spec.Name)
		events[name] = &Event{Name: name, Type: EventDependencySatisfied, Job: job.Spec.Name}
		order = append(order, name)
		addUnlock(events[name], completeName(job.Spec.Name))
		for _, blocker := range job.DependsOn {
			addUnlock(events[completeName(blocker)], name)
		}
	}
	sort.Strings(rootJobs)

	attachAllocations(resolved, events, rootJobs, satisfiedName, completeName)

	planEvents := make([]Event, 0, len(order))
	inbound := sets.NewSet()
	for _, name := range order {
		event := events[name]
		sort.Strings(event.Unlocks)
		for _, target := range event.Unlocks {
			inbound.Insert(target)
		}
		planEvents = append(planEvents, *event)
	}
	p := &ExecutionPlan{
		WorkflowName: resolved.Spec.Name,
		Events:       planEvents,
		RootEvents:   []string{},
		LeafEvents:   []string{},
	}
	for _, event := range planEvents {
		if !inbound.Has(event.Name) {
			p.RootEvents = append(p.RootEvents, event.Name)
		}
		if len(event.Unlocks) == 0 {
			p.LeafEvents = append(p.LeafEvents, event.Name)
		}
	}
	return p
}

// attachAllocations binds each schedule_nodes action to the plan event that
// fires it, recording which jobs become ready as a consequence.
func attachAllocations(resolved *spec.ResolvedWorkflow, events map[string]*Event, rootJobs []string,
	satisfiedName, completeName func(string) string) {
	unlockedBy := make(map[string][]string)
	for _, job := range resolved.Jobs {
		for _, blocker := range job.DependsOn {
			unlockedBy[blocker] = append(unlockedBy[blocker], job.Spec.Name)
		}
	}
	for _, action := range resolved.Spec.Actions {
		if action.ActionType != common.ActionScheduleNodes {
			continue
		}
		allocation := SchedulerAllocation{
			Scheduler:      action.Scheduler,
			SchedulerType:  common.SchedulerTypeSlurm,
			NumAllocations: action.NumAllocations,
		}
		switch action.TriggerType {
		case common.TriggerWorkflowStart:
			allocation.JobsBecomingReady = rootJobs
			event := events[EventWorkflowStart]
			event.SchedulerAllocations = append(event.SchedulerAllocations, allocation)
		case common.TriggerJobComplete:
			for _, job := range action.Jobs {
				jobAllocation := allocation
				jobAllocation.JobsBecomingReady = sortedCopy(unlockedBy[job])
				event := events[completeName(job)]
				if event != nil {
					event.SchedulerAllocations = append(event.SchedulerAllocations, jobAllocation)
				}
			}
		case common.TriggerDependencySatisfied:
			for _, job := range action.Jobs {
				jobAllocation := allocation
				jobAllocation.JobsBecomingReady = []string{job}
				event := events[satisfiedName(job)]
				if event != nil {
					event.SchedulerAllocations = append(event.SchedulerAllocations, jobAllocation)
				}
			}
		}
	}
}

func addUnlock(event *Event, target string) {
	for _, existing := range event.Unlocks {
		if existing == target {
			return
		}
	}
	event.Unlocks = append(event.Unlocks, target)
}

func sortedCopy(items []string) []string {
	out := append([]string(nil), items...)
	sort.Strings(out)
	return out
}

// Pretty renders the plan for human display.
func (p *ExecutionPlan) Pretty() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Execution plan for workflow %s\n", p.WorkflowName)
	fmt.Fprintf(&b, "  root events: %s\n", strings.Join(p.RootEvents, ", "))
	fmt.Fprintf(&b, "  leaf events: %s\n", strings.Join(p.LeafEvents, ", "))
	for _, event := range p.Events {
		fmt.Fprintf(&b, "  %s\n", event.Name)
		for _, target := range event.Unlocks {
			fmt.Fprintf(&b, "    -> %s\n", target)
		}
		for _, allocation := range event.SchedulerAllocations {
			fmt.Fprintf(&b, "    schedules %d x %s (%s), readying [%s]\n",
				allocation.NumAllocations, allocation.Scheduler, allocation.SchedulerType,
				strings.Join(allocation.JobsBecomingReady, ", "))
		}
	}
	return b.String()
}

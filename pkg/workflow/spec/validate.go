/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package spec

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/api/resource"

	"github.com/NREL/torc-sub003/pkg/common"
	torcerrors "github.com/NREL/torc-sub003/pkg/errors"
	"github.com/NREL/torc-sub003/pkg/utils/sets"
	"github.com/NREL/torc-sub003/pkg/utils/timeutil"
)

// ValidateOptions tunes validation strictness.
type ValidateOptions struct {
	// SkipChecks disables the advisory checks that inspect scheduler
	// capacity rather than graph structure.
	SkipChecks bool
}

// Validate checks the structural invariants of a resolved workflow. Name
// uniqueness, reference resolution, and producer uniqueness are enforced
// while resolving; this pass checks the properties that need the whole
// graph: acyclicity, resource profile sanity, and action well-formedness.
func Validate(resolved *ResolvedWorkflow, opts ValidateOptions) error {
	if cycle := findCycle(resolved); cycle != nil {
		return torcerrors.NewCycle(common.KindJob, cycle)
	}
	for _, rr := range resolved.Spec.ResourceRequirements {
		if err := validateResourceRequirements(rr); err != nil {
			return err
		}
	}
	for _, scheduler := range resolved.Spec.SlurmSchedulers {
		if scheduler.Account == "" {
			return torcerrors.NewValidationFailure(
				fmt.Sprintf("slurm_scheduler %s does not set an account", scheduler.Name))
		}
		if scheduler.Nodes < 0 {
			return torcerrors.NewValidationFailure(
				fmt.Sprintf("slurm_scheduler %s has negative nodes %d", scheduler.Name, scheduler.Nodes))
		}
	}
	for _, action := range resolved.Spec.Actions {
		if err := validateAction(resolved, action, opts); err != nil {
			return err
		}
	}
	return nil
}

var knownTriggerTypes = sets.NewSetByKeys(
	common.TriggerWorkflowStart,
	common.TriggerJobComplete,
	common.TriggerDependencySatisfied,
	common.TriggerWorkflowComplete,
)

var knownActionTypes = sets.NewSetByKeys(
	common.ActionScheduleNodes,
	common.ActionCancelWorkflow,
	common.ActionSendEvent,
)

func validateAction(resolved *ResolvedWorkflow, action WorkflowActionSpec, opts ValidateOptions) error {
	if !knownTriggerTypes.Has(action.TriggerType) {
		return torcerrors.NewValidationFailure(
			fmt.Sprintf("workflow_action has unrecognised trigger_type %q", action.TriggerType))
	}
	if !knownActionTypes.Has(action.ActionType) {
		return torcerrors.NewValidationFailure(
			fmt.Sprintf("workflow_action has unrecognised action_type %q", action.ActionType))
	}
	if action.RequiredTriggers < 0 {
		return torcerrors.NewValidationFailure(
			fmt.Sprintf("workflow_action %s/%s has negative required_triggers", action.TriggerType, action.ActionType))
	}
	if action.ActionType != common.ActionScheduleNodes {
		return nil
	}
	if action.Scheduler == "" {
		return torcerrors.NewValidationFailure(
			fmt.Sprintf("schedule_nodes action on trigger %s does not name a scheduler", action.TriggerType))
	}
	if action.NumAllocations < 1 {
		return torcerrors.NewValidationFailure(
			fmt.Sprintf("schedule_nodes action on scheduler %s must request at least one allocation", action.Scheduler))
	}
	if !opts.SkipChecks {
		for _, scheduler := range resolved.Spec.SlurmSchedulers {
			if scheduler.Name == action.Scheduler && scheduler.Nodes < 1 {
				return torcerrors.NewValidationFailure(
					fmt.Sprintf("schedule_nodes action targets scheduler %s which requests zero nodes", action.Scheduler))
			}
		}
	}
	return nil
}

// validateResourceRequirements checks the semantic string fields of one
// resource profile: memory must parse as a size, runtime as an ISO-8601
// duration.
func validateResourceRequirements(rr ResourceRequirementsSpec) error {
	if rr.NumCPUs < 0 || rr.NumGPUs < 0 || rr.NumNodes < 0 {
		return torcerrors.NewValidationFailure(
			fmt.Sprintf("resource_requirements %s declares a negative count", rr.Name))
	}
	if rr.Memory != "" {
		if _, err := resource.ParseQuantity(CanonicalQuantity(rr.Memory)); err != nil {
			return torcerrors.NewValidationFailure(
				fmt.Sprintf("resource_requirements %s has unparseable memory %q: %v", rr.Name, rr.Memory, err))
		}
	}
	if rr.Runtime != "" {
		if _, err := timeutil.ParseISO8601Duration(rr.Runtime); err != nil {
			return torcerrors.NewValidationFailure(
				fmt.Sprintf("resource_requirements %s has unparseable runtime %q: %v", rr.Name, rr.Runtime, err))
		}
	}
	return nil
}

// CanonicalQuantity maps lowercase size suffixes ("20g") onto the canonical
// form the quantity parser accepts.
func CanonicalQuantity(s string) string {
	if s == "" {
		return s
	}
	last := s[len(s)-1]
	switch last {
	case 'k', 'm', 'g', 't':
		return s[:len(s)-1] + strings.ToUpper(string(last))
	}
	return s
}

// findCycle runs Kahn's algorithm over the resolved job graph and, when
// nodes remain, walks the residual graph to report one concrete cycle.
func findCycle(resolved *ResolvedWorkflow) []string {
	indegree := make(map[string]int, len(resolved.Jobs))
	forward := make(map[string][]string, len(resolved.Jobs))
	for _, job := range resolved.Jobs {
		if _, ok := indegree[job.Spec.Name]; !ok {
			indegree[job.Spec.Name] = 0
		}
		for _, blocker := range job.DependsOn {
			indegree[job.Spec.Name]++
			forward[blocker] = append(forward[blocker], job.Spec.Name)
		}
	}

	queue := make([]string, 0, len(indegree))
	for _, job := range resolved.Jobs {
		if indegree[job.Spec.Name] == 0 {
			queue = append(queue, job.Spec.Name)
		}
	}
	visited := 0
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		visited++
		for _, next := range forward[name] {
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}
	if visited == len(indegree) {
		return nil
	}

	// Some node with residual in-degree sits on a cycle. Follow blockers
	// that are themselves residual until a name repeats.
	residual := sets.NewSet()
	blockers := make(map[string][]string, len(resolved.Jobs))
	for _, job := range resolved.Jobs {
		blockers[job.Spec.Name] = job.DependsOn
		if indegree[job.Spec.Name] > 0 {
			residual.Insert(job.Spec.Name)
		}
	}
	start := residual.SortedList()[0]
	seen := make(map[string]int)
	path := []string{}
	current := start
	for {
		if at, ok := seen[current]; ok {
			return path[at:]
		}
		seen[current] = len(path)
		path = append(path, current)
		next := ""
		for _, blocker := range blockers[current] {
			if residual.Has(blocker) {
				next = blocker
				break
			}
		}
		if next == "" {
			return path
		}
		current = next
	}
}

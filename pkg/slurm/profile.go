/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package slurm

import (
	"fmt"
	"sort"

	"k8s.io/apimachinery/pkg/api/resource"

	torcerrors "github.com/NREL/torc-sub003/pkg/errors"
	"github.com/NREL/torc-sub003/pkg/utils/timeutil"
	"github.com/NREL/torc-sub003/pkg/workflow/spec"
)

// Profile describes one HPC system's node shape and scheduling defaults.
// Profiles let a workflow be created with synthesised scheduler entries
// matched to each job's resource class.
type Profile struct {
	Name            string
	Partition       string
	QOS             string
	CPUsPerNode     int
	GPUsPerNode     int
	MemoryPerNode   string
	DefaultWalltime string
	SharedPartition bool
}

// Builtin HPC profiles. Sites with other shapes register their own.
var profiles = map[string]Profile{
	"kestrel": {
		Name:            "kestrel",
		Partition:       "",
		CPUsPerNode:     104,
		MemoryPerNode:   "240G",
		DefaultWalltime: "04:00:00",
		SharedPartition: true,
	},
	"kestrel-gpu": {
		Name:            "kestrel-gpu",
		Partition:       "gpu-h100",
		CPUsPerNode:     128,
		GPUsPerNode:     4,
		MemoryPerNode:   "360G",
		DefaultWalltime: "04:00:00",
	},
	"generic": {
		Name:            "generic",
		CPUsPerNode:     36,
		MemoryPerNode:   "90G",
		DefaultWalltime: "04:00:00",
	},
}

// RegisterProfile adds or replaces a named profile.
func RegisterProfile(p Profile) {
	profiles[p.Name] = p
}

// LookupProfile returns a registered profile by name.
func LookupProfile(name string) (Profile, error) {
	p, ok := profiles[name]
	if !ok {
		return Profile{}, torcerrors.NewNotFound("hpc_profile", name)
	}
	return p, nil
}

// ProfileNames lists the registered profiles.
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SynthesiseSchedulers derives scheduler entries for a workflow from an HPC
// profile: one scheduler per distinct resource class referenced by the jobs,
// sized so each allocation holds a whole node. The scheduler name doubles as
// the handle a schedule_nodes action binds to.
func SynthesiseSchedulers(workflow *spec.WorkflowSpec, account string, profile Profile) ([]spec.SlurmSchedulerSpec, error) {
	classes := make(map[string]spec.ResourceRequirementsSpec)
	for _, rr := range workflow.ResourceRequirements {
		classes[rr.Name] = rr
	}

	referenced := make(map[string]bool)
	for _, job := range workflow.Jobs {
		referenced[job.ResourceRequirements] = true
	}

	names := make([]string, 0, len(referenced))
	for name := range referenced {
		names = append(names, name)
	}
	sort.Strings(names)

	var schedulers []spec.SlurmSchedulerSpec
	for _, name := range names {
		scheduler := spec.SlurmSchedulerSpec{
			Name:      fmt.Sprintf("%s_scheduler", profile.Name),
			Account:   account,
			Nodes:     1,
			Walltime:  profile.DefaultWalltime,
			Partition: profile.Partition,
			QOS:       profile.QOS,
		}
		if name != "" {
			rr, ok := classes[name]
			if !ok {
				return nil, torcerrors.NewUnresolvedReference("resource_requirements", name, "scheduler synthesis")
			}
			scheduler.Name = fmt.Sprintf("%s_%s", profile.Name, rr.Name)
			if rr.NumNodes > 1 {
				scheduler.Nodes = rr.NumNodes
			}
			if rr.Runtime != "" {
				d, err := timeutil.ParseISO8601Duration(rr.Runtime)
				if err == nil {
					scheduler.Walltime = timeutil.FormatSlurmWalltime(d)
				}
			}
			if exceedsNode(rr, profile) {
				return nil, torcerrors.NewValidationFailure(fmt.Sprintf(
					"resource_requirements %s does not fit a %s node", rr.Name, profile.Name))
			}
		}
		schedulers = append(schedulers, scheduler)
	}
	return dedupeSchedulers(schedulers), nil
}

// exceedsNode reports whether a resource class cannot fit one node of the
// profile.
func exceedsNode(rr spec.ResourceRequirementsSpec, profile Profile) bool {
	if profile.CPUsPerNode > 0 && rr.NumCPUs > profile.CPUsPerNode {
		return true
	}
	if rr.NumGPUs > 0 && rr.NumGPUs > profile.GPUsPerNode {
		return true
	}
	if rr.Memory != "" && profile.MemoryPerNode != "" {
		want, err1 := resource.ParseQuantity(spec.CanonicalQuantity(rr.Memory))
		have, err2 := resource.ParseQuantity(profile.MemoryPerNode)
		if err1 == nil && err2 == nil && want.Cmp(have) > 0 {
			return true
		}
	}
	return false
}

func dedupeSchedulers(schedulers []spec.SlurmSchedulerSpec) []spec.SlurmSchedulerSpec {
	seen := make(map[string]bool, len(schedulers))
	out := schedulers[:0]
	for _, s := range schedulers {
		if seen[s.Name] {
			continue
		}
		seen[s.Name] = true
		out = append(out, s)
	}
	return out
}

/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package spec

import (
	"fmt"
	"sort"
	"strings"

	torcerrors "github.com/NREL/torc-sub003/pkg/errors"
	"github.com/NREL/torc-sub003/pkg/utils/sets"
)

// Expand replaces every parameterised job and file template with its
// expanded instances, substituting ${key} placeholders across all string
// fields. The input is never mutated; non-template entries pass through
// unchanged in declaration order, with each template's instances taking its
// slot.
func Expand(in *WorkflowSpec) (*WorkflowSpec, error) {
	out := in.Clone()
	if out == nil {
		return nil, torcerrors.NewInternalError("failed to deep-copy workflow spec")
	}

	jobs := make([]JobSpec, 0, len(out.Jobs))
	jobNames := sets.NewSet()
	for _, job := range out.Jobs {
		if !job.UseParameters {
			jobs = append(jobs, job)
			jobNames.Insert(job.Name)
			continue
		}
		bindings, err := parameterBindings(job.Name, job.ParameterMode, job.Parameters)
		if err != nil {
			return nil, err
		}
		for _, binding := range bindings {
			expanded := substituteJob(job, binding)
			if jobNames.Has(expanded.Name) {
				return nil, torcerrors.NewDuplicateExpandedName(job.Name, expanded.Name)
			}
			jobNames.Insert(expanded.Name)
			jobs = append(jobs, expanded)
		}
	}
	out.Jobs = jobs

	if len(out.Files) > 0 {
		files := make([]FileSpec, 0, len(out.Files))
		fileNames := sets.NewSet()
		for _, file := range out.Files {
			if !file.UseParameters {
				files = append(files, file)
				fileNames.Insert(file.Name)
				continue
			}
			bindings, err := parameterBindings(file.Name, file.ParameterMode, file.Parameters)
			if err != nil {
				return nil, err
			}
			for _, binding := range bindings {
				expanded := file
				expanded.UseParameters = false
				expanded.ParameterMode = ""
				expanded.Parameters = nil
				expanded.Name = substitute(file.Name, binding)
				expanded.Path = substitute(file.Path, binding)
				if fileNames.Has(expanded.Name) {
					return nil, torcerrors.NewDuplicateExpandedName(file.Name, expanded.Name)
				}
				fileNames.Insert(expanded.Name)
				files = append(files, expanded)
			}
		}
		out.Files = files
	}
	return out, nil
}

// parameterBindings enumerates the concrete key-to-value bindings a template
// expands to. Product mode takes the cartesian product of the lists; zip mode
// walks them in lockstep and requires equal lengths. Keys iterate in sorted
// order so expansion is deterministic.
func parameterBindings(template, mode string, params map[string][]interface{}) ([]map[string]string, error) {
	if len(params) == 0 {
		return nil, torcerrors.NewParseError(template, "use_parameters is set but no parameters are declared")
	}
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	switch mode {
	case ParameterModeZip:
		length := len(params[keys[0]])
		for _, key := range keys {
			if len(params[key]) != length {
				return nil, torcerrors.NewParameterShapeMismatch(template, key)
			}
		}
		bindings := make([]map[string]string, 0, length)
		for i := 0; i < length; i++ {
			binding := make(map[string]string, len(keys))
			for _, key := range keys {
				binding[key] = formatParameter(params[key][i])
			}
			bindings = append(bindings, binding)
		}
		return bindings, nil
	case ParameterModeProduct, "":
		bindings := []map[string]string{{}}
		for _, key := range keys {
			values := params[key]
			next := make([]map[string]string, 0, len(bindings)*len(values))
			for _, binding := range bindings {
				for _, value := range values {
					extended := make(map[string]string, len(binding)+1)
					for k, v := range binding {
						extended[k] = v
					}
					extended[key] = formatParameter(value)
					next = append(next, extended)
				}
			}
			bindings = next
		}
		return bindings, nil
	}
	return nil, torcerrors.NewParseError(template, "unknown parameter_mode "+mode)
}

// formatParameter renders a parameter value the way it appeared in the
// document: integral floats print without a decimal point so JSON numbers
// like 3 do not become "3.000000".
func formatParameter(value interface{}) string {
	if f, ok := value.(float64); ok && f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%v", value)
}

// substituteJob applies one binding to every string field of a job template
// and strips the template markers from the instance.
func substituteJob(job JobSpec, binding map[string]string) JobSpec {
	out := job
	out.UseParameters = false
	out.ParameterMode = ""
	out.Parameters = nil
	out.Name = substitute(job.Name, binding)
	out.Command = substitute(job.Command, binding)
	out.InvocationScript = substitute(job.InvocationScript, binding)
	out.ResourceRequirements = substitute(job.ResourceRequirements, binding)
	out.Scheduler = substitute(job.Scheduler, binding)
	out.DependsOn = substituteList(job.DependsOn, binding)
	out.DependsOnRegexes = substituteList(job.DependsOnRegexes, binding)
	out.InputFiles = substituteList(job.InputFiles, binding)
	out.InputFileRegexes = substituteList(job.InputFileRegexes, binding)
	out.OutputFiles = substituteList(job.OutputFiles, binding)
	out.OutputFileRegexes = substituteList(job.OutputFileRegexes, binding)
	out.InputUserData = substituteList(job.InputUserData, binding)
	out.InputUserDataRegexes = substituteList(job.InputUserDataRegexes, binding)
	out.OutputUserData = substituteList(job.OutputUserData, binding)
	out.OutputUserDataRegexes = substituteList(job.OutputUserDataRegexes, binding)
	return out
}

// substitute replaces ${key} placeholders with bound values. Unbound
// placeholders are left intact for the validator to reject.
func substitute(s string, binding map[string]string) string {
	if s == "" || !strings.Contains(s, "${") {
		return s
	}
	for key, value := range binding {
		s = strings.ReplaceAll(s, "${"+key+"}", value)
	}
	return s
}

func substituteList(items []string, binding map[string]string) []string {
	if items == nil {
		return nil
	}
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = substitute(item, binding)
	}
	return out
}

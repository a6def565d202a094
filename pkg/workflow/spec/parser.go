/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package spec

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/titanous/json5"
	"k8s.io/klog/v2"
	"sigs.k8s.io/yaml"

	torcerrors "github.com/NREL/torc-sub003/pkg/errors"
)

// Format identifies one workflow document surface format.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSON5 Format = "json5"
	FormatYAML  Format = "yaml"
	FormatKDL   Format = "kdl"
)

// formatForExtension maps a file extension to its format; ok is false for
// unrecognised extensions.
func formatForExtension(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, true
	case ".json5":
		return FormatJSON5, true
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".kdl":
		return FormatKDL, true
	}
	return "", false
}

// Parse reads and decodes a workflow document. The format is dispatched on
// the file extension; for unknown extensions the parsers are tried in the
// order JSON, JSON5, YAML and the first success wins.
func Parse(path string) (*WorkflowSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, torcerrors.NewParseError(path, err.Error())
	}
	if format, ok := formatForExtension(path); ok {
		workflow, err := Decode(data, format)
		if err != nil {
			return nil, torcerrors.NewParseError(path, err.Error())
		}
		return workflow, nil
	}

	var lastErr error
	for _, format := range []Format{FormatJSON, FormatJSON5, FormatYAML} {
		workflow, err := Decode(data, format)
		if err == nil {
			klog.V(4).Infof("decoded %s as %s after extension fallback", path, format)
			return workflow, nil
		}
		lastErr = err
	}
	return nil, torcerrors.NewParseError(path, lastErr.Error())
}

// Decode decodes a workflow document of a known format.
func Decode(data []byte, format Format) (*WorkflowSpec, error) {
	var workflow WorkflowSpec
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &workflow); err != nil {
			return nil, err
		}
	case FormatJSON5:
		if err := json5.Unmarshal(data, &workflow); err != nil {
			return nil, err
		}
	case FormatYAML:
		// sigs yaml converts to JSON first, so the JSON tags apply.
		if err := yaml.Unmarshal(data, &workflow); err != nil {
			return nil, err
		}
	case FormatKDL:
		decoded, err := decodeKDL(data)
		if err != nil {
			return nil, err
		}
		workflow = *decoded
	default:
		return nil, torcerrors.NewInternalError("unknown workflow document format " + string(format))
	}
	return &workflow, nil
}

// Encode serialises the spec in the given format. KDL output is not
// supported; KDL documents are an input surface only.
func Encode(workflow *WorkflowSpec, format Format) ([]byte, error) {
	switch format {
	case FormatJSON, FormatJSON5:
		return json.MarshalIndent(workflow, "", "  ")
	case FormatYAML:
		return yaml.Marshal(workflow)
	}
	return nil, torcerrors.NewInternalError("cannot encode workflow documents as " + string(format))
}

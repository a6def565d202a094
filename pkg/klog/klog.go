/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package klog

import (
	"flag"

	"k8s.io/klog/v2"
)

// Init initializes the klog logging system for CLI use. Output goes to
// stderr only; level selects the verbosity threshold ("debug" enables v=4).
func Init(level string) error {
	klog.InitFlags(nil)
	flag.Set("logtostderr", "true")
	flag.Set("skip_log_headers", "true")
	switch level {
	case "debug":
		flag.Set("v", "4")
	case "warning":
		flag.Set("stderrthreshold", "WARNING")
	case "error":
		flag.Set("stderrthreshold", "ERROR")
	}
	flag.Parse()
	return nil
}

/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package config

import (
	"strings"

	"github.com/spf13/viper"
)

const (
	serverURL             = "server.url"
	serverUsername        = "server.username"
	serverPassword        = "server.password"
	requestTimeoutSecond  = "server.request_timeout_second"
	outputFormat          = "output.format"
	logLevel              = "log.level"
	watchPollSecond       = "watch.poll_second"
	watchMaxBackoffSecond = "watch.max_backoff_second"
	slurmSbatchCommand    = "slurm.sbatch_command"
	slurmScancelCommand   = "slurm.scancel_command"
	keepSubmissionScripts = "slurm.keep_submission_scripts"
	workerPollSecond      = "worker.poll_second"
)

func init() {
	viper.SetEnvPrefix("TORC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// SetValue sets a configuration value for the specified key.
func SetValue(key string, value any) {
	viper.Set(key, value)
}

// LoadConfig loads configuration from the specified file path.
func LoadConfig(path string) error {
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")
	return viper.ReadInConfig()
}

func getString(key, defaultValue string) string {
	if !viper.IsSet(key) {
		return defaultValue
	}
	return viper.GetString(key)
}

func getBool(key string, defaultValue bool) bool {
	if !viper.IsSet(key) {
		return defaultValue
	}
	return viper.GetBool(key)
}

func getInt(key string, defaultValue int) int {
	if !viper.IsSet(key) {
		return defaultValue
	}
	return viper.GetInt(key)
}

// GetServerURL returns the base URL of the torc store server.
func GetServerURL() string {
	return getString(serverURL, "http://localhost:8529/torc")
}

// GetUsername returns the username sent with store requests.
func GetUsername() string {
	return getString(serverUsername, "")
}

// GetPassword returns the password sent with store requests.
func GetPassword() string {
	return getString(serverPassword, "")
}

// GetRequestTimeoutSecond returns the store request timeout in seconds.
func GetRequestTimeoutSecond() int {
	return getInt(requestTimeoutSecond, 30)
}

// GetOutputFormat returns the CLI output format, "table" or "json".
func GetOutputFormat() string {
	return getString(outputFormat, "table")
}

// GetLogLevel returns the logging level.
func GetLogLevel() string {
	return getString(logLevel, "info")
}

// GetWatchPollSecond returns the watcher's recovery poll interval in seconds.
func GetWatchPollSecond() int {
	return getInt(watchPollSecond, 10)
}

// GetWatchMaxBackoffSecond returns the cap on the SSE reconnect backoff.
func GetWatchMaxBackoffSecond() int {
	return getInt(watchMaxBackoffSecond, 30)
}

// GetSbatchCommand returns the sbatch executable used for Slurm submission.
func GetSbatchCommand() string {
	return getString(slurmSbatchCommand, "sbatch")
}

// GetScancelCommand returns the scancel executable used for Slurm cancellation.
func GetScancelCommand() string {
	return getString(slurmScancelCommand, "scancel")
}

// IsKeepSubmissionScripts returns whether rendered sbatch scripts are kept
// after submission.
func IsKeepSubmissionScripts() bool {
	return getBool(keepSubmissionScripts, false)
}

// GetWorkerPollSecond returns the local worker's claim poll interval.
func GetWorkerPollSecond() int {
	return getInt(workerPollSecond, 2)
}

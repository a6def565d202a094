/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"

	"github.com/NREL/torc-sub003/pkg/client"
	"github.com/NREL/torc-sub003/pkg/common"
	"github.com/NREL/torc-sub003/pkg/config"
	torclog "github.com/NREL/torc-sub003/pkg/klog"
	"github.com/NREL/torc-sub003/pkg/utils/jsonutil"
)

var (
	flagURL      string
	flagFormat   string
	flagUsername string
	flagPassword string
	flagLogLevel string
	flagConfig   string
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "torc",
		Short:         "torc orchestrates HPC workflows through a torc store",
		Version:       common.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flagConfig != "" {
				if err := config.LoadConfig(flagConfig); err != nil {
					return err
				}
			}
			if flagURL != "" {
				config.SetValue("server.url", flagURL)
			}
			if flagFormat != "" {
				config.SetValue("output.format", flagFormat)
			}
			if flagUsername != "" {
				config.SetValue("server.username", flagUsername)
			}
			if flagPassword != "" {
				config.SetValue("server.password", flagPassword)
			}
			if flagLogLevel != "" {
				config.SetValue("log.level", flagLogLevel)
			}
			return torclog.Init(config.GetLogLevel())
		},
	}
	addGlobalFlags(root.PersistentFlags())

	root.AddCommand(
		newCreateCommand(),
		newValidateCommand(),
		newSubmitCommand(),
		newRunLocalCommand(),
		newWatchCommand(),
		newCancelCommand(),
		newReinitializeCommand(),
		newResetStatusCommand(),
		newDeleteCommand(),
		newPlanCommand(),
		newListCommand(),
		newScheduleNodesCommand(),
		newProfilesCommand(),
	)
	return root
}

// addGlobalFlags registers the flags shared by every subcommand. Flag values
// override the config file, which overrides TORC_* environment variables.
func addGlobalFlags(flags *pflag.FlagSet) {
	flags.StringVar(&flagURL, "url", "", "base URL of the torc store server")
	flags.StringVar(&flagFormat, "format", "", "output format, table or json")
	flags.StringVarP(&flagUsername, "username", "u", "", "store username")
	flags.StringVarP(&flagPassword, "password", "p", "", "store password")
	flags.StringVar(&flagLogLevel, "log-level", "", "log level, debug or info")
	flags.StringVar(&flagConfig, "config", "", "path to a torc config file")
}

// newClient builds the store client from the resolved configuration and
// warns on version skew without failing.
func newClient(ctx context.Context) *client.Client {
	opts := []client.Option{
		client.WithTimeout(time.Duration(config.GetRequestTimeoutSecond()) * time.Second),
	}
	if config.GetUsername() != "" {
		opts = append(opts, client.WithBasicAuth(config.GetUsername(), config.GetPassword()))
	}
	c := client.New(config.GetServerURL(), opts...)
	if err := c.CheckVersion(ctx); err != nil {
		klog.V(2).Infof("version handshake: %v", err)
	}
	return c
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v interface{}) {
	fmt.Fprintln(os.Stdout, string(jsonutil.MarshalIndentSilently(v)))
}

// jsonOutput reports whether the caller asked for JSON output.
func jsonOutput() bool {
	return config.GetOutputFormat() == "json"
}

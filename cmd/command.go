// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"time"

	"github.com/LeeDigitalWorks/clusterbucket/pkg/debug"
	"github.com/LeeDigitalWorks/clusterbucket/pkg/env"
	"github.com/LeeDigitalWorks/clusterbucket/pkg/logger"
	"github.com/LeeDigitalWorks/clusterbucket/pkg/utils"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "clusterbucket",
	Short: "Cluster artifact bucket tooling",
	Long: `clusterbucket creates and configures the S3 bucket a cluster stack keeps
its generated artifacts in: templates, configs and custom resources under a
per-stack artifact directory, plus the bootstrap marker that records which
bucket features are already in place.`,
	SilenceUsage:      true,
	PersistentPreRunE: initialize,
	PersistentPostRun: shutdown,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// stopDebug shuts down the debug server when --debug_addr started one.
var stopDebug func(context.Context) error

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&utils.ConfigurationFileDirectory, "config_dir", ".", "Directory for configuration files")
	f.String("log_level", "info", "Log level (debug, info, warn, error, fatal)")
	f.String("debug_addr", "", "Serve /metrics, /health and pprof on this address (e.g. localhost:8090)")

	// AWS connection
	f.String("region", "", "AWS region of the bucket")
	f.String("endpoint", "", "Override the S3/STS/KMS endpoint (LocalStack, MinIO)")
	f.String("profile", "", "Shared config profile")
	f.String("access_key_id", "", "Static access key id")
	f.String("secret_access_key", "", "Static secret access key")
	f.Bool("path_style", false, "Use path-style S3 addressing")

	// Bucket descriptor
	f.String("bucket", "", "Bucket name (derived from account and region when empty)")
	f.String("stack_name", "", "Stack that owns the artifact directory")
	f.String("service_name", "", "Service name recorded on uploaded objects")
	f.String("artifact_directory", "", "Artifact directory inside the bucket")
	f.String("account_id", "", "AWS account id (resolved through STS when empty)")
	f.String("kms_key_id", "", "KMS key for default bucket encryption (SSE-S3 when empty)")
	f.Bool("fail_if_exists", false, "Fail when the bucket already exists and is owned by this account")
}

func initialize(cmd *cobra.Command, args []string) error {
	utils.LoadConfiguration("clusterbucket", false)
	if err := env.Load(); err != nil {
		logger.Warn().Err(err).Msg("Ignoring environment setting")
	}

	f := NewFlagLoader(cmd)
	if raw := f.String("log_level"); raw != "" {
		level, err := zerolog.ParseLevel(raw)
		if err != nil {
			return err
		}
		logger.SetLevel(level)
	}

	if addr := f.String("debug_addr"); addr != "" {
		stop, err := debug.Serve(addr)
		if err != nil {
			return err
		}
		stopDebug = stop
		debug.SetReady()
	}

	cmd.SetContext(logger.WithCommand(cmd.Context(), cmd.CommandPath()))
	return nil
}

func shutdown(cmd *cobra.Command, args []string) {
	if stopDebug == nil {
		return
	}
	debug.SetNotReady()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := stopDebug(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to stop debug server")
	}
	stopDebug = nil
}

// Execute runs the root command. Cobra has already printed the error.
func Execute() error {
	return rootCmd.Execute()
}

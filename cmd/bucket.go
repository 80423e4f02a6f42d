// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/LeeDigitalWorks/clusterbucket/pkg/bucket"
	"github.com/LeeDigitalWorks/clusterbucket/pkg/content"
	"github.com/LeeDigitalWorks/clusterbucket/pkg/partition"
	"github.com/LeeDigitalWorks/clusterbucket/pkg/policy"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var bucketCmd = &cobra.Command{
	Use:   "bucket",
	Short: "Bucket lifecycle commands",
	Long:  `Commands that create, configure and inspect the cluster artifact bucket.`,
}

var bucketCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create the bucket",
	Long: `Create the bucket in the configured region. A bucket already owned by this
account is reused unless --fail_if_exists is set.`,
	Args: cobra.NoArgs,
	RunE: runBucketCreate,
}

var bucketExistsCmd = &cobra.Command{
	Use:   "exists",
	Short: "Check that the bucket exists and is reachable",
	Args:  cobra.NoArgs,
	RunE:  runBucketExists,
}

var bucketConfigureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Enable versioning, default encryption and the bucket policy",
	Args:  cobra.NoArgs,
	RunE:  runBucketConfigure,
}

var bucketBootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Create, configure and mark the bucket unless it is already bootstrapped",
	Args:  cobra.NoArgs,
	RunE:  runBucketBootstrap,
}

var bucketCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Report whether the bucket is bootstrapped",
	Long: `Read the bootstrap marker and report whether it lists every required
feature. A missing or unreadable marker reports false.`,
	Args: cobra.NoArgs,
	RunE: runBucketCheck,
}

var bucketMarkCmd = &cobra.Command{
	Use:   "mark",
	Short: "Write the bootstrap marker",
	Args:  cobra.NoArgs,
	RunE:  runBucketMark,
}

var bucketUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a local file to the artifact directory",
	Long: `Upload a local file under {artifact_directory}/{type}/{name}. With a --format
other than none the file is parsed as YAML (which includes JSON) and rendered
in that format before upload.`,
	Args: cobra.ExactArgs(1),
	RunE: runBucketUpload,
}

var bucketGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Print an artifact",
	Args:  cobra.ExactArgs(1),
	RunE:  runBucketGet,
}

var bucketURLCmd = &cobra.Command{
	Use:   "url <name>",
	Short: "Print the HTTPS URL of an artifact",
	Args:  cobra.ExactArgs(1),
	RunE:  runBucketURL,
}

var bucketPolicyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Print the bucket policy document",
	Args:  cobra.NoArgs,
	RunE:  runBucketPolicy,
}

var bucketDeleteArtifactsCmd = &cobra.Command{
	Use:   "delete-artifacts",
	Short: "Delete every object version under the artifact directory",
	Args:  cobra.NoArgs,
	RunE:  runBucketDeleteArtifacts,
}

func init() {
	rootCmd.AddCommand(bucketCmd)
	bucketCmd.AddCommand(
		bucketCreateCmd,
		bucketExistsCmd,
		bucketConfigureCmd,
		bucketBootstrapCmd,
		bucketCheckCmd,
		bucketMarkCmd,
		bucketUploadCmd,
		bucketGetCmd,
		bucketURLCmd,
		bucketPolicyCmd,
		bucketDeleteArtifactsCmd,
	)

	for _, c := range []*cobra.Command{bucketBootstrapCmd, bucketCheckCmd, bucketMarkCmd} {
		c.Flags().StringSlice("features", nil, "Bootstrap features (default basic,export-logs)")
	}

	for _, c := range []*cobra.Command{bucketUploadCmd, bucketGetCmd, bucketURLCmd} {
		c.Flags().String("type", string(bucket.FileTypeAssets), "Artifact type (assets, templates, configs, custom_resources)")
	}
	bucketUploadCmd.Flags().String("name", "", "Object name (defaults to the file's base name)")
	bucketUploadCmd.Flags().String("format", "none", "Upload format (none, yaml, json, minified-json)")

	bucketDeleteArtifactsCmd.Flags().Bool("yes", false, "Confirm deletion")
}

func runBucketCreate(cmd *cobra.Command, args []string) error {
	m, err := newManager(cmd.Context(), loadBucketOpts(cmd))
	if err != nil {
		return err
	}
	if err := m.CreateBucket(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), m.Name())
	return nil
}

func runBucketExists(cmd *cobra.Command, args []string) error {
	m, err := newManager(cmd.Context(), loadBucketOpts(cmd))
	if err != nil {
		return err
	}
	err = m.CheckBucketExists(cmd.Context())
	if errors.Is(err, bucket.ErrNotFound) {
		fmt.Fprintln(cmd.OutOrStdout(), false)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), true)
	return nil
}

func runBucketConfigure(cmd *cobra.Command, args []string) error {
	m, err := newManager(cmd.Context(), loadBucketOpts(cmd))
	if err != nil {
		return err
	}
	return m.ConfigureBucket(cmd.Context())
}

func runBucketBootstrap(cmd *cobra.Command, args []string) error {
	m, err := newManager(cmd.Context(), loadBucketOpts(cmd))
	if err != nil {
		return err
	}
	configured, err := m.Bootstrap(cmd.Context(), NewFlagLoader(cmd).StringSlice("features")...)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s (configured: %t)\n", m.Name(), m.Status(), configured)
	return nil
}

func runBucketCheck(cmd *cobra.Command, args []string) error {
	m, err := newManager(cmd.Context(), loadBucketOpts(cmd))
	if err != nil {
		return err
	}
	ok, err := m.CheckBucketIsBootstrapped(cmd.Context(), NewFlagLoader(cmd).StringSlice("features")...)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), ok)
	return nil
}

func runBucketMark(cmd *cobra.Command, args []string) error {
	m, err := newManager(cmd.Context(), loadBucketOpts(cmd))
	if err != nil {
		return err
	}
	return m.MarkBootstrapped(cmd.Context(), NewFlagLoader(cmd).StringSlice("features")...)
}

func runBucketUpload(cmd *cobra.Command, args []string) error {
	ft, err := bucket.ParseFileType(flagString(cmd, "type"))
	if err != nil {
		return err
	}
	format, err := content.ParseFormat(flagString(cmd, "format"))
	if err != nil {
		return err
	}
	name := flagString(cmd, "name")
	if name == "" {
		name = filepath.Base(args[0])
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	var body any = data
	if format != content.FormatNone {
		if body, err = content.Decode(data, content.FormatYAML); err != nil {
			return fmt.Errorf("parse %s: %w", args[0], err)
		}
	}

	m, err := newManager(cmd.Context(), loadBucketOpts(cmd))
	if err != nil {
		return err
	}
	if err := m.UploadFile(cmd.Context(), body, name, ft, format); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s read)\n", m.ObjectURL(ft, name), humanize.Bytes(uint64(len(data))))
	return nil
}

func runBucketGet(cmd *cobra.Command, args []string) error {
	ft, err := bucket.ParseFileType(flagString(cmd, "type"))
	if err != nil {
		return err
	}
	m, err := newManager(cmd.Context(), loadBucketOpts(cmd))
	if err != nil {
		return err
	}
	data, err := m.GetObject(cmd.Context(), args[0], ft)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

// runBucketURL needs no credentials: the region must be configured and the
// bucket name given or derivable from --account_id.
func runBucketURL(cmd *cobra.Command, args []string) error {
	ft, err := bucket.ParseFileType(flagString(cmd, "type"))
	if err != nil {
		return err
	}
	o := loadBucketOpts(cmd)
	desc, err := offlineDescriptor(o)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), partition.ObjectURL(o.AWS.Region, desc.Name, desc.ObjectKey(ft, args[0])))
	return nil
}

func runBucketPolicy(cmd *cobra.Command, args []string) error {
	o := loadBucketOpts(cmd)
	if o.AccountID == "" {
		return errors.New("--account_id is required")
	}
	desc, err := offlineDescriptor(o)
	if err != nil {
		return err
	}
	doc, err := policy.Generate(policy.Params{
		Partition:  partition.ForRegion(o.AWS.Region).ID,
		Region:     o.AWS.Region,
		AccountID:  o.AccountID,
		BucketName: desc.Name,
	}).JSON()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), doc)
	return nil
}

func runBucketDeleteArtifacts(cmd *cobra.Command, args []string) error {
	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		return errors.New("refusing to delete artifacts without --yes")
	}
	m, err := newManager(cmd.Context(), loadBucketOpts(cmd))
	if err != nil {
		return err
	}
	n, err := m.DeleteArtifacts(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %d object versions from %s\n", n, m.Name())
	return nil
}

func offlineDescriptor(o BucketOpts) (bucket.Descriptor, error) {
	if o.AWS.Region == "" {
		return bucket.Descriptor{}, errors.New("--region is required")
	}
	if o.ArtifactDirectory == "" {
		return bucket.Descriptor{}, errors.New("--artifact_directory is required")
	}
	desc := o.descriptor()
	if desc.Name == "" {
		if o.AccountID == "" {
			return bucket.Descriptor{}, errors.New("--bucket or --account_id is required")
		}
		desc.Name = bucket.DeriveName(o.AccountID, o.AWS.Region)
	}
	return desc, nil
}

func flagString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

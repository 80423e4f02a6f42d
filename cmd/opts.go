// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/LeeDigitalWorks/clusterbucket/pkg/awsclient"
	"github.com/LeeDigitalWorks/clusterbucket/pkg/bucket"
	"github.com/LeeDigitalWorks/clusterbucket/pkg/encryption"
	"github.com/LeeDigitalWorks/clusterbucket/pkg/identity"
	"github.com/LeeDigitalWorks/clusterbucket/pkg/logger"

	"github.com/spf13/cobra"
)

type BucketOpts struct {
	AWS awsclient.Config

	Bucket            string
	StackName         string
	ServiceName       string
	ArtifactDirectory string
	AccountID         string
	KMSKeyID          string
	FailIfExists      bool
}

func loadBucketOpts(cmd *cobra.Command) BucketOpts {
	f := NewFlagLoader(cmd)

	return BucketOpts{
		AWS: awsclient.Config{
			Region:          f.String("region"),
			Endpoint:        f.String("endpoint"),
			Profile:         f.String("profile"),
			AccessKeyID:     f.String("access_key_id"),
			SecretAccessKey: f.String("secret_access_key"),
			PathStyle:       f.Bool("path_style"),
		},
		Bucket:            f.String("bucket"),
		StackName:         f.String("stack_name"),
		ServiceName:       f.String("service_name"),
		ArtifactDirectory: f.String("artifact_directory"),
		AccountID:         f.String("account_id"),
		KMSKeyID:          f.String("kms_key_id"),
		FailIfExists:      f.Bool("fail_if_exists"),
	}
}

func (o BucketOpts) descriptor() bucket.Descriptor {
	return bucket.Descriptor{
		Name:              o.Bucket,
		StackName:         o.StackName,
		ServiceName:       o.ServiceName,
		ArtifactDirectory: o.ArtifactDirectory,
	}
}

// clients is shared by every command run in this process.
var clients = awsclient.NewPool(0, 0)

// newManager resolves the account through STS when it is not configured,
// resolves the KMS key when one is set and builds the bucket manager.
func newManager(ctx context.Context, o BucketOpts) (*bucket.Manager, error) {
	if o.ArtifactDirectory == "" {
		return nil, errors.New("--artifact_directory is required")
	}

	s3Client, err := clients.S3(ctx, &o.AWS)
	if err != nil {
		return nil, err
	}
	awsCfg, err := clients.AWSConfig(ctx, &o.AWS)
	if err != nil {
		return nil, err
	}

	opts := bucket.Options{
		Region:     awsCfg.Region,
		AccountID:  o.AccountID,
		Encryption: encryption.Default(),
	}
	if o.FailIfExists {
		opts.ExistingBucket = bucket.FailIfExists
	}

	if opts.AccountID == "" {
		stsClient, err := clients.STS(ctx, &o.AWS)
		if err != nil {
			return nil, err
		}
		caller, err := identity.Resolve(ctx, stsClient)
		if err != nil {
			return nil, err
		}
		opts.AccountID = caller.AccountID
		opts.Partition = caller.Partition
	}

	if o.KMSKeyID != "" {
		kmsClient, err := clients.KMS(ctx, &o.AWS)
		if err != nil {
			return nil, err
		}
		opts.Encryption, err = encryption.WithKMSKey(ctx, kmsClient, o.KMSKeyID)
		if err != nil {
			return nil, fmt.Errorf("resolve kms key: %w", err)
		}
	}

	m, err := bucket.New(s3Client, o.descriptor(), opts)
	if err != nil {
		return nil, err
	}

	logger.Debug().
		Str("bucket", m.Name()).
		Str("region", opts.Region).
		Str("account", opts.AccountID).
		Str("artifact_directory", o.ArtifactDirectory).
		Msg("Bucket manager ready")
	return m, nil
}

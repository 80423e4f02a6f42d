// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package encryption decides the default server-side encryption of the
// cluster bucket: SSE-S3 unless a KMS key is configured.
package encryption

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	kmstypes "github.com/aws/aws-sdk-go-v2/service/kms/types"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

var ErrKeyUnusable = errors.New("kms key cannot be used for bucket encryption")

// KMSAPI is the subset of KMS used to validate a key.
type KMSAPI interface {
	DescribeKey(ctx context.Context, params *kms.DescribeKeyInput, optFns ...func(*kms.Options)) (*kms.DescribeKeyOutput, error)
}

var _ KMSAPI = (*kms.Client)(nil)

// Settings is the encryption applied by default to new objects.
// An empty KMSKeyARN means SSE-S3 (AES256).
type Settings struct {
	KMSKeyARN        string
	BucketKeyEnabled bool
}

// Default returns SSE-S3 settings.
func Default() Settings {
	return Settings{}
}

// WithKMSKey resolves keyID (id, alias or ARN) to its ARN and checks the
// key is enabled for encrypt/decrypt.
func WithKMSKey(ctx context.Context, client KMSAPI, keyID string) (Settings, error) {
	out, err := client.DescribeKey(ctx, &kms.DescribeKeyInput{KeyId: aws.String(keyID)})
	if err != nil {
		return Settings{}, fmt.Errorf("describe kms key %s: %w", keyID, err)
	}
	meta := out.KeyMetadata
	if meta == nil {
		return Settings{}, fmt.Errorf("describe kms key %s: no metadata", keyID)
	}
	if meta.KeyState != kmstypes.KeyStateEnabled {
		return Settings{}, fmt.Errorf("%w: %s is %s", ErrKeyUnusable, keyID, meta.KeyState)
	}
	if meta.KeyUsage != kmstypes.KeyUsageTypeEncryptDecrypt {
		return Settings{}, fmt.Errorf("%w: %s has usage %s", ErrKeyUnusable, keyID, meta.KeyUsage)
	}

	return Settings{
		KMSKeyARN:        aws.ToString(meta.Arn),
		BucketKeyEnabled: true,
	}, nil
}

// Algorithm names the SSE algorithm in effect.
func (s Settings) Algorithm() s3types.ServerSideEncryption {
	if s.KMSKeyARN != "" {
		return s3types.ServerSideEncryptionAwsKms
	}
	return s3types.ServerSideEncryptionAes256
}

// Configuration returns the PutBucketEncryption payload.
func (s Settings) Configuration() *s3types.ServerSideEncryptionConfiguration {
	rule := s3types.ServerSideEncryptionRule{
		ApplyServerSideEncryptionByDefault: &s3types.ServerSideEncryptionByDefault{
			SSEAlgorithm: s.Algorithm(),
		},
	}
	if s.KMSKeyARN != "" {
		rule.ApplyServerSideEncryptionByDefault.KMSMasterKeyID = aws.String(s.KMSKeyARN)
		rule.BucketKeyEnabled = aws.Bool(s.BucketKeyEnabled)
	}
	return &s3types.ServerSideEncryptionConfiguration{
		Rules: []s3types.ServerSideEncryptionRule{rule},
	}
}

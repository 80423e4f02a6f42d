// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package identity resolves the account the caller's credentials belong to.
package identity

import (
	"context"
	"fmt"

	"github.com/LeeDigitalWorks/clusterbucket/pkg/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/arn"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// STSAPI is the subset of STS used here.
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

var _ STSAPI = (*sts.Client)(nil)

// Caller describes the identity behind the configured credentials.
type Caller struct {
	AccountID string
	ARN       string
	Partition string
}

// Resolve calls GetCallerIdentity. The partition is taken from the caller ARN.
func Resolve(ctx context.Context, client STSAPI) (Caller, error) {
	out, err := client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return Caller{}, fmt.Errorf("get caller identity: %w", err)
	}

	c := Caller{
		AccountID: aws.ToString(out.Account),
		ARN:       aws.ToString(out.Arn),
	}
	if c.AccountID == "" {
		return Caller{}, fmt.Errorf("get caller identity: empty account id")
	}
	if parsed, err := arn.Parse(c.ARN); err == nil {
		c.Partition = parsed.Partition
	}

	logger.Debug().
		Str("account", c.AccountID).
		Str("partition", c.Partition).
		Msg("Resolved caller identity")

	return c, nil
}

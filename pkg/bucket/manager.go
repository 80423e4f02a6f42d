// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package bucket manages the lifecycle of the cluster artifact bucket:
// creation, configuration, artifact upload and bootstrap detection.
package bucket

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/LeeDigitalWorks/clusterbucket/pkg/encryption"
	"github.com/LeeDigitalWorks/clusterbucket/pkg/logger"
	"github.com/LeeDigitalWorks/clusterbucket/pkg/partition"
	"github.com/LeeDigitalWorks/clusterbucket/pkg/policy"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
)

// Status is the provisioning state of the bucket as seen by the manager.
type Status int

const (
	StatusUnmanaged Status = iota
	StatusCreating
	StatusCreated
	StatusConfiguring
	StatusConfigured
	StatusBootstrapped
)

func (s Status) String() string {
	switch s {
	case StatusUnmanaged:
		return "unmanaged"
	case StatusCreating:
		return "creating"
	case StatusCreated:
		return "created"
	case StatusConfiguring:
		return "configuring"
	case StatusConfigured:
		return "configured"
	case StatusBootstrapped:
		return "bootstrapped"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// ExistingBucketPolicy decides what CreateBucket does when the bucket is
// already owned by the caller.
type ExistingBucketPolicy int

const (
	// ReuseOwned treats BucketAlreadyOwnedByYou as success.
	ReuseOwned ExistingBucketPolicy = iota
	// FailIfExists returns BucketAlreadyOwnedByYou to the caller.
	FailIfExists
)

// Options carries the account context. Nothing here is read from the
// process environment.
type Options struct {
	Region string
	// Partition defaults to the partition of Region.
	Partition string
	// AccountID is needed to derive a bucket name and to generate the policy.
	AccountID      string
	Encryption     encryption.Settings
	ExistingBucket ExistingBucketPolicy
}

// Manager drives one bucket through its lifecycle.
type Manager struct {
	api  API
	desc Descriptor
	opts Options

	mu sync.Mutex
	// settled is the furthest state a finished operation reached.
	settled Status
	// running counts in-flight operations per transitional state.
	running [StatusBootstrapped + 1]int
}

// New validates the descriptor and resolves the bucket name.
func New(api API, desc Descriptor, opts Options) (*Manager, error) {
	if api == nil {
		return nil, errors.New("s3 client cannot be nil")
	}
	if opts.Region == "" {
		return nil, fmt.Errorf("%w: region is required", ErrInvalidDescriptor)
	}
	if err := desc.validate(); err != nil {
		return nil, err
	}
	if opts.Partition == "" {
		opts.Partition = partition.ForRegion(opts.Region).ID
	}
	if desc.Name == "" {
		if opts.AccountID == "" {
			return nil, fmt.Errorf("%w: account id is required to derive the bucket name", ErrInvalidDescriptor)
		}
		desc.Name = DeriveName(opts.AccountID, opts.Region)
	}

	return &Manager{
		api:  api,
		desc: desc,
		opts: opts,
	}, nil
}

// Name returns the bucket name.
func (m *Manager) Name() string {
	return m.desc.Name
}

// Descriptor returns the resolved descriptor.
func (m *Manager) Descriptor() Descriptor {
	return m.desc
}

// Status returns the furthest lifecycle state reached, or the state of an
// operation still in flight when that is further along.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.settled
	for st := StatusBootstrapped; st > s; st-- {
		if m.running[st] > 0 {
			return st
		}
	}
	return s
}

// begin records an operation entering the transitional state s. The returned
// function ends it; passing StatusUnmanaged leaves the settled state untouched.
func (m *Manager) begin(s Status) func(reached Status) {
	m.mu.Lock()
	m.running[s]++
	m.mu.Unlock()
	return func(reached Status) {
		m.mu.Lock()
		m.running[s]--
		if reached > m.settled {
			m.settled = reached
		}
		m.mu.Unlock()
	}
}

// settle records a state reached without a transitional phase.
func (m *Manager) settle(reached Status) {
	m.mu.Lock()
	if reached > m.settled {
		m.settled = reached
	}
	m.mu.Unlock()
}

// log returns the logger carried by ctx, tagged with the bucket name.
func (m *Manager) log(ctx context.Context) *zerolog.Logger {
	l := logger.Ctx(ctx).With().Str("bucket", m.desc.Name).Logger()
	return &l
}

// PolicyParams returns the inputs of the bucket policy.
func (m *Manager) PolicyParams() policy.Params {
	return policy.Params{
		Partition:  m.opts.Partition,
		Region:     m.opts.Region,
		AccountID:  m.opts.AccountID,
		BucketName: m.desc.Name,
	}
}

// CreateBucket creates the bucket in the configured region. us-east-1 takes
// no location constraint; every other region names itself.
func (m *Manager) CreateBucket(ctx context.Context) error {
	done := m.begin(StatusCreating)

	input := &s3.CreateBucketInput{
		Bucket: aws.String(m.desc.Name),
	}
	if m.opts.Region != partition.DefaultRegion {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(m.opts.Region),
		}
	}

	log := m.log(ctx).With().Str("region", m.opts.Region).Logger()

	_, err := m.api.CreateBucket(ctx, input)
	if err != nil {
		te := transportError("CreateBucket", err)
		if te.Code == codeBucketAlreadyOwnedByYou && m.opts.ExistingBucket == ReuseOwned {
			observe("CreateBucket", nil)
			log.Info().Msg("Bucket already owned by this account, reusing")
			done(StatusCreated)
			return nil
		}
		observe("CreateBucket", te)
		done(StatusUnmanaged)
		return te
	}

	observe("CreateBucket", nil)
	done(StatusCreated)
	log.Info().Msg("Bucket created")
	return nil
}

// CheckBucketExists returns nil when the bucket exists and is reachable.
// A missing bucket yields an error matching ErrNotFound.
func (m *Manager) CheckBucketExists(ctx context.Context) error {
	_, err := m.api.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(m.desc.Name),
	})
	if err != nil {
		te := transportError("HeadBucket", err)
		observe("HeadBucket", te)
		return te
	}
	observe("HeadBucket", nil)
	return nil
}

// ConfigureBucket enables versioning, sets default encryption and attaches
// the generated policy, in that order. The first failure stops the sequence
// and is returned as-is; earlier steps are not rolled back.
func (m *Manager) ConfigureBucket(ctx context.Context) error {
	if m.opts.AccountID == "" {
		return fmt.Errorf("%w: account id is required to generate the bucket policy", ErrInvalidDescriptor)
	}
	doc, err := policy.Generate(m.PolicyParams()).JSON()
	if err != nil {
		return err
	}

	done := m.begin(StatusConfiguring)

	steps := []struct {
		name string
		run  func() error
	}{
		{"PutBucketVersioning", func() error {
			_, err := m.api.PutBucketVersioning(ctx, &s3.PutBucketVersioningInput{
				Bucket: aws.String(m.desc.Name),
				VersioningConfiguration: &types.VersioningConfiguration{
					Status: types.BucketVersioningStatusEnabled,
				},
			})
			return err
		}},
		{"PutBucketEncryption", func() error {
			_, err := m.api.PutBucketEncryption(ctx, &s3.PutBucketEncryptionInput{
				Bucket:                            aws.String(m.desc.Name),
				ServerSideEncryptionConfiguration: m.opts.Encryption.Configuration(),
			})
			return err
		}},
		{"PutBucketPolicy", func() error {
			_, err := m.api.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
				Bucket: aws.String(m.desc.Name),
				Policy: aws.String(doc),
			})
			return err
		}},
	}

	for _, step := range steps {
		if err := step.run(); err != nil {
			te := transportError(step.name, err)
			observe(step.name, te)
			done(StatusUnmanaged)
			m.log(ctx).Error().Err(te).Str("step", step.name).Msg("Bucket configuration failed")
			return te
		}
		observe(step.name, nil)
	}

	done(StatusConfigured)
	m.log(ctx).Info().
		Str("sse", string(m.opts.Encryption.Algorithm())).
		Msg("Bucket configured")
	return nil
}

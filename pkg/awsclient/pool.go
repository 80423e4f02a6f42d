// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package awsclient builds the S3, STS and KMS clients the bucket tooling
// talks to. Loaded SDK configurations are cached per endpoint, region,
// profile and access key so repeated commands reuse connections.
package awsclient

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/LeeDigitalWorks/clusterbucket/pkg/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// Config holds configuration for connecting to the storage provider.
type Config struct {
	// Region is required unless the shared config or profile supplies one.
	Region string

	// Endpoint overrides the service endpoint (LocalStack, MinIO). Empty for AWS.
	Endpoint string

	// Profile selects a shared config profile.
	Profile string

	// AccessKeyID and SecretAccessKey take precedence over the default chain.
	AccessKeyID     string
	SecretAccessKey string

	PathStyle bool
}

func (c *Config) cacheKey() string {
	return fmt.Sprintf("%s|%s|%s|%s", c.Endpoint, c.Region, c.Profile, c.AccessKeyID)
}

// Pool caches loaded SDK configurations.
type Pool struct {
	mu      sync.RWMutex
	configs map[string]aws.Config

	// Shared HTTP client for connection reuse
	httpClient *http.Client
}

// NewPool creates a new pool with the given request timeout and max idle connections.
func NewPool(timeout time.Duration, maxIdleConns int) *Pool {
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	if maxIdleConns == 0 {
		maxIdleConns = 32
	}

	return &Pool{
		configs: make(map[string]aws.Config),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        maxIdleConns,
				MaxIdleConnsPerHost: maxIdleConns,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// AWSConfig returns the SDK configuration for cfg, loading it on first use.
func (p *Pool) AWSConfig(ctx context.Context, cfg *Config) (aws.Config, error) {
	key := cfg.cacheKey()

	p.mu.RLock()
	awsCfg, exists := p.configs[key]
	p.mu.RUnlock()
	if exists {
		return awsCfg, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if awsCfg, exists := p.configs[key]; exists {
		return awsCfg, nil
	}

	awsCfg, err := p.load(ctx, cfg)
	if err != nil {
		return aws.Config{}, err
	}
	p.configs[key] = awsCfg

	logger.Debug().
		Str("endpoint", cfg.Endpoint).
		Str("region", awsCfg.Region).
		Str("profile", cfg.Profile).
		Msg("Loaded AWS configuration")

	return awsCfg, nil
}

func (p *Pool) load(ctx context.Context, cfg *Config) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithHTTPClient(p.httpClient),
	}
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	if awsCfg.Region == "" {
		return aws.Config{}, fmt.Errorf("load aws config: no region configured")
	}
	return awsCfg, nil
}

// S3 returns an S3 client for cfg.
func (p *Pool) S3(ctx context.Context, cfg *Config) (*s3.Client, error) {
	awsCfg, err := p.AWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	opts := []func(*s3.Options){
		func(o *s3.Options) {
			o.UsePathStyle = cfg.PathStyle
		},
	}
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	return s3.NewFromConfig(awsCfg, opts...), nil
}

// STS returns an STS client for cfg.
func (p *Pool) STS(ctx context.Context, cfg *Config) (*sts.Client, error) {
	awsCfg, err := p.AWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var opts []func(*sts.Options)
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *sts.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	return sts.NewFromConfig(awsCfg, opts...), nil
}

// KMS returns a KMS client for cfg.
func (p *Pool) KMS(ctx context.Context, cfg *Config) (*kms.Client, error) {
	awsCfg, err := p.AWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var opts []func(*kms.Options)
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *kms.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	return kms.NewFromConfig(awsCfg, opts...), nil
}

// Close drops cached configurations and idle connections.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.configs = make(map[string]aws.Config)
	p.httpClient.CloseIdleConnections()

	return nil
}

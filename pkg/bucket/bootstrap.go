// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package bucket

import (
	"bytes"
	"context"
	"errors"

	"github.com/LeeDigitalWorks/clusterbucket/pkg/bootstrap"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// CheckBucketIsBootstrapped reports whether the marker lists every required
// feature. With no arguments the default feature set is required; use
// HasFeatures to test an empty set literally.
func (m *Manager) CheckBucketIsBootstrapped(ctx context.Context, required ...string) (bool, error) {
	if len(required) == 0 {
		required = bootstrap.DefaultFeatures()
	}
	return m.HasFeatures(ctx, required)
}

// HasFeatures reports whether the marker lists every feature in required.
// An empty set is satisfied by any readable marker.
//
// A missing marker and a marker that cannot be parsed both count as not
// bootstrapped. Any other failure is returned.
func (m *Manager) HasFeatures(ctx context.Context, required []string) (bool, error) {
	key := m.desc.MarkerKey()

	_, err := m.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(m.desc.Name),
		Key:    aws.String(key),
	})
	if err != nil {
		te := transportError("HeadObject", err)
		observe("HeadObject", te)
		if te.NotFound() {
			m.log(ctx).Debug().Str("key", key).Msg("Bootstrap marker not found")
			return false, nil
		}
		return false, te
	}
	observe("HeadObject", nil)

	data, err := m.getObject(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	marker, err := bootstrap.Decode(data)
	if err != nil {
		m.log(ctx).Warn().Err(err).Str("key", key).Msg("Ignoring unreadable bootstrap marker")
		return false, nil
	}

	ok := marker.Covers(required...)
	if ok && len(required) > 0 {
		m.settle(StatusBootstrapped)
	}
	return ok, nil
}

// MarkBootstrapped rewrites the marker with the given features, or the
// default set when none are given.
func (m *Manager) MarkBootstrapped(ctx context.Context, features ...string) error {
	if len(features) == 0 {
		features = bootstrap.DefaultFeatures()
	}
	data, err := bootstrap.Encode(bootstrap.Marker{BootstrappedFeatures: features})
	if err != nil {
		return err
	}

	key := m.desc.MarkerKey()
	_, err = m.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.desc.Name),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		te := transportError("PutObject", err)
		observe("PutObject", te)
		return te
	}
	observe("PutObject", nil)

	m.settle(StatusBootstrapped)
	m.log(ctx).Info().Strs("features", features).Msg("Bucket marked as bootstrapped")
	return nil
}

// Bootstrap creates the bucket, and configures and marks it unless the
// marker already covers features. It reports whether configuration ran.
func (m *Manager) Bootstrap(ctx context.Context, features ...string) (bool, error) {
	if len(features) == 0 {
		features = bootstrap.DefaultFeatures()
	}
	if err := m.CreateBucket(ctx); err != nil {
		return false, err
	}
	done, err := m.CheckBucketIsBootstrapped(ctx, features...)
	if err != nil {
		return false, err
	}
	if done {
		m.log(ctx).Info().Msg("Bucket already bootstrapped")
		return false, nil
	}
	if err := m.ConfigureBucket(ctx); err != nil {
		return false, err
	}
	if err := m.MarkBootstrapped(ctx, features...); err != nil {
		return true, err
	}
	return true, nil
}

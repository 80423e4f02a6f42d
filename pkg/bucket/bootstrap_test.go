// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package bucket

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const markerKey = "pcluster_artifact_directory/.bootstrapped"

func responseError(status int) error {
	return &smithyhttp.ResponseError{
		Response: &smithyhttp.Response{Response: &http.Response{StatusCode: status}},
		Err:      errors.New(http.StatusText(status)),
	}
}

func TestCheckBucketIsBootstrapped(t *testing.T) {
	t.Parallel()

	forbidden := &smithy.GenericAPIError{Code: "AccessDenied", Message: "Forbidden"}

	tests := []struct {
		name     string
		required []string
		headErr  error
		body     string
		getErr   error
		want     bool
		wantErr  error
	}{
		{name: "all features", body: `{"bootstrapped_features": ["basic", "export-logs"]}`, want: true},
		{name: "explicit required set", required: []string{"basic", "export-logs"}, body: `{"bootstrapped_features": ["basic", "export-logs"]}`, want: true},
		{name: "missing feature", body: `{"bootstrapped_features": ["basic"]}`, want: false},
		{name: "subset required", required: []string{"basic"}, body: `{"bootstrapped_features": ["basic"]}`, want: true},
		{name: "legacy text", body: "bucket is configured successfully.", want: false},
		{name: "invalid json", body: "{invalid json}", want: false},
		{name: "wrong shape", body: `{"bootstrapped_features": "basic"}`, want: false},
		{name: "not found code", headErr: &types.NotFound{}, want: false},
		{name: "404 status", headErr: responseError(http.StatusNotFound), want: false},
		{name: "no such key on read", getErr: &types.NoSuchKey{}, want: false},
		{name: "forbidden", headErr: forbidden, wantErr: forbidden},
		{name: "forbidden on read", getErr: forbidden, wantErr: forbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, api := newTestManager(t, "us-east-1")

			if tt.headErr != nil {
				api.On("HeadObject", testBucket, markerKey).Return(nil, tt.headErr)
			} else {
				api.On("HeadObject", testBucket, markerKey).Return(&s3.HeadObjectOutput{}, nil)
				if tt.getErr != nil {
					api.On("GetObject", testBucket, markerKey).Return(nil, tt.getErr)
				} else {
					api.On("GetObject", testBucket, markerKey).Return(objectBody(tt.body), nil)
				}
			}

			got, err := m.CheckBucketIsBootstrapped(context.Background(), tt.required...)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.False(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if tt.want {
				assert.Equal(t, StatusBootstrapped, m.Status())
			}
		})
	}
}

func TestMarkBootstrapped(t *testing.T) {
	t.Parallel()

	m, api := newTestManager(t, "us-east-1")
	api.On("PutObject", testBucket, markerKey, `{"bootstrapped_features":["basic","export-logs"]}`).
		Return(&s3.PutObjectOutput{}, nil).Once()

	require.NoError(t, m.MarkBootstrapped(context.Background()))
	assert.Equal(t, StatusBootstrapped, m.Status())
	api.AssertExpectations(t)
}

func TestBootstrap(t *testing.T) {
	t.Parallel()

	t.Run("fresh bucket", func(t *testing.T) {
		t.Parallel()
		m, api := newTestManager(t, "eu-west-1")
		api.On("CreateBucket", testBucket, "eu-west-1").Return(&s3.CreateBucketOutput{}, nil)
		api.On("HeadObject", testBucket, markerKey).Return(nil, &types.NotFound{})
		api.On("PutBucketVersioning", testBucket, "Enabled").Return(&s3.PutBucketVersioningOutput{}, nil)
		api.On("PutBucketEncryption", testBucket, "AES256").Return(&s3.PutBucketEncryptionOutput{}, nil)
		api.On("PutBucketPolicy", testBucket, mock.Anything).Return(&s3.PutBucketPolicyOutput{}, nil)
		api.On("PutObject", testBucket, markerKey, mock.Anything).Return(&s3.PutObjectOutput{}, nil)

		configured, err := m.Bootstrap(context.Background())
		require.NoError(t, err)
		assert.True(t, configured)
		assert.Equal(t, StatusBootstrapped, m.Status())
		api.AssertExpectations(t)
	})

	t.Run("already bootstrapped", func(t *testing.T) {
		t.Parallel()
		m, api := newTestManager(t, "us-east-1")
		api.On("CreateBucket", testBucket, "").
			Return(nil, &smithy.GenericAPIError{Code: codeBucketAlreadyOwnedByYou})
		api.On("HeadObject", testBucket, markerKey).Return(&s3.HeadObjectOutput{}, nil)
		api.On("GetObject", testBucket, markerKey).
			Return(objectBody(`{"bootstrapped_features": ["basic", "export-logs"]}`), nil)

		configured, err := m.Bootstrap(context.Background())
		require.NoError(t, err)
		assert.False(t, configured)
		api.AssertNotCalled(t, "PutBucketVersioning", mock.Anything, mock.Anything)
	})
}

func TestHasFeatures_EmptySet(t *testing.T) {
	t.Parallel()

	m, api := newTestManager(t, "us-east-1")
	api.On("HeadObject", testBucket, markerKey).Return(&s3.HeadObjectOutput{}, nil)
	api.On("GetObject", testBucket, markerKey).Return(objectBody(`{"bootstrapped_features": []}`), nil).Once()
	api.On("GetObject", testBucket, markerKey).Return(objectBody(`{"bootstrapped_features": []}`), nil).Once()

	ok, err := m.HasFeatures(context.Background(), []string{})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, StatusUnmanaged, m.Status())

	ok, err = m.CheckBucketIsBootstrapped(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasFeatures_EmptySetWithoutMarker(t *testing.T) {
	t.Parallel()

	m, api := newTestManager(t, "us-east-1")
	api.On("HeadObject", testBucket, markerKey).Return(nil, &types.NotFound{})

	ok, err := m.HasFeatures(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

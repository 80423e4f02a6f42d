// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package bucket

import (
	"context"
	"fmt"
	"testing"

	"github.com/LeeDigitalWorks/clusterbucket/pkg/content"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		format content.Format
		body   any
		want   string
	}{
		{name: "yaml", format: content.FormatYAML, body: map[string]any{"Test": "Content"}, want: "Test: Content\n"},
		{name: "json", format: content.FormatJSON, body: map[string]any{"Test": "Content", "A": 1}, want: `{"A": 1, "Test": "Content"}`},
		{name: "minified json", format: content.FormatMinifiedJSON, body: map[string]any{"Test": "Content", "A": 1}, want: `{"A":1,"Test":"Content"}`},
		{name: "pass through", format: content.FormatNone, body: "raw body", want: "raw body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, api := newTestManager(t, "us-east-1")
			api.On("PutObject", testBucket, "pcluster_artifact_directory/assets/test_file_name", tt.want).
				Return(&s3.PutObjectOutput{}, nil).Once()

			require.NoError(t, m.UploadFile(context.Background(), tt.body, "test_file_name", FileTypeAssets, tt.format))
			api.AssertExpectations(t)
		})
	}
}

func TestUploadFile_Errors(t *testing.T) {
	t.Parallel()

	m, api := newTestManager(t, "us-east-1")

	err := m.UploadFile(context.Background(), 42, "f", FileTypeAssets, content.FormatNone)
	assert.ErrorIs(t, err, content.ErrUnsupportedContent)

	assert.Error(t, m.UploadFile(context.Background(), "x", "", FileTypeAssets, content.FormatNone))

	api.On("PutObject", testBucket, "pcluster_artifact_directory/configs/c.yaml", "x").
		Return(nil, &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"})
	err = m.UploadConfig(context.Background(), "x", "c.yaml", content.FormatNone)
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "PutObject", te.Function)
}

func TestUploadHelpers_Keys(t *testing.T) {
	t.Parallel()

	m, api := newTestManager(t, "us-east-1")
	for _, key := range []string{
		"pcluster_artifact_directory/templates/t.json",
		"pcluster_artifact_directory/configs/c.json",
		"pcluster_artifact_directory/custom_resources/r.json",
	} {
		api.On("PutObject", testBucket, key, "body").Return(&s3.PutObjectOutput{}, nil).Once()
	}

	ctx := context.Background()
	require.NoError(t, m.UploadTemplate(ctx, "body", "t.json", content.FormatNone))
	require.NoError(t, m.UploadConfig(ctx, "body", "c.json", content.FormatNone))
	require.NoError(t, m.UploadResource(ctx, "body", "r.json", content.FormatNone))
	api.AssertExpectations(t)
}

func TestURLs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		region string
		suffix string
	}{
		{region: "eu-west-1", suffix: "amazonaws.com"},
		{region: "us-gov-west-1", suffix: "amazonaws.com"},
		{region: "cn-north-1", suffix: "amazonaws.com.cn"},
		{region: "us-iso-east-1", suffix: "c2s.ic.gov"},
		{region: "us-isob-east-1", suffix: "sc2s.sgov.gov"},
	}

	for _, tt := range tests {
		t.Run(tt.region, func(t *testing.T) {
			t.Parallel()
			m, _ := newTestManager(t, tt.region)
			base := fmt.Sprintf("https://test-bucket.s3.%s.%s/pcluster_artifact_directory", tt.region, tt.suffix)

			assert.Equal(t, base+"/templates/file.yaml", m.TemplateURL("file.yaml"))
			assert.Equal(t, base+"/configs/file.yaml", m.ConfigURL("file.yaml"))
			assert.Equal(t, base+"/custom_resources/file.yaml", m.ResourceURL("file.yaml"))
			assert.Equal(t, base+"/assets/file.yaml", m.ObjectURL(FileTypeAssets, "file.yaml"))
		})
	}
}

func TestGetConfig(t *testing.T) {
	t.Parallel()

	m, api := newTestManager(t, "us-east-1")
	api.On("GetObject", testBucket, "pcluster_artifact_directory/configs/cluster.yaml").
		Return(objectBody("Region: eu-west-1\nScheduling:\n  Scheduler: slurm\n"), nil)

	cfg, err := m.GetConfig(context.Background(), "cluster.yaml", content.FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", cfg["Region"])
	assert.Equal(t, map[string]any{"Scheduler": "slurm"}, cfg["Scheduling"])
}

func TestGetObject_NotFound(t *testing.T) {
	t.Parallel()

	m, api := newTestManager(t, "us-east-1")
	api.On("GetObject", testBucket, "pcluster_artifact_directory/assets/missing").
		Return(nil, &types.NoSuchKey{Message: aws.String("The specified key does not exist.")})

	_, err := m.GetObject(context.Background(), "missing", FileTypeAssets)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteArtifacts(t *testing.T) {
	t.Parallel()

	m, api := newTestManager(t, "us-east-1")
	prefix := "pcluster_artifact_directory/"

	versions := make([]types.ObjectVersion, 0, 1200)
	for i := range 1200 {
		versions = append(versions, types.ObjectVersion{
			Key:       aws.String(fmt.Sprintf("%sassets/%04d", prefix, i)),
			VersionId: aws.String("v1"),
		})
	}

	api.On("ListObjectVersions", prefix, "").Return(&s3.ListObjectVersionsOutput{
		Versions:            versions,
		IsTruncated:         aws.Bool(true),
		NextKeyMarker:       aws.String("pcluster_artifact_directory/assets/1199"),
		NextVersionIdMarker: aws.String("v1"),
	}, nil).Once()
	api.On("ListObjectVersions", prefix, "pcluster_artifact_directory/assets/1199").Return(&s3.ListObjectVersionsOutput{
		DeleteMarkers: []types.DeleteMarkerEntry{
			{Key: aws.String(prefix + ".bootstrapped"), VersionId: aws.String("dm1")},
		},
		IsTruncated: aws.Bool(false),
	}, nil).Once()

	api.On("DeleteObjects", testBucket, 1000).Return(&s3.DeleteObjectsOutput{}, nil).Once()
	api.On("DeleteObjects", testBucket, 200).Return(&s3.DeleteObjectsOutput{}, nil).Once()
	api.On("DeleteObjects", testBucket, 1).Return(&s3.DeleteObjectsOutput{}, nil).Once()

	n, err := m.DeleteArtifacts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1201, n)
	api.AssertExpectations(t)
}

func TestDeleteArtifacts_PartialFailure(t *testing.T) {
	t.Parallel()

	m, api := newTestManager(t, "us-east-1")
	api.On("ListObjectVersions", "pcluster_artifact_directory/", "").Return(&s3.ListObjectVersionsOutput{
		Versions: []types.ObjectVersion{{Key: aws.String("pcluster_artifact_directory/a"), VersionId: aws.String("v1")}},
	}, nil)
	api.On("DeleteObjects", testBucket, 1).Return(&s3.DeleteObjectsOutput{
		Errors: []types.Error{{Key: aws.String("pcluster_artifact_directory/a"), Code: aws.String("AccessDenied"), Message: aws.String("denied")}},
	}, nil)

	n, err := m.DeleteArtifacts(context.Background())
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "AccessDenied", te.Code)
	assert.Zero(t, n)
}

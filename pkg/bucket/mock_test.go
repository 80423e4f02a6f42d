// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package bucket

import (
	"context"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/mock"
)

// mockAPI records calls with flattened arguments so expectations read as
// plain values.
type mockAPI struct {
	mock.Mock
}

var _ API = (*mockAPI)(nil)

func result[T any](args mock.Arguments) (*T, error) {
	if v := args.Get(0); v != nil {
		return v.(*T), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAPI) CreateBucket(_ context.Context, in *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	constraint := ""
	if in.CreateBucketConfiguration != nil {
		constraint = string(in.CreateBucketConfiguration.LocationConstraint)
	}
	return result[s3.CreateBucketOutput](m.Called(aws.ToString(in.Bucket), constraint))
}

func (m *mockAPI) HeadBucket(_ context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return result[s3.HeadBucketOutput](m.Called(aws.ToString(in.Bucket)))
}

func (m *mockAPI) PutBucketVersioning(_ context.Context, in *s3.PutBucketVersioningInput, _ ...func(*s3.Options)) (*s3.PutBucketVersioningOutput, error) {
	return result[s3.PutBucketVersioningOutput](m.Called(aws.ToString(in.Bucket), string(in.VersioningConfiguration.Status)))
}

func (m *mockAPI) PutBucketEncryption(_ context.Context, in *s3.PutBucketEncryptionInput, _ ...func(*s3.Options)) (*s3.PutBucketEncryptionOutput, error) {
	algorithm := string(in.ServerSideEncryptionConfiguration.Rules[0].ApplyServerSideEncryptionByDefault.SSEAlgorithm)
	return result[s3.PutBucketEncryptionOutput](m.Called(aws.ToString(in.Bucket), algorithm))
}

func (m *mockAPI) PutBucketPolicy(_ context.Context, in *s3.PutBucketPolicyInput, _ ...func(*s3.Options)) (*s3.PutBucketPolicyOutput, error) {
	return result[s3.PutBucketPolicyOutput](m.Called(aws.ToString(in.Bucket), aws.ToString(in.Policy)))
}

func (m *mockAPI) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	return result[s3.PutObjectOutput](m.Called(aws.ToString(in.Bucket), aws.ToString(in.Key), string(body)))
}

func (m *mockAPI) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	return result[s3.HeadObjectOutput](m.Called(aws.ToString(in.Bucket), aws.ToString(in.Key)))
}

func (m *mockAPI) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return result[s3.GetObjectOutput](m.Called(aws.ToString(in.Bucket), aws.ToString(in.Key)))
}

func (m *mockAPI) ListObjectVersions(_ context.Context, in *s3.ListObjectVersionsInput, _ ...func(*s3.Options)) (*s3.ListObjectVersionsOutput, error) {
	return result[s3.ListObjectVersionsOutput](m.Called(aws.ToString(in.Prefix), aws.ToString(in.KeyMarker)))
}

func (m *mockAPI) DeleteObjects(_ context.Context, in *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	return result[s3.DeleteObjectsOutput](m.Called(aws.ToString(in.Bucket), len(in.Delete.Objects)))
}

func objectBody(s string) *s3.GetObjectOutput {
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(s))}
}

// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package bucket

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/LeeDigitalWorks/clusterbucket/pkg/content"
	"github.com/LeeDigitalWorks/clusterbucket/pkg/partition"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dustin/go-humanize"
)

// maxDeleteObjects is the per-request limit of DeleteObjects.
const maxDeleteObjects = 1000

var contentTypes = map[content.Format]string{
	content.FormatNone:         "application/octet-stream",
	content.FormatYAML:         "application/x-yaml",
	content.FormatJSON:         "application/json",
	content.FormatMinifiedJSON: "application/json",
}

// UploadFile renders content in format f and stores it at
// {artifact_directory}/{ft}/{name} with a single PutObject.
func (m *Manager) UploadFile(ctx context.Context, body any, name string, ft FileType, f content.Format) error {
	if name == "" {
		return errors.New("file name is required")
	}
	data, err := content.Encode(body, f)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	key := m.desc.ObjectKey(ft, name)
	input := &s3.PutObjectInput{
		Bucket:        aws.String(m.desc.Name),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentTypes[f]),
	}
	if md := m.metadata(); len(md) > 0 {
		input.Metadata = md
	}

	if _, err := m.api.PutObject(ctx, input); err != nil {
		te := transportError("PutObject", err)
		observe("PutObject", te)
		return te
	}
	observe("PutObject", nil)
	UploadedBytes.Add(float64(len(data)))

	m.log(ctx).Debug().
		Str("key", key).
		Str("size", humanize.Bytes(uint64(len(data)))).
		Msg("Uploaded artifact")
	return nil
}

func (m *Manager) metadata() map[string]string {
	md := map[string]string{}
	if m.desc.StackName != "" {
		md["stack-name"] = m.desc.StackName
	}
	if m.desc.ServiceName != "" {
		md["service-name"] = m.desc.ServiceName
	}
	return md
}

// UploadTemplate stores a stack template under templates/.
func (m *Manager) UploadTemplate(ctx context.Context, body any, name string, f content.Format) error {
	return m.UploadFile(ctx, body, name, FileTypeTemplates, f)
}

// UploadConfig stores a configuration file under configs/.
func (m *Manager) UploadConfig(ctx context.Context, body any, name string, f content.Format) error {
	return m.UploadFile(ctx, body, name, FileTypeConfigs, f)
}

// UploadResource stores a custom resource under custom_resources/.
func (m *Manager) UploadResource(ctx context.Context, body any, name string, f content.Format) error {
	return m.UploadFile(ctx, body, name, FileTypeCustomResources, f)
}

// ObjectURL returns the HTTPS URL of an artifact.
func (m *Manager) ObjectURL(ft FileType, name string) string {
	return partition.ObjectURL(m.opts.Region, m.desc.Name, m.desc.ObjectKey(ft, name))
}

func (m *Manager) TemplateURL(name string) string {
	return m.ObjectURL(FileTypeTemplates, name)
}

func (m *Manager) ConfigURL(name string) string {
	return m.ObjectURL(FileTypeConfigs, name)
}

func (m *Manager) ResourceURL(name string) string {
	return m.ObjectURL(FileTypeCustomResources, name)
}

// GetObject downloads an artifact. A missing object matches ErrNotFound.
func (m *Manager) GetObject(ctx context.Context, name string, ft FileType) ([]byte, error) {
	return m.getObject(ctx, m.desc.ObjectKey(ft, name))
}

func (m *Manager) getObject(ctx context.Context, key string) ([]byte, error) {
	out, err := m.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.desc.Name),
		Key:    aws.String(key),
	})
	if err != nil {
		te := transportError("GetObject", err)
		observe("GetObject", te)
		return nil, te
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		observe("GetObject", err)
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	observe("GetObject", nil)
	return data, nil
}

// GetConfig downloads a file from configs/ and parses it.
func (m *Manager) GetConfig(ctx context.Context, name string, f content.Format) (map[string]any, error) {
	data, err := m.GetObject(ctx, name, FileTypeConfigs)
	if err != nil {
		return nil, err
	}
	return content.Decode(data, f)
}

// DeleteArtifacts removes every object version and delete marker under the
// artifact directory, including the bootstrap marker. It returns the number
// of entries deleted.
func (m *Manager) DeleteArtifacts(ctx context.Context) (int, error) {
	prefix := m.desc.directory() + "/"
	input := &s3.ListObjectVersionsInput{
		Bucket: aws.String(m.desc.Name),
		Prefix: aws.String(prefix),
	}

	var pending []types.ObjectIdentifier
	deleted := 0

	flush := func() error {
		for len(pending) > 0 {
			n := min(len(pending), maxDeleteObjects)
			batch := pending[:n]
			pending = pending[n:]
			if err := m.deleteBatch(ctx, batch); err != nil {
				return err
			}
			deleted += len(batch)
		}
		return nil
	}

	for {
		out, err := m.api.ListObjectVersions(ctx, input)
		if err != nil {
			te := transportError("ListObjectVersions", err)
			observe("ListObjectVersions", te)
			return deleted, te
		}
		observe("ListObjectVersions", nil)

		for _, v := range out.Versions {
			pending = append(pending, types.ObjectIdentifier{Key: v.Key, VersionId: v.VersionId})
		}
		for _, dm := range out.DeleteMarkers {
			pending = append(pending, types.ObjectIdentifier{Key: dm.Key, VersionId: dm.VersionId})
		}
		if err := flush(); err != nil {
			return deleted, err
		}

		if !aws.ToBool(out.IsTruncated) {
			break
		}
		input.KeyMarker = out.NextKeyMarker
		input.VersionIdMarker = out.NextVersionIdMarker
	}

	m.log(ctx).Info().
		Str("prefix", prefix).
		Int("deleted", deleted).
		Msg("Deleted artifacts")
	return deleted, nil
}

func (m *Manager) deleteBatch(ctx context.Context, batch []types.ObjectIdentifier) error {
	out, err := m.api.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(m.desc.Name),
		Delete: &types.Delete{
			Objects: batch,
			Quiet:   aws.Bool(true),
		},
	})
	if err != nil {
		te := transportError("DeleteObjects", err)
		observe("DeleteObjects", te)
		return te
	}
	if len(out.Errors) > 0 {
		first := out.Errors[0]
		te := &TransportError{
			Function: "DeleteObjects",
			Code:     aws.ToString(first.Code),
			Message:  fmt.Sprintf("%d of %d deletions failed, first %s: %s", len(out.Errors), len(batch), aws.ToString(first.Key), aws.ToString(first.Message)),
		}
		observe("DeleteObjects", te)
		return te
	}
	observe("DeleteObjects", nil)
	return nil
}

// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package bucket

import (
	"fmt"
	"strings"

	"github.com/LeeDigitalWorks/clusterbucket/pkg/bootstrap"

	"github.com/google/uuid"
)

// FileType is the artifact category, used as the folder under the artifact
// directory.
type FileType string

const (
	FileTypeAssets          FileType = "assets"
	FileTypeTemplates       FileType = "templates"
	FileTypeConfigs         FileType = "configs"
	FileTypeCustomResources FileType = "custom_resources"
)

// ParseFileType accepts the folder name of a category.
func ParseFileType(s string) (FileType, error) {
	switch ft := FileType(strings.ToLower(strings.TrimSpace(s))); ft {
	case FileTypeAssets, FileTypeTemplates, FileTypeConfigs, FileTypeCustomResources:
		return ft, nil
	default:
		return "", fmt.Errorf("unknown file type %q", s)
	}
}

// nameNamespace seeds the name-based UUIDs used for derived bucket names.
var nameNamespace = uuid.NewSHA1(uuid.NameSpaceDNS, []byte("clusterbucket"))

// DeriveName returns the bucket name used when none is configured. It is a
// pure function of account and region so every run targets the same bucket.
func DeriveName(accountID, region string) string {
	id := uuid.NewSHA1(nameNamespace, []byte(accountID+"/"+region))
	hex := strings.ReplaceAll(id.String(), "-", "")
	return "clusterbucket-" + hex[:16] + "-v1-do-not-delete"
}

// Descriptor identifies the bucket and the artifact directory a stack owns.
type Descriptor struct {
	Name              string
	StackName         string
	ServiceName       string
	ArtifactDirectory string
}

func (d Descriptor) validate() error {
	if strings.Trim(d.ArtifactDirectory, "/") == "" {
		return fmt.Errorf("%w: artifact directory is required", ErrInvalidDescriptor)
	}
	return nil
}

func (d Descriptor) directory() string {
	return strings.Trim(d.ArtifactDirectory, "/")
}

// ObjectKey returns {artifact_directory}/{category}/{name}.
func (d Descriptor) ObjectKey(ft FileType, name string) string {
	return d.directory() + "/" + string(ft) + "/" + name
}

// MarkerKey is the location of the bootstrap marker.
func (d Descriptor) MarkerKey() string {
	return d.directory() + "/" + bootstrap.FileName
}

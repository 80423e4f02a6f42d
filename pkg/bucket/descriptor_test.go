// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package bucket

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveName(t *testing.T) {
	t.Parallel()

	name := DeriveName(testAccount, "eu-west-1")
	assert.Regexp(t, regexp.MustCompile(`^clusterbucket-[0-9a-f]{16}-v1-do-not-delete$`), name)
	assert.LessOrEqual(t, len(name), 63)

	assert.Equal(t, name, DeriveName(testAccount, "eu-west-1"))
	assert.NotEqual(t, name, DeriveName(testAccount, "us-east-1"))
	assert.NotEqual(t, name, DeriveName("210987654321", "eu-west-1"))
}

func TestParseFileType(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"assets", "templates", "configs", "custom_resources", " Configs "} {
		_, err := ParseFileType(s)
		assert.NoError(t, err, s)
	}

	ft, err := ParseFileType("custom_resources")
	require.NoError(t, err)
	assert.Equal(t, FileTypeCustomResources, ft)

	_, err = ParseFileType("logs")
	assert.Error(t, err)
}

func TestDescriptor_Keys(t *testing.T) {
	t.Parallel()

	d := Descriptor{Name: testBucket, ArtifactDirectory: "/" + testDirectory + "/"}
	assert.Equal(t, "pcluster_artifact_directory/assets/test_file_name", d.ObjectKey(FileTypeAssets, "test_file_name"))
	assert.Equal(t, "pcluster_artifact_directory/.bootstrapped", d.MarkerKey())
}

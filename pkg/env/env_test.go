// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package env

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet(t *testing.T) {
	prev := Current()
	t.Cleanup(func() { _ = Set(string(prev)) })

	require.NoError(t, Set("Production"))
	assert.True(t, IsProduction())
	assert.False(t, IsLocal())

	assert.Error(t, Set("staging"))
	assert.True(t, IsProduction())
}

func TestLoad(t *testing.T) {
	prev := Current()
	t.Cleanup(func() {
		viper.Set("env", "")
		_ = Set(string(prev))
	})

	viper.Set("env", "testing")
	require.NoError(t, Load())
	assert.True(t, IsTesting())

	viper.Set("env", "")
	require.NoError(t, Load())
	assert.True(t, IsTesting())
}

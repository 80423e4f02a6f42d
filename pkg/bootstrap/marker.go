// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package bootstrap encodes the marker object that records which bucket
// features have already been configured.
package bootstrap

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

const (
	FeatureBasic      = "basic"
	FeatureExportLogs = "export-logs"

	// FileName is the marker object name under the artifact directory.
	FileName = ".bootstrapped"

	featuresKey = "bootstrapped_features"
)

// ErrMalformed is returned for any marker body that is not a JSON object
// carrying a string array under "bootstrapped_features".
var ErrMalformed = errors.New("malformed bootstrap marker")

// DefaultFeatures is the feature set a fully configured bucket carries.
func DefaultFeatures() []string {
	return []string{FeatureBasic, FeatureExportLogs}
}

// Marker is the decoded marker document.
type Marker struct {
	BootstrappedFeatures []string `json:"bootstrapped_features"`
}

// Covers reports whether every required feature has been bootstrapped.
func (m Marker) Covers(required ...string) bool {
	for _, f := range required {
		if !slices.Contains(m.BootstrappedFeatures, f) {
			return false
		}
	}
	return true
}

// Decode validates and parses a marker body.
func Decode(data []byte) (Marker, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return Marker{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if doc == nil {
		return Marker{}, fmt.Errorf("%w: not an object", ErrMalformed)
	}
	raw, ok := doc[featuresKey]
	if !ok {
		return Marker{}, fmt.Errorf("%w: missing %q", ErrMalformed, featuresKey)
	}
	var features []string
	if err := json.Unmarshal(raw, &features); err != nil || features == nil {
		return Marker{}, fmt.Errorf("%w: %q must be an array of strings", ErrMalformed, featuresKey)
	}
	return Marker{BootstrappedFeatures: features}, nil
}

// Encode serializes a marker. Features are de-duplicated and sorted so the
// body is stable across rewrites.
func Encode(m Marker) ([]byte, error) {
	features := slices.Clone(m.BootstrappedFeatures)
	slices.Sort(features)
	features = slices.Compact(features)
	if features == nil {
		features = []string{}
	}
	b, err := json.Marshal(Marker{BootstrappedFeatures: features})
	if err != nil {
		return nil, fmt.Errorf("marshal bootstrap marker: %w", err)
	}
	return b, nil
}

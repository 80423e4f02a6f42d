// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"encoding/json"
	"fmt"
)

// Version is the policy language version written into every document.
const Version = "2012-10-17"

// Effect determines whether a statement allows or denies access
type Effect string

const (
	EffectAllow Effect = "Allow"
	EffectDeny  Effect = "Deny"
)

// Values is a policy field that may be written either as a single string or
// as an array. A single value marshals as a string.
type Values []string

// MarshalJSON writes one value as a string and anything else as an array.
func (v Values) MarshalJSON() ([]byte, error) {
	if len(v) == 1 {
		return json.Marshal(v[0])
	}
	return json.Marshal([]string(v))
}

// UnmarshalJSON accepts both "s3:GetObject" and ["s3:GetObject"].
func (v *Values) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = Values{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("expected string or string array: %w", err)
	}
	*v = list
	return nil
}

// Principal represents who the policy applies to. Wildcard encodes "*".
type Principal struct {
	Wildcard bool   `json:"-"`
	AWS      Values `json:"AWS,omitempty"`
	Service  Values `json:"Service,omitempty"`
}

// AnyPrincipal is the "*" principal.
func AnyPrincipal() *Principal {
	return &Principal{Wildcard: true}
}

// ServicePrincipal is {"Service": name}.
func ServicePrincipal(name string) *Principal {
	return &Principal{Service: Values{name}}
}

func (p Principal) MarshalJSON() ([]byte, error) {
	if p.Wildcard {
		return json.Marshal("*")
	}
	type alias Principal
	return json.Marshal(alias(p))
}

func (p *Principal) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		if str != "*" {
			return fmt.Errorf("unexpected principal %q", str)
		}
		*p = Principal{Wildcard: true}
		return nil
	}
	type alias Principal
	return json.Unmarshal(data, (*alias)(p))
}

// Condition maps an operator (StringEquals, ArnLike, Bool) to key/values.
type Condition map[string]map[string]Values

// Statement represents a single permission statement in a bucket policy
type Statement struct {
	Sid       string     `json:"Sid,omitempty"`
	Effect    Effect     `json:"Effect"`
	Principal *Principal `json:"Principal,omitempty"`
	Action    Values     `json:"Action"`
	Resource  Values     `json:"Resource,omitempty"`
	Condition Condition  `json:"Condition,omitempty"`
}

// Document is a complete bucket policy.
type Document struct {
	Version   string      `json:"Version"`
	Statement []Statement `json:"Statement"`
}

// JSON returns the minified document as sent to PutBucketPolicy.
func (d Document) JSON() (string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("marshal bucket policy: %w", err)
	}
	return string(b), nil
}

// Parse reads a policy document.
func Parse(data []byte) (Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return Document{}, fmt.Errorf("parse bucket policy: %w", err)
	}
	return d, nil
}

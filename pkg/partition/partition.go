// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package partition maps regions to their deployment partition and builds
// the partition-specific identifiers (URLs, ARNs, service principals).
package partition

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws/arn"
)

// Partition is a deployment realm with its own DNS suffix.
type Partition struct {
	ID           string
	DomainSuffix string
}

const (
	DefaultRegion = "us-east-1"
)

var (
	Standard = Partition{ID: "aws", DomainSuffix: "amazonaws.com"}
	China    = Partition{ID: "aws-cn", DomainSuffix: "amazonaws.com.cn"}
	GovCloud = Partition{ID: "aws-us-gov", DomainSuffix: "amazonaws.com"}
	ISO      = Partition{ID: "aws-iso", DomainSuffix: "c2s.ic.gov"}
	ISOB     = Partition{ID: "aws-iso-b", DomainSuffix: "sc2s.sgov.gov"}
)

var byID = map[string]Partition{
	Standard.ID: Standard,
	China.ID:    China,
	GovCloud.ID: GovCloud,
	ISO.ID:      ISO,
	ISOB.ID:     ISOB,
}

// ForRegion returns the partition a region belongs to. Unknown regions map
// to the standard partition.
func ForRegion(region string) Partition {
	switch {
	case strings.HasPrefix(region, "cn-"):
		return China
	case strings.HasPrefix(region, "us-isob-"):
		return ISOB
	case strings.HasPrefix(region, "us-iso-"):
		return ISO
	case strings.HasPrefix(region, "us-gov-"):
		return GovCloud
	default:
		return Standard
	}
}

// ByID looks up a partition by its identifier ("aws", "aws-cn", ...).
func ByID(id string) (Partition, bool) {
	p, ok := byID[id]
	return p, ok
}

// DomainSuffix returns the suffix for a partition identifier, falling back
// to the standard suffix for identifiers it does not know.
func DomainSuffix(id string) string {
	if p, ok := byID[id]; ok {
		return p.DomainSuffix
	}
	return Standard.DomainSuffix
}

// ObjectURL returns the virtual-hosted HTTPS URL of an object.
func ObjectURL(region, bucket, key string) string {
	return fmt.Sprintf("https://%s.s3.%s.%s/%s", bucket, region, ForRegion(region).DomainSuffix, key)
}

// FormatARN builds arn:{partition}:{service}:{region}:{account}:{resource}.
func FormatARN(partition, service, region, accountID, resource string) string {
	return arn.ARN{
		Partition: partition,
		Service:   service,
		Region:    region,
		AccountID: accountID,
		Resource:  resource,
	}.String()
}

// ServicePrincipal returns the principal of a service, e.g.
// "logs.eu-west-1.amazonaws.com" when regional is set.
func ServicePrincipal(service, partition, region string, regional bool) string {
	suffix := DomainSuffix(partition)
	if regional {
		return fmt.Sprintf("%s.%s.%s", service, region, suffix)
	}
	return fmt.Sprintf("%s.%s", service, suffix)
}

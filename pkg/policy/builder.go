// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package policy builds the bucket policy attached to the cluster bucket:
// a transport-security guard followed by the grants CloudWatch Logs needs to
// export log groups into the bucket.
package policy

import (
	"github.com/LeeDigitalWorks/clusterbucket/pkg/partition"
)

const (
	SidAllowSSLRequestsOnly            = "AllowSSLRequestsOnly"
	SidAllowReadBucketAclForExportLogs = "AllowReadBucketAclForExportLogs"
	SidAllowPutObjectForExportLogs     = "AllowPutObjectForExportLogs"
	SidDenyPutObjectOnReservedPath     = "DenyPutObjectOnReservedPath"

	ActionAll          = "s3:*"
	ActionGetBucketAcl = "s3:GetBucketAcl"
	ActionPutObject    = "s3:PutObject"

	// ReservedPath is the bucket prefix log exports may never write to.
	ReservedPath = "parallelcluster"

	logsService = "logs"
)

// LogGroupResources are the log-group patterns allowed to export into the bucket.
var LogGroupResources = []string{
	"log-group:/aws/parallelcluster/*",
	"log-group:/aws/imagebuilder/*",
}

// Params identifies the bucket a policy is generated for.
type Params struct {
	Partition  string
	Region     string
	AccountID  string
	BucketName string
}

// BucketARN returns arn:{partition}:s3:::{bucket}.
func (p Params) BucketARN() string {
	return partition.FormatARN(p.Partition, "s3", "", "", p.BucketName)
}

func (p Params) logGroupARNs() Values {
	arns := make(Values, 0, len(LogGroupResources))
	for _, res := range LogGroupResources {
		arns = append(arns, partition.FormatARN(p.Partition, logsService, p.Region, p.AccountID, res))
	}
	return arns
}

// DenyInsecureTransport forbids every action on the bucket and its objects
// unless the request uses TLS.
func DenyInsecureTransport(p Params) Statement {
	bucketARN := p.BucketARN()
	return Statement{
		Sid:       SidAllowSSLRequestsOnly,
		Effect:    EffectDeny,
		Principal: AnyPrincipal(),
		Action:    Values{ActionAll},
		Resource:  Values{bucketARN, bucketARN + "/*"},
		Condition: Condition{
			"Bool": {"aws:SecureTransport": Values{"false"}},
		},
	}
}

// CloudWatchLogsStatements returns, in order, the ACL read grant, the
// object write grant and the reserved-path deny for the regional logs
// service principal.
func CloudWatchLogsStatements(p Params) []Statement {
	bucketARN := p.BucketARN()
	principal := partition.ServicePrincipal(logsService, p.Partition, p.Region, true)
	sourceARNs := p.logGroupARNs()

	return []Statement{
		{
			Sid:       SidAllowReadBucketAclForExportLogs,
			Effect:    EffectAllow,
			Principal: ServicePrincipal(principal),
			Action:    Values{ActionGetBucketAcl},
			Resource:  Values{bucketARN},
			Condition: Condition{
				"StringEquals": {"aws:SourceAccount": Values{p.AccountID}},
				"ArnLike":      {"aws:SourceArn": sourceARNs},
			},
		},
		{
			Sid:       SidAllowPutObjectForExportLogs,
			Effect:    EffectAllow,
			Principal: ServicePrincipal(principal),
			Action:    Values{ActionPutObject},
			Resource:  Values{bucketARN + "/*"},
			Condition: Condition{
				"StringEquals": {
					"s3:x-amz-acl":      Values{"bucket-owner-full-control"},
					"aws:SourceAccount": Values{p.AccountID},
				},
				"ArnLike": {"aws:SourceArn": sourceARNs},
			},
		},
		{
			Sid:       SidDenyPutObjectOnReservedPath,
			Effect:    EffectDeny,
			Principal: ServicePrincipal(principal),
			Action:    Values{ActionPutObject},
			Resource:  Values{bucketARN + "/" + ReservedPath + "/*"},
		},
	}
}

// BucketPolicy assembles a document whose first statement is always the
// insecure-transport deny, followed by statements in the order given.
func BucketPolicy(p Params, statements ...Statement) Document {
	all := make([]Statement, 0, 1+len(statements))
	all = append(all, DenyInsecureTransport(p))
	all = append(all, statements...)
	return Document{Version: Version, Statement: all}
}

// Generate returns the full policy for the cluster bucket.
func Generate(p Params) Document {
	return BucketPolicy(p, CloudWatchLogsStatements(p)...)
}

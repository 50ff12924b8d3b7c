// Copyright © 2021 One Concern

package sthree

import (
	"os"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// EndpointEnvVar points the s3 backend at a non-AWS endpoint, e.g. a
// local minio. Path-style addressing is forced when it is set.
const EndpointEnvVar = "S3_ENDPOINT_URL"

var (
	defaultMu     sync.Mutex
	defaultClient *s3.S3
)

// getClient returns an S3 API client for the supplied configuration.
// The client built from environment defaults is created once and
// cached, credentials being resolved the usual SDK way.
func getClient(cfg *aws.Config) (*s3.S3, error) {
	if cfg != nil {
		sess, err := session.NewSession(cfg)
		if err != nil {
			return nil, err
		}
		return s3.New(sess), nil
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultClient != nil {
		return defaultClient, nil
	}

	cfg = aws.NewConfig().WithMaxRetries(maxAttempts)
	if endpoint := os.Getenv(EndpointEnvVar); endpoint != "" {
		cfg = cfg.WithEndpoint(endpoint).WithS3ForcePathStyle(true)
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, err
	}
	defaultClient = s3.New(sess)
	return defaultClient, nil
}

// maxAttempts mirrors the retry posture of the SDK in adaptive mode.
const maxAttempts = 10

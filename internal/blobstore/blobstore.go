/*
Copyright 2025 Orderhub Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package blobstore archives order payloads to S3 and derives read locators
// for them. Locator construction is stateless: the store never checks that
// the object behind a returned URL exists, so a locator for an order that was
// never archived will 404 on use.
package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"

	"github.com/ravenpay/orderhub/config"
)

// SignedURLExpiry bounds how long a presigned read link stays valid.
const SignedURLExpiry = 300 * time.Second

// Store is the capability the pipeline and the read path need from a blob
// backend: put-by-key and locator-by-key.
type Store interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	ResolveURL(key string) (string, error)
}

// S3Store implements Store on top of an S3 bucket.
type S3Store struct {
	client *s3.S3
	bucket string
	public bool
}

// NewS3Store builds an S3-backed store from the blob store configuration.
// Static credentials and a custom endpoint are optional; without them the
// default AWS credential chain applies.
func NewS3Store(conf *config.Configuration) (*S3Store, error) {
	awsConfig := &aws.Config{
		Region: aws.String(conf.BlobStore.Region),
	}
	if conf.BlobStore.Endpoint != "" {
		awsConfig.Endpoint = aws.String(conf.BlobStore.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}
	if conf.BlobStore.AccessKeyId != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(conf.BlobStore.AccessKeyId, conf.BlobStore.SecretAccessKey, "")
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, errors.Wrap(err, "creating aws session")
	}

	return &S3Store{
		client: s3.New(sess),
		bucket: conf.BlobStore.Bucket,
		public: conf.BlobStore.Public,
	}, nil
}

// Put uploads the payload under the given key.
func (s *S3Store) Put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	return errors.Wrapf(err, "archiving %s to bucket %s", key, s.bucket)
}

// ResolveURL returns a read locator for the key: a static bucket URL when the
// bucket is public, otherwise a presigned URL valid for SignedURLExpiry.
func (s *S3Store) ResolveURL(key string) (string, error) {
	if s.public {
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key), nil
	}

	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	url, err := req.Presign(SignedURLExpiry)
	if err != nil {
		return "", errors.Wrapf(err, "presigning %s in bucket %s", key, s.bucket)
	}
	return url, nil
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage provides an S3-compatible object storage client used to
// archive chat transcripts in a private bucket and hand out short-lived
// download links. It wraps the AWS SDK v2 and is configured for path-style
// access (required by CEPH/Hetzner and MinIO).
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// TranscriptURLTTL is how long an archived transcript link stays valid.
const TranscriptURLTTL = 24 * time.Hour

// Client wraps an S3 client bound to the private transcript bucket.
type Client struct {
	s3        *s3.Client
	presigner *s3.PresignClient
	bucket    string
	endpoint  string
}

// New creates an S3 storage client with path-style addressing. Returns
// (nil, nil) if endpoint or credentials are empty, allowing the app to
// start without storage.
func New(endpoint, region, accessKey, secretKey, bucket string) (*Client, error) {
	if endpoint == "" || accessKey == "" || secretKey == "" {
		return nil, nil
	}
	if bucket == "" {
		return nil, fmt.Errorf("storage: bucket name is required")
	}

	endpoint = strings.TrimRight(endpoint, "/")

	s3Client := s3.New(s3.Options{
		Region:       region,
		BaseEndpoint: aws.String(endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		UsePathStyle: true,
	})

	return &Client{
		s3:        s3Client,
		presigner: s3.NewPresignClient(s3Client),
		bucket:    bucket,
		endpoint:  endpoint,
	}, nil
}

// Bucket returns the name of the transcript bucket.
func (c *Client) Bucket() string {
	return c.bucket
}

// Upload stores an object in the transcript bucket.
func (c *Client) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("s3 upload %s/%s: %w", c.bucket, key, err)
	}
	return nil
}

// Delete removes an object from the transcript bucket.
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s/%s: %w", c.bucket, key, err)
	}
	return nil
}

// PresignedURL generates a pre-signed GET URL for an object in the
// transcript bucket. expires is capped at 7 days by S3.
func (c *Client) PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	req, err := c.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", fmt.Errorf("s3 presign %s/%s: %w", c.bucket, key, err)
	}
	return req.URL, nil
}

// TranscriptKey returns the object key for an archived transcript. The
// session ID is path-escaped so it always stays one key segment.
func TranscriptKey(sessionID, filename string) string {
	return transcriptPrefix(sessionID) + url.PathEscape(filename)
}

func transcriptPrefix(sessionID string) string {
	return "transcripts/" + url.PathEscape(sessionID) + "/"
}

// ArchiveTranscript uploads a plain-text transcript and returns a download
// link valid for TranscriptURLTTL.
func (c *Client) ArchiveTranscript(ctx context.Context, sessionID, filename, body string) (string, error) {
	key := TranscriptKey(sessionID, filename)

	if err := c.Upload(ctx, key, "text/plain; charset=utf-8", strings.NewReader(body), int64(len(body))); err != nil {
		return "", err
	}
	return c.PresignedURL(ctx, key, TranscriptURLTTL)
}

// DeleteTranscripts removes every archived transcript of a session and
// returns how many objects were deleted.
func (c *Client) DeleteTranscripts(ctx context.Context, sessionID string) (int, error) {
	pages := s3.NewListObjectsV2Paginator(c.s3, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(transcriptPrefix(sessionID)),
	})

	deleted := 0
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return deleted, fmt.Errorf("s3 list %s/%s: %w", c.bucket, transcriptPrefix(sessionID), err)
		}
		for _, obj := range page.Contents {
			if err := c.Delete(ctx, aws.ToString(obj.Key)); err != nil {
				return deleted, err
			}
			deleted++
		}
	}
	return deleted, nil
}

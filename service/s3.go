package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const coverPrefix = "covers/"

// CoverArchive keeps the original uploaded cover photos in S3. The catalog
// itself serves covers from the inline base64 payload; the archive is the
// durable replacement for the old on-disk book_covers directory, and its
// object key is what the record's legacy imageFile marker points at.
type CoverArchive struct {
	client *s3.Client
	bucket string
}

func NewCoverArchive(ctx context.Context, bucket, region, accessKeyID, secretAccessKey string) (*CoverArchive, error) {
	if bucket == "" {
		return nil, fmt.Errorf("AWS_S3_BUCKET is required")
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if accessKeyID != "" && secretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &CoverArchive{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
	}, nil
}

// Store uploads the cover bytes under a fresh uuid key and returns the key.
func (a *CoverArchive) Store(ctx context.Context, image []byte, contentType string) (string, error) {
	key := coverPrefix + uuid.New().String()
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(image),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

// Delete removes an archived cover. Keys without the covers/ prefix are
// legacy on-disk filenames and are left alone.
func (a *CoverArchive) Delete(ctx context.Context, key string) error {
	if len(key) < len(coverPrefix) || key[:len(coverPrefix)] != coverPrefix {
		return nil
	}
	_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	return err
}

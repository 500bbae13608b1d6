// Package storage implements the document blob store on S3.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

type S3Store struct {
	client *s3.Client
	bucket string
}

func NewS3Store(accessKey, secretKey, region, bucket string) (*S3Store, error) {
	creds := credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")

	cfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithCredentialsProvider(creds),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3Store{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
	}, nil
}

// GenerateUploadTarget mints a fresh object key. The key embeds a UUID so two
// uploads never collide, and keeps the original extension for content-type
// sniffing by downstream consumers.
func (s *S3Store) GenerateUploadTarget(filename string) string {
	return "documents/" + uuid.New().String() + path.Ext(filename)
}

func (s *S3Store) Upload(ctx context.Context, ref string, data []byte, mimeType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(ref),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(mimeType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", ref, err)
	}
	return nil
}

package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/lexguard/backend/internal/util"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// NewS3Client builds an S3 client from the AWS_* environment variables.
// Returns nil when no credentials are configured; document archival is
// optional.
func NewS3Client(ctx context.Context) *s3.Client {
	region := util.GetEnv("AWS_REGION")
	endpoint := util.GetEnv("AWS_ENDPOINT")
	accessKey := util.GetEnv("AWS_ACCESS_KEY")
	secretKey := util.GetEnv("AWS_SECRET_KEY")

	if accessKey == "" || secretKey == "" {
		return nil
	}

	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(region),
		config.WithBaseEndpoint(endpoint),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey,
			secretKey,
			"",
		)),
	)
	if err != nil {
		return nil
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
}

func documentKey(documentID string) string {
	return fmt.Sprintf("documents/%s.txt", documentID)
}

// ArchiveDocumentText stores the raw text of an ingested document.
func ArchiveDocumentText(ctx context.Context, client *s3.Client, documentID string, content string) (string, error) {
	bucket := util.GetEnv("AWS_BUCKET")
	key := documentKey(documentID)

	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader([]byte(content)),
		ContentType: aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive document text: %w", err)
	}

	return key, nil
}

// DeleteDocumentText removes the archived text of a deleted document.
func DeleteDocumentText(ctx context.Context, client *s3.Client, documentID string) error {
	bucket := util.GetEnv("AWS_BUCKET")

	_, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(documentKey(documentID)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete archived document text: %w", err)
	}
	return nil
}

package export

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ignite/content-signals/internal/content"
	"github.com/ignite/content-signals/internal/pkg/logger"
)

// s3PutAPI is the slice of the S3 client the archiver needs.
type s3PutAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver uploads rendered exports to an S3 bucket for audit and
// activation handoff.
type S3Archiver struct {
	client s3PutAPI
	bucket string
	prefix string
}

// NewS3Archiver creates an archiver against the default AWS credential chain.
func NewS3Archiver(ctx context.Context, bucket, region, prefix string) (*S3Archiver, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("export: load AWS config: %w", err)
	}
	return &S3Archiver{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		prefix: prefix,
	}, nil
}

// key builds a date-partitioned object key for one export.
func (a *S3Archiver) key(segmentName string, format Format, at time.Time) string {
	prefix := a.prefix
	if prefix == "" {
		prefix = "exports"
	}
	return fmt.Sprintf("%s/%s/%s_%s.%s",
		prefix, at.Format("2006-01-02"), segmentName, at.Format("150405"), format)
}

// Archive renders the rows in the given format and uploads the document.
// Returns the object key.
func (a *S3Archiver) Archive(ctx context.Context, segmentName string, format Format, rows []content.Row) (string, error) {
	var buf bytes.Buffer
	if err := Write(&buf, format, rows); err != nil {
		return "", err
	}

	key := a.key(segmentName, format, time.Now().UTC())
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String(ContentType(format)),
	})
	if err != nil {
		return "", fmt.Errorf("export: put s3://%s/%s: %w", a.bucket, key, err)
	}

	logger.Info("export archived", "bucket", a.bucket, "key", key, "rows", len(rows))
	return key, nil
}

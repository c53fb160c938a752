package export

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ignite/outreach-analytics/internal/pipeline"
	"github.com/ignite/outreach-analytics/internal/pkg/logger"
)

// S3Exporter mirrors batch exports to an S3 bucket for sharing with the
// wider team.
type S3Exporter struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Exporter loads the default AWS config and builds an exporter.
func NewS3Exporter(ctx context.Context, bucket, region, prefix string) (*S3Exporter, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &S3Exporter{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		prefix: prefix,
	}, nil
}

// Upload writes the successful and failed CSVs for one batch under
// <prefix>/<batch-id>/ and returns the object keys.
func (e *S3Exporter) Upload(ctx context.Context, batchID string, result *pipeline.Result) ([]string, error) {
	var successful bytes.Buffer
	if err := WriteSuccessfulCSV(&successful, result.Successful); err != nil {
		return nil, err
	}
	var failed bytes.Buffer
	if err := WriteFailedCSV(&failed, result.Failed); err != nil {
		return nil, err
	}

	stamp := time.Now().UTC().Format("20060102_150405")
	objects := []struct {
		key  string
		body *bytes.Buffer
	}{
		{path.Join(e.prefix, batchID, fmt.Sprintf("successful_%s.csv", stamp)), &successful},
		{path.Join(e.prefix, batchID, fmt.Sprintf("failed_%s.csv", stamp)), &failed},
	}

	keys := make([]string, 0, len(objects))
	for _, obj := range objects {
		_, err := e.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(e.bucket),
			Key:         aws.String(obj.key),
			Body:        bytes.NewReader(obj.body.Bytes()),
			ContentType: aws.String("text/csv"),
		})
		if err != nil {
			return nil, fmt.Errorf("uploading %s: %w", obj.key, err)
		}
		keys = append(keys, obj.key)
	}

	logger.Info("batch exported to s3", "batch_id", batchID, "bucket", e.bucket, "objects", len(keys))
	return keys, nil
}

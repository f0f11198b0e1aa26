// Package reports archives match generation runs.
package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"wedmatch_server/logger"
	"wedmatch_server/models"
)

const presignExpiry = 5 * time.Minute

// ObjectPutter is the part of the S3 client the archive writes with.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archive stores each generation run as JSON under <prefix>/<cohortId>/<runId>.json.
type S3Archive struct {
	client    ObjectPutter
	presigner *s3.PresignClient
	bucket    string
	prefix    string
	log       *logger.Logger
}

// NewS3Archive loads the default AWS config for region.
func NewS3Archive(ctx context.Context, region, bucket, prefix string, baseLog *logger.Logger) (*S3Archive, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	client := s3.NewFromConfig(cfg)
	a := NewArchive(client, bucket, prefix, baseLog)
	a.presigner = s3.NewPresignClient(client)
	return a, nil
}

// NewArchive builds an archive around any PutObject implementation. Presigning is only
// available through NewS3Archive.
func NewArchive(client ObjectPutter, bucket, prefix string, baseLog *logger.Logger) *S3Archive {
	return &S3Archive{client: client, bucket: bucket, prefix: prefix, log: baseLog.With("component", "S3Archive")}
}

// Key is the object key a run is stored under.
func (a *S3Archive) Key(cohortID, runID string) string {
	return path.Join(a.prefix, cohortID, runID+".json")
}

func (a *S3Archive) StoreRun(ctx context.Context, run *models.GenerationRun) error {
	body, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("encode run %s: %w", run.RunID, err)
	}
	key := a.Key(run.CohortID, run.RunID)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("upload run %s: %w", run.RunID, err)
	}
	a.log.Info("📦 generation run archived", "bucket", a.bucket, "key", key)
	return nil
}

// ReadURL generates a presigned URL for reading an archived run
func (a *S3Archive) ReadURL(ctx context.Context, cohortID, runID string) (string, error) {
	if a.presigner == nil {
		return "", fmt.Errorf("presigning is not configured")
	}
	req, err := a.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.Key(cohortID, runID)),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

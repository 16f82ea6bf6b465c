// Package media issues presigned S3 URLs for node attachments. The server
// only hands out links; attachment bytes travel between the client and the
// object store directly.
package media

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/p1nk23/TgBot/internal/common"
	"github.com/p1nk23/TgBot/internal/server/config"
)

var (
	loadDefaultAWSConfig  = awsconfig.LoadDefaultConfig
	newS3ClientFromConfig = s3.NewFromConfig
	newS3PresignClient    = func(c *s3.Client) presignAPI { return s3.NewPresignClient(c) }
)

type presignAPI interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Linker presigns GET and PUT requests against a single bucket.
type S3Linker struct {
	client presignAPI
	bucket string
	expiry time.Duration
	now    func() time.Time
}

// NewS3Linker builds a linker from the server configuration.
func NewS3Linker(ctx context.Context, cfg *config.Config) (*S3Linker, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	expiry := cfg.PresignExpiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}

	return &S3Linker{
		client: newS3PresignClient(client),
		bucket: cfg.S3Bucket,
		expiry: expiry,
		now:    time.Now,
	}, nil
}

// StorageKey returns a fresh object key under a date prefix.
func StorageKey(t time.Time) string {
	return fmt.Sprintf("users/%d/%d/%d/%v", t.Year(), t.Month(), t.Day(), uuid.New())
}

// DownloadURL presigns a GET for the object named by mediaReference.
func (l *S3Linker) DownloadURL(ctx context.Context, mediaReference string) (string, error) {
	key := strings.TrimSpace(mediaReference)
	if key == "" {
		return "", fmt.Errorf("empty media reference: %w", common.ErrAttachmentDelivery)
	}

	req, err := l.client.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(l.expiry))
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrAttachmentDelivery, err)
	}
	return req.URL, nil
}

// UploadSlot allocates a new object key and presigns a PUT for it.
func (l *S3Linker) UploadSlot(ctx context.Context) (string, string, error) {
	key := StorageKey(l.now())

	req, err := l.client.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(l.expiry))
	if err != nil {
		return "", "", err
	}
	return key, req.URL, nil
}

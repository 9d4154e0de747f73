// Package upload binds the file-storage collaborator to an S3-compatible
// object store (MinIO in development).
package upload

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofrs/uuid"

	"github.com/formloom/formloom/config"
	"github.com/formloom/formloom/model"
)

type S3 struct {
	client  *s3.Client
	bucket  string
	baseURL string
	timeout time.Duration
}

func NewS3(ctx context.Context, cfg config.Config) (*S3, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.UploadRegion),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.UploadAccessKey,
			cfg.UploadSecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.UploadEndpoint)
		o.UsePathStyle = true
	})

	return &S3{
		client:  client,
		bucket:  cfg.UploadBucket,
		baseURL: strings.TrimSuffix(cfg.UploadEndpoint, "/"),
		timeout: cfg.UploadTimeout,
	}, nil
}

func storageKey() string {
	d := time.Now().UTC()
	return fmt.Sprintf("forms/%d/%02d/%02d/%v", d.Year(), d.Month(), d.Day(), uuid.Must(uuid.NewV4()))
}

// Upload stores one file and returns its descriptor. Every call is bounded
// by the configured timeout; a timeout is an upload failure, never a hang.
func (u *S3) Upload(ctx context.Context, fh model.FileHandle) (model.UploadedFile, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	key := storageKey()
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          fh.Content,
		ContentType:   aws.String(fh.ContentType),
		ContentLength: aws.Int64(fh.Size),
	})
	if err != nil {
		return model.UploadedFile{}, err
	}

	url := fmt.Sprintf("%s/%s/%s", u.baseURL, u.bucket, key)
	file := model.UploadedFile{
		FileName:     fh.Name,
		FileSize:     fh.Size,
		FileType:     fh.ContentType,
		URL:          url,
		PublicID:     key,
		ResourceType: resourceType(fh.ContentType),
		Format:       strings.TrimPrefix(path.Ext(fh.Name), "."),
		UploadedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if file.ResourceType == "image" {
		file.ThumbnailURL = url
	}
	return file, nil
}

func resourceType(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return "image"
	case strings.HasPrefix(contentType, "video/"):
		return "video"
	default:
		return "raw"
	}
}

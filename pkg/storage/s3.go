package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
)

// S3Config holds the bucket settings.
type S3Config struct {
	Bucket    string
	Region    string
	UploadDir string
}

// S3Storage stores files in an S3 bucket with a public-read ACL.
type S3Storage struct {
	client    *s3.Client
	bucket    string
	uploadDir string
	fs        afero.Fs
}

// NewS3Storage builds an S3 client from the default AWS credential chain.
func NewS3Storage(ctx context.Context, cfg S3Config) (*S3Storage, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3Storage{
		client:    s3.NewFromConfig(awsCfg),
		bucket:    cfg.Bucket,
		uploadDir: cfg.UploadDir,
		fs:        afero.NewOsFs(),
	}, nil
}

// SaveFile uploads fileName from the upload directory and removes the local copy.
func (s *S3Storage) SaveFile(ctx context.Context, fileName string) error {
	if err := checkName(fileName); err != nil {
		return err
	}

	localPath := filepath.Join(s.uploadDir, fileName)
	data, err := afero.ReadFile(s.fs, localPath)
	if err != nil {
		return fmt.Errorf("failed to read upload %s: %w", localPath, err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(fileName),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(mimetype.Detect(data).String()),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", fileName, err)
	}

	if err := s.fs.Remove(localPath); err != nil {
		return fmt.Errorf("failed to remove upload %s: %w", localPath, err)
	}
	return nil
}

// GetFile downloads an object by name.
func (s *S3Storage) GetFile(ctx context.Context, name string) ([]byte, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("%s: %w", name, ErrFileNotFound)
		}
		return nil, fmt.Errorf("failed to get object %s: %w", name, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", name, err)
	}
	return data, nil
}

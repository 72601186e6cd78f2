// internal/adapter/storage/minio/client.go
package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	appconfig "github.com/GoArmGo/PhotoPrint/internal/config"
	"github.com/GoArmGo/PhotoPrint/internal/domain"
)

// каталог бакета с байтами загруженных фото
const objectPrefix = "uploads/"

// Client хранит байты локально загруженных фото в MinIO (S3-совместимом хранилище).
// Дескриптор фото однозначно отображается в ключ объекта.
type Client struct {
	s3Client   *s3.Client
	uploader   *manager.Uploader
	bucketName string
	logger     *slog.Logger
}

// NewMinioClient создает клиент MinIO и при необходимости создаёт бакет.
func NewMinioClient(ctx context.Context, cfg *appconfig.Config, logger *slog.Logger) (*Client, error) {
	if cfg.MinioAccessKeyID == "" || cfg.MinioSecretAccessKey == "" || cfg.MinioBucketName == "" || cfg.MinioEndpoint == "" || cfg.MinioRegion == "" {
		return nil, fmt.Errorf("MinIO credentials (MINIO_ACCESS_KEY_ID, MINIO_SECRET_ACCESS_KEY, MINIO_BUCKET_NAME, MINIO_ENDPOINT, MINIO_REGION) must be set in environment variables")
	}

	cfgAws, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.MinioRegion),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.MinioAccessKeyID, cfg.MinioSecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for MinIO: %w", err)
	}

	endpoint := endpointURL(cfg.MinioEndpoint, cfg.MinioUseSSL)
	s3Client := s3.NewFromConfig(cfgAws, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	c := &Client{
		s3Client:   s3Client,
		uploader:   manager.NewUploader(s3Client),
		bucketName: cfg.MinioBucketName,
		logger:     logger.With("component", "minio", "bucket", cfg.MinioBucketName),
	}
	if err := c.ensureBucket(ctx, cfg.MinioRegion); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) ensureBucket(ctx context.Context, region string) error {
	headCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := c.s3Client.HeadBucket(headCtx, &s3.HeadBucketInput{
		Bucket: aws.String(c.bucketName),
	})
	if err == nil {
		c.logger.Info("bucket already exists")
		return nil
	}

	c.logger.Info("bucket not found, creating")
	input := &s3.CreateBucketInput{Bucket: aws.String(c.bucketName)}
	// us-east-1 нельзя передавать как LocationConstraint
	if region != "" && region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(region),
		}
	}
	if _, err := c.s3Client.CreateBucket(ctx, input); err != nil {
		return fmt.Errorf("failed to create bucket '%s': %w", c.bucketName, err)
	}

	waiter := s3.NewBucketExistsWaiter(c.s3Client)
	if err := waiter.Wait(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.bucketName)}, 30*time.Second); err != nil {
		return fmt.Errorf("failed waiting for bucket '%s' to be created: %w", c.bucketName, err)
	}

	c.logger.Info("bucket created")
	return nil
}

// Put загружает байты фото под ключом, производным от дескриптора.
func (c *Client) Put(ctx context.Context, handle string, r io.Reader, size int64, contentType string) error {
	key, err := objectKey(handle)
	if err != nil {
		return err
	}
	out, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucketName),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to bucket %s: %w", key, c.bucketName, err)
	}
	c.logger.Debug("object uploaded", "key", key, "size", size, "location", out.Location)
	return nil
}

// Open возвращает поток содержимого объекта. Закрыть его обязан вызывающий.
func (c *Client) Open(ctx context.Context, handle string) (io.ReadCloser, error) {
	key, err := objectKey(handle)
	if err != nil {
		return nil, err
	}
	output, err := c.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s from bucket %s: %w", key, c.bucketName, err)
	}
	return output.Body, nil
}

// Release удаляет объект дескриптора.
func (c *Client) Release(ctx context.Context, handle string) error {
	key, err := objectKey(handle)
	if err != nil {
		return err
	}
	_, err = c.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s from bucket %s: %w", key, c.bucketName, err)
	}
	c.logger.Debug("object deleted", "key", key)
	return nil
}

var errForeignHandle = errors.New("minio: handle is not a local blob handle")

func objectKey(handle string) (string, error) {
	id, ok := strings.CutPrefix(handle, domain.HandlePrefix)
	if !ok || id == "" {
		return "", fmt.Errorf("%w: %q", errForeignHandle, handle)
	}
	return objectPrefix + id, nil
}

func endpointURL(endpoint string, useSSL bool) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	if useSSL {
		return "https://" + endpoint
	}
	return "http://" + endpoint
}

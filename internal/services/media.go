package services

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// MediaService hands out presigned upload URLs for post images and avatars,
// gated by the daily upload quota
type MediaService struct {
	s3Client *s3.Client
	bucket   string
	region   string
	quota    *QuotaService
}

// NewMediaService creates a new media service
func NewMediaService(quota *QuotaService, region, bucket, accessKey, secretKey, endpoint string) (*MediaService, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}
	if accessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
	}
	cfg, err := config.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &MediaService{
		s3Client: s3Client,
		bucket:   bucket,
		region:   region,
		quota:    quota,
	}, nil
}

// UploadRequest represents a request to get a pre-signed URL
type UploadRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

// UploadResponse represents the response with pre-signed URL
type UploadResponse struct {
	UploadURL string `json:"upload_url"`
	PublicURL string `json:"public_url"`
	ExpiresIn int    `json:"expires_in"`
}

// PresignUpload charges the declared size against the user's daily quota and
// returns a pre-signed PUT URL plus the public URL the stored object will
// have
func (s *MediaService) PresignUpload(ctx context.Context, userID string, req UploadRequest) (*UploadResponse, error) {
	if req.SizeBytes <= 0 {
		return nil, fmt.Errorf("size_bytes is required")
	}
	if req.ContentType == "" {
		req.ContentType = "image/jpeg"
	}

	if err := s.quota.Consume(ctx, userID, req.SizeBytes); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s/%s", userID, uuid.New().String())

	presignClient := s3.NewPresignClient(s.s3Client)
	request, err := presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(req.ContentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = 5 * time.Minute
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate pre-signed URL: %w", err)
	}

	publicURL := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)

	return &UploadResponse{
		UploadURL: request.URL,
		PublicURL: publicURL,
		ExpiresIn: 300,
	}, nil
}

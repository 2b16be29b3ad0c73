package services

import (
	"context"
	"fmt"
	"time"

	sc "github.com/dmitrijs2005/issuedesk/internal/server/config"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PhotoUploadTTL is how long a presigned upload URL stays valid.
const PhotoUploadTTL = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

// PhotoPresigner hands out upload URLs for issue photos.
type PhotoPresigner interface {
	PresignPut(ctx context.Context) (key, url string, err error)
}

// PhotoService presigns PUT requests against an S3-compatible bucket
// (AWS or MinIO). The client uploads the file directly; the issue then
// stores the returned key in its photo field.
type PhotoService struct {
	config sc.S3Config
	now    func() time.Time
}

func NewPhotoService(cfg sc.S3Config) *PhotoService {
	return &PhotoService{config: cfg, now: time.Now}
}

// PhotoStorageKey places uploads under issues/yyyy/mm/dd/<uuid>.
func PhotoStorageKey(t time.Time) string {
	return fmt.Sprintf("issues/%04d/%02d/%02d/%v", t.Year(), int(t.Month()), t.Day(), uuid.New())
}

func (s *PhotoService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(s.config.Region)}
	if s.config.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.AccessKey,
			s.config.SecretKey,
			"",
		)))
	}

	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.config.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.config.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return newS3PresignClient(client), nil
}

func (s *PhotoService) PresignPut(ctx context.Context) (string, string, error) {
	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return "", "", err
	}

	bucket := s.config.Bucket
	key := PhotoStorageKey(s.now().UTC())

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(PhotoUploadTTL))
	if err != nil {
		return "", "", err
	}

	return key, req.URL, nil
}

package clients

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// ErrStorageDisabled is returned when no bucket is configured.
var ErrStorageDisabled = errors.New("object storage not configured")

// ErrUnsupportedImage is returned for uploads that are not images.
var ErrUnsupportedImage = errors.New("only image uploads are allowed")

const maxAvatarBytes = 5 << 20

// ImageStore uploads user images and returns their public URL.
type ImageStore interface {
	UploadImage(ctx context.Context, file *multipart.FileHeader, folder string) (string, error)
}

// S3Storage stores images in a single S3 bucket.
type S3Storage struct {
	uploader *s3manager.Uploader
	bucket   string
	region   string
}

// NewS3Storage creates the AWS session and uploader.
func NewS3Storage(region, accessKey, secretKey, bucket string) (*S3Storage, error) {
	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewStaticCredentials(accessKey, secretKey, ""),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return &S3Storage{
		uploader: s3manager.NewUploader(sess),
		bucket:   bucket,
		region:   region,
	}, nil
}

// UploadImage uploads file under folder/ and returns its public URL.
func (s *S3Storage) UploadImage(ctx context.Context, file *multipart.FileHeader, folder string) (string, error) {
	if s == nil || s.uploader == nil {
		return "", ErrStorageDisabled
	}
	if file.Size > maxAvatarBytes {
		return "", fmt.Errorf("%w: file larger than %d bytes", ErrUnsupportedImage, maxAvatarBytes)
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, src); err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	contentType := http.DetectContentType(buf.Bytes())
	if !strings.HasPrefix(contentType, "image/") {
		return "", ErrUnsupportedImage
	}

	key := fmt.Sprintf("%s/%d%s", folder, time.Now().UnixNano(), strings.ToLower(filepath.Ext(file.Filename)))

	_, err = s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"elearning/internal/config"
)

const courseImagePrefix = "courses/"

// MaxImageSize is the largest accepted course image.
const MaxImageSize = 5 << 20

// ErrUnsupportedImage is returned for uploads that are not a known image type.
var ErrUnsupportedImage = errors.New("unsupported image type")

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Storage provides object storage operations
type Storage struct {
	client     *minio.Client
	bucketName string
	publicURL  string
}

// New creates a new storage client and makes sure the bucket exists.
func New(ctx context.Context, cfg config.StorageConfig) (*Storage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		err = client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{
			Region: cfg.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &Storage{
		client:     client,
		bucketName: cfg.BucketName,
		publicURL:  strings.TrimRight(cfg.PublicURL, "/"),
	}, nil
}

// UploadCourseImage stores an image under a fresh object name and returns
// its public URL.
func (s *Storage) UploadCourseImage(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	objectName, err := courseImageObject(filename, contentType)
	if err != nil {
		return "", err
	}

	_, err = s.client.PutObject(ctx, s.bucketName, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}

	return s.URL(objectName), nil
}

// URL returns the public URL of an object.
func (s *Storage) URL(objectName string) string {
	return s.publicURL + "/" + s.bucketName + "/" + objectName
}

func courseImageObject(filename, contentType string) (string, error) {
	ext, ok := imageExtensions[strings.ToLower(contentType)]
	if !ok {
		return "", ErrUnsupportedImage
	}
	// keep the client's extension when it agrees with the content type
	if given := strings.ToLower(filepath.Ext(filename)); given == ext || (ext == ".jpg" && given == ".jpeg") {
		ext = given
	}
	return courseImagePrefix + uuid.NewString() + ext, nil
}

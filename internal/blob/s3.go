package blob

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Store stores file bytes as S3 objects under files/<file id>.
type S3Store struct {
	client *s3.Client
	bucket string
}

// NewS3Store creates an S3-backed blob store.
func NewS3Store(client *s3.Client, bucket string) *S3Store {
	return &S3Store{
		client: client,
		bucket: bucket,
	}
}

func (s *S3Store) objectKey(fileID uuid.UUID) string {
	return fmt.Sprintf("files/%s", fileID.String())
}

// Read streams an object's bytes. The returned body is tied to ctx: when the
// request is cancelled the underlying connection is released.
func (s *S3Store) Read(ctx context.Context, fileID uuid.UUID) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(fileID)),
	})
	if err != nil {
		return nil, fmt.Errorf("reading object %s: %w", fileID, err)
	}
	return out.Body, nil
}

func (s *S3Store) Write(ctx context.Context, fileID uuid.UUID, contentType string, body io.Reader) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(fileID)),
		ContentType: aws.String(contentType),
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("writing object %s: %w", fileID, err)
	}
	return nil
}

func (s *S3Store) Size(ctx context.Context, fileID uuid.UUID) (int64, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(fileID)),
	})
	if err != nil {
		return 0, fmt.Errorf("heading object %s: %w", fileID, err)
	}
	if out.ContentLength == nil {
		return 0, nil
	}
	return *out.ContentLength, nil
}

func (s *S3Store) Delete(ctx context.Context, fileID uuid.UUID) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(fileID)),
	})
	if err != nil {
		return fmt.Errorf("deleting object %s: %w", fileID, err)
	}
	return nil
}

package sink

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// objectAPI is the part of the S3 client the sink uses.
type objectAPI interface {
	PutObjectWithContext(ctx aws.Context, in *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error)
	HeadBucketWithContext(ctx aws.Context, in *s3.HeadBucketInput, opts ...request.Option) (*s3.HeadBucketOutput, error)
}

// S3Sink writes reports as objects. Containers are key prefixes marked with
// an empty "folder/" object so they show up in the console.
type S3Sink struct {
	client objectAPI
	bucket string
	prefix string
}

// NewS3Sink creates a client for cfg.Region. Static credentials are used
// when given, otherwise the default AWS credential chain applies.
func NewS3Sink(cfg Config) (*S3Sink, error) {
	awsCfg := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}
	return newS3Sink(s3.New(sess), cfg.Bucket, cfg.Prefix), nil
}

func newS3Sink(client objectAPI, bucket, prefix string) *S3Sink {
	return &S3Sink{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (s *S3Sink) Check(ctx context.Context) error {
	if s.bucket == "" {
		return fmt.Errorf("bucket is not set")
	}
	_, err := s.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		return fmt.Errorf("bucket %s is not reachable: %w", s.bucket, err)
	}
	return nil
}

func (s *S3Sink) CreateContainer(ctx context.Context, parentID, name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	id := path.Join(parentID, name)
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id) + "/"),
		Body:   bytes.NewReader(nil),
	})
	if err != nil {
		return "", fmt.Errorf("create %s: %w", id, err)
	}
	return id, nil
}

func (s *S3Sink) WriteDocument(ctx context.Context, containerID, name string, content []byte) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	id := path.Join(containerID, name)
	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(id)),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", id, err)
	}
	return id, nil
}

func (s *S3Sink) key(id string) string {
	return path.Join(s.prefix, id)
}

package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/cleantrashrooms/upload_lite/internal/config"
	"github.com/cleantrashrooms/upload_lite/internal/models"
)

// S3API: подмножество *s3.Client, которым пользуется S3Store.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

var loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

// NewS3Client собирает клиент S3 по настройкам; при заданном endpoint включается path-style (MinIO).
func NewS3Client(ctx context.Context, c config.S3Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if c.Region != "" {
		opts = append(opts, awsconfig.WithRegion(c.Region))
	}
	if c.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, ""),
		))
	}

	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// S3Store хранит файлы объектами в бакете, опционально под общим префиксом ключа.
type S3Store struct {
	api    S3API
	bucket string
	prefix string
}

var _ Store = (*S3Store)(nil)

func NewS3(api S3API, bucket, prefix string) *S3Store {
	return &S3Store{
		api:    api,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

func (s *S3Store) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// Create использует If-None-Match: *, чтобы не перезаписать существующий объект.
func (s *S3Store) Create(ctx context.Context, name string, r io.Reader, size int64, contentType string) (int64, error) {
	if err := checkName(name); err != nil {
		return 0, err
	}

	// Тело передаём как есть: SDK нужен io.Seeker для подписи payload.
	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(name)),
		Body:        r,
		IfNoneMatch: aws.String("*"),
	}
	var counter *countingReader
	if size >= 0 {
		in.ContentLength = aws.Int64(size)
	} else {
		counter = &countingReader{r: r}
		in.Body = counter
	}
	// Тип по расширению, как у диска; заявленный клиентом только для неизвестных расширений.
	if ct := contentTypeByName(name); ct != "" {
		contentType = ct
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}

	if _, err := s.api.PutObject(ctx, in); err != nil {
		if hasErrorCode(err, "PreconditionFailed", "ConditionalRequestConflict") {
			return 0, fmt.Errorf("%s: %w", name, models.ErrExists)
		}
		return 0, fmt.Errorf("put %s: %w", name, err)
	}

	if counter != nil {
		return counter.n, nil
	}
	return size, nil
}

func (s *S3Store) Open(ctx context.Context, name string) (*Object, error) {
	if !ValidName(name) {
		return nil, models.ErrNotFound
	}

	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		if hasErrorCode(err, "NoSuchKey", "NotFound") {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", name, err)
	}

	ct := aws.ToString(out.ContentType)
	if ct == "" {
		ct = contentTypeByName(name)
	}

	return &Object{
		Body:        out.Body,
		Size:        aws.ToInt64(out.ContentLength),
		ModTime:     aws.ToTime(out.LastModified),
		ContentType: ct,
	}, nil
}

// Remove: DeleteObject в S3 идемпотентен, отсутствующий ключ не ошибка.
func (s *S3Store) Remove(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil && !hasErrorCode(err, "NoSuchKey", "NotFound") {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

// Usage листает все объекты под префиксом.
func (s *S3Store) Usage(ctx context.Context) (Usage, error) {
	in := &s3.ListObjectsV2Input{Bucket: aws.String(s.bucket)}
	if s.prefix != "" {
		in.Prefix = aws.String(s.prefix + "/")
	}

	var u Usage
	p := s3.NewListObjectsV2Paginator(s.api, in)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return Usage{}, fmt.Errorf("list objects: %w", err)
		}
		for _, obj := range page.Contents {
			u.Files++
			u.TotalBytes += aws.ToInt64(obj.Size)
		}
	}

	return u, nil
}

func hasErrorCode(err error, codes ...string) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, c := range codes {
		if apiErr.ErrorCode() == c {
			return true
		}
	}
	return false
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

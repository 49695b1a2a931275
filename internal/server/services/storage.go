package services

import (
	"context"
	"mime"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	sc "github.com/dmitrijs2005/gophview/internal/server/config"
)

// AWS constructors are package variables so tests can replace them.
var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Content dispositions requested for presigned URLs.
const (
	DispositionInline     = "inline"
	DispositionAttachment = "attachment"
)

// URLSigner produces time-limited GET URLs for stored objects.
type URLSigner interface {
	PresignGet(ctx context.Context, key, disposition, fileName string) (string, error)
}

// S3Signer presigns GET requests against an S3-compatible object store.
type S3Signer struct {
	config *sc.Config
}

func NewS3Signer(config *sc.Config) *S3Signer {
	return &S3Signer{config: config}
}

func (s *S3Signer) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

// PresignGet returns a GET URL for key valid for the configured presign
// duration. The response carries the given content disposition.
func (s *S3Signer) PresignGet(ctx context.Context, key, disposition, fileName string) (string, error) {
	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return "", err
	}

	in := &s3.GetObjectInput{
		Bucket: aws.String(s.config.S3Bucket),
		Key:    aws.String(key),
	}
	if cd := contentDisposition(disposition, fileName); cd != "" {
		in.ResponseContentDisposition = aws.String(cd)
	}

	req, err := presignGetObject(presignClient, ctx, in, s3.WithPresignExpires(s.config.PresignValidityDuration))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

func contentDisposition(disposition, fileName string) string {
	if disposition == "" {
		return ""
	}
	if fileName == "" {
		return disposition
	}
	return mime.FormatMediaType(disposition, map[string]string{"filename": fileName})
}

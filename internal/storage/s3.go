package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/projectklase/comunika-nexus-64-78-sub002/internal/util"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// DownloadLinkTTL is how long presigned export links stay valid.
var DownloadLinkTTL = 15 * time.Minute

// NewS3Client builds a path-style client from the AWS_* environment.
func NewS3Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(util.GetEnv("AWS_REGION")),
		config.WithBaseEndpoint(util.GetEnv("AWS_ENDPOINT")),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			util.GetEnv("AWS_ACCESS_KEY"),
			util.GetEnv("AWS_SECRET_KEY"),
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	return client, nil
}

// ObjectAPI is the part of the S3 client used for exports.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Export describes one uploaded snapshot.
type Export struct {
	Key string `json:"key"`
	URL string `json:"url,omitempty"`
}

// Exporter uploads JSON snapshots of family trees and hands out
// presigned download links.
type Exporter struct {
	api            ObjectAPI
	presign        *s3.Client
	bucket         string
	publicEndpoint string
}

// NewExporterParams configures an Exporter. Presign may be nil, in which
// case exports carry no download link.
type NewExporterParams struct {
	API            ObjectAPI
	Presign        *s3.Client
	Bucket         string
	PublicEndpoint string
}

func NewExporter(params NewExporterParams) *Exporter {
	return &Exporter{
		api:            params.API,
		presign:        params.Presign,
		bucket:         params.Bucket,
		publicEndpoint: params.PublicEndpoint,
	}
}

// TreeKey returns a fresh object key under the school's prefix.
func TreeKey(schoolID string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("family-trees/%s/%s.json", schoolID, id), nil
}

// ExportTree serializes payload and uploads it.
func (e *Exporter) ExportTree(ctx context.Context, schoolID string, payload any) (Export, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Export{}, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	key, err := TreeKey(schoolID)
	if err != nil {
		return Export{}, fmt.Errorf("failed to create snapshot key: %w", err)
	}

	_, err = e.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return Export{}, fmt.Errorf("failed to upload snapshot to S3: %w", err)
	}

	out := Export{Key: key}
	if e.presign != nil {
		link, err := e.DownloadLink(ctx, key)
		if err != nil {
			logger.Warn("[Storage] Snapshot uploaded without link", "key", key, "err", err)
		} else {
			out.URL = link
		}
	}
	logger.Info("[Storage] Family tree exported", "school_id", schoolID, "key", key, "bytes", len(body))
	return out, nil
}

// GetFile downloads an object.
func (e *Exporter) GetFile(ctx context.Context, key string) ([]byte, error) {
	result, err := e.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(e.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get file from S3: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file contents: %w", err)
	}
	return data, nil
}

// DownloadLink presigns a GET against the public endpoint so the signature
// matches the Host header the browser sends.
func (e *Exporter) DownloadLink(ctx context.Context, key string) (string, error) {
	if e.presign == nil {
		return "", fmt.Errorf("no presign client configured")
	}
	publicURL, err := url.Parse(e.publicEndpoint)
	if err != nil || publicURL.Scheme == "" || publicURL.Host == "" {
		return "", fmt.Errorf("invalid AWS_PUBLIC_ENDPOINT: %s", e.publicEndpoint)
	}
	prefix := strings.TrimSuffix(publicURL.Path, "/")
	publicBaseEndpoint := fmt.Sprintf("%s://%s", publicURL.Scheme, publicURL.Host)

	base := e.presign.Options()
	presignClient := s3.NewFromConfig(
		aws.Config{
			Region:      base.Region,
			Credentials: base.Credentials,
			HTTPClient:  base.HTTPClient,
		},
		func(o *s3.Options) {
			o.BaseEndpoint = aws.String(publicBaseEndpoint)
			o.UsePathStyle = true
		},
	)

	out, err := s3.NewPresignClient(presignClient).PresignGetObject(
		ctx,
		&s3.GetObjectInput{
			Bucket: aws.String(e.bucket),
			Key:    aws.String(key),
		},
		s3.WithPresignExpires(DownloadLinkTTL),
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate download link: %w", err)
	}

	if prefix != "" {
		signedURL, parseErr := url.Parse(out.URL)
		if parseErr != nil {
			return "", fmt.Errorf("failed to parse presigned url: %w", parseErr)
		}
		signedURL.Path = prefix + signedURL.Path
		return signedURL.String(), nil
	}
	return out.URL, nil
}

package media

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/portfolio/internal/telemetry/metrics"
	"github.com/2beens/portfolio/internal/telemetry/tracing"
)

const (
	presignUploadTTL = 15 * time.Minute
	urlCacheSize     = 8 * 1024 * 1024
)

//go:generate mockgen -source=$GOFILE -destination=store_mocks_test.go -package=media

type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

type S3ClientParams struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	HTTPClient      *http.Client
}

// NewS3Client builds the object store client. Without explicit keys the
// default AWS chain is used, so AWS_* env vars keep working.
func NewS3Client(ctx context.Context, params S3ClientParams) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(params.Region),
	}
	if params.HTTPClient != nil {
		opts = append(opts, awsconfig.WithHTTPClient(params.HTTPClient))
	}
	if params.AccessKeyID != "" && params.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(params.AccessKeyID, params.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if params.Endpoint != "" {
			o.BaseEndpoint = aws.String(params.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

type StoreParams struct {
	Bucket     string
	CDNBaseURL string
	Metrics    *metrics.Manager
}

type UploadRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Folder      string `json:"folder"`
}

type PresignedUpload struct {
	UploadURL string `json:"upload_url"`
	Key       string `json:"key"`
	PublicURL string `json:"public_url"`
}

type UploadResult struct {
	Key       string `json:"key"`
	PublicURL string `json:"public_url"`
}

// Store puts media into the bucket and hands out URLs for it.
type Store struct {
	objects    objectAPI
	presigner  presigner
	bucket     string
	cdnBaseURL string
	urlCache   *freecache.Cache
	metrics    *metrics.Manager
}

func NewStore(objects objectAPI, presigner presigner, params StoreParams) *Store {
	return &Store{
		objects:    objects,
		presigner:  presigner,
		bucket:     params.Bucket,
		cdnBaseURL: strings.TrimRight(params.CDNBaseURL, "/"),
		urlCache:   freecache.NewCache(urlCacheSize),
		metrics:    params.Metrics,
	}
}

// PublicURL is where the object is served from through the CDN.
func (s *Store) PublicURL(key string) string {
	return s.cdnBaseURL + "/" + key
}

// ResolveReadURL returns a presigned GET url for the stored key, valid for ttl.
// It never fails: empty keys stay empty, absolute urls are returned as they
// are and if signing fails the raw key is returned.
func (s *Store) ResolveReadURL(ctx context.Context, key string, ttl time.Duration) string {
	if key == "" {
		return ""
	}
	if strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		return key
	}

	cacheKey := []byte(strconv.FormatInt(int64(ttl.Seconds()), 10) + "|" + key)
	if cached, err := s.urlCache.Get(cacheKey); err == nil {
		s.countCache("hit")
		return string(cached)
	}
	s.countCache("miss")

	ctx, span := tracing.GlobalTracer.Start(ctx, "mediaStore.resolveReadURL")
	span.SetAttributes(attribute.String("key", key))
	defer span.End()

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		log.Warnf("presign read url for [%s]: %s", key, err)
		span.RecordError(err)
		return key
	}

	// cached for half the ttl, so a cached url always has time left
	if expireSeconds := int(ttl.Seconds() / 2); expireSeconds > 0 {
		if err := s.urlCache.Set(cacheKey, []byte(req.URL), expireSeconds); err != nil {
			log.Debugf("cache read url for [%s]: %s", key, err)
		}
	}

	return req.URL
}

// PresignUpload lets the browser PUT a file straight into the bucket.
func (s *Store) PresignUpload(ctx context.Context, req UploadRequest) (*PresignedUpload, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "mediaStore.presignUpload")
	defer span.End()

	if err := ValidateContentType(req.ContentType); err != nil {
		return nil, err
	}
	folder, err := NormalizeFolder(req.Folder)
	if err != nil {
		return nil, err
	}

	key := ObjectKey(folder, req.Filename)
	span.SetAttributes(attribute.String("key", key))

	presigned, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(req.ContentType),
	}, s3.WithPresignExpires(presignUploadTTL))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("presign upload: %w", err)
	}

	if s.metrics != nil {
		s.metrics.CounterUploads.WithLabelValues("presign").Inc()
	}

	return &PresignedUpload{
		UploadURL: presigned.URL,
		Key:       key,
		PublicURL: s.PublicURL(key),
	}, nil
}

// Upload stores data received by the server itself.
func (s *Store) Upload(ctx context.Context, data []byte, filename, contentType, folder string) (*UploadResult, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "mediaStore.upload")
	defer span.End()

	if err := ValidateContentType(contentType); err != nil {
		return nil, err
	}
	folder, err := NormalizeFolder(folder)
	if err != nil {
		return nil, err
	}
	if len(data) > MaxUploadSize {
		return nil, ErrFileTooLarge
	}

	key := ObjectKey(folder, filename)
	span.SetAttributes(attribute.String("key", key), attribute.Int("size", len(data)))

	if _, err := s.objects.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	}); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("put object [%s]: %w", key, err)
	}

	if s.metrics != nil {
		s.metrics.CounterUploads.WithLabelValues("server").Inc()
		s.metrics.HistogramUploadSize.Observe(float64(len(data)))
	}

	return &UploadResult{
		Key:       key,
		PublicURL: s.PublicURL(key),
	}, nil
}

func (s *Store) countCache(result string) {
	if s.metrics != nil {
		s.metrics.CounterMediaURLCache.WithLabelValues(result).Inc()
	}
}

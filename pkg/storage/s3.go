package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Adapter implements Provider over any S3-compatible object store with
// separate public and private buckets. Resource files live in the private
// bucket and are only reachable through signed URLs; everything else goes
// to the public bucket with a public-read ACL.
type S3Adapter struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	publicBucket  string
	privateBucket string
	publicBaseURL string
}

// NewS3 creates an S3 adapter. Configuration completeness is checked by
// the factory before this runs; cfg is assumed fully populated.
func NewS3(cfg S3Config) (*S3Adapter, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, WrapError(ErrCodeInvalidConfig, "load aws config", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = cfg.PathStyle
	})

	return &S3Adapter{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		publicBucket:  cfg.PublicBucket,
		privateBucket: cfg.PrivateBucket,
		publicBaseURL: strings.TrimRight(cfg.PublicBucketURL, "/"),
	}, nil
}

// bucketFor selects the bucket by category: resources are private,
// everything else is public.
func (a *S3Adapter) bucketFor(category FileCategory) string {
	if category == CategoryResource {
		return a.privateBucket
	}
	return a.publicBucket
}

// prefixFor maps a category to its key prefix.
func prefixFor(category FileCategory) string {
	switch category {
	case CategoryResource:
		return "resources"
	case CategoryPreview:
		return "previews"
	case CategoryAvatar:
		return "avatars"
	default:
		return "misc"
	}
}

func (a *S3Adapter) Upload(ctx context.Context, input *UploadInput) (*UploadResult, error) {
	if len(input.Data) == 0 {
		return nil, NewError(ErrCodeUploadFailed, "empty file data")
	}

	objectName, err := newObjectName(input.ContentType, input.Filename)
	if err != nil {
		return nil, err
	}
	key := buildKey(prefixFor(input.Category), input.UserID, objectName)

	putInput := &s3.PutObjectInput{
		Bucket:        aws.String(a.bucketFor(input.Category)),
		Key:           aws.String(key),
		Body:          bytes.NewReader(input.Data),
		ContentType:   aws.String(input.ContentType),
		ContentLength: aws.Int64(int64(len(input.Data))),
	}
	if len(input.Metadata) > 0 {
		putInput.Metadata = input.Metadata
	}
	if input.Category.PubliclyReadable() {
		putInput.ACL = types.ObjectCannedACLPublicRead
	}

	if _, err := a.client.PutObject(ctx, putInput); err != nil {
		var noBucket *types.NoSuchBucket
		if errors.As(err, &noBucket) {
			return nil, WrapError(ErrCodeBucketNotFound, "put object", err)
		}
		return nil, WrapError(ErrCodeUploadFailed, "put object", err)
	}

	result := &UploadResult{
		Key:         key,
		Size:        int64(len(input.Data)),
		ContentType: input.ContentType,
	}
	if input.Category.PubliclyReadable() {
		result.PublicURL = a.PublicURL(key)
	}
	return result, nil
}

// SignedURL always targets the private bucket; it is the only operation
// allowed to read from it.
func (a *S3Adapter) SignedURL(ctx context.Context, key string, opts *SignedURLOptions) (string, error) {
	expiry := DefaultSignedURLExpiry
	var disposition *string
	if opts != nil {
		if opts.ExpiresIn > 0 {
			expiry = opts.ExpiresIn
		}
		if opts.DownloadFilename != "" {
			disposition = aws.String(fmt.Sprintf("attachment; filename=%q", url.PathEscape(opts.DownloadFilename)))
		}
	}

	presigned, err := a.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket:                     aws.String(a.privateBucket),
		Key:                        aws.String(key),
		ResponseContentDisposition: disposition,
	}, func(po *s3.PresignOptions) {
		po.Expires = expiry
	})
	if err != nil {
		return "", WrapError(ErrCodeSignedURLFailed, "presign get object", err)
	}
	return presigned.URL, nil
}

// PublicURL joins the configured base URL and the key. The base is stored
// with its trailing slash trimmed, so concatenation can never produce a
// double slash.
func (a *S3Adapter) PublicURL(key string) string {
	return a.publicBaseURL + "/" + key
}

func (a *S3Adapter) Delete(ctx context.Context, key string, category FileCategory) error {
	// S3 DeleteObject succeeds for missing keys, which is exactly the
	// idempotency compensation logic relies on.
	if _, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.bucketFor(category)),
		Key:    aws.String(key),
	}); err != nil {
		return WrapError(ErrCodeDeleteFailed, "delete object", err)
	}
	return nil
}

func (a *S3Adapter) Exists(ctx context.Context, key string, category FileCategory) (bool, error) {
	_, err := a.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(a.bucketFor(category)),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, WrapError(ErrCodeDownloadFailed, "head object", err)
	}
	return true, nil
}

func (a *S3Adapter) GetFile(ctx context.Context, key string, category FileCategory) ([]byte, error) {
	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucketFor(category)),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, NewError(ErrCodeFileNotFound, fmt.Sprintf("file not found: %s", key))
		}
		return nil, WrapError(ErrCodeDownloadFailed, "get object", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, WrapError(ErrCodeDownloadFailed, "read object body", err)
	}
	return data, nil
}

func (a *S3Adapter) IsLocal() bool {
	return false
}

// isNotFound recognizes the backend's "no such object" answers. HeadObject
// reports types.NotFound while GetObject reports types.NoSuchKey; only
// these translate to a negative answer, everything else propagates.
func isNotFound(err error) bool {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	return errors.As(err, &notFound) || errors.As(err, &noSuchKey)
}

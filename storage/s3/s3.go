package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/william251082/fileupload/logger"
	"github.com/william251082/fileupload/security"
	"github.com/william251082/fileupload/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderS3, func(ctx context.Context, cfg storage.Config, log *logger.Logger) (storage.Backend, error) {
		return New(ctx, OptionsFrom(cfg), log)
	})
}

// MaxPresignTTL is the longest expiry SigV4 accepts.
const MaxPresignTTL = 7 * 24 * time.Hour

// Backend stores blobs as objects in a single bucket.
type Backend struct {
	client    *awss3.Client
	uploader  *manager.Uploader
	presigner *awss3.PresignClient
	bucket    string
	log       *logger.Logger
}

var (
	_ storage.Backend   = (*Backend)(nil)
	_ storage.Presigner = (*Backend)(nil)
)

// New loads the AWS configuration chain and builds a backend for opts.Bucket.
// Static credentials take precedence when both keys are set.
func New(ctx context.Context, opts Options, log *logger.Logger) (*Backend, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
		// S3-compatible servers often reject trailing checksums.
		awsconfig.WithRequestChecksumCalculation(aws.RequestChecksumCalculationWhenRequired),
		awsconfig.WithResponseChecksumValidation(aws.ResponseChecksumValidationWhenRequired),
	}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}
	tlsOpts, err := tlsLoadOptions(opts.TLS)
	if err != nil {
		return nil, fmt.Errorf("s3: %w", err)
	}
	loadOpts = append(loadOpts, tlsOpts...)

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.ForcePathStyle
	})
	return NewFromClient(client, opts, log), nil
}

// tlsLoadOptions applies cfg through a buildable client so the SDK can still
// layer its own transport options on top. The configured CA is passed as the
// custom bundle, which takes precedence over AWS_CA_BUNDLE.
func tlsLoadOptions(cfg security.TLSConfig) ([]func(*awsconfig.LoadOptions) error, error) {
	tlsCfg, err := cfg.Build()
	if err != nil || tlsCfg == nil {
		return nil, err
	}
	client := awshttp.NewBuildableClient().WithTransportOptions(func(tr *http.Transport) {
		tr.TLSClientConfig = tlsCfg.Clone()
	})
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithHTTPClient(client)}

	bundle, err := cfg.CABundle()
	if err != nil {
		return nil, err
	}
	if bundle != nil {
		loadOpts = append(loadOpts, awsconfig.WithCustomCABundle(bytes.NewReader(bundle)))
	}
	return loadOpts, nil
}

// NewFromClient wraps an existing client.
func NewFromClient(client *awss3.Client, opts Options, log *logger.Logger) *Backend {
	partSize := opts.PartSize
	if partSize < manager.MinUploadPartSize {
		partSize = manager.MinUploadPartSize
	}
	return &Backend{
		client: client,
		uploader: manager.NewUploader(client, func(u *manager.Uploader) {
			u.PartSize = partSize
			u.LeavePartsOnError = false
		}),
		presigner: awss3.NewPresignClient(client),
		bucket:    opts.Bucket,
		log:       log,
	}
}

// Write streams r to the bucket. Bodies smaller than one part go up as a
// single PutObject; larger ones use a multipart upload that is aborted when
// the reader fails, so no object becomes visible under key.
func (b *Backend) Write(ctx context.Context, key string, r io.Reader) (int64, error) {
	if err := storage.ValidateKey(key); err != nil {
		return 0, err
	}
	cr := &storage.CountingReader{R: r}
	_, err := b.uploader.Upload(ctx, &awss3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
		Body:   cr,
	})
	if err != nil {
		return cr.N, &storage.Error{Op: "write", Key: key, Err: err}
	}
	b.log.Debug("object uploaded", map[string]interface{}{logger.FieldStorageKey: key, "bytes": cr.N})
	return cr.N, nil
}

func (b *Backend) Read(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := storage.ValidateKey(key); err != nil {
		return nil, err
	}
	out, err := b.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, &storage.Error{Op: "read", Key: key, Err: translate(err)}
	}
	return out.Body, nil
}

// Delete reports ErrNotFound for missing objects. DeleteObject itself
// succeeds on absent keys, so existence is checked first.
func (b *Backend) Delete(ctx context.Context, key string) error {
	exists, err := b.Exists(ctx, key)
	if err != nil {
		return err
	}
	if !exists {
		return &storage.Error{Op: "delete", Key: key, Err: storage.ErrNotFound}
	}
	_, err = b.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return &storage.Error{Op: "delete", Key: key, Err: translate(err)}
	}
	return nil
}

func (b *Backend) Exists(ctx context.Context, key string) (bool, error) {
	if err := storage.ValidateKey(key); err != nil {
		return false, err
	}
	_, err := b.client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if errors.Is(translate(err), storage.ErrNotFound) {
			return false, nil
		}
		return false, &storage.Error{Op: "head", Key: key, Err: err}
	}
	return true, nil
}

// PresignGet signs a GET for key. The URL carries X-Amz-Expires and is
// rejected by the object store once the TTL has passed.
func (b *Backend) PresignGet(ctx context.Context, key string, opts storage.PresignOptions) (*storage.PresignedURL, error) {
	if err := storage.ValidateKey(key); err != nil {
		return nil, err
	}
	if opts.TTL <= 0 || opts.TTL > MaxPresignTTL {
		return nil, &storage.Error{Op: "presign", Key: key, Err: fmt.Errorf("ttl %s out of range (0, %s]", opts.TTL, MaxPresignTTL)}
	}

	input := &awss3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	}
	if opts.ContentType != "" {
		input.ResponseContentType = aws.String(opts.ContentType)
	}
	if opts.ContentDisposition != "" {
		input.ResponseContentDisposition = aws.String(opts.ContentDisposition)
	}

	signedAt := time.Now()
	req, err := b.presigner.PresignGetObject(ctx, input, awss3.WithPresignExpires(opts.TTL))
	if err != nil {
		return nil, &storage.Error{Op: "presign", Key: key, Err: err}
	}
	return &storage.PresignedURL{URL: req.URL, ExpiresAt: signedAt.Add(opts.TTL)}, nil
}

func translate(err error) error {
	var noKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noKey) || errors.As(err, &notFound) {
		return storage.ErrNotFound
	}
	return err
}

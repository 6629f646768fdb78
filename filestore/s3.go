package filestore

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
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3 stores files in an AWS S3 bucket. Region and credentials come from the
// environment unless overridden with options.
type S3 struct {
	bucketName string
	client     *s3.Client
	uploader   *manager.Uploader
}

var _ Interface = (*S3)(nil)

type s3Config struct {
	endpoint  string
	region    string
	accessKey string
	secretKey string
}

// S3Option overrides a setting taken from the environment.
type S3Option func(*s3Config) error

func getOpts(opts []S3Option) (s3Config, error) {
	var cfg s3Config
	for i, opt := range opts {
		if err := opt(&cfg); err != nil {
			return s3Config{}, fmt.Errorf("option %d error: %s", i, err)
		}
	}
	return cfg, nil
}

// WithEndpoint sends requests to ep instead of AWS, using path style bucket
// addressing.
func WithEndpoint(ep string) S3Option {
	return func(c *s3Config) error {
		c.endpoint = ep
		return nil
	}
}

func WithRegion(region string) S3Option {
	return func(c *s3Config) error {
		c.region = region
		return nil
	}
}

// WithKeys sets static credentials. Both keys must be set for them to be
// used.
func WithKeys(accessKey, secretKey string) S3Option {
	return func(c *s3Config) error {
		c.accessKey = accessKey
		c.secretKey = secretKey
		return nil
	}
}

func NewS3(bucketName string, options ...S3Option) (*S3, error) {
	if bucketName == "" {
		return nil, errors.New("s3 filestore requires bucket name")
	}
	opts, err := getOpts(options)
	if err != nil {
		return nil, err
	}

	var cfgOpts []func(*awsconfig.LoadOptions) error
	if opts.region != "" {
		cfgOpts = append(cfgOpts, awsconfig.WithRegion(opts.region))
	}
	if opts.endpoint != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				return aws.Endpoint{URL: opts.endpoint}, nil
			})
		cfgOpts = append(cfgOpts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}
	if opts.accessKey != "" && opts.secretKey != "" {
		cfgOpts = append(cfgOpts, awsconfig.WithCredentialsProvider(credentials.StaticCredentialsProvider{
			Value: aws.Credentials{
				AccessKeyID:     opts.accessKey,
				SecretAccessKey: opts.secretKey,
				Source:          "archive configuration",
			},
		}))
	}

	awscfg, err := awsconfig.LoadDefaultConfig(context.Background(), cfgOpts...)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awscfg, func(o *s3.Options) {
		o.UsePathStyle = opts.endpoint != ""
	})
	return &S3{
		bucketName: bucketName,
		client:     client,
		uploader:   manager.NewUploader(client),
	}, nil
}

// isNotFound reports whether err is one of the ways S3 says a key does not
// exist.
func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	var apiErr smithy.APIError
	switch {
	case errors.As(err, &nsk), errors.As(err, &nf):
		return true
	case errors.As(err, &apiErr):
		return apiErr.ErrorCode() == "NotFound"
	}
	return false
}

func (s *S3) Delete(ctx context.Context, relPath string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(relPath),
	})
	return err
}

func (s *S3) Get(ctx context.Context, relPath string) (*File, io.ReadCloser, error) {
	rsp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(relPath),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil, ErrNotFound
		}
		log.Errorw("Failed to get object", "key", relPath, "err", err)
		return nil, nil, err
	}
	file := &File{
		Path: relPath,
		Size: rsp.ContentLength,
	}
	if rsp.LastModified != nil {
		file.Modified = *rsp.LastModified
	}
	return file, eofReadCloser{rsp.Body}, nil
}

func (s *S3) Head(ctx context.Context, relPath string) (*File, error) {
	rsp, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(relPath),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		log.Errorw("Failed to head object", "key", relPath, "err", err)
		return nil, err
	}
	file := &File{
		Path: relPath,
		Size: rsp.ContentLength,
	}
	if rsp.LastModified != nil {
		file.Modified = *rsp.LastModified
	}
	return file, nil
}

func (s *S3) List(ctx context.Context, relPath string, recursive bool) (<-chan *File, <-chan error) {
	files := make(chan *File)
	errs := make(chan error, 1)

	go func() {
		defer close(files)
		defer close(errs)

		req := &s3.ListObjectsV2Input{
			Bucket: aws.String(s.bucketName),
			Prefix: aws.String(relPath),
		}
		for {
			rsp, err := s.client.ListObjectsV2(ctx, req)
			if err != nil {
				errs <- err
				return
			}
			for _, obj := range rsp.Contents {
				key := aws.ToString(obj.Key)
				if strings.HasSuffix(key, "/") {
					continue
				}
				if !recursive {
					if dir, _ := path.Split(strings.TrimPrefix(key, relPath)); dir != "" {
						continue
					}
				}
				file := &File{Path: key, Size: obj.Size}
				if obj.LastModified != nil {
					file.Modified = *obj.LastModified
				}
				select {
				case files <- file:
				case <-ctx.Done():
					errs <- ctx.Err()
					return
				}
			}
			if !rsp.IsTruncated {
				return
			}
			req.ContinuationToken = rsp.NextContinuationToken
		}
	}()

	return files, errs
}

func (s *S3) Put(ctx context.Context, relPath string, reader io.Reader) (*File, error) {
	if reader == nil {
		reader = strings.NewReader("")
	}
	rsp, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(relPath),
		Body:        reader,
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		log.Errorw("Failed to put object", "key", relPath, "err", err)
		return nil, err
	}
	file, err := s.Head(ctx, relPath)
	if err != nil {
		return nil, err
	}
	file.URL = rsp.Location
	return file, nil
}

func (s *S3) Type() string {
	return "s3"
}

// eofReadCloser holds back io.EOF until a read returns no data, for readers
// that do not expect data and EOF together.
type eofReadCloser struct {
	r io.ReadCloser
}

func (w eofReadCloser) Read(p []byte) (int, error) {
	n, err := w.r.Read(p)
	if n != 0 && errors.Is(err, io.EOF) {
		return n, nil
	}
	return n, err
}

func (w eofReadCloser) Close() error {
	return w.r.Close()
}

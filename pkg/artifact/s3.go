package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	pkgerrors "github.com/absmach/fedfraud/pkg/errors"
	"github.com/absmach/fedfraud/pkg/fl"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type S3Config struct {
	Bucket          string `env:"BUCKET"            envDefault:""`
	Prefix          string `env:"PREFIX"            envDefault:"models/"`
	Region          string `env:"REGION"            envDefault:"us-east-1"`
	Endpoint        string `env:"ENDPOINT"          envDefault:""`
	AccessKeyID     string `env:"ACCESS_KEY_ID"     envDefault:""`
	SecretAccessKey string `env:"SECRET_ACCESS_KEY" envDefault:""`
	UsePathStyle    bool   `env:"USE_PATH_STYLE"    envDefault:"false"`
}

// ObjectAPI is the subset of the S3 client the store uses.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type s3Store struct {
	client ObjectAPI
	bucket string
	prefix string
}

// NewS3Store builds an S3 client from cfg. Static credentials are used when
// set, otherwise the default AWS credential chain applies.
func NewS3Store(ctx context.Context, cfg S3Config) (Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.UsePathStyle
		})
	}

	return NewS3StoreWithClient(s3.NewFromConfig(awsCfg, s3Opts...), cfg.Bucket, cfg.Prefix), nil
}

func NewS3StoreWithClient(client ObjectAPI, bucket, prefix string) Store {
	return &s3Store{client: client, bucket: bucket, prefix: prefix}
}

func (s *s3Store) Save(ctx context.Context, name string, m fl.BestModel) error {
	if name == "" {
		return pkgerrors.ErrEmptyKey
	}
	data, err := Encode(m)
	if err != nil {
		return err
	}

	if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(name)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/cbor"),
	}); err != nil {
		return fmt.Errorf("S3 put object failed: %w", err)
	}

	return nil
}

func (s *s3Store) Load(ctx context.Context, name string) (fl.BestModel, error) {
	if name == "" {
		return fl.BestModel{}, pkgerrors.ErrEmptyKey
	}

	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return fl.BestModel{}, fmt.Errorf("%w: %s", pkgerrors.ErrNotFound, name)
		}

		return fl.BestModel{}, fmt.Errorf("S3 get object failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fl.BestModel{}, fmt.Errorf("S3 read body failed: %w", err)
	}

	return Decode(data)
}

func (s *s3Store) key(name string) string {
	return s.prefix + name + Extension
}

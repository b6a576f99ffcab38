package objectstore

import (
	"context"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/dmitrijs2005/photogallery/internal/server/awsconf"
)

// S3API is the part of *s3.Client the store uses.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// newS3ClientFromConfig is a seam for testing s3.NewFromConfig.
var newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) S3API {
	return s3.NewFromConfig(cfg, optFns...)
}

type S3Options struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	// PublicBaseURL replaces the virtual-hosted bucket URL when set, e.g.
	// for a CDN in front of the bucket.
	PublicBaseURL string
}

// S3Store uploads objects with a public-read ACL.
type S3Store struct {
	client  S3API
	opts    S3Options
	now     func() time.Time
	baseURL string
}

func NewS3Store(ctx context.Context, o S3Options) (*S3Store, error) {
	cfg, err := awsconf.Load(ctx, o.Region, o.AccessKey, o.SecretKey)
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(opts *s3.Options) {
		if o.Endpoint != "" {
			opts.BaseEndpoint = aws.String(o.Endpoint)
			opts.UsePathStyle = true
		}
	})
	return newS3Store(client, o), nil
}

func newS3Store(client S3API, o S3Options) *S3Store {
	base := o.PublicBaseURL
	switch {
	case base != "":
	case o.Endpoint != "":
		base = strings.TrimRight(o.Endpoint, "/") + "/" + o.Bucket
	default:
		base = "https://" + o.Bucket + ".s3." + o.Region + ".amazonaws.com"
	}
	return &S3Store{client: client, opts: o, now: time.Now, baseURL: strings.TrimRight(base, "/")}
}

func (s *S3Store) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	key := NewKey(s.now().UTC(), filename)

	in := &s3.PutObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(key),
		Body:   r,
		ACL:    types.ObjectCannedACLPublicRead,
	}
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		in.ContentType = aws.String(ct)
	}

	if _, err := s.client.PutObject(ctx, in); err != nil {
		return "", storageError("s3 put "+key, err)
	}
	return s.baseURL + "/" + key, nil
}

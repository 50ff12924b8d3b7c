// Copyright © 2021 One Concern

// Package sthree implements resources stored in S3 buckets, addressed
// by s3://bucket/key URIs. It works against AWS as well as
// S3-compatible endpoints such as minio.
package sthree

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/oneconcern/butleruri/pkg/resource"
	"github.com/oneconcern/butleruri/pkg/resource/status"
	"github.com/oneconcern/butleruri/pkg/uri"
	"go.uber.org/zap"
)

func init() {
	resource.Register(uri.SchemeS3, func(u uri.URI, o *resource.Options) (resource.Resource, error) {
		return New(u, AWSConfig(o.AWSConfig), Logger(o.Logger), TmpDir(o.TmpDir))
	})
}

// Option is a functor to pass optional parameters to this backend
type Option func(*s3FS)

// AWSConfig overrides the AWS configuration, e.g. for static
// credentials or a custom endpoint
func AWSConfig(cfg *aws.Config) Option {
	return func(fs *s3FS) {
		fs.awsConfig = cfg
	}
}

// Logger specifies a logger for this backend
func Logger(logger *zap.Logger) Option {
	return func(fs *s3FS) {
		if logger != nil {
			fs.l = logger
		}
	}
}

// TmpDir overrides the directory for scratch copies
func TmpDir(dir string) Option {
	return func(fs *s3FS) {
		fs.tmpDir = dir
	}
}

// New creates an S3 resource for the given URI
func New(u uri.URI, opts ...Option) (resource.Resource, error) {
	fs := &s3FS{
		u:      u,
		bucket: u.Netloc(),
		l:      zap.NewNop(),
	}
	for _, apply := range opts {
		apply(fs)
	}
	if !u.IsRoot() {
		fs.key = u.RelativeToPathRoot()
	}

	client, err := getClient(fs.awsConfig)
	if err != nil {
		return nil, err
	}
	fs.s3 = client
	fs.uploader = s3manager.NewUploaderWithClient(client)
	fs.downloader = s3manager.NewDownloaderWithClient(client)
	return fs, nil
}

type s3FS struct {
	u          uri.URI
	bucket     string
	key        string
	awsConfig  *aws.Config
	s3         *s3.S3
	uploader   *s3manager.Uploader
	downloader *s3manager.Downloader
	l          *zap.Logger
	tmpDir     string
}

func (s *s3FS) String() string { return s.u.String() }

func (s *s3FS) URI() uri.URI { return s.u }

func (s *s3FS) Exists(ctx context.Context) (bool, error) {
	if s.u.IsRoot() {
		// only the bucket matters, the path is irrelevant
		return s.bucketExists(ctx)
	}
	_, err := s.s3.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		err = toSentinelErrors(err)
		if filterErrNotExists(err) == nil {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *s3FS) bucketExists(ctx context.Context) (bool, error) {
	_, err := s.s3.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		err = toSentinelErrors(err)
		if filterErrNotExists(err) == nil {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *s3FS) Size(ctx context.Context) (int64, error) {
	if s.u.IsDir() {
		return 0, nil
	}
	head, err := s.s3.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return 0, toSentinelErrors(err)
	}
	return aws.Int64Value(head.ContentLength), nil
}

func (s *s3FS) Open(ctx context.Context) (io.ReadCloser, error) {
	obj, err := s.s3.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, toSentinelErrors(err)
	}
	return obj.Body, nil
}

func (s *s3FS) Read(ctx context.Context) ([]byte, error) {
	rdr, err := s.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rdr.Close()
	return io.ReadAll(rdr)
}

func (s *s3FS) Write(ctx context.Context, data []byte, overwrite bool) error {
	if !overwrite {
		exists, err := s.Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			return status.ErrExists.Wrap(fmt.Errorf("remote resource %s exists and overwrite has been disabled", s.u))
		}
	}
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
		Body:   bytes.NewReader(data),
	})
	return toSentinelErrors(err)
}

func (s *s3FS) Remove(ctx context.Context) error {
	// the S3 API acknowledges deletions with HTTP 204 whether the key
	// existed or not
	_, err := s.s3.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	return toSentinelErrors(err)
}

func (s *s3FS) Mkdir(ctx context.Context) error {
	if !s.u.IsDir() {
		return status.ErrNotDirectory.Wrap(fmt.Errorf("can not create a directory for file-like URI %s", s.u))
	}
	exists, err := s.bucketExists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return status.ErrNotExists.Wrap(fmt.Errorf("bucket %s does not exist for %s", s.bucket, s.u))
	}
	// no key is written for the top level of a bucket
	if s.u.IsRoot() {
		return nil
	}
	_, err = s.s3.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
		Body:   bytes.NewReader(nil),
	})
	return toSentinelErrors(err)
}

func (s *s3FS) AsLocal(ctx context.Context) (*resource.Local, error) {
	tmp, err := resource.TempFile(s.u, s.tmpDir)
	if err != nil {
		return nil, err
	}
	_, err = s.downloader.DownloadWithContext(ctx, tmp, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, toSentinelErrors(err)
	}
	if err = tmp.Close(); err != nil {
		return nil, err
	}
	return &resource.Local{Path: tmp.Name(), Temporary: true}, nil
}

var transferModes = []resource.TransferMode{
	resource.TransferAuto,
	resource.TransferCopy,
	resource.TransferMove,
}

// TransferFrom transfers the source resource into the bucket. Another
// S3 source is copied server side, anything else is staged through a
// local file.
func (s *s3FS) TransferFrom(ctx context.Context, src resource.Resource, mode resource.TransferMode, overwrite bool) error {
	if !mode.In(transferModes...) {
		return status.ErrUnsupportedTransfer.Wrap(fmt.Errorf("mode %q for scheme %q", mode, s.u.Scheme()))
	}
	if mode == resource.TransferAuto {
		mode = resource.TransferCopy
	}

	if !overwrite {
		exists, err := s.Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			return status.ErrExists.Wrap(fmt.Errorf("destination %s already exists", s.u))
		}
	}

	s.l.Debug("transferring",
		zap.Stringer("source", src.URI()),
		zap.String("mode", string(mode)),
		zap.Bool("overwrite", overwrite))

	if other, sameScheme := src.(*s3FS); sameScheme {
		_, err := s.s3.CopyObjectWithContext(ctx, &s3.CopyObjectInput{
			CopySource: aws.String(url.PathEscape(other.bucket + "/" + other.key)),
			Bucket:     aws.String(s.bucket),
			Key:        aws.String(s.key),
		})
		if err != nil {
			return toSentinelErrors(err)
		}
	} else {
		if err := s.uploadLocal(ctx, src); err != nil {
			return err
		}
	}

	if mode == resource.TransferMove {
		return src.Remove(ctx)
	}
	return nil
}

func (s *s3FS) uploadLocal(ctx context.Context, src resource.Resource) error {
	local, err := src.AsLocal(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = local.Release()
	}()

	f, err := os.Open(local.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
		Body:   f,
	})
	return toSentinelErrors(err)
}

// Walk visits the bucket as if keys were laid out in directories,
// matching the delimited listing the S3 API provides.
func (s *s3FS) Walk(ctx context.Context, fn resource.WalkFunc) error {
	if !s.u.IsDir() && !s.u.IsRoot() {
		return status.ErrNotDirectory.Wrap(fmt.Errorf("can not walk non-directory URI %s", s.u))
	}
	return s.walk(ctx, s.u, fn)
}

func (s *s3FS) walk(ctx context.Context, dir uri.URI, fn resource.WalkFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	prefix := dir.RelativeToPathRoot()
	if dir.IsRoot() {
		prefix = ""
	}

	var dirs, files []string
	err := s.s3.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	}, func(page *s3.ListObjectsV2Output, more bool) bool {
		for _, cp := range page.CommonPrefixes {
			dirs = append(dirs, strings.TrimPrefix(aws.StringValue(cp.Prefix), prefix))
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.StringValue(obj.Key), prefix)
			// skip the marker key of the directory itself
			if name != "" {
				files = append(files, name)
			}
		}
		return true
	})
	if err != nil {
		return toSentinelErrors(err)
	}

	if err = fn(dir, dirs, files); err != nil {
		return err
	}
	for _, d := range dirs {
		if err = s.walk(ctx, dir.Join(d), fn); err != nil {
			return err
		}
	}
	return nil
}

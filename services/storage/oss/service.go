package osstorage

import (
	"bytes"
	"context"
	"io/ioutil"
	"mime"
	"path/filepath"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
)

type service struct {
	bucket *oss.Bucket
}

var _ core.FileStorage = (*service)(nil)

func NewService(conf *core.Config) (core.FileStorage, error) {
	client, err := oss.New(conf.Storage.Endpoint, conf.Storage.AccessKeyID, conf.Storage.AccessKeySecret)
	if err != nil {
		return nil, errors.Wrap(err, "oss.New")
	}
	bucket, err := client.Bucket(conf.Storage.Bucket)
	if err != nil {
		return nil, errors.Wrap(err, "oss.Bucket")
	}
	return &service{bucket: bucket}, nil
}

func (svc *service) Upload(ctx context.Context, path string, data []byte) error {
	opts := []oss.Option{oss.WithContext(ctx)}
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		opts = append(opts, oss.ContentType(ct))
	}
	if err := svc.bucket.PutObject(path, bytes.NewReader(data), opts...); err != nil {
		return core.NewTransientError(err, "uploading "+path)
	}
	return nil
}

func (svc *service) Download(ctx context.Context, path string) ([]byte, error) {
	body, err := svc.bucket.GetObject(path, oss.WithContext(ctx))
	if err != nil {
		return nil, core.NewTransientError(err, "downloading "+path)
	}
	defer body.Close()

	data, err := ioutil.ReadAll(body)
	if err != nil {
		return nil, errors.Wrap(err, "reading "+path)
	}
	return data, nil
}

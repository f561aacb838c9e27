package storage

import (
	"context"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"github.com/open-mmpa/functions/errors"
)

// GCSStore reads and writes objects in the project's Firebase storage bucket.
type GCSStore struct {
	bucket *gcs.BucketHandle
	name   string
}

func NewGCSStore(ctx context.Context, app *firebase.App, bucketName string) (*GCSStore, error) {
	client, err := app.Storage(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create storage client")
	}

	bucket, err := client.Bucket(bucketName)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open bucket %s", bucketName)
	}

	return &GCSStore{bucket: bucket, name: bucketName}, nil
}

func (s *GCSStore) Download(ctx context.Context, name string) ([]byte, error) {
	r, err := s.bucket.Object(name).NewReader(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open gs://%s/%s", s.name, name)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read gs://%s/%s", s.name, name)
	}
	return data, nil
}

func (s *GCSStore) Upload(ctx context.Context, name string, data []byte, contentType string) error {
	w := s.bucket.Object(name).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		w.Close()
		return errors.Wrapf(err, "failed to write gs://%s/%s", s.name, name)
	}
	if err := w.Close(); err != nil {
		return errors.Wrapf(err, "failed to finalize gs://%s/%s", s.name, name)
	}
	return nil
}

func (s *GCSStore) PublicURL(name string) string {
	return gcsPublicURL(s.name, name)
}

func (s *GCSStore) Bucket() string {
	return s.name
}

func gcsPublicURL(bucket, name string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, escapeObjectName(name))
}

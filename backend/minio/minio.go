// Package minio provides a workspace backend stored in MinIO or any
// S3-compatible object store reachable through the MinIO client.
//
// Keys are percent-encoded into object names under a root prefix, matching
// the layout of the s3 backend so workspaces can move between the two.
package minio

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/hupe1980/workfs/backend"
	"github.com/minio/minio-go/v7"
)

// Backend implements backend.Backend on a MinIO bucket.
type Backend struct {
	client *minio.Client
	bucket string
	prefix string
}

// New creates a MinIO backend. rootPrefix is prepended to all object names
// (e.g. "workspaces/user-42/").
func New(client *minio.Client, bucket, rootPrefix string) *Backend {
	return &Backend{
		client: client,
		bucket: bucket,
		prefix: rootPrefix,
	}
}

func (b *Backend) objectName(key string) string {
	return path.Join(b.prefix, url.PathEscape(key))
}

func isNotFound(err error) bool {
	errResp := minio.ToErrorResponse(err)
	return errResp.Code == "NoSuchKey" || errResp.Code == "NotFound"
}

// List returns all stored keys in lexicographic order.
func (b *Backend) List(ctx context.Context) ([]string, error) {
	var keys []string

	for obj := range b.client.ListObjects(ctx, b.bucket, minio.ListObjectsOptions{
		Prefix:    b.prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		name := strings.TrimPrefix(strings.TrimPrefix(obj.Key, b.prefix), "/")
		key, err := url.PathUnescape(name)
		if err != nil {
			// Foreign object under our prefix; skip it.
			continue
		}
		keys = append(keys, key)
	}

	sort.Strings(keys)
	return keys, nil
}

// Read returns the content stored under key.
func (b *Backend) Read(ctx context.Context, key string) (string, error) {
	obj, err := b.client.GetObject(ctx, b.bucket, b.objectName(key), minio.GetObjectOptions{})
	if err != nil {
		return "", err
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if isNotFound(err) {
			return "", backend.ErrNotFound
		}
		return "", err
	}
	return string(data), nil
}

// Write stores content under key.
func (b *Backend) Write(ctx context.Context, key, content string) error {
	data := []byte(content)
	_, err := b.client.PutObject(ctx, b.bucket, b.objectName(key),
		bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	return err
}

// Delete removes key. Deleting an absent key is not an error.
func (b *Backend) Delete(ctx context.Context, key string) error {
	err := b.client.RemoveObject(ctx, b.bucket, b.objectName(key), minio.RemoveObjectOptions{})
	if err != nil && isNotFound(err) {
		return nil
	}
	return err
}

// Clear removes every key under the root prefix.
func (b *Backend) Clear(ctx context.Context) error {
	keys, err := b.List(ctx)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := b.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

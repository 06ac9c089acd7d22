// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package fetch

import (
	"context"
	"encoding/hex"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/Oliver-2023/autoTest-sub000/errors"
	"github.com/Oliver-2023/autoTest-sub000/internal/logging"
)

// gsObject is the subset of storage.ObjectHandle used by GSClient.
type gsObject interface {
	Attrs(ctx context.Context) (*storage.ObjectAttrs, error)
	NewReader(ctx context.Context) (io.ReadCloser, error)
}

type realGSObject struct {
	obj *storage.ObjectHandle
}

func (o *realGSObject) Attrs(ctx context.Context) (*storage.ObjectAttrs, error) {
	return o.obj.Attrs(ctx)
}

func (o *realGSObject) NewReader(ctx context.Context) (io.ReadCloser, error) {
	return o.obj.NewReader(ctx)
}

// GSClient is a Client for gs:// URLs backed by the Cloud Storage API.
type GSClient struct {
	object func(bucket, path string) gsObject
	close  func() error
}

var _ Client = &GSClient{}

// NewGSClient creates a GSClient. If credsFile is empty, application
// default credentials are used.
func NewGSClient(ctx context.Context, credsFile string) (*GSClient, error) {
	var opts []option.ClientOption
	if credsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credsFile))
	}
	cl, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create storage client")
	}
	return &GSClient{
		object: func(bucket, path string) gsObject {
			return &realGSObject{cl.Bucket(bucket).Object(path)}
		},
		close: cl.Close,
	}, nil
}

func (c *GSClient) objectFor(gsURL string) (gsObject, error) {
	bucket, path, err := ParseGSURL(gsURL)
	if err != nil {
		return nil, err
	}
	return c.object(bucket, path), nil
}

// Open opens the object at gsURL.
func (c *GSClient) Open(ctx context.Context, gsURL string) (io.ReadCloser, error) {
	obj, err := c.objectFor(gsURL)
	if err != nil {
		return nil, err
	}
	logging.Debugf(ctx, "Opening %s", gsURL)
	r, err := obj.NewReader(ctx)
	if err == storage.ErrObjectNotExist {
		return nil, errors.Wrapf(os.ErrNotExist, "%s", gsURL)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", gsURL)
	}
	return r, nil
}

// Version returns the hex encoding of the object's ETag.
func (c *GSClient) Version(ctx context.Context, gsURL string) (string, error) {
	obj, err := c.objectFor(gsURL)
	if err != nil {
		return "", err
	}
	attrs, err := obj.Attrs(ctx)
	if err == storage.ErrObjectNotExist {
		return "", errors.Wrapf(os.ErrNotExist, "%s", gsURL)
	}
	if err != nil {
		return "", errors.Wrapf(err, "failed to get attributes of %s", gsURL)
	}
	if attrs.Etag == "" {
		return "", errors.Errorf("%s has no ETag", gsURL)
	}
	return hex.EncodeToString([]byte(attrs.Etag)), nil
}

// TearDown closes the underlying storage client.
func (c *GSClient) TearDown() error {
	if c.close == nil {
		return nil
	}
	return c.close()
}

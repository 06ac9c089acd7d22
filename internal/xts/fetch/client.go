// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package fetch downloads xTS bundles from Google Cloud Storage and HTTP
// servers.
package fetch

import (
	"context"
	"io"
	"net/url"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/Oliver-2023/autoTest-sub000/errors"
)

// Client downloads files by URL.
type Client interface {
	// Open opens the file at url. Callers must close the returned
	// io.ReadCloser. If the file does not exist, an error wrapping
	// os.ErrNotExist is returned.
	Open(ctx context.Context, url string) (io.ReadCloser, error)

	// Version returns a string identifying the content at url. Two
	// downloads with the same version have the same content. It is used as
	// a cache key and only contains characters safe in a file name.
	Version(ctx context.Context, url string) (string, error)

	// TearDown releases resources held by the client.
	TearDown() error
}

// ParseGSURL parses a Google Cloud Storage URL of the form
// gs://<bucket>/<path>. path is not prefixed with a slash.
func ParseGSURL(gsURL string) (bucket, path string, err error) {
	parsed, err := url.Parse(gsURL)
	if err != nil {
		return "", "", errors.Wrapf(err, "failed to parse %s", gsURL)
	}
	if parsed.Scheme != "gs" {
		return "", "", errors.Errorf("%s is not a GS URL", gsURL)
	}
	bucket = parsed.Host
	path = strings.TrimPrefix(parsed.Path, "/")
	if bucket == "" || path == "" {
		return "", "", errors.Errorf("%s lacks a bucket or an object path", gsURL)
	}
	return bucket, path, nil
}

// MultiClient dispatches requests to clients by URL scheme.
type MultiClient struct {
	clients map[string]Client
}

var _ Client = &MultiClient{}

// NewMultiClient returns a MultiClient. clients maps a URL scheme such as
// "gs" or "https" to the client serving it.
func NewMultiClient(clients map[string]Client) *MultiClient {
	return &MultiClient{clients: clients}
}

func (c *MultiClient) clientFor(rawURL string) (Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", rawURL)
	}
	cl, ok := c.clients[u.Scheme]
	if !ok {
		return nil, errors.Failf("unsupported scheme %q in %s", u.Scheme, rawURL)
	}
	return cl, nil
}

// Open opens url with the client registered for its scheme.
func (c *MultiClient) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	cl, err := c.clientFor(url)
	if err != nil {
		return nil, err
	}
	return cl.Open(ctx, url)
}

// Version returns the version of url reported by the client registered for
// its scheme.
func (c *MultiClient) Version(ctx context.Context, url string) (string, error) {
	cl, err := c.clientFor(url)
	if err != nil {
		return "", err
	}
	return cl.Version(ctx, url)
}

// TearDown tears down every underlying client once.
func (c *MultiClient) TearDown() error {
	schemes := maps.Keys(c.clients)
	slices.Sort(schemes)
	done := make(map[Client]bool)
	var firstErr error
	for _, s := range schemes {
		cl := c.clients[s]
		if done[cl] {
			continue
		}
		done[cl] = true
		firstErr = errors.Append(firstErr, cl.TearDown())
	}
	return firstErr
}

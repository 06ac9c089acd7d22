// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package fetch

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"
	"sync"

	"github.com/Oliver-2023/autoTest-sub000/errors"
)

// FakeClient is a Client serving files from memory, for unit tests.
type FakeClient struct {
	files map[string][]byte // URL -> content

	mu    sync.Mutex
	opens map[string]int
}

var _ Client = &FakeClient{}

// NewFakeClient constructs a FakeClient. files maps a URL to its content.
func NewFakeClient(files map[string][]byte) *FakeClient {
	return &FakeClient{files: files, opens: make(map[string]int)}
}

// Open returns the content registered for url.
func (c *FakeClient) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	data, ok := c.files[url]
	if !ok {
		return nil, errors.Wrapf(os.ErrNotExist, "%s", url)
	}
	c.mu.Lock()
	c.opens[url]++
	c.mu.Unlock()
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Version returns the MD5 hex digest of the content registered for url.
func (c *FakeClient) Version(ctx context.Context, url string) (string, error) {
	data, ok := c.files[url]
	if !ok {
		return "", errors.Wrapf(os.ErrNotExist, "%s", url)
	}
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:]), nil
}

// Opens returns how many times url was opened.
func (c *FakeClient) Opens(url string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opens[url]
}

// TearDown does nothing.
func (c *FakeClient) TearDown() error {
	return nil
}

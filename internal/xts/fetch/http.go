// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package fetch

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"net/http"
	"os"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/Oliver-2023/autoTest-sub000/errors"
	"github.com/Oliver-2023/autoTest-sub000/internal/logging"
)

const defaultHTTPRetries = 4

// HTTPClient is a Client for http:// and https:// URLs. Transient failures
// are retried with exponential backoff.
type HTTPClient struct {
	cl *retryablehttp.Client
}

var _ Client = &HTTPClient{}

// NewHTTPClient creates an HTTPClient. retries is the maximum number of
// retries per request; a negative value selects a default.
func NewHTTPClient(retries int) *HTTPClient {
	cl := retryablehttp.NewClient()
	cl.Logger = nil
	if retries >= 0 {
		cl.RetryMax = retries
	} else {
		cl.RetryMax = defaultHTTPRetries
	}
	cl.ErrorHandler = retryablehttp.PassthroughErrorHandler
	cl.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt > 0 {
			logging.Infof(req.Context(), "Retrying %s %s (attempt %d)", req.Method, req.URL, attempt+1)
		}
	}
	return &HTTPClient{cl: cl}
}

// Open downloads url.
func (c *HTTPClient) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create request for %s", url)
	}
	logging.Debugf(ctx, "Opening %s", url)
	res, err := c.cl.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get %s", url)
	}
	switch {
	case res.StatusCode == http.StatusNotFound:
		res.Body.Close()
		return nil, errors.Wrapf(os.ErrNotExist, "%s", url)
	case res.StatusCode != http.StatusOK:
		res.Body.Close()
		return nil, errors.Errorf("failed to get %s: %s", url, res.Status)
	}
	return res.Body, nil
}

// Version returns the MD5 hex digest of url. Servers hosting public bundles
// do not provide a stable content hash, and published bundle names are never
// reused.
func (c *HTTPClient) Version(ctx context.Context, url string) (string, error) {
	sum := md5.Sum([]byte(url))
	return hex.EncodeToString(sum[:]), nil
}

// TearDown closes idle connections.
func (c *HTTPClient) TearDown() error {
	c.cl.HTTPClient.CloseIdleConnections()
	return nil
}

// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package testingutil provides helpers shared by the generator and result
// processing code, most notably a polling loop with a fixed timeout.
package testingutil

import (
	"context"
	"time"

	"code.cloudfoundry.org/clock"

	"github.com/Oliver-2023/autoTest-sub000/errors"
)

const defaultPollInterval = 100 * time.Millisecond

// PollOptions controls Poll.
type PollOptions struct {
	// Timeout specifies the maximum time to poll.
	// Non-positive values indicate no timeout (context deadlines are still honored).
	Timeout time.Duration
	// Interval specifies how long to sleep between polling.
	// Non-positive values select defaultPollInterval.
	Interval time.Duration
	// Desc describes the awaited condition in the timeout error.
	Desc string
	// Clock is used to measure the timeout and to sleep. nil means the
	// real clock.
	Clock clock.Clock
}

// pollBreak is a wrapper of error to terminate the Poll immediately.
type pollBreak struct {
	err error
}

func (b *pollBreak) Error() string {
	return b.err.Error()
}

// PollBreak wraps err so that Poll returns it immediately without retrying.
func PollBreak(err error) error {
	return &pollBreak{err}
}

// Poll calls f repeatedly until it returns nil, PollBreak is returned, the
// timeout elapses or ctx is done.
//
// f is always called at least once. Before sleeping, Poll gives up if the
// next attempt would start after the timeout. The returned error wraps the
// last error returned by f.
func Poll(ctx context.Context, f func(context.Context) error, opts *PollOptions) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if opts == nil {
		opts = &PollOptions{}
	}

	clk := opts.Clock
	if clk == nil {
		clk = clock.NewClock()
	}
	interval := defaultPollInterval
	if opts.Interval > 0 {
		interval = opts.Interval
	}
	desc := "condition"
	if opts.Desc != "" {
		desc = opts.Desc
	}

	start := clk.Now()
	var lastErr error
	for {
		err := f(ctx)
		if err == nil {
			return nil
		}
		if e, ok := err.(*pollBreak); ok {
			return e.err
		}
		// f may fail with the context error once ctx expires; keep the error
		// that explains the failure instead.
		if lastErr == nil || ctx.Err() == nil {
			lastErr = err
		}

		if opts.Timeout > 0 && clk.Since(start)+interval > opts.Timeout {
			return errors.Wrapf(lastErr, "timed out after %v waiting for %s; last error follows", opts.Timeout, desc)
		}

		timer := clk.NewTimer(interval)
		select {
		case <-timer.C():
		case <-ctx.Done():
			timer.Stop()
			return errors.Wrapf(lastErr, "%s while waiting for %s; last error follows", ctx.Err(), desc)
		}
	}
}

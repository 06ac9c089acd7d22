// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package tradefed

import (
	"context"
	"os"
	"path/filepath"

	"github.com/otiai10/copy"

	"github.com/Oliver-2023/autoTest-sub000/errors"
	"github.com/Oliver-2023/autoTest-sub000/fsutil"
	"github.com/Oliver-2023/autoTest-sub000/internal/logging"
)

// CollectLogs copies the results and logs of the run identified by id from
// the tradefed output repository repo into dest. The layout of dest is
//
//	<dest>/<id>/
//	<dest>/<id>.zip
//	<dest>/logs/<id>/
//
// Logs may be collected repeatedly, e.g. after "tradefed run retry" updated
// them; earlier copies are replaced.
func CollectLogs(ctx context.Context, repo, id, dest string) error {
	logging.Infof(ctx, "Collecting tradefed results and logs to %s", dest)
	srcResults := filepath.Join(repo, "results", id)
	srcLogs := filepath.Join(repo, "logs", id)
	dstResults := filepath.Join(dest, id)
	dstZip := dstResults + ".zip"
	dstLogs := filepath.Join(dest, "logs", id)

	for _, p := range []string{dstZip, dstResults, dstLogs} {
		if err := os.RemoveAll(p); err != nil {
			return errors.Wrapf(err, "failed to remove old copy %s", p)
		}
	}
	if err := copy.Copy(srcResults, dstResults); err != nil {
		return errors.Wrap(err, "failed to copy results")
	}
	if err := fsutil.CopyFile(srcResults+".zip", dstZip); err != nil {
		return errors.Wrap(err, "failed to copy results archive")
	}
	if err := copy.Copy(srcLogs, dstLogs); err != nil {
		return errors.Wrap(err, "failed to copy logs")
	}
	return nil
}

// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package command

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"

	"github.com/shirou/gopsutil/v3/process"
	"golang.org/x/sys/unix"
)

var selfName = filepath.Base(os.Args[0])

// InstallSignalHandler makes SIGINT and SIGTERM call callback, stop the
// child processes and exit. On SIGTERM, typically sent by a parent on
// timeout, the goroutines are dumped to out first.
func InstallSignalHandler(out io.Writer, callback func(sig os.Signal)) {
	ch := make(chan os.Signal, 1)
	go func() {
		sig := <-ch
		fmt.Fprintf(out, "\n%s: Caught %v signal; exiting\n", selfName, sig)
		callback(sig)
		if sig == unix.SIGTERM {
			dumpGoroutines(out)
		}
		TerminateChildren(out)
		os.Exit(1)
	}()
	signal.Notify(ch, unix.SIGINT, unix.SIGTERM)
}

func dumpGoroutines(out io.Writer) {
	p := pprof.Lookup("goroutine")
	if p == nil {
		return
	}
	fmt.Fprintf(out, "\n%s: Goroutines at exit:\n\n", selfName)
	p.WriteTo(out, 2)
	fmt.Fprintf(out, "\n%s: End of goroutines\n", selfName)
}

// TerminateChildren sends SIGTERM to the direct children of the process,
// such as a tradefed listing modules, and returns their PIDs.
func TerminateChildren(out io.Writer) []int32 {
	procs, err := process.Processes()
	if err != nil {
		fmt.Fprintf(out, "Failed to list processes: %v\n", err)
		return nil
	}

	self := int32(os.Getpid())
	var pids []int32
	for _, proc := range procs {
		if ppid, err := proc.Ppid(); err != nil || ppid != self {
			continue
		}
		name, _ := proc.Name()
		if err := proc.Terminate(); err != nil {
			fmt.Fprintf(out, "Failed to terminate %s (pid %d): %v\n", name, proc.Pid, err)
			continue
		}
		fmt.Fprintf(out, "Terminated %s (pid %d)\n", name, proc.Pid)
		pids = append(pids, proc.Pid)
	}
	return pids
}

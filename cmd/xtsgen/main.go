// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package main implements the xtsgen executable, used to generate control
// files of xTS bundles and to inspect their results.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
	"golang.org/x/crypto/ssh/terminal"

	"github.com/Oliver-2023/autoTest-sub000/command"
	"github.com/Oliver-2023/autoTest-sub000/internal/logging"
)

// Version is the version info of this command. It is filled in during emerge.
var Version = "<unknown>"

// newLogger creates a logging.Logger based on the supplied command-line flags.
// If logFile is not nil, debug logs are also written to it.
func newLogger(verbose, logTime bool, logFile io.Writer) logging.Logger {
	level := logging.LevelInfo
	if verbose {
		level = logging.LevelDebug
	}
	logger := logging.NewMultiLogger(logging.NewSinkLogger(level, logTime, logging.NewWriterSink(os.Stdout)))
	if logFile != nil {
		logger.AddLogger(logging.NewSinkLogger(logging.LevelDebug, true, logging.NewWriterSink(logFile)))
	}
	return logger
}

// installSignalHandler restores the terminal and stops child processes
// such as tradefed when the process is being terminated by a signal (which
// prevents deferred functions from running).
func installSignalHandler(ctx context.Context) {
	var st *terminal.State
	fd := int(os.Stdin.Fd())
	if terminal.IsTerminal(fd) {
		var err error
		if st, err = terminal.GetState(fd); err != nil {
			logging.Info(ctx, "Failed to get terminal state: ", err)
		}
	}
	command.InstallSignalHandler(os.Stderr, func(os.Signal) {
		if st != nil {
			terminal.Restore(fd, st)
		}
	})
}

// doMain implements the main body of the program. It's a separate function so
// that its deferred functions will run before os.Exit makes the program exit
// immediately.
func doMain() int {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(newGenerateCmd(), "")
	subcommands.Register(newModulesCmd(os.Stdout), "")
	subcommands.Register(newURLsCmd(os.Stdout), "")
	subcommands.Register(newResultsCmd(os.Stdout), "")
	subcommands.Register(newWaiversCmd(os.Stdout), "")
	subcommands.Register(newAudioCmd(os.Stdout), "")

	version := flag.Bool("version", false, "print version and exit")
	verbose := flag.Bool("verbose", false, "use verbose logging")
	logTime := flag.Bool("logtime", true, "include date/time headers in logs")
	logPath := flag.String("logfile", "", "file debug logs are appended to")
	flag.Parse()

	if *version {
		fmt.Printf("xtsgen version %s\n", Version)
		return 0
	}

	var logFile io.Writer
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			return int(subcommands.ExitFailure)
		}
		defer f.Close()
		logFile = f
	}

	ctx := logging.AttachLogger(context.Background(), newLogger(*verbose, *logTime, logFile))
	installSignalHandler(ctx)

	return int(subcommands.Execute(ctx))
}

func main() {
	os.Exit(doMain())
}

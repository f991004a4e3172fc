// Package main provides the monochrome CLI entrypoint.
//
// Usage:
//
//	monochrome [global options] <command> [options] [args]
//
// Exit codes of transfer commands:
//   - 0: sent
//   - 1: other error
//   - 2: invalid input, nothing sent
//   - 3: viewer not reachable
//   - 4: connection lost while sending
//
// launch exits with the viewer's own exit code.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/monochrome/cli/cmd"
)

// Commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := cmd.NewApp(commit)
	app.ExitErrHandler = exitErrHandler

	if err := app.RunContext(ctx, os.Args); err != nil {
		// ExitErrHandler already exited for cli.ExitCoder errors.
		os.Exit(1)
	}
}

// exitErrHandler prints err and exits with the code it carries.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}
	os.Exit(report(os.Stderr, err))
}

// report writes the message for err to w and returns its exit code.
// cli.Exit("", n) carries no message and prints nothing.
func report(w io.Writer, err error) int {
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		if msg := exitCoder.Error(); msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(w, msg)
		}
		return code
	}
	fmt.Fprintf(w, "Error: %v\n", err)
	return 1
}

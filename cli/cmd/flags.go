// Package cmd provides the commands of the monochrome binary.
package cmd

import (
	"time"

	"github.com/urfave/cli/v2"
)

// Global flags. They override the matching config file settings.
var (
	ConfigFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "Config file (default $MONOCHROME_CONFIG or <user config dir>/monochrome/config.yaml)",
	}

	SocketFlag = &cli.StringFlag{
		Name:  "socket",
		Usage: "Viewer unix socket path (\"@name\" for an abstract socket)",
	}

	TCPFlag = &cli.StringFlag{
		Name:  "tcp",
		Usage: "Viewer TCP address host:port",
	}

	NoAutostartFlag = &cli.BoolFlag{
		Name:  "no-autostart",
		Usage: "Fail instead of launching the viewer when nothing listens",
	}

	TimeoutFlag = &cli.DurationFlag{
		Name:  "timeout",
		Usage: "How long to wait for a launched viewer to accept",
	}

	CapturePathFlag = &cli.StringFlag{
		Name:  "capture-path",
		Usage: "Record sent frames to this capture dataset directory",
	}

	VerboseFlag = &cli.BoolFlag{
		Name:  "verbose",
		Usage: "Log to stderr",
	}
)

// GlobalFlags returns the flags accepted before any command.
func GlobalFlags() []cli.Flag {
	return []cli.Flag{
		ConfigFlag,
		SocketFlag,
		TCPFlag,
		NoAutostartFlag,
		TimeoutFlag,
		CapturePathFlag,
		VerboseFlag,
	}
}

// Shared flags for read-only commands.
var (
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// TUIFlag is only honored by capture inspect and capture stats.
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Interactive view (capture inspect, capture stats only)",
	}
)

// ReadOnlyFlags returns the shared flags for read-only commands. --tui is
// included everywhere so unsupported commands can reject it explicitly.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{FormatFlag, TUIFlag}
}

// durationOr returns the flag value when set, else fallback.
func durationOr(c *cli.Context, name string, fallback time.Duration) time.Duration {
	if c.IsSet(name) {
		return c.Duration(name)
	}
	return fallback
}

package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/monochrome/types"
)

// NewApp returns the monochrome command-line application.
func NewApp(commit string) *cli.App {
	return &cli.App{
		Name:    "monochrome",
		Usage:   "Send arrays, overlays and files to the Monochrome viewer",
		Version: fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		Flags:   GlobalFlags(),
		Commands: []*cli.Command{
			OpenCommand(),
			ShowCommand(),
			ExportCommand(),
			CloseCommand(),
			QuitCommand(),
			LaunchCommand(),
			ListenCommand(),
			CaptureCommand(),
			VersionCommand(commit),
		},
	}
}

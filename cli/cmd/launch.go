package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/monochrome/cli/config"
	"github.com/justapithecus/monochrome/launcher"
)

// LaunchCommand returns the launch command. It runs the viewer in the
// foreground with the configured options followed by the given arguments,
// and exits with the viewer's exit code.
func LaunchCommand() *cli.Command {
	return &cli.Command{
		Name:            "launch",
		Usage:           "Run the viewer in the foreground",
		ArgsUsage:       "[viewer args...]",
		SkipFlagParsing: true,
		Action: func(c *cli.Context) error {
			cfg, _, err := config.Resolve(c.String("config"))
			if err != nil {
				return cli.Exit(err.Error(), exitError)
			}
			v := launcher.New(cfg.Viewer.LauncherConfig(), cfg.Viewer.Options())
			res, err := v.Run(c.Context, c.App.Writer, c.App.ErrWriter, c.Args().Slice()...)
			if err != nil {
				return cli.Exit(fmt.Sprintf("launch: %v", err), exitError)
			}
			if res.ExitCode != 0 {
				return cli.Exit("", res.ExitCode)
			}
			return nil
		},
	}
}

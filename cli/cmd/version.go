package cmd

import (
	"runtime"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/monochrome/cli/render"
	"github.com/justapithecus/monochrome/types"
)

// VersionResponse is the output of the version command.
type VersionResponse struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Go      string `json:"go"`
}

// VersionCommand returns the version command. It never contacts the viewer.
func VersionCommand(commit string) *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Flags: ReadOnlyFlags(),
		Action: func(c *cli.Context) error {
			if c.Bool("tui") {
				return cli.Exit("--tui is not supported for version command", exitError)
			}
			r, err := render.NewRenderer(c)
			if err != nil {
				return err
			}
			return r.Render(VersionResponse{
				Version: types.Version,
				Commit:  commit,
				Go:      runtime.Version(),
			})
		},
	}
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/monochrome/bundle"
	"github.com/justapithecus/monochrome/client"
	"github.com/justapithecus/monochrome/color"
	"github.com/justapithecus/monochrome/message"
)

// OpenCommand returns the open command.
func OpenCommand() *cli.Command {
	return &cli.Command{
		Name:      "open",
		Usage:     "Open files in the viewer",
		ArgsUsage: "<path>...",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return cli.Exit("at least one path required", exitError)
			}
			e, err := newEnv(c)
			if err != nil {
				return err
			}
			paths := c.Args().Slice()
			return e.transfer(c, "open", "", func(ctx context.Context, cl *client.Client) error {
				return cl.ShowFiles(ctx, paths)
			})
		},
	}
}

// ShowCommand returns the show command.
func ShowCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Send a msgpack bundle (video, layer, flow or points)",
		ArgsUsage: "<bundle>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "Display name (overrides the bundle)"},
			&cli.StringFlag{Name: "parent", Usage: "Parent recording for layers and overlays"},
			&cli.StringFlag{Name: "cmap", Usage: "Color map: default, gray, hsv, blackbody, viridis, PRGn, PRGn_pos, PRGn_neg, RdBu, tab10"},
			&cli.StringFlag{Name: "bitrange", Usage: "Value range: autodetect, MinMax, uint8, uint10, uint12, uint16, float, diff, phase, phase_diff, int8"},
			&cli.Float64Flag{Name: "vmin", Usage: "Lower color map bound"},
			&cli.Float64Flag{Name: "vmax", Usage: "Upper color map bound"},
			&cli.StringFlag{Name: "opacity", Usage: "Layer opacity: linear, linear_r, centered or a level 0..1"},
			&cli.StringFlag{Name: "comment", Usage: "Free-form comment"},
			&cli.StringFlag{Name: "color", Usage: "Overlay color name or #rrggbb"},
			&cli.Float64Flag{Name: "point-size", Usage: "Point marker size in pixels"},
		},
		Action: showAction,
	}
}

func showAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("bundle path required", exitError)
	}
	v, err := bundle.Read(c.Args().First())
	if err != nil {
		return cli.Exit(err.Error(), exitValidation)
	}
	e, err := newEnv(c)
	if err != nil {
		return err
	}

	switch b := v.(type) {
	case *bundle.Array:
		return showArray(c, e, b)
	case *bundle.Points:
		return showPoints(c, e, b)
	default:
		return cli.Exit(fmt.Sprintf("unsupported bundle %T", v), exitValidation)
	}
}

func showArray(c *cli.Context, e *env, b *bundle.Array) error {
	arr, err := b.NDArray()
	if err != nil {
		return cli.Exit(err.Error(), exitValidation)
	}
	name := stringOr(c, "name", b.Name)
	parent := b.Parent
	if c.IsSet("parent") {
		p := c.String("parent")
		parent = &p
	}

	if b.Kind == bundle.KindFlow {
		opts := client.FlowOptions{Name: name, Color: colorFlag(c)}
		if parent != nil {
			opts.Parent = *parent
		}
		return e.transfer(c, "show_flow", name, func(ctx context.Context, cl *client.Client) error {
			return cl.ShowFlow(ctx, arr, opts)
		})
	}

	opts, err := videoOptions(c, name, parent, b.Metadata)
	if err != nil {
		return cli.Exit(err.Error(), exitValidation)
	}
	if b.Kind == bundle.KindLayer {
		return e.transfer(c, "show_layer", name, func(ctx context.Context, cl *client.Client) error {
			return cl.ShowLayer(ctx, arr, opts)
		})
	}
	return e.transfer(c, "show_video", name, func(ctx context.Context, cl *client.Client) error {
		return cl.ShowVideo(ctx, arr, opts)
	})
}

func showPoints(c *cli.Context, e *env, b *bundle.Points) error {
	frames, err := b.PointFrames()
	if err != nil {
		return cli.Exit(err.Error(), exitValidation)
	}
	name := stringOr(c, "name", b.Name)
	opts := client.PointsOptions{
		Name:      name,
		Parent:    b.Parent,
		Color:     colorFlag(c),
		PointSize: b.PointSize,
	}
	if c.IsSet("parent") {
		p := c.String("parent")
		opts.Parent = &p
	}
	if opts.Color.IsZero() && b.Color != "" {
		opts.Color = color.Named(b.Color)
	}
	if c.IsSet("point-size") {
		size := float32(c.Float64("point-size"))
		opts.PointSize = &size
	}
	return e.transfer(c, "show_points", name, func(ctx context.Context, cl *client.Client) error {
		return cl.ShowPoints(ctx, frames, opts)
	})
}

// videoOptions builds display options from flags. Bundle metadata is sent
// sorted by key.
func videoOptions(c *cli.Context, name string, parent *string, metadata map[string]string) (client.VideoOptions, error) {
	opts := client.VideoOptions{
		Name:    name,
		Parent:  parent,
		Opacity: c.String("opacity"),
		Comment: c.String("comment"),
	}
	var errs []error
	if s := c.String("cmap"); s != "" {
		cmap, err := message.ParseColorMap(s)
		errs = append(errs, err)
		opts.ColorMap = cmap
	}
	if s := c.String("bitrange"); s != "" {
		br, err := message.ParseBitRange(s)
		errs = append(errs, err)
		opts.BitRange = br
	}
	if c.IsSet("vmin") {
		v := float32(c.Float64("vmin"))
		opts.VMin = &v
	}
	if c.IsSet("vmax") {
		v := float32(c.Float64("vmax"))
		opts.VMax = &v
	}
	for _, k := range slices.Sorted(maps.Keys(metadata)) {
		opts.Metadata = append(opts.Metadata, message.MetadataEntry{Key: k, Value: metadata[k]})
	}
	return opts, errors.Join(errs...)
}

func colorFlag(c *cli.Context) color.Value {
	if s := c.String("color"); s != "" {
		return color.Named(s)
	}
	return color.Value{}
}

func stringOr(c *cli.Context, name, fallback string) string {
	if c.IsSet(name) {
		return c.String(name)
	}
	return fallback
}

// ExportCommand returns the export command.
func ExportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Render a recording to a video file",
		ArgsUsage: "<output>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "Recording to export (default: most recent)"},
			&cli.IntFlag{Name: "fps", Usage: "Frames per second", Value: client.DefaultExportFPS},
			&cli.IntFlag{Name: "start", Usage: "First frame"},
			&cli.IntFlag{Name: "end", Usage: "Last frame (default: last)", Value: client.LastFrame},
			&cli.StringFlag{Name: "description", Usage: "Text drawn on the video"},
			&cli.StringFlag{Name: "video-format", Usage: "Export encoder", Value: "ffmpeg"},
			&cli.BoolFlag{Name: "close", Usage: "Close the recording once the export completes"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return cli.Exit("output path required", exitError)
			}
			format, err := message.ParseVideoExportFormat(c.String("video-format"))
			if err != nil {
				return cli.Exit(err.Error(), exitValidation)
			}
			e, err := newEnv(c)
			if err != nil {
				return err
			}
			end := c.Int("end")
			opts := client.ExportOptions{
				Path:                 c.Args().First(),
				Recording:            c.String("name"),
				Description:          c.String("description"),
				Format:               format,
				FPS:                  c.Int("fps"),
				TStart:               c.Int("start"),
				TEnd:                 &end,
				CloseAfterCompletion: c.Bool("close"),
			}
			return e.transfer(c, "export_video", opts.Recording, func(ctx context.Context, cl *client.Client) error {
				return cl.ExportVideo(ctx, opts)
			})
		},
	}
}

// CloseCommand returns the close command.
func CloseCommand() *cli.Command {
	return &cli.Command{
		Name:      "close",
		Usage:     "Close a recording (default: most recent)",
		ArgsUsage: "[name]",
		Action: func(c *cli.Context) error {
			e, err := newEnv(c)
			if err != nil {
				return err
			}
			name := c.Args().First()
			return e.transfer(c, "close_video", name, func(ctx context.Context, cl *client.Client) error {
				return cl.CloseVideo(ctx, name)
			})
		},
	}
}

// QuitCommand returns the quit command.
func QuitCommand() *cli.Command {
	return &cli.Command{
		Name:  "quit",
		Usage: "Terminate the viewer",
		Action: func(c *cli.Context) error {
			e, err := newEnv(c)
			if err != nil {
				return err
			}
			return e.transfer(c, "quit", "", func(ctx context.Context, cl *client.Client) error {
				return cl.Quit(ctx)
			})
		},
	}
}

package client

import (
	"context"
	"fmt"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"

	"github.com/justapithecus/monochrome/message"
	"github.com/justapithecus/monochrome/ndarray"
)

// Export defaults.
const (
	DefaultExportFPS = 30
	LastFrame        = -1
)

// ExportOptions describes a video export.
type ExportOptions struct {
	// Path is the output file. It is made absolute before sending.
	Path string
	// Recording names the recording to export. Empty selects the most
	// recently opened one.
	Recording   string
	Description string
	Format      message.VideoExportFormat
	// FPS defaults to DefaultExportFPS.
	FPS    int
	TStart int
	// TEnd is the last exported frame; nil means LastFrame.
	TEnd                 *int
	CloseAfterCompletion bool
}

// ExportVideo asks the viewer to render a recording to a file.
func (c *Client) ExportVideo(ctx context.Context, opts ExportOptions) (err error) {
	ctx, op := c.begin(ctx, "export_video", attribute.String("monochrome.recording", opts.Recording))
	defer func() { err = op.end(err) }()

	e, err := exportPayload(opts)
	if err != nil {
		return op.reject(err)
	}
	op.span.SetAttributes(attribute.String("monochrome.path", e.Filepath))
	return op.sendOne(ctx, e)
}

func exportPayload(opts ExportOptions) (*message.VideoExport, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("export_video: empty output path")
	}
	path, err := filepath.Abs(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", opts.Path, err)
	}
	fps := opts.FPS
	if fps == 0 {
		fps = DefaultExportFPS
	}
	if fps < 0 {
		return nil, fmt.Errorf("export_video: fps must be positive, got %d", fps)
	}
	tEnd := LastFrame
	if opts.TEnd != nil {
		tEnd = *opts.TEnd
	}
	return &message.VideoExport{
		Recording:            opts.Recording,
		Filepath:             path,
		Description:          opts.Description,
		Format:               opts.Format,
		FPS:                  fps,
		TStart:               opts.TStart,
		TEnd:                 tEnd,
		CloseAfterCompletion: opts.CloseAfterCompletion,
	}, nil
}

// CloseVideo closes a recording. An empty name closes the most recently
// opened one.
func (c *Client) CloseVideo(ctx context.Context, name string) (err error) {
	ctx, op := c.begin(ctx, "close_video", attribute.String("monochrome.name", name))
	defer func() { err = op.end(err) }()
	return op.sendOne(ctx, &message.CloseVideo{Name: name})
}

// Quit terminates the viewer.
func (c *Client) Quit(ctx context.Context) (err error) {
	ctx, op := c.begin(ctx, "quit")
	defer func() { err = op.end(err) }()
	return op.sendOne(ctx, &message.Quit{})
}

// ShowOptions carries the options Show forwards to the selected operation.
type ShowOptions struct {
	Video VideoOptions
	Flow  FlowOptions
}

// Show picks the operation for v: four-dimensional arrays ending in 2 are
// flow fields, other arrays are videos, and strings are file paths.
func (c *Client) Show(ctx context.Context, v any, opts ShowOptions) error {
	switch x := v.(type) {
	case *ndarray.Array:
		if x != nil && ndarray.IsFlowShape(x) {
			return c.ShowFlow(ctx, x, opts.Flow)
		}
		return c.ShowVideo(ctx, x, opts.Video)
	case string:
		return c.ShowFile(ctx, x)
	case []string:
		return c.ShowFiles(ctx, x)
	default:
		return fmt.Errorf("show: unsupported value of type %T, want *ndarray.Array or a path", v)
	}
}

package client

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/justapithecus/monochrome/color"
	"github.com/justapithecus/monochrome/message"
	"github.com/justapithecus/monochrome/ndarray"
)

// FlowOptions describes how an optical flow field is displayed.
type FlowOptions struct {
	Name string
	// Parent names the recording the flow is drawn on. Empty selects the
	// most recently opened one.
	Parent string
	Color  color.Value
}

// ShowFlow displays an optical flow field of shape (T, H, W, 2) and type
// float32. The viewer receives 2*T frames.
func (c *Client) ShowFlow(ctx context.Context, arr *ndarray.Array, opts FlowOptions) (err error) {
	ctx, op := c.begin(ctx, "show_flow", attribute.String("monochrome.name", opts.Name))
	defer func() { err = op.end(err) }()

	if arr == nil {
		return op.reject(fmt.Errorf("show_flow: nil array"))
	}
	flow, err := ndarray.ValidateFlow(arr)
	if err != nil {
		return op.reject(err)
	}
	rgba, err := c.resolveColor(op, opts.Color)
	if err != nil {
		return op.reject(err)
	}

	meta := &message.FlowMeta{
		NX:         flow.Width,
		NY:         flow.Height,
		NT:         flow.WireFrames(),
		Name:       opts.Name,
		ParentName: opts.Parent,
		Color:      rgba,
	}
	metaFrame, err := message.Encode(meta)
	if err != nil {
		return op.reject(err)
	}
	op.span.SetAttributes(attribute.IntSlice("monochrome.shape", arr.Shape()))

	s, err := op.connect(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.sendFrame(ctx, meta.Kind(), metaFrame); err != nil {
		return err
	}
	return sendChunks(ctx, s, flow.Data, c.chunkSize)
}

// PointsOptions describes how a point overlay is displayed.
type PointsOptions struct {
	Name string
	// Parent names the recording the points are drawn on. Nil or empty
	// selects the most recently opened one.
	Parent *string
	Color  color.Value
	// PointSize is the marker size in image pixels. Nil lets the viewer
	// decide.
	PointSize *float32
}

// ShowPoints displays one list of (x, y) points per frame.
func (c *Client) ShowPoints(ctx context.Context, frames [][]ndarray.Point, opts PointsOptions) (err error) {
	ctx, op := c.begin(ctx, "show_points",
		attribute.String("monochrome.name", opts.Name),
		attribute.Int("monochrome.frames", len(frames)),
	)
	defer func() { err = op.end(err) }()

	coords, offsets, err := ndarray.FlattenPoints(frames)
	if err != nil {
		return op.reject(err)
	}
	rgba, err := c.resolveColor(op, opts.Color)
	if err != nil {
		return op.reject(err)
	}

	p := &message.PointsVideo{
		Name:      opts.Name,
		Points:    coords,
		TimeIdxs:  offsets,
		Color:     rgba,
		PointSize: opts.PointSize,
	}
	if opts.Parent != nil && *opts.Parent != "" {
		p.ParentName = opts.Parent
	}
	return op.sendOne(ctx, p)
}

// resolveColor resolves v, logging any resolver warning.
func (c *Client) resolveColor(op *operation, v color.Value) (*message.Color, error) {
	rgba, warning, err := color.Resolve(c.colors, v)
	if err != nil {
		return nil, err
	}
	if warning != "" {
		op.logger.Warn(warning, map[string]any{"color": v.Name})
	}
	return rgba, nil
}

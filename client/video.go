package client

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/justapithecus/monochrome/message"
	"github.com/justapithecus/monochrome/ndarray"
)

// VideoOptions describes how a video or image is displayed.
type VideoOptions struct {
	Name     string
	ColorMap message.ColorMap
	BitRange message.BitRange
	// VMin and VMax fix the color map range. Nil lets the viewer decide.
	VMin *float32
	VMax *float32
	// Parent makes the array a layer of the named recording. A pointer to
	// "" selects the most recently opened one.
	Parent *string
	// Opacity is a function name ("linear", "linear_r", "centered") or a
	// fixed level ("1", "0.75", "0.5", "0.25", "0"). Empty leaves it unset.
	Opacity string
	// OpacityLevel is a fixed level given as a number: 0, 0.25, 0.5, 0.75
	// or 1. It cannot be combined with Opacity.
	OpacityLevel *float64
	Comment      string
	Duration     float32
	FPS          float32
	Date         string
	Metadata     []message.MetadataEntry
}

// Meta builds a metadata slice from alternating key/value arguments,
// keeping their order. Values are formatted with %v.
func Meta(kv ...any) []message.MetadataEntry {
	out := make([]message.MetadataEntry, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, message.MetadataEntry{
			Key:   fmt.Sprint(kv[i]),
			Value: fmt.Sprint(kv[i+1]),
		})
	}
	return out
}

// ShowVideo displays arr as a video or image.
//
// arr is squeezed and mapped to (frames, height, width, channels): 2-D
// arrays become one grayscale frame, 3-D arrays ending in 3 or 4 become one
// RGB frame, other 3-D arrays become grayscale frames, 4-D arrays must end
// in 3 or 4. Alpha channels are dropped. float32, uint8 and uint16 data is
// sent as is; other real types are converted to float32.
func (c *Client) ShowVideo(ctx context.Context, arr *ndarray.Array, opts VideoOptions) (err error) {
	return c.showVideo(ctx, "show_video", arr, opts)
}

// ShowImage is ShowVideo under another name.
func (c *Client) ShowImage(ctx context.Context, arr *ndarray.Array, opts VideoOptions) error {
	return c.showVideo(ctx, "show_image", arr, opts)
}

// ShowLayer displays arr on top of the parent recording. An unset
// parent selects the most recently opened recording.
func (c *Client) ShowLayer(ctx context.Context, arr *ndarray.Array, opts VideoOptions) error {
	if opts.Parent == nil {
		parent := ""
		opts.Parent = &parent
	}
	return c.showVideo(ctx, "show_layer", arr, opts)
}

func (c *Client) showVideo(ctx context.Context, name string, arr *ndarray.Array, opts VideoOptions) (err error) {
	ctx, op := c.begin(ctx, name, attribute.String("monochrome.name", opts.Name))
	defer func() { err = op.end(err) }()

	if arr == nil {
		return op.reject(fmt.Errorf("%s: nil array", name))
	}
	video, meta, err := videoMeta(arr, opts)
	if err != nil {
		return op.reject(err)
	}
	metaFrame, err := message.Encode(meta)
	if err != nil {
		return op.reject(err)
	}
	op.span.SetAttributes(
		attribute.IntSlice("monochrome.shape", video.Shape()),
		attribute.String("monochrome.dtype", video.DType.String()),
	)

	s, err := op.connect(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.sendFrame(ctx, meta.Kind(), metaFrame); err != nil {
		return err
	}
	switch data := video.Data.(type) {
	case []float32:
		return sendChunks(ctx, s, data, c.chunkSize)
	case []uint8:
		return sendChunks(ctx, s, data, c.chunkSize)
	case []uint16:
		return sendChunks(ctx, s, data, c.chunkSize)
	default:
		return fmt.Errorf("%s: unexpected element type %T", name, video.Data)
	}
}

// videoMeta normalizes arr and builds its meta payload.
func videoMeta(arr *ndarray.Array, opts VideoOptions) (*ndarray.Video, *message.ArrayMeta, error) {
	video, err := ndarray.NormalizeVideo(arr)
	if err != nil {
		return nil, nil, err
	}

	meta := &message.ArrayMeta{
		Type:       arrayDataType(video.DType),
		NX:         video.Width,
		NY:         video.Height,
		NT:         video.Frames * video.Channels,
		NC:         video.Channels,
		BitRange:   opts.BitRange,
		ColorMap:   opts.ColorMap,
		VMin:       opts.VMin,
		VMax:       opts.VMax,
		Name:       opts.Name,
		ParentName: opts.Parent,
		Duration:   opts.Duration,
		FPS:        opts.FPS,
		Date:       opts.Date,
		Comment:    opts.Comment,
		Metadata:   opts.Metadata,
	}
	opacity, err := videoOpacity(opts)
	if err != nil {
		return nil, nil, err
	}
	meta.Opacity = opacity
	return video, meta, nil
}

func videoOpacity(opts VideoOptions) (*message.OpacityFunction, error) {
	name := strings.TrimSpace(opts.Opacity)
	switch {
	case opts.OpacityLevel != nil && name != "":
		return nil, fmt.Errorf("opacity %q and opacity level %v are both set", name, *opts.OpacityLevel)
	case opts.OpacityLevel != nil:
		fn, err := message.OpacityFromFloat(*opts.OpacityLevel)
		if err != nil {
			return nil, err
		}
		return &fn, nil
	case name != "":
		fn, err := message.ParseOpacity(name)
		if err != nil {
			return nil, err
		}
		return &fn, nil
	}
	return nil, nil
}

func arrayDataType(d ndarray.DType) message.ArrayDataType {
	switch d {
	case ndarray.Uint8:
		return message.ArrayUint8
	case ndarray.Uint16:
		return message.ArrayUint16
	default:
		return message.ArrayFloat
	}
}

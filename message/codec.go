package message

import (
	"fmt"

	"github.com/justapithecus/monochrome/ipc"
)

// Encode serializes a payload into a size-prefixed envelope.
func Encode(p Payload) ([]byte, error) {
	kind := p.Kind()
	values, err := p.values()
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", kind, err)
	}
	frame, err := ipc.EncodeEnvelope(uint8(kind), schemas[kind], values)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", kind, err)
	}
	return frame, nil
}

// Decode parses a complete size-prefixed frame into its payload.
func Decode(frame []byte) (Payload, error) {
	env, err := ipc.DecodeFrame(frame)
	if err != nil {
		return nil, err
	}
	return DecodeEnvelope(env)
}

// DecodeEnvelope converts a decoded envelope into its payload.
func DecodeEnvelope(env ipc.Envelope) (Payload, error) {
	kind := Kind(env.Tag)
	if kind == KindQuit {
		return &Quit{}, nil
	}
	schema, ok := schemas[kind]
	if !ok {
		return nil, &ipc.FrameError{Kind: ipc.FrameErrorDecode, Msg: fmt.Sprintf("unknown payload tag %d", env.Tag)}
	}
	if !env.HasData {
		return nil, &ipc.FrameError{Kind: ipc.FrameErrorDecode, Msg: fmt.Sprintf("%s envelope without payload", kind)}
	}
	v, err := ipc.DecodeTable(schema, env.Data)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindFilePaths:
		return &FilePaths{Paths: v["file"].([]string)}, nil
	case KindArrayMeta:
		return arrayMetaFrom(v), nil
	case KindFlowMeta:
		return &FlowMeta{
			NX:         int(v["nx"].(int32)),
			NY:         int(v["ny"].(int32)),
			NT:         int(v["nt"].(int32)),
			Name:       v["name"].(string),
			ParentName: v["parent_name"].(string),
			Color:      optional[Color](v, "color"),
		}, nil
	case KindArrayDataChunkF32:
		return &ArrayDataChunk[float32]{Start: v["startidx"].(uint64), Data: v["data"].([]float32)}, nil
	case KindArrayDataChunkU8:
		return &ArrayDataChunk[uint8]{Start: v["startidx"].(uint64), Data: v["data"].([]uint8)}, nil
	case KindArrayDataChunkU16:
		return &ArrayDataChunk[uint16]{Start: v["startidx"].(uint64), Data: v["data"].([]uint16)}, nil
	case KindPointsVideo:
		return &PointsVideo{
			Name:       v["name"].(string),
			ParentName: optional[string](v, "parent_name"),
			Points:     v["points_data"].([]float32),
			TimeIdxs:   v["time_idxs"].([]uint32),
			Color:      optional[Color](v, "color"),
			PointSize:  optional[float32](v, "point_size"),
		}, nil
	case KindVideoExport:
		return &VideoExport{
			Recording:            v["recording"].(string),
			Filepath:             v["filepath"].(string),
			Description:          v["description"].(string),
			Format:               VideoExportFormat(v["format"].(uint8)),
			FPS:                  int(v["fps"].(int32)),
			TStart:               int(v["t_start"].(int32)),
			TEnd:                 int(v["t_end"].(int32)),
			CloseAfterCompletion: v["close_after_completion"].(bool),
		}, nil
	case KindCloseVideo:
		return &CloseVideo{Name: v["name"].(string)}, nil
	}
	return nil, &ipc.FrameError{Kind: ipc.FrameErrorDecode, Msg: fmt.Sprintf("unhandled payload %s", kind)}
}

func arrayMetaFrom(v ipc.Values) *ArrayMeta {
	m := &ArrayMeta{
		Type:       ArrayDataType(v["type"].(int32)),
		NX:         int(v["nx"].(int32)),
		NY:         int(v["ny"].(int32)),
		NT:         int(v["nt"].(int32)),
		NC:         int(v["nc"].(int32)),
		BitRange:   BitRange(v["bitrange"].(int32)),
		ColorMap:   ColorMap(v["cmap"].(int32)),
		VMin:       optional[float32](v, "vmin"),
		VMax:       optional[float32](v, "vmax"),
		Name:       v["name"].(string),
		ParentName: optional[string](v, "parent_name"),
		Duration:   v["duration"].(float32),
		FPS:        v["fps"].(float32),
		Date:       v["date"].(string),
		Comment:    v["comment"].(string),
	}
	if o, ok := v["opacity"].(int32); ok {
		op := OpacityFunction(o)
		m.Opacity = &op
	}
	for _, e := range v["metadata"].([]ipc.Values) {
		m.Metadata = append(m.Metadata, MetadataEntry{Key: e["key"].(string), Value: e["val"].(string)})
	}
	return m
}

func optional[T any](v ipc.Values, name string) *T {
	x, ok := v[name].(T)
	if !ok {
		return nil
	}
	return &x
}

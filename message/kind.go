// Package message defines the fixed catalog of payloads understood by the
// viewer and encodes them into framed envelopes.
package message

import "fmt"

// Kind is the envelope union tag of a payload. Tags are part of the wire
// format and never change.
type Kind uint8

const (
	KindNone              Kind = 0
	KindFilePaths         Kind = 1
	KindArrayMeta         Kind = 2
	KindFlowMeta          Kind = 3
	KindArrayDataChunkF32 Kind = 4
	KindArrayDataChunkU8  Kind = 5
	KindArrayDataChunkU16 Kind = 6
	KindPointsVideo       Kind = 7
	KindVideoExport       Kind = 8
	KindCloseVideo        Kind = 9
	KindQuit              Kind = 10
)

var kindNames = map[Kind]string{
	KindNone:              "none",
	KindFilePaths:         "file_paths",
	KindArrayMeta:         "array_meta",
	KindFlowMeta:          "flow_meta",
	KindArrayDataChunkF32: "array_chunk_f32",
	KindArrayDataChunkU8:  "array_chunk_u8",
	KindArrayDataChunkU16: "array_chunk_u16",
	KindPointsVideo:       "points_video",
	KindVideoExport:       "video_export",
	KindCloseVideo:        "close_video",
	KindQuit:              "quit",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// IsChunk reports whether the kind carries array data.
func (k Kind) IsChunk() bool {
	return k == KindArrayDataChunkF32 || k == KindArrayDataChunkU8 || k == KindArrayDataChunkU16
}

// Kinds returns every payload kind in tag order, excluding KindNone.
func Kinds() []Kind {
	return []Kind{
		KindFilePaths, KindArrayMeta, KindFlowMeta,
		KindArrayDataChunkF32, KindArrayDataChunkU8, KindArrayDataChunkU16,
		KindPointsVideo, KindVideoExport, KindCloseVideo, KindQuit,
	}
}

package message

import "github.com/justapithecus/monochrome/ipc"

var dictEntrySchema = &ipc.Schema{
	Name: "DictEntry",
	Fields: []ipc.Field{
		{Name: "key", Slot: 0, Kind: ipc.FieldString},
		{Name: "val", Slot: 1, Kind: ipc.FieldString},
	},
}

var schemas = map[Kind]*ipc.Schema{
	KindFilePaths: {
		Name: "Filepaths",
		Fields: []ipc.Field{
			{Name: "file", Slot: 0, Kind: ipc.FieldStringVector},
		},
	},
	KindArrayMeta: {
		Name: "Array3Meta",
		Fields: []ipc.Field{
			{Name: "type", Slot: 0, Kind: ipc.FieldInt32},
			{Name: "nx", Slot: 1, Kind: ipc.FieldInt32},
			{Name: "ny", Slot: 2, Kind: ipc.FieldInt32},
			{Name: "nt", Slot: 3, Kind: ipc.FieldInt32},
			{Name: "bitrange", Slot: 4, Kind: ipc.FieldInt32},
			{Name: "cmap", Slot: 5, Kind: ipc.FieldInt32},
			{Name: "vmin", Slot: 6, Kind: ipc.FieldFloat32, Optional: true},
			{Name: "vmax", Slot: 7, Kind: ipc.FieldFloat32, Optional: true},
			{Name: "opacity", Slot: 8, Kind: ipc.FieldInt32, Optional: true},
			{Name: "name", Slot: 9, Kind: ipc.FieldString},
			{Name: "parent_name", Slot: 10, Kind: ipc.FieldString, Optional: true},
			{Name: "duration", Slot: 11, Kind: ipc.FieldFloat32},
			{Name: "fps", Slot: 12, Kind: ipc.FieldFloat32},
			{Name: "date", Slot: 13, Kind: ipc.FieldString},
			{Name: "comment", Slot: 14, Kind: ipc.FieldString},
			{Name: "metadata", Slot: 15, Kind: ipc.FieldTableVector, Elem: dictEntrySchema},
			{Name: "nc", Slot: 16, Kind: ipc.FieldInt32},
		},
	},
	KindFlowMeta: {
		Name: "Array3MetaFlow",
		Fields: []ipc.Field{
			{Name: "nx", Slot: 0, Kind: ipc.FieldInt32},
			{Name: "ny", Slot: 1, Kind: ipc.FieldInt32},
			{Name: "nt", Slot: 2, Kind: ipc.FieldInt32},
			{Name: "name", Slot: 3, Kind: ipc.FieldString},
			{Name: "parent_name", Slot: 4, Kind: ipc.FieldString},
			{Name: "color", Slot: 5, Kind: ipc.FieldColor, Optional: true},
		},
	},
	KindArrayDataChunkF32: chunkSchema("Array3DataChunkf", ipc.FieldFloat32Vector),
	KindArrayDataChunkU8:  chunkSchema("Array3DataChunku8", ipc.FieldUint8Vector),
	KindArrayDataChunkU16: chunkSchema("Array3DataChunku16", ipc.FieldUint16Vector),
	KindPointsVideo: {
		Name: "PointsVideo",
		Fields: []ipc.Field{
			{Name: "name", Slot: 0, Kind: ipc.FieldString},
			{Name: "parent_name", Slot: 1, Kind: ipc.FieldString, Optional: true},
			{Name: "points_data", Slot: 2, Kind: ipc.FieldFloat32Vector},
			{Name: "time_idxs", Slot: 3, Kind: ipc.FieldUint32Vector},
			{Name: "color", Slot: 4, Kind: ipc.FieldColor, Optional: true},
			{Name: "point_size", Slot: 5, Kind: ipc.FieldFloat32, Optional: true},
		},
	},
	KindVideoExport: {
		Name: "VideoExport",
		Fields: []ipc.Field{
			{Name: "recording", Slot: 0, Kind: ipc.FieldString},
			{Name: "filepath", Slot: 1, Kind: ipc.FieldString},
			{Name: "description", Slot: 2, Kind: ipc.FieldString},
			{Name: "format", Slot: 3, Kind: ipc.FieldUint8},
			{Name: "fps", Slot: 4, Kind: ipc.FieldInt32},
			{Name: "t_start", Slot: 5, Kind: ipc.FieldInt32},
			{Name: "t_end", Slot: 6, Kind: ipc.FieldInt32},
			{Name: "close_after_completion", Slot: 7, Kind: ipc.FieldBool},
		},
	},
	KindCloseVideo: {
		Name: "CloseVideo",
		Fields: []ipc.Field{
			{Name: "name", Slot: 0, Kind: ipc.FieldString},
		},
	},
	// KindQuit carries no table.
}

func chunkSchema(name string, data ipc.FieldKind) *ipc.Schema {
	return &ipc.Schema{
		Name: name,
		Fields: []ipc.Field{
			{Name: "startidx", Slot: 0, Kind: ipc.FieldUint64},
			{Name: "data", Slot: 1, Kind: data},
		},
	}
}

// Schema returns the table schema of a kind, or nil for kinds without a
// payload table.
func Schema(k Kind) *ipc.Schema {
	return schemas[k]
}

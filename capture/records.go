package capture

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Record discriminator values.
const (
	RecordKindFrame   = "frame"
	RecordKindSession = "session"
)

// sessionPartition is the kind partition value of session records.
const sessionPartition = "session"

// DeriveDay computes the day partition from a session start time.
func DeriveDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Frame is one captured wire frame.
type Frame struct {
	Session string
	Seq     int64
	// Kind is the payload kind name, or "unknown" for undecodable frames.
	Kind string
	// Size is the full frame size including the length prefix.
	Size int
	Ts   time.Time
	// Data is the complete frame, length prefix included.
	Data []byte
}

// Session summarizes one captured client operation.
type Session struct {
	ID        string
	Operation string
	Transport string
	Address   string
	StartedAt time.Time
	EndedAt   time.Time
	Frames    int64
	Bytes     int64
	// FramesByKind counts frames per payload kind name.
	FramesByKind map[string]int64
	// Error is the operation's failure message, if it failed.
	Error string
	// Open marks a summary rebuilt from frames of a recorder that never
	// closed.
	Open bool
}

// Session statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
	StatusOpen   = "open"
)

// Status is failed, open or ok, in that precedence.
func (s Session) Status() string {
	switch {
	case s.Error != "":
		return StatusFailed
	case s.Open:
		return StatusOpen
	default:
		return StatusOK
	}
}

// Duration is the wall time between the first and last record.
func (s Session) Duration() time.Duration {
	if s.EndedAt.Before(s.StartedAt) {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt)
}

// Lode HiveLayout requires records as map[string]any.
func frameRecordMap(f Frame, day string) map[string]any {
	return map[string]any{
		"record_kind": RecordKindFrame,
		"session":     f.Session,
		"day":         day,
		"kind":        f.Kind,
		"seq":         f.Seq,
		"size":        f.Size,
		"ts":          f.Ts.UTC().Format(time.RFC3339Nano),
		"data":        base64.StdEncoding.EncodeToString(f.Data),
	}
}

func sessionRecordMap(s Session, day string) map[string]any {
	m := map[string]any{
		"record_kind":    RecordKindSession,
		"session":        s.ID,
		"day":            day,
		"kind":           sessionPartition,
		"operation":      s.Operation,
		"transport":      s.Transport,
		"address":        s.Address,
		"started_at":     s.StartedAt.UTC().Format(time.RFC3339Nano),
		"ended_at":       s.EndedAt.UTC().Format(time.RFC3339Nano),
		"frames":         s.Frames,
		"bytes":          s.Bytes,
		"frames_by_kind": s.FramesByKind,
	}
	if s.Error != "" {
		m["error"] = s.Error
	}
	return m
}

func parseFrameRecord(m map[string]any) (Frame, error) {
	data, err := base64.StdEncoding.DecodeString(toString(m["data"]))
	if err != nil {
		return Frame{}, fmt.Errorf("frame %d: decode data: %w", toInt64(m["seq"]), err)
	}
	return Frame{
		Session: toString(m["session"]),
		Seq:     toInt64(m["seq"]),
		Kind:    toString(m["kind"]),
		Size:    int(toInt64(m["size"])),
		Ts:      toTime(m["ts"]),
		Data:    data,
	}, nil
}

func parseSessionRecord(m map[string]any) Session {
	s := Session{
		ID:           toString(m["session"]),
		Operation:    toString(m["operation"]),
		Transport:    toString(m["transport"]),
		Address:      toString(m["address"]),
		StartedAt:    toTime(m["started_at"]),
		EndedAt:      toTime(m["ended_at"]),
		Frames:       toInt64(m["frames"]),
		Bytes:        toInt64(m["bytes"]),
		FramesByKind: make(map[string]int64),
		Error:        toString(m["error"]),
	}
	if kinds, ok := m["frames_by_kind"].(map[string]any); ok {
		for k, v := range kinds {
			s.FramesByKind[k] = toInt64(v)
		}
	}
	return s
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case json.Number:
		i, _ := n.Int64()
		return i
	default:
		return 0
	}
}

func toTime(v any) time.Time {
	t, err := time.Parse(time.RFC3339Nano, toString(v))
	if err != nil {
		return time.Time{}
	}
	return t
}

// matchesPartitionValue reports whether a Hive path has an exact key=value
// segment, so run-1 does not match run-10.
func matchesPartitionValue(path, key, value string) bool {
	segment := key + "=" + value
	for _, part := range strings.Split(path, "/") {
		if part == segment {
			return true
		}
	}
	return false
}

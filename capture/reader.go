package capture

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/justapithecus/lode/lode"
)

// Reader reads captured sessions back from the dataset.
type Reader struct {
	dataset lode.Dataset
	id      string
}

// NewReader opens the capture dataset for reading.
func NewReader(dataset string, factory lode.StoreFactory) (*Reader, error) {
	ds, err := newDataset(dataset, factory)
	if err != nil {
		return nil, err
	}
	if dataset == "" {
		dataset = DefaultDataset
	}
	return &Reader{dataset: ds, id: dataset}, nil
}

// Stats aggregates every closed session.
type Stats struct {
	Sessions     int64
	Failed       int64
	Frames       int64
	Bytes        int64
	FramesByKind map[string]int64
}

// Sessions returns every closed session, newest first.
func (r *Reader) Sessions(ctx context.Context) ([]Session, error) {
	var sessions []Session
	err := r.scan(ctx, func(snap *lode.Snapshot) bool {
		return snapshotHas(snap, "kind", sessionPartition)
	}, func(m map[string]any) error {
		if m["record_kind"] == RecordKindSession {
			sessions = append(sessions, parseSessionRecord(m))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(sessions, func(a, b Session) int {
		return b.StartedAt.Compare(a.StartedAt)
	})
	return sessions, nil
}

// Session returns one session summary. A session whose recorder never
// closed is summarized from its frames.
func (r *Reader) Session(ctx context.Context, id string) (Session, error) {
	var (
		found bool
		s     Session
	)
	err := r.scan(ctx, func(snap *lode.Snapshot) bool {
		return snapshotHas(snap, "session", id) && snapshotHas(snap, "kind", sessionPartition)
	}, func(m map[string]any) error {
		if m["record_kind"] == RecordKindSession && toString(m["session"]) == id {
			s, found = parseSessionRecord(m), true
		}
		return nil
	})
	if err != nil {
		return Session{}, err
	}
	if found {
		return s, nil
	}

	frames, err := r.Frames(ctx, id)
	if err != nil {
		return Session{}, err
	}
	s = Session{ID: id, Open: true, FramesByKind: make(map[string]int64)}
	for i, f := range frames {
		if i == 0 {
			s.StartedAt = f.Ts
		}
		s.EndedAt = f.Ts
		s.Frames++
		s.Bytes += int64(f.Size)
		s.FramesByKind[f.Kind]++
	}
	return s, nil
}

// Frames returns the frames of a session in send order.
func (r *Reader) Frames(ctx context.Context, id string) ([]Frame, error) {
	var frames []Frame
	err := r.scan(ctx, func(snap *lode.Snapshot) bool {
		return snapshotHas(snap, "session", id)
	}, func(m map[string]any) error {
		if m["record_kind"] != RecordKindFrame || toString(m["session"]) != id {
			return nil
		}
		f, err := parseFrameRecord(m)
		if err != nil {
			return err
		}
		frames = append(frames, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	slices.SortFunc(frames, func(a, b Frame) int {
		return cmp.Compare(a.Seq, b.Seq)
	})
	return frames, nil
}

// Stats totals all closed sessions.
func (r *Reader) Stats(ctx context.Context) (Stats, error) {
	sessions, err := r.Sessions(ctx)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{FramesByKind: make(map[string]int64)}
	for _, s := range sessions {
		st.Sessions++
		if s.Error != "" {
			st.Failed++
		}
		st.Frames += s.Frames
		st.Bytes += s.Bytes
		for k, n := range s.FramesByKind {
			st.FramesByKind[k] += n
		}
	}
	return st, nil
}

// scan reads every snapshot accepted by keep and passes its records to fn.
// Manifest paths are a coarse filter; record fields are authoritative.
func (r *Reader) scan(ctx context.Context, keep func(*lode.Snapshot) bool, fn func(map[string]any) error) error {
	snapshots, err := r.dataset.Snapshots(ctx)
	if err != nil {
		return WrapReadError(err, r.id+"/snapshots")
	}
	for _, snap := range snapshots {
		if !keep(snap) {
			continue
		}
		data, err := r.dataset.Read(ctx, snap.ID)
		if err != nil {
			return WrapReadError(err, fmt.Sprintf("%s/snapshot/%s", r.id, snap.ID))
		}
		for _, item := range data {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if err := fn(m); err != nil {
				return err
			}
		}
	}
	return nil
}

func snapshotHas(snap *lode.Snapshot, key, value string) bool {
	for _, f := range snap.Manifest.Files {
		if matchesPartitionValue(f.Path, key, value) {
			return true
		}
	}
	return false
}

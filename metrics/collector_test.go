package metrics

import (
	"sync"
	"testing"
)

func TestCollector_IncrementMethods(t *testing.T) {
	c := NewCollector("unix", "fs", "sess-001")

	c.IncOperationStarted()
	c.IncOperationStarted()
	c.IncOperationCompleted()
	c.IncOperationFailed("show_video")
	c.IncValidationFailure()
	c.IncConnect()
	c.IncConnectRetry()
	c.IncConnectRetry()
	c.IncConnectFailure()
	c.IncAutostart()
	c.IncAutostartFailure()
	c.IncSendFailure()
	c.IncFrameReceived()
	c.IncDecodeError()
	c.IncCaptureWriteSuccess()
	c.IncCaptureWriteSuccess()
	c.IncCaptureWriteFailure()
	c.IncNotifySuccess()
	c.IncNotifyFailure()

	s := c.Snapshot()

	checks := []struct {
		name string
		got  int64
		want int64
	}{
		{"OperationsStarted", s.OperationsStarted, 2},
		{"OperationsCompleted", s.OperationsCompleted, 1},
		{"OperationsFailed", s.OperationsFailed, 1},
		{"ValidationFailures", s.ValidationFailures, 1},
		{"Connects", s.Connects, 1},
		{"ConnectRetries", s.ConnectRetries, 2},
		{"ConnectFailures", s.ConnectFailures, 1},
		{"Autostarts", s.Autostarts, 1},
		{"AutostartFailures", s.AutostartFailures, 1},
		{"SendFailures", s.SendFailures, 1},
		{"FramesReceived", s.FramesReceived, 1},
		{"DecodeErrors", s.DecodeErrors, 1},
		{"CaptureWriteSuccess", s.CaptureWriteSuccess, 2},
		{"CaptureWriteFailure", s.CaptureWriteFailure, 1},
		{"NotifySuccess", s.NotifySuccess, 1},
		{"NotifyFailure", s.NotifyFailure, 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}
	if s.FailedByOperation["show_video"] != 1 {
		t.Errorf("FailedByOperation[show_video] = %d, want 1", s.FailedByOperation["show_video"])
	}
}

func TestCollector_RecordFrame(t *testing.T) {
	c := NewCollector("unix", "", "")

	c.RecordFrame("array_meta", 120, false)
	c.RecordFrame("chunk_f32", 65000, true)
	c.RecordFrame("chunk_f32", 400, true)

	s := c.Snapshot()
	if s.FramesSent != 3 {
		t.Errorf("FramesSent = %d, want 3", s.FramesSent)
	}
	if s.BytesSent != 65520 {
		t.Errorf("BytesSent = %d, want 65520", s.BytesSent)
	}
	if s.ChunksSent != 2 {
		t.Errorf("ChunksSent = %d, want 2", s.ChunksSent)
	}
	if s.FramesByKind["array_meta"] != 1 || s.FramesByKind["chunk_f32"] != 2 {
		t.Errorf("FramesByKind = %v", s.FramesByKind)
	}
}

func TestCollector_Dimensions(t *testing.T) {
	c := NewCollector("tcp", "s3", "sess-42")
	s := c.Snapshot()

	if s.Transport != "tcp" {
		t.Errorf("Transport = %q, want %q", s.Transport, "tcp")
	}
	if s.StorageBackend != "s3" {
		t.Errorf("StorageBackend = %q, want %q", s.StorageBackend, "s3")
	}
	if s.SessionID != "sess-42" {
		t.Errorf("SessionID = %q, want %q", s.SessionID, "sess-42")
	}
}

func TestCollector_SnapshotImmutability(t *testing.T) {
	c := NewCollector("unix", "fs", "sess-001")
	c.IncOperationStarted()
	c.RecordFrame("quit", 12, false)

	s1 := c.Snapshot()

	c.IncOperationCompleted()
	c.RecordFrame("quit", 12, false)

	if s1.OperationsCompleted != 0 {
		t.Errorf("s1.OperationsCompleted = %d, want 0 (snapshot should be frozen)", s1.OperationsCompleted)
	}
	if s1.FramesByKind["quit"] != 1 {
		t.Errorf("s1.FramesByKind[quit] = %d, want 1 (snapshot should be frozen)", s1.FramesByKind["quit"])
	}

	s2 := c.Snapshot()
	if s2.OperationsCompleted != 1 {
		t.Errorf("s2.OperationsCompleted = %d, want 1", s2.OperationsCompleted)
	}
	if s2.FramesByKind["quit"] != 2 {
		t.Errorf("s2.FramesByKind[quit] = %d, want 2", s2.FramesByKind["quit"])
	}
}

func TestCollector_SnapshotMapIsolation(t *testing.T) {
	c := NewCollector("unix", "", "")
	c.IncOperationFailed("export_video")

	s := c.Snapshot()
	s.FailedByOperation["export_video"] = 999
	s.FailedByOperation["injected"] = 1

	s2 := c.Snapshot()
	if s2.FailedByOperation["export_video"] != 1 {
		t.Errorf("FailedByOperation[export_video] = %d, want 1 (collector should be isolated from snapshot mutation)", s2.FailedByOperation["export_video"])
	}
	if _, exists := s2.FailedByOperation["injected"]; exists {
		t.Error("FailedByOperation should not contain injected key from snapshot mutation")
	}
}

func TestCollector_NilReceiverSafety(t *testing.T) {
	var c *Collector

	// None of these should panic
	c.IncOperationStarted()
	c.IncOperationCompleted()
	c.IncOperationFailed("show_video")
	c.IncValidationFailure()
	c.RecordFrame("quit", 12, false)
	c.IncConnect()
	c.IncConnectRetry()
	c.IncConnectFailure()
	c.IncAutostart()
	c.IncAutostartFailure()
	c.IncSendFailure()
	c.IncFrameReceived()
	c.IncDecodeError()
	c.IncCaptureWriteSuccess()
	c.IncCaptureWriteFailure()
	c.IncNotifySuccess()
	c.IncNotifyFailure()

	s := c.Snapshot()
	if s.OperationsStarted != 0 {
		t.Errorf("nil collector snapshot OperationsStarted = %d, want 0", s.OperationsStarted)
	}
	if s.FramesByKind != nil {
		t.Errorf("nil collector snapshot FramesByKind should be nil, got %v", s.FramesByKind)
	}
}

func TestCollector_ConcurrentAccess(t *testing.T) {
	c := NewCollector("unix", "fs", "sess-001")
	const goroutines = 10
	const iterations = 1000

	var wg sync.WaitGroup
	wg.Add(goroutines)

	for range goroutines {
		go func() {
			defer wg.Done()
			for range iterations {
				c.IncOperationStarted()
				c.RecordFrame("chunk_u8", 10, true)
				c.IncCaptureWriteSuccess()
			}
		}()
	}

	wg.Wait()

	s := c.Snapshot()
	want := int64(goroutines * iterations)

	if s.OperationsStarted != want {
		t.Errorf("OperationsStarted = %d, want %d", s.OperationsStarted, want)
	}
	if s.ChunksSent != want {
		t.Errorf("ChunksSent = %d, want %d", s.ChunksSent, want)
	}
	if s.BytesSent != want*10 {
		t.Errorf("BytesSent = %d, want %d", s.BytesSent, want*10)
	}
	if s.CaptureWriteSuccess != want {
		t.Errorf("CaptureWriteSuccess = %d, want %d", s.CaptureWriteSuccess, want)
	}
}

func TestCollector_ZeroValueSnapshot(t *testing.T) {
	c := NewCollector("unix", "fs", "sess-001")
	s := c.Snapshot()

	if s.OperationsStarted != 0 || s.OperationsCompleted != 0 || s.OperationsFailed != 0 {
		t.Error("fresh collector should have zero operation counters")
	}
	if s.FramesSent != 0 || s.BytesSent != 0 || s.ChunksSent != 0 {
		t.Error("fresh collector should have zero wire counters")
	}
	if len(s.FramesByKind) != 0 || len(s.FailedByOperation) != 0 {
		t.Error("fresh collector maps should be empty")
	}
}

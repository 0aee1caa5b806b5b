package recording

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/SludgePhD/Providence/wire"
)

func sampleMessage(timestamp uint32) *wire.TrackingMessage {
	return &wire.TrackingMessage{
		Timestamp: timestamp,
		Faces: []wire.FaceData{{
			EphemeralID:  1,
			PersistentID: wire.PersistentID{Kind: wire.PersistentIDUnknown},
			HeadPosition: [2]float32{0.1, 0.2},
			HeadRotation: [4]float32{0, 0, 0, 1},
		}},
	}
}

func TestWriteReadRoundTripPreservesOrderAndMessages(t *testing.T) {
	var buf bytes.Buffer

	w := NewWriter(&buf)
	for i := uint32(1); i <= 3; i++ {
		if err := w.Write(sampleMessage(i)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	r := NewReader(&buf)
	for i := uint32(1); i <= 3; i++ {
		rec, err := r.Read()
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if rec.Message.Timestamp != i {
			t.Fatalf("record %d timestamp = %d, want %d", i, rec.Message.Timestamp, i)
		}
	}

	if _, err := r.Read(); err != io.EOF {
		t.Fatalf("expected io.EOF at end of stream, got %v", err)
	}
}

func TestReaderReportsDelayBetweenRecords(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	time.Sleep(5 * time.Millisecond)
	if err := w.Write(sampleMessage(1)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	r := NewReader(&buf)
	rec, err := r.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if rec.Delay < 4*time.Millisecond {
		t.Fatalf("expected delay of at least ~5ms, got %v", rec.Delay)
	}
}

func TestReaderTruncatedStreamReturnsUnexpectedEOF(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.Write(sampleMessage(1)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	truncated := bytes.NewReader(buf.Bytes()[:4])
	r := NewReader(truncated)
	if _, err := r.Read(); err != io.ErrUnexpectedEOF {
		t.Fatalf("expected io.ErrUnexpectedEOF, got %v", err)
	}
}

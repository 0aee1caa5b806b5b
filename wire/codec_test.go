package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/SludgePhD/Providence/fingerprint"
	"github.com/SludgePhD/Providence/providenceerr"
)

func sampleMessage() *TrackingMessage {
	return &TrackingMessage{
		Timestamp: 12345,
		Faces: []FaceData{
			{
				EphemeralID:  1,
				PersistentID: PersistentID{Kind: PersistentIDAvailable, Name: "alice"},
				HeadPosition: [2]float32{0.25, 0.75},
				HeadRotation: [4]float32{0, 0, 0, 1},
				LeftEye: &Eye{
					Texture: Image{Width: 2, Height: 1, Data: make([]byte, 8)},
					Mesh: Mesh{
						Vertices: []Vertex{
							{Position: [3]float32{0, 0, 0}, UV: [2]float32{0, 0}},
							{Position: [3]float32{1, 0, 0}, UV: [2]float32{1, 0}},
							{Position: [3]float32{0, 1, 0}, UV: [2]float32{0, 1}},
						},
						Indices: []uint16{0, 1, 2},
					},
					IrisCenter: [3]float32{0.5, 0.5, 0},
					IrisRadius: 0.1,
				},
				RightEye: nil,
			},
			{
				EphemeralID:  2,
				PersistentID: PersistentID{Kind: PersistentIDUnknown},
				HeadPosition: [2]float32{0.1, 0.2},
				HeadRotation: [4]float32{0, 0, 0, 1},
			},
		},
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	want := sampleMessage()

	var buf bytes.Buffer
	if err := WriteMessage(&buf, want); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}

	got, err := ReadMessage(&buf)
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}

	if got.Timestamp != want.Timestamp {
		t.Errorf("Timestamp = %d, want %d", got.Timestamp, want.Timestamp)
	}
	if len(got.Faces) != len(want.Faces) {
		t.Fatalf("len(Faces) = %d, want %d", len(got.Faces), len(want.Faces))
	}
	if got.Faces[0].PersistentID.Name != "alice" {
		t.Errorf("Faces[0].PersistentID.Name = %q, want alice", got.Faces[0].PersistentID.Name)
	}
	if got.Faces[0].LeftEye == nil {
		t.Fatal("Faces[0].LeftEye should round-trip as non-nil")
	}
	if got.Faces[0].RightEye != nil {
		t.Fatal("Faces[0].RightEye should round-trip as nil")
	}
	if len(got.Faces[0].LeftEye.Mesh.Indices) != 3 {
		t.Errorf("LeftEye.Mesh.Indices len = %d, want 3", len(got.Faces[0].LeftEye.Mesh.Indices))
	}
	if got.Faces[1].PersistentID.Kind != PersistentIDUnknown {
		t.Errorf("Faces[1].PersistentID.Kind = %v, want Unknown", got.Faces[1].PersistentID.Kind)
	}
}

func TestReadMessageRejectsFingerprintMismatch(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMessage(&buf, sampleMessage()); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	raw := buf.Bytes()
	binary.LittleEndian.PutUint64(raw[0:8], fingerprint.Of[TrackingMessage]()^0xff)

	_, err := ReadMessage(bytes.NewReader(raw))
	if !errors.Is(err, providenceerr.InvalidData) {
		t.Fatalf("ReadMessage() err = %v, want InvalidData", err)
	}
}

func TestReadMessageRejectsTruncatedBody(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMessage(&buf, sampleMessage()); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	raw := buf.Bytes()[:buf.Len()-4]

	_, err := ReadMessage(bytes.NewReader(raw))
	if err == nil {
		t.Fatal("ReadMessage on a truncated frame should fail")
	}
}

func TestReadMessageOnEmptyStreamReturnsEOF(t *testing.T) {
	_, err := ReadMessage(bytes.NewReader(nil))
	if !errors.Is(err, io.EOF) {
		t.Fatalf("ReadMessage() err = %v, want io.EOF", err)
	}
}

func TestImageDataLengthIsValidated(t *testing.T) {
	msg := sampleMessage()
	msg.Faces[0].LeftEye.Texture.Data = make([]byte, 3) // wrong for 2x1 RGBA8

	var buf bytes.Buffer
	if err := WriteMessage(&buf, msg); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	_, err := ReadMessage(&buf)
	if !errors.Is(err, providenceerr.InvalidData) {
		t.Fatalf("ReadMessage() err = %v, want InvalidData", err)
	}
}

func TestMeshIndexOutOfRangeIsRejected(t *testing.T) {
	msg := sampleMessage()
	msg.Faces[0].LeftEye.Mesh.Indices = []uint16{0, 1, 99}

	var buf bytes.Buffer
	if err := WriteMessage(&buf, msg); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	_, err := ReadMessage(&buf)
	if !errors.Is(err, providenceerr.InvalidData) {
		t.Fatalf("ReadMessage() err = %v, want InvalidData", err)
	}
}

package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/SludgePhD/Providence/fingerprint"
	"github.com/SludgePhD/Providence/providenceerr"
)

// DecodeError reports a failure to read or decode a frame. It always
// unwraps to providenceerr.InvalidData, per spec.md §7's error
// classification, while preserving the underlying cause for diagnostics.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("wire: %s: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() []error {
	return []error{providenceerr.InvalidData, e.Err}
}

// WriteMessage writes m to w as one frame: an 8-byte little-endian
// structural fingerprint, a 4-byte little-endian body size, then the body.
// It blocks until the whole frame is written or w returns an error; callers
// running inside a background task get the same behavior for free, since
// there is no separate non-blocking variant to keep in sync.
func WriteMessage(w io.Writer, m *TrackingMessage) error {
	body := encodeMessage(m)

	var header [12]byte
	binary.LittleEndian.PutUint64(header[0:8], fingerprint.Of[TrackingMessage]())
	binary.LittleEndian.PutUint32(header[8:12], uint32(len(body)))

	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

// ReadMessage reads and decodes one frame from r. A fingerprint mismatch, a
// failed or short body read, or a malformed body is reported as a
// *DecodeError wrapping providenceerr.InvalidData; a failure reading the
// 12-byte header (including a clean EOF between frames) is returned
// unwrapped.
func ReadMessage(r io.Reader) (*TrackingMessage, error) {
	var header [12]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	got := binary.LittleEndian.Uint64(header[0:8])
	want := fingerprint.Of[TrackingMessage]()
	if got != want {
		return nil, &DecodeError{Op: "fingerprint", Err: fmt.Errorf("got %#x, want %#x", got, want)}
	}

	size := binary.LittleEndian.Uint32(header[8:12])
	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, &DecodeError{Op: "body", Err: err}
	}

	msg, err := decodeMessage(body)
	if err != nil {
		return nil, &DecodeError{Op: "decode", Err: err}
	}
	return msg, nil
}

// --- encoding ---

type encoder struct {
	buf bytes.Buffer
}

func (e *encoder) u8(v uint8) { e.buf.WriteByte(v) }

func (e *encoder) u16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	e.buf.Write(b[:])
}

func (e *encoder) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	e.buf.Write(b[:])
}

func (e *encoder) f32(v float32) { e.u32(math.Float32bits(v)) }

func (e *encoder) bytes(b []byte) {
	e.u32(uint32(len(b)))
	e.buf.Write(b)
}

func (e *encoder) str(s string) { e.bytes([]byte(s)) }

func encodeMessage(m *TrackingMessage) []byte {
	e := &encoder{}
	e.u32(m.Timestamp)
	e.u32(uint32(len(m.Faces)))
	for i := range m.Faces {
		encodeFace(e, &m.Faces[i])
	}
	return e.buf.Bytes()
}

func encodeFace(e *encoder, f *FaceData) {
	e.u32(f.EphemeralID)
	encodePersistentID(e, f.PersistentID)
	for _, v := range f.HeadPosition {
		e.f32(v)
	}
	for _, v := range f.HeadRotation {
		e.f32(v)
	}
	encodeOptionalEye(e, f.LeftEye)
	encodeOptionalEye(e, f.RightEye)
}

func encodePersistentID(e *encoder, p PersistentID) {
	e.u8(uint8(p.Kind))
	if p.Kind == PersistentIDAvailable {
		e.str(p.Name)
	}
}

func encodeOptionalEye(e *encoder, eye *Eye) {
	if eye == nil {
		e.u8(0)
		return
	}
	e.u8(1)
	encodeEye(e, eye)
}

func encodeEye(e *encoder, eye *Eye) {
	encodeImage(e, &eye.Texture)
	encodeMesh(e, &eye.Mesh)
	for _, v := range eye.IrisCenter {
		e.f32(v)
	}
	e.f32(eye.IrisRadius)
}

func encodeImage(e *encoder, img *Image) {
	e.u32(img.Width)
	e.u32(img.Height)
	e.bytes(img.Data)
}

func encodeMesh(e *encoder, mesh *Mesh) {
	e.u32(uint32(len(mesh.Vertices)))
	for _, v := range mesh.Vertices {
		for _, p := range v.Position {
			e.f32(p)
		}
		for _, uv := range v.UV {
			e.f32(uv)
		}
	}
	e.u32(uint32(len(mesh.Indices)))
	for _, idx := range mesh.Indices {
		e.u16(idx)
	}
}

// --- decoding ---

type decoder struct {
	data []byte
	pos  int
}

func (d *decoder) need(n int) error {
	if n < 0 || d.pos+n > len(d.data) {
		return io.ErrUnexpectedEOF
	}
	return nil
}

func (d *decoder) u8() (uint8, error) {
	if err := d.need(1); err != nil {
		return 0, err
	}
	v := d.data[d.pos]
	d.pos++
	return v, nil
}

func (d *decoder) u16() (uint16, error) {
	if err := d.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(d.data[d.pos:])
	d.pos += 2
	return v, nil
}

func (d *decoder) u32() (uint32, error) {
	if err := d.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(d.data[d.pos:])
	d.pos += 4
	return v, nil
}

func (d *decoder) f32() (float32, error) {
	v, err := d.u32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (d *decoder) bytes() ([]byte, error) {
	n, err := d.u32()
	if err != nil {
		return nil, err
	}
	if err := d.need(int(n)); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	copy(b, d.data[d.pos:d.pos+int(n)])
	d.pos += int(n)
	return b, nil
}

func (d *decoder) str() (string, error) {
	b, err := d.bytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeMessage(body []byte) (*TrackingMessage, error) {
	d := &decoder{data: body}
	ts, err := d.u32()
	if err != nil {
		return nil, err
	}
	n, err := d.u32()
	if err != nil {
		return nil, err
	}
	faces := make([]FaceData, n)
	for i := range faces {
		f, err := decodeFace(d)
		if err != nil {
			return nil, err
		}
		faces[i] = *f
	}
	return &TrackingMessage{Timestamp: ts, Faces: faces}, nil
}

func decodeFace(d *decoder) (*FaceData, error) {
	var f FaceData
	var err error
	if f.EphemeralID, err = d.u32(); err != nil {
		return nil, err
	}
	if f.PersistentID, err = decodePersistentID(d); err != nil {
		return nil, err
	}
	for i := range f.HeadPosition {
		if f.HeadPosition[i], err = d.f32(); err != nil {
			return nil, err
		}
	}
	for i := range f.HeadRotation {
		if f.HeadRotation[i], err = d.f32(); err != nil {
			return nil, err
		}
	}
	if f.LeftEye, err = decodeOptionalEye(d); err != nil {
		return nil, err
	}
	if f.RightEye, err = decodeOptionalEye(d); err != nil {
		return nil, err
	}
	return &f, nil
}

func decodePersistentID(d *decoder) (PersistentID, error) {
	kindByte, err := d.u8()
	if err != nil {
		return PersistentID{}, err
	}
	kind := PersistentIDKind(kindByte)
	if kind > PersistentIDAvailable {
		return PersistentID{}, fmt.Errorf("invalid PersistentID kind %d", kindByte)
	}
	p := PersistentID{Kind: kind}
	if kind == PersistentIDAvailable {
		if p.Name, err = d.str(); err != nil {
			return PersistentID{}, err
		}
	}
	return p, nil
}

func decodeOptionalEye(d *decoder) (*Eye, error) {
	tag, err := d.u8()
	if err != nil {
		return nil, err
	}
	if tag == 0 {
		return nil, nil
	}
	eye, err := decodeEye(d)
	if err != nil {
		return nil, err
	}
	return eye, nil
}

func decodeEye(d *decoder) (*Eye, error) {
	var eye Eye
	img, err := decodeImage(d)
	if err != nil {
		return nil, err
	}
	eye.Texture = *img

	mesh, err := decodeMesh(d)
	if err != nil {
		return nil, err
	}
	eye.Mesh = *mesh

	for i := range eye.IrisCenter {
		if eye.IrisCenter[i], err = d.f32(); err != nil {
			return nil, err
		}
	}
	if eye.IrisRadius, err = d.f32(); err != nil {
		return nil, err
	}
	return &eye, nil
}

func decodeImage(d *decoder) (*Image, error) {
	var img Image
	var err error
	if img.Width, err = d.u32(); err != nil {
		return nil, err
	}
	if img.Height, err = d.u32(); err != nil {
		return nil, err
	}
	if img.Data, err = d.bytes(); err != nil {
		return nil, err
	}
	if uint64(len(img.Data)) != 4*uint64(img.Width)*uint64(img.Height) {
		return nil, fmt.Errorf("image data length %d does not match %dx%d RGBA8", len(img.Data), img.Width, img.Height)
	}
	return &img, nil
}

func decodeMesh(d *decoder) (*Mesh, error) {
	var mesh Mesh
	vn, err := d.u32()
	if err != nil {
		return nil, err
	}
	mesh.Vertices = make([]Vertex, vn)
	for i := range mesh.Vertices {
		v := &mesh.Vertices[i]
		for j := range v.Position {
			if v.Position[j], err = d.f32(); err != nil {
				return nil, err
			}
		}
		for j := range v.UV {
			if v.UV[j], err = d.f32(); err != nil {
				return nil, err
			}
		}
	}

	in, err := d.u32()
	if err != nil {
		return nil, err
	}
	if in%3 != 0 {
		return nil, fmt.Errorf("mesh index count %d is not a multiple of 3", in)
	}
	mesh.Indices = make([]uint16, in)
	for i := range mesh.Indices {
		if mesh.Indices[i], err = d.u16(); err != nil {
			return nil, err
		}
		if int(mesh.Indices[i]) >= len(mesh.Vertices) {
			return nil, fmt.Errorf("mesh index %d out of range for %d vertices", mesh.Indices[i], len(mesh.Vertices))
		}
	}
	return &mesh, nil
}

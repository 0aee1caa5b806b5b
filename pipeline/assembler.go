package pipeline

import (
	"math"

	"github.com/SludgePhD/Providence/wire"
)

// FaceModel describes the shape of a Tracker's landmark output: which
// indices into a Landmarks slice make up each eye's contour and iris, and
// the canonical (neutral-pose) reference positions used for Procrustes
// head-rotation fitting. Any landmarking model supplying 468+ landmarks
// and per-eye contour/iris landmarks (out of scope per spec.md §1) plugs
// in by supplying one of these.
type FaceModel struct {
	// Reference is the canonical neutral-pose position of every mesh
	// landmark, used as the Procrustes fit target. Must be the same
	// length as the Landmarks a Tracker emits.
	Reference []Point3
	// LeftEyeContour/RightEyeContour index the 16 ordered eye-contour
	// landmarks for each eye. LeftIris/RightIris index the 5 iris
	// landmarks (first = center, remaining 4 = rim) for each eye.
	LeftEyeContour, RightEyeContour [16]int
	LeftIris, RightIris             [5]int
}

// Assembler turns face-track output into wire.FaceData values, per
// spec.md §4.8 step 3.
type Assembler struct {
	model    FaceModel
	analyzer *ProcrustesAnalyzer
}

// NewAssembler constructs an Assembler bound to the given landmark model.
func NewAssembler(model FaceModel) *Assembler {
	return &Assembler{model: model, analyzer: NewProcrustesAnalyzer(model.Reference)}
}

// Assemble builds a wire.FaceData for one frame-track output. src is the
// full camera frame that out's landmarks (or detection rect) were found
// in. The returned FaceData's Timestamp-bearing parent message is left for
// the caller to stamp; Assemble only fills the per-face fields.
func (a *Assembler) Assemble(ephemeralID uint32, persistentID wire.PersistentID, out FrameOutput, src Image) wire.FaceData {
	face := wire.FaceData{EphemeralID: ephemeralID, PersistentID: persistentID}

	if out.Degraded {
		cx, cy := out.Detection.Rect.Center()
		face.HeadPosition = normalizedPosition(cx, cy, src)
		face.HeadRotation = rotationAboutZ(out.Detection.Angle).AsArray()
		return face
	}

	rotation := a.analyzer.Rotation(FlipY(out.Landmarks))
	// Mirror semantics: the published view is horizontally mirrored, so
	// pitch and roll (rotation about X and Z) are inverted relative to
	// the analyzed mesh.
	mirrored := Quaternion{X: -rotation.X, Y: rotation.Y, Z: -rotation.Z, W: rotation.W}
	inv := mirrored.Inverse()

	leftEye := TriangulateEye(
		gather16(out.Landmarks, a.model.LeftEyeContour),
		gather5(out.Landmarks, a.model.LeftIris),
		inv, src,
	)
	rightEye := TriangulateEye(
		gather16(out.Landmarks, a.model.RightEyeContour),
		gather5(out.Landmarks, a.model.RightIris),
		inv, src,
	)
	mirrorEye(&leftEye)
	mirrorEye(&rightEye)

	cx, cy := landmarkCentroid2D(out.Landmarks)
	face.HeadPosition = normalizedPosition(cx, cy, src)
	face.HeadRotation = mirrored.AsArray()
	// Mirror swap: the subject's tracked left eye is presented as the
	// viewer's right eye, and vice versa.
	face.LeftEye = &rightEye
	face.RightEye = &leftEye
	return face
}

// AsArray returns q as (x, y, z, w), the wire order for a head rotation.
func (q Quaternion) AsArray() [4]float32 {
	return [4]float32{q.X, q.Y, q.Z, q.W}
}

func rotationAboutZ(angle float32) Quaternion {
	half := float64(angle) / 2
	return Quaternion{Z: float32(math.Sin(half)), W: float32(math.Cos(half))}
}

func normalizedPosition(x, y float32, img Image) [2]float32 {
	w, h := float32(img.Width), float32(img.Height)
	if w == 0 || h == 0 {
		return [2]float32{0, 0}
	}
	return [2]float32{x / w, y / h}
}

func landmarkCentroid2D(landmarks Landmarks) (x, y float32) {
	if len(landmarks) == 0 {
		return 0, 0
	}
	c := centroid(landmarks)
	return c.X, c.Y
}

func gather16(landmarks Landmarks, idx [16]int) [16]Point3 {
	var out [16]Point3
	for i, j := range idx {
		out[i] = landmarks[j]
	}
	return out
}

func gather5(landmarks Landmarks, idx [5]int) [5]Point3 {
	var out [5]Point3
	for i, j := range idx {
		out[i] = landmarks[j]
	}
	return out
}

// mirrorEye horizontally flips a triangulated eye in place: negating each
// vertex's X position, mapping its U coordinate to 1-U, and negating the
// iris center's X, reversing
// its apparent winding from clockwise to counter-clockwise without
// reordering any index.
func mirrorEye(eye *wire.Eye) {
	for i := range eye.Mesh.Vertices {
		v := &eye.Mesh.Vertices[i]
		v.Position[0] = -v.Position[0]
		v.UV[0] = 1 - v.UV[0]
	}
	eye.IrisCenter[0] = -eye.IrisCenter[0]
}

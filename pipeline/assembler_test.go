package pipeline

import (
	"testing"

	"github.com/SludgePhD/Providence/wire"
)

func testFaceModel() FaceModel {
	ref := make([]Point3, 30)
	for i := range ref {
		ref[i] = Point3{X: float32(i), Y: float32(i) * 2, Z: 0}
	}
	var left, right [16]int
	for i := 0; i < 16; i++ {
		left[i] = i
		right[i] = i + 16
	}
	return FaceModel{
		Reference:       ref,
		LeftEyeContour:  left,
		RightEyeContour: [16]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
		LeftIris:        [5]int{0, 1, 2, 3, 4},
		RightIris:       [5]int{0, 1, 2, 3, 4},
	}
}

func TestAssembleDegradedFillsRectCenterAndNoEyes(t *testing.T) {
	model := testFaceModel()
	a := NewAssembler(model)

	out := FrameOutput{
		Degraded:  true,
		Detection: Detection{Rect: Rect{X: 10, Y: 10, W: 20, H: 20}, Angle: 0},
	}
	src := Image{Width: 100, Height: 100}

	face := a.Assemble(7, wire.PersistentID{Kind: wire.PersistentIDUnknown}, out, src)

	if face.LeftEye != nil || face.RightEye != nil {
		t.Fatal("degraded output should have no eyes")
	}
	want := [2]float32{20.0 / 100, 20.0 / 100}
	if face.HeadPosition != want {
		t.Fatalf("HeadPosition = %v, want %v", face.HeadPosition, want)
	}
	if face.EphemeralID != 7 {
		t.Fatalf("EphemeralID = %d, want 7", face.EphemeralID)
	}
}

func TestAssembleTrackedFillsBothEyes(t *testing.T) {
	model := testFaceModel()
	a := NewAssembler(model)

	landmarks := make(Landmarks, 30)
	for i := range landmarks {
		landmarks[i] = Point3{X: float32(i) + 10, Y: float32(i)*2 + 5, Z: 0}
	}
	out := FrameOutput{Landmarks: landmarks}
	src := Image{Width: 100, Height: 100, Data: make([]byte, 100*100*4)}

	face := a.Assemble(1, wire.PersistentID{Kind: wire.PersistentIDInProgress}, out, src)

	if face.LeftEye == nil || face.RightEye == nil {
		t.Fatal("tracked output should have both eyes present")
	}
	if face.HeadPosition[0] < 0 || face.HeadPosition[0] > 1 || face.HeadPosition[1] < 0 || face.HeadPosition[1] > 1 {
		t.Fatalf("HeadPosition out of [0,1]: %v", face.HeadPosition)
	}
}

func TestMirrorEyeFlipsXAndU(t *testing.T) {
	eye := wire.Eye{
		Mesh: wire.Mesh{
			Vertices: []wire.Vertex{{Position: [3]float32{1, 2, 3}, UV: [2]float32{0.25, 0.75}}},
		},
		IrisCenter: [3]float32{2, 0, 0},
	}
	mirrorEye(&eye)
	if eye.Mesh.Vertices[0].Position[0] != -1 {
		t.Fatalf("expected X negated, got %v", eye.Mesh.Vertices[0].Position[0])
	}
	if eye.Mesh.Vertices[0].UV[0] != 0.75 {
		t.Fatalf("expected U flipped to 0.75, got %v", eye.Mesh.Vertices[0].UV[0])
	}
	if eye.IrisCenter[0] != -2 {
		t.Fatalf("expected iris center X negated, got %v", eye.IrisCenter[0])
	}
}

func TestRotationAboutZIsUnitQuaternion(t *testing.T) {
	q := rotationAboutZ(1.2)
	norm := q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W
	if !approxEqual(norm, 1, 1e-4) {
		t.Fatalf("expected unit quaternion, norm^2 = %v", norm)
	}
}

package main

import (
	"github.com/SludgePhD/Providence/pipeline"
)

// Webcam capture and the face detection/landmarking model are out of
// scope per spec.md §1 ("treated as external collaborators"): any vision
// library supplying detections, 468+ landmarks, and per-eye contour/iris
// landmarks plugs in here. newWebcamSource and newDemoStages are minimal
// stand-ins so this binary links and runs end-to-end without one.

const (
	demoFrameWidth  = 640
	demoFrameHeight = 480
)

// blankImageSource is a placeholder pipeline.ImageSource that always
// reports an empty frame. A real binary replaces this with a camera
// library's capture handle.
type blankImageSource struct {
	deviceIndex int
}

func newWebcamSource(deviceIndex int) (pipeline.ImageSource, error) {
	return &blankImageSource{deviceIndex: deviceIndex}, nil
}

func (s *blankImageSource) Read() (pipeline.Image, error) {
	return pipeline.Image{
		Width:  demoFrameWidth,
		Height: demoFrameHeight,
		Data:   make([]byte, demoFrameWidth*demoFrameHeight*4),
	}, nil
}

func (s *blankImageSource) Close() error { return nil }

// noopDetector reports no faces; a real binary supplies a face detection
// model here.
type noopDetector struct{}

func (noopDetector) Detect(pipeline.Image) []pipeline.Detection { return nil }

// noopTracker never locates landmarks from an existing ROI, so the
// face-track worker always falls through to detection (which, paired with
// noopDetector, always reports "no face in view"). A real binary supplies
// a landmark tracking model here.
type noopTracker struct{}

func (noopTracker) Track(pipeline.Image) (pipeline.Landmarks, bool) { return nil, false }
func (noopTracker) SetROI(pipeline.Rect)                            {}
func (noopTracker) AspectRatio() float32                            { return 1 }

// demoFaceModel describes a minimal 42-landmark reference mesh: 16 left
// eye contour points, 16 right eye contour points, then 5 iris points per
// eye. Real models like MediaPipe FaceMesh supply 468+ landmarks; this
// shape only needs to stay internally consistent, since the stub tracker
// above never actually emits landmarks for it to index into.
func demoFaceModel() pipeline.FaceModel {
	reference := make([]pipeline.Point3, 42)
	var left, right [16]int
	for i := 0; i < 16; i++ {
		left[i] = i
		right[i] = i + 16
	}
	return pipeline.FaceModel{
		Reference:       reference,
		LeftEyeContour:  left,
		RightEyeContour: right,
		LeftIris:        [5]int{32, 33, 34, 35, 36},
		RightIris:       [5]int{37, 38, 39, 40, 41},
	}
}

func newDemoStages() (*pipeline.FaceTracker, *pipeline.Assembler) {
	tracker := pipeline.NewFaceTracker(noopDetector{}, noopTracker{}, pipeline.NewEMAFilter(0.5))
	assembler := pipeline.NewAssembler(demoFaceModel())
	return tracker, assembler
}

package pipeline

// FaceTracker owns a Detector and a Tracker with an attached smoothing
// filter, and decides per frame whether to track, detect, or report no
// face in view, per spec.md §4.8 step 2.
type FaceTracker struct {
	detector Detector
	tracker  Tracker
	smoother *EMAFilter
	hasROI   bool
}

// NewFaceTracker constructs a FaceTracker. smoother may be nil to disable
// landmark smoothing.
func NewFaceTracker(detector Detector, tracker Tracker, smoother *EMAFilter) *FaceTracker {
	return &FaceTracker{detector: detector, tracker: tracker, smoother: smoother}
}

// Process runs one frame through the tracker, falling back to detection on
// a centered, aspect-fit crop if tracking fails, per spec.md §4.8 step 2.
// ok is false when neither tracking nor detection found a face, meaning the
// caller should drop its output promise ("no face in view").
func (f *FaceTracker) Process(img Image) (out FrameOutput, ok bool) {
	if f.hasROI {
		if landmarks, tracked := f.tracker.Track(img); tracked {
			if f.smoother != nil {
				landmarks = f.smoother.Apply(landmarks)
			}
			return FrameOutput{Landmarks: landmarks}, true
		}
		f.hasROI = false
		if f.smoother != nil {
			f.smoother.Reset()
		}
	}

	crop := centeredCrop(img, f.tracker.AspectRatio())
	detections := f.detector.Detect(img)
	if len(detections) == 0 {
		return FrameOutput{}, false
	}

	best := detections[0]
	for _, d := range detections[1:] {
		if d.Confidence > best.Confidence {
			best = d
		}
	}

	rect := adjustToFullImage(best.Rect, crop)
	f.tracker.SetROI(rect)
	f.hasROI = true

	return FrameOutput{
		Detection: Detection{Rect: rect, Confidence: best.Confidence, Angle: best.Angle},
		Degraded:  true,
	}, true
}

// centeredCrop returns the largest rectangle, centered on img, with the
// given width/height aspect ratio.
func centeredCrop(img Image, aspect float32) Rect {
	full := Rect{X: 0, Y: 0, W: float32(img.Width), H: float32(img.Height)}
	return full.GrowToFitAspect(aspect)
}

// adjustToFullImage translates a detection rect, expressed relative to
// crop's origin, into full-image coordinates.
func adjustToFullImage(rect, crop Rect) Rect {
	return Rect{X: rect.X + crop.X, Y: rect.Y + crop.Y, W: rect.W, H: rect.H}
}

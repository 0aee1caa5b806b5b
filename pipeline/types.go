package pipeline

// Point3 is a lightweight 3D vector used by the tracking stages before a
// FaceData's fixed-size wire arrays are filled in by the assembler.
type Point3 struct{ X, Y, Z float32 }

// Quaternion is a rotation, expected to be unit-norm once returned from
// Rotation.
type Quaternion struct{ X, Y, Z, W float32 }

// Identity is the zero-rotation quaternion.
func Identity() Quaternion { return Quaternion{W: 1} }

// Rect is an axis-aligned rectangle in image pixel coordinates.
type Rect struct {
	X, Y, W, H float32
}

// Center returns the rectangle's center point.
func (r Rect) Center() (x, y float32) {
	return r.X + r.W/2, r.Y + r.H/2
}

// GrowRel grows the rectangle by margin, relative to its own size, about
// its center. A margin of 0.9 grows each dimension by 90%.
func (r Rect) GrowRel(margin float32) Rect {
	dw := r.W * margin
	dh := r.H * margin
	return Rect{X: r.X - dw/2, Y: r.Y - dh/2, W: r.W + dw, H: r.H + dh}
}

// GrowToFitAspect grows the rectangle about its center to the smallest
// size with the given width/height aspect ratio that still contains it.
func (r Rect) GrowToFitAspect(aspect float32) Rect {
	if aspect <= 0 {
		return r
	}
	current := r.W / r.H
	cx, cy := r.Center()
	w, h := r.W, r.H
	if current < aspect {
		w = r.H * aspect
	} else {
		h = r.W / aspect
	}
	return Rect{X: cx - w/2, Y: cy - h/2, W: w, H: h}
}

// Image is one captured camera frame: RGBA8, row-major, top-left origin —
// the same layout wire.Image publishes.
type Image struct {
	Width, Height int
	Data          []byte
}

// Landmarks is a tracker's mesh output: one Point3 per model landmark, in
// image pixel coordinates.
type Landmarks []Point3

// Detection is a detector's output: a face bounding rect plus its in-plane
// rotation angle, in the coordinate space of the image it was run on.
type Detection struct {
	Rect       Rect
	Confidence float32
	Angle      float32
}

// Detector finds faces in an image. The face-track worker only ever calls
// one Detector at a time, so implementations need not be safe for
// concurrent use.
type Detector interface {
	Detect(img Image) []Detection
}

// Tracker follows a previously detected face's landmarks frame to frame
// using an existing region of interest, object-safe per spec.md §9 ("the
// trackers and detectors are consumed behind an object-safe interface").
type Tracker interface {
	// Track attempts to locate landmarks using the tracker's current ROI.
	// ok is false if tracking was lost and detection should run instead.
	Track(img Image) (landmarks Landmarks, ok bool)
	// SetROI seeds (or reseeds) the tracker's region of interest, typically
	// from a fresh Detection.
	SetROI(rect Rect)
	// AspectRatio is the width/height the underlying model expects a
	// cropped detection input to have.
	AspectRatio() float32
}

// FrameOutput is what the face-track worker hands to the assembler: either
// full landmarks (tracked), a bare detection (degraded), or neither (no
// face in view, represented by the caller dropping the promise instead of
// resolving it with a FrameOutput).
type FrameOutput struct {
	Landmarks Landmarks // nil when Degraded
	Detection Detection
	Degraded  bool
}

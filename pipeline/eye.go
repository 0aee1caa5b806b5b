package pipeline

import (
	"math"

	"github.com/SludgePhD/Providence/wire"
)

// eyeStrip is the fixed 14-triangle tessellation over 16 ordered contour
// vertices, emitted clockwise; the assembler's horizontal-flip step
// reverses winding to counter-clockwise.
var eyeStrip = [14][3]uint16{
	{0, 1, 15}, {1, 2, 15}, {15, 2, 14}, {2, 3, 14}, {14, 3, 13}, {3, 4, 13}, {13, 4, 12},
	{4, 5, 12}, {12, 5, 11}, {5, 6, 11}, {11, 6, 10}, {6, 7, 10}, {10, 7, 9}, {7, 8, 9},
}

// TriangulateEye implements the fixed eye-triangulation sub-algorithm: given
// 16 ordered eye-contour landmarks and 5 iris landmarks (first = center,
// remaining 4 = rim, all in source-image pixel coordinates) plus the
// inverse head rotation and the full source frame, it produces a wire.Eye
// with a cropped texture, a head-local normalized mesh, and iris data.
func TriangulateEye(contour [16]Point3, iris [5]Point3, headRotationInv Quaternion, src Image) wire.Eye {
	minP, maxP := aabb(contour[:])
	minX, minY := int(math.Floor(float64(minP.X))), int(math.Floor(float64(minP.Y)))
	maxX, maxY := int(math.Ceil(float64(maxP.X))), int(math.Ceil(float64(maxP.Y)))

	center := Point3{X: (minP.X + maxP.X) / 2, Y: (minP.Y + maxP.Y) / 2, Z: (minP.Z + maxP.Z) / 2}
	rangeX, rangeY, rangeZ := maxP.X-minP.X, maxP.Y-minP.Y, maxP.Z-minP.Z
	scale := maxOf3(rangeX, rangeY, rangeZ)
	if scale == 0 {
		scale = 1
	}

	vertices := make([]wire.Vertex, 16)
	for i, p := range contour {
		normalized := Point3{X: (p.X - center.X) / scale, Y: (p.Y - center.Y) / scale, Z: (p.Z - center.Z) / scale}
		aligned := headRotationInv.RotatePoint(normalized)
		uv := [2]float32{0, 0}
		if rangeX != 0 {
			uv[0] = (p.X - minP.X) / rangeX
		}
		if rangeY != 0 {
			uv[1] = (p.Y - minP.Y) / rangeY
		}
		vertices[i] = wire.Vertex{
			Position: [3]float32{aligned.X, aligned.Y, aligned.Z},
			UV:       uv,
		}
	}

	indices := make([]uint16, 0, len(eyeStrip)*3)
	for _, tri := range eyeStrip {
		indices = append(indices, tri[0], tri[1], tri[2])
	}

	irisCenterLocal := headRotationInv.RotatePoint(Point3{
		X: (iris[0].X - center.X) / scale,
		Y: (iris[0].Y - center.Y) / scale,
		Z: (iris[0].Z - center.Z) / scale,
	})

	var radiusSum float32
	for _, rim := range iris[1:] {
		local := headRotationInv.RotatePoint(Point3{
			X: (rim.X - center.X) / scale,
			Y: (rim.Y - center.Y) / scale,
			Z: (rim.Z - center.Z) / scale,
		})
		radiusSum += distance(irisCenterLocal, local)
	}

	return wire.Eye{
		Texture: cropImage(src, minX, minY, maxX, maxY),
		Mesh: wire.Mesh{
			Vertices: vertices,
			Indices:  indices,
		},
		IrisCenter: [3]float32{irisCenterLocal.X, irisCenterLocal.Y, irisCenterLocal.Z},
		IrisRadius: radiusSum / float32(len(iris)-1),
	}
}

func aabb(pts []Point3) (min, max Point3) {
	min, max = pts[0], pts[0]
	for _, p := range pts[1:] {
		if p.X < min.X {
			min.X = p.X
		}
		if p.Y < min.Y {
			min.Y = p.Y
		}
		if p.Z < min.Z {
			min.Z = p.Z
		}
		if p.X > max.X {
			max.X = p.X
		}
		if p.Y > max.Y {
			max.Y = p.Y
		}
		if p.Z > max.Z {
			max.Z = p.Z
		}
	}
	return
}

func maxOf3(a, b, c float32) float32 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

func distance(a, b Point3) float32 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return float32(math.Sqrt(float64(dx*dx + dy*dy + dz*dz)))
}

// cropImage extracts the RGBA8 sub-image covered by [minX,maxX)x[minY,maxY).
// The result always has the full requested size; pixels outside src (a crop
// rect extending past the frame edge) are left zeroed.
func cropImage(src Image, minX, minY, maxX, maxY int) wire.Image {
	if maxX <= minX {
		maxX = minX + 1
	}
	if maxY <= minY {
		maxY = minY + 1
	}
	w, h := maxX-minX, maxY-minY
	out := make([]byte, w*h*4)

	for y := 0; y < h; y++ {
		sy := minY + y
		if sy < 0 || sy >= src.Height {
			continue
		}
		for x := 0; x < w; x++ {
			sx := minX + x
			if sx < 0 || sx >= src.Width {
				continue
			}
			srcOff := (sy*src.Width + sx) * 4
			dstOff := (y*w + x) * 4
			copy(out[dstOff:dstOff+4], src.Data[srcOff:srcOff+4])
		}
	}

	return wire.Image{Width: uint32(w), Height: uint32(h), Data: out}
}

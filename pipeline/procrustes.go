package pipeline

import "math"

// ProcrustesAnalyzer estimates the rotation that best aligns a fixed set of
// canonical reference landmark positions to an observed mesh, via Horn's
// closed-form absolute-orientation method. No linear-algebra or SVD
// library appears anywhere in this module's retrieval pack, so the
// eigen-decomposition it needs is solved with a direct Jacobi sweep over
// the resulting 4x4 symmetric matrix instead — finite, non-iterative in
// the number of landmarks, and self-contained.
type ProcrustesAnalyzer struct {
	reference []Point3
}

// NewProcrustesAnalyzer builds an analyzer against a fixed canonical mesh
// (e.g. a face model's neutral-pose reference positions).
func NewProcrustesAnalyzer(reference []Point3) *ProcrustesAnalyzer {
	return &ProcrustesAnalyzer{reference: reference}
}

// Rotation returns the unit quaternion that best maps the analyzer's
// reference positions onto observed. observed must have the same length as
// the reference set; otherwise Rotation returns the identity rotation.
func (a *ProcrustesAnalyzer) Rotation(observed []Point3) Quaternion {
	n := len(a.reference)
	if n == 0 || len(observed) != n {
		return Identity()
	}

	refC, obsC := centroid(a.reference), centroid(observed)

	var s [3][3]float64
	for i := 0; i < n; i++ {
		p := sub(a.reference[i], refC)
		q := sub(observed[i], obsC)
		s[0][0] += float64(p.X) * float64(q.X)
		s[0][1] += float64(p.X) * float64(q.Y)
		s[0][2] += float64(p.X) * float64(q.Z)
		s[1][0] += float64(p.Y) * float64(q.X)
		s[1][1] += float64(p.Y) * float64(q.Y)
		s[1][2] += float64(p.Y) * float64(q.Z)
		s[2][0] += float64(p.Z) * float64(q.X)
		s[2][1] += float64(p.Z) * float64(q.Y)
		s[2][2] += float64(p.Z) * float64(q.Z)
	}

	n4 := [4][4]float64{
		{s[0][0] + s[1][1] + s[2][2], s[1][2] - s[2][1], s[2][0] - s[0][2], s[0][1] - s[1][0]},
		{s[1][2] - s[2][1], s[0][0] - s[1][1] - s[2][2], s[0][1] + s[1][0], s[2][0] + s[0][2]},
		{s[2][0] - s[0][2], s[0][1] + s[1][0], -s[0][0] + s[1][1] - s[2][2], s[1][2] + s[2][1]},
		{s[0][1] - s[1][0], s[2][0] + s[0][2], s[1][2] + s[2][1], -s[0][0] - s[1][1] + s[2][2]},
	}

	eigenvalues, eigenvectors := jacobiEigenSymmetric4(n4)
	best := 0
	for i := 1; i < 4; i++ {
		if eigenvalues[i] > eigenvalues[best] {
			best = i
		}
	}

	return normalizeQuaternion(Quaternion{
		W: float32(eigenvectors[0][best]),
		X: float32(eigenvectors[1][best]),
		Y: float32(eigenvectors[2][best]),
		Z: float32(eigenvectors[3][best]),
	})
}

func centroid(pts []Point3) Point3 {
	var c Point3
	for _, p := range pts {
		c.X += p.X
		c.Y += p.Y
		c.Z += p.Z
	}
	inv := 1 / float32(len(pts))
	return Point3{X: c.X * inv, Y: c.Y * inv, Z: c.Z * inv}
}

func sub(a, b Point3) Point3 {
	return Point3{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z}
}

// FlipY negates every point's Y coordinate, bringing image-space landmarks
// (Y down) into canonical 3D coordinates (Y up) before Procrustes fitting.
func FlipY(pts []Point3) []Point3 {
	out := make([]Point3, len(pts))
	for i, p := range pts {
		out[i] = Point3{X: p.X, Y: -p.Y, Z: p.Z}
	}
	return out
}

func normalizeQuaternion(q Quaternion) Quaternion {
	norm := float32(math.Sqrt(float64(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)))
	if norm == 0 {
		return Identity()
	}
	return Quaternion{X: q.X / norm, Y: q.Y / norm, Z: q.Z / norm, W: q.W / norm}
}

// RotatePoint rotates p by q, assuming q is unit-norm.
func (q Quaternion) RotatePoint(p Point3) Point3 {
	tx := 2 * (q.Y*p.Z - q.Z*p.Y)
	ty := 2 * (q.Z*p.X - q.X*p.Z)
	tz := 2 * (q.X*p.Y - q.Y*p.X)
	return Point3{
		X: p.X + q.W*tx + (q.Y*tz - q.Z*ty),
		Y: p.Y + q.W*ty + (q.Z*tx - q.X*tz),
		Z: p.Z + q.W*tz + (q.X*ty - q.Y*tx),
	}
}

// Inverse returns q's inverse, assuming q is unit-norm (for which the
// inverse is the conjugate).
func (q Quaternion) Inverse() Quaternion {
	return Quaternion{X: -q.X, Y: -q.Y, Z: -q.Z, W: q.W}
}

// jacobiEigenSymmetric4 computes all eigenvalues and eigenvectors (as
// columns of the returned matrix) of the symmetric 4x4 matrix a, using the
// cyclic Jacobi eigenvalue algorithm.
func jacobiEigenSymmetric4(a [4][4]float64) (eigenvalues [4]float64, eigenvectors [4][4]float64) {
	v := [4][4]float64{}
	for i := 0; i < 4; i++ {
		v[i][i] = 1
	}

	const maxSweeps = 60
	for sweep := 0; sweep < maxSweeps; sweep++ {
		off := 0.0
		for p := 0; p < 4; p++ {
			for q := p + 1; q < 4; q++ {
				off += a[p][q] * a[p][q]
			}
		}
		if off < 1e-24 {
			break
		}

		for p := 0; p < 4; p++ {
			for q := p + 1; q < 4; q++ {
				if math.Abs(a[p][q]) < 1e-300 {
					continue
				}
				theta := (a[q][q] - a[p][p]) / (2 * a[p][q])
				var t float64
				if theta == 0 {
					t = 1
				} else {
					t = jacobiSign(theta) / (math.Abs(theta) + math.Sqrt(theta*theta+1))
				}
				c := 1 / math.Sqrt(t*t+1)
				s := t * c

				app, aqq, apq := a[p][p], a[q][q], a[p][q]
				a[p][p] = c*c*app - 2*s*c*apq + s*s*aqq
				a[q][q] = s*s*app + 2*s*c*apq + c*c*aqq
				a[p][q] = 0
				a[q][p] = 0

				for i := 0; i < 4; i++ {
					if i == p || i == q {
						continue
					}
					aip, aiq := a[i][p], a[i][q]
					a[i][p] = c*aip - s*aiq
					a[p][i] = a[i][p]
					a[i][q] = s*aip + c*aiq
					a[q][i] = a[i][q]
				}
				for i := 0; i < 4; i++ {
					vip, viq := v[i][p], v[i][q]
					v[i][p] = c*vip - s*viq
					v[i][q] = s*vip + c*viq
				}
			}
		}
	}

	for i := 0; i < 4; i++ {
		eigenvalues[i] = a[i][i]
	}
	eigenvectors = v
	return
}

func jacobiSign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}

// Package detector provides face landmark detection interfaces and types
// for the head collision monitor.
package detector

// FaceMesh landmark indices for the six canonical head-model points.
// See: https://developers.google.com/mediapipe/solutions/vision/face_landmarker
const (
	NoseTip    = 1
	Chin       = 152
	LeftEye    = 33  // left eye outer corner
	RightEye   = 263 // right eye outer corner
	LeftMouth  = 61  // left mouth corner
	RightMouth = 291 // right mouth corner

	// NumMeshLandmarks is the size of the dense mesh without iris refinement.
	NumMeshLandmarks = 468
)

// CanonicalIndices lists the six mesh indices used for pose recovery, in
// the same order as the canonical 3D head model points.
var CanonicalIndices = [6]int{NoseTip, Chin, LeftEye, RightEye, LeftMouth, RightMouth}

// Point3D is a single mesh landmark. X and Y are normalized image
// coordinates in [0, 1]; Z is relative depth in the same scale as X.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// FaceLandmarks is one detected face: a dense ordered set of mesh points.
// A face has no identity beyond its index in the per-frame result list.
type FaceLandmarks struct {
	Points []Point3D `json:"points"`
	Score  float64   `json:"score"`
}

// HasCanonical reports whether the mesh is dense enough to contain all six
// canonical pose landmarks.
func (f *FaceLandmarks) HasCanonical() bool {
	for _, idx := range CanonicalIndices {
		if idx >= len(f.Points) {
			return false
		}
	}
	return true
}

// CanonicalPixels returns the six canonical landmarks in pixel coordinates
// for a frame of the given size, ordered to match the canonical head model.
func (f *FaceLandmarks) CanonicalPixels(width, height int) [6][2]float64 {
	var pts [6][2]float64
	for i, idx := range CanonicalIndices {
		pts[i][0] = f.Points[idx].X * float64(width)
		pts[i][1] = f.Points[idx].Y * float64(height)
	}
	return pts
}

// PixelExtrema returns the min/max pixel coordinates over all mesh points
// for a frame of the given size.
func (f *FaceLandmarks) PixelExtrema(width, height int) (minX, minY, maxX, maxY float64) {
	if len(f.Points) == 0 {
		return 0, 0, 0, 0
	}
	minX, maxX = f.Points[0].X, f.Points[0].X
	minY, maxY = f.Points[0].Y, f.Points[0].Y
	for _, p := range f.Points[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	w := float64(width)
	h := float64(height)
	return minX * w, minY * h, maxX * w, maxY * h
}

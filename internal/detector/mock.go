package detector

import (
	"math"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	faces []FaceLandmarks
	err   error
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetFaces sets the faces that will be returned by Detect.
func (m *MockDetector) SetFaces(faces []FaceLandmarks) {
	m.faces = faces
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// Detect returns the pre-configured faces or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]FaceLandmarks, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.faces, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// SyntheticFace returns a preset frontal face mesh centered at (cx, cy) in
// normalized image coordinates, spanning roughly halfW horizontally and
// 1.3*halfW vertically. The dense mesh is an oval point cloud; the six
// canonical landmarks sit at plausible frontal-face positions, so the
// preset works for both hitbox extrema and pose solving.
func SyntheticFace(cx, cy, halfW float64) FaceLandmarks {
	face := FaceLandmarks{
		Score:  0.95,
		Points: make([]Point3D, NumMeshLandmarks),
	}

	halfH := halfW * 1.3
	for i := range face.Points {
		theta := 2 * math.Pi * float64(i) / float64(NumMeshLandmarks)
		// Spiral inward so the cloud is dense, with the oval as its hull.
		r := 0.55 + 0.45*float64(i%3)/2.0
		face.Points[i] = Point3D{
			X: cx + halfW*r*math.Cos(theta),
			Y: cy + halfH*r*math.Sin(theta),
			Z: -0.03,
		}
	}

	// Canonical points for a frontal face. Proportions follow the generic
	// head model: eyes above the nose tip, chin well below, mouth between.
	face.Points[NoseTip] = Point3D{X: cx, Y: cy, Z: 0.0}
	face.Points[Chin] = Point3D{X: cx, Y: cy + 0.95*halfH, Z: -0.02}
	face.Points[LeftEye] = Point3D{X: cx - 0.65*halfW, Y: cy - 0.45*halfH, Z: -0.03}
	face.Points[RightEye] = Point3D{X: cx + 0.65*halfW, Y: cy - 0.45*halfH, Z: -0.03}
	face.Points[LeftMouth] = Point3D{X: cx - 0.43*halfW, Y: cy + 0.42*halfH, Z: -0.03}
	face.Points[RightMouth] = Point3D{X: cx + 0.43*halfW, Y: cy + 0.42*halfH, Z: -0.03}

	return face
}

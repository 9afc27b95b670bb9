package pose

import (
	"errors"

	"github.com/arnavgupta/headguard/internal/detector"
	"gocv.io/x/gocv"
)

// ErrSolveFailed is returned when the perspective-n-point solve does not
// converge, e.g. for degenerate or collinear landmark geometry.
var ErrSolveFailed = errors.New("pose: pnp solve did not converge")

// ErrIncompleteMesh is returned when a face mesh lacks the six canonical
// landmarks needed for the solve.
var ErrIncompleteMesh = errors.New("pose: face mesh missing canonical landmarks")

// solvePnPIterative selects OpenCV's iterative Levenberg-Marquardt solver.
const solvePnPIterative = 0

// Estimator solves head pose for single faces under a fixed camera model.
// It holds the OpenCV-side model and intrinsics mats for the session;
// Close releases them. Each Solve is independent: no cross-face state.
type Estimator struct {
	cam          *CameraModel
	objectPoints gocv.Point3fVector
	cameraMatrix gocv.Mat
	distCoeffs   gocv.Mat
}

// NewEstimator creates an Estimator for the given session camera model.
func NewEstimator(cam *CameraModel) *Estimator {
	objPts := make([]gocv.Point3f, len(CanonicalHeadModel))
	for i, p := range CanonicalHeadModel {
		objPts[i] = gocv.Point3f{X: float32(p[0]), Y: float32(p[1]), Z: float32(p[2])}
	}

	camMat := gocv.Zeros(3, 3, gocv.MatTypeCV64F)
	camMat.SetDoubleAt(0, 0, cam.FocalLength)
	camMat.SetDoubleAt(0, 2, cam.CenterX)
	camMat.SetDoubleAt(1, 1, cam.FocalLength)
	camMat.SetDoubleAt(1, 2, cam.CenterY)
	camMat.SetDoubleAt(2, 2, 1)

	return &Estimator{
		cam:          cam,
		objectPoints: gocv.NewPoint3fVectorFromPoints(objPts),
		cameraMatrix: camMat,
		distCoeffs:   gocv.Zeros(4, 1, gocv.MatTypeCV64F),
	}
}

// Camera returns the session camera model.
func (e *Estimator) Camera() *CameraModel {
	return e.cam
}

// Solve recovers the head pose from one face's landmarks.
func (e *Estimator) Solve(face *detector.FaceLandmarks) (*HeadPose, error) {
	if !face.HasCanonical() {
		return nil, ErrIncompleteMesh
	}

	pix := face.CanonicalPixels(e.cam.Width, e.cam.Height)
	imgPts := make([]gocv.Point2f, len(pix))
	for i, p := range pix {
		imgPts[i] = gocv.Point2f{X: float32(p[0]), Y: float32(p[1])}
	}
	imagePoints := gocv.NewPoint2fVectorFromPoints(imgPts)
	defer imagePoints.Close()

	rvec := gocv.NewMat()
	defer rvec.Close()
	tvec := gocv.NewMat()
	defer tvec.Close()

	ok := gocv.SolvePnP(e.objectPoints, imagePoints, e.cameraMatrix, e.distCoeffs,
		&rvec, &tvec, false, solvePnPIterative)
	if !ok {
		return nil, ErrSolveFailed
	}

	p := &HeadPose{
		Rotation:    vec3FromMat(rvec),
		Translation: vec3FromMat(tvec),
	}
	p.Pitch, p.Yaw, p.Roll = EulerFromVector(p.Rotation)
	return p, nil
}

// Close releases the OpenCV resources held by the estimator.
func (e *Estimator) Close() {
	e.objectPoints.Close()
	e.cameraMatrix.Close()
	e.distCoeffs.Close()
}

// vec3FromMat reads a 3x1 vector from an OpenCV output mat, which may be
// single or double precision depending on the solver.
func vec3FromMat(m gocv.Mat) [3]float64 {
	var v [3]float64
	for i := 0; i < 3; i++ {
		if m.Type() == gocv.MatTypeCV32F {
			v[i] = float64(m.GetFloatAt(i, 0))
		} else {
			v[i] = m.GetDoubleAt(i, 0)
		}
	}
	return v
}

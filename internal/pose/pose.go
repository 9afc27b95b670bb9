// Package pose recovers 3D head orientation and position from facial
// landmarks via a perspective-n-point solve against a generic head model.
package pose

// HeadPose is the recovered pose of one head for one frame, expressed in
// the camera coordinate frame. Rotation is a Rodrigues rotation vector,
// Translation is in millimeters. Pitch/Yaw/Roll are derived Euler angles
// in degrees.
type HeadPose struct {
	Rotation    [3]float64
	Translation [3]float64
	Pitch       float64
	Yaw         float64
	Roll        float64
}

// Depth returns the translation's depth component (camera Z axis, mm).
func (p *HeadPose) Depth() float64 {
	return p.Translation[2]
}

// CanonicalHeadModel is a fixed set of six 3D points in millimeters
// describing a generic head: nose tip (origin), chin, left/right eye outer
// corners, left/right mouth corners. The order matches
// detector.CanonicalIndices.
var CanonicalHeadModel = [6][3]float64{
	{0.0, 0.0, 0.0},
	{0.0, -63.6, -12.5},
	{-43.3, 32.7, -26.0},
	{43.3, 32.7, -26.0},
	{-28.9, -28.9, -24.1},
	{28.9, -28.9, -24.1},
}

// CameraModel holds the pinhole intrinsics for the session. Derived once
// from the first captured frame: focal length equals the frame width,
// principal point sits at the frame center, no lens distortion.
type CameraModel struct {
	Width       int
	Height      int
	FocalLength float64
	CenterX     float64
	CenterY     float64
}

// NewCameraModel builds the session camera model for frames of the given size.
func NewCameraModel(width, height int) *CameraModel {
	return &CameraModel{
		Width:       width,
		Height:      height,
		FocalLength: float64(width),
		CenterX:     float64(width) / 2,
		CenterY:     float64(height) / 2,
	}
}

// Project maps a model-space 3D point through the given pose onto the
// image plane. Points at or behind the camera plane project to the
// principal point.
func (c *CameraModel) Project(pt [3]float64, rvec, tvec [3]float64) (x, y float64) {
	r := RotationMatrix(rvec)
	var cam [3]float64
	for i := 0; i < 3; i++ {
		cam[i] = r[i][0]*pt[0] + r[i][1]*pt[1] + r[i][2]*pt[2] + tvec[i]
	}
	if cam[2] <= 1e-9 {
		return c.CenterX, c.CenterY
	}
	x = c.FocalLength*cam[0]/cam[2] + c.CenterX
	y = c.FocalLength*cam[1]/cam[2] + c.CenterY
	return x, y
}

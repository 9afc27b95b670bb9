// Package testdata provides synthetic fixtures for pipeline and
// end-to-end tests: blank camera frames, overlapping face meshes, and
// head poses within collision range.
package testdata

import (
	"gocv.io/x/gocv"

	"github.com/arnavgupta/headguard/internal/detector"
	"github.com/arnavgupta/headguard/internal/pose"
)

// SyntheticFrame returns a blank BGR frame of the given size. The caller
// owns the Mat.
func SyntheticFrame(width, height int) *gocv.Mat {
	m := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	return &m
}

// SyntheticFrames returns n blank frames. The caller owns the Mats.
func SyntheticFrames(n, width, height int) []*gocv.Mat {
	frames := make([]*gocv.Mat, n)
	for i := range frames {
		frames[i] = SyntheticFrame(width, height)
	}
	return frames
}

// CloseFrames releases a frame slice.
func CloseFrames(frames []*gocv.Mat) {
	for _, f := range frames {
		f.Close()
	}
}

// OverlappingFacePair returns two face meshes whose hitboxes overlap
// heavily: both centered near the middle of the frame, offset laterally
// by less than a face width.
func OverlappingFacePair() []detector.FaceLandmarks {
	return []detector.FaceLandmarks{
		detector.SyntheticFace(0.45, 0.5, 0.15),
		detector.SyntheticFace(0.55, 0.5, 0.15),
	}
}

// DisjointFacePair returns two face meshes on opposite sides of the
// frame, with no hitbox overlap.
func DisjointFacePair() []detector.FaceLandmarks {
	return []detector.FaceLandmarks{
		detector.SyntheticFace(0.15, 0.5, 0.1),
		detector.SyntheticFace(0.85, 0.5, 0.1),
	}
}

// NearbyHeadPoses returns two head poses 50mm apart in depth and about
// 70mm apart in 3D, well inside the collision proximity bounds.
func NearbyHeadPoses() [2]*pose.HeadPose {
	return [2]*pose.HeadPose{
		{Translation: [3]float64{0, 0, 800}},
		{Translation: [3]float64{50, 0, 850}},
	}
}

// DistantHeadPoses returns two head poses far outside the collision
// proximity bounds.
func DistantHeadPoses() [2]*pose.HeadPose {
	return [2]*pose.HeadPose{
		{Translation: [3]float64{0, 0, 800}},
		{Translation: [3]float64{500, 0, 1400}},
	}
}

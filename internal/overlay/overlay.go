// Package overlay renders the monitor's diagnostic view onto camera
// frames: landmarks, head pose axes, hitboxes, motion readouts, and the
// collision banner.
package overlay

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/arnavgupta/headguard/internal/collision"
	"github.com/arnavgupta/headguard/internal/detector"
	"github.com/arnavgupta/headguard/internal/kinematics"
	"github.com/arnavgupta/headguard/internal/pose"
)

// axisLengthMM is the drawn length of each pose axis in head-model space.
const axisLengthMM = 100.0

var (
	landmarkColor = color.RGBA{0, 255, 0, 255}
	calmColor     = color.RGBA{0, 255, 0, 255}
	alertColor    = color.RGBA{0, 255, 255, 255}
	contactColor  = color.RGBA{255, 0, 0, 255}
	textColor     = color.RGBA{255, 255, 255, 255}
	axisXColor    = color.RGBA{255, 0, 0, 255}
	axisYColor    = color.RGBA{0, 255, 0, 255}
	axisZColor    = color.RGBA{0, 0, 255, 255}
)

// FaceView is everything the overlay needs to draw for one face slot.
type FaceView struct {
	Slot      int
	Landmarks *detector.FaceLandmarks
	Box       collision.HitBox
	// Pose and Velocity are nil when unavailable this frame.
	Pose             *pose.HeadPose
	Velocity         *kinematics.Velocity
	RotationAlert    bool
	TranslationAlert bool
}

// Renderer draws the diagnostic overlay. It needs the camera model to
// project pose axes into the frame.
type Renderer struct {
	cam *pose.CameraModel
}

// NewRenderer creates a Renderer for the given camera model.
func NewRenderer(cam *pose.CameraModel) *Renderer {
	return &Renderer{cam: cam}
}

// Draw renders all per-face annotations plus the session collision state
// onto the frame in place.
func (r *Renderer) Draw(frame *gocv.Mat, faces []FaceView, res collision.Result, count int) {
	for _, fv := range faces {
		r.drawFace(frame, fv, res)
	}

	gocv.PutText(frame, fmt.Sprintf("Collisions: %d", count),
		image.Pt(10, 30), gocv.FontHersheySimplex, 0.8, textColor, 2)

	if res.Confirmed {
		gocv.PutText(frame, "HEAD COLLISION",
			image.Pt(frame.Cols()/2-150, 60), gocv.FontHersheySimplex, 1.2, contactColor, 3)
	}
}

func (r *Renderer) drawFace(frame *gocv.Mat, fv FaceView, res collision.Result) {
	if fv.Landmarks != nil {
		r.drawLandmarks(frame, fv.Landmarks)
	}

	boxColor := calmColor
	if fv.RotationAlert || fv.TranslationAlert {
		boxColor = alertColor
	}
	if res.Contact && (fv.Slot == res.SlotA || fv.Slot == res.SlotB) {
		boxColor = contactColor
	}

	rect := image.Rect(int(fv.Box.X1), int(fv.Box.Y1), int(fv.Box.X2), int(fv.Box.Y2))
	gocv.Rectangle(frame, rect, boxColor, 2)

	if fv.Pose != nil {
		r.drawAxes(frame, fv.Pose)
		r.drawReadout(frame, fv)
	}
}

func (r *Renderer) drawLandmarks(frame *gocv.Mat, face *detector.FaceLandmarks) {
	w, h := frame.Cols(), frame.Rows()
	for _, pt := range face.Points {
		x := int(pt.X * float64(w))
		y := int(pt.Y * float64(h))
		gocv.Circle(frame, image.Pt(x, y), 1, landmarkColor, -1)
	}
}

// drawAxes projects the head-model axes through the solved pose and
// draws them from the nose tip.
func (r *Renderer) drawAxes(frame *gocv.Mat, p *pose.HeadPose) {
	ox, oy := r.cam.Project([3]float64{0, 0, 0}, p.Rotation, p.Translation)
	origin := image.Pt(int(ox), int(oy))

	axes := []struct {
		end [3]float64
		col color.RGBA
	}{
		{[3]float64{axisLengthMM, 0, 0}, axisXColor},
		{[3]float64{0, axisLengthMM, 0}, axisYColor},
		{[3]float64{0, 0, axisLengthMM}, axisZColor},
	}
	for _, axis := range axes {
		ex, ey := r.cam.Project(axis.end, p.Rotation, p.Translation)
		gocv.Line(frame, origin, image.Pt(int(ex), int(ey)), axis.col, 2)
	}
}

func (r *Renderer) drawReadout(frame *gocv.Mat, fv FaceView) {
	x := int(fv.Box.X1)
	y := int(fv.Box.Y1) - 28
	if y < 14 {
		y = int(fv.Box.Y2) + 18
	}

	gocv.PutText(frame,
		fmt.Sprintf("P%d  pitch %.0f yaw %.0f roll %.0f", fv.Slot, fv.Pose.Pitch, fv.Pose.Yaw, fv.Pose.Roll),
		image.Pt(x, y), gocv.FontHersheySimplex, 0.45, textColor, 1)

	if fv.Velocity != nil {
		gocv.PutText(frame,
			fmt.Sprintf("rot %.0f deg/s  move %.0f mm/s", fv.Velocity.MaxAngular(), fv.Velocity.Translational),
			image.Pt(x, y+14), gocv.FontHersheySimplex, 0.45, textColor, 1)
	}
}

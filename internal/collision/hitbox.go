// Package collision decides when two tracked heads are in sustained
// contact, fusing 2D hitbox overlap with 3D proximity under a temporal
// debounce.
package collision

import (
	"github.com/arnavgupta/headguard/internal/detector"
)

// Hitbox geometry defaults, matching the tuned capture setup.
const (
	// DefaultBoxPadding is added to the landmark extrema on every side, in pixels.
	DefaultBoxPadding = 20.0
	// DefaultHitboxScale scales the padded box about its center.
	DefaultHitboxScale = 1.2
)

// HitBox is an axis-aligned rectangle in frame pixel coordinates,
// recomputed from landmarks every frame and never persisted.
type HitBox struct {
	X1, Y1, X2, Y2 float64
}

// Width returns the box width, never negative.
func (b HitBox) Width() float64 {
	if b.X2 <= b.X1 {
		return 0
	}
	return b.X2 - b.X1
}

// Height returns the box height, never negative.
func (b HitBox) Height() float64 {
	if b.Y2 <= b.Y1 {
		return 0
	}
	return b.Y2 - b.Y1
}

// Area returns the box area, never negative.
func (b HitBox) Area() float64 {
	return b.Width() * b.Height()
}

// IoU returns the intersection-over-union of two boxes in [0, 1].
func (b HitBox) IoU(o HitBox) float64 {
	ix1 := maxf(b.X1, o.X1)
	iy1 := maxf(b.Y1, o.Y1)
	ix2 := minf(b.X2, o.X2)
	iy2 := minf(b.Y2, o.Y2)

	iw := ix2 - ix1
	ih := iy2 - iy1
	if iw <= 0 || ih <= 0 {
		return 0
	}
	inter := iw * ih

	union := b.Area() + o.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// HitBoxFromLandmarks builds the face hitbox: landmark pixel extrema,
// padded on all sides, scaled about its center, clipped to the frame.
func HitBoxFromLandmarks(face *detector.FaceLandmarks, width, height int, padding, scale float64) HitBox {
	minX, minY, maxX, maxY := face.PixelExtrema(width, height)

	minX -= padding
	minY -= padding
	maxX += padding
	maxY += padding

	cx := 0.5 * (minX + maxX)
	cy := 0.5 * (minY + maxY)
	halfW := 0.5 * (maxX - minX) * scale
	halfH := 0.5 * (maxY - minY) * scale

	return HitBox{
		X1: clampf(cx-halfW, 0, float64(width-1)),
		Y1: clampf(cy-halfH, 0, float64(height-1)),
		X2: clampf(cx+halfW, 0, float64(width-1)),
		Y2: clampf(cy+halfH, 0, float64(height-1)),
	}
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

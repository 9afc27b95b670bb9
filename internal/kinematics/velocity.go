// Package kinematics derives per-face angular and translational velocity
// by differencing consecutive head poses.
package kinematics

import (
	"math"
	"time"

	"github.com/arnavgupta/headguard/internal/pose"
)

// minDT guards the divide against duplicate timestamps.
const minDT = 1e-6

// Default alert thresholds, tuned empirically on webcam footage.
const (
	DefaultRotationThreshold    = 40.0 // deg/s
	DefaultTranslationThreshold = 50.0 // mm/s
)

// Config holds the alert thresholds for velocity estimation.
type Config struct {
	// RotationThreshold is the max-axis angular velocity (deg/s) above
	// which a rotation alert is raised.
	RotationThreshold float64
	// TranslationThreshold is the translational velocity (mm/s) above
	// which a translation alert is raised.
	TranslationThreshold float64
}

// DefaultConfig returns the tuned default thresholds.
func DefaultConfig() Config {
	return Config{
		RotationThreshold:    DefaultRotationThreshold,
		TranslationThreshold: DefaultTranslationThreshold,
	}
}

// Velocity is the derived motion of one face between two consecutive
// sightings of its slot.
type Velocity struct {
	// Angular velocity per axis in deg/s: pitch, yaw, roll.
	// Raw degree differences; no wraparound correction near +/-180.
	Angular [3]float64
	// Translational is the Euclidean speed of the head in mm/s.
	Translational float64
}

// MaxAngular returns the largest per-axis angular velocity.
func (v *Velocity) MaxAngular() float64 {
	m := v.Angular[0]
	if v.Angular[1] > m {
		m = v.Angular[1]
	}
	if v.Angular[2] > m {
		m = v.Angular[2]
	}
	return m
}

// Estimate differences two poses over dt seconds. Returns nil when prev is
// absent (first sighting of the slot) or dt is not positive enough to
// divide by.
func Estimate(prev, cur *pose.HeadPose, dt float64) *Velocity {
	if prev == nil || cur == nil || dt <= minDT {
		return nil
	}

	v := &Velocity{
		Angular: [3]float64{
			math.Abs(cur.Pitch-prev.Pitch) / dt,
			math.Abs(cur.Yaw-prev.Yaw) / dt,
			math.Abs(cur.Roll-prev.Roll) / dt,
		},
	}

	dx := cur.Translation[0] - prev.Translation[0]
	dy := cur.Translation[1] - prev.Translation[1]
	dz := cur.Translation[2] - prev.Translation[2]
	v.Translational = math.Sqrt(dx*dx+dy*dy+dz*dz) / dt

	return v
}

// slotState is the retained history for one face slot: only the
// immediately previous pose and when it was seen.
type slotState struct {
	pose *pose.HeadPose
	at   time.Time
}

// Estimator tracks per-slot pose history and produces velocities and
// alerts. Slots are positional ordinals within each frame's detection
// list, not stable identities; the history grows lazily as more
// simultaneous faces are observed and never shrinks within a session.
type Estimator struct {
	cfg   Config
	slots []slotState
}

// NewEstimator creates an Estimator with the given thresholds.
func NewEstimator(cfg Config) *Estimator {
	return &Estimator{cfg: cfg}
}

// Observe records the current pose for a slot and returns the velocity
// relative to the slot's previous sighting, or nil on first sighting or
// duplicate timestamps. dt is computed from the slot's own last timestamp.
// A nil pose (failed solve) leaves the slot's history untouched, so the
// next good pose is differenced against the last good one.
func (e *Estimator) Observe(slot int, p *pose.HeadPose, now time.Time) *Velocity {
	if slot < 0 || p == nil {
		return nil
	}
	for len(e.slots) <= slot {
		e.slots = append(e.slots, slotState{})
	}

	prev := e.slots[slot]
	e.slots[slot] = slotState{pose: p, at: now}

	if prev.pose == nil {
		return nil
	}
	return Estimate(prev.pose, p, now.Sub(prev.at).Seconds())
}

// Alert reports whether the velocity exceeds either configured threshold.
func (e *Estimator) Alert(v *Velocity) (rotation, translation bool) {
	if v == nil {
		return false, false
	}
	return v.MaxAngular() > e.cfg.RotationThreshold,
		v.Translational > e.cfg.TranslationThreshold
}

// Slots returns the number of slots observed so far this session.
func (e *Estimator) Slots() int {
	return len(e.slots)
}

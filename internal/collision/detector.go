package collision

import (
	"math"

	"github.com/arnavgupta/headguard/internal/pose"
)

// Collision thresholds, tuned on two-person webcam footage.
const (
	// DefaultIoUThreshold is the minimum pairwise hitbox IoU to count as overlap.
	DefaultIoUThreshold = 0.05
	// DefaultMaxDepthDiff bounds the depth gap between the two heads, in mm.
	DefaultMaxDepthDiff = 200.0
	// DefaultMaxDistance3D bounds the full 3D gap between the two heads, in mm.
	DefaultMaxDistance3D = 400.0
	// DefaultFramesConfirm is the consecutive-frame streak required to confirm.
	DefaultFramesConfirm = 2
)

// Config holds the collision detection thresholds.
type Config struct {
	IoUThreshold  float64
	MaxDepthDiff  float64
	MaxDistance3D float64
	// FramesConfirm is the debounce streak length; minimum 1.
	FramesConfirm int
}

// DefaultConfig returns the tuned default thresholds.
func DefaultConfig() Config {
	return Config{
		IoUThreshold:  DefaultIoUThreshold,
		MaxDepthDiff:  DefaultMaxDepthDiff,
		MaxDistance3D: DefaultMaxDistance3D,
		FramesConfirm: DefaultFramesConfirm,
	}
}

// Face is one frame's observation of one face slot: its hitbox and, when
// the pose solve succeeded this frame, its head pose. Faces with a nil
// pose are excluded from pairing for this frame only.
type Face struct {
	Slot int
	Box  HitBox
	Pose *pose.HeadPose
}

// Result is the outcome of one frame's collision evaluation.
type Result struct {
	// Contact is the raw per-frame test: best-pair IoU at or above the
	// threshold AND both 3D proximity bounds satisfied.
	Contact bool
	// Confirmed reports whether a contact episode is currently confirmed.
	Confirmed bool
	// Edge is true on the single frame where confirmation first fires for
	// an episode; counters and clip writes key off this.
	Edge bool
	// SlotA and SlotB identify the best-IoU pair, or -1 when fewer than
	// two eligible faces were seen.
	SlotA, SlotB int
	IoU          float64
	DepthDiff    float64
	Distance3D   float64
}

// Detector is the per-session collision state machine: an overlap streak
// counter plus the currently-confirmed flag. It must be driven exactly
// once per frame.
type Detector struct {
	cfg       Config
	streak    int
	confirmed bool
	count     int
}

// NewDetector creates a Detector with the given thresholds.
// A FramesConfirm below 1 is raised to 1.
func NewDetector(cfg Config) *Detector {
	if cfg.FramesConfirm < 1 {
		cfg.FramesConfirm = 1
	}
	return &Detector{cfg: cfg}
}

// Evaluate runs one frame's raw test and advances the debounce state.
// With fewer than two pose-bearing faces the raw test is false and the
// streak resets.
func (d *Detector) Evaluate(faces []Face) Result {
	res := Result{SlotA: -1, SlotB: -1}

	eligible := faces[:0:0]
	for _, f := range faces {
		if f.Pose != nil {
			eligible = append(eligible, f)
		}
	}

	if len(eligible) >= 2 {
		// Best pair by IoU across all eligible pairs.
		bestI, bestJ := -1, -1
		maxIoU := 0.0
		for i := 0; i < len(eligible); i++ {
			for j := i + 1; j < len(eligible); j++ {
				iou := eligible[i].Box.IoU(eligible[j].Box)
				if iou > maxIoU {
					maxIoU = iou
					bestI, bestJ = i, j
				}
			}
		}

		if bestI >= 0 {
			a, b := eligible[bestI], eligible[bestJ]
			res.SlotA = a.Slot
			res.SlotB = b.Slot
			res.IoU = maxIoU
			res.DepthDiff = math.Abs(a.Pose.Depth() - b.Pose.Depth())
			res.Distance3D = dist3(a.Pose.Translation, b.Pose.Translation)

			if maxIoU >= d.cfg.IoUThreshold {
				res.Contact = res.DepthDiff < d.cfg.MaxDepthDiff &&
					res.Distance3D < d.cfg.MaxDistance3D
			}
		}
	}

	if res.Contact {
		d.streak++
	} else {
		d.streak = 0
	}

	confirmed := d.streak >= d.cfg.FramesConfirm
	res.Confirmed = confirmed
	res.Edge = confirmed && !d.confirmed
	if res.Edge {
		d.count++
	}
	d.confirmed = confirmed

	return res
}

// Count returns the number of confirmed contact episodes this session.
func (d *Detector) Count() int {
	return d.count
}

// Streak returns the current consecutive-contact streak.
func (d *Detector) Streak() int {
	return d.streak
}

// Confirmed reports whether a contact episode is currently confirmed.
func (d *Detector) Confirmed() bool {
	return d.confirmed
}

func dist3(a, b [3]float64) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	dz := a[2] - b[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

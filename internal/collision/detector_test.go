package collision

import (
	"math"
	"testing"

	"github.com/arnavgupta/headguard/internal/pose"
)

// facePair fabricates two face observations with the given hitbox IoU
// geometry and 3D separation.
func facePair(overlap bool, depthGap, dist3D float64) []Face {
	boxA := HitBox{X1: 100, Y1: 100, X2: 200, Y2: 200}
	boxB := boxA
	if !overlap {
		boxB = HitBox{X1: 400, Y1: 100, X2: 500, Y2: 200}
	}

	// Place the lateral offset so the full 3D distance comes out to dist3D
	// given the depth gap.
	lateral := 0.0
	if dist3D > depthGap {
		lateral = math.Sqrt(dist3D*dist3D - depthGap*depthGap)
	}

	return []Face{
		{Slot: 0, Box: boxA, Pose: &pose.HeadPose{Translation: [3]float64{0, 0, 800}}},
		{Slot: 1, Box: boxB, Pose: &pose.HeadPose{Translation: [3]float64{lateral, 0, 800 + depthGap}}},
	}
}

func TestDetector_RawTest(t *testing.T) {
	tests := []struct {
		name     string
		faces    []Face
		wantRaw  bool
		wantPair bool
	}{
		{
			name:     "overlap and close in 3d",
			faces:    facePair(true, 150, 180),
			wantRaw:  true,
			wantPair: true,
		},
		{
			name:     "no 2d overlap",
			faces:    facePair(false, 150, 180),
			wantRaw:  false,
			wantPair: false, // disjoint boxes have zero IoU, so no best pair
		},
		{
			name:     "overlap but depth gap too large",
			faces:    facePair(true, 250, 260),
			wantRaw:  false,
			wantPair: true,
		},
		{
			name:     "overlap but 3d distance too large",
			faces:    facePair(true, 100, 450),
			wantRaw:  false,
			wantPair: true,
		},
		{
			name:    "single face",
			faces:   facePair(true, 150, 180)[:1],
			wantRaw: false,
		},
		{
			name:    "no faces",
			faces:   nil,
			wantRaw: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector(DefaultConfig())
			res := d.Evaluate(tt.faces)

			if res.Contact != tt.wantRaw {
				t.Errorf("Contact = %v, want %v", res.Contact, tt.wantRaw)
			}
			if tt.wantPair && (res.SlotA != 0 || res.SlotB != 1) {
				t.Errorf("pair = (%d, %d), want (0, 1)", res.SlotA, res.SlotB)
			}
			if !tt.wantPair && res.SlotA != -1 {
				t.Errorf("pair = (%d, %d), want none", res.SlotA, res.SlotB)
			}
		})
	}
}

func TestDetector_ExcludesFacesWithoutPose(t *testing.T) {
	d := NewDetector(DefaultConfig())

	faces := facePair(true, 100, 150)
	faces[1].Pose = nil // solve failed this frame

	res := d.Evaluate(faces)
	if res.Contact {
		t.Error("Contact = true with only one pose-bearing face")
	}
	if res.SlotA != -1 || res.SlotB != -1 {
		t.Errorf("pair = (%d, %d), want none", res.SlotA, res.SlotB)
	}
}

// TestDetector_DebounceSequence drives the raw test through
// [F, T, T, F, T, T, T] with a 2-frame confirmation streak. Confirmation
// must fire on the second consecutive true frame of each episode (indices
// 2 and 5) and exactly once per episode.
func TestDetector_DebounceSequence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FramesConfirm = 2
	d := NewDetector(cfg)

	sequence := []bool{false, true, true, false, true, true, true}
	wantEdges := map[int]bool{2: true, 5: true}

	for i, raw := range sequence {
		var faces []Face
		if raw {
			faces = facePair(true, 100, 150)
		} else {
			faces = facePair(false, 100, 150)
		}

		res := d.Evaluate(faces)
		if res.Contact != raw {
			t.Fatalf("frame %d: Contact = %v, want %v", i, res.Contact, raw)
		}
		if res.Edge != wantEdges[i] {
			t.Errorf("frame %d: Edge = %v, want %v", i, res.Edge, wantEdges[i])
		}
	}

	if d.Count() != 2 {
		t.Errorf("Count() = %d, want 2 confirmed episodes", d.Count())
	}
}

func TestDetector_StreakResetOnSingleFalse(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FramesConfirm = 3
	d := NewDetector(cfg)

	// Two trues, a false, then two trues again: never confirms.
	for _, raw := range []bool{true, true, false, true, true} {
		var faces []Face
		if raw {
			faces = facePair(true, 100, 150)
		}
		res := d.Evaluate(faces)
		if res.Confirmed {
			t.Fatal("confirmed despite broken streak")
		}
	}
	if d.Count() != 0 {
		t.Errorf("Count() = %d, want 0", d.Count())
	}
}

func TestDetector_NoRefireWhileContactPersists(t *testing.T) {
	d := NewDetector(DefaultConfig()) // FramesConfirm = 2

	edges := 0
	for i := 0; i < 10; i++ {
		res := d.Evaluate(facePair(true, 100, 150))
		if res.Edge {
			edges++
			if i != 1 {
				t.Errorf("edge at frame %d, want frame 1", i)
			}
		}
	}

	if edges != 1 {
		t.Errorf("edges = %d, want exactly 1 for a persistent contact", edges)
	}
	if d.Count() != 1 {
		t.Errorf("Count() = %d, want 1", d.Count())
	}
}

func TestDetector_FramesConfirmOne(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FramesConfirm = 1
	d := NewDetector(cfg)

	res := d.Evaluate(facePair(true, 100, 150))
	if !res.Edge {
		t.Error("FramesConfirm=1 should confirm on the first contact frame")
	}
}

func TestNewDetector_ClampsFramesConfirm(t *testing.T) {
	d := NewDetector(Config{IoUThreshold: 0.05, MaxDepthDiff: 200, MaxDistance3D: 400, FramesConfirm: 0})

	res := d.Evaluate(facePair(true, 100, 150))
	if !res.Confirmed {
		t.Error("FramesConfirm below 1 should behave as 1")
	}
}

func TestDetector_ResultMetrics(t *testing.T) {
	d := NewDetector(DefaultConfig())

	res := d.Evaluate(facePair(true, 150, 170))
	if math.Abs(res.DepthDiff-150) > 1e-9 {
		t.Errorf("DepthDiff = %f, want 150", res.DepthDiff)
	}
	if math.Abs(res.Distance3D-170) > 1e-9 {
		t.Errorf("Distance3D = %f, want 170", res.Distance3D)
	}
	if math.Abs(res.IoU-1.0) > 1e-9 {
		t.Errorf("IoU = %f, want 1.0 for identical boxes", res.IoU)
	}
}

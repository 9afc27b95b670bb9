package e2e

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/arnavgupta/headguard/internal/app"
	"github.com/arnavgupta/headguard/internal/capture"
	"github.com/arnavgupta/headguard/internal/clip"
	"github.com/arnavgupta/headguard/internal/collision"
	"github.com/arnavgupta/headguard/internal/detector"
	"github.com/arnavgupta/headguard/internal/pose"
	"github.com/arnavgupta/headguard/internal/server"
	"github.com/arnavgupta/headguard/internal/store"
	"github.com/arnavgupta/headguard/testdata"
)

type nullSink struct {
	writes int
}

func (s *nullSink) Write(frame gocv.Mat) error { s.writes++; return nil }
func (s *nullSink) Close() error               { return nil }

// TestE2E_CollisionWorkflow drives the whole system: three frames of two
// overlapping faces flow through the pipeline, one collision is
// confirmed, and the event surfaces through the HTTP API with its clip
// recorded.
func TestE2E_CollisionWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()

	s, err := store.New(filepath.Join(tmpDir, "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	hub := server.NewHub()
	srv := server.New(server.Config{Store: s, Hub: hub})
	ts := httptest.NewServer(srv)
	defer ts.Close()
	client := ts.Client()

	t.Run("HealthBeforeRun", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/health")
		if err != nil {
			t.Fatalf("health error = %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
	})

	frames := testdata.SyntheticFrames(3, 640, 480)
	defer testdata.CloseFrames(frames)

	sink := &nullSink{}
	clipCfg := clip.DefaultConfig()
	clipCfg.Dir = tmpDir

	colCfg := collision.DefaultConfig()
	colCfg.FramesConfirm = 2

	application, err := app.New(app.Config{
		Store:        s,
		Hub:          hub,
		Clip:         clipCfg,
		Collision:    colCfg,
		MockDetector: true,
		ClipSinkFactory: func(path string, fps float64, width, height int) (clip.Sink, error) {
			return sink, nil
		},
	})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}

	application.SetCamera(capture.NewMockCamera(frames, false))

	mockDetector := detector.NewMockDetector()
	mockDetector.SetFaces(testdata.OverlappingFacePair())
	application.SetDetector(mockDetector)

	poses := testdata.NearbyHeadPoses()
	calls := 0
	application.SetPoseSolver(func(face *detector.FaceLandmarks) (*pose.HeadPose, error) {
		p := poses[calls%2]
		calls++
		return p, nil
	})

	if application.CollisionCount() != 0 {
		t.Fatalf("collision count = %d before run, want 0", application.CollisionCount())
	}

	t.Run("RunPipeline", func(t *testing.T) {
		if err := application.Start(); err != nil {
			t.Fatalf("Start() error = %v", err)
		}

		deadline := time.After(5 * time.Second)
		for application.CollisionCount() < 1 {
			select {
			case <-deadline:
				t.Fatal("no collision confirmed before deadline")
			case <-time.After(10 * time.Millisecond):
			}
		}
		application.Stop()

		if application.CollisionCount() != 1 {
			t.Errorf("collision count = %d, want 1", application.CollisionCount())
		}
		if sink.writes == 0 {
			t.Error("no frames written to the collision clip")
		}
	})

	t.Run("EventVisibleOverAPI", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/events")
		if err != nil {
			t.Fatalf("list events error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}

		var payload struct {
			Events []struct {
				ID       string  `json:"id"`
				SlotA    int     `json:"slot_a"`
				SlotB    int     `json:"slot_b"`
				IoU      float64 `json:"iou"`
				ClipPath string  `json:"clip_path"`
			} `json:"events"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			t.Fatalf("decode error = %v", err)
		}

		if len(payload.Events) != 1 {
			t.Fatalf("events = %d, want 1", len(payload.Events))
		}
		event := payload.Events[0]
		if event.SlotA != 0 || event.SlotB != 1 {
			t.Errorf("slots = (%d, %d), want (0, 1)", event.SlotA, event.SlotB)
		}
		if event.IoU <= 0 {
			t.Errorf("iou = %f, want positive", event.IoU)
		}
		if event.ClipPath == "" {
			t.Error("event has no clip path")
		}
	})

	t.Run("LiveTelemetryPublished", func(t *testing.T) {
		tel := hub.Telemetry()
		if tel == nil {
			t.Fatal("no telemetry published")
		}
		if tel.Collision.Count != 1 {
			t.Errorf("telemetry count = %d, want 1", tel.Collision.Count)
		}
		if jpeg, _ := hub.Frame(); jpeg == nil {
			t.Error("no rendered frame published")
		}
	})
}

// TestE2E_DisjointFacesNeverConfirm runs the same pipeline with faces on
// opposite sides of the frame: no collision may fire.
func TestE2E_DisjointFacesNeverConfirm(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	s, err := store.New(filepath.Join(t.TempDir(), "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	frames := testdata.SyntheticFrames(5, 640, 480)
	defer testdata.CloseFrames(frames)

	application, err := app.New(app.Config{Store: s, MockDetector: true})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}
	application.SetCamera(capture.NewMockCamera(frames, false))

	mockDetector := detector.NewMockDetector()
	mockDetector.SetFaces(testdata.DisjointFacePair())
	application.SetDetector(mockDetector)

	poses := testdata.NearbyHeadPoses()
	calls := 0
	application.SetPoseSolver(func(face *detector.FaceLandmarks) (*pose.HeadPose, error) {
		p := poses[calls%2]
		calls++
		return p, nil
	})

	if err := application.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	// Let the finite stream drain.
	time.Sleep(500 * time.Millisecond)
	application.Stop()

	if application.CollisionCount() != 0 {
		t.Errorf("collision count = %d, want 0 for disjoint faces", application.CollisionCount())
	}

	events, err := s.Events().List(0)
	if err != nil {
		t.Fatalf("list events error = %v", err)
	}
	if len(events) != 0 {
		t.Errorf("stored events = %d, want 0", len(events))
	}
}

// Package app wires the frame pipeline together: capture, landmark
// detection, pose recovery, kinematics, collision detection, clip
// recording, and the live publishing hub.
package app

import (
	"fmt"
	"log"
	"strconv"
	"sync"

	"github.com/arnavgupta/headguard/internal/announce"
	"github.com/arnavgupta/headguard/internal/capture"
	"github.com/arnavgupta/headguard/internal/clip"
	"github.com/arnavgupta/headguard/internal/collision"
	"github.com/arnavgupta/headguard/internal/detector"
	"github.com/arnavgupta/headguard/internal/kinematics"
	"github.com/arnavgupta/headguard/internal/overlay"
	"github.com/arnavgupta/headguard/internal/pose"
	"github.com/arnavgupta/headguard/internal/server"
	"github.com/arnavgupta/headguard/internal/store"
)

// settingMonitoringEnabled persists the monitoring toggle across restarts.
const settingMonitoringEnabled = "monitoring_enabled"

// PoseSolver recovers a head pose from one face's landmarks.
type PoseSolver func(face *detector.FaceLandmarks) (*pose.HeadPose, error)

// Config holds configuration options for the application.
type Config struct {
	Store     *store.Store
	Hub       *server.Hub
	Announcer announce.Announcer
	CameraID  int
	// SaveVideo additionally records the whole session to one video file.
	// Pre-event collision clips are always recorded.
	SaveVideo bool
	Clip      clip.Config
	// ClipSinkFactory overrides the video encoder for both collision
	// clips and the session recording (used by tests).
	ClipSinkFactory clip.SinkFactory
	// MockDetector substitutes the mock landmark detector for the
	// FaceMesh service.
	MockDetector bool
	Collision    collision.Config
	Motion       kinematics.Config
}

// App is the main application that orchestrates the collision monitor.
type App struct {
	config    Config
	camera    capture.Camera
	detector  detector.Detector
	motion    *kinematics.Estimator
	collider  *collision.Detector
	announcer announce.Announcer

	// Built lazily on the first frame, once dimensions are known.
	cam      *pose.CameraModel
	render   *overlay.Renderer
	solver   PoseSolver
	poseEst  *pose.Estimator
	recorder *clip.Recorder
	session  clip.Sink

	onCollision func(count int)
	enabled     bool
	mu          sync.RWMutex
	stopCh      chan struct{}
	doneCh      chan struct{}
}

// New creates a new App instance with the given configuration. A missing
// face landmark detector is a startup failure: without one the monitor
// would run while seeing nothing.
func New(config Config) (*App, error) {
	if config.Announcer == nil {
		config.Announcer = announce.Noop{}
	}
	if config.Collision == (collision.Config{}) {
		config.Collision = collision.DefaultConfig()
	}
	if config.Motion == (kinematics.Config{}) {
		config.Motion = kinematics.DefaultConfig()
	}
	if config.Clip == (clip.Config{}) {
		config.Clip = clip.DefaultConfig()
	}

	a := &App{
		config:    config,
		camera:    capture.NewCamera(config.CameraID),
		motion:    kinematics.NewEstimator(config.Motion),
		collider:  collision.NewDetector(config.Collision),
		announcer: config.Announcer,
		enabled:   true,
	}

	if config.MockDetector {
		a.detector = detector.NewMockDetector()
		log.Println("Using mock landmark detection")
	} else {
		fm, err := detector.NewFaceMeshDetector(detector.DefaultConfig())
		if err != nil {
			return nil, fmt.Errorf("face landmark detection unavailable: %w", err)
		}
		a.detector = fm
		log.Println("Using FaceMesh landmark detection")
	}

	a.loadEnabledSetting()
	return a, nil
}

// loadEnabledSetting restores the persisted monitoring toggle.
func (a *App) loadEnabledSetting() {
	if a.config.Store == nil {
		return
	}
	value, err := a.config.Store.Settings().Get(settingMonitoringEnabled, "true")
	if err != nil {
		log.Printf("Failed to load monitoring setting: %v", err)
		return
	}
	a.enabled = value == "true"
}

// SetEnabled enables or disables collision monitoring and persists the
// choice.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	a.enabled = enabled
	a.mu.Unlock()

	if a.config.Store != nil {
		if err := a.config.Store.Settings().Set(settingMonitoringEnabled, strconv.FormatBool(enabled)); err != nil {
			log.Printf("Failed to persist monitoring setting: %v", err)
		}
	}
}

// IsEnabled returns whether monitoring is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetCamera replaces the capture source (used by tests).
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// SetDetector replaces the landmark detector implementation, closing the
// one it displaces.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	old := a.detector
	a.detector = d
	a.mu.Unlock()

	if old != nil && old != d {
		if err := old.Close(); err != nil {
			log.Printf("Error closing replaced detector: %v", err)
		}
	}
}

// SetPoseSolver replaces the head pose solver (used by tests). When
// unset, a solver backed by the camera intrinsics is built on the first
// frame.
func (a *App) SetPoseSolver(s PoseSolver) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.solver = s
}

// OnCollision sets a callback invoked with the session collision count
// each time a new collision is confirmed.
func (a *App) OnCollision(fn func(count int)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onCollision = fn
}

// CollisionCount returns the number of confirmed collisions this session.
func (a *App) CollisionCount() int {
	return a.collider.Count()
}

// Detector returns the landmark detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// Camera returns the capture source.
func (a *App) Camera() capture.Camera {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.camera
}

// Start opens the camera and begins the monitoring pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}

	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.runPipeline()

	log.Println("Monitoring pipeline started")
	return nil
}

// Stop halts the pipeline and releases resources in pipeline order:
// recorder, pose solver, detector, camera.
func (a *App) Stop() {
	a.mu.Lock()
	if a.stopCh == nil {
		a.mu.Unlock()
		return
	}
	close(a.stopCh)
	a.stopCh = nil
	done := a.doneCh
	a.mu.Unlock()

	// Wait for the frame loop to finish before tearing anything down.
	<-done

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.recorder != nil {
		a.recorder.Close()
		a.recorder = nil
	}
	if a.session != nil {
		if err := a.session.Close(); err != nil {
			log.Printf("Error finalizing session video: %v", err)
		}
		a.session = nil
	}
	if a.poseEst != nil {
		a.poseEst.Close()
		a.poseEst = nil
	}
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}
	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	log.Println("Monitoring pipeline stopped")
}

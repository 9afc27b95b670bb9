package app

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/arnavgupta/headguard/internal/announce"
	"github.com/arnavgupta/headguard/internal/capture"
	"github.com/arnavgupta/headguard/internal/clip"
	"github.com/arnavgupta/headguard/internal/collision"
	"github.com/arnavgupta/headguard/internal/detector"
	"github.com/arnavgupta/headguard/internal/overlay"
	"github.com/arnavgupta/headguard/internal/pose"
	"github.com/arnavgupta/headguard/internal/server"
	"github.com/arnavgupta/headguard/internal/store"
)

// runPipeline is the monitoring loop. Every frame flows through one
// synchronous pass:
//
//  1. Detect face landmarks (up to the configured face count).
//  2. Solve each face's head pose and derive per-slot velocities.
//  3. Build hitboxes and evaluate the collision state machine.
//  4. Render the overlay, buffer the frame, and on a confirmation edge
//     write the pre-event clip, persist the event, and announce it.
//  5. Publish the rendered frame and telemetry to the hub.
func (a *App) runPipeline() {
	a.mu.RLock()
	stopCh := a.stopCh
	doneCh := a.doneCh
	a.mu.RUnlock()
	defer close(doneCh)

	for {
		select {
		case <-stopCh:
			return
		default:
		}

		if !a.IsEnabled() {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		frame, err := a.Camera().ReadFrame()
		if err != nil {
			if errors.Is(err, capture.ErrStreamEnded) {
				log.Println("Capture stream ended")
				return
			}
			log.Printf("Error reading frame: %v", err)
			time.Sleep(100 * time.Millisecond)
			continue
		}

		a.processFrame(frame, time.Now())
		frame.Close()
	}
}

// lazyInit builds the frame-size-dependent components once the first
// frame's dimensions are known.
func (a *App) lazyInit(width, height int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cam != nil {
		return
	}
	a.cam = pose.NewCameraModel(width, height)
	a.render = overlay.NewRenderer(a.cam)

	if a.solver == nil {
		a.poseEst = pose.NewEstimator(a.cam)
		a.solver = a.poseEst.Solve
	}

	// The look-back buffer runs whether or not the session is recorded:
	// collision clips must not depend on the session video setting.
	a.recorder = clip.NewRecorder(a.config.Clip, a.camera.FPS())
	if a.config.ClipSinkFactory != nil {
		a.recorder.SetSinkFactory(a.config.ClipSinkFactory)
	}

	if a.config.SaveVideo {
		a.session = a.openSessionSink(width, height)
	}
}

// openSessionSink starts the whole-session recording next to the clips.
func (a *App) openSessionSink(width, height int) clip.Sink {
	if err := os.MkdirAll(a.config.Clip.Dir, 0755); err != nil {
		log.Printf("Failed to create session video directory: %v", err)
		return nil
	}
	path := filepath.Join(a.config.Clip.Dir,
		fmt.Sprintf("session_%s.mp4", time.Now().Local().Format("20060102_150405")))

	open := a.config.ClipSinkFactory
	if open == nil {
		open = clip.OpenFileSink
	}
	sink, err := open(path, a.recorder.FPS(), width, height)
	if err != nil {
		log.Printf("Failed to open session video %s: %v", path, err)
		return nil
	}
	log.Printf("Recording session video: %s", path)
	return sink
}

func (a *App) processFrame(frame *gocv.Mat, now time.Time) {
	width, height := frame.Cols(), frame.Rows()
	a.lazyInit(width, height)

	faces, err := a.Detector().Detect(frame)
	if err != nil {
		log.Printf("Error detecting faces: %v", err)
		return
	}

	views := make([]overlay.FaceView, 0, len(faces))
	colFaces := make([]collision.Face, 0, len(faces))
	telemetry := make([]server.FaceTelemetry, 0, len(faces))

	for slot := range faces {
		face := &faces[slot]
		box := collision.HitBoxFromLandmarks(face, width, height,
			collision.DefaultBoxPadding, collision.DefaultHitboxScale)

		var headPose *pose.HeadPose
		if face.HasCanonical() {
			headPose, err = a.solveFace(face)
			if err != nil {
				log.Printf("Pose solve failed for slot %d: %v", slot, err)
			}
		}

		velocity := a.motion.Observe(slot, headPose, now)
		rotAlert, transAlert := a.motion.Alert(velocity)

		views = append(views, overlay.FaceView{
			Slot:             slot,
			Landmarks:        face,
			Box:              box,
			Pose:             headPose,
			Velocity:         velocity,
			RotationAlert:    rotAlert,
			TranslationAlert: transAlert,
		})
		colFaces = append(colFaces, collision.Face{Slot: slot, Box: box, Pose: headPose})

		if headPose != nil {
			ft := server.FaceTelemetry{
				Slot:             slot,
				Pitch:            headPose.Pitch,
				Yaw:              headPose.Yaw,
				Roll:             headPose.Roll,
				DepthMM:          headPose.Depth(),
				RotationAlert:    rotAlert,
				TranslationAlert: transAlert,
			}
			if velocity != nil {
				angular := velocity.MaxAngular()
				ft.AngularVel = &angular
				translational := velocity.Translational
				ft.TranslationalVel = &translational
			}
			telemetry = append(telemetry, ft)
		}
	}

	res := a.collider.Evaluate(colFaces)

	var peakAngular, peakTranslational float64
	for i := range views {
		if v := views[i].Velocity; v != nil {
			if ang := v.MaxAngular(); ang > peakAngular {
				peakAngular = ang
			}
			if v.Translational > peakTranslational {
				peakTranslational = v.Translational
			}
		}
	}

	a.renderer().Draw(frame, views, res, a.collider.Count())

	recorder := a.clipRecorderRef()
	if recorder != nil {
		recorder.Push(*frame, now)
	}

	if sink := a.sessionSinkRef(); sink != nil {
		if err := sink.Write(*frame); err != nil {
			log.Printf("Session video write failed, stopping session recording: %v", err)
			a.closeSessionSink()
		}
	}

	if res.Edge {
		a.handleCollision(res, now, width, height, peakAngular, peakTranslational)
	}

	a.publish(frame, telemetry, res, now)
}

// solveFace runs the configured pose solver.
func (a *App) solveFace(face *detector.FaceLandmarks) (*pose.HeadPose, error) {
	a.mu.RLock()
	solver := a.solver
	a.mu.RUnlock()
	if solver == nil {
		return nil, nil
	}
	return solver(face)
}

func (a *App) renderer() *overlay.Renderer {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.render
}

func (a *App) clipRecorderRef() *clip.Recorder {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.recorder
}

func (a *App) sessionSinkRef() clip.Sink {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session
}

func (a *App) closeSessionSink() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return
	}
	if err := a.session.Close(); err != nil {
		log.Printf("Error closing session video: %v", err)
	}
	a.session = nil
}

// handleCollision runs once per confirmed episode: persist the event,
// flush the pre-event clip, update listeners, and speak the alert.
func (a *App) handleCollision(res collision.Result, now time.Time, width, height int, peakAngular, peakTranslational float64) {
	count := a.collider.Count()
	log.Printf("Head collision confirmed (IoU %.2f, depth diff %.0fmm, distance %.0fmm), total %d",
		res.IoU, res.DepthDiff, res.Distance3D, count)

	var eventID string
	if a.config.Store != nil {
		event := &store.CollisionEvent{
			ID:                uuid.New().String(),
			OccurredAt:        now,
			SlotA:             res.SlotA,
			SlotB:             res.SlotB,
			IoU:               res.IoU,
			DepthDiffMM:       res.DepthDiff,
			DistanceMM:        res.Distance3D,
			PeakAngular:       peakAngular,
			PeakTranslational: peakTranslational,
		}
		if err := a.config.Store.Events().Create(event); err != nil {
			log.Printf("Failed to persist collision event: %v", err)
		} else {
			eventID = event.ID
		}
	}

	recorder := a.clipRecorderRef()
	if recorder != nil {
		path, err := recorder.OnCollisionConfirmed(now, width, height)
		if err != nil {
			log.Printf("Failed to write collision clip: %v", err)
		} else if path != "" {
			log.Printf("Collision clip written: %s", path)
			if eventID != "" {
				if err := a.config.Store.Events().SetClipPath(eventID, path); err != nil {
					log.Printf("Failed to record clip path: %v", err)
				}
			}
		}
	}

	a.announcer.Announce(announce.CollisionMessage(count))

	a.mu.RLock()
	callback := a.onCollision
	a.mu.RUnlock()
	if callback != nil {
		callback(count)
	}
}

// publish hands the rendered frame and telemetry to the HTTP surfaces.
func (a *App) publish(frame *gocv.Mat, faces []server.FaceTelemetry, res collision.Result, now time.Time) {
	hub := a.config.Hub
	if hub == nil {
		return
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err == nil {
		data := make([]byte, buf.Len())
		copy(data, buf.GetBytes())
		buf.Close()
		hub.PublishFrame(data)
	}

	hub.PublishTelemetry(&server.Telemetry{
		Timestamp: now.UnixMilli(),
		Faces:     faces,
		Collision: server.CollisionTelemetry{
			Contact:   res.Contact,
			Confirmed: res.Confirmed,
			Count:     a.collider.Count(),
			IoU:       res.IoU,
		},
	})
}

// Package clip maintains a rolling look-back buffer of rendered frames
// and materializes a pre-event video clip on each confirmed collision.
package clip

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bmharper/ringbuffer"
	"gocv.io/x/gocv"
)

// Clip recording defaults.
const (
	DefaultWindowSeconds = 5.0
	DefaultFallbackFPS   = 20.0
	DefaultCodec         = "mp4v"
	DefaultDir           = "collision_clips"
)

// ErrSinkOpen is returned when the clip sink cannot be opened, e.g. an
// unwritable output location. The confirmation still counts; no clip
// file results.
var ErrSinkOpen = errors.New("clip: cannot open clip sink")

// Config holds clip recorder settings.
type Config struct {
	// Dir is the output directory for clip files.
	Dir string
	// WindowSeconds is the pre-event look-back window.
	WindowSeconds float64
	// FallbackFPS is used when the capture device reports no frame rate.
	FallbackFPS float64
	// Codec is the fourcc string for the clip encoder.
	Codec string
}

// DefaultConfig returns the default clip settings.
func DefaultConfig() Config {
	return Config{
		Dir:           DefaultDir,
		WindowSeconds: DefaultWindowSeconds,
		FallbackFPS:   DefaultFallbackFPS,
		Codec:         DefaultCodec,
	}
}

// Sink consumes ordered frames for one clip and is closed exactly once.
type Sink interface {
	Write(frame gocv.Mat) error
	Close() error
}

// SinkFactory opens a clip sink at the given path. The default factory
// writes video files through OpenCV; tests substitute their own.
type SinkFactory func(path string, fps float64, width, height int) (Sink, error)

type bufferedFrame struct {
	ts  time.Time
	img gocv.Mat
}

// Recorder owns the pre-event ring buffer. Push must be called once per
// frame; OnCollisionConfirmed flushes the window into a clip file and
// finalizes it immediately (no post-event frames). Not safe for
// concurrent use: the pipeline drives it from a single loop.
type Recorder struct {
	cfg       Config
	fps       float64
	maxFrames int
	buf       ringbuffer.WeightedRingT[bufferedFrame]
	newSink   SinkFactory
	writing   bool
	written   int
}

// NewRecorder creates a Recorder. deviceFPS is the capture device's
// reported rate; values of 1.0 or less fall back to cfg.FallbackFPS.
func NewRecorder(cfg Config, deviceFPS float64) *Recorder {
	if cfg.WindowSeconds <= 0 {
		cfg.WindowSeconds = DefaultWindowSeconds
	}
	if cfg.FallbackFPS <= 0 {
		cfg.FallbackFPS = DefaultFallbackFPS
	}
	if cfg.Codec == "" {
		cfg.Codec = DefaultCodec
	}

	fps := deviceFPS
	if fps <= 1.0 {
		fps = cfg.FallbackFPS
	}

	maxFrames := int(cfg.WindowSeconds * fps)
	if maxFrames < 1 {
		maxFrames = 1
	}

	return &Recorder{
		cfg:       cfg,
		fps:       fps,
		maxFrames: maxFrames,
		buf:       ringbuffer.NewWeightedRingT[bufferedFrame](maxFrames),
		newSink:   openVideoSink,
	}
}

// SetSinkFactory replaces the clip sink factory (used by tests).
func (r *Recorder) SetSinkFactory(f SinkFactory) {
	r.newSink = f
}

// FPS returns the effective clip frame rate.
func (r *Recorder) FPS() float64 {
	return r.fps
}

// MaxFrames returns the buffer capacity in frames.
func (r *Recorder) MaxFrames() int {
	return r.maxFrames
}

// Len returns the number of buffered frames.
func (r *Recorder) Len() int {
	return r.buf.Len()
}

// ClipsWritten returns the number of clips finalized this session.
func (r *Recorder) ClipsWritten() int {
	return r.written
}

// Push copies the frame into the ring buffer, evicting the oldest entries
// so the buffer never exceeds the look-back window.
func (r *Recorder) Push(frame gocv.Mat, ts time.Time) {
	for r.buf.Len() >= r.maxFrames {
		_, old, ok := r.buf.Next()
		if !ok {
			break
		}
		old.img.Close()
	}

	img := frame.Clone()
	r.buf.Add(1, &bufferedFrame{ts: ts, img: img})
}

// OnCollisionConfirmed writes every buffered frame captured within
// [ts - window, ts], in original order, to a newly opened clip sink and
// closes it immediately. Returns the clip path. A confirmation arriving
// while a sink is still being finalized is ignored.
func (r *Recorder) OnCollisionConfirmed(ts time.Time, width, height int) (string, error) {
	if r.writing {
		return "", nil
	}

	if err := os.MkdirAll(r.cfg.Dir, 0755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrSinkOpen, err)
	}

	name := fmt.Sprintf("collision_%s.mp4", ts.Local().Format("20060102_150405"))
	path := filepath.Join(r.cfg.Dir, name)

	sink, err := r.newSink(path, r.fps, width, height)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSinkOpen, err)
	}

	r.writing = true
	defer func() { r.writing = false }()

	minTS := ts.Add(-time.Duration(r.cfg.WindowSeconds * float64(time.Second)))
	for i := 0; i < r.buf.Len(); i++ {
		_, bf, ok := r.buf.Peek(i)
		if !ok {
			break
		}
		if bf.ts.Before(minTS) || bf.ts.After(ts) {
			continue
		}
		if err := sink.Write(bf.img); err != nil {
			sink.Close()
			return path, err
		}
	}

	if err := sink.Close(); err != nil {
		return path, err
	}
	r.written++
	return path, nil
}

// Close releases all buffered frames.
func (r *Recorder) Close() {
	for {
		_, bf, ok := r.buf.Next()
		if !ok {
			return
		}
		bf.img.Close()
	}
}

// OpenFileSink opens the default OpenCV-backed video sink. Session
// recording writes through it directly; the clip recorder reaches it
// through its factory.
func OpenFileSink(path string, fps float64, width, height int) (Sink, error) {
	return openVideoSink(path, fps, width, height)
}

// videoSink writes clips through OpenCV's video encoder.
type videoSink struct {
	writer *gocv.VideoWriter
}

func openVideoSink(path string, fps float64, width, height int) (Sink, error) {
	return openVideoSinkCodec(path, DefaultCodec, fps, width, height)
}

func openVideoSinkCodec(path, codec string, fps float64, width, height int) (Sink, error) {
	writer, err := gocv.VideoWriterFile(path, codec, fps, width, height, true)
	if err != nil {
		return nil, err
	}
	if !writer.IsOpened() {
		writer.Close()
		return nil, fmt.Errorf("video writer did not open: %s", path)
	}
	return &videoSink{writer: writer}, nil
}

func (s *videoSink) Write(frame gocv.Mat) error {
	return s.writer.Write(frame)
}

func (s *videoSink) Close() error {
	return s.writer.Close()
}

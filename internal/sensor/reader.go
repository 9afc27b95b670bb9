// Package sensor reads helmet accelerometer data from a serial port,
// gates impacts on a G-force threshold with an alert cooldown, and
// forwards confirmed hits to an upstream tracking API.
package sensor

import (
	"bufio"
	"context"
	"io"
	"regexp"
	"strconv"
	"time"

	"go.bug.st/serial"
)

// Sensor defaults, matching the helmet firmware's output scaling.
const (
	DefaultBaudRate = 38400
	// DefaultThresholdG is the G-force above which a reading counts as a hit.
	DefaultThresholdG = 2.0
	// DefaultCooldown suppresses repeat alerts after a hit fires.
	DefaultCooldown = 5 * time.Second
	// DefaultMagnitudeScale divides the raw integer magnitude into Gs.
	DefaultMagnitudeScale = 100.0
)

// Sensor lines look like "MAG: 245".
var magPattern = regexp.MustCompile(`MAG:\s*(-?\d+)`)

// ParseMagnitude extracts the raw magnitude from a sensor line.
// Lines without a magnitude report false.
func ParseMagnitude(line string) (int, bool) {
	m := magPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	raw, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return raw, true
}

// Impact is one above-threshold reading that passed the cooldown gate.
type Impact struct {
	PlayerName    string
	Team          string
	OccurredAt    time.Time
	AccelerationG float64
	// AngularVelocity is in deg/s; nil when the sensor did not report one.
	AngularVelocity *float64
}

// Config holds the sensor reader settings.
type Config struct {
	PlayerName     string
	Team           string
	ThresholdG     float64
	Cooldown       time.Duration
	MagnitudeScale float64
}

// DefaultConfig returns the default reader settings. PlayerName and Team
// must be filled in by the caller.
func DefaultConfig() Config {
	return Config{
		ThresholdG:     DefaultThresholdG,
		Cooldown:       DefaultCooldown,
		MagnitudeScale: DefaultMagnitudeScale,
	}
}

// OpenPort opens the serial device the helmet sensor is attached to.
func OpenPort(port string, baud int) (io.ReadCloser, error) {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	return serial.Open(port, &serial.Mode{BaudRate: baud})
}

// Reader consumes sensor lines from a source and emits gated impacts.
type Reader struct {
	cfg       Config
	src       io.Reader
	now       func() time.Time
	lastAlert time.Time
	readings  int
	impacts   int
}

// NewReader creates a Reader over the given line source (a serial port
// in production, any io.Reader in tests).
func NewReader(cfg Config, src io.Reader) *Reader {
	if cfg.ThresholdG <= 0 {
		cfg.ThresholdG = DefaultThresholdG
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.MagnitudeScale <= 0 {
		cfg.MagnitudeScale = DefaultMagnitudeScale
	}
	return &Reader{
		cfg: cfg,
		src: src,
		now: time.Now,
	}
}

// Run reads sensor lines until the source ends or the context is
// canceled, calling onImpact for each reading that exceeds the threshold
// outside the cooldown window. Readings inside the cooldown are counted
// but not reported.
func (r *Reader) Run(ctx context.Context, onImpact func(Impact)) error {
	scanner := bufio.NewScanner(r.src)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		raw, ok := ParseMagnitude(scanner.Text())
		if !ok {
			continue
		}
		r.readings++

		g := float64(raw) / r.cfg.MagnitudeScale
		if g <= r.cfg.ThresholdG {
			continue
		}

		now := r.now()
		if !r.lastAlert.IsZero() && now.Sub(r.lastAlert) < r.cfg.Cooldown {
			continue
		}
		r.lastAlert = now
		r.impacts++

		onImpact(Impact{
			PlayerName:    r.cfg.PlayerName,
			Team:          r.cfg.Team,
			OccurredAt:    now,
			AccelerationG: g,
		})
	}
	return scanner.Err()
}

// Readings returns the number of magnitude lines parsed.
func (r *Reader) Readings() int {
	return r.readings
}

// Impacts returns the number of impacts reported.
func (r *Reader) Impacts() int {
	return r.impacts
}

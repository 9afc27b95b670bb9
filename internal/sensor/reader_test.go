package sensor

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestParseMagnitude(t *testing.T) {
	tests := []struct {
		line    string
		want    int
		wantOK  bool
	}{
		{"MAG: 245", 245, true},
		{"MAG:245", 245, true},
		{"MAG:  -12", -12, true},
		{"noise MAG: 300 trailing", 300, true},
		{"GYRO: 100", 0, false},
		{"", 0, false},
		{"MAG: abc", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseMagnitude(tt.line)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseMagnitude(%q) = (%d, %v), want (%d, %v)", tt.line, got, ok, tt.want, tt.wantOK)
		}
	}
}

// readerAt fixes the reader's clock to a controllable sequence so
// cooldown behavior is deterministic.
func readerAt(cfg Config, src string, times []time.Time) *Reader {
	r := NewReader(cfg, strings.NewReader(src))
	i := 0
	r.now = func() time.Time {
		t := times[i%len(times)]
		i++
		return t
	}
	return r
}

func TestReader_ThresholdGate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PlayerName = "Player 7"
	cfg.Team = "home"

	// 1.5G is calm, 2.0G is exactly at threshold (calm), 3.5G fires.
	src := "MAG: 150\nMAG: 200\nMAG: 350\n"
	r := readerAt(cfg, src, []time.Time{time.Unix(1000, 0)})

	var impacts []Impact
	if err := r.Run(context.Background(), func(imp Impact) {
		impacts = append(impacts, imp)
	}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(impacts) != 1 {
		t.Fatalf("impacts = %d, want 1", len(impacts))
	}
	if impacts[0].AccelerationG != 3.5 {
		t.Errorf("AccelerationG = %f, want 3.5", impacts[0].AccelerationG)
	}
	if impacts[0].PlayerName != "Player 7" || impacts[0].Team != "home" {
		t.Errorf("identity = %q/%q", impacts[0].PlayerName, impacts[0].Team)
	}
	if r.Readings() != 3 {
		t.Errorf("Readings() = %d, want 3", r.Readings())
	}
}

func TestReader_Cooldown(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cooldown = 5 * time.Second

	// Three above-threshold hits: at t=0, t=2s (inside cooldown), t=6s.
	src := "MAG: 300\nMAG: 400\nMAG: 350\n"
	base := time.Unix(1000, 0)
	r := readerAt(cfg, src, []time.Time{base, base.Add(2 * time.Second), base.Add(6 * time.Second)})

	var impacts []Impact
	if err := r.Run(context.Background(), func(imp Impact) {
		impacts = append(impacts, imp)
	}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(impacts) != 2 {
		t.Fatalf("impacts = %d, want 2 with middle hit suppressed", len(impacts))
	}
	if impacts[0].AccelerationG != 3.0 || impacts[1].AccelerationG != 3.5 {
		t.Errorf("impacts = %f, %f", impacts[0].AccelerationG, impacts[1].AccelerationG)
	}
	if r.Impacts() != 2 {
		t.Errorf("Impacts() = %d, want 2", r.Impacts())
	}
}

func TestReader_IgnoresUnparsableLines(t *testing.T) {
	r := NewReader(DefaultConfig(), strings.NewReader("boot v1.2\nGYRO: 10\nMAG: 100\n"))

	if err := r.Run(context.Background(), func(Impact) {}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if r.Readings() != 1 {
		t.Errorf("Readings() = %d, want 1", r.Readings())
	}
}

func TestSimulatedSource_ProducesParsableLines(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := SimulatedSource(ctx, time.Millisecond, 42)
	r := NewReader(DefaultConfig(), src)

	done := make(chan struct{})
	go func() {
		r.Run(ctx, func(Impact) {})
		close(done)
	}()

	// Give the simulator time to emit a few readings, then stop it.
	deadline := time.After(2 * time.Second)
	for r.Readings() < 5 {
		select {
		case <-deadline:
			t.Fatalf("only %d readings before deadline", r.Readings())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
}

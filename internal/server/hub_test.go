package server

import (
	"bytes"
	"testing"
)

func TestHub_FrameSequence(t *testing.T) {
	h := NewHub()

	if jpeg, seq := h.Frame(); jpeg != nil || seq != 0 {
		t.Errorf("empty hub returned frame (seq %d)", seq)
	}

	h.PublishFrame([]byte{0xff, 0xd8})
	jpeg, seq := h.Frame()
	if !bytes.Equal(jpeg, []byte{0xff, 0xd8}) {
		t.Error("frame bytes do not round trip")
	}
	if seq != 1 {
		t.Errorf("seq = %d, want 1", seq)
	}

	h.PublishFrame([]byte{0xff, 0xd9})
	if _, seq := h.Frame(); seq != 2 {
		t.Errorf("seq = %d, want 2 after second publish", seq)
	}
}

func TestHub_Telemetry(t *testing.T) {
	h := NewHub()

	if h.Telemetry() != nil {
		t.Error("empty hub returned telemetry")
	}

	h.PublishTelemetry(&Telemetry{
		Timestamp: 1234,
		Faces:     []FaceTelemetry{{Slot: 0, Yaw: 12.5}},
		Collision: CollisionTelemetry{Contact: true, Count: 1},
	})

	got := h.Telemetry()
	if got == nil {
		t.Fatal("telemetry not published")
	}
	if got.Timestamp != 1234 || len(got.Faces) != 1 || !got.Collision.Contact {
		t.Errorf("telemetry = %+v", got)
	}
}

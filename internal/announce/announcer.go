// Package announce speaks alert messages through the platform's
// text-to-speech command.
package announce

import (
	"fmt"
	"log"
	"os/exec"
)

// Announcer speaks alert messages. Implementations must not block the
// caller on playback.
type Announcer interface {
	Announce(message string)
}

// speechCommands are tried in order; the first one on PATH wins.
var speechCommands = []string{"say", "espeak", "spd-say"}

// Speech announces through an external text-to-speech binary.
type Speech struct {
	cmd string
}

// NewSpeech finds a usable text-to-speech command. When none is
// installed it returns a Noop announcer instead.
func NewSpeech() Announcer {
	for _, cmd := range speechCommands {
		if _, err := exec.LookPath(cmd); err == nil {
			return &Speech{cmd: cmd}
		}
	}
	log.Println("no text-to-speech command found, alerts will not be spoken")
	return Noop{}
}

// Announce speaks the message in the background. Playback failures are
// logged and never propagate.
func (s *Speech) Announce(message string) {
	go func() {
		if err := exec.Command(s.cmd, message).Run(); err != nil {
			log.Printf("speech alert failed: %v", err)
		}
	}()
}

// Noop discards all announcements.
type Noop struct{}

// Announce does nothing.
func (Noop) Announce(string) {}

// CollisionMessage is the spoken alert for a confirmed head collision.
func CollisionMessage(count int) string {
	return fmt.Sprintf("Head collision detected. Total collisions this session: %d.", count)
}

// HitMessage is the spoken alert for a helmet sensor impact.
func HitMessage(playerName string, accelerationG float64) string {
	return fmt.Sprintf("%s has had a hit to the head of %.1f G, please remove them from the field.", playerName, accelerationG)
}

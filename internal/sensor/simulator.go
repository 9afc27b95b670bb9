package sensor

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"time"
)

// SimulatedSource produces sensor lines without hardware: mostly normal
// readings (0.5G to 1.5G) with occasional above-threshold spikes (2.5G to
// 5G). It ends when the context is canceled.
func SimulatedSource(ctx context.Context, interval time.Duration, seed int64) io.Reader {
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	rng := rand.New(rand.NewSource(seed))

	pr, pw := io.Pipe()
	go func() {
		defer pw.Close()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			var raw int
			if rng.Float64() < 0.8 {
				raw = 50 + rng.Intn(101) // 0.5G to 1.5G
			} else {
				raw = 250 + rng.Intn(251) // 2.5G to 5G
			}
			if _, err := fmt.Fprintf(pw, "MAG: %d\n", raw); err != nil {
				return
			}
		}
	}()
	return pr
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"echolog/internal/coordinator"
	"echolog/internal/domain"
	"echolog/internal/events"
)

// startRenderer consumes pipeline events and prints progress. The
// returned stop function terminates the render loop.
func startRenderer(w io.Writer, bus *events.Bus, showMeter bool) func() {
	ch := bus.Subscribe(128)
	done := make(chan struct{})

	go func() {
		meterLine := false
		for {
			select {
			case <-done:
				return
			case ev := <-ch:
				switch ev.Type {
				case events.TypeState:
					if meterLine {
						fmt.Fprintln(w)
						meterLine = false
					}
					fmt.Fprintf(w, "• %s\n", ev.Message)
				case events.TypeError:
					if meterLine {
						fmt.Fprintln(w)
						meterLine = false
					}
					fmt.Fprintf(w, "✗ %s\n", ev.Message)
				case events.TypeLevels:
					if showMeter && ev.Levels != nil {
						fmt.Fprintf(w, "\r%s %s", formatClock(ev.Levels.Elapsed), levelBar(ev.Levels.Bands))
						meterLine = true
					}
				}
			}
		}
	}()

	return func() { close(done) }
}

// levelBar renders the loudest band as a fixed-width bar.
func levelBar(bands []float64) string {
	peak := 0.0
	for _, b := range bands {
		if b > peak {
			peak = b
		}
	}

	const width = 24
	filled := int(peak * width)
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

// formatClock renders elapsed capture time as mm:ss.
func formatClock(d time.Duration) string {
	total := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// waitForOutcome blocks until the coordinator reaches a terminal state.
func waitForOutcome(ctx context.Context, coord *coordinator.Coordinator) (coordinator.Result, error) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return coordinator.Result{}, ctx.Err()
		case <-ticker.C:
		}

		switch coord.State() {
		case domain.StateCompleted:
			return coord.Result(), nil
		case domain.StateErrored:
			return coordinator.Result{}, errors.New(coord.LastError())
		}
	}
}

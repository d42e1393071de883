package main

import (
	"context"
	"fmt"
	"log"

	"github.com/usrname0/holdup"
)

// Consumes progress events over a channel instead of the console bar, the
// shape you want when the wait runs inside a larger service.
func main() {
	cfg := &holdup.Config{}
	cfg.ApplyDefaults()
	cfg.Gate.DurationSeconds = 5

	rep, progressCh, doneCh, closeFn := holdup.NewChannelReporter(32)
	defer closeFn()

	go func() {
		for p := range progressCh {
			fmt.Printf("tick %d: %s remaining\n", p.Tick, p.Remaining.Round(0))
		}
	}()

	gate, err := holdup.ConfFromConfig(cfg, holdup.WithReporter(rep))
	if err != nil {
		log.Fatalf("configure: %v", err)
	}

	if _, err := gate.Hold(context.Background(), nil); err != nil {
		log.Fatalf("hold: %v", err)
	}

	out := <-doneCh
	fmt.Printf("done after %s (ticks=%d)\n", out.Elapsed.Round(0), out.Ticks)
}

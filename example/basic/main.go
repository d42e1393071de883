package main

import (
	"context"
	"fmt"
	"log"

	"github.com/usrname0/holdup"
)

// Waits a fixed ten seconds before handing the payload back, no sensor
// involved. Run it between two batch jobs to give the hardware a breather.
func main() {
	cfg := &holdup.Config{}
	cfg.ApplyDefaults()
	cfg.Gate.DurationSeconds = 10

	gate, err := holdup.ConfFromConfig(cfg)
	if err != nil {
		log.Fatalf("configure: %v", err)
	}

	out, err := gate.Hold(context.Background(), "job-42")
	if err != nil {
		log.Fatalf("hold: %v", err)
	}

	fmt.Printf("released %v after %s\n", out.Payload, out.Elapsed.Round(0))
}

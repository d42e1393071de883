package main

import (
	"context"
	"fmt"
	"log"

	"github.com/usrname0/holdup"
)

// Plugs a custom sensor in via ProbeFunc. The simulated die starts hot and
// sheds two degrees per reading, so the gate opens once it crosses 60°C.
func main() {
	cfg := &holdup.Config{}
	cfg.ApplyDefaults()
	cfg.Gate.TemperatureCelsius = 60
	cfg.Gate.PollIntervalSeconds = 0.5

	temp := 74.0
	probe := holdup.ProbeFunc(func(context.Context) (float64, error) {
		temp -= 2
		return temp, nil
	})

	gate, err := holdup.ConfFromConfig(cfg, holdup.WithProbe(probe))
	if err != nil {
		log.Fatalf("configure: %v", err)
	}

	out, err := gate.Hold(context.Background(), nil)
	if err != nil {
		log.Fatalf("hold: %v", err)
	}

	fmt.Printf("cooled down after %d ticks, peak %.1f°C\n", out.Ticks, out.PeakCelsius)
}

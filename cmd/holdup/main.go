package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/usrname0/holdup"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	var err error

	switch cmd {
	case "run":
		err = runCommand(os.Args[2:])
	case "validate":
		err = validateCommand(os.Args[2:])
	case "probe":
		err = probeCommand(os.Args[2:])
	case "history":
		err = historyCommand(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		printUsage()
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		if errors.Is(err, holdup.ErrCancelled) {
			log.Printf("holdup %s: %v", cmd, err)
			os.Exit(130)
		}
		log.Fatalf("holdup %s: %v", cmd, err)
	}
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to configuration file (optional)")
	temp := fs.Float64("temp", 0, "Temperature target in °C; overrides config, 0 disables the gate")
	seconds := fs.Float64("seconds", 0, "Minimum wait in seconds; overrides config, 0 disables the gate")
	interval := fs.Float64("interval", 0, "Poll interval in seconds; overrides config")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadOrDefault(*cfgPath)
	if err != nil {
		return err
	}
	applyOverride(fs, "temp", func() { cfg.Gate.TemperatureCelsius = *temp })
	applyOverride(fs, "seconds", func() { cfg.Gate.DurationSeconds = *seconds })
	applyOverride(fs, "interval", func() { cfg.Gate.PollIntervalSeconds = *interval })
	if err := cfg.Validate(); err != nil {
		return err
	}

	gate, err := holdup.ConfFromConfig(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, err = gate.Hold(ctx, nil)
	return err
}

func validateCommand(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	cfgPath := fs.String("config", "./holdup.yaml", "Path to configuration file to validate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := holdup.LoadConfig(*cfgPath); err != nil {
		return err
	}
	fmt.Printf("config %s looks good\n", *cfgPath)
	return nil
}

func probeCommand(args []string) error {
	fs := flag.NewFlagSet("probe", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to configuration file (optional)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadOrDefault(*cfgPath)
	if err != nil {
		return err
	}

	rt, err := holdup.NewRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Shutdown(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	celsius, err := rt.Probe(ctx)
	if err != nil {
		if errors.Is(err, holdup.ErrUnavailable) {
			fmt.Printf("sensor unavailable (%s backend): %v\n", cfg.Sensor.Backend, err)
			return nil
		}
		return err
	}
	fmt.Printf("%.1f°C (%s backend)\n", celsius, cfg.Sensor.Backend)
	return nil
}

func historyCommand(args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	cfgPath := fs.String("config", "./holdup.yaml", "Path to configuration file")
	n := fs.Int("n", 10, "Number of recent waits to show")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := holdup.LoadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if cfg.History.Dir == "" {
		return fmt.Errorf("history.dir is not configured")
	}

	rt, err := holdup.NewRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Shutdown(context.Background())

	entries, err := rt.Recent(*n)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no recorded waits")
		return nil
	}
	for _, e := range entries {
		peak := "-"
		if e.PeakCelsius != nil {
			peak = fmt.Sprintf("%.1f°C", *e.PeakCelsius)
		}
		fmt.Printf("%s  elapsed=%dms ticks=%d peak=%s skipped=%v\n",
			e.StartedAt.Format("2006-01-02 15:04:05"), e.ElapsedMS, e.Ticks, peak, e.TempSkipped)
	}
	return nil
}

func loadOrDefault(path string) (*holdup.Config, error) {
	if path != "" {
		return holdup.LoadConfig(path)
	}
	cfg := &holdup.Config{}
	cfg.ApplyDefaults()
	return cfg, nil
}

// applyOverride runs fn only when the flag was set explicitly, so config
// values survive unset flags.
func applyOverride(fs *flag.FlagSet, name string, fn func()) {
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			fn()
		}
	})
}

func printUsage() {
	fmt.Printf(`holdup - pause until the hardware cools down

Usage:
  holdup <command> [flags]

Commands:
  run        Block until the configured gates are satisfied
  validate   Load and validate a config file without waiting
  probe      Take a single sensor sample and print it
  history    Show recently recorded waits

Examples:
  holdup run -temp 60 -interval 1
  holdup run -config ./holdup.yaml
  holdup run -seconds 30 && ./start-next-job.sh
  holdup probe -config ./holdup.yaml
  holdup history -config ./holdup.yaml -n 20
`)
}

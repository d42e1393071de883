package probe

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/usrname0/holdup/internal/ports"
)

// NvidiaConfig configures the nvidia-smi backed probe.
type NvidiaConfig struct {
	// Binary overrides the nvidia-smi executable, mostly for tests.
	Binary string `yaml:"binary"`
}

func (c *NvidiaConfig) ApplyDefaults() {
	if c.Binary == "" {
		c.Binary = "nvidia-smi"
	}
}

// Nvidia samples GPU temperatures by shelling out to nvidia-smi and
// reports the hottest device, so the gate waits on the worst-case GPU.
type Nvidia struct {
	cfg NvidiaConfig
}

func NewNvidia(cfg NvidiaConfig) *Nvidia {
	cfg.ApplyDefaults()
	return &Nvidia{cfg: cfg}
}

func (n *Nvidia) Read(ctx context.Context) (float64, error) {
	path, err := exec.LookPath(n.cfg.Binary)
	if err != nil || path == "" {
		return 0, fmt.Errorf("%w: %s not found", ports.ErrUnavailable, n.cfg.Binary)
	}

	out, err := exec.CommandContext(ctx, path,
		"--query-gpu=temperature.gpu",
		"--format=csv,noheader,nounits",
	).Output()
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, fmt.Errorf("%w: %s: %v", ports.ErrUnavailable, n.cfg.Binary, err)
	}

	hottest, ok := parseNvidiaTemps(string(out))
	if !ok {
		return 0, fmt.Errorf("%w: no GPUs reported", ports.ErrUnavailable)
	}
	return hottest, nil
}

// parseNvidiaTemps extracts per-GPU temperatures from csv/noheader output
// and returns the hottest one.
func parseNvidiaTemps(out string) (float64, bool) {
	var (
		hottest float64
		found   bool
	)
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		t, err := strconv.ParseFloat(line, 64)
		if err != nil {
			continue
		}
		if !found || t > hottest {
			hottest = t
			found = true
		}
	}
	return hottest, found
}

var _ ports.Probe = (*Nvidia)(nil)

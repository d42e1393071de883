package probe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/usrname0/holdup/internal/ports"
)

// HwmonConfig configures the sysfs hwmon probe.
type HwmonConfig struct {
	// Root is the hwmon class directory; overridable for tests.
	Root string `yaml:"root"`
	// Chip filters by hwmon chip name (e.g. "coretemp", "drivetemp").
	// Empty matches every chip.
	Chip string `yaml:"chip"`
}

func (c *HwmonConfig) ApplyDefaults() {
	if c.Root == "" {
		c.Root = "/sys/class/hwmon"
	}
}

// Hwmon reads temperature inputs from the Linux hwmon sysfs tree and
// reports the hottest matching channel. Values on disk are milli-degrees.
type Hwmon struct {
	cfg HwmonConfig
}

func NewHwmon(cfg HwmonConfig) *Hwmon {
	cfg.ApplyDefaults()
	return &Hwmon{cfg: cfg}
}

func (h *Hwmon) Read(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	namePaths, _ := filepath.Glob(filepath.Join(h.cfg.Root, "hwmon*", "name"))

	var (
		hottest float64
		found   bool
	)
	for _, namePath := range namePaths {
		dir := filepath.Dir(namePath)
		raw, err := os.ReadFile(namePath)
		if err != nil {
			continue
		}
		if h.cfg.Chip != "" && strings.TrimSpace(string(raw)) != h.cfg.Chip {
			continue
		}

		inputs, _ := filepath.Glob(filepath.Join(dir, "temp*_input"))
		for _, input := range inputs {
			data, err := os.ReadFile(input)
			if err != nil {
				continue
			}
			milli, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
			if err != nil {
				continue
			}
			t := milli / 1000.0
			if !found || t > hottest {
				hottest = t
				found = true
			}
		}
	}

	if !found {
		if h.cfg.Chip != "" {
			return 0, fmt.Errorf("%w: no hwmon chip %q under %s", ports.ErrUnavailable, h.cfg.Chip, h.cfg.Root)
		}
		return 0, fmt.Errorf("%w: no hwmon temperatures under %s", ports.ErrUnavailable, h.cfg.Root)
	}
	return hottest, nil
}

var _ ports.Probe = (*Hwmon)(nil)

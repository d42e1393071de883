package holdup

import (
	"context"
	"fmt"
	"log"
	"time"
)

const shutdownTimeout = 5 * time.Second

// Gate is a convenience builder so callers can say Conf → With → Hold
// without touching the underlying wiring.
type Gate struct {
	cfg  *Config
	opts []RuntimeOption
}

// Conf loads YAML from disk and returns a Gate builder.
func Conf(path string, opts ...RuntimeOption) (*Gate, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return ConfFromConfig(cfg, opts...)
}

// ConfFromConfig bootstraps a Gate from an in-memory Config.
func ConfFromConfig(cfg *Config, opts ...RuntimeOption) (*Gate, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	g := &Gate{cfg: cfg}
	g.With(opts...)
	return g, nil
}

// Config returns the underlying configuration so callers can tweak it
// before building a runtime.
func (g *Gate) Config() *Config {
	if g == nil {
		return nil
	}
	return g.cfg
}

// With appends runtime overrides to the builder.
func (g *Gate) With(opts ...RuntimeOption) *Gate {
	if g == nil {
		return nil
	}
	for _, opt := range opts {
		if opt != nil {
			g.opts = append(g.opts, opt)
		}
	}
	return g
}

// Runtime builds a Runtime ready to Start/Hold, for callers that need
// explicit lifecycle control.
func (g *Gate) Runtime() (*Runtime, error) {
	if g == nil {
		return nil, fmt.Errorf("gate is nil")
	}
	return NewRuntime(g.cfg, g.opts...)
}

// Hold is the one-shot path: build a runtime, wait until the configured
// gates are satisfied, and tear everything down again.
func (g *Gate) Hold(ctx context.Context, payload any) (Outcome, error) {
	rt, err := g.Runtime()
	if err != nil {
		return Outcome{}, err
	}
	if err := rt.Start(); err != nil {
		return Outcome{}, err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := rt.Shutdown(sctx); err != nil {
			log.Printf("holdup: shutdown: %v", err)
		}
	}()
	return rt.Hold(ctx, payload)
}

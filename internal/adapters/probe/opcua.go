package probe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gopcua/opcua"
	"github.com/gopcua/opcua/ua"

	"github.com/usrname0/holdup/internal/ports"
)

// OPCUAConfig captures the session details for reading a temperature tag
// from an industrial OPC UA server.
type OPCUAConfig struct {
	Endpoint        string `yaml:"endpoint"`
	NodeID          string `yaml:"node_id"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	SecurityMode    string `yaml:"security_mode"`
	SecurityPolicy  string `yaml:"security_policy"`
	ApplicationName string `yaml:"application_name"`
}

func (c *OPCUAConfig) ApplyDefaults() {
	if c.SecurityMode == "" {
		c.SecurityMode = "None"
	}
	if c.SecurityPolicy == "" {
		c.SecurityPolicy = "None"
	}
	if c.ApplicationName == "" {
		c.ApplicationName = "holdup"
	}
}

func (c *OPCUAConfig) Validate() error {
	if c.Endpoint == "" {
		return errors.New("endpoint is required")
	}
	if c.NodeID == "" {
		return errors.New("node_id is required")
	}
	return nil
}

// OPCUA reads one temperature node on demand, once per tick. Connection
// problems count as unavailable (the server may come back); a node ID that
// does not parse is a configuration error and fails construction.
type OPCUA struct {
	cfg    OPCUAConfig
	nodeID *ua.NodeID

	mu     sync.Mutex
	client *opcua.Client
}

func NewOPCUA(cfg OPCUAConfig) (*OPCUA, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("opcua config: %w", err)
	}
	id, err := ua.ParseNodeID(cfg.NodeID)
	if err != nil {
		return nil, fmt.Errorf("parse node id %q: %w", cfg.NodeID, err)
	}
	return &OPCUA{cfg: cfg, nodeID: id}, nil
}

func (p *OPCUA) Read(ctx context.Context) (float64, error) {
	client, err := p.connect(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, fmt.Errorf("%w: opcua connect: %v", ports.ErrUnavailable, err)
	}

	resp, err := client.Read(ctx, &ua.ReadRequest{
		MaxAge: 100,
		NodesToRead: []*ua.ReadValueID{
			{NodeID: p.nodeID, AttributeID: ua.AttributeIDValue},
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		p.dropClient()
		return 0, fmt.Errorf("%w: opcua read: %v", ports.ErrUnavailable, err)
	}
	if len(resp.Results) == 0 {
		return 0, fmt.Errorf("%w: opcua read returned no results", ports.ErrUnavailable)
	}
	dv := resp.Results[0]
	if dv.Status != ua.StatusOK {
		return 0, fmt.Errorf("%w: node %s status %s", ports.ErrUnavailable, p.cfg.NodeID, dv.Status)
	}

	v, ok := variantToFloat(dv.Value)
	if !ok {
		return 0, fmt.Errorf("holdup: node %s has non-numeric type %T", p.cfg.NodeID, dv.Value.Value())
	}
	return v, nil
}

// Close shuts down the OPC UA session if one was established.
func (p *OPCUA) Close() error {
	p.mu.Lock()
	client := p.client
	p.client = nil
	p.mu.Unlock()

	if client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return client.Close(ctx)
}

func (p *OPCUA) connect(ctx context.Context) (*opcua.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, nil
	}

	opts := []opcua.Option{
		opcua.SecurityModeString(p.cfg.SecurityMode),
		opcua.SecurityPolicy(p.cfg.SecurityPolicy),
		opcua.ApplicationName(p.cfg.ApplicationName),
		opcua.AutoReconnect(true),
	}
	if p.cfg.Username != "" {
		opts = append(opts, opcua.AuthUsername(p.cfg.Username, p.cfg.Password))
	} else {
		opts = append(opts, opcua.AuthAnonymous())
	}

	client, err := opcua.NewClient(p.cfg.Endpoint, opts...)
	if err != nil {
		return nil, err
	}
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}
	p.client = client
	return client, nil
}

func (p *OPCUA) dropClient() {
	p.mu.Lock()
	client := p.client
	p.client = nil
	p.mu.Unlock()

	if client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = client.Close(ctx)
	}
}

func variantToFloat(v *ua.Variant) (float64, bool) {
	if v == nil {
		return 0, false
	}
	switch val := v.Value().(type) {
	case float32:
		return float64(val), true
	case float64:
		return val, true
	case int8:
		return float64(val), true
	case uint8:
		return float64(val), true
	case int16:
		return float64(val), true
	case uint16:
		return float64(val), true
	case int32:
		return float64(val), true
	case uint32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint64:
		return float64(val), true
	default:
		return 0, false
	}
}

var _ ports.Probe = (*OPCUA)(nil)

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

// Plan is a declarative relay target loaded from a YAML file. It is an
// alternative to spelling the source and destination ports out on the
// command line; CLI flags still override any option it carries.
type Plan struct {
	Source       PlanSource  `yaml:"source"`
	Destinations []int       `yaml:"destinations"`
	Options      PlanOptions `yaml:"options,omitempty"`
}

// PlanSource identifies the upstream endpoint.
type PlanSource struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// PlanOptions carries optional overrides for the relay tunables.
// Durations are strings in time.ParseDuration syntax ("5s", "250ms").
type PlanOptions struct {
	BufferSize     int    `yaml:"buffer_size,omitempty"`
	ReportInterval string `yaml:"report_interval,omitempty"`
	FanoutMode     string `yaml:"fanout_mode,omitempty"`
	FanoutQueue    int    `yaml:"fanout_queue,omitempty"`
	OpsAddr        string `yaml:"ops_addr,omitempty"`
}

// ParsePlan converts plan YAML content to a validated Plan.
func ParsePlan(content []byte) (*Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(content, &p); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Validate required fields
	if p.Source.Host == "" {
		return nil, fmt.Errorf("source.host is required")
	}
	if p.Source.Port <= 0 || p.Source.Port > 65535 {
		return nil, fmt.Errorf("source.port must be in 1..65535, got %d", p.Source.Port)
	}
	if len(p.Destinations) == 0 {
		return nil, fmt.Errorf("at least one destination port is required")
	}
	for _, port := range p.Destinations {
		if port <= 0 || port > 65535 {
			return nil, fmt.Errorf("destination port must be in 1..65535, got %d", port)
		}
	}

	return &p, nil
}

// LoadPlan reads and parses a plan file.
func LoadPlan(path string) (*Plan, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}
	return ParsePlan(content)
}

// Apply merges the plan's options into cfg. Zero values leave the
// corresponding setting untouched.
func (p *Plan) Apply(cfg *Config) error {
	if p.Options.BufferSize > 0 {
		cfg.Relay.BufferSize = p.Options.BufferSize
	}
	if p.Options.ReportInterval != "" {
		d, err := time.ParseDuration(p.Options.ReportInterval)
		if err != nil {
			return fmt.Errorf("invalid report_interval: %w", err)
		}
		cfg.Relay.ReportInterval = d
	}
	if p.Options.FanoutMode != "" {
		cfg.Relay.FanoutMode = p.Options.FanoutMode
	}
	if p.Options.FanoutQueue > 0 {
		cfg.Relay.FanoutQueue = p.Options.FanoutQueue
	}
	if p.Options.OpsAddr != "" {
		cfg.Ops.Addr = p.Options.OpsAddr
	}
	return nil
}

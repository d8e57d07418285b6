package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/streamdup/internal/config"
	"github.com/GriffinCanCode/streamdup/internal/logging"
	"github.com/GriffinCanCode/streamdup/internal/monitoring"
	"github.com/GriffinCanCode/streamdup/internal/ops"
	"github.com/GriffinCanCode/streamdup/internal/relay"
)

const usageHeader = `Usage: duplicator [flags] <source_host> <source_port> <dest_port> [dest_port ...]

Relays one TCP stream from the source to every destination port on the
loopback interface. A destination that fails is dropped and the stream
continues for the rest; losing the source or the last destination ends
the run.

Targets may also come from a YAML plan file (-config or DUP_CONFIG)
instead of positional arguments.

Flags:
`

func usage() {
	fmt.Fprint(os.Stderr, usageHeader)
	flag.PrintDefaults()
}

func main() {
	configPath := flag.String("config", "", "YAML plan file path (overrides DUP_CONFIG)")
	opsAddr := flag.String("ops", "", "ops server listen address, e.g. :9090")
	bufferSize := flag.Int("buffer", 0, "read buffer size in bytes")
	interval := flag.Duration("interval", 0, "throughput report interval")
	timeout := flag.Duration("timeout", 0, "source and destination dial timeout")
	fanout := flag.String("fanout", "", "fanout mode: sequential or concurrent")
	dev := flag.Bool("dev", false, "development mode (colored console logs, debug level)")
	level := flag.String("level", "", "log level: debug, info, warn, error")
	flag.Usage = usage
	flag.Parse()

	cfg, target, err := configure(flagValues{
		configPath: *configPath,
		opsAddr:    *opsAddr,
		bufferSize: *bufferSize,
		interval:   *interval,
		timeout:    *timeout,
		fanout:     *fanout,
		dev:        *dev,
		level:      *level,
	}, flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "duplicator: %v\n\n", err)
		usage()
		os.Exit(2)
	}

	log, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "duplicator: %v\n", err)
		os.Exit(2)
	}
	defer log.Sync()

	metrics := monitoring.NewMetrics()
	session := relay.NewSession(cfg, target, log, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opsServer *ops.Server
	if cfg.Ops.Addr != "" {
		opsServer = ops.NewServer(cfg, session, log, metrics)
		opsServer.Start()
	}

	err = session.Run(ctx)

	if opsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if serr := opsServer.Shutdown(shutdownCtx); serr != nil {
			log.Warn("ops server shutdown incomplete", zap.Error(serr))
		}
		cancel()
	}

	if err != nil {
		log.Sync()
		os.Exit(1)
	}
}

// flagValues carries the parsed flag set into configuration assembly.
type flagValues struct {
	configPath string
	opsAddr    string
	bufferSize int
	interval   time.Duration
	timeout    time.Duration
	fanout     string
	dev        bool
	level      string
}

// configure resolves the effective configuration and relay target.
// Precedence, lowest to highest: defaults, environment, plan file, flags.
// Positional arguments beat the plan's source and destinations.
func configure(flags flagValues, args []string) (*config.Config, relay.Target, error) {
	var target relay.Target

	cfg, err := config.Load()
	if err != nil {
		return nil, target, err
	}

	planPath := flags.configPath
	if planPath == "" {
		planPath = os.Getenv("DUP_CONFIG")
	}

	var plan *config.Plan
	if planPath != "" {
		plan, err = config.LoadPlan(planPath)
		if err != nil {
			return nil, target, err
		}
		if err := plan.Apply(cfg); err != nil {
			return nil, target, err
		}
	}

	if flags.opsAddr != "" {
		cfg.Ops.Addr = flags.opsAddr
	}
	if flags.bufferSize > 0 {
		cfg.Relay.BufferSize = flags.bufferSize
	}
	if flags.interval > 0 {
		cfg.Relay.ReportInterval = flags.interval
	}
	if flags.timeout > 0 {
		cfg.Source.DialTimeout = flags.timeout
	}
	if flags.fanout != "" {
		cfg.Relay.FanoutMode = flags.fanout
	}
	if flags.dev {
		cfg.Logging.Development = true
		if flags.level == "" && cfg.Logging.Level == "info" {
			cfg.Logging.Level = "debug"
		}
	}
	if flags.level != "" {
		cfg.Logging.Level = flags.level
	}

	target, err = resolveTarget(args, plan)
	if err != nil {
		return nil, target, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, target, err
	}

	return cfg, target, nil
}

// resolveTarget picks the relay endpoints from positional arguments,
// falling back to the plan when no arguments are given.
func resolveTarget(args []string, plan *config.Plan) (relay.Target, error) {
	if len(args) == 0 {
		if plan == nil {
			return relay.Target{}, fmt.Errorf("source host, source port, and at least one destination port are required")
		}
		return relay.Target{
			SourceHost: plan.Source.Host,
			SourcePort: plan.Source.Port,
			DestPorts:  plan.Destinations,
		}, nil
	}

	if len(args) < 3 {
		return relay.Target{}, fmt.Errorf("need a source host, a source port, and at least one destination port")
	}

	sourcePort, err := parsePort(args[1])
	if err != nil {
		return relay.Target{}, fmt.Errorf("source port: %w", err)
	}

	destPorts := make([]int, 0, len(args)-2)
	for _, arg := range args[2:] {
		port, err := parsePort(arg)
		if err != nil {
			return relay.Target{}, fmt.Errorf("destination port: %w", err)
		}
		destPorts = append(destPorts, port)
	}

	return relay.Target{
		SourceHost: args[0],
		SourcePort: sourcePort,
		DestPorts:  destPorts,
	}, nil
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	if port <= 0 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range 1..65535", port)
	}
	return port, nil
}

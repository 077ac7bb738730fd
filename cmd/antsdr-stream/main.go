// Copyright 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command antsdr-stream runs the DMA-to-UDP data plane: it opens a DMA
// engine, wires the FPGA control lines and streams frames to the configured
// destination until interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/netip"
	"os"
	"os/signal"
	"syscall"
	"time"

	antsdr "github.com/ZaparooProject/go-antsdr"
	"github.com/ZaparooProject/go-antsdr/detection"
	"github.com/ZaparooProject/go-antsdr/engine/sim"
	"github.com/ZaparooProject/go-antsdr/engine/uart"
	"github.com/ZaparooProject/go-antsdr/gpio"
	"github.com/ZaparooProject/go-antsdr/internal/config"
	"github.com/ZaparooProject/go-antsdr/monitor"
	"github.com/ZaparooProject/go-antsdr/telemetry"
)

// Package-level flag variables
var (
	flagConfig     string
	flagEngine     string
	flagDevice     string
	flagDest       string
	flagFrameMode  string
	flagMonitor    string
	flagSessionLog string
	flagDebug      bool
	flagNoStart    bool
)

func init() {
	flag.StringVar(&flagConfig, "config", "", "YAML configuration file")
	flag.StringVar(&flagEngine, "engine", "", "DMA engine: chardev, uart or sim")
	flag.StringVar(&flagDevice, "device", "", "DMA device node or serial port, or \"auto\" to probe")
	flag.StringVar(&flagDest, "dest", "", "UDP destination ip:port")
	flag.StringVar(&flagFrameMode, "frame-mode", "", "Frame mode: short or long")
	flag.StringVar(&flagMonitor, "monitor", "", "Serve metrics and stats on this address")
	flag.StringVar(&flagSessionLog, "session-log", "", "Directory for a timestamped session log")
	flag.BoolVar(&flagDebug, "debug", false, "Enable debug output")
	flag.BoolVar(&flagNoStart, "no-start", false, "Do not start streaming on launch")
}

// parseConfig loads the config file, if any, and applies flag overrides.
func parseConfig() (config.Config, error) {
	cfg := config.Default()
	if flagConfig != "" {
		var err error
		if cfg, err = config.Load(flagConfig); err != nil {
			return config.Config{}, err
		}
	}

	if flagEngine != "" {
		cfg.Engine.Type = flagEngine
	}
	if flagDevice != "" {
		cfg.Engine.Device = flagDevice
	}
	if flagDest != "" {
		dest, err := netip.ParseAddrPort(flagDest)
		if err != nil {
			return config.Config{}, fmt.Errorf("-dest: %w", err)
		}
		cfg.Stream.Destination = dest
	}
	if flagFrameMode != "" {
		mode, err := antsdr.ParseFrameMode(flagFrameMode)
		if err != nil {
			return config.Config{}, fmt.Errorf("-frame-mode: %w", err)
		}
		cfg.Stream.FrameMode = mode
	}
	if flagMonitor != "" {
		cfg.Monitor.Enabled = true
		cfg.Monitor.Addr = flagMonitor
	}
	if flagSessionLog != "" {
		cfg.Log.SessionDir = flagSessionLog
	}
	if flagDebug {
		cfg.Log.Debug = true
	}
	if flagNoStart {
		cfg.Stream.Autostart = false
	}
	return cfg, cfg.Validate()
}

// resolveDevice replaces an "auto" device with the first detected one.
func resolveDevice(ctx context.Context, cfg *config.Config) error {
	if cfg.Engine.Device != config.AutoDevice {
		return nil
	}
	opts := detection.DefaultOptions()
	opts.Blocklist = cfg.Engine.Blocklist
	opts.IgnorePaths = cfg.Engine.IgnorePaths
	dev, err := detection.First(ctx, cfg.Engine.Type, &opts)
	if err != nil {
		return fmt.Errorf("failed to detect %s device: %w", cfg.Engine.Type, err)
	}
	antsdr.Logger().Info().Stringer("device", dev).Msg("detected")
	cfg.Engine.Device = dev.Path
	return nil
}

// openEngine creates the configured DMA engine.
func openEngine(ctx context.Context, cfg *config.Config) (antsdr.Engine, error) {
	if cfg.Engine.Type != config.EngineSim {
		if err := resolveDevice(ctx, cfg); err != nil {
			return nil, err
		}
	}
	switch cfg.Engine.Type {
	case config.EngineSim:
		s := cfg.Engine.Sim
		return sim.New(sim.Config{
			Interval:     s.Interval,
			Jitter:       s.Jitter,
			GapEvery:     s.GapEvery,
			GapSize:      s.GapSize,
			SplitEvery:   s.SplitEvery,
			FaultEvery:   s.FaultEvery,
			FirstCounter: 1,
		}), nil
	case config.EngineUART:
		uc := uart.DefaultConfig(cfg.Engine.Device)
		if cfg.Engine.Baud > 0 {
			uc.BaudRate = cfg.Engine.Baud
		}
		e, err := uart.Open(ctx, uc)
		if err != nil {
			return nil, fmt.Errorf("failed to open serial bridge: %w", err)
		}
		return e, nil
	case config.EngineCharDev:
		return openCharDev(ctx, cfg.Engine.Device)
	default:
		return nil, fmt.Errorf("unsupported engine type: %s", cfg.Engine.Type)
	}
}

func openSignals(cfg *config.Config) (antsdr.Signals, error) {
	p := cfg.GPIO
	if p.Enable == "" && p.FrameMode == "" && p.OperationMode == "" && p.TDD == "" {
		return antsdr.Signals{}, nil
	}
	if err := gpio.Init(); err != nil {
		return antsdr.Signals{}, err
	}
	return gpio.OpenSignals(p)
}

func run(ctx context.Context, cfg *config.Config) error {
	engine, err := openEngine(ctx, cfg)
	if err != nil {
		return err
	}
	signals, err := openSignals(cfg)
	if err != nil {
		_ = engine.Close()
		return err
	}

	p, err := antsdr.New(engine, antsdr.WithConfig(cfg.Pipeline()), antsdr.WithSignals(signals))
	if err != nil {
		_ = engine.Close()
		return err
	}
	defer func() {
		if err := p.Close(); err != nil {
			antsdr.Logger().Error().Err(err).Msg("shutdown")
		}
	}()

	if err := p.SetTDDMode(cfg.Stream.TDD); err != nil {
		return err
	}

	if cfg.Monitor.Enabled {
		srv := monitor.NewServer(p, cfg.Monitor.Config)
		go func() {
			if err := srv.Serve(ctx); err != nil {
				antsdr.Logger().Error().Err(err).Msg("monitor stopped")
			}
		}()
	}
	if cfg.Telemetry.Enabled {
		pub, err := telemetry.Connect(p, cfg.Telemetry.Config)
		if err != nil {
			return err
		}
		defer pub.Close()
		go pub.Run(ctx)
	}

	if cfg.Stream.Autostart {
		if err := p.Start(ctx); err != nil {
			return err
		}
	}

	reset := make(chan os.Signal, 1)
	if len(resetSignals) > 0 {
		signal.Notify(reset, resetSignals...)
		defer signal.Stop(reset)
	}

	var tick <-chan time.Time
	if cfg.StatusInterval > 0 {
		ticker := time.NewTicker(cfg.StatusInterval)
		defer ticker.Stop()
		tick = ticker.C
	}
	status := newStatusReporter(p.Stats())
	for {
		select {
		case <-ctx.Done():
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := p.Stop(stopCtx); err != nil {
				return err
			}
			status.log(p.Stats())
			return ctx.Err()
		case <-reset:
			status.log(p.Stats())
			p.ResetStats()
			status = newStatusReporter(p.Stats())
			antsdr.Logger().Info().Msg("statistics reset")
		case <-tick:
			status.log(p.Stats())
		}
	}
}

func main() {
	flag.Parse()
	os.Exit(mainWithExitCode())
}

func mainWithExitCode() int {
	cfg, err := parseConfig()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	if cfg.Log.Debug {
		antsdr.SetDebugEnabled(true)
	}
	if cfg.Log.SessionDir != "" {
		path, err := antsdr.InitSessionLog(cfg.Log.SessionDir)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		defer func() { _ = antsdr.CloseSessionLog() }()
		antsdr.Logger().Info().Str("path", path).Msg("session log opened")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, &cfg); err != nil {
		if errors.Is(err, context.Canceled) {
			return 0
		}
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

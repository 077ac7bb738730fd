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

// Package config loads the stream daemon's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	antsdr "github.com/ZaparooProject/go-antsdr"
	"github.com/ZaparooProject/go-antsdr/gpio"
	"github.com/ZaparooProject/go-antsdr/monitor"
	"github.com/ZaparooProject/go-antsdr/telemetry"
)

// DefaultDevice is the DMA character device node.
const DefaultDevice = "/dev/antsdr_dma"

// AutoDevice asks the daemon to probe for the engine's device.
const AutoDevice = "auto"

// Engine types accepted in engine.type.
const (
	EngineCharDev = string(antsdr.EngineCharDev)
	EngineUART    = string(antsdr.EngineUART)
	EngineSim     = string(antsdr.EngineSim)
)

// Config is the daemon configuration file.
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Engine    EngineConfig    `yaml:"engine"`
	Stream    StreamConfig    `yaml:"stream"`
	GPIO      gpio.Pins       `yaml:"gpio"`
	Monitor   MonitorConfig   `yaml:"monitor"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	// StatusInterval is the period of the status log line; zero disables it.
	StatusInterval time.Duration `yaml:"status_interval"`
}

// LogConfig controls debug output and the session log.
type LogConfig struct {
	Debug      bool   `yaml:"debug"`
	SessionDir string `yaml:"session_dir"`
}

// EngineConfig selects the DMA engine.
type EngineConfig struct {
	Type   string    `yaml:"type"`
	Device string    `yaml:"device"`
	Baud   int       `yaml:"baud"`
	Sim    SimConfig `yaml:"sim"`
	// Detection filters used when Device is "auto".
	Blocklist   []string `yaml:"blocklist"`
	IgnorePaths []string `yaml:"ignore_paths"`
}

// SimConfig tunes the simulated engine.
type SimConfig struct {
	Interval   time.Duration `yaml:"interval"`
	Jitter     time.Duration `yaml:"jitter"`
	GapEvery   int           `yaml:"gap_every"`
	GapSize    uint32        `yaml:"gap_size"`
	SplitEvery int           `yaml:"split_every"`
	FaultEvery int           `yaml:"fault_every"`
}

// StreamConfig holds the pipeline settings exposed in the file.
type StreamConfig struct {
	Destination   netip.AddrPort       `yaml:"destination"`
	FrameMode     antsdr.FrameMode     `yaml:"frame_mode"`
	OperationMode antsdr.OperationMode `yaml:"operation_mode"`
	Buffers       int                  `yaml:"buffers"`
	RingSlots     int                  `yaml:"ring_slots"`
	TOS           int                  `yaml:"tos"`
	StopTimeout   time.Duration        `yaml:"stop_timeout"`
	TDD           bool                 `yaml:"tdd"`
	LockMemory    bool                 `yaml:"lock_memory"`
	Autostart     bool                 `yaml:"autostart"`
}

// MonitorConfig enables the HTTP monitor.
type MonitorConfig struct {
	monitor.Config `yaml:",inline"`
	Enabled        bool `yaml:"enabled"`
}

// TelemetryConfig enables MQTT telemetry.
type TelemetryConfig struct {
	telemetry.Config `yaml:",inline"`
	Enabled          bool `yaml:"enabled"`
}

// Default returns the configuration used for keys the file leaves out.
func Default() Config {
	pipeline := antsdr.DefaultConfig()
	return Config{
		Engine: EngineConfig{
			Type:   EngineCharDev,
			Device: DefaultDevice,
			Baud:   3_000_000,
			Sim:    SimConfig{Interval: time.Millisecond},
		},
		Stream: StreamConfig{
			Destination:   pipeline.Destination,
			FrameMode:     pipeline.FrameMode,
			OperationMode: pipeline.OperationMode,
			Buffers:       pipeline.BufferCount,
			RingSlots:     pipeline.RingSlots,
			StopTimeout:   pipeline.Timing.StopTimeout,
			LockMemory:    true,
			Autostart:     true,
		},
		Monitor:        MonitorConfig{Config: monitor.DefaultConfig()},
		Telemetry:      TelemetryConfig{Config: telemetry.DefaultConfig()},
		StatusInterval: 10 * time.Second,
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

// Validate checks the values the pipeline cannot.
func (c *Config) Validate() error {
	var errs []error
	switch c.Engine.Type {
	case EngineCharDev, EngineUART:
		if c.Engine.Device == "" {
			errs = append(errs, fmt.Errorf("engine.device is required for %s", c.Engine.Type))
		}
	case EngineSim:
	default:
		errs = append(errs, fmt.Errorf("engine.type %q is not one of chardev, uart, sim", c.Engine.Type))
	}
	if c.Monitor.Enabled && c.Monitor.Addr == "" {
		errs = append(errs, errors.New("monitor.addr is required when the monitor is enabled"))
	}
	if c.Telemetry.Enabled && c.Telemetry.Broker == "" {
		errs = append(errs, errors.New("telemetry.broker is required when telemetry is enabled"))
	}
	if c.StatusInterval < 0 {
		errs = append(errs, errors.New("status_interval must not be negative"))
	}
	pc := c.Pipeline()
	if err := pc.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Pipeline converts the stream section into a pipeline config.
func (c *Config) Pipeline() *antsdr.Config {
	pc := antsdr.DefaultConfig()
	pc.Destination = c.Stream.Destination
	pc.FrameMode = c.Stream.FrameMode
	pc.OperationMode = c.Stream.OperationMode
	pc.BufferCount = c.Stream.Buffers
	pc.RingSlots = c.Stream.RingSlots
	pc.TOS = c.Stream.TOS
	pc.LockMemory = c.Stream.LockMemory
	if c.Stream.StopTimeout > 0 {
		pc.Timing.StopTimeout = c.Stream.StopTimeout
	}
	return pc
}

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

// Package detection finds DMA engines attached to the host: S2MM character
// devices and USB serial bridges.
package detection

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"
)

// DeviceInfo represents a detected DMA engine
type DeviceInfo struct {
	// Additional metadata (e.g., vidpid and serial for USB bridges)
	Metadata map[string]string
	// Engine type: "chardev" or "uart"
	Engine string
	// Connection path (e.g., "/dev/antsdr_dma", "/dev/ttyUSB0")
	Path string
	// Human-readable device name
	Name string
}

// String returns a human-readable representation of the device
func (d DeviceInfo) String() string {
	if d.Name != "" && d.Name != d.Path {
		return fmt.Sprintf("%s device at %s (%s)", d.Engine, d.Path, d.Name)
	}
	return fmt.Sprintf("%s device at %s", d.Engine, d.Path)
}

// Options configures the detection behavior
type Options struct {
	// USB VID:PID pairs to skip (e.g., ["1234:5678"])
	Blocklist []string
	// USB VID:PID pairs to accept; empty accepts every USB serial port
	Allowlist []string
	// Device paths to explicitly ignore (e.g., ["/dev/ttyUSB0"])
	IgnorePaths []string
	// Which engines to check (empty = all)
	Engines []string
	// Maximum time to wait for detection
	Timeout time.Duration
}

// DefaultOptions returns sensible default detection options
func DefaultOptions() Options {
	return Options{
		Timeout:   5 * time.Second,
		Allowlist: DefaultBridges(),
	}
}

// Detector interface for engine-specific device detection
type Detector interface {
	// Detect searches for devices using the given options
	Detect(ctx context.Context, opts *Options) ([]DeviceInfo, error)
	// Engine returns the engine type this detector handles
	Engine() string
}

// Errors
var (
	// ErrNoDevicesFound indicates no DMA engines were detected
	ErrNoDevicesFound = errors.New("no DMA devices found")
	// ErrDetectionTimeout indicates detection timed out
	ErrDetectionTimeout = errors.New("detection timeout")
)

// registry holds all registered detectors
var registry = []Detector{
	&charDevDetector{pattern: "/dev/antsdr_dma*"},
	&uartDetector{list: listSerialPorts},
}

// getDetectors returns detectors filtered by engine types
func getDetectors(detectors []Detector, engines []string) []Detector {
	if len(engines) == 0 {
		return detectors
	}
	var filtered []Detector
	for _, d := range detectors {
		if slices.Contains(engines, d.Engine()) {
			filtered = append(filtered, d)
		}
	}
	return filtered
}

type detectionResult struct {
	err     error
	devices []DeviceInfo
}

// DetectAll searches for DMA engines with every registered detector.
func DetectAll(ctx context.Context, opts *Options) ([]DeviceInfo, error) {
	return detectWith(ctx, registry, opts)
}

// First returns the first device found for engine.
func First(ctx context.Context, engine string, opts *Options) (DeviceInfo, error) {
	o := *opts
	o.Engines = []string{engine}
	devices, err := DetectAll(ctx, &o)
	if err != nil {
		return DeviceInfo{}, err
	}
	return devices[0], nil
}

func detectWith(ctx context.Context, detectors []Detector, opts *Options) ([]DeviceInfo, error) {
	detectors = getDetectors(detectors, opts.Engines)
	if len(detectors) == 0 {
		return nil, errors.New("no detectors available for specified engines")
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	results := make(chan detectionResult, len(detectors))
	for _, detector := range detectors {
		go func(d Detector) {
			devices, err := d.Detect(ctx, opts)
			if errors.Is(err, ErrNoDevicesFound) {
				err = nil
			}
			results <- detectionResult{devices: filterDevices(devices, opts), err: err}
		}(detector)
	}
	return collectDetectionResults(ctx, results, len(detectors))
}

// collectDetectionResults gathers results from all detector goroutines
func collectDetectionResults(
	ctx context.Context,
	results chan detectionResult,
	numDetectors int,
) ([]DeviceInfo, error) {
	var allDevices []DeviceInfo
	var errs []error

	for range numDetectors {
		select {
		case res := <-results:
			if res.err != nil {
				errs = append(errs, res.err)
			} else {
				allDevices = append(allDevices, res.devices...)
			}
		case <-ctx.Done():
			return nil, ErrDetectionTimeout
		}
	}

	// Return devices even if some detectors failed
	if len(allDevices) > 0 {
		slices.SortStableFunc(allDevices, func(a, b DeviceInfo) int {
			if a.Engine != b.Engine {
				if a.Engine < b.Engine {
					return -1
				}
				return 1
			}
			if a.Path < b.Path {
				return -1
			}
			if a.Path > b.Path {
				return 1
			}
			return 0
		})
		return allDevices, nil
	}
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return nil, ErrNoDevicesFound
}

// filterDevices applies IgnorePaths, Blocklist and Allowlist.
func filterDevices(devices []DeviceInfo, opts *Options) []DeviceInfo {
	var filtered []DeviceInfo
	for _, device := range devices {
		if IsPathIgnored(device.Path, opts.IgnorePaths) {
			continue
		}
		if vidpid, ok := device.Metadata["vidpid"]; ok {
			if IsBlocked(vidpid, opts.Blocklist) {
				continue
			}
			if len(opts.Allowlist) > 0 && !IsBlocked(vidpid, opts.Allowlist) {
				continue
			}
		}
		filtered = append(filtered, device)
	}
	return filtered
}

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

// Package gpio binds the FPGA control lines to host GPIO pins through
// periph.io.
package gpio

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	antsdr "github.com/ZaparooProject/go-antsdr"
)

var (
	initOnce sync.Once
	errInit  error
)

// Init loads the periph host drivers once.
func Init() error {
	initOnce.Do(func() {
		_, errInit = host.Init()
	})
	if errInit != nil {
		return fmt.Errorf("gpio: host init: %w", errInit)
	}
	return nil
}

// Line is one output pin. ActiveLow inverts the electrical level.
type Line struct {
	pin       gpio.PinIO
	activeLow bool
}

// Open looks pin up by name (e.g. "GPIO54") and drives it to the
// de-asserted level.
func Open(name string, activeLow bool) (*Line, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("%w: gpio pin %q", antsdr.ErrDeviceNotFound, name)
	}
	l := &Line{pin: pin, activeLow: activeLow}
	if err := l.Set(false); err != nil {
		return nil, err
	}
	return l, nil
}

// Set implements antsdr.SignalLine
func (l *Line) Set(high bool) error {
	level := gpio.Level(high != l.activeLow)
	if err := l.pin.Out(level); err != nil {
		return fmt.Errorf("gpio %s: %w", l.pin.Name(), err)
	}
	return nil
}

// Get implements antsdr.SignalReader
func (l *Line) Get() (bool, error) {
	return bool(l.pin.Read()) != l.activeLow, nil
}

// Name returns the pin name.
func (l *Line) Name() string { return l.pin.Name() }

// Pins names the host pins wired to each FPGA line. Empty names are left
// unwired.
type Pins struct {
	Enable        string `yaml:"enable"`
	FrameMode     string `yaml:"frame_mode"`
	OperationMode string `yaml:"operation_mode"`
	TDD           string `yaml:"tdd"`
	ActiveLow     bool   `yaml:"active_low"`
}

// OpenSignals opens every named pin and returns them as pipeline signals.
func OpenSignals(pins Pins) (antsdr.Signals, error) {
	var s antsdr.Signals
	for _, b := range []struct {
		dst  *antsdr.SignalLine
		name string
	}{
		{&s.Enable, pins.Enable},
		{&s.FrameMode, pins.FrameMode},
		{&s.OperationMode, pins.OperationMode},
		{&s.TDD, pins.TDD},
	} {
		if b.name == "" {
			continue
		}
		l, err := Open(b.name, pins.ActiveLow)
		if err != nil {
			return antsdr.Signals{}, err
		}
		*b.dst = l
	}
	return s, nil
}

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

package main

import (
	"context"
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	antsdr "github.com/ZaparooProject/go-antsdr"
	"github.com/ZaparooProject/go-antsdr/internal/config"
	"github.com/ZaparooProject/go-antsdr/pkg/wire"
)

func TestOpenEngine(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.Engine.Type = config.EngineSim
	e, err := openEngine(context.Background(), &cfg)
	require.NoError(t, err)
	assert.Equal(t, antsdr.EngineSim, e.Type())
	require.NoError(t, e.Close())

	cfg.Engine.Type = "pcie"
	_, err = openEngine(context.Background(), &cfg)
	require.Error(t, err)
}

func TestResolveDevice(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.Engine.Device = "/dev/ttyUSB3"
	require.NoError(t, resolveDevice(context.Background(), &cfg))
	assert.Equal(t, "/dev/ttyUSB3", cfg.Engine.Device)

	cfg.Engine.Type = "pcie"
	cfg.Engine.Device = config.AutoDevice
	err := resolveDevice(context.Background(), &cfg)
	require.Error(t, err)
	assert.Equal(t, config.AutoDevice, cfg.Engine.Device)
}

func TestOpenSignals_NoPins(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	s, err := openSignals(&cfg)
	require.NoError(t, err)
	assert.Nil(t, s.Enable)
}

func TestStatusReporter_Rates(t *testing.T) {
	t.Parallel()
	start := time.Now()
	r := &statusReporter{at: start, last: antsdr.Stats{BytesTransferred: 1000, ValidFrames: 10}}
	rt := r.advance(antsdr.Stats{BytesTransferred: 3000, ValidFrames: 30}, start.Add(2*time.Second))
	assert.InDelta(t, 1000, rt.bytesPerSec, 0.001)
	assert.InDelta(t, 10, rt.framesPerSec, 0.001)

	rt = r.advance(antsdr.Stats{}, start.Add(3*time.Second))
	assert.Zero(t, rt.bytesPerSec, "counters reset by ResetStats do not go negative")
}

func TestRun_SimulatedStream(t *testing.T) {
	t.Parallel()
	listener, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	cfg := config.Default()
	cfg.Engine.Type = config.EngineSim
	cfg.Engine.Sim.Interval = time.Millisecond
	cfg.Stream.Destination = listener.LocalAddr().(*net.UDPAddr).AddrPort()
	cfg.Stream.LockMemory = false
	cfg.StatusInterval = 20 * time.Millisecond
	require.NoError(t, cfg.Validate())

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- run(ctx, &cfg) }()

	require.NoError(t, listener.SetReadDeadline(time.Now().Add(5*time.Second)))
	r := wire.NewReassembler(0)
	buf := make([]byte, wire.MaxPacketSize)
	for frames := 0; frames < 5; {
		n, _, err := listener.ReadFromUDPAddrPort(buf)
		require.NoError(t, err)
		f, err := r.Add(buf[:n])
		require.NoError(t, err)
		if f != nil {
			assert.Len(t, f.Payload, 1600)
			frames++
		}
	}

	cancel()
	select {
	case err := <-errc:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return")
	}
}

func TestParseConfig_FlagOverrides(t *testing.T) {
	// mutates package-level flag variables
	flagEngine = config.EngineSim
	flagDest = "10.9.8.7:4000"
	flagFrameMode = "short"
	flagNoStart = true
	t.Cleanup(func() {
		flagEngine, flagDest, flagFrameMode, flagNoStart = "", "", "", false
	})

	cfg, err := parseConfig()
	require.NoError(t, err)
	assert.Equal(t, config.EngineSim, cfg.Engine.Type)
	assert.Equal(t, netip.MustParseAddrPort("10.9.8.7:4000"), cfg.Stream.Destination)
	assert.Equal(t, antsdr.FrameModeShort, cfg.Stream.FrameMode)
	assert.False(t, cfg.Stream.Autostart)

	flagDest = "nowhere"
	_, err = parseConfig()
	require.Error(t, err)
}

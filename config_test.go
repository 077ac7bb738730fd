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

package antsdr

import (
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()
	config := DefaultConfig()
	require.NoError(t, config.Validate())

	assert.Equal(t, 16, config.BufferCount)
	assert.Equal(t, 256, config.RingSlots)
	assert.Equal(t, 1600, config.SlotSize)
	assert.Equal(t, 256, config.RawQueueDepth)
	assert.Equal(t, 50, config.ExtractBatch)
	assert.Equal(t, 200, config.SendBatch)
	assert.Equal(t, 1360, config.FragmentSize)
	assert.Equal(t, 64*1024, config.AccumulatorSize)
	assert.Equal(t, FrameModeLong, config.FrameMode)
	assert.Equal(t, "192.168.1.125:12288", config.Destination.String())
	assert.Equal(t, time.Second, config.Timing.StopTimeout)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		wantErr error
		mutate  func(c *Config)
		name    string
	}{
		{name: "no buffers", mutate: func(c *Config) { c.BufferCount = 0 }, wantErr: ErrInvalidConfig},
		{name: "small slots", mutate: func(c *Config) { c.SlotSize = 200 }, wantErr: ErrInvalidConfig},
		{name: "no queue", mutate: func(c *Config) { c.RawQueueDepth = 0 }, wantErr: ErrInvalidConfig},
		{name: "tiny accumulator", mutate: func(c *Config) { c.AccumulatorSize = 100 }, wantErr: ErrInvalidConfig},
		{name: "zero batch", mutate: func(c *Config) { c.SendBatch = 0 }, wantErr: ErrInvalidConfig},
		{name: "huge fragment", mutate: func(c *Config) { c.FragmentSize = 9000 }, wantErr: ErrInvalidConfig},
		{name: "bad tos", mutate: func(c *Config) { c.TOS = 256 }, wantErr: ErrInvalidConfig},
		{name: "no stop timeout", mutate: func(c *Config) { c.Timing.StopTimeout = 0 }, wantErr: ErrInvalidConfig},
		{name: "frame mode", mutate: func(c *Config) { c.FrameMode = 7 }, wantErr: ErrInvalidFrameMode},
		{name: "operation mode", mutate: func(c *Config) { c.OperationMode = 2 }, wantErr: ErrInvalidOperationMode},
		{
			name:    "ipv6 destination",
			mutate:  func(c *Config) { c.Destination = netip.MustParseAddrPort("[::1]:9000") },
			wantErr: ErrInvalidDestination,
		},
		{name: "unset destination ok", mutate: func(c *Config) { c.Destination = netip.AddrPort{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

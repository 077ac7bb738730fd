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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameMode(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		mode     FrameMode
		words    int
		transfer int
		payload  int
	}{
		{name: "short", mode: FrameModeShort, words: 53, transfer: 212, payload: 200},
		{name: "long", mode: FrameModeLong, words: 403, transfer: 1612, payload: 1600},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.True(t, tt.mode.Valid())
			assert.Equal(t, tt.words, tt.mode.Words())
			assert.Equal(t, tt.transfer, tt.mode.TransferSize())
			assert.Equal(t, tt.payload, tt.mode.PayloadSize())
			assert.Equal(t, tt.name, tt.mode.String())
		})
	}
	assert.False(t, FrameMode(2).Valid())
}

func TestParseFrameMode(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    FrameMode
		wantErr bool
	}{
		{in: "short", want: FrameModeShort},
		{in: " LONG ", want: FrameModeLong},
		{in: "0", want: FrameModeShort},
		{in: "1", want: FrameModeLong},
		{in: "2", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseFrameMode(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidFrameMode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFrameMode_Text(t *testing.T) {
	t.Parallel()
	var m FrameMode
	require.NoError(t, m.UnmarshalText([]byte("long")))
	assert.Equal(t, FrameModeLong, m)
	text, err := m.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "long", string(text))

	_, err = FrameMode(9).MarshalText()
	require.ErrorIs(t, err, ErrInvalidFrameMode)
}

func TestStateAndOperationModeStrings(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "standby", StateStandby.String())
	assert.Equal(t, "streaming", StateStreaming.String())
	assert.Equal(t, "stopping", StateStopping.String())
	assert.Equal(t, "resetting", StateResetting.String())
	assert.True(t, OperationModeSimulation.Valid())
	assert.False(t, OperationMode(2).Valid())
}

func TestState_Text(t *testing.T) {
	t.Parallel()
	var s State
	require.NoError(t, s.UnmarshalText([]byte("resetting")))
	assert.Equal(t, StateResetting, s)
	require.Error(t, s.UnmarshalText([]byte("idle")))
}

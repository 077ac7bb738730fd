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
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) *RetryConfig {
	return &RetryConfig{
		MaxAttempts:       attempts,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        2 * time.Millisecond,
		BackoffMultiplier: 2,
		RetryTimeout:      time.Second,
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	t.Parallel()
	config := DefaultRetryConfig()
	assert.Positive(t, config.MaxAttempts)
	assert.Greater(t, config.MaxBackoff, config.InitialBackoff)
	assert.Greater(t, config.BackoffMultiplier, 1.0)
	assert.Greater(t, config.RetryTimeout, time.Duration(0))
}

func TestNextBackoff(t *testing.T) {
	t.Parallel()
	config := &RetryConfig{BackoffMultiplier: 2, MaxBackoff: 300 * time.Millisecond}
	assert.Equal(t, 200*time.Millisecond, nextBackoff(100*time.Millisecond, config))
	assert.Equal(t, 300*time.Millisecond, nextBackoff(200*time.Millisecond, config))
}

func TestJittered(t *testing.T) {
	t.Parallel()
	base := 100 * time.Millisecond
	assert.Equal(t, base, jittered(base, 0))
	for range 50 {
		got := jittered(base, 0.5)
		assert.GreaterOrEqual(t, got, base)
		assert.LessOrEqual(t, got, base+base/2)
	}
}

func TestRetryWithConfig(t *testing.T) {
	t.Parallel()

	busy := NewEngineError("open", "/dev/antsdr0", syscall.EBUSY, ErrorTypeTransient)
	tests := []struct {
		wantErr   error
		results   []error
		name      string
		attempts  int
		wantCalls int
	}{
		{name: "first try", attempts: 3, results: []error{nil}, wantCalls: 1},
		{name: "busy then ok", attempts: 3, results: []error{busy, busy, nil}, wantCalls: 3},
		{name: "gives up", attempts: 2, results: []error{busy, busy, nil}, wantCalls: 2, wantErr: syscall.EBUSY},
		{name: "permanent stops", attempts: 5, results: []error{ErrDeviceNotFound}, wantCalls: 1, wantErr: ErrDeviceNotFound},
		{name: "no retry configured", attempts: 0, results: []error{busy}, wantCalls: 1, wantErr: syscall.EBUSY},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			calls := 0
			err := RetryWithConfig(context.Background(), fastRetry(tt.attempts), func() error {
				err := tt.results[min(calls, len(tt.results)-1)]
				calls++
				return err
			})
			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestRetryWithConfig_ContextCancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RetryWithConfig(ctx, fastRetry(3), func() error { return nil })
	require.ErrorIs(t, err, context.Canceled)
}

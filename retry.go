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
	"fmt"
	"math/rand/v2"
	"time"
)

// RetryConfig configures how engine opens and restarts are retried.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (0 = single attempt)
	MaxAttempts int
	// InitialBackoff is the delay before the second attempt
	InitialBackoff time.Duration
	// MaxBackoff caps the delay between attempts
	MaxBackoff time.Duration
	// BackoffMultiplier is the factor by which the backoff increases
	BackoffMultiplier float64
	// Jitter adds up to this fraction of the backoff at random
	Jitter float64
	// RetryTimeout bounds all attempts together
	RetryTimeout time.Duration
}

// DefaultRetryConfig returns the retry policy used when opening DMA engines.
// A busy device node is usually held by a previous process that is exiting.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:       5,
		InitialBackoff:    50 * time.Millisecond,
		MaxBackoff:        2 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            0.1,
		RetryTimeout:      10 * time.Second,
	}
}

// RetryableFunc is a function that can be retried
type RetryableFunc func() error

// RetryWithConfig runs retryFunc until it succeeds, returns an error that is
// not IsRetryable, or the attempts or timeout run out.
func RetryWithConfig(ctx context.Context, config *RetryConfig, retryFunc RetryableFunc) error {
	if config == nil {
		config = DefaultRetryConfig()
	}
	if config.MaxAttempts <= 0 {
		return retryFunc()
	}

	if config.RetryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.RetryTimeout)
		defer cancel()
	}

	var lastErr error
	backoff := config.InitialBackoff
	for attempt := range config.MaxAttempts {
		if ctx.Err() != nil {
			if lastErr != nil {
				return lastErr
			}
			return fmt.Errorf("retry context cancelled: %w", ctx.Err())
		}

		err := retryFunc()
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		lastErr = err
		Debugf("retry: attempt %d/%d failed: %v", attempt+1, config.MaxAttempts, err)

		if attempt == config.MaxAttempts-1 {
			break
		}
		if !sleepContext(ctx, jittered(backoff, config.Jitter)) {
			return lastErr
		}
		backoff = nextBackoff(backoff, config)
	}
	return lastErr
}

// sleepContext waits for d or until ctx is done, reporting whether the full
// duration elapsed.
func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func nextBackoff(backoff time.Duration, config *RetryConfig) time.Duration {
	next := time.Duration(float64(backoff) * config.BackoffMultiplier)
	if next > config.MaxBackoff {
		return config.MaxBackoff
	}
	return next
}

func jittered(base time.Duration, factor float64) time.Duration {
	if factor <= 0 || base <= 0 {
		return base
	}
	return base + time.Duration(rand.Float64()*factor*float64(base))
}

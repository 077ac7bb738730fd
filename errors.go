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
	"errors"
	"fmt"
	"io"
	"syscall"
)

// Error categories for control-surface results and retry logic
var (
	// Control errors - returned to the caller, not retryable
	ErrAlreadyStreaming     = errors.New("already streaming")
	ErrNotStreaming         = errors.New("not streaming")
	ErrInvalidFrameMode     = errors.New("invalid frame mode")
	ErrInvalidOperationMode = errors.New("invalid operation mode")
	ErrInvalidDestination   = errors.New("invalid destination")
	ErrInvalidConfig        = errors.New("invalid configuration")
	ErrPipelineClosed       = errors.New("pipeline is closed")

	// Engine errors - submission faults end the session, busy is retryable
	ErrSubmitFailed   = errors.New("transfer submission failed")
	ErrTransferFailed = errors.New("transfer failed")
	ErrEngineClosed   = errors.New("engine is closed")
	ErrEngineBusy     = errors.New("engine busy")
	ErrDeviceNotFound = errors.New("device not found")

	// Signal line errors
	ErrSignalFailed = errors.New("signal line write failed")

	// Stop did not observe the drained event in time; stop proceeds anyway
	ErrStopTimeout = errors.New("timed out waiting for in-flight transfer")

	// Local read path
	ErrNoPayload = errors.New("no payload available")
)

// ErrorType represents the category of error for retry logic
type ErrorType int

const (
	// ErrorTypeTransient indicates a potentially retryable error
	ErrorTypeTransient ErrorType = iota
	// ErrorTypePermanent indicates a non-retryable error
	ErrorTypePermanent
	// ErrorTypeTimeout indicates a timeout error
	ErrorTypeTimeout
)

// EngineError wraps DMA engine errors with the operation and device involved.
type EngineError struct {
	Err       error     // Underlying error
	Op        string    // Operation that failed
	Device    string    // Device path or engine name
	Type      ErrorType // Error category
	Retryable bool      // Whether the error is retryable
}

func (e *EngineError) Error() string {
	if e.Device != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Device, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// NewEngineError creates an engine error with consistent formatting
func NewEngineError(op, device string, err error, errType ErrorType) *EngineError {
	return &EngineError{
		Op:        op,
		Device:    device,
		Err:       err,
		Type:      errType,
		Retryable: errType == ErrorTypeTransient || errType == ErrorTypeTimeout,
	}
}

// PipelineError records which control operation failed.
type PipelineError struct {
	Err error
	Op  string
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("antsdr %s: %v", e.Op, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is potentially retryable
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Retryable
	}

	switch {
	case errors.Is(err, ErrEngineBusy),
		errors.Is(err, syscall.EBUSY),
		errors.Is(err, syscall.EAGAIN),
		errors.Is(err, syscall.EINTR):
		return true
	default:
		return false
	}
}

// IsFatal returns true if the error means the engine is gone and the stream
// cannot continue without reopening it.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrEngineClosed),
		errors.Is(err, ErrDeviceNotFound),
		errors.Is(err, io.EOF),
		errors.Is(err, syscall.ENODEV),
		errors.Is(err, syscall.ENXIO),
		errors.Is(err, syscall.ENOENT):
		return true
	default:
		return false
	}
}

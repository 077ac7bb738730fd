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
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/ZaparooProject/go-antsdr/internal/syncutil"
)

// debugEnabled controls whether debug lines reach the console. The session
// log, when open, always receives them.
var debugEnabled atomic.Bool

var (
	logMu         syncutil.Mutex
	consoleOutput io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"}
	logger        atomic.Pointer[zerolog.Logger]
)

func init() {
	if os.Getenv("ANTSDR_DEBUG") != "" || os.Getenv("DEBUG") != "" {
		debugEnabled.Store(true)
	}
	rebuildLogger()
}

// consoleGate drops debug and trace lines unless debug output is enabled.
type consoleGate struct {
	w io.Writer
}

func (g consoleGate) Write(p []byte) (int, error) {
	return g.w.Write(p)
}

func (g consoleGate) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level <= zerolog.DebugLevel && !debugEnabled.Load() {
		return len(p), nil
	}
	return g.w.Write(p)
}

// rebuildLogger must be called with logMu held or from init. Debug events
// are only built when some sink wants them.
func rebuildLogger() {
	var w io.Writer = consoleGate{w: consoleOutput}
	if sessionLogFile != nil {
		w = zerolog.MultiLevelWriter(consoleGate{w: consoleOutput}, sessionLogFile)
	}
	level := zerolog.InfoLevel
	if debugEnabled.Load() || sessionLogFile != nil {
		level = zerolog.DebugLevel
	}
	l := zerolog.New(w).Level(level).With().Timestamp().Logger()
	logger.Store(&l)
}

// Logger returns the package logger. Components derive child loggers from it
// with a component field.
func Logger() *zerolog.Logger {
	return logger.Load()
}

// SetLogOutput replaces the console destination. Pass io.Discard to silence
// the console, or os.Stdout wrapped in a zerolog.ConsoleWriter for humans.
func SetLogOutput(w io.Writer) {
	logMu.Lock()
	defer logMu.Unlock()
	if w == nil {
		w = io.Discard
	}
	consoleOutput = w
	rebuildLogger()
}

// Debugf logs a debug line.
// Always written to the session log (if initialized). Only printed to the
// console when debug mode is enabled.
func Debugf(format string, args ...any) {
	Logger().Debug().Msgf(format, args...)
}

// Debugln logs a debug line built like fmt.Sprint.
func Debugln(args ...any) {
	Logger().Debug().Msg(fmt.Sprint(args...))
}

// SetDebugEnabled allows programmatic control of console debug output
func SetDebugEnabled(enabled bool) {
	logMu.Lock()
	defer logMu.Unlock()
	debugEnabled.Store(enabled)
	rebuildLogger()
}

// DebugEnabled reports whether console debug output is on.
func DebugEnabled() bool {
	return debugEnabled.Load()
}

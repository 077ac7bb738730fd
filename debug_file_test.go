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
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLog(t *testing.T) {
	captureConsole(t)
	SetDebugEnabled(false)

	dir := t.TempDir()
	path, err := InitSessionLog(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseSessionLog() })

	assert.Equal(t, path, GetSessionLogPath())
	assert.Regexp(t, regexp.MustCompile(`antsdr_\d{8}_\d{6}\.log$`), filepath.Base(path))

	again, err := InitSessionLog(dir)
	require.NoError(t, err)
	assert.Equal(t, path, again)

	Debugf("frame %d extracted", 7)
	require.NoError(t, CloseSessionLog())
	assert.Empty(t, GetSessionLogPath())

	content, err := os.ReadFile(path) //nolint:gosec // path is from InitSessionLog
	require.NoError(t, err)
	s := string(content)
	assert.Contains(t, s, "=== ANTSDR Stream Session Log ===")
	assert.Contains(t, s, "PID:")
	assert.Contains(t, s, "frame 7 extracted")
	assert.Contains(t, s, "=== Session ended ===")
}

func TestCloseSessionLog_NotOpen(t *testing.T) {
	require.NoError(t, CloseSessionLog())
}

func TestInitSessionLog_BadDir(t *testing.T) {
	_, err := InitSessionLog(filepath.Join(t.TempDir(), "missing", "dir"))
	require.Error(t, err)
}

// Copyright 2025 Kadir Pekel
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

// Package utils provides small filesystem and tokenizing helpers shared
// across capability adapters.
package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureStateDir ensures the .agentforge directory exists at the given base
// path and returns its path. If basePath is empty or ".", it creates
// ./.agentforge in the current directory; otherwise {basePath}/.agentforge.
//
// Used by the embedded chromem vector provider for its optional on-disk
// persistence path.
func EnsureStateDir(basePath string) (string, error) {
	var dir string
	if basePath == "" || basePath == "." {
		dir = ".agentforge"
	} else {
		dir = filepath.Join(basePath, ".agentforge")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create state directory at '%s': %w", dir, err)
	}

	return dir, nil
}

// Copyright (C) 2022  Shanhu Tech Inc.
//
// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the
// Free Software Foundation, either version 3 of the License, or (at your
// option) any later version.
//
// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU Affero General Public License
// for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package ortbuild

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// env carries the host facts and the execution hooks that every phase
// shares. It is assembled once when the driver is created.
type env struct {
	srcDir   string
	buildDir string

	osName     string // runtime.GOOS, overridable in tests.
	ubuntu1604 bool
	inDocker   bool

	// cacheDir holds downloaded test-data archives, outside the build
	// tree. Empty disables test-data provisioning.
	cacheDir string

	lookPath func(string) (string, error)
	getenv   func(string) string
	run      runner
}

func newHostEnv(srcDir, buildDir string) *env {
	cacheDir := ""
	if home, err := os.UserHomeDir(); err == nil {
		cacheDir = filepath.Join(home, ".cache", "onnxruntime")
	}
	return &env{
		srcDir:     srcDir,
		buildDir:   buildDir,
		osName:     runtime.GOOS,
		ubuntu1604: isUbuntu1604(),
		inDocker:   insideDocker(),
		cacheDir:   cacheDir,
		lookPath:   exec.LookPath,
		getenv:     os.Getenv,
	}
}

func (e *env) windows() bool { return e.osName == "windows" }

func (e *env) src(ps ...string) string {
	return filepath.Join(append([]string{e.srcDir}, ps...)...)
}

func (e *env) out(ps ...string) string {
	return filepath.Join(append([]string{e.buildDir}, ps...)...)
}

// configOut returns a path under the per-configuration build directory.
func (e *env) configOut(config string, ps ...string) string {
	return e.out(append([]string{config}, ps...)...)
}

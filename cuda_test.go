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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCUDAVersion(t *testing.T) {
	major, minor, err := parseCUDAVersion("CUDA Version 9.2.148")
	require.NoError(t, err)
	assert.Equal(t, 9, major)
	assert.Equal(t, 2, minor)

	major, minor, err = parseCUDAVersion("CUDA Version 10.0")
	require.NoError(t, err)
	assert.Equal(t, 10, major)
	assert.Equal(t, 0, minor)
}

func TestParseCUDAVersionMalformed(t *testing.T) {
	for _, line := range []string{
		"", "CUDA Version", "CUDA Version nine.two", "Release Notes",
	} {
		_, _, err := parseCUDAVersion(line)
		assert.Error(t, err, "line %q", line)
	}
}

func TestReadCUDAVersion(t *testing.T) {
	f := filepath.Join(t.TempDir(), "version.txt")
	require.NoError(t, os.WriteFile(
		f, []byte("CUDA Version 9.2.148\nmore text\n"), 0644,
	))
	major, minor, err := readCUDAVersion(f)
	require.NoError(t, err)
	assert.Equal(t, 9, major)
	assert.Equal(t, 2, minor)

	_, _, err = readCUDAVersion(filepath.Join(t.TempDir(), "absent.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no version file")
}

func TestCheckToolset(t *testing.T) {
	// CUDA 9 rejects 14.minor for minor > 11.
	assert.Error(t, checkToolset(9, "14.12.25827"))
	assert.NoError(t, checkToolset(9, "14.11.25503"))
	assert.NoError(t, checkToolset(10, "14.12.25827"))

	// An undeterminable toolset version degrades to a warning.
	assert.NoError(t, checkToolset(9, ""))
	assert.NoError(t, checkToolset(9, "14.12"))
	assert.NoError(t, checkToolset(9, "14.x.25827"))
}

func TestResolveHome(t *testing.T) {
	dir := t.TempDir()
	getenv := func(k string) string {
		if k == "CUDA_HOME" {
			return dir
		}
		return ""
	}

	home, err := resolveHome("", "CUDA_HOME", getenv)
	require.NoError(t, err)
	assert.Equal(t, dir, home)

	explicit := t.TempDir()
	home, err = resolveHome(explicit, "CUDA_HOME", getenv)
	require.NoError(t, err)
	assert.Equal(t, explicit, home)

	_, err = resolveHome("", "CUDNN_HOME", getenv)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CUDNN_HOME")

	_, err = resolveHome(filepath.Join(dir, "absent"), "CUDA_HOME", getenv)
	assert.Error(t, err)
}

func TestResolveFailsBeforeAnyProcess(t *testing.T) {
	e, r := newTestEnv(t, "linux")
	config := &Config{
		BuildDir:  e.buildDir,
		SourceDir: e.srcDir,
		UseCUDA:   true,
	}
	_, err := newDriver(config, e)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CUDA_HOME")
	assert.Empty(t, r.calls, "no subprocess may run before resolution")
}

func TestResolvePlatformWindows(t *testing.T) {
	e, _ := newTestEnv(t, "windows")
	cudaHome := t.TempDir()
	cudnnHome := t.TempDir()
	require.NoError(t, os.MkdirAll(
		filepath.Join(cudnnHome, "bin"), 0755,
	))
	require.NoError(t, os.WriteFile(
		filepath.Join(cudaHome, "version.txt"),
		[]byte("CUDA Version 9.2.148\n"), 0644,
	))

	config := &Config{
		BuildDir:  e.buildDir,
		SourceDir: e.srcDir,
		UseCUDA:   true,
		CUDAHome:  cudaHome,
		CUDNNHome: cudnnHome,
	}
	p, err := resolvePlatform(config, e)
	require.NoError(t, err)
	assert.Equal(t, cudaHome, p.envAdd["CUDA_PATH"])
	assert.Equal(t, cudaHome, p.envAdd["CUDA_PATH_V9_2"])
	assert.Equal(t,
		filepath.Join(cudaHome, "bin"), p.envAdd["CUDA_BIN_PATH"])
	assert.Contains(t, p.pathAdd, filepath.Join(cudnnHome, "bin"))
}

func TestResolvePlatformCUDNNLayout(t *testing.T) {
	e, _ := newTestEnv(t, "windows")
	config := &Config{
		BuildDir:  e.buildDir,
		SourceDir: e.srcDir,
		UseCUDA:   true,
		CUDAHome:  t.TempDir(),
		CUDNNHome: t.TempDir(), // no bin subdirectory
	}
	_, err := resolvePlatform(config, e)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bin")
}

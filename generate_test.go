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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratorArgsTotalMapping(t *testing.T) {
	e, _ := newTestEnv(t, "linux")
	config := &Config{
		BuildDir:  e.buildDir,
		SourceDir: e.srcDir,
		UseMKLDNN: true,
	}
	require.NoError(t, config.normalize())

	args := generatorArgs(config, &resolvedPlatform{}, e)

	// Every feature toggle appears exactly once, ON or OFF.
	assert.Contains(t, args, "-Donnxruntime_USE_MKLDNN=ON")
	assert.Contains(t, args, "-Donnxruntime_USE_CUDA=OFF")
	assert.Contains(t, args, "-Donnxruntime_USE_JEMALLOC=OFF")
	assert.Contains(t, args, "-Donnxruntime_BUILD_SHARED_LIB=OFF")
	assert.Contains(t, args, "-Donnxruntime_USE_EIGEN_FOR_BLAS=ON")
	assert.Contains(t, args, "-Donnxruntime_CUDA_HOME=")
}

func TestGeneratorArgsConditionalGroups(t *testing.T) {
	e, _ := newTestEnv(t, "linux")
	config := &Config{
		BuildDir:          e.buildDir,
		SourceDir:         e.srcDir,
		PBHome:            "/opt/pb",
		CMakeExtraDefines: []string{"FOO=1", "BAR=baz"},
	}
	require.NoError(t, config.normalize())

	args := generatorArgs(config, &resolvedPlatform{}, e)
	assert.Contains(t, args, "-Donnxruntime_USE_PREBUILT_PB=ON")
	assert.Contains(t, args, "-DFOO=1")
	assert.Contains(t, args, "-DBAR=baz")

	config.PBHome = ""
	config.CMakeExtraDefines = nil
	args = generatorArgs(config, &resolvedPlatform{}, e)
	for _, a := range args {
		assert.NotContains(t, a, "PREBUILT_PB")
		assert.NotEqual(t, "-DFOO=1", a)
	}
}

func TestGeneratorArgsBrainSlice(t *testing.T) {
	e, _ := newTestEnv(t, "linux")
	config := &Config{
		BuildDir:                    e.buildDir,
		SourceDir:                   e.srcDir,
		UseBrainSlice:               true,
		BrainSlicePackagePath:       "/pkgs",
		BrainSlicePackageName:       "bs.1.0.0",
		BrainSliceClientPackageName: "bsclient.1.0.0",
	}
	require.NoError(t, config.normalize())

	args := generatorArgs(config, &resolvedPlatform{}, e)
	assert.Contains(t, args,
		"-Donnxruntime_BRAINSLICE_LIB_PATH=/pkgs/bs.1.0.0")
	assert.Contains(t, args,
		"-Donnxruntime_BRAINSLICE_dynamic_lib_PATH=/pkgs/bs.redist.1.0.0")
}

func TestWindowsGeneratorArgs(t *testing.T) {
	args := windowsGeneratorArgs(&Config{X86: true})
	assert.Equal(t,
		[]string{"-A", "Win32", "-G", "Visual Studio 15 2017"}, args)

	args = windowsGeneratorArgs(&Config{MSVCToolset: "14.11"})
	assert.Equal(t, []string{
		"-A", "x64", "-T", "host=x64,version=14.11",
		"-G", "Visual Studio 15 2017",
	}, args)
}

func TestGenerateBuildTree(t *testing.T) {
	config := &Config{
		Configs: []string{"Release", "Debug"},
		Update:  true,
	}
	d, r := newTestDriver(t, config)
	d.env.lookPath = func(string) (string, error) {
		return "", os.ErrNotExist // no downloader; provisioning skips
	}

	require.NoError(t, d.generateBuildTree())
	require.Len(t, r.calls, 2)

	// Configurations generate in declaration order, with the build type
	// appended last.
	first, second := r.calls[0], r.calls[1]
	assert.Equal(t, "-DCMAKE_BUILD_TYPE=Debug",
		first.args[len(first.args)-1])
	assert.True(t, strings.HasSuffix(first.dir, "Debug"))
	assert.Equal(t, "-DCMAKE_BUILD_TYPE=Release",
		second.args[len(second.args)-1])

	// The per-configuration build directories were created.
	for _, c := range []string{"Debug", "Release"} {
		info, err := os.Stat(d.env.configOut(c))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

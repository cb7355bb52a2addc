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
	"log"

	"shanhu.io/misc/errcode"
	"shanhu.io/misc/strutil"
)

// Config is the build request for one driver run. It is read once when the
// driver is created and never modified afterwards.
type Config struct {
	BuildDir  string // Build output directory. Required.
	SourceDir string // Source checkout root. Defaults to the work dir.

	// Configurations to act on. Defaults to Debug when empty.
	Configs []string

	// Phase selection. When all four are false, the driver defaults to
	// update, build and test.
	Update bool
	Clean  bool
	Build  bool
	Test   bool

	Parallel          bool // Forward a parallelism flag to the build tool.
	SkipSubmoduleSync bool // Skip git submodule sync in the update phase.

	EnableOnnxTests bool // Run the ONNX model conformance tests.

	UseCUDA   bool
	CUDAHome  string // Falls back to the CUDA_HOME environment variable.
	CUDNNHome string // Falls back to the CUDNN_HOME environment variable.

	EnablePybind   bool
	BuildWheel     bool // Implies EnablePybind.
	BuildCSharp    bool
	BuildSharedLib bool

	UseJemalloc          bool
	UseOpenBLAS          bool
	UseMKLDNN            bool
	UseMKLML             bool
	UseOpenMP            bool
	UsePreinstalledEigen bool
	EigenPath            string
	UseTVM               bool
	UseLLVM              bool
	LLVMPath             string
	EnableMSInternal     bool
	UseNuphar            bool

	UseBrainSlice               bool
	BrainSlicePackagePath       string
	BrainSlicePackageName       string
	BrainSliceClientPackageName string

	X86         bool   // Generate 32-bit build files on Windows.
	MSVCToolset string // MSVC toolset version, e.g. "14.11".
	PBHome      string // Prebuilt protobuf installation.

	CMakePath  string // Defaults to "cmake".
	CTestPath  string // Defaults to "ctest".
	PythonPath string // Defaults to "python3".

	// Extra -D defines forwarded to the generator verbatim, without the
	// leading -D.
	CMakeExtraDefines []string
}

// buildConfigs is the fixed set of build configurations, in execution order.
var buildConfigs = []string{
	"Debug",
	"MinSizeRel",
	"Release",
	"RelWithDebInfo",
}

// sortConfigs de-duplicates the requested configurations and returns them in
// the fixed declaration order, so that every run visits them in the same
// sequence no matter how they were given on the command line.
func sortConfigs(names []string) ([]string, error) {
	if len(names) == 0 {
		return []string{"Debug"}, nil
	}

	set := strutil.MakeSet(names)
	for _, name := range names {
		found := false
		for _, c := range buildConfigs {
			if name == c {
				found = true
				break
			}
		}
		if !found {
			return nil, errcode.InvalidArgf(
				"unknown configuration %q", name,
			)
		}
	}

	var sorted []string
	for _, c := range buildConfigs {
		if set[c] {
			sorted = append(sorted, c)
		}
	}
	return sorted, nil
}

type phasePlan struct {
	update bool
	clean  bool
	build  bool
	test   bool

	onnxTest bool
	wheel    bool
}

// makePlan resolves the phase plan from the request. Explicitly selecting
// any of update, clean, build or test disables the default plan entirely.
func makePlan(c *Config) *phasePlan {
	plan := &phasePlan{
		update: c.Update,
		clean:  c.Clean,
		build:  c.Build,
		test:   c.Test,

		onnxTest: c.EnableOnnxTests,
		wheel:    c.BuildWheel,
	}
	if !c.Update && !c.Clean && !c.Build && !c.Test {
		log.Println("no phase selected; defaulting to update, build and test")
		plan.update = true
		plan.build = true
		plan.test = true
	}
	return plan
}

func (c *Config) normalize() error {
	if c.BuildDir == "" {
		return errcode.InvalidArgf("build directory not specified")
	}
	if c.SourceDir == "" {
		c.SourceDir = "."
	}
	if c.CMakePath == "" {
		c.CMakePath = "cmake"
	}
	if c.CTestPath == "" {
		c.CTestPath = "ctest"
	}
	if c.PythonPath == "" {
		c.PythonPath = "python3"
	}
	if c.BuildWheel {
		// Wheel packaging needs the python bindings built.
		c.EnablePybind = true
	}
	if c.UseBrainSlice && c.BrainSlicePackageName == "" {
		return errcode.InvalidArgf("brainslice package name not specified")
	}
	return nil
}

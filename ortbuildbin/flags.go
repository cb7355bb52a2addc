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

package ortbuildbin

import (
	"strings"

	"shanhu.io/misc/errcode"
	"shanhu.io/misc/flagutil"

	ortbuild "github.com/zwxxx/onnxruntime"
)

var cmdFlags = flagutil.NewFactory("ortbuild")

type rawFlags struct {
	configs string
	defines string
}

func declareFlags(
	flags *flagutil.FlagSet, c *ortbuild.Config, raw *rawFlags,
) {
	flags.StringVar(&c.BuildDir, "build_dir", "",
		"path to the build directory")
	flags.StringVar(&c.SourceDir, "source_dir", ".",
		"path to the source checkout")
	flags.StringVar(&raw.configs, "config", "Debug",
		"comma-separated configurations to build")

	flags.BoolVar(&c.Update, "update", false, "update build files")
	flags.BoolVar(&c.Build, "build", false, "build the targets")
	flags.BoolVar(&c.Clean, "clean", false,
		"run the build tool's clean target for the selected configs")
	flags.BoolVar(&c.Test, "test", false, "run unit tests")
	flags.BoolVar(&c.Parallel, "parallel", false, "use parallel build")
	flags.BoolVar(&c.SkipSubmoduleSync, "skip_submodule_sync", false,
		"skip the git submodule update; makes the update phase faster")

	flags.BoolVar(&c.EnableOnnxTests, "enable_onnx_tests", false,
		"run the model conformance tests against available data")
	flags.BoolVar(&c.UseCUDA, "use_cuda", false, "enable CUDA")
	flags.StringVar(&c.CUDAHome, "cuda_home", "",
		"path to CUDA home; read from CUDA_HOME when not given")
	flags.StringVar(&c.CUDNNHome, "cudnn_home", "",
		"path to cuDNN home; read from CUDNN_HOME when not given")

	flags.BoolVar(&c.EnablePybind, "enable_pybind", false,
		"enable python bindings")
	flags.BoolVar(&c.BuildWheel, "build_wheel", false,
		"build the python wheel")
	flags.BoolVar(&c.BuildCSharp, "build_csharp", false,
		"build the C# bindings and package")
	flags.BoolVar(&c.BuildSharedLib, "build_shared_lib", false,
		"build a shared library of the runtime")

	flags.BoolVar(&c.UseJemalloc, "use_jemalloc", false, "use jemalloc")
	flags.BoolVar(&c.UseOpenBLAS, "use_openblas", false,
		"build with OpenBLAS")
	flags.BoolVar(&c.UseMKLDNN, "use_mkldnn", false, "build with MKLDNN")
	flags.BoolVar(&c.UseMKLML, "use_mklml", false, "build with MKLML")
	flags.BoolVar(&c.UseOpenMP, "use_openmp", false, "build with OpenMP")
	flags.BoolVar(&c.UsePreinstalledEigen, "use_preinstalled_eigen", false,
		"use a preinstalled eigen")
	flags.StringVar(&c.EigenPath, "eigen_path", "",
		"path to a preinstalled eigen")
	flags.BoolVar(&c.UseTVM, "use_tvm", false, "build with tvm")
	flags.BoolVar(&c.UseLLVM, "use_llvm", false, "build tvm with llvm")
	flags.StringVar(&c.LLVMPath, "llvm_path", "", "path to the llvm dir")
	flags.BoolVar(&c.EnableMSInternal, "enable_msinternal", false,
		"enable internal-only builds")
	flags.BoolVar(&c.UseNuphar, "use_nuphar", false, "build with nuphar")

	flags.BoolVar(&c.UseBrainSlice, "use_brainslice", false,
		"build with brainslice")
	flags.StringVar(&c.BrainSlicePackagePath, "brain_slice_package_path",
		"", "path to the brainslice packages")
	flags.StringVar(&c.BrainSlicePackageName, "brain_slice_package_name",
		"", "name of the brainslice package")
	flags.StringVar(&c.BrainSliceClientPackageName,
		"brain_slice_client_package_name", "",
		"name of the brainslice client package")

	flags.BoolVar(&c.X86, "x86", false,
		"generate 32-bit build files; needs -update and a clean cache")
	flags.StringVar(&c.MSVCToolset, "msvc_toolset", "",
		"MSVC toolset to use, e.g. 14.11")
	flags.StringVar(&c.PBHome, "pb_home", "",
		"path to a protobuf installation")

	flags.StringVar(&c.CMakePath, "cmake_path", "cmake",
		"path to the cmake program")
	flags.StringVar(&c.CTestPath, "ctest_path", "ctest",
		"path to the ctest program")
	flags.StringVar(&c.PythonPath, "python_path", "python3",
		"path to the python interpreter")
	flags.StringVar(&raw.defines, "cmake_extra_defines", "",
		"comma-separated extra cmake defines, without the leading -D")
}

func splitList(s string) []string {
	var list []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			list = append(list, part)
		}
	}
	return list
}

func parseArgs(args []string) (*ortbuild.Config, error) {
	flags := cmdFlags.New()
	config := new(ortbuild.Config)
	raw := new(rawFlags)
	declareFlags(flags, config, raw)
	rest := flags.ParseArgs(args)
	if len(rest) > 0 {
		return nil, errcode.InvalidArgf("unexpected arguments: %q", rest)
	}

	config.Configs = splitList(raw.configs)
	config.CMakeExtraDefines = splitList(raw.defines)
	return config, nil
}

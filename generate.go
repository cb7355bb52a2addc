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
	"os"
	"path/filepath"
	"strings"

	"shanhu.io/misc/errcode"
	"shanhu.io/misc/osutil"
)

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

// generatorArgs maps the request and the resolved platform into the full
// cmake argument vector, minus the per-configuration build-type flag. The
// mapping is total: every feature toggle always appears as ON or OFF.
func generatorArgs(c *Config, p *resolvedPlatform, e *env) []string {
	cudaHome := ""
	cudnnHome := ""
	if c.UseCUDA {
		cudaHome = p.cudaHome
		cudnnHome = p.cudnnHome
	}

	args := []string{
		c.CMakePath, e.src("cmake"),
		"-Donnxruntime_RUN_ONNX_TESTS=" + onOff(c.EnableOnnxTests),
		"-Donnxruntime_GENERATE_TEST_REPORTS=ON",
		"-Donnxruntime_DEV_MODE=ON",
		"-DPYTHON_EXECUTABLE=" + c.PythonPath,
		"-Donnxruntime_USE_CUDA=" + onOff(c.UseCUDA),
		"-Donnxruntime_CUDA_HOME=" + cudaHome,
		"-Donnxruntime_CUDNN_HOME=" + cudnnHome,
		"-Donnxruntime_USE_JEMALLOC=" + onOff(c.UseJemalloc),
		"-Donnxruntime_ENABLE_PYTHON=" + onOff(c.EnablePybind),
		"-Donnxruntime_BUILD_CSHARP=" + onOff(c.BuildCSharp),
		"-Donnxruntime_BUILD_SHARED_LIB=" + onOff(c.BuildSharedLib),
		"-Donnxruntime_USE_EIGEN_FOR_BLAS=" + onOff(!c.UseOpenBLAS),
		"-Donnxruntime_USE_OPENBLAS=" + onOff(c.UseOpenBLAS),
		"-Donnxruntime_USE_MKLDNN=" + onOff(c.UseMKLDNN),
		"-Donnxruntime_USE_MKLML=" + onOff(c.UseMKLML),
		"-Donnxruntime_USE_OPENMP=" + onOff(c.UseOpenMP),
		"-Donnxruntime_USE_TVM=" + onOff(c.UseTVM),
		"-Donnxruntime_USE_LLVM=" + onOff(c.UseLLVM),
		"-Donnxruntime_ENABLE_MICROSOFT_INTERNAL=" +
			onOff(c.EnableMSInternal),
		"-Donnxruntime_USE_BRAINSLICE=" + onOff(c.UseBrainSlice),
		"-Donnxruntime_USE_NUPHAR=" + onOff(c.UseNuphar),
	}

	if c.UseBrainSlice {
		// The redistributable shared library sits next to the package,
		// named <base>.redist.<rest>.
		parts := strings.SplitN(c.BrainSlicePackageName, ".", 2)
		sharedLib := c.BrainSlicePackageName
		if len(parts) == 2 {
			sharedLib = parts[0] + ".redist." + parts[1]
		}
		args = append(args,
			"-Donnxruntime_BRAINSLICE_LIB_PATH="+
				c.BrainSlicePackagePath+"/"+c.BrainSlicePackageName,
			"-Donnxruntime_BS_CLIENT_PACKAGE="+
				c.BrainSlicePackagePath+"/"+c.BrainSliceClientPackageName,
			"-Donnxruntime_BRAINSLICE_dynamic_lib_PATH="+
				c.BrainSlicePackagePath+"/"+sharedLib,
		)
	}
	if c.UseLLVM {
		args = append(args, "-DLLVM_DIR="+c.LLVMPath)
	}
	if c.UseCUDA && !e.windows() {
		args = append(args,
			"-DCUDA_CUDA_LIBRARY="+cudaHome+"/lib64/stubs")
	}
	if c.UsePreinstalledEigen {
		args = append(args,
			"-Donnxruntime_USE_PREINSTALLED_EIGEN=ON",
			"-Deigen_SOURCE_PATH="+c.EigenPath,
		)
	}
	if c.PBHome != "" {
		args = append(args,
			"-DONNX_CUSTOM_PROTOC_EXECUTABLE="+
				filepath.Join(c.PBHome, "bin", "protoc"),
			"-Donnxruntime_USE_PREBUILT_PB=ON",
		)
	}
	for _, def := range c.CMakeExtraDefines {
		args = append(args, "-D"+def)
	}
	if e.windows() {
		args = append(args, windowsGeneratorArgs(c)...)
	}
	return args
}

// windowsGeneratorArgs selects the Visual Studio generator, architecture
// and toolset.
func windowsGeneratorArgs(c *Config) []string {
	if c.X86 {
		return []string{"-A", "Win32", "-G", "Visual Studio 15 2017"}
	}
	toolset := "host=x64"
	if c.MSVCToolset != "" {
		toolset += ",version=" + c.MSVCToolset
	}
	return []string{"-A", "x64", "-T", toolset, "-G", "Visual Studio 15 2017"}
}

// generateBuildTree provisions the test data and then runs the generator
// once per configuration. The data fetch must come first: generation links
// the per-configuration tree to the shared model directory.
func (d *Driver) generateBuildTree() error {
	data, err := readTestData(d.env)
	if err != nil {
		return errcode.Annotate(err, "read test data spec")
	}
	if err := d.downloadTestData(data); err != nil {
		return errcode.Annotate(err, "provision test data")
	}

	log.Println("generating cmake build tree")
	args := generatorArgs(d.config, d.plat, d.env)

	for _, config := range d.configs {
		dir := d.env.configOut(config)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errcode.Annotatef(err, "make build dir for %s", config)
		}

		inv := &invocation{
			args: append(append([]string{}, args...),
				"-DCMAKE_BUILD_TYPE="+config),
			dir: dir,
		}
		if d.config.UseTVM {
			inv.pathAdd = []string{
				d.env.configOut(config, "external", "tvm", config),
			}
		}
		if _, err := d.env.run.run(inv); err != nil {
			return err
		}

		if d.env.windows() {
			if err := d.linkModelDir(config); err != nil {
				return errcode.Annotatef(err, "link models for %s", config)
			}
		}
	}
	return nil
}

// linkModelDir points the per-configuration models directory at the shared
// one under the build root. Windows only; a no-op when the link already
// exists or there is nothing to link.
func (d *Driver) linkModelDir(config string) error {
	src := d.env.out("models")
	dest := d.env.configOut(config, "models")

	if exist, err := osutil.IsDir(src); err != nil || !exist {
		return err
	}
	if _, err := os.Lstat(dest); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	return d.env.runCmd("", "cmd", "/c", "mklink", "/D", "/J", dest, src)
}

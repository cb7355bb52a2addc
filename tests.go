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
	"path/filepath"

	"shanhu.io/misc/errcode"
	"shanhu.io/misc/osutil"
)

// tvmDLLPath is the dynamic-library search directory for builds with TVM,
// empty otherwise.
func (d *Driver) tvmDLLPath(config string) string {
	if !d.config.UseTVM {
		return ""
	}
	return d.env.configOut(config, "external", "tvm", config)
}

// runUnitTests is the test phase: the native runner per configuration, the
// binding-level tests when the python bindings are built, and the
// shared-library smoke test on Ubuntu 16.04.
func (d *Driver) runUnitTests() error {
	for _, config := range d.configs {
		log.Printf("running tests for %s configuration", config)
		cwd := d.env.configOut(config)
		dllPath := d.tvmDLLPath(config)

		if _, err := d.env.run.run(&invocation{
			args: []string{
				d.config.CTestPath,
				"--build-config", config, "--verbose",
			},
			dir:     cwd,
			dllPath: dllPath,
		}); err != nil {
			return err
		}

		if d.config.EnablePybind {
			if err := d.runPythonTests(config, dllPath); err != nil {
				return err
			}
		}

		if d.config.BuildSharedLib && d.env.ubuntu1604 {
			if _, err := d.env.run.run(&invocation{
				args:    []string{cwd + "/onnxruntime_shared_lib_test"},
				dir:     cwd,
				dllPath: dllPath,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *Driver) runPythonTests(config, dllPath string) error {
	cwd := d.env.configOut(config)
	if d.env.windows() {
		cwd = filepath.Join(cwd, config)
	}
	python := d.config.PythonPath

	if _, err := d.env.run.run(&invocation{
		args:    []string{python, "onnxruntime_test_python.py"},
		dir:     cwd,
		dllPath: dllPath,
	}); err != nil {
		return err
	}

	switch d.probePythonModules("onnx") {
	case capAvailable:
		if err := d.runOnnxBackendTests(config, cwd, dllPath); err != nil {
			return err
		}
	default:
		log.Println("warning: onnx is not installed; skipping its tests")
	}

	switch d.probePythonModules("onnxmltools", "keras") {
	case capAvailable:
		if _, err := d.env.run.run(&invocation{
			args:    []string{python, "onnxruntime_test_python_keras.py"},
			dir:     cwd,
			dllPath: dllPath,
		}); err != nil {
			return err
		}
	default:
		log.Println("warning: onnxmltools and keras are not installed; " +
			"skipping their tests")
	}
	return nil
}

// runOnnxBackendTests is the second test tier, gated on the onnx package
// being importable.
func (d *Driver) runOnnxBackendTests(config, cwd, dllPath string) error {
	python := d.config.PythonPath

	if _, err := d.env.run.run(&invocation{
		args:    []string{python, "onnxruntime_test_python_backend.py"},
		dir:     cwd,
		dllPath: dllPath,
	}); err != nil {
		return err
	}
	if err := d.env.runCmd(cwd, python,
		d.env.src("onnxruntime", "test", "onnx", "gen_test_models.py"),
		"--output_dir", "test_models",
	); err != nil {
		return err
	}
	if err := d.env.runCmd(
		cwd, filepath.Join(cwd, "onnx_test_runner"), "test_models",
	); err != nil {
		return err
	}
	if config != "Debug" {
		if _, err := d.env.run.run(&invocation{
			args:    []string{python, "onnx_backend_test_series.py"},
			dir:     cwd,
			dllPath: dllPath,
		}); err != nil {
			return err
		}
	}
	return nil
}

// runOnnxModelTests is the standalone model-conformance phase, requested
// explicitly and independent of the test phase. An empty provider runs the
// default execution backend.
func (d *Driver) runOnnxModelTests(provider string) error {
	for _, config := range d.configs {
		cwd := d.env.configOut(config)
		var exe, modelDir string
		if d.env.windows() {
			exe = filepath.Join(cwd, config, "onnx_test_runner")
			modelDir = filepath.Join(cwd, "models")
		} else {
			exe = filepath.Join(cwd, "onnx_test_runner")
			modelDir = d.env.out("models")
		}

		args := []string{exe}
		if provider != "" {
			args = append(args, "-e", provider)
		}
		// The bundled model set is too slow under the Debug runtime.
		if config != "Debug" {
			if ok, err := osutil.IsDir(modelDir); err != nil {
				return errcode.Annotate(err, "check model dir")
			} else if ok {
				args = append(args, modelDir)
			}
		}
		if ok, err := osutil.IsDir(d.onnxTestDataDir); err != nil {
			return errcode.Annotate(err, "check onnx test data dir")
		} else if ok {
			args = append(args, d.onnxTestDataDir)
		}

		if err := d.env.runCmd(cwd, args...); err != nil {
			return err
		}
	}
	return nil
}

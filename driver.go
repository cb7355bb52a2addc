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

	"shanhu.io/misc/errcode"
	"shanhu.io/misc/osutil"
)

// Driver runs the build pipeline: update, clean, build, test, model tests
// and packaging, in that fixed order, over the requested configurations.
// Phases run strictly one external process at a time; the first failure
// aborts the run.
type Driver struct {
	config *Config
	env    *env
	plan   *phasePlan
	plat   *resolvedPlatform

	// configs is the de-duplicated configuration list in its fixed
	// deterministic order.
	configs []string

	onnxTestDataDir string
}

// NewDriver validates the request, resolves the platform and prepares a
// driver. All configuration and platform errors surface here, before any
// external process runs.
func NewDriver(config *Config) (*Driver, error) {
	return newDriver(config, newHostEnv(config.SourceDir, config.BuildDir))
}

func newDriver(config *Config, e *env) (*Driver, error) {
	if err := config.normalize(); err != nil {
		return nil, err
	}

	configs, err := sortConfigs(config.Configs)
	if err != nil {
		return nil, err
	}

	plat, err := resolvePlatform(config, e)
	if err != nil {
		return nil, err
	}
	if e.run == nil {
		e.run = &execRunner{
			osName:  e.osName,
			envAdd:  plat.envAdd,
			pathAdd: plat.pathAdd,
		}
	}

	d := &Driver{
		config:  config,
		env:     e,
		plan:    makePlan(config),
		plat:    plat,
		configs: configs,
	}
	d.onnxTestDataDir = d.findOnnxTestDataDir()
	return d, nil
}

// findOnnxTestDataDir locates the backend test data: the machine-wide
// directory when present, the ONNX submodule copy otherwise.
func (d *Driver) findOnnxTestDataDir() string {
	if !d.env.windows() {
		const shared = "/data/onnx"
		if ok, _ := osutil.IsDir(shared); ok {
			return shared
		}
	}
	return d.env.src(
		"cmake", "external", "onnx",
		"onnx", "backend", "test", "data",
	)
}

// Run executes the planned phases. Disabled phases are skipped, never
// reordered.
func (d *Driver) Run() error {
	if err := os.MkdirAll(d.env.out(), 0755); err != nil {
		return errcode.Annotate(err, "make build dir")
	}
	log.Println("build started")

	if err := d.writeBuildInfo(); err != nil {
		return errcode.Annotate(err, "write build info")
	}

	if d.plan.update {
		if err := d.updatePhase(); err != nil {
			return err
		}
	}
	if d.plan.clean {
		if err := d.cleanTargets(); err != nil {
			return err
		}
	}
	if d.plan.build {
		if err := d.buildTargets(); err != nil {
			return err
		}
	}
	if d.plan.test {
		if err := d.runUnitTests(); err != nil {
			return err
		}
	}
	if d.plan.onnxTest {
		if err := d.runModelTestsPhase(); err != nil {
			return err
		}
	}
	if d.plan.wheel {
		if err := d.buildWheel(); err != nil {
			return err
		}
	}

	log.Println("build complete")
	return nil
}

// runModelTestsPhase picks the execution backends for the conformance
// runs: cuda when the accelerator is on, otherwise the default backend
// plus an extra mkldnn pass when that library is built in.
func (d *Driver) runModelTestsPhase() error {
	if d.config.UseCUDA {
		return d.runOnnxModelTests("cuda")
	}
	if err := d.runOnnxModelTests(""); err != nil {
		return err
	}
	if d.config.UseMKLDNN {
		return d.runOnnxModelTests("mkldnn")
	}
	return nil
}

// writeBuildInfo snapshots the resolved request into the build directory
// for later inspection.
func (d *Driver) writeBuildInfo() error {
	info := &buildInfo{
		Configs:   d.configs,
		Phases:    d.plan.names(),
		CUDAHome:  d.plat.cudaHome,
		CUDNNHome: d.plat.cudnnHome,
	}
	return writeBuildInfo(
		filepath.Join(d.env.out(), "build_info.json"), info,
	)
}

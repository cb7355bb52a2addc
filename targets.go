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
	"runtime"
	"strconv"
)

// cleanTargets runs the build tool's clean target for every configuration.
func (d *Driver) cleanTargets() error {
	for _, config := range d.configs {
		log.Printf("cleaning targets for %s configuration", config)
		if err := d.env.runCmd("", d.config.CMakePath,
			"--build", d.env.configOut(config),
			"--config", config,
			"--target", "clean",
		); err != nil {
			return err
		}
	}
	return nil
}

// buildTargets runs the build action for every configuration. Parallelism
// is the build tool's own; the driver only forwards a worker count.
func (d *Driver) buildTargets() error {
	for _, config := range d.configs {
		log.Printf("building targets for %s configuration", config)
		args := []string{
			d.config.CMakePath,
			"--build", d.env.configOut(config),
			"--config", config,
		}
		if d.config.Parallel {
			n := strconv.Itoa(runtime.NumCPU())
			args = append(args, "--")
			if d.env.windows() {
				args = append(args, "/maxcpucount:"+n)
			} else {
				args = append(args, "-j"+n)
			}
		}
		if err := d.env.runCmd("", args...); err != nil {
			return err
		}
	}
	return nil
}

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
	"path/filepath"
)

// buildWheel packages the python wheel for every configuration. On Ubuntu
// 16.04 the wheel is renamed to the manylinux tag afterwards.
func (d *Driver) buildWheel() error {
	for _, config := range d.configs {
		cwd := d.env.configOut(config)
		if d.env.windows() {
			cwd = filepath.Join(cwd, config)
		}

		args := []string{
			d.config.PythonPath, d.env.src("setup.py"), "bdist_wheel",
		}
		if d.config.UseCUDA {
			args = append(args, "--use_cuda")
		}
		if err := d.env.runCmd(cwd, args...); err != nil {
			return err
		}

		if d.env.ubuntu1604 {
			if err := d.env.runCmd(
				filepath.Join(cwd, "dist"),
				d.env.src("rename_manylinux.sh"),
			); err != nil {
				return err
			}
		}
	}
	return nil
}

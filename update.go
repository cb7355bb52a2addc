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
	"strings"

	"shanhu.io/misc/errcode"
)

func (d *Driver) updateSubmodules() error {
	return d.env.runCmd(d.env.src(),
		"git", "submodule", "update", "--init", "--recursive",
	)
}

// aptInstall installs an APT package if it is not installed yet. The query
// output is captured and parsed; installation needs the run to be under
// sudo.
func (d *Driver) aptInstall(pkg string) error {
	out, err := d.env.runCmdOutput("",
		"apt", "list", "--installed", pkg,
	)
	if err != nil {
		return errcode.Annotatef(err, "query package %s", pkg)
	}
	if strings.Contains(string(out), pkg) {
		return nil
	}
	if !underSudo(d.env.getenv) {
		return errcode.Internalf(
			"%s APT package missing; re-run under sudo to install", pkg,
		)
	}
	return d.env.runCmd("", "apt-get", "install", "-y", pkg)
}

// installUbuntuDeps installs the host packages that the python bindings and
// OpenBLAS builds need. Containers have them preinstalled.
func (d *Driver) installUbuntuDeps() error {
	c := d.config
	if !c.EnablePybind && !c.UseOpenBLAS {
		return nil
	}
	if d.env.inDocker {
		return nil
	}
	if c.EnablePybind {
		if err := d.aptInstall("python3"); err != nil {
			return err
		}
	}
	if c.UseOpenBLAS {
		if err := d.aptInstall("libopenblas-dev"); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) installPythonDeps() error {
	return d.env.runCmd("", d.config.PythonPath,
		"-m", "pip", "install",
		"--trusted-host", "files.pythonhosted.org",
		"setuptools", "wheel", "numpy",
	)
}

// updatePhase syncs external sources and generates the build trees.
func (d *Driver) updatePhase() error {
	if d.env.ubuntu1604 {
		if err := d.installUbuntuDeps(); err != nil {
			return errcode.Annotate(err, "install ubuntu deps")
		}
		if err := d.installPythonDeps(); err != nil {
			return errcode.Annotate(err, "install python deps")
		}
	}
	if d.config.EnablePybind && d.env.windows() {
		if err := d.installPythonDeps(); err != nil {
			return errcode.Annotate(err, "install python deps")
		}
	}
	if !d.config.SkipSubmoduleSync {
		if err := d.updateSubmodules(); err != nil {
			return errcode.Annotate(err, "update submodules")
		}
	}
	return d.generateBuildTree()
}

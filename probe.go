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
	"strings"
)

// capability is the result of probing for an optional external test
// capability.
type capability int

const (
	capAvailable capability = iota
	capUnavailable
	capProbeError
)

// probePythonModules checks whether the given python modules can be
// imported. Probing is best effort: an import failure means the capability
// is unavailable; failing to run the probe at all is a separate state, and
// neither fails the run.
func (d *Driver) probePythonModules(mods ...string) capability {
	imports := "import " + strings.Join(mods, ", ")
	_, err := d.env.run.run(&invocation{
		args:    []string{d.config.PythonPath, "-c", imports},
		capture: true,
	})
	if err == nil {
		return capAvailable
	}
	if _, ok := err.(*execError); ok {
		return capUnavailable
	}
	log.Printf("warning: probe for %v failed: %s", mods, err)
	return capProbeError
}

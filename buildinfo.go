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
	"shanhu.io/misc/jsonutil"
)

// buildInfo is the build_info.json snapshot written into the build
// directory at the start of each run.
type buildInfo struct {
	Configs []string
	Phases  []string

	CUDAHome  string `json:",omitempty"`
	CUDNNHome string `json:",omitempty"`
}

func (p *phasePlan) names() []string {
	var names []string
	add := func(on bool, name string) {
		if on {
			names = append(names, name)
		}
	}
	add(p.update, "update")
	add(p.clean, "clean")
	add(p.build, "build")
	add(p.test, "test")
	add(p.onnxTest, "onnx-test")
	add(p.wheel, "wheel")
	return names
}

func writeBuildInfo(f string, info *buildInfo) error {
	return jsonutil.WriteFile(f, info)
}

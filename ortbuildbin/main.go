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
	"log"
	"os"

	ortbuild "github.com/zwxxx/onnxruntime"
)

func run(args []string) error {
	config, err := parseArgs(args)
	if err != nil {
		return err
	}
	d, err := ortbuild.NewDriver(config)
	if err != nil {
		return err
	}
	return d.Run()
}

// Main is the entrance for the ortbuild binary.
func Main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

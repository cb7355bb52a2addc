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
	"bufio"
	"os"
	"strings"
)

// insideDocker checks the container marker files. The driver skips host
// package installation when it already runs in a container.
func insideDocker() bool {
	if _, err := os.Lstat("/.dockerenv"); err == nil {
		return true
	}
	f, err := os.Open("/proc/self/cgroup")
	if err != nil {
		return false
	}
	defer f.Close()

	s := bufio.NewScanner(f)
	for s.Scan() {
		if strings.Contains(s.Text(), "docker") {
			return true
		}
	}
	return false
}

func isUbuntu1604() bool {
	bs, err := os.ReadFile("/etc/lsb-release")
	if err != nil {
		return false
	}
	isUbuntu := false
	is1604 := false
	for _, line := range strings.Split(string(bs), "\n") {
		switch strings.TrimSpace(line) {
		case "DISTRIB_ID=Ubuntu":
			isUbuntu = true
		case "DISTRIB_RELEASE=16.04":
			is1604 = true
		}
	}
	return isUbuntu && is1604
}

func underSudo(getenv func(string) string) bool {
	return getenv("SUDO_UID") != ""
}

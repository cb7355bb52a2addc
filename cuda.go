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
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"shanhu.io/misc/errcode"
	"shanhu.io/misc/osutil"
)

// resolvedPlatform carries the derived platform facts. It is computed once
// before any phase runs, and every later component reads it by parameter;
// nothing reads ambient process state.
type resolvedPlatform struct {
	cudaHome  string
	cudnnHome string

	cudaMajor int
	cudaMinor int

	// envAdd and pathAdd are the environment additions that every later
	// external invocation runs with.
	envAdd  map[string]string
	pathAdd []string
}

// resolvePlatform validates the accelerator setup and derives the
// environment view for later phases. With UseCUDA off it returns an empty
// platform.
func resolvePlatform(c *Config, e *env) (*resolvedPlatform, error) {
	p := &resolvedPlatform{envAdd: make(map[string]string)}
	if !c.UseCUDA {
		return p, nil
	}

	cudaHome, err := resolveHome(c.CUDAHome, "CUDA_HOME", e.getenv)
	if err != nil {
		return nil, errcode.Annotate(err, "resolve cuda home")
	}
	cudnnHome, err := resolveHome(c.CUDNNHome, "CUDNN_HOME", e.getenv)
	if err != nil {
		return nil, errcode.Annotate(err, "resolve cudnn home")
	}
	p.cudaHome = cudaHome
	p.cudnnHome = cudnnHome

	if !e.windows() {
		return p, nil
	}

	// cudnn_home must point at the "cuda" level of the install; the bin
	// subdirectory is the marker for a complete layout.
	binDir := filepath.Join(cudnnHome, "bin")
	isDir, err := osutil.IsDir(binDir)
	if err != nil {
		return nil, errcode.Annotate(err, "check cudnn bin dir")
	}
	if !isDir {
		return nil, errcode.Internalf(
			"cudnn home %q has no bin directory; "+
				"it must point at the cuda folder of the install",
			cudnnHome,
		)
	}

	major, minor, err := readCUDAVersion(
		filepath.Join(cudaHome, "version.txt"),
	)
	if err != nil {
		return nil, errcode.Annotate(err, "read cuda version")
	}
	p.cudaMajor = major
	p.cudaMinor = minor

	if err := checkToolset(major, e.getenv("VCToolsVersion")); err != nil {
		return nil, err
	}

	cudaBin := filepath.Join(cudaHome, "bin")
	p.envAdd["CUDA_PATH"] = cudaHome
	p.envAdd["CUDA_TOOLKIT_ROOT_DIR"] = cudaHome
	p.envAdd["CUDA_BIN_PATH"] = cudaBin
	// The Visual Studio build files look the home up by version.
	p.envAdd[fmt.Sprintf("CUDA_PATH_V%d_%d", major, minor)] = cudaHome
	p.pathAdd = append(p.pathAdd, cudaBin)
	p.pathAdd = append(p.pathAdd, filepath.Join(cudnnHome, "bin"))

	return p, nil
}

// resolveHome resolves an accelerator home directory: explicit value first,
// then the named environment variable. The resolved path must exist.
func resolveHome(
	explicit, envVar string, getenv func(string) string,
) (string, error) {
	home := explicit
	if home == "" {
		home = getenv(envVar)
	}
	if home == "" {
		return "", errcode.InvalidArgf(
			"path not given and %s is not set", envVar,
		)
	}
	isDir, err := osutil.IsDir(home)
	if err != nil {
		return "", errcode.Annotatef(err, "check %q", home)
	}
	if !isDir {
		return "", errcode.Internalf("%q is not a directory", home)
	}
	return home, nil
}

var cudaVersionLine = regexp.MustCompile(`CUDA Version (\d+)\.(\d+)`)

// parseCUDAVersion reads the major and minor version from the first line of
// a version marker, e.g. "CUDA Version 9.2.148".
func parseCUDAVersion(line string) (int, int, error) {
	m := cudaVersionLine.FindStringSubmatch(line)
	if m == nil {
		return 0, 0, errcode.Internalf(
			"cannot parse cuda version from %q", line,
		)
	}
	major, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, errcode.Annotate(err, "parse major version")
	}
	minor, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, errcode.Annotate(err, "parse minor version")
	}
	return major, minor, nil
}

func readCUDAVersion(file string) (int, int, error) {
	f, err := os.Open(file)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, errcode.Internalf(
				"no version file in cuda install; looked for %q", file,
			)
		}
		return 0, 0, err
	}
	defer f.Close()

	s := bufio.NewScanner(f)
	if !s.Scan() {
		return 0, 0, errcode.Internalf("version file %q is empty", file)
	}
	return parseCUDAVersion(s.Text())
}

// checkToolset verifies that the MSVC toolset pairs with the CUDA major
// version. A known-bad pairing is fatal; an undeterminable toolset version
// only warns, since unknown compatibility is a different risk class than
// known incompatibility.
func checkToolset(cudaMajor int, vcVer string) error {
	parts := strings.Split(vcVer, ".")
	if vcVer == "" || len(parts) != 3 {
		log.Printf(
			"warning: cannot verify toolset compatibility with CUDA; "+
				"VCToolsVersion is %q; will attempt to use", vcVer,
		)
		return nil
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		log.Printf(
			"warning: non-numeric toolset minor version in %q; "+
				"will attempt to use", vcVer,
		)
		return nil
	}
	if cudaMajor == 9 && parts[0] == "14" && minor > 11 {
		return errcode.Internalf(
			"toolset %q is not supported by CUDA v9; "+
				"use the 14.11 toolset", vcVer,
		)
	}
	return nil
}

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
	"bytes"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
)

// invocation is one external command execution. A fresh value is built for
// every call; it is never reused.
type invocation struct {
	args []string // Argument vector; args[0] is the binary.
	dir  string   // Working directory; empty means the current one.

	// dllPath is an extra dynamic-library search directory, appended to
	// PATH on Windows and LD_LIBRARY_PATH elsewhere.
	dllPath string

	// pathAdd is appended to the PATH variable for this call only.
	pathAdd []string

	// capture runs the command with stderr merged into stdout and returns
	// the combined output instead of streaming it.
	capture bool
}

// execError reports an external command that exited with a non-zero status.
type execError struct {
	args []string
	code int
}

func (e *execError) Error() string {
	return fmt.Sprintf(
		"command %q exited with code %d",
		strings.Join(e.args, " "), e.code,
	)
}

type runner interface {
	run(inv *invocation) ([]byte, error)
}

// execRunner runs commands on the host, with the environment additions that
// the platform resolver produced.
type execRunner struct {
	osName  string
	envAdd  map[string]string
	pathAdd []string
}

func pathListSep(osName string) string {
	if osName == "windows" {
		return ";"
	}
	return ":"
}

// mergeEnviron layers the platform env additions, the PATH additions and the
// dynamic-library search path onto a base environment.
func mergeEnviron(
	environ []string, osName string,
	envAdd map[string]string, pathAdd []string, dllPath string,
) []string {
	vars := make(map[string]string)
	var order []string

	set := func(k, v string) {
		if _, ok := vars[k]; !ok {
			order = append(order, k)
		}
		vars[k] = v
	}
	for _, kv := range environ {
		eq := strings.Index(kv, "=")
		if eq < 0 {
			continue
		}
		set(kv[:eq], kv[eq+1:])
	}

	// Windows environment keys are case-insensitive; the search path
	// usually arrives spelled "Path". Append to the existing key rather
	// than emitting a case-colliding duplicate.
	resolveKey := func(k string) string {
		if osName != "windows" {
			return k
		}
		for _, name := range order {
			if strings.EqualFold(name, k) {
				return name
			}
		}
		return k
	}

	appendPath := func(k, dir string) {
		k = resolveKey(k)
		if cur := vars[k]; cur != "" {
			set(k, cur+pathListSep(osName)+dir)
		} else {
			set(k, dir)
		}
	}

	for k, v := range envAdd {
		set(k, v)
	}
	for _, dir := range pathAdd {
		appendPath("PATH", dir)
	}
	if dllPath != "" {
		if osName == "windows" {
			appendPath("PATH", dllPath)
		} else {
			appendPath("LD_LIBRARY_PATH", dllPath)
		}
	}

	var out []string
	for _, k := range order {
		out = append(out, k+"="+vars[k])
	}
	return out
}

func (r *execRunner) run(inv *invocation) ([]byte, error) {
	dir := inv.dir
	if dir == "" {
		dir = "."
	}
	log.Printf("run %q in %q", strings.Join(inv.args, " "), dir)

	cmd := exec.Command(inv.args[0], inv.args[1:]...)
	cmd.Dir = inv.dir
	cmd.Env = mergeEnviron(
		os.Environ(), r.osName, r.envAdd,
		append(append([]string{}, r.pathAdd...), inv.pathAdd...),
		inv.dllPath,
	)

	var buf bytes.Buffer
	if inv.capture {
		cmd.Stdout = &buf
		cmd.Stderr = &buf
	} else {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Run(); err != nil {
		if exit, ok := err.(*exec.ExitError); ok {
			return buf.Bytes(), &execError{
				args: inv.args,
				code: exit.ExitCode(),
			}
		}
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *env) runCmd(dir string, args ...string) error {
	_, err := e.run.run(&invocation{args: args, dir: dir})
	return err
}

func (e *env) runCmdOutput(dir string, args ...string) ([]byte, error) {
	return e.run.run(&invocation{args: args, dir: dir, capture: true})
}

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
	"testing"
)

// fakeRunner records every invocation instead of executing it.
type fakeRunner struct {
	calls []*invocation

	// respond, when set, provides the output and error per invocation.
	respond func(inv *invocation) ([]byte, error)
}

func (r *fakeRunner) run(inv *invocation) ([]byte, error) {
	r.calls = append(r.calls, inv)
	if r.respond != nil {
		return r.respond(inv)
	}
	return nil, nil
}

// binaries returns args[0] of each recorded call.
func (r *fakeRunner) binaries() []string {
	var bins []string
	for _, c := range r.calls {
		bins = append(bins, c.args[0])
	}
	return bins
}

func newTestEnv(t *testing.T, osName string) (*env, *fakeRunner) {
	t.Helper()
	r := &fakeRunner{}
	e := &env{
		srcDir:   t.TempDir(),
		buildDir: t.TempDir(),
		osName:   osName,
		cacheDir: t.TempDir(),
		lookPath: func(name string) (string, error) {
			return "/usr/bin/" + name, nil
		},
		getenv: func(string) string { return "" },
		run:    r,
	}
	return e, r
}

func newTestDriver(t *testing.T, config *Config) (*Driver, *fakeRunner) {
	t.Helper()
	e, r := newTestEnv(t, "linux")
	if config.BuildDir == "" {
		config.BuildDir = e.buildDir
	}
	if config.SourceDir == "" {
		config.SourceDir = e.srcDir
	}
	d, err := newDriver(config, e)
	if err != nil {
		t.Fatalf("new driver: %s", err)
	}
	return d, r
}

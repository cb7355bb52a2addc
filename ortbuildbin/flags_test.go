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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	config, err := parseArgs([]string{
		"-build_dir", "/tmp/build",
		"-config", "Release,Debug",
		"-cmake_extra_defines", "FOO=1, BAR=baz",
		"-use_cuda",
	})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/build", config.BuildDir)
	assert.Equal(t, []string{"Release", "Debug"}, config.Configs)
	assert.Equal(t, []string{"FOO=1", "BAR=baz"},
		config.CMakeExtraDefines)
	assert.True(t, config.UseCUDA)
}

func TestParseArgsRejectsPositional(t *testing.T) {
	_, err := parseArgs([]string{"-build_dir", "/tmp/build", "stray"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stray")
}

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
	"crypto/md5"
	"encoding/hex"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"

	"shanhu.io/misc/errcode"
	"shanhu.io/misc/jsonx"
	"shanhu.io/misc/osutil"
)

// TestData specifies a downloadable test-data archive. The last path
// segment of URL must be unique across archives, as it keys the local
// cache.
type TestData struct {
	URL string
	MD5 string
}

var defaultTestData = &TestData{
	URL: "https://onnxruntimetestdata.blob.core.windows.net" +
		"/models/20181210.zip",
	MD5: "a966def7447f4ff04f5665bca235b3f3",
}

const testDataFile = "testdata.jsonx"

// readTestData loads the archive spec from the source tree, falling back to
// the built-in default when the file is absent.
func readTestData(e *env) (*TestData, error) {
	f := e.src(testDataFile)
	ok, err := osutil.IsRegular(f)
	if err != nil {
		return nil, errcode.Annotate(err, "check test data spec")
	}
	if !ok {
		return defaultTestData, nil
	}
	d := new(TestData)
	if err := jsonx.ReadFile(f, d); err != nil {
		return nil, errcode.Annotate(err, "read test data spec")
	}
	if d.URL == "" || d.MD5 == "" {
		return nil, errcode.InvalidArgf(
			"test data spec %q misses url or checksum", f,
		)
	}
	return d, nil
}

func fileMD5(f string) (string, error) {
	r, err := os.Open(f)
	if err != nil {
		return "", err
	}
	defer r.Close()

	h := md5.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// checkMD5 reports whether f exists with the expected checksum. A file with
// a mismatched checksum counts as absent and is removed.
func checkMD5(f, want string) (bool, error) {
	ok, err := osutil.IsRegular(f)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	sum, err := fileMD5(f)
	if err != nil {
		return false, errcode.Annotate(err, "checksum")
	}
	if sum != want {
		log.Printf("md5 mismatch, want %s, got %s", want, sum)
		if err := os.Remove(f); err != nil {
			return false, errcode.Annotate(err, "remove stale file")
		}
		return false, nil
	}
	return true, nil
}

// downloadTestData provisions the model test data under the build
// directory. It runs only where the parallel downloader is available;
// anywhere else the step silently skips and the model tests later find no
// data.
func (d *Driver) downloadTestData(data *TestData) error {
	e := d.env
	if e.windows() || e.cacheDir == "" {
		return nil
	}
	if _, err := e.lookPath("aria2c"); err != nil {
		return nil
	}

	if err := os.MkdirAll(e.cacheDir, 0700); err != nil {
		return errcode.Annotate(err, "make cache dir")
	}
	zipFile := filepath.Join(e.cacheDir, path.Base(data.URL))

	ok, err := checkMD5(zipFile, data.MD5)
	if err != nil {
		return errcode.Annotate(err, "check cached archive")
	}
	if !ok {
		log.Println("downloading test data")
		if err := e.runCmd("", "aria2c",
			"-x", "5", "-j", "5", "-q",
			data.URL, "-d", e.cacheDir,
		); err != nil {
			return errcode.Annotate(err, "download test data")
		}
	}

	modelsDir := e.out("models")
	if exist, err := osutil.IsDir(modelsDir); err != nil {
		return errcode.Annotate(err, "check models dir")
	} else if exist {
		log.Printf("deleting %s", modelsDir)
		if err := os.RemoveAll(modelsDir); err != nil {
			return errcode.Annotate(err, "remove old models")
		}
	}
	if err := e.runCmd("", "unzip", "-qd", modelsDir, zipFile); err != nil {
		return errcode.Annotate(err, "extract test data")
	}
	return nil
}

// Copyright 2017 The Upspin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package archive

import (
	"archive/tar"
	"io"
	"io/ioutil"
	"os"

	"github.com/klauspost/compress/gzip"

	"turnin.io/errors"
	"turnin.io/turnin"
)

// Contents summarizes a verified archive.
type Contents struct {
	Members int   // Number of tar entries.
	Size    int64 // Compressed size in bytes.
}

// Verify reads a whole gzip-compressed tar stream and reports an error
// if it is not well formed.
func Verify(r io.Reader) (Contents, error) {
	const op = "archive.Verify"
	var c Contents
	cr := &countingReader{r: r}
	zr, err := gzip.NewReader(cr)
	if err != nil {
		return c, errors.E(op, errors.Invalid, errors.Errorf("not a gzip stream: %v", err))
	}
	defer zr.Close()
	tr := tar.NewReader(zr)
	for {
		_, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return c, errors.E(op, errors.Invalid, errors.Errorf("bad tar stream: %v", err))
		}
		if _, err := io.Copy(ioutil.Discard, tr); err != nil {
			return c, errors.E(op, errors.Invalid, errors.Errorf("bad tar stream: %v", err))
		}
		c.Members++
	}
	// Read to the end of the gzip stream so its checksum is verified.
	// tar pads its output past the end-of-archive marker. The drain must
	// use Read: the reader's WriteTo miscounts the checksum once Read has
	// been called.
	if _, err := io.Copy(ioutil.Discard, struct{ io.Reader }{zr}); err != nil {
		return c, errors.E(op, errors.Invalid, errors.Errorf("bad gzip stream: %v", err))
	}
	if _, err := io.Copy(ioutil.Discard, cr); err != nil {
		return c, errors.E(op, errors.IO, err)
	}
	c.Size = cr.n
	return c, nil
}

// VerifyFile is Verify applied to the named file.
func VerifyFile(name string) (Contents, error) {
	f, err := os.Open(name)
	if err != nil {
		return Contents{}, errors.E(turnin.PathName(name), errors.IO, err)
	}
	defer f.Close()
	c, err := Verify(f)
	if err != nil {
		return c, errors.E(turnin.PathName(name), err)
	}
	return c, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

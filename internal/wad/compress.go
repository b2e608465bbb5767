// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package wad

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/therootcompany/xz"
)

// Compressed reports whether name is a wad behind a whole-file
// compression wrapper, which Open inflates transparently.
func Compressed(name string) bool {
	name = strings.ToLower(name)
	return strings.HasSuffix(name, ".wad.gz") ||
		strings.HasSuffix(name, ".wad.bz2") ||
		strings.HasSuffix(name, ".wad.xz")
}

func openCompressed(name string) (*File, func() error, error) {
	raw, err := os.ReadFile(name)
	if err != nil {
		return nil, nil, err
	}
	var r io.Reader
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gz":
		r, err = gzip.NewReader(bytes.NewReader(raw))
	case ".bz2":
		r = bzip2.NewReader(bytes.NewReader(raw))
	case ".xz":
		r, err = xz.NewReader(bytes.NewReader(raw), xz.DefaultDictMax)
	}
	if err != nil {
		return nil, nil, err
	}
	img, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}
	f, err := New(bytes.NewReader(img), int64(len(img)))
	if err != nil {
		return nil, nil, err
	}
	return f, func() error { return nil }, nil
}

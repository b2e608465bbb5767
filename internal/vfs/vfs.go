// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package vfs overlays the three package container types (folder, zip
// family, monolithic wad) with one case-insensitive namespace, so the
// text parsers are written once instead of per container.
//
// Wads embedded in a folder are unwrapped into a sub-namespace under
// the wad's own file name, the way folder mods ship companion wads.
// Compressed wads (.wad.gz/.bz2/.xz) are inflated to memory first.
package vfs

import (
	"archive/zip"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/elliotnunn/wadscan/internal/wad"
)

type FS struct {
	entries []entry
	byPath  map[string]int   // lowercased full path
	byLump  map[string][]int // canonical 8-char token, mount order
	closers []func() error
}

type entry struct {
	path string // as mounted, forward slashes
	read func() ([]byte, error)
}

var zipExts = map[string]bool{".zip": true, ".pk3": true, ".pke": true, ".ipk3": true}

// IsZipPath reports whether name has a ZIP-family extension.
func IsZipPath(name string) bool {
	return zipExts[strings.ToLower(filepath.Ext(name))]
}

// IsWadPath reports whether name looks like a monolithic archive,
// plain or compressed.
func IsWadPath(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".wad") || wad.Compressed(name)
}

// BaseToken reduces an entry path to the 8-character token its base
// file name would occupy in a lump directory.
func BaseToken(pathname string) string {
	return wad.Canon(stripExt(path.Base(pathname)))
}

// Mount builds a namespace from a filesystem path, inferring the
// container type from existence and extension. Unknown file types
// yield an empty (not nil) namespace.
func Mount(name string) (*FS, error) {
	o := newFS()

	inf, err := os.Stat(name)
	if err != nil {
		return nil, err
	}
	if inf.IsDir() {
		if err := o.mountDir(name, ""); err != nil {
			o.Close()
			return nil, err
		}
		return o, nil
	}

	switch {
	case IsZipPath(name):
		err = o.mountZip(name)
	case IsWadPath(name):
		err = o.mountWadFile(name, "")
	}
	if err != nil {
		o.Close()
		return nil, err
	}
	return o, nil
}

func newFS() *FS {
	return &FS{byPath: make(map[string]int), byLump: make(map[string][]int)}
}

// Close releases any container handles held open for lazy reads.
func (o *FS) Close() error {
	var err error
	for _, c := range o.closers {
		if e := c(); err == nil {
			err = e
		}
	}
	o.closers = nil
	return err
}

func (o *FS) add(pathname string, read func() ([]byte, error)) {
	o.entries = append(o.entries, entry{pathname, read})
	i := len(o.entries) - 1
	o.byPath[strings.ToLower(pathname)] = i
	tok := wad.Canon(stripExt(path.Base(pathname)))
	o.byLump[tok] = append(o.byLump[tok], i)
}

func stripExt(base string) string {
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		return base[:i]
	}
	return base
}

func (o *FS) mountDir(dir, prefix string) error {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, ent := range ents {
		name := ent.Name()
		full := filepath.Join(dir, name)
		switch {
		case ent.IsDir():
			// a sub-namespace under the directory's name
			if err := o.mountDir(full, prefix+name+"/"); err != nil {
				return err
			}
		case IsWadPath(name):
			if err := o.mountWadFile(full, prefix+name+"/"); err != nil {
				// an unreadable companion wad is skipped, not fatal
				continue
			}
		default:
			o.add(prefix+name, func() ([]byte, error) { return os.ReadFile(full) })
		}
	}
	return nil
}

func (o *FS) mountZip(name string) error {
	r, err := zip.OpenReader(name)
	if err != nil {
		return err
	}
	o.closers = append(o.closers, r.Close)
	for _, f := range r.File {
		pathname := strings.ReplaceAll(f.Name, `\`, "/")
		if strings.HasSuffix(pathname, "/") || f.FileInfo().IsDir() {
			continue
		}
		o.add(pathname, func() ([]byte, error) {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		})
	}
	return nil
}

func (o *FS) mountWadFile(name, prefix string) error {
	f, closer, err := wad.Open(name)
	if err != nil {
		return err
	}
	o.closers = append(o.closers, closer)
	o.mountWad(f, prefix)
	return nil
}

func (o *FS) mountWad(f *wad.File, prefix string) {
	for _, l := range f.Lumps {
		o.add(prefix+l.Name, func() ([]byte, error) { return f.ReadLump(l) })
	}
}

// ReadFile returns the entry at exactly this path, case-insensitively.
// Absence is fs.ErrNotExist.
func (o *FS) ReadFile(pathname string) ([]byte, error) {
	pathname = strings.ToLower(strings.ReplaceAll(pathname, `\`, "/"))
	i, ok := o.byPath[pathname]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return o.entries[i].read()
}

// ReadLump returns the first entry whose base file name, truncated to
// 8 characters, equals name (case-insensitively, extension ignored).
func (o *FS) ReadLump(name string) ([]byte, error) {
	is := o.byLump[wad.Canon(name)]
	if len(is) == 0 {
		return nil, fs.ErrNotExist
	}
	return o.entries[is[0]].read()
}

// ReadAllLumps returns every match for name in mount order, for lumps
// that layer across mods. No match is fs.ErrNotExist.
func (o *FS) ReadAllLumps(name string) ([][]byte, error) {
	is := o.byLump[wad.Canon(name)]
	if len(is) == 0 {
		return nil, fs.ErrNotExist
	}
	all := make([][]byte, 0, len(is))
	for _, i := range is {
		b, err := o.entries[i].read()
		if err != nil {
			return nil, err
		}
		all = append(all, b)
	}
	return all, nil
}

// HasLump reports a match for ReadLump without reading anything.
func (o *FS) HasLump(name string) bool {
	return len(o.byLump[wad.Canon(name)]) > 0
}

// Paths lists every entry in mount order.
func (o *FS) Paths() []string {
	ps := make([]string, len(o.entries))
	for i, e := range o.entries {
		ps[i] = e.path
	}
	return ps
}

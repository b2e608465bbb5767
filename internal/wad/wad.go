// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package wad reads the directory of a monolithic id-tech archive
// and extracts lumps on demand.
//
// The format is all little-endian: a 4-byte magic ("IWAD" or "PWAD"),
// an int32 lump count, an int32 directory offset, and at that offset
// one 16-byte record per lump (int32 data offset, int32 data size,
// 8-byte NUL-padded name).
package wad

import (
	"encoding/binary"
	"errors"
	"io"
	"os"
	"strings"
)

var ErrFormat = errors.New("wad: not a valid wad file")

type Kind int

const (
	IWAD Kind = iota // base game data, self-contained
	PWAD             // add-on, patches over base data
)

type Lump struct {
	Name string // trimmed of trailing NULs, at most 8 bytes
	Off  int64
	Size int64
}

type File struct {
	r     io.ReaderAt
	Kind  Kind
	Lumps []Lump
}

const (
	headerLen = 12
	dirEntLen = 16
)

// New reads the header and directory. Records pointing outside the
// stream are dropped rather than failing the whole archive.
func New(r io.ReaderAt, size int64) (*File, error) {
	var header [headerLen]byte
	if _, err := r.ReadAt(header[:], 0); err != nil {
		return nil, ErrFormat
	}

	var kind Kind
	switch string(header[:4]) {
	case "IWAD":
		kind = IWAD
	case "PWAD":
		kind = PWAD
	default:
		return nil, ErrFormat
	}

	n := int64(int32(binary.LittleEndian.Uint32(header[4:])))
	dirOff := int64(int32(binary.LittleEndian.Uint32(header[8:])))
	if n < 0 || dirOff < 0 || dirOff+n*dirEntLen > size {
		return nil, ErrFormat
	}

	dir := make([]byte, n*dirEntLen)
	if _, err := r.ReadAt(dir, dirOff); err != nil {
		return nil, ErrFormat
	}

	f := &File{r: r, Kind: kind, Lumps: make([]Lump, 0, n)}
	for ent := dir; len(ent) > 0; ent = ent[dirEntLen:] {
		off := int64(int32(binary.LittleEndian.Uint32(ent)))
		sz := int64(int32(binary.LittleEndian.Uint32(ent[4:])))
		name := strings.TrimRight(string(ent[8:16]), "\x00")
		if off < 0 || sz < 0 || off+sz > size {
			continue
		}
		f.Lumps = append(f.Lumps, Lump{Name: name, Off: off, Size: sz})
	}
	return f, nil
}

// Open is a convenience around New that owns the underlying file.
// The returned close func must be called once the lumps are no longer
// needed. Compressed wads (.wad.gz/.bz2/.xz) are inflated to memory.
func Open(name string) (*File, func() error, error) {
	if Compressed(name) {
		return openCompressed(name)
	}
	osf, err := os.Open(name)
	if err != nil {
		return nil, nil, err
	}
	inf, err := osf.Stat()
	if err != nil {
		osf.Close()
		return nil, nil, err
	}
	f, err := New(osf, inf.Size())
	if err != nil {
		osf.Close()
		return nil, nil, err
	}
	return f, osf.Close, nil
}

func (f *File) ReadLump(l Lump) ([]byte, error) {
	buf := make([]byte, l.Size)
	_, err := io.ReadFull(io.NewSectionReader(f.r, l.Off, l.Size), buf)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Lump returns the last directory entry matching name
// (the engines let later lumps shadow earlier ones).
func (f *File) Lump(name string) (Lump, bool) {
	name = Canon(name)
	for i := len(f.Lumps) - 1; i >= 0; i-- {
		if Canon(f.Lumps[i].Name) == name {
			return f.Lumps[i], true
		}
	}
	return Lump{}, false
}

// Canon reduces a lump or file base name to the 8-character
// case-insensitive token the directory format compares by.
func Canon(name string) string {
	if len(name) > 8 {
		name = name[:8]
	}
	return strings.ToUpper(strings.TrimRight(name, "\x00"))
}

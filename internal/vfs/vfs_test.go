// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package vfs

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

// wadImage assembles a minimal wad in memory.
func wadImage(magic string, lumps ...struct {
	name string
	body []byte
}) []byte {
	var data, b bytes.Buffer
	type ent struct {
		off, size int32
		name      string
	}
	var dir []ent
	for _, l := range lumps {
		dir = append(dir, ent{int32(12 + data.Len()), int32(len(l.body)), l.name})
		data.Write(l.body)
	}
	b.WriteString(magic)
	binary.Write(&b, binary.LittleEndian, int32(len(dir)))
	binary.Write(&b, binary.LittleEndian, int32(12+data.Len()))
	b.Write(data.Bytes())
	for _, e := range dir {
		binary.Write(&b, binary.LittleEndian, e.off)
		binary.Write(&b, binary.LittleEndian, e.size)
		var name [8]byte
		copy(name[:], e.name)
		b.Write(name[:])
	}
	return b.Bytes()
}

func lump(name, body string) struct {
	name string
	body []byte
} {
	return struct {
		name string
		body []byte
	}{name, []byte(body)}
}

func write(t *testing.T, name string, body []byte) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(name), 0o777); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(name, body, 0o666); err != nil {
		t.Fatal(err)
	}
	return name
}

func mount(t *testing.T, name string) *FS {
	t.Helper()
	fsys, err := Mount(name)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { fsys.Close() })
	return fsys
}

func TestMountDir(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "language.csv"), []byte("Identifier,default\n"))
	write(t, filepath.Join(dir, "HUSTR_1.txt"), []byte("hangar"))
	write(t, filepath.Join(dir, "hustr_1x"), []byte("decoy"))
	write(t, filepath.Join(dir, "maps", "deep.txt"), []byte("nested"))
	fsys := mount(t, dir)

	for _, p := range []string{"language.csv", "LANGUAGE.CSV", "Language.Csv", "maps/DEEP.txt"} {
		if _, err := fsys.ReadFile(p); err != nil {
			t.Errorf("ReadFile(%q): %v", p, err)
		}
	}
	if _, err := fsys.ReadFile("nope.txt"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing file: expect fs.ErrNotExist got %v", err)
	}

	if b, err := fsys.ReadLump("HUSTR_1"); err != nil || string(b) != "hangar" {
		t.Errorf("lump by base name: got %q, %v", b, err)
	}
	// 8-char comparison is exact, hustr_1x must not answer for HUSTR_1
	if b, _ := fsys.ReadLump("hustr_1"); string(b) == "decoy" {
		t.Error("hustr_1x wrongly matched HUSTR_1")
	}
	if _, err := fsys.ReadLump("HUSTR_1X"); err != nil {
		t.Errorf("hustr_1x should answer for its own token: %v", err)
	}
}

func TestMountDirEmbeddedWad(t *testing.T) {
	dir := t.TempDir()
	img := wadImage("PWAD", lump("MAP01", ""), lump("THINGS", "tt"))
	write(t, filepath.Join(dir, "maps", "inner.wad"), img)
	fsys := mount(t, dir)

	if b, err := fsys.ReadFile("maps/inner.wad/THINGS"); err != nil || string(b) != "tt" {
		t.Errorf("embedded wad lump by path: got %q, %v", b, err)
	}
	if !fsys.HasLump("MAP01") {
		t.Error("embedded wad lumps should join the lump namespace")
	}
}

func TestMountWad(t *testing.T) {
	dir := t.TempDir()
	img := wadImage("IWAD", lump("E1M1", ""), lump("LANGUAGE", `[default] K = "v";`))
	name := write(t, filepath.Join(dir, "game.wad"), img)
	fsys := mount(t, name)

	if !fsys.HasLump("e1m1") {
		t.Error("lump lookup should be case-insensitive")
	}
	all, err := fsys.ReadAllLumps("LANGUAGE")
	if err != nil || len(all) != 1 {
		t.Errorf("ReadAllLumps: %d, %v", len(all), err)
	}
}

func TestMountCompressedWad(t *testing.T) {
	dir := t.TempDir()
	var gz bytes.Buffer
	w := gzip.NewWriter(&gz)
	w.Write(wadImage("PWAD", lump("MAP01", "")))
	w.Close()
	name := write(t, filepath.Join(dir, "mod.wad.gz"), gz.Bytes())

	fsys := mount(t, name)
	if !fsys.HasLump("MAP01") {
		t.Error("gzipped wad should mount like a plain one")
	}
}

func TestMountZip(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range map[string]string{
		"MAPINFO.txt":        "map MAP01 \"x\" {}",
		"maps/MAP01.wad":     "stub",
		`back\slashed.txt`:   "bs",
		"sounds/.keep/":      "", // explicit directory entry
	} {
		f, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		f.Write([]byte(body))
	}
	zw.Close()
	name := write(t, filepath.Join(dir, "mod.pk3"), buf.Bytes())

	fsys := mount(t, name)
	if _, err := fsys.ReadFile("maps/map01.wad"); err != nil {
		t.Errorf("zip entry by path: %v", err)
	}
	if _, err := fsys.ReadFile("back/slashed.txt"); err != nil {
		t.Errorf("backslashes should normalize: %v", err)
	}
	if !fsys.HasLump("MAPINFO") {
		t.Error("zip entries should join the lump namespace")
	}
	if slices.Contains(fsys.Paths(), "sounds/.keep/") {
		t.Error("directory entries should be skipped")
	}
}

func TestMountUnknownType(t *testing.T) {
	dir := t.TempDir()
	name := write(t, filepath.Join(dir, "readme.txt"), []byte("hello"))
	fsys := mount(t, name)
	if len(fsys.Paths()) != 0 {
		t.Errorf("unknown file type should mount empty, got %v", fsys.Paths())
	}
}

func TestMountMissing(t *testing.T) {
	if _, err := Mount(filepath.Join(t.TempDir(), "gone")); err == nil {
		t.Error("expect an error for a nonexistent path")
	}
}

// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpand(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"mods/good.wad",
		"mods/good.pk3",
		"mods/backup/old.wad",
		"mods/readme.txt",
	} {
		full := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o777); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, nil, 0o666); err != nil {
			t.Fatal(err)
		}
	}

	*scanFlag = true
	*skipFlag = "**/backup/**"
	defer func() { *scanFlag = false; *skipFlag = "" }()

	got := expand(dir)
	want := []string{
		filepath.Join(dir, "mods", "good.pk3"),
		filepath.Join(dir, "mods", "good.wad"),
	}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestExpandPlainFileArg(t *testing.T) {
	got := expand("whatever.wad")
	if len(got) != 1 || got[0] != "whatever.wad" {
		t.Errorf("non-directory arguments pass through: %v", got)
	}
}

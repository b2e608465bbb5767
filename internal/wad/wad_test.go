// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package wad

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// synth assembles a wad image in memory: lump data packed after the
// header, directory at the end.
func synth(magic string, lumps map[string][]byte, order []string) []byte {
	var data bytes.Buffer
	type ent struct {
		off, size int32
		name      string
	}
	var dir []ent
	for _, name := range order {
		dir = append(dir, ent{int32(headerLen + data.Len()), int32(len(lumps[name])), name})
		data.Write(lumps[name])
	}

	var b bytes.Buffer
	b.WriteString(magic)
	binary.Write(&b, binary.LittleEndian, int32(len(dir)))
	binary.Write(&b, binary.LittleEndian, int32(headerLen+data.Len()))
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

func TestReadDirectory(t *testing.T) {
	img := synth("PWAD", map[string][]byte{
		"MAP01":    nil,
		"THINGS":   []byte("tttt"),
		"TEXTMAP":  []byte("namespace = \"zdoom\";"),
		"ENDMAP":   nil,
		"LANGUAGE": []byte("[default]\nX = \"y\";"),
	}, []string{"MAP01", "THINGS", "TEXTMAP", "ENDMAP", "LANGUAGE"})

	f, err := New(bytes.NewReader(img), int64(len(img)))
	if err != nil {
		t.Fatal(err)
	}
	if f.Kind != PWAD {
		t.Errorf("kind: expect PWAD got %v", f.Kind)
	}
	if len(f.Lumps) != 5 {
		t.Fatalf("lump count: expect 5 got %d", len(f.Lumps))
	}
	if f.Lumps[0].Name != "MAP01" || f.Lumps[0].Size != 0 {
		t.Errorf("first lump: got %+v", f.Lumps[0])
	}

	l, ok := f.Lump("things")
	if !ok {
		t.Fatal("THINGS not found case-insensitively")
	}
	got, err := f.ReadLump(l)
	if err != nil || string(got) != "tttt" {
		t.Errorf("ReadLump: got %q, %v", got, err)
	}
}

func TestMagic(t *testing.T) {
	img := synth("IWAD", map[string][]byte{"E1M1": nil}, []string{"E1M1"})
	f, err := New(bytes.NewReader(img), int64(len(img)))
	if err != nil {
		t.Fatal(err)
	}
	if f.Kind != IWAD {
		t.Errorf("kind: expect IWAD got %v", f.Kind)
	}

	img[0] = 'Z'
	if _, err := New(bytes.NewReader(img), int64(len(img))); !errors.Is(err, ErrFormat) {
		t.Errorf("bad magic: expect ErrFormat got %v", err)
	}
}

func TestTruncated(t *testing.T) {
	img := synth("PWAD", map[string][]byte{"DEMO1": []byte("x")}, []string{"DEMO1"})
	for _, n := range []int{0, 4, 11, len(img) - 1} {
		if _, err := New(bytes.NewReader(img[:n]), int64(n)); !errors.Is(err, ErrFormat) {
			t.Errorf("truncated at %d: expect ErrFormat got %v", n, err)
		}
	}
}

func TestBadRecordSkipped(t *testing.T) {
	img := synth("PWAD", map[string][]byte{"GOOD": []byte("g"), "BAD": []byte("b")}, []string{"GOOD", "BAD"})
	// point the second record's offset past end of stream
	dirOff := int64(binary.LittleEndian.Uint32(img[8:]))
	binary.LittleEndian.PutUint32(img[dirOff+dirEntLen:], 1<<30)

	f, err := New(bytes.NewReader(img), int64(len(img)))
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Lumps) != 1 || f.Lumps[0].Name != "GOOD" {
		t.Errorf("expect only GOOD to survive, got %+v", f.Lumps)
	}
}

func TestCanon(t *testing.T) {
	cases := [][2]string{
		{"map01", "MAP01"},
		{"LANGUAGE", "LANGUAGE"},
		{"languagex", "LANGUAGE"},
		{"E1M1\x00\x00\x00", "E1M1"},
	}
	for _, c := range cases {
		if got := Canon(c[0]); got != c[1] {
			t.Errorf("Canon(%q): expect %q got %q", c[0], c[1], got)
		}
	}
}

// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package classify decides what a content package is: base game data
// or add-on, with or without levels, episodic or sequential, and what
// its levels are called. It never fails: anything unreadable comes
// back as the most conservative answer, an add-on with no levels.
package classify

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/elliotnunn/wadscan/internal/lang"
	"github.com/elliotnunn/wadscan/internal/mapinfo"
	"github.com/elliotnunn/wadscan/internal/vfs"
	"github.com/elliotnunn/wadscan/internal/wad"
)

type Scheme string

const (
	Episodic   Scheme = "episodic"   // E1M1-style numbering
	Sequential Scheme = "sequential" // MAP01-style numbering
	Unknown    Scheme = ""
)

type Classification struct {
	Path        string            `json:"path"`
	DisplayName string            `json:"displayName"`
	AddOn       bool              `json:"addOn"`
	HasLevels   bool              `json:"hasLevels"`
	Scheme      Scheme            `json:"scheme,omitempty"`
	LevelNames  map[string]string `json:"levelNames,omitempty"`
	LevelIDs    []string          `json:"levelIds,omitempty"`
}

// Options carries the process-wide inputs as explicit read-only
// snapshots; nothing in this package touches ambient state.
type Options struct {
	Global    lang.Table        // shared fallback string table
	BaseNames map[string]string // base-data filename (lower) to display title
}

// Classify inspects one package path. Container type is inferred from
// existence and extension; stream and format errors degrade to
// {AddOn: true, HasLevels: false} instead of propagating, and a
// malformed LANGUAGE table only costs that package its level names.
func Classify(name string, opt Options) Classification {
	c := Classification{Path: name, AddOn: true, DisplayName: filepath.Base(name)}

	inf, err := os.Stat(name)
	if err != nil {
		return c
	}

	var fsys *vfs.FS
	switch {
	case inf.IsDir():
		fsys, err = vfs.Mount(name)
		if err != nil {
			return c
		}
		defer fsys.Close()
		c.HasLevels, c.Scheme = dirLevels(fsys)

	case vfs.IsWadPath(name):
		f, closer, err := wad.Open(name)
		if err != nil {
			return c
		}
		c.AddOn = f.Kind != wad.IWAD
		c.Scheme = markerScheme(lumpTokens(f))
		// base data is assumed playable whether or not a marker shows
		c.HasLevels = c.Scheme != Unknown || !c.AddOn
		closer()

	case vfs.IsZipPath(name):
		fsys, err = vfs.Mount(name)
		if err != nil {
			return c
		}
		defer fsys.Close()
		c.HasLevels, c.Scheme = zipLevels(fsys)

	default:
		return c
	}

	if !c.AddOn {
		if title, ok := opt.BaseNames[strings.ToLower(filepath.Base(name))]; ok {
			c.DisplayName = title
		}
	}
	if !c.HasLevels {
		return c
	}

	if fsys == nil {
		fsys, err = vfs.Mount(name)
		if err != nil {
			return c
		}
		defer fsys.Close()
	}

	names, err := mapinfo.Names(fsys, opt.Global)
	if err != nil {
		names = nil // a LANGUAGE table this engine does not understand
	}
	if len(names) > 0 {
		c.LevelNames = names
		return c
	}

	c.LevelIDs = vocabularyScan(fsys)
	if !c.AddOn && len(c.LevelIDs) > 0 {
		c.LevelNames = synthesize(c.DisplayName, c.LevelIDs, opt.Global)
	}
	return c
}

func lumpTokens(f *wad.File) []string {
	toks := make([]string, len(f.Lumps))
	for i, l := range f.Lumps {
		toks[i] = wad.Canon(l.Name)
	}
	return toks
}

// markerScheme looks for a numbering scheme's start marker among lump
// tokens: MAP01 means sequential, E1M1 episodic.
func markerScheme(tokens []string) Scheme {
	var episodic bool
	for _, t := range tokens {
		switch t {
		case "MAP01":
			return Sequential
		case "E1M1":
			episodic = true
		}
	}
	if episodic {
		return Episodic
	}
	return Unknown
}

// dirLevels applies the directory heuristic: a maps/ subdirectory
// must exist, and either an embedded wad carries a start marker or a
// file directly inside maps/ is named for one.
func dirLevels(fsys *vfs.FS) (bool, Scheme) {
	paths := fsys.Paths()

	var hasMapsDir bool
	for _, p := range paths {
		if strings.HasPrefix(strings.ToLower(p), "maps/") {
			hasMapsDir = true
			break
		}
	}
	if !hasMapsDir {
		return false, Unknown
	}

	var tokens []string
	for _, p := range paths {
		parts := strings.Split(p, "/")
		switch {
		case len(parts) >= 2 && vfs.IsWadPath(parts[len(parts)-2]):
			// a lump inside an embedded wad
			tokens = append(tokens, wad.Canon(parts[len(parts)-1]))
		case len(parts) == 2 && strings.EqualFold(parts[0], "maps"):
			tokens = append(tokens, vfs.BaseToken(p))
		}
	}
	if s := markerScheme(tokens); s != Unknown {
		return true, s
	}
	return false, Unknown
}

// zipLevels applies the archive-entry heuristic: rerun the binary
// header scan over every buffered .wad entry, then fall back to
// start-marker base names under maps/.
func zipLevels(fsys *vfs.FS) (bool, Scheme) {
	paths := fsys.Paths()

	for _, p := range paths {
		if !strings.HasSuffix(strings.ToLower(p), ".wad") {
			continue
		}
		b, err := fsys.ReadFile(p)
		if err != nil {
			continue
		}
		f, err := wad.New(bytes.NewReader(b), int64(len(b)))
		if err != nil {
			continue
		}
		if s := markerScheme(lumpTokens(f)); s != Unknown {
			return true, s
		}
	}

	var tokens []string
	for _, p := range paths {
		if strings.HasPrefix(strings.ToLower(p), "maps/") {
			tokens = append(tokens, vfs.BaseToken(p))
		}
	}
	if s := markerScheme(tokens); s != Unknown {
		return true, s
	}
	return false, Unknown
}

// levelVocabulary is the fixed level-identifier vocabulary:
// E1M1 through E4M9, then MAP01 through MAP30.
var levelVocabulary = func() []string {
	var v []string
	for e := 1; e <= 4; e++ {
		for m := 1; m <= 9; m++ {
			v = append(v, fmt.Sprintf("E%dM%d", e, m))
		}
	}
	for n := 1; n <= 30; n++ {
		v = append(v, fmt.Sprintf("MAP%02d", n))
	}
	return v
}()

func vocabularyScan(fsys *vfs.FS) []string {
	var ids []string
	for _, id := range levelVocabulary {
		if fsys.HasLump(id) {
			ids = append(ids, id)
		}
	}
	return ids
}

var (
	seqIDRe = regexp.MustCompile(`^MAP(\d+)$`)
	epiIDRe = regexp.MustCompile(`^E(\d)M(\d)$`)
)

// synthesize maps level identifiers to official names through the
// shared string table, for base data that carries no metadata text of
// its own. Which template family applies is pattern-matched from the
// display title; fragile for renamed or localized titles.
func synthesize(title string, ids []string, global lang.Table) map[string]string {
	title = strings.ToLower(title)
	names := make(map[string]string, len(ids))
	for _, id := range ids {
		var key string
		if m := seqIDRe.FindStringSubmatch(id); m != nil {
			n, _ := strconv.Atoi(m[1])
			switch {
			case strings.Contains(title, "tnt"):
				key = fmt.Sprintf("THUSTR_%d", n)
			case strings.Contains(title, "plutonia"):
				key = fmt.Sprintf("PHUSTR_%d", n)
			default:
				key = fmt.Sprintf("HUSTR_%d", n)
			}
		} else if m := epiIDRe.FindStringSubmatch(id); m != nil {
			key = fmt.Sprintf("HUSTR_E%sM%s", m[1], m[2])
		}
		if v, ok := lang.Lookup(key, nil, global); ok {
			names[id] = v
		} else {
			names[id] = id
		}
	}
	return names
}

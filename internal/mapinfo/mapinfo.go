// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package mapinfo extracts level display names from the three
// competing level-metadata dialects a package can carry. The richest
// dialect wins: ZMAPINFO/MAPINFO, then UMAPINFO, then EMAPINFO.
//
// Extraction is pattern matching over the whole lump text rather than
// a token-by-token grammar; the dialects are too free-form and too
// widely abused in the wild for strictness to pay off.
package mapinfo

import (
	"regexp"
	"strings"

	"github.com/elliotnunn/wadscan/internal/lang"
	"github.com/elliotnunn/wadscan/internal/vfs"
)

// includeBudget bounds textual include expansion against cycles.
const includeBudget = 10

// Names probes the package for a level-metadata lump and returns its
// lump-identifier to display-name dictionary, nil when no dialect is
// present. The error is only ever a malformed-LANGUAGE error reached
// through a lookup entry.
func Names(fsys *vfs.FS, global lang.Table) (map[string]string, error) {
	for _, lump := range []string{"ZMAPINFO", "MAPINFO"} {
		if b, err := fsys.ReadLump(lump); err == nil {
			return ParseMapinfo(b, fsys, global)
		}
	}
	if b, err := fsys.ReadLump("UMAPINFO"); err == nil {
		return ParseUmapinfo(b), nil
	}
	if b, err := fsys.ReadLump("EMAPINFO"); err == nil {
		return ParseEmapinfo(b), nil
	}
	return nil, nil
}

var (
	includeRe = regexp.MustCompile(`(?i)include[ \t]+"([^"]*)"`)

	// map <LUMPID> [lookup] <"Name"|BareToken> ... {
	mapinfoEntryRe = regexp.MustCompile(`(?i)\bmap[ \t]+([^\s{}"]+)[ \t]+(?:(lookup)[ \t]+)?(?:"([^"]*)"|([^\s{}"]+))[^{]*\{`)
)

// ParseMapinfo reads the ZMAPINFO/MAPINFO dialect. include directives
// are substituted with the named file's contents from the package
// namespace before entry extraction; a missing target is deleted
// rather than left dangling. Entries carrying the lookup modifier
// treat their name as a language-table key, resolved through the
// package's own table and then global.
func ParseMapinfo(src []byte, fsys *vfs.FS, global lang.Table) (map[string]string, error) {
	text := string(src)
	for range includeBudget {
		if !includeRe.MatchString(text) {
			break
		}
		text = includeRe.ReplaceAllStringFunc(text, func(m string) string {
			target := includeRe.FindStringSubmatch(m)[1]
			body, err := fsys.ReadFile(target)
			if err != nil {
				return ""
			}
			return string(body)
		})
	}

	var local lang.Table // built on first lookup entry only
	names := make(map[string]string)
	for _, m := range mapinfoEntryRe.FindAllStringSubmatch(text, -1) {
		id := strings.ToUpper(m[1])
		name := m[3]
		if name == "" {
			name = m[4]
		}
		if m[2] != "" { // lookup modifier
			if local == nil {
				var err error
				local, err = lang.FromVFS(fsys)
				if err != nil {
					return nil, err
				}
			}
			if v, ok := lang.Lookup(name, local, global); ok {
				name = v
			}
		}
		names[id] = name
	}
	return names, nil
}

var (
	umapinfoBlockRe = regexp.MustCompile(`(?is)\bmap[ \t]+([^\s{}"]+)\s*\{(.*?)\}`)
	levelnameRe     = regexp.MustCompile(`(?i)\blevelname[ \t]*=[ \t]*(?:"([^"]*)"|(\S+))`)
)

// ParseUmapinfo reads the stricter bracketless block dialect:
// MAP <LUMPID> { ... levelname = <name> ... }. No includes, no lookup
// indirection.
func ParseUmapinfo(src []byte) map[string]string {
	names := make(map[string]string)
	for _, m := range umapinfoBlockRe.FindAllStringSubmatch(string(src), -1) {
		ln := levelnameRe.FindStringSubmatch(m[2])
		if ln == nil {
			continue
		}
		name := ln[1]
		if name == "" {
			name = ln[2]
		}
		names[strings.ToUpper(m[1])] = name
	}
	return names
}

// ParseEmapinfo reads the ini-like dialect: [LUMPID] section headers,
// a levelname = rest-of-line entry inside each.
func ParseEmapinfo(src []byte) map[string]string {
	names := make(map[string]string)
	var section string
	for _, line := range strings.Split(string(src), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.ToUpper(strings.TrimSpace(line[1 : len(line)-1]))
			continue
		}
		if section == "" {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(k), "levelname") {
			continue
		}
		names[section] = strings.TrimSpace(v)
	}
	return names
}

// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Command wadscan classifies game content packages: wads (plain or
// compressed), zip-family archives and folder mods. For each package
// it reports base/add-on, level presence, the numbering scheme and
// the level name dictionary.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/elliotnunn/wadscan/internal/classify"
	"github.com/elliotnunn/wadscan/internal/lang"
	"github.com/elliotnunn/wadscan/internal/scancache"
	"github.com/elliotnunn/wadscan/internal/vfs"
)

var (
	scanFlag  = flag.Bool("scan", false, "walk directory arguments collecting package files, instead of classifying the directory as a folder mod")
	skipFlag  = flag.String("skip", "", "comma-separated glob patterns (** allowed) to skip while scanning")
	jsonFlag  = flag.Bool("json", false, "print classifications as JSON")
	dumpFlag  = flag.Bool("dump", false, "list every virtual entry of each package instead of classifying")
	langFlag  = flag.String("lang", "", "global LANGUAGE or .csv file for $-indirection fallback")
	namesFlag = flag.String("names", "", "support file mapping base-data filenames to display titles")
	cacheFlag = flag.String("cache", "", "directory for the cross-run classification cache")
)

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] package...\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
		os.Exit(2)
	}

	opt := classify.Options{Global: loadGlobal(*langFlag)}
	if *namesFlag != "" {
		b, err := os.ReadFile(*namesFlag)
		if err != nil {
			slog.Warn("baseNamesUnreadable", "path", *namesFlag, "err", err)
		} else {
			opt.BaseNames = classify.ParseBaseNames(b)
		}
	}

	doClassify := func(name string) classify.Classification { return classify.Classify(name, opt) }
	if *cacheFlag != "" {
		cache, err := scancache.Open(*cacheFlag, opt)
		if err != nil {
			slog.Warn("cacheOpenError", "path", *cacheFlag, "err", err)
		} else {
			defer cache.Close()
			doClassify = cache.Classify
		}
	}

	var targets []string
	for _, arg := range flag.Args() {
		targets = append(targets, expand(arg)...)
	}

	for _, name := range targets {
		switch {
		case *dumpFlag:
			dump(name)
		case *jsonFlag:
			b, _ := json.MarshalIndent(doClassify(name), "", "  ")
			fmt.Println(string(b))
		default:
			printText(doClassify(name))
		}
	}
}

func loadGlobal(name string) lang.Table {
	if name == "" {
		return nil
	}
	b, err := os.ReadFile(name)
	if err != nil {
		slog.Warn("globalTableUnreadable", "path", name, "err", err)
		return nil
	}
	var t lang.Table
	if strings.EqualFold(filepath.Ext(name), ".csv") {
		t, err = lang.ParseCSV(b)
	} else {
		var scopes map[string]lang.Table
		scopes, err = lang.Parse(b)
		t = lang.Merge(scopes)
	}
	if err != nil {
		slog.Warn("globalTableMalformed", "path", name, "err", err)
		return nil
	}
	return t
}

// expand turns a -scan directory argument into the package files
// under it, honoring the -skip patterns. Everything else passes
// through as a package path in its own right.
func expand(arg string) []string {
	inf, err := os.Stat(arg)
	if err != nil || !inf.IsDir() || !*scanFlag {
		return []string{arg}
	}

	var skip []string
	if *skipFlag != "" {
		skip = strings.Split(*skipFlag, ",")
	}

	var found []string
	filepath.WalkDir(arg, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("scanError", "path", name, "err", err)
			return nil
		}
		rel, _ := filepath.Rel(arg, name)
		rel = filepath.ToSlash(rel)
		for _, pat := range skip {
			if ok, _ := doublestar.Match(strings.TrimSpace(pat), rel); ok {
				if d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
		}
		if !d.IsDir() && (vfs.IsWadPath(name) || vfs.IsZipPath(name)) {
			found = append(found, name)
		}
		return nil
	})
	sort.Strings(found)
	return found
}

func printText(c classify.Classification) {
	kind := "add-on"
	if !c.AddOn {
		kind = "base"
	}
	fmt.Printf("%s\n", c.Path)
	fmt.Printf("    name=%q kind=%s levels=%v", c.DisplayName, kind, c.HasLevels)
	if c.Scheme != classify.Unknown {
		fmt.Printf(" scheme=%s", c.Scheme)
	}
	fmt.Println()

	ids := c.LevelIDs
	if ids == nil {
		ids = make([]string, 0, len(c.LevelNames))
		for id := range c.LevelNames {
			ids = append(ids, id)
		}
		sort.Strings(ids)
	}
	for _, id := range ids {
		if name, ok := c.LevelNames[id]; ok {
			fmt.Printf("    %-8s %s\n", id, name)
		} else {
			fmt.Printf("    %s\n", id)
		}
	}
}

func dump(name string) {
	fsys, err := vfs.Mount(name)
	if err != nil {
		slog.Warn("mountError", "path", name, "err", err)
		return
	}
	defer fsys.Close()
	fmt.Printf("%s\n", name)
	for _, p := range fsys.Paths() {
		fmt.Printf("    %s\n", p)
	}
}

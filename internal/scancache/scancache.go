// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package scancache enforces compute-once-per-path around the
// classifier: a pebble store carries classifications across runs, a
// tinylfu front cache keeps hot paths out of pebble, and an xxhash
// fingerprint of (size, mtime) invalidates both when a package file
// changes. Every cache failure degrades to classifying directly;
// callers never see an error.
package scancache

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"log/slog"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/pebble/v2"
	"github.com/dgryski/go-tinylfu"

	"github.com/elliotnunn/wadscan/internal/classify"
)

type Cache struct {
	db  *pebble.DB
	mem *tinylfu.T[string, record]
	opt classify.Options
}

type record struct {
	Fingerprint    uint64                  `json:"fp"`
	Classification classify.Classification `json:"c"`
}

// Open creates or reopens the cache under dir. opt is the snapshot of
// global inputs every cached classification was computed against; a
// caller refreshing those should use a fresh cache directory.
func Open(dir string, opt classify.Options) (*Cache, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &Cache{
		db:  db,
		mem: tinylfu.New[string, record](memEntries, memEntries*10, xxhash.Sum64String),
		opt: opt,
	}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Classify returns the cached classification for name, computing and
// storing it when absent or stale.
func (c *Cache) Classify(name string) classify.Classification {
	inf, err := os.Stat(name)
	if err != nil {
		// let the classifier produce its conservative answer
		return classify.Classify(name, c.opt)
	}

	var h xxhash.Digest
	h.WriteString(name)
	var meta [16]byte
	binary.LittleEndian.PutUint64(meta[:8], uint64(inf.Size()))
	binary.LittleEndian.PutUint64(meta[8:], uint64(inf.ModTime().UnixNano()))
	h.Write(meta[:])
	fp := h.Sum64()

	if rec, ok := c.mem.Get(name); ok && rec.Fingerprint == fp {
		return rec.Classification
	}

	if buf, closer, err := c.db.Get([]byte(name)); err == nil {
		var rec record
		decodeErr := json.Unmarshal(buf, &rec)
		closer.Close()
		if decodeErr == nil && rec.Fingerprint == fp {
			c.mem.Add(name, rec)
			return rec.Classification
		}
	} else if !errors.Is(err, pebble.ErrNotFound) {
		slog.Warn("cacheReadError", "path", name, "err", err)
	}

	rec := record{Fingerprint: fp, Classification: classify.Classify(name, c.opt)}
	c.mem.Add(name, rec)
	if buf, err := json.Marshal(rec); err == nil {
		if err := c.db.Set([]byte(name), buf, pebble.NoSync); err != nil {
			slog.Warn("cacheWriteError", "path", name, "err", err)
		}
	}
	return rec.Classification
}

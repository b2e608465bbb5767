// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package lang interprets the two string-table formats a package can
// carry: a tabular language.csv, and the bracket-headed LANGUAGE
// mini-language. Both reduce to one flat key-to-value Table.
package lang

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/elliotnunn/wadscan/internal/vfs"
)

var ErrSyntax = errors.New("lang: malformed string table")

// Table maps upper-cased keys to display strings. Values starting
// with '$' name another key, see Resolve.
type Table map[string]string

// resolveBudget bounds '$' indirection chains, the only guard against
// malformed self-referential content.
const resolveBudget = 10

func normKey(k string) string { return strings.ToUpper(k) }

// ParseCSV reads the tabular format: a header row naming an
// Identifier column and a default column, one pair per data row.
func ParseCSV(data []byte) (Table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty csv", ErrSyntax)
	}
	keyCol, valCol := -1, -1
	for i, name := range rows[0] {
		switch {
		case strings.EqualFold(name, "Identifier"):
			keyCol = i
		case strings.EqualFold(name, "default"):
			valCol = i
		}
	}
	if keyCol < 0 || valCol < 0 {
		return nil, fmt.Errorf("%w: csv lacks Identifier/default columns", ErrSyntax)
	}
	t := make(Table, len(rows)-1)
	for _, row := range rows[1:] {
		if keyCol >= len(row) || valCol >= len(row) || row[keyCol] == "" {
			continue
		}
		t[normKey(row[keyCol])] = row[valCol]
	}
	return t, nil
}

// Merge flattens per-tag scopes into one effective table, in the
// fixed preference order default, enu, eng (later overrides).
func Merge(scopes map[string]Table) Table {
	t := make(Table)
	for _, tag := range []string{"default", "enu", "eng"} {
		for k, v := range scopes[tag] {
			t[k] = v
		}
	}
	return t
}

// Resolve chases '$' references through the local then the global
// table, at most resolveBudget hops. An unresolvable or circular
// reference keeps its last value, sigil and all, so malformed content
// degrades to a visible placeholder instead of an error.
func Resolve(v string, local, global Table) string {
	for range resolveBudget {
		if !strings.HasPrefix(v, "$") {
			return v
		}
		key := normKey(v[1:])
		if nv, ok := local[key]; ok {
			v = nv
		} else if nv, ok := global[key]; ok {
			v = nv
		} else {
			return v
		}
	}
	return v
}

// Lookup finds key in the local then the global table and resolves
// any indirection in its value. ok is false when neither table has it.
func Lookup(key string, local, global Table) (string, bool) {
	k := normKey(key)
	v, ok := local[k]
	if !ok {
		v, ok = global[k]
	}
	if !ok {
		return "", false
	}
	return Resolve(v, local, global), true
}

// FromVFS builds a package's effective table: language.csv exclusively
// when present, otherwise every LANGUAGE lump merged in mount order
// (later lump wins), each flattened through Merge. A package with
// neither gets an empty table.
func FromVFS(fsys *vfs.FS) (Table, error) {
	if b, err := fsys.ReadFile("language.csv"); err == nil {
		return ParseCSV(b)
	}
	lumps, err := fsys.ReadAllLumps("LANGUAGE")
	if errors.Is(err, fs.ErrNotExist) {
		return Table{}, nil
	} else if err != nil {
		return nil, err
	}
	t := make(Table)
	for _, lump := range lumps {
		scopes, err := Parse(lump)
		if err != nil {
			return nil, err
		}
		for k, v := range Merge(scopes) {
			t[k] = v
		}
	}
	return t, nil
}

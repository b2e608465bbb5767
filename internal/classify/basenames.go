// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package classify

import "strings"

// ParseBaseNames reads the support file mapping base-data filenames
// to display titles, one ini-style "file.wad = Title" line each.
// Comment lines start with // or #; values may be quoted; section
// headers are tolerated and ignored. Keys are lower-cased.
func ParseBaseNames(data []byte) map[string]string {
	names := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "//") || strings.HasPrefix(line, "#") ||
			strings.HasPrefix(line, "[") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		k = strings.ToLower(strings.TrimSpace(k))
		v = strings.TrimSpace(v)
		if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
			v = v[1 : len(v)-1]
		}
		if k != "" && v != "" {
			names[k] = v
		}
	}
	return names
}

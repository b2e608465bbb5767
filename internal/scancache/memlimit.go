// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package scancache

import (
	"os"
	"strconv"
)

var memEntries int = calcMemEntries()

func calcMemEntries() int {
	if e := os.Getenv("WADSCANMEM"); e != "" {
		n, err := strconv.Atoi(e)
		if err != nil || n <= 0 {
			panic("malformed WADSCANMEM environment variable, should be a number of cache entries: " + e)
		}
		return n
	}
	return 4096 // classifications are small, this is generous
}

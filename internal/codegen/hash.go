package codegen

import (
	"hash/fnv"
	"path"
	"strconv"
)

// shortHash returns a stable, short base-36 digest of a normalized file
// path, used to disambiguate colliding class names per spec.md §4.D
// step 5.
func shortHash(filePath string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(path.Clean(filePath)))
	return strconv.FormatUint(uint64(h.Sum32()), 36)
}

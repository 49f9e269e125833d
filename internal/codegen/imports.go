package codegen

import (
	"fmt"
	"sort"
	"strings"
)

// importEntry is one resolved import: the package path, the local alias
// codegen emits for it, and (for diagnostics only) which export it was
// pulled in to reach.
type importEntry struct {
	path           string
	alias          string
	originalExport string
}

// importManager collects dependency imports for one generated file,
// deduplicating by (path, originalExport) and disambiguating alias
// collisions with a "_N" counter, per spec.md §4.D step 6.
type importManager struct {
	byPathExport map[string]*importEntry // "path\x00export" -> entry
	aliasCount   map[string]int          // package basename -> next free counter
	order        []string                // insertion order of byPathExport keys, for determinism
}

func newImportManager() *importManager {
	return &importManager{
		byPathExport: map[string]*importEntry{},
		aliasCount:   map[string]int{},
	}
}

// Add resolves a canonical (path, originalExport) reference to a local
// alias, reusing a prior alias for the same pair and minting a fresh
// "<base>_N" alias whenever a new pair's natural alias collides with one
// already assigned to a different path.
func (im *importManager) Add(path, originalExport string) string {
	key := path + "\x00" + originalExport
	if existing, ok := im.byPathExport[key]; ok {
		return existing.alias
	}

	base := packageBaseName(path)
	alias := base
	if im.aliasTakenByOtherPath(alias, path) {
		n := im.aliasCount[base]
		for {
			n++
			candidate := fmt.Sprintf("%s_%d", base, n)
			if !im.aliasTakenByOtherPath(candidate, path) {
				alias = candidate
				im.aliasCount[base] = n
				break
			}
		}
	}

	im.byPathExport[key] = &importEntry{path: path, alias: alias, originalExport: originalExport}
	im.order = append(im.order, key)
	return alias
}

func (im *importManager) aliasTakenByOtherPath(alias, path string) bool {
	for _, e := range im.byPathExport {
		if e.alias == alias && e.path != path {
			return true
		}
	}
	return false
}

// Entries returns every distinct import path this manager assigned an
// alias to, sorted for deterministic output, one entry per path (the
// alias is shared across every export pulled from the same path).
func (im *importManager) Entries() []importEntry {
	seen := map[string]bool{}
	var out []importEntry
	for _, key := range im.order {
		e := im.byPathExport[key]
		if seen[e.path] {
			continue
		}
		seen[e.path] = true
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].path < out[j].path })
	return out
}

// packageBaseName mimics Go's own default import name derivation: the
// last path segment, with characters that can't start an identifier
// stripped.
func packageBaseName(path string) string {
	segments := strings.Split(path, "/")
	base := segments[len(segments)-1]
	base = strings.ReplaceAll(base, "-", "_")
	base = strings.ReplaceAll(base, ".", "_")
	if base == "" {
		return "pkg"
	}
	return base
}

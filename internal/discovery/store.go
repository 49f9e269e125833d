// Package discovery implements Component B: a per-file cache aggregating
// scanner output across the project, with incremental update/remove so a
// host bundler can drive it off file-change events.
package discovery

import (
	"sync"

	"github.com/alloy-di/alloy/internal/models"
	"github.com/alloy-di/alloy/internal/scanner"
)

// fileEntry is what the store remembers about one previously scanned file.
type fileEntry struct {
	services     []models.DiscoveredService
	deferredKeys map[models.DeferredKey]bool
	source       string
}

// Store aggregates scanner.Result across every file in the project.
type Store struct {
	mu       sync.RWMutex
	scan     *scanner.Scanner
	files    map[string]fileEntry
	keepSrc  bool // opt-in per-file source snapshots, for manifest emitters
}

// New creates an empty discovery store. keepSource enables the optional
// per-file source snapshot view spec.md §4.B lists.
func New(keepSource bool) *Store {
	return &Store{
		scan:    scanner.New(),
		files:   map[string]fileEntry{},
		keepSrc: keepSource,
	}
}

// Update rescans fileID and returns the delta a caller needs to reconcile
// a downstream aggregate: the newly discovered services/keys plus whatever
// this fileID held before the rescan.
func (s *Store) Update(fileID, packageDir, source string) (newServices []models.DiscoveredService, newDeferredKeys map[models.DeferredKey]bool, priorServices []models.DiscoveredService, priorDeferredKeys map[models.DeferredKey]bool, err error) {
	result, err := s.scan.Scan(fileID, packageDir, source)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prior, existed := s.files[fileID]

	entry := fileEntry{services: result.Services, deferredKeys: result.DeferredKeys}
	if s.keepSrc {
		entry.source = source
	}
	s.files[fileID] = entry

	if existed {
		priorServices = prior.services
		priorDeferredKeys = prior.deferredKeys
	}
	return result.Services, result.DeferredKeys, priorServices, priorDeferredKeys, nil
}

// Remove evicts fileID and returns what it held, for cleanup by the caller.
func (s *Store) Remove(fileID string) (priorServices []models.DiscoveredService, priorDeferredKeys map[models.DeferredKey]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prior, existed := s.files[fileID]
	if !existed {
		return nil, nil
	}
	delete(s.files, fileID)
	return prior.services, prior.deferredKeys
}

// Clear evicts every file. Idempotent.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = map[string]fileEntry{}
}

// Services returns every discovered service across every file, in a stable
// order (sorted by file id then declaration order) so codegen's
// determinism requirement holds regardless of update order.
func (s *Store) Services() []models.DiscoveredService {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.sortedFileIDsLocked()
	var out []models.DiscoveredService
	for _, id := range ids {
		out = append(out, s.files[id].services...)
	}
	return out
}

// DeferredKeys unions every file's deferred-reference key set.
func (s *Store) DeferredKeys() map[models.DeferredKey]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := map[models.DeferredKey]bool{}
	for _, entry := range s.files {
		for k := range entry.deferredKeys {
			out[k] = true
		}
	}
	return out
}

// FileServices returns the discovered services for one file (empty when
// unknown), and Source returns the last snapshot when keepSource is set.
func (s *Store) FileServices(fileID string) []models.DiscoveredService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.files[fileID].services
}

func (s *Store) Source(fileID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.files[fileID]
	if !ok || !s.keepSrc {
		return "", false
	}
	return entry.source, true
}

func (s *Store) sortedFileIDsLocked() []string {
	ids := make([]string, 0, len(s.files))
	for id := range s.files {
		ids = append(ids, id)
	}
	// insertion order is not tracked; sort lexically for determinism.
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}

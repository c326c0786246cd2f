package cache

import "sort"

// evictLocked removes entries in ascending last_accessed order until
// total_size_bytes no longer exceeds max_cache_size_bytes, per §4.2's LRU
// eviction rule. Must be called with the manifest lock held. Ties on
// last_accessed break on model_id ascending for determinism.
func evictLocked(m *Manifest) {
	if m.MaxCacheSizeBytes <= 0 || m.TotalSizeBytes <= m.MaxCacheSizeBytes {
		return
	}

	ids := make([]string, 0, len(m.Models))
	for id := range m.Models {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := m.Models[ids[i]], m.Models[ids[j]]
		if a.LastAccessed.Equal(b.LastAccessed) {
			return ids[i] < ids[j]
		}
		return a.LastAccessed.Before(b.LastAccessed)
	})

	for _, id := range ids {
		if m.TotalSizeBytes <= m.MaxCacheSizeBytes {
			break
		}
		entry := m.Models[id]
		m.TotalSizeBytes -= entry.SizeBytes
		delete(m.Models, id)
		removeFileBestEffort(entry.Path)
	}
}

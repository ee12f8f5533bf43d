package catalog

import "movie-discovery-catalog-service/internal/models"

// ExcludeSet holds identities that must never appear in merged output.
type ExcludeSet map[models.ItemKey]struct{}

// NewExcludeSet builds an exclusion set from keys.
func NewExcludeSet(keys ...models.ItemKey) ExcludeSet {
	set := make(ExcludeSet, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

// Has reports whether key is excluded. A nil set excludes nothing.
func (s ExcludeSet) Has(key models.ItemKey) bool {
	_, ok := s[key]
	return ok
}

// Merge appends batch to existing, keeping first-seen order, dropping
// duplicates and excluded identities, and admitting at most capCount items.
// Exclusion is re-applied to existing as well. reachedCap is true when the
// merged list holds exactly capCount items. capCount <= 0 means uncapped.
// Neither input slice is modified.
func Merge(existing, batch []models.CatalogItem, exclude ExcludeSet, capCount int) ([]models.CatalogItem, bool) {
	size := len(existing) + len(batch)
	if capCount > 0 && size > capCount {
		size = capCount
	}
	merged := make([]models.CatalogItem, 0, size)
	seen := make(map[models.ItemKey]struct{}, size)

	admit := func(item models.CatalogItem) bool {
		if capCount > 0 && len(merged) >= capCount {
			return false
		}
		key := item.Key()
		if exclude.Has(key) {
			return true
		}
		if _, dup := seen[key]; dup {
			return true
		}
		seen[key] = struct{}{}
		merged = append(merged, item)
		return true
	}

	for _, item := range existing {
		if !admit(item) {
			break
		}
	}
	for _, item := range batch {
		if !admit(item) {
			break
		}
	}

	return merged, capCount > 0 && len(merged) >= capCount
}

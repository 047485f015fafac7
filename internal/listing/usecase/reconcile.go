package usecase

// ReconcileImages computes the image sequence installed by an update and the
// keys that must be removed from the content store once it is persisted.
//
// Every occurrence of a requested key is dropped from current; purge lists each
// dropped key once, in the order it first appears in current. Requested keys
// that are not in current are ignored. Uploaded keys are appended as given.
func ReconcileImages(current, deleteRequested, uploaded []string) (next, purge []string) {
	drop := make(map[string]struct{}, len(deleteRequested))
	for _, k := range deleteRequested {
		drop[k] = struct{}{}
	}

	next = make([]string, 0, len(current)+len(uploaded))
	purged := make(map[string]struct{})
	for _, k := range current {
		if _, ok := drop[k]; !ok {
			next = append(next, k)
			continue
		}
		if _, seen := purged[k]; !seen {
			purged[k] = struct{}{}
			purge = append(purge, k)
		}
	}
	next = append(next, uploaded...)
	return next, purge
}

// uniqueKeys returns keys without repeats, first occurrence wins.
func uniqueKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

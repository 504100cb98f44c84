package rule

import "sort"

// FollowLast tags the most recent result and looks the tag set up in a
// table keyed by comma-separated tag lists. A key matches when every listed
// tag is present (AND); the "*" key is a wildcard fallback. No state.
type FollowLast struct {
	Table map[string][]string `json:"table"`
}

func (r *FollowLast) Kind() string { return KindFollowLast }
func (r *FollowLast) Dirty() bool  { return false }

func (r *FollowLast) Next(env *Env) []string {
	if len(r.Table) == 0 || len(env.History) == 0 {
		return nil
	}
	set := env.tags(0)
	if len(set) == 0 {
		return nil
	}

	// Deterministic lookup order; specific keys win over the wildcard.
	keys := make([]string, 0, len(r.Table))
	for k := range r.Table {
		if k != "*" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		if set.HasAll(splitAlias(k)) {
			return copyTargets(r.Table[k])
		}
	}
	if targets, ok := r.Table["*"]; ok {
		return copyTargets(targets)
	}
	return nil
}

func copyTargets(targets []string) []string {
	if len(targets) == 0 {
		return nil
	}
	out := make([]string, len(targets))
	copy(out, targets)
	return out
}

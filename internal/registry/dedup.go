package registry

import "sort"

// Deduplicate groups models by Normalize(id), keeps the entry with the
// minimum (priority, id) per group, per spec.md §4.2. It is idempotent:
// Deduplicate(Deduplicate(xs)) == Deduplicate(xs).
func Deduplicate(models []ModelInfo) []ModelInfo {
	groups := make(map[string][]ModelInfo, len(models))
	order := make([]string, 0, len(models))
	for _, m := range models {
		key := Normalize(m.ID)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], m)
	}

	out := make([]ModelInfo, 0, len(order))
	for _, key := range order {
		group := groups[key]
		sort.SliceStable(group, func(i, j int) bool {
			pi, pj := PriorityOf(group[i].Source), PriorityOf(group[j].Source)
			if pi != pj {
				return pi < pj
			}
			return group[i].ID < group[j].ID
		})
		out = append(out, group[0])
	}
	return out
}

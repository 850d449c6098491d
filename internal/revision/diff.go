package revision

import (
	"reflect"

	"github.com/damoang/angple-cms/internal/domain"
)

// Diff compares two snapshots field by field. Keys missing on either side
// count as null; null and empty collections are different values.
func Diff(old, new domain.Snapshot) domain.Diff {
	out := domain.Diff{}
	for key, from := range old {
		to := new[key]
		if !reflect.DeepEqual(from, to) {
			out[key] = domain.FieldChange{From: from, To: to}
		}
	}
	for key, to := range new {
		if _, ok := old[key]; !ok {
			out[key] = domain.FieldChange{From: nil, To: to}
		}
	}
	return out
}

// Filter drops excluded fields from fields and, when tracked is non-empty,
// keeps only the tracked ones. The result is a deep copy.
func Filter(fields domain.Snapshot, exclude, tracked []string) domain.Snapshot {
	skip := toSet(exclude)
	var keep map[string]struct{}
	if len(tracked) > 0 {
		keep = toSet(tracked)
	}

	out := domain.Snapshot{}
	for k, v := range fields {
		if _, ok := skip[k]; ok {
			continue
		}
		if keep != nil {
			if _, ok := keep[k]; !ok {
				continue
			}
		}
		out[k] = v
	}
	return out.Clone()
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}

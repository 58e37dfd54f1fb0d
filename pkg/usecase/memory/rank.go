package memory

import (
	"slices"
	"strings"

	"github.com/m-mizutani/recall/pkg/model"
)

// Rank keeps candidates whose content contains query ignoring case, orders
// them newest first and returns at most limit of them. Candidates with equal
// timestamps keep their relative order. An empty query matches everything.
func Rank(candidates []*model.Memory, query string, limit int) []*model.Memory {
	needle := strings.ToLower(query)

	matched := make([]*model.Memory, 0, len(candidates))
	for _, m := range candidates {
		if strings.Contains(strings.ToLower(m.Content), needle) {
			matched = append(matched, m)
		}
	}

	slices.SortStableFunc(matched, func(a, b *model.Memory) int {
		return b.Timestamp.Compare(a.Timestamp)
	})

	if limit >= 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}

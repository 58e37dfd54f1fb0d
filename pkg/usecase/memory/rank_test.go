package memory_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/recall/pkg/model"
	"github.com/m-mizutani/recall/pkg/usecase/memory"
)

func mem(id, content string, ts time.Time) *model.Memory {
	return &model.Memory{
		ID:        model.MemoryID(id),
		Content:   content,
		UserID:    "u1",
		Timestamp: ts,
	}
}

func ids(memories []*model.Memory) []model.MemoryID {
	result := make([]model.MemoryID, len(memories))
	for i, m := range memories {
		result[i] = m.ID
	}
	return result
}

func TestRank(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	candidates := []*model.Memory{
		mem("a", "Coffee with Alice", base),
		mem("b", "tea with bob", base.Add(2*time.Hour)),
		mem("c", "COFFEE beans order", base.Add(time.Hour)),
		mem("d", "dentist", base.Add(3*time.Hour)),
	}

	testCases := []struct {
		name   string
		query  string
		limit  int
		expect []model.MemoryID
	}{
		{"filter and order", "coffee", 10, []model.MemoryID{"c", "a"}},
		{"empty query matches all", "", 10, []model.MemoryID{"d", "b", "c", "a"}},
		{"limit", "", 2, []model.MemoryID{"d", "b"}},
		{"no match", "sushi", 10, []model.MemoryID{}},
		{"substring across words", "with b", 10, []model.MemoryID{"b"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := memory.Rank(candidates, tc.query, tc.limit)
			gt.V(t, got).NotNil()
			gt.Equal(t, ids(got), tc.expect)
		})
	}
}

func TestRankStableOnTies(t *testing.T) {
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	candidates := []*model.Memory{
		mem("first", "same time", ts),
		mem("second", "same time", ts),
		mem("newer", "same time", ts.Add(time.Millisecond)),
		mem("third", "same time", ts),
	}

	got := memory.Rank(candidates, "same", 10)
	gt.Equal(t, ids(got), []model.MemoryID{"newer", "first", "second", "third"})
}

func TestRankDoesNotReorderInput(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	candidates := []*model.Memory{
		mem("old", "x", base),
		mem("new", "x", base.Add(time.Second)),
	}

	_ = memory.Rank(candidates, "", 10)
	gt.Equal(t, ids(candidates), []model.MemoryID{"old", "new"})
}

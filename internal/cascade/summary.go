package cascade

import (
	"sort"
	"time"

	"github.com/taskboard-dev/taskboard/internal/graph"
)

// Summary reports what a committed deletion changed.
type Summary struct {
	Root      graph.Ref                  `json:"root"`
	Removed   map[graph.EntityType]int64 `json:"removed"`
	Nullified map[graph.EntityType]int64 `json:"nullified,omitempty"`
	Duration  time.Duration              `json:"-"`
}

func newSummary(root graph.Ref) *Summary {
	return &Summary{
		Root:      root,
		Removed:   make(map[graph.EntityType]int64),
		Nullified: make(map[graph.EntityType]int64),
	}
}

func (s *Summary) Total() int64 {
	var total int64
	for _, n := range s.Removed {
		total += n
	}
	return total
}

// Types returns the entity types with removed rows, sorted by name.
func (s *Summary) Types() []graph.EntityType {
	out := make([]graph.EntityType, 0, len(s.Removed))
	for t, n := range s.Removed {
		if n > 0 {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RemovedCounts keys the removed counts by entity name.
func (s *Summary) RemovedCounts() map[string]int64 {
	return byName(s.Removed)
}

func (s *Summary) NullifiedCounts() map[string]int64 {
	return byName(s.Nullified)
}

func byName(counts map[graph.EntityType]int64) map[string]int64 {
	out := make(map[string]int64, len(counts))
	for t, n := range counts {
		if n > 0 {
			out[string(t)] = n
		}
	}
	return out
}

package checklist

import (
	"sort"

	"github.com/google/uuid"
)

// GroupScope partitions repeatable group rows: one project, one table, one participant.
type GroupScope struct {
	ProjectID   uuid.UUID
	Table       TargetTable
	Designation Designation
}

type GroupSummary struct {
	GroupIndex         int                    `json:"group_index"`
	CompletedQuestions int                    `json:"completed_questions"`
	TotalQuestions     int                    `json:"total_questions"`
	Items              []*RepeatableGroupItem `json:"items"`
}

func (g GroupSummary) HasAnswers() bool {
	for _, it := range g.Items {
		if it != nil && it.HasValue() {
			return true
		}
	}
	return false
}

// SummarizeGroups folds flat rows into per-index summaries ordered by group index.
func SummarizeGroups(rows []*RepeatableGroupItem) []GroupSummary {
	byIndex := map[int]*GroupSummary{}
	for _, row := range rows {
		if row == nil {
			continue
		}
		g, ok := byIndex[row.GroupIndex]
		if !ok {
			g = &GroupSummary{GroupIndex: row.GroupIndex}
			byIndex[row.GroupIndex] = g
		}
		g.TotalQuestions++
		if row.Answered() {
			g.CompletedQuestions++
		}
		g.Items = append(g.Items, row)
	}
	out := make([]GroupSummary, 0, len(byIndex))
	for _, g := range byIndex {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GroupIndex < out[j].GroupIndex })
	return out
}

// NextGroupIndex is max+1 over existing indices, or 1.
func NextGroupIndex(existing []int) int {
	hi := 0
	for _, idx := range existing {
		if idx > hi {
			hi = idx
		}
	}
	return hi + 1
}

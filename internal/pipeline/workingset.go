// Package pipeline turns joined performance rows into the final ordered
// collection: predicate filtering, optional per-domain aggregation, and
// stable metric ranking. Stages are pure and synchronous; each analysis
// request runs them on fresh slices so cached session rows are never
// reordered or mutated.
package pipeline

import (
	"fmt"

	"github.com/ignite/casedeck/internal/datanorm"
)

// WorkingSet is the unit the stages hand to each other: either plain rows or
// per-domain groups, never both. Grouped tells the exporter and report
// generator which shape is active.
type WorkingSet struct {
	Rows    []datanorm.Row
	Groups  []Group
	Grouped bool
}

// FromRows wraps filtered rows in an ungrouped WorkingSet.
func FromRows(rows []datanorm.Row) *WorkingSet {
	return &WorkingSet{Rows: rows}
}

// Len reports the number of entries in whichever shape is active.
func (ws *WorkingSet) Len() int {
	if ws.Grouped {
		return len(ws.Groups)
	}
	return len(ws.Rows)
}

// Params are the analysis knobs shared by the process, analyze, export and
// report operations. Zero values select the documented defaults: no
// industry/country narrowing, no grouping, VIDEO_VIEWS descending.
type Params struct {
	CaseType      string `json:"case_type"`
	Industry      string `json:"industry"`
	Country       string `json:"country"`
	GroupByDomain bool   `json:"group_by_domain"`
	SortMetric    string `json:"sort_metric"`
	Direction     string `json:"direction"`
}

// Run executes filter -> aggregate -> rank over joined rows and returns the
// resulting WorkingSet. Parameter errors (unknown case type, metric or
// direction) are returned unwrapped from their stage; an empty result is not
// an error.
func Run(rows []datanorm.Row, p Params) (*WorkingSet, error) {
	filtered, err := Filter(rows, p.CaseType, p.Industry, p.Country)
	if err != nil {
		return nil, err
	}

	ws := FromRows(filtered)
	if p.GroupByDomain {
		ws.Groups = GroupByDomain(filtered)
		ws.Rows = nil
		ws.Grouped = true
	}

	metric := datanorm.MetricVideoViews
	if p.SortMetric != "" {
		metric, err = datanorm.ParseMetric(p.SortMetric)
		if err != nil {
			return nil, err
		}
	}
	dir, err := ParseDirection(p.Direction)
	if err != nil {
		return nil, err
	}
	if err := ws.Rank(metric, dir); err != nil {
		return nil, fmt.Errorf("ranking: %w", err)
	}
	return ws, nil
}

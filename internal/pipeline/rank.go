package pipeline

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ignite/casedeck/internal/datanorm"
)

// Direction orders a ranking.
type Direction string

const (
	Descending Direction = "DESC"
	Ascending  Direction = "ASC"
)

// ErrUnknownDirection is returned for direction inputs other than ASC/DESC.
var ErrUnknownDirection = errors.New("unknown sort direction")

// ParseDirection resolves a direction parameter, tolerating case and the
// long forms. Empty selects the default, Descending.
func ParseDirection(s string) (Direction, error) {
	switch datanorm.FoldHeader(s) {
	case "", "desc", "descending":
		return Descending, nil
	case "asc", "ascending":
		return Ascending, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDirection, s)
}

// Rank stably orders the active shape by metric value. Entries missing the
// metric sort after every entry that has it, in both directions, so a
// half-empty column never floats to the top of an ascending sort. Ties keep
// their pre-sort relative order.
func (ws *WorkingSet) Rank(metric datanorm.Metric, dir Direction) error {
	if _, ok := metric.Kind(); !ok {
		return fmt.Errorf("%w: %q", datanorm.ErrUnknownMetric, string(metric))
	}
	if dir != Ascending && dir != Descending {
		return fmt.Errorf("%w: %q", ErrUnknownDirection, string(dir))
	}

	if ws.Grouped {
		sort.SliceStable(ws.Groups, func(i, j int) bool {
			av, aok := ws.Groups[i].MetricValue(metric)
			bv, bok := ws.Groups[j].MetricValue(metric)
			return rankLess(av, aok, bv, bok, dir)
		})
		return nil
	}
	sort.SliceStable(ws.Rows, func(i, j int) bool {
		av, aok := ws.Rows[i].MetricValue(metric)
		bv, bok := ws.Rows[j].MetricValue(metric)
		return rankLess(av, aok, bv, bok, dir)
	})
	return nil
}

// rankLess compares two metric cells. Present beats absent regardless of
// direction; equal values report false so stable sort keeps input order.
func rankLess(av float64, aok bool, bv float64, bok bool, dir Direction) bool {
	if aok != bok {
		return aok
	}
	if !aok || av == bv {
		return false
	}
	if dir == Ascending {
		return av < bv
	}
	return av > bv
}

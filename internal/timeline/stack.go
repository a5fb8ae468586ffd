package timeline

import (
	"sort"

	"github.com/glimhq/glim/core/show"
)

// Metrics holds the row geometry and interaction thresholds the engine
// computes with. Zero values are replaced by DefaultMetrics in callers
// that load partial configuration.
type Metrics struct {
	BaseLaneHeight float64 // px per lane
	RowPadding     float64 // px above and below a row's lanes
	MinRowHeight   float64 // px floor for any row
	MinDuration    float64 // seconds; shortest effect a resize may produce
	DragThreshold  float64 // px of pointer travel before a move is a drag
	PxPerSecond    float64 // horizontal scale at zoom 1.0
}

// DefaultMetrics are the stock editor dimensions.
func DefaultMetrics() Metrics {
	return Metrics{
		BaseLaneHeight: 24,
		RowPadding:     2,
		MinRowHeight:   48,
		MinDuration:    0.1,
		DragThreshold:  4,
		PxPerSecond:    100,
	}
}

// RowHeight is the pixel height for a row with the given lane count:
// laneCount lanes plus padding, floored at the configured minimum. A row
// with no effects still reserves one lane's worth of height.
func (m Metrics) RowHeight(laneCount int) float64 {
	if laneCount < 1 {
		laneCount = 1
	}
	h := float64(laneCount)*m.BaseLaneHeight + 2*m.RowPadding
	if h < m.MinRowHeight {
		h = m.MinRowHeight
	}
	return h
}

// PlacedEffect is one effect block positioned for display: its canonical
// key, its source position in the document, and its assigned lane.
// Recomputed from a fresh document snapshot on every change; never stored.
type PlacedEffect struct {
	Key         string
	TrackIndex  int
	EffectIndex int
	Start       float64
	Duration    float64
	BlendMode   show.BlendMode
	Kind        show.EffectKind
	Lane        int
}

// End returns the half-open end time of the placed block.
func (p PlacedEffect) End() float64 { return p.Start + p.Duration }

// StackedRow is one fixture's row: its placed effects, how many lanes
// they occupy, and the resulting pixel height.
type StackedRow struct {
	Fixture   show.FixtureID
	Effects   []PlacedEffect
	LaneCount int
	RowHeight float64
}

// ComputeStackedLayout gathers the fixture's effects from every track that
// targets it and assigns lanes greedily: effects sorted by start time each
// take the first lane whose previous occupant has ended. This uses the
// minimum possible number of lanes (the maximum overlap depth), and two
// blocks share a lane only if their half-open ranges do not overlap.
func ComputeStackedLayout(fixture show.FixtureID, seq *show.Sequence, trackIndices []int, m Metrics) StackedRow {
	var placed []PlacedEffect
	for _, ti := range trackIndices {
		if ti < 0 || ti >= len(seq.Tracks) {
			continue
		}
		for ei, ef := range seq.Tracks[ti].Effects {
			placed = append(placed, PlacedEffect{
				Key:         EncodeKey(ti, ei),
				TrackIndex:  ti,
				EffectIndex: ei,
				Start:       ef.TimeRange.Start,
				Duration:    ef.TimeRange.Duration(),
				BlendMode:   ef.BlendMode,
				Kind:        ef.Kind,
			})
		}
	}

	// Stable keeps document order for equal starts, so lane assignment is
	// deterministic across recomputes.
	sort.SliceStable(placed, func(i, j int) bool {
		return placed[i].Start < placed[j].Start
	})

	var laneEnds []float64
	for i := range placed {
		lane := -1
		for li, end := range laneEnds {
			if placed[i].Start >= end {
				lane = li
				break
			}
		}
		if lane == -1 {
			lane = len(laneEnds)
			laneEnds = append(laneEnds, 0)
		}
		laneEnds[lane] = placed[i].End()
		placed[i].Lane = lane
	}

	laneCount := len(laneEnds)
	if laneCount < 1 {
		laneCount = 1
	}
	return StackedRow{
		Fixture:   fixture,
		Effects:   placed,
		LaneCount: laneCount,
		RowHeight: m.RowHeight(laneCount),
	}
}

// ComputeRows builds one StackedRow per fixture that has at least one
// effect, in the document's fixture order.
func ComputeRows(doc *show.Show, seq *show.Sequence, tracks FixtureTrackMap, m Metrics) []StackedRow {
	var rows []StackedRow
	for _, f := range doc.Fixtures {
		indices := tracks[f.ID]
		if len(indices) == 0 {
			continue
		}
		row := ComputeStackedLayout(f.ID, seq, indices, m)
		if len(row.Effects) == 0 {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

package timeline

import "github.com/glimhq/glim/core/show"

// Transform maps between screen pixels and timeline coordinates. The
// surrounding UI may render at a display zoom different from device
// pixels, so raw pointer coordinates are divided by Zoom before any
// time or row conversion, and multiplied back out when producing render
// offsets.
type Transform struct {
	Zoom        float64 // effective display scale, > 0
	PxPerSecond float64 // horizontal scale at zoom 1.0
	OriginX     float64 // unzoomed px of timeline second 0
	OriginY     float64 // unzoomed px of the first row's top edge
}

func (t Transform) zoom() float64 {
	if t.Zoom > 0 {
		return t.Zoom
	}
	return 1
}

// TimeAt converts a raw screen X coordinate to timeline seconds.
func (t Transform) TimeAt(screenX float64) float64 {
	return (screenX/t.zoom() - t.OriginX) / t.PxPerSecond
}

// XAt converts timeline seconds to a raw screen X coordinate.
func (t Transform) XAt(sec float64) float64 {
	return (sec*t.PxPerSecond + t.OriginX) * t.zoom()
}

// SecondsPerPx converts a horizontal pointer delta in raw screen pixels
// to a time delta.
func (t Transform) SecondsPerPx(dx float64) float64 {
	return dx / t.zoom() / t.PxPerSecond
}

// RowY converts a raw screen Y coordinate into unzoomed row space.
func (t Transform) RowY(screenY float64) float64 {
	return screenY/t.zoom() - t.OriginY
}

// RowBand is one fixture row's vertical extent in unzoomed row space.
// Bands are ordered top to bottom and contiguous.
type RowBand struct {
	Fixture show.FixtureID
	Top     float64
	Bottom  float64
}

// BuildRowBands lays the stacked rows out vertically from y=0 in order.
func BuildRowBands(rows []StackedRow) []RowBand {
	bands := make([]RowBand, 0, len(rows))
	y := 0.0
	for _, r := range rows {
		bands = append(bands, RowBand{Fixture: r.Fixture, Top: y, Bottom: y + r.RowHeight})
		y += r.RowHeight
	}
	return bands
}

// FixtureAt returns the fixture whose band contains y. Positions above the
// first band or below the last clamp to the nearest edge band, so a drag
// never ends up unassigned. ok is false only when there are no bands.
func FixtureAt(bands []RowBand, y float64) (show.FixtureID, bool) {
	if len(bands) == 0 {
		return 0, false
	}
	if y < bands[0].Top {
		return bands[0].Fixture, true
	}
	for _, b := range bands {
		if y < b.Bottom {
			return b.Fixture, true
		}
	}
	return bands[len(bands)-1].Fixture, true
}

// Rect is a screen-space rectangle with a normalized (non-negative) size.
type Rect struct {
	X, Y, W, H float64
}

// RectFromCorners builds the rectangle spanned by two pointer positions,
// in either drag direction.
func RectFromCorners(x0, y0, x1, y1 float64) Rect {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

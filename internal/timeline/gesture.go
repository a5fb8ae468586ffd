package timeline

import (
	"fmt"
	"math"

	"github.com/glimhq/glim/core/show"
	game_log "github.com/glimhq/glim/internal/log"
)

// Backend is the session command surface the engine commits mutations to.
// Calls can fail (validation, lost connection); the engine logs failures
// and moves on — the next document refresh is the source of truth.
type Backend interface {
	AddTrack(name string, fixture show.FixtureID) (int, error)
	UpdateEffectTimeRange(trackIndex, effectIndex int, start, end float64) error
	MoveEffectToTrack(fromTrack, effectIndex, toTrack int) (int, error)
}

// Edge names which end of a block a resize grabs.
type Edge int

const (
	EdgeLeft Edge = iota
	EdgeRight
)

// Mode selects how pointer-down on blocks and background is interpreted.
type Mode int

const (
	// ModeSelect: block body drags move, background drags marquee-select.
	ModeSelect Mode = iota
	// ModeSwipe: crossing blocks adds or removes them from the selection.
	ModeSwipe
)

// Modifiers is the keyboard state captured when a gesture starts.
type Modifiers struct {
	Shift bool
	Alt   bool
}

// Pointer is one pointer sample in raw screen coordinates.
type Pointer struct {
	X, Y float64
	Mod  Modifiers
}

// DragPreview describes the in-flight result of a resize or move gesture
// for ghost-rendering ahead of the commit.
type DragPreview struct {
	Key           string
	Start, End    float64
	TargetFixture show.FixtureID
	HasTarget     bool
}

/* ─── drag state variants ──────────────────────────────────────── */

// dragState is the single in-progress interaction. Exactly one variant
// exists between pointer-down and pointer-up; each carries only the fields
// its gesture needs, so there is no "valid only in mode X" field sharing.
type dragState interface {
	isDrag()
}

type resizeDrag struct {
	pe               PlacedEffect
	edge             Edge
	startX           float64
	curStart, curEnd float64
}

type moveDrag struct {
	pe             PlacedEffect
	origFixture    show.FixtureID
	startX, startY float64
	mod            Modifiers
	curStart       float64
	targetFixture  show.FixtureID
	dragging       bool // drag threshold crossed; latched
}

type marqueeDrag struct {
	startX, startY float64
	curX, curY     float64
	snapshot       Selection
	shift          bool
}

type swipeDrag struct {
	snapshot Selection
	swiped   map[string]struct{}
	subtract bool
}

func (*resizeDrag) isDrag()  {}
func (*moveDrag) isDrag()    {}
func (*marqueeDrag) isDrag() {}
func (*swipeDrag) isDrag()   {}

/* ─── machine ──────────────────────────────────────────────────── */

// Machine consumes classified pointer events and produces selection
// updates, live previews, and backend commits. All derived document state
// (rows, bands, track map) is replaced wholesale by Refresh; the machine
// never patches indices across a commit boundary.
type Machine struct {
	backend Backend
	logger  *game_log.Logger
	metrics Metrics

	// Projection of the current document snapshot.
	transform     Transform
	rows          []StackedRow
	bands         []RowBand
	fixtureTracks FixtureTrackMap
	ownedTrack    map[show.FixtureID]int // track whose target is exactly this fixture
	fixtureNames  map[show.FixtureID]string
	seqDuration   float64

	selection Selection
	drag      dragState
}

func NewMachine(backend Backend, metrics Metrics, logger *game_log.Logger) *Machine {
	return &Machine{
		backend:   backend,
		logger:    logger,
		metrics:   metrics,
		selection: Selection{},
	}
}

// Refresh rebuilds every projection from a fresh document snapshot. Call
// after each commit, document reload, or geometry change; stale placements
// must never survive a mutation because effect identity is positional.
func (m *Machine) Refresh(doc *show.Show, seqIndex int, tf Transform) error {
	if seqIndex < 0 || seqIndex >= len(doc.Sequences) {
		return fmt.Errorf("sequence index %d out of range", seqIndex)
	}
	seq := &doc.Sequences[seqIndex]

	tracks, cycles := BuildFixtureTrackMap(doc, seq)
	for _, gid := range cycles {
		m.logger.Warnf("[GESTURE] Group %d contains a membership cycle; its expansion is incomplete", gid)
	}

	m.transform = tf
	m.fixtureTracks = tracks
	m.rows = ComputeRows(doc, seq, tracks, m.metrics)
	m.bands = BuildRowBands(m.rows)
	m.seqDuration = seq.Duration

	m.ownedTrack = map[show.FixtureID]int{}
	for ti := range seq.Tracks {
		t := seq.Tracks[ti].Target
		if t.Kind == show.TargetFixturesKind && len(t.Fixtures) == 1 {
			if _, taken := m.ownedTrack[t.Fixtures[0]]; !taken {
				m.ownedTrack[t.Fixtures[0]] = ti
			}
		}
	}
	m.fixtureNames = make(map[show.FixtureID]string, len(doc.Fixtures))
	for _, f := range doc.Fixtures {
		m.fixtureNames[f.ID] = f.Name
	}
	return nil
}

// Rows exposes the current stacked layout for the rendering collaborator.
func (m *Machine) Rows() []StackedRow { return m.rows }

// Bands exposes the fixture row bands used for vertical hit-testing.
func (m *Machine) Bands() []RowBand { return m.bands }

// Selection returns the live selection set.
func (m *Machine) Selection() Selection { return m.selection }

// ClearSelection empties the selection (e.g. on document reload, when all
// positional keys become meaningless).
func (m *Machine) ClearSelection() { m.selection = Selection{} }

// Active reports whether a gesture is in progress.
func (m *Machine) Active() bool { return m.drag != nil }

// Cancel drops the in-progress gesture without committing anything.
func (m *Machine) Cancel() {
	if m.drag != nil {
		m.logger.Debugf("[GESTURE] Cancelled")
		m.drag = nil
	}
}

/* ─── gesture starts ───────────────────────────────────────────── */

// BeginResize starts an edge drag on a block. Callers only start gestures
// while the machine is idle; a stale drag is discarded, not merged.
func (m *Machine) BeginResize(p Pointer, pe PlacedEffect, edge Edge) {
	m.drag = &resizeDrag{
		pe:       pe,
		edge:     edge,
		startX:   p.X,
		curStart: pe.Start,
		curEnd:   pe.End(),
	}
	m.logger.Debugf("[GESTURE] Begin resize %s edge=%d", pe.Key, edge)
}

// BeginMove starts a body drag on a block sitting on the given fixture row.
func (m *Machine) BeginMove(p Pointer, pe PlacedEffect, fixture show.FixtureID) {
	m.drag = &moveDrag{
		pe:            pe,
		origFixture:   fixture,
		startX:        p.X,
		startY:        p.Y,
		mod:           p.Mod,
		curStart:      pe.Start,
		targetFixture: fixture,
	}
	m.logger.Debugf("[GESTURE] Begin move %s fixture=%d", pe.Key, fixture)
}

// BeginMarquee starts a rectangle selection from empty background.
func (m *Machine) BeginMarquee(p Pointer) {
	m.drag = &marqueeDrag{
		startX:   p.X,
		startY:   p.Y,
		curX:     p.X,
		curY:     p.Y,
		snapshot: m.selection.Clone(),
		shift:    p.Mod.Shift,
	}
	m.logger.Debugf("[GESTURE] Begin marquee shift=%v", p.Mod.Shift)
}

// BeginSwipe starts a swipe selection on a block. The starting block
// counts as the first crossed key. With Alt held at start the swipe
// subtracts from the selection instead of adding.
func (m *Machine) BeginSwipe(p Pointer, key string) {
	d := &swipeDrag{
		snapshot: m.selection.Clone(),
		swiped:   map[string]struct{}{},
		subtract: p.Mod.Alt,
	}
	m.drag = d
	m.crossSwipe(d, key)
	m.logger.Debugf("[GESTURE] Begin swipe key=%s subtract=%v", key, d.subtract)
}

/* ─── pointer move ─────────────────────────────────────────────── */

// PointerMove advances the active gesture. hoverKey is the canonical key
// of the block currently under the cursor, or "" over background; it is
// only consumed by swipe gestures.
func (m *Machine) PointerMove(p Pointer, hoverKey string) {
	switch d := m.drag.(type) {
	case *resizeDrag:
		m.moveResize(d, p)
	case *moveDrag:
		m.moveMove(d, p)
	case *marqueeDrag:
		d.curX, d.curY = p.X, p.Y
		m.selection = m.marqueeSelection(d)
	case *swipeDrag:
		if hoverKey != "" {
			m.crossSwipe(d, hoverKey)
		}
	}
}

func (m *Machine) moveResize(d *resizeDrag, p Pointer) {
	dt := m.transform.SecondsPerPx(p.X - d.startX)
	minDur := m.metrics.MinDuration
	start, end := d.pe.Start, d.pe.End()

	switch d.edge {
	case EdgeLeft:
		start = clamp(start+dt, 0, m.seqDuration)
		if start > end-minDur {
			start = end - minDur
			if start < 0 {
				// Squeezed out of room on the left: hold the minimum
				// duration by pushing the opposite edge right.
				start = 0
				end = minDur
			}
		}
	case EdgeRight:
		end = clamp(end+dt, 0, m.seqDuration)
		if end < start+minDur {
			end = start + minDur
			if end > m.seqDuration {
				end = m.seqDuration
				start = end - minDur
			}
		}
	}
	d.curStart, d.curEnd = start, end
}

func (m *Machine) moveMove(d *moveDrag, p Pointer) {
	if !d.dragging {
		if math.Hypot(p.X-d.startX, p.Y-d.startY) <= m.metrics.DragThreshold {
			return
		}
		d.dragging = true
	}

	dt := m.transform.SecondsPerPx(p.X - d.startX)
	maxStart := m.seqDuration - d.pe.Duration
	if maxStart < 0 {
		maxStart = 0
	}
	d.curStart = clamp(d.pe.Start+dt, 0, maxStart)

	if f, ok := FixtureAt(m.bands, m.transform.RowY(p.Y)); ok {
		d.targetFixture = f
	}
}

func (m *Machine) crossSwipe(d *swipeDrag, key string) {
	if _, seen := d.swiped[key]; seen {
		return
	}
	d.swiped[key] = struct{}{}

	sel := d.snapshot.Clone()
	for k := range d.swiped {
		if d.subtract {
			sel.Remove(k)
		} else {
			sel.Add(k)
		}
	}
	m.selection = sel
}

// marqueeSelection hit-tests every placed effect against the current
// rectangle: its time range against the rect's time span and its fixture
// band against the rect's vertical span.
func (m *Machine) marqueeSelection(d *marqueeDrag) Selection {
	rect := RectFromCorners(d.startX, d.startY, d.curX, d.curY)
	t0 := m.transform.TimeAt(rect.X)
	t1 := m.transform.TimeAt(rect.X + rect.W)
	y0 := m.transform.RowY(rect.Y)
	y1 := m.transform.RowY(rect.Y + rect.H)

	var sel Selection
	if d.shift {
		sel = d.snapshot.Clone()
	} else {
		sel = Selection{}
	}
	for i, row := range m.rows {
		band := m.bands[i]
		if band.Bottom <= y0 || band.Top >= y1 {
			continue
		}
		for _, pe := range row.Effects {
			if pe.Start < t1 && pe.End() > t0 {
				sel.Add(pe.Key)
			}
		}
	}
	return sel
}

/* ─── pointer up: commit ───────────────────────────────────────── */

// PointerUp finishes the active gesture: resize and (dragged) move commit
// to the backend, click-moves mutate the selection, marquee and swipe just
// finalize whatever selection the last move computed. The transient drag
// state is cleared unconditionally; a failed commit is logged and left for
// the next document refresh to reconcile.
func (m *Machine) PointerUp(p Pointer) {
	drag := m.drag
	m.drag = nil

	switch d := drag.(type) {
	case *resizeDrag:
		m.commitResize(d)
	case *moveDrag:
		m.commitMove(d)
	case *marqueeDrag:
		// Selection already tracks the rectangle live. A near-zero-area
		// release still finalizes the last computed (possibly empty) set.
		m.logger.Debugf("[GESTURE] Marquee finalized: %d selected", len(m.selection))
	case *swipeDrag:
		m.logger.Debugf("[GESTURE] Swipe finalized: %d selected", len(m.selection))
	}
}

// commitResize always issues the time-range update, even for a zero-pixel
// drag; a no-op update is acceptable.
func (m *Machine) commitResize(d *resizeDrag) {
	err := m.backend.UpdateEffectTimeRange(d.pe.TrackIndex, d.pe.EffectIndex, d.curStart, d.curEnd)
	if err != nil {
		m.logger.Errorf("[GESTURE] Resize commit failed for %s: %v", d.pe.Key, err)
		return
	}
	m.logger.Debugf("[GESTURE] Resize committed %s -> %.3f..%.3f", d.pe.Key, d.curStart, d.curEnd)
}

func (m *Machine) commitMove(d *moveDrag) {
	if !d.dragging {
		// Never crossed the drag threshold: this was a click. Shift
		// toggles membership, a plain click replaces the selection.
		if d.mod.Shift {
			m.selection.Toggle(d.pe.Key)
		} else {
			m.selection = NewSelection(d.pe.Key)
		}
		m.logger.Debugf("[GESTURE] Click on %s (shift=%v)", d.pe.Key, d.mod.Shift)
		return
	}

	start := d.curStart
	end := start + d.pe.Duration

	// A destination row already covered by the effect's own track needs no
	// structural change; sliding in time is enough.
	if d.targetFixture == d.origFixture || m.trackReaches(d.pe.TrackIndex, d.targetFixture) {
		if err := m.backend.UpdateEffectTimeRange(d.pe.TrackIndex, d.pe.EffectIndex, start, end); err != nil {
			m.logger.Errorf("[GESTURE] Move commit failed for %s: %v", d.pe.Key, err)
		}
		return
	}

	toTrack, ok := m.ownedTrack[d.targetFixture]
	if !ok {
		name := m.fixtureNames[d.targetFixture]
		if name == "" {
			name = fmt.Sprintf("Fixture %d", d.targetFixture)
		}
		idx, err := m.backend.AddTrack(name, d.targetFixture)
		if err != nil {
			m.logger.Errorf("[GESTURE] Creating track for fixture %d failed: %v", d.targetFixture, err)
			return
		}
		toTrack = idx
	}

	newIdx, err := m.backend.MoveEffectToTrack(d.pe.TrackIndex, d.pe.EffectIndex, toTrack)
	if err != nil {
		m.logger.Errorf("[GESTURE] Move commit failed for %s: %v", d.pe.Key, err)
		return
	}
	if err := m.backend.UpdateEffectTimeRange(toTrack, newIdx, start, end); err != nil {
		m.logger.Errorf("[GESTURE] Time update after move failed for %s: %v", d.pe.Key, err)
		return
	}
	m.logger.Debugf("[GESTURE] Moved %s to fixture %d track %d at %.3f", d.pe.Key, d.targetFixture, toTrack, start)
}

func (m *Machine) trackReaches(trackIndex int, fixture show.FixtureID) bool {
	for _, ti := range m.fixtureTracks[fixture] {
		if ti == trackIndex {
			return true
		}
	}
	return false
}

/* ─── live state for the renderer ──────────────────────────────── */

// Preview returns the ghost block for an in-flight resize or move.
func (m *Machine) Preview() (DragPreview, bool) {
	switch d := m.drag.(type) {
	case *resizeDrag:
		return DragPreview{Key: d.pe.Key, Start: d.curStart, End: d.curEnd}, true
	case *moveDrag:
		if !d.dragging {
			return DragPreview{}, false
		}
		return DragPreview{
			Key:           d.pe.Key,
			Start:         d.curStart,
			End:           d.curStart + d.pe.Duration,
			TargetFixture: d.targetFixture,
			HasTarget:     true,
		}, true
	default:
		return DragPreview{}, false
	}
}

// Marquee returns the live selection rectangle in screen space.
func (m *Machine) Marquee() (Rect, bool) {
	if d, ok := m.drag.(*marqueeDrag); ok {
		return RectFromCorners(d.startX, d.startY, d.curX, d.curY), true
	}
	return Rect{}, false
}

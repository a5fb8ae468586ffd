package ui

import (
	"fmt"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/glimhq/glim/core/session"
	"github.com/glimhq/glim/core/show"
	game_log "github.com/glimhq/glim/internal/log"
	"github.com/glimhq/glim/internal/timeline"
)

const (
	rulerHeight = 28  // seconds ruler strip at the top, in px
	labelWidth  = 120 // fixture-name gutter on the left, in px
	edgePx      = 5   // resize handle width on each block edge
)

// View is the Ebiten game: it feeds classified pointer events into the
// gesture engine and renders the stacked timeline it projects.
type View struct {
	sess    *session.Session
	machine *timeline.Machine
	cam     *Camera
	metrics timeline.Metrics
	logger  *game_log.Logger

	seqIndex int
	showPath string
	mode     timeline.Mode

	winW, winH int

	// input edge latches
	leftPrev bool
	keyPrev  map[ebiten.Key]bool

	// cross-goroutine document handoff (file watcher -> Update)
	mu      sync.Mutex
	pending *show.Show

	lastRev uint64
	lastTF  timeline.Transform
	stale   bool
}

func New(sess *session.Session, seqIndex int, showPath string, metrics timeline.Metrics, logger *game_log.Logger) *View {
	v := &View{
		sess:     sess,
		cam:      NewCamera(),
		metrics:  metrics,
		logger:   logger,
		seqIndex: seqIndex,
		showPath: showPath,
		keyPrev:  map[ebiten.Key]bool{},
		stale:    true,
	}
	v.machine = timeline.NewMachine(&sessionBackend{sess: sess, seqIndex: seqIndex}, metrics, logger)
	return v
}

// QueueDocument hands a freshly loaded document to the next Update call.
// Safe to call from the file-watcher goroutine.
func (v *View) QueueDocument(doc *show.Show) {
	v.mu.Lock()
	v.pending = doc
	v.mu.Unlock()
}

func (v *View) Layout(w, h int) (int, int) {
	v.winW, v.winH = w, h
	return w, h
}

// transform maps screen px inside the track area to timeline coordinates.
// Camera zoom folds into the horizontal scale; rows never scale vertically.
func (v *View) transform() timeline.Transform {
	return timeline.Transform{
		Zoom:        1,
		PxPerSecond: v.metrics.PxPerSecond * v.cam.Zoom,
		OriginX:     float64(labelWidth) + v.cam.OffsetX,
		OriginY:     float64(rulerHeight) + v.cam.OffsetY,
	}
}

func (v *View) screenY(rowY float64) float64 {
	return rowY + float64(rulerHeight) + v.cam.OffsetY
}

/* ─── update ───────────────────────────────────────────────────── */

func (v *View) Update() error {
	v.consumePending()
	v.handleKeys()

	left := isMouseButtonPressed(ebiten.MouseButtonLeft)
	mx, my := cursorPosition()
	p := timeline.Pointer{
		X: float64(mx),
		Y: float64(my),
		Mod: timeline.Modifiers{
			Shift: isKeyPressed(ebiten.KeyShiftLeft) || isKeyPressed(ebiten.KeyShiftRight),
			Alt:   isKeyPressed(ebiten.KeyAltLeft) || isKeyPressed(ebiten.KeyAltRight),
		},
	}

	panned := v.cam.HandleMouse(!v.machine.Active() && !left)
	if panned {
		v.stale = true
	}
	v.refreshMachine()

	switch {
	case left && !v.leftPrev:
		v.pointerDown(p)
	case left && v.leftPrev:
		hover, _, _ := v.hitTest(p.X, p.Y)
		key := ""
		if hover != nil {
			key = hover.Key()
		}
		v.machine.PointerMove(p, key)
	case !left && v.leftPrev:
		v.machine.PointerUp(p)
		v.refreshMachine()
	}
	v.leftPrev = left
	return nil
}

func (v *View) consumePending() {
	v.mu.Lock()
	doc := v.pending
	v.pending = nil
	v.mu.Unlock()
	if doc == nil {
		return
	}
	v.machine.Cancel()
	v.machine.ClearSelection()
	v.sess.Replace(doc)
	v.logger.Infof("[VIEW] Show file reloaded from disk")
}

// keyPressedOnce reports a key's rising edge.
func (v *View) keyPressedOnce(k ebiten.Key) bool {
	down := isKeyPressed(k)
	was := v.keyPrev[k]
	v.keyPrev[k] = down
	return down && !was
}

func (v *View) handleKeys() {
	ctrl := isKeyPressed(ebiten.KeyControlLeft) || isKeyPressed(ebiten.KeyControlRight)
	shift := isKeyPressed(ebiten.KeyShiftLeft) || isKeyPressed(ebiten.KeyShiftRight)

	if v.keyPressedOnce(ebiten.KeyEscape) {
		v.machine.Cancel()
	}
	if v.keyPressedOnce(ebiten.KeyQ) && !ctrl {
		v.mode = timeline.ModeSelect
	}
	if v.keyPressedOnce(ebiten.KeyW) && !ctrl {
		v.mode = timeline.ModeSwipe
	}
	if v.keyPressedOnce(ebiten.KeyZ) && ctrl {
		if shift {
			v.redo()
		} else {
			v.undo()
		}
	}
	if v.keyPressedOnce(ebiten.KeyY) && ctrl {
		v.redo()
	}
	if v.keyPressedOnce(ebiten.KeyS) && ctrl {
		v.save()
	}
	if v.keyPressedOnce(ebiten.KeyDelete) || v.keyPressedOnce(ebiten.KeyBackspace) {
		v.deleteSelection()
	}
}

func (v *View) undo() {
	desc, err := v.sess.Undo()
	if err != nil {
		v.logger.Debugf("[VIEW] Undo: %v", err)
		return
	}
	v.machine.ClearSelection()
	v.logger.Infof("[VIEW] Undid %q", desc)
}

func (v *View) redo() {
	desc, err := v.sess.Redo()
	if err != nil {
		v.logger.Debugf("[VIEW] Redo: %v", err)
		return
	}
	v.machine.ClearSelection()
	v.logger.Infof("[VIEW] Redid %q", desc)
}

func (v *View) save() {
	if v.showPath == "" {
		v.logger.Warnf("[VIEW] No show path to save to")
		return
	}
	if err := v.sess.Document().Save(v.showPath); err != nil {
		v.logger.Errorf("[VIEW] Save failed: %v", err)
		return
	}
	v.logger.Infof("[VIEW] Saved %s", v.showPath)
}

func (v *View) deleteSelection() {
	keys := v.machine.Selection().Keys()
	if len(keys) == 0 {
		return
	}
	targets := timeline.DedupeKeys(keys)
	if err := v.sess.DeleteEffects(v.seqIndex, targets); err != nil {
		v.logger.Errorf("[VIEW] Delete failed: %v", err)
		return
	}
	v.machine.ClearSelection()
	v.logger.Infof("[VIEW] Deleted %d effects", len(targets))
}

// refreshMachine rebuilds the gesture engine's projections whenever the
// document revision or the viewport moved. Selection keys that no longer
// resolve are dropped; positional identity does not survive edits.
func (v *View) refreshMachine() {
	tf := v.transform()
	rev := v.sess.Revision()
	if !v.stale && rev == v.lastRev && tf == v.lastTF {
		return
	}
	doc := v.sess.Document()
	if err := v.machine.Refresh(doc, v.seqIndex, tf); err != nil {
		v.logger.Errorf("[VIEW] Refresh: %v", err)
		return
	}
	if rev != v.lastRev {
		v.pruneSelection(doc)
	}
	v.lastRev = rev
	v.lastTF = tf
	v.stale = false
}

func (v *View) pruneSelection(doc *show.Show) {
	if v.seqIndex >= len(doc.Sequences) {
		v.machine.ClearSelection()
		return
	}
	seq := &doc.Sequences[v.seqIndex]
	sel := v.machine.Selection()
	for _, k := range sel.Keys() {
		ti, ei, ok := timeline.DecodeKey(k)
		if !ok || ti >= len(seq.Tracks) || ei >= len(seq.Tracks[ti].Effects) {
			sel.Remove(k)
		}
	}
}

/* ─── hit testing ──────────────────────────────────────────────── */

type blockHit struct {
	pe      timeline.PlacedEffect
	fixture show.FixtureID
	rect    timeline.Rect // screen space
}

func (h *blockHit) Key() string { return h.pe.Key }

func (v *View) blockRect(band timeline.RowBand, pe timeline.PlacedEffect) timeline.Rect {
	tf := v.transform()
	x0 := tf.XAt(pe.Start)
	x1 := tf.XAt(pe.End())
	y := v.screenY(band.Top + v.metrics.RowPadding + float64(pe.Lane)*v.metrics.BaseLaneHeight)
	return timeline.Rect{X: x0, Y: y, W: x1 - x0, H: v.metrics.BaseLaneHeight}
}

// hitTest finds the topmost block under the cursor, and whether the cursor
// sits on a resize handle.
func (v *View) hitTest(x, y float64) (*blockHit, timeline.Edge, bool) {
	rows := v.machine.Rows()
	bands := v.machine.Bands()
	for i := range rows {
		for _, pe := range rows[i].Effects {
			r := v.blockRect(bands[i], pe)
			if x < r.X || x >= r.X+r.W || y < r.Y || y >= r.Y+r.H {
				continue
			}
			hit := &blockHit{pe: pe, fixture: rows[i].Fixture, rect: r}
			onEdge := false
			edge := timeline.EdgeLeft
			// Resize handles shrink away on slivers too narrow to have a
			// grabbable body.
			if r.W > 3*edgePx {
				if x < r.X+edgePx {
					onEdge = true
				} else if x >= r.X+r.W-edgePx {
					onEdge, edge = true, timeline.EdgeRight
				}
			}
			return hit, edge, onEdge
		}
	}
	return nil, timeline.EdgeLeft, false
}

func (v *View) pointerDown(p timeline.Pointer) {
	if p.Y < rulerHeight {
		return
	}
	hit, edge, onEdge := v.hitTest(p.X, p.Y)

	if v.mode == timeline.ModeSwipe {
		if hit != nil {
			v.machine.BeginSwipe(p, hit.Key())
		}
		return
	}
	switch {
	case hit != nil && onEdge:
		v.machine.BeginResize(p, hit.pe, edge)
	case hit != nil:
		v.machine.BeginMove(p, hit.pe, hit.fixture)
	default:
		v.machine.BeginMarquee(p)
	}
}

/* ─── draw ─────────────────────────────────────────────────────── */

func (v *View) Draw(screen *ebiten.Image) {
	screen.Fill(colBGTop)
	v.drawRows(screen)
	v.drawRuler(screen)
	v.drawBlocks(screen)
	v.drawPreview(screen)
	v.drawMarquee(screen)
	v.drawStatus(screen)
}

func (v *View) drawRuler(screen *ebiten.Image) {
	fillRect(screen, 0, 0, float64(v.winW), rulerHeight, colRuler)
	tf := v.transform()

	step := tickStep(tf.PxPerSecond)
	start := tf.TimeAt(float64(labelWidth))
	if start < 0 {
		start = 0
	}
	start = float64(int(start/step)) * step
	for sec := start; ; sec += step {
		x := tf.XAt(sec)
		if x > float64(v.winW) {
			break
		}
		if x < labelWidth {
			continue
		}
		strokeLine(screen, x, rulerHeight-8, x, rulerHeight, colRulerTick)
		drawText(screen, fmt.Sprintf("%.4gs", sec), int(x)+3, 6)
	}
}

// tickStep picks a ruler step that keeps at least ~70px between labels.
func tickStep(pxPerSecond float64) float64 {
	for _, s := range []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60} {
		if s*pxPerSecond >= 70 {
			return s
		}
	}
	return 120
}

func (v *View) drawRows(screen *ebiten.Image) {
	rows := v.machine.Rows()
	bands := v.machine.Bands()
	for i, row := range rows {
		top := v.screenY(bands[i].Top)
		h := bands[i].Bottom - bands[i].Top
		c := colRowEven
		if i%2 == 1 {
			c = colRowOdd
		}
		fillRect(screen, 0, top, float64(v.winW), h, c)
		strokeLine(screen, 0, top+h, float64(v.winW), top+h, colRowBorder)
		drawText(screen, fmt.Sprintf("%d %s", row.Fixture, fixtureLabel(row)), 6, int(top)+4)
	}
}

func fixtureLabel(row timeline.StackedRow) string {
	if row.LaneCount > 1 {
		return fmt.Sprintf("(%d lanes)", row.LaneCount)
	}
	return ""
}

func (v *View) drawBlocks(screen *ebiten.Image) {
	rows := v.machine.Rows()
	bands := v.machine.Bands()
	sel := v.machine.Selection()
	for i := range rows {
		for _, pe := range rows[i].Effects {
			r := v.blockRect(bands[i], pe)
			if r.X+r.W < labelWidth || r.X > float64(v.winW) {
				continue
			}
			fillRect(screen, r.X, r.Y, r.W, r.H, effectColor(pe.Kind))
			border := colBlockBorder
			if sel.Has(pe.Key) {
				border = colSelected
			}
			strokeRect(screen, r.X, r.Y, r.W, r.H, border)
			if r.W > 40 {
				drawText(screen, string(pe.Kind), int(r.X)+edgePx+1, int(r.Y)+2)
			}
		}
	}
}

func (v *View) drawPreview(screen *ebiten.Image) {
	prev, ok := v.machine.Preview()
	if !ok {
		return
	}
	band, lane, ok := v.previewBand(prev)
	if !ok {
		return
	}
	tf := v.transform()
	x0 := tf.XAt(prev.Start)
	x1 := tf.XAt(prev.End)
	y := v.screenY(band.Top + v.metrics.RowPadding + float64(lane)*v.metrics.BaseLaneHeight)
	fillRect(screen, x0, y, x1-x0, v.metrics.BaseLaneHeight, colPreview)
	strokeRect(screen, x0, y, x1-x0, v.metrics.BaseLaneHeight, colSelected)
}

// previewBand picks the row the ghost renders on: the drag target's band
// when the gesture retargets rows, otherwise the block's own.
func (v *View) previewBand(prev timeline.DragPreview) (timeline.RowBand, int, bool) {
	rows := v.machine.Rows()
	bands := v.machine.Bands()
	if prev.HasTarget {
		for i := range bands {
			if bands[i].Fixture == prev.TargetFixture {
				return bands[i], 0, true
			}
		}
		return timeline.RowBand{}, 0, false
	}
	for i := range rows {
		for _, pe := range rows[i].Effects {
			if pe.Key == prev.Key {
				return bands[i], pe.Lane, true
			}
		}
	}
	return timeline.RowBand{}, 0, false
}

func (v *View) drawMarquee(screen *ebiten.Image) {
	rect, ok := v.machine.Marquee()
	if !ok {
		return
	}
	fillRect(screen, rect.X, rect.Y, rect.W, rect.H, colMarqueeFill)
	strokeRect(screen, rect.X, rect.Y, rect.W, rect.H, colMarqueeLine)
}

func (v *View) drawStatus(screen *ebiten.Image) {
	mode := "select"
	if v.mode == timeline.ModeSwipe {
		mode = "swipe"
	}
	status := fmt.Sprintf("mode:%s  selected:%d  zoom:%.2fx", mode, len(v.machine.Selection()), v.cam.Zoom)
	if desc, ok := v.sess.CanUndo(); ok {
		status += "  undo:" + desc
	}
	drawText(screen, status, 6, v.winH-16)
}

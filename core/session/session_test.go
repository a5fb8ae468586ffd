package session

import (
	"io"
	"testing"

	"github.com/glimhq/glim/core/show"
	game_log "github.com/glimhq/glim/internal/log"
)

func newTestSession() *Session {
	doc := &show.Show{
		Name:     "test",
		Fixtures: []show.Fixture{{ID: 1, Name: "Roof", PixelCount: 10}},
		Sequences: []show.Sequence{{
			Name:     "seq",
			Duration: 60,
			Tracks: []show.Track{{
				Name:   "roof",
				Target: show.TargetFixtures(1),
				Effects: []show.EffectInstance{
					{Kind: show.EffectSolid, TimeRange: show.TimeRange{Start: 1, End: 2}},
					{Kind: show.EffectChase, TimeRange: show.TimeRange{Start: 5, End: 8}},
				},
			}},
		}},
	}
	return New(doc, game_log.New(io.Discard, game_log.LevelNone))
}

func starts(s *Session, track int) []float64 {
	effects := s.Document().Sequences[0].Tracks[track].Effects
	out := make([]float64, len(effects))
	for i, e := range effects {
		out[i] = e.TimeRange.Start
	}
	return out
}

func TestAddTrackReturnsIndexAndBumpsRevision(t *testing.T) {
	s := newTestSession()
	rev := s.Revision()

	idx, err := s.AddTrack(0, "tree", show.TargetFixtures(2))
	if err != nil {
		t.Fatalf("AddTrack: %v", err)
	}
	if idx != 1 {
		t.Fatalf("index = %d, want 1", idx)
	}
	if s.Revision() == rev {
		t.Fatal("revision did not move")
	}
	if _, err := s.AddTrack(5, "bad", show.TargetAll()); err == nil {
		t.Fatal("out-of-range sequence accepted")
	}
}

func TestAddEffectKeepsTrackSorted(t *testing.T) {
	s := newTestSession()

	idx, err := s.AddEffect(0, 0, show.EffectStrobe, 3, 4, show.BlendAdd, 1)
	if err != nil {
		t.Fatalf("AddEffect: %v", err)
	}
	if idx != 1 {
		t.Fatalf("insertion index = %d, want 1 (between starts 1 and 5)", idx)
	}
	got := starts(s, 0)
	want := []float64{1, 3, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("starts = %v, want %v", got, want)
		}
	}

	if _, err := s.AddEffect(0, 0, show.EffectSolid, 4, 4, show.BlendAdd, 1); err == nil {
		t.Fatal("empty time range accepted")
	}
	if _, err := s.AddEffect(0, 9, show.EffectSolid, 0, 1, show.BlendAdd, 1); err == nil {
		t.Fatal("out-of-range track accepted")
	}
}

func TestUpdateEffectTimeRangeResortsTrack(t *testing.T) {
	s := newTestSession()

	// Slide the first effect past the second: its index must change.
	if err := s.UpdateEffectTimeRange(0, 0, 0, 10, 12); err != nil {
		t.Fatalf("UpdateEffectTimeRange: %v", err)
	}
	got := starts(s, 0)
	if got[0] != 5 || got[1] != 10 {
		t.Fatalf("starts = %v, want [5 10]", got)
	}

	if err := s.UpdateEffectTimeRange(0, 0, 0, -1, 2); err == nil {
		t.Fatal("negative start accepted")
	}
	if err := s.UpdateEffectTimeRange(0, 0, 7, 0, 1); err == nil {
		t.Fatal("out-of-range effect accepted")
	}
}

func TestMoveEffectToTrackReturnsNewIndex(t *testing.T) {
	s := newTestSession()
	if _, err := s.AddTrack(0, "tree", show.TargetFixtures(2)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddEffect(0, 1, show.EffectSolid, 0, 1, show.BlendAdd, 1); err != nil {
		t.Fatal(err)
	}

	// Move [5,8) from track 0 into track 1; it sorts after [0,1).
	idx, err := s.MoveEffectToTrack(0, 0, 1, 1)
	if err != nil {
		t.Fatalf("MoveEffectToTrack: %v", err)
	}
	if idx != 1 {
		t.Fatalf("new index = %d, want 1", idx)
	}
	if got := starts(s, 0); len(got) != 1 || got[0] != 1 {
		t.Fatalf("source track starts = %v, want [1]", got)
	}
	if got := starts(s, 1); len(got) != 2 || got[1] != 5 {
		t.Fatalf("destination track starts = %v, want [0 5]", got)
	}

	if _, err := s.MoveEffectToTrack(0, 0, 5, 1); err == nil {
		t.Fatal("out-of-range effect accepted")
	}
}

func TestDeleteEffectsHandlesDescendingAndDuplicates(t *testing.T) {
	s := newTestSession()
	if _, err := s.AddEffect(0, 0, show.EffectStrobe, 3, 4, show.BlendAdd, 1); err != nil {
		t.Fatal(err)
	}
	// starts are now [1 3 5]; delete indices 0 and 2, with a duplicate.
	err := s.DeleteEffects(0, [][2]int{{0, 2}, {0, 0}, {0, 0}})
	if err != nil {
		t.Fatalf("DeleteEffects: %v", err)
	}
	if got := starts(s, 0); len(got) != 1 || got[0] != 3 {
		t.Fatalf("starts = %v, want [3]", got)
	}

	if err := s.DeleteEffects(0, [][2]int{{9, 0}}); err == nil {
		t.Fatal("out-of-range track accepted")
	}
}

func TestUndoRedoRoundTrip(t *testing.T) {
	s := newTestSession()
	if _, err := s.AddEffect(0, 0, show.EffectStrobe, 3, 4, show.BlendAdd, 1); err != nil {
		t.Fatal(err)
	}

	desc, err := s.Undo()
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if desc == "" {
		t.Fatal("undo returned an empty description")
	}
	if got := starts(s, 0); len(got) != 2 {
		t.Fatalf("undo did not restore the snapshot: %v", got)
	}

	if _, err := s.Redo(); err != nil {
		t.Fatalf("Redo: %v", err)
	}
	if got := starts(s, 0); len(got) != 3 {
		t.Fatalf("redo did not re-apply the edit: %v", got)
	}

	if _, err := s.Redo(); err == nil {
		t.Fatal("redo on an empty stack should fail")
	}
}

func TestUndoOnEmptyStackFails(t *testing.T) {
	s := newTestSession()
	if _, err := s.Undo(); err == nil {
		t.Fatal("undo on an empty stack should fail")
	}
	if _, ok := s.CanUndo(); ok {
		t.Fatal("CanUndo true on an empty stack")
	}
}

func TestTimeUpdatesCoalesceIntoOneUndoStep(t *testing.T) {
	s := newTestSession()

	// A drag produces a burst of updates on one effect; undo collapses them.
	for _, end := range []float64{2.5, 3.0, 3.5} {
		if err := s.UpdateEffectTimeRange(0, 0, 0, 1, end); err != nil {
			t.Fatalf("UpdateEffectTimeRange: %v", err)
		}
	}
	if _, err := s.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if got := s.Document().Sequences[0].Tracks[0].Effects[0].TimeRange.End; got != 2 {
		t.Fatalf("end after undo = %v, want the pre-drag 2", got)
	}
	if _, ok := s.CanUndo(); ok {
		t.Fatal("the whole burst should have been one undo step")
	}
}

func TestDifferentEffectsDoNotCoalesce(t *testing.T) {
	s := newTestSession()

	if err := s.UpdateEffectTimeRange(0, 0, 0, 1, 2.5); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateEffectTimeRange(0, 0, 1, 5, 9); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Undo(); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.CanUndo(); !ok {
		t.Fatal("edits on different effects must stay separate undo steps")
	}
}

func TestNewEditClearsRedoHistory(t *testing.T) {
	s := newTestSession()
	if _, err := s.AddEffect(0, 0, show.EffectStrobe, 3, 4, show.BlendAdd, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Undo(); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.CanRedo(); !ok {
		t.Fatal("expected a redo entry after undo")
	}
	if _, err := s.AddTrack(0, "new", show.TargetAll()); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.CanRedo(); ok {
		t.Fatal("a fresh edit must clear the redo stack")
	}
}

func TestUndoDepthIsBounded(t *testing.T) {
	s := newTestSession()
	for i := 0; i < maxUndoLevels+10; i++ {
		if _, err := s.AddTrack(0, "t", show.TargetAll()); err != nil {
			t.Fatal(err)
		}
	}
	undone := 0
	for {
		if _, err := s.Undo(); err != nil {
			break
		}
		undone++
	}
	if undone != maxUndoLevels {
		t.Fatalf("undid %d steps, want %d", undone, maxUndoLevels)
	}
}

func TestReplaceClearsHistory(t *testing.T) {
	s := newTestSession()
	if _, err := s.AddTrack(0, "t", show.TargetAll()); err != nil {
		t.Fatal(err)
	}
	rev := s.Revision()

	s.Replace(show.Empty())
	if s.Revision() == rev {
		t.Fatal("replace should bump the revision")
	}
	if _, ok := s.CanUndo(); ok {
		t.Fatal("replace should drop undo history")
	}
	if len(s.Document().Sequences) != 0 {
		t.Fatal("document not replaced")
	}
}

func TestFailedCommandLeavesNoUndoEntry(t *testing.T) {
	s := newTestSession()
	if err := s.UpdateEffectTimeRange(0, 0, 99, 0, 1); err == nil {
		t.Fatal("expected an error")
	}
	if _, ok := s.CanUndo(); ok {
		t.Fatal("a failed command must not push an undo entry")
	}
}

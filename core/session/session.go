// Package session owns the authoritative show document and exposes the
// edit commands the editor commits against. Every successful mutation bumps
// a revision counter; views treat their derived placements as disposable
// and rebuild them from a fresh snapshot whenever the revision moves,
// because effect identity is positional and edits re-sort effect lists.
package session

import (
	"fmt"
	"sort"

	"github.com/glimhq/glim/core/show"
	game_log "github.com/glimhq/glim/internal/log"
)

const maxUndoLevels = 50

type undoEntry struct {
	description   string
	sequenceIndex int
	snapshot      show.Sequence
	// Consecutive commands sharing a coalesce key reuse one entry, so a
	// run of micro-edits on the same effect undoes in a single step.
	coalesceKey string
}

// Session wraps a show document with command execution and snapshot-based
// undo/redo. It is single-goroutine: all calls come from the UI event loop.
type Session struct {
	doc    *show.Show
	logger *game_log.Logger

	rev       uint64
	undoStack []undoEntry
	redoStack []undoEntry
}

func New(doc *show.Show, logger *game_log.Logger) *Session {
	return &Session{doc: doc, logger: logger}
}

// Document returns the live document. Callers must treat it as read-only;
// mutation goes through the command methods.
func (s *Session) Document() *show.Show { return s.doc }

// Revision increments on every successful mutation, including undo/redo
// and document replacement.
func (s *Session) Revision() uint64 { return s.rev }

// Replace swaps in a new document (e.g. after an external file reload) and
// discards edit history, which described sequences that no longer exist.
func (s *Session) Replace(doc *show.Show) {
	s.doc = doc
	s.undoStack = nil
	s.redoStack = nil
	s.rev++
	s.logger.Infof("[SESSION] Document replaced (rev %d)", s.rev)
}

func (s *Session) sequence(idx int) (*show.Sequence, error) {
	if idx < 0 || idx >= len(s.doc.Sequences) {
		return nil, fmt.Errorf("sequence index %d out of range", idx)
	}
	return &s.doc.Sequences[idx], nil
}

func (s *Session) track(seqIdx, trackIdx int) (*show.Track, error) {
	seq, err := s.sequence(seqIdx)
	if err != nil {
		return nil, err
	}
	if trackIdx < 0 || trackIdx >= len(seq.Tracks) {
		return nil, fmt.Errorf("track index %d out of range", trackIdx)
	}
	return &seq.Tracks[trackIdx], nil
}

// pushUndo snapshots the sequence unless the command coalesces with the
// entry on top of the stack. Callers validate all indices first so a
// pushed entry always corresponds to a mutation that will succeed.
func (s *Session) pushUndo(seqIdx int, description, coalesceKey string) {
	seq := &s.doc.Sequences[seqIdx]

	coalesced := coalesceKey != "" && len(s.undoStack) > 0 &&
		s.undoStack[len(s.undoStack)-1].coalesceKey == coalesceKey
	if coalesced {
		s.undoStack[len(s.undoStack)-1].description = description
	} else {
		s.undoStack = append(s.undoStack, undoEntry{
			description:   description,
			sequenceIndex: seqIdx,
			snapshot:      seq.Clone(),
			coalesceKey:   coalesceKey,
		})
		if len(s.undoStack) > maxUndoLevels {
			s.undoStack = s.undoStack[1:]
		}
	}

	// Any new edit invalidates the redo history, coalesced or not.
	s.redoStack = nil
	s.rev++
}

// AddTrack appends a track to the sequence and returns its index.
func (s *Session) AddTrack(seqIdx int, name string, target show.EffectTarget) (int, error) {
	seq, err := s.sequence(seqIdx)
	if err != nil {
		return 0, err
	}
	s.pushUndo(seqIdx, fmt.Sprintf("Add track %q", name), "")
	seq.Tracks = append(seq.Tracks, show.Track{Name: name, Target: target})
	s.logger.Debugf("[SESSION] Added track %q targeting %s (index %d)", name, target, len(seq.Tracks)-1)
	return len(seq.Tracks) - 1, nil
}

// insertSorted places the effect at its start-time position and returns
// the insertion index.
func insertSorted(track *show.Track, effect show.EffectInstance) int {
	pos := sort.Search(len(track.Effects), func(i int) bool {
		return track.Effects[i].TimeRange.Start >= effect.TimeRange.Start
	})
	track.Effects = append(track.Effects, show.EffectInstance{})
	copy(track.Effects[pos+1:], track.Effects[pos:])
	track.Effects[pos] = effect
	return pos
}

// AddEffect inserts an effect into the track, keeping the effect list
// sorted by start time, and returns the insertion index.
func (s *Session) AddEffect(seqIdx, trackIdx int, kind show.EffectKind, start, end float64, blend show.BlendMode, opacity float64) (int, error) {
	tr, ok := show.NewTimeRange(start, end)
	if !ok {
		return 0, fmt.Errorf("invalid time range %v..%v", start, end)
	}
	track, err := s.track(seqIdx, trackIdx)
	if err != nil {
		return 0, err
	}
	s.pushUndo(seqIdx, fmt.Sprintf("Add %s effect", kind), "")
	pos := insertSorted(track, show.EffectInstance{Kind: kind, TimeRange: tr, BlendMode: blend, Opacity: opacity})
	return pos, nil
}

// UpdateEffectTimeRange replaces an effect's time range, then re-sorts the
// track by start time. The effect's index may change as a result; callers
// must re-derive positions from the document afterwards.
func (s *Session) UpdateEffectTimeRange(seqIdx, trackIdx, effectIdx int, start, end float64) error {
	tr, ok := show.NewTimeRange(start, end)
	if !ok {
		return fmt.Errorf("invalid time range %v..%v", start, end)
	}
	track, err := s.track(seqIdx, trackIdx)
	if err != nil {
		return err
	}
	if effectIdx < 0 || effectIdx >= len(track.Effects) {
		return fmt.Errorf("effect index %d out of range", effectIdx)
	}
	key := fmt.Sprintf("time:%d:%d:%d", seqIdx, trackIdx, effectIdx)
	s.pushUndo(seqIdx, "Update effect timing", key)
	track.Effects[effectIdx].TimeRange = tr
	sort.SliceStable(track.Effects, func(i, j int) bool {
		return track.Effects[i].TimeRange.Start < track.Effects[j].TimeRange.Start
	})
	s.logger.Debugf("[SESSION] Updated effect %d/%d to %.3f..%.3f", trackIdx, effectIdx, start, end)
	return nil
}

// MoveEffectToTrack removes the effect from its source track and inserts
// it into the destination, sorted by start time. Returns the effect's new
// index in the destination track.
func (s *Session) MoveEffectToTrack(seqIdx, fromTrack, effectIdx, toTrack int) (int, error) {
	src, err := s.track(seqIdx, fromTrack)
	if err != nil {
		return 0, fmt.Errorf("source %w", err)
	}
	dst, err := s.track(seqIdx, toTrack)
	if err != nil {
		return 0, fmt.Errorf("destination %w", err)
	}
	if effectIdx < 0 || effectIdx >= len(src.Effects) {
		return 0, fmt.Errorf("effect index %d out of range", effectIdx)
	}
	s.pushUndo(seqIdx, "Move effect to track", "")
	effect := src.Effects[effectIdx]
	src.Effects = append(src.Effects[:effectIdx], src.Effects[effectIdx+1:]...)
	pos := insertSorted(dst, effect)
	s.logger.Debugf("[SESSION] Moved effect %d/%d to track %d (new index %d)", fromTrack, effectIdx, toTrack, pos)
	return pos, nil
}

// DeleteEffects removes multiple (trackIndex, effectIndex) targets in one
// undoable step. Indices are deleted per track in descending order so
// earlier deletions don't shift later ones.
func (s *Session) DeleteEffects(seqIdx int, targets [][2]int) error {
	seq, err := s.sequence(seqIdx)
	if err != nil {
		return err
	}
	byTrack := map[int][]int{}
	for _, t := range targets {
		if t[0] < 0 || t[0] >= len(seq.Tracks) {
			return fmt.Errorf("track index %d out of range", t[0])
		}
		byTrack[t[0]] = append(byTrack[t[0]], t[1])
	}
	s.pushUndo(seqIdx, fmt.Sprintf("Delete %d effects", len(targets)), "")
	for trackIdx, effectIndices := range byTrack {
		track := &seq.Tracks[trackIdx]
		sort.Sort(sort.Reverse(sort.IntSlice(effectIndices)))
		prev := -1
		for _, idx := range effectIndices {
			if idx == prev {
				continue
			}
			prev = idx
			if idx >= 0 && idx < len(track.Effects) {
				track.Effects = append(track.Effects[:idx], track.Effects[idx+1:]...)
			}
		}
	}
	return nil
}

// Undo restores the sequence snapshot from the top undo entry and returns
// its description.
func (s *Session) Undo() (string, error) {
	if len(s.undoStack) == 0 {
		return "", fmt.Errorf("nothing to undo")
	}
	entry := s.undoStack[len(s.undoStack)-1]
	s.undoStack = s.undoStack[:len(s.undoStack)-1]

	seq, err := s.sequence(entry.sequenceIndex)
	if err != nil {
		return "", err
	}
	s.redoStack = append(s.redoStack, undoEntry{
		description:   entry.description,
		sequenceIndex: entry.sequenceIndex,
		snapshot:      seq.Clone(),
	})
	s.doc.Sequences[entry.sequenceIndex] = entry.snapshot
	s.rev++
	return entry.description, nil
}

// Redo re-applies the most recently undone command.
func (s *Session) Redo() (string, error) {
	if len(s.redoStack) == 0 {
		return "", fmt.Errorf("nothing to redo")
	}
	entry := s.redoStack[len(s.redoStack)-1]
	s.redoStack = s.redoStack[:len(s.redoStack)-1]

	seq, err := s.sequence(entry.sequenceIndex)
	if err != nil {
		return "", err
	}
	s.undoStack = append(s.undoStack, undoEntry{
		description:   entry.description,
		sequenceIndex: entry.sequenceIndex,
		snapshot:      seq.Clone(),
	})
	s.doc.Sequences[entry.sequenceIndex] = entry.snapshot
	s.rev++
	return entry.description, nil
}

// CanUndo reports whether an undo entry is available, with its description.
func (s *Session) CanUndo() (string, bool) {
	if len(s.undoStack) == 0 {
		return "", false
	}
	return s.undoStack[len(s.undoStack)-1].description, true
}

// CanRedo reports whether a redo entry is available, with its description.
func (s *Session) CanRedo() (string, bool) {
	if len(s.redoStack) == 0 {
		return "", false
	}
	return s.redoStack[len(s.redoStack)-1].description, true
}

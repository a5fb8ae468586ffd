// Package show defines the light-show document: fixtures, groups, and the
// sequences of effect tracks an editor manipulates. The document is plain
// data; all mutation goes through core/session.
package show

import (
	"encoding/json"
	"fmt"
)

// FixtureID identifies a fixture. A distinct type keeps fixture IDs from
// being confused with track or group indices.
type FixtureID int

// GroupID identifies a fixture group.
type GroupID int

// Fixture is an addressable lighting unit. Connection and patching details
// live outside this document; the editor only needs identity and size.
type Fixture struct {
	ID         FixtureID `json:"id"`
	Name       string    `json:"name"`
	PixelCount int       `json:"pixelCount"`
}

// GroupMember is either a direct fixture reference or a nested group
// reference. Exactly one of the two fields is set.
type GroupMember struct {
	Fixture *FixtureID `json:"fixture,omitempty"`
	Group   *GroupID   `json:"group,omitempty"`
}

// FixtureMember builds a direct fixture member.
func FixtureMember(id FixtureID) GroupMember {
	return GroupMember{Fixture: &id}
}

// GroupRef builds a nested group member.
func GroupRef(id GroupID) GroupMember {
	return GroupMember{Group: &id}
}

// Group is a named collection of fixtures and/or other groups. The member
// graph is not guaranteed acyclic; consumers must guard traversal.
type Group struct {
	ID      GroupID       `json:"id"`
	Name    string        `json:"name"`
	Members []GroupMember `json:"members"`
}

// BlendMode names how an effect's output combines with the layer below it.
// The editor treats it as an opaque label; the evaluator gives it meaning.
type BlendMode string

const (
	BlendOverride BlendMode = "override"
	BlendAdd      BlendMode = "add"
	BlendMultiply BlendMode = "multiply"
	BlendMax      BlendMode = "max"
	BlendAlpha    BlendMode = "alpha"
	BlendSubtract BlendMode = "subtract"
	BlendMin      BlendMode = "min"
	BlendAverage  BlendMode = "average"
	BlendScreen   BlendMode = "screen"
	BlendMask     BlendMode = "mask"
)

// EffectKind names which effect an instance runs.
type EffectKind string

const (
	EffectSolid    EffectKind = "solid"
	EffectChase    EffectKind = "chase"
	EffectRainbow  EffectKind = "rainbow"
	EffectStrobe   EffectKind = "strobe"
	EffectGradient EffectKind = "gradient"
	EffectTwinkle  EffectKind = "twinkle"
	EffectFade     EffectKind = "fade"
	EffectWipe     EffectKind = "wipe"
)

// TimeRange is a half-open interval [Start, End) in seconds.
// Always construct via NewTimeRange, which enforces Start >= 0 and
// End > Start; a zero TimeRange is invalid.
type TimeRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// NewTimeRange returns a validated time range. ok is false when start is
// negative or the range would be empty or inverted.
func NewTimeRange(start, end float64) (TimeRange, bool) {
	if start < 0 || end <= start {
		return TimeRange{}, false
	}
	return TimeRange{Start: start, End: end}, true
}

func (r TimeRange) Duration() float64 { return r.End - r.Start }

// Contains reports whether t falls inside the range (inclusive start,
// exclusive end).
func (r TimeRange) Contains(t float64) bool { return t >= r.Start && t < r.End }

// Overlaps reports whether two half-open ranges share any instant. An
// effect ending exactly when another starts does not overlap it.
func (r TimeRange) Overlaps(o TimeRange) bool {
	return r.Start < o.End && o.Start < r.End
}

// EffectInstance is one timed effect block placed on a track. Its identity
// in the editor is purely positional (track index, effect index); there is
// no stable ID, so any structural edit invalidates held indices.
type EffectInstance struct {
	Kind      EffectKind `json:"kind"`
	TimeRange TimeRange  `json:"timeRange"`
	BlendMode BlendMode  `json:"blendMode"`
	Opacity   float64    `json:"opacity"`
}

// Track is an ordered list of effect instances with one target.
// Effects are kept sorted by start time by the session's edit commands.
type Track struct {
	Name    string           `json:"name"`
	Target  EffectTarget     `json:"target"`
	Effects []EffectInstance `json:"effects"`
}

// Sequence is the top-level timeline container, one per song.
type Sequence struct {
	Name      string  `json:"name"`
	Duration  float64 `json:"duration"`
	FrameRate float64 `json:"frameRate"`
	AudioFile string  `json:"audioFile,omitempty"`
	Tracks    []Track `json:"tracks"`
}

// Validated clamps sequence parameters to the positive, finite values the
// editor and evaluator depend on. Chain onto every load or create.
func (s Sequence) Validated() Sequence {
	if !(s.Duration > 0) { // also catches NaN
		s.Duration = 30
	}
	if !(s.FrameRate > 0) {
		s.FrameRate = 30
	}
	return s
}

// Clone deep-copies the sequence, including every track's effect list.
func (s Sequence) Clone() Sequence {
	out := s
	out.Tracks = make([]Track, len(s.Tracks))
	for i, tr := range s.Tracks {
		ct := tr
		ct.Effects = append([]EffectInstance(nil), tr.Effects...)
		if tr.Target.Fixtures != nil {
			ct.Target.Fixtures = append([]FixtureID(nil), tr.Target.Fixtures...)
		}
		out.Tracks[i] = ct
	}
	return out
}

// Show is the whole document: the fixture inventory plus its sequences.
type Show struct {
	Name      string     `json:"name"`
	Fixtures  []Fixture  `json:"fixtures"`
	Groups    []Group    `json:"groups"`
	Sequences []Sequence `json:"sequences"`
}

// Empty returns a show with no fixtures or sequences.
func Empty() *Show {
	return &Show{}
}

// Clone deep-copies the show via its JSON form. Used by the session for
// undo snapshots; documents are small enough that this stays cheap.
func (s *Show) Clone() *Show {
	buf, err := json.Marshal(s)
	if err != nil {
		// The model contains only marshalable fields.
		panic(fmt.Sprintf("show: clone marshal: %v", err))
	}
	var out Show
	if err := json.Unmarshal(buf, &out); err != nil {
		panic(fmt.Sprintf("show: clone unmarshal: %v", err))
	}
	return &out
}

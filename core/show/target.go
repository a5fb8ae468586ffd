package show

import (
	"encoding/json"
	"fmt"
)

// TargetKind discriminates the EffectTarget union.
type TargetKind string

const (
	TargetAllKind      TargetKind = "all"
	TargetFixturesKind TargetKind = "fixtures"
	TargetGroupKind    TargetKind = "group"
)

// EffectTarget says which fixtures a track's effects apply to: every known
// fixture, an explicit list, or a (possibly nested) group by ID.
type EffectTarget struct {
	Kind     TargetKind
	Fixtures []FixtureID
	Group    GroupID
}

// TargetAll targets every fixture in the show.
func TargetAll() EffectTarget { return EffectTarget{Kind: TargetAllKind} }

// TargetFixtures targets an explicit fixture list.
func TargetFixtures(ids ...FixtureID) EffectTarget {
	return EffectTarget{Kind: TargetFixturesKind, Fixtures: ids}
}

// TargetGroup targets a group reference, expanded at resolution time.
func TargetGroup(id GroupID) EffectTarget {
	return EffectTarget{Kind: TargetGroupKind, Group: id}
}

func (t EffectTarget) String() string {
	switch t.Kind {
	case TargetAllKind:
		return "all"
	case TargetFixturesKind:
		return fmt.Sprintf("fixtures%v", t.Fixtures)
	case TargetGroupKind:
		return fmt.Sprintf("group(%d)", t.Group)
	default:
		return fmt.Sprintf("unknown(%q)", string(t.Kind))
	}
}

type targetJSON struct {
	Kind     TargetKind  `json:"kind"`
	Fixtures []FixtureID `json:"fixtures,omitempty"`
	Group    *GroupID    `json:"group,omitempty"`
}

func (t EffectTarget) MarshalJSON() ([]byte, error) {
	raw := targetJSON{Kind: t.Kind}
	switch t.Kind {
	case TargetFixturesKind:
		raw.Fixtures = t.Fixtures
	case TargetGroupKind:
		g := t.Group
		raw.Group = &g
	}
	return json.Marshal(raw)
}

func (t *EffectTarget) UnmarshalJSON(data []byte) error {
	var raw targetJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Kind {
	case TargetAllKind:
		*t = TargetAll()
	case TargetFixturesKind:
		*t = TargetFixtures(raw.Fixtures...)
	case TargetGroupKind:
		if raw.Group == nil {
			return fmt.Errorf("target kind %q missing group id", raw.Kind)
		}
		*t = TargetGroup(*raw.Group)
	default:
		return fmt.Errorf("unknown target kind %q", raw.Kind)
	}
	return nil
}

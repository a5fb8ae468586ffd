package show

import "fmt"

// Validate checks document-level consistency: unique IDs, resolvable
// references, and well-formed effect ranges. Group cycles are legal here;
// the editor's resolver guards against them at traversal time.
func (s *Show) Validate() error {
	if s == nil {
		return fmt.Errorf("show is nil")
	}

	fixtureIDs := map[FixtureID]bool{}
	for _, f := range s.Fixtures {
		if fixtureIDs[f.ID] {
			return fmt.Errorf("duplicate fixture id %d", f.ID)
		}
		if f.PixelCount < 1 {
			return fmt.Errorf("fixture %d has pixel count %d", f.ID, f.PixelCount)
		}
		fixtureIDs[f.ID] = true
	}

	groupIDs := map[GroupID]bool{}
	for _, g := range s.Groups {
		if groupIDs[g.ID] {
			return fmt.Errorf("duplicate group id %d", g.ID)
		}
		groupIDs[g.ID] = true
	}
	for _, g := range s.Groups {
		for i, m := range g.Members {
			switch {
			case m.Fixture != nil && m.Group != nil:
				return fmt.Errorf("group %d member %d sets both fixture and group", g.ID, i)
			case m.Fixture == nil && m.Group == nil:
				return fmt.Errorf("group %d member %d is empty", g.ID, i)
			case m.Fixture != nil && !fixtureIDs[*m.Fixture]:
				return fmt.Errorf("group %d references unknown fixture %d", g.ID, *m.Fixture)
			case m.Group != nil && !groupIDs[*m.Group]:
				return fmt.Errorf("group %d references unknown group %d", g.ID, *m.Group)
			}
		}
	}

	for si, seq := range s.Sequences {
		if seq.Duration <= 0 {
			return fmt.Errorf("sequence %d has non-positive duration", si)
		}
		for ti, tr := range seq.Tracks {
			switch tr.Target.Kind {
			case TargetAllKind, TargetFixturesKind:
			case TargetGroupKind:
				if !groupIDs[tr.Target.Group] {
					return fmt.Errorf("sequence %d track %d targets unknown group %d", si, ti, tr.Target.Group)
				}
			default:
				return fmt.Errorf("sequence %d track %d has unknown target kind %q", si, ti, tr.Target.Kind)
			}
			for ei, ef := range tr.Effects {
				if _, ok := NewTimeRange(ef.TimeRange.Start, ef.TimeRange.End); !ok {
					return fmt.Errorf("sequence %d track %d effect %d has invalid range %v..%v",
						si, ti, ei, ef.TimeRange.Start, ef.TimeRange.End)
				}
			}
		}
	}

	return nil
}

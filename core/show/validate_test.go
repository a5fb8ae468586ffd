package show

import (
	"path/filepath"
	"strings"
	"testing"
)

func validShow() *Show {
	return &Show{
		Name: "house",
		Fixtures: []Fixture{
			{ID: 1, Name: "Roof", PixelCount: 100},
			{ID: 2, Name: "Tree", PixelCount: 50},
		},
		Groups: []Group{
			{ID: 10, Name: "Yard", Members: []GroupMember{FixtureMember(2)}},
		},
		Sequences: []Sequence{{
			Name: "seq", Duration: 60, FrameRate: 30,
			Tracks: []Track{
				{Name: "roof", Target: TargetFixtures(1), Effects: []EffectInstance{
					{Kind: EffectSolid, TimeRange: TimeRange{Start: 0, End: 4}, BlendMode: BlendOverride, Opacity: 1},
				}},
				{Name: "yard", Target: TargetGroup(10)},
			},
		}},
	}
}

func TestValidateAcceptsWellFormedShow(t *testing.T) {
	if err := validShow().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateAllowsGroupCycles(t *testing.T) {
	s := validShow()
	s.Groups = append(s.Groups,
		Group{ID: 20, Members: []GroupMember{GroupRef(21)}},
		Group{ID: 21, Members: []GroupMember{GroupRef(20)}},
	)
	if err := s.Validate(); err != nil {
		t.Fatalf("cyclic groups should pass document validation: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Show)
		wantSub string
	}{
		{"duplicate fixture", func(s *Show) {
			s.Fixtures = append(s.Fixtures, Fixture{ID: 1, PixelCount: 3})
		}, "duplicate fixture"},
		{"zero pixel count", func(s *Show) {
			s.Fixtures[0].PixelCount = 0
		}, "pixel count"},
		{"duplicate group", func(s *Show) {
			s.Groups = append(s.Groups, Group{ID: 10})
		}, "duplicate group"},
		{"member sets both", func(s *Show) {
			f, g := FixtureID(1), GroupID(10)
			s.Groups[0].Members = []GroupMember{{Fixture: &f, Group: &g}}
		}, "both"},
		{"member sets neither", func(s *Show) {
			s.Groups[0].Members = []GroupMember{{}}
		}, "empty"},
		{"unknown fixture member", func(s *Show) {
			s.Groups[0].Members = []GroupMember{FixtureMember(99)}
		}, "unknown fixture"},
		{"unknown group member", func(s *Show) {
			s.Groups[0].Members = []GroupMember{GroupRef(99)}
		}, "unknown group"},
		{"non-positive duration", func(s *Show) {
			s.Sequences[0].Duration = 0
		}, "duration"},
		{"track targets unknown group", func(s *Show) {
			s.Sequences[0].Tracks[1].Target = TargetGroup(99)
		}, "unknown group"},
		{"unknown target kind", func(s *Show) {
			s.Sequences[0].Tracks[0].Target = EffectTarget{Kind: "solo"}
		}, "target kind"},
		{"inverted effect range", func(s *Show) {
			s.Sequences[0].Tracks[0].Effects[0].TimeRange = TimeRange{Start: 4, End: 4}
		}, "invalid range"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := validShow()
			c.mutate(s)
			err := s.Validate()
			if err == nil {
				t.Fatal("Validate passed, want error")
			}
			if !strings.Contains(err.Error(), c.wantSub) {
				t.Fatalf("error %q does not mention %q", err, c.wantSub)
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "show.json")
	want := validShow()
	if err := want.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Name != want.Name || len(got.Fixtures) != 2 || len(got.Sequences) != 1 {
		t.Fatalf("loaded show differs: %+v", got)
	}
	tgt := got.Sequences[0].Tracks[1].Target
	if tgt.Kind != TargetGroupKind || tgt.Group != 10 {
		t.Fatalf("group target did not survive: %v", tgt)
	}
}

func TestLoadRejectsInvalidDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "show.json")
	s := validShow()
	s.Fixtures[0].PixelCount = 0
	if err := s.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load accepted an invalid document")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("Load of a missing file should fail")
	}
}

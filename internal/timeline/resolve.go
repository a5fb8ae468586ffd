// Package timeline is the interaction engine behind the sequence editor:
// it resolves track targets to per-fixture ownership, packs overlapping
// effects into visual lanes, and turns pointer gestures into validated
// edit commands. It never renders and never owns the document; everything
// it derives is a disposable projection of the current show snapshot.
package timeline

import (
	"github.com/glimhq/glim/core/show"
)

// FixtureSet is the resolved set of fixtures a target expands to.
type FixtureSet map[show.FixtureID]struct{}

func (s FixtureSet) add(id show.FixtureID) { s[id] = struct{}{} }

func (s FixtureSet) union(o FixtureSet) {
	for id := range o {
		s[id] = struct{}{}
	}
}

// Has reports membership.
func (s FixtureSet) Has(id show.FixtureID) bool {
	_, ok := s[id]
	return ok
}

// Resolver expands group references into fixture sets. Results are
// memoized per group ID, so a diamond-shaped group graph resolves in
// linear time over its membership edges. Build one resolver per document
// snapshot and throw it away on refresh.
type Resolver struct {
	groups map[show.GroupID]*show.Group
	cache  map[show.GroupID]FixtureSet
}

func NewResolver(groups []show.Group) *Resolver {
	byID := make(map[show.GroupID]*show.Group, len(groups))
	for i := range groups {
		byID[groups[i].ID] = &groups[i]
	}
	return &Resolver{
		groups: byID,
		cache:  map[show.GroupID]FixtureSet{},
	}
}

// ResolveGroup returns every fixture reachable from the group. A missing
// group ID resolves to the empty set. The visited guard makes traversal
// terminate on cyclic group graphs; when a cycle is hit the returned set
// is the best-effort partial expansion and cyclic is true, so callers can
// warn instead of silently under-resolving.
func (r *Resolver) ResolveGroup(id show.GroupID) (FixtureSet, bool) {
	visited := map[show.GroupID]bool{}
	return r.resolve(id, visited)
}

func (r *Resolver) resolve(id show.GroupID, visited map[show.GroupID]bool) (FixtureSet, bool) {
	if cached, ok := r.cache[id]; ok {
		return cached, false
	}

	out := FixtureSet{}
	group, ok := r.groups[id]
	if !ok {
		return out, false
	}

	visited[id] = true
	cyclic := false
	for _, m := range group.Members {
		switch {
		case m.Fixture != nil:
			out.add(*m.Fixture)
		case m.Group != nil:
			if visited[*m.Group] {
				// Revisiting an ancestor: stop this branch rather than
				// recurse forever. The expansion is incomplete.
				cyclic = true
				continue
			}
			sub, subCyclic := r.resolve(*m.Group, visited)
			out.union(sub)
			cyclic = cyclic || subCyclic
		}
	}
	delete(visited, id)

	// Partial expansions under a cycle are not cached: a later resolution
	// entered from a different root may legitimately see more members.
	if !cyclic {
		r.cache[id] = out
	}
	return out, cyclic
}

// ResolveTarget expands a track target to its fixture set. `all` contains
// every fixture in the show. Unknown group references expand to the empty
// set; the track simply owns no rows.
func (r *Resolver) ResolveTarget(t show.EffectTarget, all []show.Fixture) (FixtureSet, bool) {
	switch t.Kind {
	case show.TargetAllKind:
		out := make(FixtureSet, len(all))
		for _, f := range all {
			out.add(f.ID)
		}
		return out, false
	case show.TargetFixturesKind:
		out := make(FixtureSet, len(t.Fixtures))
		for _, id := range t.Fixtures {
			out.add(id)
		}
		return out, false
	case show.TargetGroupKind:
		return r.ResolveGroup(t.Group)
	default:
		return FixtureSet{}, false
	}
}

// FixtureTrackMap records, for each fixture, which track indices affect it,
// in ascending track order.
type FixtureTrackMap map[show.FixtureID][]int

// Tracks returns the track indices affecting the fixture (nil if none).
func (m FixtureTrackMap) Tracks(id show.FixtureID) []int { return m[id] }

// BuildFixtureTrackMap resolves every track target in the sequence and
// inverts the result. Cost is linear in tracks plus group membership edges
// thanks to the resolver's memoization. Returns the set of group IDs whose
// expansion hit a cycle (empty in well-formed documents).
func BuildFixtureTrackMap(doc *show.Show, seq *show.Sequence) (FixtureTrackMap, []show.GroupID) {
	resolver := NewResolver(doc.Groups)
	out := FixtureTrackMap{}
	var cycles []show.GroupID
	seen := map[show.GroupID]bool{}

	for ti := range seq.Tracks {
		target := seq.Tracks[ti].Target
		set, cyclic := resolver.ResolveTarget(target, doc.Fixtures)
		if cyclic && target.Kind == show.TargetGroupKind && !seen[target.Group] {
			seen[target.Group] = true
			cycles = append(cycles, target.Group)
		}
		for id := range set {
			out[id] = append(out[id], ti)
		}
	}

	// Track indices were appended in track order already (the outer loop is
	// ordered), so no per-fixture sort is needed.
	return out, cycles
}

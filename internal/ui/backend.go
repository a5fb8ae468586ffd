package ui

import (
	"github.com/glimhq/glim/core/session"
	"github.com/glimhq/glim/core/show"
)

// sessionBackend adapts the session's command surface to the gesture
// engine's Backend, pinning the sequence the view is editing.
type sessionBackend struct {
	sess     *session.Session
	seqIndex int
}

func (b *sessionBackend) AddTrack(name string, fixture show.FixtureID) (int, error) {
	return b.sess.AddTrack(b.seqIndex, name, show.TargetFixtures(fixture))
}

func (b *sessionBackend) UpdateEffectTimeRange(trackIndex, effectIndex int, start, end float64) error {
	return b.sess.UpdateEffectTimeRange(b.seqIndex, trackIndex, effectIndex, start, end)
}

func (b *sessionBackend) MoveEffectToTrack(fromTrack, effectIndex, toTrack int) (int, error) {
	return b.sess.MoveEffectToTrack(b.seqIndex, fromTrack, effectIndex, toTrack)
}

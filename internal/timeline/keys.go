package timeline

import (
	"strconv"
	"strings"
)

// Canonical effect keys encode a block's positional identity, the pair
// (trackIndex, effectIndex), as "track:effect". Keys are only meaningful
// against the document revision they were derived from.

const keyDelim = ":"

// EncodeKey builds the canonical key for an effect position.
func EncodeKey(trackIndex, effectIndex int) string {
	return strconv.Itoa(trackIndex) + keyDelim + strconv.Itoa(effectIndex)
}

// DecodeKey parses a canonical key. It accepts exactly two non-negative
// decimal integers separated by the delimiter and nothing else: no signs,
// no blanks, no extra segments. Anything else is reported as not-a-key
// rather than guessed at.
func DecodeKey(key string) (trackIndex, effectIndex int, ok bool) {
	left, right, found := strings.Cut(key, keyDelim)
	if !found {
		return 0, 0, false
	}
	t, ok := parseIndex(left)
	if !ok {
		return 0, 0, false
	}
	e, ok := parseIndex(right)
	if !ok {
		return 0, 0, false
	}
	return t, e, true
}

func parseIndex(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}

// DedupeKeys decodes the keys into unique (trackIndex, effectIndex) pairs,
// preserving first-seen order and silently dropping malformed entries.
func DedupeKeys(keys []string) [][2]int {
	seen := map[[2]int]bool{}
	var out [][2]int
	for _, k := range keys {
		t, e, ok := DecodeKey(k)
		if !ok {
			continue
		}
		pair := [2]int{t, e}
		if seen[pair] {
			continue
		}
		seen[pair] = true
		out = append(out, pair)
	}
	return out
}

// Selection is the set of currently selected effect keys. It survives
// across gestures; gesture outcomes and document reloads replace it.
type Selection map[string]struct{}

func NewSelection(keys ...string) Selection {
	s := make(Selection, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

func (s Selection) Has(key string) bool {
	_, ok := s[key]
	return ok
}

func (s Selection) Add(key string)    { s[key] = struct{}{} }
func (s Selection) Remove(key string) { delete(s, key) }

// Toggle flips membership of the key.
func (s Selection) Toggle(key string) {
	if s.Has(key) {
		delete(s, key)
	} else {
		s[key] = struct{}{}
	}
}

// Clone returns an independent copy, used as a gesture-start snapshot.
func (s Selection) Clone() Selection {
	out := make(Selection, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// Keys returns the contained keys in unspecified order.
func (s Selection) Keys() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	return out
}

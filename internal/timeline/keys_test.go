package timeline

import (
	"reflect"
	"testing"
)

func TestKeyRoundTrip(t *testing.T) {
	cases := [][2]int{{0, 0}, {1, 2}, {42, 0}, {0, 99}, {1000000, 2000000}}
	for _, c := range cases {
		key := EncodeKey(c[0], c[1])
		tr, ef, ok := DecodeKey(key)
		if !ok {
			t.Fatalf("DecodeKey(%q) not ok", key)
		}
		if tr != c[0] || ef != c[1] {
			t.Fatalf("DecodeKey(%q) = (%d, %d), want (%d, %d)", key, tr, ef, c[0], c[1])
		}
	}
}

func TestDecodeKeyRejectsMalformed(t *testing.T) {
	bad := []string{
		"",
		":",
		"1:",
		":2",
		"1:2:3",
		"-1:2",
		"1:-2",
		"+1:2",
		"a:b",
		"1:2 ",
		" 1:2",
		"1 :2",
		"effect-1:2",
		"1,2",
		"0x1:2",
	}
	for _, key := range bad {
		if _, _, ok := DecodeKey(key); ok {
			t.Errorf("DecodeKey(%q) accepted, want reject", key)
		}
	}
}

func TestDedupeKeysPreservesFirstSeenOrder(t *testing.T) {
	keys := []string{
		EncodeKey(1, 2),
		EncodeKey(1, 2),
		EncodeKey(3, 4),
		"garbage",
		EncodeKey(3, 4),
		EncodeKey(0, 0),
	}
	got := DedupeKeys(keys)
	want := [][2]int{{1, 2}, {3, 4}, {0, 0}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("DedupeKeys = %v, want %v", got, want)
	}
}

func TestSelectionToggleAndClone(t *testing.T) {
	sel := NewSelection("1:2")
	sel.Toggle("3:4")
	if !sel.Has("3:4") {
		t.Fatal("Toggle should add an absent key")
	}
	snap := sel.Clone()
	sel.Toggle("3:4")
	if sel.Has("3:4") {
		t.Fatal("Toggle should remove a present key")
	}
	if !snap.Has("3:4") {
		t.Fatal("Clone should be independent of later edits")
	}
}

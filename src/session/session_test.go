package session

import (
	"fmt"
	"testing"
)

func TestSessionEvictsOldestWhenFull(t *testing.T) {
	s := New("k", 4)
	for i := 0; i < 6; i++ {
		err := s.Append(Message{Role: "user", Content: fmt.Sprintf("msg-%d", i)})
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	h := s.History()
	if len(h) != 4 {
		t.Fatalf("len(History) = %d, want 4", len(h))
	}
	if h[0].Content != "msg-2" || h[3].Content != "msg-5" {
		t.Fatalf("wrong window: first=%q last=%q", h[0].Content, h[3].Content)
	}
}

func TestSessionRejectsEmptyRole(t *testing.T) {
	s := New("k", 4)
	if err := s.Append(Message{Content: "no role"}); err == nil {
		t.Fatalf("Append accepted empty role")
	}
	if s.Len() != 0 {
		t.Fatalf("invalid message was stored")
	}
}

func TestSessionResetKeepsKeyUsable(t *testing.T) {
	s := New("k", 4)
	s.Append(Message{Role: "user", Content: "hello"})
	s.Reset()
	if s.Len() != 0 {
		t.Fatalf("Len = %d after reset", s.Len())
	}
	if err := s.Append(Message{Role: "user", Content: "again"}); err != nil {
		t.Fatalf("Append after reset: %v", err)
	}
	if s.Key() != "k" {
		t.Fatalf("Key changed after reset")
	}
}

func TestHistoryReturnsCopy(t *testing.T) {
	s := New("k", 4)
	s.Append(Message{Role: "user", Content: "original"})
	h := s.History()
	h[0].Content = "mutated"
	if s.History()[0].Content != "original" {
		t.Fatalf("History exposed internal slice")
	}
}

func TestManagerGetOrCreate(t *testing.T) {
	m := NewManager(8)
	a := m.GetOrCreate("alpha")
	if b := m.GetOrCreate("alpha"); b != a {
		t.Fatalf("same key produced distinct sessions")
	}

	anon := m.GetOrCreate("")
	if anon.Key() == "" {
		t.Fatalf("empty key should mint a session id")
	}
	if got, ok := m.Get(anon.Key()); !ok || got != anon {
		t.Fatalf("minted session not retrievable")
	}
}

func TestManagerRemoveIsIdempotent(t *testing.T) {
	m := NewManager(8)
	s := m.GetOrCreate("gone")
	m.Remove(s.Key())
	m.Remove(s.Key())
	if _, ok := m.Get("gone"); ok {
		t.Fatalf("removed session still present")
	}
}

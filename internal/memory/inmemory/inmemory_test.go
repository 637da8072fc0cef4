package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/coursebuddy/coursebuddy/models"
)

func turns(contents ...string) []models.ConversationTurn {
	var out []models.ConversationTurn
	for i, c := range contents {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		out = append(out, models.ConversationTurn{Role: role, Content: c})
	}
	return out
}

func TestSaveThenGetWithinTTL(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	if err := s.Save(ctx, 42, "sess", turns("hi", "hello"), 30*time.Minute); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Get(ctx, 42, "sess")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != 2 || got[0].Content != "hi" || got[1].Role != models.RoleAssistant {
		t.Fatalf("unexpected history: %+v", got)
	}
}

func TestGetAfterExpiryIsEmpty(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.Now = func() time.Time { return now }

	if err := s.Save(ctx, 42, "sess", turns("hi", "hello"), 30*time.Minute); err != nil {
		t.Fatalf("Save: %v", err)
	}
	now = now.Add(31 * time.Minute)
	got, err := s.Get(ctx, 42, "sess")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected expired history to be absent, got %+v", got)
	}
}

func TestSaveSlidesExpiryWindow(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.Now = func() time.Time { return now }

	_ = s.Save(ctx, 42, "sess", turns("a", "b"), 30*time.Minute)
	now = now.Add(20 * time.Minute)
	_ = s.Save(ctx, 42, "sess", turns("a", "b", "c", "d"), 30*time.Minute)
	now = now.Add(20 * time.Minute) // 40m after first save, 20m after second

	got, err := s.Get(ctx, 42, "sess")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("sliding expiry lost the refreshed history: %+v", got)
	}
}

func TestClearIgnoresTTL(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	_ = s.Save(ctx, 42, "sess", turns("hi", "hello"), 30*time.Minute)
	if err := s.Clear(ctx, 42, "sess"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	got, _ := s.Get(ctx, 42, "sess")
	if len(got) != 0 {
		t.Fatalf("expected cleared history to be absent, got %+v", got)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	_ = s.Save(ctx, 42, "a", turns("one", "two"), time.Minute)
	_ = s.Save(ctx, 42, "b", turns("three", "four"), time.Minute)
	_ = s.Clear(ctx, 42, "a")

	got, _ := s.Get(ctx, 42, "b")
	if len(got) != 2 || got[0].Content != "three" {
		t.Fatalf("session b affected by clearing session a: %+v", got)
	}
}

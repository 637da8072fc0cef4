package chat

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/coursebuddy/coursebuddy/internal/vector"
)

var testToday = time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)

func scored(text string, score float64) vector.Match {
	return vector.Match{ID: text, Score: score, Metadata: map[string]interface{}{"text": text}}
}

func TestAssembleContext_NoMatches(t *testing.T) {
	got := AssembleContext(nil, testToday)
	if !got.Empty {
		t.Fatal("expected empty flag")
	}
}

func TestAssembleContext_AssignmentsOrderedByDueDate(t *testing.T) {
	matches := []vector.Match{
		scored("Assignment: later | Due: 2025-12-20T06:59:59Z", 0.99),
		scored("Assignment: sooner | Due: 2025-12-05T06:59:59Z", 0.10),
	}
	got := AssembleContext(matches, testToday)
	if got.Empty {
		t.Fatal("unexpected empty flag")
	}
	sooner := strings.Index(got.Text, "Assignment: sooner")
	later := strings.Index(got.Text, "Assignment: later")
	if sooner < 0 || later < 0 || sooner > later {
		t.Fatalf("due-date ordering broken:\n%s", got.Text)
	}
	if !strings.HasPrefix(got.Text, "UPCOMING ASSIGNMENTS:") {
		t.Fatalf("missing assignments header:\n%s", got.Text)
	}
}

func TestAssembleContext_SectionOrderAndCaps(t *testing.T) {
	var matches []vector.Match
	matches = append(matches, scored("Assignment: HW | Due: 2025-12-20T06:59:59Z", 0.5))
	for i := 0; i < 7; i++ {
		matches = append(matches, scored(fmt.Sprintf("Announcement: a%d", i), float64(i)/10))
	}
	for i := 0; i < 5; i++ {
		matches = append(matches, scored(fmt.Sprintf("note %d", i), float64(i)/10))
	}
	got := AssembleContext(matches, testToday)

	ai := strings.Index(got.Text, "UPCOMING ASSIGNMENTS:")
	ni := strings.Index(got.Text, "ANNOUNCEMENTS:")
	oi := strings.Index(got.Text, "COURSE CONTEXT:")
	if !(ai >= 0 && ai < ni && ni < oi) {
		t.Fatalf("section order wrong:\n%s", got.Text)
	}
	if n := strings.Count(got.Text, "Announcement: a"); n != 5 {
		t.Fatalf("expected top 5 announcements, got %d", n)
	}
	if n := strings.Count(got.Text, "note "); n != 3 {
		t.Fatalf("expected top 3 other chunks, got %d", n)
	}
	// highest-score announcements survive the cap
	if !strings.Contains(got.Text, "Announcement: a6") || strings.Contains(got.Text, "Announcement: a1\n") {
		t.Fatalf("announcement cap not score-ranked:\n%s", got.Text)
	}
}

func TestAssembleContext_StableUnderShuffle(t *testing.T) {
	matches := []vector.Match{
		scored("Assignment: hw0 | Due: 2025-12-10T06:00:00Z", 0.3),
		scored("Assignment: hw1 | Due: 2025-12-11T06:00:00Z", 0.4),
		scored("Announcement: one", 0.9),
		scored("general note", 0.2),
	}

	base := AssembleContext(matches, testToday)
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 5; trial++ {
		shuffled := make([]vector.Match, len(matches))
		copy(shuffled, matches)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		got := AssembleContext(shuffled, testToday)
		if got.Text != base.Text {
			t.Fatalf("assembly not stable under reordering:\n--- base\n%s\n--- got\n%s", base.Text, got.Text)
		}
	}
}

func TestAssembleContext_OnlyPastAssignmentsFallsBackToRawText(t *testing.T) {
	matches := []vector.Match{
		scored("Assignment: old | Due: 2024-01-01T06:59:59Z", 0.9),
	}
	got := AssembleContext(matches, testToday)
	if got.Empty {
		t.Fatal("raw fallback should not be empty")
	}
	if strings.Contains(got.Text, "UPCOMING ASSIGNMENTS:") {
		t.Fatalf("no section header expected in raw fallback:\n%s", got.Text)
	}
	if !strings.Contains(got.Text, "Assignment: old") {
		t.Fatalf("raw text missing:\n%s", got.Text)
	}
}

func TestAssembleContext_AllEmptyTextsSetsEmptyFlag(t *testing.T) {
	matches := []vector.Match{scored("", 0.9), scored("   ", 0.8)}
	got := AssembleContext(matches, testToday)
	if !got.Empty {
		t.Fatal("expected empty flag for blank match texts")
	}
}

func TestAssembleContext_OmitsEmptySections(t *testing.T) {
	matches := []vector.Match{scored("Announcement: only one", 0.9)}
	got := AssembleContext(matches, testToday)
	if strings.Contains(got.Text, "UPCOMING ASSIGNMENTS:") || strings.Contains(got.Text, "COURSE CONTEXT:") {
		t.Fatalf("empty sections must be omitted:\n%s", got.Text)
	}
	if !strings.HasPrefix(got.Text, "ANNOUNCEMENTS:") {
		t.Fatalf("missing announcements section:\n%s", got.Text)
	}
}

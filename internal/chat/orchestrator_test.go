package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/coursebuddy/coursebuddy/internal/memory/inmemory"
	"github.com/coursebuddy/coursebuddy/internal/vector"
	"github.com/coursebuddy/coursebuddy/models"
)

type fakeProvider struct {
	answer      string
	completeErr error
	embedErr    error

	lastSystem  string
	lastHistory []models.ConversationTurn
	lastMessage string
	completions int
}

func (f *fakeProvider) ChatCompletion(ctx context.Context, system string, history []models.ConversationTurn, message string) (string, error) {
	f.completions++
	f.lastSystem = system
	f.lastHistory = history
	f.lastMessage = message
	if f.completeErr != nil {
		return "", f.completeErr
	}
	return f.answer, nil
}

func (f *fakeProvider) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}

type fakeQueryIndex struct {
	matches   []vector.Match
	namespace string
	topK      int
}

func (f *fakeQueryIndex) Upsert(ctx context.Context, namespace string, items []vector.Item) error {
	return nil
}

func (f *fakeQueryIndex) DeleteNamespace(ctx context.Context, namespace string) error {
	return nil
}

func (f *fakeQueryIndex) Query(ctx context.Context, namespace string, values []float32, topK int) ([]vector.Match, error) {
	f.namespace = namespace
	f.topK = topK
	return f.matches, nil
}

func newTestOrchestrator(p *fakeProvider, idx *fakeQueryIndex) (*Orchestrator, *inmemory.Store) {
	mem := inmemory.NewInMemoryStore()
	o := NewOrchestrator(p, idx, mem, 20, 5, 30*time.Minute)
	o.Now = func() time.Time { return time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC) }
	return o, mem
}

func TestExchangeAnswersAndAppendsHistory(t *testing.T) {
	p := &fakeProvider{answer: "HW3 is due March 10."}
	idx := &fakeQueryIndex{matches: []vector.Match{
		scored("Assignment: HW3 | Due: 2026-03-10T06:59:59Z | Description: joins", 0.9),
	}}
	o, mem := newTestOrchestrator(p, idx)

	answer, err := o.Exchange(context.Background(), 42, "sess", "when is hw3 due?")
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if answer != "HW3 is due March 10." {
		t.Fatalf("unexpected answer %q", answer)
	}
	if idx.namespace != "course_42" || idx.topK != 20 {
		t.Fatalf("queried %s with topK %d", idx.namespace, idx.topK)
	}
	if !strings.Contains(p.lastSystem, "UPCOMING ASSIGNMENTS:") {
		t.Fatalf("system prompt missing assembled context:\n%s", p.lastSystem)
	}
	if !strings.Contains(p.lastSystem, "Monday, December 1, 2025") {
		t.Fatalf("system prompt missing today's date:\n%s", p.lastSystem)
	}

	turns, err := mem.Get(context.Background(), 42, "sess")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 stored turns, got %d", len(turns))
	}
	if turns[0].Role != models.RoleUser || turns[0].Content != "when is hw3 due?" {
		t.Fatalf("unexpected user turn: %+v", turns[0])
	}
	if turns[1].Role != models.RoleAssistant || turns[1].Content != answer {
		t.Fatalf("unexpected assistant turn: %+v", turns[1])
	}
}

func TestExchangeNoMatchesFallsBackWithoutModelOrMemory(t *testing.T) {
	p := &fakeProvider{answer: "should not be called"}
	idx := &fakeQueryIndex{}
	o, mem := newTestOrchestrator(p, idx)

	answer, err := o.Exchange(context.Background(), 42, "sess", "hello?")
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if answer != FallbackAnswer {
		t.Fatalf("expected fallback answer, got %q", answer)
	}
	if p.completions != 0 {
		t.Fatalf("model was called %d times on the fallback path", p.completions)
	}
	turns, _ := mem.Get(context.Background(), 42, "sess")
	if len(turns) != 0 {
		t.Fatalf("fallback must not write history, got %+v", turns)
	}
}

func TestExchangeEmptyContextFallsBack(t *testing.T) {
	p := &fakeProvider{answer: "should not be called"}
	idx := &fakeQueryIndex{matches: []vector.Match{
		{Score: 0.5, Metadata: map[string]interface{}{"text": "   "}},
	}}
	o, mem := newTestOrchestrator(p, idx)

	answer, err := o.Exchange(context.Background(), 42, "sess", "anything new?")
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if answer != FallbackAnswer {
		t.Fatalf("expected fallback answer, got %q", answer)
	}
	if p.completions != 0 {
		t.Fatalf("model was called on empty context")
	}
	turns, _ := mem.Get(context.Background(), 42, "sess")
	if len(turns) != 0 {
		t.Fatalf("fallback must not write history, got %+v", turns)
	}
}

func TestExchangeWindowsHistoryButStoresAll(t *testing.T) {
	p := &fakeProvider{answer: "eighth answer"}
	idx := &fakeQueryIndex{matches: []vector.Match{scored("Syllabus for Databases: grading is weekly", 0.8)}}
	o, mem := newTestOrchestrator(p, idx)

	var seed []models.ConversationTurn
	for i := 0; i < 7; i++ {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		seed = append(seed, models.ConversationTurn{Role: role, Content: string(rune('a' + i))})
	}
	if err := mem.Save(context.Background(), 42, "sess", seed, 30*time.Minute); err != nil {
		t.Fatalf("seed Save: %v", err)
	}

	if _, err := o.Exchange(context.Background(), 42, "sess", "eighth question"); err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if len(p.lastHistory) != 5 {
		t.Fatalf("expected a 5-turn window, got %d", len(p.lastHistory))
	}
	if p.lastHistory[0].Content != "c" {
		t.Fatalf("window should start at the third turn, got %q", p.lastHistory[0].Content)
	}

	turns, _ := mem.Get(context.Background(), 42, "sess")
	if len(turns) != 9 {
		t.Fatalf("full history should keep growing, got %d turns", len(turns))
	}
}

func TestExchangeEmbedFailureIsFatal(t *testing.T) {
	p := &fakeProvider{embedErr: errors.New("quota exceeded")}
	o, _ := newTestOrchestrator(p, &fakeQueryIndex{})

	if _, err := o.Exchange(context.Background(), 42, "sess", "hi"); err == nil {
		t.Fatal("expected embedding failure to surface")
	}
}

func TestResetClearsSession(t *testing.T) {
	p := &fakeProvider{answer: "ok"}
	idx := &fakeQueryIndex{matches: []vector.Match{scored("Syllabus for Databases: intro", 0.8)}}
	o, mem := newTestOrchestrator(p, idx)

	if _, err := o.Exchange(context.Background(), 42, "sess", "hi"); err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if err := o.Reset(context.Background(), 42, "sess"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	turns, _ := mem.Get(context.Background(), 42, "sess")
	if len(turns) != 0 {
		t.Fatalf("expected history cleared, got %+v", turns)
	}
}

package chat

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/coursebuddy/coursebuddy/internal/memory"
	"github.com/coursebuddy/coursebuddy/internal/vector"
	"github.com/coursebuddy/coursebuddy/models"
	"github.com/coursebuddy/coursebuddy/provider"
)

// FallbackAnswer is returned when retrieval finds nothing for the course.
// It is the only path that distinguishes "nothing to say" from an error.
const FallbackAnswer = "I couldn't find any course data to answer that. Make sure the course has been ingested first."

// DefaultHistoryWindow caps how many stored turns are replayed into the
// model's context; the full history stays in the store.
const DefaultHistoryWindow = 5

const systemPromptTemplate = `You are a professional Canvas course assistant. Today's date is %s.
Use only the following course context to answer clearly and accurately.
Answer questions about assignments and due dates from the UPCOMING ASSIGNMENTS section only.
If the user asks about grades or private information, politely say you don't have access to that.
Keep responses concise and factual.

Course context:
%s`

// Orchestrator runs one chat exchange: embed the question, query the
// course namespace, assemble context, call the model once and append the
// exchange to session memory. Each exchange is one sequential pipeline of
// external calls with no retries.
type Orchestrator struct {
	Provider      provider.Provider
	Index         vector.Index
	Memory        memory.Store
	TopK          int
	HistoryWindow int
	TTL           time.Duration
	Logger        *log.Logger

	// Now is the clock used for date-aware classification; tests may
	// replace it.
	Now func() time.Time
}

func NewOrchestrator(p provider.Provider, idx vector.Index, mem memory.Store, topK, historyWindow int, ttl time.Duration) *Orchestrator {
	if topK <= 0 {
		topK = 20
	}
	if historyWindow <= 0 {
		historyWindow = DefaultHistoryWindow
	}
	if ttl <= 0 {
		ttl = memory.DefaultTTL
	}
	return &Orchestrator{
		Provider:      p,
		Index:         idx,
		Memory:        mem,
		TopK:          topK,
		HistoryWindow: historyWindow,
		TTL:           ttl,
		Logger:        log.New(log.Writer(), "[CHAT] ", log.LstdFlags),
		Now:           time.Now,
	}
}

// Exchange answers one question in a session. The no-match fallback never
// calls the model and never touches session memory.
func (o *Orchestrator) Exchange(ctx context.Context, courseID int, sessionID, message string) (string, error) {
	history, err := o.Memory.Get(ctx, courseID, sessionID)
	if err != nil {
		// an unreadable history degrades the exchange, it doesn't fail it
		o.Logger.Printf("session %s: history load failed: %v", sessionID, err)
		history = nil
	}
	window := history
	if len(window) > o.HistoryWindow {
		window = window[len(window)-o.HistoryWindow:]
	}

	vecs, err := o.Provider.CreateEmbedding(ctx, []string{message})
	if err != nil {
		return "", fmt.Errorf("embed question: %w", err)
	}
	if len(vecs) != 1 {
		return "", fmt.Errorf("embed question: got %d vectors", len(vecs))
	}

	matches, err := o.Index.Query(ctx, vector.Namespace(courseID), vecs[0], o.TopK)
	if err != nil {
		return "", fmt.Errorf("vector query: %w", err)
	}
	if len(matches) == 0 {
		o.Logger.Printf("course %d: no matches for question", courseID)
		return FallbackAnswer, nil
	}

	today := o.Now()
	assembled := AssembleContext(matches, today)
	if assembled.Empty {
		return FallbackAnswer, nil
	}

	system := fmt.Sprintf(systemPromptTemplate, today.Format("Monday, January 2, 2006"), assembled.Text)
	answer, err := o.Provider.ChatCompletion(ctx, system, window, message)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	updated := append(history,
		models.ConversationTurn{Role: models.RoleUser, Content: message},
		models.ConversationTurn{Role: models.RoleAssistant, Content: answer},
	)
	if err := o.Memory.Save(ctx, courseID, sessionID, updated, o.TTL); err != nil {
		o.Logger.Printf("session %s: history save failed: %v", sessionID, err)
	}
	return answer, nil
}

// Reset drops the session's stored history.
func (o *Orchestrator) Reset(ctx context.Context, courseID int, sessionID string) error {
	return o.Memory.Clear(ctx, courseID, sessionID)
}

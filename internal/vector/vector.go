package vector

import (
	"context"
	"fmt"
)

// Item is one vector plus its chunk metadata, ready for upsert.
type Item struct {
	ID       string                 `json:"id"`
	Values   []float32              `json:"values"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Match is one ranked retrieval result.
type Match struct {
	ID       string                 `json:"id"`
	Score    float64                `json:"score"`
	Metadata map[string]interface{} `json:"metadata"`
}

// Text returns the chunk text stored in the match metadata.
func (m Match) Text() string {
	s, _ := m.Metadata["text"].(string)
	return s
}

// Index is the vector search capability consumed by ingestion and chat.
type Index interface {
	Upsert(ctx context.Context, namespace string, items []Item) error
	DeleteNamespace(ctx context.Context, namespace string) error
	Query(ctx context.Context, namespace string, vector []float32, topK int) ([]Match, error)
}

// Namespace returns the per-course index partition name.
func Namespace(courseID int) string {
	return fmt.Sprintf("course_%d", courseID)
}

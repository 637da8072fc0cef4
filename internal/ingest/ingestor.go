package ingest

import (
	"context"
	"fmt"
	"log"

	"github.com/coursebuddy/coursebuddy/internal/canvas"
	"github.com/coursebuddy/coursebuddy/internal/vector"
	"github.com/coursebuddy/coursebuddy/models"
	"github.com/coursebuddy/coursebuddy/provider"
)

// DefaultEmbedBatchSize bounds the texts submitted per embedding request.
const DefaultEmbedBatchSize = 50

// Ingestor runs one course ingestion end to end: fetch every record kind,
// build chunks, embed them batch by batch and rebuild the course namespace.
// Stages run sequentially; a failing external call fails the whole run with
// no partial commit of embeddings and no automatic retry.
type Ingestor struct {
	Canvas    *canvas.Client
	Provider  provider.Provider
	Index     vector.Index
	Builder   *Builder
	BatchSize int
	Dimension int
	Logger    *log.Logger
}

// Result summarizes a completed ingestion run.
type Result struct {
	CourseName string         `json:"course"`
	ChunkCount int            `json:"chunks_indexed"`
	Counts     map[string]int `json:"counts"`
}

func NewIngestor(canvasClient *canvas.Client, p provider.Provider, idx vector.Index, builder *Builder, batchSize, dimension int) *Ingestor {
	if batchSize <= 0 {
		batchSize = DefaultEmbedBatchSize
	}
	return &Ingestor{
		Canvas:    canvasClient,
		Provider:  p,
		Index:     idx,
		Builder:   builder,
		BatchSize: batchSize,
		Dimension: dimension,
		Logger:    log.New(log.Writer(), "[INGEST] ", log.LstdFlags),
	}
}

// Ingest fetches, chunks, embeds and indexes one course. The namespace is
// cleared only after every embedding succeeded, then rebuilt; a failure
// during upsert can leave it partially written (no rollback).
func (ing *Ingestor) Ingest(ctx context.Context, courseID int) (*Result, error) {
	content, err := ing.fetch(ctx, courseID)
	if err != nil {
		return nil, err
	}

	chunks, counts, err := ing.Builder.Build(content)
	if err != nil {
		return nil, err
	}
	ing.Logger.Printf("course %d (%s): built %d chunks", courseID, content.Course.Name, len(chunks))

	items, err := ing.embed(ctx, chunks)
	if err != nil {
		return nil, err
	}

	namespace := vector.Namespace(courseID)
	if err := ing.Index.DeleteNamespace(ctx, namespace); err != nil {
		return nil, fmt.Errorf("clear namespace %s: %w", namespace, err)
	}
	if err := ing.Index.Upsert(ctx, namespace, items); err != nil {
		return nil, fmt.Errorf("index write %s: %w", namespace, err)
	}
	ing.Logger.Printf("course %d: indexed %d vectors into %s", courseID, len(items), namespace)

	return &Result{CourseName: content.Course.Name, ChunkCount: len(chunks), Counts: counts}, nil
}

// Reset clears every vector in the course's namespace.
func (ing *Ingestor) Reset(ctx context.Context, courseID int) error {
	return ing.Index.DeleteNamespace(ctx, vector.Namespace(courseID))
}

// fetch pulls every record kind for the course, one collection at a time.
func (ing *Ingestor) fetch(ctx context.Context, courseID int) (CourseContent, error) {
	var content CourseContent
	var err error

	if content.Course, err = ing.Canvas.FetchCourse(ctx, courseID); err != nil {
		return content, fmt.Errorf("fetch course: %w", err)
	}
	if content.Assignments, err = ing.Canvas.Assignments(ctx, courseID); err != nil {
		return content, fmt.Errorf("fetch assignments: %w", err)
	}
	if content.Announcements, err = ing.Canvas.Announcements(ctx, courseID); err != nil {
		return content, fmt.Errorf("fetch announcements: %w", err)
	}
	if content.Discussions, err = ing.Canvas.Discussions(ctx, courseID); err != nil {
		return content, fmt.Errorf("fetch discussions: %w", err)
	}
	if content.Staff, err = ing.Canvas.Staff(ctx, courseID); err != nil {
		return content, fmt.Errorf("fetch staff: %w", err)
	}
	return content, nil
}

// embed converts chunks into index items in consecutive batches, awaited
// one at a time. Batch boundaries never change output order or count.
func (ing *Ingestor) embed(ctx context.Context, chunks []models.ChunkRecord) ([]vector.Item, error) {
	items := make([]vector.Item, 0, len(chunks))
	for start := 0; start < len(chunks); start += ing.BatchSize {
		end := start + ing.BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]
		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}
		vecs, err := ing.Provider.CreateEmbedding(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embedding batch %d: %w", start/ing.BatchSize, err)
		}
		if len(vecs) != len(batch) {
			return nil, fmt.Errorf("embedding batch %d: got %d vectors for %d texts", start/ing.BatchSize, len(vecs), len(batch))
		}
		for i, vec := range vecs {
			if ing.Dimension > 0 && len(vec) != ing.Dimension {
				return nil, fmt.Errorf("embedding %s: dimension %d, want %d", batch[i].ID, len(vec), ing.Dimension)
			}
			items = append(items, vector.Item{
				ID:       batch[i].ID,
				Values:   vec,
				Metadata: batch[i].Metadata(),
			})
		}
	}
	return items, nil
}

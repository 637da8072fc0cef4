package models

import (
	"errors"
	"time"
)

// ErrNoCourseData is returned when an ingestion run produced zero chunks
// across every record kind.
var ErrNoCourseData = errors.New("no course data found")

// RecordKind identifies the source record a chunk was built from.
type RecordKind string

const (
	KindSyllabus     RecordKind = "syllabus"
	KindAssignment   RecordKind = "assignment"
	KindAnnouncement RecordKind = "announcement"
	KindDiscussion   RecordKind = "discussion"
	KindPerson       RecordKind = "person"
)

// ChunkRecord is one embeddable text unit derived from a course record.
// IDs follow "{course_id}-{running_counter}" and are stable only within a
// single ingestion run; chunks from the same record share all non-text
// fields and are ordered by SequenceIndex.
type ChunkRecord struct {
	ID            string
	CourseID      int
	Kind          RecordKind
	SequenceIndex int
	Text          string
	DueDate       *time.Time
	Points        float64
	Sections      []string
}

// Metadata flattens the chunk into the key/value form stored alongside its
// vector. Optional fields are omitted rather than stored as empty
// placeholders so retrieval metadata stays compact.
func (c ChunkRecord) Metadata() map[string]interface{} {
	md := map[string]interface{}{
		"course_id":      c.CourseID,
		"kind":           string(c.Kind),
		"sequence_index": c.SequenceIndex,
		"text":           c.Text,
	}
	if c.DueDate != nil {
		md["due_date"] = c.DueDate.UTC().Format(time.RFC3339)
	}
	if c.Points > 0 {
		md["points"] = c.Points
	}
	if len(c.Sections) > 0 {
		md["sections"] = c.Sections
	}
	return md
}

// ConversationTurn is one message in a chat session.
type ConversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

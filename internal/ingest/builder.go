package ingest

import (
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/coursebuddy/coursebuddy/internal/canvas"
	"github.com/coursebuddy/coursebuddy/internal/helpers"
	"github.com/coursebuddy/coursebuddy/models"
)

// sectionRe matches exactly five consecutive digits, the section-number
// format embedded in announcement bodies.
var sectionRe = regexp.MustCompile(`\b\d{5}\b`)

// CourseContent bundles every raw record fetched for one course.
type CourseContent struct {
	Course        canvas.Course
	Assignments   []canvas.Assignment
	Announcements []canvas.Announcement
	Discussions   []canvas.Discussion
	Staff         []canvas.Person
}

// Builder turns raw course records into self-describing chunk records.
// Every chunk repeats the record's summary line so any single chunk can be
// retrieved without its siblings and still identify its source.
type Builder struct {
	MaxChars int
	Overlap  int
}

// NewBuilder creates a Builder with the given chunking bounds; zero values
// fall back to the package defaults.
func NewBuilder(maxChars, overlap int) *Builder {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if overlap < 0 || overlap >= maxChars {
		overlap = DefaultOverlap
	}
	return &Builder{MaxChars: maxChars, Overlap: overlap}
}

// Build produces the full ordered chunk list for the course plus per-kind
// counts. A course yielding zero chunks is an ingestion failure
// (models.ErrNoCourseData), never a silent success.
func (b *Builder) Build(content CourseContent) ([]models.ChunkRecord, map[string]int, error) {
	courseID := content.Course.ID
	var chunks []models.ChunkRecord
	counts := map[string]int{}

	emit := func(kind models.RecordKind, summary, body string, due *time.Time, points float64, sections []string) {
		parts := SplitText(helpers.NormalizeText(body), b.MaxChars, b.Overlap)
		for i, part := range parts {
			text := summary
			if part != "" {
				text = summary + " " + part
			}
			chunks = append(chunks, models.ChunkRecord{
				ID:            fmt.Sprintf("%d-%d", courseID, len(chunks)),
				CourseID:      courseID,
				Kind:          kind,
				SequenceIndex: i,
				Text:          text,
				DueDate:       due,
				Points:        points,
				Sections:      sections,
			})
			counts[string(kind)]++
		}
	}

	if syllabus := helpers.NormalizeText(content.Course.SyllabusBody); syllabus != "" {
		emit(models.KindSyllabus, fmt.Sprintf("Syllabus for %s:", content.Course.Name), syllabus, nil, 0, nil)
	}

	for _, a := range content.Assignments {
		summary := "Assignment: " + a.Name
		if a.DueAt != nil {
			summary += " | Due: " + a.DueAt.UTC().Format(time.RFC3339)
		}
		if a.PointsPossible > 0 {
			summary += fmt.Sprintf(" | Points: %g", a.PointsPossible)
		}
		emit(models.KindAssignment, summary+" | Description:", a.Description, a.DueAt, a.PointsPossible, nil)
	}

	for _, a := range content.Announcements {
		summary := "Announcement: " + a.Title
		if a.PostedAt != nil {
			summary += " | Date: " + a.PostedAt.UTC().Format(time.RFC3339)
		}
		body := helpers.NormalizeText(a.Message)
		sections := sectionNumbers(a.Title + " " + body)
		emit(models.KindAnnouncement, summary+" | Message:", body, nil, 0, sections)
	}

	for _, d := range content.Discussions {
		emit(models.KindDiscussion, "Discussion: "+d.Title+" | Message:", d.Message, nil, 0, nil)
	}

	for _, p := range content.Staff {
		summary := fmt.Sprintf("%s: %s | Contact: %s", p.Role(), p.Name, p.LoginID)
		emit(models.KindPerson, summary, "", nil, 0, nil)
	}

	if len(chunks) == 0 {
		return nil, nil, models.ErrNoCourseData
	}
	return chunks, counts, nil
}

// sectionNumbers extracts the deduplicated, ordered list of 5-digit section
// numbers embedded in text.
func sectionNumbers(text string) []string {
	found := sectionRe.FindAllString(text, -1)
	if len(found) == 0 {
		return nil
	}
	seen := map[string]struct{}{}
	var out []string
	for _, s := range found {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

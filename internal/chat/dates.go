package chat

import (
	"regexp"
	"strings"
	"time"

	"github.com/coursebuddy/coursebuddy/internal/vector"
	"github.com/coursebuddy/coursebuddy/models"
)

// Category tags a retrieved chunk for context assembly.
type Category string

const (
	CategoryUpcomingAssignment Category = "upcoming_assignment"
	CategoryAnnouncement       Category = "announcement"
	CategoryOther              Category = "other"
)

// ClassifiedMatch is a retrieval match with its resolved due date and
// category.
type ClassifiedMatch struct {
	vector.Match
	Category Category
	DueDate  *time.Time
}

var (
	isoDueRe = regexp.MustCompile(`Due:\s*(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:\d{2}))`)

	humanDueRes = []*regexp.Regexp{
		regexp.MustCompile(`Due:\s*([A-Za-z]+ \d{1,2}, \d{4})`),
		regexp.MustCompile(`Due Date:\s*([A-Za-z]+ \d{1,2}, \d{4})`),
		regexp.MustCompile(`Deadline:\s*([A-Za-z]+ \d{1,2}, \d{4})`),
		regexp.MustCompile(`Submit by:\s*([A-Za-z]+ \d{1,2}, \d{4})`),
	}

	humanDateLayouts = []string{"January 2, 2006", "Jan 2, 2006"}
)

// ParseDueDate extracts a due date from free text. It first tries an
// ISO-8601 timestamp after a "Due:" marker (normalized to UTC, then the
// offset dropped), then a set of human-readable "Month DD, YYYY" patterns.
// A pattern that matches but fails to parse is skipped; the function never
// errors, it just reports that no date was found.
func ParseDueDate(text string) (time.Time, bool) {
	if m := isoDueRe.FindStringSubmatch(text); m != nil {
		if t, err := time.Parse(time.RFC3339, m[1]); err == nil {
			u := t.UTC()
			return time.Date(u.Year(), u.Month(), u.Day(), u.Hour(), u.Minute(), u.Second(), 0, time.UTC), true
		}
	}
	for _, re := range humanDueRes {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		for _, layout := range humanDateLayouts {
			if t, err := time.Parse(layout, m[1]); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// Classify tags one match. The stored kind and due-date metadata are
// trusted when present; the text prefix and an in-text date parse remain
// as fallbacks for vectors written before kind metadata existed.
func Classify(m vector.Match, today time.Time) ClassifiedMatch {
	text := m.Text()

	kind, _ := m.Metadata["kind"].(string)
	if kind == "" {
		switch {
		case strings.HasPrefix(text, "Assignment:"):
			kind = string(models.KindAssignment)
		case strings.HasPrefix(text, "Announcement:"):
			kind = string(models.KindAnnouncement)
		}
	}

	var due *time.Time
	if s, _ := m.Metadata["due_date"].(string); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			u := t.UTC()
			due = &u
		}
	}
	if due == nil {
		if t, ok := ParseDueDate(text); ok {
			due = &t
		}
	}

	cm := ClassifiedMatch{Match: m, Category: CategoryOther, DueDate: due}
	switch kind {
	case string(models.KindAssignment):
		if due != nil && !dateOnly(*due).Before(dateOnly(today)) {
			cm.Category = CategoryUpcomingAssignment
		}
	case string(models.KindAnnouncement):
		cm.Category = CategoryAnnouncement
	}
	return cm
}

// isAssignment reports whether the match came from an assignment record,
// whatever its due date.
func (cm ClassifiedMatch) isAssignment() bool {
	if kind, _ := cm.Metadata["kind"].(string); kind == string(models.KindAssignment) {
		return true
	}
	return strings.HasPrefix(cm.Text(), "Assignment:")
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

package chat

import (
	"sort"
	"strings"
	"time"

	"github.com/coursebuddy/coursebuddy/internal/vector"
)

// Section caps. Upcoming assignments are deliberately uncapped: missing a
// due date is worse for the student than a long prompt.
const (
	maxAnnouncements = 5
	maxOther         = 3
)

const (
	headerAssignments   = "UPCOMING ASSIGNMENTS:"
	headerAnnouncements = "ANNOUNCEMENTS:"
	headerOther         = "COURSE CONTEXT:"
)

// AssembledContext is the prioritized text block handed to the model.
type AssembledContext struct {
	Text  string
	Empty bool
}

// AssembleContext classifies the ranked matches and builds the context
// block: every upcoming assignment ordered by due date, then the top
// announcements and top other chunks by retrieval score. Empty sections
// are omitted. If filtering leaves nothing (only stale assignments
// matched, say) the raw match texts are used verbatim; if that is empty
// too, the empty flag tells the caller to answer without a model call.
func AssembleContext(matches []vector.Match, today time.Time) AssembledContext {
	if len(matches) == 0 {
		return AssembledContext{Empty: true}
	}

	var upcoming, announcements, other []ClassifiedMatch
	for _, m := range matches {
		cm := Classify(m, today)
		switch cm.Category {
		case CategoryUpcomingAssignment:
			upcoming = append(upcoming, cm)
		case CategoryAnnouncement:
			announcements = append(announcements, cm)
		default:
			// stale assignments are noise, not general context
			if !cm.isAssignment() {
				other = append(other, cm)
			}
		}
	}

	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].DueDate.Before(*upcoming[j].DueDate)
	})
	sortByScore(announcements)
	sortByScore(other)
	if len(announcements) > maxAnnouncements {
		announcements = announcements[:maxAnnouncements]
	}
	if len(other) > maxOther {
		other = other[:maxOther]
	}

	var sections []string
	if s := section(headerAssignments, upcoming); s != "" {
		sections = append(sections, s)
	}
	if s := section(headerAnnouncements, announcements); s != "" {
		sections = append(sections, s)
	}
	if s := section(headerOther, other); s != "" {
		sections = append(sections, s)
	}

	if len(sections) == 0 {
		var raw []string
		for _, m := range matches {
			if t := strings.TrimSpace(m.Text()); t != "" {
				raw = append(raw, t)
			}
		}
		if len(raw) == 0 {
			return AssembledContext{Empty: true}
		}
		return AssembledContext{Text: strings.Join(raw, "\n\n")}
	}
	return AssembledContext{Text: strings.Join(sections, "\n\n")}
}

func sortByScore(ms []ClassifiedMatch) {
	sort.SliceStable(ms, func(i, j int) bool {
		return ms[i].Score > ms[j].Score
	})
}

func section(header string, ms []ClassifiedMatch) string {
	var lines []string
	for _, m := range ms {
		if t := strings.TrimSpace(m.Text()); t != "" {
			lines = append(lines, "- "+t)
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return header + "\n" + strings.Join(lines, "\n")
}

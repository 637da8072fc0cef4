// Package canvas is a thin client for the Canvas LMS REST API. Collection
// endpoints are cursor-paginated via the Link response header; FetchAll
// drains them into one ordered list.
package canvas

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// DefaultPageCap bounds pagination against a misbehaving server.
const DefaultPageCap = 500

// Client talks to one Canvas instance with a fixed access token.
type Client struct {
	baseURL    string
	token      string
	pageCap    int
	httpClient *http.Client
}

// Course is a Canvas course with its syllabus body included.
type Course struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	SyllabusBody string `json:"syllabus_body"`
}

// Assignment is a Canvas assignment record.
type Assignment struct {
	Name           string     `json:"name"`
	DueAt          *time.Time `json:"due_at"`
	PointsPossible float64    `json:"points_possible"`
	Description    string     `json:"description"`
}

// Announcement is a Canvas announcement record.
type Announcement struct {
	Title    string     `json:"title"`
	PostedAt *time.Time `json:"posted_at"`
	Message  string     `json:"message"`
}

// Discussion is a Canvas discussion topic.
type Discussion struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Person is a course user with their enrollment role.
type Person struct {
	Name        string `json:"name"`
	LoginID     string `json:"login_id"`
	Enrollments []struct {
		Type string `json:"type"`
	} `json:"enrollments"`
}

// Role returns the person's first enrollment type, defaulting to Staff.
func (p Person) Role() string {
	if len(p.Enrollments) > 0 && p.Enrollments[0].Type != "" {
		return p.Enrollments[0].Type
	}
	return "Staff"
}

// NewClient creates a Canvas client. pageCap <= 0 falls back to DefaultPageCap.
func NewClient(baseURL, token string, pageCap int, timeout time.Duration) *Client {
	if pageCap <= 0 {
		pageCap = DefaultPageCap
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		pageCap:    pageCap,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// get issues one authorized GET and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, rawURL string, params url.Values, out interface{}) (*http.Response, error) {
	if len(params) > 0 {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		rawURL = rawURL + sep + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("canvas request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("canvas returned %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("canvas response decode: %w", err)
		}
	}
	return resp, nil
}

// FetchAll drains a paginated collection endpoint into one ordered list of
// raw items. The initial request carries the caller's params; every
// subsequent page follows the server's rel="next" link untouched. A page
// that is not a JSON array is appended as a single item and pagination
// stops. Accumulation is capped at the client's page cap.
func (c *Client) FetchAll(ctx context.Context, path string, params url.Values) ([]json.RawMessage, error) {
	next := c.baseURL + path
	var items []json.RawMessage
	first := true

	for next != "" && len(items) < c.pageCap {
		var pageParams url.Values
		if first {
			pageParams = params
			first = false
		}
		var body json.RawMessage
		resp, err := c.get(ctx, next, pageParams, &body)
		if err != nil {
			return nil, err
		}

		var page []json.RawMessage
		if err := json.Unmarshal(body, &page); err != nil {
			// not a collection; keep the payload as one item and stop
			items = append(items, body)
			break
		}
		items = append(items, page...)

		next = nextLink(resp.Header.Get("Link"))
	}
	if len(items) > c.pageCap {
		items = items[:c.pageCap]
	}
	return items, nil
}

// nextLink extracts the rel="next" target from a Link header, if any.
func nextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if !strings.Contains(part, `rel="next"`) {
			continue
		}
		start := strings.Index(part, "<")
		end := strings.Index(part, ">")
		if start >= 0 && end > start {
			return part[start+1 : end]
		}
	}
	return ""
}

// fetchAllAs drains a collection and decodes every item into T.
func fetchAllAs[T any](ctx context.Context, c *Client, path string, params url.Values) ([]T, error) {
	raws, err := c.FetchAll(ctx, path, params)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("canvas item decode: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}

// FetchCourse returns the course record with its syllabus body.
func (c *Client) FetchCourse(ctx context.Context, courseID int) (Course, error) {
	var course Course
	params := url.Values{"include[]": []string{"syllabus_body"}}
	if _, err := c.get(ctx, fmt.Sprintf("%s/api/v1/courses/%d", c.baseURL, courseID), params, &course); err != nil {
		return Course{}, err
	}
	return course, nil
}

// Assignments returns every assignment in the course.
func (c *Client) Assignments(ctx context.Context, courseID int) ([]Assignment, error) {
	params := url.Values{"per_page": []string{"100"}}
	return fetchAllAs[Assignment](ctx, c, fmt.Sprintf("/api/v1/courses/%d/assignments", courseID), params)
}

// Announcements returns every announcement posted to the course.
func (c *Client) Announcements(ctx context.Context, courseID int) ([]Announcement, error) {
	params := url.Values{
		"context_codes[]": []string{fmt.Sprintf("course_%d", courseID)},
		"per_page":        []string{"50"},
	}
	return fetchAllAs[Announcement](ctx, c, "/api/v1/announcements", params)
}

// Discussions returns the course's discussion topics.
func (c *Client) Discussions(ctx context.Context, courseID int) ([]Discussion, error) {
	params := url.Values{"per_page": []string{"50"}}
	return fetchAllAs[Discussion](ctx, c, fmt.Sprintf("/api/v1/courses/%d/discussion_topics", courseID), params)
}

// Staff returns the course's teachers and TAs.
func (c *Client) Staff(ctx context.Context, courseID int) ([]Person, error) {
	params := url.Values{
		"enrollment_type[]": []string{"teacher", "ta"},
		"per_page":          []string{"50"},
	}
	return fetchAllAs[Person](ctx, c, fmt.Sprintf("/api/v1/courses/%d/users", courseID), params)
}

// Profile fetches the authenticated user's Canvas profile.
func (c *Client) Profile(ctx context.Context) (map[string]interface{}, error) {
	var profile map[string]interface{}
	if _, err := c.get(ctx, c.baseURL+"/api/v1/users/self", nil, &profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// FavoriteCourses returns the user's starred courses sorted by term name,
// newest term first, matching the Canvas dashboard ordering.
func (c *Client) FavoriteCourses(ctx context.Context) ([]map[string]interface{}, error) {
	var courses []map[string]interface{}
	if _, err := c.get(ctx, c.baseURL+"/api/v1/users/self/favorites/courses", nil, &courses); err != nil {
		return nil, err
	}
	termName := func(course map[string]interface{}) string {
		term, ok := course["term"].(map[string]interface{})
		if !ok {
			return ""
		}
		name, _ := term["name"].(string)
		return name
	}
	sort.SliceStable(courses, func(i, j int) bool {
		return termName(courses[i]) > termName(courses[j])
	})
	return courses, nil
}

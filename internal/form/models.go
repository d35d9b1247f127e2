package form

import "time"

type Submission struct {
	ID          int
	UID         string
	FormHandle  string
	Title       string
	Status      string
	Data        map[string]any
	DateCreated time.Time
}

// Context exposes the submission to object templates.
func (s *Submission) Context() map[string]any {
	ctx := map[string]any{
		"id":          s.ID,
		"uid":         s.UID,
		"title":       s.Title,
		"status":      s.Status,
		"dateCreated": s.DateCreated,
	}
	for k, v := range s.Data {
		if _, reserved := ctx[k]; !reserved {
			ctx[k] = v
		}
	}
	return ctx
}

type Notification struct {
	ID      string
	Name    string
	Enabled bool
	Subject string
	To      string
	From    string
	Content string
}

type Status struct {
	Handle      string
	Name        string
	Color       string
	Description string
	IsDefault   bool
}

type Template struct {
	Handle string
	Name   string
	Path   string
}

// Criteria narrows repository queries. Zero values match everything.
type Criteria struct {
	Handles    []string
	IDs        []int
	FormHandle string
	Status     string
	Limit      int
}

func (c Criteria) matchesHandle(handle string) bool {
	if len(c.Handles) == 0 {
		return true
	}
	for _, h := range c.Handles {
		if h == handle {
			return true
		}
	}
	return false
}

func (c Criteria) matchesID(id int) bool {
	if len(c.IDs) == 0 {
		return true
	}
	for _, i := range c.IDs {
		if i == id {
			return true
		}
	}
	return false
}

// MatchForm reports whether f satisfies the handle and id filters.
func (c Criteria) MatchForm(f *Form) bool {
	return c.matchesHandle(f.Handle) && c.matchesID(f.ID)
}

// MatchSubmission reports whether s satisfies the form, status and id filters.
func (c Criteria) MatchSubmission(s *Submission) bool {
	if c.FormHandle != "" && s.FormHandle != c.FormHandle {
		return false
	}
	if c.Status != "" && s.Status != c.Status {
		return false
	}
	return c.matchesID(s.ID)
}

// Package formstore keeps forms and submissions in memory. Forms are loaded
// from YAML or HCL definitions on disk.
package formstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taylordaughtry/formie/internal/form"
	"github.com/taylordaughtry/formie/internal/service"
)

// Store implements the form, submission and relation services.
type Store struct {
	mu          sync.RWMutex
	forms       []*form.Form
	byHandle    map[string]*form.Form
	submissions []*form.Submission
	nextID      int
	statuses    []*form.Status
	now         func() time.Time
}

var (
	_ service.Forms       = (*Store)(nil)
	_ service.Submissions = (*Store)(nil)
	_ service.Relations   = (*Store)(nil)
)

// New returns a store holding forms. statuses supply the default status
// for new submissions.
func New(forms []*form.Form, statuses []*form.Status) (*Store, error) {
	s := &Store{
		byHandle: make(map[string]*form.Form, len(forms)),
		statuses: statuses,
		nextID:   1,
		now:      time.Now,
	}
	for _, f := range forms {
		if _, ok := s.byHandle[f.Handle]; ok {
			return nil, fmt.Errorf("formstore: duplicate form handle %q", f.Handle)
		}
		s.byHandle[f.Handle] = f
		s.forms = append(s.forms, f)
	}
	return s, nil
}

// All returns the stored forms themselves, in load order. Callers must not
// modify them.
func (s *Store) All() []*form.Form {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*form.Form(nil), s.forms...)
}

// Forms returns copies of the forms matching criteria.
func (s *Store) Forms(_ context.Context, criteria form.Criteria) ([]*form.Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*form.Form
	for _, f := range s.forms {
		if !criteria.MatchForm(f) {
			continue
		}
		c, err := f.Clone()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
		if criteria.Limit > 0 && len(out) == criteria.Limit {
			break
		}
	}
	return out, nil
}

func (s *Store) Form(_ context.Context, handle string) (*form.Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.byHandle[handle]
	if !ok {
		return nil, fmt.Errorf("form %q: %w", handle, service.ErrNotFound)
	}
	return f.Clone()
}

func (s *Store) FormByID(_ context.Context, id int) (*form.Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.forms {
		if f.ID == id {
			return f.Clone()
		}
	}
	return nil, fmt.Errorf("form %d: %w", id, service.ErrNotFound)
}

func (s *Store) Submissions(_ context.Context, criteria form.Criteria) ([]*form.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*form.Submission
	for _, sub := range s.submissions {
		if !criteria.MatchSubmission(sub) {
			continue
		}
		c := *sub
		out = append(out, &c)
		if criteria.Limit > 0 && len(out) == criteria.Limit {
			break
		}
	}
	return out, nil
}

// SaveSubmission stores sub, assigning its id, uid, creation date and, when
// unset, the default status.
func (s *Store) SaveSubmission(_ context.Context, sub *form.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byHandle[sub.FormHandle]; !ok {
		return fmt.Errorf("save submission: form %q: %w", sub.FormHandle, service.ErrNotFound)
	}
	if sub.ID == 0 {
		sub.ID = s.nextID
		s.nextID++
	}
	if sub.UID == "" {
		sub.UID = uuid.NewString()
	}
	if sub.DateCreated.IsZero() {
		sub.DateCreated = s.now()
	}
	if sub.Status == "" {
		for _, st := range s.statuses {
			if st.IsDefault {
				sub.Status = st.Handle
				break
			}
		}
	}
	c := *sub
	s.submissions = append(s.submissions, &c)
	return nil
}

// SubmissionRelations returns the elements a submission points at: its
// form and its status.
func (s *Store) SubmissionRelations(_ context.Context, sub *form.Submission) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[string]any{}
	if f, ok := s.byHandle[sub.FormHandle]; ok {
		c, err := f.Clone()
		if err != nil {
			return nil, err
		}
		out["form"] = c
	}
	for _, st := range s.statuses {
		if st.Handle == sub.Status {
			out["status"] = st
		}
	}
	return out, nil
}

// Statuses serves a fixed status list.
type Statuses []*form.Status

func (l Statuses) AllStatuses() []*form.Status { return l }

// Templates serves a fixed template list.
type Templates []*form.Template

func (l Templates) AllTemplates() []*form.Template { return l }

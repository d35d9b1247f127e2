// Package captcha provides the built-in spam-prevention integrations and
// the service that selects the ones enabled for a form.
package captcha

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/taylordaughtry/formie/internal/config"
	"github.com/taylordaughtry/formie/internal/form"
	"github.com/taylordaughtry/formie/internal/service"
)

// Store holds the values issued to clients, keyed by session key.
type Store struct {
	mu     sync.Mutex
	values map[string]string
}

func NewStore() *Store {
	return &Store{values: make(map[string]string)}
}

// Issue generates and remembers a fresh value for key.
func (s *Store) Issue(key string) string {
	v := uuid.NewString()
	s.Put(key, v)
	return v
}

func (s *Store) Put(key, value string) {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
}

// Consume reports whether value was issued for key, forgetting it.
func (s *Store) Consume(key, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	issued, ok := s.values[key]
	if !ok || issued != value {
		return false
	}
	delete(s.values, key)
	return true
}

// Provider is a captcha that can also check a submission.
type Provider interface {
	service.CaptchaProvider
	// Validate reports whether the submitted request parameters pass.
	Validate(ctx context.Context, f *form.Form, params map[string]string) bool
}

// Integrations implements service.Integrations over a fixed provider list.
type Integrations struct {
	providers []Provider
	enabled   map[string]bool
}

var _ service.Integrations = (*Integrations)(nil)

// New builds the built-in providers, enabled per settings.
func New(settings map[string]config.CaptchaConfig, store *Store) *Integrations {
	i := &Integrations{enabled: make(map[string]bool)}
	i.Register(&Javascript{store: store, minTime: settings["javascript"].MinTime}, settings["javascript"].Enabled)
	i.Register(&Duplicate{store: store}, settings["duplicate"].Enabled)
	i.Register(&Honeypot{}, settings["honeypot"].Enabled)
	return i
}

// Register adds p after the existing providers.
func (i *Integrations) Register(p Provider, enabled bool) {
	i.providers = append(i.providers, p)
	i.enabled[p.Handle()] = enabled
}

// Providers lists every registered provider in registration order.
func (i *Integrations) Providers() []Provider {
	return append([]Provider(nil), i.providers...)
}

// EnabledCaptchasForForm returns the providers that are enabled globally and
// switched on in f's settings, in registration order.
func (i *Integrations) EnabledCaptchasForForm(_ context.Context, f *form.Form) []service.CaptchaProvider {
	on := make(map[string]bool, len(f.Settings.Captchas))
	for _, h := range f.Settings.Captchas {
		on[h] = true
	}
	var out []service.CaptchaProvider
	for _, p := range i.providers {
		if i.enabled[p.Handle()] && on[p.Handle()] {
			out = append(out, p)
		}
	}
	return out
}

// Validate runs every provider enabled for f against params and returns the
// handles of those that failed.
func (i *Integrations) Validate(ctx context.Context, f *form.Form, params map[string]string) []string {
	var failed []string
	for _, p := range i.EnabledCaptchasForForm(ctx, f) {
		if !p.(Provider).Validate(ctx, f, params) {
			failed = append(failed, p.Handle())
		}
	}
	return failed
}

package rendering

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrNoPage is returned by RegisterAssets when the context carries no page.
var ErrNoPage = errors.New("no page in context")

// page holds the state of one rendered page: the forms whose assets were
// registered while producing it.
type page struct {
	mu     sync.Mutex
	assets map[string]bool
}

type pageKey struct{}

// NewPageContext starts a page. Asset registrations made under the returned
// context are visible only to renders under it.
func NewPageContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, pageKey{}, &page{assets: make(map[string]bool)})
}

func registered(ctx context.Context, handle string) bool {
	p, ok := ctx.Value(pageKey{}).(*page)
	if !ok {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.assets[handle]
}

// Registered lists the handles of forms whose assets were registered on the
// page carried by ctx.
func Registered(ctx context.Context) []string {
	p, ok := ctx.Value(pageKey{}).(*page)
	if !ok {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.assets))
	for h := range p.assets {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}

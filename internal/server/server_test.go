package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/grpc/metadata"

	"github.com/taylordaughtry/formie/internal/csrf"
	"github.com/taylordaughtry/formie/internal/executor"
	"github.com/taylordaughtry/formie/internal/form"
	"github.com/taylordaughtry/formie/internal/rendering"
	"github.com/taylordaughtry/formie/internal/reqid"
	"github.com/taylordaughtry/formie/internal/schema"
)

type resolveFunc func(ctx context.Context, src any, args map[string]any) (any, error)

// fakeRuntime resolves fields through funcs keyed "ObjectType.field".
type fakeRuntime map[string]resolveFunc

func value(v any) resolveFunc {
	return func(context.Context, any, map[string]any) (any, error) { return v, nil }
}

func (rt fakeRuntime) ResolveSync(ctx context.Context, objectType, field string, source any, args map[string]any) (any, error) {
	if fn := rt[objectType+"."+field]; fn != nil {
		return fn(ctx, source, args)
	}
	return nil, nil
}

func (rt fakeRuntime) BatchResolveAsync(ctx context.Context, tasks []executor.AsyncResolveTask) []executor.AsyncResolveResult {
	out := make([]executor.AsyncResolveResult, len(tasks))
	for i, task := range tasks {
		v, err := rt.ResolveSync(ctx, task.ObjectType, task.Field, task.Source, task.Args)
		out[i] = executor.AsyncResolveResult{Value: v, Error: err}
	}
	return out
}

func (fakeRuntime) ResolveType(context.Context, string, any) (string, error) {
	return "", errors.New("no abstract types")
}

func (fakeRuntime) SerializeLeafValue(_ context.Context, _ string, v any) (any, error) {
	return v, nil
}

func newTestHandler(t *testing.T, rt executor.Runtime, opts ...Option) *Handler {
	t.Helper()
	sdl := `type Query { hello: String }`
	sch, err := schema.BuildFromSDL("test.graphql", sdl)
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	h, err := New(rt, sch, opts...)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	return h
}

func TestForwardedHeaders(t *testing.T) {
	rt := fakeRuntime{}
	var captured metadata.MD
	rt["Query.hello"] = func(ctx context.Context, src any, args map[string]any) (any, error) {
		captured, _ = metadata.FromIncomingContext(ctx)
		return "world", nil
	}
	h := newTestHandler(t, rt, WithMetadataHeaders("X-Test"))

	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"{ hello }"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test", "abc")
	req.Header.Set("X-Other", "nope")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if captured == nil || captured.Get("x-test")[0] != "abc" || len(captured.Get("x-other")) > 0 {
		t.Fatalf("metadata not propagated correctly: %v", captured)
	}
}

func TestForwardedHeadersDefaultEmpty(t *testing.T) {
	rt := fakeRuntime{}
	var captured metadata.MD
	rt["Query.hello"] = func(ctx context.Context, src any, args map[string]any) (any, error) {
		captured, _ = metadata.FromIncomingContext(ctx)
		return "world", nil
	}
	h := newTestHandler(t, rt)

	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"{ hello }"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test", "abc")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if captured != nil && len(captured.Get("x-test")) > 0 {
		t.Fatalf("header should not be forwarded by default: %v", captured)
	}
}

func TestCORSAndPreflight(t *testing.T) {
	rt := fakeRuntime{"Query.hello": value("world")}
	h := newTestHandler(t, rt, WithCORS("*"))

	// simple request
	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"{ hello }"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS header")
	}

	// preflight
	pre := httptest.NewRequest("OPTIONS", "/", nil)
	pre.Header.Set("Origin", "http://example.com")
	pre.Header.Set("Access-Control-Request-Headers", "X-Test")
	pw := httptest.NewRecorder()
	h.ServeHTTP(pw, pre)
	if pw.Code != http.StatusNoContent {
		t.Fatalf("preflight status %d", pw.Code)
	}
	if pw.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("preflight missing CORS header")
	}
	if pw.Header().Get("Access-Control-Allow-Headers") != "X-Test" {
		t.Fatalf("preflight missing allow headers")
	}
}

func TestMaxBodyBytes(t *testing.T) {
	rt := fakeRuntime{"Query.hello": value("world")}
	h := newTestHandler(t, rt, WithMaxBodyBytes(10))

	body := bytes.NewBufferString(`{"query":"1234567890"}`)
	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 got %d", w.Code)
	}
}

func TestRequestID(t *testing.T) {
	rt := fakeRuntime{}
	var capturedMD metadata.MD
	var capturedID string
	rt["Query.hello"] = func(ctx context.Context, src any, args map[string]any) (any, error) {
		capturedMD, _ = metadata.FromIncomingContext(ctx)
		capturedID, _ = reqid.FromContext(ctx)
		return "world", nil
	}
	h := newTestHandler(t, rt)

	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"{ hello }"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if capturedID == "" {
		t.Fatalf("missing request id in context")
	}
	if got := capturedMD.Get("graphql-request-id"); len(got) == 0 || got[0] != capturedID {
		t.Fatalf("metadata mismatch: %v id %s", capturedMD, capturedID)
	}
}

func TestCSRFTokenFromForwardedHeader(t *testing.T) {
	provider := csrf.New(true, "CRAFT_CSRF_TOKEN", "X-CSRF-Token")
	rt := fakeRuntime{}
	var tokens []string
	rt["Query.hello"] = func(ctx context.Context, src any, args map[string]any) (any, error) {
		tokens = append(tokens, provider.CurrentToken(ctx))
		return "world", nil
	}
	h := newTestHandler(t, rt, WithMetadataHeaders("X-CSRF-Token", "Cookie"))

	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"{ hello }"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-CSRF-Token", "from-header")
	h.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"{ hello }"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cookie", "CRAFT_CSRF_TOKEN=from-cookie")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if len(tokens) != 2 || tokens[0] != "from-header" || tokens[1] != "from-cookie" {
		t.Fatalf("unexpected tokens %v", tokens)
	}
}

func TestCSRFTokenStableWithinRequest(t *testing.T) {
	provider := csrf.New(true, "CRAFT_CSRF_TOKEN", "X-CSRF-Token")
	rt := fakeRuntime{}
	var first, second string
	rt["Query.hello"] = func(ctx context.Context, src any, args map[string]any) (any, error) {
		first = provider.CurrentToken(ctx)
		second = provider.CurrentToken(ctx)
		return "world", nil
	}
	h := newTestHandler(t, rt)

	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"{ hello }"}`))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if first == "" || first != second {
		t.Fatalf("token should be minted once per request: %q %q", first, second)
	}
}

func TestRegisteredAssetsResetPerRequest(t *testing.T) {
	renderer, err := rendering.New(nil)
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	contact := &form.Form{Handle: "contact"}
	rt := fakeRuntime{}
	var seen [][]string
	rt["Query.hello"] = func(ctx context.Context, src any, args map[string]any) (any, error) {
		seen = append(seen, rendering.Registered(ctx))
		return "world", renderer.RegisterAssets(ctx, contact, nil)
	}
	h := newTestHandler(t, rt)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"{ hello }"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusOK || bytes.Contains(w.Body.Bytes(), []byte("errors")) {
			t.Fatalf("request %d: %d %s", i, w.Code, w.Body.String())
		}
	}
	if len(seen) != 2 || len(seen[0]) != 0 || len(seen[1]) != 0 {
		t.Fatalf("registrations leaked between requests: %v", seen)
	}
}

func TestGraphiQLPage(t *testing.T) {
	h := newTestHandler(t, fakeRuntime{})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Accept", "text/html")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte("graphiql")) {
		t.Fatalf("expected GraphiQL page, got %d", w.Code)
	}

	off := newTestHandler(t, fakeRuntime{}, WithGraphiQL(false))
	w = httptest.NewRecorder()
	off.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without GraphiQL, got %d", w.Code)
	}
}

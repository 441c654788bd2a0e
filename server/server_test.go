package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	validity "github.com/hanpama/validity"
	schema "github.com/hanpama/validity/schema"
)

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	sdl := `
type Query {
  hello: String
  user: User
}

type User {
  name: String
}
`
	sch, err := schema.BuildSDL("test", sdl, schema.Resolvers{
		"Query.hello": func(ctx context.Context, source any, args map[string]any) (any, error) {
			return "world", nil
		},
		"Query.user": func(ctx context.Context, source any, args map[string]any) (any, error) {
			return map[string]any{"name": "amy"}, nil
		},
	})
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	return sch
}

func postJSON(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid response JSON: %v\n%s", err, w.Body.String())
	}
	return out
}

func errorMessages(t *testing.T, body map[string]any) []string {
	t.Helper()
	raw, _ := body["errors"].([]any)
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		m := e.(map[string]any)
		out = append(out, m["message"].(string))
	}
	return out
}

func TestPostQuery(t *testing.T) {
	h := New(testSchema(t))

	w := postJSON(h, `{"query":"{ hello }"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	body := decodeBody(t, w)
	data := body["data"].(map[string]any)
	if data["hello"] != "world" {
		t.Fatalf("unexpected data: %v", data)
	}
	if _, ok := body["errors"]; ok {
		t.Fatalf("unexpected errors: %v", body["errors"])
	}
}

func TestGetQuery(t *testing.T) {
	h := New(testSchema(t))

	req := httptest.NewRequest("GET", "/?query="+url.QueryEscape("{ hello }"), nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["data"].(map[string]any)["hello"] != "world" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestValidationErrorsMergedIntoResponse(t *testing.T) {
	sch := testSchema(t)
	reg := validity.NewRegistry()
	reg.Register(validity.FieldSelector("Query", "hello"), func(ctx context.Context, source any, args map[string]any) ([]validity.Result, error) {
		return []validity.Result{{Message: "hello is deprecated"}}, nil
	})
	reg.Register(validity.SelectorGlobal, func(ctx context.Context, source any, args map[string]any) ([]validity.Result, error) {
		return []validity.Result{{Message: "request flagged"}}, nil
	})
	w, err := validity.WrapResolvers(sch, reg)
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	h := New(sch, WithValidation(w))

	rec := postJSON(h, `{"query":"{ hello }"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["data"].(map[string]any)["hello"] != "world" {
		t.Fatalf("data should survive validation violations: %s", rec.Body.String())
	}
	msgs := errorMessages(t, body)
	if len(msgs) != 2 || msgs[0] != "hello is deprecated" || msgs[1] != "request flagged" {
		t.Fatalf("unexpected error list: %v", msgs)
	}
}

func TestValidationContextIsPerRequest(t *testing.T) {
	sch := testSchema(t)
	var globalRuns atomic.Int64
	reg := validity.NewRegistry()
	reg.Register(validity.SelectorGlobal, func(ctx context.Context, source any, args map[string]any) ([]validity.Result, error) {
		globalRuns.Add(1)
		return nil, nil
	})
	w, err := validity.WrapResolvers(sch, reg)
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	h := New(sch, WithValidation(w))

	// Two fields in one request share the claim; a second request gets a
	// fresh Context and runs the globals again.
	postJSON(h, `{"query":"{ hello user { name } }"}`)
	postJSON(h, `{"query":"{ hello }"}`)
	if got := globalRuns.Load(); got != 2 {
		t.Fatalf("global validators ran %d times, want 2", got)
	}
}

func TestProfilingFlushedPerRequest(t *testing.T) {
	sch := testSchema(t)
	var records atomic.Int64
	w, err := validity.WrapResolvers(sch, validity.NewRegistry(),
		validity.WithProfiling(),
		validity.WithProfilingResultHandler(func(rs []validity.ProfilingRecord) {
			records.Add(int64(len(rs)))
		}),
	)
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	h := New(sch, WithValidation(w))

	postJSON(h, `{"query":"{ hello user { name } }"}`)
	// hello, user and the default-resolved user.name: only fields with a
	// resolver are wrapped, so two records.
	if got := records.Load(); got != 2 {
		t.Fatalf("profiling captured %d records, want 2", got)
	}
}

func TestBatchRequests(t *testing.T) {
	h := New(testSchema(t))

	w := postJSON(h, `[{"query":"{ hello }"},{"query":"{ user { name } }"}]`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var out []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid batch JSON: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 results, got %d", len(out))
	}
	if out[0]["data"].(map[string]any)["hello"] != "world" {
		t.Fatalf("unexpected first result: %v", out[0])
	}
	if out[1]["data"].(map[string]any)["user"].(map[string]any)["name"] != "amy" {
		t.Fatalf("unexpected second result: %v", out[1])
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := New(testSchema(t))

	req := httptest.NewRequest("DELETE", "/", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status %d", w.Code)
	}
}

func TestBodyTooLarge(t *testing.T) {
	h := New(testSchema(t), WithMaxBodyBytes(16))

	w := postJSON(h, `{"query":"{ hello hello hello hello }"}`)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status %d", w.Code)
	}
}

func TestParseErrorReturnsGraphQLError(t *testing.T) {
	h := New(testSchema(t))

	w := postJSON(h, `{"query":"{ hello"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	body := decodeBody(t, w)
	if len(errorMessages(t, body)) == 0 {
		t.Fatalf("expected a parse error in response: %s", w.Body.String())
	}
}

func TestMissingQuery(t *testing.T) {
	h := New(testSchema(t))

	w := postJSON(h, `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "missing 'query'") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestCORSAndPreflight(t *testing.T) {
	h := New(testSchema(t), WithCORS("*"))

	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"{ hello }"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS header")
	}

	pre := httptest.NewRequest("OPTIONS", "/", nil)
	pre.Header.Set("Origin", "http://example.com")
	pre.Header.Set("Access-Control-Request-Headers", "X-Test")
	pw := httptest.NewRecorder()
	h.ServeHTTP(pw, pre)
	if pw.Code != http.StatusNoContent {
		t.Fatalf("preflight status %d", pw.Code)
	}
	if pw.Header().Get("Access-Control-Allow-Headers") != "X-Test" {
		t.Fatalf("preflight headers not echoed")
	}
}

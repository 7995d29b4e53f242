package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/arjunv/blockdex/internal/searcher/executor"
	"github.com/arjunv/blockdex/internal/searcher/parser"
)

type fakeExecutor struct {
	result *executor.SearchResult
	err    error
	calls  int
}

func (f *fakeExecutor) Execute(ctx context.Context, rawQuery string, mode parser.Mode, terms []string, k int) (*executor.SearchResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func TestSearchMissingQueryReturns400(t *testing.T) {
	h := New(&fakeExecutor{}, nil, nil, 10, 100)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/search", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSearchInvalidModeReturns400(t *testing.T) {
	h := New(&fakeExecutor{}, nil, nil, 10, 100)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=hello&mode=fuzzy", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSearchInvalidLimitReturns400(t *testing.T) {
	h := New(&fakeExecutor{}, nil, nil, 10, 100)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=hello&limit=abc", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSearchLimitIsCappedAtMaxResults(t *testing.T) {
	exec := &fakeExecutor{result: &executor.SearchResult{Query: "hello", Hits: []executor.Hit{}}}
	h := New(exec, nil, nil, 10, 50)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=hello&limit=1000", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestSearchWithNoCacheCallsExecutorDirectly(t *testing.T) {
	want := &executor.SearchResult{Query: "hello", TotalHits: 1, Hits: []executor.Hit{{TextID: "doc-a"}}}
	exec := &fakeExecutor{result: want}
	h := New(exec, nil, nil, 10, 100)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=hello", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if exec.calls != 1 {
		t.Fatalf("executor called %d times, want 1", exec.calls)
	}

	var got executor.SearchResult
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.TotalHits != 1 {
		t.Fatalf("TotalHits = %d, want 1", got.TotalHits)
	}
}

func TestSearchEmptyTermsShortCircuitsExecutor(t *testing.T) {
	exec := &fakeExecutor{result: &executor.SearchResult{}}
	h := New(exec, nil, nil, 10, 100)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=%20%20", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if exec.calls != 0 {
		t.Fatalf("executor called %d times on whitespace-only query, want 0", exec.calls)
	}
}

func TestSearchExecutorErrorReturns500(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("shard unreachable")}
	h := New(exec, nil, nil, 10, 100)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=hello", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestCacheStatsReportsDisabledWhenCacheNil(t *testing.T) {
	h := New(&fakeExecutor{}, nil, nil, 10, 100)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cache/stats", nil)
	rec := httptest.NewRecorder()
	h.CacheStats(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body["status"] != "disabled" {
		t.Fatalf("status field = %q, want disabled", body["status"])
	}
}

func TestCacheInvalidateReturns503WhenCacheNil(t *testing.T) {
	h := New(&fakeExecutor{}, nil, nil, 10, 100)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cache/invalidate", nil)
	rec := httptest.NewRecorder()
	h.CacheInvalidate(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestHealthReturnsOK(t *testing.T) {
	h := New(&fakeExecutor{}, nil, nil, 10, 100)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

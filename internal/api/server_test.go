package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sandeepkv93/timeaudit/internal/config"
	"github.com/sandeepkv93/timeaudit/internal/model"
	"github.com/sandeepkv93/timeaudit/internal/rules"
	"github.com/sandeepkv93/timeaudit/internal/storage"
	"github.com/sandeepkv93/timeaudit/internal/tracker"
)

func newTestServer(t *testing.T, authEnabled bool) (*Server, *httptest.Server) {
	t.Helper()
	store, err := storage.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.API.AuthEnabled = authEnabled
	cfg.API.Token = "test-token"

	srv := New(store, tracker.New(store), rules.New(store), cfg, "test")
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestStartStopLifecycle(t *testing.T) {
	_, ts := newTestServer(t, false)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/entries/start", map[string]any{
		"task_name": "api work",
		"project":   "alpha",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("start status = %d", resp.StatusCode)
	}
	started := decodeBody[model.Entry](t, resp)
	if started.TaskName != "api work" || started.Project != "alpha" {
		t.Fatalf("started = %+v", started)
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/v1/entries/current", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("current status = %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/v1/entries/stop", map[string]any{"notes": "done"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stop status = %d", resp.StatusCode)
	}
	stopped := decodeBody[model.Entry](t, resp)
	if stopped.EndTime == nil || stopped.Notes != "done" {
		t.Fatalf("stopped = %+v", stopped)
	}
}

func TestConflictAndNotFoundMapping(t *testing.T) {
	_, ts := newTestServer(t, false)

	// stop with nothing running
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/entries/stop", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("idle stop status = %d, want 409", resp.StatusCode)
	}

	// current with nothing running
	resp = doJSON(t, http.MethodGet, ts.URL+"/api/v1/entries/current", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("idle current status = %d, want 404", resp.StatusCode)
	}

	// double start
	doJSON(t, http.MethodPost, ts.URL+"/api/v1/entries/start", map[string]any{"task_name": "a"})
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/v1/entries/start", map[string]any{"task_name": "b"})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("double start status = %d, want 409", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/v1/entries/no-such-id", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get unknown entry status = %d, want 404", resp.StatusCode)
	}
}

func TestManualEntryValidation(t *testing.T) {
	_, ts := newTestServer(t, false)

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/entries", map[string]any{
		"task_name":  "backfill",
		"start_time": start,
		"end_time":   start.Add(-time.Hour),
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("inverted range status = %d, want 400", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/v1/entries", map[string]any{
		"task_name":  "backfill",
		"start_time": start,
		"end_time":   start.Add(time.Hour),
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("manual entry status = %d", resp.StatusCode)
	}
	entry := decodeBody[model.Entry](t, resp)
	if !entry.ManualEntry {
		t.Fatal("manual_entry flag not set")
	}
}

func TestEntryUpdateAndDelete(t *testing.T) {
	_, ts := newTestServer(t, false)

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/entries", map[string]any{
		"task_name":  "draft",
		"start_time": start,
		"end_time":   start.Add(time.Hour),
	})
	entry := decodeBody[model.Entry](t, resp)

	resp = doJSON(t, http.MethodPut, ts.URL+"/api/v1/entries/"+entry.ID.String(), map[string]any{
		"task_name": "draft v2",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d", resp.StatusCode)
	}
	updated := decodeBody[model.Entry](t, resp)
	if updated.TaskName != "draft v2" || !updated.Edited {
		t.Fatalf("updated = %+v", updated)
	}

	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/v1/entries/"+entry.ID.String(), nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/v1/entries/"+entry.ID.String(), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("double delete status = %d, want 404", resp.StatusCode)
	}
}

func TestRuleEndpoints(t *testing.T) {
	_, ts := newTestServer(t, false)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/rules", map[string]any{
		"pattern":   "code|vscode",
		"task_name": "coding",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add rule status = %d", resp.StatusCode)
	}
	rule := decodeBody[model.ProcessRule](t, resp)

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/v1/rules/match", map[string]any{
		"process_name": "VSCode.exe",
	})
	match := decodeBody[map[string]any](t, resp)
	if match["matched"] != true {
		t.Fatalf("match = %v", match)
	}

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/v1/rules/match", map[string]any{
		"process_name": "slack",
	})
	match = decodeBody[map[string]any](t, resp)
	if match["matched"] != false {
		t.Fatalf("unexpected match: %v", match)
	}

	resp = doJSON(t, http.MethodPut, ts.URL+"/api/v1/rules/"+rule.ID, map[string]any{
		"enabled": false,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update rule status = %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/v1/rules/"+rule.ID, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete rule status = %d", resp.StatusCode)
	}
}

func TestReportSummaryEndpoint(t *testing.T) {
	srv, ts := newTestServer(t, false)

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	entry := model.NewEntry("reported work")
	entry.StartTime = start
	entry.EndTime = &end
	if err := srv.store.SaveEntry(entry); err != nil {
		t.Fatal(err)
	}

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/reports/summary?label=march", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("summary status = %d", resp.StatusCode)
	}
	body := decodeBody[map[string]any](t, resp)
	if body["label"] != "march" {
		t.Fatalf("label = %v", body["label"])
	}
	if body["entry_count"] != float64(1) {
		t.Fatalf("entry_count = %v", body["entry_count"])
	}
}

func TestBearerAuth(t *testing.T) {
	_, ts := newTestServer(t, true)

	resp, err := http.Get(ts.URL + "/api/v1/entries")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/entries", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad token status = %d, want 401", resp2.StatusCode)
	}

	req, _ = http.NewRequest(http.MethodGet, ts.URL+"/api/v1/entries", nil)
	req.Header.Set("Authorization", "Bearer test-token")
	resp3, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp3.Body.Close()
	if resp3.StatusCode != http.StatusOK {
		t.Fatalf("valid token status = %d, want 200", resp3.StatusCode)
	}

	// health stays open
	resp4, err := http.Get(ts.URL + "/api/v1/system/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp4.Body.Close()
	if resp4.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d, want 200", resp4.StatusCode)
	}
}

func TestHealthVersion(t *testing.T) {
	_, ts := newTestServer(t, false)

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/system/health", nil)
	body := decodeBody[map[string]string](t, resp)
	if body["status"] != "ok" || body["version"] != "test" {
		t.Fatalf("health = %v", body)
	}
}

func TestListEntriesBadLimit(t *testing.T) {
	_, ts := newTestServer(t, false)

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/entries?limit=nope", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad limit status = %d, want 400", resp.StatusCode)
	}
	body, _ := decodeBody[map[string]string](t, resp)["error"]
	if !strings.Contains(body, "limit") {
		t.Fatalf("error = %q", body)
	}
}

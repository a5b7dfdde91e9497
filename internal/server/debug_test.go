package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/wikichat/internal/store"
	"github.com/mohammad-safakhou/wikichat/internal/wiki"
)

func setupDebugHandler(t *testing.T, searcher *stubSearcher, prov *stubProvider) (*DebugHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	h := &DebugHandler{
		Searcher:    searcher,
		Provider:    prov,
		Store:       &store.Store{DB: db},
		SearchLimit: 3,
		Logger:      log.New(log.Writer(), "[DEBUG] ", log.LstdFlags),
	}
	return h, mock, func() { db.Close() }
}

func getJSON(t *testing.T, handler echo.HandlerFunc, target string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return rec, payload
}

func TestHealthReportsStorage(t *testing.T) {
	prov := &stubProvider{text: "never called"}
	h, mock, cleanup := setupDebugHandler(t, &stubSearcher{}, prov)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM chat_history`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	rec, payload := getJSON(t, h.health, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if payload["database_status"] != "connected" {
		t.Errorf("database_status = %v", payload["database_status"])
	}
	if payload["total_conversations"].(float64) != 12 {
		t.Errorf("total_conversations = %v", payload["total_conversations"])
	}
	if prov.calls != 0 {
		t.Errorf("health must never call the generation provider, got %d calls", prov.calls)
	}
	features, ok := payload["features"].(map[string]interface{})
	if !ok || features["wikipedia_integration"] != true {
		t.Errorf("features = %v", payload["features"])
	}
}

func TestHealthDegradesWhenStorageDown(t *testing.T) {
	h, mock, cleanup := setupDebugHandler(t, &stubSearcher{}, &stubProvider{})
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM chat_history`)).
		WillReturnError(errors.New("no route to host"))

	rec, payload := getJSON(t, h.health, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, health must still answer", rec.Code)
	}
	if payload["status"] != "healthy" {
		t.Errorf("status = %v", payload["status"])
	}
	dbStatus, _ := payload["database_status"].(string)
	if dbStatus == "connected" {
		t.Errorf("database_status should report the failure, got %q", dbStatus)
	}
	if payload["total_conversations"] != "unknown" {
		t.Errorf("total_conversations = %v, want %q when storage is down", payload["total_conversations"], "unknown")
	}
}

func TestDebugSearchPassThrough(t *testing.T) {
	searcher := &stubSearcher{hits: []wiki.SearchHit{
		{Title: "Albert Einstein", Snippet: "physicist"},
	}}
	h, _, cleanup := setupDebugHandler(t, searcher, &stubProvider{})
	defer cleanup()

	_, payload := getJSON(t, h.search, "/debug/search?query=Albert+Einstein")
	if payload["status"] != "success" {
		t.Errorf("status = %v", payload["status"])
	}
	if payload["results_found"].(float64) != 1 {
		t.Errorf("results_found = %v", payload["results_found"])
	}
}

func TestDebugSearchNoResults(t *testing.T) {
	h, _, cleanup := setupDebugHandler(t, &stubSearcher{}, &stubProvider{})
	defer cleanup()

	_, payload := getJSON(t, h.search, "/debug/search?query=asdkjqwe+zzz")
	if payload["status"] != "no_results" {
		t.Errorf("status = %v", payload["status"])
	}
}

func TestDebugProviderProbe(t *testing.T) {
	h, _, cleanup := setupDebugHandler(t, &stubSearcher{}, &stubProvider{text: "ok"})
	defer cleanup()

	_, payload := getJSON(t, h.provider, "/debug/provider")
	if payload["status"] != "healthy" {
		t.Errorf("status = %v", payload["status"])
	}

	bad, _, cleanupBad := setupDebugHandler(t, &stubSearcher{}, &stubProvider{err: errors.New("bad key")})
	defer cleanupBad()
	_, payload = getJSON(t, bad.provider, "/debug/provider")
	if payload["status"] != "unhealthy" {
		t.Errorf("status = %v", payload["status"])
	}
	if payload["detail"] != "bad key" {
		t.Errorf("detail = %v", payload["detail"])
	}
}

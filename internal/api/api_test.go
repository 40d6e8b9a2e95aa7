package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/N474NR4/UCHI-Subaru/internal/model"
	"github.com/N474NR4/UCHI-Subaru/internal/store"
	"github.com/N474NR4/UCHI-Subaru/internal/store/sqlite"
)

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	server, _ := setupTestServerWithStore(t)
	return server
}

func setupTestServerWithStore(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	s := store.New(sqlite.New(filepath.Join(t.TempDir(), "cars.sqlite3")))
	if err := s.Open(context.Background()); err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	server := httptest.NewServer(LoggingMiddleware(NewRouter(s)))
	t.Cleanup(server.Close)
	return server, s
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var data []byte
	if body != nil {
		data, _ = json.Marshal(body)
	}

	req, err := http.NewRequest(method, url, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decodeItems(t *testing.T, resp *http.Response) []model.Item {
	t.Helper()
	defer resp.Body.Close()
	var items []model.Item
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		t.Fatalf("decoding items: %v", err)
	}
	return items
}

func TestItemsAPIFlow(t *testing.T) {
	server := setupTestServer(t)

	// Create item.
	resp := doJSON(t, "POST", server.URL+"/api/items", map[string]any{
		"name":  "Impreza",
		"year":  2023,
		"price": 120000.00,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Error("expected request id header")
	}
	var created model.Item
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()
	if created.ID != 1 {
		t.Fatalf("expected id 1, got %d", created.ID)
	}

	// Update item.
	resp = doJSON(t, "PUT", server.URL+"/api/items/1", map[string]any{
		"name":  "Impreza",
		"year":  2024,
		"price": 125000.00,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on update, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// List items.
	items := decodeItems(t, doJSON(t, "GET", server.URL+"/api/items", nil))
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Year != 2024 || items[0].Price != 125000 {
		t.Errorf("expected updated fields, got %+v", items[0])
	}
	if items[0].Description != nil || items[0].ImageRef != nil {
		t.Errorf("expected null optional fields, got %+v", items[0])
	}

	// Delete item.
	resp = doJSON(t, "DELETE", server.URL+"/api/items/1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	items = decodeItems(t, doJSON(t, "GET", server.URL+"/api/items", nil))
	if len(items) != 0 {
		t.Errorf("expected empty list, got %d", len(items))
	}
}

func TestEmptyOptionalFieldsAreAbsent(t *testing.T) {
	server := setupTestServer(t)

	resp := doJSON(t, "POST", server.URL+"/api/items", map[string]any{
		"name":        "Levorg",
		"year":        2022,
		"price":       150000,
		"description": "",
		"image_url":   "",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, "PUT", server.URL+"/api/items/1", map[string]any{
		"name":      "Levorg GT",
		"image_url": "  ",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on update, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, "GET", server.URL+"/api/items/1", nil)
	defer resp.Body.Close()
	var item model.Item
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		t.Fatalf("decoding item: %v", err)
	}
	if item.HasImage() {
		t.Errorf("expected no image, got %q", *item.ImageRef)
	}
	if item.Description != nil {
		t.Errorf("expected no description, got %q", *item.Description)
	}
}

func TestListFilter(t *testing.T) {
	server := setupTestServer(t)

	for _, name := range []string{"Outback", "Forester", "Outback Touring"} {
		resp := doJSON(t, "POST", server.URL+"/api/items", map[string]any{"name": name})
		resp.Body.Close()
	}

	items := decodeItems(t, doJSON(t, "GET", server.URL+"/api/items?q=OUT", nil))
	if len(items) != 2 {
		t.Errorf("expected 2 matches for OUT, got %d", len(items))
	}
}

func TestNotFound(t *testing.T) {
	server := setupTestServer(t)

	tests := []struct {
		method string
		path   string
		body   any
	}{
		{"GET", "/api/items/5", nil},
		{"PUT", "/api/items/5", map[string]any{"name": "Legacy"}},
		{"DELETE", "/api/items/5", nil},
	}

	for _, tt := range tests {
		resp := doJSON(t, tt.method, server.URL+tt.path, tt.body)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s %s: expected 404, got %d", tt.method, tt.path, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestBadRequests(t *testing.T) {
	server := setupTestServer(t)

	tests := []struct {
		method string
		path   string
		body   any
	}{
		{"POST", "/api/items", map[string]any{"year": 2020}},
		{"POST", "/api/items", map[string]any{"name": "BRZ", "colour": "blue"}},
		{"GET", "/api/items/abc", nil},
		{"DELETE", "/api/items/0", nil},
	}

	for _, tt := range tests {
		resp := doJSON(t, tt.method, server.URL+tt.path, tt.body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s %s: expected 400, got %d", tt.method, tt.path, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestClear(t *testing.T) {
	server := setupTestServer(t)

	for _, name := range []string{"WRX", "BRZ"} {
		resp := doJSON(t, "POST", server.URL+"/api/items", map[string]any{"name": name})
		resp.Body.Close()
	}

	resp := doJSON(t, "DELETE", server.URL+"/api/items", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on clear, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	items := decodeItems(t, doJSON(t, "GET", server.URL+"/api/items", nil))
	if len(items) != 0 {
		t.Errorf("expected empty list after clear, got %d", len(items))
	}
}

func TestClearEndsPageEdit(t *testing.T) {
	server, s := setupTestServerWithStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, model.Item{Name: "Impreza"})
	if err != nil {
		t.Fatalf("creating item: %v", err)
	}
	if _, err := s.Session().Begin(ctx, id); err != nil {
		t.Fatalf("beginning edit: %v", err)
	}

	resp := doJSON(t, "DELETE", server.URL+"/api/items", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on clear, got %d", resp.StatusCode)
	}

	if _, editing := s.Session().Editing(); editing {
		t.Error("expected edit session to be idle after clear")
	}
}

func TestStoreNotOpen(t *testing.T) {
	s := store.New(sqlite.New(filepath.Join(t.TempDir(), "cars.sqlite3")))
	server := httptest.NewServer(NewRouter(s))
	t.Cleanup(server.Close)

	resp := doJSON(t, "GET", server.URL+"/api/items", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503 when store is not open, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestHealth(t *testing.T) {
	server := setupTestServer(t)

	resp := doJSON(t, "GET", server.URL+"/api/health", nil)
	defer resp.Body.Close()

	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	if body["backend"] != "sqlite" {
		t.Errorf("expected backend sqlite, got %q", body["backend"])
	}
}

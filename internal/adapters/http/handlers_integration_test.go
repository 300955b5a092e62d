//go:build integration

package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	handler "github.com/samirrijal/citygrid/internal/adapters/http"
	"github.com/samirrijal/citygrid/internal/adapters/postgres"
	"github.com/samirrijal/citygrid/internal/core/domain"
	"github.com/samirrijal/citygrid/internal/core/usecases"
	"github.com/samirrijal/citygrid/internal/pkg/config"
)

// setupTestDB connects to the database named by the CITYGRID_DATABASE_* env vars.
// The schema must already be migrated (go run ./cmd/migrate up).
func setupTestDB(t *testing.T) *postgres.DB {
	t.Helper()
	cfg, err := config.Load("citygrid-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)

	if _, err := db.Pool.Exec(ctx, `TRUNCATE city_layouts, city_edits, city_drafts RESTART IDENTITY`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return db
}

// setupTestDeps creates dependencies with real DB and repos, no cache or broker.
func setupTestDeps(t *testing.T, db *postgres.DB) *handler.Dependencies {
	t.Helper()
	edits, err := postgres.NewEditRepo(db, postgres.CityEditsTable)
	if err != nil {
		t.Fatal(err)
	}
	drafts, err := postgres.NewEditRepo(db, postgres.CityDraftsTable)
	if err != nil {
		t.Fatal(err)
	}

	return &handler.Dependencies{
		Layouts: usecases.NewLayoutService(postgres.NewLayoutRepo(db), nil, nil),
		Edits:   usecases.NewEditService(usecases.CityEditResource, edits, nil, nil),
		Drafts:  usecases.NewEditService(usecases.CityDraftResource, drafts, nil, nil),
		DB:      db,
	}
}

func TestLayoutLifecycle_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	app := setupApp(setupTestDeps(t, setupTestDB(t)))

	status, body, _ := doRequest(t, app, "POST", "/api/layouts",
		`{"name":"Old Town","grid_data":{"3,4":"park"}}`)
	if status != 201 {
		t.Fatalf("create: expected 201, got %d: %s", status, body)
	}
	var created domain.CityLayout
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatal(err)
	}
	if created.ID == 0 || created.CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamps, got %+v", created)
	}

	path := fmt.Sprintf("/api/layouts/%d", created.ID)
	status, body, _ = doRequest(t, app, "PATCH", path, `{"description":"by the river","rows":20}`)
	if status != 200 {
		t.Fatalf("patch: expected 200, got %d: %s", status, body)
	}
	var patched domain.CityLayout
	json.Unmarshal(body, &patched)
	if patched.Rows != 20 || patched.Description == nil || *patched.Description != "by the river" {
		t.Errorf("patch not persisted: %+v", patched)
	}

	if status, _, _ := doRequest(t, app, "DELETE", path, ""); status != 204 {
		t.Fatalf("delete: expected 204, got %d", status)
	}
	if status, _, _ := doRequest(t, app, "GET", path, ""); status != 404 {
		t.Errorf("get after delete: expected 404, got %d", status)
	}
}

func TestBulkDeleteLayouts_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	app := setupApp(setupTestDeps(t, setupTestDB(t)))

	for _, name := range []string{"A", "B", "C"} {
		if status, _, _ := doRequest(t, app, "POST", "/api/layouts", `{"name":"`+name+`"}`); status != 201 {
			t.Fatalf("seed %s: got %d", name, status)
		}
	}

	status, body, _ := doRequest(t, app, "DELETE", "/api/layouts/bulk-delete", `{"ids":[1,2,999]}`)
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	var result struct{ Deleted int }
	json.Unmarshal(body, &result)
	if result.Deleted != 2 {
		t.Errorf("expected 2 deleted, got %d", result.Deleted)
	}

	_, body, _ = doRequest(t, app, "GET", "/api/layouts", "")
	var remaining []domain.CityLayout
	json.Unmarshal(body, &remaining)
	if len(remaining) != 1 {
		t.Errorf("expected 1 remaining layout, got %d", len(remaining))
	}
}

func TestLatestEdit_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	app := setupApp(setupTestDeps(t, setupTestDB(t)))

	if status, _, _ := doRequest(t, app, "GET", "/api/city-edits/latest", ""); status != 404 {
		t.Fatalf("empty table: expected 404, got %d", status)
	}

	doRequest(t, app, "POST", "/api/city-edits", `{"title":"first"}`)
	doRequest(t, app, "POST", "/api/city-edits", `{"title":"second"}`)
	doRequest(t, app, "PATCH", "/api/city-edits/1", `{"selected_tool":"road"}`)

	status, body, _ := doRequest(t, app, "GET", "/api/city-edits/latest", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var latest domain.CityEdit
	json.Unmarshal(body, &latest)
	if latest.Title != "first" || latest.SelectedTool != "road" {
		t.Errorf("expected the most recently updated edit, got %+v", latest)
	}
}

func TestDraftsAreSeparate_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	app := setupApp(setupTestDeps(t, setupTestDB(t)))

	doRequest(t, app, "POST", "/api/city-drafts", `{"title":"draft"}`)

	_, body, _ := doRequest(t, app, "GET", "/api/city-edits", "")
	var edits []domain.CityEdit
	json.Unmarshal(body, &edits)
	if len(edits) != 0 {
		t.Errorf("drafts leaked into city_edits: %d edits", len(edits))
	}
}

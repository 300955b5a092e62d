package http_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
)

// loadOpenAPI finds api/openapi.yaml by walking up from the test directory and parses it.
func loadOpenAPI(t *testing.T) *openapi3.T {
	t.Helper()

	dir, _ := os.Getwd()
	for i := 0; i < 5; i++ {
		candidate := filepath.Join(dir, "api", "openapi.yaml")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			data, err := os.ReadFile(candidate)
			if err != nil {
				t.Fatalf("failed to read openapi.yaml: %v", err)
			}
			loader := &openapi3.Loader{IsExternalRefsAllowed: false}
			spec, err := loader.LoadFromData(data)
			if err != nil {
				t.Fatalf("failed to parse OpenAPI document: %v", err)
			}
			return spec
		}
		dir = filepath.Dir(dir)
	}

	t.Fatalf("could not find api/openapi.yaml")
	return nil
}

func TestOpenAPIDocument(t *testing.T) {
	spec := loadOpenAPI(t)

	if err := spec.Validate(context.Background()); err != nil {
		t.Fatalf("OpenAPI validation failed: %v", err)
	}

	expectedPaths := []string{
		"/v1/health",
		"/v1/ready",
		"/api/hello",
		"/api/layouts",
		"/api/layouts/bulk-delete",
		"/api/layouts/{id}",
		"/api/city-edits",
		"/api/city-edits/latest",
		"/api/city-edits/bulk-delete",
		"/api/city-edits/{id}",
		"/api/city-drafts",
		"/graphql",
		"/ws",
	}
	for _, path := range expectedPaths {
		if item := spec.Paths.Find(path); item == nil {
			t.Errorf("expected path %s not found", path)
		}
	}

	expectedSchemas := []string{
		"CityLayout",
		"CityEdit",
		"SimulationState",
		"Vehicle",
		"TrafficLight",
		"BulkDeleteResult",
		"APIError",
	}
	for _, name := range expectedSchemas {
		if spec.Components.Schemas[name] == nil {
			t.Errorf("expected schema %s not found", name)
		}
	}

	if op := spec.Paths.Find("/api/city-drafts").Get; op == nil || !op.Deprecated {
		t.Error("expected /api/city-drafts GET to be deprecated")
	}
}

func TestOpenAPIListsAreArrays(t *testing.T) {
	spec := loadOpenAPI(t)

	for _, path := range []string{"/api/layouts", "/api/city-edits", "/api/city-drafts"} {
		resp := spec.Paths.Find(path).Get.Responses.Value("200")
		if resp == nil || resp.Value == nil {
			t.Errorf("%s: missing 200 response", path)
			continue
		}
		schema := resp.Value.Content.Get("application/json").Schema.Value
		if schema.Type == nil || !schema.Type.Is("array") {
			t.Errorf("%s: expected an array body, got %v", path, schema.Type)
		}
		if resp.Value.Headers["X-Total-Count"] == nil {
			t.Errorf("%s: missing X-Total-Count header", path)
		}
	}
}

func TestOpenAPIInfo(t *testing.T) {
	spec := loadOpenAPI(t)

	if spec.Info.Title != "CityGrid API" {
		t.Errorf("expected title 'CityGrid API', got %q", spec.Info.Title)
	}
	if spec.Info.Version != "1.0.0" {
		t.Errorf("expected version 1.0.0, got %q", spec.Info.Version)
	}
	if len(spec.Servers) == 0 {
		t.Error("expected at least one server")
	}
}

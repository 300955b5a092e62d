package http_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/samirrijal/citygrid/internal/core/domain"
)

type gqlResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func TestGraphQL_Layouts(t *testing.T) {
	app := setupApp(makeDeps(withLayouts(&mockLayoutRepo{
		listFn: func(ctx context.Context, offset, limit int) ([]domain.CityLayout, error) {
			return []domain.CityLayout{*sampleLayout(1)}, nil
		},
	})))

	status, body, _ := doRequest(t, app, "POST", "/graphql",
		`{"query":"{ layouts { id name rows grid_data } }"}`)
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}

	var resp gqlResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Errors) > 0 {
		t.Fatalf("unexpected errors: %+v", resp.Errors)
	}

	var layouts []struct {
		ID       int    `json:"id"`
		Name     string `json:"name"`
		Rows     int    `json:"rows"`
		GridData string `json:"grid_data"`
	}
	if err := json.Unmarshal(resp.Data["layouts"], &layouts); err != nil {
		t.Fatal(err)
	}
	if len(layouts) != 1 || layouts[0].Name != "Downtown" || layouts[0].GridData != `{"0,0":"road"}` {
		t.Errorf("unexpected layouts: %+v", layouts)
	}
}

func TestGraphQL_MissingRecordsAreNull(t *testing.T) {
	app := setupApp(makeDeps())

	status, body, _ := doRequest(t, app, "POST", "/graphql",
		`{"query":"{ layout(id: 5) { id } latestCityEdit { id } }"}`)
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}

	var resp gqlResponse
	json.Unmarshal(body, &resp)
	if len(resp.Errors) > 0 {
		t.Fatalf("unexpected errors: %+v", resp.Errors)
	}
	if string(resp.Data["layout"]) != "null" || string(resp.Data["latestCityEdit"]) != "null" {
		t.Errorf("expected nulls, got %s", body)
	}
}

func TestGraphQL_BadBody(t *testing.T) {
	app := setupApp(makeDeps())

	status, _, _ := doRequest(t, app, "POST", "/graphql", `not json`)
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
}

package http

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/citygrid/internal/core/domain"
	"github.com/samirrijal/citygrid/internal/core/usecases"
)

// gridDataField exposes the opaque grid JSON as its raw text.
var gridDataField = &graphql.Field{
	Type:        graphql.String,
	Description: "Grid contents as a JSON document",
	Resolve: func(p graphql.ResolveParams) (interface{}, error) {
		var raw json.RawMessage
		switch v := p.Source.(type) {
		case *domain.CityLayout:
			raw = v.GridData
		case domain.CityLayout:
			raw = v.GridData
		case *domain.CityEdit:
			raw = v.GridData
		case domain.CityEdit:
			raw = v.GridData
		}
		if raw == nil {
			return nil, nil
		}
		return string(raw), nil
	},
}

// buildSchema creates the read-only GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	layoutType := graphql.NewObject(graphql.ObjectConfig{
		Name: "CityLayout",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"name":        &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
			"rows":        &graphql.Field{Type: graphql.Int},
			"cols":        &graphql.Field{Type: graphql.Int},
			"grid_data":   gridDataField,
			"created_at":  &graphql.Field{Type: graphql.DateTime},
			"updated_at":  &graphql.Field{Type: graphql.DateTime},
		},
	})

	editType := graphql.NewObject(graphql.ObjectConfig{
		Name: "CityEdit",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"title":         &graphql.Field{Type: graphql.String},
			"rows":          &graphql.Field{Type: graphql.Int},
			"cols":          &graphql.Field{Type: graphql.Int},
			"selected_tool": &graphql.Field{Type: graphql.String},
			"grid_data":     gridDataField,
			"created_at":    &graphql.Field{Type: graphql.DateTime},
			"updated_at":    &graphql.Field{Type: graphql.DateTime},
		},
	})

	pageArgs := graphql.FieldConfigArgument{
		"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
		"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: usecases.DefaultPageLimit},
	}
	idArgs := graphql.FieldConfigArgument{
		"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"layouts": &graphql.Field{
				Type:        graphql.NewList(layoutType),
				Description: "Saved city layouts, newest first",
				Args:        pageArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					layouts, _, err := deps.Layouts.List(p.Context, p.Args["offset"].(int), p.Args["limit"].(int))
					return layouts, err
				},
			},
			"layout": &graphql.Field{
				Type:        layoutType,
				Description: "Get a layout by ID",
				Args:        idArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					layout, err := deps.Layouts.GetByID(p.Context, int64(p.Args["id"].(int)))
					if usecases.IsNotFound(err) {
						return nil, nil
					}
					return layout, err
				},
			},
			"cityEdits": &graphql.Field{
				Type:        graphql.NewList(editType),
				Description: "City edits, most recently updated first",
				Args:        pageArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					edits, _, err := deps.Edits.List(p.Context, p.Args["offset"].(int), p.Args["limit"].(int))
					return edits, err
				},
			},
			"cityEdit": &graphql.Field{
				Type:        editType,
				Description: "Get a city edit by ID",
				Args:        idArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					edit, err := deps.Edits.GetByID(p.Context, int64(p.Args["id"].(int)))
					if usecases.IsNotFound(err) {
						return nil, nil
					}
					return edit, err
				},
			},
			"latestCityEdit": &graphql.Field{
				Type:        editType,
				Description: "The most recently updated city edit",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					edit, err := deps.Edits.Latest(p.Context)
					if usecases.IsNotFound(err) {
						return nil, nil
					}
					return edit, err
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil || req.Query == "" {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})
		if result.HasErrors() {
			LoggerFromCtx(c.UserContext()).Debug("graphql query returned errors", "errors", len(result.Errors))
		}

		return c.JSON(result)
	}
}

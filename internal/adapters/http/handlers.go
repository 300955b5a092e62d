package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/samirrijal/citygrid/internal/core/domain"
	"github.com/samirrijal/citygrid/internal/core/usecases"
)

// HelloHandler is the API's smoke-test endpoint.
func HelloHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "Hello from the CityGrid API!"})
	}
}

// bulkDeleteRequest is the body of the bulk-delete endpoints.
type bulkDeleteRequest struct {
	IDs []int64 `json:"ids"`
}

// ---- Layouts ----

// ListLayoutsHandler returns layouts, newest first, as a JSON array. Every
// layout is returned unless the client asks for a page with offset or limit.
func ListLayoutsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var (
			layouts []domain.CityLayout
			total   int
			err     error
		)
		offset, limit, paged := pageParams(c)
		if paged {
			layouts, total, err = deps.Layouts.List(c.UserContext(), offset, limit)
		} else {
			layouts, err = deps.Layouts.ListAll(c.UserContext())
			total = len(layouts)
		}
		if err != nil {
			return serviceError(c, err)
		}
		if layouts == nil {
			layouts = []domain.CityLayout{}
		}

		setListHeaders(c, Pagination{Offset: offset, Limit: limit, Total: total}, paged)
		return c.JSON(layouts)
	}
}

// CreateLayoutHandler stores a new layout.
func CreateLayoutHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in domain.LayoutPatch
		if err := decodeBody(c, &in); err != nil {
			return bodyError(c, err)
		}

		layout, err := deps.Layouts.Create(c.UserContext(), in)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(layout)
	}
}

// GetLayoutHandler returns a layout by id.
func GetLayoutHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return errNotFound(c, "not found")
		}

		layout, err := deps.Layouts.GetByID(c.UserContext(), id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(layout)
	}
}

// UpdateLayoutHandler serves PUT (partial == false) and PATCH.
func UpdateLayoutHandler(deps *Dependencies, partial bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return errNotFound(c, "not found")
		}

		var in domain.LayoutPatch
		if err := decodeBody(c, &in); err != nil {
			return bodyError(c, err)
		}

		layout, err := deps.Layouts.Update(c.UserContext(), id, in, partial)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(layout)
	}
}

// DeleteLayoutHandler removes a layout.
func DeleteLayoutHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return errNotFound(c, "not found")
		}

		if err := deps.Layouts.Delete(c.UserContext(), id); err != nil {
			return serviceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// BulkDeleteLayoutsHandler removes every layout listed in {"ids":[...]}.
func BulkDeleteLayoutsHandler(deps *Dependencies) fiber.Handler {
	return bulkDeleteHandler("layout", deps.Layouts.BulkDelete)
}

// ---- City edits (shared by /api/city-edits and /api/city-drafts) ----

// ListEditsHandler returns edits, most recently updated first, with the same
// paging rules as ListLayoutsHandler.
func ListEditsHandler(svc *usecases.EditService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var (
			edits []domain.CityEdit
			total int
			err   error
		)
		offset, limit, paged := pageParams(c)
		if paged {
			edits, total, err = svc.List(c.UserContext(), offset, limit)
		} else {
			edits, err = svc.ListAll(c.UserContext())
			total = len(edits)
		}
		if err != nil {
			return serviceError(c, err)
		}
		if edits == nil {
			edits = []domain.CityEdit{}
		}

		setListHeaders(c, Pagination{Offset: offset, Limit: limit, Total: total}, paged)
		return c.JSON(edits)
	}
}

// CreateEditHandler stores a new edit. Missing fields take their defaults.
func CreateEditHandler(svc *usecases.EditService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in domain.EditPatch
		if err := decodeBody(c, &in); err != nil {
			return bodyError(c, err)
		}

		edit, err := svc.Create(c.UserContext(), in)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(edit)
	}
}

// GetEditHandler returns an edit by id.
func GetEditHandler(svc *usecases.EditService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return errNotFound(c, "not found")
		}

		edit, err := svc.GetByID(c.UserContext(), id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(edit)
	}
}

// LatestEditHandler returns the most recently updated edit.
func LatestEditHandler(svc *usecases.EditService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		edit, err := svc.Latest(c.UserContext())
		if usecases.IsNotFound(err) {
			return errNotFound(c, "No cities found")
		}
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(edit)
	}
}

// UpdateEditHandler serves both PUT and PATCH.
func UpdateEditHandler(svc *usecases.EditService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return errNotFound(c, "not found")
		}

		var in domain.EditPatch
		if err := decodeBody(c, &in); err != nil {
			return bodyError(c, err)
		}

		edit, err := svc.Update(c.UserContext(), id, in)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(edit)
	}
}

// DeleteEditHandler removes an edit.
func DeleteEditHandler(svc *usecases.EditService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return errNotFound(c, "not found")
		}

		if err := svc.Delete(c.UserContext(), id); err != nil {
			return serviceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// BulkDeleteEditsHandler removes every edit listed in {"ids":[...]}.
func BulkDeleteEditsHandler(svc *usecases.EditService) fiber.Handler {
	return bulkDeleteHandler("city edit", svc.BulkDelete)
}

// ---- helpers ----

var errMalformedBody = errors.New("malformed JSON body")

func bulkDeleteHandler(noun string, del func(ctx context.Context, ids []int64) (int, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req bulkDeleteRequest
		if err := decodeBody(c, &req); err != nil {
			return bodyError(c, err)
		}
		if len(req.IDs) == 0 {
			return errBadRequest(c, fmt.Sprintf("No %s IDs provided", noun))
		}

		n, err := del(c.UserContext(), req.IDs)
		if err != nil {
			return serviceErrorDetail(c, err)
		}
		return c.JSON(fiber.Map{
			"message": fmt.Sprintf("Successfully deleted %d %s(s)", n, noun),
			"deleted": n,
		})
	}
}

// decodeBody unmarshals the JSON request body into v. An empty body leaves v
// untouched. A value of the wrong type is reported against its field.
func decodeBody(c *fiber.Ctx, v any) error {
	body := bytes.TrimSpace(c.Body())
	if len(body) == 0 {
		return nil
	}

	if err := json.Unmarshal(body, v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			verr := &domain.ValidationError{}
			verr.Add(typeErr.Field, "incorrect type, expected "+typeErr.Type.String())
			return verr
		}
		return errMalformedBody
	}
	return nil
}

func bodyError(c *fiber.Ctx, err error) error {
	if errors.Is(err, errMalformedBody) {
		return errBadRequest(c, err.Error())
	}
	return serviceError(c, err)
}

// parseID reads the :id route parameter. Non-numeric ids never match a record.
func parseID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	return id, err == nil && id > 0
}

// pageParams reads offset/limit query parameters, clamped to the service
// bounds. paged is false when the client sent neither.
func pageParams(c *fiber.Ctx) (offset, limit int, paged bool) {
	paged = c.Query("offset") != "" || c.Query("limit") != ""
	offset = c.QueryInt("offset", 0)
	limit = c.QueryInt("limit", usecases.DefaultPageLimit)
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > usecases.MaxPageLimit {
		limit = usecases.DefaultPageLimit
	}
	return offset, limit, paged
}

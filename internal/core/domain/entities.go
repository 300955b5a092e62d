package domain

import (
	"encoding/json"
	"time"
)

// Layout defaults.
const (
	DefaultRows         = 16
	DefaultCols         = 25
	DefaultEditTitle    = "Untitled City"
	DefaultSelectedTool = "select"
)

// CityLayout is a named, saved city grid.
type CityLayout struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Rows        int             `json:"rows"`
	Cols        int             `json:"cols"`
	GridData    json.RawMessage `json:"grid_data"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CityEdit is an editor session snapshot: the grid plus the tool that was selected.
type CityEdit struct {
	ID           int64           `json:"id"`
	Title        string          `json:"title"`
	GridData     json.RawMessage `json:"grid_data"`
	Rows         int             `json:"rows"`
	Cols         int             `json:"cols"`
	SelectedTool string          `json:"selected_tool"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// OptionalString is a patch field that tells an absent key apart from an
// explicit null. Set is true whenever the key was present; Value is nil for null.
type OptionalString struct {
	Set   bool
	Value *string
}

// UnmarshalJSON runs only for keys present in the document, null included.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	var v *string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Set, o.Value = true, v
	return nil
}

// NewOptionalString returns a set field holding s.
func NewOptionalString(s string) OptionalString {
	return OptionalString{Set: true, Value: &s}
}

// LayoutPatch carries the fields of a partial layout update. Nil means
// unchanged, except Description, where an explicit null clears the value.
type LayoutPatch struct {
	Name        *string          `json:"name"`
	Description OptionalString   `json:"description"`
	Rows        *int             `json:"rows"`
	Cols        *int             `json:"cols"`
	GridData    *json.RawMessage `json:"grid_data"`
}

// EditPatch carries the fields of a partial edit update. Nil means unchanged.
type EditPatch struct {
	Title        *string          `json:"title"`
	GridData     *json.RawMessage `json:"grid_data"`
	Rows         *int             `json:"rows"`
	Cols         *int             `json:"cols"`
	SelectedTool *string          `json:"selected_tool"`
}

// GridEvent is published on every layout/edit mutation.
type GridEvent struct {
	Resource string    `json:"resource"` // "layouts" | "city_edits" | "city_drafts"
	Action   string    `json:"action"`   // "created" | "updated" | "deleted"
	IDs      []int64   `json:"ids"`
	Time     time.Time `json:"time"`
}

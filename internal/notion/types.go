package notion

import "encoding/json"

// Database identifies a created or queried Notion database.
type Database struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Page is one database row. Properties stay raw until a caller extracts
// the typed values it cares about.
type Page struct {
	ID          string                     `json:"id"`
	URL         string                     `json:"url"`
	CreatedTime string                     `json:"created_time"`
	Properties  map[string]json.RawMessage `json:"properties"`
}

// CreateDatabaseRequest describes a new inline database under a parent page.
type CreateDatabaseRequest struct {
	ParentPageID string
	Title        string
	Properties   map[string]any
}

// CreatePageRequest describes a new row in an existing database.
type CreatePageRequest struct {
	DatabaseID string
	Properties map[string]any
}

// Query describes a filtered database query.
type Query struct {
	DatabaseID string
	Filter     map[string]any
	PageSize   int
}

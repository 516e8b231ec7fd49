package types

// Status is the record status of a persisted row.
// Rows are never physically deleted, archived rows are kept for history.
type Status string

const (
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

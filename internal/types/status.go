package types

// Status is a type for the lifecycle status of a resource in the database.
// It determines whether a row is visible to queries; deleted rows are kept
// for audit but filtered out everywhere.
// Any changes to this type should be reflected in the database schema by running migrations
type Status string

const (
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
	StatusDeleted   Status = "deleted"
)

func (s Status) String() string {
	return string(s)
}

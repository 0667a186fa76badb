package types

// Persisted table names.
const (
	TableColors        = "colors"
	TableProjects      = "projects"
	TableTags          = "tags"
	TableBlocks        = "blocks"
	TableEntries       = "entries"
	TableTaggedBlocks  = "tagged_blocks"
	TableTaggedEntries = "tagged_entries"
)

// StandardTableNames lists every table in foreign-key dependency order, so
// loading in this order never references a missing row.
var StandardTableNames = []string{
	TableColors,
	TableProjects,
	TableTags,
	TableBlocks,
	TableEntries,
	TableTaggedBlocks,
	TableTaggedEntries,
}

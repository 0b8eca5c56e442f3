package index

// Querier is the read side of the note index.
type Querier interface {
	GetChecksum(path string) (string, error)
	GetNote(path string) (*NoteRow, error)
	ListNotes(limit, offset int, tag, sort string) ([]NoteRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	Graph() ([]GraphNode, []GraphLink, error)
	Backlinks(target string) ([]string, error)
	AllPaths() (map[string]struct{}, error)
	AllChecksums() (map[string]string, error)
}

// Mutator is the write side of the note index.
type Mutator interface {
	UpsertNote(n NoteRow, body string, links []string) error
	DeleteNote(path string) error
}

// NoteIndex is the full indexing contract. Consumers should depend on
// it, or on one of its halves, rather than on the concrete *DB type.
type NoteIndex interface {
	Querier
	Mutator
	Close() error
}

// RunLog records and lists theme-analysis runs.
type RunLog interface {
	InsertRun(r RunRow) error
	ListRuns(limit int) ([]RunRow, error)
}

var (
	_ NoteIndex = (*DB)(nil)
	_ RunLog    = (*DB)(nil)
)

package entity

// SourceKind identifies which store a retrieved fragment came from.
type SourceKind string

const (
	SourceKindTask    SourceKind = "task"
	SourceKindJournal SourceKind = "journal"
	SourceKindNote    SourceKind = "note"
)

// KindOrder is the fixed iteration order for fan-out retrieval and for
// tie-breaking equal-relevance sources. It carries no semantic priority.
var KindOrder = []SourceKind{SourceKindTask, SourceKindJournal, SourceKindNote}

// TaskSourceMetadata carries the task fields that survive retrieval.
type TaskSourceMetadata struct {
	Status   string `json:"status,omitempty"`
	Priority int    `json:"priority,omitempty"`
	DueDate  string `json:"due_date,omitempty"`
}

// JournalSourceMetadata carries the journal fields that survive retrieval.
type JournalSourceMetadata struct {
	Mood      string `json:"mood,omitempty"`
	EntryDate string `json:"entry_date,omitempty"`
}

// NoteSourceMetadata carries the note fields that survive retrieval.
type NoteSourceMetadata struct {
	Tags []string `json:"tags,omitempty"`
}

// SourceMetadata is a tagged union keyed by the source kind. Exactly one of
// the typed members is set; Extra holds passthrough fields not modeled here.
type SourceMetadata struct {
	Task    *TaskSourceMetadata    `json:"task,omitempty"`
	Journal *JournalSourceMetadata `json:"journal,omitempty"`
	Note    *NoteSourceMetadata    `json:"note,omitempty"`
	Extra   map[string]string      `json:"extra,omitempty"`
}

// ContextSource is one retrieved fragment of user data. It lives for the
// duration of a single request; assistant turns persist a JSON snapshot of
// the list they were grounded on.
type ContextSource struct {
	Id        string         `json:"id"`
	Kind      SourceKind     `json:"kind"`
	Title     string         `json:"title"`
	Content   string         `json:"content"`
	Relevance float64        `json:"relevance"` // finite, in [0,1]
	Metadata  SourceMetadata `json:"metadata"`
}

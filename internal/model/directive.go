package model

// Directive links a destination field to the source field whose content is
// rendered into it.
type Directive struct {
	Field  string    `json:"field"`
	Kind   FieldKind `json:"type"`
	Source string    `json:"source"`
}

// Outcome actions.
const (
	ActionWritten   = "written"
	ActionUploaded  = "uploaded"
	ActionUnchanged = "unchanged"
	ActionEmpty     = "empty" // source had no value; nothing rendered
)

// Outcome reports what happened to one directive during a save.
type Outcome struct {
	Field     string    `json:"field"`
	Kind      FieldKind `json:"type"`
	Source    string    `json:"source"`
	Action    string    `json:"action"`
	DocID     string    `json:"doc_id,omitempty"`
	PrevDocID string    `json:"prev_doc_id,omitempty"`
}

// StoredFile is the metadata of an uploaded file.
type StoredFile struct {
	DocID      string `json:"doc_id"`
	ProjectID  int64  `json:"project_id"`
	StoredName string `json:"stored_name"`
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	MimeType   string `json:"mime_type"`
	CreatedAt  string `json:"created_at"`
	DeletedAt  string `json:"deleted_at,omitempty"`
}

// Revision is one entry of a record's data log.
type Revision struct {
	ID        string  `json:"id"`
	ProjectID int64   `json:"project_id"`
	Locator   Locator `json:"locator"`
	Field     string  `json:"field"`
	Value     string  `json:"value"`
	CreatedAt string  `json:"created_at"`
}

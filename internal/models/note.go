package models

import "time"

// NoteSource says where in the vault a note lives.
type NoteSource string

// Note sources.
const (
	SourceJournal NoteSource = "journal"
	SourceArea    NoteSource = "area"
	SourceNotes   NoteSource = "notes"
)

// Note is a Markdown note read from the vault during a cycle. Notes are never
// persisted; they only feed the analysis.
type Note struct {
	Path        string         `json:"path"`
	Filename    string         `json:"filename"`
	Content     string         `json:"content"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Modified    time.Time      `json:"modified"`
	EntryDate   string         `json:"entryDate,omitempty"`
	IsJournal   bool           `json:"isJournal"`
	IsArea      bool           `json:"isArea"`
	Source      NoteSource     `json:"source"`

	Tags     []string `json:"extractedTags,omitempty"`
	People   []string `json:"extractedPeople,omitempty"`
	Category Category `json:"category,omitempty"`
}

// DisplayDate is the entry date for journals, else the modification time.
func (n Note) DisplayDate() string {
	if n.EntryDate != "" {
		return n.EntryDate
	}
	return n.Modified.UTC().Format(time.RFC3339)
}

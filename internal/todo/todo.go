package todo

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/five82/kiwi/internal/airtable"
)

// TempIDPrefix marks ids minted locally for adds the store has not confirmed.
const TempIDPrefix = "tmp-"

// ErrEmptyTitle is returned when a title is blank after trimming.
var ErrEmptyTitle = errors.New("title is empty")

// Todo is the in-memory shape of a single list entry.
type Todo struct {
	ID          string
	Title       string
	Completed   bool
	CreatedTime time.Time
}

// IsTemporary reports whether the todo is still waiting for a store id.
func (t Todo) IsTemporary() bool {
	return IsTemporaryID(t.ID)
}

// IsTemporaryID reports whether id was minted by NewTempID.
func IsTemporaryID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// NewTempID returns a fresh provisional id.
func NewTempID() string {
	return TempIDPrefix + uuid.NewString()
}

// NormalizeTitle trims the title and rejects blank input.
func NormalizeTitle(title string) (string, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "", ErrEmptyTitle
	}
	return trimmed, nil
}

// FromRecord maps a store record onto a Todo. Missing fields take their zero
// values, so an absent isCompleted reads as not completed.
func FromRecord(rec airtable.Record) Todo {
	t := Todo{ID: rec.ID}
	if rec.Fields.Title != nil {
		t.Title = *rec.Fields.Title
	}
	if rec.Fields.IsCompleted != nil {
		t.Completed = *rec.Fields.IsCompleted
	}
	t.CreatedTime = rec.ParsedCreatedTime()
	return t
}

// FromRecords maps records in order.
func FromRecords(records []airtable.Record) []Todo {
	if len(records) == 0 {
		return nil
	}
	out := make([]Todo, 0, len(records))
	for _, rec := range records {
		out = append(out, FromRecord(rec))
	}
	return out
}

// Fields returns the writable store fields for t.
func (t Todo) Fields() airtable.Fields {
	return airtable.NewFields(t.Title, t.Completed)
}

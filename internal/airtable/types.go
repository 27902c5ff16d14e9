package airtable

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Record mirrors a single row returned by the records API.
type Record struct {
	ID          string `json:"id,omitempty"`
	Fields      Fields `json:"fields"`
	CreatedTime string `json:"createdTime,omitempty"`
}

// Fields holds the todo columns. Nil pointers are omitted from write bodies;
// the store also omits unchecked checkbox columns on read.
type Fields struct {
	Title       *string `json:"title,omitempty"`
	IsCompleted *bool   `json:"isCompleted,omitempty"`
	CreatedTime *string `json:"createdTime,omitempty"`
}

// NewFields builds the writable field set for a todo.
func NewFields(title string, completed bool) Fields {
	return Fields{Title: &title, IsCompleted: &completed}
}

// CompletedFields marks a record completed without touching its title.
func CompletedFields() Fields {
	done := true
	return Fields{IsCompleted: &done}
}

// ParsedCreatedTime returns the record creation time, preferring the record
// metadata over a createdTime column. Unparsable values yield the zero time.
func (r Record) ParsedCreatedTime() time.Time {
	if t := parseTime(r.CreatedTime); !t.IsZero() {
		return t
	}
	if r.Fields.CreatedTime != nil {
		return parseTime(*r.Fields.CreatedTime)
	}
	return time.Time{}
}

// recordsEnvelope is the batch body used for list responses and writes.
type recordsEnvelope struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset,omitempty"`
}

type deleteResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// APIError is a non-2xx response from the store.
type APIError struct {
	Status  int
	Type    string
	Message string
}

func (e *APIError) Error() string {
	switch {
	case e.Message != "" && e.Type != "":
		return fmt.Sprintf("%s: %s (status %d)", e.Type, e.Message, e.Status)
	case e.Message != "":
		return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	case e.Type != "":
		return fmt.Sprintf("%s (status %d)", e.Type, e.Status)
	default:
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
}

// decodeAPIError reads either {"error":{"type":..,"message":..}} or
// {"error":"TYPE"} bodies.
func decodeAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Error) == 0 {
		apiErr.Message = truncateRunes(strings.TrimSpace(string(body)), maxRawMessage)
		return apiErr
	}
	var detail struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(envelope.Error, &detail); err == nil {
		apiErr.Type = detail.Type
		apiErr.Message = detail.Message
		return apiErr
	}
	var kind string
	if err := json.Unmarshal(envelope.Error, &kind); err == nil {
		apiErr.Type = kind
	}
	return apiErr
}

const maxRawMessage = 200

// truncateRunes keeps at most limit runes of value.
func truncateRunes(value string, limit int) string {
	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	return string([]rune(value)[:limit])
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

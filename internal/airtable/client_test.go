package airtable

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := NewClient(Config{
		BaseURL: server.URL + "/v0",
		BaseID:  "appTEST",
		Table:   "Todos",
		Token:   "secret",
	})
	require.NoError(t, err)
	return c
}

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	require.NoError(t, err)
	assert.Equal(t, "https", u.Scheme)
	assert.Equal(t, "api.airtable.com", u.Host)
	assert.Equal(t, "/v0", u.Path)

	u, err = parseBaseURL("example.com:1234/v0/?x=1#frag")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com:1234/v0", u.String())
}

func TestNewClient_RequiresBaseAndTable(t *testing.T) {
	_, err := NewClient(Config{Table: "Todos"})
	assert.Error(t, err)

	_, err = NewClient(Config{BaseID: "app"})
	assert.Error(t, err)
}

func TestListQuery_Values(t *testing.T) {
	values := ListQuery{SortField: "title", SortDirection: "DESC", Search: `say "hi"`, PageSize: 20}.Values()

	assert.Equal(t, "title", values.Get("sort[0][field]"))
	assert.Equal(t, "desc", values.Get("sort[0][direction]"))
	assert.Equal(t, `SEARCH("say \"hi\"",{title})`, values.Get("filterByFormula"))
	assert.Equal(t, "20", values.Get("pageSize"))

	empty := ListQuery{SortDirection: "desc", Search: "   "}.Values()
	assert.Empty(t, empty, "direction without a field and blank search should not be encoded")
}

func TestClient_ListFollowsOffsetAndSendsAuth(t *testing.T) {
	var calls int
	var gotAuth string
	var gotQueries []url.Values

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		gotAuth = r.Header.Get("Authorization")
		gotQueries = append(gotQueries, r.URL.Query())
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v0/appTEST/Todos", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("offset") == "" {
			_, _ = io.WriteString(w, `{"records":[{"id":"r1","fields":{"title":"Buy milk"},"createdTime":"2024-01-02T03:04:05.000Z"}],"offset":"itrNEXT"}`)
			return
		}
		_, _ = io.WriteString(w, `{"records":[{"id":"r2","fields":{"title":"Walk dog","isCompleted":true}}]}`)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	records, err := c.List(ctx, ListQuery{SortField: "createdTime", SortDirection: "desc", Search: "milk"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "Bearer secret", gotAuth)

	assert.Equal(t, "createdTime", gotQueries[0].Get("sort[0][field]"))
	assert.Equal(t, `SEARCH("milk",{title})`, gotQueries[0].Get("filterByFormula"))
	assert.Equal(t, "itrNEXT", gotQueries[1].Get("offset"))
	assert.Equal(t, "createdTime", gotQueries[1].Get("sort[0][field]"), "follow-up pages keep the query")

	assert.Equal(t, "Buy milk", *records[0].Fields.Title)
	assert.Nil(t, records[0].Fields.IsCompleted)
	assert.Equal(t, 2024, records[0].ParsedCreatedTime().Year())
	assert.True(t, *records[1].Fields.IsCompleted)
}

func TestClient_WritesUseRecordsEnvelope(t *testing.T) {
	var bodies = map[string]recordsEnvelope{}
	var deletedPath string

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodPost, http.MethodPatch:
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			var body recordsEnvelope
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			bodies[r.Method] = body
			rec := body.Records[0]
			if rec.ID == "" {
				rec.ID = "rNEW"
			}
			rec.CreatedTime = "2024-05-06T07:08:09Z"
			_ = json.NewEncoder(w).Encode(recordsEnvelope{Records: []Record{rec}})
		case http.MethodDelete:
			deletedPath = r.URL.Path
			_, _ = io.WriteString(w, `{"id":"r1","deleted":true}`)
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	created, err := c.Create(ctx, NewFields("Walk dog", false))
	require.NoError(t, err)
	assert.Equal(t, "rNEW", created.ID)
	post := bodies[http.MethodPost]
	require.Len(t, post.Records, 1)
	assert.Empty(t, post.Records[0].ID)
	assert.Equal(t, "Walk dog", *post.Records[0].Fields.Title)
	require.NotNil(t, post.Records[0].Fields.IsCompleted, "false must be sent explicitly")
	assert.False(t, *post.Records[0].Fields.IsCompleted)

	_, err = c.Update(ctx, "r1", CompletedFields())
	require.NoError(t, err)
	patch := bodies[http.MethodPatch]
	require.Len(t, patch.Records, 1)
	assert.Equal(t, "r1", patch.Records[0].ID)
	assert.Nil(t, patch.Records[0].Fields.Title)
	assert.True(t, *patch.Records[0].Fields.IsCompleted)

	require.NoError(t, c.Delete(ctx, "r1"))
	assert.Equal(t, "/v0/appTEST/Todos/r1", deletedPath)
}

func TestClient_RequiresRecordID(t *testing.T) {
	c, err := NewClient(Config{BaseURL: "127.0.0.1:1", BaseID: "app", Table: "Todos"})
	require.NoError(t, err)

	_, err = c.Update(context.Background(), " ", CompletedFields())
	assert.Error(t, err)
	assert.Error(t, c.Delete(context.Background(), ""))
}

func TestClient_HTTPErrorAndDecodeError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("{not-json"))
		case http.MethodPost:
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = io.WriteString(w, `{"error":{"type":"INVALID_VALUE_FOR_COLUMN","message":"Field \"title\" cannot accept the provided value"}}`)
		case http.MethodDelete:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":"NOT_FOUND"}`)
		case http.MethodPatch:
			http.Error(w, "upstream down", http.StatusBadGateway)
		}
	})
	ctx := context.Background()

	_, err := c.List(ctx, ListQuery{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")

	_, err = c.Create(ctx, NewFields("x", false))
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, "INVALID_VALUE_FOR_COLUMN", apiErr.Type)
	assert.Contains(t, apiErr.Message, "cannot accept")

	err = c.Delete(ctx, "r404")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "NOT_FOUND", apiErr.Type)
	assert.Equal(t, "NOT_FOUND (status 404)", apiErr.Error())

	_, err = c.Update(ctx, "r1", CompletedFields())
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, strings.Contains(apiErr.Error(), "upstream down"))
}

func TestDecodeAPIError_TruncatesRawBodyByRune(t *testing.T) {
	body := strings.Repeat("é", 300)

	apiErr := decodeAPIError(http.StatusBadGateway, []byte(body))
	assert.True(t, utf8.ValidString(apiErr.Message))
	assert.Equal(t, 200, utf8.RuneCountInString(apiErr.Message))

	short := decodeAPIError(http.StatusBadGateway, []byte("  bad gateway \n"))
	assert.Equal(t, "bad gateway", short.Message)
}

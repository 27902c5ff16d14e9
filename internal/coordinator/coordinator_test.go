package coordinator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/kiwi/internal/airtable"
	"github.com/five82/kiwi/internal/state"
	"github.com/five82/kiwi/internal/todo"
)

// fakeRecords is an in-memory RecordStore. Hooks run inside the request, which
// lets tests observe the local state during the optimistic window.
type fakeRecords struct {
	mu      sync.Mutex
	records []airtable.Record
	err     error
	nextID  string
	queries []airtable.ListQuery
	updates map[string]airtable.Fields
	deleted []string

	onList   func(airtable.ListQuery) ([]airtable.Record, error)
	onCreate func()
	onUpdate func()
	onDelete func()
}

func (f *fakeRecords) List(_ context.Context, q airtable.ListQuery) ([]airtable.Record, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	hook := f.onList
	f.mu.Unlock()
	if hook != nil {
		return hook(q)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records, f.err
}

func (f *fakeRecords) Create(_ context.Context, fields airtable.Fields) (airtable.Record, error) {
	if f.onCreate != nil {
		f.onCreate()
	}
	if f.err != nil {
		return airtable.Record{}, f.err
	}
	return airtable.Record{ID: f.nextID, Fields: fields, CreatedTime: "2024-06-01T12:00:00Z"}, nil
}

func (f *fakeRecords) Update(_ context.Context, id string, fields airtable.Fields) (airtable.Record, error) {
	if f.onUpdate != nil {
		f.onUpdate()
	}
	if f.err != nil {
		return airtable.Record{}, f.err
	}
	if f.updates == nil {
		f.updates = map[string]airtable.Fields{}
	}
	f.updates[id] = fields
	return airtable.Record{ID: id, Fields: fields}, nil
}

func (f *fakeRecords) Delete(_ context.Context, id string) error {
	if f.onDelete != nil {
		f.onDelete()
	}
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func rec(id, title string) airtable.Record {
	return airtable.Record{ID: id, Fields: airtable.Fields{Title: &title}}
}

func newLoaded(t *testing.T, records *fakeRecords, opts Options, seed ...airtable.Record) *Coordinator {
	t.Helper()
	store := state.NewStore()
	store.Dispatch(todo.LoadTodos{Records: seed})
	return New(records, store, opts, nil)
}

func titleOf(t *testing.T, c *Coordinator, id string) string {
	t.Helper()
	got, ok := c.Store().Snapshot().Find(id)
	require.True(t, ok, "todo %s missing", id)
	return got.Title
}

func TestFetch_LoadsRecordsAndEncodesQuery(t *testing.T) {
	records := &fakeRecords{records: []airtable.Record{rec("r1", "Buy milk")}}
	c := New(records, state.NewStore(), Options{PageSize: 50}, nil)

	query := Query{SortField: "title", SortDirection: "asc", Search: "milk"}
	require.NoError(t, c.Fetch(context.Background(), query))

	snap := c.Store().Snapshot()
	assert.False(t, snap.IsLoading)
	require.Len(t, snap.Todos, 1)
	assert.Equal(t, todo.Todo{ID: "r1", Title: "Buy milk"}, snap.Todos[0])

	require.Len(t, records.queries, 1)
	assert.Equal(t, airtable.ListQuery{SortField: "title", SortDirection: "asc", Search: "milk", PageSize: 50}, records.queries[0])
	assert.Equal(t, query, c.LastQuery())

	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, records.queries[0], records.queries[1])
}

func TestFetch_FailureKeepsListAndSurfacesError(t *testing.T) {
	records := &fakeRecords{}
	c := newLoaded(t, records, Options{}, rec("r1", "Buy milk"))
	records.err = errors.New("connection refused")

	err := c.Fetch(context.Background(), DefaultQuery())
	require.Error(t, err)

	snap := c.Store().Snapshot()
	assert.False(t, snap.IsLoading)
	assert.Contains(t, snap.ErrorMessage, "connection refused")
	assert.Len(t, snap.Todos, 1, "last known list is kept")
}

func TestFetch_StaleResponseIsDropped(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	records := &fakeRecords{}
	records.onList = func(q airtable.ListQuery) ([]airtable.Record, error) {
		if q.Search == "old" {
			close(started)
			<-release
			return []airtable.Record{rec("stale", "old result")}, nil
		}
		return []airtable.Record{rec("fresh", "new result")}, nil
	}
	c := New(records, state.NewStore(), Options{}, nil)

	oldErr := make(chan error, 1)
	go func() { oldErr <- c.Fetch(context.Background(), Query{Search: "old"}) }()
	<-started

	require.NoError(t, c.Fetch(context.Background(), Query{Search: "new"}))
	close(release)

	select {
	case err := <-oldErr:
		assert.ErrorIs(t, err, ErrStale)
	case <-time.After(2 * time.Second):
		t.Fatal("stale fetch did not return")
	}

	snap := c.Store().Snapshot()
	require.Len(t, snap.Todos, 1)
	assert.Equal(t, "fresh", snap.Todos[0].ID)
	assert.False(t, snap.IsLoading)
}

func TestAdd_PessimisticAppendsConfirmedRecord(t *testing.T) {
	records := &fakeRecords{nextID: "r2"}
	c := newLoaded(t, records, Options{}, rec("r1", "Buy milk"))

	records.onCreate = func() {
		snap := c.Store().Snapshot()
		assert.True(t, snap.IsSaving)
		assert.Len(t, snap.Todos, 1, "nothing is shown before the store confirms")
	}
	require.NoError(t, c.Add(context.Background(), "  Walk dog "))

	snap := c.Store().Snapshot()
	require.Len(t, snap.Todos, 2)
	assert.Equal(t, "r2", snap.Todos[1].ID)
	assert.Equal(t, "Walk dog", snap.Todos[1].Title)
	assert.False(t, snap.Todos[1].CreatedTime.IsZero(), "store assigns createdTime")
	assert.False(t, snap.IsSaving)
}

func TestAdd_PessimisticFailureOnlySurfacesError(t *testing.T) {
	records := &fakeRecords{err: errors.New("quota exceeded")}
	c := newLoaded(t, records, Options{}, rec("r1", "Buy milk"))

	require.Error(t, c.Add(context.Background(), "Walk dog"))

	snap := c.Store().Snapshot()
	assert.Len(t, snap.Todos, 1)
	assert.Contains(t, snap.ErrorMessage, "quota exceeded")
	assert.False(t, snap.IsSaving)
}

func TestAdd_RejectsEmptyTitle(t *testing.T) {
	records := &fakeRecords{}
	c := newLoaded(t, records, Options{})
	records.onCreate = func() { t.Fatal("no request expected") }

	assert.ErrorIs(t, c.Add(context.Background(), "   "), todo.ErrEmptyTitle)
}

func TestAdd_OptimisticShowsProvisionalThenConfirms(t *testing.T) {
	records := &fakeRecords{nextID: "r2"}
	c := newLoaded(t, records, Options{OptimisticAdd: true}, rec("r1", "Buy milk"))

	records.onCreate = func() {
		snap := c.Store().Snapshot()
		require.Len(t, snap.Todos, 2)
		assert.True(t, snap.Todos[1].IsTemporary())
		assert.Equal(t, "Walk dog", snap.Todos[1].Title)
	}
	require.NoError(t, c.Add(context.Background(), "Walk dog"))

	snap := c.Store().Snapshot()
	require.Len(t, snap.Todos, 2)
	assert.Equal(t, "r2", snap.Todos[1].ID)
	assert.False(t, snap.IsSaving)
}

func TestAdd_OptimisticFailureRemovesProvisional(t *testing.T) {
	records := &fakeRecords{err: errors.New("boom")}
	c := newLoaded(t, records, Options{OptimisticAdd: true}, rec("r1", "Buy milk"))

	require.Error(t, c.Add(context.Background(), "Walk dog"))

	snap := c.Store().Snapshot()
	require.Len(t, snap.Todos, 1)
	assert.Equal(t, "r1", snap.Todos[0].ID)
	assert.Contains(t, snap.ErrorMessage, "boom")
	assert.False(t, snap.IsSaving)
}

func TestAdd_OptimisticFailureKeepsConcurrentWrites(t *testing.T) {
	records := &fakeRecords{}
	c := newLoaded(t, records, Options{OptimisticAdd: true}, rec("r1", "Buy milk"), rec("r2", "Walk dog"))

	records.onCreate = func() {
		require.NoError(t, c.Complete(context.Background(), "r1"))
		require.NoError(t, c.Update(context.Background(), todo.Todo{ID: "r2", Title: "Walk the dog"}))
		records.err = errors.New("create rejected")
	}
	require.Error(t, c.Add(context.Background(), "Water plants"))

	assert.True(t, *records.updates["r1"].IsCompleted)
	snap := c.Store().Snapshot()
	_, found := snap.Find("r1")
	assert.False(t, found, "completed todo stays out of the list")
	assert.Equal(t, "Walk the dog", titleOf(t, c, "r2"))
	require.Len(t, snap.Todos, 1)
	assert.Contains(t, snap.ErrorMessage, "create rejected")
}

func TestAdd_FailuresDoNotMarkOffline(t *testing.T) {
	records := &fakeRecords{err: errors.New("quota exceeded")}
	c := newLoaded(t, records, Options{}, rec("r1", "Buy milk"))

	require.Error(t, c.Add(context.Background(), "a"))
	require.Error(t, c.Add(context.Background(), "b"))

	snap := c.Store().Snapshot()
	assert.Zero(t, snap.ConsecutiveFailures)
	assert.False(t, snap.IsOffline())
}

func TestUpdate_OptimisticSuccess(t *testing.T) {
	records := &fakeRecords{}
	c := newLoaded(t, records, Options{}, rec("r1", "Buy milk"))

	records.onUpdate = func() {
		assert.Equal(t, "Buy oat milk", titleOf(t, c, "r1"), "edit visible while in flight")
		assert.True(t, c.Store().Snapshot().IsSaving)
	}
	require.NoError(t, c.Update(context.Background(), todo.Todo{ID: "r1", Title: "Buy oat milk"}))

	assert.Equal(t, "Buy oat milk", titleOf(t, c, "r1"))
	assert.False(t, c.Store().Snapshot().IsSaving)
	assert.Equal(t, "Buy oat milk", *records.updates["r1"].Title)
	assert.False(t, *records.updates["r1"].IsCompleted)
}

func TestUpdate_FailureRevertsToCapturedOriginal(t *testing.T) {
	records := &fakeRecords{err: errors.New("update rejected")}
	c := newLoaded(t, records, Options{}, rec("r1", "Buy milk"))

	err := c.Update(context.Background(), todo.Todo{ID: "r1", Title: "Buy oat milk"})
	require.Error(t, err)

	snap := c.Store().Snapshot()
	assert.Equal(t, "Buy milk", titleOf(t, c, "r1"))
	assert.Equal(t, err.Error(), snap.ErrorMessage)
	assert.False(t, snap.IsSaving)
}

func TestComplete_OptimisticRemovalAndRevert(t *testing.T) {
	records := &fakeRecords{}
	c := newLoaded(t, records, Options{}, rec("r1", "Buy milk"), rec("r2", "Walk dog"))

	records.onUpdate = func() {
		_, found := c.Store().Snapshot().Find("r1")
		assert.False(t, found, "completed todo leaves the list before the store answers")
	}
	require.NoError(t, c.Complete(context.Background(), "r1"))
	assert.True(t, *records.updates["r1"].IsCompleted)
	assert.Nil(t, records.updates["r1"].Title)
	_, found := c.Store().Snapshot().Find("r1")
	assert.False(t, found)

	records.err = errors.New("offline")
	require.Error(t, c.Complete(context.Background(), "r2"))
	assert.Equal(t, "Walk dog", titleOf(t, c, "r2"))
	assert.Contains(t, c.Store().Snapshot().ErrorMessage, "offline")
}

func TestComplete_FailureRestoresPosition(t *testing.T) {
	for _, id := range []string{"r1", "r2", "r3"} {
		t.Run(id, func(t *testing.T) {
			records := &fakeRecords{err: errors.New("offline")}
			c := newLoaded(t, records, Options{}, rec("r1", "a"), rec("r2", "b"), rec("r3", "c"))
			before := c.Store().Snapshot().Todos

			require.Error(t, c.Complete(context.Background(), id))
			assert.Equal(t, before, c.Store().Snapshot().Todos)
		})
	}
}

func TestDelete_FailureRestoresWholeList(t *testing.T) {
	records := &fakeRecords{}
	c := newLoaded(t, records, Options{}, rec("r1", "a"), rec("r2", "b"), rec("r3", "c"))
	before := c.Store().Snapshot().Todos

	records.onDelete = func() {
		assert.Len(t, c.Store().Snapshot().Todos, 2)
	}
	records.err = errors.New("delete failed")
	require.Error(t, c.Delete(context.Background(), "r2"))

	snap := c.Store().Snapshot()
	assert.Equal(t, before, snap.Todos)
	assert.Contains(t, snap.ErrorMessage, "delete failed")
	assert.False(t, snap.IsSaving)

	records.err = nil
	require.NoError(t, c.Delete(context.Background(), "r2"))
	assert.Equal(t, []string{"r2"}, records.deleted)
	assert.Len(t, c.Store().Snapshot().Todos, 2)
}

func TestWrites_UnknownAndPendingIDs(t *testing.T) {
	records := &fakeRecords{}
	c := newLoaded(t, records, Options{}, rec("r1", "a"))
	records.onUpdate = func() { t.Fatal("no request expected") }
	records.onDelete = func() { t.Fatal("no request expected") }
	ctx := context.Background()

	assert.ErrorIs(t, c.Update(ctx, todo.Todo{ID: "nope", Title: "x"}), ErrNotFound)
	assert.ErrorIs(t, c.Complete(ctx, "nope"), ErrNotFound)
	assert.ErrorIs(t, c.Delete(ctx, "nope"), ErrNotFound)

	tmp := todo.NewTempID()
	assert.ErrorIs(t, c.Update(ctx, todo.Todo{ID: tmp, Title: "x"}), ErrPending)
	assert.ErrorIs(t, c.Complete(ctx, tmp), ErrPending)
	assert.ErrorIs(t, c.Delete(ctx, tmp), ErrPending)

	assert.ErrorIs(t, c.Update(ctx, todo.Todo{ID: "r1", Title: ""}), todo.ErrEmptyTitle)
	assert.Equal(t, "", c.Store().Snapshot().ErrorMessage)
}

func TestDismissError(t *testing.T) {
	c := newLoaded(t, &fakeRecords{}, Options{}, rec("r1", "a"))
	c.Store().Dispatch(todo.SetLoadError{Err: errors.New("x")})

	c.DismissError()

	snap := c.Store().Snapshot()
	assert.Equal(t, "", snap.ErrorMessage)
	assert.Len(t, snap.Todos, 1)
}

package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/five82/kiwi/internal/airtable"
	"github.com/five82/kiwi/internal/state"
	"github.com/five82/kiwi/internal/todo"
)

var (
	// ErrNotFound is returned for writes against an id that is not in the list.
	ErrNotFound = errors.New("todo not found")
	// ErrPending is returned for writes against a todo the store has not confirmed yet.
	ErrPending = errors.New("todo is still being saved")
	// ErrStale is returned by Fetch when a newer fetch superseded it.
	ErrStale = errors.New("fetch superseded by a newer request")
)

// Query selects and orders the records a fetch asks the store for.
type Query struct {
	SortField     string
	SortDirection string
	Search        string
}

// DefaultQuery orders by creation time, newest first.
func DefaultQuery() Query {
	return Query{SortField: "createdTime", SortDirection: "desc"}
}

// Options tune the coordinator.
type Options struct {
	// OptimisticAdd shows new todos before the store confirms them.
	OptimisticAdd bool
	// PageSize is passed to list requests; zero lets the store decide.
	PageSize int
}

// Coordinator runs each todo operation against the remote store and keeps the
// local state in step: optimistic writes mutate first and revert on failure,
// pessimistic writes mutate only after the store confirms.
type Coordinator struct {
	records airtable.RecordStore
	store   *state.Store
	opts    Options
	logger  *zap.Logger

	seq     atomic.Uint64
	queryMu sync.Mutex
	query   Query
}

// New returns a Coordinator. A nil logger disables logging.
func New(records airtable.RecordStore, store *state.Store, opts Options, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		records: records,
		store:   store,
		opts:    opts,
		logger:  logger.Named("sync"),
		query:   DefaultQuery(),
	}
}

// Store returns the state store the coordinator dispatches to.
func (c *Coordinator) Store() *state.Store {
	return c.store
}

// LastQuery returns the query of the most recent fetch.
func (c *Coordinator) LastQuery() Query {
	c.queryMu.Lock()
	defer c.queryMu.Unlock()
	return c.query
}

// Fetch loads the list for query. Only the most recently started fetch may
// write its result; older responses are dropped with ErrStale.
func (c *Coordinator) Fetch(ctx context.Context, query Query) error {
	c.queryMu.Lock()
	c.query = query
	c.queryMu.Unlock()

	token := c.seq.Add(1)
	c.store.Dispatch(todo.FetchTodos{})

	records, err := c.records.List(ctx, airtable.ListQuery{
		SortField:     query.SortField,
		SortDirection: query.SortDirection,
		Search:        query.Search,
		PageSize:      c.opts.PageSize,
	})
	if c.seq.Load() != token {
		c.logger.Debug("dropping stale fetch", zap.Uint64("token", token), zap.Error(err))
		return ErrStale
	}
	if err != nil {
		err = fmt.Errorf("load todos: %w", err)
		c.logger.Warn("fetch failed", zap.Error(err))
		c.store.Dispatch(todo.SetLoadError{Err: err})
		return err
	}

	c.store.Dispatch(todo.LoadTodos{Records: records})
	c.logger.Debug("fetched todos", zap.Int("count", len(records)), zap.String("search", query.Search))
	return nil
}

// Refresh repeats the most recent fetch.
func (c *Coordinator) Refresh(ctx context.Context) error {
	return c.Fetch(ctx, c.LastQuery())
}

// Add creates a todo with title.
func (c *Coordinator) Add(ctx context.Context, title string) error {
	title, err := todo.NormalizeTitle(title)
	if err != nil {
		return err
	}
	if c.opts.OptimisticAdd {
		return c.addOptimistic(ctx, title)
	}

	c.store.Dispatch(todo.StartRequest{})
	rec, err := c.records.Create(ctx, airtable.NewFields(title, false))
	if err != nil {
		err = fmt.Errorf("add todo: %w", err)
		c.logger.Warn("add failed", zap.String("title", title), zap.Error(err))
		c.store.Dispatch(todo.SetLoadError{Err: err, Write: true})
		return err
	}
	c.store.Dispatch(todo.AddTodo{Records: []airtable.Record{rec}})
	c.logger.Info("added todo", zap.String("id", rec.ID))
	return nil
}

func (c *Coordinator) addOptimistic(ctx context.Context, title string) error {
	provisional := todo.Todo{ID: todo.NewTempID(), Title: title}
	c.store.Dispatch(todo.InsertTodo{Todo: provisional})
	c.store.Dispatch(todo.StartRequest{})

	rec, err := c.records.Create(ctx, airtable.NewFields(title, false))
	if err != nil {
		err = fmt.Errorf("add todo: %w", err)
		c.logger.Warn("add failed", zap.String("title", title), zap.Error(err))
		c.store.Dispatch(todo.DiscardTodo{ID: provisional.ID, Err: err})
		c.store.Dispatch(todo.EndRequest{})
		return err
	}
	c.store.Dispatch(todo.ConfirmTodo{TempID: provisional.ID, Records: []airtable.Record{rec}})
	c.logger.Info("added todo", zap.String("id", rec.ID), zap.String("temp_id", provisional.ID))
	return nil
}

// Update writes the edited todo. The list shows the edit immediately and
// reverts to the previous value if the store rejects it.
func (c *Coordinator) Update(ctx context.Context, edited todo.Todo) error {
	title, err := todo.NormalizeTitle(edited.Title)
	if err != nil {
		return err
	}
	edited.Title = title
	if edited.IsTemporary() {
		return ErrPending
	}

	original, index, ok := c.store.Capture(edited.ID, func(current todo.Todo) todo.Action {
		if edited.CreatedTime.IsZero() {
			edited.CreatedTime = current.CreatedTime
		}
		return todo.UpdateTodo{Todo: edited}
	})
	if !ok {
		return ErrNotFound
	}
	return c.write(ctx, "update", original, index, func(ctx context.Context) error {
		_, err := c.records.Update(ctx, edited.ID, edited.Fields())
		return err
	})
}

// Complete marks the todo done. It leaves the list immediately and comes back
// if the store rejects the change.
func (c *Coordinator) Complete(ctx context.Context, id string) error {
	if todo.IsTemporaryID(id) {
		return ErrPending
	}
	original, index, ok := c.store.Capture(id, func(current todo.Todo) todo.Action {
		return todo.CompleteTodo{ID: current.ID}
	})
	if !ok {
		return ErrNotFound
	}
	return c.write(ctx, "complete", original, index, func(ctx context.Context) error {
		_, err := c.records.Update(ctx, id, airtable.CompletedFields())
		return err
	})
}

// Delete removes the todo. On failure the whole list as it was before the
// delete is restored.
func (c *Coordinator) Delete(ctx context.Context, id string) error {
	if todo.IsTemporaryID(id) {
		return ErrPending
	}
	var found bool
	previous := c.store.CaptureList(func(todos []todo.Todo) todo.Action {
		for _, t := range todos {
			if t.ID == id {
				found = true
				return todo.DeleteTodo{ID: id}
			}
		}
		return nil
	})
	if !found {
		return ErrNotFound
	}

	c.store.Dispatch(todo.StartRequest{})
	defer c.store.Dispatch(todo.EndRequest{})

	if err := c.records.Delete(ctx, id); err != nil {
		err = fmt.Errorf("delete todo: %w", err)
		c.logger.Warn("delete failed, restoring list", zap.String("id", id), zap.Error(err))
		c.store.Dispatch(todo.RestoreTodos{Todos: previous, Err: err})
		return err
	}
	c.logger.Info("deleted todo", zap.String("id", id))
	return nil
}

// DismissError clears the visible error message.
func (c *Coordinator) DismissError() {
	c.store.Dispatch(todo.ClearError{})
}

// write issues an optimistic request whose local mutation has already been
// dispatched, reverting to original at index on failure.
func (c *Coordinator) write(ctx context.Context, op string, original todo.Todo, index int, send func(context.Context) error) error {
	c.store.Dispatch(todo.StartRequest{})
	defer c.store.Dispatch(todo.EndRequest{})

	if err := send(ctx); err != nil {
		err = fmt.Errorf("%s todo: %w", op, err)
		c.logger.Warn(op+" failed, reverting", zap.String("id", original.ID), zap.Error(err))
		c.store.Dispatch(todo.RevertTodo{Todo: original, Index: index, Err: err})
		return err
	}
	c.logger.Info(op+" todo", zap.String("id", original.ID))
	return nil
}

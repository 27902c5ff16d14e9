package todo

import "github.com/five82/kiwi/internal/airtable"

// State is the reducer-owned application state.
type State struct {
	Todos        []Todo
	IsLoading    bool
	IsSaving     bool
	ErrorMessage string
}

// InitialState is the state before the first fetch completes.
func InitialState() State {
	return State{IsLoading: true}
}

// Clone returns a copy that shares no slice storage with s.
func (s State) Clone() State {
	s.Todos = cloneTodos(s.Todos)
	return s
}

// Find returns the todo with id, if present.
func (s State) Find(id string) (Todo, bool) {
	if i := indexOf(s.Todos, id); i >= 0 {
		return s.Todos[i], true
	}
	return Todo{}, false
}

// Action is a state transition request. The set of actions is closed.
type Action interface {
	isAction()
}

// FetchTodos marks the start of a list fetch.
type FetchTodos struct{}

// LoadTodos replaces the list with fetched records.
type LoadTodos struct {
	Records []airtable.Record
}

// SetLoadError records a fetch or pessimistic write failure. Write marks a
// failed write, which does not count toward the store being offline.
type SetLoadError struct {
	Err   error
	Write bool
}

// StartRequest marks a write as in flight.
type StartRequest struct{}

// EndRequest clears the in-flight write flag.
type EndRequest struct{}

// AddTodo appends the store-confirmed record of a pessimistic add.
type AddTodo struct {
	Records []airtable.Record
}

// InsertTodo appends a provisional todo for an optimistic add.
type InsertTodo struct {
	Todo Todo
}

// ConfirmTodo swaps a provisional todo for the store-confirmed record.
type ConfirmTodo struct {
	TempID  string
	Records []airtable.Record
}

// UpdateTodo applies an edited todo over the entry with the same id.
type UpdateTodo struct {
	Todo Todo
}

// CompleteTodo removes a completed todo from the active list.
type CompleteTodo struct {
	ID string
}

// DeleteTodo removes a todo.
type DeleteTodo struct {
	ID string
}

// RevertTodo restores a pre-mutation snapshot after a failed write. Index is
// the position the todo held when captured; it is used only when the todo is
// no longer in the list.
type RevertTodo struct {
	Todo  Todo
	Index int
	Err   error
}

// DiscardTodo drops a provisional todo whose create failed.
type DiscardTodo struct {
	ID  string
	Err error
}

// RestoreTodos restores a whole captured list after a failed write.
type RestoreTodos struct {
	Todos []Todo
	Err   error
}

// ClearError dismisses the current error message.
type ClearError struct{}

func (FetchTodos) isAction()   {}
func (LoadTodos) isAction()    {}
func (SetLoadError) isAction() {}
func (StartRequest) isAction() {}
func (EndRequest) isAction()   {}
func (AddTodo) isAction()      {}
func (InsertTodo) isAction()   {}
func (ConfirmTodo) isAction()  {}
func (UpdateTodo) isAction()   {}
func (CompleteTodo) isAction() {}
func (DeleteTodo) isAction()   {}
func (RevertTodo) isAction()   {}
func (DiscardTodo) isAction()  {}
func (RestoreTodos) isAction() {}
func (ClearError) isAction()   {}

// Apply returns the state that results from applying action to s. It never
// mutates s and returns s unchanged for actions it does not recognize.
func Apply(s State, action Action) State {
	switch a := action.(type) {
	case FetchTodos:
		s.IsLoading = true

	case LoadTodos:
		s.Todos = dedupe(FromRecords(a.Records))
		s.IsLoading = false

	case SetLoadError:
		s.ErrorMessage = errorMessage(a.Err)
		s.IsLoading = false
		s.IsSaving = false

	case StartRequest:
		s.IsSaving = true

	case EndRequest:
		s.IsSaving = false

	case AddTodo:
		if len(a.Records) > 0 {
			s.Todos = mergeByID(s.Todos, FromRecord(a.Records[0]), true)
		}
		s.IsSaving = false

	case InsertTodo:
		s.Todos = mergeByID(s.Todos, a.Todo, true)

	case ConfirmTodo:
		todos := removeByID(s.Todos, a.TempID)
		if len(a.Records) > 0 {
			todos = mergeByID(todos, FromRecord(a.Records[0]), true)
		}
		s.Todos = todos
		s.IsSaving = false

	case UpdateTodo:
		s.Todos = mergeByID(s.Todos, a.Todo, false)

	case RevertTodo:
		if indexOf(s.Todos, a.Todo.ID) < 0 {
			s.Todos = insertAt(s.Todos, a.Todo, a.Index)
		} else {
			s.Todos = mergeByID(s.Todos, a.Todo, false)
		}
		if a.Err != nil {
			s.ErrorMessage = a.Err.Error()
		}

	case CompleteTodo:
		s.Todos = removeByID(s.Todos, a.ID)

	case DeleteTodo:
		s.Todos = removeByID(s.Todos, a.ID)

	case DiscardTodo:
		s.Todos = removeByID(s.Todos, a.ID)
		if a.Err != nil {
			s.ErrorMessage = a.Err.Error()
		}

	case RestoreTodos:
		s.Todos = cloneTodos(a.Todos)
		if a.Err != nil {
			s.ErrorMessage = a.Err.Error()
		}

	case ClearError:
		s.ErrorMessage = ""
	}
	return s
}

// mergeByID applies t over the entry with the same id. Update and in-place revert share
// this path; reinsert appends t when no entry matches.
func mergeByID(todos []Todo, t Todo, reinsert bool) []Todo {
	i := indexOf(todos, t.ID)
	if i < 0 {
		if !reinsert {
			return todos
		}
		out := make([]Todo, len(todos), len(todos)+1)
		copy(out, todos)
		return append(out, t)
	}
	out := cloneTodos(todos)
	out[i] = t
	return out
}

// insertAt places t at index, clamped to the bounds of todos.
func insertAt(todos []Todo, t Todo, index int) []Todo {
	index = min(max(index, 0), len(todos))
	out := make([]Todo, 0, len(todos)+1)
	out = append(out, todos[:index]...)
	out = append(out, t)
	return append(out, todos[index:]...)
}

func removeByID(todos []Todo, id string) []Todo {
	i := indexOf(todos, id)
	if i < 0 {
		return todos
	}
	out := make([]Todo, 0, len(todos)-1)
	out = append(out, todos[:i]...)
	return append(out, todos[i+1:]...)
}

// dedupe keeps the first position of each id and the last value seen for it.
func dedupe(todos []Todo) []Todo {
	if len(todos) == 0 {
		return nil
	}
	pos := make(map[string]int, len(todos))
	out := make([]Todo, 0, len(todos))
	for _, t := range todos {
		if i, ok := pos[t.ID]; ok {
			out[i] = t
			continue
		}
		pos[t.ID] = len(out)
		out = append(out, t)
	}
	return out
}

func indexOf(todos []Todo, id string) int {
	for i, t := range todos {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func cloneTodos(todos []Todo) []Todo {
	if todos == nil {
		return nil
	}
	out := make([]Todo, len(todos))
	copy(out, todos)
	return out
}

func errorMessage(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

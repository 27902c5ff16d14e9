package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/kiwi/internal/todo"
)

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m, tea.Quit
	}

	// Any key closes help
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch m.mode {
	case modeAdd, modeEdit:
		return m.handleFormKey(msg)
	case modeSearch:
		return m.handleSearchKey(msg)
	case modeConfirmDelete:
		return m.handleConfirmKey(msg)
	}
	return m.handleListKey(msg)
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.currentPage().Items)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.PrevPage):
		if m.currentPage().HasPrev() {
			m.page--
			m.cursor = 0
			m.clamp()
		}
		return m, nil

	case key.Matches(msg, m.keys.NextPage):
		if m.currentPage().HasNext() {
			m.page++
			m.cursor = 0
			m.clamp()
		}
		return m, nil

	case key.Matches(msg, m.keys.Add):
		m.notice = ""
		m.mode = modeAdd
		cmd := m.openInput("", "What needs doing?")
		return m, cmd

	case key.Matches(msg, m.keys.Edit):
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.notice = ""
		m.mode = modeEdit
		m.editing = t
		cmd := m.openInput(t.Title, "Title")
		return m, cmd

	case key.Matches(msg, m.keys.Complete):
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		if t.Completed {
			m.notice = "already completed"
			return m, nil
		}
		m.notice = ""
		sync, id := m.sync, t.ID
		return m, m.run("complete", func(ctx context.Context) error {
			return sync.Complete(ctx, id)
		})

	case key.Matches(msg, m.keys.Delete):
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.notice = ""
		m.mode = modeConfirmDelete
		m.target = t
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		cmd := m.openInput(m.query.Search, "Search titles")
		return m, cmd

	case key.Matches(msg, m.keys.CycleFilter):
		m.filter = m.filter.Next()
		m.page, m.cursor = 1, 0
		m.clamp()
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.CycleSort):
		m.sortBy = m.sortBy.Next()
		m.page, m.cursor = 1, 0
		m.clamp()
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.SortField):
		if m.query.SortField == "title" {
			m.query.SortField = "createdTime"
		} else {
			m.query.SortField = "title"
		}
		m.savePrefs()
		return m, m.fetchCmd()

	case key.Matches(msg, m.keys.SortDirection):
		if m.query.SortDirection == "asc" {
			m.query.SortDirection = "desc"
		} else {
			m.query.SortDirection = "asc"
		}
		m.savePrefs()
		return m, m.fetchCmd()

	case key.Matches(msg, m.keys.Refresh):
		return m, m.fetchCmd()

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.applyThemeStyles()
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.Dismiss):
		m.notice = ""
		if m.snapshot.ErrorMessage != "" {
			m.sync.DismissError()
			m.snapshot = m.store.Snapshot()
		}
		return m, nil
	}
	return m, nil
}

// handleFormKey drives the add and edit inputs.
func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		title, err := todo.NormalizeTitle(m.input.Value())
		if err != nil {
			m.notice = err.Error()
			return m, nil
		}
		sync := m.sync
		var cmd tea.Cmd
		if m.mode == modeAdd {
			cmd = m.run("add", func(ctx context.Context) error {
				return sync.Add(ctx, title)
			})
		} else {
			edited := m.editing
			edited.Title = title
			cmd = m.run("update", func(ctx context.Context) error {
				return sync.Update(ctx, edited)
			})
		}
		m.closeInput()
		return m, cmd

	case key.Matches(msg, m.keys.Cancel):
		m.closeInput()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleSearchKey feeds the search input. Every edit restarts the quiet
// period; only the tick carrying the latest generation fetches.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.closeInput()
		return m, nil

	case key.Matches(msg, m.keys.Cancel):
		m.closeInput()
		m.searchGen++
		if m.query.Search == "" {
			return m, nil
		}
		return m, searchTickCmd(m.debounce, m.searchGen, "")
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == before {
		return m, cmd
	}
	m.searchGen++
	return m, tea.Batch(cmd, searchTickCmd(m.debounce, m.searchGen, m.input.Value()))
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Yes):
		m.mode = modeList
		sync, id := m.sync, m.target.ID
		m.target = todo.Todo{}
		return m, m.run("delete", func(ctx context.Context) error {
			return sync.Delete(ctx, id)
		})
	case key.Matches(msg, m.keys.No):
		m.mode = modeList
		m.target = todo.Todo{}
	}
	return m, nil
}

func (m *Model) openInput(value, placeholder string) tea.Cmd {
	m.input.Reset()
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Placeholder = placeholder
	return tea.Batch(m.input.Focus(), textinput.Blink)
}

func (m *Model) closeInput() {
	m.mode = modeList
	m.editing = todo.Todo{}
	m.input.Blur()
	m.input.Reset()
}

func (m Model) inputLabel() string {
	switch m.mode {
	case modeAdd:
		return "Add"
	case modeEdit:
		return "Edit"
	case modeSearch:
		return "Search"
	}
	return ""
}

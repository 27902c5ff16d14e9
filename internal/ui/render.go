package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/kiwi/internal/todo"
)

// renderMain renders the header, banners, list, pager and footer.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	if banner := m.renderBanner(); banner != "" {
		b.WriteString(banner)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderList())
	b.WriteString("\n")
	b.WriteString(m.renderPager())
	b.WriteString("\n\n")
	b.WriteString(m.renderFooter())

	return b.String()
}

// renderHeader renders the status bar.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)
	sep := bg.Spaces(2)

	active := 0
	for _, t := range m.snapshot.Todos {
		if !t.Completed {
			active++
		}
	}

	parts := []string{
		bg.Render("kiwi", styles.Logo),
		bg.Render(fmt.Sprintf("%d todos, %d active", len(m.snapshot.Todos), active), styles.Text),
		bg.Render("filter "+string(m.filter), styles.MutedText),
		bg.Render("sort "+sortLabel(m.sortBy), styles.MutedText),
		bg.Render("server "+m.query.SortField+" "+directionArrow(m.query.SortDirection), styles.FaintText),
	}
	if m.query.Search != "" {
		parts = append(parts, bg.Render("/"+truncate(m.query.Search, 24), styles.InfoText))
	}

	switch {
	case m.snapshot.IsSaving:
		parts = append(parts, bg.Render(m.spinner.View()+" saving", styles.WarningText))
	case m.snapshot.IsLoading:
		parts = append(parts, bg.Render(m.spinner.View()+" loading", styles.AccentText))
	case m.snapshot.IsOffline():
		parts = append(parts, bg.Render("offline", styles.DangerText))
	case !m.snapshot.LastUpdated.IsZero():
		parts = append(parts, bg.Render(m.snapshot.LastUpdated.Format("15:04:05"), styles.FaintText))
	}

	header := styles.Header
	if m.width > 0 {
		header = header.Width(m.width)
	}
	return header.Render(bg.Join(parts, sep))
}

// renderBanner shows the store error, a local notice, the active input or the
// delete confirmation. At most one line.
func (m Model) renderBanner() string {
	styles := m.theme.Styles()

	switch m.mode {
	case modeAdd, modeEdit, modeSearch:
		label := styles.AccentText.Bold(true).Render(m.inputLabel() + ":")
		line := styles.Input.Render(label + " " + m.input.View())
		if m.notice != "" {
			line += " " + styles.WarningText.Render(m.notice)
		}
		return line
	case modeConfirmDelete:
		return styles.WarningText.Bold(true).Render(
			fmt.Sprintf("Delete %q? y/n", truncate(m.target.Title, 40)))
	}

	if m.snapshot.ErrorMessage != "" {
		return styles.Banner.Render("✗ "+m.snapshot.ErrorMessage) +
			" " + styles.FaintText.Render("esc to dismiss")
	}
	if m.notice != "" {
		return styles.WarningText.Render(m.notice)
	}
	return ""
}

// renderList renders the rows of the current page.
func (m Model) renderList() string {
	styles := m.theme.Styles()
	page := m.currentPage()

	if len(page.Items) == 0 {
		msg := "No todos"
		switch {
		case m.snapshot.IsLoading && len(m.snapshot.Todos) == 0:
			msg = m.spinner.View() + " Loading..."
		case len(m.snapshot.Todos) > 0:
			msg = "Nothing matches the " + string(m.filter) + " filter"
		case m.query.Search != "":
			msg = fmt.Sprintf("No todos match %q", m.query.Search)
		}
		return styles.MutedText.Padding(0, 2).Render(msg)
	}

	titleWidth := 48
	if m.width > 0 {
		titleWidth = max(m.width-24, 12)
	}

	rows := make([]string, 0, len(page.Items))
	for i, t := range page.Items {
		rows = append(rows, m.renderRow(t, i == m.cursor, titleWidth, styles))
	}
	return strings.Join(rows, "\n")
}

func (m Model) renderRow(t todo.Todo, selected bool, titleWidth int, styles Styles) string {
	marker := "  "
	if selected {
		marker = styles.AccentText.Render("› ")
	}

	check := styles.MutedText.Render("[ ]")
	title := styles.Text.Render(truncate(t.Title, titleWidth))
	if t.Completed {
		check = styles.SuccessText.Render("[x]")
		title = styles.FaintText.Strikethrough(true).Render(truncate(t.Title, titleWidth))
	}
	if selected {
		title = styles.Selected.Render(truncate(t.Title, titleWidth))
	}

	meta := formatCreated(t.CreatedTime, time.Now())
	if t.IsTemporary() {
		meta = "saving…"
	}
	return marker + check + " " + title + "  " + styles.FaintText.Render(meta)
}

func (m Model) renderPager() string {
	styles := m.theme.Styles()
	page := m.currentPage()
	if page.TotalPages <= 1 {
		return ""
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		"  ",
		m.paginator.View(),
		"  ",
		styles.FaintText.Render(fmt.Sprintf("page %d/%d", page.Number, page.TotalPages)),
	)
}

func (m Model) renderFooter() string {
	return m.theme.Styles().Footer.Render(m.help.ShortHelpView(m.keys.ShortHelp()))
}

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")
	b.WriteString(m.help.FullHelpView(m.keys.FullHelp()))
	b.WriteString("\n\n")
	b.WriteString(styles.MutedText.Render("Press any key to close"))

	box := styles.Overlay.Render(b.String())
	if m.width <= 0 || m.height <= 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func sortLabel(o todo.SortOption) string {
	switch o {
	case todo.SortTitle:
		return "title"
	case todo.SortCompleted:
		return "active first"
	default:
		return "newest"
	}
}

func directionArrow(direction string) string {
	if direction == "asc" {
		return "↑"
	}
	return "↓"
}

// formatCreated shows the clock for today and the date otherwise.
func formatCreated(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	local := t.Local()
	y1, m1, d1 := local.Date()
	y2, m2, d2 := now.Local().Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return local.Format("15:04")
	}
	if y1 == y2 {
		return local.Format("Jan 2")
	}
	return local.Format("Jan 2 2006")
}

// truncate shortens value to limit runes, marking the cut with an ellipsis.
func truncate(value string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit == 1 {
		return "…"
	}
	return string(runes[:limit-1]) + "…"
}

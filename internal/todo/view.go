package todo

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultPerPage is the page size of the list view.
const DefaultPerPage = 15

// Filter selects which todos the view shows.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

var filterOrder = []Filter{FilterAll, FilterActive, FilterCompleted}

// Next returns the following filter in the cycle.
func (f Filter) Next() Filter {
	return cycle(filterOrder, f)
}

// ParseFilter maps a preference string onto a Filter.
func ParseFilter(value string) (Filter, error) {
	f := Filter(strings.ToLower(strings.TrimSpace(value)))
	if slices.Contains(filterOrder, f) {
		return f, nil
	}
	return FilterAll, fmt.Errorf("unknown filter %q", value)
}

// SortOption orders the view.
type SortOption string

const (
	SortCreatedDate SortOption = "createdDate"
	SortTitle       SortOption = "title"
	SortCompleted   SortOption = "completed"
)

var sortOrder = []SortOption{SortCreatedDate, SortTitle, SortCompleted}

// Next returns the following sort option in the cycle.
func (o SortOption) Next() SortOption {
	return cycle(sortOrder, o)
}

// ParseSortOption maps a preference string onto a SortOption.
func ParseSortOption(value string) (SortOption, error) {
	trimmed := strings.TrimSpace(value)
	for _, o := range sortOrder {
		if strings.EqualFold(string(o), trimmed) {
			return o, nil
		}
	}
	return SortCreatedDate, fmt.Errorf("unknown sort option %q", value)
}

func cycle[T comparable](order []T, current T) T {
	for i, v := range order {
		if v == current {
			return order[(i+1)%len(order)]
		}
	}
	return order[0]
}

// View filters then sorts todos. The input slice is not modified.
func View(todos []Todo, filter Filter, sortBy SortOption) []Todo {
	out := make([]Todo, 0, len(todos))
	for _, t := range todos {
		switch filter {
		case FilterActive:
			if t.Completed {
				continue
			}
		case FilterCompleted:
			if !t.Completed {
				continue
			}
		}
		out = append(out, t)
	}

	switch sortBy {
	case SortTitle:
		c := collate.New(language.Und, collate.IgnoreCase)
		slices.SortStableFunc(out, func(a, b Todo) int {
			return c.CompareString(a.Title, b.Title)
		})
	case SortCompleted:
		slices.SortStableFunc(out, func(a, b Todo) int {
			switch {
			case a.Completed == b.Completed:
				return 0
			case !a.Completed:
				return -1
			default:
				return 1
			}
		})
	default:
		// Newest first; unknown creation times sink to the bottom.
		slices.SortStableFunc(out, func(a, b Todo) int {
			switch {
			case a.CreatedTime.IsZero() && b.CreatedTime.IsZero():
				return 0
			case a.CreatedTime.IsZero():
				return 1
			case b.CreatedTime.IsZero():
				return -1
			}
			return b.CreatedTime.Compare(a.CreatedTime)
		})
	}
	return out
}

// Page is one slice of a paginated view.
type Page struct {
	Items      []Todo
	Number     int
	TotalPages int
	PerPage    int
}

// HasPrev reports whether a previous page exists.
func (p Page) HasPrev() bool { return p.Number > 1 }

// HasNext reports whether a following page exists.
func (p Page) HasNext() bool { return p.Number < p.TotalPages }

// Paginate returns page number of list. A page outside [1, TotalPages] falls
// back to page 1.
func Paginate(list []Todo, number, perPage int) Page {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	total := (len(list) + perPage - 1) / perPage
	if number < 1 || number > total {
		number = 1
	}
	start := (number - 1) * perPage
	end := min(start+perPage, len(list))
	var items []Todo
	if start < end {
		items = list[start:end]
	}
	return Page{Items: items, Number: number, TotalPages: total, PerPage: perPage}
}

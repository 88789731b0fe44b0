// Package pager computes which page links the pagination bar shows.
package pager

// Radius is how many pages are shown on each side of the current one
const Radius = 2

// Kind of an item in the bar
type Kind int

// Item kinds
const (
	Page Kind = iota
	Ellipsis
)

// Item is one entry of the bar between the previous and next controls
type Item struct {
	Kind    Kind
	Number  int
	Current bool
}

// Control is the previous or next button
type Control struct {
	Target  int
	Enabled bool
}

// Window describes the whole pagination bar
type Window struct {
	Prev  Control
	Items []Item
	Next  Control
}

// Build lays out the bar for current out of total pages. The previous and
// next controls follow hasPrev and hasNext as reported by the server.
func Build(current, total int, hasPrev, hasNext bool) Window {
	w := Window{
		Prev: Control{Target: current - 1, Enabled: hasPrev},
		Next: Control{Target: current + 1, Enabled: hasNext},
	}
	if total < 1 {
		return w
	}
	current = min(max(current, 1), total)

	start := max(1, current-Radius)
	end := min(total, current+Radius)

	if start > 1 {
		w.Items = append(w.Items, Item{Kind: Page, Number: 1})
		if start > 2 {
			w.Items = append(w.Items, Item{Kind: Ellipsis})
		}
	}
	for p := start; p <= end; p++ {
		w.Items = append(w.Items, Item{Kind: Page, Number: p, Current: p == current})
	}
	if end < total {
		if end < total-1 {
			w.Items = append(w.Items, Item{Kind: Ellipsis})
		}
		w.Items = append(w.Items, Item{Kind: Page, Number: total})
	}

	return w
}

package ui

import (
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/Druxys/MTG-Next/internal/client/pager"
)

// paginationBar renders the pager window as buttons
func paginationBar(current, total int, hasPrev, hasNext bool, onPage func(int)) *fyne.Container {
	w := pager.Build(current, total, hasPrev, hasNext)

	prev := widget.NewButton("Previous", func() { onPage(w.Prev.Target) })
	if !w.Prev.Enabled {
		prev.Disable()
	}
	next := widget.NewButton("Next", func() { onPage(w.Next.Target) })
	if !w.Next.Enabled {
		next.Disable()
	}

	objs := []fyne.CanvasObject{prev}
	for _, it := range w.Items {
		if it.Kind == pager.Ellipsis {
			objs = append(objs, widget.NewLabel("…"))
			continue
		}
		n := it.Number
		btn := widget.NewButton(strconv.Itoa(n), func() { onPage(n) })
		if it.Current {
			btn.Importance = widget.HighImportance
		}
		objs = append(objs, btn)
	}
	objs = append(objs, next)

	return container.NewHBox(objs...)
}

package ui

import (
	"strconv"
	"strings"
	"sync/atomic"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/Druxys/MTG-Next/internal/client/filterpanel"
	"github.com/Druxys/MTG-Next/internal/client/models"
	"github.com/Druxys/MTG-Next/internal/client/page"
	"github.com/samber/lo"
)

const anyRarity = "Any rarity"

// filterWidgets binds the filter form to a filterpanel.Panel
type filterWidgets struct {
	panel       *filterpanel.Panel
	box         *fyne.Container
	name        *widget.Entry
	typ         *widget.SelectEntry
	rarity      *widget.Select
	colors      map[models.Color]*widget.Check
	minCMC      *widget.Entry
	maxCMC      *widget.Entry
	apply       *widget.Button
	clear       *widget.Button
	fullCatalog *widget.Check

	// applying is set while widgets are updated from the panel
	applying atomic.Bool
}

func (u *UI) newFilterWidgets() *filterWidgets {
	ctrl := u.deps.Controller
	view := ctrl.View()

	f := &filterWidgets{colors: make(map[models.Color]*widget.Check)}
	f.panel = filterpanel.New(view.Filters, u.deps.Debounce,
		func(filters models.CardFilters) {
			go func() {
				if err := ctrl.SetFilters(u.ctx, filters); err != nil {
					u.logger.Errorf("Failed to apply filters: %v", err)
				}
			}()
		},
		func() {
			f.apply(models.CardFilters{})
			go func() {
				if err := ctrl.ClearFilters(u.ctx); err != nil {
					u.logger.Errorf("Failed to clear filters: %v", err)
				}
			}()
		},
		u.logger,
	)

	f.name = widget.NewEntry()
	f.name.SetPlaceHolder("Card name")
	f.name.OnChanged = f.edited(f.panel.SetName)
	f.name.OnSubmitted = func(string) { f.panel.Flush() }

	f.typ = widget.NewSelectEntry(models.CardTypes)
	f.typ.SetPlaceHolder("Type")
	f.typ.OnChanged = f.edited(f.panel.SetType)

	f.rarity = widget.NewSelect(rarityOptions(), f.edited(func(label string) {
		f.panel.SetRarity(rarityFromLabel(label))
	}))
	f.rarity.PlaceHolder = anyRarity

	colorChecks := make([]fyne.CanvasObject, 0, len(models.Colors))
	for _, c := range models.Colors {
		c := c
		check := widget.NewCheck(c.Label(), func(checked bool) {
			if f.applying.Load() || checked == f.panel.Draft().HasColor(c) {
				return
			}
			f.panel.ToggleColor(c)
			f.updateClear()
		})
		f.colors[c] = check
		colorChecks = append(colorChecks, check)
	}

	f.minCMC = widget.NewEntry()
	f.minCMC.SetPlaceHolder("Min")
	f.maxCMC = widget.NewEntry()
	f.maxCMC.SetPlaceHolder("Max")
	onCMC := func(string) {
		minCMC, okMin := parseCMC(f.minCMC.Text)
		maxCMC, okMax := parseCMC(f.maxCMC.Text)
		if okMin && okMax {
			f.panel.SetCMCRange(minCMC, maxCMC)
		}
	}
	f.minCMC.OnChanged = f.edited(onCMC)
	f.maxCMC.OnChanged = f.edited(onCMC)

	f.apply = widget.NewButtonWithIcon("Apply", theme.ConfirmIcon(), f.panel.Flush)
	f.clear = widget.NewButtonWithIcon("Clear filters", theme.ContentClearIcon(), f.panel.Clear)
	f.updateClear()

	f.fullCatalog = widget.NewCheck("Load full catalog", func(on bool) {
		mode := page.Paged
		if on {
			mode = page.FullCatalog
		}
		go func() {
			if err := ctrl.SetMode(u.ctx, mode); err != nil {
				u.logger.Errorf("Failed to switch mode: %v", err)
			}
		}()
	})
	f.fullCatalog.Checked = view.Mode == page.FullCatalog

	f.box = container.NewVBox(
		widget.NewLabelWithStyle("Filters", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		f.name,
		f.typ,
		f.rarity,
		widget.NewLabel("Colors"),
		container.NewVBox(colorChecks...),
		widget.NewLabel("Converted mana cost"),
		container.NewGridWithColumns(2, f.minCMC, f.maxCMC),
		container.NewGridWithColumns(2, f.apply, f.clear),
		widget.NewSeparator(),
		f.fullCatalog,
	)
	f.apply(view.Filters)
	return f
}

// edited wraps a widget callback so it is skipped while the panel drives the widgets
func (f *filterWidgets) edited(fn func(string)) func(string) {
	return func(s string) {
		if f.applying.Load() {
			return
		}
		fn(s)
		f.updateClear()
	}
}

func (f *filterWidgets) updateClear() {
	if f.panel.HasActive() {
		f.clear.Enable()
	} else {
		f.clear.Disable()
	}
}

// sync follows filters committed elsewhere
func (f *filterWidgets) sync(committed models.CardFilters) {
	before := f.panel.Draft()
	f.panel.Sync(committed)
	if after := f.panel.Draft(); !after.Equal(before) {
		f.apply(after)
	}
}

// apply shows filters in the widgets without feeding them back to the panel
func (f *filterWidgets) apply(filters models.CardFilters) {
	f.applying.Store(true)
	defer f.applying.Store(false)

	if f.name.Text != filters.Name {
		f.name.SetText(filters.Name)
	}
	if f.typ.Text != filters.Type {
		f.typ.SetText(filters.Type)
	}
	if label := rarityLabel(filters.Rarity); f.rarity.Selected != label {
		if label == "" {
			f.rarity.ClearSelected()
		} else {
			f.rarity.SetSelected(label)
		}
	}
	for c, check := range f.colors {
		if want := filters.HasColor(c); check.Checked != want {
			check.SetChecked(want)
		}
	}
	if text := formatCMC(filters.MinCMC); f.minCMC.Text != text {
		f.minCMC.SetText(text)
	}
	if text := formatCMC(filters.MaxCMC); f.maxCMC.Text != text {
		f.maxCMC.SetText(text)
	}
	f.updateClear()
}

func rarityOptions() []string {
	return append([]string{anyRarity}, lo.Map(models.Rarities, func(r models.Rarity, _ int) string {
		return r.Label()
	})...)
}

func rarityLabel(r models.Rarity) string {
	if r == "" {
		return ""
	}
	return r.Label()
}

func rarityFromLabel(label string) models.Rarity {
	r, _ := lo.Find(models.Rarities, func(r models.Rarity) bool { return r.Label() == label })
	return r
}

// parseCMC reads a mana cost bound, empty meaning unbounded
func parseCMC(text string) (*float64, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || v < 0 {
		return nil, false
	}
	return &v, true
}

func formatCMC(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

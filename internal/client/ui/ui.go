package ui

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/Druxys/MTG-Next/internal/client/addcard"
	"github.com/Druxys/MTG-Next/internal/client/auth"
	"github.com/Druxys/MTG-Next/internal/client/cardlist"
	"github.com/Druxys/MTG-Next/internal/client/models"
	"github.com/Druxys/MTG-Next/internal/client/page"
	"github.com/Druxys/MTG-Next/package/logger"
)

const appID = "com.druxys.mtgnext"

// ImageLoader returns the image bytes of a card
type ImageLoader interface {
	CardImage(ctx context.Context, cardID string) ([]byte, error)
}

// Deps are the components the window is built on
type Deps struct {
	Controller *page.Controller
	List       *cardlist.List
	Catalog    *cardlist.Catalog
	Session    *auth.Context
	Creator    addcard.Creator
	Images     ImageLoader
	Debounce   time.Duration
}

// UI is the catalog window
type UI struct {
	ctx    context.Context
	deps   Deps
	logger *logger.Logger

	window  fyne.Window
	grid    *fyne.Container
	spinner *widget.ProgressBarInfinite
	banner  *widget.Label
	empty   *widget.Label
	status  *widget.Label
	pages   *fyne.Container
	user    *widget.Label
	authBtn *widget.Button
	filters *filterWidgets

	mu     sync.Mutex
	images map[string]fyne.Resource
}

// NewUI creates a new UI instance
func NewUI(ctx context.Context, deps Deps, log *logger.Logger) *UI {
	return &UI{
		ctx:    ctx,
		deps:   deps,
		logger: log.With("ui"),
		images: make(map[string]fyne.Resource),
	}
}

// RunUI opens the catalog window and blocks until it is closed
func (u *UI) RunUI() {
	a := app.NewWithID(appID)
	w := a.NewWindow("MTG Cards")
	w.Resize(fyne.NewSize(1100, 760))

	w.SetContent(u.Build(w))
	go u.refresh()

	w.ShowAndRun()
}

// Build creates the window content and subscribes it to the state holders
func (u *UI) Build(w fyne.Window) fyne.CanvasObject {
	u.window = w

	u.grid = container.NewGridWrap(fyne.NewSize(tileWidth, tileHeight))
	u.spinner = widget.NewProgressBarInfinite()
	u.spinner.Hide()
	u.banner = widget.NewLabel("")
	u.banner.Importance = widget.DangerImportance
	u.banner.Wrapping = fyne.TextWrapWord
	u.banner.Hide()
	u.empty = widget.NewLabelWithStyle("No cards found", fyne.TextAlignCenter, fyne.TextStyle{Italic: true})
	u.empty.Hide()
	u.status = widget.NewLabel("")
	u.pages = container.NewHBox()
	u.user = widget.NewLabel("")
	u.authBtn = widget.NewButtonWithIcon("Login", theme.AccountIcon(), u.toggleAuth)

	addBtn := widget.NewButtonWithIcon("Add card", theme.ContentAddIcon(), u.requestAddCard)
	addBtn.Importance = widget.HighImportance
	refreshBtn := widget.NewButtonWithIcon("", theme.ViewRefreshIcon(), func() { go u.refresh() })

	toolbar := container.NewHBox(
		widget.NewLabelWithStyle("MTG Cards", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		u.status,
		layout.NewSpacer(),
		refreshBtn,
		addBtn,
		u.user,
		u.authBtn,
	)

	u.filters = u.newFilterWidgets()

	center := container.NewBorder(
		container.NewVBox(u.banner, u.spinner),
		container.NewCenter(u.pages),
		nil, nil,
		container.NewStack(container.NewVScroll(u.grid), container.NewCenter(u.empty)),
	)

	u.deps.List.OnChange(func(s cardlist.State) {
		if u.deps.Controller.View().Mode == page.Paged {
			u.render(s, page.Paged)
		}
	})
	u.deps.Catalog.OnChange(func(s cardlist.State) {
		if u.deps.Controller.View().Mode == page.FullCatalog {
			u.render(s, page.FullCatalog)
		}
	})
	u.deps.Controller.OnChange(func(v page.View) {
		u.filters.sync(v.Filters)
	})
	u.deps.Session.Subscribe(u.renderUser)
	u.renderUser(u.deps.Session.User())

	return container.NewBorder(
		container.NewVBox(toolbar, widget.NewSeparator()),
		nil,
		container.NewHScroll(u.filters.box),
		nil,
		center,
	)
}

func (u *UI) refresh() {
	if err := u.deps.Controller.Refresh(u.ctx); err != nil {
		u.logger.Errorf("Failed to load cards: %v", err)
	}
}

func (u *UI) goToPage(p int) {
	go func() {
		if err := u.deps.Controller.SetPage(u.ctx, p); err != nil {
			u.logger.Errorf("Failed to load page %d: %v", p, err)
		}
	}()
}

// render redraws the grid, status and pagination from a list snapshot
func (u *UI) render(s cardlist.State, mode page.Mode) {
	if s.Loading {
		u.spinner.Show()
		u.spinner.Start()
	} else {
		u.spinner.Stop()
		u.spinner.Hide()
	}

	if s.Err != nil {
		u.banner.SetText(errorText(s.Err))
		u.banner.Show()
	} else {
		u.banner.Hide()
	}

	if !s.Loading && s.Err == nil && len(s.Cards) == 0 {
		u.empty.Show()
	} else {
		u.empty.Hide()
	}

	tiles := make([]fyne.CanvasObject, 0, len(s.Cards))
	for _, card := range s.Cards {
		tiles = append(tiles, u.newTile(card))
	}
	u.grid.Objects = tiles
	u.grid.Refresh()

	u.status.SetText(statusText(s, mode))

	u.pages.Objects = nil
	if mode == page.Paged && s.Pagination != nil && s.Pagination.TotalPages > 0 {
		p := s.Pagination
		u.pages.Objects = paginationBar(p.CurrentPage, p.TotalPages, p.HasPrev, p.HasNext, u.goToPage).Objects
	}
	u.pages.Refresh()
}

func (u *UI) renderUser(user *models.User) {
	if user == nil {
		u.user.SetText("")
		u.authBtn.SetText("Login")
		return
	}
	u.user.SetText(fmt.Sprintf("Signed in as %s", user.Username))
	u.authBtn.SetText("Logout")
}

func (u *UI) toggleAuth() {
	if u.deps.Session.User() == nil {
		u.deps.Controller.RequestAuth()
		u.showAuthDialog()
		return
	}
	if err := u.deps.Session.Logout(u.ctx); err != nil {
		u.logger.Warningf("Logout: %v", err)
	}
}

func (u *UI) requestAddCard() {
	switch u.deps.Controller.RequestAddCard() {
	case page.AddCardDialog:
		u.showAddCardDialog()
	case page.AuthDialog:
		u.showAuthDialog()
	}
}

// Package page holds the state of the catalog page: which page and filters
// are committed, how cards are fetched and which dialog is open.
package page

import (
	"context"
	"errors"
	"sync"

	"github.com/Druxys/MTG-Next/internal/client/cardlist"
	"github.com/Druxys/MTG-Next/internal/client/models"
	"github.com/Druxys/MTG-Next/package/logger"
)

// Mode selects how cards are fetched
type Mode int

// Fetch modes
const (
	// Paged shows one page at a time
	Paged Mode = iota
	// FullCatalog prefetches every page into one list
	FullCatalog
)

// Dialog is the modal currently shown above the grid
type Dialog int

// Dialogs
const (
	NoDialog Dialog = iota
	DetailsDialog
	AddCardDialog
	AuthDialog
)

// PagedLoader loads a single page
type PagedLoader interface {
	Load(ctx context.Context, page, limit int, filters models.CardFilters) error
	Cancel()
}

// CatalogLoader loads every page
type CatalogLoader interface {
	FetchAll(ctx context.Context, limit int, filters models.CardFilters) error
	Cancel()
}

// Session tells whether someone is signed in
type Session interface {
	Require() error
}

// View is the snapshot published to the UI
type View struct {
	Page     int
	Limit    int
	Filters  models.CardFilters
	Mode     Mode
	Dialog   Dialog
	Selected *models.Card
}

// Controller owns the committed page state
type Controller struct {
	mu       sync.Mutex
	page     int
	limit    int
	filters  models.CardFilters
	mode     Mode
	dialog   Dialog
	selected *models.Card
	wantsAdd bool
	list     PagedLoader
	catalog  CatalogLoader
	session  Session
	onChange func(View)
	logger   *logger.Logger
}

// NewController creates a controller on page 1 without filters
func NewController(list PagedLoader, catalog CatalogLoader, session Session, limit int, mode Mode, log *logger.Logger) *Controller {
	if limit <= 0 {
		limit = 20
	}
	return &Controller{
		page:    1,
		limit:   limit,
		mode:    mode,
		list:    list,
		catalog: catalog,
		session: session,
		logger:  log.With("page"),
	}
}

// OnChange registers the listener called after every state change
func (c *Controller) OnChange(fn func(View)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// View returns the current snapshot
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view()
}

func (c *Controller) view() View {
	return View{
		Page:     c.page,
		Limit:    c.limit,
		Filters:  c.filters.Clone(),
		Mode:     c.mode,
		Dialog:   c.dialog,
		Selected: c.selected,
	}
}

func (c *Controller) notifyAndUnlock() View {
	fn, v := c.onChange, c.view()
	c.mu.Unlock()
	if fn != nil {
		fn(v)
	}
	return v
}

// load fetches what v describes
func (c *Controller) load(ctx context.Context, v View) error {
	var err error
	if v.Mode == FullCatalog {
		err = c.catalog.FetchAll(ctx, v.Limit, v.Filters)
	} else {
		err = c.list.Load(ctx, v.Page, v.Limit, v.Filters)
	}
	if errors.Is(err, cardlist.ErrSuperseded) {
		return nil
	}
	return err
}

// Refresh reloads the current view
func (c *Controller) Refresh(ctx context.Context) error {
	return c.load(ctx, c.View())
}

// SetPage moves to page p and loads it. Full catalog mode has nothing to load.
func (c *Controller) SetPage(ctx context.Context, p int) error {
	if p < 1 {
		p = 1
	}
	c.mu.Lock()
	c.page = p
	v := c.notifyAndUnlock()

	if v.Mode == FullCatalog {
		return nil
	}
	c.logger.Debugf("Going to page %d", p)
	return c.load(ctx, v)
}

// SetFilters commits filters and goes back to page 1
func (c *Controller) SetFilters(ctx context.Context, filters models.CardFilters) error {
	c.mu.Lock()
	c.filters = filters.Normalize()
	c.page = 1
	v := c.notifyAndUnlock()

	c.logger.Debugf("Filters committed: %+v", v.Filters)
	return c.load(ctx, v)
}

// ClearFilters commits empty filters and goes back to page 1
func (c *Controller) ClearFilters(ctx context.Context) error {
	return c.SetFilters(ctx, models.CardFilters{})
}

// SetMode switches between paged and full catalog fetching, stops the load
// of the previous mode and reloads
func (c *Controller) SetMode(ctx context.Context, mode Mode) error {
	c.mu.Lock()
	if c.mode == mode {
		c.mu.Unlock()
		return nil
	}
	previous := c.mode
	c.mode = mode
	c.page = 1
	v := c.notifyAndUnlock()

	// the list of the mode being left is no longer shown
	if previous == FullCatalog {
		c.catalog.Cancel()
	} else {
		c.list.Cancel()
	}
	c.logger.Debugf("Switched fetch mode to %d", mode)
	return c.load(ctx, v)
}

// Select opens the details dialog for card
func (c *Controller) Select(card models.Card) {
	c.mu.Lock()
	c.selected = &card
	c.dialog = DetailsDialog
	c.notifyAndUnlock()
}

// CloseDetails closes the details dialog
func (c *Controller) CloseDetails() {
	c.CloseDialog(DetailsDialog)
}

// RequestAddCard opens the add-card form, or the auth form first when nobody
// is signed in
func (c *Controller) RequestAddCard() Dialog {
	err := c.session.Require()
	if err != nil {
		c.logger.Debugf("Add card needs a session: %v", err)
	}

	c.mu.Lock()
	if err == nil {
		c.dialog = AddCardDialog
		c.wantsAdd = false
	} else {
		c.dialog = AuthDialog
		c.wantsAdd = true
	}
	v := c.notifyAndUnlock()
	return v.Dialog
}

// RequestAuth opens the auth form without a follow-up
func (c *Controller) RequestAuth() {
	c.mu.Lock()
	c.dialog = AuthDialog
	c.wantsAdd = false
	c.notifyAndUnlock()
}

// AuthSucceeded continues to the add-card form when sign in was asked for it
func (c *Controller) AuthSucceeded() {
	c.mu.Lock()
	if c.wantsAdd {
		c.dialog = AddCardDialog
	} else if c.dialog == AuthDialog {
		c.dialog = NoDialog
	}
	c.wantsAdd = false
	c.notifyAndUnlock()
}

// CloseDialog closes d if it is the dialog shown. Closing a dialog that was
// already replaced does nothing.
func (c *Controller) CloseDialog(d Dialog) {
	c.mu.Lock()
	if c.dialog != d {
		c.mu.Unlock()
		return
	}
	c.dialog = NoDialog
	c.selected = nil
	c.wantsAdd = false
	c.notifyAndUnlock()
}

// CardAdded reloads the list after a successful creation
func (c *Controller) CardAdded(ctx context.Context) error {
	return c.Refresh(ctx)
}

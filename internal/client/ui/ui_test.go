package ui

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/widget"
	"github.com/Druxys/MTG-Next/internal/client/auth"
	"github.com/Druxys/MTG-Next/internal/client/cardlist"
	"github.com/Druxys/MTG-Next/internal/client/handlers"
	"github.com/Druxys/MTG-Next/internal/client/models"
	"github.com/Druxys/MTG-Next/internal/client/page"
	"github.com/Druxys/MTG-Next/internal/client/service"
	"github.com/Druxys/MTG-Next/package/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	total int
	size  int
	err   error
}

func (f *fakeFetcher) ListCards(_ context.Context, q models.CardQuery) (*models.CardSearchResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	cards := make([]models.Card, f.size)
	for i := range cards {
		cards[i] = models.Card{ID: fmt.Sprintf("p%d-%d", q.Page, i), Name: "Card", Type: "Creature", Rarity: models.RarityRare}
	}
	return &models.CardSearchResponse{
		Cards: cards,
		Pagination: models.Pagination{
			CurrentPage: q.Page,
			TotalPages:  f.total,
			TotalCards:  f.total * f.size,
			HasNext:     q.Page < f.total,
			HasPrev:     q.Page > 1,
		},
	}, nil
}

type fakeAuthAPI struct{}

func (fakeAuthAPI) Login(context.Context, models.RegisterAndLogin) (*models.AuthResponse, error) {
	return &models.AuthResponse{Token: "t", User: models.User{Username: "jace"}}, nil
}

func (fakeAuthAPI) Register(context.Context, models.RegisterAndLogin) (*models.AuthResponse, error) {
	return &models.AuthResponse{Token: "t", User: models.User{Username: "jace"}}, nil
}

func (fakeAuthAPI) SetAccessToken(string) {}

func (fakeAuthAPI) Logout() {}

type noSessions struct{}

func (noSessions) SaveSession(context.Context, models.Session) error { return nil }

func (noSessions) LoadSession(context.Context) (*models.Session, error) {
	return nil, service.ErrNoSession
}

func (noSessions) ClearSession(context.Context) error { return nil }

func newTestUI(t *testing.T, fetcher cardlist.Fetcher) (*UI, fyne.Window) {
	t.Helper()
	return newTestUIWithDebounce(t, fetcher, 10*time.Millisecond)
}

func newTestUIWithDebounce(t *testing.T, fetcher cardlist.Fetcher, debounce time.Duration) (*UI, fyne.Window) {
	t.Helper()
	a := test.NewApp()
	t.Cleanup(a.Quit)

	log := logger.NewLogger("error")
	list := cardlist.NewList(fetcher, log)
	catalog := cardlist.NewCatalog(fetcher, log)
	session := auth.NewContext(fakeAuthAPI{}, noSessions{}, log)
	ctrl := page.NewController(list, catalog, session, 20, page.Paged, log)

	u := NewUI(context.Background(), Deps{
		Controller: ctrl,
		List:       list,
		Catalog:    catalog,
		Session:    session,
		Debounce:   debounce,
	}, log)

	w := test.NewWindow(nil)
	t.Cleanup(w.Close)
	w.SetContent(u.Build(w))
	return u, w
}

func TestNewUI(t *testing.T) {
	log := logger.NewLogger("info")
	ctx := context.Background()

	u := NewUI(ctx, Deps{}, log)

	assert.NotNil(t, u)
	assert.Equal(t, ctx, u.ctx)
	assert.NotNil(t, u.images)
}

func TestBuildRendersPage(t *testing.T) {
	u, _ := newTestUI(t, &fakeFetcher{total: 3, size: 4})

	require.NoError(t, u.deps.Controller.Refresh(context.Background()))

	assert.Len(t, u.grid.Objects, 4)
	assert.False(t, u.empty.Visible())
	assert.False(t, u.banner.Visible())
	assert.Equal(t, "12 cards · page 1 of 3", u.status.Text)
	// Previous, 1, 2, 3, Next
	assert.Len(t, u.pages.Objects, 5)
}

func TestBuildEmptyState(t *testing.T) {
	u, _ := newTestUI(t, &fakeFetcher{total: 0, size: 0})

	require.NoError(t, u.deps.Controller.Refresh(context.Background()))

	assert.Empty(t, u.grid.Objects)
	assert.True(t, u.empty.Visible())
	assert.Equal(t, "No cards found", u.empty.Text)
}

func TestBuildErrorBanner(t *testing.T) {
	apiErr := &handlers.APIError{Status: 500, Message: "Database unavailable"}
	u, _ := newTestUI(t, &fakeFetcher{err: apiErr})

	assert.Error(t, u.deps.Controller.Refresh(context.Background()))

	assert.True(t, u.banner.Visible())
	assert.Equal(t, "Database unavailable", u.banner.Text)
	assert.False(t, u.empty.Visible())
	assert.Empty(t, u.grid.Objects)
}

func TestPaginationNavigates(t *testing.T) {
	u, _ := newTestUI(t, &fakeFetcher{total: 3, size: 2})
	require.NoError(t, u.deps.Controller.Refresh(context.Background()))

	next := u.pages.Objects[len(u.pages.Objects)-1].(*widget.Button)
	test.Tap(next)

	assert.Eventually(t, func() bool {
		s := u.deps.List.State()
		return s.Pagination != nil && s.Pagination.CurrentPage == 2
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, u.deps.Controller.View().Page)
}

func TestFilterWidgetsCommit(t *testing.T) {
	u, _ := newTestUI(t, &fakeFetcher{total: 1, size: 1})

	test.Type(u.filters.name, "Bolt")

	assert.Eventually(t, func() bool {
		return u.deps.Controller.View().Filters.Name == "Bolt"
	}, time.Second, 10*time.Millisecond)
	assert.False(t, u.filters.clear.Disabled())

	test.Tap(u.filters.clear)

	assert.Eventually(t, func() bool {
		return u.deps.Controller.View().Filters.IsEmpty()
	}, time.Second, 10*time.Millisecond)
	assert.Empty(t, u.filters.name.Text)
}

func TestFilterApplyCommitsNow(t *testing.T) {
	u, _ := newTestUIWithDebounce(t, &fakeFetcher{total: 1, size: 1}, time.Hour)
	committed := func(name string) func() bool {
		return func() bool { return u.deps.Controller.View().Filters.Name == name }
	}

	test.Type(u.filters.name, "Bolt")
	assert.Never(t, committed("Bolt"), 50*time.Millisecond, 10*time.Millisecond)

	test.Tap(u.filters.apply)
	assert.Eventually(t, committed("Bolt"), time.Second, 10*time.Millisecond)

	test.Type(u.filters.name, "er")
	u.filters.name.TypedKey(&fyne.KeyEvent{Name: fyne.KeyReturn})
	assert.Eventually(t, committed("Bolter"), time.Second, 10*time.Millisecond)
}

func TestRenderUser(t *testing.T) {
	u, _ := newTestUI(t, &fakeFetcher{total: 1, size: 1})
	assert.Equal(t, "Login", u.authBtn.Text)

	require.NoError(t, u.deps.Session.Login(context.Background(), "jace", "pw"))

	assert.Equal(t, "Signed in as jace", u.user.Text)
	assert.Equal(t, "Logout", u.authBtn.Text)
}

func TestCardDetails(t *testing.T) {
	cmc := 3.0
	full := models.Card{
		Name:              "Serra Angel",
		ManaCost:          "{3}{W}{W}",
		Type:              "Creature — Angel",
		Text:              "Flying, vigilance",
		Power:             "4",
		Toughness:         "4",
		Colors:            []models.Color{models.White},
		Rarity:            models.RarityMythic,
		ConvertedManaCost: &cmc,
	}

	rows := cardDetails(full)
	assert.Equal(t, []detailRow{
		{Label: "Mana cost", Value: "{3}{W}{W}"},
		{Label: "Type", Value: "Creature — Angel"},
		{Label: "Text", Value: "Flying, vigilance"},
		{Label: "Power/Toughness", Value: "4/4"},
		{Label: "Rarity", Value: "Mythic Rare"},
		{Label: "Converted mana cost", Value: "3"},
		{Label: "Colors", Value: "White"},
	}, rows)

	minimal := cardDetails(models.Card{Type: "Land", Rarity: models.RarityCommon, Power: "1"})
	assert.Equal(t, []detailRow{
		{Label: "Mana cost", Value: "N/A"},
		{Label: "Type", Value: "Land"},
		{Label: "Rarity", Value: "Common"},
	}, minimal)

	updated := cardDetails(models.Card{UpdatedAt: time.Now().Add(-2 * time.Hour)})
	assert.Equal(t, detailRow{Label: "Updated", Value: "2 hours ago"}, updated[len(updated)-1])
}

func TestTileLines(t *testing.T) {
	assert.Equal(t, []string{"Instant", "Rare", "{R}"}, tileLines(models.Card{Type: "Instant", Rarity: models.RarityRare, ManaCost: "{R}"}))
	assert.Equal(t, []string{"Land", "Common"}, tileLines(models.Card{Type: "Land", Rarity: models.RarityCommon}))
}

func TestStatusText(t *testing.T) {
	tests := []struct {
		name     string
		state    cardlist.State
		mode     page.Mode
		expected string
	}{
		{name: "nothing yet", mode: page.Paged, expected: ""},
		{name: "error", state: cardlist.State{Err: errors.New("x")}, mode: page.Paged, expected: ""},
		{
			name:     "paged",
			state:    cardlist.State{Pagination: &models.Pagination{CurrentPage: 2, TotalPages: 62, TotalCards: 1234}},
			mode:     page.Paged,
			expected: "1,234 cards · page 2 of 62",
		},
		{
			name:     "catalog loading",
			state:    cardlist.State{Cards: make([]models.Card, 40), Loading: true, Pagination: &models.Pagination{TotalCards: 1500}},
			mode:     page.FullCatalog,
			expected: "Loaded 40 of 1,500 cards…",
		},
		{
			name:     "catalog done",
			state:    cardlist.State{Cards: make([]models.Card, 47), Pagination: &models.Pagination{TotalCards: 47}},
			mode:     page.FullCatalog,
			expected: "47 cards",
		},
		{name: "catalog starting", state: cardlist.State{Loading: true}, mode: page.FullCatalog, expected: "Loading catalog…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, statusText(tt.state, tt.mode))
		})
	}
}

func TestPaginationBar(t *testing.T) {
	test.NewApp()

	var got []int
	bar := paginationBar(1, 10, false, true, func(p int) { got = append(got, p) })

	prev := bar.Objects[0].(*widget.Button)
	next := bar.Objects[len(bar.Objects)-1].(*widget.Button)
	assert.True(t, prev.Disabled())
	assert.False(t, next.Disabled())

	// Previous, 1, 2, 3, …, 10, Next
	require.Len(t, bar.Objects, 7)
	assert.Equal(t, "…", bar.Objects[4].(*widget.Label).Text)
	assert.Equal(t, widget.HighImportance, bar.Objects[1].(*widget.Button).Importance)

	test.Tap(next)
	test.Tap(bar.Objects[5].(*widget.Button))
	assert.Equal(t, []int{2, 10}, got)
}

func TestFilterHelpers(t *testing.T) {
	v, ok := parseCMC(" 2.5 ")
	require.True(t, ok)
	assert.Equal(t, 2.5, *v)

	v, ok = parseCMC("")
	assert.True(t, ok)
	assert.Nil(t, v)

	_, ok = parseCMC("-1")
	assert.False(t, ok)
	_, ok = parseCMC("abc")
	assert.False(t, ok)

	assert.Equal(t, "2.5", formatCMC(models.Float(2.5)))
	assert.Equal(t, "", formatCMC(nil))

	assert.Equal(t, []string{anyRarity, "Common", "Uncommon", "Rare", "Mythic Rare"}, rarityOptions())
	assert.Equal(t, models.RarityMythic, rarityFromLabel("Mythic Rare"))
	assert.Equal(t, models.Rarity(""), rarityFromLabel(anyRarity))
}

func TestToggleTextAndImageSummary(t *testing.T) {
	assert.Equal(t, "Need an account? Register", toggleText(auth.ModeLogin))
	assert.Equal(t, "Already have an account? Login", toggleText(auth.ModeRegister))
	assert.Equal(t, "bolt.png (2.0 kB)", imageSummary("bolt.png", 2000))
}

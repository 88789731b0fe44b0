// Package cardlist keeps the list of cards shown by the catalog and the
// pagination that came with it.
package cardlist

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/Druxys/MTG-Next/internal/client/models"
	"github.com/Druxys/MTG-Next/package/logger"
)

// ErrSuperseded is returned by a load whose result was dropped because a
// newer load started after it.
var ErrSuperseded = errors.New("load superseded by a newer request")

// Fetcher lists one page of cards
type Fetcher interface {
	ListCards(ctx context.Context, q models.CardQuery) (*models.CardSearchResponse, error)
}

// State is a snapshot published after every change. Cards must not be
// modified by the receiver.
type State struct {
	Cards      []models.Card
	Pagination *models.Pagination
	Loading    bool
	Err        error
}

// tracker owns the published state and the generation of the running load.
// Listeners are called in publication order and must not start a load
// synchronously.
type tracker struct {
	mu       sync.Mutex
	notify   sync.Mutex
	state    State
	gen      uint64
	cancel   context.CancelFunc
	onChange func(State)
}

func (t *tracker) OnChange(fn func(State)) {
	t.mu.Lock()
	t.onChange = fn
	t.mu.Unlock()
}

func (t *tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// begin cancels the running load and starts a new generation.
func (t *tracker) begin(ctx context.Context, reset bool) (context.Context, uint64) {
	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.gen++
	gen := t.gen

	t.state.Loading = true
	t.state.Err = nil
	if reset {
		t.state.Cards = nil
	}
	t.publishAndUnlock()
	return ctx, gen
}

// update applies fn if gen is still current.
func (t *tracker) update(gen uint64, fn func(s *State)) bool {
	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		return false
	}
	fn(&t.state)
	t.publishAndUnlock()
	return true
}

// finish releases the context of gen if it is still current.
func (t *tracker) finish(gen uint64) {
	t.mu.Lock()
	if gen == t.gen && t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.mu.Unlock()
}

// Cancel aborts the running load, if any.
func (t *tracker) Cancel() {
	t.mu.Lock()
	if t.cancel == nil {
		t.mu.Unlock()
		return
	}
	t.cancel()
	t.cancel = nil
	t.gen++
	t.state.Loading = false
	t.publishAndUnlock()
}

// publishAndUnlock must be called with mu held. The listener runs outside mu
// so it may read State.
func (t *tracker) publishAndUnlock() {
	fn, snap := t.onChange, t.state
	t.notify.Lock()
	t.mu.Unlock()
	defer t.notify.Unlock()
	if fn != nil {
		fn(snap)
	}
}

// List loads one page at a time; every load replaces the previous result.
type List struct {
	tracker
	fetch  Fetcher
	logger *logger.Logger
}

// NewList creates a paged card list
func NewList(fetch Fetcher, log *logger.Logger) *List {
	return &List{fetch: fetch, logger: log.With("cardlist")}
}

// Load fetches page with limit cards matching filters. On failure the card
// list is cleared and the error kept in the state.
func (l *List) Load(ctx context.Context, page, limit int, filters models.CardFilters) error {
	ctx, gen := l.begin(ctx, false)
	defer l.finish(gen)

	l.logger.Debugf("Loading page %d (limit %d)", page, limit)
	resp, err := l.fetch.ListCards(ctx, models.CardQuery{Page: page, Limit: limit, Filters: filters})

	applied := l.update(gen, func(s *State) {
		s.Loading = false
		if err != nil {
			s.Err = err
			s.Cards = nil
			return
		}
		pagination := resp.Pagination
		s.Cards = slices.Clip(resp.Cards)
		s.Pagination = &pagination
	})
	if !applied {
		l.logger.Debugf("Dropping stale result for page %d", page)
		return ErrSuperseded
	}
	if err != nil {
		l.logger.Errorf("Failed to load page %d: %v", page, err)
		return err
	}
	return nil
}

// Catalog prefetches every page and publishes the growing list after each one.
type Catalog struct {
	tracker
	fetch  Fetcher
	logger *logger.Logger
}

// NewCatalog creates a full-catalog card list
func NewCatalog(fetch Fetcher, log *logger.Logger) *Catalog {
	return &Catalog{fetch: fetch, logger: log.With("catalog")}
}

// FetchAll clears the list and then requests pages 1, 2, ... in order until
// the server reports there is no next page.
func (c *Catalog) FetchAll(ctx context.Context, limit int, filters models.CardFilters) error {
	ctx, gen := c.begin(ctx, true)
	defer c.finish(gen)

	var all []models.Card
	for page := 1; ; page++ {
		resp, err := c.fetch.ListCards(ctx, models.CardQuery{Page: page, Limit: limit, Filters: filters})
		if err != nil {
			err = fmt.Errorf("page %d: %w", page, err)
			if !c.update(gen, func(s *State) {
				s.Loading = false
				s.Err = err
				s.Cards = nil
			}) {
				return ErrSuperseded
			}
			c.logger.Errorf("Failed to fetch catalog: %v", err)
			return err
		}

		all = append(all, resp.Cards...)
		pagination := resp.Pagination
		more := resp.Pagination.HasNext
		if more && len(resp.Cards) == 0 {
			c.logger.Warningf("Page %d is empty but reports a next page, stopping", page)
			more = false
		}

		snapshot := slices.Clip(all)
		if !c.update(gen, func(s *State) {
			s.Cards = snapshot
			s.Pagination = &pagination
			s.Loading = more
		}) {
			return ErrSuperseded
		}
		c.logger.Debugf("Fetched page %d, %d cards so far", page, len(all))

		if !more {
			return nil
		}
	}
}

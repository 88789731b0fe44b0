// Package filterpanel holds the filter draft edited by the user and decides
// when it becomes the committed search.
package filterpanel

import (
	"sync"
	"time"

	"github.com/Druxys/MTG-Next/internal/client/models"
	"github.com/Druxys/MTG-Next/package/logger"
	"github.com/samber/lo"
)

// DefaultDelay is how long edits settle before they are propagated
const DefaultDelay = 500 * time.Millisecond

// Panel keeps the local draft apart from the committed filters
type Panel struct {
	mu        sync.Mutex
	draft     models.CardFilters
	committed models.CardFilters
	deferred  *Deferred
	onChange  func(models.CardFilters)
	onClear   func()
	logger    *logger.Logger
}

// New creates a panel starting from the committed filters. onChange receives
// settled drafts that differ from the committed filters, onClear is called by
// Clear.
func New(committed models.CardFilters, delay time.Duration, onChange func(models.CardFilters), onClear func(), log *logger.Logger) *Panel {
	if delay < 0 {
		delay = DefaultDelay
	}
	return &Panel{
		draft:     committed.Clone(),
		committed: committed.Clone(),
		deferred:  NewDeferred(delay),
		onChange:  onChange,
		onClear:   onClear,
		logger:    log.With("filters"),
	}
}

// Draft returns a copy of the filters being edited
func (p *Panel) Draft() models.CardFilters {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.draft.Clone()
}

// HasActive reports whether the draft carries any constraint
func (p *Panel) HasActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.draft.IsEmpty()
}

// Pending reports whether a propagation is scheduled
func (p *Panel) Pending() bool {
	return p.deferred.Pending()
}

func (p *Panel) edit(fn func(f *models.CardFilters)) {
	p.mu.Lock()
	fn(&p.draft)
	p.mu.Unlock()
	p.deferred.Schedule(p.propagate)
}

// SetName sets the name substring
func (p *Panel) SetName(name string) {
	p.edit(func(f *models.CardFilters) { f.Name = name })
}

// SetType sets the type substring
func (p *Panel) SetType(typ string) {
	p.edit(func(f *models.CardFilters) { f.Type = typ })
}

// SetRarity sets the rarity, empty for any
func (p *Panel) SetRarity(r models.Rarity) {
	p.edit(func(f *models.CardFilters) { f.Rarity = r })
}

// ToggleColor adds c to the color constraint or removes it
func (p *Panel) ToggleColor(c models.Color) {
	p.edit(func(f *models.CardFilters) {
		if lo.Contains(f.Colors, c) {
			f.Colors = lo.Without(f.Colors, c)
		} else {
			f.Colors = append(f.Colors, c)
		}
		if len(f.Colors) == 0 {
			f.Colors = nil
		}
	})
}

// SetCMCRange sets the converted mana cost bounds, nil for unbounded
func (p *Panel) SetCMCRange(minCMC, maxCMC *float64) {
	p.edit(func(f *models.CardFilters) {
		f.MinCMC = minCMC
		f.MaxCMC = maxCMC
	})
}

// Flush propagates the draft now instead of waiting for the delay
func (p *Panel) Flush() {
	p.deferred.Cancel()
	p.propagate()
}

// Sync records filters committed by the parent. The draft follows them and
// any pending propagation is dropped. Echoes of what the panel itself
// propagated are ignored so edits typed meanwhile are kept.
func (p *Panel) Sync(committed models.CardFilters) {
	p.mu.Lock()
	if committed.Equal(p.committed) {
		p.mu.Unlock()
		return
	}
	p.committed = committed.Clone()
	p.draft = committed.Clone()
	p.mu.Unlock()

	p.deferred.Cancel()
}

// Clear empties the draft and asks the parent to clear its filters
func (p *Panel) Clear() {
	p.deferred.Cancel()

	p.mu.Lock()
	p.draft = models.CardFilters{}
	p.mu.Unlock()

	if p.onClear != nil {
		p.onClear()
	}
}

func (p *Panel) propagate() {
	p.mu.Lock()
	draft := p.draft.Clone()
	if draft.Equal(p.committed) {
		p.mu.Unlock()
		p.logger.Debug("Draft unchanged, nothing to propagate")
		return
	}
	p.committed = draft.Clone()
	p.mu.Unlock()

	p.logger.Debugf("Propagating filters %+v", draft.Normalize())
	if p.onChange != nil {
		p.onChange(draft.Normalize())
	}
}

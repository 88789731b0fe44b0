package filterpanel

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Druxys/MTG-Next/internal/client/models"
	"github.com/Druxys/MTG-Next/package/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDelay = 30 * time.Millisecond

type recorder struct {
	mu      sync.Mutex
	changes []models.CardFilters
	clears  int
}

func (r *recorder) onChange(f models.CardFilters) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, f)
}

func (r *recorder) onClear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clears++
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.changes)
}

func (r *recorder) last() models.CardFilters {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.changes[len(r.changes)-1]
}

func newPanel(committed models.CardFilters) (*Panel, *recorder) {
	rec := &recorder{}
	return New(committed, testDelay, rec.onChange, rec.onClear, logger.NewLogger("error")), rec
}

func TestDeferredRunsLastAction(t *testing.T) {
	d := NewDeferred(testDelay)
	var got atomic.Int32

	d.Schedule(func() { got.Store(1) })
	d.Schedule(func() { got.Store(2) })
	assert.True(t, d.Pending())

	assert.Eventually(t, func() bool { return got.Load() == 2 }, time.Second, 5*time.Millisecond)
	assert.False(t, d.Pending())
}

func TestDeferredCancel(t *testing.T) {
	d := NewDeferred(testDelay)
	var ran atomic.Bool

	d.Schedule(func() { ran.Store(true) })
	d.Cancel()

	assert.False(t, d.Pending())
	assert.Never(t, ran.Load, 4*testDelay, 5*time.Millisecond)
}

func TestPanelDebouncesEdits(t *testing.T) {
	panel, rec := newPanel(models.CardFilters{})

	panel.SetName("S")
	panel.SetName("Se")
	panel.SetName("Ser")
	panel.SetRarity(models.RarityRare)

	assert.Equal(t, 0, rec.count())
	assert.True(t, panel.Pending())

	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, models.CardFilters{Name: "Ser", Rarity: models.RarityRare}, rec.last())

	assert.Never(t, func() bool { return rec.count() > 1 }, 4*testDelay, 5*time.Millisecond)
}

func TestPanelSkipsUnchangedDraft(t *testing.T) {
	committed := models.CardFilters{Name: "Bolt", Colors: []models.Color{models.Red}}
	panel, rec := newPanel(committed)

	panel.SetName("Bolts")
	panel.SetName("Bolt")

	assert.Never(t, func() bool { return rec.count() > 0 }, 4*testDelay, 5*time.Millisecond)
}

func TestPanelToggleColor(t *testing.T) {
	panel, rec := newPanel(models.CardFilters{})

	panel.ToggleColor(models.Red)
	panel.ToggleColor(models.White)
	panel.ToggleColor(models.Blue)
	panel.ToggleColor(models.Red)

	assert.ElementsMatch(t, []models.Color{models.White, models.Blue}, panel.Draft().Colors)

	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []models.Color{models.White, models.Blue}, rec.last().Colors)

	panel.ToggleColor(models.White)
	panel.ToggleColor(models.Blue)
	assert.Nil(t, panel.Draft().Colors)
}

func TestPanelSyncCancelsPending(t *testing.T) {
	panel, rec := newPanel(models.CardFilters{Name: "Goblin"})

	panel.SetType("Creature")
	panel.Sync(models.CardFilters{})

	assert.False(t, panel.Pending())
	assert.True(t, panel.Draft().IsEmpty())
	assert.Never(t, func() bool { return rec.count() > 0 }, 4*testDelay, 5*time.Millisecond)
}

func TestPanelSyncIgnoresEcho(t *testing.T) {
	panel, rec := newPanel(models.CardFilters{})

	panel.SetName("Elf")
	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)

	panel.SetName("Elf Wa")
	panel.Sync(models.CardFilters{Name: "Elf"})

	assert.Equal(t, "Elf Wa", panel.Draft().Name)
	require.Eventually(t, func() bool { return rec.count() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "Elf Wa", rec.last().Name)
}

func TestPanelClear(t *testing.T) {
	panel, rec := newPanel(models.CardFilters{Rarity: models.RarityMythic})

	assert.True(t, panel.HasActive())
	panel.SetName("Dragon")
	panel.Clear()

	assert.False(t, panel.HasActive())
	assert.False(t, panel.Pending())
	assert.Equal(t, 1, rec.clears)
	assert.Never(t, func() bool { return rec.count() > 0 }, 4*testDelay, 5*time.Millisecond)
}

func TestPanelFlushAndCMC(t *testing.T) {
	panel, rec := newPanel(models.CardFilters{})

	panel.SetCMCRange(models.Float(2), models.Float(5))
	panel.Flush()

	require.Equal(t, 1, rec.count())
	got := rec.last()
	require.NotNil(t, got.MinCMC)
	require.NotNil(t, got.MaxCMC)
	assert.Equal(t, 2.0, *got.MinCMC)
	assert.Equal(t, 5.0, *got.MaxCMC)
	assert.False(t, panel.Pending())
}

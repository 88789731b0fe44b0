// Package addcard drives the add-card form: local validation, submission and
// the error shown to the user.
package addcard

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/Druxys/MTG-Next/internal/client/handlers"
	"github.com/Druxys/MTG-Next/internal/client/models"
	"github.com/Druxys/MTG-Next/package/logger"
	"github.com/Druxys/MTG-Next/package/validation"
)

// FallbackError is shown when the server gives no usable message
const FallbackError = "Error adding the card"

// ErrBusy is returned when a submission is already running
var ErrBusy = errors.New("a submission is already in progress")

// Creator creates cards on the catalog API
type Creator interface {
	CreateCard(ctx context.Context, card models.NewCard) (*models.Card, error)
}

// State is what the dialog renders
type State struct {
	Card    models.NewCard
	Loading bool
	Error   string
}

// Form holds the add-card fields between edits
type Form struct {
	mu       sync.Mutex
	card     models.NewCard
	loading  bool
	errMsg   string
	creator  Creator
	onClose  func()
	onAdded  func(*models.Card)
	onChange func(State)
	logger   *logger.Logger
}

// NewForm creates an empty form. On success onClose runs first, then onAdded.
func NewForm(creator Creator, onClose func(), onAdded func(*models.Card), log *logger.Logger) *Form {
	return &Form{
		card:    models.EmptyNewCard(),
		creator: creator,
		onClose: onClose,
		onAdded: onAdded,
		logger:  log.With("addcard"),
	}
}

// OnChange registers the listener called after every state change
func (f *Form) OnChange(fn func(State)) {
	f.mu.Lock()
	f.onChange = fn
	f.mu.Unlock()
}

// State returns a snapshot of the form
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot()
}

func (f *Form) snapshot() State {
	card := f.card
	card.Colors = slices.Clone(f.card.Colors)
	return State{Card: card, Loading: f.loading, Error: f.errMsg}
}

// notifyAndUnlock must be called with mu held
func (f *Form) notifyAndUnlock() {
	fn, snap := f.onChange, f.snapshot()
	f.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
}

// Edit applies fn to the field values
func (f *Form) Edit(fn func(card *models.NewCard)) {
	f.mu.Lock()
	fn(&f.card)
	f.notifyAndUnlock()
}

// SetImage attaches the picked image, nil data removes it
func (f *Form) SetImage(filename string, data []byte) {
	f.Edit(func(card *models.NewCard) {
		if data == nil {
			card.Image = nil
			return
		}
		card.Image = &models.ImageUpload{Filename: filename, Data: data}
	})
}

// ToggleColor adds or removes a color
func (f *Form) ToggleColor(c models.Color) {
	f.Edit(func(card *models.NewCard) {
		if i := slices.Index(card.Colors, c); i >= 0 {
			card.Colors = slices.Delete(card.Colors, i, i+1)
			return
		}
		card.Colors = append(card.Colors, c)
	})
}

// Submit validates the fields and creates the card. Validation failures
// never reach the network.
func (f *Form) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.loading {
		f.mu.Unlock()
		return ErrBusy
	}
	if f.card.Rarity == "" {
		f.card.Rarity = models.RarityCommon
	}
	card := f.snapshot().Card

	if err := validation.Struct(card); err != nil {
		var verrs validation.Errors
		if errors.As(err, &verrs) {
			f.errMsg = verrs.First()
		} else {
			f.errMsg = err.Error()
		}
		f.notifyAndUnlock()
		return err
	}

	f.loading = true
	f.errMsg = ""
	f.notifyAndUnlock()

	f.logger.Infof("Creating card %q", card.Name)
	created, err := f.creator.CreateCard(ctx, card)

	f.mu.Lock()
	f.loading = false
	if err != nil {
		f.errMsg = handlers.Message(err, FallbackError)
		f.notifyAndUnlock()
		f.logger.Errorf("Failed to create card: %v", err)
		return err
	}
	f.card = models.EmptyNewCard()
	f.errMsg = ""
	f.notifyAndUnlock()

	if f.onClose != nil {
		f.onClose()
	}
	if f.onAdded != nil {
		f.onAdded(created)
	}
	return nil
}

// Close dismisses the dialog unless a submission is running
func (f *Form) Close() bool {
	f.mu.Lock()
	if f.loading {
		f.mu.Unlock()
		return false
	}
	f.errMsg = ""
	f.notifyAndUnlock()

	if f.onClose != nil {
		f.onClose()
	}
	return true
}

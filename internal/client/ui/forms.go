package ui

import (
	"io"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/Druxys/MTG-Next/internal/client/addcard"
	"github.com/Druxys/MTG-Next/internal/client/auth"
	"github.com/Druxys/MTG-Next/internal/client/models"
	"github.com/Druxys/MTG-Next/internal/client/page"
	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
)

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}

// showAddCardDialog opens the add-card form
func (u *UI) showAddCardDialog() {
	var d dialog.Dialog
	ctrl := u.deps.Controller

	form := addcard.NewForm(u.deps.Creator,
		func() {
			d.Hide()
			ctrl.CloseDialog(page.AddCardDialog)
		},
		func(card *models.Card) {
			if card != nil {
				u.logger.Infof("Card %s added", card.Name)
			}
			go func() {
				if err := ctrl.CardAdded(u.ctx); err != nil {
					u.logger.Errorf("Failed to reload after add: %v", err)
				}
			}()
		},
		u.logger,
	)

	name := widget.NewEntry()
	name.OnChanged = func(s string) { form.Edit(func(c *models.NewCard) { c.Name = s }) }
	manaCost := widget.NewEntry()
	manaCost.SetPlaceHolder("{2}{U}{U}")
	manaCost.OnChanged = func(s string) { form.Edit(func(c *models.NewCard) { c.ManaCost = s }) }
	typ := widget.NewSelectEntry(models.CardTypes)
	typ.OnChanged = func(s string) { form.Edit(func(c *models.NewCard) { c.Type = s }) }
	text := widget.NewMultiLineEntry()
	text.OnChanged = func(s string) { form.Edit(func(c *models.NewCard) { c.Text = s }) }

	rarity := widget.NewSelect(lo.Map(models.Rarities, func(r models.Rarity, _ int) string { return r.Label() }), func(label string) {
		form.Edit(func(c *models.NewCard) { c.Rarity = rarityFromLabel(label) })
	})
	rarity.SetSelected(models.RarityCommon.Label())

	cmc := widget.NewEntry()
	cmc.SetPlaceHolder("0")
	cmc.OnChanged = func(s string) {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			v = 0
		}
		form.Edit(func(c *models.NewCard) { c.ConvertedManaCost = v })
	}

	colorChecks := make([]fyne.CanvasObject, 0, len(models.Colors))
	for _, c := range models.Colors {
		c := c
		colorChecks = append(colorChecks, widget.NewCheck(c.Label(), func(bool) { form.ToggleColor(c) }))
	}

	imageLabel := widget.NewLabel("No file chosen")
	pick := widget.NewButton("Choose image…", func() {
		fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
			if err != nil {
				u.logger.Errorf("Failed to open file: %v", err)
				return
			}
			if reader == nil {
				return
			}
			defer reader.Close()

			data, err := io.ReadAll(reader)
			if err != nil {
				u.logger.Errorf("Failed to read file: %v", err)
				return
			}
			form.SetImage(reader.URI().Name(), data)
			imageLabel.SetText(imageSummary(reader.URI().Name(), len(data)))
		}, u.window)
		fd.SetFilter(storage.NewExtensionFileFilter(imageExtensions))
		fd.Show()
	})

	errLabel := widget.NewLabel("")
	errLabel.Importance = widget.DangerImportance
	errLabel.Hide()

	submit := widget.NewButton("Add card", func() {
		go func() { _ = form.Submit(u.ctx) }()
	})
	submit.Importance = widget.HighImportance
	cancel := widget.NewButton("Cancel", func() { form.Close() })

	form.OnChange(func(s addcard.State) {
		if s.Error != "" {
			errLabel.SetText(s.Error)
			errLabel.Show()
		} else {
			errLabel.Hide()
		}
		if s.Loading {
			submit.SetText("Adding…")
			submit.Disable()
			cancel.Disable()
		} else {
			submit.SetText("Add card")
			submit.Enable()
			cancel.Enable()
		}
	})

	fields := widget.NewForm(
		widget.NewFormItem("Name *", name),
		widget.NewFormItem("Mana cost", manaCost),
		widget.NewFormItem("Type *", typ),
		widget.NewFormItem("Text", text),
		widget.NewFormItem("Colors", container.NewHBox(colorChecks...)),
		widget.NewFormItem("Rarity", rarity),
		widget.NewFormItem("Converted mana cost", cmc),
		widget.NewFormItem("Image", container.NewHBox(pick, imageLabel)),
	)

	content := container.NewVBox(errLabel, fields, container.NewHBox(cancel, submit))
	d = dialog.NewCustomWithoutButtons("Add a card", content, u.window)
	d.Resize(fyne.NewSize(560, 560))
	d.Show()
}

func imageSummary(name string, size int) string {
	return name + " (" + humanize.Bytes(uint64(size)) + ")"
}

// showAuthDialog opens the login and registration form
func (u *UI) showAuthDialog() {
	var d dialog.Dialog
	ctrl := u.deps.Controller

	form := auth.NewForm(u.deps.Session,
		func() {
			ctrl.AuthSucceeded()
		},
		func() {
			d.Hide()
			ctrl.CloseDialog(page.AuthDialog)
			if ctrl.View().Dialog == page.AddCardDialog {
				u.showAddCardDialog()
			}
		},
	)

	username := widget.NewEntry()
	username.SetPlaceHolder("Username")
	username.OnChanged = form.SetUsername
	email := widget.NewEntry()
	email.SetPlaceHolder("Email")
	email.OnChanged = form.SetEmail
	email.Hide()
	password := widget.NewPasswordEntry()
	password.SetPlaceHolder("Password")
	password.OnChanged = form.SetPassword

	errLabel := widget.NewLabel("")
	errLabel.Importance = widget.DangerImportance
	errLabel.Hide()

	submit := widget.NewButton(auth.ModeLogin.String(), func() {
		go func() { _ = form.Submit(u.ctx) }()
	})
	submit.Importance = widget.HighImportance
	toggle := widget.NewButton(toggleText(auth.ModeLogin), form.ToggleMode)
	toggle.Importance = widget.LowImportance

	title := widget.NewLabelWithStyle(auth.ModeLogin.String(), fyne.TextAlignLeading, fyne.TextStyle{Bold: true})

	form.OnChange(func(s auth.FormState) {
		title.SetText(s.Mode.String())
		toggle.SetText(toggleText(s.Mode))
		if s.Mode == auth.ModeRegister {
			email.Show()
		} else {
			email.Hide()
		}
		for entry, value := range map[*widget.Entry]string{username: s.Fields.Username, email: s.Fields.Email, password: s.Fields.Password} {
			if entry.Text != value {
				entry.SetText(value)
			}
		}
		if s.Error != "" {
			errLabel.SetText(s.Error)
			errLabel.Show()
		} else {
			errLabel.Hide()
		}
		if s.Loading {
			submit.SetText("Processing...")
			submit.Disable()
		} else {
			submit.SetText(s.Mode.String())
			submit.Enable()
		}
	})

	content := container.NewVBox(title, errLabel, username, email, password, submit, toggle)
	d = dialog.NewCustom("Account", "Close", content, u.window)
	d.SetOnClosed(func() { ctrl.CloseDialog(page.AuthDialog) })
	d.Resize(fyne.NewSize(380, 320))
	d.Show()
}

func toggleText(m auth.Mode) string {
	if m == auth.ModeLogin {
		return "Need an account? Register"
	}
	return "Already have an account? Login"
}

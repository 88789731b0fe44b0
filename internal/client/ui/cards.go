package ui

import (
	"fmt"
	"image/color"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/Druxys/MTG-Next/internal/client/cardlist"
	"github.com/Druxys/MTG-Next/internal/client/handlers"
	"github.com/Druxys/MTG-Next/internal/client/models"
	"github.com/Druxys/MTG-Next/internal/client/page"
	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
)

const (
	tileWidth   = 200
	tileHeight  = 340
	imageHeight = 250
)

var placeholderColor = color.NRGBA{R: 0xe5, G: 0xe7, B: 0xeb, A: 0xff}

// cardTile is a tappable card in the grid
type cardTile struct {
	widget.BaseWidget
	content fyne.CanvasObject
	onTap   func()
}

func newCardTile(content fyne.CanvasObject, onTap func()) *cardTile {
	t := &cardTile{content: content, onTap: onTap}
	t.ExtendBaseWidget(t)
	return t
}

func (t *cardTile) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(t.content)
}

// Tapped opens the card
func (t *cardTile) Tapped(*fyne.PointEvent) {
	if t.onTap != nil {
		t.onTap()
	}
}

func (u *UI) newTile(card models.Card) fyne.CanvasObject {
	name := widget.NewLabelWithStyle(card.Name, fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	name.Truncation = fyne.TextTruncateEllipsis

	lines := []fyne.CanvasObject{name}
	for _, line := range tileLines(card) {
		l := widget.NewLabel(line)
		l.Truncation = fyne.TextTruncateEllipsis
		lines = append(lines, l)
	}

	content := container.NewBorder(u.cardImage(card), nil, nil, nil, container.NewVBox(lines...))
	return newCardTile(widget.NewCard("", "", content), func() { u.showDetails(card) })
}

// tileLines are the text lines under the card name
func tileLines(card models.Card) []string {
	lines := []string{card.Type, card.Rarity.Label()}
	if card.ManaCost != "" {
		lines = append(lines, card.ManaCost)
	}
	return lines
}

// cardImage returns a placeholder that is replaced once the image arrives
func (u *UI) cardImage(card models.Card) fyne.CanvasObject {
	holder := container.NewStack()
	size := fyne.NewSize(tileWidth-20, imageHeight)

	if !card.HasImage() {
		holder.Add(placeholder("No image", size))
		return holder
	}

	u.mu.Lock()
	res, ok := u.images[card.ID]
	u.mu.Unlock()
	if ok {
		holder.Add(imageFromResource(res, size))
		return holder
	}

	holder.Add(placeholder("Loading…", size))
	go func() {
		data, err := u.deps.Images.CardImage(u.ctx, card.ID)
		if err != nil || len(data) == 0 {
			u.logger.Warningf("Image for %s unavailable: %v", card.ID, err)
			holder.Objects = []fyne.CanvasObject{placeholder("No image", size)}
			holder.Refresh()
			return
		}

		res := fyne.NewStaticResource(card.ID, data)
		u.mu.Lock()
		u.images[card.ID] = res
		u.mu.Unlock()

		holder.Objects = []fyne.CanvasObject{imageFromResource(res, size)}
		holder.Refresh()
	}()
	return holder
}

func imageFromResource(res fyne.Resource, size fyne.Size) fyne.CanvasObject {
	img := canvas.NewImageFromResource(res)
	img.FillMode = canvas.ImageFillContain
	img.SetMinSize(size)
	return img
}

func placeholder(text string, size fyne.Size) fyne.CanvasObject {
	bg := canvas.NewRectangle(placeholderColor)
	bg.SetMinSize(size)
	return container.NewStack(bg, container.NewCenter(widget.NewLabel(text)))
}

// detailRow is one labelled value of the details dialog
type detailRow struct {
	Label string
	Value string
}

// cardDetails lists what the details dialog shows, optional fields only when set
func cardDetails(card models.Card) []detailRow {
	manaCost := card.ManaCost
	if manaCost == "" {
		manaCost = "N/A"
	}

	rows := []detailRow{
		{Label: "Mana cost", Value: manaCost},
		{Label: "Type", Value: card.Type},
	}
	if card.Text != "" {
		rows = append(rows, detailRow{Label: "Text", Value: card.Text})
	}
	if card.HasPowerToughness() {
		rows = append(rows, detailRow{Label: "Power/Toughness", Value: card.PowerToughness()})
	}
	rows = append(rows, detailRow{Label: "Rarity", Value: card.Rarity.Label()})
	if card.ConvertedManaCost != nil {
		rows = append(rows, detailRow{Label: "Converted mana cost", Value: humanize.Ftoa(*card.ConvertedManaCost)})
	}
	if len(card.Colors) > 0 {
		labels := lo.Map(card.Colors, func(c models.Color, _ int) string { return c.Label() })
		rows = append(rows, detailRow{Label: "Colors", Value: strings.Join(labels, ", ")})
	}
	if !card.UpdatedAt.IsZero() {
		rows = append(rows, detailRow{Label: "Updated", Value: humanize.Time(card.UpdatedAt)})
	}
	return rows
}

func (u *UI) showDetails(card models.Card) {
	u.deps.Controller.Select(card)

	form := widget.NewForm()
	for _, row := range cardDetails(card) {
		value := widget.NewLabel(row.Value)
		value.Wrapping = fyne.TextWrapWord
		form.Append(row.Label, value)
	}

	content := fyne.CanvasObject(form)
	if card.HasImage() {
		content = container.NewGridWithColumns(2, u.cardImage(card), form)
	}

	d := dialog.NewCustom(card.Name, "Close", container.NewVScroll(content), u.window)
	d.SetOnClosed(u.deps.Controller.CloseDetails)
	d.Resize(fyne.NewSize(720, 520))
	d.Show()
}

// statusText summarises the list for the toolbar
func statusText(s cardlist.State, mode page.Mode) string {
	switch {
	case s.Err != nil:
		return ""
	case mode == page.FullCatalog:
		if s.Pagination == nil {
			return "Loading catalog…"
		}
		if s.Loading {
			return fmt.Sprintf("Loaded %s of %s cards…", humanize.Comma(int64(len(s.Cards))), humanize.Comma(int64(s.Pagination.TotalCards)))
		}
		return fmt.Sprintf("%s cards", humanize.Comma(int64(len(s.Cards))))
	case s.Pagination == nil:
		return ""
	default:
		p := s.Pagination
		return fmt.Sprintf("%s cards · page %d of %d", humanize.Comma(int64(p.TotalCards)), p.CurrentPage, p.TotalPages)
	}
}

// errorText is the message of the error banner
func errorText(err error) string {
	return handlers.Message(err, "Unable to load cards")
}

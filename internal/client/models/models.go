package models

import (
	"strconv"
	"strings"
	"time"
)

// Rarity of a printed card
type Rarity string

// Rarities accepted by the catalog API
const (
	RarityCommon   Rarity = "common"
	RarityUncommon Rarity = "uncommon"
	RarityRare     Rarity = "rare"
	RarityMythic   Rarity = "mythic"
)

// Rarities lists every rarity in display order
var Rarities = []Rarity{RarityCommon, RarityUncommon, RarityRare, RarityMythic}

// Valid reports whether r is one of the known rarities
func (r Rarity) Valid() bool {
	switch r {
	case RarityCommon, RarityUncommon, RarityRare, RarityMythic:
		return true
	}
	return false
}

// Label returns the display name of the rarity
func (r Rarity) Label() string {
	switch r {
	case RarityCommon:
		return "Common"
	case RarityUncommon:
		return "Uncommon"
	case RarityRare:
		return "Rare"
	case RarityMythic:
		return "Mythic Rare"
	default:
		return string(r)
	}
}

// Color is one of the five color codes
type Color string

// Color codes
const (
	White Color = "W"
	Blue  Color = "U"
	Black Color = "B"
	Red   Color = "R"
	Green Color = "G"
)

// Colors lists every color in WUBRG order
var Colors = []Color{White, Blue, Black, Red, Green}

// Valid reports whether c is one of W, U, B, R, G
func (c Color) Valid() bool {
	switch c {
	case White, Blue, Black, Red, Green:
		return true
	}
	return false
}

// Label returns the color name
func (c Color) Label() string {
	switch c {
	case White:
		return "White"
	case Blue:
		return "Blue"
	case Black:
		return "Black"
	case Red:
		return "Red"
	case Green:
		return "Green"
	default:
		return string(c)
	}
}

// CardTypes are the type presets offered by the filter panel
var CardTypes = []string{
	"Artifact",
	"Creature",
	"Enchantment",
	"Instant",
	"Land",
	"Planeswalker",
	"Sorcery",
	"Emblem",
}

// Card as returned by the catalog API
type Card struct {
	ID                string    `json:"_id"`
	Name              string    `json:"name"`
	ManaCost          string    `json:"manaCost,omitempty"`
	Type              string    `json:"type"`
	Text              string    `json:"text,omitempty"`
	Power             string    `json:"power,omitempty"`
	Toughness         string    `json:"toughness,omitempty"`
	Colors            []Color   `json:"colors"`
	Rarity            Rarity    `json:"rarity"`
	ImagePath         string    `json:"imagePath,omitempty"`
	ScryfallID        string    `json:"scryfallId,omitempty"`
	ConvertedManaCost *float64  `json:"convertedManaCost,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// HasImage reports whether the API stores an image for the card
func (c Card) HasImage() bool {
	return c.ImagePath != ""
}

// HasPowerToughness reports whether both power and toughness are set
func (c Card) HasPowerToughness() bool {
	return c.Power != "" && c.Toughness != ""
}

// PowerToughness formats power and toughness as "P/T"
func (c Card) PowerToughness() string {
	if !c.HasPowerToughness() {
		return ""
	}
	return c.Power + "/" + c.Toughness
}

// ColorCodes joins the card colors, e.g. "W U"
func (c Card) ColorCodes() string {
	codes := make([]string, 0, len(c.Colors))
	for _, col := range c.Colors {
		codes = append(codes, string(col))
	}
	return strings.Join(codes, " ")
}

// CMC formats the converted mana cost, empty when unknown
func (c Card) CMC() string {
	if c.ConvertedManaCost == nil {
		return ""
	}
	return strconv.FormatFloat(*c.ConvertedManaCost, 'f', -1, 64)
}

// Pagination metadata of a card page
type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalCards  int  `json:"totalCards"`
	HasNext     bool `json:"hasNext"`
	HasPrev     bool `json:"hasPrev"`
}

// Consistent checks the next/prev flags against the page counters
func (p Pagination) Consistent() bool {
	return p.HasNext == (p.CurrentPage < p.TotalPages) &&
		p.HasPrev == (p.CurrentPage > 1)
}

// CardSearchResponse is the body of GET /api/cards
type CardSearchResponse struct {
	Cards      []Card     `json:"cards"`
	Pagination Pagination `json:"pagination"`
}

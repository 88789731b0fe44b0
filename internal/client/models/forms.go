package models

import "time"

// ImageUpload is a file picked for the add-card form
type ImageUpload struct {
	Filename string
	Data     []byte
}

// NewCard is the add-card form payload
type NewCard struct {
	Name              string       `validate:"notblank" label:"Card name"`
	ManaCost          string       `label:"Mana cost"`
	Type              string       `validate:"notblank" label:"Card type"`
	Text              string       `label:"Text"`
	Colors            []Color      `validate:"dive,oneof=W U B R G" label:"Colors"`
	Rarity            Rarity       `validate:"oneof=common uncommon rare mythic" label:"Rarity"`
	ConvertedManaCost float64      `validate:"min=0" label:"Converted mana cost"`
	Image             *ImageUpload `validate:"-"`
}

// EmptyNewCard returns the form defaults
func EmptyNewCard() NewCard {
	return NewCard{
		Colors: []Color{},
		Rarity: RarityCommon,
	}
}

// RegisterAndLogin carries the auth form fields
type RegisterAndLogin struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

// User as returned by the auth endpoints
type User struct {
	ID       string `json:"_id,omitempty"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// AuthResponse is the body of a successful login or registration
type AuthResponse struct {
	Token   string `json:"token"`
	User    User   `json:"user"`
	Message string `json:"message,omitempty"`
}

// Session is the signed-in state kept by the client
type Session struct {
	Username  string
	Token     string
	CreatedAt time.Time
}

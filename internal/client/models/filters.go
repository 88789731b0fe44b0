package models

import (
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// CardFilters narrows a card search. Zero values mean "no constraint".
type CardFilters struct {
	Name   string   `json:"name,omitempty"`
	Colors []Color  `json:"colors,omitempty"`
	Type   string   `json:"type,omitempty"`
	Rarity Rarity   `json:"rarity,omitempty"`
	MinCMC *float64 `json:"minCmc,omitempty"`
	MaxCMC *float64 `json:"maxCmc,omitempty"`
}

// Normalize returns a copy with colors deduplicated in WUBRG order and
// an empty color set turned into nil.
func (f CardFilters) Normalize() CardFilters {
	out := f
	if len(f.Colors) == 0 {
		out.Colors = nil
		return out
	}
	colors := lo.Uniq(f.Colors)
	slices.SortFunc(colors, func(a, b Color) int {
		return slices.Index(Colors, a) - slices.Index(Colors, b)
	})
	out.Colors = colors
	return out
}

// IsEmpty reports whether no constraint is set
func (f CardFilters) IsEmpty() bool {
	return f.Name == "" &&
		len(f.Colors) == 0 &&
		f.Type == "" &&
		f.Rarity == "" &&
		f.MinCMC == nil &&
		f.MaxCMC == nil
}

// Equal compares two filter sets structurally
func (f CardFilters) Equal(other CardFilters) bool {
	a, b := f.Normalize(), other.Normalize()
	return a.Name == b.Name &&
		a.Type == b.Type &&
		a.Rarity == b.Rarity &&
		slices.Equal(a.Colors, b.Colors) &&
		floatPtrEqual(a.MinCMC, b.MinCMC) &&
		floatPtrEqual(a.MaxCMC, b.MaxCMC)
}

// Clone returns a deep copy
func (f CardFilters) Clone() CardFilters {
	out := f
	if f.Colors != nil {
		out.Colors = slices.Clone(f.Colors)
	}
	if f.MinCMC != nil {
		v := *f.MinCMC
		out.MinCMC = &v
	}
	if f.MaxCMC != nil {
		v := *f.MaxCMC
		out.MaxCMC = &v
	}
	return out
}

// HasColor reports whether c is part of the color constraint
func (f CardFilters) HasColor(c Color) bool {
	return lo.Contains(f.Colors, c)
}

// Values encodes the set constraints as query parameters
func (f CardFilters) Values() url.Values {
	v := url.Values{}
	if f.Name != "" {
		v.Set("name", f.Name)
	}
	if f.Type != "" {
		v.Set("type", f.Type)
	}
	if f.Rarity != "" {
		v.Set("rarity", string(f.Rarity))
	}
	if len(f.Colors) > 0 {
		codes := lo.Map(f.Normalize().Colors, func(c Color, _ int) string { return string(c) })
		v.Set("colors", strings.Join(codes, ","))
	}
	if f.MinCMC != nil {
		v.Set("minCmc", strconv.FormatFloat(*f.MinCMC, 'f', -1, 64))
	}
	if f.MaxCMC != nil {
		v.Set("maxCmc", strconv.FormatFloat(*f.MaxCMC, 'f', -1, 64))
	}
	return v
}

// CardQuery is one page request
type CardQuery struct {
	Page    int
	Limit   int
	Filters CardFilters
}

// Values encodes the query, skipping unset page and limit
func (q CardQuery) Values() url.Values {
	v := q.Filters.Values()
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// Float returns a pointer to v, handy for the optional CMC bounds
func Float(v float64) *float64 {
	return &v
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Druxys/MTG-Next/internal/client/models"
)

// encodeNewCard builds the POST /api/cards body. Optional fields are only
// written when non-empty or non-zero; colors always go as a JSON array.
func encodeNewCard(card models.NewCard) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	fields := []struct {
		name  string
		value string
		skip  bool
	}{
		{name: "name", value: strings.TrimSpace(card.Name)},
		{name: "manaCost", value: strings.TrimSpace(card.ManaCost), skip: strings.TrimSpace(card.ManaCost) == ""},
		{name: "type", value: strings.TrimSpace(card.Type)},
		{name: "text", value: strings.TrimSpace(card.Text), skip: strings.TrimSpace(card.Text) == ""},
	}
	for _, f := range fields {
		if f.skip {
			continue
		}
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("write %s: %w", f.name, err)
		}
	}

	colors := card.Colors
	if colors == nil {
		colors = []models.Color{}
	}
	colorsJSON, err := json.Marshal(colors)
	if err != nil {
		return nil, "", fmt.Errorf("encode colors: %w", err)
	}
	if err := w.WriteField("colors", string(colorsJSON)); err != nil {
		return nil, "", fmt.Errorf("write colors: %w", err)
	}

	rarity := card.Rarity
	if rarity == "" {
		rarity = models.RarityCommon
	}
	if err := w.WriteField("rarity", string(rarity)); err != nil {
		return nil, "", fmt.Errorf("write rarity: %w", err)
	}

	if card.ConvertedManaCost != 0 {
		cmc := strconv.FormatFloat(card.ConvertedManaCost, 'f', -1, 64)
		if err := w.WriteField("convertedManaCost", cmc); err != nil {
			return nil, "", fmt.Errorf("write convertedManaCost: %w", err)
		}
	}

	if card.Image != nil && len(card.Image.Data) > 0 {
		filename := filepath.Base(card.Image.Filename)
		if filename == "." || filename == string(filepath.Separator) || filename == "" {
			filename = "image"
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, escapeQuotes(filename)))
		h.Set("Content-Type", http.DetectContentType(card.Image.Data))

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create image part: %w", err)
		}
		if _, err := part.Write(card.Image.Data); err != nil {
			return nil, "", fmt.Errorf("write image: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}

	return body, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

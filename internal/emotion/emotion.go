// Package emotion maps the backend's emotion labels to display glyphs.
package emotion

import (
	"unicode"
	"unicode/utf8"
)

// Known labels reported by the backend.
const (
	Happy    = "happy"
	Sad      = "sad"
	Angry    = "angry"
	Neutral  = "neutral"
	Relaxed  = "relaxed"
	Stressed = "stressed"
)

// FallbackGlyph is shown for labels outside the known set.
const FallbackGlyph = "😐"

var glyphs = map[string]string{
	Happy:    "😊",
	Sad:      "😢",
	Angry:    "😠",
	Neutral:  "😐",
	Relaxed:  "😌",
	Stressed: "😰",
}

// Glyph returns the glyph for label. Matching is exact and case-sensitive;
// unknown labels get FallbackGlyph.
func Glyph(label string) string {
	if g, ok := glyphs[label]; ok {
		return g
	}
	return FallbackGlyph
}

// Known reports whether label is one of the mapped labels.
func Known(label string) bool {
	_, ok := glyphs[label]
	return ok
}

// Title upper-cases the first letter of label for display.
func Title(label string) string {
	r, size := utf8.DecodeRuneInString(label)
	if r == utf8.RuneError {
		return label
	}
	return string(unicode.ToUpper(r)) + label[size:]
}

// Display is what the UI shows for the current emotion.
type Display struct {
	Label string `json:"label"`
	Text  string `json:"text"`
	Glyph string `json:"glyph"`
}

// NewDisplay builds the Display for label.
func NewDisplay(label string) Display {
	return Display{
		Label: label,
		Text:  Title(label),
		Glyph: Glyph(label),
	}
}

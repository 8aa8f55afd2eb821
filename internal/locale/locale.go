// Package locale classifies text into one of the two supported response locales.
package locale

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// ScriptRatioThreshold is the share of Arabic-block runes above which a text
// is classified as Arabic.
const ScriptRatioThreshold = 0.3

var (
	Arabic  = language.Arabic
	English = language.English
)

const (
	arabicFirst = '\u0600'
	arabicLast  = '\u06FF'
)

// Detect returns Arabic when more than ScriptRatioThreshold of the trimmed
// text's runes fall in the Arabic block, English otherwise.
func Detect(text string) language.Tag {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return English
	}

	var total, arabic int
	for _, r := range trimmed {
		total++
		if r >= arabicFirst && r <= arabicLast {
			arabic++
		}
	}
	if float64(arabic) > float64(total)*ScriptRatioThreshold {
		return Arabic
	}
	return English
}

// IsArabic reports whether tag is the Arabic locale.
func IsArabic(tag language.Tag) bool {
	base, _ := tag.Base()
	ar, _ := Arabic.Base()
	return base == ar
}

// Code is the short code used in API payloads ("ar" / "en").
func Code(tag language.Tag) string {
	if IsArabic(tag) {
		return "ar"
	}
	return "en"
}

// Name is the English display name of the locale, e.g. "Arabic".
func Name(tag language.Tag) string {
	if IsArabic(tag) {
		return display.English.Tags().Name(Arabic)
	}
	return display.English.Tags().Name(English)
}

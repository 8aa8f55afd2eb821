package imagegen

import (
	"strings"
	"unicode"

	"github.com/suPer8Hu/goldgpt/internal/locale"
	"golang.org/x/text/language"
)

// Category maps trigger words to a descriptive photography suffix.
type Category struct {
	Name     string
	Triggers []string
	Suffix   string
}

// Enhancer appends descriptive suffixes to image prompts. Categories are
// checked in order and the first hit wins, so "earring" has to come before
// "ring".
type Enhancer struct {
	Categories    []Category
	GenericTerms  []string
	GenericSuffix string
	ArabicSuffix  string
}

func DefaultEnhancer() *Enhancer {
	return &Enhancer{
		Categories: []Category{
			{
				Name:     "earrings",
				Triggers: []string{"earring", "أقراط", "حلق"},
				Suffix:   "exquisite gold earrings, luxury jewelry photography, professional lighting, white background",
			},
			{
				Name:     "rings",
				Triggers: []string{"ring", "خاتم"},
				Suffix:   "elegant gold ring with intricate details, luxury jewelry photography, professional lighting, white background",
			},
			{
				Name:     "necklaces",
				Triggers: []string{"necklace", "قلادة"},
				Suffix:   "beautiful gold necklace with precious stones, luxury jewelry display, professional photography",
			},
			{
				Name:     "bracelets",
				Triggers: []string{"bracelet", "سوار", "اسوارة"},
				Suffix:   "sophisticated gold bracelet, premium jewelry design, studio lighting, elegant presentation",
			},
			{
				Name:     "chains",
				Triggers: []string{"chain", "سلسلة"},
				Suffix:   "premium gold chain, luxury jewelry design, professional photography, elegant display",
			},
			{
				Name:     "gold_bars",
				Triggers: []string{"gold bar", "سبائك", "سبيكة"},
				Suffix:   "pure gold bars stacked elegantly, professional precious metals photography, luxury presentation",
			},
			{
				Name:     "gold_coins",
				Triggers: []string{"gold coin", "عملات ذهبية", "عملة ذهبية"},
				Suffix:   "collection of gold investment coins, premium numismatic photography, professional lighting",
			},
			{
				Name:     "silver_products",
				Triggers: []string{"silver product", "silver bar", "silver coin", "فضة"},
				Suffix:   "pure silver bars and coins, precious metals photography, professional presentation",
			},
		},
		GenericTerms:  []string{"gold", "silver", "platinum", "precious metal", "jewelry", "jewel"},
		GenericSuffix: "luxury precious metals photography, professional lighting, elegant presentation, high quality, detailed",
		ArabicSuffix:  "تصوير مجوهرات فاخرة، إضاءة احترافية، عرض أنيق، جودة عالية",
	}
}

// Enhance returns the prompt with at most one suffix appended. An Arabic
// trigger in an Arabic prompt takes the Arabic suffix, not the category one.
func (e *Enhancer) Enhance(prompt string, lang language.Tag) string {
	prompt = strings.TrimSpace(prompt)
	lower := strings.ToLower(prompt)
	arabic := locale.IsArabic(lang) && e.ArabicSuffix != ""

	for _, c := range e.Categories {
		for _, t := range c.Triggers {
			if !matchesTrigger(lower, t) {
				continue
			}
			if arabic && !isLatin(t) {
				return prompt + ", " + e.ArabicSuffix
			}
			return prompt + ", " + c.Suffix
		}
	}
	for _, t := range e.GenericTerms {
		if strings.Contains(lower, t) {
			return prompt + ", " + e.GenericSuffix
		}
	}
	if arabic {
		return prompt + ", " + e.ArabicSuffix
	}
	return prompt
}

// matchesTrigger requires Latin triggers to start a word, so "ring" does not
// fire on "bring" or "spring". Arabic triggers match anywhere because of
// attached prefixes such as "ال".
func matchesTrigger(lower, trigger string) bool {
	trigger = strings.ToLower(trigger)
	if trigger == "" {
		return false
	}
	if !isLatin(trigger) {
		return strings.Contains(lower, trigger)
	}

	for off := 0; off < len(lower); {
		i := strings.Index(lower[off:], trigger)
		if i < 0 {
			return false
		}
		at := off + i
		if at == 0 || !isWordRune(lastRune(lower[:at])) {
			return true
		}
		off = at + len(trigger)
	}
	return false
}

func isLatin(trigger string) bool {
	return trigger != "" && []rune(trigger)[0] <= unicode.MaxASCII
}

func lastRune(s string) rune {
	r := []rune(s)
	return r[len(r)-1]
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

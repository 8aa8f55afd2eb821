// Package intent decides which side effects a chat message asks for.
package intent

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"

	"github.com/suPer8Hu/goldgpt/internal/locale"
)

// minResidualRunes is the shortest residual prompt kept as-is.
const minResidualRunes = 5

type Intent struct {
	WantsImage     bool   `json:"wants_image"`
	WantsChart     bool   `json:"wants_chart"`
	MatchedKeyword string `json:"matched_keyword,omitempty"`
	ResidualPrompt string `json:"residual_prompt,omitempty"`
}

type Classifier struct {
	tables Tables
	strip  []*regexp.Regexp // parallel to tables.ImageKeywords
}

func NewClassifier(t Tables) *Classifier {
	c := &Classifier{
		tables: copyTables(t),
		strip:  make([]*regexp.Regexp, len(t.ImageKeywords)),
	}
	for i, kw := range c.tables.ImageKeywords {
		c.strip[i] = regexp.MustCompile("(?i)" + regexp.QuoteMeta(kw))
	}
	return c
}

func copyTables(t Tables) Tables {
	t.ImageKeywords = append([]string(nil), t.ImageKeywords...)
	t.ChartKeywords = append([]string(nil), t.ChartKeywords...)
	t.ProductKeywords = append([]string(nil), t.ProductKeywords...)
	return t
}

// Classify scans text for image and chart keywords. lang selects the default
// image prompt used when too little text is left after stripping the keyword.
func (c *Classifier) Classify(text string, lang language.Tag) Intent {
	lower := strings.ToLower(text)

	var in Intent
	for i, kw := range c.tables.ImageKeywords {
		if kw == "" || !strings.Contains(lower, strings.ToLower(kw)) {
			continue
		}
		in.WantsImage = true
		in.MatchedKeyword = kw
		in.ResidualPrompt = c.residual(text, c.strip[i], lang)
		break
	}
	in.WantsChart = containsAny(lower, c.tables.ChartKeywords)
	return in
}

// WantsProducts reports whether text mentions any product intent keyword.
func (c *Classifier) WantsProducts(text string) bool {
	return containsAny(strings.ToLower(text), c.tables.ProductKeywords)
}

// DefaultImagePrompt is the per-locale prompt used for bare image requests.
func (c *Classifier) DefaultImagePrompt(lang language.Tag) string {
	if locale.IsArabic(lang) {
		return c.tables.DefaultImagePromptArabic
	}
	return c.tables.DefaultImagePrompt
}

func (c *Classifier) residual(text string, re *regexp.Regexp, lang language.Tag) string {
	out := text
	// removal can splice a new occurrence together, e.g. "drdrawaw"
	for re.MatchString(out) {
		out = re.ReplaceAllLiteralString(out, "")
	}
	out = strings.TrimSpace(out)
	if utf8.RuneCountInString(out) < minResidualRunes {
		return c.DefaultImagePrompt(lang)
	}
	return out
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

package intent

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tables holds the keyword tables the classifier and composer match against.
// List order matters: only the first matching image keyword is stripped.
type Tables struct {
	ImageKeywords   []string `yaml:"image_keywords"`
	ChartKeywords   []string `yaml:"chart_keywords"`
	ProductKeywords []string `yaml:"product_keywords"`

	DefaultImagePrompt       string `yaml:"default_image_prompt"`
	DefaultImagePromptArabic string `yaml:"default_image_prompt_ar"`
}

var imageKeywordsEN = []string{
	"generate image", "create image", "make image", "show me picture", "create visual",
	"draw", "design", "visualize", "show me", "create a picture", "generate visual",
	"make a design", "create artwork", "show design", "picture of", "image of",
}

var imageKeywordsAR = []string{
	"صورة", "رسم", "اصنع صورة", "أنشئ صورة", "اعرض صورة", "تصميم", "رسمة",
	"أظهر لي", "اصنع تصميم", "صمم", "مثال بصري",
}

// DefaultTables returns the built-in tables. Each call returns fresh slices.
func DefaultTables() Tables {
	image := make([]string, 0, len(imageKeywordsEN)+len(imageKeywordsAR))
	image = append(image, imageKeywordsEN...)
	image = append(image, imageKeywordsAR...)

	return Tables{
		ImageKeywords:   image,
		ChartKeywords:   []string{"chart", "graph", "رسم بياني", "visual", "trend", "price chart", "market chart"},
		ProductKeywords: []string{"product", "price", "buy", "purchase", "available", "stock", "منتج", "سعر", "شراء", "متوفر"},

		DefaultImagePrompt:       "luxury gold jewelry and precious metal bars",
		DefaultImagePromptArabic: "مجوهرات ذهبية فاخرة وسبائك ذهب",
	}
}

// LoadTables reads a YAML file and overlays every non-empty field onto the
// defaults. An empty path returns the defaults.
func LoadTables(path string) (Tables, error) {
	t := DefaultTables()
	if path == "" {
		return t, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("read keyword tables: %w", err)
	}
	var override Tables
	if err := yaml.Unmarshal(b, &override); err != nil {
		return Tables{}, fmt.Errorf("parse keyword tables %s: %w", path, err)
	}

	if len(override.ImageKeywords) > 0 {
		t.ImageKeywords = override.ImageKeywords
	}
	if len(override.ChartKeywords) > 0 {
		t.ChartKeywords = override.ChartKeywords
	}
	if len(override.ProductKeywords) > 0 {
		t.ProductKeywords = override.ProductKeywords
	}
	if override.DefaultImagePrompt != "" {
		t.DefaultImagePrompt = override.DefaultImagePrompt
	}
	if override.DefaultImagePromptArabic != "" {
		t.DefaultImagePromptArabic = override.DefaultImagePromptArabic
	}
	return t, nil
}

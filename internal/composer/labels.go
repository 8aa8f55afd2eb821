package composer

import (
	"github.com/suPer8Hu/goldgpt/internal/locale"
	"golang.org/x/text/language"
)

type labels struct {
	marketHeader       string
	goldPrice          string
	dailyChange        string
	kuwaitPrices       string
	marketStatus       string
	marketStatusText   string
	metalsHeader       string
	unavailable        string
	marketUnavailable  string
	matchingHeader     string
	listingHeader      string
	highlightsHeader   string
	quantity           string
	stock              string
	model              string
	catalogUnavailable string
}

var englishLabels = labels{
	marketHeader:       "Current Market Data:",
	goldPrice:          "Global Gold Price",
	dailyChange:        "Daily Change",
	kuwaitPrices:       "Kuwait Gold Prices",
	marketStatus:       "Market Status",
	marketStatusText:   "Kuwait gold market showed 142% growth in 2021 and continues strong performance",
	metalsHeader:       "Metal Prices:",
	unavailable:        "temporarily unavailable",
	marketUnavailable:  "Market data temporarily unavailable.",
	matchingHeader:     "Available Products (matching your query):",
	listingHeader:      "Our Available Products:",
	highlightsHeader:   "TOP PRODUCTS:",
	quantity:           "Quantity",
	stock:              "Stock",
	model:              "Model",
	catalogUnavailable: "Product catalog is temporarily unavailable.",
}

var arabicLabels = labels{
	marketHeader:       "بيانات السوق الحالية:",
	goldPrice:          "سعر الذهب العالمي",
	dailyChange:        "التغير اليومي",
	kuwaitPrices:       "أسعار الذهب في الكويت",
	marketStatus:       "حالة السوق",
	marketStatusText:   "حقق سوق الذهب في الكويت نموا بنسبة 142% في عام 2021 ويواصل أداءه القوي",
	metalsHeader:       "أسعار المعادن:",
	unavailable:        "غير متوفر حاليا",
	marketUnavailable:  "بيانات السوق غير متوفرة حاليا.",
	matchingHeader:     "المنتجات المتوفرة (المطابقة لطلبك):",
	listingHeader:      "منتجاتنا المتوفرة:",
	highlightsHeader:   "أبرز المنتجات:",
	quantity:           "الكمية",
	stock:              "المخزون",
	model:              "الموديل",
	catalogUnavailable: "كتالوج المنتجات غير متوفر حاليا.",
}

func labelsFor(lang language.Tag) labels {
	if locale.IsArabic(lang) {
		return arabicLabels
	}
	return englishLabels
}

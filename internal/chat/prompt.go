package chat

import (
	"strings"

	"github.com/suPer8Hu/goldgpt/internal/composer"
	"github.com/suPer8Hu/goldgpt/internal/locale"
	"golang.org/x/text/language"
)

// FallbackReply replaces the assistant text whenever the LLM call fails.
const FallbackReply = "I apologize, but I'm having trouble processing your request right now. Please try again in a moment, or contact our experts directly for assistance."

type Business struct {
	Name     string
	Phone    string
	Email    string
	Website  string
	Location string
}

var DefaultBusiness = Business{
	Name:     "Ayar-24 Kuwait",
	Phone:    "00965-98793103",
	Email:    "info@ayar-24.com",
	Website:  "https://ayar-24.com/",
	Location: "Kuwait",
}

const capabilities = `EXPERT CAPABILITIES:

1. PRECIOUS METALS KNOWLEDGE:
- Answer any question about gold, silver, platinum, palladium, rhodium and other precious metals
- Explain mining, refining, purity standards, metallurgy and alloy compositions
- Cover jewelry making, craftsmanship and design

2. PRODUCT RECOMMENDATIONS:
- Recommend exact products from our inventory based on the user's needs and budget
- Compare bars, coins and jewelry and explain which suits which investment strategy
- Suggest alternatives based on availability and pricing

3. INVESTMENT STRATEGY & MARKET ANALYSIS:
- Market trend analysis, technical and fundamental analysis
- Portfolio allocation for different risk profiles
- Impact of inflation, currencies, interest rates and geopolitics

4. EDUCATION & HISTORY:
- History of precious metals as currency and store of value
- Explain financial concepts in simple terms

5. PRACTICAL GUIDANCE:
- Storage, security, authentication and testing
- Tax, insurance, documentation and import/export rules

6. TECHNICAL SPECIFICATIONS:
- Purity, weight, dimensions, certification and hallmarking

7. IMAGE AND CHART GENERATION:
- Images of jewelry, bars, coins and investment concepts are generated when the user asks with phrases like "generate image", "create visual", "show me picture", "design" or "visualize"
- A 30 day gold price chart is attached when the user asks for a chart, graph or trend`

// SystemPrompt assembles the instructions sent ahead of the user message.
func SystemPrompt(b Business, cc composer.Context, lang language.Tag) string {
	var sb strings.Builder
	sb.WriteString("You are GoldGPT, AI precious metals expert for " + b.Name + ".\n\n")
	sb.WriteString("Company: " + b.Name + " | Phone: " + b.Phone + " | Email: " + b.Email + "\n")
	sb.WriteString("Website: " + b.Website + " | Location: " + b.Location + "\n\n")

	for _, s := range []string{cc.Market, cc.Products, cc.Highlights} {
		if s = strings.TrimSpace(s); s != "" {
			sb.WriteString(s + "\n\n")
		}
	}

	sb.WriteString(capabilities + "\n\n")

	sb.WriteString("RESPONSE STYLE:\n")
	sb.WriteString("- Language: " + locale.Name(lang) + "\n")
	sb.WriteString("- Use emojis and professional formatting\n")
	sb.WriteString("- Include specific product suggestions when relevant\n")
	sb.WriteString("- Provide actionable advice\n")
	sb.WriteString("- Only include contact details when the user asks for them or wants to make a purchase\n")
	return sb.String()
}

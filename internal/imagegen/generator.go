package imagegen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Generator turns a prompt into a downloadable image URL.
type Generator interface {
	Generate(ctx context.Context, prompt string) (url string, err error)
}

type OpenAIGenerator struct {
	Client  *openai.Client
	Model   string
	Size    string
	Quality string
	Style   string
}

// NewOpenAIGenerator builds a DALL-E client. A non-positive timeout means
// two minutes per request.
func NewOpenAIGenerator(apiKey, baseURL, model string, timeout time.Duration) *OpenAIGenerator {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	if model == "" {
		model = openai.CreateImageModelDallE3
	}
	return &OpenAIGenerator{
		Client:  openai.NewClientWithConfig(cfg),
		Model:   model,
		Size:    openai.CreateImageSize1024x1024,
		Quality: openai.CreateImageQualityStandard,
		Style:   openai.CreateImageStyleVivid,
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.Client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          g.Model,
		N:              1,
		Size:           g.Size,
		Quality:        g.Quality,
		Style:          g.Style,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return "", fmt.Errorf("openai image: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", errors.New("openai image: empty response")
	}
	return resp.Data[0].URL, nil
}

package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

type OllamaProvider struct {
	BaseURL string
	Model   string
	Client  *resty.Client
}

func NewOllamaProvider(baseURL, model string) *OllamaProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3:latest"
	}
	return &OllamaProvider{
		BaseURL: baseURL,
		Model:   model,
		Client: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(90 * time.Second),
	}
}

type ollamaChatReq struct {
	Model    string      `json:"model"`
	Messages []ollamaMsg `json:"messages"`
	Stream   bool        `json:"stream"`
}

type ollamaMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatResp struct {
	Message ollamaMsg `json:"message"`
	Error   string    `json:"error,omitempty"`
}

func (p *OllamaProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	if p.Client == nil {
		return "", errors.New("ollama: http client is nil")
	}

	reqBody := ollamaChatReq{
		Model:    p.Model,
		Stream:   false,
		Messages: make([]ollamaMsg, 0, len(messages)),
	}
	for _, m := range messages {
		reqBody.Messages = append(reqBody.Messages, ollamaMsg{Role: m.Role, Content: m.Content})
	}

	var decoded ollamaChatResp
	resp, err := p.Client.R().
		SetContext(ctx).
		SetBody(reqBody).
		SetResult(&decoded).
		SetError(&decoded).
		Post("/api/chat")
	if err != nil {
		return "", fmt.Errorf("ollama: %w", err)
	}
	if decoded.Error != "" {
		return "", errors.New(decoded.Error)
	}
	if resp.IsError() {
		return "", fmt.Errorf("ollama: status %d", resp.StatusCode())
	}
	return decoded.Message.Content, nil
}

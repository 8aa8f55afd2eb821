package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_GetNormalizesNames(t *testing.T) {
	reg := NewRegistry()
	var gotModel string
	reg.Register(" OpenAI ", func(ctx context.Context, model string) (Provider, error) {
		gotModel = model
		return NewOllamaProvider("", model), nil
	})

	p, err := reg.Get(context.Background(), "openai", "gpt-4")
	require.NoError(t, err)
	assert.NotNil(t, p)
	assert.Equal(t, "gpt-4", gotModel)
	assert.Equal(t, []string{"openai"}, reg.Names())

	_, err = reg.Get(context.Background(), "nope", "")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestOpenAIProvider_Chat(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Gold is up."},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	p := NewOpenAIProvider(OpenAIOptions{
		APIKey:      "test-key",
		BaseURL:     srv.URL + "/v1",
		Model:       "gpt-4",
		MaxTokens:   2000,
		Temperature: 0.5,
	})
	reply, err := p.Chat(context.Background(), []Message{
		{Role: RoleSystem, Content: "be helpful"},
		{Role: RoleUser, Content: "gold?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Gold is up.", reply)

	assert.Equal(t, "gpt-4", got["model"])
	assert.EqualValues(t, 2000, got["max_tokens"])
	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, msgs, 2)
}

func TestOpenAIProvider_ErrorsAndEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") == "Bearer bad" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":{"message":"invalid key","type":"auth"}}`)
			return
		}
		_, _ = io.WriteString(w, `{"id":"x","choices":[]}`)
	}))
	defer srv.Close()

	_, err := NewOpenAIProvider(OpenAIOptions{APIKey: "bad", BaseURL: srv.URL + "/v1"}).
		Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	assert.Error(t, err)

	_, err = NewOpenAIProvider(OpenAIOptions{APIKey: "ok", BaseURL: srv.URL + "/v1"}).
		Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	assert.ErrorIs(t, err, ErrNoChoices)
}

func TestOllamaProvider_Chat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		var req ollamaChatReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)
		assert.Equal(t, "llama3:latest", req.Model)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"message":{"role":"assistant","content":"hello"}}`)
	}))
	defer srv.Close()

	reply, err := NewOllamaProvider(srv.URL, "").Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "hello", reply)
}

func TestOllamaProvider_ErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"model not found"}`)
	}))
	defer srv.Close()

	_, err := NewOllamaProvider(srv.URL, "missing").Chat(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not found")
}

// hungServer accepts requests and never answers until the client gives up.
func hungServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIProvider_Timeout(t *testing.T) {
	srv := hungServer(t)

	p := NewOpenAIProvider(OpenAIOptions{APIKey: "k", BaseURL: srv.URL + "/v1", Timeout: 100 * time.Millisecond})
	start := time.Now()
	_, err := p.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestOpenAIProvider_DefaultTimeout(t *testing.T) {
	p := NewOpenAIProvider(OpenAIOptions{APIKey: "k"})
	require.NotNil(t, p.Client)
	assert.Equal(t, 600*time.Second, DefaultTimeout)
}

package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suPer8Hu/goldgpt/internal/ai"
	"github.com/suPer8Hu/goldgpt/internal/catalog"
	"github.com/suPer8Hu/goldgpt/internal/composer"
	"github.com/suPer8Hu/goldgpt/internal/imagegen"
	"github.com/suPer8Hu/goldgpt/internal/intent"
	"github.com/suPer8Hu/goldgpt/internal/locale"
	"github.com/suPer8Hu/goldgpt/internal/market"
)

type recordingProvider struct {
	mu     sync.Mutex
	last   []ai.Message
	reply  string
	err    error
	panics bool
}

func (p *recordingProvider) Chat(ctx context.Context, messages []ai.Message) (string, error) {
	_ = ctx
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.panics {
		panic("provider exploded")
	}
	// copy to avoid mutations
	p.last = append([]ai.Message(nil), messages...)
	return p.reply, p.err
}

type fakeImages struct {
	mu     sync.Mutex
	calls  []imagegen.Request
	fail   bool
	panics bool
}

func (f *fakeImages) Generate(_ context.Context, req imagegen.Request) imagegen.Result {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.panics {
		panic("generator exploded")
	}
	if f.fail {
		return imagegen.Result{Success: false, Error: "content policy"}
	}
	enhanced := imagegen.DefaultEnhancer().Enhance(req.Prompt, req.Lang)
	return imagegen.Result{
		Success:        true,
		ImageURL:       "https://img.example/1.png",
		Filename:       "goldgpt_image_1.png",
		Base64:         "aGVsbG8=",
		Prompt:         req.Prompt,
		EnhancedPrompt: enhanced,
	}
}

type fakeCharts struct {
	err    error
	panics bool
}

func (f *fakeCharts) GoldChart(context.Context) (*market.Chart, error) {
	if f.panics {
		var bars []float64
		return &market.Chart{Y: []float64{bars[len(bars)+3]}}, nil
	}
	if f.err != nil {
		return nil, f.err
	}
	return &market.Chart{X: []string{"2025-01-01"}, Y: []float64{2000}, Type: "line"}, nil
}

type fakeMarket struct{}

func (fakeMarket) Gold(context.Context) (*market.Snapshot, error) {
	return &market.Snapshot{
		Price:     decimal.RequireFromString("2350.5"),
		Change:    decimal.RequireFromString("-3.2"),
		ChangePct: decimal.RequireFromString("-0.14"),
	}, nil
}

func (fakeMarket) Kuwait() market.KuwaitPrices {
	return market.KuwaitPrices{
		K24: decimal.NewFromFloat(33.78), K22: decimal.NewFromFloat(31.01),
		K21: decimal.NewFromFloat(29.56), K18: decimal.NewFromFloat(25.34),
		Currency: "KWD",
	}
}

func (fakeMarket) Metals(context.Context) (*market.MetalRates, error) {
	return nil, errors.New("no key")
}

type fixture struct {
	svc      *Service
	provider *recordingProvider
	images   *fakeImages
	charts   *fakeCharts
	repo     *Repo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	prov := &recordingProvider{reply: "ok"}
	reg := ai.NewRegistry()
	reg.Register("fake", func(ctx context.Context, model string) (ai.Provider, error) {
		_ = ctx
		_ = model
		return prov, nil
	})

	classifier := intent.NewClassifier(intent.DefaultTables())
	cc := composer.New(fakeMarket{}, catalog.New(catalog.SampleProducts()), classifier, log)
	images := &fakeImages{}
	charts := &fakeCharts{}
	repo := NewRepo(openTestDB(t))

	svc := NewService(repo, reg, classifier, cc, images, charts, Options{Provider: "fake", ContextWindow: 3}, log)
	return &fixture{svc: svc, provider: prov, images: images, charts: charts, repo: repo}
}

func TestRespond_KuwaitPriceQuestion(t *testing.T) {
	f := newFixture(t)

	reply := f.svc.Respond(context.Background(), Request{Message: "What is the gold price in Kuwait?"})

	assert.Equal(t, "ok", reply.Text)
	assert.False(t, reply.Intent.WantsImage)
	assert.False(t, reply.Intent.WantsChart)
	assert.Nil(t, reply.Image)
	assert.Nil(t, reply.Chart)
	assert.Empty(t, f.images.calls)

	require.Len(t, f.provider.last, 2)
	system := f.provider.last[0]
	assert.Equal(t, ai.RoleSystem, system.Role)
	assert.Contains(t, system.Content, "24K=33.78 KWD/g")
	assert.Contains(t, system.Content, "22K=31.01 KWD/g")
	assert.Contains(t, system.Content, "18K=25.34 KWD/g")
	assert.Contains(t, system.Content, "Global Gold Price: $2350.50/oz")
	assert.Contains(t, system.Content, "Language: English")
	assert.Contains(t, system.Content, "Ayar-24 Kuwait")
	assert.Equal(t, ai.Message{Role: ai.RoleUser, Content: "What is the gold price in Kuwait?"}, f.provider.last[1])
}

func TestRespond_GenerateImageOfRing(t *testing.T) {
	f := newFixture(t)

	reply := f.svc.Respond(context.Background(), Request{Message: "generate image of a gold ring"})

	assert.True(t, reply.Intent.WantsImage)
	assert.Equal(t, "of a gold ring", reply.Intent.ResidualPrompt)
	require.Len(t, f.images.calls, 1)
	assert.Equal(t, "of a gold ring", f.images.calls[0].Prompt)

	require.NotNil(t, reply.Image)
	assert.Equal(t, "of a gold ring", reply.Image.OriginalPrompt)
	assert.Contains(t, reply.Image.Prompt, "elegant gold ring with intricate details")
	assert.Equal(t, "ok", reply.Text)
}

func TestRespond_AttachmentFailuresAreNonFatal(t *testing.T) {
	f := newFixture(t)
	f.images.fail = true
	f.charts.err = errors.New("yahoo down")

	reply := f.svc.Respond(context.Background(), Request{Message: "generate image and a price chart"})

	assert.True(t, reply.Intent.WantsImage)
	assert.True(t, reply.Intent.WantsChart)
	assert.Nil(t, reply.Image)
	assert.Nil(t, reply.Chart)
	assert.Equal(t, "ok", reply.Text)
}

func TestRespond_ChartAttached(t *testing.T) {
	f := newFixture(t)

	reply := f.svc.Respond(context.Background(), Request{Message: "show the gold trend"})

	require.NotNil(t, reply.Chart)
	assert.Equal(t, "line", reply.Chart.Type)
	assert.Nil(t, reply.Image)
}

func TestRespond_LLMFailureFallsBack(t *testing.T) {
	f := newFixture(t)
	f.provider.err = context.DeadlineExceeded

	reply := f.svc.Respond(context.Background(), Request{Message: "hello"})
	assert.Equal(t, FallbackReply, reply.Text)

	f.provider.err = nil
	f.provider.reply = "   "
	reply = f.svc.Respond(context.Background(), Request{Message: "hello"})
	assert.Equal(t, FallbackReply, reply.Text)
}

func TestRespond_UnknownProviderFallsBack(t *testing.T) {
	f := newFixture(t)
	f.svc.opts.Provider = "missing"

	reply := f.svc.Respond(context.Background(), Request{Message: "hello"})
	assert.Equal(t, FallbackReply, reply.Text)
}

func TestRespond_Arabic(t *testing.T) {
	f := newFixture(t)

	reply := f.svc.Respond(context.Background(), Request{Message: "صورة"})

	assert.True(t, locale.IsArabic(reply.Language))
	assert.True(t, reply.Intent.WantsImage)
	assert.Equal(t, "مجوهرات ذهبية فاخرة وسبائك ذهب", reply.Intent.ResidualPrompt)
	require.Len(t, f.images.calls, 1)
	assert.True(t, locale.IsArabic(f.images.calls[0].Lang))
	assert.Contains(t, f.provider.last[0].Content, "Language: Arabic")
	assert.Contains(t, f.provider.last[0].Content, "بيانات السوق الحالية:")
}

func TestRespond_UsesStoredSessionContext(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.repo.Save(ctx, "s1", []ChatMessage{
		{Role: RoleUser, Content: "one"},
		{Role: RoleAssistant, Content: "two"},
		{Role: RoleUser, Content: "three"},
		{Role: RoleAssistant, Content: "four"},
	}, ""))

	f.svc.Respond(ctx, Request{Message: "five", SessionID: "s1"})

	// system + 3 prior turns + new message
	require.Len(t, f.provider.last, 5)
	assert.Equal(t, "two", f.provider.last[1].Content)
	assert.Equal(t, "four", f.provider.last[3].Content)
	assert.Equal(t, "five", f.provider.last[4].Content)

	f.svc.Respond(ctx, Request{Message: "hi", SessionID: "unknown"})
	assert.Len(t, f.provider.last, 2)
}

func TestRespond_PanickingStepsDegrade(t *testing.T) {
	f := newFixture(t)
	f.charts.panics = true
	f.images.panics = true

	var reply Reply
	require.NotPanics(t, func() {
		reply = f.svc.Respond(context.Background(), Request{Message: "generate image and a price chart"})
	})
	assert.Nil(t, reply.Chart)
	assert.Nil(t, reply.Image)
	assert.Equal(t, "ok", reply.Text)

	f.charts.panics = false
	f.images.panics = false
	f.provider.panics = true
	require.NotPanics(t, func() {
		reply = f.svc.Respond(context.Background(), Request{Message: "show the gold trend"})
	})
	assert.Equal(t, FallbackReply, reply.Text)
	assert.NotNil(t, reply.Chart)
}

func TestRespond_HungProviderTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	f := newFixture(t)
	f.svc.registry.Register("hung", func(context.Context, string) (ai.Provider, error) {
		return ai.NewOpenAIProvider(ai.OpenAIOptions{APIKey: "k", BaseURL: srv.URL + "/v1", Timeout: 100 * time.Millisecond}), nil
	})
	f.svc.opts.Provider = "hung"

	start := time.Now()
	reply := f.svc.Respond(context.Background(), Request{Message: "hello"})
	assert.Equal(t, FallbackReply, reply.Text)
	assert.Less(t, time.Since(start), 5*time.Second)
}

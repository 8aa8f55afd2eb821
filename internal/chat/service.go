package chat

import (
	"context"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/suPer8Hu/goldgpt/internal/ai"
	"github.com/suPer8Hu/goldgpt/internal/composer"
	"github.com/suPer8Hu/goldgpt/internal/imagegen"
	"github.com/suPer8Hu/goldgpt/internal/intent"
	"github.com/suPer8Hu/goldgpt/internal/locale"
	"github.com/suPer8Hu/goldgpt/internal/market"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
)

type ImageGenerator interface {
	Generate(ctx context.Context, req imagegen.Request) imagegen.Result
}

type ChartSource interface {
	GoldChart(ctx context.Context) (*market.Chart, error)
}

type ContextComposer interface {
	Compose(ctx context.Context, text string, lang language.Tag) composer.Context
}

type Options struct {
	Provider      string
	Model         string
	ContextWindow int
	Business      Business
}

type Service struct {
	repo       *Repo
	registry   *ai.Registry
	classifier *intent.Classifier
	composer   ContextComposer
	images     ImageGenerator
	charts     ChartSource
	opts       Options
	log        *slog.Logger
}

// NewService wires the orchestrator. images and charts may be nil, in which
// case those attachments are never produced.
func NewService(
	repo *Repo,
	registry *ai.Registry,
	classifier *intent.Classifier,
	cc ContextComposer,
	images ImageGenerator,
	charts ChartSource,
	opts Options,
	log *slog.Logger,
) *Service {
	if opts.Business.Name == "" {
		opts.Business = DefaultBusiness
	}
	if opts.ContextWindow < 0 || opts.ContextWindow > 100 {
		opts.ContextWindow = 10
	}
	return &Service{
		repo:       repo,
		registry:   registry,
		classifier: classifier,
		composer:   cc,
		images:     images,
		charts:     charts,
		opts:       opts,
		log:        log,
	}
}

type Request struct {
	Message   string
	SessionID string
}

// Reply is the assembled answer. Chart and Image are nil when not asked for
// or when producing them failed.
type Reply struct {
	Text     string
	Chart    *market.Chart
	Image    *imagegen.Attachment
	Language language.Tag
	Intent   intent.Intent
}

// Respond runs one message through detection, classification, the optional
// image and chart side effects and the LLM call. It never fails: an LLM
// error turns into FallbackReply and attachment errors drop the attachment.
func (s *Service) Respond(ctx context.Context, req Request) Reply {
	lang := locale.Detect(req.Message)
	in := s.classifier.Classify(req.Message, lang)
	reply := Reply{Language: lang, Intent: in}

	s.log.Info("chat request",
		"session_id", req.SessionID,
		"language", locale.Code(lang),
		"wants_image", in.WantsImage,
		"wants_chart", in.WantsChart,
	)

	var g errgroup.Group
	if in.WantsImage {
		g.Go(func() error {
			defer s.recoverStep("image", func() { reply.Image = nil })
			reply.Image = s.generateImage(ctx, in.ResidualPrompt, lang)
			return nil
		})
	}
	if in.WantsChart {
		g.Go(func() error {
			defer s.recoverStep("chart", func() { reply.Chart = nil })
			reply.Chart = s.fetchChart(ctx)
			return nil
		})
	}
	g.Go(func() error {
		defer s.recoverStep("llm", func() { reply.Text = FallbackReply })
		reply.Text = s.complete(ctx, req, lang)
		return nil
	})
	_ = g.Wait()

	return reply
}

// recoverStep turns a panic in one concurrent step into that step's degraded
// result. The steps run outside the HTTP handler goroutine, so nothing else
// would catch it.
func (s *Service) recoverStep(step string, degrade func()) {
	if r := recover(); r != nil {
		s.log.Error("panic in chat step", "step", step, "panic", r, "stack", string(debug.Stack()))
		degrade()
	}
}

func (s *Service) generateImage(ctx context.Context, prompt string, lang language.Tag) *imagegen.Attachment {
	if s.images == nil {
		s.log.Warn("image requested but generation is not configured")
		return nil
	}
	res := s.images.Generate(ctx, imagegen.Request{Prompt: prompt, Lang: lang})
	if !res.Success {
		s.log.Error("image generation failed", "error", res.Error)
		return nil
	}
	s.log.Info("image generated", "filename", res.Filename)
	return res.Attachment()
}

func (s *Service) fetchChart(ctx context.Context) *market.Chart {
	if s.charts == nil {
		return nil
	}
	c, err := s.charts.GoldChart(ctx)
	if err != nil {
		s.log.Error("chart generation failed", "error", err)
		return nil
	}
	return c
}

func (s *Service) complete(ctx context.Context, req Request, lang language.Tag) string {
	start := time.Now()

	provider, err := s.registry.Get(ctx, s.opts.Provider, s.opts.Model)
	if err != nil {
		s.log.Error("llm provider unavailable", "provider", s.opts.Provider, "error", err)
		return FallbackReply
	}

	cc := s.composer.Compose(ctx, req.Message, lang)
	msgs := []ai.Message{{Role: ai.RoleSystem, Content: SystemPrompt(s.opts.Business, cc, lang)}}
	msgs = append(msgs, s.priorTurns(ctx, req.SessionID)...)
	msgs = append(msgs, ai.Message{Role: ai.RoleUser, Content: req.Message})

	out, err := provider.Chat(ctx, msgs)
	if err != nil {
		s.log.Error("llm call failed", "provider", s.opts.Provider, "cost", time.Since(start), "error", err)
		return FallbackReply
	}
	if strings.TrimSpace(out) == "" {
		s.log.Error("llm returned empty reply", "provider", s.opts.Provider)
		return FallbackReply
	}
	return out
}

// priorTurns loads the tail of a stored session. Lookup failures only cost
// context, so they are logged and ignored.
func (s *Service) priorTurns(ctx context.Context, sessionID string) []ai.Message {
	if s.repo == nil || sessionID == "" || s.opts.ContextWindow == 0 {
		return nil
	}
	recent, err := s.repo.Recent(ctx, sessionID, s.opts.ContextWindow)
	if err != nil {
		s.log.Warn("load session context failed", "session_id", sessionID, "error", err)
		return nil
	}
	out := make([]ai.Message, 0, len(recent))
	for _, m := range recent {
		out = append(out, ai.Message{Role: m.Role, Content: m.Content})
	}
	return out
}

func (s *Service) SaveSession(ctx context.Context, id string, msgs []ChatMessage, title string) error {
	return s.repo.Save(ctx, id, msgs, title)
}

func (s *Service) LoadSession(ctx context.Context, id string) (*SessionView, error) {
	return s.repo.Load(ctx, id)
}

func (s *Service) History(ctx context.Context) (History, error) {
	return s.repo.List(ctx)
}

func (s *Service) DeleteSession(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

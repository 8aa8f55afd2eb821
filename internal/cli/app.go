package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/suPer8Hu/goldgpt/internal/ai"
	"github.com/suPer8Hu/goldgpt/internal/catalog"
	"github.com/suPer8Hu/goldgpt/internal/chat"
	"github.com/suPer8Hu/goldgpt/internal/composer"
	"github.com/suPer8Hu/goldgpt/internal/config"
	"github.com/suPer8Hu/goldgpt/internal/db"
	"github.com/suPer8Hu/goldgpt/internal/httpapi/middleware"
	"github.com/suPer8Hu/goldgpt/internal/imagegen"
	"github.com/suPer8Hu/goldgpt/internal/intent"
	"github.com/suPer8Hu/goldgpt/internal/market"
	"github.com/suPer8Hu/goldgpt/internal/store/rabbitmq"
	"github.com/suPer8Hu/goldgpt/internal/store/redisstore"
	"gorm.io/gorm"
)

// App holds every wired component. Optional pieces are nil when their
// backing service is not configured.
type App struct {
	Cfg     config.Config
	Log     *slog.Logger
	DB      *gorm.DB
	Catalog *catalog.Catalog
	Market  *market.Service
	Images  *imagegen.Service
	Jobs    *imagegen.JobRepo
	Chat    *chat.Service

	Queue   *imagegen.Queue    // nil without RabbitMQ
	Limiter middleware.Limiter // nil without Redis

	closers []func() error
}

type buildOptions struct {
	publisher bool
	limiter   bool
}

func buildApp(ctx context.Context, cfg config.Config, log *slog.Logger, opts buildOptions) (*App, error) {
	a := &App{Cfg: cfg, Log: log}

	gdb, err := db.Connect(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(gdb); err != nil {
		return nil, err
	}
	a.DB = gdb
	if sqlDB, err := gdb.DB(); err == nil {
		a.closers = append(a.closers, sqlDB.Close)
	}

	products, err := catalog.LoadFile(cfg.ProductsCSV, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Catalog = catalog.New(products)
	log.Info("catalog loaded", "products", a.Catalog.Len())

	tables, err := intent.LoadTables(cfg.KeywordsFile)
	if err != nil {
		a.Close()
		return nil, err
	}
	classifier := intent.NewClassifier(tables)

	yahoo := market.NewYahooSource(10 * time.Second)
	a.Market = market.NewService(yahoo, yahoo,
		market.NewMetalPriceClient(cfg.MetalAPIURL, cfg.MetalAPIKey, 10*time.Second),
		market.Options{
			GoldSymbol: cfg.GoldSymbol,
			ChartDays:  cfg.ChartDays,
			Kuwait: market.KuwaitTable{
				K24: cfg.Kuwait24K, K22: cfg.Kuwait22K, K21: cfg.Kuwait21K, K18: cfg.Kuwait18K,
			},
		}, log)

	var gen imagegen.Generator
	if cfg.OpenAIAPIKey != "" {
		gen = imagegen.NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIImageModel, cfg.ImageTimeout)
	} else {
		log.Warn("OPENAI_API_KEY not set, image generation disabled")
	}
	a.Images = imagegen.NewService(gen, nil, cfg.ImagesDir, cfg.DownloadTimeout, log)
	a.Jobs = imagegen.NewJobRepo(gdb)

	reg := newRegistry(cfg)
	if !slices.Contains(reg.Names(), strings.ToLower(strings.TrimSpace(cfg.AIProvider))) {
		log.Warn("AI_PROVIDER is not registered, every reply will be the fallback",
			"provider", cfg.AIProvider, "registered", reg.Names())
	}
	log.Info("assistant configured", "provider", cfg.AIProvider, "registered", reg.Names(), "images_dir", a.Images.Dir())

	cc := composer.New(a.Market, a.Catalog, classifier, log)
	a.Chat = chat.NewService(chat.NewRepo(gdb), reg, classifier, cc, a.Images, a.Market,
		chat.Options{Provider: cfg.AIProvider, ContextWindow: cfg.ChatContextWindow}, log)

	if opts.limiter && cfg.RedisAddr != "" {
		store := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := store.Ping(pctx); err != nil {
			log.Warn("redis ping failed, rate limiting fails open until it recovers", "error", err)
		}
		cancel()
		a.Limiter = store
		a.closers = append(a.closers, store.Close)
	}

	if opts.publisher && cfg.RabbitURL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			log.Warn("rabbitmq unavailable, async image jobs disabled", "error", err)
		} else {
			a.Queue = imagegen.NewQueue(a.Jobs, pub)
			a.closers = append(a.closers, pub.Close)
		}
	}
	return a, nil
}

func newRegistry(cfg config.Config) *ai.Registry {
	reg := ai.NewRegistry()
	reg.Register("openai", func(ctx context.Context, model string) (ai.Provider, error) {
		_ = ctx
		if cfg.OpenAIAPIKey == "" {
			return nil, errors.New("OPENAI_API_KEY is not set")
		}
		m := strings.TrimSpace(model)
		if m == "" {
			m = cfg.OpenAIModel
		}
		return ai.NewOpenAIProvider(ai.OpenAIOptions{
			APIKey:      cfg.OpenAIAPIKey,
			BaseURL:     cfg.OpenAIBaseURL,
			Model:       m,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			Timeout:     cfg.LLMTimeout,
		}), nil
	})
	reg.Register("ollama", func(ctx context.Context, model string) (ai.Provider, error) {
		_ = ctx
		m := strings.TrimSpace(model)
		if m == "" {
			m = cfg.OllamaModel
		}
		return ai.NewOllamaProvider(cfg.OllamaBaseURL, m), nil
	})
	return reg
}

// Close releases everything in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if len(errs) > 0 {
		return fmt.Errorf("close app: %w", errors.Join(errs...))
	}
	return nil
}

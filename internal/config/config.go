package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	// HTTP
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":5003"`
	BasePath string `env:"HTTP_BASE_PATH" envDefault:"/api"`

	SlowRequestThreshold time.Duration `env:"SLOW_REQUEST_THRESHOLD" envDefault:"2s"`
	// must outlast the slowest handler: LLM call plus image generation and download
	HTTPWriteTimeout     time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"11m"`

	// DSN demo:
	// sqlite: goldgpt_chats.db
	// mysql:  app:apppass@tcp(127.0.0.1:3306)/goldgpt?charset=utf8mb4&parseTime=true&loc=Local
	DBDriver string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBDSN    string `env:"DB_DSN" envDefault:"goldgpt_chats.db"`

	// redis (empty addr disables rate limiting)
	RedisAddr          string `env:"REDIS_ADDR"`
	RedisPassword      string `env:"REDIS_PASSWORD"`
	RedisDB            int    `env:"REDIS_DB" envDefault:"0"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"30"`

	// AI provider
	AIProvider       string  `env:"AI_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey     string  `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string  `env:"OPENAI_BASE_URL"`
	OpenAIModel      string  `env:"OPENAI_MODEL" envDefault:"gpt-4"`
	OpenAIImageModel string  `env:"OPENAI_IMAGE_MODEL" envDefault:"dall-e-3"`
	MaxTokens        int     `env:"AI_MAX_TOKENS" envDefault:"2000"`
	Temperature      float32 `env:"AI_TEMPERATURE" envDefault:"0.5"`
	OllamaBaseURL    string  `env:"OLLAMA_BASE_URL" envDefault:"http://localhost:11434"`
	OllamaModel      string  `env:"OLLAMA_MODEL" envDefault:"llama3:latest"`

	LLMTimeout   time.Duration `env:"LLM_TIMEOUT" envDefault:"600s"`
	ImageTimeout time.Duration `env:"IMAGE_TIMEOUT" envDefault:"120s"`

	// prior turns of a stored session sent along with a new message; 0 disables
	ChatContextWindow int `env:"CHAT_CONTEXT_WINDOW" envDefault:"10"`

	// market data
	GoldSymbol  string  `env:"GOLD_SYMBOL" envDefault:"GC=F"`
	ChartDays   int     `env:"CHART_DAYS" envDefault:"30"`
	MetalAPIKey string  `env:"METAL_API_KEY"`
	MetalAPIURL string  `env:"METAL_API_URL" envDefault:"https://api.metalpriceapi.com/v1/latest"`
	Kuwait24K   float64 `env:"KUWAIT_24K_KWD" envDefault:"33.78"`
	Kuwait22K   float64 `env:"KUWAIT_22K_KWD" envDefault:"31.01"`
	Kuwait21K   float64 `env:"KUWAIT_21K_KWD" envDefault:"29.56"`
	Kuwait18K   float64 `env:"KUWAIT_18K_KWD" envDefault:"25.34"`

	// catalog, images, keyword tables
	ProductsCSV     string        `env:"PRODUCTS_CSV" envDefault:"products_with_descriptions.csv"`
	ImagesDir       string        `env:"IMAGES_DIR" envDefault:"generated_images"`
	KeywordsFile    string        `env:"KEYWORDS_FILE"`
	DownloadTimeout time.Duration `env:"DOWNLOAD_TIMEOUT" envDefault:"30s"`

	// rabbitMQ (empty url disables async image jobs)
	RabbitURL         string `env:"RABBIT_URL"`
	RabbitQueue       string `env:"RABBIT_QUEUE" envDefault:"image_jobs"`
	WorkerConcurrency int    `env:"WORKER_CONCURRENCY" envDefault:"2"`

	// logging
	LogFile  string `env:"LOG_FILE"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"INFO"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.BasePath = "/" + strings.Trim(cfg.BasePath, "/")
	if cfg.BasePath == "/" {
		cfg.BasePath = ""
	}
	if cfg.WorkerConcurrency <= 0 {
		cfg.WorkerConcurrency = 2
	}
	if cfg.WorkerConcurrency > 50 {
		cfg.WorkerConcurrency = 50
	}
	if cfg.ChatContextWindow < 0 {
		cfg.ChatContextWindow = 0
	}
	if cfg.ChatContextWindow > 100 {
		cfg.ChatContextWindow = 100
	}
	if cfg.ChartDays <= 0 {
		cfg.ChartDays = 30
	}
	return cfg, nil
}

func (c Config) SlogLevel() slog.Level {
	return ParseLogLevel(c.LogLevel)
}

func ParseLogLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

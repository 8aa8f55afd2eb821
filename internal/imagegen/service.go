// Package imagegen generates product images, stores them on disk and hands
// them back as base64 for immediate display.
package imagegen

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/suPer8Hu/goldgpt/internal/common"
	"golang.org/x/text/language"
)

var ErrImageNotFound = errors.New("image not found")

// Result is the outcome of one generation. Failures are reported through
// Success and Error rather than a Go error.
type Result struct {
	Success        bool   `json:"success"`
	ImageURL       string `json:"image_url,omitempty"`
	Filename       string `json:"filename,omitempty"`
	Base64         string `json:"base64,omitempty"`
	Prompt         string `json:"-"`
	EnhancedPrompt string `json:"enhanced_prompt,omitempty"`
	Error          string `json:"error,omitempty"`
	Message        string `json:"message"`
}

// Attachment is the image part of a chat reply.
type Attachment struct {
	URL            string `json:"url"`
	Filename       string `json:"filename"`
	Base64         string `json:"base64"`
	Prompt         string `json:"prompt"`
	OriginalPrompt string `json:"original_prompt"`
}

// Attachment returns nil for failed results.
func (r Result) Attachment() *Attachment {
	if !r.Success {
		return nil
	}
	return &Attachment{
		URL:            r.ImageURL,
		Filename:       r.Filename,
		Base64:         r.Base64,
		Prompt:         r.EnhancedPrompt,
		OriginalPrompt: r.Prompt,
	}
}

type Request struct {
	Prompt   string
	Filename string
	Lang     language.Tag
}

type ImageInfo struct {
	Filename string    `json:"filename"`
	Size     int64     `json:"size"`
	Created  time.Time `json:"created"`
	URL      string    `json:"url"`
}

type Service struct {
	gen      Generator
	enhancer *Enhancer
	dir      string
	http     *resty.Client
	log      *slog.Logger
	now      func() time.Time
}

func NewService(gen Generator, enhancer *Enhancer, dir string, downloadTimeout time.Duration, log *slog.Logger) *Service {
	if enhancer == nil {
		enhancer = DefaultEnhancer()
	}
	if downloadTimeout <= 0 {
		downloadTimeout = 30 * time.Second
	}
	return &Service{
		gen:      gen,
		enhancer: enhancer,
		dir:      dir,
		http:     resty.New().SetTimeout(downloadTimeout),
		log:      log,
		now:      time.Now,
	}
}

func (s *Service) Dir() string { return s.dir }

func (s *Service) Generate(ctx context.Context, req Request) Result {
	enhanced := s.enhancer.Enhance(req.Prompt, req.Lang)
	s.log.Info("generating image", "prompt", enhanced)

	fail := func(stage string, err error) Result {
		s.log.Error("image generation failed", "stage", stage, "error", err)
		return Result{
			Success:        false,
			Prompt:         req.Prompt,
			EnhancedPrompt: enhanced,
			Error:          err.Error(),
			Message:        fmt.Sprintf("Image generation failed during %s: %v", stage, err),
		}
	}

	if s.gen == nil {
		return fail("generation", errors.New("image generator is not configured"))
	}
	url, err := s.gen.Generate(ctx, enhanced)
	if err != nil {
		return fail("generation", err)
	}

	name := s.resolveFilename(req.Filename)
	data, err := s.download(ctx, url)
	if err != nil {
		return fail("download", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fail("save", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return fail("save", err)
	}

	s.log.Info("image saved", "filename", name, "bytes", len(data))
	return Result{
		Success:        true,
		ImageURL:       url,
		Filename:       name,
		Base64:         base64.StdEncoding.EncodeToString(data),
		Prompt:         req.Prompt,
		EnhancedPrompt: enhanced,
		Message:        fmt.Sprintf("Image generated successfully: '%s'", name),
	}
}

func (s *Service) download(ctx context.Context, url string) ([]byte, error) {
	resp, err := s.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("download image: status %d", resp.StatusCode())
	}
	return resp.Body(), nil
}

// resolveFilename keeps only the base name and forces a .png extension.
func (s *Service) resolveFilename(name string) string {
	name = strings.TrimSpace(name)
	if name != "" {
		name = filepath.Base(filepath.Clean("/" + name))
	}
	if name == "" || name == "/" || name == "." {
		return fmt.Sprintf("goldgpt_image_%s_%s.png", s.now().Format("20060102_150405"), common.ShortID())
	}
	if !strings.HasSuffix(strings.ToLower(name), ".png") {
		name += ".png"
	}
	return name
}

// Open returns the on-disk path of a stored image.
func (s *Service) Open(name string) (string, error) {
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." || base != name {
		return "", ErrImageNotFound
	}
	path := filepath.Join(s.dir, base)
	st, err := os.Stat(path)
	if err != nil || st.IsDir() {
		return "", ErrImageNotFound
	}
	return path, nil
}

// List returns stored images, newest first. urlPrefix is prepended to each
// file name.
func (s *Service) List(urlPrefix string) ([]ImageInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []ImageInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}

	out := make([]ImageInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !isImageFile(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, ImageInfo{
			Filename: e.Name(),
			Size:     info.Size(),
			Created:  info.ModTime(),
			URL:      strings.TrimRight(urlPrefix, "/") + "/" + e.Name(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Created.After(out[j].Created) })
	return out, nil
}

func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

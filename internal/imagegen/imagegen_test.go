package imagegen

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suPer8Hu/goldgpt/internal/locale"
	"gorm.io/gorm"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\nfake")

type fakeGenerator struct {
	url    string
	err    error
	calls  int
	prompt string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.calls++
	g.prompt = prompt
	return g.url, g.err
}

type fakePublisher struct {
	ids []string
	err error
}

func (p *fakePublisher) PublishJob(_ context.Context, id string) error {
	p.ids = append(p.ids, id)
	return p.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func imageServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngBytes)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Job{}))
	return db
}

func TestEnhance_CategoryOrder(t *testing.T) {
	e := DefaultEnhancer()

	got := e.Enhance("of a gold ring", locale.English)
	assert.Equal(t, "of a gold ring, elegant gold ring with intricate details, luxury jewelry photography, professional lighting, white background", got)

	got = e.Enhance("diamond earrings", locale.English)
	assert.True(t, strings.HasSuffix(got, "exquisite gold earrings, luxury jewelry photography, professional lighting, white background"))

	got = e.Enhance("stacked gold bars", locale.English)
	assert.Contains(t, got, "pure gold bars stacked elegantly")
}

func TestEnhance_RingNeedsWordStart(t *testing.T) {
	e := DefaultEnhancer()

	got := e.Enhance("bring me a necklace", locale.English)
	assert.Contains(t, got, "beautiful gold necklace")
	assert.NotContains(t, got, "elegant gold ring")
}

func TestEnhance_GenericAndArabic(t *testing.T) {
	e := DefaultEnhancer()

	got := e.Enhance("platinum investment", locale.English)
	assert.Equal(t, "platinum investment, luxury precious metals photography, professional lighting, elegant presentation, high quality, detailed", got)

	got = e.Enhance("مجوهرات فاخرة", locale.Arabic)
	assert.Equal(t, "مجوهرات فاخرة, تصوير مجوهرات فاخرة، إضاءة احترافية، عرض أنيق، جودة عالية", got)

	arabicSuffix := ", تصوير مجوهرات فاخرة، إضاءة احترافية، عرض أنيق، جودة عالية"
	assert.Equal(t, "خاتم ذهب"+arabicSuffix, e.Enhance("خاتم ذهب", locale.Arabic))
	assert.Equal(t, "مجوهرات ذهبية فاخرة وسبائك ذهب"+arabicSuffix, e.Enhance("مجوهرات ذهبية فاخرة وسبائك ذهب", locale.Arabic))

	// Latin triggers keep their category suffix whatever the locale
	got = e.Enhance("خاتم ring", locale.Arabic)
	assert.Contains(t, got, "elegant gold ring")

	assert.Equal(t, "a sunset", e.Enhance("a sunset", locale.English))
}

func TestGenerate_Success(t *testing.T) {
	srv := imageServer(t)
	gen := &fakeGenerator{url: srv.URL + "/img.png"}
	dir := t.TempDir()
	svc := NewService(gen, nil, dir, time.Second, testLogger())

	res := svc.Generate(context.Background(), Request{Prompt: "of a gold ring", Filename: "my-ring", Lang: locale.English})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, "my-ring.png", res.Filename)
	assert.Equal(t, base64.StdEncoding.EncodeToString(pngBytes), res.Base64)
	assert.Contains(t, gen.prompt, "elegant gold ring")
	assert.Equal(t, gen.prompt, res.EnhancedPrompt)

	data, err := os.ReadFile(filepath.Join(dir, "my-ring.png"))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)

	att := res.Attachment()
	require.NotNil(t, att)
	assert.Equal(t, "of a gold ring", att.OriginalPrompt)
	assert.Equal(t, res.EnhancedPrompt, att.Prompt)
}

func TestGenerate_FilenameIsSanitized(t *testing.T) {
	srv := imageServer(t)
	dir := t.TempDir()
	svc := NewService(&fakeGenerator{url: srv.URL + "/x"}, nil, dir, time.Second, testLogger())
	svc.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

	res := svc.Generate(context.Background(), Request{Prompt: "gold", Filename: "../../etc/passwd"})
	require.True(t, res.Success)
	assert.Equal(t, "passwd.png", res.Filename)
	assert.FileExists(t, filepath.Join(dir, "passwd.png"))

	res = svc.Generate(context.Background(), Request{Prompt: "gold"})
	require.True(t, res.Success)
	assert.True(t, strings.HasPrefix(res.Filename, "goldgpt_image_20250102_030405_"))
	assert.True(t, strings.HasSuffix(res.Filename, ".png"))

	res = svc.Generate(context.Background(), Request{Prompt: "gold", Filename: "Photo.PNG"})
	assert.Equal(t, "Photo.PNG", res.Filename)
}

func TestGenerate_Failures(t *testing.T) {
	srv := imageServer(t)

	svc := NewService(&fakeGenerator{err: errors.New("quota exceeded")}, nil, t.TempDir(), time.Second, testLogger())
	res := svc.Generate(context.Background(), Request{Prompt: "gold"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "quota exceeded")
	assert.Nil(t, res.Attachment())

	svc = NewService(&fakeGenerator{url: srv.URL + "/missing.png"}, nil, t.TempDir(), time.Second, testLogger())
	res = svc.Generate(context.Background(), Request{Prompt: "gold"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "download")

	svc = NewService(nil, nil, t.TempDir(), time.Second, testLogger())
	res = svc.Generate(context.Background(), Request{Prompt: "gold"})
	assert.False(t, res.Success)
}

func TestListAndOpen(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(nil, nil, dir, time.Second, testLogger())

	list, err := svc.List("/api/images")
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.png"), pngBytes, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	list, err = svc.List("/api/images/")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a.png", list[0].Filename)
	assert.Equal(t, int64(len(pngBytes)), list[0].Size)
	assert.Equal(t, "/api/images/a.png", list[0].URL)

	path, err := svc.Open("a.png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a.png"), path)

	_, err = svc.Open("b.png")
	assert.ErrorIs(t, err, ErrImageNotFound)
	_, err = svc.Open("../a.png")
	assert.ErrorIs(t, err, ErrImageNotFound)

	missing := NewService(nil, nil, filepath.Join(dir, "nope"), time.Second, testLogger())
	list, err = missing.List("/api/images")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestQueueAndRunner(t *testing.T) {
	db := openTestDB(t)
	repo := NewJobRepo(db)
	pub := &fakePublisher{}
	q := NewQueue(repo, pub)

	job, err := q.Submit(context.Background(), Request{Prompt: "gold coin", Filename: "coin", Lang: locale.Arabic})
	require.NoError(t, err)
	assert.Len(t, job.ID, 26)
	assert.Equal(t, []string{job.ID}, pub.ids)
	assert.Equal(t, JobQueued, job.Status)
	assert.Equal(t, "ar", job.Language)

	srv := imageServer(t)
	dir := t.TempDir()
	runner := NewRunner(NewService(&fakeGenerator{url: srv.URL + "/c.png"}, nil, dir, time.Second, testLogger()), repo, testLogger())
	require.NoError(t, runner.Run(context.Background(), job.ID))

	got, err := q.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobSucceeded, got.Status)
	require.NotNil(t, got.ResultFilename)
	assert.Equal(t, "coin.png", *got.ResultFilename)
	assert.FileExists(t, filepath.Join(dir, "coin.png"))

	// redelivery of a finished job is a no-op
	require.NoError(t, runner.Run(context.Background(), job.ID))

	_, err = q.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestRunner_GenerationFailureMarksJob(t *testing.T) {
	db := openTestDB(t)
	repo := NewJobRepo(db)
	job := &Job{Prompt: "gold"}
	require.NoError(t, repo.Create(context.Background(), job))

	runner := NewRunner(NewService(&fakeGenerator{err: errors.New("blocked")}, nil, t.TempDir(), time.Second, testLogger()), repo, testLogger())
	require.NoError(t, runner.Run(context.Background(), job.ID))

	got, err := repo.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobFailed, got.Status)
	require.NotNil(t, got.Error)
	assert.Contains(t, *got.Error, "blocked")
}

func TestQueue_PublishFailure(t *testing.T) {
	db := openTestDB(t)
	repo := NewJobRepo(db)
	q := NewQueue(repo, &fakePublisher{err: errors.New("broker down")})

	_, err := q.Submit(context.Background(), Request{Prompt: "gold"})
	require.Error(t, err)

	var jobs []Job
	require.NoError(t, db.Find(&jobs).Error)
	require.Len(t, jobs, 1)
	assert.Equal(t, JobFailed, jobs[0].Status)
}

func TestOpenAIGenerator_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	gen := NewOpenAIGenerator("k", srv.URL+"/v1", "", 100*time.Millisecond)
	svc := NewService(gen, nil, t.TempDir(), time.Second, testLogger())

	start := time.Now()
	res := svc.Generate(context.Background(), Request{Prompt: "gold ring", Lang: locale.English})
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
	assert.Less(t, time.Since(start), 5*time.Second)
}

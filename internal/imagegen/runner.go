package imagegen

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/suPer8Hu/goldgpt/internal/locale"
)

// Publisher hands a job id to the queue.
type Publisher interface {
	PublishJob(ctx context.Context, jobID string) error
}

// Queue stores jobs and publishes them for the worker.
type Queue struct {
	repo *JobRepo
	pub  Publisher
}

func NewQueue(repo *JobRepo, pub Publisher) *Queue {
	return &Queue{repo: repo, pub: pub}
}

func (q *Queue) Submit(ctx context.Context, req Request) (*Job, error) {
	job := &Job{
		Prompt:   req.Prompt,
		Filename: req.Filename,
		Language: locale.Code(req.Lang),
	}
	if err := q.repo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create image job: %w", err)
	}
	if err := q.pub.PublishJob(ctx, job.ID); err != nil {
		_ = q.repo.MarkFailed(ctx, job.ID, "enqueue failed: "+err.Error())
		return nil, fmt.Errorf("publish image job: %w", err)
	}
	return job, nil
}

func (q *Queue) Get(ctx context.Context, id string) (*Job, error) {
	return q.repo.Get(ctx, id)
}

// Runner executes queued jobs. It is what the worker calls per delivery.
type Runner struct {
	svc  *Service
	repo *JobRepo
	log  *slog.Logger
}

func NewRunner(svc *Service, repo *JobRepo, log *slog.Logger) *Runner {
	return &Runner{svc: svc, repo: repo, log: log}
}

// Run processes one job. A job that is not in the queued state is skipped.
// The returned error means the delivery should be dead-lettered.
func (r *Runner) Run(ctx context.Context, jobID string) error {
	start := time.Now()

	claimed, err := r.repo.MarkRunning(ctx, jobID)
	if err != nil {
		return err
	}
	if !claimed {
		r.log.Info("image job not queued, skipping", "job_id", jobID)
		return nil
	}

	j, err := r.repo.Get(ctx, jobID)
	if err != nil {
		return err
	}

	lang := locale.English
	if j.Language == locale.Code(locale.Arabic) {
		lang = locale.Arabic
	}
	res := r.svc.Generate(ctx, Request{Prompt: j.Prompt, Filename: j.Filename, Lang: lang})
	if !res.Success {
		if err := r.repo.MarkFailed(ctx, jobID, res.Error); err != nil {
			return err
		}
		r.log.Warn("image job failed", "job_id", jobID, "error", res.Error, "cost", time.Since(start))
		return nil
	}

	if err := r.repo.MarkSucceeded(ctx, jobID, res.Filename, res.EnhancedPrompt); err != nil {
		return err
	}
	if cost := time.Since(start); cost > 2*time.Second {
		r.log.Info("image job timing", "job_id", jobID, "cost", cost)
	}
	return nil
}

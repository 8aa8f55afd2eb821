package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/goldgpt/internal/common"
	"github.com/suPer8Hu/goldgpt/internal/imagegen"
	"github.com/suPer8Hu/goldgpt/internal/locale"
)

type generateImageReq struct {
	Prompt   string `json:"prompt"`
	Filename string `json:"filename"`
	Async    bool   `json:"async"`
}

func (h *Handler) GenerateImage(c *gin.Context) {
	var req generateImageReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Prompt) == "" {
		common.Fail(c, http.StatusBadRequest, "Prompt is required")
		return
	}
	ireq := imagegen.Request{
		Prompt:   req.Prompt,
		Filename: req.Filename,
		Lang:     locale.Detect(req.Prompt),
	}

	if req.Async && h.JobQueue != nil {
		job, err := h.JobQueue.Submit(c.Request.Context(), ireq)
		if err != nil {
			h.Log.Error("enqueue image job failed", "error", err)
			common.Fail(c, http.StatusInternalServerError, "failed to enqueue image job")
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"job_id": job.ID, "status": job.Status})
		return
	}

	res := h.ImageSvc.Generate(c.Request.Context(), ireq)
	if !res.Success {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   res.Error,
			"message": res.Message,
		})
		return
	}
	common.OK(c, res)
}

func (h *Handler) GetImageJob(c *gin.Context) {
	if h.JobQueue == nil {
		common.Fail(c, http.StatusNotFound, "Job not found")
		return
	}
	job, err := h.JobQueue.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, imagegen.ErrJobNotFound) {
		common.Fail(c, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	out := gin.H{"job_id": job.ID, "status": job.Status}
	if job.ResultFilename != nil {
		out["filename"] = *job.ResultFilename
		out["url"] = strings.TrimRight(h.ImagesURL, "/") + "/" + *job.ResultFilename
	}
	if job.EnhancedPrompt != nil {
		out["enhanced_prompt"] = *job.EnhancedPrompt
	}
	if job.Error != nil {
		out["error"] = *job.Error
	}
	common.OK(c, out)
}

func (h *Handler) ServeImage(c *gin.Context) {
	path, err := h.ImageSvc.Open(c.Param("filename"))
	if err != nil {
		common.Fail(c, http.StatusNotFound, "Image not found")
		return
	}
	c.File(path)
}

func (h *Handler) ListImages(c *gin.Context) {
	images, err := h.ImageSvc.List(h.ImagesURL)
	if err != nil {
		h.Log.Error("list images failed", "error", err)
		common.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	common.OK(c, gin.H{"images": images})
}

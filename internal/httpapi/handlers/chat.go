package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/suPer8Hu/goldgpt/internal/chat"
	"github.com/suPer8Hu/goldgpt/internal/common"
	"github.com/suPer8Hu/goldgpt/internal/httpapi/middleware"
	"github.com/suPer8Hu/goldgpt/internal/imagegen"
	"github.com/suPer8Hu/goldgpt/internal/market"
)

type chatReq struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type chatResp struct {
	Response  string               `json:"response"`
	SessionID string               `json:"session_id"`
	Timestamp time.Time            `json:"timestamp"`
	Chart     *market.Chart        `json:"chart,omitempty"`
	Image     *imagegen.Attachment `json:"image,omitempty"`
}

func (h *Handler) Chat(c *gin.Context) {
	var req chatReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		common.Fail(c, http.StatusBadRequest, "Message is required")
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	reply := h.ChatSvc.Respond(c.Request.Context(), chat.Request{
		Message:   req.Message,
		SessionID: req.SessionID,
	})

	h.Log.Info("chat reply",
		"request_id", middleware.RequestIDFrom(c),
		"session_id", req.SessionID,
		"with_image", reply.Image != nil,
		"with_chart", reply.Chart != nil,
	)
	common.OK(c, chatResp{
		Response:  reply.Text,
		SessionID: req.SessionID,
		Timestamp: h.now(),
		Chart:     reply.Chart,
		Image:     reply.Image,
	})
}

func (h *Handler) ChatHistory(c *gin.Context) {
	history, err := h.ChatSvc.History(c.Request.Context())
	if err != nil {
		h.Log.Error("list sessions failed", "error", err)
		common.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	common.OK(c, history)
}

func (h *Handler) GetSession(c *gin.Context) {
	view, err := h.ChatSvc.LoadSession(c.Request.Context(), c.Param("id"))
	if errors.Is(err, chat.ErrSessionNotFound) {
		common.Fail(c, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		h.Log.Error("load session failed", "session_id", c.Param("id"), "error", err)
		common.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	common.OK(c, view)
}

type saveSessionReq struct {
	Messages []chat.ChatMessage `json:"messages"`
	Title    string             `json:"title"`
}

func (h *Handler) SaveSession(c *gin.Context) {
	var req saveSessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, "invalid json")
		return
	}

	err := h.ChatSvc.SaveSession(c.Request.Context(), c.Param("id"), req.Messages, req.Title)
	if errors.Is(err, chat.ErrInvalidMessage) {
		common.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.Log.Error("save session failed", "session_id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	common.OK(c, gin.H{"success": true})
}

func (h *Handler) DeleteSession(c *gin.Context) {
	if err := h.ChatSvc.DeleteSession(c.Request.Context(), c.Param("id")); err != nil {
		h.Log.Error("delete session failed", "session_id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	common.OK(c, gin.H{"success": true})
}

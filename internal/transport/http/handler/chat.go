package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"pdfchat/internal/app"
	"pdfchat/internal/transport/http/response"
)

type ChatHandler struct {
	chatService *app.ChatService
}

type ChatStreamRequest struct {
	Q         string `json:"q" binding:"required"`
	SessionID string `json:"session_id" binding:"required"`
}

func NewChatHandler(chatService *app.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Stream relays the agent's output as chunked plain text, one flush per
// chunk. There is no structured error channel: an upstream failure after
// the first chunk simply truncates the body.
func (h *ChatHandler) Stream(c *gin.Context) {
	var req ChatStreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request payload")
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		response.Error(c, http.StatusInternalServerError, "stream not supported")
		return
	}

	wrote := false
	err := h.chatService.StreamResponse(c.Request.Context(), req.Q, req.SessionID, func(chunk string) error {
		if !wrote {
			c.Header("Content-Type", "text/plain; charset=utf-8")
			c.Header("Cache-Control", "no-cache")
			c.Header("X-Accel-Buffering", "no")
			c.Status(http.StatusOK)
			wrote = true
		}
		if _, writeErr := c.Writer.Write([]byte(chunk)); writeErr != nil {
			return writeErr
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		if !wrote {
			switch {
			case errors.Is(err, app.ErrEmptyQuery), errors.Is(err, app.ErrEmptySessionID):
				response.Error(c, http.StatusBadRequest, err.Error())
			default:
				response.Error(c, http.StatusInternalServerError, "chat stream failed")
			}
			return
		}
		log.Printf("chat stream aborted: %v", err)
		return
	}

	if !wrote {
		// Run produced no output at all; still answer with an empty body.
		c.Header("Content-Type", "text/plain; charset=utf-8")
		c.Status(http.StatusOK)
	}
}

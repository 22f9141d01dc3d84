package app

import (
	"context"
	"errors"
	"strings"

	"pdfchat/internal/agent"
)

var (
	ErrEmptyQuery     = errors.New("query is empty")
	ErrEmptySessionID = errors.New("session id is empty")
)

// Sentinel tokens the client recognizes inside the text stream.
const (
	SearchingToken = "< Exploring >"
	ThinkingToken  = "< Thinking >"
)

// Runner drives one agent run, emitting events as they happen.
type Runner interface {
	Run(ctx context.Context, query, sessionID string, emit func(agent.Event) error) error
}

// ChatService relays agent run events as plain text chunks. Three event
// kinds produce output; everything else is dropped. Mid-stream errors
// propagate to the transport, truncating the response.
type ChatService struct {
	runner Runner
}

func NewChatService(runner Runner) *ChatService {
	return &ChatService{runner: runner}
}

func (s *ChatService) StreamResponse(
	ctx context.Context,
	query, sessionID string,
	onChunk func(chunk string) error,
) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return ErrEmptyQuery
	}
	if strings.TrimSpace(sessionID) == "" {
		return ErrEmptySessionID
	}

	return s.runner.Run(ctx, query, sessionID, func(ev agent.Event) error {
		switch ev.Event {
		case agent.EventToolCallStarted:
			if ev.Tool.ToolName == agent.KnowledgeSearchTool {
				return onChunk(SearchingToken)
			}
		case agent.EventReasoningStep:
			return onChunk(ThinkingToken)
		case agent.EventRunContent:
			if ev.Content != "" {
				return onChunk(ev.Content)
			}
		}
		return nil
	})
}

package agent

import (
	"context"
	"strings"
	"time"

	"pdfchat/internal/ai"
	"pdfchat/internal/model"
	"pdfchat/internal/vectorstore"
)

// ChatModel streams one completion, calling onDelta per content delta.
type ChatModel interface {
	StreamChat(ctx context.Context, messages []ai.ChatMessage, onDelta func(string) error) (string, error)
}

// KnowledgeBase answers similarity queries over the indexed documents.
type KnowledgeBase interface {
	Search(ctx context.Context, query string, topK int) ([]vectorstore.Hit, error)
}

// TranscriptPublisher hands finished messages to async persistence.
type TranscriptPublisher interface {
	Publish(ctx context.Context, msg model.Message) error
}

// HistoryCache is the hot read path for per-session history.
type HistoryCache interface {
	GetHistory(ctx context.Context, sessionID string) ([]model.Message, bool, error)
	SetHistory(ctx context.Context, sessionID string, messages []model.Message) error
	DeleteHistory(ctx context.Context, sessionID string) error
	MarkDirty(ctx context.Context, sessionID string) error
	IsDirty(ctx context.Context, sessionID string) (bool, error)
}

// TranscriptReader is the cold read path for per-session history.
type TranscriptReader interface {
	ListRecentBySessionID(sessionID string, limit int) ([]model.Message, error)
}

// Options fix the agent's behavior at construction time.
type Options struct {
	Model        ChatModel
	Knowledge    KnowledgeBase
	Description  string
	Instructions string

	SearchKnowledge     bool
	ReadChatHistory     bool
	AddHistoryToContext bool
	MaxHistory          int
	TopK                int

	Publisher  TranscriptPublisher
	Cache      HistoryCache
	Transcript TranscriptReader
}

// Agent owns retrieval, history handling and generation for one query at a
// time. It reports progress as a stream of Events.
type Agent struct {
	opts Options
}

func New(opts Options) *Agent {
	if opts.MaxHistory <= 0 {
		opts.MaxHistory = 20
	}
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	return &Agent{opts: opts}
}

// Run executes one retrieval-augmented generation turn for the session and
// emits events as they happen. Errors from the knowledge base or the model
// propagate to the caller mid-stream; there is no retry.
func (a *Agent) Run(ctx context.Context, query, sessionID string, emit func(Event) error) error {
	var history []model.Message
	if a.opts.ReadChatHistory {
		history = a.loadHistory(ctx, sessionID)
	}

	var hits []vectorstore.Hit
	if a.opts.SearchKnowledge && a.opts.Knowledge != nil {
		if err := emit(Event{Event: EventToolCallStarted, Tool: ToolCall{ToolName: KnowledgeSearchTool}}); err != nil {
			return err
		}
		found, err := a.opts.Knowledge.Search(ctx, query, a.opts.TopK)
		if err != nil {
			return err
		}
		hits = found
	}

	messages := a.buildPromptMessages(query, history, hits)

	if a.opts.Publisher != nil {
		if a.opts.Cache != nil {
			_ = a.opts.Cache.MarkDirty(ctx, sessionID)
			_ = a.opts.Cache.DeleteHistory(ctx, sessionID)
		}
		_ = a.opts.Publisher.Publish(ctx, model.Message{
			SessionID: sessionID,
			Role:      "user",
			Content:   query,
			CreatedAt: time.Now().UTC(),
		})
	}

	full, err := a.opts.Model.StreamChat(ctx, messages, func(delta string) error {
		return emit(Event{Event: EventRunContent, Content: delta})
	})
	if err != nil {
		return err
	}

	if a.opts.Publisher != nil {
		_ = a.opts.Publisher.Publish(ctx, model.Message{
			SessionID: sessionID,
			Role:      "assistant",
			Content:   strings.TrimSpace(full),
			CreatedAt: time.Now().UTC(),
		})
	}

	return emit(Event{Event: EventRunCompleted})
}

// loadHistory prefers the cache when it is warm and clean, falling back to
// the transcript store. History is best-effort; failures degrade to an
// empty context rather than aborting the run.
func (a *Agent) loadHistory(ctx context.Context, sessionID string) []model.Message {
	if a.opts.Cache != nil {
		if dirty, err := a.opts.Cache.IsDirty(ctx, sessionID); err == nil && !dirty {
			if cached, hit, err := a.opts.Cache.GetHistory(ctx, sessionID); err == nil && hit {
				return trimHistory(cached, a.opts.MaxHistory)
			}
		}
	}
	if a.opts.Transcript == nil {
		return nil
	}
	messages, err := a.opts.Transcript.ListRecentBySessionID(sessionID, a.opts.MaxHistory)
	if err != nil {
		return nil
	}
	if a.opts.Cache != nil {
		if dirty, err := a.opts.Cache.IsDirty(ctx, sessionID); err == nil && !dirty {
			_ = a.opts.Cache.SetHistory(ctx, sessionID, messages)
		}
	}
	return messages
}

func (a *Agent) buildPromptMessages(query string, history []model.Message, hits []vectorstore.Hit) []ai.ChatMessage {
	var system strings.Builder
	if a.opts.Description != "" {
		system.WriteString(a.opts.Description)
		system.WriteString("\n\n")
	}
	system.WriteString(a.opts.Instructions)
	if len(hits) > 0 {
		system.WriteString("\n\nDocument excerpts:")
		for _, h := range hits {
			system.WriteString("\n---\n")
			if h.Source != "" {
				system.WriteString("[" + h.Source + "] ")
			}
			system.WriteString(h.Text)
		}
		system.WriteString("\n---")
	}

	messages := make([]ai.ChatMessage, 0, len(history)+2)
	messages = append(messages, ai.ChatMessage{Role: "system", Content: system.String()})
	if a.opts.AddHistoryToContext {
		for _, item := range history {
			role := item.Role
			if role == "" {
				role = "user"
			}
			messages = append(messages, ai.ChatMessage{Role: role, Content: item.Content})
		}
	}
	messages = append(messages, ai.ChatMessage{Role: "user", Content: strings.TrimSpace(query)})
	return messages
}

func trimHistory(messages []model.Message, limit int) []model.Message {
	if limit <= 0 || limit >= len(messages) {
		return messages
	}
	return messages[len(messages)-limit:]
}

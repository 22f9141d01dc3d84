package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfchat/internal/agent"
)

type scriptedRunner struct {
	events    []agent.Event
	runErr    error
	query     string
	sessionID string
}

func (r *scriptedRunner) Run(_ context.Context, query, sessionID string, emit func(agent.Event) error) error {
	r.query = query
	r.sessionID = sessionID
	for _, ev := range r.events {
		if err := emit(ev); err != nil {
			return err
		}
	}
	return r.runErr
}

func collectChunks(t *testing.T, svc *ChatService, query, sessionID string) ([]string, error) {
	t.Helper()
	var chunks []string
	err := svc.StreamResponse(context.Background(), query, sessionID, func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})
	return chunks, err
}

func TestStreamResponseEmptyQuery(t *testing.T) {
	svc := NewChatService(&scriptedRunner{})

	_, err := collectChunks(t, svc, "   ", "s1")
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestStreamResponseEmptySessionID(t *testing.T) {
	svc := NewChatService(&scriptedRunner{})

	_, err := collectChunks(t, svc, "hello", " ")
	assert.ErrorIs(t, err, ErrEmptySessionID)
}

func TestStreamResponseMapsEvents(t *testing.T) {
	runner := &scriptedRunner{events: []agent.Event{
		{Event: agent.EventToolCallStarted, Tool: agent.ToolCall{ToolName: agent.KnowledgeSearchTool}},
		{Event: agent.EventReasoningStep},
		{Event: agent.EventRunContent, Content: "The document "},
		{Event: agent.EventRunContent, Content: "says X."},
		{Event: agent.EventRunCompleted},
	}}
	svc := NewChatService(runner)

	chunks, err := collectChunks(t, svc, "  what does it say?  ", "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{SearchingToken, ThinkingToken, "The document ", "says X."}, chunks)
	assert.Equal(t, "what does it say?", runner.query)
	assert.Equal(t, "s1", runner.sessionID)
}

func TestStreamResponseDropsOtherTools(t *testing.T) {
	runner := &scriptedRunner{events: []agent.Event{
		{Event: agent.EventToolCallStarted, Tool: agent.ToolCall{ToolName: "calculator"}},
		{Event: agent.EventRunContent, Content: "answer"},
	}}
	svc := NewChatService(runner)

	chunks, err := collectChunks(t, svc, "q", "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"answer"}, chunks)
}

func TestStreamResponseDropsEmptyContent(t *testing.T) {
	runner := &scriptedRunner{events: []agent.Event{
		{Event: agent.EventRunContent, Content: ""},
		{Event: agent.EventRunContent, Content: "x"},
	}}
	svc := NewChatService(runner)

	chunks, err := collectChunks(t, svc, "q", "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, chunks)
}

func TestStreamResponseRunnerError(t *testing.T) {
	boom := errors.New("model unavailable")
	runner := &scriptedRunner{
		events: []agent.Event{{Event: agent.EventRunContent, Content: "partial"}},
		runErr: boom,
	}
	svc := NewChatService(runner)

	chunks, err := collectChunks(t, svc, "q", "s1")
	assert.ErrorIs(t, err, boom)
	// chunks emitted before the failure already went out
	assert.Equal(t, []string{"partial"}, chunks)
}

func TestStreamResponseSinkErrorStopsRun(t *testing.T) {
	runner := &scriptedRunner{events: []agent.Event{
		{Event: agent.EventRunContent, Content: "a"},
		{Event: agent.EventRunContent, Content: "b"},
	}}
	svc := NewChatService(runner)

	calls := 0
	err := svc.StreamResponse(context.Background(), "q", "s1", func(string) error {
		calls++
		return errors.New("client went away")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfchat/internal/ai"
	"pdfchat/internal/model"
	"pdfchat/internal/vectorstore"
)

type fakeModel struct {
	deltas   []string
	err      error
	messages []ai.ChatMessage
}

func (f *fakeModel) StreamChat(_ context.Context, messages []ai.ChatMessage, onDelta func(string) error) (string, error) {
	f.messages = messages
	if f.err != nil {
		return "", f.err
	}
	for _, d := range f.deltas {
		if err := onDelta(d); err != nil {
			return "", err
		}
	}
	return strings.Join(f.deltas, ""), nil
}

type fakeKnowledge struct {
	hits  []vectorstore.Hit
	err   error
	query string
	topK  int
}

func (f *fakeKnowledge) Search(_ context.Context, query string, topK int) ([]vectorstore.Hit, error) {
	f.query = query
	f.topK = topK
	return f.hits, f.err
}

type fakePublisher struct {
	published []model.Message
}

func (f *fakePublisher) Publish(_ context.Context, msg model.Message) error {
	f.published = append(f.published, msg)
	return nil
}

type fakeCache struct {
	history []model.Message
	warm    bool
	dirty   bool

	markedDirty    bool
	deletedHistory bool
	setHistory     []model.Message
}

func (f *fakeCache) GetHistory(_ context.Context, _ string) ([]model.Message, bool, error) {
	return f.history, f.warm, nil
}

func (f *fakeCache) SetHistory(_ context.Context, _ string, messages []model.Message) error {
	f.setHistory = messages
	return nil
}

func (f *fakeCache) DeleteHistory(_ context.Context, _ string) error {
	f.deletedHistory = true
	return nil
}

func (f *fakeCache) MarkDirty(_ context.Context, _ string) error {
	f.markedDirty = true
	return nil
}

func (f *fakeCache) IsDirty(_ context.Context, _ string) (bool, error) {
	return f.dirty, nil
}

type fakeTranscript struct {
	messages []model.Message
	err      error
}

func (f *fakeTranscript) ListRecentBySessionID(_ string, _ int) ([]model.Message, error) {
	return f.messages, f.err
}

func collectEvents(t *testing.T, a *Agent, query, sessionID string) ([]Event, error) {
	t.Helper()
	var events []Event
	err := a.Run(context.Background(), query, sessionID, func(ev Event) error {
		events = append(events, ev)
		return nil
	})
	return events, err
}

func TestRunEventOrder(t *testing.T) {
	know := &fakeKnowledge{hits: []vectorstore.Hit{{Text: "excerpt", Source: "a.pdf"}}}
	a := New(Options{
		Model:           &fakeModel{deltas: []string{"Hello", " world"}},
		Knowledge:       know,
		Instructions:    SystemPrompt,
		SearchKnowledge: true,
	})

	events, err := collectEvents(t, a, "what is in the doc?", "s1")
	require.NoError(t, err)
	require.Len(t, events, 4)

	assert.Equal(t, EventToolCallStarted, events[0].Event)
	assert.Equal(t, KnowledgeSearchTool, events[0].Tool.ToolName)
	assert.Equal(t, EventRunContent, events[1].Event)
	assert.Equal(t, "Hello", events[1].Content)
	assert.Equal(t, " world", events[2].Content)
	assert.Equal(t, EventRunCompleted, events[3].Event)

	assert.Equal(t, "what is in the doc?", know.query)
	assert.Equal(t, 5, know.topK)
}

func TestRunWithoutKnowledgeSearch(t *testing.T) {
	a := New(Options{
		Model:        &fakeModel{deltas: []string{"hi"}},
		Instructions: SystemPrompt,
	})

	events, err := collectEvents(t, a, "hello", "s1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, EventRunContent, events[0].Event)
	assert.Equal(t, EventRunCompleted, events[1].Event)
}

func TestRunSearchErrorPropagates(t *testing.T) {
	boom := errors.New("vector store down")
	a := New(Options{
		Model:           &fakeModel{},
		Knowledge:       &fakeKnowledge{err: boom},
		SearchKnowledge: true,
	})

	events, err := collectEvents(t, a, "q", "s1")
	assert.ErrorIs(t, err, boom)
	// the tool-start event already went out before the failure
	require.Len(t, events, 1)
	assert.Equal(t, EventToolCallStarted, events[0].Event)
}

func TestRunModelErrorPropagates(t *testing.T) {
	boom := errors.New("upstream 500")
	a := New(Options{Model: &fakeModel{err: boom}})

	_, err := collectEvents(t, a, "q", "s1")
	assert.ErrorIs(t, err, boom)
}

func TestRunPromptAssembly(t *testing.T) {
	mdl := &fakeModel{deltas: []string{"ok"}}
	a := New(Options{
		Model:        mdl,
		Knowledge:    &fakeKnowledge{hits: []vectorstore.Hit{{Text: "chunk one", Source: "report.pdf"}}},
		Description:  Description,
		Instructions: SystemPrompt,

		SearchKnowledge:     true,
		ReadChatHistory:     true,
		AddHistoryToContext: true,

		Cache: &fakeCache{
			warm: true,
			history: []model.Message{
				{Role: "user", Content: "earlier question"},
				{Role: "assistant", Content: "earlier answer"},
			},
		},
	})

	_, err := collectEvents(t, a, "  new question  ", "s1")
	require.NoError(t, err)

	msgs := mdl.messages
	require.Len(t, msgs, 4)

	assert.Equal(t, "system", msgs[0].Role)
	assert.Contains(t, msgs[0].Content, Description)
	assert.Contains(t, msgs[0].Content, SystemPrompt)
	assert.Contains(t, msgs[0].Content, "Document excerpts:")
	assert.Contains(t, msgs[0].Content, "[report.pdf] chunk one")

	assert.Equal(t, "user", msgs[1].Role)
	assert.Equal(t, "earlier question", msgs[1].Content)
	assert.Equal(t, "assistant", msgs[2].Role)

	assert.Equal(t, "user", msgs[3].Role)
	assert.Equal(t, "new question", msgs[3].Content)
}

func TestRunPublishesBothTurns(t *testing.T) {
	pub := &fakePublisher{}
	cache := &fakeCache{}
	a := New(Options{
		Model:     &fakeModel{deltas: []string{"the ", "answer"}},
		Publisher: pub,
		Cache:     cache,
	})

	_, err := collectEvents(t, a, "q", "s1")
	require.NoError(t, err)

	require.Len(t, pub.published, 2)
	assert.Equal(t, "user", pub.published[0].Role)
	assert.Equal(t, "q", pub.published[0].Content)
	assert.Equal(t, "s1", pub.published[0].SessionID)
	assert.Equal(t, "assistant", pub.published[1].Role)
	assert.Equal(t, "the answer", pub.published[1].Content)

	// the cached history is invalidated before the new turn lands
	assert.True(t, cache.markedDirty)
	assert.True(t, cache.deletedHistory)
}

func TestLoadHistoryFallsBackToTranscript(t *testing.T) {
	transcript := &fakeTranscript{messages: []model.Message{
		{Role: "user", Content: "from sqlite"},
	}}
	cache := &fakeCache{warm: false}
	mdl := &fakeModel{deltas: []string{"ok"}}
	a := New(Options{
		Model:               mdl,
		ReadChatHistory:     true,
		AddHistoryToContext: true,
		Cache:               cache,
		Transcript:          transcript,
	})

	_, err := collectEvents(t, a, "q", "s1")
	require.NoError(t, err)

	require.Len(t, mdl.messages, 3)
	assert.Equal(t, "from sqlite", mdl.messages[1].Content)
	// the cold read warms the cache
	assert.Equal(t, transcript.messages, cache.setHistory)
}

func TestLoadHistorySkipsDirtyCache(t *testing.T) {
	cache := &fakeCache{
		warm:    true,
		dirty:   true,
		history: []model.Message{{Role: "user", Content: "stale"}},
	}
	transcript := &fakeTranscript{messages: []model.Message{
		{Role: "user", Content: "fresh"},
	}}
	mdl := &fakeModel{deltas: []string{"ok"}}
	a := New(Options{
		Model:               mdl,
		ReadChatHistory:     true,
		AddHistoryToContext: true,
		Cache:               cache,
		Transcript:          transcript,
	})

	_, err := collectEvents(t, a, "q", "s1")
	require.NoError(t, err)

	require.Len(t, mdl.messages, 3)
	assert.Equal(t, "fresh", mdl.messages[1].Content)
	// a dirty session is never re-cached from the transcript
	assert.Nil(t, cache.setHistory)
}

func TestTrimHistory(t *testing.T) {
	messages := []model.Message{
		{Content: "a"}, {Content: "b"}, {Content: "c"},
	}
	trimmed := trimHistory(messages, 2)
	require.Len(t, trimmed, 2)
	assert.Equal(t, "b", trimmed[0].Content)
	assert.Equal(t, "c", trimmed[1].Content)

	assert.Len(t, trimHistory(messages, 10), 3)
}

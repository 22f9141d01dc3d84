package agent

// RunEvent discriminates the structured events emitted during a run.
type RunEvent string

const (
	EventRunContent      RunEvent = "run_content"
	EventToolCallStarted RunEvent = "tool_call_started"
	EventReasoningStep   RunEvent = "reasoning_step"
	EventRunCompleted    RunEvent = "run_completed"
)

// KnowledgeSearchTool is the tool name reported when the agent consults
// the knowledge base.
const KnowledgeSearchTool = "search_knowledge_base"

type ToolCall struct {
	ToolName string
}

// Event is one item of the run's output stream. Content is only set for
// content events; Tool only for tool events.
type Event struct {
	Event   RunEvent
	Content string
	Tool    ToolCall
}

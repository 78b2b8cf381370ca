package domain

import "strconv"

// Chat roles accepted by the completions endpoint.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is the provider-agnostic chat message shape used by the client,
// the program and the Lambda handler.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// String renders the message the way the program prints it.
func (m ChatMessage) String() string {
	return "ChatMessage(role=" + strconv.Quote(m.Role) + ", content=" + strconv.Quote(m.Content) + ")"
}

// ValidRole reports whether role is one of the three dialogue roles.
func ValidRole(role string) bool {
	switch role {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// ChatRequest is the wire body for a chat completion.
type ChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
}

// ChatChoice is one completion alternative.
type ChatChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason,omitempty"`
}

// Usage reports token accounting when the provider includes it.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResponse is the decoded completion. A ChatResponse returned by the client
// always holds at least one choice.
type ChatResponse struct {
	ID      string       `json:"id,omitempty"`
	Object  string       `json:"object,omitempty"`
	Created int64        `json:"created,omitempty"`
	Model   string       `json:"model,omitempty"`
	Choices []ChatChoice `json:"choices"`
	Usage   *Usage       `json:"usage,omitempty"`
}

// FirstMessage returns choices[0].message.
func (r *ChatResponse) FirstMessage() ChatMessage {
	if r == nil || len(r.Choices) == 0 {
		return ChatMessage{}
	}
	return r.Choices[0].Message
}

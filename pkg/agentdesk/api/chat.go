package api

import (
	"strings"
	"time"
)

// Role of a conversation message
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// FunctionCallStatus records the disposition of a function call in history
type FunctionCallStatus string

const (
	FunctionCallPending  FunctionCallStatus = "PENDING"
	FunctionCallApproved FunctionCallStatus = "APPROVED"
	FunctionCallDeclined FunctionCallStatus = "DECLINED"
)

// Recognised function call names
const (
	FunctionSwitchTask    = "switchTask"
	FunctionSwitchSession = "switchSession"
	FunctionUseSkill      = "useSkill"
)

// FunctionCall is a server-issued instruction embedded in a chat response
type FunctionCall struct {
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args,omitempty"`
}

// FunctionResponse carries the outcome of a function call
type FunctionResponse struct {
	Name     string                 `json:"name"`
	Response map[string]interface{} `json:"response,omitempty"`
}

// Part is a content fragment of a message
type Part struct {
	Text             string            `json:"text,omitempty"`
	FunctionCall     *FunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *FunctionResponse `json:"functionResponse,omitempty"`
}

// MessageMeta is client-side bookkeeping attached to a message
type MessageMeta struct {
	Timestamp          string             `json:"timestamp,omitempty"`
	FunctionCallStatus FunctionCallStatus `json:"functionCallStatus,omitempty"`
}

// Message is one conversation history entry
type Message struct {
	Role  Role        `json:"role"`
	Parts []Part      `json:"parts"`
	Meta  MessageMeta `json:"_meta"`
}

// Text concatenates the text parts of the message
func (m Message) Text() string {
	var sb strings.Builder
	for _, p := range m.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// FunctionCall returns the first function call part, if any
func (m Message) FunctionCall() *FunctionCall {
	for i := range m.Parts {
		if m.Parts[i].FunctionCall != nil {
			return m.Parts[i].FunctionCall
		}
	}
	return nil
}

// Clone returns a deep copy of the message
func (m Message) Clone() Message {
	out := m
	out.Parts = make([]Part, len(m.Parts))
	for i, p := range m.Parts {
		out.Parts[i] = p
		if p.FunctionCall != nil {
			fc := *p.FunctionCall
			fc.Args = cloneMap(p.FunctionCall.Args)
			out.Parts[i].FunctionCall = &fc
		}
		if p.FunctionResponse != nil {
			fr := *p.FunctionResponse
			fr.Response = cloneMap(p.FunctionResponse.Response)
			out.Parts[i].FunctionResponse = &fr
		}
	}
	return out
}

// AgentState is the coordinator's snapshot sent with every chat request
type AgentState struct {
	AgentID        string    `json:"agent_id"`
	SessionID      string    `json:"session_id"`
	TaskID         string    `json:"task_id"`
	AgentDetails   *Agent    `json:"agent_details,omitempty"`
	SessionDetails *Session  `json:"session_details,omitempty"`
	TaskDetails    *Task     `json:"task_details,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ChatRequest is the body of the chat test endpoint
type ChatRequest struct {
	Message    string     `json:"message"`
	History    []Message  `json:"history"`
	AgentState AgentState `json:"agentState"`
}

// SkillRequest is the body of the skill test endpoint
type SkillRequest struct {
	Message    string     `json:"message"`
	SkillID    string     `json:"skillId"`
	History    []Message  `json:"history"`
	AgentState AgentState `json:"agentState"`
}

// ChatResponse is returned by both chat test endpoints
type ChatResponse struct {
	Message             string        `json:"message"`
	Notes               string        `json:"notes,omitempty"`
	Action              *FunctionCall `json:"action,omitempty"`
	AgentState          *AgentState   `json:"agentState,omitempty"`
	ConversationHistory []Message     `json:"conversationHistory,omitempty"`
	Timestamp           string        `json:"timestamp,omitempty"`
}

// HasAction reports whether the response carries a function call
func (r *ChatResponse) HasAction() bool {
	return r != nil && r.Action != nil && r.Action.Name != ""
}

// ActionResult is the outcome of a chat turn or a dispatched function call.
//
// Response is set when the turn ended in an ordinary model reply.
// RequiresApproval is set when a function call was held for the caller.
// Success/Message describe an executed function call; Result holds the
// nested turn an execution produced (skill invocation or follow-up).
type ActionResult struct {
	Response         *ChatResponse `json:"response,omitempty"`
	FunctionCall     *FunctionCall `json:"functionCall,omitempty"`
	RequiresApproval bool          `json:"requiresApproval,omitempty"`
	Success          bool          `json:"success,omitempty"`
	Message          string        `json:"message,omitempty"`
	Result           *ActionResult `json:"result,omitempty"`
}

func cloneMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

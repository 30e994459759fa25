// Package events defines the notifications published by the conversation
// coordinator and the synchronous Notifier that delivers them.
package events

import (
	"github.com/agentdesk/agentdesk-go/pkg/agentdesk/api"
)

// Kind identifies an event type
type Kind int

const (
	KindAgentStateInitialized Kind = iota + 1
	KindAgentStateInitializedError
	KindMessageSent
	KindMessageReceived
	KindTaskSwitched
	KindSessionSwitched
	KindSkillCalled
	KindFunctionCallReceived
	KindFunctionCallApproved
	KindFunctionCallDeclined
	KindFunctionCallExecuted
	KindConversationHistoryUpdated
)

var kindNames = map[Kind]string{
	KindAgentStateInitialized:      "agentStateInitialized",
	KindAgentStateInitializedError: "agentStateInitializedError",
	KindMessageSent:                "messageSent",
	KindMessageReceived:            "messageReceived",
	KindTaskSwitched:               "taskSwitched",
	KindSessionSwitched:            "sessionSwitched",
	KindSkillCalled:                "skillCalled",
	KindFunctionCallReceived:       "functionCallReceived",
	KindFunctionCallApproved:       "functionCallApproved",
	KindFunctionCallDeclined:       "functionCallDeclined",
	KindFunctionCallExecuted:       "functionCallExecuted",
	KindConversationHistoryUpdated: "conversationHistoryUpdated",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Kinds returns every event kind in declaration order
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(kindNames))
	for k := KindAgentStateInitialized; k <= KindConversationHistoryUpdated; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// ParseKind returns the kind with the given wire name
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// Event is implemented by every payload type
type Event interface {
	Kind() Kind
}

type AgentStateInitialized struct {
	State api.AgentState
}

type AgentStateInitializedError struct {
	Err     error
	AgentID string
}

type MessageSent struct {
	Message string
	State   api.AgentState
}

type MessageReceived struct {
	Message  string
	Response *api.ChatResponse
	State    api.AgentState
}

type TaskSwitched struct {
	PreviousTaskID string
	TaskID         string
}

type SessionSwitched struct {
	PreviousSessionID string
	SessionID         string
}

type SkillCalled struct {
	Message string
	SkillID string
	State   api.AgentState
}

type FunctionCallReceived struct {
	FunctionCall api.FunctionCall
	State        api.AgentState
}

type FunctionCallApproved struct {
	FunctionCall api.FunctionCall
}

type FunctionCallDeclined struct {
	FunctionCall api.FunctionCall
}

type FunctionCallExecuted struct {
	FunctionCall api.FunctionCall
	Result       *api.ActionResult
	State        api.AgentState
}

type ConversationHistoryUpdated struct {
	History []api.Message
}

func (AgentStateInitialized) Kind() Kind      { return KindAgentStateInitialized }
func (AgentStateInitializedError) Kind() Kind { return KindAgentStateInitializedError }
func (MessageSent) Kind() Kind                { return KindMessageSent }
func (MessageReceived) Kind() Kind            { return KindMessageReceived }
func (TaskSwitched) Kind() Kind               { return KindTaskSwitched }
func (SessionSwitched) Kind() Kind            { return KindSessionSwitched }
func (SkillCalled) Kind() Kind                { return KindSkillCalled }
func (FunctionCallReceived) Kind() Kind       { return KindFunctionCallReceived }
func (FunctionCallApproved) Kind() Kind       { return KindFunctionCallApproved }
func (FunctionCallDeclined) Kind() Kind       { return KindFunctionCallDeclined }
func (FunctionCallExecuted) Kind() Kind       { return KindFunctionCallExecuted }
func (ConversationHistoryUpdated) Kind() Kind { return KindConversationHistoryUpdated }

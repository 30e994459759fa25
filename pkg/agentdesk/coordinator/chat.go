package coordinator

import (
	"context"

	"github.com/agentdesk/agentdesk-go/pkg/agentdesk/api"
	apperrors "github.com/agentdesk/agentdesk-go/pkg/agentdesk/errors"
	"github.com/agentdesk/agentdesk-go/pkg/agentdesk/events"
)

// ChatOption customises a single chat turn
type ChatOption func(*chatOptions)

type chatOptions struct {
	history    []api.Message
	hasHistory bool
}

// WithHistory sends history instead of the coordinator's own history as the
// context of the turn. The durable history is still appended to.
func WithHistory(history []api.Message) ChatOption {
	return func(o *chatOptions) {
		o.history = history
		o.hasHistory = true
	}
}

func (c *Coordinator) requestHistory(opts []ChatOption, userMsg api.Message) []api.Message {
	var o chatOptions
	for _, opt := range opts {
		opt(&o)
	}
	history := c.ConversationHistory()
	if o.hasHistory {
		history = cloneHistory(o.history)
	}
	return append(history, userMsg)
}

// TestChat sends message to the agent. The user message becomes part of the
// history only once the request succeeded. If the server answers with a
// function call, the call is dispatched and its result returned instead.
func (c *Coordinator) TestChat(ctx context.Context, message string, opts ...ChatOption) (*api.ActionResult, error) {
	userMsg := c.newMessage(api.RoleUser, api.Part{Text: message})
	state := c.AgentState()

	c.notifier.Publish(events.MessageSent{Message: message, State: state})

	req := &api.ChatRequest{
		Message:    message,
		History:    c.requestHistory(opts, userMsg),
		AgentState: state,
	}

	var resp api.ChatResponse
	if err := c.transport.Post(ctx, api.ChatTestPath, req, &resp); err != nil {
		c.log.Error(err, "chat request failed", "agentID", state.AgentID)
		return nil, err
	}

	return c.handleResponse(ctx, message, userMsg, &resp)
}

// TestSkill sends message to the skill at the 1-based skillIndex of the
// current task.
func (c *Coordinator) TestSkill(ctx context.Context, message string, skillIndex int, opts ...ChatOption) (*api.ActionResult, error) {
	state := c.AgentState()

	if state.TaskID == "" || state.TaskDetails == nil {
		err := apperrors.New(apperrors.ErrCodeSelection, "no task selected", nil)
		c.log.Error(err, "skill selection failed", "skillIndex", skillIndex)
		return nil, err
	}
	skillID, err := ByIndex(skillIndex).resolve(state.TaskDetails.Skills, "skill")
	if err != nil {
		c.log.Error(err, "skill selection failed", "taskID", state.TaskID)
		return nil, err
	}

	userMsg := c.newMessage(api.RoleUser, api.Part{Text: message})

	c.notifier.Publish(events.SkillCalled{Message: message, SkillID: skillID, State: state})

	req := &api.SkillRequest{
		Message:    message,
		SkillID:    skillID,
		History:    c.requestHistory(opts, userMsg),
		AgentState: state,
	}

	var resp api.ChatResponse
	if err := c.transport.Post(ctx, api.SkillTestPath, req, &resp); err != nil {
		c.log.Error(err, "skill request failed", "skillID", skillID)
		return nil, err
	}

	return c.handleResponse(ctx, message, userMsg, &resp)
}

// SendFollowUpMessage continues the conversation with text
func (c *Coordinator) SendFollowUpMessage(ctx context.Context, text string) (*api.ActionResult, error) {
	return c.TestChat(ctx, text)
}

func (c *Coordinator) handleResponse(ctx context.Context, message string, userMsg api.Message, resp *api.ChatResponse) (*api.ActionResult, error) {
	c.appendHistory(userMsg)

	if resp.HasAction() {
		return c.receiveFunctionCall(ctx, resp)
	}

	c.appendHistory(c.newMessage(api.RoleModel, api.Part{Text: resp.Message}))

	c.notifier.Publish(events.MessageReceived{Message: message, Response: resp, State: c.AgentState()})
	c.notifier.Publish(events.ConversationHistoryUpdated{History: c.ConversationHistory()})

	return &api.ActionResult{Response: resp}, nil
}

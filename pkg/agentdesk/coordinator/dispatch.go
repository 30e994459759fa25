package coordinator

import (
	"context"
	"fmt"

	"github.com/agentdesk/agentdesk-go/pkg/agentdesk/api"
	apperrors "github.com/agentdesk/agentdesk-go/pkg/agentdesk/errors"
	"github.com/agentdesk/agentdesk-go/pkg/agentdesk/events"
)

// DefaultSkillMessage is sent to a skill when the useSkill call carries no message
const DefaultSkillMessage = "Use the selected skill for the current task."

// receiveFunctionCall records a function call returned by the server as a
// PENDING model message and either executes it or hands it back for approval.
func (c *Coordinator) receiveFunctionCall(ctx context.Context, resp *api.ChatResponse) (*api.ActionResult, error) {
	fc := *resp.Action

	c.notifier.Publish(events.FunctionCallReceived{FunctionCall: fc, State: c.AgentState()})

	var parts []api.Part
	if resp.Message != "" {
		parts = append(parts, api.Part{Text: resp.Message})
	}
	parts = append(parts, api.Part{FunctionCall: &fc})
	msg := c.newMessage(api.RoleModel, parts...)
	msg.Meta.FunctionCallStatus = api.FunctionCallPending
	c.appendHistory(msg.Clone())

	if !c.AutoExecution().allows(fc.Name) {
		c.log.V(1).Info("function call awaiting approval", "name", fc.Name)
		return &api.ActionResult{FunctionCall: &fc, RequiresApproval: true}, nil
	}
	return c.ApproveFunctionCall(ctx, fc)
}

// ApproveFunctionCall executes fc
func (c *Coordinator) ApproveFunctionCall(ctx context.Context, fc api.FunctionCall) (*api.ActionResult, error) {
	c.notifier.Publish(events.FunctionCallApproved{FunctionCall: fc})
	c.markLatest(fc.Name, api.FunctionCallPending, api.FunctionCallApproved)

	var (
		result *api.ActionResult
		err    error
	)
	switch fc.Name {
	case api.FunctionSwitchTask:
		result, err = c.switchTask(ctx, fc.Args)
	case api.FunctionSwitchSession:
		result, err = c.switchSession(ctx, fc.Args)
	case api.FunctionUseSkill:
		result, err = c.useSkill(ctx, fc.Args)
	default:
		err = apperrors.Newf(apperrors.ErrCodeUnknownFunctionCall, "unknown function call: %s", fc.Name)
	}
	if err != nil {
		c.log.Error(err, "function call failed", "name", fc.Name)
		return nil, err
	}

	c.notifier.Publish(events.FunctionCallExecuted{FunctionCall: fc, Result: result, State: c.AgentState()})
	return result, nil
}

// DeclineFunctionCall marks every history message carrying a call with the
// same name as DECLINED. Calls absent from the history are only announced.
func (c *Coordinator) DeclineFunctionCall(fc api.FunctionCall) {
	c.notifier.Publish(events.FunctionCallDeclined{FunctionCall: fc})
	if n := c.markAll(fc.Name, api.FunctionCallDeclined); n > 0 {
		c.log.V(1).Info("function call declined", "name", fc.Name, "messages", n)
	}
}

func (c *Coordinator) switchTask(ctx context.Context, args map[string]interface{}) (*api.ActionResult, error) {
	v, ok := args["task_id"]
	if !ok || v == nil {
		return nil, missingArgument(api.FunctionSwitchTask, "task_id")
	}
	sel, err := SelectorFromArg(v)
	if err != nil {
		return nil, err
	}

	task, err := c.ChangeTask(ctx, sel)
	if err != nil {
		return nil, err
	}

	name := task.Name
	if name == "" {
		name = argString(v)
	}
	return c.SendFollowUpMessage(ctx, fmt.Sprintf("Switched to task: %s", name))
}

func (c *Coordinator) switchSession(ctx context.Context, args map[string]interface{}) (*api.ActionResult, error) {
	var (
		sel Selector
		msg string
	)
	if v, present := args["sessionIndex"]; present && v != nil {
		idx, ok := indexFromArg(v)
		if !ok {
			return nil, apperrors.Newf(apperrors.ErrCodeSelection, "sessionIndex must be a 1-based session index, got %v", v)
		}
		sel = ByIndex(idx)
		msg = fmt.Sprintf("Switched to session %d", idx)
	} else if id, ok := args["sessionId"].(string); ok && id != "" {
		sel = ByID(id)
		msg = fmt.Sprintf("Switched to session %s", id)
	} else {
		return nil, missingArgument(api.FunctionSwitchSession, "sessionIndex or sessionId")
	}

	if _, err := c.ChangeSession(ctx, sel); err != nil {
		return nil, err
	}
	return &api.ActionResult{Success: true, Message: msg}, nil
}

func (c *Coordinator) useSkill(ctx context.Context, args map[string]interface{}) (*api.ActionResult, error) {
	v, ok := args["skillName"]
	if !ok || v == nil {
		return nil, missingArgument(api.FunctionUseSkill, "skillName")
	}
	idx, ok := indexFromArg(v)
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrCodeSelection, "skillName must be a 1-based skill index, got %v", v)
	}

	message := DefaultSkillMessage
	if m, ok := args["message"].(string); ok && m != "" {
		message = m
	}

	res, err := c.TestSkill(ctx, message, idx)
	if err != nil {
		return nil, err
	}
	return &api.ActionResult{
		Success: true,
		Message: fmt.Sprintf("Used skill %d", idx),
		Result:  res,
	}, nil
}

func missingArgument(function, arg string) error {
	return apperrors.Newf(apperrors.ErrCodeMissingArgument, "function call %s requires %s", function, arg)
}

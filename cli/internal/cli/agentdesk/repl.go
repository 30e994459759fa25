package agentdesk

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/muesli/reflow/wordwrap"

	sdk "github.com/agentdesk/agentdesk-go/pkg/agentdesk"
	"github.com/agentdesk/agentdesk-go/pkg/agentdesk/api"
	"github.com/agentdesk/agentdesk-go/pkg/agentdesk/coordinator"
	"github.com/agentdesk/agentdesk-go/pkg/agentdesk/events"
)

const defaultWrapWidth = 80

var (
	userColor   = color.New(color.FgGreen, color.Bold)
	modelColor  = color.New(color.FgCyan, color.Bold)
	noticeColor = color.New(color.FgYellow)
	errorColor  = color.New(color.FgRed)
	dimColor    = color.New(color.Faint)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
)

// chatSession is the state behind the interactive chat: the client, the
// function call awaiting a decision, and where output goes.
type chatSession struct {
	client  *sdk.Client
	out     io.Writer
	width   int
	spin    bool
	pending *api.FunctionCall
	subs    []events.Subscription
}

func newChatSession(client *sdk.Client, out io.Writer, spin bool) *chatSession {
	s := &chatSession{client: client, out: out, width: defaultWrapWidth, spin: spin}
	n := client.Notifier
	s.subs = append(s.subs,
		events.On(n, func(ev events.SessionSwitched) {
			s.notice("session %s -> %s", orNone(ev.PreviousSessionID), ev.SessionID)
		}),
		events.On(n, func(ev events.TaskSwitched) {
			s.notice("task %s -> %s", orNone(ev.PreviousTaskID), ev.TaskID)
		}),
		events.On(n, func(ev events.FunctionCallExecuted) {
			s.notice("ran %s", formatCall(ev.FunctionCall))
		}),
		events.On(n, func(ev events.AgentStateInitializedError) {
			errorColor.Fprintf(s.out, "could not load agent %s: %v\n", ev.AgentID, ev.Err)
		}),
	)
	return s
}

// close detaches the session from the notifier
func (s *chatSession) close() {
	for _, sub := range s.subs {
		s.client.Notifier.Unsubscribe(sub)
	}
	s.subs = nil
}

func (s *chatSession) start(ctx context.Context, agentID string) error {
	state, err := s.client.Coordinator.InitializeAgentState(ctx, agentID)
	if err != nil {
		return err
	}
	s.printState(state)
	return nil
}

func (s *chatSession) send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var res *api.ActionResult
	err := s.wait(func() (err error) {
		res, err = s.client.Coordinator.TestChat(ctx, text)
		return err
	})
	if err != nil {
		return err
	}
	s.render(res)
	return nil
}

// skill handles "skill <n> [message...]"
func (s *chatSession) skill(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: skill <index> [message]")
	}
	idx, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("skill index must be a number, got %q", args[0])
	}
	message := coordinator.DefaultSkillMessage
	if len(args) > 1 {
		message = strings.Join(args[1:], " ")
	}

	var res *api.ActionResult
	err = s.wait(func() (err error) {
		res, err = s.client.Coordinator.TestSkill(ctx, message, idx)
		return err
	})
	if err != nil {
		return err
	}
	s.render(res)
	return nil
}

func (s *chatSession) approve(ctx context.Context) error {
	if s.pending == nil {
		return fmt.Errorf("no function call is waiting for approval")
	}
	fc := *s.pending

	var res *api.ActionResult
	err := s.wait(func() (err error) {
		res, err = s.client.Coordinator.ApproveFunctionCall(ctx, fc)
		return err
	})
	if err != nil {
		// keep the call pending so it can be retried or declined
		return err
	}
	s.pending = nil
	s.render(res)
	return nil
}

func (s *chatSession) decline() error {
	if s.pending == nil {
		return fmt.Errorf("no function call is waiting for approval")
	}
	s.client.Coordinator.DeclineFunctionCall(*s.pending)
	s.notice("declined %s", formatCall(*s.pending))
	s.pending = nil
	return nil
}

func (s *chatSession) selectSession(ctx context.Context, arg string) error {
	if _, err := s.client.Coordinator.ChangeSession(ctx, parseSelector(arg)); err != nil {
		return err
	}
	return nil
}

func (s *chatSession) selectTask(ctx context.Context, arg string) error {
	if _, err := s.client.Coordinator.ChangeTask(ctx, parseSelector(arg)); err != nil {
		return err
	}
	return nil
}

// setAuto handles "auto [task|session|skill on|off]"
func (s *chatSession) setAuto(args []string) error {
	auto := s.client.Coordinator.AutoExecution()
	if len(args) == 0 {
		fmt.Fprintf(s.out, "switchTask=%t switchSession=%t useSkill=%t\n", auto.SwitchTask, auto.SwitchSession, auto.UseSkill)
		return nil
	}
	if len(args) != 2 {
		return fmt.Errorf("usage: auto <task|session|skill> <on|off>")
	}

	var on bool
	switch args[1] {
	case "on":
		on = true
	case "off":
	default:
		return fmt.Errorf("expected on or off, got %q", args[1])
	}
	switch args[0] {
	case "task":
		auto.SwitchTask = on
	case "session":
		auto.SwitchSession = on
	case "skill":
		auto.UseSkill = on
	default:
		return fmt.Errorf("unknown function %q", args[0])
	}
	s.client.Coordinator.SetAutoExecution(auto)
	return nil
}

func (s *chatSession) printHistory() {
	history := s.client.Coordinator.ConversationHistory()
	if len(history) == 0 {
		dimColor.Fprintln(s.out, "(history is empty)")
		return
	}
	for _, m := range history {
		label := userColor.Sprint("you")
		if m.Role == api.RoleModel {
			label = modelColor.Sprint("agent")
		}
		line := m.Text()
		if fc := m.FunctionCall(); fc != nil {
			line = strings.TrimSpace(line + " " + formatCall(*fc))
		}
		if m.Meta.FunctionCallStatus != "" {
			line += " " + dimColor.Sprintf("[%s]", m.Meta.FunctionCallStatus)
		}
		fmt.Fprintf(s.out, "%s %s %s\n", dimColor.Sprint(m.Meta.Timestamp), label, line)
	}
}

func (s *chatSession) clearHistory() {
	s.client.Coordinator.ClearConversationHistory()
	s.notice("history cleared")
}

func (s *chatSession) printState(state api.AgentState) {
	var b strings.Builder
	fmt.Fprintf(&b, "agent   %s", state.AgentID)
	if state.AgentDetails != nil && state.AgentDetails.Name != "" {
		fmt.Fprintf(&b, " (%s)", state.AgentDetails.Name)
	}
	fmt.Fprintf(&b, "\nsession %s", orNone(state.SessionID))
	if state.SessionDetails != nil {
		fmt.Fprintf(&b, " [%d tasks]", len(state.SessionDetails.Tasks))
	}
	fmt.Fprintf(&b, "\ntask    %s", orNone(state.TaskID))
	if state.TaskDetails != nil {
		if state.TaskDetails.Name != "" {
			fmt.Fprintf(&b, " (%s)", state.TaskDetails.Name)
		}
		fmt.Fprintf(&b, " [%d skills]", len(state.TaskDetails.Skills))
	}
	fmt.Fprintln(s.out, panelStyle.Render(b.String()))
}

func (s *chatSession) render(res *api.ActionResult) {
	if res == nil {
		return
	}
	switch {
	case res.RequiresApproval && res.FunctionCall != nil:
		fc := *res.FunctionCall
		s.pending = &fc
		s.notice("the agent wants to run %s; type approve or decline", formatCall(fc))
	case res.Response != nil:
		fmt.Fprintf(s.out, "%s %s\n", modelColor.Sprint("agent>"), wordwrap.String(res.Response.Message, s.width))
		if res.Response.Notes != "" {
			dimColor.Fprintln(s.out, wordwrap.String(res.Response.Notes, s.width))
		}
	case res.Success:
		s.notice("%s", res.Message)
		s.render(res.Result)
	}
}

// wait runs fn behind a spinner when output is interactive
func (s *chatSession) wait(fn func() error) error {
	if !s.spin {
		return fn()
	}
	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(s.out))
	sp.Suffix = " waiting for the agent"
	sp.Start()
	defer sp.Stop()
	return fn()
}

func (s *chatSession) notice(format string, args ...interface{}) {
	noticeColor.Fprintf(s.out, "* "+format+"\n", args...)
}

// parseSelector treats numbers as 1-based positions and anything else as an id
func parseSelector(arg string) coordinator.Selector {
	if n, err := strconv.Atoi(arg); err == nil {
		return coordinator.ByIndex(n)
	}
	return coordinator.ByID(arg)
}

func formatCall(fc api.FunctionCall) string {
	keys := make([]string, 0, len(fc.Args))
	for k := range fc.Args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]string, 0, len(keys))
	for _, k := range keys {
		args = append(args, fmt.Sprintf("%s=%v", k, fc.Args[k]))
	}
	return fmt.Sprintf("%s(%s)", fc.Name, strings.Join(args, ", "))
}

func orNone(id string) string {
	if id == "" {
		return "-"
	}
	return id
}

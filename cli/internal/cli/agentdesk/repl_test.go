package agentdesk

import (
	"bytes"
	"context"
	"testing"

	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sdk "github.com/agentdesk/agentdesk-go/pkg/agentdesk"
	"github.com/agentdesk/agentdesk-go/pkg/agentdesk/api"
	"github.com/agentdesk/agentdesk-go/pkg/agentdesk/coordinator"
)

func newTestSession(t *testing.T) (*chatSession, *bytes.Buffer) {
	t.Helper()
	srv := newFakeAPI(t)

	cfg := sdk.DefaultConfig()
	cfg.BaseURL = srv.URL
	client, err := sdk.New(context.Background(), cfg, sdk.WithLogger(testr.New(t)))
	require.NoError(t, err)
	t.Cleanup(client.Close)

	out := &bytes.Buffer{}
	s := newChatSession(client, out, false)
	t.Cleanup(s.close)
	require.NoError(t, s.start(context.Background(), "A1"))
	return s, out
}

func TestChatSession_StartPrintsState(t *testing.T) {
	_, out := newTestSession(t)

	assert.Contains(t, out.String(), "A1 (Tutor)")
	assert.Contains(t, out.String(), "S1 [1 tasks]")
	assert.Contains(t, out.String(), "T1 (Intro) [1 skills]")
}

func TestChatSession_Send(t *testing.T) {
	s, out := newTestSession(t)
	out.Reset()

	require.NoError(t, s.send(context.Background(), "hello there"))
	assert.Contains(t, out.String(), "echo: hello there")
	assert.Len(t, s.client.Coordinator.ConversationHistory(), 2)
}

func TestChatSession_SendBlankIsIgnored(t *testing.T) {
	s, out := newTestSession(t)
	out.Reset()

	require.NoError(t, s.send(context.Background(), "   "))
	assert.Empty(t, out.String())
	assert.Empty(t, s.client.Coordinator.ConversationHistory())
}

func TestChatSession_AutoSwitchTask(t *testing.T) {
	s, out := newTestSession(t)
	out.Reset()

	require.NoError(t, s.send(context.Background(), "next"))
	assert.Equal(t, "T2", s.client.Coordinator.AgentState().TaskID)
	assert.Contains(t, out.String(), "task T1 -> T2")
	assert.Contains(t, out.String(), "echo: Switched to task: Review")
	assert.Nil(t, s.pending)
}

func TestChatSession_ApproveFlow(t *testing.T) {
	s, out := newTestSession(t)
	require.NoError(t, s.setAuto([]string{"task", "off"}))
	out.Reset()

	require.NoError(t, s.send(context.Background(), "next"))
	require.NotNil(t, s.pending)
	assert.Contains(t, out.String(), "switchTask(task_id=T2)")
	assert.Contains(t, out.String(), "approve or decline")
	assert.Equal(t, "T1", s.client.Coordinator.AgentState().TaskID)

	require.NoError(t, s.approve(context.Background()))
	assert.Nil(t, s.pending)
	assert.Equal(t, "T2", s.client.Coordinator.AgentState().TaskID)

	out.Reset()
	s.printHistory()
	assert.Contains(t, out.String(), "[APPROVED]")
}

func TestChatSession_FailedApproveKeepsPending(t *testing.T) {
	s, _ := newTestSession(t)
	fc := api.FunctionCall{
		Name: api.FunctionSwitchSession,
		Args: map[string]interface{}{"sessionIndex": 9},
	}
	s.pending = &fc

	err := s.approve(context.Background())
	require.Error(t, err)
	require.NotNil(t, s.pending)
	assert.Equal(t, fc, *s.pending)
	assert.Equal(t, "S1", s.client.Coordinator.AgentState().SessionID)

	s.pending.Args["sessionIndex"] = 2
	require.NoError(t, s.approve(context.Background()))
	assert.Nil(t, s.pending)
	assert.Equal(t, "S2", s.client.Coordinator.AgentState().SessionID)
}

func TestChatSession_DeclineFlow(t *testing.T) {
	s, out := newTestSession(t)
	require.NoError(t, s.setAuto([]string{"task", "off"}))

	require.NoError(t, s.send(context.Background(), "next"))
	require.NoError(t, s.decline())
	assert.Nil(t, s.pending)
	assert.Equal(t, "T1", s.client.Coordinator.AgentState().TaskID)

	history := s.client.Coordinator.ConversationHistory()
	require.Len(t, history, 2)
	assert.Equal(t, api.FunctionCallDeclined, history[1].Meta.FunctionCallStatus)
	assert.Contains(t, out.String(), "declined switchTask")
}

func TestChatSession_NothingPending(t *testing.T) {
	s, _ := newTestSession(t)

	assert.Error(t, s.approve(context.Background()))
	assert.Error(t, s.decline())
}

func TestChatSession_Skill(t *testing.T) {
	s, out := newTestSession(t)
	out.Reset()

	require.NoError(t, s.skill(context.Background(), []string{"1", "what", "is", "this?"}))
	assert.Contains(t, out.String(), "skill K1: what is this?")

	require.NoError(t, s.skill(context.Background(), []string{"1"}))
	assert.Contains(t, out.String(), "skill K1: "+coordinator.DefaultSkillMessage)

	assert.Error(t, s.skill(context.Background(), nil))
	assert.Error(t, s.skill(context.Background(), []string{"first"}))
	assert.Error(t, s.skill(context.Background(), []string{"2"}))
}

func TestChatSession_SelectSessionAndTask(t *testing.T) {
	s, out := newTestSession(t)
	out.Reset()

	require.NoError(t, s.selectSession(context.Background(), "2"))
	state := s.client.Coordinator.AgentState()
	assert.Equal(t, "S2", state.SessionID)
	assert.Equal(t, "T2", state.TaskID)
	assert.Contains(t, out.String(), "session S1 -> S2")

	require.NoError(t, s.selectTask(context.Background(), "T1"))
	assert.Equal(t, "T1", s.client.Coordinator.AgentState().TaskID)

	assert.Error(t, s.selectSession(context.Background(), "3"))
}

func TestChatSession_SetAuto(t *testing.T) {
	s, out := newTestSession(t)
	out.Reset()

	require.NoError(t, s.setAuto(nil))
	assert.Contains(t, out.String(), "switchTask=true switchSession=true useSkill=true")

	require.NoError(t, s.setAuto([]string{"session", "off"}))
	require.NoError(t, s.setAuto([]string{"skill", "off"}))
	assert.Equal(t, coordinator.AutoExecution{SwitchTask: true}, s.client.Coordinator.AutoExecution())

	assert.Error(t, s.setAuto([]string{"task"}))
	assert.Error(t, s.setAuto([]string{"task", "maybe"}))
	assert.Error(t, s.setAuto([]string{"rocket", "on"}))
}

func TestChatSession_ClearHistory(t *testing.T) {
	s, out := newTestSession(t)
	require.NoError(t, s.send(context.Background(), "hi"))

	s.clearHistory()
	assert.Empty(t, s.client.Coordinator.ConversationHistory())

	out.Reset()
	s.printHistory()
	assert.Contains(t, out.String(), "history is empty")
}

func TestChatSession_CloseUnsubscribes(t *testing.T) {
	s, out := newTestSession(t)
	s.close()
	out.Reset()

	_, err := s.client.Coordinator.ChangeSession(context.Background(), coordinator.ByIndex(2))
	require.NoError(t, err)
	assert.NotContains(t, out.String(), "session S1 -> S2")
}

func TestFormatCall(t *testing.T) {
	fc := api.FunctionCall{
		Name: api.FunctionUseSkill,
		Args: map[string]interface{}{"skillName": 2, "message": "hi"},
	}
	assert.Equal(t, "useSkill(message=hi, skillName=2)", formatCall(fc))
	assert.Equal(t, "switchTask()", formatCall(api.FunctionCall{Name: api.FunctionSwitchTask}))
}

func TestParseSelector(t *testing.T) {
	assert.Equal(t, coordinator.ByIndex(3), parseSelector("3"))
	assert.Equal(t, coordinator.ByID("S-3"), parseSelector("S-3"))
}

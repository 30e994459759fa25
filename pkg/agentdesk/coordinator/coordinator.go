// Package coordinator keeps the client-side view of a conversation with an
// agent: which agent, session and task are selected, the conversation
// history, and how server-issued function calls are carried out.
//
// A Coordinator is not safe for concurrent conversation operations. Two
// overlapping TestChat calls append to history in network completion order,
// so callers must serialize them (one Coordinator per conversation).
package coordinator

import (
	"context"
	"sync"
	"time"

	"dario.cat/mergo"
	"github.com/go-logr/logr"

	"github.com/agentdesk/agentdesk-go/pkg/agentdesk/api"
	apperrors "github.com/agentdesk/agentdesk-go/pkg/agentdesk/errors"
	"github.com/agentdesk/agentdesk-go/pkg/agentdesk/events"
)

// TimestampFormat is used for message capture times
const TimestampFormat = time.DateTime

// AutoExecution controls which function calls run without approval
type AutoExecution struct {
	SwitchTask    bool `json:"autoSwitchTask"`
	SwitchSession bool `json:"autoSwitchSession"`
	UseSkill      bool `json:"autoUseSkill"`
}

// DefaultAutoExecution enables every function call
func DefaultAutoExecution() AutoExecution {
	return AutoExecution{SwitchTask: true, SwitchSession: true, UseSkill: true}
}

func (a AutoExecution) allows(name string) bool {
	switch name {
	case api.FunctionSwitchTask:
		return a.SwitchTask
	case api.FunctionSwitchSession:
		return a.SwitchSession
	case api.FunctionUseSkill:
		return a.UseSkill
	default:
		// unknown calls go straight to dispatch, which rejects them
		return true
	}
}

// Options configures a Coordinator
type Options struct {
	Notifier      *events.Notifier
	Logger        logr.Logger
	AutoExecution *AutoExecution
	// Clock overrides time.Now, for tests
	Clock func() time.Time
}

// Coordinator owns the agent state and conversation history
type Coordinator struct {
	transport api.Transport
	notifier  *events.Notifier
	log       logr.Logger
	now       func() time.Time

	mu      sync.Mutex
	state   api.AgentState
	history []api.Message
	auto    AutoExecution
}

// New creates a new Coordinator
func New(transport api.Transport, opts Options) *Coordinator {
	log := opts.Logger
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = events.NewNotifier(log)
	}
	auto := DefaultAutoExecution()
	if opts.AutoExecution != nil {
		auto = *opts.AutoExecution
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}

	ts := now()
	return &Coordinator{
		transport: transport,
		notifier:  notifier,
		log:       log.WithName("coordinator"),
		now:       now,
		state:     api.AgentState{CreatedAt: ts, UpdatedAt: ts},
		auto:      auto,
	}
}

// Notifier returns the notifier events are published on
func (c *Coordinator) Notifier() *events.Notifier {
	return c.notifier
}

// AutoExecution returns the current auto-execution flags
func (c *Coordinator) AutoExecution() AutoExecution {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.auto
}

// SetAutoExecution replaces the auto-execution flags
func (c *Coordinator) SetAutoExecution(a AutoExecution) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.auto = a
}

// AgentState returns a copy of the current agent state
func (c *Coordinator) AgentState() api.AgentState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneState(c.state)
}

// UpdateAgentState merges the non-zero fields of patch into the state and
// stamps UpdatedAt.
func (c *Coordinator) UpdateAgentState(patch api.AgentState) (api.AgentState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := cloneState(c.state)
	createdAt := next.CreatedAt
	if err := mergo.Merge(&next, cloneState(patch), mergo.WithOverride); err != nil {
		c.log.Error(err, "failed to merge agent state")
		return cloneState(c.state), apperrors.New(apperrors.ErrCodeInvalidInput, "failed to merge agent state", err)
	}
	if patch.CreatedAt.IsZero() {
		next.CreatedAt = createdAt
	}
	next.UpdatedAt = c.now()
	c.state = next
	return cloneState(c.state), nil
}

// Reset forgets the selected agent and clears the history
func (c *Coordinator) Reset() {
	c.mu.Lock()
	ts := c.now()
	c.state = api.AgentState{CreatedAt: ts, UpdatedAt: ts}
	c.mu.Unlock()

	c.ClearConversationHistory()
}

// InitializeAgentState loads the agent and selects its first session and
// that session's first task. The state is only replaced if every fetch
// succeeds.
func (c *Coordinator) InitializeAgentState(ctx context.Context, agentID string) (api.AgentState, error) {
	log := c.log.WithValues("agentID", agentID)

	var agent api.Agent
	if err := c.transport.Get(ctx, api.ItemPath(api.AgentsPath, agentID), nil, &agent); err != nil {
		return c.initializationFailed(log, agentID, "failed to fetch agent", err)
	}

	var (
		session *api.Session
		task    *api.Task
	)
	if len(agent.Sessions) > 0 {
		s, err := c.fetchSession(ctx, agent.Sessions[0])
		if err != nil {
			return c.initializationFailed(log, agentID, "failed to fetch first session", err)
		}
		session = s
		if len(s.Tasks) > 0 {
			t, err := c.fetchTask(ctx, s.Tasks[0])
			if err != nil {
				return c.initializationFailed(log, agentID, "failed to fetch first task", err)
			}
			task = t
		}
	}

	c.mu.Lock()
	next := api.AgentState{
		AgentID:      agentID,
		AgentDetails: &agent,
		CreatedAt:    c.state.CreatedAt,
		UpdatedAt:    c.now(),
	}
	if session != nil {
		next.SessionID = session.ID
		next.SessionDetails = session
	}
	if task != nil {
		next.TaskID = task.ID
		next.TaskDetails = task
	}
	c.state = next
	snapshot := cloneState(next)
	c.mu.Unlock()

	log.V(1).Info("agent state initialized", "sessionID", snapshot.SessionID, "taskID", snapshot.TaskID)
	c.notifier.Publish(events.AgentStateInitialized{State: snapshot})
	return snapshot, nil
}

func (c *Coordinator) initializationFailed(log logr.Logger, agentID, msg string, cause error) (api.AgentState, error) {
	err := apperrors.New(apperrors.ErrCodeInitialization, msg, cause)
	log.Error(err, "agent state initialization failed")
	c.notifier.Publish(events.AgentStateInitializedError{Err: err, AgentID: agentID})
	return c.AgentState(), err
}

// ChangeSession selects another session of the current agent. When the new
// session has tasks its first task becomes current; otherwise the previous
// task is left in place.
func (c *Coordinator) ChangeSession(ctx context.Context, sel Selector) (*api.Session, error) {
	state := c.AgentState()

	var sessions []string
	if state.AgentDetails != nil {
		sessions = state.AgentDetails.Sessions
	}
	sessionID, err := sel.resolve(sessions, "session")
	if err != nil {
		c.log.Error(err, "session selection failed", "selector", sel.String())
		return nil, err
	}

	session, err := c.fetchSession(ctx, sessionID)
	if err != nil {
		c.log.Error(err, "failed to fetch session", "sessionID", sessionID)
		return nil, err
	}

	var task *api.Task
	if len(session.Tasks) > 0 {
		task, err = c.fetchTask(ctx, session.Tasks[0])
		if err != nil {
			c.log.Error(err, "failed to fetch first task of session", "sessionID", sessionID)
			return nil, err
		}
	}

	c.mu.Lock()
	previous := c.state.SessionID
	next := cloneState(c.state)
	next.SessionID = session.ID
	next.SessionDetails = session.Clone()
	if task != nil {
		next.TaskID = task.ID
		next.TaskDetails = task.Clone()
	}
	next.UpdatedAt = c.now()
	c.state = next
	c.mu.Unlock()

	c.notifier.Publish(events.SessionSwitched{PreviousSessionID: previous, SessionID: session.ID})
	return session, nil
}

// ChangeTask selects another task of the current session
func (c *Coordinator) ChangeTask(ctx context.Context, sel Selector) (*api.Task, error) {
	state := c.AgentState()

	if sel.IsIndex() && state.SessionDetails == nil {
		err := apperrors.New(apperrors.ErrCodeSelection, "no session selected", nil)
		c.log.Error(err, "task selection failed", "selector", sel.String())
		return nil, err
	}

	var tasks []string
	if state.SessionDetails != nil {
		tasks = state.SessionDetails.Tasks
	}
	taskID, err := sel.resolve(tasks, "task")
	if err != nil {
		c.log.Error(err, "task selection failed", "selector", sel.String())
		return nil, err
	}

	task, err := c.fetchTask(ctx, taskID)
	if err != nil {
		c.log.Error(err, "failed to fetch task", "taskID", taskID)
		return nil, err
	}

	c.mu.Lock()
	previous := c.state.TaskID
	next := cloneState(c.state)
	next.TaskID = task.ID
	next.TaskDetails = task.Clone()
	next.UpdatedAt = c.now()
	c.state = next
	c.mu.Unlock()

	c.notifier.Publish(events.TaskSwitched{PreviousTaskID: previous, TaskID: task.ID})
	return task, nil
}

func (c *Coordinator) fetchSession(ctx context.Context, id string) (*api.Session, error) {
	var s api.Session
	if err := c.transport.Get(ctx, api.ItemPath(api.SessionsPath, id), nil, &s); err != nil {
		return nil, err
	}
	if s.ID == "" {
		s.ID = id
	}
	return &s, nil
}

func (c *Coordinator) fetchTask(ctx context.Context, id string) (*api.Task, error) {
	var t api.Task
	if err := c.transport.Get(ctx, api.ItemPath(api.TasksPath, id), nil, &t); err != nil {
		return nil, err
	}
	if t.ID == "" {
		t.ID = id
	}
	return &t, nil
}

// cloneState deep-copies the detail structs so snapshots never alias live state
func cloneState(s api.AgentState) api.AgentState {
	s.AgentDetails = s.AgentDetails.Clone()
	s.SessionDetails = s.SessionDetails.Clone()
	s.TaskDetails = s.TaskDetails.Clone()
	return s
}

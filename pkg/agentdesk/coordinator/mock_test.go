package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr/testr"

	"github.com/agentdesk/agentdesk-go/pkg/agentdesk/api"
	apperrors "github.com/agentdesk/agentdesk-go/pkg/agentdesk/errors"
	"github.com/agentdesk/agentdesk-go/pkg/agentdesk/events"
)

// Mock implementations

type mockCall struct {
	Method string
	Path   string
	Body   interface{}
}

// MockTransport serves canned resources by path and queued responses for POSTs
type MockTransport struct {
	mu      sync.Mutex
	gets    map[string]interface{}
	getErrs map[string]error
	posts   map[string][]interface{}
	calls   []mockCall
}

func NewMockTransport() *MockTransport {
	return &MockTransport{
		gets:    make(map[string]interface{}),
		getErrs: make(map[string]error),
		posts:   make(map[string][]interface{}),
	}
}

func (m *MockTransport) AddAgent(a api.Agent) {
	m.gets[api.ItemPath(api.AgentsPath, a.ID)] = a
}

func (m *MockTransport) AddSession(s api.Session) {
	m.gets[api.ItemPath(api.SessionsPath, s.ID)] = s
}

func (m *MockTransport) AddTask(t api.Task) {
	m.gets[api.ItemPath(api.TasksPath, t.ID)] = t
}

func (m *MockTransport) FailGet(path string, err error) {
	m.getErrs[path] = err
}

// QueuePost queues a response (or an error) for the next POST to path
func (m *MockTransport) QueuePost(path string, resp interface{}) {
	m.posts[path] = append(m.posts[path], resp)
}

func (m *MockTransport) Calls() []mockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mockCall(nil), m.calls...)
}

func (m *MockTransport) CallsTo(path string) []mockCall {
	var out []mockCall
	for _, c := range m.Calls() {
		if c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

func (m *MockTransport) record(method, path string, body interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, mockCall{Method: method, Path: path, Body: body})
}

func (m *MockTransport) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	m.record(http.MethodGet, path, nil)
	if err, ok := m.getErrs[path]; ok {
		return err
	}
	v, ok := m.gets[path]
	if !ok {
		return apperrors.NewTransportError(http.MethodGet, path, http.StatusNotFound, "not found", nil, nil)
	}
	return roundTrip(v, out)
}

func (m *MockTransport) Post(ctx context.Context, path string, body, out interface{}) error {
	m.record(http.MethodPost, path, body)

	m.mu.Lock()
	queue := m.posts[path]
	if len(queue) == 0 {
		m.mu.Unlock()
		return fmt.Errorf("no queued response for POST %s", path)
	}
	next := queue[0]
	m.posts[path] = queue[1:]
	m.mu.Unlock()

	if err, ok := next.(error); ok {
		return err
	}
	return roundTrip(next, out)
}

func (m *MockTransport) Patch(ctx context.Context, path string, body, out interface{}) error {
	m.record(http.MethodPatch, path, body)
	return fmt.Errorf("unexpected PATCH %s", path)
}

func (m *MockTransport) Delete(ctx context.Context, path string, out interface{}) error {
	m.record(http.MethodDelete, path, nil)
	return fmt.Errorf("unexpected DELETE %s", path)
}

func roundTrip(v, out interface{}) error {
	if out == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// eventRecorder captures every published event in order
type eventRecorder struct {
	events []events.Event
}

func recordEvents(n *events.Notifier) *eventRecorder {
	r := &eventRecorder{}
	for _, k := range events.Kinds() {
		n.Subscribe(k, func(ev events.Event) error {
			r.events = append(r.events, ev)
			return nil
		})
	}
	return r
}

func (r *eventRecorder) kinds() []events.Kind {
	out := make([]events.Kind, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Kind())
	}
	return out
}

func (r *eventRecorder) ofKind(k events.Kind) []events.Event {
	var out []events.Event
	for _, ev := range r.events {
		if ev.Kind() == k {
			out = append(out, ev)
		}
	}
	return out
}

func (r *eventRecorder) reset() {
	r.events = nil
}

// Helper functions

var fixedNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func fixedClock() time.Time {
	return fixedNow
}

// newFixture returns a transport populated with:
//
//	agent A1: sessions S1, S2, S3
//	S1: tasks T1 (Intro), T2 (unnamed)   S2: task T3   S3: no tasks
//	T1: skills K1, K2   T2, T3: no skills
func newFixture() *MockTransport {
	m := NewMockTransport()
	m.AddAgent(api.Agent{ID: "A1", Name: "Tutor", Sessions: []string{"S1", "S2", "S3"}})
	m.AddSession(api.Session{ID: "S1", Name: "Morning", Tasks: []string{"T1", "T2"}})
	m.AddSession(api.Session{ID: "S2", Name: "Afternoon", Tasks: []string{"T3"}})
	m.AddSession(api.Session{ID: "S3", Name: "Empty"})
	m.AddTask(api.Task{ID: "T1", Name: "Intro", Skills: []string{"K1", "K2"}})
	m.AddTask(api.Task{ID: "T2"})
	m.AddTask(api.Task{ID: "T3", Name: "Review"})
	m.AddTask(api.Task{ID: "0", Name: "Zero"})
	return m
}

func newTestCoordinator(t *testing.T, m *MockTransport, auto *AutoExecution) (*Coordinator, *eventRecorder) {
	t.Helper()
	log := testr.New(t)
	n := events.NewNotifier(log)
	rec := recordEvents(n)
	c := New(m, Options{
		Notifier:      n,
		Logger:        log,
		AutoExecution: auto,
		Clock:         fixedClock,
	})
	return c, rec
}

func newInitializedCoordinator(t *testing.T, m *MockTransport, auto *AutoExecution) (*Coordinator, *eventRecorder) {
	t.Helper()
	c, rec := newTestCoordinator(t, m, auto)
	if _, err := c.InitializeAgentState(context.Background(), "A1"); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	rec.reset()
	return c, rec
}

func chatReply(text string) *api.ChatResponse {
	return &api.ChatResponse{Message: text, Timestamp: fixedNow.Format(time.RFC3339)}
}

func actionReply(text, name string, args map[string]interface{}) *api.ChatResponse {
	return &api.ChatResponse{Message: text, Action: &api.FunctionCall{Name: name, Args: args}}
}
